package commands

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/sharescan/sharescan/pkg/catalog"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show catalog statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if _, err := os.Stat(cfg.DatabasePath); os.IsNotExist(err) {
			fmt.Println("No catalog database found. Run a scan first: sharescan start")
			return nil
		}

		store, err := catalog.Open(cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("failed to open catalog: %w", err)
		}
		defer func() { _ = store.Close() }()

		data, err := store.Dashboard()
		if err != nil {
			return err
		}

		fmt.Printf("Files:        %s\n", humanize.Comma(data.TotalFiles))
		fmt.Printf("Directories:  %s\n", humanize.Comma(data.TotalDirectories))
		fmt.Printf("Total size:   %s\n", humanize.IBytes(uint64(max64(data.TotalSize, 0))))
		fmt.Printf("Average size: %s\n", humanize.IBytes(uint64(max64(data.AvgFileSize, 0))))
		fmt.Printf("Empty files:  %s\n", humanize.Comma(data.EmptyFiles))
		if data.DuplicateGroups > 0 {
			fmt.Printf("Duplicates:   %s groups, %s wasted\n",
				humanize.Comma(data.DuplicateGroups),
				humanize.IBytes(uint64(max64(data.DuplicateWastedBytes, 0))))
		}

		if len(data.ByType) > 0 {
			fmt.Println()
			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Category", "Files", "Size"})
			for _, c := range data.ByType {
				table.Append([]string{
					c.Category,
					humanize.Comma(c.Count),
					humanize.IBytes(uint64(max64(c.TotalSize, 0))),
				})
			}
			table.Render()
		}
		return nil
	},
}

func max64(n, floor int64) int64 {
	if n < floor {
		return floor
	}
	return n
}
