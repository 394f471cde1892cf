package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/sharescan/sharescan/pkg/catalog"
	"github.com/sharescan/sharescan/pkg/config"
	"github.com/sharescan/sharescan/pkg/smb"
	"github.com/sharescan/sharescan/pkg/sources"
	"github.com/sharescan/sharescan/pkg/vault"
)

// sourcesEnv bundles the pieces the sources subcommands operate on.
type sourcesEnv struct {
	cfg     *config.Config
	store   *catalog.Store
	client  *smb.Client
	manager *sources.Manager
}

func openSourcesEnv() (*sourcesEnv, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.EnsureDirs(); err != nil {
		return nil, nil, err
	}

	store, err := catalog.Open(cfg.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	client := smb.NewClient()
	manager := sources.NewManager(cfg.DataDir(), vault.New(cfg.DataDir()), client, store)

	cleanup := func() {
		_ = client.Close()
		_ = store.Close()
	}
	return &sourcesEnv{cfg: cfg, store: store, client: client, manager: manager}, cleanup, nil
}

func newSourcesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Manage SMB sources (list, add, remove, test, discover)",
	}
	cmd.AddCommand(sourcesListCmd())
	cmd.AddCommand(sourcesAddCmd())
	cmd.AddCommand(sourcesRemoveCmd())
	cmd.AddCommand(sourcesTestCmd())
	cmd.AddCommand(sourcesDiscoverCmd())
	return cmd
}

func sourcesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, cleanup, err := openSourcesEnv()
			if err != nil {
				return err
			}
			defer cleanup()

			srcs, err := env.manager.Sources()
			if err != nil {
				return err
			}
			if len(srcs) == 0 {
				fmt.Println("No sources configured. Add one with: sharescan sources add")
				return nil
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Source ID", "Label", "Host", "Share", "Subfolder", "Username"})
			for _, src := range srcs {
				table.Append([]string{
					src.ID(), src.DisplayLabel(), src.Host, src.Share, src.Subfolder, src.Username,
				})
			}
			table.Render()
			return nil
		},
	}
}

func sourcesAddCmd() *cobra.Command {
	var (
		host      string
		share     string
		username  string
		subfolder string
		label     string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an SMB source",
		Long: `Add an SMB source to the catalog.

The password is always prompted interactively and never accepted as a
flag, so it cannot leak through shell history or process listings.

Examples:
  sharescan sources add --host 192.168.1.10 --share media --username alice
  sharescan sources add --host nas.local --share homes --subfolder /alice/photos --label Photos`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if host == "" || share == "" {
				return fmt.Errorf("--host and --share are required")
			}

			password := ""
			if username != "" {
				prompt := promptui.Prompt{
					Label: fmt.Sprintf("Password for %s@%s", username, host),
					Mask:  '*',
				}
				var err error
				if password, err = prompt.Run(); err != nil {
					return fmt.Errorf("password prompt aborted: %w", err)
				}
			}

			env, cleanup, err := openSourcesEnv()
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			id, err := env.manager.Add(ctx, smb.Source{
				Host:      host,
				Share:     share,
				Username:  username,
				Password:  password,
				Subfolder: subfolder,
				Label:     label,
			})
			if err != nil {
				if id == "" {
					return err
				}
				fmt.Printf("Source %s saved, but the connection failed: %v\n", id, err)
				fmt.Println("It will be retried when a scan starts.")
				return nil
			}

			fmt.Printf("Source %s added and connected.\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "SMB server hostname or IP (required)")
	cmd.Flags().StringVar(&share, "share", "", "Share name (required)")
	cmd.Flags().StringVar(&username, "username", "", "SMB username (empty for guest access)")
	cmd.Flags().StringVar(&subfolder, "subfolder", "", "Subfolder within the share to index (default: whole share)")
	cmd.Flags().StringVar(&label, "label", "", "Display label (default: share name)")
	return cmd
}

func sourcesRemoveCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "remove <source-id>",
		Short: "Remove a source and purge its catalog entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]

			if !yes {
				prompt := promptui.Prompt{
					Label:     fmt.Sprintf("Remove %s and purge its indexed files", id),
					IsConfirm: true,
				}
				if _, err := prompt.Run(); err != nil {
					fmt.Println("Aborted.")
					return nil
				}
			}

			env, cleanup, err := openSourcesEnv()
			if err != nil {
				return err
			}
			defer cleanup()

			purged, err := env.manager.Remove(id)
			if err != nil {
				return err
			}
			fmt.Printf("Source %s removed; %d catalog entries purged.\n", id, purged)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func sourcesTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test [source-id]",
		Short: "Test connectivity to one source, or all of them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, cleanup, err := openSourcesEnv()
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			srcs, err := env.manager.Sources()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				src, err := env.manager.Resolve(args[0])
				if err != nil {
					return err
				}
				srcs = []smb.Source{src}
			}
			if len(srcs) == 0 {
				fmt.Println("No sources configured.")
				return nil
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Source ID", "Status", "Message", "Items"})
			for _, src := range srcs {
				result := env.client.TestConnection(ctx, src)
				status := "OK"
				if !result.Success {
					status = "FAILED"
				}
				table.Append([]string{
					src.ID(), status, result.Message, fmt.Sprintf("%d", result.ItemsFound),
				})
			}
			table.Render()
			return nil
		},
	}
}

func sourcesDiscoverCmd() *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "discover <host>",
		Short: "List the shares a host exposes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			host := args[0]

			password := ""
			if username != "" {
				prompt := promptui.Prompt{
					Label: fmt.Sprintf("Password for %s@%s", username, host),
					Mask:  '*',
				}
				var err error
				if password, err = prompt.Run(); err != nil {
					return fmt.Errorf("password prompt aborted: %w", err)
				}
			}

			env, cleanup, err := openSourcesEnv()
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			shares, err := env.client.DiscoverShares(ctx, host, username, password)
			if err != nil {
				return err
			}
			if len(shares) == 0 {
				fmt.Printf("No accessible shares found on %s.\n", host)
				return nil
			}

			fmt.Printf("Shares on %s:\n", host)
			for _, s := range shares {
				fmt.Printf("  %s\n", s)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "SMB username (empty for guest access)")
	return cmd
}
