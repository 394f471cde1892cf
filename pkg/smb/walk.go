package smb

import (
	"context"
	"errors"
	"path"

	"github.com/sharescan/sharescan/internal/logger"
)

// SkipDir can be returned by a WalkFunc for a directory entry to prevent
// the walk from descending into it.
var SkipDir = errors.New("skip this directory")

// WalkFunc is called once per entry during a walk. Returning SkipDir for a
// directory prunes it; any other non-nil error aborts the walk.
type WalkFunc func(info FileInfo) error

// Walk traverses a source's tree breadth-first, visiting every directory
// exactly once. Cancellation is checked at each directory boundary.
// Unreadable directories are logged and skipped rather than aborting the
// whole walk.
func (c *Client) Walk(ctx context.Context, src Source, fn WalkFunc) error {
	sh, err := c.share(ctx, src)
	if err != nil {
		return err
	}

	queue := []string{src.Root()}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		dir := queue[0]
		queue = queue[1:]

		entries, err := sh.ReadDir(toWire(dir))
		if err != nil {
			logger.Warn("failed to read directory, skipping",
				"host", src.Host, "share", src.Share, "dir", dir,
				"error", classify(err))
			continue
		}

		for _, e := range entries {
			name := e.Name()
			if name == "." || name == ".." {
				continue
			}
			info := FileInfo{
				Name:    name,
				Path:    path.Join(dir, name),
				IsDir:   e.IsDir(),
				Size:    e.Size(),
				ModTime: e.ModTime(),
			}
			if err := fn(info); err != nil {
				if errors.Is(err, SkipDir) && info.IsDir {
					continue
				}
				return err
			}
			if info.IsDir {
				queue = append(queue, info.Path)
			}
		}
	}

	return nil
}
