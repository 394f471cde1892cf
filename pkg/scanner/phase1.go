package scanner

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/sharescan/sharescan/internal/logger"
	"github.com/sharescan/sharescan/pkg/catalog"
	"github.com/sharescan/sharescan/pkg/categorize"
	"github.com/sharescan/sharescan/pkg/smb"
)

const dirMIMEType = "inode/directory"

// indexSource walks one source and records every file and directory.
// Incremental scans skip files whose modification time is unchanged;
// full scans additionally remove rows for paths that no longer exist.
func (s *Service) indexSource(ctx context.Context, src smb.Source, full bool) error {
	label := src.DisplayLabel()

	if err := s.client.Register(ctx, src); err != nil {
		return fmt.Errorf("failed to register source: %w", err)
	}

	existing := map[string]time.Time{}
	if !full {
		var err error
		existing, err = s.store.ExistingPathMTimes(label)
		if err != nil {
			return err
		}
	}

	seen := make(map[string]struct{})
	var batch []catalog.Record
	var tags []catalog.TagPair

	flush := func() error {
		if err := s.store.UpsertBatch(batch, tags); err != nil {
			return err
		}
		filesIndexed.Add(float64(len(batch)))
		batch = batch[:0]
		tags = tags[:0]
		return nil
	}

	// The walk yields entries, not the root itself; seed the root row so
	// the source appears in the tree and survives stale removal.
	rootLogical := smb.LogicalPath(src, "")
	seen[rootLogical] = struct{}{}
	batch = append(batch, catalog.Record{
		Path:        rootLogical,
		Name:        label,
		IsDirectory: true,
		MimeType:    strPtr(dirMIMEType),
		IndexedAt:   time.Now().UTC(),
	})

	err := s.client.Walk(ctx, src, func(info smb.FileInfo) error {
		logical := smb.LogicalPath(src, info.Path)
		seen[logical] = struct{}{}

		parent := path.Dir(logical)
		var parentPath *string
		if parent != "/" && parent != "." {
			parentPath = &parent
		}

		mtime := info.ModTime.UTC().Truncate(time.Second)

		if info.IsDir {
			batch = append(batch, catalog.Record{
				Path:        logical,
				Name:        info.Name,
				ParentPath:  parentPath,
				IsDirectory: true,
				MimeType:    strPtr(dirMIMEType),
				CreatedAt:   &mtime,
				ModifiedAt:  &mtime,
				IndexedAt:   time.Now().UTC(),
			})
		} else {
			s.tracker.addScanned(1)

			prev, known := existing[logical]
			if known && prev.Equal(mtime) {
				// Unchanged since last scan; keep the enriched row.
				return nil
			}

			mime := smb.GuessMIME(info.Name)
			batch = append(batch, catalog.Record{
				Path:       logical,
				Name:       info.Name,
				ParentPath: parentPath,
				Size:       info.Size,
				MimeType:   &mime,
				CreatedAt:  &mtime,
				ModifiedAt: &mtime,
				IndexedAt:  time.Now().UTC(),
			})

			for _, tag := range categorize.Categorize(info.Name, mime, info.Size, mtime) {
				tags = append(tags, catalog.TagPair{Path: logical, Tag: tag})
			}

			if known {
				s.tracker.addUpdated(1)
			} else {
				s.tracker.addAdded(1)
			}
		}

		if len(batch) >= s.cfg.BatchSize {
			return flush()
		}
		return nil
	})

	// Persist whatever was collected even when the walk was cut short, so
	// a cancelled scan keeps its partial progress.
	if ferr := flush(); ferr != nil && err == nil {
		err = ferr
	}
	if err != nil {
		return err
	}

	if full && ctx.Err() == nil {
		removed, err := s.store.DeleteStale(label, seen)
		if err != nil {
			return err
		}
		if removed > 0 {
			s.tracker.addRemoved(removed)
			logger.Info("removed stale entries", "source", src.ID(), "count", removed)
		}
	}

	return ctx.Err()
}

func strPtr(v string) *string { return &v }
