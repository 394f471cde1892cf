package scanner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sharescan/sharescan/internal/logger"
	"github.com/sharescan/sharescan/pkg/catalog"
	"github.com/sharescan/sharescan/pkg/extract"
	"github.com/sharescan/sharescan/pkg/smb"
)

const (
	// enrichTaskTimeout bounds one file's enrichment end to end.
	enrichTaskTimeout = 120 * time.Second

	// enrichPageSize is how many pending rows are claimed per query.
	enrichPageSize = 256

	// enrichCommitSize is how many results accumulate before a commit.
	enrichCommitSize = 50

	// maxTextReadBytes caps the raw bytes read for text extraction.
	maxTextReadBytes = 512 << 10
)

// enrich runs Phase 2: every file the indexing walk left without a
// fingerprint is processed by a bounded worker pool, and results are
// committed in batches so progress survives cancellation.
func (s *Service) enrich(ctx context.Context, sources []smb.Source) error {
	var (
		mu      sync.Mutex
		pending []catalog.Enrichment
	)

	flush := func() error {
		mu.Lock()
		batch := pending
		pending = nil
		mu.Unlock()
		if len(batch) == 0 {
			return nil
		}
		if err := s.store.ApplyEnrichments(batch); err != nil {
			return err
		}
		filesEnriched.Add(float64(len(batch)))
		s.tracker.addEnriched(int64(len(batch)))
		return nil
	}

	collect := func(e catalog.Enrichment) error {
		mu.Lock()
		pending = append(pending, e)
		full := len(pending) >= enrichCommitSize
		mu.Unlock()
		if full {
			return flush()
		}
		return nil
	}

	var lastID int64
	for {
		if err := ctx.Err(); err != nil {
			break
		}

		files, err := s.store.ListUnenriched(lastID, enrichPageSize)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			break
		}
		lastID = files[len(files)-1].ID

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.cfg.EnrichmentWorkers)

		for _, f := range files {
			f := f
			g.Go(func() error {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				e, err := s.enrichFile(gctx, sources, f)
				if err != nil {
					// Individual failures don't abort the scan; the row
					// stays unenriched for the next run.
					s.tracker.addError(f.Path + ": " + err.Error())
					logger.Debug("enrichment task failed", "path", f.Path, "error", err)
					return nil
				}
				return collect(e)
			})
		}
		if err := g.Wait(); err != nil {
			// Flush what completed before surfacing cancellation.
			if ferr := flush(); ferr != nil {
				return ferr
			}
			return err
		}
	}

	return flush()
}

// enrichFile computes everything Phase 2 knows how to derive for one file:
// content fingerprint, extracted text and media metadata. Partial results
// are returned with the first error-free subset.
func (s *Service) enrichFile(ctx context.Context, sources []smb.Source, f catalog.File) (catalog.Enrichment, error) {
	ctx, cancel := context.WithTimeout(ctx, enrichTaskTimeout)
	defer cancel()

	e := catalog.Enrichment{FileID: f.ID}

	src, rel, ok := smb.ResolveLogical(f.Path, sources)
	if !ok {
		return e, fmt.Errorf("no source for path %s", f.Path)
	}

	rd, err := s.client.Open(ctx, src, rel)
	if err != nil {
		return e, err
	}
	hash, err := Fingerprint(rd, f.Size, int64(s.cfg.HashSampleSizeKB)*1024)
	_ = rd.Close()
	if err != nil {
		return e, err
	}
	e.FileHash = &hash

	mime := ""
	if f.MimeType != nil {
		mime = *f.MimeType
	}

	if extract.IsTextLike(mime, f.Name) && f.Size <= int64(s.cfg.MaxTextExtractMB)<<20 {
		data, err := s.client.ReadBytes(ctx, src, rel, maxTextReadBytes)
		if err != nil {
			logger.Debug("text read failed", "path", f.Path, "error", err)
		} else if text := extract.Truncate(extract.TextFromBytes(data), s.cfg.MaxTextStoreKB<<10); text != "" {
			e.FullText = &text
		}
	}

	if extract.WantsMetadata(mime, f.Size) {
		local, err := s.temps.DownloadToTemp(ctx, s.client, src, rel)
		if err != nil {
			logger.Debug("metadata download failed", "path", f.Path, "error", err)
		} else {
			meta, err := s.prober.Probe(ctx, local, mime)
			s.temps.Remove(local)
			if err != nil {
				logger.Debug("metadata probe failed", "path", f.Path, "error", err)
			} else if meta != nil {
				if js, err := meta.JSON(); err == nil {
					e.MetadataJSON = &js
				}
			}
		}
	}

	return e, nil
}
