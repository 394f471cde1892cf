// Package scanner drives catalog builds in two phases: a fast indexing
// walk that records names, sizes and rule tags, followed by parallel
// enrichment that fingerprints content, extracts text and probes media
// metadata. At most one scan runs at a time.
package scanner

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/sharescan/sharescan/internal/logger"
	"github.com/sharescan/sharescan/pkg/catalog"
	"github.com/sharescan/sharescan/pkg/config"
	"github.com/sharescan/sharescan/pkg/extract"
	"github.com/sharescan/sharescan/pkg/smb"
)

// Lifecycle errors.
var (
	// ErrScanBusy is returned when a scan is already in progress.
	ErrScanBusy = errors.New("scan already in progress")

	// ErrNoSources is returned when starting a scan with nothing
	// configured to index.
	ErrNoSources = errors.New("no sources configured")
)

// SourceProvider supplies the sources to index, with credentials resolved.
type SourceProvider interface {
	Sources() ([]smb.Source, error)
}

// ShareClient is the slice of the SMB client the scanner uses. *smb.Client
// satisfies it.
type ShareClient interface {
	Register(ctx context.Context, src smb.Source) error
	Walk(ctx context.Context, src smb.Source, fn smb.WalkFunc) error
	Open(ctx context.Context, src smb.Source, relPath string) (io.ReadSeekCloser, error)
	ReadBytes(ctx context.Context, src smb.Source, relPath string, maxBytes int64) ([]byte, error)
}

// Service owns scan execution. Start spawns the scan goroutine; Stop
// cancels it; Wait joins it.
type Service struct {
	store    *catalog.Store
	client   ShareClient
	temps    *smb.TempStore
	prober   *extract.Prober
	provider SourceProvider
	cfg      config.ScanConfig

	tracker tracker

	// guarded by tracker.mu via running flag in state
	cancel context.CancelFunc
	done   chan struct{}
}

// New assembles a scan service from its dependencies.
func New(store *catalog.Store, client ShareClient, temps *smb.TempStore,
	prober *extract.Prober, provider SourceProvider, cfg config.ScanConfig) *Service {
	return &Service{
		store:    store,
		client:   client,
		temps:    temps,
		prober:   prober,
		provider: provider,
		cfg:      cfg,
	}
}

// Status returns a snapshot of current scan progress.
func (s *Service) Status() State {
	return s.tracker.snapshot()
}

// Start launches a scan in the background and returns its initial state.
// A full scan re-indexes everything and removes stale rows; an incremental
// scan skips files whose modification time is unchanged.
func (s *Service) Start(full bool) (State, error) {
	sources, err := s.provider.Sources()
	if err != nil {
		return State{}, err
	}
	if len(sources) == 0 {
		return State{}, ErrNoSources
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	s.tracker.mu.Lock()
	if s.tracker.state.Running {
		s.tracker.mu.Unlock()
		cancel()
		return State{}, ErrScanBusy
	}
	// Claim the running slot and publish the cancel handle in the same
	// critical section, so a Stop racing with Start always reaches a
	// scan that was admitted.
	s.tracker.state = State{Running: true}
	s.cancel = cancel
	s.done = done
	s.tracker.mu.Unlock()

	startedAt := time.Now().UTC()
	scanID, err := s.store.BeginScan(startedAt)
	if err != nil {
		cancel()
		s.tracker.mu.Lock()
		s.cancel = nil
		s.done = nil
		s.tracker.state = State{}
		s.tracker.mu.Unlock()
		close(done)
		return State{}, err
	}

	s.tracker.begin(scanID, startedAt)

	scansStarted.Inc()
	logger.Info("scan started", "scan_id", scanID, "full", full, "sources", len(sources))

	go func() {
		defer close(done)
		s.run(ctx, scanID, full, sources)
	}()

	return s.Status(), nil
}

// Stop requests cancellation of the running scan. It returns immediately;
// the scan stops at its next checkpoint. Returns false when no scan was
// running.
func (s *Service) Stop() bool {
	s.tracker.mu.Lock()
	running := s.tracker.state.Running
	cancel := s.cancel
	s.tracker.mu.Unlock()

	if !running || cancel == nil {
		return false
	}
	cancel()
	logger.Info("scan cancellation requested")
	return true
}

// Wait blocks until the current scan goroutine exits. Used on shutdown so
// in-flight batches settle before the process leaves.
func (s *Service) Wait() {
	s.tracker.mu.Lock()
	done := s.done
	s.tracker.mu.Unlock()
	if done != nil {
		<-done
	}
}

// run executes both phases and records the terminal scan-log row.
func (s *Service) run(ctx context.Context, scanID int64, full bool, sources []smb.Source) {
	start := time.Now()
	var failure error

	for _, src := range sources {
		if ctx.Err() != nil {
			break
		}
		s.tracker.setSource(src.DisplayLabel())
		if err := s.indexSource(ctx, src, full); err != nil && !errors.Is(err, context.Canceled) {
			s.tracker.addError("source " + src.ID() + ": " + err.Error())
			logger.Error("source indexing failed", "source", src.ID(), "error", err)
		}
	}

	if ctx.Err() == nil {
		s.tracker.setPhase(PhaseEnriching)
		s.tracker.setSource("")
		if err := s.enrich(ctx, sources); err != nil && !errors.Is(err, context.Canceled) {
			failure = err
			logger.Error("enrichment failed", "scan_id", scanID, "error", err)
		}
	}

	s.temps.RemoveAll()

	status := catalog.ScanStatusCompleted
	switch {
	case failure != nil:
		status = catalog.ScanStatusFailed
	case ctx.Err() != nil:
		status = catalog.ScanStatusCancelled
	}

	final := s.tracker.snapshot()
	counters := catalog.ScanCounters{
		FilesScanned: final.FilesScanned,
		FilesAdded:   final.FilesAdded,
		FilesUpdated: final.FilesUpdated,
		FilesRemoved: final.FilesRemoved,
		Errors:       final.Errors,
	}
	if err := s.store.FinishScan(scanID, status, counters, marshalErrorLog(final.ErrorLog, failure)); err != nil {
		logger.Error("failed to finalize scan log", "scan_id", scanID, "error", err)
	}

	scanDuration.Observe(time.Since(start).Seconds())
	s.tracker.finish()
	logger.Info("scan finished",
		"scan_id", scanID,
		"status", status,
		"scanned", counters.FilesScanned,
		"added", counters.FilesAdded,
		"updated", counters.FilesUpdated,
		"removed", counters.FilesRemoved,
		"errors", counters.Errors,
		"duration", logger.Duration(start))
}

// marshalErrorLog serializes the retained error messages for the scan log.
func marshalErrorLog(msgs []string, failure error) string {
	if failure != nil {
		msgs = append(msgs, "fatal: "+failure.Error())
	}
	if len(msgs) == 0 {
		return ""
	}
	data, err := json.Marshal(msgs)
	if err != nil {
		return strings.Join(msgs, "; ")
	}
	return string(data)
}
