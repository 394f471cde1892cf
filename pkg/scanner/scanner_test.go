package scanner

import (
	"context"
	"errors"
	"io"
	"path"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharescan/sharescan/pkg/catalog"
	"github.com/sharescan/sharescan/pkg/config"
	"github.com/sharescan/sharescan/pkg/extract"
	"github.com/sharescan/sharescan/pkg/smb"
)

type stubProvider struct {
	sources []smb.Source
	err     error
}

func (p *stubProvider) Sources() ([]smb.Source, error) {
	return p.sources, p.err
}

type fakeEntry struct {
	path    string // share-relative
	isDir   bool
	size    int64
	modTime time.Time
	data    string
}

// fakeShareClient serves a static tree in place of a live SMB host.
type fakeShareClient struct {
	entries    []fakeEntry
	registerFn func(ctx context.Context) error
}

func (f *fakeShareClient) Register(ctx context.Context, _ smb.Source) error {
	if f.registerFn != nil {
		return f.registerFn(ctx)
	}
	return nil
}

func (f *fakeShareClient) Walk(ctx context.Context, _ smb.Source, fn smb.WalkFunc) error {
	for _, e := range f.entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := fn(smb.FileInfo{
			Name:    path.Base(e.path),
			Path:    e.path,
			IsDir:   e.isDir,
			Size:    e.size,
			ModTime: e.modTime,
		})
		if err != nil && !errors.Is(err, smb.SkipDir) {
			return err
		}
	}
	return nil
}

func (f *fakeShareClient) Open(_ context.Context, _ smb.Source, relPath string) (io.ReadSeekCloser, error) {
	for _, e := range f.entries {
		if e.path == relPath && !e.isDir {
			return nopReadSeekCloser{strings.NewReader(e.data)}, nil
		}
	}
	return nil, smb.ErrNotFound
}

func (f *fakeShareClient) ReadBytes(ctx context.Context, src smb.Source, relPath string, maxBytes int64) ([]byte, error) {
	rd, err := f.Open(ctx, src, relPath)
	if err != nil {
		return nil, err
	}
	defer rd.Close()
	var r io.Reader = rd
	if maxBytes > 0 {
		r = io.LimitReader(rd, maxBytes)
	}
	return io.ReadAll(r)
}

type nopReadSeekCloser struct{ *strings.Reader }

func (nopReadSeekCloser) Close() error { return nil }

func newTestService(t *testing.T, client ShareClient, provider SourceProvider) *Service {
	t.Helper()
	store, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	temps, err := smb.NewTempStore(t.TempDir())
	require.NoError(t, err)

	return New(store, client, temps, extract.NewProber(), provider, config.Default().Scan)
}

func TestStartWithNoSources(t *testing.T) {
	svc := newTestService(t, smb.NewClient(), &stubProvider{})

	_, err := svc.Start(false)
	assert.ErrorIs(t, err, ErrNoSources)

	state := svc.Status()
	assert.False(t, state.Running)
}

func TestStartWhileRunning(t *testing.T) {
	svc := newTestService(t, smb.NewClient(), &stubProvider{
		sources: []smb.Source{{Host: "nas.test", Share: "media", Label: "M"}},
	})

	// Simulate an in-flight scan holding the running slot.
	svc.tracker.mu.Lock()
	svc.tracker.state.Running = true
	svc.tracker.mu.Unlock()

	_, err := svc.Start(false)
	assert.ErrorIs(t, err, ErrScanBusy)
}

func TestStopWithoutScan(t *testing.T) {
	svc := newTestService(t, smb.NewClient(), &stubProvider{})
	assert.False(t, svc.Stop())
}

func TestIncrementalScanSkipsUnchanged(t *testing.T) {
	mod := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	fake := &fakeShareClient{entries: []fakeEntry{
		{path: "docs", isDir: true, modTime: mod},
		{path: "docs/notes.txt", size: 11, modTime: mod, data: "hello world"},
	}}
	src := smb.Source{Host: "nas.test", Share: "media", Label: "Media"}
	svc := newTestService(t, fake, &stubProvider{sources: []smb.Source{src}})

	_, err := svc.Start(false)
	require.NoError(t, err)
	svc.Wait()

	history, err := svc.store.ScanHistory(10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, catalog.ScanStatusCompleted, history[0].Status)
	assert.Equal(t, int64(1), history[0].FilesAdded)

	item, err := svc.store.GetByPath("/Media/docs/notes.txt")
	require.NoError(t, err)
	require.NotNil(t, item.FileHash)
	firstHash := *item.FileHash

	// Nothing changed on the share, so the second pass must skip the file
	// and leave its enrichment alone.
	_, err = svc.Start(false)
	require.NoError(t, err)
	svc.Wait()

	history, err = svc.store.ScanHistory(10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, catalog.ScanStatusCompleted, history[0].Status)
	assert.Zero(t, history[0].FilesAdded)
	assert.Zero(t, history[0].FilesUpdated)

	item, err = svc.store.GetByPath("/Media/docs/notes.txt")
	require.NoError(t, err)
	require.NotNil(t, item.FileHash)
	assert.Equal(t, firstHash, *item.FileHash)
}

func TestStopCancelsRunningScan(t *testing.T) {
	fake := &fakeShareClient{
		registerFn: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}
	src := smb.Source{Host: "nas.test", Share: "media", Label: "Media"}
	svc := newTestService(t, fake, &stubProvider{sources: []smb.Source{src}})

	_, err := svc.Start(false)
	require.NoError(t, err)

	// Once Start has returned, the cancel handle must be reachable even
	// though the scan goroutine may not have run yet.
	assert.True(t, svc.Stop())
	svc.Wait()

	assert.False(t, svc.Status().Running)

	history, err := svc.store.ScanHistory(10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, catalog.ScanStatusCancelled, history[0].Status)
}

func TestStatusSnapshotIsolated(t *testing.T) {
	svc := newTestService(t, smb.NewClient(), &stubProvider{})

	svc.tracker.addError("one")
	snap := svc.Status()
	require.Len(t, snap.ErrorLog, 1)

	// Mutating the snapshot must not leak back into the tracker.
	snap.ErrorLog[0] = "mutated"
	assert.Equal(t, "one", svc.Status().ErrorLog[0])
}

func TestTrackerErrorLogCapped(t *testing.T) {
	var tr tracker
	for i := 0; i < maxErrorLog+25; i++ {
		tr.addError("err")
	}
	state := tr.snapshot()
	assert.Equal(t, int64(maxErrorLog+25), state.Errors)
	assert.Len(t, state.ErrorLog, maxErrorLog)
}

func TestMarshalErrorLog(t *testing.T) {
	assert.Equal(t, "", marshalErrorLog(nil, nil))
	assert.Contains(t, marshalErrorLog([]string{"a"}, nil), `"a"`)
	assert.Contains(t, marshalErrorLog(nil, assert.AnError), "fatal:")
}
