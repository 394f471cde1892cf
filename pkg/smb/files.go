package smb

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/sharescan/sharescan/internal/logger"
)

// copyChunkSize is the buffer size for temp downloads.
const copyChunkSize = 1 << 20 // 1 MiB

// Stat returns file information for a share-relative path.
func (c *Client) Stat(ctx context.Context, src Source, relPath string) (FileInfo, error) {
	sh, err := c.share(ctx, src)
	if err != nil {
		return FileInfo{}, err
	}

	fi, err := sh.Stat(toWire(relPath))
	if err != nil {
		return FileInfo{}, fmt.Errorf("failed to stat %s: %w", relPath, classify(err))
	}

	return FileInfo{
		Name:    fi.Name(),
		Path:    path.Clean("/" + relPath)[1:],
		IsDir:   fi.IsDir(),
		Size:    fi.Size(),
		ModTime: fi.ModTime(),
	}, nil
}

// Open opens a remote file for reading. The returned reader supports Seek,
// which makes it usable for HTTP range requests and sampled hashing.
func (c *Client) Open(ctx context.Context, src Source, relPath string) (io.ReadSeekCloser, error) {
	sh, err := c.share(ctx, src)
	if err != nil {
		return nil, err
	}

	f, err := sh.Open(toWire(relPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", relPath, classify(err))
	}
	return f, nil
}

// ReadBytes reads up to maxBytes from a remote file (the whole file when
// maxBytes is zero).
func (c *Client) ReadBytes(ctx context.Context, src Source, relPath string, maxBytes int64) ([]byte, error) {
	f, err := c.Open(ctx, src, relPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if maxBytes > 0 {
		r = io.LimitReader(f, maxBytes)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", relPath, classify(err))
	}
	return data, nil
}

// Opener opens remote files for reading. *Client satisfies it.
type Opener interface {
	Open(ctx context.Context, src Source, relPath string) (io.ReadSeekCloser, error)
}

// TempStore tracks local temp copies of remote files, for tools that need a
// real file on disk (ffprobe, image decoding). Every downloaded file is
// remembered so a shutdown can sweep stragglers.
type TempStore struct {
	dir string

	mu    sync.Mutex
	files map[string]struct{}
}

// NewTempStore creates the temp download area under cacheDir.
func NewTempStore(cacheDir string) (*TempStore, error) {
	dir := filepath.Join(cacheDir, "smb-tmp")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	return &TempStore{dir: dir, files: make(map[string]struct{})}, nil
}

// DownloadToTemp copies a remote file into the temp area and returns the
// local path. The original extension is preserved so probing tools can rely
// on it. The caller removes the file with Remove when done.
func (ts *TempStore) DownloadToTemp(ctx context.Context, c Opener, src Source, relPath string) (string, error) {
	f, err := c.Open(ctx, src, relPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	local := filepath.Join(ts.dir, uuid.NewString()+path.Ext(relPath))
	dst, err := os.Create(local)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}

	buf := make([]byte, copyChunkSize)
	if _, err := io.CopyBuffer(dst, f, buf); err != nil {
		_ = dst.Close()
		_ = os.Remove(local)
		return "", fmt.Errorf("failed to download %s: %w", relPath, classify(err))
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(local)
		return "", fmt.Errorf("failed to flush temp file: %w", err)
	}

	ts.mu.Lock()
	ts.files[local] = struct{}{}
	ts.mu.Unlock()

	return local, nil
}

// Remove deletes one temp file.
func (ts *TempStore) Remove(localPath string) {
	if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
		logger.Debug("temp cleanup failed", "path", localPath, "error", err)
	}
	ts.mu.Lock()
	delete(ts.files, localPath)
	ts.mu.Unlock()
}

// RemoveAll deletes every tracked temp file.
func (ts *TempStore) RemoveAll() {
	ts.mu.Lock()
	paths := make([]string, 0, len(ts.files))
	for p := range ts.files {
		paths = append(paths, p)
	}
	ts.files = make(map[string]struct{})
	ts.mu.Unlock()

	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			logger.Debug("temp cleanup failed", "path", p, "error", err)
		}
	}
}
