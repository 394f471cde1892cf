package smb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTempStoreRemoveAll(t *testing.T) {
	ts, err := NewTempStore(t.TempDir())
	require.NoError(t, err)

	var paths []string
	for i := 0; i < 3; i++ {
		p := filepath.Join(ts.dir, "f"+string(rune('a'+i)))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
		ts.mu.Lock()
		ts.files[p] = struct{}{}
		ts.mu.Unlock()
		paths = append(paths, p)
	}

	ts.RemoveAll()

	for _, p := range paths {
		_, err := os.Stat(p)
		assert.True(t, os.IsNotExist(err), "expected %s to be removed", p)
	}
	ts.mu.Lock()
	assert.Empty(t, ts.files)
	ts.mu.Unlock()
}

func TestTempStoreRemoveMissingFile(t *testing.T) {
	ts, err := NewTempStore(t.TempDir())
	require.NoError(t, err)

	// Removing a path that never existed must not panic or leave state.
	ts.Remove(filepath.Join(ts.dir, "gone"))
	ts.mu.Lock()
	assert.Empty(t, ts.files)
	ts.mu.Unlock()
}

func TestToWire(t *testing.T) {
	assert.Equal(t, ".", toWire(""))
	assert.Equal(t, ".", toWire("/"))
	assert.Equal(t, `a\b\c.txt`, toWire("a/b/c.txt"))
	assert.Equal(t, `a\b`, toWire("/a/b/"))
}
