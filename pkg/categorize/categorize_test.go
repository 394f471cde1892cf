package categorize

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func tags(name, mime string, size int64, mod time.Time) []string {
	return Categorize(name, mime, size, mod)
}

func TestExtensionTags(t *testing.T) {
	got := tags("song.mp3", "audio/mpeg", 5<<20, time.Now())
	assert.Contains(t, got, "media")
	assert.Contains(t, got, "audio")
	assert.Contains(t, got, "music")

	got = tags("report.pdf", "application/pdf", 1<<20, time.Now())
	assert.Contains(t, got, "document")

	got = tags("archive.tar.gz", "application/gzip", 1<<20, time.Now())
	assert.Contains(t, got, "archive")
}

func TestMIMEFallbackForUnknownExtension(t *testing.T) {
	got := tags("clip.weird", "video/mp4", 1<<20, time.Now())
	assert.Contains(t, got, "video")
}

func TestSizeRules(t *testing.T) {
	now := time.Now()

	assert.NotContains(t, tags("f.bin", "", 100, now), "large")

	large := tags("f.bin", "", sizeLargeBytes, now)
	assert.Contains(t, large, "large")
	assert.NotContains(t, large, "huge")

	huge := tags("f.bin", "", sizeHugeBytes, now)
	assert.Contains(t, huge, "huge")
	// Huge implies large.
	assert.Contains(t, huge, "large")

	assert.Contains(t, tags("f.bin", "", 0, now), "empty")
}

func TestOldFiles(t *testing.T) {
	old := time.Now().Add(-4 * 365 * 24 * time.Hour)
	assert.Contains(t, tags("f.txt", "text/plain", 10, old), "old")

	recent := time.Now().Add(-24 * time.Hour)
	assert.NotContains(t, tags("f.txt", "text/plain", 10, recent), "old")

	// Unknown mtime never counts as old.
	assert.NotContains(t, tags("f.txt", "text/plain", 10, time.Time{}), "old")
}

func TestNameHeuristics(t *testing.T) {
	now := time.Now()

	assert.Contains(t, tags(".bashrc", "", 10, now), "hidden")
	assert.Contains(t, tags("db_backup_2024.sql", "", 10, now), "backup")
	assert.Contains(t, tags("notes.tmp", "", 10, now), "temporary")
	assert.Contains(t, tags("README.md", "text/markdown", 10, now), "documentation")
	assert.Contains(t, tags("Screenshot 2024-01-01.png", "image/png", 10, now), "screenshot")
}

func TestOutputSortedAndDistinct(t *testing.T) {
	got := tags("backup-copy.old.bak", "", 10, time.Now())
	assert.True(t, sort.StringsAreSorted(got))

	seen := map[string]bool{}
	for _, tag := range got {
		assert.False(t, seen[tag], "duplicate tag %q", tag)
		seen[tag] = true
	}
}

func TestDeterministic(t *testing.T) {
	mod := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	a := tags("movie.mkv", "video/x-matroska", 2<<30, mod)
	b := tags("movie.mkv", "video/x-matroska", 2<<30, mod)
	assert.Equal(t, a, b)
}
