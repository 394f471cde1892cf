package smb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceID(t *testing.T) {
	tests := []struct {
		name string
		src  Source
		want string
	}{
		{
			name: "share root",
			src:  Source{Host: "nas.local", Share: "media", Subfolder: "/"},
			want: "nas.local/media",
		},
		{
			name: "empty subfolder treated as root",
			src:  Source{Host: "nas.local", Share: "media"},
			want: "nas.local/media",
		},
		{
			name: "subfolder",
			src:  Source{Host: "nas.local", Share: "media", Subfolder: "/movies"},
			want: "nas.local/media/movies",
		},
		{
			name: "trailing slash stripped",
			src:  Source{Host: "nas.local", Share: "media", Subfolder: "/movies/"},
			want: "nas.local/media/movies",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.src.ID())
		})
	}
}

func TestSourceRoot(t *testing.T) {
	assert.Equal(t, "", Source{Subfolder: "/"}.Root())
	assert.Equal(t, "", Source{}.Root())
	assert.Equal(t, "movies", Source{Subfolder: "/movies"}.Root())
	assert.Equal(t, "movies/hd", Source{Subfolder: "movies/hd/"}.Root())
	assert.Equal(t, "movies/hd", Source{Subfolder: `movies\hd`}.Root())
}

func TestDisplayLabel(t *testing.T) {
	assert.Equal(t, "Movies", Source{Share: "media", Label: "Movies"}.DisplayLabel())
	assert.Equal(t, "media", Source{Share: "media"}.DisplayLabel())
}

func TestLogicalPath(t *testing.T) {
	src := Source{Host: "nas", Share: "media", Label: "Movies", Subfolder: "/"}

	assert.Equal(t, "/Movies", LogicalPath(src, ""))
	assert.Equal(t, "/Movies/a/b.mkv", LogicalPath(src, "a/b.mkv"))

	// Paths under a subfolder source drop the subfolder prefix.
	sub := Source{Host: "nas", Share: "media", Label: "HD", Subfolder: "/movies/hd"}
	assert.Equal(t, "/HD/film.mkv", LogicalPath(sub, "movies/hd/film.mkv"))
	assert.Equal(t, "/HD", LogicalPath(sub, "movies/hd"))
}

func TestResolveLogical(t *testing.T) {
	sources := []Source{
		{Host: "nas", Share: "media", Label: "Movies", Subfolder: "/"},
		{Host: "nas", Share: "media", Label: "HD", Subfolder: "/movies/hd"},
	}

	src, rel, ok := ResolveLogical("/Movies/a/b.mkv", sources)
	require.True(t, ok)
	assert.Equal(t, "Movies", src.Label)
	assert.Equal(t, "a/b.mkv", rel)

	src, rel, ok = ResolveLogical("/HD/film.mkv", sources)
	require.True(t, ok)
	assert.Equal(t, "HD", src.Label)
	assert.Equal(t, "movies/hd/film.mkv", rel)

	_, _, ok = ResolveLogical("/Unknown/x", sources)
	assert.False(t, ok)

	_, _, ok = ResolveLogical("/", sources)
	assert.False(t, ok)
}

func TestLogicalPathRoundTrip(t *testing.T) {
	sources := []Source{
		{Host: "nas", Share: "media", Label: "Movies", Subfolder: "/"},
	}
	logical := LogicalPath(sources[0], "series/s01/e01.mkv")
	src, rel, ok := ResolveLogical(logical, sources)
	require.True(t, ok)
	assert.Equal(t, sources[0].ID(), src.ID())
	assert.Equal(t, "series/s01/e01.mkv", rel)
}

func TestGuessMIME(t *testing.T) {
	assert.Equal(t, "video/x-matroska", GuessMIME("film.mkv"))
	assert.Equal(t, "application/pdf", GuessMIME("doc.PDF"))
	assert.Equal(t, "application/octet-stream", GuessMIME("noext"))
	assert.Equal(t, "application/octet-stream", GuessMIME("weird.zzz9"))

	// Parameters are stripped from platform-provided types.
	mt := GuessMIME("page.html")
	assert.NotContains(t, mt, ";")
}
