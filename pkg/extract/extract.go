// Package extract pulls searchable text and media metadata out of files.
// Text-like files are read directly; media files are probed from a local
// temp copy (ffprobe and image decoding need a real file).
package extract

import (
	"path"
	"strings"
	"unicode/utf8"
)

// textMIMETypes are non-"text/" MIME types still worth indexing as text.
var textMIMETypes = map[string]bool{
	"application/json":       true,
	"application/xml":        true,
	"application/javascript": true,
	"application/x-yaml":     true,
	"application/yaml":       true,
	"application/x-python":   true,
}

// subtitleExtensions are indexed as plain text regardless of MIME type.
var subtitleExtensions = map[string]bool{
	".srt": true,
	".vtt": true,
	".ass": true,
	".ssa": true,
	".sub": true,
}

// IsTextLike reports whether a file's content should be indexed as text.
func IsTextLike(mimeType, name string) bool {
	if strings.HasPrefix(mimeType, "text/") || textMIMETypes[mimeType] {
		return true
	}
	return subtitleExtensions[strings.ToLower(path.Ext(name))]
}

// TextFromBytes converts raw file bytes into indexable text: invalid UTF-8
// sequences become replacement runes and NUL bytes are dropped so FTS
// tokenization stays sane.
func TextFromBytes(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	s := string(data)
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, string(utf8.RuneError))
	}
	return strings.ReplaceAll(s, "\x00", "")
}

// Truncate limits text to maxBytes without splitting a multi-byte rune.
func Truncate(text string, maxBytes int) string {
	if maxBytes <= 0 || len(text) <= maxBytes {
		return text
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
