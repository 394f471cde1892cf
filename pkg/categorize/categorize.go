// Package categorize derives rule-based tags from file attributes.
//
// Categorize is a pure function: the same (name, mime, size, mtime) input
// always produces the same sorted, de-duplicated tag set, which makes the
// tags safe to re-derive on every rescan with INSERT OR IGNORE semantics.
package categorize

import (
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// extensionTags maps lower-cased file extensions to their tag sets.
var extensionTags = map[string][]string{
	// Video
	".mp4":  {"media", "video"},
	".mkv":  {"media", "video"},
	".avi":  {"media", "video"},
	".mov":  {"media", "video"},
	".wmv":  {"media", "video"},
	".flv":  {"media", "video"},
	".webm": {"media", "video"},
	".m4v":  {"media", "video"},
	".ts":   {"media", "video"},
	".mpg":  {"media", "video"},
	".mpeg": {"media", "video"},

	// Audio
	".mp3":  {"media", "audio", "music"},
	".flac": {"media", "audio", "music"},
	".wav":  {"media", "audio"},
	".aac":  {"media", "audio", "music"},
	".ogg":  {"media", "audio"},
	".wma":  {"media", "audio"},
	".m4a":  {"media", "audio", "music"},
	".opus": {"media", "audio"},
	".aiff": {"media", "audio"},

	// Images
	".jpg":  {"media", "image", "photo"},
	".jpeg": {"media", "image", "photo"},
	".png":  {"media", "image"},
	".gif":  {"media", "image"},
	".bmp":  {"media", "image"},
	".tiff": {"media", "image"},
	".tif":  {"media", "image"},
	".webp": {"media", "image"},
	".svg":  {"media", "image", "vector"},
	".raw":  {"media", "image", "photo"},
	".cr2":  {"media", "image", "photo"},
	".nef":  {"media", "image", "photo"},
	".arw":  {"media", "image", "photo"},
	".heic": {"media", "image", "photo"},
	".heif": {"media", "image", "photo"},

	// Documents
	".pdf":  {"document"},
	".doc":  {"document"},
	".docx": {"document"},
	".odt":  {"document"},
	".rtf":  {"document"},
	".txt":  {"document", "text"},
	".md":   {"document", "text"},
	".tex":  {"document"},
	".epub": {"document", "ebook"},

	// Spreadsheets
	".xlsx": {"document", "spreadsheet"},
	".xls":  {"document", "spreadsheet"},
	".csv":  {"document", "data"},
	".tsv":  {"document", "data"},
	".ods":  {"document", "spreadsheet"},

	// Presentations
	".pptx": {"document", "presentation"},
	".ppt":  {"document", "presentation"},
	".odp":  {"document", "presentation"},
	".key":  {"document", "presentation"},

	// Code
	".py":    {"code", "python"},
	".js":    {"code", "javascript"},
	".jsx":   {"code", "javascript"},
	".tsx":   {"code", "typescript"},
	".html":  {"code", "web"},
	".css":   {"code", "web"},
	".java":  {"code", "java"},
	".cpp":   {"code", "cpp"},
	".c":     {"code", "c"},
	".h":     {"code", "c"},
	".go":    {"code", "go"},
	".rs":    {"code", "rust"},
	".rb":    {"code", "ruby"},
	".php":   {"code", "php"},
	".swift": {"code", "swift"},
	".kt":    {"code", "kotlin"},
	".sh":    {"code", "shell"},
	".bash":  {"code", "shell"},
	".sql":   {"code", "database"},
	".r":     {"code", "r"},
	".m":     {"code", "matlab"},

	// Archives
	".zip": {"archive"},
	".tar": {"archive"},
	".gz":  {"archive"},
	".bz2": {"archive"},
	".xz":  {"archive"},
	".7z":  {"archive"},
	".rar": {"archive"},
	".iso": {"archive", "disk-image"},
	".dmg": {"archive", "disk-image"},

	// Data
	".json":    {"data"},
	".xml":     {"data"},
	".yaml":    {"data"},
	".yml":     {"data"},
	".toml":    {"data"},
	".ini":     {"data", "config"},
	".cfg":     {"data", "config"},
	".conf":    {"data", "config"},
	".db":      {"data", "database"},
	".sqlite":  {"data", "database"},
	".sqlite3": {"data", "database"},

	// Fonts
	".ttf":   {"font"},
	".otf":   {"font"},
	".woff":  {"font"},
	".woff2": {"font"},

	// Subtitles
	".srt": {"subtitle"},
	".vtt": {"subtitle"},
	".ass": {"subtitle"},
	".ssa": {"subtitle"},
	".sub": {"subtitle"},

	// Design / 3D
	".psd":    {"design", "photoshop"},
	".ai":     {"design", "illustrator"},
	".sketch": {"design"},
	".fig":    {"design"},
	".blend":  {"3d"},
	".obj":    {"3d"},
	".fbx":    {"3d"},
	".stl":    {"3d"},

	// Executables / System
	".exe":   {"executable"},
	".msi":   {"executable", "installer"},
	".deb":   {"executable", "installer"},
	".rpm":   {"executable", "installer"},
	".apk":   {"executable", "mobile"},
	".app":   {"executable"},
	".dll":   {"system"},
	".so":    {"system"},
	".dylib": {"system"},
}

// Size thresholds. Part of the tagging contract.
const (
	sizeLargeBytes = 1 << 30       // 1 GiB
	sizeHugeBytes  = 10 * (1 << 30) // 10 GiB
)

// oldThreshold marks files untouched for three years.
const oldThreshold = 3 * 365 * 24 * time.Hour

// Categorize applies every rule to a file and returns the sorted distinct
// union of all tags that fired. A zero modifiedAt skips the age rule;
// an empty mime skips the MIME fallback.
func Categorize(name, mime string, size int64, modifiedAt time.Time) []string {
	tags := make(map[string]struct{})
	add := func(ts ...string) {
		for _, t := range ts {
			tags[t] = struct{}{}
		}
	}

	// Extension table
	if ext := strings.ToLower(filepath.Ext(name)); ext != "" {
		if ts, ok := extensionTags[ext]; ok {
			add(ts...)
		}
	}

	// MIME fallback
	switch {
	case strings.HasPrefix(mime, "video/"):
		add("media", "video")
	case strings.HasPrefix(mime, "audio/"):
		add("media", "audio")
	case strings.HasPrefix(mime, "image/"):
		add("media", "image")
	case strings.HasPrefix(mime, "text/"):
		add("text")
	case mime == "application/pdf":
		add("document")
	}

	// Size
	switch {
	case size >= sizeHugeBytes:
		add("huge", "large")
	case size >= sizeLargeBytes:
		add("large")
	case size == 0:
		add("empty")
	}

	// Age
	if !modifiedAt.IsZero() && time.Since(modifiedAt) > oldThreshold {
		add("old")
	}

	// Name heuristics
	lower := strings.ToLower(name)
	if strings.HasPrefix(lower, ".") {
		add("hidden")
	}
	if containsAny(lower, "backup", "bak", "old", "copy") {
		add("backup")
	}
	if containsAny(lower, "temp", "tmp", "cache") {
		add("temporary")
	}
	if containsAny(lower, "readme", "changelog", "license", "contributing") {
		add("documentation")
	}
	if containsAny(lower, "screenshot", "screen shot", "capture") {
		add("screenshot")
	}

	out := make([]string, 0, len(tags))
	for t := range tags {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
