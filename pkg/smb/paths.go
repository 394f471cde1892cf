package smb

import (
	"mime"
	"path"
	"strings"
)

// LogicalPath converts a share-relative path to the catalog's logical form:
// /<label>/<relative>, or /<label> for the source root. Labels make paths
// unique across shares from one or more hosts.
func LogicalPath(src Source, relPath string) string {
	label := src.DisplayLabel()
	rel := strings.Trim(relPath, "/")

	// Paths are stored relative to the source root, not the share root.
	if root := src.Root(); root != "" {
		rel = strings.TrimPrefix(rel, root)
		rel = strings.Trim(rel, "/")
	}

	if rel == "" {
		return "/" + label
	}
	return "/" + label + "/" + rel
}

// ResolveLogical maps a logical catalog path back to its source and
// share-relative path. The first path component selects the source by
// label. Returns false when no configured source matches.
func ResolveLogical(logical string, sources []Source) (Source, string, bool) {
	trimmed := strings.Trim(logical, "/")
	if trimmed == "" {
		return Source{}, "", false
	}

	label, rest, _ := strings.Cut(trimmed, "/")
	for _, src := range sources {
		if src.DisplayLabel() != label {
			continue
		}
		rel := rest
		if root := src.Root(); root != "" {
			if rel == "" {
				rel = root
			} else {
				rel = root + "/" + rel
			}
		}
		return src, rel, true
	}
	return Source{}, "", false
}

// extraMIMETypes covers extensions the platform MIME database commonly
// misses.
var extraMIMETypes = map[string]string{
	".mkv":  "video/x-matroska",
	".flac": "audio/flac",
	".m4v":  "video/x-m4v",
	".opus": "audio/opus",
	".heic": "image/heic",
	".heif": "image/heif",
	".srt":  "text/plain",
	".md":   "text/markdown",
	".yaml": "application/yaml",
	".yml":  "application/yaml",
}

// GuessMIME determines the MIME type of a file by extension.
// Unknown extensions yield application/octet-stream.
func GuessMIME(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if ext == "" {
		return "application/octet-stream"
	}
	if mt, ok := extraMIMETypes[ext]; ok {
		return mt
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		// Strip parameters like "; charset=utf-8".
		if i := strings.IndexByte(mt, ';'); i >= 0 {
			mt = strings.TrimSpace(mt[:i])
		}
		return mt
	}
	return "application/octet-stream"
}
