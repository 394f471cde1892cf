// Package smb provides client access to SMB shares: session management,
// directory walking, file reads and share discovery. It builds on
// hirochachacha/go-smb2 and never requires an OS-level mount.
package smb

import (
	"path"
	"strings"
	"time"
)

// Source identifies one SMB share (or subfolder of a share) to index.
// JSON tags match the on-disk sources file.
type Source struct {
	Host      string `json:"host" validate:"required"`
	Share     string `json:"share" validate:"required"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	Subfolder string `json:"subfolder"`
	Label     string `json:"label"`
}

// ID returns the stable identifier for this source:
// host/share<subfolder> with trailing slashes stripped.
func (s Source) ID() string {
	sub := s.Subfolder
	if sub == "" {
		sub = "/"
	}
	return strings.TrimRight(s.Host+"/"+s.Share+sub, "/")
}

// DisplayLabel returns the label shown to users and used as the first
// component of logical paths. Falls back to the share name.
func (s Source) DisplayLabel() string {
	if s.Label != "" {
		return s.Label
	}
	return s.Share
}

// Root returns the share-relative root directory of this source, using
// forward slashes and no leading slash. Empty string means the share root.
func (s Source) Root() string {
	sub := strings.Trim(strings.ReplaceAll(s.Subfolder, "\\", "/"), "/")
	if sub == "" || sub == "." {
		return ""
	}
	return path.Clean(sub)
}

// FileInfo describes a single entry seen during a walk or stat.
// Path is share-relative with forward slashes.
type FileInfo struct {
	Name    string
	Path    string
	IsDir   bool
	Size    int64
	ModTime time.Time
}
