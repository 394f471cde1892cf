// Package catalog is the persistent file index: a single SQLite database
// holding file rows, tags, extracted metadata, scan history and an FTS5
// shadow table for full-text search.
package catalog

import "time"

// File is one indexed file or directory. Path is the logical catalog path
// (/<label>/relative), unique across all sources.
type File struct {
	ID          int64      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Path        string     `gorm:"column:path;uniqueIndex:idx_files_path;not null" json:"path"`
	Name        string     `gorm:"column:name;index:idx_files_name;not null" json:"name"`
	ParentPath  *string    `gorm:"column:parent_path;index:idx_files_parent" json:"parent_path"`
	IsDirectory bool       `gorm:"column:is_directory;index:idx_files_is_dir" json:"is_directory"`
	Size        int64      `gorm:"column:size;index:idx_files_size,sort:desc" json:"size"`
	MimeType    *string    `gorm:"column:mime_type;index:idx_files_mime" json:"mime_type"`
	FileHash    *string    `gorm:"column:file_hash;index:idx_files_hash" json:"file_hash"`
	CreatedAt   *time.Time `gorm:"column:created_at" json:"created_at"`
	ModifiedAt  *time.Time `gorm:"column:modified_at;index:idx_files_modified,sort:desc" json:"modified_at"`
	IndexedAt   *time.Time `gorm:"column:indexed_at" json:"indexed_at"`
	FullText    *string    `gorm:"column:full_text" json:"-"`

	Tags     []FileTag     `gorm:"foreignKey:FileID;constraint:OnDelete:CASCADE" json:"-"`
	Metadata *FileMetadata `gorm:"foreignKey:FileID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName implements the gorm table naming convention.
func (File) TableName() string { return "files" }

// Tag types.
const (
	TagTypeRule = "rule"
	TagTypeUser = "user"
)

// FileTag attaches one tag to one file. Rule tags are re-derived on every
// scan; user tags survive until their file row is replaced.
type FileTag struct {
	ID      int64  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	FileID  int64  `gorm:"column:file_id;uniqueIndex:uq_file_tag;index:idx_tags_file;not null" json:"file_id"`
	Tag     string `gorm:"column:tag;uniqueIndex:uq_file_tag;index:idx_tags_tag;not null" json:"tag"`
	TagType string `gorm:"column:tag_type;default:rule" json:"tag_type"`
}

// TableName implements the gorm table naming convention.
func (FileTag) TableName() string { return "file_tags" }

// FileMetadata stores extracted media metadata as a JSON document,
// one row per file.
type FileMetadata struct {
	ID       int64   `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	FileID   int64   `gorm:"column:file_id;uniqueIndex:uq_meta_file;not null" json:"file_id"`
	Metadata *string `gorm:"column:metadata" json:"metadata"`
}

// TableName implements the gorm table naming convention.
func (FileMetadata) TableName() string { return "file_metadata" }

// Scan statuses recorded in the scan log.
const (
	ScanStatusRunning   = "running"
	ScanStatusCompleted = "completed"
	ScanStatusCancelled = "cancelled"
	ScanStatusFailed    = "failed"
)

// ScanLog records one scan run from start to its terminal status.
type ScanLog struct {
	ID           int64      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	StartedAt    time.Time  `gorm:"column:started_at;not null" json:"started_at"`
	CompletedAt  *time.Time `gorm:"column:completed_at" json:"completed_at"`
	Status       string     `gorm:"column:status;default:running" json:"status"`
	FilesScanned int64      `gorm:"column:files_scanned" json:"files_scanned"`
	FilesAdded   int64      `gorm:"column:files_added" json:"files_added"`
	FilesUpdated int64      `gorm:"column:files_updated" json:"files_updated"`
	FilesRemoved int64      `gorm:"column:files_removed" json:"files_removed"`
	Errors       int64      `gorm:"column:errors" json:"errors"`
	ErrorLog     *string    `gorm:"column:error_log" json:"error_log"`
}

// TableName implements the gorm table naming convention.
func (ScanLog) TableName() string { return "scan_log" }

// AllModels returns every model for schema migration.
func AllModels() []any {
	return []any{
		&File{},
		&FileTag{},
		&FileMetadata{},
		&ScanLog{},
	}
}
