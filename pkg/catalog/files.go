package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// ErrFileNotFound is returned when a lookup misses.
var ErrFileNotFound = errors.New("catalog: file not found")

// Record is one file or directory row produced by the indexing walk.
// Hash, text and metadata are filled in later by enrichment.
type Record struct {
	Path        string
	Name        string
	ParentPath  *string
	IsDirectory bool
	Size        int64
	MimeType    *string
	CreatedAt   *time.Time
	ModifiedAt  *time.Time
	IndexedAt   time.Time
}

// TagPair attaches a rule tag to a file by path.
type TagPair struct {
	Path string
	Tag  string
}

// Enrichment carries the results of one enrichment task. Nil fields leave
// the existing column value untouched.
type Enrichment struct {
	FileID       int64
	FileHash     *string
	FullText     *string
	MetadataJSON *string
}

// UpsertBatch writes a batch of records in one transaction using REPLACE
// semantics: a re-indexed path gets a fresh row (hash and text reset, tags
// and metadata cascade away) so enrichment picks it up again.
func (s *Store) UpsertBatch(records []Record, tags []TagPair) error {
	if len(records) == 0 && len(tags) == 0 {
		return nil
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, r := range records {
			err := tx.Exec(
				`INSERT OR REPLACE INTO files
				   (path, name, parent_path, is_directory, size, mime_type,
				    file_hash, created_at, modified_at, indexed_at, full_text)
				 VALUES (?, ?, ?, ?, ?, ?, NULL, ?, ?, ?, NULL)`,
				r.Path, r.Name, r.ParentPath, r.IsDirectory, r.Size,
				r.MimeType, r.CreatedAt, r.ModifiedAt, r.IndexedAt,
			).Error
			if err != nil {
				return fmt.Errorf("failed to upsert %s: %w", r.Path, err)
			}
		}

		for _, t := range tags {
			err := tx.Exec(
				`INSERT OR IGNORE INTO file_tags (file_id, tag, tag_type)
				 SELECT id, ?, ? FROM files WHERE path = ?`,
				t.Tag, TagTypeRule, t.Path,
			).Error
			if err != nil {
				return fmt.Errorf("failed to tag %s: %w", t.Path, err)
			}
		}

		return nil
	})
}

// ExistingPathMTimes returns modification times for every indexed path under
// a source label, keyed by path. Used for incremental-scan skip decisions.
func (s *Store) ExistingPathMTimes(label string) (map[string]time.Time, error) {
	var rows []struct {
		Path       string
		ModifiedAt *time.Time
	}
	err := s.db.Raw(
		`SELECT path, modified_at FROM files WHERE path LIKE ? OR path = ?`,
		labelPrefix(label), labelRoot(label),
	).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load existing paths: %w", err)
	}

	out := make(map[string]time.Time, len(rows))
	for _, r := range rows {
		var mt time.Time
		if r.ModifiedAt != nil {
			mt = r.ModifiedAt.UTC()
		}
		out[r.Path] = mt
	}
	return out, nil
}

// DeleteStale removes every indexed path under a source label that was not
// seen during the current walk. Returns the number of removed rows.
func (s *Store) DeleteStale(label string, seen map[string]struct{}) (int64, error) {
	var paths []string
	err := s.db.Raw(
		`SELECT path FROM files WHERE path LIKE ? OR path = ?`,
		labelPrefix(label), labelRoot(label),
	).Scan(&paths).Error
	if err != nil {
		return 0, fmt.Errorf("failed to list indexed paths: %w", err)
	}

	var stale []string
	for _, p := range paths {
		if _, ok := seen[p]; !ok {
			stale = append(stale, p)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}

	var removed int64
	err = s.db.Transaction(func(tx *gorm.DB) error {
		const chunk = 500
		for i := 0; i < len(stale); i += chunk {
			end := i + chunk
			if end > len(stale) {
				end = len(stale)
			}
			res := tx.Exec(`DELETE FROM files WHERE path IN ?`, stale[i:end])
			if res.Error != nil {
				return res.Error
			}
			removed += res.RowsAffected
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale rows: %w", err)
	}
	return removed, nil
}

// ListUnenriched pages through files awaiting enrichment: regular files
// whose hash has never been computed (or was reset by a re-index).
func (s *Store) ListUnenriched(afterID int64, limit int) ([]File, error) {
	var files []File
	err := s.db.
		Where("is_directory = ? AND file_hash IS NULL AND id > ?", false, afterID).
		Order("id").
		Limit(limit).
		Find(&files).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list unenriched files: %w", err)
	}
	return files, nil
}

// ApplyEnrichments commits a batch of enrichment results in one
// transaction. COALESCE keeps existing values where a task produced none.
func (s *Store) ApplyEnrichments(batch []Enrichment) error {
	if len(batch) == 0 {
		return nil
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, e := range batch {
			err := tx.Exec(
				`UPDATE files SET
				   file_hash = COALESCE(?, file_hash),
				   full_text = COALESCE(?, full_text)
				 WHERE id = ?`,
				e.FileHash, e.FullText, e.FileID,
			).Error
			if err != nil {
				return fmt.Errorf("failed to enrich file %d: %w", e.FileID, err)
			}

			if e.MetadataJSON != nil {
				err := tx.Exec(
					`INSERT INTO file_metadata (file_id, metadata) VALUES (?, ?)
					 ON CONFLICT(file_id) DO UPDATE SET metadata = excluded.metadata`,
					e.FileID, e.MetadataJSON,
				).Error
				if err != nil {
					return fmt.Errorf("failed to store metadata for file %d: %w", e.FileID, err)
				}
			}
		}
		return nil
	})
}

// PurgeLabel deletes everything indexed under a source label. Tags and
// metadata follow via foreign-key cascade. Returns the number of file rows
// removed.
func (s *Store) PurgeLabel(label string) (int64, error) {
	res := s.db.Exec(
		`DELETE FROM files WHERE path LIKE ? OR path = ?`,
		labelPrefix(label), labelRoot(label),
	)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge source %s: %w", label, res.Error)
	}
	return res.RowsAffected, nil
}

// FileItem is the API-facing view of a file with its tags and metadata.
type FileItem struct {
	ID          int64           `json:"id"`
	Path        string          `json:"path"`
	Name        string          `json:"name"`
	ParentPath  *string         `json:"parent_path"`
	IsDirectory bool            `json:"is_directory"`
	Size        int64           `json:"size"`
	MimeType    *string         `json:"mime_type"`
	FileHash    *string         `json:"file_hash,omitempty"`
	CreatedAt   *time.Time      `json:"created_at"`
	ModifiedAt  *time.Time      `json:"modified_at"`
	IndexedAt   *time.Time      `json:"indexed_at"`
	Tags        []string        `json:"tags"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
}

// ListOptions filter and order a directory listing.
type ListOptions struct {
	ParentPath string
	SortBy     string
	Order      string
	Skip       int
	Limit      int
	MimePrefix string
	Tag        string
}

var validSortFields = map[string]bool{
	"name":        true,
	"size":        true,
	"modified_at": true,
	"mime_type":   true,
	"created_at":  true,
}

// ListFiles returns one page of a directory listing, directories first.
func (s *Store) ListFiles(opts ListOptions) ([]FileItem, int64, error) {
	if opts.ParentPath == "" {
		opts.ParentPath = "/"
	}
	sortBy := opts.SortBy
	if !validSortFields[sortBy] {
		sortBy = "name"
	}
	order := "ASC"
	if strings.EqualFold(opts.Order, "desc") {
		order = "DESC"
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	q := s.db.Model(&File{}).Where("parent_path = ?", opts.ParentPath)
	if opts.MimePrefix != "" {
		q = q.Where("mime_type LIKE ?", opts.MimePrefix+"%")
	}
	if opts.Tag != "" {
		q = q.Where("id IN (SELECT file_id FROM file_tags WHERE tag = ?)", opts.Tag)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count files: %w", err)
	}

	var files []File
	err := q.
		Order(fmt.Sprintf("is_directory DESC, %s %s", sortBy, order)).
		Offset(opts.Skip).
		Limit(limit).
		Find(&files).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list files: %w", err)
	}

	items, err := s.toItems(files)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// GetByID returns one file with tags and metadata.
func (s *Store) GetByID(id int64) (*FileItem, error) {
	var f File
	err := s.db.Preload("Metadata").First(&f, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load file %d: %w", id, err)
	}
	return s.toItem(f)
}

// GetByPath returns one file with tags and metadata.
func (s *Store) GetByPath(path string) (*FileItem, error) {
	var f File
	err := s.db.Preload("Metadata").Where("path = ?", path).First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load file %s: %w", path, err)
	}
	return s.toItem(f)
}

// AddUserTag attaches a user tag to a file.
func (s *Store) AddUserTag(fileID int64, tag string) error {
	err := s.db.Exec(
		`INSERT OR IGNORE INTO file_tags (file_id, tag, tag_type) VALUES (?, ?, ?)`,
		fileID, tag, TagTypeUser,
	).Error
	if err != nil {
		return fmt.Errorf("failed to add tag: %w", err)
	}
	return nil
}

// RemoveTag detaches a tag from a file.
func (s *Store) RemoveTag(fileID int64, tag string) error {
	err := s.db.Exec(
		`DELETE FROM file_tags WHERE file_id = ? AND tag = ?`, fileID, tag,
	).Error
	if err != nil {
		return fmt.Errorf("failed to remove tag: %w", err)
	}
	return nil
}

// FolderNode is one directory in the navigation tree.
type FolderNode struct {
	ID        int64         `json:"id"`
	Name      string        `json:"name"`
	Path      string        `json:"path"`
	FileCount int64         `json:"file_count"`
	Children  []*FolderNode `json:"children"`
}

// Tree builds the directory hierarchy down to the given depth, with per-
// directory file counts.
func (s *Store) Tree(depth int) ([]*FolderNode, error) {
	var dirs []File
	err := s.db.
		Select("id", "name", "path", "parent_path").
		Where("is_directory = ?", true).
		Order("path").
		Find(&dirs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list directories: %w", err)
	}

	var counts []struct {
		ParentPath string
		Cnt        int64
	}
	err = s.db.Raw(
		`SELECT parent_path, COUNT(*) as cnt FROM files
		 WHERE is_directory = 0 AND parent_path IS NOT NULL
		 GROUP BY parent_path`,
	).Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count directory contents: %w", err)
	}
	countMap := make(map[string]int64, len(counts))
	for _, c := range counts {
		countMap[c.ParentPath] = c.Cnt
	}

	byPath := make(map[string]*FolderNode, len(dirs))
	for _, d := range dirs {
		byPath[d.Path] = &FolderNode{
			ID:        d.ID,
			Name:      d.Name,
			Path:      d.Path,
			FileCount: countMap[d.Path],
			Children:  []*FolderNode{},
		}
	}

	var roots []*FolderNode
	for _, d := range dirs {
		node := byPath[d.Path]
		if d.ParentPath != nil {
			if parent, ok := byPath[*d.ParentPath]; ok {
				if strings.Count(d.Path, "/") <= depth {
					parent.Children = append(parent.Children, node)
				}
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots, nil
}

// toItems converts file rows to items with batch-loaded tags.
func (s *Store) toItems(files []File) ([]FileItem, error) {
	items := make([]FileItem, 0, len(files))
	if len(files) == 0 {
		return items, nil
	}

	ids := make([]int64, len(files))
	for i, f := range files {
		ids[i] = f.ID
	}
	var tags []FileTag
	if err := s.db.Where("file_id IN ?", ids).Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to load tags: %w", err)
	}
	tagMap := make(map[int64][]string)
	for _, t := range tags {
		tagMap[t.FileID] = append(tagMap[t.FileID], t.Tag)
	}

	for _, f := range files {
		item := fileToItem(f)
		if ts := tagMap[f.ID]; ts != nil {
			item.Tags = ts
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *Store) toItem(f File) (*FileItem, error) {
	items, err := s.toItems([]File{f})
	if err != nil {
		return nil, err
	}
	item := items[0]
	if f.Metadata != nil && f.Metadata.Metadata != nil {
		item.Metadata = json.RawMessage(*f.Metadata.Metadata)
	}
	return &item, nil
}

func fileToItem(f File) FileItem {
	return FileItem{
		ID:          f.ID,
		Path:        f.Path,
		Name:        f.Name,
		ParentPath:  f.ParentPath,
		IsDirectory: f.IsDirectory,
		Size:        f.Size,
		MimeType:    f.MimeType,
		FileHash:    f.FileHash,
		CreatedAt:   f.CreatedAt,
		ModifiedAt:  f.ModifiedAt,
		IndexedAt:   f.IndexedAt,
		Tags:        []string{},
	}
}

func labelPrefix(label string) string { return "/" + label + "/%" }
func labelRoot(label string) string   { return "/" + label }
