package catalog

import (
	"fmt"
	"strings"
)

// SearchRequest is a full-text query with optional filters.
type SearchRequest struct {
	Query    string   `json:"query" validate:"required"`
	MimeType string   `json:"mime_type"`
	MinSize  *int64   `json:"min_size"`
	MaxSize  *int64   `json:"max_size"`
	Tags     []string `json:"tags"`
	SortBy   string   `json:"sort_by"`
	Skip     int      `json:"skip"`
	Limit    int      `json:"limit"`
}

// buildFTSQuery turns free text into an FTS5 MATCH expression: multiple
// words AND together as exact quoted terms, a single word becomes a prefix
// match. Embedded quotes are doubled per FTS5 escaping rules.
func buildFTSQuery(query string) string {
	escaped := strings.ReplaceAll(query, `"`, `""`)
	words := strings.Fields(escaped)
	if len(words) > 1 {
		quoted := make([]string, len(words))
		for i, w := range words {
			quoted[i] = `"` + w + `"`
		}
		return strings.Join(quoted, " AND ")
	}
	return `"` + escaped + `"*`
}

// Search runs a ranked full-text query over names, extracted text and
// paths, returning one page of results and the unpaginated total.
func (s *Store) Search(req SearchRequest) ([]FileItem, int64, error) {
	ftsQuery := buildFTSQuery(req.Query)

	where := []string{"files_fts MATCH ?"}
	args := []any{ftsQuery}

	if req.MimeType != "" {
		where = append(where, "f.mime_type LIKE ?")
		args = append(args, req.MimeType+"%")
	}
	if req.MinSize != nil {
		where = append(where, "f.size >= ?")
		args = append(args, *req.MinSize)
	}
	if req.MaxSize != nil {
		where = append(where, "f.size <= ?")
		args = append(args, *req.MaxSize)
	}
	for _, tag := range req.Tags {
		where = append(where, "f.id IN (SELECT file_id FROM file_tags WHERE tag = ?)")
		args = append(args, tag)
	}

	whereSQL := strings.Join(where, " AND ")

	var orderBy string
	switch req.SortBy {
	case "size":
		orderBy = "f.size DESC"
	case "modified_at":
		orderBy = "f.modified_at DESC"
	case "name":
		orderBy = "f.name ASC"
	default: // relevance
		orderBy = "fts.rank"
	}

	var total int64
	err := s.db.Raw(
		`SELECT COUNT(*) FROM files_fts fts
		 JOIN files f ON f.id = fts.rowid
		 WHERE `+whereSQL, args...,
	).Scan(&total).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count search results: %w", err)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}

	var files []File
	err = s.db.Raw(
		`SELECT f.* FROM files_fts fts
		 JOIN files f ON f.id = fts.rowid
		 WHERE `+whereSQL+`
		 ORDER BY `+orderBy+`
		 LIMIT ? OFFSET ?`,
		append(args, limit, req.Skip)...,
	).Scan(&files).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search: %w", err)
	}

	items, err := s.toItems(files)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Suggestion is one quick-search result.
type Suggestion struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Path     string  `json:"path"`
	MimeType *string `json:"mime_type"`
}

// Suggest returns file names containing the query substring, for typeahead.
func (s *Store) Suggest(q string, limit int) ([]Suggestion, error) {
	if limit <= 0 {
		limit = 10
	}
	var out []Suggestion
	err := s.db.Raw(
		`SELECT id, name, path, mime_type FROM files
		 WHERE name LIKE ? AND is_directory = 0 LIMIT ?`,
		"%"+q+"%", limit,
	).Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load suggestions: %w", err)
	}
	return out, nil
}
