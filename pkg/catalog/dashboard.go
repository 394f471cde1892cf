package catalog

import (
	"fmt"
	"time"
)

// DashboardData aggregates every insight panel in a single payload.
type DashboardData struct {
	TotalSize            int64            `json:"total_size"`
	TotalFiles           int64            `json:"total_files"`
	TotalDirectories     int64            `json:"total_directories"`
	UniqueHashes         int64            `json:"unique_hashes"`
	DuplicateGroups      int64            `json:"duplicate_groups"`
	DuplicateWastedBytes int64            `json:"duplicate_wasted_bytes"`
	ByType               []CategoryStat   `json:"by_type"`
	LargestFiles         []BriefFile      `json:"largest_files"`
	RecentFiles          []BriefFile      `json:"recent_files"`
	Duplicates           []DuplicateGroup `json:"duplicates"`
	TagCounts            []TagCount       `json:"tag_counts"`
	SizeByExtension      []ExtensionStat  `json:"size_by_extension"`
	FilesByMonth         []MonthStat      `json:"files_by_month"`
	OldestFiles          []BriefFile      `json:"oldest_files"`
	AvgFileSize          int64            `json:"avg_file_size"`
	MedianFileSize       int64            `json:"median_file_size"`
	SizeBySource         []SourceStat     `json:"size_by_source"`
	FileAgeBuckets       []AgeBucket      `json:"file_age_buckets"`
	ExtensionCounts      []ExtensionStat  `json:"extension_counts"`
	EmptyFiles           int64            `json:"empty_files"`
	DeepPaths            []DeepPath       `json:"deep_paths"`
}

// CategoryStat is a per-category count and size.
type CategoryStat struct {
	Category  string `json:"category"`
	Count     int64  `json:"count"`
	TotalSize int64  `json:"total_size"`
}

// BriefFile is a compact file row for top-N lists.
type BriefFile struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Path       string     `json:"path"`
	Size       int64      `json:"size"`
	MimeType   *string    `json:"mime_type"`
	ModifiedAt *time.Time `json:"modified_at"`
}

// DuplicateGroup describes files sharing one content fingerprint. Files
// with equal fingerprints are probable duplicates; the fingerprint samples
// file content rather than reading all of it.
type DuplicateGroup struct {
	FileHash    string `json:"file_hash"`
	Count       int64  `json:"count"`
	Size        int64  `json:"size"`
	WastedBytes int64  `json:"wasted_bytes"`
	Names       string `json:"names"`
	Paths       string `json:"paths"`
}

// TagCount is the number of files carrying one tag.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int64  `json:"count"`
}

// ExtensionStat is a per-extension count and size.
type ExtensionStat struct {
	Extension string `json:"extension"`
	Count     int64  `json:"count"`
	TotalSize int64  `json:"total_size"`
}

// MonthStat groups files by modification month (YYYY-MM).
type MonthStat struct {
	Month     string `json:"month"`
	Count     int64  `json:"count"`
	TotalSize int64  `json:"total_size"`
}

// SourceStat groups files by top-level source label.
type SourceStat struct {
	Source    string `json:"source"`
	Count     int64  `json:"count"`
	TotalSize int64  `json:"total_size"`
}

// AgeBucket groups files by modification age.
type AgeBucket struct {
	AgeBucket string `json:"age_bucket"`
	Count     int64  `json:"count"`
	TotalSize int64  `json:"total_size"`
}

// DeepPath is one of the most deeply nested files.
type DeepPath struct {
	Path  string `json:"path"`
	Depth int64  `json:"depth"`
	Name  string `json:"name"`
	Size  int64  `json:"size"`
}

// TreemapEntry is aggregate usage for one directory.
type TreemapEntry struct {
	Path      string `json:"path"`
	TotalSize int64  `json:"total_size"`
	FileCount int64  `json:"file_count"`
}

// Dashboard computes the full insight payload. Each aggregate is one
// query; SQLite handles these comfortably at catalog scale.
func (s *Store) Dashboard() (*DashboardData, error) {
	d := &DashboardData{}

	err := s.db.Raw(`
		SELECT
			COALESCE(SUM(CASE WHEN is_directory = 0 THEN size ELSE 0 END), 0) as total_size,
			COALESCE(SUM(CASE WHEN is_directory = 0 THEN 1 ELSE 0 END), 0) as total_files,
			COALESCE(SUM(CASE WHEN is_directory = 1 THEN 1 ELSE 0 END), 0) as total_directories
		FROM files`).Scan(d).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute totals: %w", err)
	}

	err = s.db.Raw(`
		SELECT
			COUNT(DISTINCT file_hash) as unique_hashes,
			(SELECT COUNT(*) FROM (
				SELECT file_hash FROM files
				WHERE file_hash IS NOT NULL AND is_directory = 0
				GROUP BY file_hash HAVING COUNT(*) > 1
			)) as duplicate_groups,
			COALESCE((SELECT SUM(wasted) FROM (
				SELECT (COUNT(*) - 1) * size as wasted
				FROM files
				WHERE file_hash IS NOT NULL AND is_directory = 0
				GROUP BY file_hash HAVING COUNT(*) > 1
			)), 0) as duplicate_wasted_bytes
		FROM files WHERE file_hash IS NOT NULL AND is_directory = 0`).Scan(d).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute duplicate stats: %w", err)
	}

	err = s.db.Raw(`
		SELECT
			CASE
				WHEN mime_type LIKE 'video/%' THEN 'Video'
				WHEN mime_type LIKE 'audio/%' THEN 'Audio'
				WHEN mime_type LIKE 'image/%' THEN 'Image'
				WHEN mime_type LIKE 'text/%' THEN 'Text'
				WHEN mime_type IN ('application/pdf') THEN 'PDF'
				WHEN mime_type LIKE '%document%' OR mime_type LIKE '%word%' THEN 'Document'
				WHEN mime_type LIKE '%spreadsheet%' OR mime_type LIKE '%excel%' THEN 'Spreadsheet'
				WHEN mime_type LIKE '%presentation%' OR mime_type LIKE '%powerpoint%' THEN 'Presentation'
				WHEN mime_type LIKE '%zip%' OR mime_type LIKE '%compressed%' OR mime_type LIKE '%archive%' THEN 'Archive'
				ELSE 'Other'
			END as category,
			COUNT(*) as count,
			COALESCE(SUM(size), 0) as total_size
		FROM files
		WHERE is_directory = 0
		GROUP BY category
		ORDER BY total_size DESC
		LIMIT 20`).Scan(&d.ByType).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute type stats: %w", err)
	}

	if err := s.briefFiles(&d.LargestFiles, "size DESC", 20, false); err != nil {
		return nil, err
	}
	if err := s.briefFiles(&d.RecentFiles, "modified_at DESC", 20, false); err != nil {
		return nil, err
	}
	if err := s.briefFiles(&d.OldestFiles, "modified_at ASC", 15, true); err != nil {
		return nil, err
	}

	err = s.db.Raw(`
		SELECT
			file_hash,
			COUNT(*) as count,
			size,
			(COUNT(*) - 1) * size as wasted_bytes,
			GROUP_CONCAT(name, ' | ') as names,
			GROUP_CONCAT(path, ' | ') as paths
		FROM files
		WHERE file_hash IS NOT NULL AND is_directory = 0
		GROUP BY file_hash
		HAVING COUNT(*) > 1
		ORDER BY wasted_bytes DESC
		LIMIT 20`).Scan(&d.Duplicates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute duplicates: %w", err)
	}

	err = s.db.Raw(`
		SELECT tag, COUNT(*) as count
		FROM file_tags
		GROUP BY tag
		ORDER BY count DESC
		LIMIT 30`).Scan(&d.TagCounts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute tag counts: %w", err)
	}

	err = s.db.Raw(`
		SELECT
			LOWER(SUBSTR(name, INSTR(name, '.'))) as extension,
			COUNT(*) as count,
			COALESCE(SUM(size), 0) as total_size
		FROM files
		WHERE is_directory = 0 AND INSTR(name, '.') > 0
		GROUP BY extension
		ORDER BY total_size DESC
		LIMIT 20`).Scan(&d.SizeByExtension).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute extension sizes: %w", err)
	}

	err = s.db.Raw(`
		SELECT
			SUBSTR(modified_at, 1, 7) as month,
			COUNT(*) as count,
			COALESCE(SUM(size), 0) as total_size
		FROM files
		WHERE is_directory = 0 AND modified_at IS NOT NULL
		GROUP BY month
		ORDER BY month DESC
		LIMIT 24`).Scan(&d.FilesByMonth).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute monthly stats: %w", err)
	}

	err = s.db.Raw(`
		SELECT COALESCE(CAST(AVG(size) AS INTEGER), 0) FROM files WHERE is_directory = 0`).
		Scan(&d.AvgFileSize).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute average size: %w", err)
	}

	// No rows leaves the zero value in place, which is correct for an
	// empty catalog.
	err = s.db.Raw(`
		SELECT size FROM files WHERE is_directory = 0
		ORDER BY size LIMIT 1
		OFFSET (SELECT COUNT(*) / 2 FROM files WHERE is_directory = 0)`).
		Scan(&d.MedianFileSize).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute median size: %w", err)
	}

	err = s.db.Raw(`
		SELECT
			CASE
				WHEN INSTR(SUBSTR(path, 2), '/') > 0
				THEN SUBSTR(path, 2, INSTR(SUBSTR(path, 2), '/') - 1)
				ELSE SUBSTR(path, 2)
			END as source,
			COUNT(*) as count,
			COALESCE(SUM(size), 0) as total_size
		FROM files
		WHERE is_directory = 0 AND path LIKE '/%'
		GROUP BY source
		ORDER BY total_size DESC`).Scan(&d.SizeBySource).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute source sizes: %w", err)
	}

	err = s.db.Raw(`
		SELECT
			CASE
				WHEN modified_at >= date('now', '-30 days') THEN 'Last 30 days'
				WHEN modified_at >= date('now', '-90 days') THEN '1-3 months'
				WHEN modified_at >= date('now', '-1 year') THEN '3-12 months'
				WHEN modified_at >= date('now', '-3 years') THEN '1-3 years'
				WHEN modified_at >= date('now', '-5 years') THEN '3-5 years'
				ELSE '5+ years'
			END as age_bucket,
			COUNT(*) as count,
			COALESCE(SUM(size), 0) as total_size
		FROM files
		WHERE is_directory = 0 AND modified_at IS NOT NULL
		GROUP BY age_bucket
		ORDER BY MIN(modified_at) DESC`).Scan(&d.FileAgeBuckets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute age buckets: %w", err)
	}

	err = s.db.Raw(`
		SELECT
			LOWER(SUBSTR(name, INSTR(name, '.'))) as extension,
			COUNT(*) as count
		FROM files
		WHERE is_directory = 0 AND INSTR(name, '.') > 0
		GROUP BY extension
		ORDER BY count DESC
		LIMIT 15`).Scan(&d.ExtensionCounts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute extension counts: %w", err)
	}

	err = s.db.Raw(`
		SELECT COUNT(*) FROM files WHERE is_directory = 0 AND size = 0`).
		Scan(&d.EmptyFiles).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count empty files: %w", err)
	}

	err = s.db.Raw(`
		SELECT path, LENGTH(path) - LENGTH(REPLACE(path, '/', '')) as depth, name, size
		FROM files WHERE is_directory = 0
		ORDER BY depth DESC
		LIMIT 10`).Scan(&d.DeepPaths).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute deep paths: %w", err)
	}

	return d, nil
}

// Treemap returns aggregate storage per directory for treemap rendering.
func (s *Store) Treemap(limit int) ([]TreemapEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []TreemapEntry
	err := s.db.Raw(`
		SELECT
			parent_path as path,
			COALESCE(SUM(size), 0) as total_size,
			COUNT(*) as file_count
		FROM files
		WHERE is_directory = 0 AND parent_path IS NOT NULL
		GROUP BY parent_path
		ORDER BY total_size DESC
		LIMIT ?`, limit).Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute treemap: %w", err)
	}
	return out, nil
}

func (s *Store) briefFiles(dst *[]BriefFile, order string, limit int, requireMTime bool) error {
	q := `SELECT id, name, path, size, mime_type, modified_at
	      FROM files WHERE is_directory = 0`
	if requireMTime {
		q += ` AND modified_at IS NOT NULL`
	}
	q += ` ORDER BY ` + order + ` LIMIT ?`
	if err := s.db.Raw(q, limit).Scan(dst).Error; err != nil {
		return fmt.Errorf("failed to list files by %s: %w", order, err)
	}
	return nil
}
