package catalog

import (
	"fmt"
	"time"
)

// BeginScan inserts a running scan-log row and returns its id.
func (s *Store) BeginScan(startedAt time.Time) (int64, error) {
	row := ScanLog{
		StartedAt: startedAt.UTC(),
		Status:    ScanStatusRunning,
	}
	if err := s.db.Create(&row).Error; err != nil {
		return 0, fmt.Errorf("failed to create scan log entry: %w", err)
	}
	return row.ID, nil
}

// ScanCounters are the running totals recorded for one scan.
type ScanCounters struct {
	FilesScanned int64
	FilesAdded   int64
	FilesUpdated int64
	FilesRemoved int64
	Errors       int64
}

// FinishScan records a scan's terminal status, counters and error log.
func (s *Store) FinishScan(id int64, status string, c ScanCounters, errorLog string) error {
	now := time.Now().UTC()
	updates := map[string]any{
		"completed_at":  &now,
		"status":        status,
		"files_scanned": c.FilesScanned,
		"files_added":   c.FilesAdded,
		"files_updated": c.FilesUpdated,
		"files_removed": c.FilesRemoved,
		"errors":        c.Errors,
	}
	if errorLog != "" {
		updates["error_log"] = errorLog
	}
	err := s.db.Model(&ScanLog{}).Where("id = ?", id).Updates(updates).Error
	if err != nil {
		return fmt.Errorf("failed to finalize scan log %d: %w", id, err)
	}
	return nil
}

// ScanHistory returns recent scans, newest first.
func (s *Store) ScanHistory(limit int) ([]ScanLog, error) {
	if limit <= 0 {
		limit = 20
	}
	var logs []ScanLog
	err := s.db.Order("id DESC").Limit(limit).Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load scan history: %w", err)
	}
	return logs, nil
}
