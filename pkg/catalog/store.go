package catalog

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/sharescan/sharescan/internal/logger"
)

// ftsSchema creates the FTS5 shadow table and the triggers that keep it in
// sync with the files table. External-content mode keeps the index small;
// porter stemming makes search forgiving. Virtual tables are outside gorm's
// migration model, so this runs as raw DDL after AutoMigrate.
var ftsSchema = []string{
	`CREATE VIRTUAL TABLE IF NOT EXISTS files_fts USING fts5(
		name,
		full_text,
		path,
		content='files',
		content_rowid='id',
		tokenize='porter unicode61'
	)`,
	`CREATE TRIGGER IF NOT EXISTS files_ai AFTER INSERT ON files BEGIN
		INSERT INTO files_fts(rowid, name, full_text, path)
		VALUES (new.id, new.name, new.full_text, new.path);
	END`,
	`CREATE TRIGGER IF NOT EXISTS files_ad AFTER DELETE ON files BEGIN
		INSERT INTO files_fts(files_fts, rowid, name, full_text, path)
		VALUES ('delete', old.id, old.name, old.full_text, old.path);
	END`,
	`CREATE TRIGGER IF NOT EXISTS files_au AFTER UPDATE ON files BEGIN
		INSERT INTO files_fts(files_fts, rowid, name, full_text, path)
		VALUES ('delete', old.id, old.name, old.full_text, old.path);
		INSERT INTO files_fts(rowid, name, full_text, path)
		VALUES (new.id, new.name, new.full_text, new.path);
	END`,
}

// Store wraps the catalog database.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the catalog database at path and ensures
// the schema is current.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// recursive_triggers makes REPLACE fire the FTS delete trigger for the
	// row it displaces; without it the search index accumulates orphans.
	dsn := path + "?_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=cache_size(-64000)" +
		"&_pragma=foreign_keys(1)" +
		"&_pragma=recursive_triggers(1)"

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	if err := db.AutoMigrate(AllModels()...); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	for _, stmt := range ftsSchema {
		if err := db.Exec(stmt).Error; err != nil {
			return nil, fmt.Errorf("failed to create search schema: %w", err)
		}
	}

	logger.Debug("catalog opened", "path", path)
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// DB exposes the gorm handle for advanced callers and tests.
func (s *Store) DB() *gorm.DB {
	return s.db
}
