package storage

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// New opens a SQLite database connection at the given path.
// It enables foreign keys and sets connection pool settings.
func New(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	// Enable foreign keys (disabled by default in SQLite)
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, err
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate runs database migrations to create the required tables.
// It is idempotent and can be run multiple times safely.
func Migrate(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS videos (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			video_name TEXT NOT NULL UNIQUE,
			original_path TEXT NOT NULL,
			total_chunks INTEGER NOT NULL,
			total_duration REAL NOT NULL,
			processed_date DATETIME DEFAULT CURRENT_TIMESTAMP,
			status TEXT NOT NULL DEFAULT 'completed'
		);`,
		`CREATE TABLE IF NOT EXISTS transcript_chunks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			video_name TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			start_time REAL NOT NULL,
			end_time REAL NOT NULL,
			start_formatted TEXT NOT NULL,
			end_formatted TEXT NOT NULL,
			text TEXT NOT NULL,
			char_count INTEGER NOT NULL,
			vector_id TEXT,
			created_date DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (video_name, chunk_index)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_transcript_chunks_video_name
			ON transcript_chunks(video_name);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
