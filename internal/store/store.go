package store

import (
	"database/sql"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Store handles all database operations
type Store struct {
	db *sql.DB
}

// New creates a new Store with SQLite backend
func New(dbPath string) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS analysis_state (
		user_id TEXT PRIMARY KEY,
		last_analysis_at DATETIME,
		last_analyzed_post_id TEXT,
		last_analyzed_message_id TEXT,
		analysis_scope TEXT,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS suggested_posts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		idea_bank_id TEXT,
		title TEXT,
		content TEXT NOT NULL,
		platform TEXT,
		topics TEXT,
		source_url TEXT,
		recommendation_score INTEGER,
		status TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS user_preferences (
		user_id TEXT PRIMARY KEY,
		bio TEXT,
		writing_style TEXT,
		topics TEXT,
		platform TEXT,
		newsletter_ids TEXT,
		website_urls TEXT,
		network_profile TEXT
	);

	CREATE TABLE IF NOT EXISTS schedule_configs (
		user_id TEXT PRIMARY KEY,
		cron_expression TEXT NOT NULL,
		timezone TEXT NOT NULL,
		last_run_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_suggested_posts_user ON suggested_posts(user_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_suggested_posts_status ON suggested_posts(user_id, status);
	`

	_, err := s.db.Exec(schema)
	return err
}
