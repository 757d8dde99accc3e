package repository

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

// NewPostgresDB creates and initializes a PostgreSQL database connection
func NewPostgresDB(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	if err := createTablesPostgres(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func createTablesPostgres(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS photos (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		original_filename TEXT NOT NULL,
		stored_path TEXT NOT NULL,
		thumb_path TEXT,
		file_hash TEXT NOT NULL,
		file_size BIGINT NOT NULL,
		caption TEXT NOT NULL DEFAULT '',
		emotion TEXT NOT NULL DEFAULT '',
		ai_comment TEXT NOT NULL DEFAULT '',
		taken_at TIMESTAMPTZ NOT NULL,
		uploaded_at TIMESTAMPTZ NOT NULL,
		UNIQUE(user_id, file_hash)
	);

	CREATE INDEX IF NOT EXISTS idx_photos_user_taken ON photos(user_id, taken_at);
	`

	_, err := db.Exec(schema)
	return err
}
