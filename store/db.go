package store

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"
)

func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// One run writes at a time; a handful of connections is plenty.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	slog.Info("database ready", "path", path)
	return db, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id               TEXT PRIMARY KEY,
			started_at       INTEGER NOT NULL,
			finished_at      INTEGER NOT NULL,
			top_n            INTEGER NOT NULL,
			average_score    REAL,
			average_comments REAL
		);

		CREATE TABLE IF NOT EXISTS items (
			run_id    TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			kind      TEXT NOT NULL,
			position  INTEGER NOT NULL,
			item_id   INTEGER,
			raw       TEXT NOT NULL,
			PRIMARY KEY (run_id, kind, position)
		);
		CREATE INDEX IF NOT EXISTS idx_items_item ON items(item_id);
	`)
	return err
}
