package store

import (
	"database/sql"
)

const currentSchemaVersion = 2

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS prefs (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS playlists (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			created_at INTEGER NOT NULL,
			modified_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS playlist_members (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			playlist_id INTEGER NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
			uri TEXT NOT NULL,
			title TEXT,
			subtitle TEXT,
			artwork TEXT,
			duration_ms INTEGER,
			rank INTEGER NOT NULL,
			UNIQUE(playlist_id, uri)
		);

		CREATE INDEX IF NOT EXISTS idx_members_playlist_rank ON playlist_members(playlist_id, rank);
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		INSERT OR IGNORE INTO schema_version (version) VALUES (?)
	`, currentSchemaVersion)
	return err
}
