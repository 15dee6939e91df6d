// Package store owns the durable side of the queue engine: a single SQLite
// database holding scalar preferences (shuffle flag, repeat mode, playback
// bookmark, serialized shuffle order) and the playlist tables that mirror
// queue membership, recent items and favourites.
package store

import (
	"database/sql"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	appName    = "cadenza"
	dbFileName = "cadenza.db"
)

// Names holds the reserved playlist names used by the queue engine.
// Passed explicitly at construction instead of living as package globals.
type Names struct {
	Queue     string
	Recent    string
	Favourite string
}

// DefaultNames returns the reserved playlist names.
func DefaultNames() Names {
	return Names{
		Queue:     "queue",
		Recent:    "recent",
		Favourite: "favourite",
	}
}

type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at the XDG data path.
func Open() (*Store, error) {
	dbPath, err := xdg.DataFile(filepath.Join(appName, dbFileName))
	if err != nil {
		return nil, err
	}
	return OpenPath(dbPath)
}

// OpenPath opens (or creates) the database at the given path.
// Use ":memory:" for an ephemeral store.
func OpenPath(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if err := initSchema(sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}

	return &Store{db: sqlDB}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for tests.
func (s *Store) DB() *sql.DB {
	return s.db
}
