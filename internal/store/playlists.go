package store

import (
	"database/sql"
	"errors"
	"time"

	dbutil "github.com/avernet/cadenza/internal/db"
	"github.com/avernet/cadenza/internal/track"
)

// Playlist member operations. Each logical list (queue mirror, recents,
// favourites) is a named playlist whose members carry a rank. The queue
// mirror uses rank as the natural-order position and is only ever replaced
// wholesale; recents use rank as a monotonic recency ordinal.

// GetOrCreatePlaylist returns the id of the named playlist, creating it
// if needed.
func (s *Store) GetOrCreatePlaylist(name string) (int64, error) {
	var id int64
	err := s.db.QueryRow(`SELECT id FROM playlists WHERE name = ?`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	now := time.Now().UnixMilli()
	res, err := s.db.Exec(`
		INSERT INTO playlists (name, created_at, modified_at) VALUES (?, ?, ?)
	`, name, now, now)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ReplaceMembers replaces the playlist's members wholesale with the given
// tracks, ranked by slice position. Delete-all plus re-insert in one
// transaction: a reader always sees a complete snapshot, never a partial
// patch.
func (s *Store) ReplaceMembers(playlistID int64, tracks []track.Track) error {
	return dbutil.WithTx(s.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM playlist_members WHERE playlist_id = ?`, playlistID); err != nil {
			return err
		}

		stmt, err := tx.Prepare(`
			INSERT INTO playlist_members (playlist_id, uri, title, subtitle, artwork, duration_ms, rank)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, t := range tracks {
			if _, err := stmt.Exec(playlistID, t.URI, t.Title, t.Subtitle, t.Artwork, t.Duration.Milliseconds(), i); err != nil {
				return err
			}
		}

		_, err = tx.Exec(`UPDATE playlists SET modified_at = ? WHERE id = ?`, time.Now().UnixMilli(), playlistID)
		return err
	})
}

// UpsertMember inserts the track with the given rank, or updates the rank
// of the existing member with the same URI.
func (s *Store) UpsertMember(playlistID int64, t track.Track, rank int) error {
	return dbutil.WithTx(s.db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO playlist_members (playlist_id, uri, title, subtitle, artwork, duration_ms, rank)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(playlist_id, uri) DO UPDATE SET rank = excluded.rank
		`, playlistID, t.URI, t.Title, t.Subtitle, t.Artwork, t.Duration.Milliseconds(), rank)
		if err != nil {
			return err
		}
		_, err = tx.Exec(`UPDATE playlists SET modified_at = ? WHERE id = ?`, time.Now().UnixMilli(), playlistID)
		return err
	})
}

// DeleteMembersBeyond keeps the `keep` highest-ranked members and deletes
// the rest (the lowest-ranked, i.e. oldest, entries go first).
func (s *Store) DeleteMembersBeyond(playlistID int64, keep int) error {
	if keep < 0 {
		keep = 0
	}
	_, err := s.db.Exec(`
		DELETE FROM playlist_members
		WHERE playlist_id = ?
		  AND id NOT IN (
			SELECT id FROM playlist_members
			WHERE playlist_id = ?
			ORDER BY rank DESC
			LIMIT ?
		  )
	`, playlistID, playlistID, keep)
	return err
}

// Members returns the playlist's tracks in ascending rank order.
func (s *Store) Members(playlistID int64) ([]track.Track, error) {
	return s.membersOrdered(playlistID, "ASC")
}

// MembersByRecency returns the playlist's tracks newest-first (descending
// rank order).
func (s *Store) MembersByRecency(playlistID int64) ([]track.Track, error) {
	return s.membersOrdered(playlistID, "DESC")
}

func (s *Store) membersOrdered(playlistID int64, dir string) ([]track.Track, error) {
	rows, err := s.db.Query(`
		SELECT uri, title, subtitle, artwork, duration_ms
		FROM playlist_members
		WHERE playlist_id = ?
		ORDER BY rank `+dir, playlistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tracks []track.Track
	for rows.Next() {
		var t track.Track
		var title, subtitle, artwork sql.NullString
		var durationMS sql.NullInt64

		if err := rows.Scan(&t.URI, &title, &subtitle, &artwork, &durationMS); err != nil {
			return nil, err
		}
		t.Title = dbutil.NullStringValue(title)
		t.Subtitle = dbutil.NullStringValue(subtitle)
		t.Artwork = dbutil.NullStringValue(artwork)
		t.Duration = time.Duration(dbutil.NullInt64Value(durationMS)) * time.Millisecond
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

// HasMember reports whether the playlist contains the given URI.
func (s *Store) HasMember(playlistID int64, uri string) (bool, error) {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM playlist_members WHERE playlist_id = ? AND uri = ?
	`, playlistID, uri).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountMembers returns the playlist's member count.
func (s *Store) CountMembers(playlistID int64) (int, error) {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM playlist_members WHERE playlist_id = ?
	`, playlistID).Scan(&count)
	return count, err
}

// MaxRank returns the highest rank in the playlist, or -1 when empty.
func (s *Store) MaxRank(playlistID int64) (int, error) {
	var rank sql.NullInt64
	err := s.db.QueryRow(`
		SELECT MAX(rank) FROM playlist_members WHERE playlist_id = ?
	`, playlistID).Scan(&rank)
	if err != nil {
		return -1, err
	}
	if !rank.Valid {
		return -1, nil
	}
	return int(rank.Int64), nil
}
