package store

import (
	"github.com/avernet/cadenza/internal/track"
)

// Favourites live in a reserved playlist; membership is keyed on the URI
// like everywhere else.

// IsFavourite checks if a track is in the favourites playlist.
func (s *Store) IsFavourite(names Names, uri string) (bool, error) {
	id, err := s.GetOrCreatePlaylist(names.Favourite)
	if err != nil {
		return false, err
	}
	return s.HasMember(id, uri)
}

// ToggleFavourite adds the track to favourites if absent, removes it if
// present. Returns the new favourite status.
func (s *Store) ToggleFavourite(names Names, t track.Track) (bool, error) {
	id, err := s.GetOrCreatePlaylist(names.Favourite)
	if err != nil {
		return false, err
	}

	isFav, err := s.HasMember(id, t.URI)
	if err != nil {
		return false, err
	}

	if isFav {
		_, err = s.db.Exec(`
			DELETE FROM playlist_members WHERE playlist_id = ? AND uri = ?
		`, id, t.URI)
		if err != nil {
			return false, err
		}
		return false, nil
	}

	max, err := s.MaxRank(id)
	if err != nil {
		return false, err
	}
	if err := s.UpsertMember(id, t, max+1); err != nil {
		return false, err
	}
	return true, nil
}

// Favourites returns the favourite tracks in insertion order.
func (s *Store) Favourites(names Names) ([]track.Track, error) {
	id, err := s.GetOrCreatePlaylist(names.Favourite)
	if err != nil {
		return nil, err
	}
	return s.Members(id)
}
