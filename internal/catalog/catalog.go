// Package catalog builds track references from the local filesystem.
// It is read-only: scanning never mutates the queue or the store.
package catalog

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dhowden/tag"

	"github.com/avernet/cadenza/internal/track"
)

var audioExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".ogg":  true,
	".opus": true,
	".m4a":  true,
	".wav":  true,
}

// IsAudioFile reports whether the path looks like a playable audio file.
func IsAudioFile(path string) bool {
	return audioExtensions[strings.ToLower(filepath.Ext(path))]
}

// ReadTrack builds a track reference for a local file. Tag metadata is
// best-effort: unreadable tags fall back to the filename.
func ReadTrack(path string) track.Track {
	t := track.Track{
		URI:   path,
		Title: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
	}

	f, err := os.Open(path)
	if err != nil {
		return t
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return t
	}
	if title := m.Title(); title != "" {
		t.Title = title
	}
	subtitle := m.Artist()
	if subtitle == "" {
		subtitle = m.AlbumArtist()
	}
	if album := m.Album(); album != "" && subtitle != "" {
		subtitle = subtitle + " - " + album
	} else if album != "" {
		subtitle = album
	}
	t.Subtitle = subtitle
	return t
}

// ScanSources walks the given directories and returns all audio files
// found, sorted by path. Unreadable entries are skipped; a plain file
// argument is accepted as-is.
func ScanSources(sources []string) []track.Track {
	var tracks []track.Track
	for _, src := range sources {
		info, err := os.Stat(src)
		if err != nil {
			continue
		}
		if !info.IsDir() {
			if IsAudioFile(src) {
				tracks = append(tracks, ReadTrack(src))
			}
			continue
		}
		_ = filepath.WalkDir(src, func(path string, d os.DirEntry, walkErr error) error {
			if walkErr != nil {
				return nil //nolint:nilerr // keep scanning other paths
			}
			if d.IsDir() || !IsAudioFile(path) {
				return nil
			}
			tracks = append(tracks, ReadTrack(path))
			return nil
		})
	}
	sort.Slice(tracks, func(i, j int) bool { return tracks[i].URI < tracks[j].URI })
	return track.Dedupe(tracks)
}
