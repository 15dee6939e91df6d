// Package track defines the track reference passed between the catalog,
// the playing queue and the durable stores. A track is identified by its
// URI; every membership rule in the queue is keyed on it.
package track

import (
	"net/url"
	"time"
)

// Track is an opaque reference to playable content. URI is the uniqueness
// key for queue membership; two tracks with equal URIs are the same entry.
type Track struct {
	URI      string
	Title    string
	Subtitle string
	Artwork  string
	Duration time.Duration
}

// Transient reports whether the track comes from a third-party provider
// and is not guaranteed to resolve after a device restart. File paths and
// file:// URIs are stable; provider and network schemes are not.
func (t Track) Transient() bool {
	u, err := url.Parse(t.URI)
	if err != nil {
		return true
	}
	switch u.Scheme {
	case "", "file":
		return false
	default:
		return true
	}
}

// Equal reports whether two tracks reference the same content.
func (t Track) Equal(other Track) bool {
	return t.URI == other.URI
}

// Dedupe returns tracks with duplicate URIs removed, keeping the first
// occurrence and the original order.
func Dedupe(tracks []Track) []Track {
	seen := make(map[string]struct{}, len(tracks))
	result := make([]Track, 0, len(tracks))
	for _, t := range tracks {
		if _, ok := seen[t.URI]; ok {
			continue
		}
		seen[t.URI] = struct{}{}
		result = append(result, t)
	}
	return result
}

// ContainsURI reports whether any track in the slice has the given URI.
func ContainsURI(tracks []Track, uri string) bool {
	return IndexOfURI(tracks, uri) >= 0
}

// IndexOfURI returns the index of the track with the given URI, or -1.
func IndexOfURI(tracks []Track, uri string) int {
	for i, t := range tracks {
		if t.URI == uri {
			return i
		}
	}
	return -1
}
