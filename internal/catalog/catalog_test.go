package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsAudioFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/music/song.mp3", true},
		{"/music/song.FLAC", true},
		{"/music/song.opus", true},
		{"/music/cover.jpg", false},
		{"/music/notes.txt", false},
		{"/music/noext", false},
	}
	for _, tt := range tests {
		if got := IsAudioFile(tt.path); got != tt.want {
			t.Errorf("IsAudioFile(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestReadTrackFallsBackToFilename(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "untitled song.mp3")
	// Not a real MP3, so tag reading fails and the filename wins.
	if err := os.WriteFile(path, []byte("not audio"), 0o644); err != nil {
		t.Fatal(err)
	}

	tr := ReadTrack(path)
	if tr.URI != path {
		t.Errorf("URI = %q, want %q", tr.URI, path)
	}
	if tr.Title != "untitled song" {
		t.Errorf("Title = %q, want %q", tr.Title, "untitled song")
	}
}

func TestScanSources(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "album")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"b.mp3", "a.mp3", "album/c.flac", "cover.jpg"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	got := ScanSources([]string{dir})
	want := []string{
		filepath.Join(dir, "a.mp3"),
		filepath.Join(dir, "album/c.flac"),
		filepath.Join(dir, "b.mp3"),
	}
	if len(got) != len(want) {
		t.Fatalf("found %d tracks, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].URI != w {
			t.Errorf("track %d = %q, want %q", i, got[i].URI, w)
		}
	}

	// A single file source is accepted directly.
	single := ScanSources([]string{filepath.Join(dir, "a.mp3")})
	if len(single) != 1 || single[0].URI != filepath.Join(dir, "a.mp3") {
		t.Errorf("single-file scan = %v", single)
	}

	// Missing sources are skipped, not fatal.
	if got := ScanSources([]string{filepath.Join(dir, "nope")}); got != nil {
		t.Errorf("missing source returned %v", got)
	}
}
