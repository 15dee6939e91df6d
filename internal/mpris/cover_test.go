//go:build linux

package mpris

import (
	"os"
	"path/filepath"
	"testing"
)

func writeCover(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("fake"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFindAlbumArt(t *testing.T) {
	dir := t.TempDir()
	cover := writeCover(t, dir, "cover.jpg")

	if got := FindAlbumArt(filepath.Join(dir, "track.mp3")); got != cover {
		t.Errorf("FindAlbumArt() = %q, want %q", got, cover)
	}
}

func TestFindAlbumArtNotFound(t *testing.T) {
	dir := t.TempDir()
	if got := FindAlbumArt(filepath.Join(dir, "track.mp3")); got != "" {
		t.Errorf("FindAlbumArt() = %q, want empty string", got)
	}
}

func TestFindAlbumArtPriority(t *testing.T) {
	dir := t.TempDir()
	writeCover(t, dir, "folder.jpg")
	cover := writeCover(t, dir, "cover.jpg")

	if got := FindAlbumArt(filepath.Join(dir, "track.mp3")); got != cover {
		t.Errorf("FindAlbumArt() = %q, want %q (cover beats folder)", got, cover)
	}
}
