package notify

import (
	"errors"
	"testing"

	"github.com/avernet/cadenza/internal/track"
)

// mockNotifier records notifications for testing.
type mockNotifier struct {
	notifications []Notification
	lastID        uint32
}

func (m *mockNotifier) Notify(n Notification) (uint32, error) {
	m.lastID++
	m.notifications = append(m.notifications, n)
	return m.lastID, nil
}

func (m *mockNotifier) Close(_ uint32) error {
	return nil
}

func TestUrgencyValues(t *testing.T) {
	// Urgency constants must match the D-Bus spec.
	if UrgencyLow != 0 || UrgencyNormal != 1 || UrgencyCritical != 2 {
		t.Errorf("urgency constants = %d/%d/%d, want 0/1/2",
			UrgencyLow, UrgencyNormal, UrgencyCritical)
	}
}

func TestNowPlaying(t *testing.T) {
	mock := &mockNotifier{}

	id := NowPlaying(mock, track.Track{
		URI:      "https://radio.example/stream",
		Title:    "Test Song",
		Subtitle: "Test Artist",
	}, 0)

	if len(mock.notifications) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(mock.notifications))
	}
	n := mock.notifications[0]
	if n.Title != "Test Song" {
		t.Errorf("Title = %q, want %q", n.Title, "Test Song")
	}
	if n.Body != "Test Artist" {
		t.Errorf("Body = %q, want %q", n.Body, "Test Artist")
	}
	if n.Urgency != UrgencyLow {
		t.Errorf("Urgency = %d, want UrgencyLow", n.Urgency)
	}

	// The next notification replaces the first.
	id2 := NowPlaying(mock, track.Track{Title: "Next Song"}, id)
	if mock.notifications[1].ReplacesID != id {
		t.Errorf("ReplacesID = %d, want %d", mock.notifications[1].ReplacesID, id)
	}
	if id2 == 0 {
		t.Error("NowPlaying returned id 0")
	}
}

func TestNowPlayingNilNotifier(t *testing.T) {
	// Must not panic, and must keep the caller's replace ID.
	if got := NowPlaying(nil, track.Track{Title: "x"}, 7); got != 7 {
		t.Errorf("NowPlaying(nil) = %d, want 7", got)
	}
}

func TestPlaybackFailure(t *testing.T) {
	mock := &mockNotifier{}
	PlaybackFailure(mock, "Broken Song", errors.New("decoder choked"))

	if len(mock.notifications) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(mock.notifications))
	}
	n := mock.notifications[0]
	if n.Urgency != UrgencyCritical {
		t.Errorf("Urgency = %d, want UrgencyCritical", n.Urgency)
	}
	if n.Body != "Broken Song: decoder choked" {
		t.Errorf("Body = %q", n.Body)
	}

	PlaybackFailure(nil, "x", errors.New("y")) // must not panic
}
