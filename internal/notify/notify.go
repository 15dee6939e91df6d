// Package notify provides desktop notifications via D-Bus.
package notify

import (
	"fmt"

	"github.com/avernet/cadenza/internal/track"
)

// Urgency represents notification priority levels per freedesktop spec.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// Notification contains data for a desktop notification.
type Notification struct {
	Title      string  // Summary text (required)
	Body       string  // Body text (optional, supports basic markup)
	Icon       string  // Path to image file or icon name (optional)
	Timeout    int32   // ms, -1 = server default, 0 = never expire
	ReplacesID uint32  // 0 = new notification, >0 = replace existing
	Urgency    Urgency // Low, Normal, Critical
}

// Notifier sends desktop notifications.
type Notifier interface {
	// Notify sends a notification and returns its ID.
	// Returns 0 and nil error if notifications are disabled or unavailable.
	Notify(n Notification) (uint32, error)
	// Close closes a notification by ID.
	Close(id uint32) error
}

// NowPlaying sends a track-change notification, replacing the previous
// one so skipping through the queue does not stack popups.
func NowPlaying(n Notifier, t track.Track, replaces uint32) uint32 {
	if n == nil {
		return replaces
	}
	notif := Notification{
		Title:      t.Title,
		Body:       t.Subtitle,
		Icon:       FindAlbumArtPath(t.URI),
		Timeout:    5000,
		ReplacesID: replaces,
		Urgency:    UrgencyLow,
	}
	id, err := n.Notify(notif)
	if err != nil {
		return replaces
	}
	return id
}

// PlaybackFailure tells the user an item could not be played.
func PlaybackFailure(n Notifier, title string, err error) {
	if n == nil {
		return
	}
	_, _ = n.Notify(Notification{
		Title:   "Playback failed",
		Body:    fmt.Sprintf("%s: %v", title, err),
		Timeout: -1,
		Urgency: UrgencyCritical,
	})
}
