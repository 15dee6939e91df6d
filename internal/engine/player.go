// Package engine models the playback engine capability consumed by the
// queue engine: the live ordered list of tracks, the current index and
// position, shuffle and repeat state, and the event stream those emit.
// It owns list and index semantics only; decoding and rendering belong
// to whatever host embeds it.
package engine

import (
	"time"

	"github.com/avernet/cadenza/internal/track"
)

// RepeatMode defines the repeat behavior.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota
	RepeatOne
	RepeatAll
)

// String returns the repeat mode name.
func (m RepeatMode) String() string {
	switch m {
	case RepeatOff:
		return "Off"
	case RepeatOne:
		return "One"
	case RepeatAll:
		return "All"
	default:
		return "Unknown"
	}
}

// IndexUnset is the sentinel for "no current item".
const IndexUnset = -1

// Player defines the playback engine contract. Implementations must be
// safe for concurrent use: queue edits arrive serialized through the
// session dispatch loop, but transport controls and read accessors may
// come from any goroutine.
type Player interface {
	// Live list
	SetItems(items []track.Track)
	Add(items []track.Track, at int) // at is a natural index, -1 appends
	Remove(natural int) bool
	Move(from, to int) bool
	Clear()
	Items() []track.Track
	Len() int

	// Position in the queue
	CurrentIndex() int // natural index, IndexUnset when nothing loaded
	Current() *track.Track
	EffectiveIndex() int
	EffectiveQueue() []track.Track
	NextIndex() int // natural index of the next effective item
	Seek(natural int, offset time.Duration) bool
	Next() bool
	Previous() bool
	FinishCurrent() // natural advance at end of item, honoring repeat

	// Transport
	Play(playWhenReady bool)
	Pause()
	IsPlaying() bool
	Position() time.Duration
	Duration() time.Duration
	PlaybackSpeed() float64
	SetPlaybackSpeed(speed float64)

	// Modes
	Shuffle() bool
	SetShuffle(enabled bool)
	ShuffleOrder() *Order
	SetShuffleOrder(o *Order) bool
	RepeatMode() RepeatMode
	SetRepeatMode(mode RepeatMode)

	// Failure reporting from the rendering host
	ReportError(err error)

	// Events
	Subscribe() *Subscription
	Close()
}

// Verify ListPlayer implements Player at compile time.
var _ Player = (*ListPlayer)(nil)
