package engine

import (
	"sync/atomic"

	"github.com/avernet/cadenza/internal/track"
)

// TimelineReason distinguishes membership/order changes, which trigger a
// wholesale persistence pass, from metadata-only updates, which do not.
type TimelineReason int

const (
	ReasonPlaylistChanged TimelineReason = iota
	ReasonMetadataChanged
)

// ItemTransition is emitted whenever the effective current item changes:
// user seek, natural advance, or an external command.
type ItemTransition struct {
	Item  *track.Track // nil when the queue emptied
	Index int          // natural index, -1 when unset
}

// ShuffleChanged is emitted when shuffle mode flips.
type ShuffleChanged struct {
	Enabled bool
}

// RepeatChanged is emitted when the repeat mode changes.
type RepeatChanged struct {
	Mode RepeatMode
}

// TimelineChanged is emitted when the live list changes.
type TimelineChanged struct {
	Reason TimelineReason
}

// PlayStateChanged is emitted when playback starts or stops.
type PlayStateChanged struct {
	Playing bool
}

// PlayerError reports a playback failure on the current item. The engine
// surfaces it to the user and advances rather than halting the queue.
type PlayerError struct {
	Item *track.Track
	Err  error
}

// Event is the sum of all player events. Delivery on a single ordered
// channel keeps persistence writes in event order.
type Event interface{ playerEvent() }

func (ItemTransition) playerEvent()   {}
func (ShuffleChanged) playerEvent()   {}
func (RepeatChanged) playerEvent()    {}
func (TimelineChanged) playerEvent()  {}
func (PlayStateChanged) playerEvent() {}
func (PlayerError) playerEvent()      {}

const eventBufferSize = 64

// Subscription delivers player events to one consumer.
type Subscription struct {
	Events <-chan Event
	Done   <-chan struct{}

	eventCh chan Event
	doneCh  chan struct{}
	dropped atomic.Bool
}

func newSubscription() *Subscription {
	s := &Subscription{
		eventCh: make(chan Event, eventBufferSize),
		doneCh:  make(chan struct{}),
	}
	s.Events = s.eventCh
	s.Done = s.doneCh
	return s
}

// send delivers an event without blocking; a full buffer drops the
// event and raises the overflow flag so consumers that need every
// change can re-read state instead of trusting the stream.
func (s *Subscription) send(e Event) {
	select {
	case s.eventCh <- e:
	default:
		s.dropped.Store(true)
	}
}

// Overflowed reports whether any event was dropped since the last call,
// clearing the flag.
func (s *Subscription) Overflowed() bool {
	return s.dropped.Swap(false)
}

func (s *Subscription) close() {
	close(s.doneCh)
}
