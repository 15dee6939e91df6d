package engine

import (
	"math/rand"
	"sync"
	"time"

	"github.com/avernet/cadenza/internal/track"
)

// ListPlayer is the in-process playback engine: it owns the live ordered
// list as the source of truth for queue membership. Mutations arrive
// serialized from the session loop; the lock exists for the read
// accessors polled from other goroutines.
type ListPlayer struct {
	mu sync.RWMutex

	items   []track.Track
	current int
	order   *Order // nil until shuffle has been enabled or an order restored

	shuffle bool
	repeat  RepeatMode

	playing   bool
	offset    time.Duration
	startedAt time.Time
	speed     float64

	rnd *rand.Rand

	subs   []*Subscription
	subsMu sync.RWMutex
	closed bool
}

// NewListPlayer creates an empty player.
func NewListPlayer() *ListPlayer {
	return &ListPlayer{
		current: IndexUnset,
		speed:   1.0,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Subscribe creates a new event subscription.
func (p *ListPlayer) Subscribe() *Subscription {
	p.subsMu.Lock()
	defer p.subsMu.Unlock()
	sub := newSubscription()
	p.subs = append(p.subs, sub)
	return sub
}

// Close shuts down all subscriptions.
func (p *ListPlayer) Close() {
	p.subsMu.Lock()
	defer p.subsMu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	for _, sub := range p.subs {
		sub.close()
	}
	p.subs = nil
}

func (p *ListPlayer) emit(events ...Event) {
	p.subsMu.RLock()
	defer p.subsMu.RUnlock()
	for _, sub := range p.subs {
		for _, e := range events {
			sub.send(e)
		}
	}
}

// SetItems replaces the live list. Duplicate locators are dropped; the
// current index resets to the head of the new list.
func (p *ListPlayer) SetItems(items []track.Track) {
	p.mu.Lock()
	p.items = track.Dedupe(items)
	stopped := false
	if len(p.items) > 0 {
		p.current = 0
	} else {
		p.current = IndexUnset
		stopped = p.playing
		p.playing = false
	}
	p.offset = 0
	p.startedAt = time.Now()
	if p.shuffle {
		p.order = NewOrder(len(p.items), p.rnd)
	} else {
		p.order = nil
	}
	item := p.currentLocked()
	index := p.current
	p.mu.Unlock()

	events := []Event{TimelineChanged{Reason: ReasonPlaylistChanged}, ItemTransition{Item: item, Index: index}}
	if stopped {
		events = append(events, PlayStateChanged{Playing: false})
	}
	p.emit(events...)
}

// Add inserts the given tracks at the natural index at (-1 appends).
// Tracks whose locator is already in the queue are dropped silently.
func (p *ListPlayer) Add(items []track.Track, at int) {
	p.mu.Lock()
	fresh := make([]track.Track, 0, len(items))
	for _, t := range track.Dedupe(items) {
		if !track.ContainsURI(p.items, t.URI) {
			fresh = append(fresh, t)
		}
	}
	if len(fresh) == 0 {
		p.mu.Unlock()
		return
	}

	wasEmpty := len(p.items) == 0
	if at < 0 || at > len(p.items) {
		at = len(p.items)
	}

	tail := make([]track.Track, len(p.items[at:]))
	copy(tail, p.items[at:])
	p.items = append(append(p.items[:at], fresh...), tail...)

	if p.order != nil {
		// New items join the effective sequence right after the current
		// effective position, so they are heard soon even under shuffle.
		p.order.Insert(at, len(fresh), p.order.Effective(p.current))
	}
	if !wasEmpty && at <= p.current {
		p.current += len(fresh)
	}

	events := []Event{TimelineChanged{Reason: ReasonPlaylistChanged}}
	if wasEmpty {
		p.current = 0
		events = append(events, ItemTransition{Item: p.currentLocked(), Index: p.current})
	}
	p.mu.Unlock()

	p.emit(events...)
}

// Remove deletes the track at the given natural index.
func (p *ListPlayer) Remove(natural int) bool {
	p.mu.Lock()
	if natural < 0 || natural >= len(p.items) {
		p.mu.Unlock()
		return false
	}

	removedCurrent := natural == p.current
	p.items = append(p.items[:natural], p.items[natural+1:]...)
	if p.order != nil {
		p.order.Remove(natural)
	}

	switch {
	case natural < p.current:
		p.current--
	case removedCurrent:
		p.offset = 0
		if p.current >= len(p.items) {
			p.current = len(p.items) - 1
		}
	}
	stopped := false
	if len(p.items) == 0 {
		p.current = IndexUnset
		stopped = p.playing
		p.playing = false
	}

	events := []Event{TimelineChanged{Reason: ReasonPlaylistChanged}}
	if stopped {
		events = append(events, PlayStateChanged{Playing: false})
	}
	if removedCurrent {
		events = append(events, ItemTransition{Item: p.currentLocked(), Index: p.current})
	}
	p.mu.Unlock()

	p.emit(events...)
	return true
}

// Move repositions the entry at natural index from to natural index to.
// The current pointer follows the item it points at.
func (p *ListPlayer) Move(from, to int) bool {
	p.mu.Lock()
	if from < 0 || from >= len(p.items) || to < 0 || to >= len(p.items) {
		p.mu.Unlock()
		return false
	}
	if from == to {
		p.mu.Unlock()
		return true
	}

	item := p.items[from]
	p.items = append(p.items[:from], p.items[from+1:]...)
	rest := make([]track.Track, len(p.items[to:]))
	copy(rest, p.items[to:])
	p.items = append(append(p.items[:to], item), rest...)

	if p.order != nil {
		p.order.Move(from, to)
	}
	p.current = remapAfterMove(p.current, from, to)
	p.mu.Unlock()

	p.emit(TimelineChanged{Reason: ReasonPlaylistChanged})
	return true
}

func remapAfterMove(idx, from, to int) int {
	switch {
	case idx == from:
		return to
	case from < to && idx > from && idx <= to:
		return idx - 1
	case to < from && idx >= to && idx < from:
		return idx + 1
	default:
		return idx
	}
}

// Clear empties the live list.
func (p *ListPlayer) Clear() {
	p.SetItems(nil)
}

// Items returns a copy of the natural-order list.
func (p *ListPlayer) Items() []track.Track {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]track.Track, len(p.items))
	copy(out, p.items)
	return out
}

// Len returns the queue length.
func (p *ListPlayer) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.items)
}

// CurrentIndex returns the natural index of the current item.
func (p *ListPlayer) CurrentIndex() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

func (p *ListPlayer) currentLocked() *track.Track {
	if p.current < 0 || p.current >= len(p.items) {
		return nil
	}
	t := p.items[p.current]
	return &t
}

// Current returns a copy of the current track, or nil.
func (p *ListPlayer) Current() *track.Track {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.currentLocked()
}

func (p *ListPlayer) effectiveIndexLocked() int {
	if p.current == IndexUnset {
		return IndexUnset
	}
	if !p.shuffle || p.order == nil {
		return p.current
	}
	return p.order.Effective(p.current)
}

// EffectiveIndex returns the current position in effective playback
// order. Equal to CurrentIndex when shuffle is disabled.
func (p *ListPlayer) EffectiveIndex() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.effectiveIndexLocked()
}

// EffectiveQueue returns the tracks in the order they will actually
// play: natural order, or permutation-applied order under shuffle.
func (p *ListPlayer) EffectiveQueue() []track.Track {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.shuffle || p.order == nil {
		out := make([]track.Track, len(p.items))
		copy(out, p.items)
		return out
	}
	out := make([]track.Track, 0, len(p.items))
	for k := 0; k < p.order.Len(); k++ {
		out = append(out, p.items[p.order.Natural(k)])
	}
	return out
}

func (p *ListPlayer) nextNaturalLocked() int {
	if p.current == IndexUnset || len(p.items) == 0 {
		return IndexUnset
	}
	k := p.effectiveIndexLocked()
	if k+1 < len(p.items) {
		if !p.shuffle || p.order == nil {
			return k + 1
		}
		return p.order.Natural(k + 1)
	}
	if p.repeat == RepeatAll {
		if !p.shuffle || p.order == nil {
			return 0
		}
		return p.order.Natural(0)
	}
	return IndexUnset
}

// NextIndex returns the natural index of the next effective item, or
// IndexUnset at the boundary (unless repeat-all wraps).
func (p *ListPlayer) NextIndex() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.nextNaturalLocked()
}

// Seek jumps to the given natural index at the given offset.
func (p *ListPlayer) Seek(natural int, offset time.Duration) bool {
	p.mu.Lock()
	if natural < 0 || natural >= len(p.items) {
		p.mu.Unlock()
		return false
	}
	changed := natural != p.current
	p.current = natural
	if offset < 0 {
		offset = 0
	}
	p.offset = offset
	p.startedAt = time.Now()
	item := p.currentLocked()
	p.mu.Unlock()

	if changed {
		p.emit(ItemTransition{Item: item, Index: natural})
	}
	return true
}

// Next advances one effective position. No-op at the boundary unless
// repeat-all wraps around.
func (p *ListPlayer) Next() bool {
	p.mu.Lock()
	next := p.nextNaturalLocked()
	if next == IndexUnset {
		p.mu.Unlock()
		return false
	}
	p.current = next
	p.offset = 0
	p.startedAt = time.Now()
	item := p.currentLocked()
	p.mu.Unlock()

	p.emit(ItemTransition{Item: item, Index: next})
	return true
}

// Previous retreats one effective position. No-op at the boundary unless
// repeat-all wraps around.
func (p *ListPlayer) Previous() bool {
	p.mu.Lock()
	if p.current == IndexUnset || len(p.items) == 0 {
		p.mu.Unlock()
		return false
	}
	k := p.effectiveIndexLocked()
	var prev int
	switch {
	case k > 0:
		if !p.shuffle || p.order == nil {
			prev = k - 1
		} else {
			prev = p.order.Natural(k - 1)
		}
	case p.repeat == RepeatAll:
		if !p.shuffle || p.order == nil {
			prev = len(p.items) - 1
		} else {
			prev = p.order.Natural(p.order.Len() - 1)
		}
	default:
		p.mu.Unlock()
		return false
	}
	p.current = prev
	p.offset = 0
	p.startedAt = time.Now()
	item := p.currentLocked()
	p.mu.Unlock()

	p.emit(ItemTransition{Item: item, Index: prev})
	return true
}

// FinishCurrent is the natural end-of-item advance: repeat-one replays
// the item, repeat-all wraps, repeat-off stops at the tail.
func (p *ListPlayer) FinishCurrent() {
	p.mu.Lock()
	if p.current == IndexUnset {
		p.mu.Unlock()
		return
	}
	if p.repeat == RepeatOne {
		p.offset = 0
		p.startedAt = time.Now()
		item := p.currentLocked()
		index := p.current
		p.mu.Unlock()
		p.emit(ItemTransition{Item: item, Index: index})
		return
	}
	next := p.nextNaturalLocked()
	if next == IndexUnset {
		wasPlaying := p.playing
		p.playing = false
		p.offset = 0
		p.mu.Unlock()
		if wasPlaying {
			p.emit(PlayStateChanged{Playing: false})
		}
		return
	}
	p.current = next
	p.offset = 0
	p.startedAt = time.Now()
	item := p.currentLocked()
	p.mu.Unlock()

	p.emit(ItemTransition{Item: item, Index: next})
}

// Play starts (or arms) playback.
func (p *ListPlayer) Play(playWhenReady bool) {
	p.mu.Lock()
	if len(p.items) == 0 || p.playing == playWhenReady {
		p.mu.Unlock()
		return
	}
	if playWhenReady {
		p.startedAt = time.Now()
	} else {
		p.offset += p.elapsedLocked()
	}
	p.playing = playWhenReady
	p.mu.Unlock()

	p.emit(PlayStateChanged{Playing: playWhenReady})
}

// Pause stops playback, folding elapsed time into the stored offset.
func (p *ListPlayer) Pause() {
	p.mu.Lock()
	if !p.playing {
		p.mu.Unlock()
		return
	}
	p.offset += p.elapsedLocked()
	p.playing = false
	p.mu.Unlock()

	p.emit(PlayStateChanged{Playing: false})
}

// IsPlaying reports whether playback is active.
func (p *ListPlayer) IsPlaying() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.playing
}

func (p *ListPlayer) elapsedLocked() time.Duration {
	return time.Duration(float64(time.Since(p.startedAt)) * p.speed)
}

// Position returns the playback offset within the current item.
func (p *ListPlayer) Position() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.playing {
		return p.offset + p.elapsedLocked()
	}
	return p.offset
}

// Duration returns the current item's known duration (0 when unknown).
func (p *ListPlayer) Duration() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if t := p.currentLocked(); t != nil {
		return t.Duration
	}
	return 0
}

// PlaybackSpeed returns the playback rate multiplier.
func (p *ListPlayer) PlaybackSpeed() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.speed
}

// SetPlaybackSpeed sets the playback rate multiplier. Non-positive
// values are ignored.
func (p *ListPlayer) SetPlaybackSpeed(speed float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if speed <= 0 {
		return
	}
	if p.playing {
		p.offset += p.elapsedLocked()
		p.startedAt = time.Now()
	}
	p.speed = speed
}

// Shuffle reports whether shuffle mode is enabled.
func (p *ListPlayer) Shuffle() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.shuffle
}

// SetShuffle flips shuffle mode, generating a fresh permutation when one
// is missing or stale.
func (p *ListPlayer) SetShuffle(enabled bool) {
	p.mu.Lock()
	if p.shuffle == enabled {
		p.mu.Unlock()
		return
	}
	p.shuffle = enabled
	if enabled && (p.order == nil || p.order.Len() != len(p.items)) {
		p.order = NewOrder(len(p.items), p.rnd)
	}
	p.mu.Unlock()

	p.emit(ShuffleChanged{Enabled: enabled})
}

// ShuffleOrder returns the live permutation, or nil if none exists.
func (p *ListPlayer) ShuffleOrder() *Order {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.order
}

// SetShuffleOrder installs a permutation, typically restored from
// persisted state. Returns false when the length does not match the
// queue.
func (p *ListPlayer) SetShuffleOrder(o *Order) bool {
	p.mu.Lock()
	if o == nil || o.Len() != len(p.items) {
		p.mu.Unlock()
		return false
	}
	p.order = o
	p.mu.Unlock()

	p.emit(TimelineChanged{Reason: ReasonPlaylistChanged})
	return true
}

// RepeatMode returns the repeat mode.
func (p *ListPlayer) RepeatMode() RepeatMode {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.repeat
}

// SetRepeatMode sets the repeat mode.
func (p *ListPlayer) SetRepeatMode(mode RepeatMode) {
	p.mu.Lock()
	if p.repeat == mode {
		p.mu.Unlock()
		return
	}
	p.repeat = mode
	p.mu.Unlock()

	p.emit(RepeatChanged{Mode: mode})
}

// ReportError publishes a playback failure on the current item.
func (p *ListPlayer) ReportError(err error) {
	p.mu.RLock()
	item := p.currentLocked()
	p.mu.RUnlock()
	p.emit(PlayerError{Item: item, Err: err})
}
