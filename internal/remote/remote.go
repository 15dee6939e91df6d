// Package remote is the out-of-process controller surface. It binds to
// the playback session lazily on first use: fire-and-forget controls
// degrade to no-ops until the binding completes, while queue-editing
// calls await it. Either way callers never block on playback internals.
package remote

import (
	"context"
	"sync"
	"time"

	"github.com/avernet/cadenza/internal/engine"
	"github.com/avernet/cadenza/internal/session"
	"github.com/avernet/cadenza/internal/track"
)

// Connector establishes the session binding. It is invoked at most once
// per bind attempt; a failed attempt is retried on the next awaiting
// call.
type Connector func(ctx context.Context) (*session.Session, error)

// Remote forwards controller commands to the playback session.
type Remote struct {
	connect Connector

	mu      sync.Mutex
	sess    *session.Session
	pending chan struct{}
	bindErr error
	cancel  context.CancelFunc
}

// New creates an unbound remote. Nothing connects until the first call
// that needs the session.
func New(connect Connector) *Remote {
	return &Remote{connect: connect}
}

// cached returns the bound session, or nil. Fire-and-forget commands use
// this and silently do nothing while unbound.
func (r *Remote) cached() *session.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sess
}

// await returns the bound session, starting the binding if necessary and
// blocking until it completes or ctx is done.
func (r *Remote) await(ctx context.Context) (*session.Session, error) {
	r.mu.Lock()
	if r.sess != nil {
		s := r.sess
		r.mu.Unlock()
		return s, nil
	}
	if r.pending == nil {
		r.pending = make(chan struct{})
		bindCtx, cancel := context.WithCancel(context.Background())
		r.cancel = cancel
		go r.bind(bindCtx, r.pending)
	}
	pending := r.pending
	r.mu.Unlock()

	select {
	case <-pending:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sess == nil {
		return nil, r.bindErr
	}
	return r.sess, nil
}

func (r *Remote) bind(ctx context.Context, pending chan struct{}) {
	sess, err := r.connect(ctx)
	if err == nil {
		select {
		case <-sess.Ready():
			err = sess.Err()
		case <-ctx.Done():
			err = ctx.Err()
		}
	}

	r.mu.Lock()
	if err != nil {
		// Leave pending nil so the next await retries.
		r.bindErr = err
		r.pending = nil
		r.cancel = nil
	} else {
		r.sess = sess
		r.bindErr = nil
	}
	r.mu.Unlock()
	close(pending)
}

// Close cancels any in-flight binding and detaches from the session. It
// does not shut the session itself down.
func (r *Remote) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.sess = nil
	r.pending = nil
}

// --- fire-and-forget transport controls -----------------------------

// Play arms playback; autoStart false loads without starting. No-op
// while unbound.
func (r *Remote) Play(autoStart bool) {
	if s := r.cached(); s != nil {
		s.Player().Play(autoStart)
	}
}

// Pause pauses playback. No-op while unbound.
func (r *Remote) Pause() {
	if s := r.cached(); s != nil {
		s.Player().Pause()
	}
}

// TogglePlay flips between playing and paused. No-op while unbound.
func (r *Remote) TogglePlay() {
	s := r.cached()
	if s == nil {
		return
	}
	p := s.Player()
	if p.IsPlaying() {
		p.Pause()
	} else {
		p.Play(true)
	}
}

// SkipNext advances one effective position. No-op while unbound.
func (r *Remote) SkipNext() {
	if s := r.cached(); s != nil {
		s.Player().Next()
	}
}

// SkipPrev retreats one effective position. No-op while unbound.
func (r *Remote) SkipPrev() {
	if s := r.cached(); s != nil {
		s.Player().Previous()
	}
}

// SeekBy shifts the position within the current item. Negative deltas
// rewind; the player clamps at zero. No-op while unbound.
func (r *Remote) SeekBy(delta time.Duration) {
	s := r.cached()
	if s == nil {
		return
	}
	p := s.Player()
	idx := p.CurrentIndex()
	if idx == engine.IndexUnset {
		return
	}
	p.Seek(idx, p.Position()+delta)
}

// SetPosition seeks within the current item. No-op while unbound.
func (r *Remote) SetPosition(offset time.Duration) {
	s := r.cached()
	if s == nil {
		return
	}
	p := s.Player()
	if idx := p.CurrentIndex(); idx != engine.IndexUnset {
		p.Seek(idx, offset)
	}
}

// --- sync state reads (sentinels while unbound) ----------------------

// Current returns the current track, or nil while unbound or stopped.
func (r *Remote) Current() *track.Track {
	if s := r.cached(); s != nil {
		return s.Player().Current()
	}
	return nil
}

// IsPlaying reports playback state; false while unbound.
func (r *Remote) IsPlaying() bool {
	if s := r.cached(); s != nil {
		return s.Player().IsPlaying()
	}
	return false
}

// Position returns the playback offset; zero while unbound.
func (r *Remote) Position() time.Duration {
	if s := r.cached(); s != nil {
		return s.Player().Position()
	}
	return 0
}

// Duration returns the current item's duration; zero while unbound.
func (r *Remote) Duration() time.Duration {
	if s := r.cached(); s != nil {
		return s.Player().Duration()
	}
	return 0
}

// Shuffle reports shuffle mode; false while unbound.
func (r *Remote) Shuffle() bool {
	if s := r.cached(); s != nil {
		return s.Player().Shuffle()
	}
	return false
}

// RepeatMode returns the repeat mode; RepeatOff while unbound.
func (r *Remote) RepeatMode() engine.RepeatMode {
	if s := r.cached(); s != nil {
		return s.Player().RepeatMode()
	}
	return engine.RepeatOff
}

// PlaybackSpeed returns the rate multiplier; 1 while unbound.
func (r *Remote) PlaybackSpeed() float64 {
	if s := r.cached(); s != nil {
		return s.Player().PlaybackSpeed()
	}
	return 1
}

// Queue returns the queue in effective playback order; nil while
// unbound.
func (r *Remote) Queue() []track.Track {
	if s := r.cached(); s != nil {
		return s.Player().EffectiveQueue()
	}
	return nil
}

// EffectiveIndex returns the current effective position, or -1 while
// unbound or stopped.
func (r *Remote) EffectiveIndex() int {
	if s := r.cached(); s != nil {
		return s.Player().EffectiveIndex()
	}
	return engine.IndexUnset
}

// HasNext reports whether skipping forward would land on an item.
func (r *Remote) HasNext() bool {
	if s := r.cached(); s != nil {
		return s.Player().NextIndex() != engine.IndexUnset
	}
	return false
}

// --- awaiting queue edits --------------------------------------------

// Set replaces the queue with the given tracks, dropping duplicate
// locators. It returns the number of tracks actually installed.
func (r *Remote) Set(ctx context.Context, items []track.Track) (int, error) {
	s, err := r.await(ctx)
	if err != nil {
		return 0, err
	}
	deduped := track.Dedupe(items)
	err = s.Dispatch(ctx, func(p engine.Player) {
		p.SetItems(deduped)
	})
	if err != nil {
		return 0, err
	}
	return len(deduped), nil
}

// Add inserts tracks at the given natural index (-1 appends). Tracks
// already queued are dropped. Adding to an empty queue behaves exactly
// like Set. Returns the number of tracks accepted.
func (r *Remote) Add(ctx context.Context, items []track.Track, at int) (int, error) {
	s, err := r.await(ctx)
	if err != nil {
		return 0, err
	}
	var added int
	err = s.Dispatch(ctx, func(p engine.Player) {
		incoming := track.Dedupe(items)
		if p.Len() == 0 {
			p.SetItems(incoming)
			added = p.Len()
			return
		}
		existing := p.Items()
		fresh := incoming[:0:0]
		for _, t := range incoming {
			if !track.ContainsURI(existing, t.URI) {
				fresh = append(fresh, t)
			}
		}
		p.Add(fresh, at)
		added = len(fresh)
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

// Remove deletes the track with the given locator. Returns false when
// it was not queued.
func (r *Remote) Remove(ctx context.Context, uri string) (bool, error) {
	s, err := r.await(ctx)
	if err != nil {
		return false, err
	}
	var removed bool
	err = s.Dispatch(ctx, func(p engine.Player) {
		if idx := track.IndexOfURI(p.Items(), uri); idx >= 0 {
			removed = p.Remove(idx)
		}
	})
	return removed, err
}

// Move repositions the entry at natural index from to natural index to.
func (r *Remote) Move(ctx context.Context, from, to int) (bool, error) {
	s, err := r.await(ctx)
	if err != nil {
		return false, err
	}
	var moved bool
	err = s.Dispatch(ctx, func(p engine.Player) {
		moved = p.Move(from, to)
	})
	return moved, err
}

// Clear empties the queue.
func (r *Remote) Clear(ctx context.Context) error {
	s, err := r.await(ctx)
	if err != nil {
		return err
	}
	return s.Dispatch(ctx, func(p engine.Player) {
		p.Clear()
	})
}

// Seek jumps to the item at the given effective position, at the given
// offset within it.
func (r *Remote) Seek(ctx context.Context, effective int, offset time.Duration) (bool, error) {
	s, err := r.await(ctx)
	if err != nil {
		return false, err
	}
	var ok bool
	err = s.Dispatch(ctx, func(p engine.Player) {
		natural := effective
		if p.Shuffle() {
			if o := p.ShuffleOrder(); o != nil {
				natural = o.Natural(effective)
			}
		}
		if natural == engine.IndexUnset {
			return
		}
		ok = p.Seek(natural, offset)
	})
	return ok, err
}

// IndexOf returns the natural index of the given locator, or -1 when it
// is not queued. It awaits the binding: "not bound yet" must never read
// as "absent".
func (r *Remote) IndexOf(ctx context.Context, uri string) (int, error) {
	s, err := r.await(ctx)
	if err != nil {
		return -1, err
	}
	return track.IndexOfURI(s.Player().Items(), uri), nil
}

// SeekTo jumps to the queued track with the given locator. Returns
// false when it is not queued.
func (r *Remote) SeekTo(ctx context.Context, uri string) (bool, error) {
	s, err := r.await(ctx)
	if err != nil {
		return false, err
	}
	var ok bool
	err = s.Dispatch(ctx, func(p engine.Player) {
		if idx := track.IndexOfURI(p.Items(), uri); idx >= 0 {
			ok = p.Seek(idx, 0)
		}
	})
	return ok, err
}

// ToggleShuffle flips shuffle mode and returns the new state.
func (r *Remote) ToggleShuffle(ctx context.Context) (bool, error) {
	s, err := r.await(ctx)
	if err != nil {
		return false, err
	}
	var enabled bool
	err = s.Dispatch(ctx, func(p engine.Player) {
		enabled = !p.Shuffle()
		p.SetShuffle(enabled)
	})
	return enabled, err
}

// CycleRepeatMode advances off, one, all, and back to off, returning
// the new mode. Best-effort: while unbound it does nothing and reports
// RepeatOff.
func (r *Remote) CycleRepeatMode() engine.RepeatMode {
	s := r.cached()
	if s == nil {
		return engine.RepeatOff
	}
	p := s.Player()
	var mode engine.RepeatMode
	switch p.RepeatMode() {
	case engine.RepeatOff:
		mode = engine.RepeatOne
	case engine.RepeatOne:
		mode = engine.RepeatAll
	default:
		mode = engine.RepeatOff
	}
	p.SetRepeatMode(mode)
	return mode
}

// SetShuffle sets shuffle mode to an explicit state.
func (r *Remote) SetShuffle(ctx context.Context, enabled bool) error {
	s, err := r.await(ctx)
	if err != nil {
		return err
	}
	return s.Dispatch(ctx, func(p engine.Player) {
		p.SetShuffle(enabled)
	})
}

// SetRepeatMode sets the repeat mode to an explicit state.
func (r *Remote) SetRepeatMode(ctx context.Context, mode engine.RepeatMode) error {
	s, err := r.await(ctx)
	if err != nil {
		return err
	}
	return s.Dispatch(ctx, func(p engine.Player) {
		p.SetRepeatMode(mode)
	})
}

// SetSpeed sets the playback rate multiplier.
func (r *Remote) SetSpeed(ctx context.Context, speed float64) error {
	s, err := r.await(ctx)
	if err != nil {
		return err
	}
	return s.Dispatch(ctx, func(p engine.Player) {
		p.SetPlaybackSpeed(speed)
	})
}
