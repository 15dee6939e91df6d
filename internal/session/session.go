// Package session hosts the playback engine and the queue engine behind
// a single mutation owner. All queue mutations are funneled through one
// dispatch goroutine, so callers never race each other on the live list;
// reads go straight to the player's own accessors.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/avernet/cadenza/internal/engine"
	"github.com/avernet/cadenza/internal/queue"
	"github.com/avernet/cadenza/internal/store"
	"github.com/avernet/cadenza/internal/track"
)

// ErrClosed is returned for dispatches against a shut-down session.
var ErrClosed = errors.New("session: closed")

type command struct {
	fn   func(p engine.Player)
	done chan struct{}
}

// Session ties the player and the queue engine together. It starts
// asynchronously: construction is cheap, and the restore of persisted
// state runs in the background. Dispatches issued before the session is
// ready queue up and run after the restore completes.
type Session struct {
	player *engine.ListPlayer
	queue  *queue.Engine

	cmds   chan command
	ready  chan struct{}
	done   chan struct{}
	failed error
}

// Options configures session construction.
type Options struct {
	Queue queue.Config

	// OnPlaybackError surfaces an unplayable item to the user.
	OnPlaybackError func(title string, err error)
}

// New builds a session over the given store and begins restoring state
// in the background.
func New(ctx context.Context, s *store.Store, opts Options) *Session {
	player := engine.NewListPlayer()
	eng := queue.New(player, s, opts.Queue)
	if opts.OnPlaybackError != nil {
		cb := opts.OnPlaybackError
		eng.OnPlaybackError = func(t *track.Track, err error) {
			title := "unknown item"
			if t != nil {
				title = t.Title
			}
			cb(title, err)
		}
	}

	sess := &Session{
		player: player,
		queue:  eng,
		cmds:   make(chan command, 32),
		ready:  make(chan struct{}),
		done:   make(chan struct{}),
	}
	go sess.run(ctx)
	return sess
}

func (s *Session) run(ctx context.Context) {
	if err := s.queue.Start(ctx); err != nil {
		s.failed = err
	}
	close(s.ready)

	for {
		select {
		case <-s.done:
			return
		case cmd := <-s.cmds:
			cmd.fn(s.player)
			close(cmd.done)
		}
	}
}

// Ready returns a channel closed once restore has finished and the
// session accepts dispatches.
func (s *Session) Ready() <-chan struct{} {
	return s.ready
}

// Err reports a startup failure, valid after Ready closes.
func (s *Session) Err() error {
	return s.failed
}

// Dispatch runs fn on the session's mutation goroutine and waits for it
// to complete. fn must not call Dispatch itself.
func (s *Session) Dispatch(ctx context.Context, fn func(p engine.Player)) error {
	cmd := command{fn: fn, done: make(chan struct{})}
	select {
	case s.cmds <- cmd:
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-cmd.done:
		return nil
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Player exposes the playback engine for lock-protected reads. Mutations
// belong in Dispatch.
func (s *Session) Player() engine.Player {
	return s.player
}

// Queue exposes the queue engine for recents, favourites, and
// queue-changed subscriptions.
func (s *Session) Queue() *queue.Engine {
	return s.queue
}

// Close shuts the session down: the dispatch loop stops, the queue
// engine flushes its pending writes, and the player's subscriptions
// close.
func (s *Session) Close() {
	select {
	case <-s.done:
		return
	default:
	}
	close(s.done)

	// Give restore a moment to finish so the engine teardown below sees
	// a started engine rather than racing its startup.
	select {
	case <-s.ready:
	case <-time.After(5 * time.Second):
	}

	s.queue.Close()
	s.player.Close()
}
