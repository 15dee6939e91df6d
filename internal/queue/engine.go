// Package queue implements the queue engine: it consumes the playback
// engine's event stream on a single goroutine, mirrors queue membership
// and session state into the durable store, maintains the recent-items
// list, and notifies subscribers when the browsable queue changes.
package queue

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/avernet/cadenza/internal/engine"
	"github.com/avernet/cadenza/internal/store"
	"github.com/avernet/cadenza/internal/track"
)

// Persisted session state keys.
const (
	prefShuffle  = "shuffle"
	prefRepeat   = "repeat_mode"
	prefIndex    = "index"
	prefBookmark = "bookmark"
	prefOrders   = "orders"
)

const (
	defaultRecentLimit  = 200
	defaultSaveInterval = 5 * time.Second
)

// Config carries the engine's tunables and reserved playlist names.
// Passing it at construction keeps the constants out of package globals.
type Config struct {
	Names        store.Names
	RecentLimit  int
	SaveInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.Names == (store.Names{}) {
		c.Names = store.DefaultNames()
	}
	if c.RecentLimit <= 0 {
		c.RecentLimit = defaultRecentLimit
	}
	if c.SaveInterval <= 0 {
		c.SaveInterval = defaultSaveInterval
	}
	return c
}

// Engine owns queue persistence and recency. All event handling runs on
// one goroutine; persistence writes are issued in event order through a
// single-consumer write queue and never block or fail the in-memory
// transition.
type Engine struct {
	player engine.Player
	store  *store.Store
	cfg    Config
	log    *slog.Logger

	queueID  int64
	recentID int64

	sub    *engine.Subscription
	writes chan func() error
	done   chan struct{}
	wg     sync.WaitGroup

	// OnPlaybackError, when set, surfaces an unplayable item to the
	// user. The engine advances past the item either way.
	OnPlaybackError func(t *track.Track, err error)

	saverMu     sync.Mutex
	saverCancel context.CancelFunc

	subsMu  sync.Mutex
	updates []chan struct{}
	closed  bool
}

// New creates an engine over the given player and store.
func New(p engine.Player, s *store.Store, cfg Config) *Engine {
	return &Engine{
		player: p,
		store:  s,
		cfg:    cfg.withDefaults(),
		log:    slog.Default().With("component", "queue"),
		writes: make(chan func() error, 128),
		done:   make(chan struct{}),
	}
}

// Start restores persisted state into the player and begins consuming
// its events. The subscription is attached after restore so the restore
// itself persists nothing.
func (e *Engine) Start(ctx context.Context) error {
	var err error
	if e.queueID, err = e.store.GetOrCreatePlaylist(e.cfg.Names.Queue); err != nil {
		return err
	}
	if e.recentID, err = e.store.GetOrCreatePlaylist(e.cfg.Names.Recent); err != nil {
		return err
	}

	if err := e.restore(ctx); err != nil {
		// Restore failures fall back to an empty queue, never upward.
		e.log.Warn("restore failed, starting empty", "error", err)
		e.player.Clear()
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	e.sub = e.player.Subscribe()
	e.wg.Add(2)
	go e.writeLoop()
	go e.run()
	return nil
}

// Close stops the event loop, the position saver and the write queue.
// Buffered events and pending writes are drained, then one final full
// snapshot is written synchronously so the mirror cannot diverge from
// the in-memory state at exit.
func (e *Engine) Close() {
	e.subsMu.Lock()
	if e.closed {
		e.subsMu.Unlock()
		return
	}
	e.closed = true
	e.subsMu.Unlock()

	e.stopSaver()
	close(e.done)
	e.wg.Wait()

	// Skip the snapshot when startup never subscribed: flushing an
	// engine that never loaded state would wipe the stored queue.
	if e.sub != nil {
		if err := e.stateWriter()(); err != nil {
			e.log.Warn("final state save failed", "error", err)
		}
	}

	e.subsMu.Lock()
	for _, ch := range e.updates {
		close(ch)
	}
	e.updates = nil
	e.subsMu.Unlock()
}

// Subscribe returns a channel that signals whenever the browsable queue
// changes (membership, order, shuffle, or the current item). Signals
// coalesce; the channel closes on engine shutdown.
func (e *Engine) Subscribe() <-chan struct{} {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	ch := make(chan struct{}, 1)
	e.updates = append(e.updates, ch)
	return ch
}

func (e *Engine) notifyChanged() {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	for _, ch := range e.updates {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// restore rebuilds the loaded state from the persisted session record
// and the durable queue mirror.
func (e *Engine) restore(ctx context.Context) error {
	members, err := e.store.Members(e.queueID)
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	shuffle := e.store.GetBool(prefShuffle, false)
	repeat := engine.RepeatMode(e.store.GetInt(prefRepeat, int(engine.RepeatOff)))
	if repeat < engine.RepeatOff || repeat > engine.RepeatAll {
		repeat = engine.RepeatOff
	}

	e.player.SetRepeatMode(repeat)
	e.player.SetShuffle(shuffle)
	e.player.SetItems(members)

	// A mismatched or corrupt permutation means the saved order no
	// longer describes this queue; shuffle degrades to disabled.
	if shuffle {
		saved := e.store.GetIntSlice(prefOrders)
		if o, ok := engine.OrderFromInts(saved, e.player.Len()); ok {
			e.player.SetShuffleOrder(o)
		} else {
			e.player.SetShuffle(false)
		}
	}

	index := e.store.GetInt(prefIndex, engine.IndexUnset)
	if index < 0 || index >= e.player.Len() {
		return nil
	}

	items := e.player.Items()
	if items[index].Transient() {
		// A third-party reference cannot be assumed playable after a
		// restart; dropping it keeps the queue able to advance.
		e.player.Remove(index)
		return nil
	}

	bookmark := time.Duration(e.store.GetInt64(prefBookmark, 0)) * time.Millisecond
	e.player.Seek(index, bookmark)
	return nil
}

func (e *Engine) run() {
	defer e.wg.Done()
	for {
		select {
		case <-e.done:
			e.drainEvents()
			return
		case <-e.sub.Done:
			e.drainEvents()
			return
		case ev := <-e.sub.Events:
			e.handle(ev)
			if e.sub.Overflowed() {
				// Events were dropped under load; the stream can no
				// longer be trusted, so re-persist the whole state.
				e.persist("resync state", e.stateWriter())
				e.notifyChanged()
			}
		}
	}
}

// drainEvents handles whatever the subscription buffered before
// shutdown so a mutation made just before Close still reaches the
// store.
func (e *Engine) drainEvents() {
	for {
		select {
		case ev := <-e.sub.Events:
			e.handle(ev)
		default:
			return
		}
	}
}

func (e *Engine) handle(ev engine.Event) {
	switch ev := ev.(type) {
	case engine.ItemTransition:
		index := ev.Index
		e.persist("save index", func() error {
			return e.store.SetInt(prefIndex, index)
		})
		if ev.Item != nil && !ev.Item.Transient() {
			item := *ev.Item
			e.persist("save recent", func() error {
				return e.upsertRecent(item)
			})
			e.notifyChanged()
		}

	case engine.ShuffleChanged:
		enabled := ev.Enabled
		// Toggling on may have generated a fresh permutation; snapshot
		// it alongside the flag so both restore together.
		var orders []int
		if o := e.player.ShuffleOrder(); o != nil {
			orders = o.Ints()
		}
		e.persist("save shuffle", func() error {
			if err := e.store.SetBool(prefShuffle, enabled); err != nil {
				return err
			}
			return e.store.SetIntSlice(prefOrders, orders)
		})
		e.notifyChanged()

	case engine.RepeatChanged:
		mode := int(ev.Mode)
		e.persist("save repeat mode", func() error {
			return e.store.SetInt(prefRepeat, mode)
		})

	case engine.TimelineChanged:
		if ev.Reason != engine.ReasonPlaylistChanged {
			return
		}
		// Full snapshot per write: delete-all plus re-insert, so a
		// late-completing older write can never leave a partial mix.
		items := e.player.Items()
		var orders []int
		if o := e.player.ShuffleOrder(); o != nil {
			orders = o.Ints()
		}
		e.persist("mirror queue", func() error {
			return e.store.ReplaceMembers(e.queueID, items)
		})
		e.persist("save shuffle order", func() error {
			return e.store.SetIntSlice(prefOrders, orders)
		})
		e.notifyChanged()

	case engine.PlayStateChanged:
		if ev.Playing {
			e.startSaver()
		} else {
			e.stopSaver()
			e.saveBookmark()
		}

	case engine.PlayerError:
		if e.OnPlaybackError != nil {
			e.OnPlaybackError(ev.Item, ev.Err)
		}
		// Keep the queue moving rather than halting on a bad item.
		e.player.Next()
	}
}

// stateWriter snapshots the whole session state and returns a write
// that persists it: queue members, shuffle order, modes, and position.
func (e *Engine) stateWriter() func() error {
	items := e.player.Items()
	var orders []int
	if o := e.player.ShuffleOrder(); o != nil {
		orders = o.Ints()
	}
	shuffle := e.player.Shuffle()
	repeat := int(e.player.RepeatMode())
	index := e.player.CurrentIndex()
	pos := e.player.Position().Milliseconds()

	return func() error {
		if err := e.store.ReplaceMembers(e.queueID, items); err != nil {
			return err
		}
		if err := e.store.SetIntSlice(prefOrders, orders); err != nil {
			return err
		}
		if err := e.store.SetBool(prefShuffle, shuffle); err != nil {
			return err
		}
		if err := e.store.SetInt(prefRepeat, repeat); err != nil {
			return err
		}
		if err := e.store.SetInt(prefIndex, index); err != nil {
			return err
		}
		return e.store.SetInt64(prefBookmark, pos)
	}
}

// persist enqueues a write. The write loop runs them in submission
// order; a failed write is logged and the in-memory state stays
// authoritative until the next successful one.
func (e *Engine) persist(op string, fn func() error) {
	wrapped := func() error {
		if err := fn(); err != nil {
			e.log.Warn("persistence write failed", "op", op, "error", err)
		}
		return nil
	}
	// Prefer enqueueing even during shutdown; the write loop drains the
	// buffer before exiting.
	select {
	case e.writes <- wrapped:
		return
	default:
	}
	select {
	case e.writes <- wrapped:
	case <-e.done:
	}
}

func (e *Engine) writeLoop() {
	defer e.wg.Done()
	for {
		select {
		case fn := <-e.writes:
			_ = fn()
		case <-e.done:
			// Drain whatever was queued before shutdown.
			for {
				select {
				case fn := <-e.writes:
					_ = fn()
				default:
					return
				}
			}
		}
	}
}

// startSaver begins the periodic position save, replacing any running
// saver so two can never race on the bookmark key.
func (e *Engine) startSaver() {
	e.saverMu.Lock()
	defer e.saverMu.Unlock()
	if e.saverCancel != nil {
		e.saverCancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.saverCancel = cancel

	go func() {
		ticker := time.NewTicker(e.cfg.SaveInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-e.done:
				return
			case <-ticker.C:
				if e.player.IsPlaying() {
					e.saveBookmark()
				}
			}
		}
	}()
}

func (e *Engine) stopSaver() {
	e.saverMu.Lock()
	defer e.saverMu.Unlock()
	if e.saverCancel != nil {
		e.saverCancel()
		e.saverCancel = nil
	}
}

func (e *Engine) saveBookmark() {
	pos := e.player.Position().Milliseconds()
	index := e.player.CurrentIndex()
	e.persist("save bookmark", func() error {
		if err := e.store.SetInt64(prefBookmark, pos); err != nil {
			return err
		}
		return e.store.SetInt(prefIndex, index)
	})
}

// Recent returns the recent-items list, newest first.
func (e *Engine) Recent() ([]track.Track, error) {
	return e.store.MembersByRecency(e.recentID)
}

// ToggleFavourite flips the favourite status of a track.
func (e *Engine) ToggleFavourite(t track.Track) (bool, error) {
	return e.store.ToggleFavourite(e.cfg.Names, t)
}

// IsFavourite reports whether the track is a favourite.
func (e *Engine) IsFavourite(uri string) (bool, error) {
	return e.store.IsFavourite(e.cfg.Names, uri)
}
