package queue

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/avernet/cadenza/internal/engine"
	"github.com/avernet/cadenza/internal/store"
	"github.com/avernet/cadenza/internal/track"
)

func setupEngine(t *testing.T, cfg Config) (*Engine, *engine.ListPlayer, *store.Store) {
	t.Helper()
	s, err := store.OpenPath(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	p := engine.NewListPlayer()
	e := New(p, s, cfg)
	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("start engine: %v", err)
	}
	t.Cleanup(e.Close)
	return e, p, s
}

// waitFor polls until cond holds, failing the test after a timeout.
// Persistence writes are asynchronous, so tests observe them this way.
func waitFor(t *testing.T, msg string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

func tracks(uris ...string) []track.Track {
	ts := make([]track.Track, len(uris))
	for i, u := range uris {
		ts[i] = track.Track{URI: u, Title: u}
	}
	return ts
}

func TestEngineMirrorsQueue(t *testing.T) {
	e, p, s := setupEngine(t, Config{})
	p.SetItems(tracks("/a.mp3", "/b.mp3", "/c.mp3"))

	waitFor(t, "queue mirror", func() bool {
		n, _ := s.CountMembers(e.queueID)
		return n == 3
	})

	members, err := s.Members(e.queueID)
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range []string{"/a.mp3", "/b.mp3", "/c.mp3"} {
		if members[i].URI != want {
			t.Errorf("member %d = %q, want %q", i, members[i].URI, want)
		}
	}
}

func TestEnginePersistsSessionState(t *testing.T) {
	_, p, s := setupEngine(t, Config{})
	p.SetItems(tracks("/a.mp3", "/b.mp3"))
	p.SetRepeatMode(engine.RepeatAll)
	p.SetShuffle(true)
	p.Next()

	waitFor(t, "session state", func() bool {
		return s.GetBool(prefShuffle, false) &&
			s.GetInt(prefRepeat, -1) == int(engine.RepeatAll) &&
			s.GetInt(prefIndex, -1) == p.CurrentIndex()
	})

	orders := s.GetIntSlice(prefOrders)
	if len(orders) != 2 {
		t.Fatalf("saved order has %d entries, want 2", len(orders))
	}
}

func TestEngineRestore(t *testing.T) {
	s, err := store.OpenPath(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })

	// First session: build up state, then shut down.
	p1 := engine.NewListPlayer()
	e1 := New(p1, s, Config{})
	if err := e1.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	p1.SetItems(tracks("/a.mp3", "/b.mp3", "/c.mp3"))
	p1.SetRepeatMode(engine.RepeatOne)
	p1.Seek(1, 30*time.Second)
	waitFor(t, "first session persisted", func() bool {
		return s.GetInt(prefIndex, -1) == 1
	})
	e1.Close()
	if err := s.SetInt64(prefBookmark, (30 * time.Second).Milliseconds()); err != nil {
		t.Fatal(err)
	}

	// Second session restores it.
	p2 := engine.NewListPlayer()
	e2 := New(p2, s, Config{})
	if err := e2.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(e2.Close)

	if p2.Len() != 3 {
		t.Fatalf("restored %d items, want 3", p2.Len())
	}
	if p2.CurrentIndex() != 1 {
		t.Errorf("restored index = %d, want 1", p2.CurrentIndex())
	}
	if p2.RepeatMode() != engine.RepeatOne {
		t.Errorf("restored repeat = %v, want RepeatOne", p2.RepeatMode())
	}
	if p2.Position() != 30*time.Second {
		t.Errorf("restored position = %v, want 30s", p2.Position())
	}
}

func TestEngineRestoreShuffleOrder(t *testing.T) {
	s, err := store.OpenPath(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })

	p1 := engine.NewListPlayer()
	e1 := New(p1, s, Config{})
	if err := e1.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	p1.SetItems(tracks("/a.mp3", "/b.mp3", "/c.mp3"))
	p1.SetShuffle(true)
	want := []int{2, 0, 1}
	if o, ok := engine.OrderFromInts(want, 3); ok {
		p1.SetShuffleOrder(o)
	} else {
		t.Fatal("bad fixture order")
	}
	waitFor(t, "order persisted", func() bool {
		got := s.GetIntSlice(prefOrders)
		return len(got) == 3 && got[0] == 2 && got[1] == 0 && got[2] == 1
	})
	e1.Close()

	p2 := engine.NewListPlayer()
	e2 := New(p2, s, Config{})
	if err := e2.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(e2.Close)

	if !p2.Shuffle() {
		t.Fatal("shuffle not restored")
	}
	got := p2.ShuffleOrder().Ints()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("restored order = %v, want %v", got, want)
		}
	}
}

func TestEngineRestoreStaleOrderDisablesShuffle(t *testing.T) {
	s, err := store.OpenPath(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })

	id, err := s.GetOrCreatePlaylist(store.DefaultNames().Queue)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.ReplaceMembers(id, tracks("/a.mp3", "/b.mp3")); err != nil {
		t.Fatal(err)
	}
	if err := s.SetBool(prefShuffle, true); err != nil {
		t.Fatal(err)
	}
	// Permutation length does not match the saved queue.
	if err := s.SetIntSlice(prefOrders, []int{2, 0, 1}); err != nil {
		t.Fatal(err)
	}

	p := engine.NewListPlayer()
	e := New(p, s, Config{})
	if err := e.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(e.Close)

	if p.Shuffle() {
		t.Error("shuffle should degrade to disabled on a stale order")
	}
	if p.Len() != 2 {
		t.Errorf("queue length = %d, want 2", p.Len())
	}
}

func TestEngineRestoreDropsTransientCurrent(t *testing.T) {
	s, err := store.OpenPath(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })

	id, err := s.GetOrCreatePlaylist(store.DefaultNames().Queue)
	if err != nil {
		t.Fatal(err)
	}
	items := tracks("/a.mp3")
	items = append(items, track.Track{URI: "https://radio.example/stream", Title: "stream"})
	items = append(items, tracks("/c.mp3")...)
	if err := s.ReplaceMembers(id, items); err != nil {
		t.Fatal(err)
	}
	if err := s.SetInt(prefIndex, 1); err != nil {
		t.Fatal(err)
	}
	if err := s.SetInt64(prefBookmark, 90000); err != nil {
		t.Fatal(err)
	}

	p := engine.NewListPlayer()
	e := New(p, s, Config{})
	if err := e.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(e.Close)

	if p.Len() != 2 {
		t.Fatalf("queue length = %d, want 2", p.Len())
	}
	for _, it := range p.Items() {
		if it.Transient() {
			t.Errorf("transient item %q survived restore as current", it.URI)
		}
	}
	if p.Position() != 0 {
		t.Errorf("bookmark %v applied to a replacement item", p.Position())
	}
}

func TestEngineRestoreClampsIndex(t *testing.T) {
	s, err := store.OpenPath(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })

	id, err := s.GetOrCreatePlaylist(store.DefaultNames().Queue)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.ReplaceMembers(id, tracks("/a.mp3", "/b.mp3")); err != nil {
		t.Fatal(err)
	}
	if err := s.SetInt(prefIndex, 7); err != nil {
		t.Fatal(err)
	}

	p := engine.NewListPlayer()
	e := New(p, s, Config{})
	if err := e.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(e.Close)

	if got := p.CurrentIndex(); got != 0 {
		t.Errorf("current index = %d, want 0 for an out-of-range saved index", got)
	}
}

func TestEngineRecentPromotion(t *testing.T) {
	e, p, _ := setupEngine(t, Config{})
	p.SetItems(tracks("/a.mp3", "/b.mp3"))
	p.Next()
	p.Previous()

	waitFor(t, "recent promotion", func() bool {
		r, _ := e.Recent()
		return len(r) == 2 && r[0].URI == "/a.mp3" && r[1].URI == "/b.mp3"
	})
}

func TestEngineRecentEviction(t *testing.T) {
	e, p, _ := setupEngine(t, Config{RecentLimit: 3})

	uris := make([]string, 5)
	for i := range uris {
		uris[i] = fmt.Sprintf("/t%d.mp3", i)
	}
	p.SetItems(tracks(uris...))
	for i := 0; i < 4; i++ {
		p.Next()
	}

	waitFor(t, "recent eviction", func() bool {
		r, _ := e.Recent()
		return len(r) == 3 && r[0].URI == "/t4.mp3" && r[2].URI == "/t2.mp3"
	})
}

func TestEngineRecentSkipsTransient(t *testing.T) {
	e, p, _ := setupEngine(t, Config{})
	items := tracks("/a.mp3")
	items = append(items, track.Track{URI: "https://radio.example/stream", Title: "stream"})
	p.SetItems(items)
	p.Next()
	p.Previous()

	waitFor(t, "recent list", func() bool {
		r, _ := e.Recent()
		return len(r) == 1 && r[0].URI == "/a.mp3"
	})
}

func TestEngineSubscribeCoalesces(t *testing.T) {
	e, p, _ := setupEngine(t, Config{})
	ch := e.Subscribe()

	p.SetItems(tracks("/a.mp3", "/b.mp3"))
	p.SetShuffle(true)
	p.Next()

	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("no queue-changed signal")
	}

	e.Close()
	select {
	case _, ok := <-ch:
		if ok {
			// A coalesced signal may still be buffered; the next
			// receive must observe the close.
			if _, ok := <-ch; ok {
				t.Fatal("subscription channel not closed on shutdown")
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("subscription channel not closed on shutdown")
	}
}

func TestEngineCloseFlushesFinalState(t *testing.T) {
	e, p, s := setupEngine(t, Config{})
	p.SetItems(tracks("/a.mp3", "/b.mp3"))
	p.SetRepeatMode(engine.RepeatAll)

	// No waiting: Close itself must leave the mirror current even when
	// the mutation happened immediately before shutdown.
	e.Close()

	n, err := s.CountMembers(e.queueID)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("mirror holds %d members after close, want 2", n)
	}
	if got := s.GetInt(prefIndex, -1); got != 0 {
		t.Errorf("saved index = %d, want 0", got)
	}
	if got := s.GetInt(prefRepeat, -1); got != int(engine.RepeatAll) {
		t.Errorf("saved repeat = %d, want %d", got, int(engine.RepeatAll))
	}
}

func TestEngineCloseFlushesAfterBurst(t *testing.T) {
	e, p, s := setupEngine(t, Config{})
	for i := 0; i < 500; i++ {
		p.SetItems(tracks(fmt.Sprintf("/t%d.mp3", i)))
	}
	e.Close()

	members, err := s.Members(e.queueID)
	if err != nil {
		t.Fatal(err)
	}
	if len(members) != 1 || members[0].URI != "/t499.mp3" {
		t.Fatalf("mirror after burst = %v, want the final single track", members)
	}
}

func TestEnginePlayerErrorAdvances(t *testing.T) {
	_, p, _ := setupEngine(t, Config{})
	p.SetItems(tracks("/a.mp3", "/b.mp3"))
	p.ReportError(fmt.Errorf("decoder choked"))

	waitFor(t, "auto-advance past error", func() bool {
		return p.CurrentIndex() == 1
	})
}

func TestEnginePositionSaver(t *testing.T) {
	_, p, s := setupEngine(t, Config{SaveInterval: 20 * time.Millisecond})
	p.SetItems(tracks("/a.mp3"))
	p.Seek(0, 10*time.Second)
	p.Play(true)

	waitFor(t, "periodic bookmark", func() bool {
		return s.GetInt64(prefBookmark, 0) >= (10 * time.Second).Milliseconds()
	})

	p.Pause()
	waitFor(t, "pause bookmark", func() bool {
		return s.GetInt64(prefBookmark, 0) >= (10 * time.Second).Milliseconds()
	})
}
