package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/avernet/cadenza/internal/catalog"
	"github.com/avernet/cadenza/internal/config"
	"github.com/avernet/cadenza/internal/engine"
	"github.com/avernet/cadenza/internal/errmsg"
	"github.com/avernet/cadenza/internal/mpris"
	"github.com/avernet/cadenza/internal/notify"
	"github.com/avernet/cadenza/internal/queue"
	"github.com/avernet/cadenza/internal/remote"
	"github.com/avernet/cadenza/internal/session"
	"github.com/avernet/cadenza/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("%s", errmsg.Format(errmsg.OpInitialize, err))
	}
	qcfg := cfg.GetQueueConfig()

	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("%s", errmsg.Format(errmsg.OpOpenState, err))
	}
	defer st.Close()

	notifier, err := notify.New()
	if err != nil {
		slog.Warn("desktop notifications unavailable", "error", err)
		notifier = nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess := session.New(ctx, st, session.Options{
		Queue: queue.Config{
			Names: store.Names{
				Queue:     qcfg.QueueName,
				Recent:    qcfg.RecentName,
				Favourite: qcfg.FavouriteName,
			},
			RecentLimit:  qcfg.RecentLimit,
			SaveInterval: qcfg.SaveInterval(),
		},
		OnPlaybackError: func(title string, err error) {
			slog.Error("playback failed", "item", title, "error", err)
			if cfg.NotificationsEnabled() {
				notify.PlaybackFailure(notifier, title, err)
			}
		},
	})
	defer sess.Close()

	select {
	case <-sess.Ready():
	case <-ctx.Done():
		return nil
	}
	if err := sess.Err(); err != nil {
		return fmt.Errorf("%s", errmsg.Format(errmsg.OpQueueRestore, err))
	}

	rem := remote.New(func(ctx context.Context) (*session.Session, error) {
		return sess, nil
	})
	defer rem.Close()

	adapter, err := mpris.New(rem)
	if err != nil {
		slog.Warn("media controls unavailable", "error", err)
	} else {
		defer adapter.Close()
	}

	if cfg.NowPlayingEnabled() {
		go watchTransitions(sess, notifier)
	}

	// Paths on the command line replace the restored queue; otherwise
	// configured library sources fill an empty queue.
	if args := os.Args[1:]; len(args) > 0 {
		tracks := catalog.ScanSources(args)
		if len(tracks) == 0 {
			slog.Warn("no playable files in arguments")
		} else if _, err := rem.Set(ctx, tracks); err != nil {
			return fmt.Errorf("%s", errmsg.Format(errmsg.OpQueueAdd, err))
		} else {
			rem.Play(true)
		}
	} else if sess.Player().Len() == 0 && len(cfg.LibrarySources) > 0 {
		tracks := catalog.ScanSources(cfg.LibrarySources)
		if _, err := rem.Set(ctx, tracks); err != nil {
			slog.Warn(errmsg.Format(errmsg.OpQueueAdd, err))
		}
	}

	slog.Info("ready", "queued", sess.Player().Len())
	<-ctx.Done()
	slog.Info("shutting down")
	return nil
}

func openStore(cfg *config.Config) (*store.Store, error) {
	if cfg.DataDir != "" {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, err
		}
		return store.OpenPath(filepath.Join(cfg.DataDir, "cadenza.db"))
	}
	return store.Open()
}

func watchTransitions(sess *session.Session, notifier notify.Notifier) {
	sub := sess.Player().Subscribe()
	var lastID uint32
	for {
		select {
		case <-sub.Done:
			return
		case ev := <-sub.Events:
			if t, ok := ev.(engine.ItemTransition); ok && t.Item != nil {
				lastID = notify.NowPlaying(notifier, *t.Item, lastID)
			}
		}
	}
}
