//go:build linux

package mpris

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"

	"github.com/avernet/cadenza/internal/engine"
	"github.com/avernet/cadenza/internal/remote"
)

// Adapter exposes the controller surface to desktop media keys and
// applets over D-Bus.
type Adapter struct {
	server *server.Server
	cancel context.CancelFunc
}

// New creates and starts a new MPRIS adapter over the given remote.
func New(r *remote.Remote) (*Adapter, error) {
	ctx, cancel := context.WithCancel(context.Background())
	a := &Adapter{cancel: cancel}

	rootAdapter := &rootAdapter{}
	playerAdapter := &playerAdapter{remote: r, ctx: ctx}

	a.server = server.NewServer("cadenza", rootAdapter, playerAdapter)

	go func() {
		_ = a.server.Listen()
	}()

	return a, nil
}

// Close stops the adapter and releases D-Bus resources.
func (a *Adapter) Close() error {
	a.cancel()
	return a.server.Stop()
}

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct{}

func (r *rootAdapter) Raise() error {
	return nil // Not supported
}

func (r *rootAdapter) Quit() error {
	return nil // Not supported - app manages its own lifecycle
}

func (r *rootAdapter) CanQuit() (bool, error) {
	return false, nil
}

func (r *rootAdapter) CanRaise() (bool, error) {
	return false, nil
}

func (r *rootAdapter) HasTrackList() (bool, error) {
	return false, nil // Track list interface not implemented
}

func (r *rootAdapter) Identity() (string, error) {
	return "Cadenza", nil
}

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"file", "http", "https"}, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{"audio/mpeg", "audio/flac", "audio/ogg", "audio/mp4"}, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter and optional
// interfaces.
type playerAdapter struct {
	remote *remote.Remote
	ctx    context.Context
}

func (p *playerAdapter) Next() error {
	p.remote.SkipNext()
	return nil
}

func (p *playerAdapter) Previous() error {
	p.remote.SkipPrev()
	return nil
}

func (p *playerAdapter) Pause() error {
	p.remote.Pause()
	return nil
}

func (p *playerAdapter) PlayPause() error {
	p.remote.TogglePlay()
	return nil
}

func (p *playerAdapter) Stop() error {
	p.remote.Pause()
	p.remote.SetPosition(0)
	return nil
}

func (p *playerAdapter) Play() error {
	p.remote.Play(true)
	return nil
}

func (p *playerAdapter) Seek(offset types.Microseconds) error {
	p.remote.SeekBy(time.Duration(offset) * time.Microsecond)
	return nil
}

func (p *playerAdapter) SetPosition(_ string, position types.Microseconds) error {
	p.remote.SetPosition(time.Duration(position) * time.Microsecond)
	return nil
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(_ string) error {
	return nil // Not supported
}

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	switch {
	case p.remote.IsPlaying():
		return types.PlaybackStatusPlaying, nil
	case p.remote.Current() != nil:
		return types.PlaybackStatusPaused, nil
	}
	return types.PlaybackStatusStopped, nil
}

func (p *playerAdapter) Rate() (float64, error) {
	return p.remote.PlaybackSpeed(), nil
}

func (p *playerAdapter) SetRate(rate float64) error {
	return p.remote.SetSpeed(p.ctx, rate)
}

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	t := p.remote.Current()
	if t == nil {
		return types.Metadata{}, nil
	}

	meta := types.Metadata{
		TrackId: dbus.ObjectPath(formatTrackID(t.URI)),
		Length:  types.Microseconds(t.Duration.Microseconds()),
		Title:   t.Title,
	}
	if t.Subtitle != "" {
		meta.Artist = []string{t.Subtitle}
	}

	switch {
	case t.Artwork != "":
		meta.ArtUrl = t.Artwork
	case !strings.Contains(t.URI, "://"):
		if artPath := FindAlbumArt(t.URI); artPath != "" {
			meta.ArtUrl = "file://" + artPath
		}
	}

	return meta, nil
}

func (p *playerAdapter) Volume() (float64, error) {
	return 1.0, nil // Volume control not exposed
}

func (p *playerAdapter) SetVolume(_ float64) error {
	return nil // Not supported
}

func (p *playerAdapter) Position() (int64, error) {
	return p.remote.Position().Microseconds(), nil
}

func (p *playerAdapter) MinimumRate() (float64, error) {
	return 0.5, nil
}

func (p *playerAdapter) MaximumRate() (float64, error) {
	return 2.0, nil
}

func (p *playerAdapter) CanGoNext() (bool, error) {
	return p.remote.HasNext(), nil
}

func (p *playerAdapter) CanGoPrevious() (bool, error) {
	return p.remote.EffectiveIndex() > 0 || p.remote.RepeatMode() == engine.RepeatAll, nil
}

func (p *playerAdapter) CanPlay() (bool, error) {
	return len(p.remote.Queue()) > 0, nil
}

func (p *playerAdapter) CanPause() (bool, error) {
	return true, nil
}

func (p *playerAdapter) CanSeek() (bool, error) {
	return true, nil
}

func (p *playerAdapter) CanControl() (bool, error) {
	return true, nil
}

// LoopStatus implements OrgMprisMediaPlayer2PlayerAdapterLoopStatus.
func (p *playerAdapter) LoopStatus() (types.LoopStatus, error) {
	switch p.remote.RepeatMode() {
	case engine.RepeatOne:
		return types.LoopStatusTrack, nil
	case engine.RepeatAll:
		return types.LoopStatusPlaylist, nil
	}
	return types.LoopStatusNone, nil
}

// SetLoopStatus implements OrgMprisMediaPlayer2PlayerAdapterLoopStatus.
func (p *playerAdapter) SetLoopStatus(status types.LoopStatus) error {
	switch status {
	case types.LoopStatusNone:
		return p.remote.SetRepeatMode(p.ctx, engine.RepeatOff)
	case types.LoopStatusTrack:
		return p.remote.SetRepeatMode(p.ctx, engine.RepeatOne)
	case types.LoopStatusPlaylist:
		return p.remote.SetRepeatMode(p.ctx, engine.RepeatAll)
	}
	return nil
}

// Shuffle implements OrgMprisMediaPlayer2PlayerAdapterShuffle.
func (p *playerAdapter) Shuffle() (bool, error) {
	return p.remote.Shuffle(), nil
}

// SetShuffle implements OrgMprisMediaPlayer2PlayerAdapterShuffle.
func (p *playerAdapter) SetShuffle(shuffle bool) error {
	return p.remote.SetShuffle(p.ctx, shuffle)
}

func formatTrackID(uri string) string {
	h := fnv.New64a()
	h.Write([]byte(uri))
	return fmt.Sprintf("/org/mpris/MediaPlayer2/Track/%x", h.Sum64())
}
