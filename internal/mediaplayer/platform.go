// Package mediaplayer is the media_player platform: one polled MPD
// connection per loaded entry, exposed as live PlayerState snapshots.
package mediaplayer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"mpdhub/internal/integration"
	"mpdhub/internal/metrics"
	"mpdhub/internal/models"
	"mpdhub/internal/mpd"
)

var (
	ErrNotLoaded     = fmt.Errorf("media player %w", integration.ErrNotLoaded)
	ErrAlreadyLoaded = errors.New("media player already loaded")
)

const DefaultInterval = 5 * time.Second

type Option func(*Platform)

func WithInterval(d time.Duration) Option {
	return func(p *Platform) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithBackOff sets the reconnect policy used after a connection is lost.
func WithBackOff(fn func() backoff.BackOff) Option {
	return func(p *Platform) { p.newBackOff = fn }
}

type Platform struct {
	newClient  mpd.NewClientFunc
	interval   time.Duration
	newBackOff func() backoff.BackOff

	mu      sync.RWMutex
	players map[string]*player

	subMu       sync.Mutex
	subscribers map[chan models.PlayerState]struct{}
}

type player struct {
	entry  models.Entry
	cancel context.CancelFunc
	done   chan struct{}

	mu    sync.RWMutex
	state models.PlayerState
}

func New(newClient mpd.NewClientFunc, opts ...Option) *Platform {
	p := &Platform{
		newClient:   newClient,
		interval:    DefaultInterval,
		newBackOff:  defaultBackOff,
		players:     make(map[string]*player),
		subscribers: make(map[chan models.PlayerState]struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = time.Minute
	b.MaxElapsedTime = 0
	return b
}

// SetupEntry starts polling the entry's server. The player lives until
// UnloadEntry is called or ctx is canceled.
func (p *Platform) SetupEntry(ctx context.Context, entry models.Entry) error {
	p.mu.Lock()
	if _, exists := p.players[entry.ID]; exists {
		p.mu.Unlock()
		return fmt.Errorf("entry %s: %w", entry.ID, ErrAlreadyLoaded)
	}
	pctx, cancel := context.WithCancel(ctx)
	pl := &player{
		entry:  entry,
		cancel: cancel,
		done:   make(chan struct{}),
		state: models.PlayerState{
			EntryID:   entry.ID,
			Name:      entry.Title,
			State:     models.PlaybackUnavailable,
			UpdatedAt: time.Now().UTC(),
		},
	}
	p.players[entry.ID] = pl
	metrics.PlayersLoaded.Set(float64(len(p.players)))
	p.mu.Unlock()

	go p.run(pctx, pl)
	slog.Info("media player loaded", "entry_id", entry.ID, "name", entry.Title, "addr", entry.Data.Addr())
	return nil
}

// UnloadEntry stops the entry's player and waits for its connection to close.
// The player stays registered until it has stopped, so a call that gives up
// on ctx can be retried.
func (p *Platform) UnloadEntry(ctx context.Context, entry models.Entry) error {
	p.mu.RLock()
	pl, ok := p.players[entry.ID]
	p.mu.RUnlock()
	if !ok {
		return fmt.Errorf("entry %s: %w", entry.ID, ErrNotLoaded)
	}

	pl.cancel()
	select {
	case <-pl.done:
	case <-ctx.Done():
		return fmt.Errorf("waiting for player %s to stop: %w", entry.ID, ctx.Err())
	}

	p.mu.Lock()
	if p.players[entry.ID] == pl {
		delete(p.players, entry.ID)
		metrics.PlayersLoaded.Set(float64(len(p.players)))
	}
	p.mu.Unlock()
	slog.Info("media player unloaded", "entry_id", entry.ID, "name", entry.Title)
	return nil
}

// Players returns a snapshot of every loaded player ordered by name.
func (p *Platform) Players() []models.PlayerState {
	p.mu.RLock()
	out := make([]models.PlayerState, 0, len(p.players))
	for _, pl := range p.players {
		out = append(out, pl.snapshot())
	}
	p.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].EntryID < out[j].EntryID
	})
	return out
}

func (p *Platform) Player(entryID string) (models.PlayerState, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	pl, ok := p.players[entryID]
	if !ok {
		return models.PlayerState{}, false
	}
	return pl.snapshot(), true
}

// Subscribe returns a channel receiving every player state change. Slow
// subscribers miss updates rather than block polling.
func (p *Platform) Subscribe() chan models.PlayerState {
	ch := make(chan models.PlayerState, 16)
	p.subMu.Lock()
	p.subscribers[ch] = struct{}{}
	p.subMu.Unlock()
	return ch
}

func (p *Platform) Unsubscribe(ch chan models.PlayerState) {
	p.subMu.Lock()
	_, exists := p.subscribers[ch]
	delete(p.subscribers, ch)
	p.subMu.Unlock()
	if exists {
		close(ch)
	}
}

func (p *Platform) publish(st models.PlayerState) {
	p.subMu.Lock()
	defer p.subMu.Unlock()
	for ch := range p.subscribers {
		select {
		case ch <- st:
		default:
		}
	}
}

func (pl *player) snapshot() models.PlayerState {
	pl.mu.RLock()
	defer pl.mu.RUnlock()
	return pl.state
}

func (p *Platform) update(pl *player, next models.PlayerState) {
	next.EntryID = pl.entry.ID
	next.Name = pl.entry.Title
	next.UpdatedAt = time.Now().UTC()

	pl.mu.Lock()
	prev := pl.state
	pl.state = next
	pl.mu.Unlock()

	prev.UpdatedAt = next.UpdatedAt
	if !statesEqual(prev, next) {
		p.publish(next)
	}
}

func statesEqual(a, b models.PlayerState) bool {
	if (a.Song == nil) != (b.Song == nil) {
		return false
	}
	if a.Song != nil && *a.Song != *b.Song {
		return false
	}
	a.Song, b.Song = nil, nil
	return a == b
}
