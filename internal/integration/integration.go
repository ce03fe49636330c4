// Package integration is the lifecycle adapter for MPD entries. It records
// per-entry state in the hub and forwards setup and unload to the
// registered platforms.
package integration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"mpdhub/internal/hub"
	"mpdhub/internal/models"
)

// PlatformMediaPlayer is the only platform entries are forwarded to.
const PlatformMediaPlayer = "media_player"

// Platforms lists the platform names this integration forwards to.
var Platforms = []string{PlatformMediaPlayer}

// ErrNotLoaded is returned by a platform asked to unload an entry it does
// not hold. Unload treats it as already done.
var ErrNotLoaded = errors.New("not loaded")

type Integration struct {
	registry *Registry

	mu     sync.Mutex
	setups map[string]*setupRun
}

// setupRun closes done once every platform setup task scheduled for an
// entry has returned.
type setupRun struct {
	done    chan struct{}
	pending atomic.Int32
}

func newSetupRun(n int) *setupRun {
	r := &setupRun{done: make(chan struct{})}
	r.pending.Store(int32(n))
	if n == 0 {
		close(r.done)
	}
	return r
}

func (r *setupRun) finish() {
	if r.pending.Add(-1) == 0 {
		close(r.done)
	}
}

// New returns an integration forwarding to the platforms in registry. Every
// name in Platforms must be registered.
func New(registry *Registry) (*Integration, error) {
	for _, name := range Platforms {
		if _, ok := registry.Get(name); !ok {
			return nil, fmt.Errorf("platform %q not registered", name)
		}
	}
	return &Integration{registry: registry, setups: make(map[string]*setupRun)}, nil
}

// Setup makes sure the integration namespace exists. It always succeeds.
func (i *Integration) Setup(h *hub.Hub) bool {
	h.EnsureNamespace(models.Domain)
	return true
}

// SetupEntry records an empty state for entry and schedules platform setup
// without waiting for it.
func (i *Integration) SetupEntry(ctx context.Context, h *hub.Hub, entry models.Entry) bool {
	h.EnsureNamespace(models.Domain).Set(entry.ID, hub.NewEntryState())

	platforms := i.forwarded()
	run := newSetupRun(len(platforms))
	i.mu.Lock()
	i.setups[entry.ID] = run
	i.mu.Unlock()

	for _, np := range platforms {
		h.CreateTask(fmt.Sprintf("%s setup %s", np.name, entry.ID), func(taskCtx context.Context) error {
			defer run.finish()
			if err := np.platform.SetupEntry(taskCtx, entry); err != nil {
				return fmt.Errorf("setting up %s for %s: %w", np.name, entry.Title, err)
			}
			return nil
		})
	}
	slog.InfoContext(ctx, "entry set up", "entry_id", entry.ID, "title", entry.Title)
	return true
}

// UnloadEntry unloads entry from every platform and waits for all of them.
// Setup tasks still scheduled for entry are waited for first. A platform
// that does not hold the entry, such as one whose setup failed, counts as
// unloaded.
// The entry state is dropped only if every platform unloaded cleanly.
func (i *Integration) UnloadEntry(ctx context.Context, h *hub.Hub, entry models.Entry) bool {
	i.mu.Lock()
	run := i.setups[entry.ID]
	i.mu.Unlock()
	if run != nil {
		select {
		case <-run.done:
		case <-ctx.Done():
			slog.WarnContext(ctx, "entry setup still running", "entry_id", entry.ID, "error", ctx.Err())
			return false
		}
	}

	platforms := i.forwarded()
	results := make([]bool, len(platforms))

	var g errgroup.Group
	for idx, np := range platforms {
		g.Go(func() error {
			err := np.platform.UnloadEntry(ctx, entry)
			switch {
			case err == nil:
			case errors.Is(err, ErrNotLoaded):
				slog.DebugContext(ctx, "platform did not hold entry", "platform", np.name, "entry_id", entry.ID)
			default:
				slog.WarnContext(ctx, "platform unload failed", "platform", np.name, "entry_id", entry.ID, "error", err)
				return nil
			}
			results[idx] = true
			return nil
		})
	}
	_ = g.Wait()

	for _, ok := range results {
		if !ok {
			return false
		}
	}
	if ns, ok := h.Namespace(models.Domain); ok {
		ns.Pop(entry.ID)
	}
	i.mu.Lock()
	if i.setups[entry.ID] == run {
		delete(i.setups, entry.ID)
	}
	i.mu.Unlock()
	slog.InfoContext(ctx, "entry unloaded", "entry_id", entry.ID, "title", entry.Title)
	return true
}

func (i *Integration) forwarded() []namedPlatform {
	all := i.registry.sorted()
	out := make([]namedPlatform, 0, len(Platforms))
	for _, np := range all {
		for _, name := range Platforms {
			if np.name == name {
				out = append(out, np)
			}
		}
	}
	return out
}
