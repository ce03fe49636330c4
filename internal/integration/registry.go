package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"mpdhub/internal/models"
)

// Platform is a downstream component that entries are forwarded to.
type Platform interface {
	SetupEntry(ctx context.Context, entry models.Entry) error
	UnloadEntry(ctx context.Context, entry models.Entry) error
}

// PlatformFuncs adapts a pair of functions to Platform.
type PlatformFuncs struct {
	Setup  func(ctx context.Context, entry models.Entry) error
	Unload func(ctx context.Context, entry models.Entry) error
}

func (p PlatformFuncs) SetupEntry(ctx context.Context, entry models.Entry) error {
	if p.Setup == nil {
		return nil
	}
	return p.Setup(ctx, entry)
}

func (p PlatformFuncs) UnloadEntry(ctx context.Context, entry models.Entry) error {
	if p.Unload == nil {
		return nil
	}
	return p.Unload(ctx, entry)
}

type namedPlatform struct {
	name     string
	platform Platform
}

// Registry maps platform names to implementations. Iteration order is by
// name so setup and unload run in a stable order.
type Registry struct {
	mu        sync.RWMutex
	platforms map[string]Platform
}

func NewRegistry() *Registry {
	return &Registry{platforms: make(map[string]Platform)}
}

func (r *Registry) Register(name string, p Platform) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.platforms[name]; exists {
		return fmt.Errorf("platform %q already registered", name)
	}
	r.platforms[name] = p
	return nil
}

func (r *Registry) Get(name string) (Platform, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.platforms[name]
	return p, ok
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.platforms))
	for name := range r.platforms {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

func (r *Registry) sorted() []namedPlatform {
	names := r.Names()
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]namedPlatform, 0, len(names))
	for _, name := range names {
		if p, ok := r.platforms[name]; ok {
			out = append(out, namedPlatform{name: name, platform: p})
		}
	}
	return out
}
