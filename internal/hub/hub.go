// Package hub is the runtime that integrations are loaded into. It owns
// per-integration data and the background tasks integrations schedule.
package hub

import (
	"context"
	"log/slog"
	"sort"
	"sync"
)

// EntryState is the runtime record kept for one loaded entry.
type EntryState struct {
	mu     sync.RWMutex
	values map[string]any
}

func NewEntryState() *EntryState {
	return &EntryState{values: make(map[string]any)}
}

func (s *EntryState) Set(key string, v any) {
	s.mu.Lock()
	s.values[key] = v
	s.mu.Unlock()
}

func (s *EntryState) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *EntryState) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// Namespace holds the entry states of one integration domain.
type Namespace struct {
	mu      sync.RWMutex
	entries map[string]*EntryState
}

func (n *Namespace) Set(entryID string, st *EntryState) {
	n.mu.Lock()
	n.entries[entryID] = st
	n.mu.Unlock()
}

func (n *Namespace) Get(entryID string) (*EntryState, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	st, ok := n.entries[entryID]
	return st, ok
}

// Pop removes and returns the state for entryID.
func (n *Namespace) Pop(entryID string) (*EntryState, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	st, ok := n.entries[entryID]
	delete(n.entries, entryID)
	return st, ok
}

func (n *Namespace) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.entries)
}

// IDs returns the entry ids in sorted order.
func (n *Namespace) IDs() []string {
	n.mu.RLock()
	ids := make([]string, 0, len(n.entries))
	for id := range n.entries {
		ids = append(ids, id)
	}
	n.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

type Hub struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	namespaces map[string]*Namespace

	tasks sync.WaitGroup
}

// New returns a hub whose tasks run under a context derived from parent.
func New(parent context.Context) *Hub {
	ctx, cancel := context.WithCancel(parent)
	return &Hub{
		ctx:        ctx,
		cancel:     cancel,
		namespaces: make(map[string]*Namespace),
	}
}

// EnsureNamespace returns the namespace for domain, creating it if needed.
func (h *Hub) EnsureNamespace(domain string) *Namespace {
	h.mu.Lock()
	defer h.mu.Unlock()
	ns, ok := h.namespaces[domain]
	if !ok {
		ns = &Namespace{entries: make(map[string]*EntryState)}
		h.namespaces[domain] = ns
	}
	return ns
}

func (h *Hub) Namespace(domain string) (*Namespace, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ns, ok := h.namespaces[domain]
	return ns, ok
}

// CreateTask runs fn in the background and returns without waiting.
// Errors are logged under name.
func (h *Hub) CreateTask(name string, fn func(ctx context.Context) error) {
	h.tasks.Add(1)
	go func() {
		defer h.tasks.Done()
		if err := fn(h.ctx); err != nil {
			slog.Error("hub task failed", "task", name, "error", err)
		}
	}()
}

// Wait blocks until every task scheduled so far has returned.
func (h *Hub) Wait() {
	h.tasks.Wait()
}

// Shutdown cancels the task context and waits for tasks to finish or ctx
// to expire.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.cancel()
	done := make(chan struct{})
	go func() {
		h.tasks.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
