// Package scheduler runs periodic housekeeping for the server process.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	DefaultInterval = time.Minute
	DefaultFlowTTL  = 30 * time.Minute
)

// FlowPruner drops config flows idle since before cutoff.
type FlowPruner interface {
	PruneIdle(cutoff time.Time) int
}

type Scheduler struct {
	flows    FlowPruner
	interval time.Duration
	flowTTL  time.Duration
	now      func() time.Time

	startOnce sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
}

type Option func(*Scheduler)

func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithFlowTTL sets how long an untouched config flow is kept.
func WithFlowTTL(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.flowTTL = d
		}
	}
}

func New(flows FlowPruner, opts ...Option) *Scheduler {
	sch := &Scheduler{
		flows:    flows,
		interval: DefaultInterval,
		flowTTL:  DefaultFlowTTL,
		now:      time.Now,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(sch)
	}
	return sch
}

func (sch *Scheduler) Start(ctx context.Context) {
	sch.startOnce.Do(func() {
		ctx, sch.cancel = context.WithCancel(ctx)
		go sch.run(ctx)
	})
}

func (sch *Scheduler) Stop() {
	if sch.cancel != nil {
		sch.cancel()
		<-sch.done
	}
}

func (sch *Scheduler) run(ctx context.Context) {
	defer close(sch.done)

	ticker := time.NewTicker(sch.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sch.RunOnce()
		}
	}
}

// RunOnce performs one housekeeping pass.
func (sch *Scheduler) RunOnce() {
	cutoff := sch.now().UTC().Add(-sch.flowTTL)
	if n := sch.flows.PruneIdle(cutoff); n > 0 {
		slog.Info("pruned idle config flows", "count", n, "older_than", sch.flowTTL)
	}
}
