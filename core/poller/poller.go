// Package poller runs a fetch function on a fixed interval and hands its
// results to callbacks. Each poller owns one endpoint: at most one fetch is in
// flight at a time and once the poller is stopped no callback runs again.
package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kilianp07/energyflow/core/logger"
	"github.com/kilianp07/energyflow/core/monitoring"
)

// FetchFunc retrieves one value. It must honour ctx cancellation.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Config describes a poller.
type Config[T any] struct {
	Name      string
	Interval  time.Duration
	Fetch     FetchFunc[T]
	OnSuccess func(T)
	OnError   func(error)
}

// Poller calls Fetch every Interval.
type Poller[T any] struct {
	cfg Config[T]
	log logger.Logger
}

// New validates cfg and returns a Poller.
func New[T any](cfg Config[T], log logger.Logger) (*Poller[T], error) {
	if cfg.Fetch == nil {
		return nil, errors.New("poller: fetch function is required")
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("poller %s: interval must be positive", cfg.Name)
	}
	return &Poller[T]{cfg: cfg, log: logger.OrNop(log)}, nil
}

// Name returns the configured poller name.
func (p *Poller[T]) Name() string { return p.cfg.Name }

// Start fetches immediately and then on every tick until the returned handle
// is stopped or ctx is done.
func (p *Poller[T]) Start(ctx context.Context) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{cancel: cancel, done: make(chan struct{})}
	go p.loop(ctx, h)
	return h
}

func (p *Poller[T]) loop(ctx context.Context, h *Handle) {
	defer close(h.done)
	defer monitoring.Recover("poller")
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	p.tick(ctx, h)
	for {
		select {
		case <-ctx.Done():
			h.abort()
			return
		case <-ticker.C:
			p.tick(ctx, h)
		}
	}
}

func (p *Poller[T]) tick(ctx context.Context, h *Handle) {
	if !h.inFlight.CompareAndSwap(false, true) {
		h.skipped.Add(1)
		p.log.Debugf("poller %s: previous fetch still running, skipping tick", p.cfg.Name)
		return
	}
	go func() {
		defer h.inFlight.Store(false)
		// A panicking fetch or callback is reported and delivered as a fetch error.
		defer monitoring.Guard("poller", func(err error) {
			var zero T
			p.deliver(ctx, h, zero, fmt.Errorf("poller %s: %w", p.cfg.Name, err))
		})
		v, err := p.cfg.Fetch(ctx)
		p.deliver(ctx, h, v, err)
	}()
}

// deliver runs the callback for one fetch result unless the poller stopped.
func (p *Poller[T]) deliver(ctx context.Context, h *Handle, v T, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.aborted || ctx.Err() != nil {
		return
	}
	if err != nil {
		if p.cfg.OnError != nil {
			p.cfg.OnError(err)
		}
		return
	}
	if p.cfg.OnSuccess != nil {
		p.cfg.OnSuccess(v)
	}
}

// Handle controls a running poller.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}

	inFlight atomic.Bool
	skipped  atomic.Int64

	mu      sync.Mutex
	aborted bool
}

// Stop cancels the poller and waits for its timer loop to exit. After Stop
// returns no callback is invoked, even for a fetch that was still pending.
func (h *Handle) Stop() {
	h.abort()
	h.cancel()
	<-h.done
}

// Done is closed once the timer loop has exited.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Skipped returns how many ticks were dropped because a fetch was in flight.
func (h *Handle) Skipped() int64 { return h.skipped.Load() }

func (h *Handle) abort() {
	h.mu.Lock()
	h.aborted = true
	h.mu.Unlock()
}
