package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Reaper periodically removes sessions that stopped receiving frames.
// Reaped sessions are not persisted.
type Reaper struct {
	d        *Dispatcher
	idle     time.Duration
	interval time.Duration
	log      *slog.Logger

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewReaper(d *Dispatcher, idle, interval time.Duration, log *slog.Logger) *Reaper {
	return &Reaper{d: d, idle: idle, interval: interval, log: log}
}

// Start launches the reap loop. It runs until ctx is cancelled or Stop
// is called.
func (r *Reaper) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return fmt.Errorf("reaper already started")
	}
	if r.interval <= 0 || r.idle <= 0 {
		return fmt.Errorf("reaper: idle timeout and interval must be positive")
	}

	ctx, r.cancel = context.WithCancel(ctx)
	r.started = true
	r.wg.Add(1)
	go r.loop(ctx)
	return nil
}

// Stop ends the loop and waits for it. Calling Stop on a reaper that is
// not running is a no-op.
func (r *Reaper) Stop() {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return
	}
	r.started = false
	r.mu.Unlock()

	r.cancel()
	r.wg.Wait()
}

// ReapOnce removes every session idle for longer than the timeout and
// returns how many were dropped.
func (r *Reaper) ReapOnce() int {
	return r.d.reapIdle(r.d.now().Add(-r.idle))
}

func (r *Reaper) loop(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.ReapOnce(); n > 0 {
				r.log.Info("reaped idle sessions", "count", n, "remaining", r.d.reg.Len())
			}
		}
	}
}
