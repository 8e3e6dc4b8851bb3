// Package workers runs inbound jobs concurrently with a bound on how many
// execute at once.
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Dispatcher hands each job its own goroutine. Submit never blocks the
// caller; jobs beyond the limit wait for a free slot inside their goroutine.
type Dispatcher struct {
	ctx    context.Context
	cancel context.CancelFunc
	slots  chan struct{}
	wg     sync.WaitGroup
	logger *slog.Logger

	mu      sync.Mutex
	stopped bool
}

func NewDispatcher(maxConcurrent int, logger *slog.Logger) (*Dispatcher, error) {
	if maxConcurrent <= 0 {
		return nil, fmt.Errorf("max concurrent jobs must be positive, got %d", maxConcurrent)
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		ctx:    ctx,
		cancel: cancel,
		slots:  make(chan struct{}, maxConcurrent),
		logger: logger,
	}, nil
}

// Submit schedules job. It returns false once the dispatcher is stopped.
// The job's context is cancelled by Stop.
func (d *Dispatcher) Submit(job func(ctx context.Context)) bool {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return false
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		select {
		case d.slots <- struct{}{}:
		case <-d.ctx.Done():
			d.logger.Warn("job dropped: dispatcher stopping")
			return
		}
		defer func() { <-d.slots }()
		defer func() {
			if rec := recover(); rec != nil {
				d.logger.Error("job panicked", "panic", rec)
			}
		}()
		job(d.ctx)
	}()
	return true
}

// Stop cancels running jobs and waits for all of them to return.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()
	d.cancel()
	d.wg.Wait()
}
