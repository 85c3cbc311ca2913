package goroutine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// Task is the handle of a periodic job started with Every.
type Task struct {
	name     string
	interval time.Duration
	runs     atomic.Int64
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// Stop ends the loop after the current run, if any. It is safe to call more than once.
func (t *Task) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
}

// Done is closed once the loop has exited.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Runs reports how many times the job has executed.
func (t *Task) Runs() int64 {
	return t.runs.Load()
}

// Every runs job every interval until ctx is canceled or the returned Task is
// stopped. With eager set, job also runs once immediately. A panicking run is
// logged and the loop continues with the next tick. The loop is owned by the
// manager, so Wait blocks until it exits.
func (g *Manager) Every(ctx context.Context, name string, interval time.Duration, eager bool, job func(ctx context.Context)) *Task {
	t := &Task{
		name:     name,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	if interval <= 0 {
		slog.WarnContext(ctx, "scheduled task not started, non-positive interval", "task", name, "interval", interval)
		close(t.done)
		return t
	}

	started := g.spawn(ctx, func(ctx context.Context) error {
		defer close(t.done)

		slog.InfoContext(ctx, "scheduled task started", "task", name, "interval", interval.String(), "eager", eager)

		if eager {
			t.run(ctx, job)
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				slog.InfoContext(ctx, "scheduled task stopped", "task", name, "because", ctx.Err(), "runs", t.Runs())
				return nil
			case <-t.stop:
				slog.InfoContext(ctx, "scheduled task stopped", "task", name, "runs", t.Runs())
				return nil
			case <-ticker.C:
				t.run(ctx, job)
			}
		}
	})

	if !started {
		close(t.done)
	}

	return t
}

func (t *Task) run(ctx context.Context, job func(ctx context.Context)) {
	defer t.runs.Inc()
	defer recoverPanic(ctx)

	job(ctx)
}
