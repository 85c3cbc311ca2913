package goroutine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func TestManager_GoAndWait(t *testing.T) {
	m := NewManager(4)
	boom := errors.New("boom")

	var count atomic.Int32
	for range 3 {
		m.Go(context.Background(), func(context.Context) error {
			count.Inc()
			return nil
		})
	}
	m.Go(context.Background(), func(context.Context) error { return boom })
	m.Go(context.Background(), func(context.Context) error { panic("recovered") })

	err := m.Wait()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(3), count.Load())

	m.Go(context.Background(), func(context.Context) error {
		count.Inc()
		return nil
	})
	assert.Equal(t, int32(3), count.Load(), "closed manager must refuse work")
}

func TestManager_Every(t *testing.T) {
	m := NewManager(2)
	ctx := context.Background()

	var calls atomic.Int32
	task := m.Every(ctx, "tick", 10*time.Millisecond, true, func(context.Context) {
		if calls.Inc() == 2 {
			panic("one bad tick")
		}
	})

	require.Eventually(t, func() bool { return calls.Load() >= 4 }, time.Second, 5*time.Millisecond)
	select {
	case <-task.Done():
		t.Fatal("task exited while scheduled")
	default:
	}

	task.Stop()
	task.Stop()

	select {
	case <-task.Done():
	case <-time.After(time.Second):
		t.Fatal("task did not stop")
	}
	assert.GreaterOrEqual(t, task.Runs(), int64(4))
	require.NoError(t, m.Wait())
}

func TestManager_EveryEagerRunsBeforeFirstTick(t *testing.T) {
	m := NewManager(1)
	ctx, cancel := context.WithCancel(context.Background())

	ran := make(chan struct{}, 1)
	task := m.Every(ctx, "eager", time.Hour, true, func(context.Context) { ran <- struct{}{} })

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("eager run did not happen")
	}

	cancel()
	<-task.Done()
	assert.Equal(t, int64(1), task.Runs())
}

func TestManager_EveryInvalidInterval(t *testing.T) {
	task := NewManager(1).Every(context.Background(), "bad", 0, true, func(context.Context) {})
	<-task.Done()
	assert.Zero(t, task.Runs())
}
