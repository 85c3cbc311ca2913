package inbound

import (
	"context"
	"strconv"
	"time"

	"github.com/shandysiswandi/adminauth/internal/auth/entity"
	"github.com/shandysiswandi/adminauth/internal/pkg/clock"
	"github.com/shandysiswandi/adminauth/internal/pkg/goroutine"
	"github.com/shandysiswandi/adminauth/internal/pkg/idempotency"
	"github.com/shandysiswandi/adminauth/internal/pkg/instrument"
)

type sweeper interface {
	Sweep(ctx context.Context) entity.SweepResult
}

type locker interface {
	Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...idempotency.Option) error
}

type SweeperConfig struct {
	Interval time.Duration
	// Eager runs one sweep as soon as the task starts.
	Eager bool
	// Lock makes a tick run on one replica only; nil sweeps on every replica.
	Lock  locker
	Clock clock.Clocker
}

// StartSweeper schedules the OTP cleanup on gm. Stop the returned task on shutdown.
func StartSweeper(ctx context.Context, gm *goroutine.Manager, uc sweeper, cfg SweeperConfig) *goroutine.Task {
	if cfg.Lock == nil {
		cfg.Lock = idempotency.Local{}
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}

	log := instrument.Log(instrument.CategorySweeper)

	return gm.Every(ctx, "otp-sweeper", cfg.Interval, cfg.Eager, func(ctx context.Context) {
		tick := cfg.Clock.Now().Truncate(cfg.Interval).Unix()
		key := "sweep:" + strconv.FormatInt(tick, 10)

		err := cfg.Lock.Exec(ctx, key, func(ctx context.Context) error {
			uc.Sweep(ctx)
			return nil
		}, idempotency.WithLockDuration(cfg.Interval), idempotency.WithStateTTL(2*cfg.Interval))

		switch {
		case idempotency.Skipped(err):
			log.DebugContext(ctx, "otp sweep tick taken by another replica", "key", key)
		case err != nil:
			log.ErrorContext(ctx, "failed to run otp sweep", "key", key, "error", err)
		}
	})
}
