// Package ratelimit applies fixed-window request limits keyed by client IP.
// Counters live in memory for a single replica or in redis when shared.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// Rule names used by the HTTP layer.
const (
	RuleOTP  = "otp"
	RuleAuth = "auth"
	RuleAPI  = "api"
)

var ErrUnknownRule = errors.New("ratelimit: unknown rule")

// Rule is a limit of Limit requests per Period.
type Rule struct {
	Limit  int64
	Period time.Duration
}

// DefaultRules are 5 OTP and 5 login requests per 5 minutes, and 100 API requests per 15 minutes.
func DefaultRules() map[string]Rule {
	return map[string]Rule{
		RuleOTP:  {Limit: 5, Period: 5 * time.Minute},
		RuleAuth: {Limit: 5, Period: 5 * time.Minute},
		RuleAPI:  {Limit: 100, Period: 15 * time.Minute},
	}
}

// Result is the outcome of one Take.
type Result struct {
	Limit     int64
	Remaining int64
	// Reset is the unix time at which the window resets.
	Reset   int64
	Reached bool
}

// RetryAfter is how long until the window resets, relative to now.
func (r Result) RetryAfter(now time.Time) time.Duration {
	return max(time.Unix(r.Reset, 0).Sub(now), 0)
}

// Limiter counts requests per (rule, key).
type Limiter struct {
	limiters map[string]*limiter.Limiter
}

// Config selects the counter store. A nil Redis client uses process memory.
type Config struct {
	Rules  map[string]Rule
	Redis  redis.UniversalClient
	Prefix string
}

func New(cfg Config) (*Limiter, error) {
	if len(cfg.Rules) == 0 {
		cfg.Rules = DefaultRules()
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "ratelimit"
	}

	l := &Limiter{limiters: make(map[string]*limiter.Limiter, len(cfg.Rules))}
	for name, rule := range cfg.Rules {
		if rule.Limit <= 0 || rule.Period <= 0 {
			return nil, fmt.Errorf("ratelimit: rule %q must have positive limit and period", name)
		}

		opts := limiter.StoreOptions{Prefix: cfg.Prefix + ":" + name, MaxRetry: 3, CleanUpInterval: limiter.DefaultCleanUpInterval}

		var store limiter.Store
		if cfg.Redis != nil {
			s, err := sredis.NewStoreWithOptions(cfg.Redis, opts)
			if err != nil {
				return nil, err
			}
			store = s
		} else {
			store = memory.NewStoreWithOptions(opts)
		}

		l.limiters[name] = limiter.New(store, limiter.Rate{Limit: rule.Limit, Period: rule.Period})
	}

	return l, nil
}

// Take counts one request for key under rule.
func (l *Limiter) Take(ctx context.Context, rule, key string) (Result, error) {
	lim, ok := l.limiters[rule]
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownRule, rule)
	}

	c, err := lim.Get(ctx, key)
	if err != nil {
		return Result{}, err
	}

	return Result{Limit: c.Limit, Remaining: c.Remaining, Reset: c.Reset, Reached: c.Reached}, nil
}
