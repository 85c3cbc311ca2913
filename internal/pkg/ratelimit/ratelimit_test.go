package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exhaust(t *testing.T, l *Limiter, rule, key string, n int) Result {
	t.Helper()

	var res Result
	for range n {
		var err error
		res, err = l.Take(context.Background(), rule, key)
		require.NoError(t, err)
	}
	return res
}

func TestLimiter_Memory(t *testing.T) {
	l, err := New(Config{})
	require.NoError(t, err)

	res := exhaust(t, l, RuleOTP, "10.0.0.1", 5)
	assert.False(t, res.Reached)
	assert.Equal(t, int64(0), res.Remaining)
	assert.Equal(t, int64(5), res.Limit)

	res = exhaust(t, l, RuleOTP, "10.0.0.1", 1)
	assert.True(t, res.Reached)

	res = exhaust(t, l, RuleOTP, "10.0.0.2", 1)
	assert.False(t, res.Reached, "limits are per key")

	res = exhaust(t, l, RuleAPI, "10.0.0.1", 1)
	assert.Equal(t, int64(99), res.Remaining, "rules count independently")
}

func TestLimiter_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	l, err := New(Config{Redis: client, Rules: map[string]Rule{RuleAuth: {Limit: 2, Period: time.Minute}}})
	require.NoError(t, err)

	res := exhaust(t, l, RuleAuth, "10.0.0.1", 3)
	assert.True(t, res.Reached)

	_, err = l.Take(context.Background(), RuleOTP, "10.0.0.1")
	assert.ErrorIs(t, err, ErrUnknownRule)
}

func TestNew_InvalidRule(t *testing.T) {
	_, err := New(Config{Rules: map[string]Rule{RuleOTP: {Limit: 0, Period: time.Minute}}})
	assert.Error(t, err)
}

func TestResult_RetryAfter(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	assert.Equal(t, 90*time.Second, Result{Reset: now.Unix() + 90}.RetryAfter(now))
	assert.Zero(t, Result{Reset: now.Unix() - 5}.RetryAfter(now))
}
