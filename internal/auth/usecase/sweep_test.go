package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/shandysiswandi/adminauth/internal/auth/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweep(t *testing.T) {
	h := newHarness(t, "app: {}")
	ctx := context.Background()

	// Resolved a day ago, deleted by pass 2.
	h.store.records = append(h.store.records,
		entity.OTPRecord{ID: 900, ProcessID: "090000", Owner: entity.Owner{Email: "old@b.com"}, CreatedAt: "2026-03-09 09:00:00", ExpiresAt: "2026-03-09 09:05:00", IsValid: true, IsVerified: true},
		entity.OTPRecord{ID: 901, ProcessID: "090100", Owner: entity.Owner{Email: "old@b.com"}, CreatedAt: "2026-03-09 09:01:00", ExpiresAt: "2026-03-09 09:06:00", IsValid: false},
	)

	kolkata, _ := sendUnregistered(t, h, "k@b.com", ipKolkata)
	newYork, _ := sendUnregistered(t, h, "n@b.com", ipNewYork)
	noIP, err := h.uc.issue(ctx, entity.Owner{Email: "e@b.com"}, device("device_9", ""))
	require.NoError(t, err)

	verified, code := sendUnregistered(t, h, "v@b.com", ipKolkata)
	_, err = verifyUnregistered(h, "v@b.com", code, verified.ProcessID, ipKolkata)
	require.NoError(t, err)

	h.clock.Advance(5 * time.Minute)

	res := h.uc.Sweep(ctx)
	assert.Equal(t, 3, res.Expired)
	assert.Equal(t, int64(2), res.Deleted)

	byEmail := map[string]entity.OTPRecord{}
	for _, r := range h.store.records {
		byEmail[r.Owner.Email] = r
	}

	assert.False(t, byEmail["k@b.com"].IsValid)
	assert.False(t, byEmail["n@b.com"].IsValid, "judged in the zone of its stored ip")
	assert.False(t, byEmail["e@b.com"].IsValid, "record without ip uses the default zone")
	assert.True(t, byEmail["v@b.com"].IsVerified)
	assert.NotContains(t, byEmail, "old@b.com")

	assert.Equal(t, kolkata.ProcessID, noIP.ProcessID)
	assert.Equal(t, "003000", newYork.ProcessID)
	assert.Len(t, h.events.invalidated, 3)

	// Nothing left to do.
	res = h.uc.Sweep(ctx)
	assert.Equal(t, entity.SweepResult{}, res)
}

func TestSweep_StoreFailureIsSwallowed(t *testing.T) {
	h := newHarness(t, "app: {}")
	h.store.failOTP = assert.AnError

	var res entity.SweepResult
	require.NotPanics(t, func() { res = h.uc.Sweep(context.Background()) })
	assert.Equal(t, entity.SweepResult{}, res)
}

func TestSweep_NotYetExpired(t *testing.T) {
	h := newHarness(t, "app: {}")
	sent, _ := sendUnregistered(t, h, "a@b.com", ipNewYork)

	h.clock.Advance(5*time.Minute - time.Second)

	res := h.uc.Sweep(context.Background())
	assert.Equal(t, 0, res.Expired)
	assert.True(t, h.store.record(sent.ProcessID).IsValid)
}

func TestSweep_UnreadableExpiryIsExpired(t *testing.T) {
	h := newHarness(t, "app: {}")
	h.store.records = append(h.store.records, entity.OTPRecord{
		ID: 700, ProcessID: "700000", Owner: entity.Owner{Email: "a@b.com"},
		CreatedAt: "2026-03-10 10:00:00", ExpiresAt: "garbage", IsValid: true,
	})

	res := h.uc.Sweep(context.Background())
	assert.Equal(t, 1, res.Expired)
	assert.False(t, h.store.record("700000").IsValid)
}
