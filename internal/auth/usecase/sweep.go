package usecase

import (
	"context"
	"errors"

	"github.com/shandysiswandi/adminauth/internal/auth/entity"
	"github.com/shandysiswandi/adminauth/internal/pkg/goerror"
	"github.com/shandysiswandi/adminauth/internal/pkg/instrument"
	"github.com/shandysiswandi/adminauth/internal/pkg/tzresolver"
)

// Sweep invalidates expired unverified records, judging each in the timezone
// of its own stored IP, then deletes resolved records older than the
// retention window. A record whose expiry cannot be read counts as expired.
// Failures are logged and never returned.
func (s *Usecase) Sweep(ctx context.Context) entity.SweepResult {
	ctx, span := s.startSpan(ctx, "Sweep")
	defer span.End()

	log := instrument.Log(instrument.CategorySweeper)
	cfg := s.settings()

	var res entity.SweepResult

	active, err := s.repoDB.ListActiveOTP(ctx)
	if err != nil {
		log.ErrorContext(ctx, "failed to repo list active otp", "error", err)
	}

	for i := range active {
		rec := &active[i]

		now, _ := s.tz.Now(ctx, rec.IPAddress)
		expiresAt, err := s.tz.ParseIn(ctx, rec.ExpiresAt, rec.IPAddress)
		if err != nil {
			log.WarnContext(ctx, "expiring otp with unreadable expires_at", "otp_id", rec.ID, "expires_at", rec.ExpiresAt, "error", err)
		} else if now.Before(expiresAt) {
			continue
		}

		err = s.repoDB.InvalidateOTP(ctx, rec.ID)
		if errors.Is(err, goerror.ErrNotFound) {
			continue
		}
		if err != nil {
			log.ErrorContext(ctx, "failed to repo invalidate expired otp", "otp_id", rec.ID, "error", err)
			continue
		}

		res.Expired++
		s.publishInvalidated(ctx, rec, entity.OTPStateExpired)
	}

	defaultNow, _ := s.tz.Now(ctx, "")
	cutoff := tzresolver.Format(defaultNow.Add(-cfg.retention))

	deleted, err := s.repoDB.DeleteResolvedOTPBefore(ctx, cutoff)
	if err != nil {
		log.ErrorContext(ctx, "failed to repo delete resolved otp", "cutoff", cutoff, "error", err)
	}
	res.Deleted = deleted

	log.InfoContext(ctx, "otp cleanup finished", "expired", res.Expired, "deleted", res.Deleted, "scanned", len(active))

	return res
}
