package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/shandysiswandi/adminauth/internal/auth/entity"
	"github.com/shandysiswandi/adminauth/internal/pkg/goerror"
	"github.com/shandysiswandi/adminauth/internal/pkg/instrument"
	"github.com/shandysiswandi/adminauth/internal/pkg/tzresolver"
)

func errInvalidProcess() error {
	return goerror.NewBusinessWrap(entity.ErrInvalidProcess, "Invalid Process ID. Please request a new OTP.", goerror.CodeNotFound)
}

// verify checks code against the latest valid record for (owner, processID).
// Expiry is judged in the timezone of the verifying request's IP.
func (s *Usecase) verify(ctx context.Context, owner entity.Owner, code, processID string, dev entity.DeviceInfo) (*entity.Verified, error) {
	ctx, span := s.startSpan(ctx, "verify")
	defer span.End()

	log := instrument.Log(instrument.CategoryOTP)
	cfg := s.settings()

	rec, err := s.repoDB.GetLatestValidOTP(ctx, owner, processID)
	if errors.Is(err, goerror.ErrNotFound) {
		log.WarnContext(ctx, "otp process not found", "email", owner.Email, "process_id", processID)
		return nil, errInvalidProcess()
	}
	if err != nil {
		log.ErrorContext(ctx, "failed to repo get latest valid otp", "email", owner.Email, "process_id", processID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if rec.State() == entity.OTPStateVerified {
		log.WarnContext(ctx, "otp replay rejected", "otp_id", rec.ID, "process_id", processID)
		return nil, errAlreadyUsed()
	}

	now, tz := s.tz.Now(ctx, dev.IPAddress)
	expiresAt, err := s.tz.ParseIn(ctx, rec.ExpiresAt, dev.IPAddress)
	if err != nil {
		// An unreadable expiry can never be proven live.
		log.ErrorContext(ctx, "failed to parse stored otp expires_at", "otp_id", rec.ID, "expires_at", rec.ExpiresAt, "error", err)
		return nil, s.expire(ctx, rec)
	}

	if !now.Before(expiresAt) {
		log.InfoContext(ctx, "otp expired on verify", "otp_id", rec.ID, "expires_at", rec.ExpiresAt, "timezone", tz)
		return nil, s.expire(ctx, rec)
	}

	if !s.hmac.Verify(rec.CodeHash, code) {
		failed := rec.FailedAttempts + 1
		exhausted := failed >= cfg.maxVerify

		err := s.repoDB.UpdateOTPFailedAttempts(ctx, rec.ID, failed, exhausted)
		if errors.Is(err, goerror.ErrNotFound) {
			return nil, errInvalidProcess()
		}
		if err != nil {
			log.ErrorContext(ctx, "failed to repo update otp failed attempts", "otp_id", rec.ID, "error", err)
			return nil, goerror.NewServer(err)
		}

		if exhausted {
			log.WarnContext(ctx, "otp invalidated after failed attempts", "otp_id", rec.ID, "failed_attempts", failed)
			s.publishInvalidated(ctx, rec, entity.OTPStateInvalidated)
			return nil, goerror.NewBusinessWrap(
				entity.ErrTooManyAttempts,
				fmt.Sprintf("Too many failed attempts (%d). OTP has been invalidated. Please request a new OTP.", cfg.maxVerify),
				goerror.CodeTooManyRequest,
			)
		}

		log.WarnContext(ctx, "otp code mismatch", "otp_id", rec.ID, "failed_attempts", failed)
		return nil, goerror.NewBusinessWrap(
			entity.ErrInvalidCode,
			fmt.Sprintf("Invalid OTP code. You have %d attempt(s) left.", cfg.maxVerify-failed),
			goerror.CodeUnauthorized,
		)
	}

	verifiedAt := tzresolver.Format(now)
	err = s.repoDB.MarkOTPVerified(ctx, rec.ID, verifiedAt)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, errInvalidProcess()
	}
	if err != nil {
		log.ErrorContext(ctx, "failed to repo mark otp verified", "otp_id", rec.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	log.InfoContext(ctx, "otp verified", "otp_id", rec.ID, "process_id", rec.ProcessID, "timezone", tz)

	return &entity.Verified{
		ProcessID:  rec.ProcessID,
		DeviceID:   rec.DeviceID,
		DeviceName: rec.DeviceName,
		VerifiedAt: verifiedAt,
		Timezone:   tz,
	}, nil
}

func errAlreadyUsed() error {
	return goerror.NewBusinessWrap(entity.ErrAlreadyUsed, "This OTP has already been used. Please request a new OTP.", goerror.CodeConflict)
}

func errExpired() error {
	return goerror.NewBusinessWrap(entity.ErrExpired, "OTP has expired. Please request a new OTP.", goerror.CodeGone)
}

// expire invalidates rec and returns the expired error, or the server error
// when the invalidation itself failed.
func (s *Usecase) expire(ctx context.Context, rec *entity.OTPRecord) error {
	if err := s.invalidate(ctx, rec, entity.OTPStateExpired); err != nil {
		return err
	}
	return errExpired()
}

// invalidate flips a record to invalid. A record already removed by the
// sweeper counts as invalid.
func (s *Usecase) invalidate(ctx context.Context, rec *entity.OTPRecord, state entity.OTPState) error {
	err := s.repoDB.InvalidateOTP(ctx, rec.ID)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil
	}
	if err != nil {
		instrument.Log(instrument.CategoryOTP).ErrorContext(ctx, "failed to repo invalidate otp", "otp_id", rec.ID, "error", err)
		return goerror.NewServer(err)
	}

	s.publishInvalidated(ctx, rec, state)
	return nil
}

func (s *Usecase) publishInvalidated(ctx context.Context, rec *entity.OTPRecord, state entity.OTPState) {
	if err := s.repoMessaging.PublishOTPInvalidated(ctx, OTPInvalidatedEvent{
		ProcessID: rec.ProcessID,
		AdminID:   rec.Owner.AdminID,
		Email:     rec.Owner.Email,
		State:     state,
	}); err != nil {
		instrument.Log(instrument.CategoryOTP).ErrorContext(ctx, "failed to publish otp invalidated", "otp_id", rec.ID, "error", err)
	}
}
