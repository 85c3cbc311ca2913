package usecase

import (
	"context"
	"errors"

	"github.com/shandysiswandi/adminauth/internal/auth/entity"
	"github.com/shandysiswandi/adminauth/internal/pkg/goerror"
	"github.com/shandysiswandi/adminauth/internal/pkg/instrument"
)

func errOTPNotVerified() error {
	return goerror.NewBusinessWrap(entity.ErrOTPNotVerified, "OTP verification required. Please verify the OTP sent to your email.", goerror.CodeForbidden)
}

// verifiedOTP returns the record behind processID when the owner verified it
// within the grace window. Account changes consume the returned record, so a
// record that was already consumed no longer shows up here.
func (s *Usecase) verifiedOTP(ctx context.Context, owner entity.Owner, processID string, dev entity.DeviceInfo) (*entity.OTPRecord, error) {
	log := instrument.Log(instrument.CategoryOTP)

	rec, err := s.repoDB.GetLatestValidOTP(ctx, owner, processID)
	if errors.Is(err, goerror.ErrNotFound) {
		log.WarnContext(ctx, "no verified otp for process", "email", owner.Email, "process_id", processID)
		return nil, errOTPNotVerified()
	}
	if err != nil {
		log.ErrorContext(ctx, "failed to repo get latest valid otp", "email", owner.Email, "process_id", processID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if rec.State() != entity.OTPStateVerified {
		log.WarnContext(ctx, "otp not verified yet", "otp_id", rec.ID, "process_id", processID)
		return nil, errOTPNotVerified()
	}

	now, tz := s.tz.Now(ctx, dev.IPAddress)
	verifiedAt, err := s.tz.ParseIn(ctx, rec.VerifiedAt, dev.IPAddress)
	if err != nil {
		log.ErrorContext(ctx, "failed to parse stored otp verified_at", "otp_id", rec.ID, "verified_at", rec.VerifiedAt, "error", err)
		return nil, s.expire(ctx, rec)
	}

	if !now.Before(verifiedAt.Add(s.settings().grace)) {
		log.InfoContext(ctx, "verified otp past grace window", "otp_id", rec.ID, "verified_at", rec.VerifiedAt, "timezone", tz)
		return nil, s.expire(ctx, rec)
	}

	return rec, nil
}
