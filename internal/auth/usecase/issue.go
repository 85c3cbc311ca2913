package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/shandysiswandi/adminauth/internal/auth/entity"
	"github.com/shandysiswandi/adminauth/internal/pkg/goerror"
	"github.com/shandysiswandi/adminauth/internal/pkg/instrument"
	"github.com/shandysiswandi/adminauth/internal/pkg/tzresolver"
)

// generateCode draws a code uniformly from [10^(n-1), 10^n - 1].
func generateCode(length int) (string, error) {
	low := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length-1)), nil)
	span := new(big.Int).Mul(low, big.NewInt(9))

	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", err
	}
	return n.Add(n, low).String(), nil
}

// issue creates a new OTP record for owner on device after the cooldown and
// both quotas pass. The plaintext code is only returned, never stored.
func (s *Usecase) issue(ctx context.Context, owner entity.Owner, dev entity.DeviceInfo) (*entity.Issued, error) {
	ctx, span := s.startSpan(ctx, "issue")
	defer span.End()

	log := instrument.Log(instrument.CategoryOTP)
	cfg := s.settings()

	code, err := generateCode(cfg.length)
	if err != nil {
		log.ErrorContext(ctx, "failed to generate otp code", "error", err)
		return nil, goerror.NewServer(err)
	}

	now, tz := s.tz.Now(ctx, dev.IPAddress)
	now = now.Truncate(time.Second)
	expiresAt := now.Add(cfg.expiry)

	last, err := s.repoDB.GetLatestActiveOTP(ctx, owner, dev.DeviceID)
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		log.ErrorContext(ctx, "failed to repo get latest active otp", "email", owner.Email, "device_id", dev.DeviceID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if last != nil {
		createdAt, err := s.tz.ParseIn(ctx, last.CreatedAt, dev.IPAddress)
		if err != nil {
			log.ErrorContext(ctx, "failed to parse stored otp created_at", "otp_id", last.ID, "created_at", last.CreatedAt, "error", err)
			return nil, goerror.NewServer(err)
		}

		elapsed := int64(now.Sub(createdAt) / time.Second)
		cooldown := int64(cfg.cooldown / time.Second)
		if elapsed < cooldown {
			wait := cooldown - elapsed
			log.WarnContext(ctx, "otp resend cooldown active", "email", owner.Email, "device_id", dev.DeviceID, "wait_seconds", wait)
			return nil, goerror.NewRateLimit(
				entity.ErrCooldown,
				"Please wait "+strconv.FormatInt(wait, 10)+" seconds before requesting new OTP",
				time.Duration(wait)*time.Second,
			)
		}
	}

	since := tzresolver.Format(now.Add(-cfg.quotaWindow))

	deviceCount, err := s.repoDB.CountDeviceOTPSince(ctx, owner, dev.DeviceID, since)
	if err != nil {
		log.ErrorContext(ctx, "failed to repo count device otp", "email", owner.Email, "device_id", dev.DeviceID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if deviceCount >= cfg.maxAttempts {
		log.WarnContext(ctx, "otp device quota reached", "email", owner.Email, "device_id", dev.DeviceID, "count", deviceCount)
		return nil, goerror.NewRateLimit(
			entity.ErrDeviceQuota,
			fmt.Sprintf("Too many OTP attempts from this device. Please try again %d minutes later.", cfg.windowMinutes),
			cfg.quotaWindow,
		)
	}

	globalCount, err := s.repoDB.CountOTPSince(ctx, owner, since)
	if err != nil {
		log.ErrorContext(ctx, "failed to repo count otp", "email", owner.Email, "error", err)
		return nil, goerror.NewServer(err)
	}
	if globalCount >= cfg.maxAttempts*3 {
		log.WarnContext(ctx, "otp global quota reached", "email", owner.Email, "count", globalCount)
		return nil, goerror.NewRateLimit(
			entity.ErrGlobalQuota,
			fmt.Sprintf("Too many OTP attempts from all devices. Please try again %d minutes later.", cfg.windowMinutes),
			cfg.quotaWindow,
		)
	}

	codeHash, err := s.hmac.Hash(code)
	if err != nil {
		log.ErrorContext(ctx, "failed to hash otp code", "error", err)
		return nil, goerror.NewServer(err)
	}

	rec := entity.OTPRecord{
		ID:         s.uid.Generate(),
		ProcessID:  tzresolver.Clock(now),
		Owner:      owner,
		DeviceID:   dev.DeviceID,
		DeviceName: dev.DeviceName,
		IPAddress:  dev.IPAddress,
		CodeHash:   string(codeHash),
		CreatedAt:  tzresolver.Format(now),
		ExpiresAt:  tzresolver.Format(expiresAt),
		IsValid:    true,
	}
	if err := s.repoDB.CreateOTP(ctx, rec); err != nil {
		log.ErrorContext(ctx, "failed to repo create otp", "email", owner.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	log.InfoContext(ctx, "otp issued", "otp_id", rec.ID, "process_id", rec.ProcessID, "device_id", dev.DeviceID, "timezone", tz)

	return &entity.Issued{
		ProcessID:  rec.ProcessID,
		Code:       code,
		DeviceID:   rec.DeviceID,
		DeviceName: rec.DeviceName,
		CreatedAt:  rec.CreatedAt,
		ExpiresAt:  rec.ExpiresAt,
		Timezone:   tz,
	}, nil
}
