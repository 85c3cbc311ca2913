package usecase

import (
	"context"
	"strconv"
	"strings"

	"github.com/shandysiswandi/adminauth/internal/auth/entity"
	"github.com/shandysiswandi/adminauth/internal/pkg/goerror"
	"github.com/shandysiswandi/adminauth/internal/pkg/instrument"
)

type VerifyOTPInput struct {
	Identifier     string `validate:"required,identifier"`
	OTP            string `validate:"required,digits"`
	ProcessID      string `validate:"required,digits6"`
	IsUnregistered bool
	Device         entity.DeviceInfo `validate:"-"`
}

type VerifyOTPOutput struct {
	AdminID        *int64
	Email          string
	ProcessID      string
	VerifiedAt     string
	Timezone       string
	DeviceName     string
	IsUnregistered bool
}

func (s *Usecase) VerifyOTP(ctx context.Context, in VerifyOTPInput) (*VerifyOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyOTP")
	defer span.End()

	in.Identifier = normalizeIdentifier(in.Identifier)
	in.OTP = strings.TrimSpace(in.OTP)
	in.ProcessID = strings.TrimSpace(in.ProcessID)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}
	if length := s.settings().length; len(in.OTP) != length {
		return nil, goerror.NewInvalidInput(nil, "otp", "otp must be exactly "+strconv.Itoa(length)+" digits")
	}

	owner, err := s.resolveOwner(ctx, in.Identifier, in.IsUnregistered, false)
	if err != nil {
		return nil, err
	}

	verified, err := s.verify(ctx, owner, in.OTP, in.ProcessID, in.Device)
	if err != nil {
		return nil, err
	}

	if err := s.repoMessaging.PublishOTPVerified(ctx, OTPVerifiedEvent{
		ProcessID:  verified.ProcessID,
		AdminID:    owner.AdminID,
		Email:      owner.Email,
		DeviceID:   verified.DeviceID,
		VerifiedAt: verified.VerifiedAt,
		Timezone:   verified.Timezone,
	}); err != nil {
		instrument.Log(instrument.CategoryOTP).ErrorContext(ctx, "failed to publish otp verified", "process_id", verified.ProcessID, "error", err)
	}

	return &VerifyOTPOutput{
		AdminID:        owner.AdminID,
		Email:          owner.Email,
		ProcessID:      verified.ProcessID,
		VerifiedAt:     verified.VerifiedAt,
		Timezone:       verified.Timezone,
		DeviceName:     verified.DeviceName,
		IsUnregistered: in.IsUnregistered,
	}, nil
}
