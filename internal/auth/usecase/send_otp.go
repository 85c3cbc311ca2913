package usecase

import (
	"context"

	"github.com/shandysiswandi/adminauth/internal/auth/entity"
	"github.com/shandysiswandi/adminauth/internal/pkg/goerror"
	"github.com/shandysiswandi/adminauth/internal/pkg/instrument"
)

type SendOTPInput struct {
	Identifier     string `validate:"required,identifier"`
	IsUnregistered bool
	Device         entity.DeviceInfo `validate:"-"`
}

type SendOTPOutput struct {
	AdminID          *int64
	Email            string
	ProcessID        string
	ExpiresAt        string
	ExpiresInMinutes int
	Timezone         string
	DeviceName       string
	IsUnregistered   bool
}

func (s *Usecase) SendOTP(ctx context.Context, in SendOTPInput) (*SendOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "SendOTP")
	defer span.End()

	in.Identifier = normalizeIdentifier(in.Identifier)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	owner, err := s.resolveOwner(ctx, in.Identifier, in.IsUnregistered, true)
	if err != nil {
		return nil, err
	}

	issued, err := s.issue(ctx, owner, in.Device)
	if err != nil {
		return nil, err
	}

	log := instrument.Log(instrument.CategoryOTP)
	cfg := s.settings()

	if err := s.repoMail.SendOTP(ctx, OTPMail{
		Email:         owner.Email,
		Code:          issued.Code,
		DeviceName:    issued.DeviceName,
		ExpiryMinutes: cfg.expiryMinutes,
	}); err != nil {
		log.ErrorContext(ctx, "failed to send otp email", "email", owner.Email, "process_id", issued.ProcessID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoMessaging.PublishOTPIssued(ctx, OTPIssuedEvent{
		ProcessID:  issued.ProcessID,
		AdminID:    owner.AdminID,
		Email:      owner.Email,
		DeviceID:   issued.DeviceID,
		DeviceName: issued.DeviceName,
		ExpiresAt:  issued.ExpiresAt,
		Timezone:   issued.Timezone,
	}); err != nil {
		log.ErrorContext(ctx, "failed to publish otp issued", "process_id", issued.ProcessID, "error", err)
	}

	return &SendOTPOutput{
		AdminID:          owner.AdminID,
		Email:            owner.Email,
		ProcessID:        issued.ProcessID,
		ExpiresAt:        issued.ExpiresAt,
		ExpiresInMinutes: cfg.expiryMinutes,
		Timezone:         issued.Timezone,
		DeviceName:       issued.DeviceName,
		IsUnregistered:   in.IsUnregistered,
	}, nil
}
