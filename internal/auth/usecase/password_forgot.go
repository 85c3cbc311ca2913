package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/shandysiswandi/adminauth/internal/auth/entity"
	"github.com/shandysiswandi/adminauth/internal/pkg/goerror"
	"github.com/shandysiswandi/adminauth/internal/pkg/instrument"
)

type ForgotPasswordInput struct {
	Identifier  string `validate:"required,identifier"`
	NewPassword string `validate:"required,password"`
	ProcessID   string `validate:"required,digits6"`
	Device      entity.DeviceInfo `validate:"-"`
}

type ForgotPasswordOutput struct {
	AdminID int64
	Email   string
}

// ForgotPassword replaces an admin's password once the admin verified a
// registered OTP under ProcessID. The OTP is consumed with the update.
func (s *Usecase) ForgotPassword(ctx context.Context, in ForgotPasswordInput) (*ForgotPasswordOutput, error) {
	ctx, span := s.startSpan(ctx, "ForgotPassword")
	defer span.End()

	in.Identifier = normalizeIdentifier(in.Identifier)
	in.ProcessID = strings.TrimSpace(in.ProcessID)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	log := instrument.Log(instrument.CategoryAuth)

	owner, err := s.resolveOwner(ctx, in.Identifier, false, false)
	if err != nil {
		return nil, err
	}

	rec, err := s.verifiedOTP(ctx, owner, in.ProcessID, in.Device)
	if err != nil {
		return nil, err
	}

	passHash, err := s.bcrypt.Hash(in.NewPassword)
	if err != nil {
		log.ErrorContext(ctx, "failed to hash password", "error", err)
		return nil, goerror.NewServer(err)
	}

	err = s.repoDB.ResetAdminPassword(ctx, *owner.AdminID, rec.ID, string(passHash))
	if errors.Is(err, goerror.ErrNotFound) {
		log.WarnContext(ctx, "verified otp consumed concurrently", "otp_id", rec.ID, "admin_id", *owner.AdminID)
		return nil, errAlreadyUsed()
	}
	if err != nil {
		log.ErrorContext(ctx, "failed to repo reset admin password", "admin_id", *owner.AdminID, "error", err)
		return nil, goerror.NewServer(err)
	}

	log.InfoContext(ctx, "admin password reset", "admin_id", *owner.AdminID, "process_id", rec.ProcessID)

	return &ForgotPasswordOutput{AdminID: *owner.AdminID, Email: owner.Email}, nil
}
