package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/shandysiswandi/adminauth/internal/auth/entity"
	"github.com/shandysiswandi/adminauth/internal/pkg/goerror"
	"github.com/shandysiswandi/adminauth/internal/pkg/instrument"
	"github.com/shandysiswandi/adminauth/internal/pkg/validator"
)

// normalizeIdentifier trims an identifier and lower-cases it when it is an
// email, so one mailbox maps to one owner whatever case the client sends.
func normalizeIdentifier(identifier string) string {
	identifier = strings.TrimSpace(identifier)
	if validator.IsEmail(identifier) {
		return strings.ToLower(identifier)
	}
	return identifier
}

// resolveOwner maps an identifier to the OTP owner. On the unregistered path
// the identifier must be an unclaimed email; otherwise it must name an
// admin that passes the account gate.
func (s *Usecase) resolveOwner(ctx context.Context, identifier string, unregistered, checkUnclaimed bool) (entity.Owner, error) {
	log := instrument.Log(instrument.CategoryOTP)

	if unregistered {
		if !validator.IsEmail(identifier) {
			return entity.Owner{}, goerror.NewValidation(entity.ErrEmailRequired, "For unregistered users, identifier must be a valid email address")
		}

		if checkUnclaimed {
			taken, err := s.repoDB.EmailRegistered(ctx, identifier)
			if err != nil {
				log.ErrorContext(ctx, "failed to repo check email registered", "email", identifier, "error", err)
				return entity.Owner{}, goerror.NewServer(err)
			}
			if taken {
				log.WarnContext(ctx, "unregistered otp requested for registered email", "email", identifier)
				return entity.Owner{}, goerror.NewValidation(entity.ErrEmailRegistered, "Email already registered")
			}
		}

		return entity.Owner{Email: identifier}, nil
	}

	admin, err := s.repoDB.FindAdminByIdentifier(ctx, identifier)
	if errors.Is(err, goerror.ErrNotFound) {
		log.WarnContext(ctx, "admin not found for otp", "identifier", identifier)
		return entity.Owner{}, goerror.NewBusinessWrap(entity.ErrAdminNotFound, "User not found", goerror.CodeNotFound)
	}
	if err != nil {
		log.ErrorContext(ctx, "failed to repo find admin by identifier", "identifier", identifier, "error", err)
		return entity.Owner{}, goerror.NewServer(err)
	}

	if err := s.ensureAdminAllowed(ctx, admin); err != nil {
		return entity.Owner{}, err
	}

	id := admin.ID
	return entity.Owner{AdminID: &id, Email: strings.ToLower(admin.Email)}, nil
}
