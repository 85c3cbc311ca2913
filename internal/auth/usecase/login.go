package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/shandysiswandi/adminauth/internal/auth/entity"
	"github.com/shandysiswandi/adminauth/internal/pkg/goerror"
	"github.com/shandysiswandi/adminauth/internal/pkg/instrument"
	"github.com/shandysiswandi/adminauth/internal/pkg/jwt"
)

type LoginInput struct {
	Identifier string `validate:"required,identifier"`
	Password   string `validate:"required"`
}

type LoginOutput struct {
	AdminID     int64
	AdminName   string
	FirstName   string
	LastName    string
	Email       string
	Role        string
	RoleName    string
	Status      string
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

func (s *Usecase) Login(ctx context.Context, in LoginInput) (*LoginOutput, error) {
	ctx, span := s.startSpan(ctx, "Login")
	defer span.End()

	in.Identifier = normalizeIdentifier(in.Identifier)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	log := instrument.Log(instrument.CategoryAuth)

	admin, err := s.repoDB.FindAdminByIdentifier(ctx, in.Identifier)
	if errors.Is(err, goerror.ErrNotFound) {
		log.WarnContext(ctx, "admin account not found", "identifier", in.Identifier)
		return nil, goerror.NewBusinessWrap(entity.ErrAdminNotFound, "User not found", goerror.CodeNotFound)
	}
	if err != nil {
		log.ErrorContext(ctx, "failed to repo find admin by identifier", "identifier", in.Identifier, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.ensureAdminAllowed(ctx, admin); err != nil {
		return nil, err
	}

	if admin.PasswordHash == "" || !s.bcrypt.Verify(admin.PasswordHash, in.Password) {
		log.WarnContext(ctx, "admin password not match", "admin_id", admin.ID)
		return nil, goerror.NewBusinessWrap(entity.ErrInvalidCredentials, "Invalid credentials", goerror.CodeUnauthorized)
	}

	token, err := s.jwt.Generate(jwt.Payload{
		AdminID:   admin.ID,
		Email:     admin.Email,
		AdminName: admin.Name,
		Role:      admin.RoleCode,
	})
	if err != nil {
		log.ErrorContext(ctx, "failed to generate access jwt token", "admin_id", admin.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoDB.UpdateAdminLastLogin(ctx, admin.ID, s.clock.Now()); err != nil {
		log.WarnContext(ctx, "failed to repo update admin last login", "admin_id", admin.ID, "error", err)
	}

	log.InfoContext(ctx, "admin logged in", "admin_id", admin.ID, "role", admin.RoleCode)

	return &LoginOutput{
		AdminID:     admin.ID,
		AdminName:   admin.Name,
		FirstName:   admin.FirstName,
		LastName:    admin.LastName,
		Email:       admin.Email,
		Role:        admin.RoleCode,
		RoleName:    admin.RoleName,
		Status:      admin.StatusCode,
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		ExpiresAt:   token.ExpiresAt,
	}, nil
}
