package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shandysiswandi/adminauth/internal/auth/entity"
	"github.com/shandysiswandi/adminauth/internal/pkg/goerror"
	"github.com/shandysiswandi/adminauth/internal/pkg/instrument"
	"github.com/shandysiswandi/adminauth/internal/pkg/jwt"
)

const defaultRoleCode = "admin"

type RegisterInput struct {
	AdminName  string `validate:"required,adminname"`
	FirstName  string `validate:"required,min=2,max=50"`
	MiddleName string `validate:"omitempty,max=50"`
	LastName   string `validate:"required,min=2,max=50"`
	Email      string `validate:"required,max=255"`
	Phone      string `validate:"required,phone10"`
	Password   string `validate:"required,password"`
	RoleCode   string `validate:"omitempty,oneof=admin auditor"`
	ProcessID  string `validate:"required,digits6"`
	Area       string `validate:"omitempty,max=100"`
	City       string `validate:"omitempty,max=100"`
	State      string `validate:"omitempty,max=100"`
	Pincode    string `validate:"omitempty,digits6"`
	Device     entity.DeviceInfo `validate:"-"`
}

type RegisterOutput struct {
	AdminID     int64
	AdminName   string
	FirstName   string
	LastName    string
	Email       string
	Role        string
	Status      string
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

// Register creates an admin account for an email whose unregistered OTP was
// verified under ProcessID. The OTP is consumed with the insert.
func (s *Usecase) Register(ctx context.Context, in RegisterInput) (*RegisterOutput, error) {
	ctx, span := s.startSpan(ctx, "Register")
	defer span.End()

	in.Email = normalizeIdentifier(in.Email)
	in.AdminName = strings.TrimSpace(in.AdminName)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.MiddleName = strings.TrimSpace(in.MiddleName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Phone = strings.TrimSpace(in.Phone)
	in.ProcessID = strings.TrimSpace(in.ProcessID)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	log := instrument.Log(instrument.CategoryAuth)

	owner, err := s.resolveOwner(ctx, in.Email, true, true)
	if err != nil {
		return nil, err
	}

	taken, err := s.repoDB.AdminNameTaken(ctx, in.AdminName)
	if err != nil {
		log.ErrorContext(ctx, "failed to repo check admin name taken", "admin_name", in.AdminName, "error", err)
		return nil, goerror.NewServer(err)
	}
	if taken {
		log.WarnContext(ctx, "admin name already taken", "admin_name", in.AdminName)
		return nil, goerror.NewValidation(entity.ErrAdminNameTaken, "Admin name already taken")
	}

	rec, err := s.verifiedOTP(ctx, owner, in.ProcessID, in.Device)
	if err != nil {
		return nil, err
	}

	passHash, err := s.bcrypt.Hash(in.Password)
	if err != nil {
		log.ErrorContext(ctx, "failed to hash password", "error", err)
		return nil, goerror.NewServer(err)
	}

	role := in.RoleCode
	if role == "" {
		role = defaultRoleCode
	}

	admin := entity.Admin{
		ID:           s.uid.Generate(),
		Name:         in.AdminName,
		FirstName:    in.FirstName,
		MiddleName:   in.MiddleName,
		LastName:     in.LastName,
		Email:        owner.Email,
		Phone:        in.Phone,
		RoleCode:     role,
		StatusCode:   entity.AdminStatusActive,
		PasswordHash: string(passHash),
	}
	addr := entity.AdminAddress{
		Area:    strings.TrimSpace(in.Area),
		City:    strings.TrimSpace(in.City),
		State:   strings.TrimSpace(in.State),
		Pincode: strings.TrimSpace(in.Pincode),
	}

	err = s.repoDB.CreateAdmin(ctx, admin, addr, rec.ID)
	if errors.Is(err, goerror.ErrNotFound) {
		log.WarnContext(ctx, "verified otp consumed concurrently", "otp_id", rec.ID)
		return nil, errAlreadyUsed()
	}
	if errors.Is(err, goerror.ErrConflict) {
		log.WarnContext(ctx, "admin created concurrently", "email", admin.Email, "admin_name", admin.Name)
		return nil, goerror.NewValidation(entity.ErrEmailRegistered, "Email already registered")
	}
	if err != nil {
		log.ErrorContext(ctx, "failed to repo create admin", "email", admin.Email, "error", err)
		return nil, goerror.NewServer(err)
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

	log.InfoContext(ctx, "admin registered", "admin_id", admin.ID, "role", admin.RoleCode, "process_id", rec.ProcessID)

	return &RegisterOutput{
		AdminID:     admin.ID,
		AdminName:   admin.Name,
		FirstName:   admin.FirstName,
		LastName:    admin.LastName,
		Email:       admin.Email,
		Role:        admin.RoleCode,
		Status:      admin.StatusCode,
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		ExpiresAt:   token.ExpiresAt,
	}, nil
}
