package usecase

import (
	"context"
	"time"

	"github.com/shandysiswandi/adminauth/internal/auth/entity"
	"github.com/shandysiswandi/adminauth/internal/pkg/clock"
	"github.com/shandysiswandi/adminauth/internal/pkg/config"
	"github.com/shandysiswandi/adminauth/internal/pkg/goerror"
	"github.com/shandysiswandi/adminauth/internal/pkg/hash"
	"github.com/shandysiswandi/adminauth/internal/pkg/instrument"
	"github.com/shandysiswandi/adminauth/internal/pkg/jwt"
	"github.com/shandysiswandi/adminauth/internal/pkg/uid"
	"github.com/shandysiswandi/adminauth/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type OTPMail struct {
	Email         string
	Code          string
	DeviceName    string
	ExpiryMinutes int
}

type OTPIssuedEvent struct {
	ProcessID  string
	AdminID    *int64
	Email      string
	DeviceID   string
	DeviceName string
	ExpiresAt  string
	Timezone   string
}

type OTPVerifiedEvent struct {
	ProcessID  string
	AdminID    *int64
	Email      string
	DeviceID   string
	VerifiedAt string
	Timezone   string
}

type OTPInvalidatedEvent struct {
	ProcessID string
	AdminID   *int64
	Email     string
	State     entity.OTPState
}

type repoDB interface {
	FindAdminByIdentifier(ctx context.Context, identifier string) (*entity.Admin, error)
	EmailRegistered(ctx context.Context, email string) (bool, error)
	AdminNameTaken(ctx context.Context, name string) (bool, error)
	UpdateAdminLastLogin(ctx context.Context, adminID int64, at time.Time) error
	CreateAdmin(ctx context.Context, admin entity.Admin, addr entity.AdminAddress, otpID int64) error
	ResetAdminPassword(ctx context.Context, adminID, otpID int64, passwordHash string) error

	GetLatestActiveOTP(ctx context.Context, owner entity.Owner, deviceID string) (*entity.OTPRecord, error)
	GetLatestValidOTP(ctx context.Context, owner entity.Owner, processID string) (*entity.OTPRecord, error)
	CountDeviceOTPSince(ctx context.Context, owner entity.Owner, deviceID, since string) (int, error)
	CountOTPSince(ctx context.Context, owner entity.Owner, since string) (int, error)
	ListActiveOTP(ctx context.Context) ([]entity.OTPRecord, error)
	GetOTPStats(ctx context.Context) (*entity.Stats, error)

	CreateOTP(ctx context.Context, rec entity.OTPRecord) error
	InvalidateOTP(ctx context.Context, id int64) error
	UpdateOTPFailedAttempts(ctx context.Context, id int64, failed int, invalidate bool) error
	MarkOTPVerified(ctx context.Context, id int64, verifiedAt string) error
	DeleteResolvedOTPBefore(ctx context.Context, cutoff string) (int64, error)
}

type repoMail interface {
	SendOTP(ctx context.Context, msg OTPMail) error
}

type repoMessaging interface {
	PublishOTPIssued(ctx context.Context, msg OTPIssuedEvent) error
	PublishOTPVerified(ctx context.Context, msg OTPVerifiedEvent) error
	PublishOTPInvalidated(ctx context.Context, msg OTPInvalidatedEvent) error
}

// timezone resolves device-local time from a client IP.
type timezone interface {
	Now(ctx context.Context, ip string) (time.Time, string)
	ParseIn(ctx context.Context, s, ip string) (time.Time, error)
}

type enforcer interface {
	Enforce(rvals ...any) (bool, error)
}

type Usecase struct {
	repoDB        repoDB
	repoMail      repoMail
	repoMessaging repoMessaging
	tz            timezone
	validator     validator.Validator
	cfg           config.Config
	hmac          hash.Hash
	bcrypt        hash.Hash
	uid           uid.NumberID
	clock         clock.Clocker
	jwt           jwt.JWT
	ins           instrument.Instrumentation
	enforcer      enforcer
}

type Dependency struct {
	RepoDB        repoDB
	RepoMail      repoMail
	RepoMessaging repoMessaging
	Timezone      timezone
	Validator     validator.Validator
	Config        config.Config
	HMAC          hash.Hash
	Bcrypt        hash.Hash
	UID           uid.NumberID
	Clock         clock.Clocker
	JWT           jwt.JWT
	Instrument    instrument.Instrumentation
	Enforcer      enforcer
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoMail:      dep.RepoMail,
		repoMessaging: dep.RepoMessaging,
		tz:            dep.Timezone,
		validator:     dep.Validator,
		cfg:           dep.Config,
		hmac:          dep.HMAC,
		bcrypt:        dep.Bcrypt,
		uid:           dep.UID,
		clock:         dep.Clock,
		jwt:           dep.JWT,
		ins:           dep.Instrument,
		enforcer:      dep.Enforcer,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("auth.usecase").Start(ctx, name)
}

// otpSettings is read per call so a hot reloaded config applies to the next request.
type otpSettings struct {
	expiry        time.Duration
	length        int
	maxAttempts   int
	maxVerify     int
	cooldown      time.Duration
	quotaWindow   time.Duration
	retention     time.Duration
	grace         time.Duration
	expiryMinutes int
	windowMinutes int
}

func (s *Usecase) settings() otpSettings {
	intOr := func(key string, def int) int {
		if s.cfg == nil {
			return def
		}
		if v := s.cfg.GetInt(key); v > 0 {
			return v
		}
		return def
	}

	expiry := intOr("modules.auth.otp.expiry_minutes", 5)
	window := intOr("modules.auth.otp.quota_window_minutes", 5)

	return otpSettings{
		expiry:        time.Duration(expiry) * time.Minute,
		length:        intOr("modules.auth.otp.length", 6),
		maxAttempts:   intOr("modules.auth.otp.max_attempts", 5),
		maxVerify:     intOr("modules.auth.otp.max_verification_attempts", 3),
		cooldown:      time.Duration(intOr("modules.auth.otp.resend_cooldown_seconds", 60)) * time.Second,
		quotaWindow:   time.Duration(window) * time.Minute,
		retention:     time.Duration(intOr("modules.auth.otp.retention_hours", 24)) * time.Hour,
		grace:         time.Duration(intOr("modules.auth.otp.verified_grace_minutes", 15)) * time.Minute,
		expiryMinutes: expiry,
		windowMinutes: window,
	}
}

// ensureAdminAllowed applies the account gate shared by login and the registered OTP path.
func (s *Usecase) ensureAdminAllowed(ctx context.Context, admin *entity.Admin) error {
	log := instrument.Log(instrument.CategoryAuth)

	switch {
	case admin.IsDeleted:
		log.WarnContext(ctx, "admin account is deleted", "admin_id", admin.ID)
		return goerror.NewBusinessWrap(entity.ErrAdminNotFound, "User not found", goerror.CodeNotFound)

	case admin.IsDeactivated:
		log.WarnContext(ctx, "admin account is deactivated", "admin_id", admin.ID)
		return goerror.NewBusinessWrap(entity.ErrAccountDeactivated, "Account is deactivated", goerror.CodeForbidden)

	case admin.StatusCode != entity.AdminStatusActive:
		log.WarnContext(ctx, "admin account is not active", "admin_id", admin.ID, "status", admin.StatusCode)
		return goerror.NewBusinessWrap(entity.ErrAccountInactive, "Account is "+admin.StatusLabel(), goerror.CodeForbidden)

	default:
		return nil
	}
}

func (s *Usecase) authenticatedAndAuthorized(ctx context.Context, obj, act string) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	ok, err := s.enforcer.Enforce(clm.Role, obj, act)
	if err != nil {
		instrument.Log(instrument.CategoryAuth).ErrorContext(ctx, "failed to check authorization", "admin_id", clm.AdminID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !ok {
		instrument.Log(instrument.CategoryAuth).WarnContext(ctx, "admin not allowed", "admin_id", clm.AdminID, "role", clm.Role, "obj", obj, "act", act)
		return nil, goerror.NewBusiness("Account not allowed", goerror.CodeForbidden)
	}

	return clm, nil
}
