package entity

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("auth: validation failed")
	ErrRateLimit  = errors.New("auth: rate limited")

	ErrInvalidProcess  = errors.New("auth: invalid process id")
	ErrAlreadyUsed     = errors.New("auth: otp already used")
	ErrExpired         = errors.New("auth: otp expired")
	ErrInvalidCode     = errors.New("auth: invalid otp code")
	ErrTooManyAttempts = errors.New("auth: too many failed attempts")
	ErrOTPNotVerified  = errors.New("auth: otp not verified")

	ErrAdminNotFound      = errors.New("auth: admin not found")
	ErrAccountDeactivated = errors.New("auth: account deactivated")
	ErrAccountInactive    = errors.New("auth: account not active")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
)

// Rate limit kinds. Each matches ErrRateLimit under errors.Is.
var (
	ErrCooldown    = fmt.Errorf("%w: resend cooldown", ErrRateLimit)
	ErrDeviceQuota = fmt.Errorf("%w: device quota", ErrRateLimit)
	ErrGlobalQuota = fmt.Errorf("%w: global quota", ErrRateLimit)
)

// Validation kinds. Each matches ErrValidation under errors.Is.
var (
	ErrEmailRequired   = fmt.Errorf("%w: email required", ErrValidation)
	ErrEmailRegistered = fmt.Errorf("%w: email already registered", ErrValidation)
	ErrAdminNameTaken  = fmt.Errorf("%w: admin name already taken", ErrValidation)
)
