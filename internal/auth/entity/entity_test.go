package entity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	for _, err := range []error{ErrCooldown, ErrDeviceQuota, ErrGlobalQuota} {
		assert.ErrorIs(t, err, ErrRateLimit)
		assert.NotErrorIs(t, err, ErrValidation)
	}

	for _, err := range []error{ErrEmailRequired, ErrEmailRegistered, ErrAdminNameTaken} {
		assert.ErrorIs(t, err, ErrValidation)
	}

	assert.False(t, errors.Is(ErrCooldown, ErrDeviceQuota))
}

func TestOwner_Registered(t *testing.T) {
	id := int64(9)
	assert.True(t, Owner{AdminID: &id, Email: "a@b.com"}.Registered())
	assert.False(t, Owner{Email: "a@b.com"}.Registered())
}

func TestOTPRecord_State(t *testing.T) {
	assert.Equal(t, OTPStateCreated, OTPRecord{IsValid: true}.State())
	assert.Equal(t, OTPStateVerified, OTPRecord{IsValid: true, IsVerified: true}.State())
	assert.Equal(t, OTPStateVerified, OTPRecord{IsVerified: true}.State())
	assert.Equal(t, OTPStateInvalidated, OTPRecord{}.State())
}

func TestAdmin_StatusLabel(t *testing.T) {
	assert.Equal(t, "suspended", Admin{StatusCode: "SUS", StatusName: "Suspended"}.StatusLabel())
	assert.Equal(t, "pen", Admin{StatusCode: "PEN"}.StatusLabel())
}
