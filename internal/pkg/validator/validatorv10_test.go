package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sendInput struct {
	Identifier string `validate:"required,identifier"`
	ProcessID  string `validate:"omitempty,digits6"`
	Password   string `validate:"omitempty,password"`
}

type registerInput struct {
	AdminName string `validate:"required,adminname"`
	Phone     string `validate:"required,phone10"`
	OTP       string `validate:"required,digits"`
}

func TestClassifyIdentifier(t *testing.T) {
	tests := map[string]IdentifierKind{
		"a@b.com":       IdentifierEmail,
		"admin_root":    IdentifierUsername,
		"9876543210":    IdentifierPhone,
		"ab":            IdentifierUnknown,
		"has space@x.y": IdentifierUnknown,
		"98765":         IdentifierUsername,
	}
	for in, want := range tests {
		assert.Equal(t, want, ClassifyIdentifier(in), in)
	}
	assert.True(t, IsEmail("a@b.com"))
	assert.False(t, IsEmail("admin_root"))
}

func TestV10Validator_Validate(t *testing.T) {
	v, err := NewV10Validator()
	require.NoError(t, err)

	assert.NoError(t, v.Validate(sendInput{Identifier: "a@b.com", ProcessID: "123456", Password: "Secret123!"}))

	err = v.Validate(sendInput{Identifier: "x", ProcessID: "12a456", Password: "short"})
	var verr V10ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Identifier must be a valid email, username or 10 digit phone number", verr["identifier"])
	assert.Equal(t, "ProcessID must be exactly 6 digits", verr["process_id"])
	assert.Equal(t, "Password must be 8-72 characters with upper and lower case letters, a number and one of @$!%*?&", verr["password"])

	err = v.Validate(sendInput{})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr, "identifier")
}

func TestIsStrongPassword(t *testing.T) {
	tests := map[string]bool{
		"Secret123!":  true,
		"Secr3t&word": true,
		"secret123!":  false,
		"SECRET123!":  false,
		"Secretabc!":  false,
		"Secret1234":  false,
		"Se1!":        false,
		"Secret123#":  false,
		"":            false,
	}
	for in, want := range tests {
		assert.Equal(t, want, IsStrongPassword(in), in)
	}
}

func TestV10Validator_RegisterRules(t *testing.T) {
	v, err := NewV10Validator()
	require.NoError(t, err)

	assert.NoError(t, v.Validate(registerInput{AdminName: "jane01", Phone: "9876543210", OTP: "123456"}))

	for _, otp := range []string{"+12345", "-12345", "1.2345", "1e5", " 12345"} {
		err = v.Validate(registerInput{AdminName: "jane01", Phone: "9876543210", OTP: otp})
		var verr V10ValidationError
		require.ErrorAs(t, err, &verr, otp)
		assert.Equal(t, "OTP must contain digits only", verr["otp"], otp)
	}

	err = v.Validate(registerInput{AdminName: "jane_01", Phone: "98765", OTP: "1"})
	var verr V10ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "AdminName must be 3-50 letters or numbers", verr["admin_name"])
	assert.Equal(t, "Phone must be exactly 10 digits", verr["phone"])
	assert.NotContains(t, verr, "otp")
}
