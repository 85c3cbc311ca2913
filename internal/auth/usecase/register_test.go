package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/shandysiswandi/adminauth/internal/auth/entity"
	"github.com/shandysiswandi/adminauth/internal/pkg/goerror"
	"github.com/shandysiswandi/adminauth/internal/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerInput(email, processID string) RegisterInput {
	return RegisterInput{
		AdminName: "newadmin",
		FirstName: "New",
		LastName:  "Admin",
		Email:     email,
		Phone:     "9876511111",
		Password:  "Secret123!",
		ProcessID: processID,
		City:      "Bengaluru",
		Pincode:   "560034",
		Device:    device("device_1", ipKolkata),
	}
}

// verifiedUnregistered issues and verifies an unregistered OTP and returns its process id.
func verifiedUnregistered(t *testing.T, h *harness, email string) string {
	t.Helper()

	sent, code := sendUnregistered(t, h, email, ipKolkata)
	_, err := verifyUnregistered(h, email, code, sent.ProcessID, ipKolkata)
	require.NoError(t, err)
	return sent.ProcessID
}

func requireCode(t *testing.T, err error, kind error, code goerror.Code) {
	t.Helper()

	require.ErrorIs(t, err, kind)
	var ge *goerror.Error
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, code, ge.Code())
}

func TestRegister(t *testing.T) {
	h := newHarness(t, "app: {}", activeAdmin(t))
	ctx := context.Background()

	processID := verifiedUnregistered(t, h, "New@Example.com")

	out, err := h.uc.Register(ctx, registerInput("NEW@example.com", processID))
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", out.Email)
	assert.Equal(t, "newadmin", out.AdminName)
	assert.Equal(t, defaultRoleCode, out.Role)
	assert.Equal(t, entity.AdminStatusActive, out.Status)
	assert.Equal(t, jwt.TokenTypeBearer, out.TokenType)

	clm, err := h.jwt.Verify(out.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, out.AdminID, clm.AdminID)

	admin := h.store.admin(out.AdminID)
	assert.True(t, h.uc.bcrypt.Verify(admin.PasswordHash, "Secret123!"))
	assert.Equal(t, "Bengaluru", h.store.addresses[out.AdminID].City)
	assert.False(t, h.store.record(processID).IsValid, "the verified otp is consumed")

	login, err := h.uc.Login(ctx, LoginInput{Identifier: "newadmin", Password: "Secret123!"})
	require.NoError(t, err)
	assert.Equal(t, out.AdminID, login.AdminID)

	// The email is now claimed, and the consumed otp cannot register another name.
	in := registerInput("new@example.com", processID)
	in.AdminName = "secondadmin"
	_, err = h.uc.Register(ctx, in)
	requireCode(t, err, entity.ErrEmailRegistered, goerror.CodeInvalidInput)
}

func TestRegister_RequiresVerifiedOTP(t *testing.T) {
	t.Run("issued but not verified", func(t *testing.T) {
		h := newHarness(t, "app: {}")
		sent, _ := sendUnregistered(t, h, "new@example.com", ipKolkata)

		_, err := h.uc.Register(context.Background(), registerInput("new@example.com", sent.ProcessID))
		requireCode(t, err, entity.ErrOTPNotVerified, goerror.CodeForbidden)
		assert.Equal(t, "OTP verification required. Please verify the OTP sent to your email.", err.Error())
		assert.True(t, h.store.record(sent.ProcessID).IsValid)
		assert.Empty(t, h.store.admins)
	})

	t.Run("unknown process", func(t *testing.T) {
		h := newHarness(t, "app: {}")

		_, err := h.uc.Register(context.Background(), registerInput("new@example.com", "999999"))
		requireCode(t, err, entity.ErrOTPNotVerified, goerror.CodeForbidden)
	})

	t.Run("verified for another email", func(t *testing.T) {
		h := newHarness(t, "app: {}")
		processID := verifiedUnregistered(t, h, "other@example.com")

		_, err := h.uc.Register(context.Background(), registerInput("new@example.com", processID))
		requireCode(t, err, entity.ErrOTPNotVerified, goerror.CodeForbidden)
		assert.True(t, h.store.record(processID).IsValid)
	})

	t.Run("verified past grace window", func(t *testing.T) {
		h := newHarness(t, "app: {}")
		processID := verifiedUnregistered(t, h, "new@example.com")

		h.clock.Advance(15 * time.Minute)
		_, err := h.uc.Register(context.Background(), registerInput("new@example.com", processID))
		requireCode(t, err, entity.ErrExpired, goerror.CodeGone)
		assert.False(t, h.store.record(processID).IsValid)
	})

	t.Run("configured grace window", func(t *testing.T) {
		h := newHarness(t, "modules: {auth: {otp: {verified_grace_minutes: 30}}}")
		processID := verifiedUnregistered(t, h, "new@example.com")

		h.clock.Advance(29 * time.Minute)
		_, err := h.uc.Register(context.Background(), registerInput("new@example.com", processID))
		require.NoError(t, err)
	})

	t.Run("consumed between lookup and insert", func(t *testing.T) {
		h := newHarness(t, "app: {}")
		processID := verifiedUnregistered(t, h, "new@example.com")

		h.store.afterValidLookup = func(m *memStore, rec entity.OTPRecord) {
			m.afterValidLookup = nil
			require.NoError(t, m.update(rec.ID, func(r *entity.OTPRecord) { r.IsValid = false }))
		}

		_, err := h.uc.Register(context.Background(), registerInput("new@example.com", processID))
		requireCode(t, err, entity.ErrAlreadyUsed, goerror.CodeConflict)
	})
}

func TestRegister_Rejections(t *testing.T) {
	taken := entity.Admin{ID: 7, Name: "newadmin", Email: "taken@example.com", StatusCode: entity.AdminStatusActive}

	t.Run("admin name taken ignoring case", func(t *testing.T) {
		h := newHarness(t, "app: {}", taken)
		processID := verifiedUnregistered(t, h, "new@example.com")

		in := registerInput("new@example.com", processID)
		in.AdminName = "NewAdmin"
		_, err := h.uc.Register(context.Background(), in)
		requireCode(t, err, entity.ErrAdminNameTaken, goerror.CodeInvalidInput)
		assert.Equal(t, "Admin name already taken", err.Error())
		assert.True(t, h.store.record(processID).IsValid)
	})

	tests := []struct {
		name   string
		mutate func(in *RegisterInput)
	}{
		{name: "weak password", mutate: func(in *RegisterInput) { in.Password = "password123" }},
		{name: "admin name with symbols", mutate: func(in *RegisterInput) { in.AdminName = "new-admin" }},
		{name: "short phone", mutate: func(in *RegisterInput) { in.Phone = "98765" }},
		{name: "unknown role", mutate: func(in *RegisterInput) { in.RoleCode = "super_admin" }},
		{name: "bad pincode", mutate: func(in *RegisterInput) { in.Pincode = "5600" }},
		{name: "short first name", mutate: func(in *RegisterInput) { in.FirstName = "N" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, "app: {}")

			in := registerInput("new@example.com", "100000")
			tt.mutate(&in)
			_, err := h.uc.Register(context.Background(), in)

			var ge *goerror.Error
			require.ErrorAs(t, err, &ge)
			assert.Equal(t, goerror.TypeValidation, ge.Type())
			assert.Equal(t, goerror.CodeInvalidInput, ge.Code())
		})
	}
}

func TestForgotPassword(t *testing.T) {
	h := newHarness(t, "app: {}", activeAdmin(t))
	ctx := context.Background()

	sent, err := h.uc.SendOTP(ctx, SendOTPInput{Identifier: "jane_admin", Device: device("device_1", ipKolkata)})
	require.NoError(t, err)

	in := ForgotPasswordInput{
		Identifier:  "JANE@example.com",
		NewPassword: "NewPass1!",
		ProcessID:   sent.ProcessID,
		Device:      device("device_1", ipKolkata),
	}

	_, err = h.uc.ForgotPassword(ctx, in)
	requireCode(t, err, entity.ErrOTPNotVerified, goerror.CodeForbidden)

	_, err = h.uc.VerifyOTP(ctx, VerifyOTPInput{
		Identifier: "jane_admin",
		OTP:        h.mail.last().Code,
		ProcessID:  sent.ProcessID,
		Device:     device("device_1", ipKolkata),
	})
	require.NoError(t, err)

	out, err := h.uc.ForgotPassword(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, int64(42), out.AdminID)
	assert.Equal(t, "jane@example.com", out.Email)

	_, err = h.uc.Login(ctx, LoginInput{Identifier: "jane_admin", Password: "NewPass1!"})
	require.NoError(t, err)
	_, err = h.uc.Login(ctx, LoginInput{Identifier: "jane_admin", Password: "s3cret-pass"})
	require.ErrorIs(t, err, entity.ErrInvalidCredentials)

	// One verification authorizes one reset.
	in.NewPassword = "Another1!"
	_, err = h.uc.ForgotPassword(ctx, in)
	requireCode(t, err, entity.ErrOTPNotVerified, goerror.CodeForbidden)
	_, err = h.uc.Login(ctx, LoginInput{Identifier: "jane_admin", Password: "NewPass1!"})
	require.NoError(t, err)
}

func TestForgotPassword_Rejections(t *testing.T) {
	suspended := activeAdmin(t)
	suspended.StatusCode = "SUS"
	suspended.StatusName = "Suspended"

	t.Run("inactive account", func(t *testing.T) {
		h := newHarness(t, "app: {}", suspended)

		_, err := h.uc.ForgotPassword(context.Background(), ForgotPasswordInput{
			Identifier: "jane_admin", NewPassword: "NewPass1!", ProcessID: "100000", Device: device("device_1", ipKolkata),
		})
		requireCode(t, err, entity.ErrAccountInactive, goerror.CodeForbidden)
	})

	t.Run("unknown admin", func(t *testing.T) {
		h := newHarness(t, "app: {}")

		_, err := h.uc.ForgotPassword(context.Background(), ForgotPasswordInput{
			Identifier: "nobody@example.com", NewPassword: "NewPass1!", ProcessID: "100000", Device: device("device_1", ipKolkata),
		})
		requireCode(t, err, entity.ErrAdminNotFound, goerror.CodeNotFound)
	})

	t.Run("weak password", func(t *testing.T) {
		h := newHarness(t, "app: {}", activeAdmin(t))

		_, err := h.uc.ForgotPassword(context.Background(), ForgotPasswordInput{
			Identifier: "jane_admin", NewPassword: "newpass", ProcessID: "100000", Device: device("device_1", ipKolkata),
		})
		var ge *goerror.Error
		require.ErrorAs(t, err, &ge)
		assert.Equal(t, goerror.CodeInvalidInput, ge.Code())
	})
}
