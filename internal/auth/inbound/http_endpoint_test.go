package inbound

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/adminauth/internal/auth/entity"
	"github.com/shandysiswandi/adminauth/internal/auth/usecase"
	"github.com/shandysiswandi/adminauth/internal/pkg/goerror"
	"github.com/shandysiswandi/adminauth/internal/pkg/instrument"
	"github.com/shandysiswandi/adminauth/internal/pkg/jwt"
	"github.com/shandysiswandi/adminauth/internal/pkg/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUC struct {
	mock.Mock
}

func (m *mockUC) SendOTP(ctx context.Context, in usecase.SendOTPInput) (*usecase.SendOTPOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*usecase.SendOTPOutput)
	return out, args.Error(1)
}

func (m *mockUC) VerifyOTP(ctx context.Context, in usecase.VerifyOTPInput) (*usecase.VerifyOTPOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*usecase.VerifyOTPOutput)
	return out, args.Error(1)
}

func (m *mockUC) Login(ctx context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*usecase.LoginOutput)
	return out, args.Error(1)
}

func (m *mockUC) Register(ctx context.Context, in usecase.RegisterInput) (*usecase.RegisterOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*usecase.RegisterOutput)
	return out, args.Error(1)
}

func (m *mockUC) ForgotPassword(ctx context.Context, in usecase.ForgotPasswordInput) (*usecase.ForgotPasswordOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*usecase.ForgotPasswordOutput)
	return out, args.Error(1)
}

func (m *mockUC) Stats(ctx context.Context) (*entity.Stats, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).(*entity.Stats)
	return out, args.Error(1)
}

type tokenJWT struct{}

func (tokenJWT) Generate(jwt.Payload) (jwt.Token, error) { return jwt.Token{}, nil }

func (tokenJWT) Verify(token string) (jwt.Claims, error) {
	if token != "admin-token" {
		return jwt.Claims{}, jwt.ErrInvalidToken
	}
	return jwt.Claims{AdminID: 42, Role: "super_admin"}, nil
}

type staticID string

func (s staticID) Generate() string { return string(s) }

const macUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_4) AppleWebKit/605.1.15"

func newServer(t *testing.T, m *mockUC) *router.Router {
	t.Helper()

	r := router.NewRouter(router.Config{
		UUID:       staticID("cid-test"),
		JWT:        tokenJWT{},
		Instrument: instrument.NewNoop(),
	})
	RegisterHTTPEndpoint(r, m)
	return r
}

func do(r http.Handler, method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", macUA)
	req.Header.Set("X-Forwarded-For", "203.0.113.10")
	for k, v := range hdr {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Message string            `json:"message"`
	Data    map[string]any    `json:"data"`
	Error   map[string]string `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestHTTPEndpoint_SendOTP(t *testing.T) {
	m := new(mockUC)
	srv := newServer(t, m)

	wantDevice := entity.DeviceInfo{
		DeviceID:   "device_" + fingerprint(macUA, "203.0.113.10"),
		DeviceName: "Mac",
		UserAgent:  macUA,
		IPAddress:  "203.0.113.10",
	}

	m.On("SendOTP", mock.Anything, usecase.SendOTPInput{
		Identifier:     "a@b.com",
		IsUnregistered: true,
		Device:         wantDevice,
	}).Return(&usecase.SendOTPOutput{
		Email:            "a@b.com",
		ProcessID:        "100000",
		ExpiresAt:        "2026-03-10 10:05:00",
		ExpiresInMinutes: 5,
		Timezone:         "Asia/Kolkata",
		DeviceName:       "Mac",
		IsUnregistered:   true,
	}, nil).Once()

	rec := do(srv, http.MethodPost, router.RouteOTPSend, `{"identifier":"a@b.com","is_unregistered":true}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	env := decode(t, rec)
	assert.Equal(t, "OTP sent successfully to unregistered email", env.Message)
	assert.Equal(t, "100000", env.Data["process_id"])
	assert.Equal(t, "2026-03-10 10:05:00", env.Data["expires_at"])
	assert.Equal(t, "Asia/Kolkata", env.Data["timezone"])
	assert.Equal(t, wantDevice.DeviceID, env.Data["device_id"])
	assert.InDelta(t, 5, env.Data["expires_in_minutes"], 0)
	assert.Nil(t, env.Data["admin_id"])
	m.AssertExpectations(t)
}

func TestHTTPEndpoint_SendOTP_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantMsg    string
		wantRetry  string
	}{
		{
			name:       "unknown field",
			body:       `{"identifier":"a@b.com","extra":1}`,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid request body",
		},
		{
			name:       "cooldown",
			body:       `{"identifier":"a@b.com"}`,
			err:        goerror.NewRateLimit(entity.ErrCooldown, "Please wait 40 seconds before requesting new OTP", 40*time.Second),
			wantStatus: http.StatusTooManyRequests,
			wantMsg:    "Please wait 40 seconds before requesting new OTP",
			wantRetry:  "40",
		},
		{
			name:       "email already registered",
			body:       `{"identifier":"a@b.com","is_unregistered":true}`,
			err:        goerror.NewValidation(entity.ErrEmailRegistered, "Email already registered"),
			wantStatus: http.StatusUnprocessableEntity,
			wantMsg:    "Email already registered",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(mockUC)
			if tt.err != nil {
				m.On("SendOTP", mock.Anything, mock.Anything).Return(nil, tt.err).Once()
			}

			rec := do(newServer(t, m), http.MethodPost, router.RouteOTPSend, tt.body, nil)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantMsg, decode(t, rec).Message)
			assert.Equal(t, tt.wantRetry, rec.Header().Get(router.HeaderRetryAfter))
			m.AssertExpectations(t)
		})
	}
}

func TestHTTPEndpoint_VerifyOTP(t *testing.T) {
	m := new(mockUC)
	srv := newServer(t, m)
	adminID := int64(42)

	m.On("VerifyOTP", mock.Anything, mock.MatchedBy(func(in usecase.VerifyOTPInput) bool {
		return in.Identifier == "jane_admin" && in.OTP == "123456" && in.ProcessID == "100000" &&
			!in.IsUnregistered && in.Device.IPAddress == "203.0.113.10"
	})).Return(&usecase.VerifyOTPOutput{
		AdminID:    &adminID,
		Email:      "jane@example.com",
		ProcessID:  "100000",
		VerifiedAt: "2026-03-10 10:00:30",
		Timezone:   "Asia/Kolkata",
		DeviceName: "Mac",
	}, nil).Once()

	rec := do(srv, http.MethodPost, router.RouteOTPVerify,
		`{"identifier":"jane_admin","otp":"123456","process_id":"100000"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	env := decode(t, rec)
	assert.Equal(t, "OTP verified successfully", env.Message)
	assert.Equal(t, true, env.Data["verified"])
	assert.Equal(t, "2026-03-10 10:00:30", env.Data["verified_at"])
	assert.InDelta(t, 42, env.Data["admin_id"], 0)
	m.AssertExpectations(t)
}

func TestHTTPEndpoint_VerifyOTP_Expired(t *testing.T) {
	m := new(mockUC)
	m.On("VerifyOTP", mock.Anything, mock.Anything).
		Return(nil, goerror.NewBusinessWrap(entity.ErrExpired, "OTP has expired. Please request a new OTP.", goerror.CodeGone)).Once()

	rec := do(newServer(t, m), http.MethodPost, router.RouteOTPVerify,
		`{"identifier":"a@b.com","otp":"123456","process_id":"100000","is_unregistered":true}`, nil)
	assert.Equal(t, http.StatusGone, rec.Code)
	assert.Equal(t, "OTP has expired. Please request a new OTP.", decode(t, rec).Message)
}

func TestHTTPEndpoint_Login(t *testing.T) {
	m := new(mockUC)
	exp := time.Date(2026, 3, 10, 5, 30, 0, 0, time.UTC)

	m.On("Login", mock.Anything, usecase.LoginInput{Identifier: "jane_admin", Password: "s3cret-pass"}).
		Return(&usecase.LoginOutput{
			AdminID:     42,
			AdminName:   "jane_admin",
			Email:       "jane@example.com",
			Role:        "super_admin",
			AccessToken: "token",
			TokenType:   jwt.TokenTypeBearer,
			ExpiresAt:   exp,
		}, nil).Once()

	rec := do(newServer(t, m), http.MethodPost, router.RouteLogin, `{"identifier":"jane_admin","password":"s3cret-pass"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	env := decode(t, rec)
	assert.Equal(t, "Login successful", env.Message)
	assert.Equal(t, "42", env.Data["admin_id"])
	assert.Equal(t, "Bearer", env.Data["token_type"])
	assert.Equal(t, "2026-03-10T05:30:00Z", env.Data["expires_at"])
}

func TestHTTPEndpoint_Stats(t *testing.T) {
	m := new(mockUC)
	srv := newServer(t, m)

	rec := do(srv, http.MethodGet, router.RouteOTPStats, "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	m.On("Stats", mock.MatchedBy(func(ctx context.Context) bool {
		clm := jwt.GetAuth(ctx)
		return clm != nil && clm.AdminID == 42
	})).Return(&entity.Stats{Total: 3, Verified: 1, Active: 1, Invalid: 1, Unregistered: 2, Registered: 1}, nil).Once()

	rec = do(srv, http.MethodGet, router.RouteOTPStats, "", map[string]string{"Authorization": "Bearer admin-token"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	env := decode(t, rec)
	assert.InDelta(t, 3, env.Data["total_otps"], 0)
	assert.InDelta(t, 2, env.Data["unregistered_otps"], 0)
	m.AssertExpectations(t)
}

func TestHTTPEndpoint_Register(t *testing.T) {
	m := new(mockUC)
	exp := time.Date(2026, 3, 10, 5, 30, 0, 0, time.UTC)

	m.On("Register", mock.Anything, mock.MatchedBy(func(in usecase.RegisterInput) bool {
		return in.AdminName == "newadmin" && in.Email == "new@example.com" && in.Phone == "9876511111" &&
			in.Password == "Secret123!" && in.ProcessID == "100000" && in.City == "Bengaluru" &&
			in.Device.IPAddress == "203.0.113.10"
	})).Return(&usecase.RegisterOutput{
		AdminID:     7,
		AdminName:   "newadmin",
		Email:       "new@example.com",
		Role:        "admin",
		Status:      entity.AdminStatusActive,
		AccessToken: "token",
		TokenType:   jwt.TokenTypeBearer,
		ExpiresAt:   exp,
	}, nil).Once()

	rec := do(newServer(t, m), http.MethodPost, router.RouteRegister, `{
		"admin_name":"newadmin","first_name":"New","last_name":"Admin","email":"new@example.com",
		"phone_number":"9876511111","password":"Secret123!","process_id":"100000","city":"Bengaluru"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	env := decode(t, rec)
	assert.Equal(t, "Registration successful", env.Message)
	assert.Equal(t, "7", env.Data["admin_id"])
	assert.Equal(t, "token", env.Data["access_token"])
	m.AssertExpectations(t)
}

func TestHTTPEndpoint_Register_NotVerified(t *testing.T) {
	m := new(mockUC)
	m.On("Register", mock.Anything, mock.Anything).Return(nil, goerror.NewBusinessWrap(
		entity.ErrOTPNotVerified, "OTP verification required. Please verify the OTP sent to your email.", goerror.CodeForbidden,
	)).Once()

	rec := do(newServer(t, m), http.MethodPost, router.RouteRegister, `{"email":"new@example.com","process_id":"100000"}`, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "OTP verification required. Please verify the OTP sent to your email.", decode(t, rec).Message)
}

func TestHTTPEndpoint_ForgotPassword(t *testing.T) {
	m := new(mockUC)
	m.On("ForgotPassword", mock.Anything, mock.MatchedBy(func(in usecase.ForgotPasswordInput) bool {
		return in.Identifier == "jane_admin" && in.NewPassword == "NewPass1!" && in.ProcessID == "100000" &&
			in.Device.IPAddress == "203.0.113.10"
	})).Return(&usecase.ForgotPasswordOutput{AdminID: 42, Email: "jane@example.com"}, nil).Once()

	rec := do(newServer(t, m), http.MethodPost, router.RouteForgotPassword,
		`{"identifier":"jane_admin","new_password":"NewPass1!","process_id":"100000"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	env := decode(t, rec)
	assert.Equal(t, "Password reset successful", env.Message)
	assert.Equal(t, "42", env.Data["admin_id"])
	m.AssertExpectations(t)

	m.On("ForgotPassword", mock.Anything, mock.Anything).Return(nil, goerror.NewBusinessWrap(
		entity.ErrAlreadyUsed, "This OTP has already been used. Please request a new OTP.", goerror.CodeConflict,
	)).Once()
	rec = do(newServer(t, m), http.MethodPost, router.RouteForgotPassword,
		`{"identifier":"jane_admin","new_password":"NewPass1!","process_id":"100000"}`, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}
