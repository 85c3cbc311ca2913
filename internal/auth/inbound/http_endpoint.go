package inbound

import (
	"github.com/shandysiswandi/adminauth/internal/auth/usecase"
	"github.com/shandysiswandi/adminauth/internal/pkg/router"
)

// HTTPEndpoint exposes HTTP handlers for admin login and the OTP lifecycle.
type HTTPEndpoint struct {
	uc uc
}

// Login authenticates an admin with a password and returns an access token.
// @Summary Authenticate admin
// @Description Accepts an email, username or phone with a password and returns a bearer token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login payload"
// @Success 200 {object} router.successResponse{data=LoginResponse} "Authentication result"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Invalid credentials"
// @Failure 403 {object} router.errorResponse "Account is deactivated or not active"
// @Failure 404 {object} router.errorResponse "User not found"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Too many requests"
// @Router /api/v1/auth/login [post]
func (h *HTTPEndpoint) Login(r *router.Request) (any, error) {
	var req LoginRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Login(r.Context(), usecase.LoginInput{
		Identifier: req.Identifier,
		Password:   req.Password,
	})
	if err != nil {
		return nil, err
	}

	return LoginResponse{
		AdminID:     resp.AdminID,
		AdminName:   resp.AdminName,
		FirstName:   resp.FirstName,
		LastName:    resp.LastName,
		Email:       resp.Email,
		Role:        resp.Role,
		RoleName:    resp.RoleName,
		Status:      resp.Status,
		AccessToken: resp.AccessToken,
		TokenType:   resp.TokenType,
		ExpiresAt:   resp.ExpiresAt,
	}, nil
}

// Register creates an admin account for an email verified through the unregistered OTP flow.
// @Summary Register admin
// @Description Requires the process_id of an unregistered OTP verified for the same email. The OTP is consumed.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Register payload"
// @Success 200 {object} router.successResponse{data=RegisterResponse} "Registration result"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 403 {object} router.errorResponse "OTP verification required"
// @Failure 409 {object} router.errorResponse "OTP already used"
// @Failure 410 {object} router.errorResponse "OTP verification expired"
// @Failure 422 {object} router.errorResponse "Validation error, email registered or admin name taken"
// @Failure 429 {object} router.errorResponse "Too many requests"
// @Router /api/v1/auth/register [post]
func (h *HTTPEndpoint) Register(r *router.Request) (any, error) {
	var req RegisterRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Register(r.Context(), usecase.RegisterInput{
		AdminName:  req.AdminName,
		FirstName:  req.FirstName,
		MiddleName: req.MiddleName,
		LastName:   req.LastName,
		Email:      req.Email,
		Phone:      req.PhoneNumber,
		Password:   req.Password,
		RoleCode:   req.Role,
		ProcessID:  req.ProcessID,
		Area:       req.Area,
		City:       req.City,
		State:      req.State,
		Pincode:    req.Pincode,
		Device:     deviceInfo(r),
	})
	if err != nil {
		return nil, err
	}

	return RegisterResponse{
		AdminID:     resp.AdminID,
		AdminName:   resp.AdminName,
		FirstName:   resp.FirstName,
		LastName:    resp.LastName,
		Email:       resp.Email,
		Role:        resp.Role,
		Status:      resp.Status,
		AccessToken: resp.AccessToken,
		TokenType:   resp.TokenType,
		ExpiresAt:   resp.ExpiresAt,
	}, nil
}

// ForgotPassword replaces the password of an admin who verified a registered OTP.
// @Summary Reset forgotten password
// @Description Requires the process_id of an OTP verified by the same admin. The OTP is consumed.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body ForgotPasswordRequest true "Forgot password payload"
// @Success 200 {object} router.successResponse{data=ForgotPasswordResponse} "Password reset"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 403 {object} router.errorResponse "OTP verification required or account not active"
// @Failure 404 {object} router.errorResponse "User not found"
// @Failure 409 {object} router.errorResponse "OTP already used"
// @Failure 410 {object} router.errorResponse "OTP verification expired"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Too many requests"
// @Router /api/v1/auth/forgot-password [post]
func (h *HTTPEndpoint) ForgotPassword(r *router.Request) (any, error) {
	var req ForgotPasswordRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.ForgotPassword(r.Context(), usecase.ForgotPasswordInput{
		Identifier:  req.Identifier,
		NewPassword: req.NewPassword,
		ProcessID:   req.ProcessID,
		Device:      deviceInfo(r),
	})
	if err != nil {
		return nil, err
	}

	return ForgotPasswordResponse{AdminID: resp.AdminID, Email: resp.Email}, nil
}

// SendOTP issues a one-time code to the admin, or to an unregistered email.
// @Summary Send OTP
// @Description Issues a 6 digit code bound to the calling device and emails it. The process_id must be sent back on verify.
// @Tags Auth, OTP
// @Accept json
// @Produce json
// @Param request body SendOTPRequest true "Send OTP payload"
// @Success 200 {object} router.successResponse{data=SendOTPResponse} "OTP issued"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 403 {object} router.errorResponse "Account is deactivated or not active"
// @Failure 404 {object} router.errorResponse "User not found"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Cooldown or quota reached"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/auth/otp/send [post]
func (h *HTTPEndpoint) SendOTP(r *router.Request) (any, error) {
	var req SendOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	dev := deviceInfo(r)
	resp, err := h.uc.SendOTP(r.Context(), usecase.SendOTPInput{
		Identifier:     req.Identifier,
		IsUnregistered: req.IsUnregistered,
		Device:         dev,
	})
	if err != nil {
		return nil, err
	}

	return SendOTPResponse{
		AdminID:          resp.AdminID,
		Email:            resp.Email,
		ProcessID:        resp.ProcessID,
		DeviceID:         dev.DeviceID,
		DeviceName:       resp.DeviceName,
		ExpiresAt:        resp.ExpiresAt,
		ExpiresInMinutes: resp.ExpiresInMinutes,
		Timezone:         resp.Timezone,
		IsUnregistered:   resp.IsUnregistered,
	}, nil
}

// VerifyOTP checks a code against the record named by process_id.
// @Summary Verify OTP
// @Description Verifies the code issued by send. Expiry is judged in the timezone of the calling IP.
// @Tags Auth, OTP
// @Accept json
// @Produce json
// @Param request body VerifyOTPRequest true "Verify OTP payload"
// @Success 200 {object} router.successResponse{data=VerifyOTPResponse} "OTP verified"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Invalid OTP code"
// @Failure 404 {object} router.errorResponse "Invalid process id"
// @Failure 409 {object} router.errorResponse "OTP already used"
// @Failure 410 {object} router.errorResponse "OTP expired"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Too many failed attempts"
// @Router /api/v1/auth/otp/verify [post]
func (h *HTTPEndpoint) VerifyOTP(r *router.Request) (any, error) {
	var req VerifyOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifyOTP(r.Context(), usecase.VerifyOTPInput{
		Identifier:     req.Identifier,
		OTP:            req.OTP,
		ProcessID:      req.ProcessID,
		IsUnregistered: req.IsUnregistered,
		Device:         deviceInfo(r),
	})
	if err != nil {
		return nil, err
	}

	return VerifyOTPResponse{
		AdminID:        resp.AdminID,
		Email:          resp.Email,
		ProcessID:      resp.ProcessID,
		Verified:       true,
		VerifiedAt:     resp.VerifiedAt,
		Timezone:       resp.Timezone,
		DeviceName:     resp.DeviceName,
		IsUnregistered: resp.IsUnregistered,
	}, nil
}

// Stats reports OTP record totals.
// @Summary OTP statistics
// @Tags Auth, OTP
// @Produce json
// @Security BearerAuth
// @Success 200 {object} router.successResponse{data=OTPStatsResponse} "OTP totals"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 403 {object} router.errorResponse "Account not allowed"
// @Router /api/v1/auth/otp/stats [get]
func (h *HTTPEndpoint) Stats(r *router.Request) (any, error) {
	st, err := h.uc.Stats(r.Context())
	if err != nil {
		return nil, err
	}

	return OTPStatsResponse{
		Total:        st.Total,
		Verified:     st.Verified,
		Active:       st.Active,
		Invalid:      st.Invalid,
		Unregistered: st.Unregistered,
		Registered:   st.Registered,
	}, nil
}
