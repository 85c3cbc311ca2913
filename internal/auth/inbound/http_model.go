package inbound

import "time"

type SendOTPRequest struct {
	Identifier     string `json:"identifier"`
	IsUnregistered bool   `json:"is_unregistered"`
}

type SendOTPResponse struct {
	AdminID          *int64 `json:"admin_id"`
	Email            string `json:"email"`
	ProcessID        string `json:"process_id"`
	DeviceID         string `json:"device_id"`
	DeviceName       string `json:"device_name"`
	ExpiresAt        string `json:"expires_at"`
	ExpiresInMinutes int    `json:"expires_in_minutes"`
	Timezone         string `json:"timezone"`
	IsUnregistered   bool   `json:"is_unregistered"`
}

func (r SendOTPResponse) Message() string {
	if r.IsUnregistered {
		return "OTP sent successfully to unregistered email"
	}
	return "OTP sent successfully"
}

type VerifyOTPRequest struct {
	Identifier     string `json:"identifier"`
	OTP            string `json:"otp"`
	ProcessID      string `json:"process_id"`
	IsUnregistered bool   `json:"is_unregistered"`
}

type VerifyOTPResponse struct {
	AdminID        *int64 `json:"admin_id"`
	Email          string `json:"email"`
	ProcessID      string `json:"process_id"`
	Verified       bool   `json:"verified"`
	VerifiedAt     string `json:"verified_at"`
	Timezone       string `json:"timezone"`
	DeviceName     string `json:"device_name"`
	IsUnregistered bool   `json:"is_unregistered"`
}

func (r VerifyOTPResponse) Message() string {
	if r.IsUnregistered {
		return "OTP verified successfully for unregistered email"
	}
	return "OTP verified successfully"
}

type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type LoginResponse struct {
	AdminID     int64     `json:"admin_id,string"`
	AdminName   string    `json:"admin_name"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	RoleName    string    `json:"role_name"`
	Status      string    `json:"status"`
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (LoginResponse) Message() string {
	return "Login successful"
}

type OTPStatsResponse struct {
	Total        int64 `json:"total_otps"`
	Verified     int64 `json:"verified_otps"`
	Active       int64 `json:"active_otps"`
	Invalid      int64 `json:"invalid_otps"`
	Unregistered int64 `json:"unregistered_otps"`
	Registered   int64 `json:"registered_otps"`
}

type RegisterRequest struct {
	AdminName   string `json:"admin_name"`
	FirstName   string `json:"first_name"`
	MiddleName  string `json:"middle_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	ProcessID   string `json:"process_id"`
	Area        string `json:"area"`
	City        string `json:"city"`
	State       string `json:"state"`
	Pincode     string `json:"pincode"`
}

type RegisterResponse struct {
	AdminID     int64     `json:"admin_id,string"`
	AdminName   string    `json:"admin_name"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	Status      string    `json:"status"`
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (RegisterResponse) Message() string {
	return "Registration successful"
}

type ForgotPasswordRequest struct {
	Identifier  string `json:"identifier"`
	NewPassword string `json:"new_password"`
	ProcessID   string `json:"process_id"`
}

type ForgotPasswordResponse struct {
	AdminID int64  `json:"admin_id,string"`
	Email   string `json:"email"`
}

func (ForgotPasswordResponse) Message() string {
	return "Password reset successful"
}
