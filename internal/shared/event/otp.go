package event

const (
	OTPIssuedDestination      string = "otp.issued"
	OTPVerifiedDestination    string = "otp.verified"
	OTPInvalidatedDestination string = "otp.invalidated"
)

// OTPIssuedMessage never carries the code itself.
type OTPIssuedMessage struct {
	ProcessID  string `json:"process_id"`
	AdminID    *int64 `json:"admin_id"`
	Email      string `json:"email"`
	DeviceID   string `json:"device_id"`
	DeviceName string `json:"device_name"`
	ExpiresAt  string `json:"expires_at"`
	Timezone   string `json:"timezone"`
}

type OTPVerifiedMessage struct {
	ProcessID  string `json:"process_id"`
	AdminID    *int64 `json:"admin_id"`
	Email      string `json:"email"`
	DeviceID   string `json:"device_id"`
	VerifiedAt string `json:"verified_at"`
	Timezone   string `json:"timezone"`
}

// OTPInvalidatedMessage reports a record leaving the active set without a
// successful verification. Reason is "expired" or "invalidated".
type OTPInvalidatedMessage struct {
	ProcessID string `json:"process_id"`
	AdminID   *int64 `json:"admin_id"`
	Email     string `json:"email"`
	Reason    string `json:"reason"`
}
