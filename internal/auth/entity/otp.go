package entity

// Owner identifies whose OTP a record is. AdminID is nil on the unregistered
// path, where the email alone is the identity.
type Owner struct {
	AdminID *int64
	Email   string
}

// Registered reports whether the owner is an existing admin.
func (o Owner) Registered() bool {
	return o.AdminID != nil
}

// DeviceInfo describes the requesting device. The engine treats it as opaque.
type DeviceInfo struct {
	DeviceID   string
	DeviceName string
	UserAgent  string
	IPAddress  string
}

// OTPRecord is one issued code. Timestamps are wall-clock strings in the
// device's timezone at the time they were written and carry no offset.
type OTPRecord struct {
	ID             int64
	ProcessID      string
	Owner          Owner
	DeviceID       string
	DeviceName     string
	IPAddress      string
	CodeHash       string
	CreatedAt      string
	ExpiresAt      string
	IsValid        bool
	IsVerified     bool
	FailedAttempts int
	VerifiedAt     string
}

// OTPState is the lifecycle position of a record.
type OTPState string

const (
	OTPStateCreated     OTPState = "created"
	OTPStateExpired     OTPState = "expired"
	OTPStateInvalidated OTPState = "invalidated"
	OTPStateVerified    OTPState = "verified"
)

// State derives the lifecycle position from the stored flags. A verified
// record stays verified after it is consumed; expiry is judged by callers
// against the clock.
func (r OTPRecord) State() OTPState {
	switch {
	case r.IsVerified:
		return OTPStateVerified
	case !r.IsValid:
		return OTPStateInvalidated
	default:
		return OTPStateCreated
	}
}

// Issued is the result of a successful issuance. Code is the plaintext and
// must only be handed to delivery.
type Issued struct {
	ProcessID  string
	Code       string
	DeviceID   string
	DeviceName string
	CreatedAt  string
	ExpiresAt  string
	Timezone   string
}

// Verified is the result of a successful verification.
type Verified struct {
	ProcessID  string
	DeviceID   string
	DeviceName string
	VerifiedAt string
	Timezone   string
}

// SweepResult counts what one cleanup run changed.
type SweepResult struct {
	Expired int
	Deleted int64
}

// Stats are totals over every stored record.
type Stats struct {
	Total        int64
	Verified     int64
	Active       int64
	Invalid      int64
	Unregistered int64
	Registered   int64
}
