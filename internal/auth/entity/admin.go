package entity

import "strings"

// AdminStatusActive is the only status code allowed to sign in or receive OTPs.
const AdminStatusActive = "ACT"

type Admin struct {
	ID            int64
	Name          string
	FirstName     string
	MiddleName    string
	LastName      string
	Email         string
	Phone         string
	RoleCode      string
	RoleName      string
	StatusCode    string
	StatusName    string
	PasswordHash  string
	IsDeleted     bool
	IsDeactivated bool
}

// StatusLabel is the lower-cased status name used in rejection messages.
func (a Admin) StatusLabel() string {
	if a.StatusName == "" {
		return strings.ToLower(a.StatusCode)
	}
	return strings.ToLower(a.StatusName)
}

// AdminAddress is the optional postal address captured at registration.
type AdminAddress struct {
	Area    string
	City    string
	State   string
	Pincode string
}

// IsZero reports whether no address field was supplied.
func (a AdminAddress) IsZero() bool {
	return a == AdminAddress{}
}
