package tzresolver

import (
	"errors"
	"time"
)

// StorageLayout is the wall-clock layout of stored timestamps.
const StorageLayout = "2006-01-02 15:04:05"

var ErrNilLocation = errors.New("tzresolver: nil location")

// Format renders t as wall-clock text in t's own location, truncated to the second.
func Format(t time.Time) string {
	return t.Format(StorageLayout)
}

// Parse reads a StorageLayout string as wall-clock time in loc.
func Parse(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		return time.Time{}, ErrNilLocation
	}
	return time.ParseInLocation(StorageLayout, s, loc)
}

// Clock returns t formatted as HHMMSS, the shape of an OTP process id.
func Clock(t time.Time) string {
	return t.Format("150405")
}
