package config

import (
	"io"
	"time"
)

// TimeConfig reads integer values scaled to a time unit. Missing keys yield zero.
type TimeConfig interface {
	GetSecond(key string) time.Duration
	GetMinute(key string) time.Duration
	GetHour(key string) time.Duration
	// GetDuration parses Go duration strings such as "1m30s".
	GetDuration(key string) time.Duration
}

// Config is the read-only view of application configuration.
//
// Implementations convert on read and never fail: a missing or malformed value
// yields the zero value of the requested type, so callers apply their own defaults.
type Config interface {
	io.Closer
	TimeConfig

	GetInt(key string) int
	GetInt64(key string) int64
	GetFloat64(key string) float64
	GetBool(key string) bool
	GetString(key string) string

	// GetBinary decodes a base64 value.
	GetBinary(key string) []byte

	// GetArray reads a YAML list or a comma separated string "<a>,<b>,...".
	GetArray(key string) []string

	// GetMap reads a YAML mapping or a string "<k1>:<v1>,<k2>:<v2>,...".
	GetMap(key string) map[string]string

	// IsSet reports whether key has a value from any source, defaults included.
	IsSet(key string) bool
}
