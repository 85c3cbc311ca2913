package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
modules:
  auth:
    otp:
      expiry_minutes: 5
      resend_cooldown_seconds: 60
tz:
  default: Asia/Kolkata
  cache:
    ttl: 6h
app:
  server:
    cors: "http://a.test, http://b.test"
  maintenance:
    endpoints:
      - POST /api/v1/auth/login
instrument:
  logging:
    levels:
      sweeper: warn
`

func TestNewViperFromBytes(t *testing.T) {
	cfg, err := NewViperFromBytes("yaml", []byte(sample), WithDefaults(map[string]any{
		"modules.auth.otp.max_attempts": 5,
	}))
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.GetMinute("modules.auth.otp.expiry_minutes"))
	assert.Equal(t, 60*time.Second, cfg.GetSecond("modules.auth.otp.resend_cooldown_seconds"))
	assert.Equal(t, 6*time.Hour, cfg.GetDuration("tz.cache.ttl"))
	assert.Equal(t, 5, cfg.GetInt("modules.auth.otp.max_attempts"))
	assert.True(t, cfg.IsSet("modules.auth.otp.max_attempts"))
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.GetArray("app.server.cors"))
	assert.Equal(t, []string{"POST /api/v1/auth/login"}, cfg.GetArray("app.maintenance.endpoints"))
	assert.Equal(t, map[string]string{"sweeper": "warn"}, cfg.GetMap("instrument.logging.levels"))
	assert.Empty(t, cfg.GetString("missing.key"))
	require.NoError(t, cfg.Close())
}

func TestNewViperFromBytes_EnvOverride(t *testing.T) {
	t.Setenv("TZ_DEFAULT", "UTC")

	cfg, err := NewViperFromBytes("yaml", []byte(sample))
	require.NoError(t, err)
	assert.Equal(t, "UTC", cfg.GetString("tz.default"))
}

func TestNewViperFromBytes_MissingType(t *testing.T) {
	_, err := NewViperFromBytes(" ", []byte(sample))
	assert.Error(t, err)
}

func TestNewViper(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(sample), 0o600))

	cfg, err := NewViper(file)
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata", cfg.GetString("tz.default"))

	_, err = NewViper(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
