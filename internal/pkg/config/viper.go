package config

import (
	"bytes"
	"encoding/base64"
	"errors"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Viper is a Config implementation backed by github.com/spf13/viper.
//
// Every key can be overridden from the environment: "modules.auth.otp.expiry_minutes"
// is read from MODULES_AUTH_OTP_EXPIRY_MINUTES when set.
type Viper struct {
	v *viper.Viper
}

// Option customizes a Viper before the first read.
type Option func(v *viper.Viper)

// WithDefaults registers fallback values for keys absent from the file.
func WithDefaults(defaults map[string]any) Option {
	return func(v *viper.Viper) {
		for k, val := range defaults {
			v.SetDefault(k, val)
		}
	}
}

func newViper(opts ...Option) *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// NewViper loads configuration from pathFile and reloads it when the file changes.
// The format is inferred from the extension.
func NewViper(pathFile string, opts ...Option) (*Viper, error) {
	v := newViper(opts...)

	filename := path.Base(pathFile)
	v.AddConfigPath(path.Dir(pathFile))
	v.SetConfigName(strings.TrimSuffix(filename, path.Ext(filename)))

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if e.Has(fsnotify.Remove) {
			slog.Warn("config file removed, keeping last values", "path", pathFile)
			return
		}
		slog.Info("config reloaded", "path", pathFile, "op", e.Op.String())
	})
	v.WatchConfig()

	return &Viper{v: v}, nil
}

// NewViperFromBytes loads configuration from memory. configType is a format
// supported by Viper (e.g. "yaml", "json").
func NewViperFromBytes(configType string, data []byte, opts ...Option) (*Viper, error) {
	if strings.TrimSpace(configType) == "" {
		return nil, errors.New("config type is required")
	}

	v := newViper(opts...)
	v.SetConfigType(configType)

	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, err
	}

	return &Viper{v: v}, nil
}

func (vc *Viper) GetInt(key string) int         { return vc.v.GetInt(key) }
func (vc *Viper) GetInt64(key string) int64     { return vc.v.GetInt64(key) }
func (vc *Viper) GetFloat64(key string) float64 { return vc.v.GetFloat64(key) }
func (vc *Viper) GetBool(key string) bool       { return vc.v.GetBool(key) }
func (vc *Viper) GetString(key string) string   { return vc.v.GetString(key) }
func (vc *Viper) IsSet(key string) bool         { return vc.v.IsSet(key) }

func (vc *Viper) GetSecond(key string) time.Duration {
	return time.Duration(vc.v.GetInt64(key)) * time.Second
}

func (vc *Viper) GetMinute(key string) time.Duration {
	return time.Duration(vc.v.GetInt64(key)) * time.Minute
}

func (vc *Viper) GetHour(key string) time.Duration {
	return time.Duration(vc.v.GetInt64(key)) * time.Hour
}

func (vc *Viper) GetDuration(key string) time.Duration {
	return vc.v.GetDuration(key)
}

func (vc *Viper) GetBinary(key string) []byte {
	data, err := base64.StdEncoding.DecodeString(vc.v.GetString(key))
	if err != nil {
		return nil
	}
	return data
}

func (vc *Viper) GetArray(key string) []string {
	raw, ok := vc.v.Get(key).(string)
	if !ok {
		return vc.v.GetStringSlice(key)
	}

	var out []string
	for item := range strings.SplitSeq(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (vc *Viper) GetMap(key string) map[string]string {
	raw, ok := vc.v.Get(key).(string)
	if !ok {
		return vc.v.GetStringMapString(key)
	}

	m := make(map[string]string)
	for pair := range strings.SplitSeq(raw, ",") {
		if k, val, found := strings.Cut(pair, ":"); found {
			m[strings.TrimSpace(k)] = strings.TrimSpace(val)
		}
	}
	return m
}

// Close implements io.Closer; viper holds no resources.
func (vc *Viper) Close() error {
	return nil
}
