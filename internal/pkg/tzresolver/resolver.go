package tzresolver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shandysiswandi/adminauth/internal/pkg/clock"
)

// DefaultTimezone is used for loopback, unknown and unresolvable addresses.
const DefaultTimezone = "Asia/Kolkata"

type Config struct {
	// Default is the fallback IANA zone; DefaultTimezone when empty.
	Default string
	// Locator may be nil, in which case every address resolves to Default.
	Locator Locator
	// Cache memoizes locator answers per IP when non-nil.
	Cache    redis.UniversalClient
	CacheTTL time.Duration
	Clock    clock.Clocker
}

// Resolver resolves device-local time from client IPs. It never fails: any
// lookup problem degrades to the default zone.
type Resolver struct {
	cfg         Config
	defaultLoc  *time.Location
	locations   sync.Map // zone name -> *time.Location
	cachePrefix string
}

func New(cfg Config) (*Resolver, error) {
	if cfg.Default == "" {
		cfg.Default = DefaultTimezone
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}

	loc, err := time.LoadLocation(cfg.Default)
	if err != nil {
		return nil, err
	}

	r := &Resolver{cfg: cfg, defaultLoc: loc, cachePrefix: "tz:ip:"}
	r.locations.Store(cfg.Default, loc)
	return r, nil
}

// Default returns the fallback zone name.
func (r *Resolver) Default() string {
	return r.cfg.Default
}

// Resolve returns the IANA zone of ip. Loopback, empty or unknown addresses,
// failed lookups and zones the runtime cannot load all yield the default.
func (r *Resolver) Resolve(ctx context.Context, ip string) string {
	name := r.lookup(ctx, ip)
	if _, ok := r.locations.Load(name); ok {
		return name
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		slog.WarnContext(ctx, "unknown timezone from geoip, using default", "ip", ip, "timezone", name, "error", err)
		return r.cfg.Default
	}
	r.locations.Store(name, loc)
	return name
}

// Location returns the zone of ip and its name.
func (r *Resolver) Location(ctx context.Context, ip string) (*time.Location, string) {
	name := r.Resolve(ctx, ip)
	if cached, ok := r.locations.Load(name); ok {
		return cached.(*time.Location), name
	}
	return r.defaultLoc, r.cfg.Default
}

// Now returns the current time in the zone of ip, and the zone name.
func (r *Resolver) Now(ctx context.Context, ip string) (time.Time, string) {
	loc, name := r.Location(ctx, ip)
	return r.cfg.Clock.Now().In(loc), name
}

// ParseIn parses a stored timestamp in the zone of ip.
func (r *Resolver) ParseIn(ctx context.Context, s, ip string) (time.Time, error) {
	loc, _ := r.Location(ctx, ip)
	return Parse(s, loc)
}

func isLocal(ip string) bool {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return true
	}
	parsed := net.ParseIP(ip)
	return parsed != nil && parsed.IsLoopback()
}

func (r *Resolver) lookup(ctx context.Context, ip string) string {
	if isLocal(ip) || r.cfg.Locator == nil {
		return r.cfg.Default
	}

	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil {
		return r.cfg.Default
	}
	key := r.cachePrefix + parsed.String()

	if r.cfg.Cache != nil {
		name, err := r.cfg.Cache.Get(ctx, key).Result()
		if err == nil && name != "" {
			return name
		}
		if err != nil && !errors.Is(err, redis.Nil) {
			slog.WarnContext(ctx, "timezone cache read failed", "ip", ip, "error", err)
		}
	}

	name, err := r.cfg.Locator.TimeZone(parsed)
	if err != nil {
		slog.WarnContext(ctx, "geoip lookup failed, using default timezone", "ip", ip, "error", err)
		return r.cfg.Default
	}
	if name == "" {
		name = r.cfg.Default
	}

	if r.cfg.Cache != nil {
		if err := r.cfg.Cache.Set(ctx, key, name, r.cfg.CacheTTL).Err(); err != nil {
			slog.WarnContext(ctx, "timezone cache write failed", "ip", ip, "error", err)
		}
	}

	return name
}
