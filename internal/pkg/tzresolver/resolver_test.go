package tzresolver

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/adminauth/internal/pkg/clock"
)

type mockLocator struct {
	mock.Mock
}

func (m *mockLocator) TimeZone(ip net.IP) (string, error) {
	args := m.Called(ip.String())
	return args.String(0), args.Error(1)
}

func TestResolver_Resolve(t *testing.T) {
	loc := new(mockLocator)
	loc.On("TimeZone", "8.8.8.8").Return("America/Los_Angeles", nil)
	loc.On("TimeZone", "1.1.1.1").Return("", nil)
	loc.On("TimeZone", "9.9.9.9").Return("", errors.New("not in database"))
	loc.On("TimeZone", "4.4.4.4").Return("Mars/Olympus", nil)

	r, err := New(Config{Locator: loc})
	require.NoError(t, err)
	ctx := context.Background()

	tests := map[string]string{
		"":                 DefaultTimezone,
		"127.0.0.1":        DefaultTimezone,
		"::1":              DefaultTimezone,
		"::ffff:127.0.0.1": DefaultTimezone,
		"not-an-ip":        DefaultTimezone,
		"8.8.8.8":          "America/Los_Angeles",
		"1.1.1.1":          DefaultTimezone,
		"9.9.9.9":          DefaultTimezone,
		"4.4.4.4":          DefaultTimezone,
	}
	for ip, want := range tests {
		assert.Equal(t, want, r.Resolve(ctx, ip), ip)
	}
	loc.AssertNotCalled(t, "TimeZone", "127.0.0.1")
}

func TestResolver_NilLocator(t *testing.T) {
	r, err := New(Config{Default: "UTC"})
	require.NoError(t, err)
	assert.Equal(t, "UTC", r.Resolve(context.Background(), "8.8.8.8"))
	assert.Equal(t, "UTC", r.Default())
}

func TestNew_InvalidDefault(t *testing.T) {
	_, err := New(Config{Default: "Nowhere/Zone"})
	assert.Error(t, err)
}

func TestResolver_Now(t *testing.T) {
	clk := clock.NewFixed(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	r, err := New(Config{Clock: clk})
	require.NoError(t, err)

	now, name := r.Now(context.Background(), "127.0.0.1")
	assert.Equal(t, DefaultTimezone, name)
	assert.Equal(t, "2026-03-01 15:30:00", Format(now))
	assert.Equal(t, "153000", Clock(now))
}

func TestResolver_Cache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	loc := new(mockLocator)
	loc.On("TimeZone", "8.8.8.8").Return("Europe/Berlin", nil).Once()

	r, err := New(Config{Locator: loc, Cache: client, CacheTTL: time.Minute})
	require.NoError(t, err)

	ctx := context.Background()
	assert.Equal(t, "Europe/Berlin", r.Resolve(ctx, "8.8.8.8"))
	assert.Equal(t, "Europe/Berlin", r.Resolve(ctx, "8.8.8.8"))
	loc.AssertNumberOfCalls(t, "TimeZone", 1)

	got, err := mr.Get("tz:ip:8.8.8.8")
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", got)
	assert.Equal(t, time.Minute, mr.TTL("tz:ip:8.8.8.8"))
}

func TestFormatParse_RoundTrip(t *testing.T) {
	for _, zone := range []string{"Asia/Kolkata", "America/New_York", "UTC", "Australia/Lord_Howe"} {
		loc, err := time.LoadLocation(zone)
		require.NoError(t, err)

		orig := time.Date(2026, 7, 15, 23, 59, 58, 987_000_000, loc)
		got, err := Parse(Format(orig), loc)
		require.NoError(t, err)
		assert.True(t, orig.Truncate(time.Second).Equal(got), zone)
	}
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse("2026-01-01 00:00:00", nil)
	assert.ErrorIs(t, err, ErrNilLocation)

	_, err = Parse("2026-01-01T00:00:00Z", time.UTC)
	assert.Error(t, err)
}

func TestResolver_ParseIn(t *testing.T) {
	r, err := New(Config{})
	require.NoError(t, err)

	got, err := r.ParseIn(context.Background(), "2026-01-01 05:30:00", "")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestGeoIPFromBytes_Invalid(t *testing.T) {
	_, err := GeoIPFromBytes([]byte("not a maxmind database"))
	assert.Error(t, err)
}
