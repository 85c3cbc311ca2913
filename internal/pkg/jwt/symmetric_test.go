package jwt

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/adminauth/internal/pkg/clock"
)

type staticID string

func (s staticID) Generate() string { return string(s) }

func newTestJWT(t *testing.T, clk *clock.Fixed) *Symmetric {
	t.Helper()

	j, err := NewHS512(Config{
		Secret:    []byte(strings.Repeat("k", 64)),
		Issuer:    "adminauth",
		Audiences: []string{"admin-panel"},
		TTL:       15 * time.Minute,
		Clock:     clk,
		UUID:      staticID("jti-1"),
	})
	require.NoError(t, err)
	return j
}

func TestSymmetric_GenerateVerify(t *testing.T) {
	clk := clock.NewFixed(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	j := newTestJWT(t, clk)

	tok, err := j.Generate(Payload{AdminID: 42, Email: "root@admin.test", AdminName: "root", Role: "superadmin"})
	require.NoError(t, err)
	assert.Equal(t, TokenTypeBearer, tok.TokenType)
	assert.Equal(t, clk.Now().Add(15*time.Minute), tok.ExpiresAt)

	clm, err := j.Verify(tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(42), clm.AdminID)
	assert.Equal(t, "superadmin", clm.Role)
	assert.Equal(t, "42", clm.Subject)
	assert.Equal(t, "jti-1", clm.ID)

	clk.Advance(16 * time.Minute)
	_, err = j.Verify(tok.AccessToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestNewHS512_ShortKey(t *testing.T) {
	_, err := NewHS512(Config{Secret: []byte("short")})
	assert.ErrorIs(t, err, ErrSigningKeyTooShort)
}

func TestAuthContext(t *testing.T) {
	assert.Nil(t, GetAuth(context.Background()))

	ctx := SetAuth(context.Background(), Claims{AdminID: 7})
	require.NotNil(t, GetAuth(ctx))
	assert.Equal(t, int64(7), GetAuth(ctx).AdminID)
}
