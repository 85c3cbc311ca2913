package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidSigningMethod = errors.New("invalid JWT signing method")

	// ErrSigningKeyTooShort is returned when the HS512 signing key is less than 64 bytes.
	ErrSigningKeyTooShort = errors.New("HS512 signing key must be at least 64 bytes (512 bits)")

	ErrTokenExpired = errors.New("JWT token has expired")

	ErrInvalidToken = errors.New("invalid token")
)

// TokenTypeBearer is the token_type reported with every access token.
const TokenTypeBearer = "Bearer"

// JWT generates and verifies access tokens.
type JWT interface {
	Generate(p Payload) (Token, error)
	Verify(tokenStr string) (Claims, error)
}

type clocker interface {
	Now() time.Time
}

type generator interface {
	Generate() string
}

type jwtContextKey struct{}

type Config struct {
	// Secret is the HMAC signing key; at least 64 bytes.
	Secret    []byte
	Issuer    string
	Audiences []string
	TTL       time.Duration
	Clock     clocker
	// UUID generates token ids (jti).
	UUID generator
}

// Payload is the admin identity embedded in a token.
type Payload struct {
	AdminID   int64
	Email     string
	AdminName string
	Role      string
}

// Token is a signed access token and its metadata.
type Token struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

// Claims is the registered claim set plus the admin payload.
type Claims struct {
	jwt.RegisteredClaims
	AdminID   int64  `json:"admin_id,string"`
	Email     string `json:"email"`
	AdminName string `json:"admin_name"`
	Role      string `json:"role"`
	TokenType string `json:"token_type"`
}

// GetAuth returns the claims stored in the context, if any.
func GetAuth(ctx context.Context) *Claims {
	clm, ok := ctx.Value(jwtContextKey{}).(Claims)
	if !ok {
		return nil
	}

	return &clm
}

func SetAuth(ctx context.Context, clm Claims) context.Context {
	return context.WithValue(ctx, jwtContextKey{}, clm)
}
