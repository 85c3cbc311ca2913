package jwt

import (
	"errors"
	"strconv"

	libJWT "github.com/golang-jwt/jwt/v5"
)

// Symmetric implements JWT with an HMAC secret.
type Symmetric struct {
	cfg Config
}

// NewHS512 constructs a Symmetric JWT implementation using HS512.
func NewHS512(cfg Config) (*Symmetric, error) {
	if len(cfg.Secret) < 64 {
		return nil, ErrSigningKeyTooShort
	}

	return &Symmetric{cfg: cfg}, nil
}

func (s *Symmetric) Generate(p Payload) (Token, error) {
	now := s.cfg.Clock.Now()
	exp := now.Add(s.cfg.TTL)

	signed, err := libJWT.
		NewWithClaims(libJWT.SigningMethodHS512, Claims{
			RegisteredClaims: libJWT.RegisteredClaims{
				ID:        s.cfg.UUID.Generate(),
				Subject:   strconv.FormatInt(p.AdminID, 10),
				Issuer:    s.cfg.Issuer,
				Audience:  s.cfg.Audiences,
				IssuedAt:  libJWT.NewNumericDate(now),
				NotBefore: libJWT.NewNumericDate(now),
				ExpiresAt: libJWT.NewNumericDate(exp),
			},
			AdminID:   p.AdminID,
			Email:     p.Email,
			AdminName: p.AdminName,
			Role:      p.Role,
			TokenType: TokenTypeBearer,
		}).
		SignedString(s.cfg.Secret)
	if err != nil {
		return Token{}, err
	}

	return Token{AccessToken: signed, TokenType: TokenTypeBearer, ExpiresAt: exp}, nil
}

func (s *Symmetric) Verify(tokenStr string) (Claims, error) {
	var claims Claims

	token, err := libJWT.ParseWithClaims(tokenStr, &claims,
		func(t *libJWT.Token) (any, error) {
			if t.Method != libJWT.SigningMethodHS512 {
				return nil, ErrInvalidSigningMethod
			}
			return s.cfg.Secret, nil
		},
		libJWT.WithIssuer(s.cfg.Issuer),
		libJWT.WithAudience(s.cfg.Audiences...),
		libJWT.WithValidMethods([]string{libJWT.SigningMethodHS512.Alg()}),
		libJWT.WithIssuedAt(),
		libJWT.WithExpirationRequired(),
		libJWT.WithTimeFunc(s.cfg.Clock.Now),
	)
	if err != nil {
		if errors.Is(err, libJWT.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, err
	}

	if !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}
