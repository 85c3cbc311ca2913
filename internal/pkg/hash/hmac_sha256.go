package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HMACSHA256 implements Hash with a keyed SHA-256 digest, hex encoded.
type HMACSHA256 struct {
	secret []byte
}

func NewHMACSHA256(secret string) *HMACSHA256 {
	return &HMACSHA256{secret: []byte(secret)}
}

func (s *HMACSHA256) Hash(str string) ([]byte, error) {
	return s.digest(str), nil
}

// Verify compares in constant time.
func (s *HMACSHA256) Verify(hashed, str string) bool {
	return hmac.Equal([]byte(hashed), s.digest(str))
}

func (s *HMACSHA256) digest(str string) []byte {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(str))
	return []byte(hex.EncodeToString(mac.Sum(nil)))
}
