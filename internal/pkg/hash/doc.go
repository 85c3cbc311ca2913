// Package hash hashes and verifies secrets.
//
// Bcrypt is used for admin passwords. HMACSHA256 is used for OTP codes at rest:
// codes are short lived and low entropy, so a keyed digest compared in constant
// time is enough and keeps verification cheap on the request path.
package hash
