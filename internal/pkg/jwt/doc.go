// Package jwt issues and verifies admin access tokens.
//
// Tokens are HS512 signed and carry the admin id, email, name and role. The
// HTTP authentication middleware stores verified claims on the request
// context with SetAuth.
package jwt
