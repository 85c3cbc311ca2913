// Package clock abstracts the wall clock.
//
// OTP expiry, cooldown and retention all hinge on "now", so business code takes a
// Clocker and tests drive it with a Fixed clock that can be advanced by hand.
package clock
