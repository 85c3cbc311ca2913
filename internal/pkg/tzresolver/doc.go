// Package tzresolver maps a client IP to an IANA timezone and converts between
// zoned times and the naive "YYYY-MM-DD HH:mm:ss" strings OTP records store.
//
// Stored strings carry no offset. Callers must parse them in a zone resolved
// from an IP, and they re-resolve that zone on every operation instead of
// remembering it per record. The same record may therefore be judged in
// different zones if the caller's IP changes between issue and verify.
package tzresolver
