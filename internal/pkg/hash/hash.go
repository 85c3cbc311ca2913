package hash

// Hash produces a digest of a secret and checks plaintext against it.
type Hash interface {
	Hash(plaintext string) ([]byte, error)
	Verify(hashed, plaintext string) bool
}
