// Package service defines interfaces for domain capabilities backed by infrastructure.
package service

// PasswordHasher hashes and verifies user passwords.
type PasswordHasher interface {
	// Hash generates a salted hash from a plaintext password.
	Hash(password string) (string, error)

	// Check compares a plaintext password with a hash.
	Check(password, hash string) bool

	// NeedsRehash reports whether hash was produced with different parameters
	// than the hasher currently uses.
	NeedsRehash(hash string) bool
}
