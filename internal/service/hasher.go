package service

import "github.com/alexedwards/argon2id"

// PasswordHasher is the one-way credential hash used for stored passwords.
// Implementations must salt per call; two hashes of the same plaintext
// never compare equal as strings.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(password, hash string) (bool, error)
}

// Argon2Hasher hashes with argon2id default parameters.
type Argon2Hasher struct{}

func (Argon2Hasher) Hash(password string) (string, error) {
	return argon2id.CreateHash(password, argon2id.DefaultParams)
}

func (Argon2Hasher) Compare(password, hash string) (bool, error) {
	return argon2id.ComparePasswordAndHash(password, hash)
}
