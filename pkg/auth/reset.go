package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

const resetSecretBytes = 32

// NewResetSecret returns a fresh password-reset secret and its digest. The
// plaintext goes into the email link; only the digest is ever stored.
func NewResetSecret() (plaintext, digest string, err error) {
	buf := make([]byte, resetSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	plaintext = base64.RawURLEncoding.EncodeToString(buf)
	return plaintext, DigestResetSecret(plaintext), nil
}

// DigestResetSecret maps a plaintext reset secret to the stored lookup key.
// SHA-256 keeps the mapping deterministic so the repository can find the
// account by digest.
func DigestResetSecret(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}
