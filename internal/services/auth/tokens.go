package auth

import (
	"crypto/rand"
	"encoding/hex"
)

// NewRefreshToken returns an opaque 32-byte token. Refresh tokens carry no
// claims: validity is decided purely by comparing against the one currently
// stored for the user.
func NewRefreshToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
