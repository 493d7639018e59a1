package apikey

import (
	"crypto/rand"
	"encoding/base64"

	"hub/cmd/security/token"
)

const rawKeyBytes = 32

// Generate returns a fresh raw API key and its storage digest.
// The raw value is URL-safe and prefixed for recognizability in configs.
func Generate() (plain, hash string, err error) {
	b := make([]byte, rawKeyBytes)
	if _, err = rand.Read(b); err != nil {
		return "", "", err
	}
	plain = "hub_" + base64.RawURLEncoding.EncodeToString(b)
	return plain, token.HashSHA256Hex(plain), nil
}
