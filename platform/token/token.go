// Package token generates URL-safe random tokens for public links.
package token

import (
	"crypto/rand"
	"encoding/base64"
)

// GenerateRandomToken returns size random bytes encoded for use in a URL.
func GenerateRandomToken(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
