package secret

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
)

// New generates a cryptographically secure random byte array of the given length and returns its URL-safe base64
// representation
func New(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

// MustNew works like New but panics if no random bytes could be read
func MustNew(length int) string {
	raw, err := New(length)
	if err != nil {
		panic(err)
	}
	return raw
}

// Equal compares two secrets in constant time
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
