// Package secrets provides the one-way hashing primitives shared by the OTP
// signup flow and the identity-token nonce check. Digests are plain SHA-256:
// short numeric codes cannot be made brute-force resistant by the hash alone,
// so callers are expected to rate-limit instead.
package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"math/big"
	"strings"

	"github.com/pkg/errors"
)

const (
	saltBytes = 8

	// DefaultCodeLength is the number of decimal digits in a generated
	// one-time code.
	DefaultCodeLength = 4
)

// Digest returns the lowercase hex SHA-256 of secret+salt. Deterministic:
// identical inputs always produce identical output.
func Digest(secret, salt string) string {
	sum := sha256.Sum256([]byte(secret + salt))
	return hex.EncodeToString(sum[:])
}

// Compare reports whether two digest strings are equal, in constant time with
// respect to their content.
func Compare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// NewSalt returns a fresh random hex salt from a cryptographically secure
// source.
func NewSalt() (string, error) {
	buf := make([]byte, saltBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "[NewSalt] rand.Read")
	}
	return hex.EncodeToString(buf), nil
}

// NewCode generates a zero-padded decimal one-time code of n digits using a
// cryptographically secure source. n <= 0 falls back to DefaultCodeLength.
func NewCode(n int) (string, error) {
	if n <= 0 {
		n = DefaultCodeLength
	}
	var sb strings.Builder
	sb.Grow(n)
	for i := 0; i < n; i++ {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", errors.Wrap(err, "[NewCode] rand.Int")
		}
		sb.WriteByte(byte('0' + d.Int64()))
	}
	return sb.String(), nil
}
