package loginlink

import (
	"crypto/rand"
	"errors"
)

const (
	// SecretLength is the number of characters in a generated secret.
	// 32 characters over a 62-symbol alphabet carry about 190 bits of entropy.
	SecretLength = 32

	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	// Bytes >= maxByte are rejected so every symbol is equally likely.
	maxByte = 256 - (256 % len(alphabet))
)

// GenerateSecret returns a random alphanumeric secret of SecretLength characters.
func GenerateSecret() (string, error) {
	out := make([]byte, 0, SecretLength)
	buf := make([]byte, SecretLength*2)

	for len(out) < SecretLength {
		if _, err := rand.Read(buf); err != nil {
			return "", errors.Join(ErrSecretGeneration, err)
		}
		for _, b := range buf {
			if int(b) >= maxByte {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == SecretLength {
				break
			}
		}
	}

	return string(out), nil
}

// WellFormed reports whether s has the shape of a generated secret.
// Malformed input is rejected before any store lookup.
func WellFormed(s string) bool {
	if len(s) != SecretLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}
