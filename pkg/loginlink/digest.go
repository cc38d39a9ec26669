package loginlink

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	// MinKeySize is the minimum accepted length of the application key.
	MinKeySize = 32

	digestInfo = "magicauth-login-link-digest-v1"
)

// Hasher turns secrets into the digests stores index by.
type Hasher struct {
	key []byte
}

// NewHasher derives the digest key from the application key with HKDF-SHA256.
// Rotating the application key invalidates every outstanding link.
func NewHasher(appKey []byte) (*Hasher, error) {
	if len(appKey) < MinKeySize {
		return nil, ErrInvalidKey
	}

	key := make([]byte, sha256.Size)
	if _, err := io.ReadFull(hkdf.New(sha256.New, appKey, nil, []byte(digestInfo)), key); err != nil {
		return nil, errors.Join(ErrKeyDerivation, err)
	}

	return &Hasher{key: key}, nil
}

// Digest returns the hex-encoded HMAC-SHA256 of secret.
func (h *Hasher) Digest(secret string) string {
	mac := hmac.New(sha256.New, h.key)
	mac.Write([]byte(secret))
	return hex.EncodeToString(mac.Sum(nil))
}
