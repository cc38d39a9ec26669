package cookie

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"io"

	"golang.org/x/crypto/hkdf"
)

const encryptionInfo = "magicauth-cookie-enc"

// aeadFromSecret derives an AES-256-GCM key from secret with HKDF-SHA256.
func aeadFromSecret(secret string) (cipher.AEAD, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(encryptionInfo)), key); err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// seal encrypts value with the cookie name as additional data, so a value
// lifted from one cookie does not open under another name.
func seal(aead cipher.AEAD, name, value string) (string, error) {
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(value)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(aead.Seal(nonce, nonce, []byte(value), []byte(name))), nil
}

// open tries every key, newest first.
func open(keys []cipher.AEAD, name, encoded string) (string, error) {
	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrInvalidFormat
	}
	for _, aead := range keys {
		n := aead.NonceSize()
		if len(data) < n+aead.Overhead() {
			return "", ErrInvalidFormat
		}
		if plain, err := aead.Open(nil, data[:n], data[n:], []byte(name)); err == nil {
			return string(plain), nil
		}
	}
	return "", ErrDecryptionFailed
}
