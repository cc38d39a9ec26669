package loginlink

import "errors"

var (
	// ErrNotFound means no live link matches the secret: it never existed,
	// was consumed, was superseded by a newer link, or its expiry was already reported.
	ErrNotFound = errors.New("loginlink.not_found")

	// ErrExpired means the link existed but is past its TTL. The record is gone after this.
	ErrExpired = errors.New("loginlink.expired")

	// ErrWrongKind means the link is valid but was presented for another kind.
	// The link is left intact.
	ErrWrongKind = errors.New("loginlink.wrong_kind")
)

var (
	ErrInvalidKind        = errors.New("loginlink.invalid_kind")
	ErrInvalidKey         = errors.New("loginlink.invalid_key")
	ErrSecretGeneration   = errors.New("loginlink.secret_generation_failed")
	ErrKeyDerivation      = errors.New("loginlink.key_derivation_failed")
	ErrStoreFailure       = errors.New("loginlink.store_failure")
	ErrUnknownStoreDriver = errors.New("loginlink.unknown_store_driver")
)
