package cookie

import "errors"

var (
	ErrNoSecret         = errors.New("cookie: no encryption secret configured")
	ErrSecretTooShort   = errors.New("cookie: secret shorter than 32 characters")
	ErrDecryptionFailed = errors.New("cookie: value does not decrypt with any key")
	ErrCookieNotFound   = errors.New("cookie: not found")
	ErrInvalidFormat    = errors.New("cookie: malformed value")
)
