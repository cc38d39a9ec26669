package directory

import "errors"

var (
	ErrEmailTaken   = errors.New("directory.email_taken")
	ErrInvalidUser  = errors.New("directory.invalid_user")
	ErrStoreFailure = errors.New("directory.store_failure")
)
