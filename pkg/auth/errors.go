package auth

import "errors"

// Link rejections. Expired and NotFound deliberately read the same to users.
var (
	ErrNotFound           = errors.New("login link not found")
	ErrExpired            = errors.New("login link expired")
	ErrWrongLinkType      = errors.New("login link has the wrong type")
	ErrAccountUnavailable = errors.New("account is suspended or deleted")
	ErrPolicyDenied       = errors.New("account may not sign in with a link")
	ErrDeliveryFailed     = errors.New("failed to deliver login link")
)

// Collaborator and admin errors
var (
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidEmail = errors.New("invalid email address")
	ErrForbidden    = errors.New("forbidden")
)

// Message keys shown to end users.
const (
	KeyInvalidLink    = "auth.invalid_link"
	KeyWrongLinkType  = "auth.wrong_link_type"
	KeyDeliveryFailed = "auth.delivery_failed"
	KeyForbidden      = "auth.forbidden"
	KeyInternal       = "auth.internal"
)

// PublicError maps an error to the message key a user may see.
// Not-found, expired, unavailable and policy rejections all collapse to
// KeyInvalidLink so the response does not reveal the account state.
func PublicError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrWrongLinkType):
		return KeyWrongLinkType
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrExpired),
		errors.Is(err, ErrAccountUnavailable),
		errors.Is(err, ErrPolicyDenied):
		return KeyInvalidLink
	case errors.Is(err, ErrDeliveryFailed):
		return KeyDeliveryFailed
	case errors.Is(err, ErrForbidden):
		return KeyForbidden
	default:
		return KeyInternal
	}
}
