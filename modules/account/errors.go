package account

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/magicauth/handler"
	"github.com/dmitrymomot/magicauth/pkg/auth"
	"github.com/dmitrymomot/magicauth/pkg/directory"
	"github.com/dmitrymomot/magicauth/pkg/loginlink"
	"github.com/dmitrymomot/magicauth/pkg/validator"
)

// Admin API error responses
var (
	errUnauthenticated    = handler.NewHTTPError(http.StatusUnauthorized, "auth.unauthenticated")
	errForbidden          = handler.NewHTTPError(http.StatusForbidden, auth.KeyForbidden)
	errUserNotFound       = handler.NewHTTPError(http.StatusNotFound, "auth.user_not_found")
	errAccountUnavailable = handler.NewHTTPError(http.StatusConflict, "auth.account_unavailable")
	errPolicyDenied       = handler.NewHTTPError(http.StatusConflict, "auth.policy_denied")
	errEmailTaken         = handler.NewHTTPError(http.StatusConflict, "auth.email_taken")
	errInvalidKind        = handler.NewHTTPError(http.StatusBadRequest, "auth.invalid_kind")
	errDeliveryFailed     = handler.NewHTTPError(http.StatusBadGateway, auth.KeyDeliveryFailed)
)

// apiError maps a service error to the error the admin API responds with.
// Unknown errors are returned as is and end up as 500s.
func apiError(err error) error {
	switch {
	case validator.IsValidationError(err):
		return handler.FromValidation(err)
	case errors.Is(err, auth.ErrForbidden):
		return errForbidden
	case errors.Is(err, auth.ErrUserNotFound):
		return errUserNotFound
	case errors.Is(err, auth.ErrAccountUnavailable):
		return errAccountUnavailable
	case errors.Is(err, auth.ErrPolicyDenied):
		return errPolicyDenied
	case errors.Is(err, directory.ErrEmailTaken):
		return errEmailTaken
	case errors.Is(err, loginlink.ErrInvalidKind):
		return errInvalidKind
	case errors.Is(err, auth.ErrDeliveryFailed):
		return errDeliveryFailed
	default:
		return err
	}
}
