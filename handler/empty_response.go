package handler

import "net/http"

// statusOnly writes a status line and no body.
type statusOnly int

func (s statusOnly) Render(w http.ResponseWriter, _ *http.Request) error {
	w.WriteHeader(int(s))
	return nil
}

// Empty answers 204 No Content, as used by logout and account mutations.
func Empty() Response { return statusOnly(http.StatusNoContent) }

// EmptyWithStatus answers with status and no body, e.g. 202 once a link
// has been queued for delivery.
func EmptyWithStatus(status int) Response { return statusOnly(status) }
