package handler

import (
	"encoding/json"
	"errors"
	"maps"
	"net/http"
)

// JSONResponse is the envelope every JSON endpoint answers with. Exactly one
// of Data or Error is set.
type JSONResponse struct {
	Data  any            `json:"data,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
	Error *ErrorDetail   `json:"error,omitempty"`
}

// ErrorDetail carries a machine-readable code (a message key such as
// "auth.invalid_link") and, for validation failures, per-field keys.
type ErrorDetail struct {
	Code    string              `json:"code,omitempty"`
	Message string              `json:"message,omitempty"`
	Details map[string][]string `json:"details,omitempty"`
}

type jsonResponse struct {
	status int
	body   JSONResponse
}

func (j *jsonResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// JSONOption adjusts a JSON response after its body is built.
type JSONOption func(*jsonResponse)

func WithJSONStatus(status int) JSONOption {
	return func(j *jsonResponse) { j.status = status }
}

func WithJSONMeta(meta map[string]any) JSONOption {
	return func(j *jsonResponse) { j.body.Meta = meta }
}

// JSON answers 200 with v as data. An error or *ErrorDetail is rendered
// as JSONError would render it.
func JSON(v any, opts ...JSONOption) Response {
	switch val := v.(type) {
	case error, *ErrorDetail:
		return JSONError(val, opts...)
	case JSONResponse:
		return withOptions(&jsonResponse{status: http.StatusOK, body: val}, opts)
	}
	return withOptions(&jsonResponse{status: http.StatusOK, body: JSONResponse{Data: v}}, opts)
}

// JSONError answers with an error envelope. The status comes from the error
// (see Describe) unless WithJSONStatus overrides it.
func JSONError(err any, opts ...JSONOption) Response {
	j := &jsonResponse{status: http.StatusInternalServerError}
	switch e := err.(type) {
	case *ErrorDetail:
		j.body.Error = e
	case error:
		j.status, j.body.Error = Describe(e)
	}
	return withOptions(j, opts)
}

func withOptions(j *jsonResponse, opts []JSONOption) Response {
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Describe maps err to a status and public detail. Validation failures win
// over a wrapping HTTPError; anything unrecognised becomes an opaque 500 so
// driver messages never reach the client.
func Describe(err error) (int, *ErrorDetail) {
	var valErr ValidationError
	if errors.As(err, &valErr) {
		detail := &ErrorDetail{Code: "validation_error", Message: valErr.Error()}
		if len(valErr) > 0 {
			detail.Details = maps.Clone(map[string][]string(valErr))
		}
		return http.StatusUnprocessableEntity, detail
	}

	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code, &ErrorDetail{Code: httpErr.Key, Message: http.StatusText(httpErr.Code)}
	}

	return http.StatusInternalServerError, &ErrorDetail{
		Code:    "internal_error",
		Message: http.StatusText(http.StatusInternalServerError),
	}
}
