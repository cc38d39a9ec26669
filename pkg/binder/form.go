package binder

import (
	"fmt"
	"net/http"
)

// DefaultMaxMemory is the default maximum memory used for parsing multipart forms (10MB).
const DefaultMaxMemory = 10 << 20 // 10 MB

// Form creates a binder for application/x-www-form-urlencoded and
// multipart/form-data bodies. Only values are bound; uploaded files are
// left on r.MultipartForm.
//
// Supported struct tags:
//   - `form:"name"` - binds to form field "name"
//   - `form:"-"`    - skips the field
//
// Example:
//
//	type RequestLinkRequest struct {
//		Email string `form:"email"`
//	}
func Form() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		if r.Header.Get("Content-Type") == "" {
			if r.ContentLength == 0 {
				return ErrBinderNotApplicable
			}
			return fmt.Errorf("%w: expected %s or %s", ErrMissingContentType, mediaForm, mediaMultipart)
		}

		var values map[string][]string
		switch mediaType(r) {
		case mediaForm:
			if err := r.ParseForm(); err != nil {
				return fmt.Errorf("%w: %v", ErrFailedToParseForm, err)
			}
			values = r.PostForm

		case mediaMultipart:
			if err := r.ParseMultipartForm(DefaultMaxMemory); err != nil {
				return fmt.Errorf("%w: %v", ErrFailedToParseForm, err)
			}
			values = r.MultipartForm.Value

		default:
			return fmt.Errorf("%w: %w: got %q", ErrBinderNotApplicable, ErrUnsupportedMediaType, mediaType(r))
		}

		return bindToStruct(v, "form", values, ErrFailedToParseForm)
	}
}
