package binder

import (
	"fmt"
	"net/http"
)

// Path creates a path parameter binder function using the provided extractor.
// The extractor is called once per tagged field with the parameter name.
//
// Supported struct tags:
//   - `path:"name"` - binds to path parameter "name"
//   - `path:"-"`    - skips the field
//
// Example with chi router:
//
//	type UserRequest struct {
//		UserID uuid.UUID `path:"id"`
//	}
//
//	r.Post("/admin/magic/users/{id}/suspend", handler.Wrap(h.suspend,
//		handler.WithBinders[handler.Context, UserRequest](binder.Path(chi.URLParam)),
//	))
func Path(extractor func(r *http.Request, name string) string) func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		if extractor == nil {
			return fmt.Errorf("%w: extractor function is nil", ErrFailedToParsePath)
		}

		names, err := taggedFields(v, "path", ErrFailedToParsePath)
		if err != nil {
			return err
		}

		values := make(map[string][]string, len(names))
		for _, name := range names {
			if value := extractor(r, name); value != "" {
				values[name] = []string{value}
			}
		}

		return bindToStruct(v, "path", values, ErrFailedToParsePath)
	}
}
