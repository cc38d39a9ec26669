// Package binder decodes HTTP request data into structs.
//
// Each binder has the signature func(r *http.Request, v any) error and reads
// one source:
//
//   - JSON(): application/json bodies, strict, with string sanitizing
//   - Form(): urlencoded and multipart form values, `form:"name"` tags
//   - Query(): URL query values, `query:"name"` tags
//   - Path(extractor): router path values, `path:"name"` tags
//
// Body binders return ErrBinderNotApplicable when the request body has a
// different media type, so several of them can be chained:
//
//	type RequestLinkRequest struct {
//		Email string `json:"email" form:"email"`
//	}
//
//	r.Post("/auth/magic/request", handler.Wrap(h.requestLink,
//		handler.WithBinders[handler.Context, RequestLinkRequest](binder.JSON(), binder.Form()),
//	))
//
// Fields without a value in the source keep their zero value. Supported field
// types are strings, integers, floats, bools, uuid.UUID, pointers to these and
// slices of them.
package binder
