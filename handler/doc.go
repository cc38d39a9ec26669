// Package handler provides type-safe HTTP request handling.
//
// Handlers are generic functions that receive a bound request struct and
// return a Response:
//
//	type RequestLinkRequest struct {
//		Email string `json:"email" form:"email"`
//	}
//
//	func requestLink(ctx handler.Context, req RequestLinkRequest) handler.Response {
//		ack, err := svc.RequestLoginLink(ctx, req.Email)
//		if err != nil {
//			return handler.JSONError(handler.FromValidation(err))
//		}
//		return handler.JSON(ack)
//	}
//
//	r.Post("/auth/magic/request", handler.Wrap(requestLink,
//		handler.WithBinders[handler.Context, RequestLinkRequest](binder.JSON(), binder.Form()),
//	))
//
// # Responses
//
//   - JSON, JSONError: the JSONResponse envelope with data, meta or error
//   - Empty, EmptyWithStatus: status code only
//   - Redirect, RedirectWithCode, RedirectBack: HTTP redirects
//   - Templ: an HTML component
//
// # Errors
//
// Binding and rendering failures go to the ErrorHandler. NewErrorHandler
// classifies HTTPError and ValidationError values, logs them with the
// request ID and answers with JSON or an HTML error page depending on the
// Accept header.
package handler
