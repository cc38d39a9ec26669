package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/magicauth/pkg/loginlink"
)

type Mountable interface {
	Handle() http.Handler
}

// RouterOptions configures which parts of the account module are mounted.
// Each part is optional.
type RouterOptions struct {
	MagicLink *MagicLinkHandler
	Admin     Mountable
}

// Router creates the account module router.
//
// Links point at /login and /invitation at the root, next to /auth/magic
// for requests and sign-out and /admin/magic for the admin API.
func Router(opts RouterOptions) chi.Router {
	r := chi.NewRouter()

	if opts.MagicLink != nil {
		r.Get("/login", opts.MagicLink.ConsumeHandler(loginlink.KindLogin))
		r.Get("/invitation", opts.MagicLink.ConsumeHandler(loginlink.KindInvitation))
		r.Route("/auth", func(auth chi.Router) {
			auth.Mount("/magic", opts.MagicLink.Handle())
		})
	}
	if opts.Admin != nil {
		r.Mount("/admin/magic", opts.Admin.Handle())
	}

	return r
}
