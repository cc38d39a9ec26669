package session

import (
	"net/http"
)

// Middleware puts the request's session, if any, into the context.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := m.Get(r.Context(), r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		m.touch(session)
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
	})
}

// RequireAuthWith rejects requests without an authenticated session by
// calling unauthorized, or writing a plain 401 when it is nil. For GET
// requests the URL is remembered in the session so the user can be sent
// back after signing in.
func (m *Manager) RequireAuthWith(unauthorized http.Handler) func(http.Handler) http.Handler {
	if unauthorized == nil {
		unauthorized = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		})
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := FromContext(r.Context())
			if !ok {
				var err error
				if session, err = m.Get(r.Context(), r); err == nil {
					m.touch(session)
					ok = true
				}
			}
			if ok && session.IsAuthenticated() {
				next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
				return
			}

			if r.Method == http.MethodGet {
				_ = m.Set(r.Context(), w, r, KeyWantsURL, r.URL.RequestURI())
			}
			unauthorized.ServeHTTP(w, r)
		})
	}
}
