package handler

import (
	"net/http"
	"net/url"
)

type redirectResponse struct {
	url  string
	code int
}

func (r redirectResponse) Render(w http.ResponseWriter, req *http.Request) error {
	http.Redirect(w, req, r.url, r.code)
	return nil
}

// Redirect creates a redirect response with status 303 (See Other).
//
// Example:
//
//	return handler.Redirect(sanitizer.LocalRedirect(outcome.WantsURL, "/"))
func Redirect(url string) Response {
	return redirectResponse{url: url, code: http.StatusSeeOther}
}

// RedirectWithCode creates a redirect response with a specific status code.
// Valid codes are 301, 302, 303, 307 and 308.
func RedirectWithCode(url string, code int) Response {
	return redirectResponse{url: url, code: code}
}

type redirectBackResponse struct {
	fallback string
	code     int
}

// Render redirects back to the referrer or fallback URL
func (r redirectBackResponse) Render(w http.ResponseWriter, req *http.Request) error {
	target := r.fallback
	if referer := req.Header.Get("Referer"); referer != "" && isSameHost(referer, req) {
		target = referer
	}
	http.Redirect(w, req, target, r.code)
	return nil
}

// RedirectBack creates a 303 redirect to the same-host referrer, or to
// fallback when there is none.
func RedirectBack(fallback string) Response {
	return redirectBackResponse{fallback: fallback, code: http.StatusSeeOther}
}

func isSameHost(raw string, r *http.Request) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	// Only allow same-host redirects (empty host means relative URL)
	return parsed.Host == "" || parsed.Host == r.Host
}
