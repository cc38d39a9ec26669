package clientip

import (
	"net"
	"net/http"
	"strings"
)

// ProxyHeaders are checked in order when proxies are trusted.
var ProxyHeaders = []string{
	"CF-Connecting-IP",
	"X-Forwarded-For",
	"X-Real-IP",
}

// FromRequest returns the normalized client IP, or "" if none is valid.
// With trustProxy set the first valid address from ProxyHeaders wins and
// RemoteAddr is the fallback.
func FromRequest(r *http.Request, trustProxy bool) string {
	if trustProxy {
		for _, name := range ProxyHeaders {
			value := r.Header.Get(name)
			if value == "" {
				continue
			}
			// X-Forwarded-For lists the client first.
			for candidate := range strings.SplitSeq(value, ",") {
				if ip := normalize(candidate); ip != "" {
					return ip
				}
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return normalize(r.RemoteAddr)
	}
	return normalize(host)
}

func normalize(raw string) string {
	ip := net.ParseIP(strings.TrimSpace(raw))
	if ip == nil {
		return ""
	}
	return ip.String()
}
