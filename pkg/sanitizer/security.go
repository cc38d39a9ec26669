package sanitizer

import (
	"net/url"
	"strings"
)

// SanitizeEmail removes null bytes, control characters and markup characters.
func SanitizeEmail(email string) string {
	result := strings.ReplaceAll(email, "\x00", "")
	result = RemoveControlChars(result)
	result = strings.NewReplacer("<", "", ">", "", "\"", "", "'", "").Replace(result)
	return strings.TrimSpace(result)
}

// PreventHeaderInjection removes characters that could split HTTP headers.
func PreventHeaderInjection(s string) string {
	return strings.NewReplacer("\r", "", "\n", "", "\x00", "").Replace(s)
}

// LocalRedirect returns target if it is a same-origin absolute path, else fallback.
// Scheme-relative ("//host") and backslash forms are rejected so the result
// can be used in a Location header without becoming an open redirect.
func LocalRedirect(target, fallback string) string {
	target = PreventHeaderInjection(strings.TrimSpace(target))
	if target == "" || !strings.HasPrefix(target, "/") {
		return fallback
	}
	if strings.HasPrefix(target, "//") || strings.Contains(target, `\`) {
		return fallback
	}

	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return target
}
