package clientip

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/magicauth/pkg/logger"
)

type contextKey struct{}

func WithContext(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, contextKey{}, ip)
}

// FromContext returns the client IP stored by Middleware, or "".
func FromContext(ctx context.Context) string {
	ip, _ := Lookup(ctx)
	return ip
}

// Lookup matches the audit logger's context extractor signature.
func Lookup(ctx context.Context) (string, bool) {
	ip, ok := ctx.Value(contextKey{}).(string)
	return ip, ok && ip != ""
}

// LogExtractor adds the client_ip attribute to request-scoped log records.
func LogExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		ip, ok := Lookup(ctx)
		if !ok {
			return slog.Attr{}, false
		}
		return slog.String("client_ip", ip), true
	}
}
