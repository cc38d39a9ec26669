package requestid

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/magicauth/pkg/logger"
)

// LogExtractor adds the request_id attribute to records logged with a
// request context.
func LogExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		id, ok := Lookup(ctx)
		if !ok {
			return slog.Attr{}, false
		}
		return logger.RequestID(id), true
	}
}
