package audit

import (
	"context"
	"time"
)

type Option func(*Logger)

// Extractor pulls one value out of a request context.
type Extractor func(context.Context) (string, bool)

func fromContext(fn Extractor, set func(*Event, string)) Option {
	return func(l *Logger) {
		if fn == nil {
			return
		}
		l.enrich = append(l.enrich, func(ctx context.Context, e *Event) {
			if v, ok := fn(ctx); ok {
				set(e, v)
			}
		})
	}
}

// WithUserIDExtractor fills Event.UserID. WithUser on a single event wins.
func WithUserIDExtractor(fn Extractor) Option {
	return fromContext(fn, func(e *Event, v string) { e.UserID = v })
}

func WithSessionIDExtractor(fn Extractor) Option {
	return fromContext(fn, func(e *Event, v string) { e.SessionID = v })
}

func WithRequestIDExtractor(fn Extractor) Option {
	return fromContext(fn, func(e *Event, v string) { e.RequestID = v })
}

func WithIPExtractor(fn Extractor) Option {
	return fromContext(fn, func(e *Event, v string) { e.IP = v })
}

func WithUserAgentExtractor(fn Extractor) Option {
	return fromContext(fn, func(e *Event, v string) { e.UserAgent = v })
}

// WithMetadataFilter scrubs metadata before it is stored.
func WithMetadataFilter(f *MetadataFilter) Option {
	return func(l *Logger) { l.filter = f }
}

// WithAsync queues up to bufferSize events and writes them in batches.
// Logger.Close must be called on shutdown.
func WithAsync(bufferSize int, opts AsyncOptions) Option {
	return func(l *Logger) {
		opts.BufferSize = bufferSize
		l.async = &opts
	}
}

func WithClock(now func() time.Time) Option {
	return func(l *Logger) {
		if now != nil {
			l.now = now
		}
	}
}
