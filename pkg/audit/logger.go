package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Logger writes audit events for account and login-link actions. A nil
// *Logger accepts every call and stores nothing.
type Logger struct {
	storage Storage
	enrich  []func(context.Context, *Event)
	filter  *MetadataFilter
	async   *AsyncOptions
	flush   func(context.Context) error
	now     func() time.Time
	newID   func() string
}

func NewLogger(storage Storage, opts ...Option) *Logger {
	if storage == nil {
		panic("audit: storage cannot be nil")
	}

	l := &Logger{storage: storage, now: time.Now, newID: uuid.NewString}
	for _, opt := range opts {
		opt(l)
	}
	if l.async != nil {
		b := newAsyncStorage(l.storage, *l.async)
		l.storage, l.flush = b, b.Close
	}
	return l
}

// Log records action as successful.
func (l *Logger) Log(ctx context.Context, action string, opts ...EventOption) error {
	return l.record(ctx, action, ResultSuccess, nil, opts)
}

// LogError records action as failed with err's message.
func (l *Logger) LogError(ctx context.Context, action string, err error, opts ...EventOption) error {
	return l.record(ctx, action, ResultError, err, opts)
}

// Close drains buffered events. It is a no-op for synchronous loggers.
func (l *Logger) Close(ctx context.Context) error {
	if l == nil || l.flush == nil {
		return nil
	}
	return l.flush(ctx)
}

func (l *Logger) record(ctx context.Context, action string, result Result, cause error, opts []EventOption) error {
	if l == nil {
		return nil
	}

	e := Event{
		ID:        l.newID(),
		Action:    action,
		Result:    result,
		CreatedAt: l.now().UTC(),
	}
	if cause != nil {
		e.Error = cause.Error()
	}
	for _, fill := range l.enrich {
		fill(ctx, &e)
	}
	for _, opt := range opts {
		opt(&e)
	}

	if err := e.Validate(); err != nil {
		return err
	}
	if l.filter != nil {
		e.Metadata = l.filter.Filter(e.Metadata)
	}
	return l.storage.Store(ctx, e)
}
