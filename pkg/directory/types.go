package directory

import (
	"time"

	"github.com/google/uuid"
)

// DefaultRole is the site role of accounts created without one.
const DefaultRole = "user"

// Enrolment is a course membership created by quick registration.
type Enrolment struct {
	CourseID uuid.UUID
	UserID   uuid.UUID
	Role     string
	StartsAt time.Time
	EndsAt   *time.Time // nil means no end date
}

// Active reports whether the enrolment is in effect at t.
func (e Enrolment) Active(t time.Time) bool {
	return !t.Before(e.StartsAt) && (e.EndsAt == nil || t.Before(*e.EndsAt))
}

type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func newOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func endsAt(start time.Time, d time.Duration) *time.Time {
	if d <= 0 {
		return nil
	}
	t := start.Add(d)
	return &t
}
