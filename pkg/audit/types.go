package audit

import (
	"context"
	"fmt"
	"time"
)

// Result represents the outcome of an audited action
type Result string

const (
	ResultSuccess Result = "success"
	ResultFailure Result = "failure"
	ResultError   Result = "error"
)

// Actions recorded by the magic link flows.
const (
	ActionLinkRequested      = "login_link.requested"
	ActionLinkIssued         = "login_link.issued"
	ActionLinkConsumed       = "login_link.consumed"
	ActionLinkRejected       = "login_link.rejected"
	ActionAccountProvisioned = "account.provisioned"
	ActionAccountSuspended   = "account.suspended"
	ActionAccountUnsuspended = "account.unsuspended"
	ActionAccountDeleted     = "account.deleted"
	ActionLinksViewed        = "login_links.viewed"
)

// Event represents a single audit log entry
type Event struct {
	ID         string         `json:"id" bson:"_id"`
	UserID     string         `json:"user_id" bson:"user_id"`
	ActorID    string         `json:"actor_id,omitempty" bson:"actor_id,omitempty"`
	SessionID  string         `json:"session_id,omitempty" bson:"session_id,omitempty"`
	Action     string         `json:"action" bson:"action"`
	Resource   string         `json:"resource,omitempty" bson:"resource,omitempty"`
	ResourceID string         `json:"resource_id,omitempty" bson:"resource_id,omitempty"`
	Result     Result         `json:"result" bson:"result"`
	Error      string         `json:"error,omitempty" bson:"error,omitempty"`
	RequestID  string         `json:"request_id,omitempty" bson:"request_id,omitempty"`
	IP         string         `json:"ip,omitempty" bson:"ip,omitempty"`
	UserAgent  string         `json:"user_agent,omitempty" bson:"user_agent,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty" bson:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at" bson:"created_at"`
}

// Validate checks if the event has all required fields
func (e *Event) Validate() error {
	if e.Action == "" {
		return fmt.Errorf("%w: action is required", ErrEventValidation)
	}
	return nil
}

// EventOption applies configuration to an Event during creation.
// Used with Log and LogError methods to add metadata, resources, etc.
type EventOption func(*Event)

// Criteria filters events in Query. Zero fields are ignored.
// Results are ordered newest first.
type Criteria struct {
	UserID     string
	ActorID    string
	Action     string
	Resource   string
	ResourceID string
	Result     Result
	Since      time.Time
	Until      time.Time
	Limit      int
	Offset     int
}

func (c Criteria) matches(e Event) bool {
	switch {
	case c.UserID != "" && e.UserID != c.UserID:
		return false
	case c.ActorID != "" && e.ActorID != c.ActorID:
		return false
	case c.Action != "" && e.Action != c.Action:
		return false
	case c.Resource != "" && e.Resource != c.Resource:
		return false
	case c.ResourceID != "" && e.ResourceID != c.ResourceID:
		return false
	case c.Result != "" && e.Result != c.Result:
		return false
	case !c.Since.IsZero() && e.CreatedAt.Before(c.Since):
		return false
	case !c.Until.IsZero() && !e.CreatedAt.Before(c.Until):
		return false
	}
	return true
}

// Storage persists audit events.
type Storage interface {
	Store(ctx context.Context, events ...Event) error
	Query(ctx context.Context, criteria Criteria) ([]Event, error)
}

// StorageCounter is implemented by storages that can count without loading events.
type StorageCounter interface {
	Count(ctx context.Context, criteria Criteria) (int64, error)
}
