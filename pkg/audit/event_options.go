package audit

import "github.com/google/uuid"

// WithResource sets the resource type and ID
func WithResource(resource, id string) EventOption {
	return func(e *Event) {
		e.Resource = resource
		e.ResourceID = id
	}
}

// WithUser sets the user the event is about. It overrides the extracted user.
func WithUser(id uuid.UUID) EventOption {
	return func(e *Event) {
		if id != uuid.Nil {
			e.UserID = id.String()
		}
	}
}

// WithActor sets the user who performed the action, when different from the subject.
func WithActor(id uuid.UUID) EventOption {
	return func(e *Event) {
		if id != uuid.Nil {
			e.ActorID = id.String()
		}
	}
}

// WithMetadata adds metadata to the event
func WithMetadata(key string, value any) EventOption {
	return func(e *Event) {
		if e.Metadata == nil {
			e.Metadata = make(map[string]any)
		}
		e.Metadata[key] = value
	}
}

// WithResult sets the event result
func WithResult(result Result) EventOption {
	return func(e *Event) {
		e.Result = result
	}
}
