package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Template event types.
const (
	// TypeTemplateCreated is emitted after a new template is stored.
	TypeTemplateCreated = "template.created"

	// TypeTemplateChanged is emitted after a template's schedule or payload
	// changed and its future instances were removed.
	TypeTemplateChanged = "template.changed"
)

// TemplateEvent announces that a template needs its instances
// materialized.
type TemplateEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is one of the Type* constants
	Type string `json:"type"`

	TemplateID uuid.UUID `json:"template_id"`
	UserID     uuid.UUID `json:"user_id"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// NewTemplateEvent creates a TemplateEvent with a fresh ID.
func NewTemplateEvent(eventType string, templateID, userID uuid.UUID) *TemplateEvent {
	return &TemplateEvent{
		ID:         uuid.New(),
		Type:       eventType,
		TemplateID: templateID,
		UserID:     userID,
		CreatedAt:  time.Now().UTC(),
	}
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *TemplateEvent) error
}

// EventEmitter defines an interface for components that can emit events.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *TemplateEvent) error
}
