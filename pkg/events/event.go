package events

import (
	"time"

	"github.com/google/uuid"
)

// Event is a study event travelling over JetStream. EventType doubles as the
// subject suffix ("events." + type) and ID as the JetStream dedup key.
type Event interface {
	ID() string
	EventType() string
	Payload() map[string]interface{}
	Timestamp() time.Time
}

// BaseEvent carries a flat JSON payload; the wire body is Data only.
type BaseEvent struct {
	EventID    string
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func NewEvent(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{
		EventID:    uuid.NewString(),
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}
}

func (e BaseEvent) ID() string                      { return e.EventID }
func (e BaseEvent) EventType() string               { return e.Type }
func (e BaseEvent) Payload() map[string]interface{} { return e.Data }
func (e BaseEvent) Timestamp() time.Time            { return e.OccurredAt }

// String reads a payload field, returning "" when it is missing or not a string.
func String(e Event, key string) string {
	s, _ := e.Payload()[key].(string)
	return s
}
