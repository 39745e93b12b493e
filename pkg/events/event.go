package events

import "time"

// Subject suffixes for orchestration events. The NATS publisher prepends
// the stream prefix, so these stay short.
const (
	TypeOrchestrationStarted   = "started"
	TypeOrchestrationCompleted = "completed"
	TypeOrchestrationFailed    = "failed"
	TypeContentGenerated       = "content_generated"
	TypeSessionClosed          = "session_closed"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "completed").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the concrete implementation used everywhere; define a new
// type only when an event needs behavior.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewOrchestrationEvent stamps the common fields every orchestration event
// carries alongside its type-specific data.
func NewOrchestrationEvent(eventType, sessionID, userID string, data map[string]interface{}) BaseEvent {
	payload := map[string]interface{}{
		"session_id": sessionID,
		"user_id":    userID,
	}
	for k, v := range data {
		payload[k] = v
	}
	return BaseEvent{
		Type:       eventType,
		Data:       payload,
		OccurredAt: time.Now(),
	}
}
