package realtime

import (
	"encoding/json"
	"fmt"
)

// EventType for WebSocket events
type EventType string

const (
	EventNewLike         EventType = "new_like"
	EventNewMatch        EventType = "new_match"
	EventNewMessage      EventType = "new_message"
	EventAppNotification EventType = "app_notification"
)

// Event is the wire shape delivered to clients: one JSON text frame per
// event over the profile's persistent connection. The type set is closed;
// Marshal rejects anything outside it.
type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload"`
}

var validEventTypes = map[EventType]bool{
	EventNewLike:         true,
	EventNewMatch:        true,
	EventNewMessage:      true,
	EventAppNotification: true,
}

// Marshal serializes the event, validating the type at the boundary
func (e *Event) Marshal() ([]byte, error) {
	if !validEventTypes[e.Type] {
		return nil, fmt.Errorf("unknown realtime event type %q", e.Type)
	}
	return json.Marshal(e)
}

// NewLike builds a new_like event
func NewLike(payload interface{}) *Event {
	return &Event{Type: EventNewLike, Payload: payload}
}

// NewMatch builds a new_match event
func NewMatch(payload interface{}) *Event {
	return &Event{Type: EventNewMatch, Payload: payload}
}

// NewMessage builds a new_message event
func NewMessage(payload interface{}) *Event {
	return &Event{Type: EventNewMessage, Payload: payload}
}
