package models

import "time"

type EventType string

const (
	EventTypeRequestCreated       EventType = "request.created"
	EventTypeRequestReordered     EventType = "request.reordered"
	EventTypeRequestStatusChanged EventType = "request.status_changed"
	EventTypeSessionEnded         EventType = "session.ended"
)

// Event is what subscribers of a session receive after a committed mutation.
// Consumers merge Request (and Requests, for reorders) by id.
type Event struct {
	Type      EventType  `json:"type"`
	SessionID string     `json:"session_id"`
	Sequence  uint64     `json:"sequence"`
	Request   *Request   `json:"request,omitempty"`
	Requests  []*Request `json:"requests,omitempty"`
	Session   *Session   `json:"session,omitempty"`
	EmittedAt time.Time  `json:"emitted_at"`
}
