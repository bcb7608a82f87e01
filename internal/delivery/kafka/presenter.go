package kafka

import (
	"github.com/vogiaan1904/thequeue/internal/models"
	"github.com/vogiaan1904/thequeue/internal/service"
)

// Messages published BY the queue service mirror what websocket subscribers
// receive, so QueueEvent is the session event itself.
type QueueEvent = models.Event

// Messages consumed BY the queue service

type QueueCommand struct {
	CommandID string              `json:"command_id"`
	SessionID string              `json:"session_id"`
	Kind      string              `json:"kind"`
	RequestID string              `json:"request_id,omitempty"`
	Position  int                 `json:"position,omitempty"`
	Status    string              `json:"status,omitempty"`
	Request   *service.NewRequest `json:"request,omitempty"`
}

func (c QueueCommand) ToInput() service.MutationInput {
	return service.MutationInput{
		Kind:      service.MutationKind(c.Kind),
		Request:   c.Request,
		RequestID: c.RequestID,
		Position:  c.Position,
		Status:    models.RequestStatus(c.Status),
	}
}
