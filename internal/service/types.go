package service

import (
	"github.com/vogiaan1904/thequeue/internal/models"
)

type MutationKind string

const (
	MutationAppend     MutationKind = "append"
	MutationReposition MutationKind = "reposition"
	MutationStatus     MutationKind = "status"
)

// NewRequest is the guest-supplied part of a request.
type NewRequest struct {
	SongTitle string   `json:"song_title" validate:"required,max=200"`
	Artist    *string  `json:"artist,omitempty" validate:"omitempty,max=200"`
	GuestName *string  `json:"guest_name,omitempty" validate:"omitempty,max=100"`
	Note      *string  `json:"note,omitempty" validate:"omitempty,max=500"`
	TipAmount *float64 `json:"tip_amount,omitempty" validate:"omitempty,gte=0"`
}

type MutationInput struct {
	Kind MutationKind `json:"kind" validate:"required,oneof=append reposition status"`

	// Append.
	Request *NewRequest `json:"request,omitempty" validate:"required_if=Kind append"`

	// Reposition and status.
	RequestID string               `json:"request_id,omitempty" validate:"required_unless=Kind append"`
	Position  int                  `json:"position,omitempty"`
	Status    models.RequestStatus `json:"status,omitempty" validate:"required_if=Kind status"`
}

type MutationResult struct {
	Kind    MutationKind      `json:"kind"`
	Request *models.Request   `json:"request"`
	Ordered []*models.Request `json:"ordered,omitempty"`
	Event   *models.Event     `json:"-"`
}

type CreateSessionInput struct {
	Name string `json:"name" validate:"required,max=120"`
}

type CreateSessionOutput struct {
	Session *models.Session `json:"session"`
	DJToken string          `json:"dj_token"`
}
