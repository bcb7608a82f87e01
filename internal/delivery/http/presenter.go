package http

import (
	"strings"

	"github.com/vogiaan1904/thequeue/internal/models"
	"github.com/vogiaan1904/thequeue/internal/service"
)

type createSessionRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

type createRequestRequest struct {
	SongTitle string   `json:"song_title" validate:"required,max=200"`
	Artist    *string  `json:"artist" validate:"omitempty,max=200"`
	GuestName *string  `json:"guest_name" validate:"omitempty,max=100"`
	Note      *string  `json:"note" validate:"omitempty,max=500"`
	TipAmount *float64 `json:"tip_amount" validate:"omitempty,gte=0"`
}

func (r createRequestRequest) toInput() service.MutationInput {
	return service.MutationInput{
		Kind: service.MutationAppend,
		Request: &service.NewRequest{
			SongTitle: strings.TrimSpace(r.SongTitle),
			Artist:    r.Artist,
			GuestName: r.GuestName,
			Note:      r.Note,
			TipAmount: r.TipAmount,
		},
	}
}

type updatePositionRequest struct {
	Position *int `json:"position" validate:"required"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type healthResponse struct {
	Status string `json:"status"`
}

type sessionListResponse struct {
	Sessions []models.SessionSummary `json:"sessions"`
}
