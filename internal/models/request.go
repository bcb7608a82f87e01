package models

import (
	"sort"
	"time"
)

type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusAccepted RequestStatus = "accepted"
	RequestStatusPlaying  RequestStatus = "playing"
	RequestStatusDone     RequestStatus = "done"
	RequestStatusRejected RequestStatus = "rejected"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusPending,
		RequestStatusAccepted,
		RequestStatusPlaying,
		RequestStatusDone,
		RequestStatusRejected:
		return true
	}
	return false
}

// Request is one song request in a session's queue.
type Request struct {
	ID        string        `json:"id"`
	SessionID string        `json:"session_id"`
	GuestName *string       `json:"guest_name"`
	SongTitle string        `json:"song_title"`
	Artist    *string       `json:"artist"`
	Note      *string       `json:"note"`
	Status    RequestStatus `json:"status"`
	Position  int           `json:"position"`
	TipAmount *float64      `json:"tip_amount,omitempty"`
	Votes     int           `json:"votes"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	c := *r
	c.GuestName = cloneString(r.GuestName)
	c.Artist = cloneString(r.Artist)
	c.Note = cloneString(r.Note)
	if r.TipAmount != nil {
		tip := *r.TipAmount
		c.TipAmount = &tip
	}
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// SortOrdered sorts by position, then creation time. The id is a last resort so
// the order is total even for rows sharing both.
func SortOrdered(reqs []*Request) {
	sort.SliceStable(reqs, func(i, j int) bool {
		a, b := reqs[i], reqs[j]
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
