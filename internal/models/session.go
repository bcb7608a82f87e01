package models

import "time"

// Session is a DJ session, the room that scopes one queue.
type Session struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Slug      string     `json:"slug"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	EndsAt    *time.Time `json:"ends_at,omitempty"`
}

func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.EndsAt != nil {
		t := *s.EndsAt
		c.EndsAt = &t
	}
	return &c
}

// SessionSummary is the admin listing row. Sessions carry no DJ profile, so
// DJName is always null.
type SessionSummary struct {
	Session
	DJName       *string `json:"dj_name"`
	RequestCount int     `json:"request_count"`
}
