package models

import (
	"testing"
	"time"
)

func TestSortOrdered(t *testing.T) {
	base := time.Date(2026, 10, 14, 20, 0, 0, 0, time.UTC)
	reqs := []*Request{
		{ID: "c", Position: 2, CreatedAt: base.Add(2 * time.Second)},
		{ID: "b", Position: 2, CreatedAt: base.Add(time.Second)},
		{ID: "a", Position: 1, CreatedAt: base.Add(5 * time.Second)},
		{ID: "e", Position: 3, CreatedAt: base},
		{ID: "d", Position: 3, CreatedAt: base},
	}

	SortOrdered(reqs)

	want := []string{"a", "b", "c", "d", "e"}
	for i, r := range reqs {
		if r.ID != want[i] {
			t.Errorf("reqs[%d].ID = %q, want %q", i, r.ID, want[i])
		}
	}
}

func TestRequestStatusValid(t *testing.T) {
	for _, s := range []RequestStatus{"pending", "accepted", "playing", "done", "rejected"} {
		if !s.Valid() {
			t.Errorf("%q.Valid() = false, want true", s)
		}
	}
	for _, s := range []RequestStatus{"", "queued", "PENDING"} {
		if s.Valid() {
			t.Errorf("%q.Valid() = true, want false", s)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	artist := "Daft Punk"
	tip := 5.0
	r := &Request{ID: "1", Artist: &artist, TipAmount: &tip}

	c := r.Clone()
	*c.Artist = "Justice"
	*c.TipAmount = 1

	if *r.Artist != "Daft Punk" || *r.TipAmount != 5 {
		t.Errorf("Clone shares pointers with the original: %+v", r)
	}
}
