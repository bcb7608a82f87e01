package util

import (
	"testing"
	"time"
)

func TestISO8601(t *testing.T) {
	loc := time.FixedZone("ICT", 7*60*60)
	in := time.Date(2026, 3, 14, 22, 30, 5, 999, loc)

	s := TimeToISO8601Str(in)
	if s != "2026-03-14T15:30:05Z" {
		t.Fatalf("TimeToISO8601Str() = %q, want UTC with second precision", s)
	}

	got, err := ParseISO8601(s)
	if err != nil {
		t.Fatalf("ParseISO8601 failed: %v", err)
	}
	if !got.Equal(in.Truncate(time.Second)) {
		t.Errorf("ParseISO8601() = %v, want %v", got, in.Truncate(time.Second))
	}
}
