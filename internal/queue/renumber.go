package queue

import (
	"slices"
	"time"

	"github.com/vogiaan1904/thequeue/internal/models"
)

func clamp(requested, n int) int {
	if requested < 1 {
		return 1
	}
	if requested > n {
		return n
	}
	return requested
}

// move returns a copy of ordered with ordered[from] reinserted at index to.
func move(ordered []*models.Request, from, to int) []*models.Request {
	target := ordered[from]
	out := slices.Delete(slices.Clone(ordered), from, from+1)
	return slices.Insert(out, to, target)
}

// renumber assigns position index+1 to every request and returns how many
// positions changed.
func renumber(ordered []*models.Request, at time.Time) int {
	changed := 0
	for i, req := range ordered {
		pos := i + 1
		if req.Position != pos {
			req.Position = pos
			req.UpdatedAt = at
			changed++
		}
	}
	return changed
}
