package queue

import "sync"

// Turn is the right to publish one committed mutation. Turns of a room are
// granted in commit order; the next commit's turn is not granted until Done
// is called on this one.
type Turn struct {
	Room     string
	Sequence uint64

	once sync.Once
	done func()
}

// Done releases the turn. Safe to call more than once and on a nil Turn.
func (t *Turn) Done() {
	if t == nil || t.done == nil {
		return
	}
	t.once.Do(t.done)
}
