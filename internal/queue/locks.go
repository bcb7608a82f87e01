package queue

import "sync"

// roomLock serializes mutations of one room. publish is a second mutex taken
// before mu is released so publishes happen in commit order.
type roomLock struct {
	mu      sync.Mutex
	publish sync.Mutex
	refs    int
}

// roomLocks is a keyed mutex. Entries are created on first use and dropped
// once no goroutine holds or waits on them. Commit sequences outlive entries.
type roomLocks struct {
	mu      sync.Mutex
	entries map[string]*roomLock
	seqs    map[string]uint64
}

func newRoomLocks() *roomLocks {
	return &roomLocks{
		entries: make(map[string]*roomLock),
		seqs:    make(map[string]uint64),
	}
}

func (l *roomLocks) ref(room string) *roomLock {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[room]
	if !ok {
		e = &roomLock{}
		l.entries[room] = e
	}
	e.refs++
	return e
}

func (l *roomLocks) unref(room string, e *roomLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(l.entries, room)
	}
}

func (l *roomLocks) lock(room string) *roomLock {
	e := l.ref(room)
	e.mu.Lock()
	return e
}

func (l *roomLocks) unlock(room string, e *roomLock) {
	e.mu.Unlock()
	l.unref(room, e)
}

// handOver must be called with e.mu held. It waits for the previous commit's
// turn to finish, stamps the next sequence and releases e.mu.
func (l *roomLocks) handOver(room string, e *roomLock) *Turn {
	l.ref(room)
	e.publish.Lock()
	t := &Turn{
		Room:     room,
		Sequence: l.nextSeq(room),
		done: func() {
			e.publish.Unlock()
			l.unref(room, e)
		},
	}
	l.unlock(room, e)
	return t
}

func (l *roomLocks) nextSeq(room string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seqs[room]++
	return l.seqs[room]
}

func (l *roomLocks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
