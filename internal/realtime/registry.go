package realtime

import "sync"

// Registry tracks the live subscribers of every session. A session key is
// present only while it has at least one subscriber.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]map[string]Subscriber
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]map[string]Subscriber)}
}

// Join adds sub to room. Joining twice with the same id is a no-op.
func (r *Registry) Join(room string, sub Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()

	subs, ok := r.rooms[room]
	if !ok {
		subs = make(map[string]Subscriber)
		r.rooms[room] = subs
	}
	if _, ok := subs[sub.ID()]; !ok {
		subs[sub.ID()] = sub
	}
}

// Leave reports whether sub was a member of room.
func (r *Registry) Leave(room string, sub Subscriber) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	subs, ok := r.rooms[room]
	if !ok {
		return false
	}
	if _, ok := subs[sub.ID()]; !ok {
		return false
	}
	delete(subs, sub.ID())
	if len(subs) == 0 {
		delete(r.rooms, room)
	}
	return true
}

// Snapshot returns a copy of room's subscribers.
func (r *Registry) Snapshot(room string) []Subscriber {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subs := r.rooms[room]
	out := make([]Subscriber, 0, len(subs))
	for _, s := range subs {
		out = append(out, s)
	}
	return out
}

func (r *Registry) Count(room string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[room])
}

func (r *Registry) Has(room, id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[room][id]
	return ok
}

func (r *Registry) roomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
