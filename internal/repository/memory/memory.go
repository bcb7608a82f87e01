// Package memory is an in-process store used by tests and STORE_DRIVER=memory.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vogiaan1904/thequeue/internal/models"
	"github.com/vogiaan1904/thequeue/internal/repository"
)

// DB holds both sessions and requests so listings can count requests.
type DB struct {
	mu        sync.RWMutex
	sessions  map[string]*models.Session
	slugs     map[string]string
	requests  map[string]*models.Request
	bySession map[string]map[string]struct{}
}

func NewDB() *DB {
	return &DB{
		sessions:  make(map[string]*models.Session),
		slugs:     make(map[string]string),
		requests:  make(map[string]*models.Request),
		bySession: make(map[string]map[string]struct{}),
	}
}

type requestRepository struct{ db *DB }

func NewRequestRepository(db *DB) repository.RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, req *models.Request) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.requests[req.ID]; ok {
		return repository.ErrAlreadyExists
	}

	r.db.requests[req.ID] = req.Clone()
	ids, ok := r.db.bySession[req.SessionID]
	if !ok {
		ids = make(map[string]struct{})
		r.db.bySession[req.SessionID] = ids
	}
	ids[req.ID] = struct{}{}

	return nil
}

func (r *requestRepository) Get(ctx context.Context, id string) (*models.Request, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	req, ok := r.db.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return req.Clone(), nil
}

func (r *requestRepository) ListBySession(ctx context.Context, sessionID string) ([]*models.Request, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	ids := r.db.bySession[sessionID]
	out := make([]*models.Request, 0, len(ids))
	for id := range ids {
		out = append(out, r.db.requests[id].Clone())
	}
	return out, nil
}

func (r *requestRepository) CountBySession(ctx context.Context, sessionID string) (int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	return len(r.db.bySession[sessionID]), nil
}

func (r *requestRepository) UpdatePositions(ctx context.Context, sessionID string, reqs []*models.Request) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	// Validate everything first so a bad row leaves the session untouched.
	for _, req := range reqs {
		cur, ok := r.db.requests[req.ID]
		if !ok || cur.SessionID != sessionID {
			return repository.ErrNotFound
		}
	}

	for _, req := range reqs {
		cur := r.db.requests[req.ID]
		cur.Position = req.Position
		cur.UpdatedAt = req.UpdatedAt
	}

	return nil
}

func (r *requestRepository) UpdateStatus(ctx context.Context, id string, status models.RequestStatus, at time.Time) (*models.Request, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	req, ok := r.db.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	req.Status = status
	req.UpdatedAt = at

	return req.Clone(), nil
}

type sessionRepository struct{ db *DB }

func NewSessionRepository(db *DB) repository.SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, ss *models.Session) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, taken := r.db.slugs[ss.Slug]; taken {
		return repository.ErrSlugTaken
	}
	if _, ok := r.db.sessions[ss.ID]; ok {
		return repository.ErrAlreadyExists
	}

	r.db.sessions[ss.ID] = ss.Clone()
	r.db.slugs[ss.Slug] = ss.ID

	return nil
}

func (r *sessionRepository) Get(ctx context.Context, id string) (*models.Session, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	ss, ok := r.db.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return ss.Clone(), nil
}

func (r *sessionRepository) GetBySlug(ctx context.Context, slug string) (*models.Session, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	id, ok := r.db.slugs[slug]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.db.sessions[id].Clone(), nil
}

func (r *sessionRepository) List(ctx context.Context) ([]models.SessionSummary, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]models.SessionSummary, 0, len(r.db.sessions))
	for id, ss := range r.db.sessions {
		out = append(out, models.SessionSummary{
			Session:      *ss.Clone(),
			RequestCount: len(r.db.bySession[id]),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out, nil
}

func (r *sessionRepository) End(ctx context.Context, id string, at time.Time) (*models.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	ss, ok := r.db.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	ss.IsActive = false
	ss.EndsAt = &at

	return ss.Clone(), nil
}
