// Package queue keeps every session's requests in a dense 1..n order.
//
// Mutations of one session are serialized by a per-session lock. Each
// successful mutation returns a Turn; callers publish the result while holding
// it and then call Done, which makes publishes follow commit order.
package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vogiaan1904/thequeue/internal/models"
	"github.com/vogiaan1904/thequeue/internal/repository"
	"github.com/vogiaan1904/thequeue/pkg/logger"
)

type Store struct {
	repo  repository.RequestRepository
	locks *roomLocks
	l     logger.Logger
	now   func() time.Time
}

func NewStore(repo repository.RequestRepository, l logger.Logger) *Store {
	return &Store{
		repo:  repo,
		locks: newRoomLocks(),
		l:     l,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

type RepositionResult struct {
	Request *models.Request
	// Ordered is the full ordering after the move.
	Ordered []*models.Request
	From    int
	To      int
}

// commit runs fn under the room lock and, if fn succeeds, hands the caller
// the room's next publish turn.
func (s *Store) commit(room string, fn func() error) (*Turn, error) {
	e := s.locks.lock(room)
	if err := fn(); err != nil {
		s.locks.unlock(room, e)
		return nil, err
	}
	return s.locks.handOver(room, e), nil
}

// Append places req at the end of room's queue.
func (s *Store) Append(ctx context.Context, room string, req *models.Request) (*models.Request, *Turn, error) {
	return s.AppendIf(ctx, room, req, nil)
}

// AppendIf is Append guarded by admit, which runs under the room lock. An
// error from admit is returned unchanged and nothing is written.
func (s *Store) AppendIf(ctx context.Context, room string, req *models.Request, admit func(ctx context.Context) error) (*models.Request, *Turn, error) {
	var created *models.Request
	turn, err := s.commit(room, func() error {
		if admit != nil {
			if err := admit(ctx); err != nil {
				return err
			}
		}

		count, err := s.repo.CountBySession(ctx, room)
		if err != nil {
			return fmt.Errorf("queue: count session %s: %w", room, err)
		}

		c := req.Clone()
		c.SessionID = room
		c.Position = count + 1
		if err := s.repo.Create(ctx, c); err != nil {
			if errors.Is(err, repository.ErrAlreadyExists) {
				return ErrAlreadyQueued
			}
			return fmt.Errorf("queue: create request: %w", err)
		}
		created = c
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.l.Debugf(ctx, "queue.Store.Append: session=%s request=%s position=%d", room, created.ID, created.Position)

	return created, turn, nil
}

// Reposition moves request id to the requested 1-based position, clamped into
// [1, n], and renumbers the whole queue.
func (s *Store) Reposition(ctx context.Context, room, id string, requested int) (*RepositionResult, *Turn, error) {
	var res *RepositionResult
	turn, err := s.commit(room, func() error {
		ordered, err := s.ListOrdered(ctx, room)
		if err != nil {
			return err
		}

		from := -1
		for i, req := range ordered {
			if req.ID == id {
				from = i
				break
			}
		}
		if from < 0 {
			return ErrNotFound
		}

		to := clamp(requested, len(ordered))
		now := s.now()
		ordered = move(ordered, from, to-1)
		changed := renumber(ordered, now)

		target := ordered[to-1]
		target.UpdatedAt = now

		if err := s.repo.UpdatePositions(ctx, room, ordered); err != nil {
			return fmt.Errorf("queue: write positions for session %s: %w", room, err)
		}

		s.l.Debugf(ctx, "queue.Store.Reposition: session=%s request=%s from=%d to=%d changed=%d",
			room, id, from+1, to, changed)

		res = &RepositionResult{
			Request: target.Clone(),
			Ordered: ordered,
			From:    from + 1,
			To:      to,
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return res, turn, nil
}

// SetStatus updates the status of request id. Positions are not touched.
func (s *Store) SetStatus(ctx context.Context, room, id string, status models.RequestStatus) (*models.Request, *Turn, error) {
	if !status.Valid() {
		return nil, nil, ErrInvalidStatus
	}

	var updated *models.Request
	turn, err := s.commit(room, func() error {
		cur, err := s.repo.Get(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("queue: get request %s: %w", id, err)
		}
		if cur.SessionID != room {
			return ErrNotFound
		}

		updated, err = s.repo.UpdateStatus(ctx, id, status, s.now())
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("queue: update status of %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return updated, turn, nil
}

// ListOrdered reads room's requests by (position, created_at). It takes no lock.
func (s *Store) ListOrdered(ctx context.Context, room string) ([]*models.Request, error) {
	reqs, err := s.repo.ListBySession(ctx, room)
	if err != nil {
		return nil, fmt.Errorf("queue: list session %s: %w", room, err)
	}
	models.SortOrdered(reqs)
	return reqs, nil
}

// Exclusive runs fn under the room lock, serialized with the room's queue
// commits, and returns the next publish turn when fn succeeds.
func (s *Store) Exclusive(room string, fn func() error) (*Turn, error) {
	return s.commit(room, fn)
}
