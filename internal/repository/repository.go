package repository

import (
	"context"
	"errors"
	"time"

	"github.com/vogiaan1904/thequeue/internal/models"
)

var (
	ErrNotFound      = errors.New("repository: not found")
	ErrAlreadyExists = errors.New("repository: already exists")
	ErrSlugTaken     = errors.New("repository: slug already taken")
)

// RequestRepository persists song requests. Implementations are not expected to
// serialize callers; the ordering engine holds a per-session lock around every
// read-modify-write it performs.
type RequestRepository interface {
	Create(ctx context.Context, req *models.Request) error
	Get(ctx context.Context, id string) (*models.Request, error)
	// ListBySession returns the session's requests in no particular order.
	ListBySession(ctx context.Context, sessionID string) ([]*models.Request, error)
	CountBySession(ctx context.Context, sessionID string) (int, error)
	// UpdatePositions writes the Position of every given request in one atomic
	// step: either all rows change or none do.
	UpdatePositions(ctx context.Context, sessionID string, reqs []*models.Request) error
	UpdateStatus(ctx context.Context, id string, status models.RequestStatus, at time.Time) (*models.Request, error)
}

type SessionRepository interface {
	// Create fails with ErrSlugTaken when another session already owns the slug.
	Create(ctx context.Context, ss *models.Session) error
	Get(ctx context.Context, id string) (*models.Session, error)
	GetBySlug(ctx context.Context, slug string) (*models.Session, error)
	List(ctx context.Context) ([]models.SessionSummary, error)
	End(ctx context.Context, id string, at time.Time) (*models.Session, error)
}
