package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vogiaan1904/thequeue/internal/models"
	"github.com/vogiaan1904/thequeue/internal/repository"
	"github.com/vogiaan1904/thequeue/pkg/logger"
)

const sessionColumns = `id, name, slug, is_active, created_at, ends_at`

type pgSessionRepository struct {
	db *pgxpool.Pool
	l  logger.Logger
}

func NewSessionRepository(db *pgxpool.Pool, l logger.Logger) repository.SessionRepository {
	return &pgSessionRepository{
		db: db,
		l:  l,
	}
}

func scanSession(row pgx.Row) (*models.Session, error) {
	var ss models.Session
	if err := row.Scan(&ss.ID, &ss.Name, &ss.Slug, &ss.IsActive, &ss.CreatedAt, &ss.EndsAt); err != nil {
		return nil, err
	}
	return &ss, nil
}

func (r *pgSessionRepository) Create(ctx context.Context, ss *models.Session) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, ss.ID, ss.Name, ss.Slug, ss.IsActive, ss.CreatedAt, ss.EndsAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			if pgErr.ConstraintName == "sessions_slug_key" {
				return repository.ErrSlugTaken
			}
			return repository.ErrAlreadyExists
		}
		r.l.Errorf(ctx, "pgSessionRepository.Create: %v", err)
		return err
	}

	return nil
}

func (r *pgSessionRepository) Get(ctx context.Context, id string) (*models.Session, error) {
	return r.getOne(ctx, "pgSessionRepository.Get",
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
}

func (r *pgSessionRepository) GetBySlug(ctx context.Context, slug string) (*models.Session, error) {
	return r.getOne(ctx, "pgSessionRepository.GetBySlug",
		`SELECT `+sessionColumns+` FROM sessions WHERE slug = $1`, slug)
}

func (r *pgSessionRepository) getOne(ctx context.Context, op, query string, args ...any) (*models.Session, error) {
	ss, err := scanSession(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		r.l.Errorf(ctx, "%s: %v", op, err)
		return nil, err
	}

	return ss, nil
}

func (r *pgSessionRepository) List(ctx context.Context) ([]models.SessionSummary, error) {
	rows, err := r.db.Query(ctx, `
		SELECT s.id, s.name, s.slug, s.is_active, s.created_at, s.ends_at, COUNT(q.id)
		FROM sessions s
		LEFT JOIN requests q ON q.session_id = s.id
		GROUP BY s.id
		ORDER BY s.created_at ASC
	`)
	if err != nil {
		r.l.Errorf(ctx, "pgSessionRepository.List: %v", err)
		return nil, err
	}
	defer rows.Close()

	out := []models.SessionSummary{}
	for rows.Next() {
		var sum models.SessionSummary
		if err := rows.Scan(
			&sum.ID, &sum.Name, &sum.Slug, &sum.IsActive, &sum.CreatedAt, &sum.EndsAt, &sum.RequestCount,
		); err != nil {
			r.l.Errorf(ctx, "pgSessionRepository.List: %v", err)
			return nil, err
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		r.l.Errorf(ctx, "pgSessionRepository.List: %v", err)
		return nil, err
	}

	return out, nil
}

func (r *pgSessionRepository) End(ctx context.Context, id string, at time.Time) (*models.Session, error) {
	return r.getOne(ctx, "pgSessionRepository.End", `
		UPDATE sessions SET is_active = FALSE, ends_at = $1
		WHERE id = $2
		RETURNING `+sessionColumns,
		at, id)
}
