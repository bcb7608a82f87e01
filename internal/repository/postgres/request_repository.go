package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vogiaan1904/thequeue/internal/models"
	"github.com/vogiaan1904/thequeue/internal/repository"
	"github.com/vogiaan1904/thequeue/pkg/logger"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

const requestColumns = `id, session_id, guest_name, song_title, artist, note, status, position, tip_amount, votes, created_at, updated_at`

type pgRequestRepository struct {
	db *pgxpool.Pool
	l  logger.Logger
}

func NewRequestRepository(db *pgxpool.Pool, l logger.Logger) repository.RequestRepository {
	return &pgRequestRepository{
		db: db,
		l:  l,
	}
}

func scanRequest(row pgx.Row) (*models.Request, error) {
	var req models.Request
	var status string
	err := row.Scan(
		&req.ID, &req.SessionID, &req.GuestName, &req.SongTitle, &req.Artist, &req.Note,
		&status, &req.Position, &req.TipAmount, &req.Votes, &req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	req.Status = models.RequestStatus(status)
	return &req, nil
}

func (r *pgRequestRepository) Create(ctx context.Context, req *models.Request) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO requests (`+requestColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, req.ID, req.SessionID, req.GuestName, req.SongTitle, req.Artist, req.Note,
		string(req.Status), req.Position, req.TipAmount, req.Votes, req.CreatedAt, req.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case uniqueViolation:
				return repository.ErrAlreadyExists
			case foreignKeyViolation:
				return repository.ErrNotFound
			}
		}
		r.l.Errorf(ctx, "pgRequestRepository.Create: %v", err)
		return err
	}

	return nil
}

func (r *pgRequestRepository) Get(ctx context.Context, id string) (*models.Request, error) {
	req, err := scanRequest(r.db.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		r.l.Errorf(ctx, "pgRequestRepository.Get: %v", err)
		return nil, err
	}

	return req, nil
}

func (r *pgRequestRepository) ListBySession(ctx context.Context, sessionID string) ([]*models.Request, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE session_id = $1`, sessionID)
	if err != nil {
		r.l.Errorf(ctx, "pgRequestRepository.ListBySession: %v", err)
		return nil, err
	}
	defer rows.Close()

	reqs := []*models.Request{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			r.l.Errorf(ctx, "pgRequestRepository.ListBySession: %v", err)
			return nil, err
		}
		reqs = append(reqs, req)
	}
	if err := rows.Err(); err != nil {
		r.l.Errorf(ctx, "pgRequestRepository.ListBySession: %v", err)
		return nil, err
	}

	return reqs, nil
}

func (r *pgRequestRepository) CountBySession(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM requests WHERE session_id = $1`, sessionID).Scan(&count)
	if err != nil {
		r.l.Errorf(ctx, "pgRequestRepository.CountBySession: %v", err)
		return 0, err
	}

	return count, nil
}

func (r *pgRequestRepository) UpdatePositions(ctx context.Context, sessionID string, reqs []*models.Request) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.l.Errorf(ctx, "pgRequestRepository.UpdatePositions: %v", err)
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, req := range reqs {
		batch.Queue(`
			UPDATE requests SET position = $1, updated_at = $2
			WHERE id = $3 AND session_id = $4
		`, req.Position, req.UpdatedAt, req.ID, sessionID)
	}

	results := tx.SendBatch(ctx, batch)
	for range reqs {
		ct, err := results.Exec()
		if err != nil {
			_ = results.Close()
			r.l.Errorf(ctx, "pgRequestRepository.UpdatePositions: %v", err)
			return err
		}
		if ct.RowsAffected() == 0 {
			_ = results.Close()
			return repository.ErrNotFound
		}
	}
	if err := results.Close(); err != nil {
		r.l.Errorf(ctx, "pgRequestRepository.UpdatePositions: %v", err)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		r.l.Errorf(ctx, "pgRequestRepository.UpdatePositions: %v", err)
		return fmt.Errorf("commit positions: %w", err)
	}

	return nil
}

func (r *pgRequestRepository) UpdateStatus(ctx context.Context, id string, status models.RequestStatus, at time.Time) (*models.Request, error) {
	req, err := scanRequest(r.db.QueryRow(ctx, `
		UPDATE requests SET status = $1, updated_at = $2
		WHERE id = $3
		RETURNING `+requestColumns,
		string(status), at, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		r.l.Errorf(ctx, "pgRequestRepository.UpdateStatus: %v", err)
		return nil, err
	}

	return req, nil
}
