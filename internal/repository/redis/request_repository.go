package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/vogiaan1904/thequeue/internal/models"
	"github.com/vogiaan1904/thequeue/internal/repository"
	"github.com/vogiaan1904/thequeue/pkg/logger"
)

// createRequestScript stores the document and indexes it in one step.
var createRequestScript = goredis.NewScript(`
	if redis.call('EXISTS', KEYS[1]) == 1 then
		return 0
	end
	redis.call('SET', KEYS[1], ARGV[1])
	redis.call('ZADD', KEYS[2], ARGV[2], ARGV[3])
	return 1
`)

type redisRequestRepository struct {
	cli *goredis.Client
	l   logger.Logger
}

func NewRequestRepository(cli *goredis.Client, l logger.Logger) repository.RequestRepository {
	return &redisRequestRepository{
		cli: cli,
		l:   l,
	}
}

func (r *redisRequestRepository) Create(ctx context.Context, req *models.Request) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	created, err := createRequestScript.Run(ctx, r.cli,
		[]string{requestKey(req.ID), sessionQueueKey(req.SessionID)},
		data, req.Position, req.ID,
	).Int()
	if err != nil {
		r.l.Errorf(ctx, "redisRequestRepository.Create: %v", err)
		return err
	}

	if created == 0 {
		return repository.ErrAlreadyExists
	}

	r.l.Debugf(ctx, "redisRequestRepository.Create: request=%s session=%s position=%d",
		req.ID, req.SessionID, req.Position)

	return nil
}

func (r *redisRequestRepository) Get(ctx context.Context, id string) (*models.Request, error) {
	data, err := r.cli.Get(ctx, requestKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, repository.ErrNotFound
		}
		r.l.Errorf(ctx, "redisRequestRepository.Get: %v", err)
		return nil, err
	}

	var req models.Request
	if err := json.Unmarshal(data, &req); err != nil {
		r.l.Errorf(ctx, "redisRequestRepository.Get: %v", err)
		return nil, err
	}

	return &req, nil
}

func (r *redisRequestRepository) ListBySession(ctx context.Context, sessionID string) ([]*models.Request, error) {
	ids, err := r.cli.ZRange(ctx, sessionQueueKey(sessionID), 0, -1).Result()
	if err != nil {
		r.l.Errorf(ctx, "redisRequestRepository.ListBySession: %v", err)
		return nil, err
	}

	if len(ids) == 0 {
		return []*models.Request{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = requestKey(id)
	}

	vals, err := r.cli.MGet(ctx, keys...).Result()
	if err != nil {
		r.l.Errorf(ctx, "redisRequestRepository.ListBySession: %v", err)
		return nil, err
	}

	reqs := make([]*models.Request, 0, len(vals))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			r.l.Warnf(ctx, "redisRequestRepository.ListBySession: dangling index entry %s", ids[i])
			continue
		}

		var req models.Request
		if err := json.Unmarshal([]byte(s), &req); err != nil {
			r.l.Errorf(ctx, "redisRequestRepository.ListBySession: %v", err)
			return nil, err
		}
		reqs = append(reqs, &req)
	}

	return reqs, nil
}

func (r *redisRequestRepository) CountBySession(ctx context.Context, sessionID string) (int, error) {
	count, err := r.cli.ZCard(ctx, sessionQueueKey(sessionID)).Result()
	if err != nil {
		r.l.Errorf(ctx, "redisRequestRepository.CountBySession: %v", err)
		return 0, err
	}

	return int(count), nil
}

func (r *redisRequestRepository) UpdatePositions(ctx context.Context, sessionID string, reqs []*models.Request) error {
	qKey := sessionQueueKey(sessionID)

	docs := make([][]byte, len(reqs))
	for i, req := range reqs {
		if req.SessionID != sessionID {
			return repository.ErrNotFound
		}
		data, err := json.Marshal(req)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		docs[i] = data
	}

	// MULTI/EXEC: readers see either the old or the new ordering, never a mix.
	_, err := r.cli.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		for i, req := range reqs {
			pipe.Set(ctx, requestKey(req.ID), docs[i], 0)
			pipe.ZAdd(ctx, qKey, goredis.Z{
				Score:  float64(req.Position),
				Member: req.ID,
			})
		}
		return nil
	})
	if err != nil {
		r.l.Errorf(ctx, "redisRequestRepository.UpdatePositions: %v", err)
		return err
	}

	r.l.Debugf(ctx, "redisRequestRepository.UpdatePositions: session=%s count=%d", sessionID, len(reqs))

	return nil
}

func (r *redisRequestRepository) UpdateStatus(ctx context.Context, id string, status models.RequestStatus, at time.Time) (*models.Request, error) {
	req, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	req.Status = status
	req.UpdatedAt = at

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	if err := r.cli.Set(ctx, requestKey(id), data, 0).Err(); err != nil {
		r.l.Errorf(ctx, "redisRequestRepository.UpdateStatus: %v", err)
		return nil, err
	}

	return req, nil
}
