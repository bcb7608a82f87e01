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

// createSessionScript claims the slug and stores the session atomically.
// Returns -1 when the slug is taken, 0 when the id exists, 1 on success.
var createSessionScript = goredis.NewScript(`
	if redis.call('EXISTS', KEYS[1]) == 1 then
		return -1
	end
	if redis.call('EXISTS', KEYS[2]) == 1 then
		return 0
	end
	redis.call('SET', KEYS[1], ARGV[1])
	redis.call('SET', KEYS[2], ARGV[2])
	redis.call('ZADD', KEYS[3], ARGV[3], ARGV[1])
	return 1
`)

type redisSessionRepository struct {
	cli *goredis.Client
	l   logger.Logger
}

func NewSessionRepository(cli *goredis.Client, l logger.Logger) repository.SessionRepository {
	return &redisSessionRepository{
		cli: cli,
		l:   l,
	}
}

func (r *redisSessionRepository) Create(ctx context.Context, ss *models.Session) error {
	data, err := json.Marshal(ss)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	res, err := createSessionScript.Run(ctx, r.cli,
		[]string{slugKey(ss.Slug), sessionKey(ss.ID), sessionsIndexKey},
		ss.ID, data, ss.CreatedAt.UnixNano(),
	).Int()
	if err != nil {
		r.l.Errorf(ctx, "redisSessionRepository.Create: %v", err)
		return err
	}

	switch res {
	case -1:
		return repository.ErrSlugTaken
	case 0:
		return repository.ErrAlreadyExists
	}

	r.l.Debugf(ctx, "redisSessionRepository.Create: session=%s slug=%s", ss.ID, ss.Slug)

	return nil
}

func (r *redisSessionRepository) Get(ctx context.Context, id string) (*models.Session, error) {
	data, err := r.cli.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, repository.ErrNotFound
		}
		r.l.Errorf(ctx, "redisSessionRepository.Get: %v", err)
		return nil, err
	}

	var ss models.Session
	if err := json.Unmarshal(data, &ss); err != nil {
		r.l.Errorf(ctx, "redisSessionRepository.Get: %v", err)
		return nil, err
	}

	return &ss, nil
}

func (r *redisSessionRepository) GetBySlug(ctx context.Context, slug string) (*models.Session, error) {
	id, err := r.cli.Get(ctx, slugKey(slug)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, repository.ErrNotFound
		}
		r.l.Errorf(ctx, "redisSessionRepository.GetBySlug: %v", err)
		return nil, err
	}

	return r.Get(ctx, id)
}

func (r *redisSessionRepository) List(ctx context.Context) ([]models.SessionSummary, error) {
	ids, err := r.cli.ZRange(ctx, sessionsIndexKey, 0, -1).Result()
	if err != nil {
		r.l.Errorf(ctx, "redisSessionRepository.List: %v", err)
		return nil, err
	}

	pipe := r.cli.Pipeline()
	docs := make([]*goredis.StringCmd, len(ids))
	counts := make([]*goredis.IntCmd, len(ids))
	for i, id := range ids {
		docs[i] = pipe.Get(ctx, sessionKey(id))
		counts[i] = pipe.ZCard(ctx, sessionQueueKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, goredis.Nil) {
		r.l.Errorf(ctx, "redisSessionRepository.List: %v", err)
		return nil, err
	}

	out := make([]models.SessionSummary, 0, len(ids))
	for i := range ids {
		data, err := docs[i].Bytes()
		if err != nil {
			continue
		}

		var ss models.Session
		if err := json.Unmarshal(data, &ss); err != nil {
			r.l.Errorf(ctx, "redisSessionRepository.List: %v", err)
			return nil, err
		}

		out = append(out, models.SessionSummary{
			Session:      ss,
			RequestCount: int(counts[i].Val()),
		})
	}

	return out, nil
}

func (r *redisSessionRepository) End(ctx context.Context, id string, at time.Time) (*models.Session, error) {
	ss, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	ss.IsActive = false
	ss.EndsAt = &at

	data, err := json.Marshal(ss)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := r.cli.Set(ctx, sessionKey(id), data, 0).Err(); err != nil {
		r.l.Errorf(ctx, "redisSessionRepository.End: %v", err)
		return nil, err
	}

	return ss, nil
}
