package main

import (
	"context"
	"fmt"

	"github.com/vogiaan1904/thequeue/config"
	"github.com/vogiaan1904/thequeue/internal/repository"
	"github.com/vogiaan1904/thequeue/internal/repository/memory"
	pgRepo "github.com/vogiaan1904/thequeue/internal/repository/postgres"
	redisRepo "github.com/vogiaan1904/thequeue/internal/repository/redis"
	pkgLog "github.com/vogiaan1904/thequeue/pkg/logger"
	pkgPostgres "github.com/vogiaan1904/thequeue/pkg/postgres"
	pkgRedis "github.com/vogiaan1904/thequeue/pkg/redis"
)

type repositories struct {
	sessions repository.SessionRepository
	requests repository.RequestRepository
	close    func()
}

func openRepositories(ctx context.Context, cfg *config.Config, l pkgLog.Logger) (*repositories, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		db := memory.NewDB()
		return &repositories{
			sessions: memory.NewSessionRepository(db),
			requests: memory.NewRequestRepository(db),
			close:    func() {},
		}, nil

	case config.StoreDriverRedis:
		cli, err := pkgRedis.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return &repositories{
			sessions: redisRepo.NewSessionRepository(cli, l),
			requests: redisRepo.NewRequestRepository(cli, l),
			close:    func() { _ = cli.Close() },
		}, nil

	case config.StoreDriverPostgres:
		pool, err := pkgPostgres.Connect(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		if err := pgRepo.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		return &repositories{
			sessions: pgRepo.NewSessionRepository(pool, l),
			requests: pgRepo.NewRequestRepository(pool, l),
			close:    pool.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown store driver: %q", cfg.Store.Driver)
	}
}
