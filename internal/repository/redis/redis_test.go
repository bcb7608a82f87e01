package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/vogiaan1904/thequeue/internal/models"
	"github.com/vogiaan1904/thequeue/internal/repository/repotest"
	"github.com/vogiaan1904/thequeue/pkg/logger"
)

func newTestClient(t *testing.T) (*goredis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	cli := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = cli.Close() })
	return cli, mr
}

func TestRedisRepositories(t *testing.T) {
	l := logger.InitializeTestZapLogger()
	repotest.Run(t, func(t *testing.T) repotest.Repos {
		cli, _ := newTestClient(t)
		return repotest.Repos{
			Requests: NewRequestRepository(cli, l),
			Sessions: NewSessionRepository(cli, l),
		}
	})
}

func TestQueueIndexScoresFollowPositions(t *testing.T) {
	ctx := context.Background()
	cli, mr := newTestClient(t)
	repo := NewRequestRepository(cli, logger.InitializeTestZapLogger())

	now := time.Now().UTC()
	a := &models.Request{ID: "a", SessionID: "s1", SongTitle: "A", Position: 1, CreatedAt: now}
	b := &models.Request{ID: "b", SessionID: "s1", SongTitle: "B", Position: 2, CreatedAt: now}
	for _, r := range []*models.Request{a, b} {
		if err := repo.Create(ctx, r); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	a.Position, b.Position = 2, 1
	if err := repo.UpdatePositions(ctx, "s1", []*models.Request{a, b}); err != nil {
		t.Fatalf("UpdatePositions failed: %v", err)
	}

	members, err := mr.ZMembers(sessionQueueKey("s1"))
	if err != nil {
		t.Fatalf("ZMembers failed: %v", err)
	}
	if len(members) != 2 || members[0] != "b" || members[1] != "a" {
		t.Errorf("index order = %v, want [b a]", members)
	}

	raw, err := mr.Get(requestKey("a"))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	var stored models.Request
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		t.Fatalf("stored document is not JSON: %v", err)
	}
	if stored.Position != 2 {
		t.Errorf("stored Position = %d, want 2", stored.Position)
	}
}

func TestListBySessionSkipsDanglingIndexEntries(t *testing.T) {
	ctx := context.Background()
	cli, mr := newTestClient(t)
	repo := NewRequestRepository(cli, logger.InitializeTestZapLogger())

	req := &models.Request{ID: "a", SessionID: "s1", SongTitle: "A", Position: 1}
	if err := repo.Create(ctx, req); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := mr.ZAdd(sessionQueueKey("s1"), 2, "ghost"); err != nil {
		t.Fatalf("ZAdd failed: %v", err)
	}

	reqs, err := repo.ListBySession(ctx, "s1")
	if err != nil {
		t.Fatalf("ListBySession failed: %v", err)
	}
	if len(reqs) != 1 || reqs[0].ID != "a" {
		t.Errorf("ListBySession = %v, want only request a", reqs)
	}
}
