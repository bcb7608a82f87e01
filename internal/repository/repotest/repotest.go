// Package repotest holds behaviour tests shared by every repository driver.
package repotest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/vogiaan1904/thequeue/internal/models"
	"github.com/vogiaan1904/thequeue/internal/repository"
)

type Repos struct {
	Requests repository.RequestRepository
	Sessions repository.SessionRepository
}

// Run exercises a driver. newRepos must return repositories over an empty store.
func Run(t *testing.T, newRepos func(t *testing.T) Repos) {
	t.Run("RequestRoundTrip", func(t *testing.T) { testRequestRoundTrip(t, newRepos(t)) })
	t.Run("RequestDuplicate", func(t *testing.T) { testRequestDuplicate(t, newRepos(t)) })
	t.Run("RequestMissing", func(t *testing.T) { testRequestMissing(t, newRepos(t)) })
	t.Run("ListBySessionScoped", func(t *testing.T) { testListBySessionScoped(t, newRepos(t)) })
	t.Run("UpdatePositions", func(t *testing.T) { testUpdatePositions(t, newRepos(t)) })
	t.Run("UpdatePositionsAllOrNothing", func(t *testing.T) { testUpdatePositionsAllOrNothing(t, newRepos(t)) })
	t.Run("UpdateStatus", func(t *testing.T) { testUpdateStatus(t, newRepos(t)) })
	t.Run("SessionRoundTrip", func(t *testing.T) { testSessionRoundTrip(t, newRepos(t)) })
	t.Run("SessionSlugTaken", func(t *testing.T) { testSessionSlugTaken(t, newRepos(t)) })
	t.Run("SessionListAndEnd", func(t *testing.T) { testSessionListAndEnd(t, newRepos(t)) })
}

var base = time.Date(2026, 10, 14, 21, 0, 0, 0, time.UTC)

func newRequest(sessionID, title string, pos int) *models.Request {
	return &models.Request{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		SongTitle: title,
		Status:    models.RequestStatusPending,
		Position:  pos,
		CreatedAt: base.Add(time.Duration(pos) * time.Second),
		UpdatedAt: base.Add(time.Duration(pos) * time.Second),
	}
}

func newSession(slug string, offset time.Duration) *models.Session {
	return &models.Session{
		ID:        uuid.NewString(),
		Name:      "Friday " + slug,
		Slug:      slug,
		IsActive:  true,
		CreatedAt: base.Add(offset),
	}
}

func mustCreateSession(t *testing.T, r Repos, ss *models.Session) {
	t.Helper()
	if err := r.Sessions.Create(context.Background(), ss); err != nil {
		t.Fatalf("Sessions.Create(%s) failed: %v", ss.Slug, err)
	}
}

func mustCreateRequest(t *testing.T, r Repos, req *models.Request) {
	t.Helper()
	if err := r.Requests.Create(context.Background(), req); err != nil {
		t.Fatalf("Requests.Create(%s) failed: %v", req.SongTitle, err)
	}
}

func positions(t *testing.T, r Repos, sessionID string) map[string]int {
	t.Helper()
	reqs, err := r.Requests.ListBySession(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("ListBySession failed: %v", err)
	}
	out := make(map[string]int, len(reqs))
	for _, req := range reqs {
		out[req.ID] = req.Position
	}
	return out
}

func testRequestRoundTrip(t *testing.T, r Repos) {
	ctx := context.Background()
	ss := newSession("abc123", 0)
	mustCreateSession(t, r, ss)

	artist := "Daft Punk"
	req := newRequest(ss.ID, "One More Time", 1)
	req.Artist = &artist
	mustCreateRequest(t, r, req)

	got, err := r.Requests.Get(ctx, req.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.SongTitle != "One More Time" || got.Position != 1 || got.SessionID != ss.ID {
		t.Errorf("Get = %+v, want the stored request", got)
	}
	if got.Artist == nil || *got.Artist != "Daft Punk" {
		t.Errorf("Artist = %v, want Daft Punk", got.Artist)
	}
	if !got.CreatedAt.Equal(req.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, req.CreatedAt)
	}

	count, err := r.Requests.CountBySession(ctx, ss.ID)
	if err != nil {
		t.Fatalf("CountBySession failed: %v", err)
	}
	if count != 1 {
		t.Errorf("CountBySession = %d, want 1", count)
	}
}

func testRequestDuplicate(t *testing.T, r Repos) {
	ss := newSession("dup001", 0)
	mustCreateSession(t, r, ss)

	req := newRequest(ss.ID, "Around the World", 1)
	mustCreateRequest(t, r, req)

	err := r.Requests.Create(context.Background(), req)
	if !errors.Is(err, repository.ErrAlreadyExists) {
		t.Fatalf("second Create = %v, want ErrAlreadyExists", err)
	}
}

func testRequestMissing(t *testing.T, r Repos) {
	ctx := context.Background()

	if _, err := r.Requests.Get(ctx, uuid.NewString()); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Get(missing) = %v, want ErrNotFound", err)
	}
	_, err := r.Requests.UpdateStatus(ctx, uuid.NewString(), models.RequestStatusDone, base)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("UpdateStatus(missing) = %v, want ErrNotFound", err)
	}

	count, err := r.Requests.CountBySession(ctx, uuid.NewString())
	if err != nil {
		t.Fatalf("CountBySession failed: %v", err)
	}
	if count != 0 {
		t.Errorf("CountBySession(empty) = %d, want 0", count)
	}
}

func testListBySessionScoped(t *testing.T, r Repos) {
	a := newSession("room0a", 0)
	b := newSession("room0b", time.Second)
	mustCreateSession(t, r, a)
	mustCreateSession(t, r, b)

	mustCreateRequest(t, r, newRequest(a.ID, "A1", 1))
	mustCreateRequest(t, r, newRequest(a.ID, "A2", 2))
	mustCreateRequest(t, r, newRequest(b.ID, "B1", 1))

	if got := len(positions(t, r, a.ID)); got != 2 {
		t.Errorf("len(ListBySession(a)) = %d, want 2", got)
	}
	if got := len(positions(t, r, b.ID)); got != 1 {
		t.Errorf("len(ListBySession(b)) = %d, want 1", got)
	}
}

func testUpdatePositions(t *testing.T, r Repos) {
	ss := newSession("pos001", 0)
	mustCreateSession(t, r, ss)

	reqs := []*models.Request{
		newRequest(ss.ID, "A", 1),
		newRequest(ss.ID, "B", 2),
		newRequest(ss.ID, "C", 3),
	}
	for _, req := range reqs {
		mustCreateRequest(t, r, req)
	}

	// C to the front.
	reqs[2].Position, reqs[0].Position, reqs[1].Position = 1, 2, 3
	if err := r.Requests.UpdatePositions(context.Background(), ss.ID, reqs); err != nil {
		t.Fatalf("UpdatePositions failed: %v", err)
	}

	got := positions(t, r, ss.ID)
	want := map[string]int{reqs[0].ID: 2, reqs[1].ID: 3, reqs[2].ID: 1}
	for id, pos := range want {
		if got[id] != pos {
			t.Errorf("position[%s] = %d, want %d", id, got[id], pos)
		}
	}
}

func testUpdatePositionsAllOrNothing(t *testing.T, r Repos) {
	a := newSession("atom0a", 0)
	b := newSession("atom0b", time.Second)
	mustCreateSession(t, r, a)
	mustCreateSession(t, r, b)

	mine := newRequest(a.ID, "mine", 1)
	theirs := newRequest(b.ID, "theirs", 1)
	mustCreateRequest(t, r, mine)
	mustCreateRequest(t, r, theirs)

	moved := mine.Clone()
	moved.Position = 2
	foreign := theirs.Clone()
	foreign.Position = 1

	err := r.Requests.UpdatePositions(context.Background(), a.ID, []*models.Request{moved, foreign})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("UpdatePositions with foreign row = %v, want ErrNotFound", err)
	}

	if got := positions(t, r, a.ID)[mine.ID]; got != 1 {
		t.Errorf("position after rejected batch = %d, want unchanged 1", got)
	}
}

func testUpdateStatus(t *testing.T, r Repos) {
	ctx := context.Background()
	ss := newSession("stat01", 0)
	mustCreateSession(t, r, ss)

	req := newRequest(ss.ID, "Digital Love", 1)
	mustCreateRequest(t, r, req)

	at := base.Add(time.Hour)
	got, err := r.Requests.UpdateStatus(ctx, req.ID, models.RequestStatusPlaying, at)
	if err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	if got.Status != models.RequestStatusPlaying {
		t.Errorf("Status = %q, want playing", got.Status)
	}
	if got.Position != 1 {
		t.Errorf("Position = %d, want 1 (status updates never move)", got.Position)
	}
	if !got.UpdatedAt.Equal(at) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, at)
	}

	reread, err := r.Requests.Get(ctx, req.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if reread.Status != models.RequestStatusPlaying {
		t.Errorf("stored Status = %q, want playing", reread.Status)
	}
}

func testSessionRoundTrip(t *testing.T, r Repos) {
	ctx := context.Background()
	ss := newSession("round1", 0)
	mustCreateSession(t, r, ss)

	got, err := r.Sessions.Get(ctx, ss.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Slug != "round1" || !got.IsActive || got.EndsAt != nil {
		t.Errorf("Get = %+v, want active session round1", got)
	}

	bySlug, err := r.Sessions.GetBySlug(ctx, "round1")
	if err != nil {
		t.Fatalf("GetBySlug failed: %v", err)
	}
	if bySlug.ID != ss.ID {
		t.Errorf("GetBySlug.ID = %q, want %q", bySlug.ID, ss.ID)
	}

	if _, err := r.Sessions.GetBySlug(ctx, "nope00"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("GetBySlug(missing) = %v, want ErrNotFound", err)
	}
	if _, err := r.Sessions.Get(ctx, uuid.NewString()); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Get(missing) = %v, want ErrNotFound", err)
	}
}

func testSessionSlugTaken(t *testing.T, r Repos) {
	mustCreateSession(t, r, newSession("taken1", 0))

	err := r.Sessions.Create(context.Background(), newSession("taken1", time.Second))
	if !errors.Is(err, repository.ErrSlugTaken) {
		t.Fatalf("Create with taken slug = %v, want ErrSlugTaken", err)
	}
}

func testSessionListAndEnd(t *testing.T, r Repos) {
	ctx := context.Background()
	first := newSession("list01", 0)
	second := newSession("list02", time.Minute)
	mustCreateSession(t, r, second)
	mustCreateSession(t, r, first)

	mustCreateRequest(t, r, newRequest(second.ID, "x", 1))
	mustCreateRequest(t, r, newRequest(second.ID, "y", 2))

	list, err := r.Sessions.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len(List) = %d, want 2", len(list))
	}
	if list[0].ID != first.ID || list[1].ID != second.ID {
		t.Errorf("List order = [%s %s], want oldest first", list[0].Slug, list[1].Slug)
	}
	if list[0].RequestCount != 0 || list[1].RequestCount != 2 {
		t.Errorf("RequestCount = [%d %d], want [0 2]", list[0].RequestCount, list[1].RequestCount)
	}

	at := base.Add(2 * time.Hour)
	ended, err := r.Sessions.End(ctx, second.ID, at)
	if err != nil {
		t.Fatalf("End failed: %v", err)
	}
	if ended.IsActive || ended.EndsAt == nil || !ended.EndsAt.Equal(at) {
		t.Errorf("End = %+v, want inactive with ends_at %v", ended, at)
	}

	reread, err := r.Sessions.Get(ctx, second.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if reread.IsActive {
		t.Error("stored session still active after End")
	}

	if _, err := r.Sessions.End(ctx, uuid.NewString(), at); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("End(missing) = %v, want ErrNotFound", err)
	}
}
