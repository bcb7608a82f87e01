package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/vogiaan1904/thequeue/config"
	"github.com/vogiaan1904/thequeue/internal/repository/memory"
	"github.com/vogiaan1904/thequeue/pkg/logger"
)

func TestRandomSlug(t *testing.T) {
	for _, n := range []int{6, 8} {
		s := RandomSlug(n)
		if len(s) != n {
			t.Errorf("len(RandomSlug(%d)) = %d", n, len(s))
		}
		for _, c := range s {
			if !strings.ContainsRune(slugAlphabet, c) {
				t.Errorf("RandomSlug(%d) = %q contains %q", n, s, c)
			}
		}
	}
}

// scriptedSlugs returns the given slugs in order, then repeats the last one.
func scriptedSlugs(slugs ...string) (SlugGenerator, *[]int) {
	var lengths []int
	i := 0
	return func(length int) string {
		lengths = append(lengths, length)
		s := slugs[min(i, len(slugs)-1)]
		i++
		return s
	}, &lengths
}

func newSessionService(t *testing.T, slug SlugGenerator) SessionService {
	t.Helper()
	repo := memory.NewSessionRepository(memory.NewDB())
	return NewSessionService(repo, nil, config.AuthConfig{
		JWTSecret: "test-secret",
		JWTExpiry: time.Hour,
	}, slug, logger.InitializeTestZapLogger())
}

func TestCreateSessionRetriesTakenSlugs(t *testing.T) {
	gen, lengths := scriptedSlugs("aaaaaa", "aaaaaa", "bbbbbb")
	svc := newSessionService(t, gen)

	first, err := svc.CreateSession(context.Background(), CreateSessionInput{Name: "one"})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	second, err := svc.CreateSession(context.Background(), CreateSessionInput{Name: "two"})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	if first.Session.Slug != "aaaaaa" || second.Session.Slug != "bbbbbb" {
		t.Errorf("slugs = %q, %q, want aaaaaa, bbbbbb", first.Session.Slug, second.Session.Slug)
	}
	if len(*lengths) != 3 {
		t.Errorf("generator calls = %d, want 3", len(*lengths))
	}
	if !second.Session.IsActive {
		t.Error("new session is not active")
	}
}

func TestCreateSessionFallsBackToLongerSlugs(t *testing.T) {
	gen, lengths := scriptedSlugs("taken0")
	svc := newSessionService(t, gen)

	if _, err := svc.CreateSession(context.Background(), CreateSessionInput{Name: "one"}); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	*lengths = nil

	_, err := svc.CreateSession(context.Background(), CreateSessionInput{Name: "two"})
	if !errors.Is(err, ErrSlugExhausted) {
		t.Fatalf("CreateSession = %v, want ErrSlugExhausted", err)
	}

	if len(*lengths) != 20 {
		t.Fatalf("generator calls = %d, want 20", len(*lengths))
	}
	if (*lengths)[9] != 6 || (*lengths)[10] != 8 {
		t.Errorf("lengths at the switch = %d, %d, want 6, 8", (*lengths)[9], (*lengths)[10])
	}
}

func TestCreateSessionValidatesName(t *testing.T) {
	svc := newSessionService(t, nil)

	_, err := svc.CreateSession(context.Background(), CreateSessionInput{Name: "   "})
	if !errors.Is(err, ErrInvalidMutation) {
		t.Fatalf("CreateSession(blank) = %v, want ErrInvalidMutation", err)
	}
}

func TestGetSessionBySlug(t *testing.T) {
	svc := newSessionService(t, nil)
	out, err := svc.CreateSession(context.Background(), CreateSessionInput{Name: "Friday"})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	got, err := svc.GetSessionBySlug(context.Background(), out.Session.Slug)
	if err != nil {
		t.Fatalf("GetSessionBySlug failed: %v", err)
	}
	if got.ID != out.Session.ID {
		t.Errorf("ID = %q, want %q", got.ID, out.Session.ID)
	}

	if _, err := svc.GetSessionBySlug(context.Background(), "zzzzzz"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("GetSessionBySlug(missing) = %v, want ErrSessionNotFound", err)
	}
	if _, err := svc.EndSession(context.Background(), "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("EndSession(missing) = %v, want ErrSessionNotFound", err)
	}
}

func TestDJToken(t *testing.T) {
	svc := newSessionService(t, nil)
	out, err := svc.CreateSession(context.Background(), CreateSessionInput{Name: "Friday"})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	if err := svc.ValidateDJToken(context.Background(), out.DJToken, out.Session.ID); err != nil {
		t.Errorf("ValidateDJToken(own session) = %v, want nil", err)
	}

	if err := svc.ValidateDJToken(context.Background(), out.DJToken, "other"); !errors.Is(err, ErrTokenWrongSession) {
		t.Errorf("ValidateDJToken(other session) = %v, want ErrTokenWrongSession", err)
	}
	if err := svc.ValidateDJToken(context.Background(), "", out.Session.ID); !errors.Is(err, ErrTokenEmpty) {
		t.Errorf("ValidateDJToken(empty) = %v, want ErrTokenEmpty", err)
	}
	if err := svc.ValidateDJToken(context.Background(), "not.a.jwt", out.Session.ID); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("ValidateDJToken(garbage) = %v, want ErrTokenInvalid", err)
	}

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"session_id": out.Session.ID,
		"role":       "dj",
		"exp":        time.Now().Add(time.Hour).Unix(),
	})
	forgedStr, err := forged.SignedString([]byte("wrong-secret"))
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}
	if err := svc.ValidateDJToken(context.Background(), forgedStr, out.Session.ID); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("ValidateDJToken(forged) = %v, want ErrTokenInvalid", err)
	}

	guest := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"session_id": out.Session.ID,
		"role":       "guest",
		"exp":        time.Now().Add(time.Hour).Unix(),
	})
	guestStr, err := guest.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}
	if err := svc.ValidateDJToken(context.Background(), guestStr, out.Session.ID); !errors.Is(err, ErrTokenInvalidClaims) {
		t.Errorf("ValidateDJToken(guest role) = %v, want ErrTokenInvalidClaims", err)
	}
}

func TestListSessionsCountsRequests(t *testing.T) {
	f := newFixture(t)
	ss := f.createSession(t)
	f.createSession(t)
	f.appendSong(t, ss.ID, "A")
	f.appendSong(t, ss.ID, "B")

	list, err := f.sessions.ListSessions(context.Background())
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len(list) = %d, want 2", len(list))
	}

	counts := map[string]int{}
	for _, s := range list {
		counts[s.ID] = s.RequestCount
	}
	if counts[ss.ID] != 2 {
		t.Errorf("RequestCount = %d, want 2", counts[ss.ID])
	}

	ended, err := f.sessions.EndSession(context.Background(), ss.ID)
	if err != nil {
		t.Fatalf("EndSession failed: %v", err)
	}
	if ended.IsActive || ended.EndsAt == nil {
		t.Errorf("EndSession = %+v, want inactive with ends_at", ended)
	}
}
