package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vogiaan1904/thequeue/config"
	"github.com/vogiaan1904/thequeue/internal/models"
	"github.com/vogiaan1904/thequeue/internal/queue"
	"github.com/vogiaan1904/thequeue/internal/realtime"
	"github.com/vogiaan1904/thequeue/internal/repository"
	"github.com/vogiaan1904/thequeue/internal/repository/memory"
	"github.com/vogiaan1904/thequeue/pkg/logger"
)

type recorder struct {
	id string

	mu     sync.Mutex
	events []models.Event
}

func (r *recorder) ID() string { return r.id }

func (r *recorder) Send(ctx context.Context, data []byte) error {
	var ev models.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) Close() error { return nil }

func (r *recorder) all() []models.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Event(nil), r.events...)
}

type mirrorStub struct {
	mu     sync.Mutex
	events []*models.Event
	err    error
}

func (m *mirrorStub) PublishQueueEvent(ctx context.Context, ev *models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return m.err
}

type fixture struct {
	queue    QueueService
	sessions SessionService
	mirror   *mirrorStub
	repos    struct {
		sessions repository.SessionRepository
		requests repository.RequestRepository
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	l := logger.InitializeTestZapLogger()
	db := memory.NewDB()

	f := &fixture{mirror: &mirrorStub{}}
	f.repos.sessions = memory.NewSessionRepository(db)
	f.repos.requests = memory.NewRequestRepository(db)

	store := queue.NewStore(f.repos.requests, l)
	disp := realtime.NewDispatcher(realtime.NewRegistry(), l)
	f.queue = NewQueueService(store, f.repos.sessions, f.repos.requests, disp, f.mirror, l)
	f.sessions = NewSessionService(f.repos.sessions, f.queue, config.AuthConfig{
		JWTSecret: "test-secret",
		JWTExpiry: time.Hour,
	}, nil, l)
	return f
}

func (f *fixture) createSession(t *testing.T) *models.Session {
	t.Helper()
	out, err := f.sessions.CreateSession(context.Background(), CreateSessionInput{Name: "Friday"})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	return out.Session
}

func (f *fixture) appendSong(t *testing.T, sessionID, title string) *models.Request {
	t.Helper()
	res, err := f.queue.Submit(context.Background(), sessionID, MutationInput{
		Kind:    MutationAppend,
		Request: &NewRequest{SongTitle: title},
	})
	if err != nil {
		t.Fatalf("Submit(append %s) failed: %v", title, err)
	}
	return res.Request
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func TestSubmitAppendBroadcastsCreated(t *testing.T) {
	f := newFixture(t)
	ss := f.createSession(t)
	sub := &recorder{id: "viewer"}
	if err := f.queue.Subscribe(context.Background(), ss.ID, sub); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	res, err := f.queue.Submit(context.Background(), ss.ID, MutationInput{
		Kind: MutationAppend,
		Request: &NewRequest{
			SongTitle: "  Windowlicker ",
			Artist:    strPtr(" Aphex Twin"),
			GuestName: strPtr("   "),
		},
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if res.Request.SongTitle != "Windowlicker" || *res.Request.Artist != "Aphex Twin" {
		t.Errorf("fields not trimmed: %+v", res.Request)
	}
	if res.Request.GuestName != nil {
		t.Errorf("GuestName = %q, want nil for blank input", *res.Request.GuestName)
	}
	if res.Request.Status != models.RequestStatusPending || res.Request.Position != 1 {
		t.Errorf("Request = %s at %d, want pending at 1", res.Request.Status, res.Request.Position)
	}

	events := sub.all()
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	if events[0].Type != models.EventTypeRequestCreated || events[0].Request.ID != res.Request.ID {
		t.Errorf("event = %+v, want request.created for %s", events[0], res.Request.ID)
	}
	if len(f.mirror.events) != 1 {
		t.Errorf("mirrored %d events, want 1", len(f.mirror.events))
	}
}

func TestSubmitRepositionBroadcastsFullOrdering(t *testing.T) {
	f := newFixture(t)
	ss := f.createSession(t)
	f.appendSong(t, ss.ID, "A")
	f.appendSong(t, ss.ID, "B")
	c := f.appendSong(t, ss.ID, "C")

	sub := &recorder{id: "viewer"}
	if err := f.queue.Subscribe(context.Background(), ss.ID, sub); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	res, err := f.queue.Submit(context.Background(), ss.ID, MutationInput{
		Kind:      MutationReposition,
		RequestID: c.ID,
		Position:  1,
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if res.Request.Position != 1 {
		t.Errorf("Position = %d, want 1", res.Request.Position)
	}

	events := sub.all()
	if len(events) != 1 || events[0].Type != models.EventTypeRequestReordered {
		t.Fatalf("events = %+v, want one request.reordered", events)
	}
	var got []string
	for _, r := range events[0].Requests {
		got = append(got, r.SongTitle)
	}
	if len(got) != 3 || got[0] != "C" || got[1] != "A" || got[2] != "B" {
		t.Errorf("broadcast ordering = %v, want [C A B]", got)
	}

	list, err := f.queue.ListRequests(context.Background(), ss.ID)
	if err != nil {
		t.Fatalf("ListRequests failed: %v", err)
	}
	if list[0].ID != c.ID {
		t.Errorf("stored head = %s, want C", list[0].SongTitle)
	}
}

func TestSubmitStatusKeepsPosition(t *testing.T) {
	f := newFixture(t)
	ss := f.createSession(t)
	f.appendSong(t, ss.ID, "A")
	b := f.appendSong(t, ss.ID, "B")

	res, err := f.queue.Submit(context.Background(), ss.ID, MutationInput{
		Kind:      MutationStatus,
		RequestID: b.ID,
		Status:    models.RequestStatusAccepted,
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if res.Request.Status != models.RequestStatusAccepted || res.Request.Position != 2 {
		t.Errorf("Request = %s at %d, want accepted at 2", res.Request.Status, res.Request.Position)
	}
	if res.Event.Type != models.EventTypeRequestStatusChanged {
		t.Errorf("Event.Type = %s, want request.status_changed", res.Event.Type)
	}
}

func TestSubmitErrors(t *testing.T) {
	f := newFixture(t)
	ss := f.createSession(t)
	a := f.appendSong(t, ss.ID, "A")
	other := f.createSession(t)

	tests := []struct {
		name    string
		session string
		in      MutationInput
		want    error
	}{
		{"unknown session", "missing", MutationInput{Kind: MutationAppend, Request: &NewRequest{SongTitle: "x"}}, ErrSessionNotFound},
		{"unknown kind", ss.ID, MutationInput{Kind: "delete", RequestID: a.ID}, ErrInvalidMutation},
		{"append without title", ss.ID, MutationInput{Kind: MutationAppend, Request: &NewRequest{}}, ErrInvalidMutation},
		{"append without request", ss.ID, MutationInput{Kind: MutationAppend}, ErrInvalidMutation},
		{"reposition without id", ss.ID, MutationInput{Kind: MutationReposition, Position: 1}, ErrInvalidMutation},
		{"reposition missing request", ss.ID, MutationInput{Kind: MutationReposition, RequestID: "nope", Position: 1}, ErrRequestNotFound},
		{"reposition in other session", other.ID, MutationInput{Kind: MutationReposition, RequestID: a.ID, Position: 1}, ErrRequestNotFound},
		{"bad status", ss.ID, MutationInput{Kind: MutationStatus, RequestID: a.ID, Status: "skipped"}, ErrInvalidStatus},
		{"negative tip", ss.ID, MutationInput{Kind: MutationAppend, Request: &NewRequest{SongTitle: "x", TipAmount: floatPtr(-1)}}, ErrInvalidMutation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(f.mirror.events)
			_, err := f.queue.Submit(context.Background(), tt.session, tt.in)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Submit = %v, want %v", err, tt.want)
			}
			if len(f.mirror.events) != before {
				t.Error("failed mutation was published")
			}
		})
	}
}

func TestSubmitAppendToEndedSession(t *testing.T) {
	f := newFixture(t)
	ss := f.createSession(t)
	a := f.appendSong(t, ss.ID, "A")

	if _, err := f.sessions.EndSession(context.Background(), ss.ID); err != nil {
		t.Fatalf("EndSession failed: %v", err)
	}

	_, err := f.queue.Submit(context.Background(), ss.ID, MutationInput{
		Kind:    MutationAppend,
		Request: &NewRequest{SongTitle: "late"},
	})
	if !errors.Is(err, ErrSessionInactive) {
		t.Fatalf("Submit(append) = %v, want ErrSessionInactive", err)
	}

	// The DJ can still tidy up an ended session.
	if _, err := f.queue.Submit(context.Background(), ss.ID, MutationInput{
		Kind:      MutationStatus,
		RequestID: a.ID,
		Status:    models.RequestStatusDone,
	}); err != nil {
		t.Fatalf("Submit(status) on ended session failed: %v", err)
	}
}

// gatedSessions parks the first armed Get after it has read the session.
type gatedSessions struct {
	repository.SessionRepository
	armed   atomic.Bool
	reached chan struct{}
	release chan struct{}
}

func (g *gatedSessions) Get(ctx context.Context, id string) (*models.Session, error) {
	ss, err := g.SessionRepository.Get(ctx, id)
	if g.armed.CompareAndSwap(true, false) {
		close(g.reached)
		<-g.release
	}
	return ss, err
}

func TestAppendRacingEndSessionIsRefused(t *testing.T) {
	f := newFixture(t)
	ss := f.createSession(t)
	l := logger.InitializeTestZapLogger()

	gated := &gatedSessions{
		SessionRepository: f.repos.sessions,
		reached:           make(chan struct{}),
		release:           make(chan struct{}),
	}
	store := queue.NewStore(f.repos.requests, l)
	q := NewQueueService(store, gated, f.repos.requests, realtime.NewDispatcher(realtime.NewRegistry(), l), nil, l)
	sessions := NewSessionService(f.repos.sessions, q, config.AuthConfig{JWTSecret: "test-secret"}, nil, l)

	sub := &recorder{id: "viewer"}
	if err := q.Subscribe(context.Background(), ss.ID, sub); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	gated.armed.Store(true)
	errCh := make(chan error, 1)
	go func() {
		_, err := q.Submit(context.Background(), ss.ID, MutationInput{
			Kind:    MutationAppend,
			Request: &NewRequest{SongTitle: "late"},
		})
		errCh <- err
	}()

	// The append has seen an active session; end it before the append locks the room.
	<-gated.reached
	if _, err := sessions.EndSession(context.Background(), ss.ID); err != nil {
		t.Fatalf("EndSession failed: %v", err)
	}
	close(gated.release)

	if err := <-errCh; !errors.Is(err, ErrSessionInactive) {
		t.Fatalf("Submit(append) = %v, want ErrSessionInactive", err)
	}

	stored, err := f.repos.requests.ListBySession(context.Background(), ss.ID)
	if err != nil {
		t.Fatalf("ListBySession failed: %v", err)
	}
	if len(stored) != 0 {
		t.Errorf("stored requests = %d, want 0", len(stored))
	}

	events := sub.all()
	if len(events) != 1 || events[0].Type != models.EventTypeSessionEnded {
		t.Errorf("events = %+v, want only session.ended", events)
	}
}

func TestMirrorFailureDoesNotFailCommit(t *testing.T) {
	f := newFixture(t)
	ss := f.createSession(t)
	f.mirror.err = errors.New("broker down")

	if _, err := f.queue.Submit(context.Background(), ss.ID, MutationInput{
		Kind:    MutationAppend,
		Request: &NewRequest{SongTitle: "A"},
	}); err != nil {
		t.Fatalf("Submit = %v, want nil when only the mirror fails", err)
	}

	list, err := f.queue.ListRequests(context.Background(), ss.ID)
	if err != nil {
		t.Fatalf("ListRequests failed: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("len(list) = %d, want 1", len(list))
	}
}

func TestEventsCarryIncreasingSequence(t *testing.T) {
	f := newFixture(t)
	ss := f.createSession(t)
	sub := &recorder{id: "viewer"}
	if err := f.queue.Subscribe(context.Background(), ss.ID, sub); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	a := f.appendSong(t, ss.ID, "A")
	f.appendSong(t, ss.ID, "B")
	if _, err := f.queue.Submit(context.Background(), ss.ID, MutationInput{
		Kind: MutationReposition, RequestID: a.ID, Position: 2,
	}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if _, err := f.sessions.EndSession(context.Background(), ss.ID); err != nil {
		t.Fatalf("EndSession failed: %v", err)
	}

	events := sub.all()
	if len(events) != 4 {
		t.Fatalf("len(events) = %d, want 4", len(events))
	}
	for i := 1; i < len(events); i++ {
		if events[i].Sequence <= events[i-1].Sequence {
			t.Errorf("events[%d].Sequence = %d after %d", i, events[i].Sequence, events[i-1].Sequence)
		}
	}
	last := events[3]
	if last.Type != models.EventTypeSessionEnded || last.Session == nil || last.Session.IsActive {
		t.Errorf("last event = %+v, want session.ended with inactive session", last)
	}
}

func TestSubscribeUnknownSession(t *testing.T) {
	f := newFixture(t)
	err := f.queue.Subscribe(context.Background(), "missing", &recorder{id: "x"})
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Subscribe = %v, want ErrSessionNotFound", err)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	f := newFixture(t)
	ss := f.createSession(t)
	sub := &recorder{id: "viewer"}
	if err := f.queue.Subscribe(context.Background(), ss.ID, sub); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	f.queue.Unsubscribe(context.Background(), ss.ID, sub)

	f.appendSong(t, ss.ID, "A")
	if got := len(sub.all()); got != 0 {
		t.Errorf("received %d events after Unsubscribe, want 0", got)
	}
}

func TestSessionOfRequest(t *testing.T) {
	f := newFixture(t)
	ss := f.createSession(t)
	a := f.appendSong(t, ss.ID, "A")

	got, err := f.queue.SessionOfRequest(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("SessionOfRequest failed: %v", err)
	}
	if got != ss.ID {
		t.Errorf("SessionOfRequest = %q, want %q", got, ss.ID)
	}

	if _, err := f.queue.SessionOfRequest(context.Background(), "missing"); !errors.Is(err, ErrRequestNotFound) {
		t.Errorf("SessionOfRequest(missing) = %v, want ErrRequestNotFound", err)
	}
}
