package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/vogiaan1904/thequeue/internal/models"
	"github.com/vogiaan1904/thequeue/internal/queue"
	"github.com/vogiaan1904/thequeue/internal/realtime"
	"github.com/vogiaan1904/thequeue/internal/repository"
	"github.com/vogiaan1904/thequeue/pkg/logger"
)

// EventMirror receives every event after it has been broadcast to subscribers.
type EventMirror interface {
	PublishQueueEvent(ctx context.Context, ev *models.Event) error
}

type QueueService interface {
	// Submit applies one mutation to a session's queue and broadcasts the result.
	Submit(ctx context.Context, sessionID string, in MutationInput) (*MutationResult, error)
	ListRequests(ctx context.Context, sessionID string) ([]*models.Request, error)
	// SessionOfRequest resolves the session a request belongs to.
	SessionOfRequest(ctx context.Context, requestID string) (string, error)

	Subscribe(ctx context.Context, sessionID string, sub realtime.Subscriber) error
	Unsubscribe(ctx context.Context, sessionID string, sub realtime.Subscriber)
	// CloseSession runs end under the session's room lock and broadcasts
	// session.ended for the session it returns.
	CloseSession(ctx context.Context, sessionID string, end func() (*models.Session, error)) (*models.Session, error)
}

type queueService struct {
	store    *queue.Store
	sessions repository.SessionRepository
	requests repository.RequestRepository
	disp     *realtime.Dispatcher
	mirror   EventMirror
	validate *validator.Validate
	l        logger.Logger
	now      func() time.Time
}

// NewQueueService wires the coordinator. mirror may be nil.
func NewQueueService(
	store *queue.Store,
	sessions repository.SessionRepository,
	requests repository.RequestRepository,
	disp *realtime.Dispatcher,
	mirror EventMirror,
	l logger.Logger,
) QueueService {
	return &queueService{
		store:    store,
		sessions: sessions,
		requests: requests,
		disp:     disp,
		mirror:   mirror,
		validate: validator.New(),
		l:        l,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *queueService) Submit(ctx context.Context, sessionID string, in MutationInput) (*MutationResult, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMutation, err)
	}

	ss, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	ctx = s.l.WithFields(ctx, "session_id", sessionID, "mutation", string(in.Kind))

	var (
		res  = &MutationResult{Kind: in.Kind}
		turn *queue.Turn
		ev   = &models.Event{SessionID: sessionID}
	)

	switch in.Kind {
	case MutationAppend:
		if !ss.IsActive {
			return nil, ErrSessionInactive
		}
		// The session may end between the read above and the room lock.
		res.Request, turn, err = s.store.AppendIf(ctx, sessionID, s.buildRequest(in.Request), s.admitAppend(sessionID))
		ev.Type = models.EventTypeRequestCreated

	case MutationReposition:
		var moved *queue.RepositionResult
		moved, turn, err = s.store.Reposition(ctx, sessionID, in.RequestID, in.Position)
		if err == nil {
			res.Request = moved.Request
			res.Ordered = moved.Ordered
			ev.Requests = moved.Ordered
		}
		ev.Type = models.EventTypeRequestReordered

	case MutationStatus:
		res.Request, turn, err = s.store.SetStatus(ctx, sessionID, in.RequestID, in.Status)
		ev.Type = models.EventTypeRequestStatusChanged

	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidMutation, in.Kind)
	}
	if err != nil {
		return nil, s.mapStoreError(ctx, err)
	}
	defer turn.Done()

	ev.Sequence = turn.Sequence
	ev.Request = res.Request
	res.Event = ev

	s.publish(ctx, ev)

	return res, nil
}

func (s *queueService) buildRequest(in *NewRequest) *models.Request {
	now := s.now()
	return &models.Request{
		ID:        uuid.NewString(),
		SongTitle: strings.TrimSpace(in.SongTitle),
		Artist:    trimOptional(in.Artist),
		GuestName: trimOptional(in.GuestName),
		Note:      trimOptional(in.Note),
		TipAmount: in.TipAmount,
		Status:    models.RequestStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// publish runs with the commit's turn held.
func (s *queueService) publish(ctx context.Context, ev *models.Event) {
	ev.EmittedAt = s.now()

	if _, err := s.disp.Publish(ctx, ev.SessionID, ev); err != nil {
		s.l.Errorf(ctx, "queueService.publish: %v", err)
	}

	if s.mirror != nil {
		if err := s.mirror.PublishQueueEvent(ctx, ev); err != nil {
			s.l.Errorf(ctx, "queueService.publish: mirror: %v", err)
		}
	}
}

// admitAppend re-reads the session under the room lock.
func (s *queueService) admitAppend(sessionID string) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		ss, err := s.getSession(ctx, sessionID)
		if err != nil {
			return err
		}
		if !ss.IsActive {
			return ErrSessionInactive
		}
		return nil
	}
}

func (s *queueService) mapStoreError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, ErrSessionInactive), errors.Is(err, ErrSessionNotFound):
		return err
	case errors.Is(err, queue.ErrNotFound):
		return ErrRequestNotFound
	case errors.Is(err, queue.ErrInvalidStatus):
		return ErrInvalidStatus
	case errors.Is(err, queue.ErrAlreadyQueued):
		return ErrRequestExists
	}
	s.l.Errorf(ctx, "queueService.Submit: %v", err)
	return err
}

func (s *queueService) getSession(ctx context.Context, sessionID string) (*models.Session, error) {
	ss, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		s.l.Errorf(ctx, "queueService.getSession: %v", err)
		return nil, err
	}
	return ss, nil
}

func (s *queueService) ListRequests(ctx context.Context, sessionID string) ([]*models.Request, error) {
	if _, err := s.getSession(ctx, sessionID); err != nil {
		return nil, err
	}

	reqs, err := s.store.ListOrdered(ctx, sessionID)
	if err != nil {
		s.l.Errorf(ctx, "queueService.ListRequests: %v", err)
		return nil, err
	}
	return reqs, nil
}

func (s *queueService) SessionOfRequest(ctx context.Context, requestID string) (string, error) {
	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrRequestNotFound
		}
		s.l.Errorf(ctx, "queueService.SessionOfRequest: %v", err)
		return "", err
	}
	return req.SessionID, nil
}

func (s *queueService) Subscribe(ctx context.Context, sessionID string, sub realtime.Subscriber) error {
	if _, err := s.getSession(ctx, sessionID); err != nil {
		return err
	}

	s.disp.Registry().Join(sessionID, sub)
	s.l.Infof(ctx, "queueService.Subscribe: session=%s subscriber=%s subscribers=%d",
		sessionID, sub.ID(), s.disp.Registry().Count(sessionID))
	return nil
}

func (s *queueService) Unsubscribe(ctx context.Context, sessionID string, sub realtime.Subscriber) {
	if s.disp.Registry().Leave(sessionID, sub) {
		s.l.Infof(ctx, "queueService.Unsubscribe: session=%s subscriber=%s", sessionID, sub.ID())
	}
}

func (s *queueService) CloseSession(ctx context.Context, sessionID string, end func() (*models.Session, error)) (*models.Session, error) {
	var ss *models.Session
	turn, err := s.store.Exclusive(sessionID, func() error {
		var err error
		ss, err = end()
		return err
	})
	if err != nil {
		return nil, err
	}
	defer turn.Done()

	s.publish(ctx, &models.Event{
		Type:      models.EventTypeSessionEnded,
		SessionID: ss.ID,
		Sequence:  turn.Sequence,
		Session:   ss,
	})
	return ss, nil
}
