package grpc

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/vogiaan1904/thequeue/config"
	"github.com/vogiaan1904/thequeue/internal/models"
	"github.com/vogiaan1904/thequeue/internal/realtime"
	"github.com/vogiaan1904/thequeue/internal/service"
	"github.com/vogiaan1904/thequeue/pkg/logger"
	resp "github.com/vogiaan1904/thequeue/pkg/response"
	"github.com/vogiaan1904/thequeue/pkg/util"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Service is the queue gRPC service. Close ends every open StreamSession so
// the server can stop gracefully.
type Service interface {
	QueueServiceServer
	Close()
}

type grpcService struct {
	closing   chan struct{}
	closeOnce sync.Once

	queueSvc   service.QueueService
	sessionSvc service.SessionService
	authConf   config.AuthConfig
	rtConf     config.RealtimeConfig
	validator  *validator.Validate
	l          logger.Logger
}

func NewGrpcService(
	queueSvc service.QueueService,
	sessionSvc service.SessionService,
	authConf config.AuthConfig,
	rtConf config.RealtimeConfig,
	l logger.Logger,
) Service {
	return &grpcService{
		closing:    make(chan struct{}),
		queueSvc:   queueSvc,
		sessionSvc: sessionSvc,
		authConf:   authConf,
		rtConf:     rtConf,
		validator:  validator.New(),
		l:          l,
	}
}

func (s *grpcService) Close() {
	s.closeOnce.Do(func() { close(s.closing) })
}

func (s *grpcService) decode(in *structpb.Struct, dst any) error {
	if err := fromStruct(in, dst); err != nil {
		return resp.ParseGRPCError(errInvalidBody)
	}
	if err := s.validator.Struct(dst); err != nil {
		return resp.ParseGRPCError(errInvalidBody)
	}
	return nil
}

func (s *grpcService) fail(ctx context.Context, op string, err error) error {
	mapped := mapGRPCError(err)
	if mapped == err {
		s.l.Errorf(ctx, "grpcService.%s: %v", op, err)
	}
	return resp.ParseGRPCError(mapped)
}

func (s *grpcService) ListRequests(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req sessionMessage
	if err := s.decode(in, &req); err != nil {
		return nil, err
	}

	reqs, err := s.queueSvc.ListRequests(ctx, req.SessionID)
	if err != nil {
		return nil, s.fail(ctx, "ListRequests", err)
	}

	out, err := toStruct(map[string]any{
		"session_id": req.SessionID,
		"requests":   reqs,
		"fetched_at": util.TimeToISO8601Str(time.Now().UTC()),
	})
	if err != nil {
		return nil, s.fail(ctx, "ListRequests", err)
	}
	return out, nil
}

func (s *grpcService) SubmitMutation(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req mutationMessage
	if err := s.decode(in, &req); err != nil {
		return nil, err
	}

	kind := service.MutationKind(req.Kind)
	if kind != service.MutationAppend && s.authConf.RequireDJToken {
		if err := s.sessionSvc.ValidateDJToken(ctx, req.DJToken, req.SessionID); err != nil {
			return nil, s.fail(ctx, "SubmitMutation", err)
		}
	}

	res, err := s.queueSvc.Submit(ctx, req.SessionID, service.MutationInput{
		Kind:      kind,
		Request:   req.Request,
		RequestID: req.RequestID,
		Position:  req.Position,
		Status:    models.RequestStatus(req.Status),
	})
	if err != nil {
		return nil, s.fail(ctx, "SubmitMutation", err)
	}

	out, err := toStruct(res)
	if err != nil {
		return nil, s.fail(ctx, "SubmitMutation", err)
	}
	return out, nil
}

// streamSubscriber hands events to the StreamSession goroutine that owns the
// server stream.
type streamSubscriber struct {
	id  string
	out *realtime.Outbox
}

func (s *streamSubscriber) ID() string { return s.id }

func (s *streamSubscriber) Send(ctx context.Context, data []byte) error {
	return s.out.TrySend(data)
}

func (s *streamSubscriber) Close() error {
	s.out.Close()
	return nil
}

func (s *grpcService) StreamSession(in *structpb.Struct, stream QueueService_StreamSessionServer) error {
	ctx := stream.Context()

	var req sessionMessage
	if err := s.decode(in, &req); err != nil {
		return err
	}
	ctx = s.l.WithFields(ctx, "session_id", req.SessionID)

	sub := &streamSubscriber{
		id:  uuid.NewString(),
		out: realtime.NewOutbox(s.rtConf.SendBuffer),
	}
	if err := s.queueSvc.Subscribe(ctx, req.SessionID, sub); err != nil {
		return s.fail(ctx, "StreamSession", err)
	}
	defer func() {
		s.queueSvc.Unsubscribe(ctx, req.SessionID, sub)
		_ = sub.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			s.l.Debugf(ctx, "grpcService.StreamSession: stream cancelled by client")
			return ctx.Err()

		case <-s.closing:
			return status.Error(codes.Unavailable, "server shutting down")

		case data, ok := <-sub.out.C():
			if !ok {
				return status.Error(codes.Unavailable, "subscriber evicted")
			}

			msg, err := jsonToStruct(data)
			if err != nil {
				return s.fail(ctx, "StreamSession", err)
			}
			if err := stream.Send(msg); err != nil {
				s.l.Warnf(ctx, "grpcService.StreamSession: send: %v", err)
				return err
			}

			if msg.GetFields()["type"].GetStringValue() == string(models.EventTypeSessionEnded) {
				return nil
			}
		}
	}
}
