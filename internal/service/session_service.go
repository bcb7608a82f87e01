package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/vogiaan1904/thequeue/config"
	"github.com/vogiaan1904/thequeue/internal/models"
	"github.com/vogiaan1904/thequeue/internal/repository"
	"github.com/vogiaan1904/thequeue/pkg/logger"
)

const roleDJ = "dj"

type SessionService interface {
	CreateSession(ctx context.Context, in CreateSessionInput) (*CreateSessionOutput, error)
	GetSession(ctx context.Context, id string) (*models.Session, error)
	GetSessionBySlug(ctx context.Context, slug string) (*models.Session, error)
	ListSessions(ctx context.Context) ([]models.SessionSummary, error)
	// EndSession marks the session inactive and notifies its subscribers.
	EndSession(ctx context.Context, id string) (*models.Session, error)

	GenerateDJToken(ctx context.Context, ss *models.Session) (string, error)
	// ValidateDJToken checks that token is a DJ token for sessionID.
	ValidateDJToken(ctx context.Context, token, sessionID string) error
}

type sessionCloser interface {
	CloseSession(ctx context.Context, sessionID string, end func() (*models.Session, error)) (*models.Session, error)
}

type sessionService struct {
	repo     repository.SessionRepository
	closer   sessionCloser
	conf     config.AuthConfig
	slug     SlugGenerator
	validate *validator.Validate
	l        logger.Logger
	now      func() time.Time
}

func NewSessionService(
	repo repository.SessionRepository,
	closer sessionCloser,
	conf config.AuthConfig,
	slug SlugGenerator,
	l logger.Logger,
) SessionService {
	if slug == nil {
		slug = RandomSlug
	}
	return &sessionService{
		repo:     repo,
		closer:   closer,
		conf:     conf,
		slug:     slug,
		validate: validator.New(),
		l:        l,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *sessionService) CreateSession(ctx context.Context, in CreateSessionInput) (*CreateSessionOutput, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMutation, err)
	}

	ss := &models.Session{
		ID:        uuid.NewString(),
		Name:      in.Name,
		IsActive:  true,
		CreatedAt: s.now(),
	}

	if err := s.insertWithUniqueSlug(ctx, ss); err != nil {
		return nil, err
	}

	token, err := s.GenerateDJToken(ctx, ss)
	if err != nil {
		s.l.Errorf(ctx, "sessionService.CreateSession: %v", err)
		return nil, err
	}

	s.l.Infof(ctx, "sessionService.CreateSession: session=%s slug=%s", ss.ID, ss.Slug)

	return &CreateSessionOutput{
		Session: ss,
		DJToken: token,
	}, nil
}

func (s *sessionService) insertWithUniqueSlug(ctx context.Context, ss *models.Session) error {
	for _, round := range slugRounds {
		for i := 0; i < round.attempts; i++ {
			ss.Slug = s.slug(round.length)

			err := s.repo.Create(ctx, ss)
			if err == nil {
				return nil
			}
			if !errors.Is(err, repository.ErrSlugTaken) {
				s.l.Errorf(ctx, "sessionService.insertWithUniqueSlug: %v", err)
				return err
			}
			s.l.Debugf(ctx, "sessionService.insertWithUniqueSlug: slug %s taken", ss.Slug)
		}
	}

	s.l.Warnf(ctx, "sessionService.insertWithUniqueSlug: %v", ErrSlugExhausted)
	return ErrSlugExhausted
}

func (s *sessionService) GetSession(ctx context.Context, id string) (*models.Session, error) {
	return s.mapGet(ctx, "sessionService.GetSession", func() (*models.Session, error) {
		return s.repo.Get(ctx, id)
	})
}

func (s *sessionService) GetSessionBySlug(ctx context.Context, slug string) (*models.Session, error) {
	return s.mapGet(ctx, "sessionService.GetSessionBySlug", func() (*models.Session, error) {
		return s.repo.GetBySlug(ctx, slug)
	})
}

func (s *sessionService) mapGet(ctx context.Context, op string, get func() (*models.Session, error)) (*models.Session, error) {
	ss, err := get()
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.l.Warnf(ctx, "%s: %v", op, ErrSessionNotFound)
			return nil, ErrSessionNotFound
		}
		s.l.Errorf(ctx, "%s: %v", op, err)
		return nil, err
	}
	return ss, nil
}

func (s *sessionService) ListSessions(ctx context.Context) ([]models.SessionSummary, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		s.l.Errorf(ctx, "sessionService.ListSessions: %v", err)
		return nil, err
	}
	return list, nil
}

func (s *sessionService) EndSession(ctx context.Context, id string) (*models.Session, error) {
	end := func() (*models.Session, error) {
		return s.repo.End(ctx, id, s.now())
	}

	ss, err := s.mapGet(ctx, "sessionService.EndSession", func() (*models.Session, error) {
		if s.closer == nil {
			return end()
		}
		return s.closer.CloseSession(ctx, id, end)
	})
	if err != nil {
		return nil, err
	}

	s.l.Infof(ctx, "sessionService.EndSession: session=%s", ss.ID)

	return ss, nil
}

func (s *sessionService) GenerateDJToken(ctx context.Context, ss *models.Session) (string, error) {
	now := s.now()

	claims := jwt.MapClaims{
		"session_id": ss.ID,
		"role":       roleDJ,
		"exp":        now.Add(s.conf.JWTExpiry).Unix(),
		"iat":        now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString([]byte(s.conf.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenStr, nil
}

func (s *sessionService) ValidateDJToken(ctx context.Context, token, sessionID string) error {
	if token == "" {
		return ErrTokenEmpty
	}

	claims := jwt.MapClaims{}
	parsedToken, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenUnexpectedSignature
		}
		return []byte(s.conf.JWTSecret), nil
	})
	if err != nil {
		s.l.Warnf(ctx, "sessionService.ValidateDJToken: %v", err)
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if !parsedToken.Valid {
		return ErrTokenInvalid
	}

	if role, _ := claims["role"].(string); role != roleDJ {
		return ErrTokenInvalidClaims
	}

	tokenSession, ok := claims["session_id"].(string)
	if !ok {
		return ErrTokenInvalidClaims
	}
	if tokenSession != sessionID {
		return ErrTokenWrongSession
	}

	return nil
}
