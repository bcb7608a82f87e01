package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/vogiaan1904/thequeue/config"
	"github.com/vogiaan1904/thequeue/internal/realtime"
	"github.com/vogiaan1904/thequeue/pkg/logger"
)

var pongFrame = []byte(`{"type":"pong"}`)

// wsSubscriber delivers events through a buffered outbox drained by writePump.
type wsSubscriber struct {
	id   string
	conn *websocket.Conn
	out  *realtime.Outbox
	conf config.RealtimeConfig
	l    logger.Logger
}

func newWSSubscriber(conn *websocket.Conn, conf config.RealtimeConfig, l logger.Logger) *wsSubscriber {
	return &wsSubscriber{
		id:   uuid.NewString(),
		conn: conn,
		out:  realtime.NewOutbox(conf.SendBuffer),
		conf: conf,
		l:    l,
	}
}

func (s *wsSubscriber) ID() string { return s.id }

func (s *wsSubscriber) Send(ctx context.Context, data []byte) error {
	return s.out.TrySend(data)
}

// Close stops the write pump, which closes the connection.
func (s *wsSubscriber) Close() error {
	s.out.Close()
	return nil
}

func (s *wsSubscriber) writePump(ctx context.Context, closing <-chan struct{}) {
	ticker := time.NewTicker(s.conf.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case data, ok := <-s.out.C():
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.conf.WriteTimeout))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.l.Debugf(ctx, "http.wsSubscriber.writePump: subscriber=%s: %v", s.id, err)
				return
			}
		case <-closing:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.conf.WriteTimeout))
			_ = s.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.conf.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.l.Debugf(ctx, "http.wsSubscriber.writePump: ping subscriber=%s: %v", s.id, err)
				return
			}
		}
	}
}

// readPump answers text "ping" keep-alives and returns when the peer goes away
// or stops answering pings.
func (s *wsSubscriber) readPump(ctx context.Context) {
	s.conn.SetReadLimit(s.conf.ReadLimit)
	extend := func() { _ = s.conn.SetReadDeadline(time.Now().Add(s.conf.PongWait)) }
	extend()
	s.conn.SetPongHandler(func(string) error {
		extend()
		return nil
	})

	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.l.Debugf(ctx, "http.wsSubscriber.readPump: subscriber=%s: %v", s.id, err)
			}
			return
		}
		extend()

		if strings.TrimSpace(string(msg)) == "ping" {
			if err := s.Send(ctx, pongFrame); err != nil {
				return
			}
		}
	}
}

func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session")
	if _, err := h.sessionSvc.GetSession(r.Context(), sessionID); err != nil {
		h.respondError(w, r, err, nil)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.l.Warnf(r.Context(), "http.Handler.ServeWS: upgrade: %v", err)
		return
	}

	// The request context is cancelled once the handler returns.
	ctx := h.l.WithFields(context.WithoutCancel(r.Context()), "session_id", sessionID)
	sub := newWSSubscriber(conn, h.rtConf, h.l)
	if err := h.queueSvc.Subscribe(ctx, sessionID, sub); err != nil {
		h.l.Warnf(ctx, "http.Handler.ServeWS: subscribe: %v", err)
		_ = conn.Close()
		return
	}

	go sub.writePump(ctx, h.closing)
	sub.readPump(ctx)

	h.queueSvc.Unsubscribe(ctx, sessionID, sub)
	_ = sub.Close()
}
