package alerts

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/igraphixwebpreview/RoadReportHub/internal/domain"
	"github.com/igraphixwebpreview/RoadReportHub/internal/geo"
	"github.com/igraphixwebpreview/RoadReportHub/internal/middleware"
	"github.com/igraphixwebpreview/RoadReportHub/internal/workers"
	"github.com/igraphixwebpreview/RoadReportHub/pkg/validator"
)

var (
	pingInterval   = 30 * time.Second
	writeTimeout   = 10 * time.Second
	readTimeout    = 60 * time.Second
	reevalTimeout  = 5 * time.Second
	maxMessageSize = int64(4 * 1024)
)

type session struct {
	h      *Handler
	conn   *websocket.Conn
	userID string
	logger *slog.Logger
	send   chan domain.AlertStreamMessage

	mu   sync.Mutex
	last *geo.Point
}

// Stream upgrades to a websocket. The client sends positions as
// {"latitude":..,"longitude":..}; the server answers each one and also
// re-evaluates the last known position whenever the active set changes.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Authentication required"})
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log(r).Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	s := &session{
		h:      h,
		conn:   conn,
		userID: userID,
		logger: h.log(r).With(slog.String("user_id", userID)),
		send:   make(chan domain.AlertStreamMessage, 16),
	}

	h.Alerts.Attach(userID)
	defer h.Alerts.Forget(userID)
	subID, events := h.Events.Subscribe()
	defer h.Events.Unsubscribe(subID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		defer cancel()
		s.writePump(ctx)
	}()
	go func() {
		defer wg.Done()
		s.watchEvents(ctx, events)
	}()

	s.logger.Info("alert stream opened")
	s.push(ctx, domain.AlertStreamMessage{Type: domain.StreamConnected})

	s.readPump(ctx)
	cancel()
	conn.Close()
	wg.Wait()
	s.logger.Info("alert stream closed")
}

func (s *session) readPump(ctx context.Context) {
	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(readTimeout))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) && ctx.Err() == nil {
				s.logger.Warn("alert stream read failed", slog.Any("error", err))
			}
			return
		}
		s.conn.SetReadDeadline(time.Now().Add(readTimeout))

		var req domain.LocationCheckRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			s.push(ctx, domain.AlertStreamMessage{Type: domain.StreamError, Error: "Invalid JSON"})
			continue
		}
		if err := validator.ValidateStruct(req); err != nil {
			s.push(ctx, domain.AlertStreamMessage{Type: domain.StreamError, Error: validator.Message(err)})
			continue
		}

		pos := geo.Point{Lat: req.Latitude.Float64(), Lng: req.Longitude.Float64()}
		s.remember(pos)

		resp, err := s.h.Alerts.CheckLocation(ctx, s.userID, pos)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Error("stream location check failed", slog.Any("error", err))
			s.push(ctx, domain.AlertStreamMessage{Type: domain.StreamError, Error: "Internal server error"})
			continue
		}
		s.deliver(ctx, resp)
	}
}

func (s *session) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case msg := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteJSON(msg); err != nil {
				s.logger.Debug("alert stream write failed", slog.Any("error", err))
				s.conn.Close()
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.conn.Close()
				return
			}
		}
	}
}

// watchEvents re-checks the last position on every incident change so a
// client that stands still still learns about new or dismissed incidents.
func (s *session) watchEvents(ctx context.Context, events <-chan domain.IncidentEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			pos, known := s.position()
			if !known {
				continue
			}

			results := make(chan domain.LocationCheckResponse, 1)
			job := workers.CheckLocationJob{
				UserID:     s.userID,
				Pos:        pos,
				ResultChan: results,
				Timeout:    reevalTimeout,
			}
			if !s.h.Reevaluator.Submit(ctx, job) {
				return
			}

			select {
			case resp, ok := <-results:
				if ok {
					s.logger.Debug("re-evaluated after incident event", slog.String("kind", string(ev.Kind)))
					s.deliver(ctx, resp)
				}
			case <-ctx.Done():
				return
			}
		}
	}
}

func (s *session) deliver(ctx context.Context, resp domain.LocationCheckResponse) {
	switch {
	case resp.Alert != nil:
		s.push(ctx, domain.AlertStreamMessage{Type: domain.StreamAlert, Alert: resp.Alert})
	case resp.Cleared:
		s.push(ctx, domain.AlertStreamMessage{Type: domain.StreamClear})
	}
}

func (s *session) push(ctx context.Context, msg domain.AlertStreamMessage) {
	select {
	case s.send <- msg:
	case <-ctx.Done():
	}
}

func (s *session) remember(pos geo.Point) {
	s.mu.Lock()
	s.last = &pos
	s.mu.Unlock()
}

func (s *session) position() (geo.Point, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return geo.Point{}, false
	}
	return *s.last, true
}
