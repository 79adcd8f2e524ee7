package alerts

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/igraphixwebpreview/RoadReportHub/internal/domain"
	"github.com/igraphixwebpreview/RoadReportHub/internal/geo"
	"github.com/igraphixwebpreview/RoadReportHub/internal/middleware"
	"github.com/igraphixwebpreview/RoadReportHub/internal/workers"
	"github.com/igraphixwebpreview/RoadReportHub/pkg/e"
)

//go:generate mockgen -source=handlers.go -destination=mocks/mock.go
type Alerts interface {
	CheckLocation(ctx context.Context, userID string, pos geo.Point) (domain.LocationCheckResponse, error)
	Attach(userID string)
	Forget(userID string)
}

// Reevaluator runs a proximity evaluation off the request path.
type Reevaluator interface {
	Submit(ctx context.Context, job workers.CheckLocationJob) bool
}

type Subscriber interface {
	Subscribe() (uint64, <-chan domain.IncidentEvent)
	Unsubscribe(id uint64)
}

type Handler struct {
	logger      *slog.Logger
	Alerts      Alerts
	Reevaluator Reevaluator
	Events      Subscriber
	upgrader    websocket.Upgrader
}

func NewHandler(logger *slog.Logger, alerts Alerts, reevaluator Reevaluator, events Subscriber) *Handler {
	return &Handler{
		logger:      logger,
		Alerts:      alerts,
		Reevaluator: reevaluator,
		Events:      events,
		upgrader: websocket.Upgrader{
			// Mobile clients do not send a browser origin.
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func (h *Handler) log(r *http.Request) *slog.Logger {
	reqID := chimw.GetReqID(r.Context())
	if reqID == "" {
		return h.logger
	}
	return h.logger.With(slog.String("request_id", reqID))
}

// LocationCheck evaluates one position sample for the caller.
func (h *Handler) LocationCheck(w http.ResponseWriter, r *http.Request) {
	middleware.BindJSON(func(w http.ResponseWriter, r *http.Request, req domain.LocationCheckRequest) {
		userID, _ := middleware.UserID(r.Context())

		pos := geo.Point{Lat: req.Latitude.Float64(), Lng: req.Longitude.Float64()}
		resp, err := h.Alerts.CheckLocation(r.Context(), userID, pos)
		if err != nil {
			h.handleError(w, r, err)
			return
		}
		h.writeJSON(w, http.StatusOK, resp)
	})(w, r)
}

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, e.ErrUnauthenticated):
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Authentication required"})
	case errors.Is(err, e.ErrInvalidInput):
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid coordinates"})
	default:
		h.log(r).Error("alerts handler error", slog.String("path", r.URL.Path), slog.Any("error", err))
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("json encode failed", slog.Any("error", err))
	}
}
