package settings

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/igraphixwebpreview/RoadReportHub/internal/domain"
	"github.com/igraphixwebpreview/RoadReportHub/internal/middleware"
	"github.com/igraphixwebpreview/RoadReportHub/pkg/e"
)

//go:generate mockgen -source=handlers.go -destination=mocks/mock.go
type Settings interface {
	Get(ctx context.Context, userID string) (domain.Settings, error)
	Update(ctx context.Context, userID string, patch domain.SettingsPatch) (domain.Settings, error)
}

type Handler struct {
	logger   *slog.Logger
	Settings Settings
}

func NewHandler(logger *slog.Logger, settings Settings) *Handler {
	return &Handler{logger: logger, Settings: settings}
}

func (h *Handler) log(r *http.Request) *slog.Logger {
	reqID := chimw.GetReqID(r.Context())
	if reqID == "" {
		return h.logger
	}
	return h.logger.With(slog.String("request_id", reqID))
}

// Get returns the caller's settings, storing the defaults on first access.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	s, err := h.Settings.Get(r.Context(), userID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, s)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	middleware.BindJSON(func(w http.ResponseWriter, r *http.Request, patch domain.SettingsPatch) {
		userID, _ := middleware.UserID(r.Context())

		s, err := h.Settings.Update(r.Context(), userID, patch)
		if err != nil {
			h.handleError(w, r, err)
			return
		}

		h.log(r).Info("settings updated",
			slog.String("user_id", userID),
			slog.Int("alert_distance_m", s.AlertDistanceMeters),
		)
		h.writeJSON(w, http.StatusOK, s)
	})(w, r)
}

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, e.ErrUnauthenticated):
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Authentication required"})
	case errors.Is(err, e.ErrInvalidInput):
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Alert distance must be between 100 and 2000 meters"})
	default:
		h.log(r).Error("settings handler error", slog.String("path", r.URL.Path), slog.Any("error", err))
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
