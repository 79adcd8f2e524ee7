package admin

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/igraphixwebpreview/RoadReportHub/internal/domain"
)

const (
	defaultPage    = 1
	defaultLimit   = 20
	maxLimit       = 100
	defaultMinutes = 60
	maxMinutes     = 1440
)

//go:generate mockgen -source=handlers.go -destination=mocks/mock.go
type Timeline interface {
	List(ctx context.Context, page, limit int) ([]*domain.Incident, int64, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Incident, error)
}

type StatsGetter interface {
	GetStats(ctx context.Context, req domain.StatsRequest) (*domain.IncidentStats, error)
}

type Handler struct {
	logger   *slog.Logger
	Timeline Timeline
	StatsSvc StatsGetter
}

func NewHandler(logger *slog.Logger, timeline Timeline, stats StatsGetter) *Handler {
	return &Handler{
		logger:   logger,
		Timeline: timeline,
		StatsSvc: stats,
	}
}

func (h *Handler) log(r *http.Request) *slog.Logger {
	reqID := chimw.GetReqID(r.Context())
	if reqID == "" {
		return h.logger
	}
	return h.logger.With(slog.String("request_id", reqID))
}

// IncidentList pages through every incident, active or not, newest first.
func (h *Handler) IncidentList(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)
	l.Debug("IncidentList", slog.String("query", r.URL.RawQuery), slog.String("remote", r.RemoteAddr))

	page := parseInt(r.URL.Query().Get("page"), defaultPage)
	if page < 1 {
		page = defaultPage
	}
	limit := parseInt(r.URL.Query().Get("limit"), defaultLimit)
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
		l.Warn("limit capped", slog.Int("limit", limit))
	}

	incidents, total, err := h.Timeline.List(r.Context(), page, limit)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if incidents == nil {
		incidents = []*domain.Incident{}
	}

	l.Info("incidents listed", slog.Int("count", len(incidents)), slog.Int64("total", total))
	h.writeJSON(w, http.StatusOK, map[string]any{
		"incidents": incidents,
		"total":     total,
		"page":      page,
		"limit":     limit,
	})
}

func (h *Handler) IncidentGet(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)

	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		l.Warn("invalid id", slog.String("id", idStr), slog.String("error", err.Error()))
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid incident ID"})
		return
	}

	incident, err := h.Timeline.Get(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, incident)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)
	l.Debug("Stats", slog.String("query", r.URL.RawQuery), slog.String("remote", r.RemoteAddr))

	minutesStr := r.URL.Query().Get("minutes")
	minutes := defaultMinutes
	if minutesStr != "" {
		var err error
		minutes, err = strconv.Atoi(minutesStr)
		if err != nil || minutes <= 0 || minutes > maxMinutes {
			l.Warn("invalid minutes", slog.String("minutes", minutesStr))
			h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "minutes must be 1-1440"})
			return
		}
	}

	stats, err := h.StatsSvc.GetStats(r.Context(), domain.StatsRequest{Minutes: minutes})
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	l.Info("stats served", slog.Int("minutes", minutes), slog.Int64("users", stats.UserCount))
	h.writeJSON(w, http.StatusOK, stats)
}
