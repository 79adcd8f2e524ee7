package incidents

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/igraphixwebpreview/RoadReportHub/internal/domain"
	"github.com/igraphixwebpreview/RoadReportHub/pkg/e"
)

const (
	msgCoordinatesRequired = "Latitude and longitude are required"
	msgInvalidCoordinates  = "Invalid coordinates"
)

// orEmpty keeps list responses JSON arrays even when nothing matched.
func orEmpty(incidents []*domain.Incident) []*domain.Incident {
	if incidents == nil {
		return []*domain.Incident{}
	}
	return incidents
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	l := h.log(r)

	var (
		status int
		msg    string
	)
	switch {
	case errors.Is(err, e.ErrUnauthenticated):
		status, msg = http.StatusUnauthorized, "Authentication required"
	case errors.Is(err, e.ErrNotFound):
		status, msg = http.StatusNotFound, "Incident not found"
	case errors.Is(err, e.ErrDuplicateVote):
		status, msg = http.StatusBadRequest, "You have already verified this incident"
	case errors.Is(err, e.ErrInvalidAction):
		status, msg = http.StatusBadRequest, "Action must be 'confirm' or 'dismiss'"
	case errors.Is(err, e.ErrInvalidCoordinates):
		status, msg = http.StatusBadRequest, msgInvalidCoordinates
	case errors.Is(err, e.ErrInvalidInput):
		status, msg = http.StatusBadRequest, "Invalid input"
	default:
		status, msg = http.StatusInternalServerError, "Internal server error"
	}

	if status >= http.StatusInternalServerError {
		l.Error("handler error",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
	} else {
		l.Warn("request rejected",
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.Any("error", err),
		)
	}

	h.writeJSON(w, status, errorBody(msg))
}

func (h *Handler) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("json encode failed", slog.Any("error", err))
	}
}
