package incidents

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/igraphixwebpreview/RoadReportHub/internal/domain"
	"github.com/igraphixwebpreview/RoadReportHub/internal/middleware"
)

//go:generate mockgen -source=handlers.go -destination=mocks/mock.go
type Incidents interface {
	ListActive(ctx context.Context) ([]*domain.Incident, error)
	Nearby(ctx context.Context, req domain.NearbyRequest) ([]*domain.Incident, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Incident, error)
	ListByReporter(ctx context.Context, userID string) ([]*domain.Incident, error)
	Create(ctx context.Context, userID string, req domain.CreateIncidentRequest) (*domain.Incident, error)
}

type Verifier interface {
	Submit(ctx context.Context, voter string, incidentID uuid.UUID, action domain.VerificationAction) (*domain.VerificationResult, error)
}

type Handler struct {
	logger    *slog.Logger
	Incidents Incidents
	Verifier  Verifier
}

func NewHandler(logger *slog.Logger, incidents Incidents, verifier Verifier) *Handler {
	return &Handler{
		logger:    logger,
		Incidents: incidents,
		Verifier:  verifier,
	}
}

func (h *Handler) log(r *http.Request) *slog.Logger {
	reqID := chimw.GetReqID(r.Context())
	if reqID == "" {
		return h.logger
	}
	return h.logger.With(slog.String("request_id", reqID))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)
	l.Debug("IncidentList", slog.String("remote", r.RemoteAddr))

	incidents, err := h.Incidents.ListActive(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, orEmpty(incidents))
}

// Nearby takes lat and lon (lng is accepted too) and an optional radius in meters.
func (h *Handler) Nearby(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)
	q := r.URL.Query()
	l.Debug("IncidentNearby", slog.String("query", r.URL.RawQuery))

	latStr := q.Get("lat")
	lngStr := q.Get("lon")
	if lngStr == "" {
		lngStr = q.Get("lng")
	}
	if latStr == "" || lngStr == "" {
		h.writeJSON(w, http.StatusBadRequest, errorBody(msgCoordinatesRequired))
		return
	}

	lat, errLat := strconv.ParseFloat(latStr, 64)
	lng, errLng := strconv.ParseFloat(lngStr, 64)
	if errLat != nil || errLng != nil {
		l.Warn("invalid coordinates", slog.String("lat", latStr), slog.String("lon", lngStr))
		h.writeJSON(w, http.StatusBadRequest, errorBody(msgInvalidCoordinates))
		return
	}

	req := domain.NearbyRequest{Lat: lat, Lng: lng}
	if s := q.Get("radius"); s != "" {
		radius, err := strconv.ParseFloat(s, 64)
		if err != nil || radius <= 0 {
			h.writeJSON(w, http.StatusBadRequest, errorBody("Radius must be a positive number of meters"))
			return
		}
		req.RadiusM = radius
	}

	incidents, err := h.Incidents.Nearby(r.Context(), req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, orEmpty(incidents))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.incidentID(w, r)
	if !ok {
		return
	}

	incident, err := h.Incidents.Get(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, incident)
}

func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	incidents, err := h.Incidents.ListByReporter(r.Context(), userID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, orEmpty(incidents))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	middleware.BindJSON(h.create)(w, r)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request, req domain.CreateIncidentRequest) {
	l := h.log(r)
	userID, _ := middleware.UserID(r.Context())

	incident, err := h.Incidents.Create(r.Context(), userID, req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	l.Info("incident created",
		slog.String("id", incident.ID.String()),
		slog.String("type", string(incident.Type)),
		slog.String("user_id", userID),
	)
	h.writeJSON(w, http.StatusCreated, incident)
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	id, ok := h.incidentID(w, r)
	if !ok {
		return
	}

	// the body is read leniently so a missing incident answers 404 whatever
	// was posted; an unreadable action reaches Submit as ""
	req := middleware.DecodeLenient[domain.VerifyIncidentRequest](w, r)
	userID, _ := middleware.UserID(r.Context())

	res, err := h.Verifier.Submit(r.Context(), userID, id, req.Action)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.log(r).Info("incident verified",
		slog.String("id", id.String()),
		slog.String("action", string(req.Action)),
		slog.Bool("active", res.Incident.Active),
	)
	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handler) incidentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		h.log(r).Warn("invalid id", slog.String("id", idStr), slog.String("error", err.Error()))
		h.writeJSON(w, http.StatusBadRequest, errorBody("Invalid incident ID"))
		return uuid.Nil, false
	}
	return id, true
}
