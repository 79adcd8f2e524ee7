package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/igraphixwebpreview/RoadReportHub/internal/domain"
	"github.com/igraphixwebpreview/RoadReportHub/internal/geo"
	"github.com/igraphixwebpreview/RoadReportHub/internal/proximity"
	"github.com/igraphixwebpreview/RoadReportHub/pkg/e"
)

const DefaultNearbyRadiusMeters = 5000.0

type IncidentOptions struct {
	CacheTTL     time.Duration
	NearbyRadius float64
	Now          func() time.Time
}

type incidentService struct {
	repo   IncidentRepository
	cache  IncidentCache
	events EventPublisher
	logger *slog.Logger

	cacheTTL     time.Duration
	nearbyRadius float64
	now          func() time.Time
}

// NewIncidentService wires the incident use cases. cache and events may be nil.
func NewIncidentService(repo IncidentRepository, cache IncidentCache, events EventPublisher, logger *slog.Logger, opts IncidentOptions) IncidentService {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 30 * time.Second
	}
	if opts.NearbyRadius <= 0 {
		opts.NearbyRadius = DefaultNearbyRadiusMeters
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &incidentService{
		repo:         repo,
		cache:        cache,
		events:       events,
		logger:       logger,
		cacheTTL:     opts.CacheTTL,
		nearbyRadius: opts.NearbyRadius,
		now:          opts.Now,
	}
}

func (s *incidentService) ListActive(ctx context.Context) ([]*domain.Incident, error) {
	ctx, span := tracer.Start(ctx, "incidents.ListActive")
	defer span.End()

	fill := false
	var gen int64
	if s.cache != nil {
		cached, ok, err := s.cache.GetActive(ctx)
		switch {
		case err != nil:
			s.logger.Warn("active cache read failed, falling back to store", slog.Any("error", err))
		case ok:
			span.SetAttributes(attribute.Bool("cache.hit", true), attribute.Int("incidents", len(cached)))
			return cached, nil
		default:
			// the generation must be read before the store so a write that
			// commits in between makes this snapshot unstorable
			if gen, err = s.cache.Generation(ctx); err != nil {
				s.logger.Warn("active cache generation read failed", slog.Any("error", err))
			} else {
				fill = true
			}
		}
	}

	incidents, err := s.repo.ListActive(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list active")
		return nil, err
	}
	span.SetAttributes(attribute.Bool("cache.hit", false), attribute.Int("incidents", len(incidents)))

	if fill {
		stored, err := s.cache.SetActive(ctx, gen, incidents, s.cacheTTL)
		switch {
		case err != nil:
			s.logger.Warn("active cache write failed", slog.Any("error", err))
		case !stored:
			s.logger.Debug("active cache fill skipped, snapshot is stale", slog.Int64("generation", gen))
		}
	}
	return incidents, nil
}

func (s *incidentService) Nearby(ctx context.Context, req domain.NearbyRequest) ([]*domain.Incident, error) {
	ctx, span := tracer.Start(ctx, "incidents.Nearby")
	defer span.End()

	pos := geo.Point{Lat: req.Lat, Lng: req.Lng}
	if !pos.Valid() {
		return nil, fmt.Errorf("incidents.Nearby: %w", e.ErrInvalidCoordinates)
	}
	radius := req.RadiusM
	if radius <= 0 {
		radius = s.nearbyRadius
	}

	active, err := s.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	nearby := proximity.WithinRadius(active, pos, radius)
	sort.SliceStable(nearby, func(i, j int) bool {
		return geo.Distance(pos, geo.Point{Lat: nearby[i].Latitude, Lng: nearby[i].Longitude}) <
			geo.Distance(pos, geo.Point{Lat: nearby[j].Latitude, Lng: nearby[j].Longitude})
	})

	span.SetAttributes(attribute.Float64("radius_m", radius), attribute.Int("incidents", len(nearby)))
	return nearby, nil
}

func (s *incidentService) Get(ctx context.Context, id uuid.UUID) (*domain.Incident, error) {
	ctx, span := tracer.Start(ctx, "incidents.Get")
	defer span.End()

	return s.repo.Get(ctx, id)
}

func (s *incidentService) ListByReporter(ctx context.Context, userID string) ([]*domain.Incident, error) {
	ctx, span := tracer.Start(ctx, "incidents.ListByReporter")
	defer span.End()

	if userID == "" {
		return nil, e.ErrUnauthenticated
	}
	return s.repo.ListByReporter(ctx, userID)
}

func (s *incidentService) List(ctx context.Context, page, limit int) ([]*domain.Incident, int64, error) {
	ctx, span := tracer.Start(ctx, "incidents.List")
	defer span.End()

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	return s.repo.List(ctx, page, limit)
}

func (s *incidentService) Create(ctx context.Context, userID string, req domain.CreateIncidentRequest) (*domain.Incident, error) {
	ctx, span := tracer.Start(ctx, "incidents.Create")
	defer span.End()

	if userID == "" {
		return nil, e.ErrUnauthenticated
	}
	if req.Latitude == nil || req.Longitude == nil {
		return nil, fmt.Errorf("incidents.Create: %w", e.ErrInvalidCoordinates)
	}
	pos := geo.Point{Lat: req.Latitude.Float64(), Lng: req.Longitude.Float64()}
	if !pos.Valid() {
		return nil, fmt.Errorf("incidents.Create: %w", e.ErrInvalidCoordinates)
	}
	if !req.Type.Valid() {
		return nil, fmt.Errorf("incidents.Create: type %q: %w", req.Type, e.ErrInvalidInput)
	}
	media := domain.NewMedia(req.ImageURL)
	if media.IsZero() {
		return nil, fmt.Errorf("incidents.Create: media required: %w", e.ErrInvalidInput)
	}

	inc := &domain.Incident{
		ID:           uuid.New(),
		UserID:       userID,
		Type:         req.Type,
		Latitude:     pos.Lat,
		Longitude:    pos.Lng,
		Media:        media,
		Notes:        trimmed(req.Notes),
		LocationName: trimmed(req.LocationName),
		ReportedAt:   s.now().UTC(),
		Active:       true,
	}

	if err := s.repo.Create(ctx, inc); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create")
		return nil, err
	}
	span.SetAttributes(attribute.String("incident.id", inc.ID.String()), attribute.String("incident.type", string(inc.Type)))

	s.logger.Info("incident reported",
		slog.String("id", inc.ID.String()),
		slog.String("type", string(inc.Type)),
		slog.String("media", string(inc.Media.Kind)),
	)

	// the incident is stored; caller cancellation must not skip the fan-out
	after := context.WithoutCancel(ctx)
	invalidateActive(after, s.cache, s.logger)
	s.publish(after, domain.EventIncidentCreated, inc)

	return inc, nil
}

func (s *incidentService) publish(ctx context.Context, kind domain.EventKind, inc *domain.Incident) {
	publish(ctx, s.events, kind, inc, s.now, s.logger)
}

func invalidateActive(ctx context.Context, cache IncidentCache, logger *slog.Logger) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx); err != nil {
		logger.Warn("active cache invalidation failed", slog.Any("error", err))
	}
}

func publish(ctx context.Context, events EventPublisher, kind domain.EventKind, inc *domain.Incident, now func() time.Time, logger *slog.Logger) {
	if events == nil {
		return
	}
	ev := domain.IncidentEvent{Kind: kind, Incident: *inc, At: now().UTC()}
	if err := events.Publish(ctx, ev); err != nil {
		logger.Warn("publish incident event failed",
			slog.String("kind", string(kind)),
			slog.String("incident_id", inc.ID.String()),
			slog.Any("error", err),
		)
	}
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
