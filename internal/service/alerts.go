package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/igraphixwebpreview/RoadReportHub/internal/domain"
	"github.com/igraphixwebpreview/RoadReportHub/internal/geo"
	"github.com/igraphixwebpreview/RoadReportHub/internal/proximity"
)

type alertService struct {
	incidents IncidentService
	settings  SettingsService
	checks    LocationCheckRepository
	queue     AlertQueue
	notifier  *proximity.Notifier
	logger    *slog.Logger
	now       func() time.Time
}

// NewAlertService wires proximity evaluation. checks and queue may be nil.
func NewAlertService(
	incidents IncidentService,
	settings SettingsService,
	checks LocationCheckRepository,
	queue AlertQueue,
	notifier *proximity.Notifier,
	logger *slog.Logger,
) AlertService {
	return &alertService{
		incidents: incidents,
		settings:  settings,
		checks:    checks,
		queue:     queue,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

// CheckLocation evaluates one position sample and records it for stats.
func (s *alertService) CheckLocation(ctx context.Context, userID string, pos geo.Point) (domain.LocationCheckResponse, error) {
	resp, err := s.Evaluate(ctx, userID, pos)
	if err != nil {
		return resp, err
	}

	if s.checks != nil {
		check := &domain.LocationCheck{
			ID:        uuid.New(),
			UserID:    userID,
			Lat:       pos.Lat,
			Lng:       pos.Lng,
			CheckedAt: s.now().UTC(),
		}
		if resp.Alert != nil {
			check.IncidentIDs = []uuid.UUID{resp.Alert.IncidentID}
		}
		if err := s.checks.SaveCheck(ctx, check); err != nil {
			s.logger.Warn("save location check failed", slog.String("user_id", userID), slog.Any("error", err))
		}
	}
	return resp, nil
}

func (s *alertService) Evaluate(ctx context.Context, userID string, pos geo.Point) (domain.LocationCheckResponse, error) {
	ctx, span := tracer.Start(ctx, "alerts.Evaluate")
	defer span.End()

	active, err := s.incidents.ListActive(ctx)
	if err != nil {
		return domain.LocationCheckResponse{}, err
	}
	settings, err := s.settings.Get(ctx, userID)
	if err != nil {
		return domain.LocationCheckResponse{}, err
	}

	resp, err := s.notifier.Evaluate(ctx, userID, pos, active, settings)
	if err != nil {
		return domain.LocationCheckResponse{}, err
	}
	span.SetAttributes(
		attribute.Int("incidents", len(active)),
		attribute.Bool("alert", resp.Alert != nil),
		attribute.Bool("suppressed", resp.Suppressed),
		attribute.Bool("cleared", resp.Cleared),
	)

	if resp.Alert == nil {
		return resp, nil
	}

	s.logger.Info("proximity alert",
		slog.String("user_id", userID),
		slog.String("incident_id", resp.Alert.IncidentID.String()),
		slog.Int("distance_m", resp.Alert.DistanceMeters),
	)

	if s.queue != nil {
		payload := domain.AlertPayload{
			UserID:    userID,
			Lat:       pos.Lat,
			Lng:       pos.Lng,
			Alert:     *resp.Alert,
			CheckedAt: s.now().UTC(),
		}
		if err := s.queue.Enqueue(context.WithoutCancel(ctx), payload); err != nil {
			s.logger.Error("enqueue alert failed", slog.Any("error", err))
		}
	}
	return resp, nil
}

func (s *alertService) Attach(userID string) {
	s.notifier.Attach(userID)
}

func (s *alertService) Forget(userID string) {
	s.notifier.Forget(userID)
}
