package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/igraphixwebpreview/RoadReportHub/internal/domain"
	"github.com/igraphixwebpreview/RoadReportHub/internal/geo"
	"github.com/igraphixwebpreview/RoadReportHub/internal/lifecycle"
)

var tracer = otel.Tracer("github.com/igraphixwebpreview/RoadReportHub/internal/service")

//go:generate mockgen -source=service.go -destination=mocks/mock.go
type IncidentService interface {
	ListActive(ctx context.Context) ([]*domain.Incident, error)
	Nearby(ctx context.Context, req domain.NearbyRequest) ([]*domain.Incident, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Incident, error)
	ListByReporter(ctx context.Context, userID string) ([]*domain.Incident, error)
	Create(ctx context.Context, userID string, req domain.CreateIncidentRequest) (*domain.Incident, error)
	List(ctx context.Context, page, limit int) ([]*domain.Incident, int64, error)
}

type VerificationService interface {
	Submit(ctx context.Context, voter string, incidentID uuid.UUID, action domain.VerificationAction) (*domain.VerificationResult, error)
}

type SettingsService interface {
	Get(ctx context.Context, userID string) (domain.Settings, error)
	Update(ctx context.Context, userID string, patch domain.SettingsPatch) (domain.Settings, error)
}

type AlertService interface {
	CheckLocation(ctx context.Context, userID string, pos geo.Point) (domain.LocationCheckResponse, error)
	Evaluate(ctx context.Context, userID string, pos geo.Point) (domain.LocationCheckResponse, error)
	Attach(userID string)
	Forget(userID string)
}

type StatsService interface {
	GetStats(ctx context.Context, req domain.StatsRequest) (*domain.IncidentStats, error)
}

type IncidentRepository interface {
	Create(ctx context.Context, incident *domain.Incident) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Incident, error)
	ListActive(ctx context.Context) ([]*domain.Incident, error)
	ListByReporter(ctx context.Context, userID string) ([]*domain.Incident, error)
	List(ctx context.Context, page, limit int) ([]*domain.Incident, int64, error)
}

// VerificationLedger stores votes. Record must insert v and apply the
// transition to the incident's current state as one unit that is serialized
// per incident, re-checking that the incident exists and that the voter has
// not voted yet. It returns the incident as persisted.
type VerificationLedger interface {
	Exists(ctx context.Context, userID string, incidentID uuid.UUID) (bool, error)
	Record(ctx context.Context, v *domain.Verification, apply lifecycle.Transition) (*domain.Incident, error)
}

type SettingsRepository interface {
	GetOrCreate(ctx context.Context, defaults domain.Settings) (domain.Settings, error)
	Update(ctx context.Context, patch domain.SettingsPatch, defaults domain.Settings) (domain.Settings, error)
}

type LocationCheckRepository interface {
	SaveCheck(ctx context.Context, check *domain.LocationCheck) error
	CountUniqueUsers(ctx context.Context, minutes int) (int64, error)
	CountTotalChecks(ctx context.Context, minutes int) (int64, error)
}

// IncidentCache holds the active incident snapshot. Every write that can
// change the active set bumps the generation through Invalidate; SetActive
// only stores a snapshot read under the generation that is still current.
type IncidentCache interface {
	GetActive(ctx context.Context) ([]*domain.Incident, bool, error)
	Generation(ctx context.Context) (int64, error)
	SetActive(ctx context.Context, gen int64, incidents []*domain.Incident, ttl time.Duration) (bool, error)
	Invalidate(ctx context.Context) error
}

type AlertQueue interface {
	Enqueue(ctx context.Context, payload domain.AlertPayload) error
}

type EventPublisher interface {
	Publish(ctx context.Context, ev domain.IncidentEvent) error
}

type Service struct {
	Incidents     IncidentService
	Verifications VerificationService
	Settings      SettingsService
	Alerts        AlertService
	Stats         StatsService
}

func NewService(
	incidents IncidentService,
	verifications VerificationService,
	settings SettingsService,
	alerts AlertService,
	stats StatsService,
) *Service {
	return &Service{
		Incidents:     incidents,
		Verifications: verifications,
		Settings:      settings,
		Alerts:        alerts,
		Stats:         stats,
	}
}
