package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/igraphixwebpreview/RoadReportHub/internal/domain"
	"github.com/igraphixwebpreview/RoadReportHub/internal/lifecycle"
	"github.com/igraphixwebpreview/RoadReportHub/pkg/e"
)

type verificationService struct {
	incidents IncidentRepository
	ledger    VerificationLedger
	cache     IncidentCache
	events    EventPublisher
	engine    lifecycle.Engine
	logger    *slog.Logger
	now       func() time.Time
}

type VerificationOptions struct {
	Now func() time.Time
}

func NewVerificationService(
	incidents IncidentRepository,
	ledger VerificationLedger,
	cache IncidentCache,
	events EventPublisher,
	engine lifecycle.Engine,
	logger *slog.Logger,
	opts VerificationOptions,
) VerificationService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &verificationService{
		incidents: incidents,
		ledger:    ledger,
		cache:     cache,
		events:    events,
		engine:    engine,
		logger:    logger,
		now:       opts.Now,
	}
}

// Submit admits one vote. The checks run in a fixed order (missing incident,
// repeated vote, unknown action) and none of them leaves a trace in storage.
func (s *verificationService) Submit(ctx context.Context, voter string, incidentID uuid.UUID, action domain.VerificationAction) (*domain.VerificationResult, error) {
	const op = "verification.Submit"

	ctx, span := tracer.Start(ctx, op)
	defer span.End()
	span.SetAttributes(attribute.String("incident.id", incidentID.String()), attribute.String("action", string(action)))

	if voter == "" {
		return nil, e.ErrUnauthenticated
	}

	if _, err := s.incidents.Get(ctx, incidentID); err != nil {
		return nil, err
	}

	exists, err := s.ledger.Exists(ctx, voter, incidentID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%s: %w", op, e.ErrDuplicateVote)
	}

	if !action.Valid() {
		return nil, fmt.Errorf("%s: %q: %w", op, action, e.ErrInvalidAction)
	}

	v := &domain.Verification{
		ID:         uuid.New(),
		IncidentID: incidentID,
		UserID:     voter,
		Action:     action,
		Timestamp:  s.now().UTC(),
	}

	var before, after lifecycle.State
	updated, err := s.ledger.Record(ctx, v, func(cur lifecycle.State) lifecycle.State {
		before = cur
		after = s.engine.Apply(cur, action)
		return after
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "record")
		return nil, err
	}

	deactivated := lifecycle.Deactivated(before, after)
	span.SetAttributes(attribute.Bool("deactivated", deactivated))

	s.logger.Info("verification recorded",
		slog.String("incident_id", incidentID.String()),
		slog.String("action", string(action)),
		slog.Int("confirms", updated.VerifiedCount),
		slog.Int("dismisses", updated.DismissedCount),
		slog.Bool("active", updated.Active),
	)

	// the vote is durable from here on
	post := context.WithoutCancel(ctx)
	invalidateActive(post, s.cache, s.logger)
	publish(post, s.events, domain.EventIncidentVerified, updated, s.now, s.logger)
	if deactivated {
		publish(post, s.events, domain.EventIncidentDeactivated, updated, s.now, s.logger)
	}

	return &domain.VerificationResult{Verification: v, Incident: updated}, nil
}
