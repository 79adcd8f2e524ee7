package service

import (
	"context"
	"fmt"

	"github.com/igraphixwebpreview/RoadReportHub/internal/domain"
	"github.com/igraphixwebpreview/RoadReportHub/pkg/e"
)

type settingsService struct {
	repo SettingsRepository
}

func NewSettingsService(repo SettingsRepository) SettingsService {
	return &settingsService{repo: repo}
}

func (s *settingsService) Get(ctx context.Context, userID string) (domain.Settings, error) {
	ctx, span := tracer.Start(ctx, "settings.Get")
	defer span.End()

	if userID == "" {
		return domain.Settings{}, e.ErrUnauthenticated
	}
	return s.repo.GetOrCreate(ctx, domain.DefaultSettings(userID))
}

func (s *settingsService) Update(ctx context.Context, userID string, patch domain.SettingsPatch) (domain.Settings, error) {
	ctx, span := tracer.Start(ctx, "settings.Update")
	defer span.End()

	if userID == "" {
		return domain.Settings{}, e.ErrUnauthenticated
	}
	if d := patch.AlertDistanceMeters; d != nil && (*d < domain.MinAlertDistanceMeters || *d > domain.MaxAlertDistanceMeters) {
		return domain.Settings{}, fmt.Errorf("settings.Update: alert distance %d: %w", *d, e.ErrInvalidInput)
	}
	return s.repo.Update(ctx, patch, domain.DefaultSettings(userID))
}
