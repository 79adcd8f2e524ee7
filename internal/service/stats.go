package service

import (
	"context"

	"github.com/igraphixwebpreview/RoadReportHub/internal/domain"
)

type statsService struct {
	repo LocationCheckRepository
}

func NewStatsService(repo LocationCheckRepository) StatsService {
	return &statsService{repo: repo}
}

func (s *statsService) GetStats(ctx context.Context, req domain.StatsRequest) (*domain.IncidentStats, error) {
	ctx, span := tracer.Start(ctx, "stats.Get")
	defer span.End()

	minutes := req.Minutes
	if minutes == 0 {
		minutes = 60
	}

	unique, err := s.repo.CountUniqueUsers(ctx, minutes)
	if err != nil {
		return nil, err
	}

	total, err := s.repo.CountTotalChecks(ctx, minutes)
	if err != nil {
		return nil, err
	}

	return &domain.IncidentStats{
		UserCount:   unique,
		TotalChecks: total,
		Minutes:     minutes,
	}, nil
}
