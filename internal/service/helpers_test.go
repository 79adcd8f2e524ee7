package service_test

import (
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/igraphixwebpreview/RoadReportHub/internal/domain"
)

var fixedNow = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func activeIncident(lat, lng float64) *domain.Incident {
	return &domain.Incident{
		ID:         uuid.New(),
		UserID:     "reporter",
		Type:       domain.IncidentRoadblock,
		Latitude:   lat,
		Longitude:  lng,
		Media:      domain.NewMedia("https://cdn.example.com/block.jpg"),
		ReportedAt: fixedNow.Add(-time.Hour),
		Active:     true,
	}
}
