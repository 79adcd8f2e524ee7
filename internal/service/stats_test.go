package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"

	"github.com/igraphixwebpreview/RoadReportHub/internal/domain"
	"github.com/igraphixwebpreview/RoadReportHub/internal/service"
	mock_service "github.com/igraphixwebpreview/RoadReportHub/internal/service/mocks"
)

func TestStats_DefaultWindow(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	repo := mock_service.NewMockLocationCheckRepository(ctrl)

	gomock.InOrder(
		repo.EXPECT().CountUniqueUsers(gomock.Any(), 60).Return(int64(4), nil),
		repo.EXPECT().CountTotalChecks(gomock.Any(), 60).Return(int64(11), nil),
	)

	got, err := service.NewStatsService(repo).GetStats(context.Background(), domain.StatsRequest{})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	want := domain.IncidentStats{UserCount: 4, TotalChecks: 11, Minutes: 60}
	if *got != want {
		t.Fatalf("got=%+v want=%+v", *got, want)
	}
}

func TestStats_ErrorStopsEarly(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	repo := mock_service.NewMockLocationCheckRepository(ctrl)
	boom := errors.New("boom")

	repo.EXPECT().CountUniqueUsers(gomock.Any(), 15).Return(int64(0), boom)

	_, err := service.NewStatsService(repo).GetStats(context.Background(), domain.StatsRequest{Minutes: 15})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}
