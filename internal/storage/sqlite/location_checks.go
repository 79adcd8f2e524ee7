package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/igraphixwebpreview/RoadReportHub/internal/domain"
	"github.com/igraphixwebpreview/RoadReportHub/pkg/e"
)

func (s *SQLite) SaveCheck(ctx context.Context, check *domain.LocationCheck) error {
	const op = "sqlite.LocationCheck.Save"

	if check == nil || check.UserID == "" {
		return fmt.Errorf("%s: %w", op, e.ErrInvalidInput)
	}
	if check.Lat < -90 || check.Lat > 90 || check.Lng < -180 || check.Lng > 180 {
		return fmt.Errorf("%s: %w", op, e.ErrInvalidCoordinates)
	}
	if check.ID == uuid.Nil {
		check.ID = uuid.New()
	}
	if check.CheckedAt.IsZero() {
		check.CheckedAt = s.now().UTC()
	}

	ids := check.IncidentIDs
	if ids == nil {
		ids = []uuid.UUID{}
	}
	encoded, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	const query = `INSERT INTO location_checks (id, user_id, lat, lng, incident_ids, checked_at) VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query,
		check.ID.String(),
		check.UserID,
		check.Lat,
		check.Lng,
		string(encoded),
		check.CheckedAt.UnixNano(),
	); err != nil {
		s.logger.Error("db exec failed",
			slog.String("op", op),
			slog.Any("error", err),
			slog.String("user_id", check.UserID),
		)
		return e.WrapError(ctx, op, err)
	}
	return nil
}

func (s *SQLite) CountUniqueUsers(ctx context.Context, minutes int) (int64, error) {
	const op = "sqlite.LocationCheck.CountUniqueUsers"
	return s.count(ctx, op, `SELECT COUNT(DISTINCT user_id) FROM location_checks WHERE checked_at >= ?`, minutes)
}

func (s *SQLite) CountTotalChecks(ctx context.Context, minutes int) (int64, error) {
	const op = "sqlite.LocationCheck.CountTotalChecks"
	return s.count(ctx, op, `SELECT COUNT(*) FROM location_checks WHERE checked_at >= ?`, minutes)
}

func (s *SQLite) count(ctx context.Context, op, query string, minutes int) (int64, error) {
	if minutes <= 0 || minutes > 1440 {
		return 0, fmt.Errorf("%s: %w", op, e.ErrInvalidInput)
	}

	since := s.now().Add(-time.Duration(minutes) * time.Minute).UnixNano()

	var cnt int64
	if err := s.db.QueryRowContext(ctx, query, since).Scan(&cnt); err != nil {
		s.logger.Error("db queryrow scan failed",
			slog.String("op", op),
			slog.Any("error", err),
			slog.Int("minutes", minutes),
		)
		return 0, e.WrapError(ctx, op, err)
	}
	return cnt, nil
}
