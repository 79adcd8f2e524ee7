package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/igraphixwebpreview/RoadReportHub/internal/domain"
	"github.com/igraphixwebpreview/RoadReportHub/pkg/e"
)

type LocationCheckRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewLocationCheckRepo(pool *pgxpool.Pool, logger *slog.Logger) *LocationCheckRepo {
	return &LocationCheckRepo{pool: pool, logger: logger}
}

func (p *LocationCheckRepo) SaveCheck(ctx context.Context, check *domain.LocationCheck) error {
	const op = "postgres.LocationCheck.Save"

	if check == nil || check.UserID == "" {
		return fmt.Errorf("%s: %w", op, e.ErrInvalidInput)
	}
	if check.Lat < -90 || check.Lat > 90 || check.Lng < -180 || check.Lng > 180 {
		return fmt.Errorf("%s: %w", op, e.ErrInvalidCoordinates)
	}

	const query = `
		INSERT INTO location_checks (id, user_id, lat, lng, incident_ids, checked_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if check.ID == uuid.Nil {
		check.ID = uuid.New()
	}
	if check.CheckedAt.IsZero() {
		check.CheckedAt = time.Now().UTC()
	}
	ids := check.IncidentIDs
	if ids == nil {
		ids = []uuid.UUID{}
	}

	_, err := p.pool.Exec(ctx, query,
		check.ID,
		check.UserID,
		check.Lat,
		check.Lng,
		ids,
		check.CheckedAt,
	)
	if err != nil {
		p.logger.Error("db exec failed",
			slog.String("op", op),
			slog.Any("error", err),
			slog.String("user_id", check.UserID),
		)
		return e.WrapError(ctx, op, err)
	}

	return nil
}

func (p *LocationCheckRepo) CountUniqueUsers(ctx context.Context, minutes int) (int64, error) {
	const op = "postgres.LocationCheck.CountUniqueUsers"

	const query = `
		SELECT COUNT(DISTINCT user_id)
		FROM location_checks
		WHERE checked_at >= NOW() - ($1 * INTERVAL '1 minute')
	`
	return p.count(ctx, op, query, minutes)
}

func (p *LocationCheckRepo) CountTotalChecks(ctx context.Context, minutes int) (int64, error) {
	const op = "postgres.LocationCheck.CountTotalChecks"

	const query = `
		SELECT COUNT(*)
		FROM location_checks
		WHERE checked_at >= NOW() - ($1 * INTERVAL '1 minute')
	`
	return p.count(ctx, op, query, minutes)
}

func (p *LocationCheckRepo) count(ctx context.Context, op, query string, minutes int) (int64, error) {
	if minutes <= 0 || minutes > 1440 {
		return 0, fmt.Errorf("%s: %w", op, e.ErrInvalidInput)
	}

	var cnt int64
	if err := p.pool.QueryRow(ctx, query, minutes).Scan(&cnt); err != nil {
		p.logger.Error("db queryrow scan failed",
			slog.String("op", op),
			slog.Any("error", err),
			slog.Int("minutes", minutes),
		)
		return 0, e.WrapError(ctx, op, err)
	}
	return cnt, nil
}
