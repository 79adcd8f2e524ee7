package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/igraphixwebpreview/RoadReportHub/internal/domain"
	"github.com/igraphixwebpreview/RoadReportHub/pkg/e"
)

const incidentColumns = `id, user_id, type, latitude, longitude, media_kind, media_uri,
	notes, location_name, reported_at, active, verified_count, dismissed_count`

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type IncidentRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewIncidentRepo(pool *pgxpool.Pool, logger *slog.Logger) *IncidentRepo {
	return &IncidentRepo{pool: pool, logger: logger}
}

func scanIncident(row pgx.Row) (*domain.Incident, error) {
	var (
		inc  domain.Incident
		kind string
		uri  string
	)
	if err := row.Scan(
		&inc.ID,
		&inc.UserID,
		&inc.Type,
		&inc.Latitude,
		&inc.Longitude,
		&kind,
		&uri,
		&inc.Notes,
		&inc.LocationName,
		&inc.ReportedAt,
		&inc.Active,
		&inc.VerifiedCount,
		&inc.DismissedCount,
	); err != nil {
		return nil, err
	}
	inc.Media = domain.Media{Kind: domain.MediaKind(kind), URI: uri}
	inc.ReportedAt = inc.ReportedAt.UTC()
	return &inc, nil
}

func (p *IncidentRepo) Create(ctx context.Context, inc *domain.Incident) error {
	const op = "postgres.Incident.Create"

	if inc == nil {
		return fmt.Errorf("%s: %w", op, e.ErrInvalidInput)
	}
	if inc.ID == uuid.Nil {
		inc.ID = uuid.New()
	}
	if inc.ReportedAt.IsZero() {
		inc.ReportedAt = time.Now().UTC()
	}
	if inc.Media.Kind == "" {
		inc.Media = domain.NewMedia(inc.Media.URI)
	}

	const query = `
		INSERT INTO incidents (` + incidentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := p.pool.Exec(ctx, query,
		inc.ID,
		inc.UserID,
		string(inc.Type),
		inc.Latitude,
		inc.Longitude,
		string(inc.Media.Kind),
		inc.Media.URI,
		inc.Notes,
		inc.LocationName,
		inc.ReportedAt,
		inc.Active,
		inc.VerifiedCount,
		inc.DismissedCount,
	)
	if err != nil {
		p.logger.Error("db exec failed",
			slog.String("op", op),
			slog.Any("error", err),
		)
		return e.WrapError(ctx, op, err)
	}

	return nil
}

func (p *IncidentRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Incident, error) {
	const op = "postgres.Incident.Get"

	inc, err := getIncident(ctx, p.pool, id, false)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, e.ErrNotFound)
		}
		p.logger.Error("db queryrow scan failed", slog.String("op", op), slog.Any("error", err), slog.String("id", id.String()))
		return nil, e.WrapError(ctx, op, err)
	}
	return inc, nil
}

func getIncident(ctx context.Context, q querier, id uuid.UUID, forUpdate bool) (*domain.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	return scanIncident(q.QueryRow(ctx, query, id))
}

func (p *IncidentRepo) ListActive(ctx context.Context) ([]*domain.Incident, error) {
	const op = "postgres.Incident.ListActive"

	const query = `
		SELECT ` + incidentColumns + `
		FROM incidents
		WHERE active
		ORDER BY reported_at DESC
	`
	return p.query(ctx, op, query)
}

func (p *IncidentRepo) ListByReporter(ctx context.Context, userID string) ([]*domain.Incident, error) {
	const op = "postgres.Incident.ListByReporter"

	const query = `
		SELECT ` + incidentColumns + `
		FROM incidents
		WHERE user_id = $1
		ORDER BY reported_at DESC
	`
	return p.query(ctx, op, query, userID)
}

func (p *IncidentRepo) List(ctx context.Context, page, limit int) ([]*domain.Incident, int64, error) {
	const op = "postgres.Incident.List"

	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	const countQuery = `SELECT COUNT(*) FROM incidents`

	var total int64
	if err := p.pool.QueryRow(ctx, countQuery).Scan(&total); err != nil {
		p.logger.Error("db count failed", slog.String("op", op), slog.Any("error", err))
		return nil, 0, e.WrapError(ctx, op, err)
	}

	const listQuery = `
		SELECT ` + incidentColumns + `
		FROM incidents
		ORDER BY reported_at DESC
		LIMIT $1 OFFSET $2
	`
	incidents, err := p.query(ctx, op, listQuery, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return incidents, total, nil
}

func (p *IncidentRepo) query(ctx context.Context, op, query string, args ...any) ([]*domain.Incident, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		p.logger.Error("db query failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}
	defer rows.Close()

	incidents := make([]*domain.Incident, 0)
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			p.logger.Error("row scan failed", slog.String("op", op), slog.Any("error", err))
			return nil, e.WrapError(ctx, op, err)
		}
		incidents = append(incidents, inc)
	}
	if err := rows.Err(); err != nil {
		p.logger.Error("rows err", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}

	return incidents, nil
}
