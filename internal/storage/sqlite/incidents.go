package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/igraphixwebpreview/RoadReportHub/internal/domain"
	"github.com/igraphixwebpreview/RoadReportHub/pkg/e"
)

const incidentColumns = `id, user_id, type, latitude, longitude, media_kind, media_uri,
	notes, location_name, reported_at, active, verified_count, dismissed_count`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIncident(row rowScanner) (*domain.Incident, error) {
	var (
		inc        domain.Incident
		id         string
		kind, uri  string
		notes      sql.NullString
		name       sql.NullString
		reportedAt int64
	)
	if err := row.Scan(
		&id,
		&inc.UserID,
		&inc.Type,
		&inc.Latitude,
		&inc.Longitude,
		&kind,
		&uri,
		&notes,
		&name,
		&reportedAt,
		&inc.Active,
		&inc.VerifiedCount,
		&inc.DismissedCount,
	); err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("incident id %q: %w", id, err)
	}
	inc.ID = parsed
	inc.Media = domain.Media{Kind: domain.MediaKind(kind), URI: uri}
	if notes.Valid {
		inc.Notes = &notes.String
	}
	if name.Valid {
		inc.LocationName = &name.String
	}
	inc.ReportedAt = time.Unix(0, reportedAt).UTC()
	return &inc, nil
}

func (s *SQLite) Create(ctx context.Context, inc *domain.Incident) error {
	const op = "sqlite.Incident.Create"

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

	const query = `INSERT INTO incidents (` + incidentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		inc.ID.String(),
		inc.UserID,
		string(inc.Type),
		inc.Latitude,
		inc.Longitude,
		string(inc.Media.Kind),
		inc.Media.URI,
		inc.Notes,
		inc.LocationName,
		inc.ReportedAt.UnixNano(),
		inc.Active,
		inc.VerifiedCount,
		inc.DismissedCount,
	)
	if err != nil {
		s.logger.Error("db exec failed", slog.String("op", op), slog.Any("error", err))
		return e.WrapError(ctx, op, err)
	}
	return nil
}

func (s *SQLite) Get(ctx context.Context, id uuid.UUID) (*domain.Incident, error) {
	const op = "sqlite.Incident.Get"

	const query = `SELECT ` + incidentColumns + ` FROM incidents WHERE id = ?`

	inc, err := scanIncident(s.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, e.ErrNotFound)
		}
		s.logger.Error("db queryrow scan failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}
	return inc, nil
}

func (s *SQLite) ListActive(ctx context.Context) ([]*domain.Incident, error) {
	const op = "sqlite.Incident.ListActive"
	const query = `SELECT ` + incidentColumns + ` FROM incidents WHERE active = 1 ORDER BY reported_at DESC`
	return s.queryIncidents(ctx, op, query)
}

func (s *SQLite) ListByReporter(ctx context.Context, userID string) ([]*domain.Incident, error) {
	const op = "sqlite.Incident.ListByReporter"
	const query = `SELECT ` + incidentColumns + ` FROM incidents WHERE user_id = ? ORDER BY reported_at DESC`
	return s.queryIncidents(ctx, op, query, userID)
}

func (s *SQLite) List(ctx context.Context, page, limit int) ([]*domain.Incident, int64, error) {
	const op = "sqlite.Incident.List"

	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM incidents`).Scan(&total); err != nil {
		s.logger.Error("db count failed", slog.String("op", op), slog.Any("error", err))
		return nil, 0, e.WrapError(ctx, op, err)
	}

	const query = `SELECT ` + incidentColumns + ` FROM incidents ORDER BY reported_at DESC LIMIT ? OFFSET ?`
	incidents, err := s.queryIncidents(ctx, op, query, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	return incidents, total, nil
}

func (s *SQLite) queryIncidents(ctx context.Context, op, query string, args ...any) ([]*domain.Incident, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.logger.Error("db query failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}
	defer rows.Close()

	incidents := make([]*domain.Incident, 0)
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			s.logger.Error("row scan failed", slog.String("op", op), slog.Any("error", err))
			return nil, e.WrapError(ctx, op, err)
		}
		incidents = append(incidents, inc)
	}
	if err := rows.Err(); err != nil {
		s.logger.Error("rows err", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}
	return incidents, nil
}
