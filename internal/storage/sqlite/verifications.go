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
	"github.com/igraphixwebpreview/RoadReportHub/internal/lifecycle"
	"github.com/igraphixwebpreview/RoadReportHub/pkg/e"
)

const voteExistsQuery = `SELECT EXISTS (SELECT 1 FROM verifications WHERE user_id = ? AND incident_id = ?)`

func (s *SQLite) Exists(ctx context.Context, userID string, incidentID uuid.UUID) (bool, error) {
	const op = "sqlite.Verification.Exists"

	var exists bool
	if err := s.db.QueryRowContext(ctx, voteExistsQuery, userID, incidentID.String()).Scan(&exists); err != nil {
		s.logger.Error("db queryrow scan failed", slog.String("op", op), slog.Any("error", err))
		return false, e.WrapError(ctx, op, err)
	}
	return exists, nil
}

// Record runs on the single pooled connection, so the read of the incident,
// the vote insert and the counter update cannot interleave with another vote.
func (s *SQLite) Record(ctx context.Context, v *domain.Verification, apply lifecycle.Transition) (*domain.Incident, error) {
	const op = "sqlite.Verification.Record"

	if v == nil || apply == nil {
		return nil, fmt.Errorf("%s: %w", op, e.ErrInvalidInput)
	}
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.Timestamp.IsZero() {
		v.Timestamp = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("begin tx failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}
	defer func() { _ = tx.Rollback() }()

	const selectIncident = `SELECT ` + incidentColumns + ` FROM incidents WHERE id = ?`
	inc, err := scanIncident(tx.QueryRowContext(ctx, selectIncident, v.IncidentID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, e.ErrNotFound)
		}
		s.logger.Error("load incident failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}

	var dup bool
	if err := tx.QueryRowContext(ctx, voteExistsQuery, v.UserID, v.IncidentID.String()).Scan(&dup); err != nil {
		s.logger.Error("duplicate check failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}
	if dup {
		return nil, fmt.Errorf("%s: %w", op, e.ErrDuplicateVote)
	}

	const insert = `INSERT INTO verifications (id, incident_id, user_id, action, created_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, insert,
		v.ID.String(),
		v.IncidentID.String(),
		v.UserID,
		string(v.Action),
		v.Timestamp.UnixNano(),
	); err != nil {
		wrapped := e.WrapError(ctx, op, err)
		if errors.Is(wrapped, e.ErrUniqueViolation) {
			return nil, fmt.Errorf("%s: %w", op, e.ErrDuplicateVote)
		}
		s.logger.Error("insert verification failed", slog.String("op", op), slog.Any("error", err))
		return nil, wrapped
	}

	apply(lifecycle.StateOf(inc)).ApplyTo(inc)

	const update = `UPDATE incidents SET active = ?, verified_count = ?, dismissed_count = ? WHERE id = ?`
	if _, err := tx.ExecContext(ctx, update, inc.Active, inc.VerifiedCount, inc.DismissedCount, inc.ID.String()); err != nil {
		s.logger.Error("update incident failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("commit failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}
	return inc, nil
}
