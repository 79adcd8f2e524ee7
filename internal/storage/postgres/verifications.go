package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/igraphixwebpreview/RoadReportHub/internal/domain"
	"github.com/igraphixwebpreview/RoadReportHub/internal/lifecycle"
	"github.com/igraphixwebpreview/RoadReportHub/pkg/e"
)

type VerificationLedger struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewVerificationLedger(pool *pgxpool.Pool, logger *slog.Logger) *VerificationLedger {
	return &VerificationLedger{pool: pool, logger: logger}
}

func (l *VerificationLedger) Exists(ctx context.Context, userID string, incidentID uuid.UUID) (bool, error) {
	const op = "postgres.Verification.Exists"

	exists, err := voteExists(ctx, l.pool, userID, incidentID)
	if err != nil {
		l.logger.Error("db queryrow scan failed", slog.String("op", op), slog.Any("error", err))
		return false, e.WrapError(ctx, op, err)
	}
	return exists, nil
}

func voteExists(ctx context.Context, q querier, userID string, incidentID uuid.UUID) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM verifications WHERE user_id = $1 AND incident_id = $2)`

	var exists bool
	err := q.QueryRow(ctx, query, userID, incidentID).Scan(&exists)
	return exists, err
}

// Record locks the incident row for the rest of the transaction, so concurrent
// votes on one incident queue up behind each other and every increment lands.
func (l *VerificationLedger) Record(ctx context.Context, v *domain.Verification, apply lifecycle.Transition) (*domain.Incident, error) {
	const op = "postgres.Verification.Record"

	if v == nil || apply == nil {
		return nil, fmt.Errorf("%s: %w", op, e.ErrInvalidInput)
	}

	tx, err := l.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		l.logger.Error("begin tx failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	inc, err := getIncident(ctx, tx, v.IncidentID, true)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, e.ErrNotFound)
		}
		l.logger.Error("lock incident failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}

	dup, err := voteExists(ctx, tx, v.UserID, v.IncidentID)
	if err != nil {
		l.logger.Error("duplicate check failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}
	if dup {
		return nil, fmt.Errorf("%s: %w", op, e.ErrDuplicateVote)
	}

	const insert = `
		INSERT INTO verifications (id, incident_id, user_id, action, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := tx.Exec(ctx, insert, v.ID, v.IncidentID, v.UserID, string(v.Action), v.Timestamp); err != nil {
		wrapped := e.WrapError(ctx, op, err)
		if errors.Is(wrapped, e.ErrUniqueViolation) {
			return nil, fmt.Errorf("%s: %w", op, e.ErrDuplicateVote)
		}
		l.logger.Error("insert verification failed", slog.String("op", op), slog.Any("error", err))
		return nil, wrapped
	}

	apply(lifecycle.StateOf(inc)).ApplyTo(inc)

	const update = `
		UPDATE incidents
		SET active = $2, verified_count = $3, dismissed_count = $4
		WHERE id = $1
	`
	if _, err := tx.Exec(ctx, update, inc.ID, inc.Active, inc.VerifiedCount, inc.DismissedCount); err != nil {
		l.logger.Error("update incident failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		l.logger.Error("commit failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}

	return inc, nil
}
