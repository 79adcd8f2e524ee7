package postgres

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/igraphixwebpreview/RoadReportHub/internal/domain"
	"github.com/igraphixwebpreview/RoadReportHub/pkg/e"
)

type SettingsRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewSettingsRepo(pool *pgxpool.Pool, logger *slog.Logger) *SettingsRepo {
	return &SettingsRepo{pool: pool, logger: logger}
}

// GetOrCreate inserts defaults when the user has no row yet and returns the
// stored row either way. The no-op DO UPDATE makes RETURNING yield the
// existing row on conflict.
func (p *SettingsRepo) GetOrCreate(ctx context.Context, defaults domain.Settings) (domain.Settings, error) {
	const op = "postgres.Settings.GetOrCreate"

	const query = `
		INSERT INTO user_settings (user_id, siren_enabled, vibration_enabled, popup_alerts_enabled, alert_distance_m, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING user_id, siren_enabled, vibration_enabled, popup_alerts_enabled, alert_distance_m
	`

	s, err := scanSettings(p.pool.QueryRow(ctx, query,
		defaults.UserID,
		defaults.SirenEnabled,
		defaults.VibrationEnabled,
		defaults.PopupAlertsEnabled,
		defaults.AlertDistanceMeters,
	))
	if err != nil {
		p.logger.Error("db queryrow scan failed", slog.String("op", op), slog.Any("error", err))
		return domain.Settings{}, e.WrapError(ctx, op, err)
	}
	return s, nil
}

// Update merges patch into the stored row in one statement; a user without a
// row gets defaults merged with patch.
func (p *SettingsRepo) Update(ctx context.Context, patch domain.SettingsPatch, defaults domain.Settings) (domain.Settings, error) {
	const op = "postgres.Settings.Update"

	initial := defaults.Merge(patch)

	const query = `
		INSERT INTO user_settings (user_id, siren_enabled, vibration_enabled, popup_alerts_enabled, alert_distance_m, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (user_id) DO UPDATE SET
			siren_enabled        = COALESCE($6::boolean, user_settings.siren_enabled),
			vibration_enabled    = COALESCE($7::boolean, user_settings.vibration_enabled),
			popup_alerts_enabled = COALESCE($8::boolean, user_settings.popup_alerts_enabled),
			alert_distance_m     = COALESCE($9::integer, user_settings.alert_distance_m),
			updated_at           = now()
		RETURNING user_id, siren_enabled, vibration_enabled, popup_alerts_enabled, alert_distance_m
	`

	s, err := scanSettings(p.pool.QueryRow(ctx, query,
		initial.UserID,
		initial.SirenEnabled,
		initial.VibrationEnabled,
		initial.PopupAlertsEnabled,
		initial.AlertDistanceMeters,
		patch.SirenEnabled,
		patch.VibrationEnabled,
		patch.PopupAlertsEnabled,
		patch.AlertDistanceMeters,
	))
	if err != nil {
		p.logger.Error("db queryrow scan failed", slog.String("op", op), slog.Any("error", err))
		return domain.Settings{}, e.WrapError(ctx, op, err)
	}
	return s, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSettings(row rowScanner) (domain.Settings, error) {
	var s domain.Settings
	err := row.Scan(&s.UserID, &s.SirenEnabled, &s.VibrationEnabled, &s.PopupAlertsEnabled, &s.AlertDistanceMeters)
	return s, err
}
