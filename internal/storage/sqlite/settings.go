package sqlite

import (
	"context"
	"log/slog"

	"github.com/igraphixwebpreview/RoadReportHub/internal/domain"
	"github.com/igraphixwebpreview/RoadReportHub/pkg/e"
)

const settingsColumns = `user_id, siren_enabled, vibration_enabled, popup_alerts_enabled, alert_distance_m`

func (s *SQLite) GetOrCreate(ctx context.Context, defaults domain.Settings) (domain.Settings, error) {
	const op = "sqlite.Settings.GetOrCreate"

	const query = `
		INSERT INTO user_settings (` + settingsColumns + `)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET user_id = excluded.user_id
		RETURNING ` + settingsColumns

	st, err := scanSettings(s.db.QueryRowContext(ctx, query,
		defaults.UserID,
		defaults.SirenEnabled,
		defaults.VibrationEnabled,
		defaults.PopupAlertsEnabled,
		defaults.AlertDistanceMeters,
	))
	if err != nil {
		s.logger.Error("db queryrow scan failed", slog.String("op", op), slog.Any("error", err))
		return domain.Settings{}, e.WrapError(ctx, op, err)
	}
	return st, nil
}

func (s *SQLite) Update(ctx context.Context, patch domain.SettingsPatch, defaults domain.Settings) (domain.Settings, error) {
	const op = "sqlite.Settings.Update"

	initial := defaults.Merge(patch)

	const query = `
		INSERT INTO user_settings (` + settingsColumns + `)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			siren_enabled        = COALESCE(?, siren_enabled),
			vibration_enabled    = COALESCE(?, vibration_enabled),
			popup_alerts_enabled = COALESCE(?, popup_alerts_enabled),
			alert_distance_m     = COALESCE(?, alert_distance_m)
		RETURNING ` + settingsColumns

	st, err := scanSettings(s.db.QueryRowContext(ctx, query,
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
		s.logger.Error("db queryrow scan failed", slog.String("op", op), slog.Any("error", err))
		return domain.Settings{}, e.WrapError(ctx, op, err)
	}
	return st, nil
}

func scanSettings(row rowScanner) (domain.Settings, error) {
	var st domain.Settings
	err := row.Scan(&st.UserID, &st.SirenEnabled, &st.VibrationEnabled, &st.PopupAlertsEnabled, &st.AlertDistanceMeters)
	return st, err
}
