package sqlite

import (
	"context"
	"time"

	"github.com/weatherwise/weatherwise/internal/domain"
)

type settingsRepo struct {
	db dbtx
}

func (r *settingsRepo) GetSettings(ctx context.Context, userID string) (domain.Settings, error) {
	var (
		s             domain.Settings
		notifications int
		warnings      int
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, temperature_unit, wind_speed_unit, pressure_unit,
		       weather_notifications, weather_warnings
		FROM settings
		WHERE user_id = ?`, userID,
	).Scan(&s.UserID, &s.TemperatureUnit, &s.WindSpeedUnit, &s.PressureUnit, &notifications, &warnings)
	if err != nil {
		return domain.Settings{}, mapNotFound(err)
	}
	s.WeatherNotifications = notifications != 0
	s.WeatherWarnings = warnings != 0
	return s, nil
}

func (r *settingsRepo) SaveSettings(ctx context.Context, s domain.Settings) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (user_id, temperature_unit, wind_speed_unit, pressure_unit,
		                      weather_notifications, weather_warnings, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			temperature_unit = excluded.temperature_unit,
			wind_speed_unit = excluded.wind_speed_unit,
			pressure_unit = excluded.pressure_unit,
			weather_notifications = excluded.weather_notifications,
			weather_warnings = excluded.weather_warnings,
			updated_at = excluded.updated_at`,
		s.UserID, s.TemperatureUnit, s.WindSpeedUnit, s.PressureUnit,
		boolToInt(s.WeatherNotifications), boolToInt(s.WeatherWarnings), time.Now().UTC())
	return err
}
