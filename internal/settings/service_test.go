package settings_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/weatherwise/weatherwise/internal/domain"
	"github.com/weatherwise/weatherwise/internal/settings"
	"github.com/weatherwise/weatherwise/internal/store/drivers/sqlite"
)

func newService(t *testing.T) *settings.Service {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	return settings.NewService(st, nil)
}

func TestGetFallsBackToDefaults(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newService(t)

	prefs, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, domain.DefaultSettings("u1"), prefs)
	require.Equal(t, domain.UnitCelsius, prefs.TemperatureUnit)
	require.True(t, prefs.WeatherNotifications)
	require.False(t, prefs.WeatherWarnings)
}

func TestSettersPersistIndividually(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newService(t)

	prefs, err := svc.SetTemperatureUnit(ctx, "u1", domain.UnitFahrenheit)
	require.NoError(t, err)
	require.Equal(t, domain.UnitFahrenheit, prefs.TemperatureUnit)

	prefs, err = svc.SetWindSpeedUnit(ctx, "u1", domain.WindMPH)
	require.NoError(t, err)
	require.Equal(t, domain.WindMPH, prefs.WindSpeedUnit)

	prefs, err = svc.SetWeatherWarnings(ctx, "u1", true)
	require.NoError(t, err)
	require.True(t, prefs.WeatherWarnings)

	// Earlier choices survive later setter calls.
	got, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, domain.UnitFahrenheit, got.TemperatureUnit)
	require.Equal(t, domain.WindMPH, got.WindSpeedUnit)
	require.True(t, got.WeatherWarnings)
	require.Equal(t, domain.PressureMbar, got.PressureUnit)
}

func TestSettersRejectUnknownUnits(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newService(t)

	_, err := svc.SetTemperatureUnit(ctx, "u1", "Kelvin")
	require.ErrorIs(t, err, settings.ErrInvalidUnit)

	_, err = svc.SetWindSpeedUnit(ctx, "u1", "knots")
	require.ErrorIs(t, err, settings.ErrInvalidUnit)

	_, err = svc.SetPressureUnit(ctx, "u1", "psi")
	require.ErrorIs(t, err, settings.ErrInvalidUnit)

	// Nothing was written.
	got, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, domain.DefaultSettings("u1"), got)
}
