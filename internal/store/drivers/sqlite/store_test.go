package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	authdomain "github.com/weatherwise/weatherwise/internal/auth/domain"
	"github.com/weatherwise/weatherwise/internal/domain"
	"github.com/weatherwise/weatherwise/internal/store"
	"github.com/weatherwise/weatherwise/internal/store/drivers/sqlite"
	"github.com/weatherwise/weatherwise/pkg/idx"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func TestMFAProfileRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.MFAProfiles().GetProfile(ctx, "u1")
	require.ErrorIs(t, err, store.ErrNotFound)

	p := authdomain.PhoneMFAProfile{UserID: "u1", Enabled: true, PhoneNumber: "+15551234567"}
	require.NoError(t, s.MFAProfiles().UpsertProfile(ctx, p))

	got, err := s.MFAProfiles().GetProfile(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, p, got)

	// Disabling overwrites the same row.
	p.Enabled = false
	p.PhoneNumber = ""
	require.NoError(t, s.MFAProfiles().UpsertProfile(ctx, p))

	got, err = s.MFAProfiles().GetProfile(ctx, "u1")
	require.NoError(t, err)
	require.False(t, got.Enabled)
	require.Empty(t, got.PhoneNumber)

	require.NoError(t, s.MFAProfiles().DeleteProfile(ctx, "u1"))
	_, err = s.MFAProfiles().GetProfile(ctx, "u1")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestCitiesPerUser(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	mk := func(userID, name, desc string) domain.City {
		return domain.City{
			ID:          idx.New().String(),
			UserID:      userID,
			Name:        name,
			Description: desc,
			Temperature: 21.5,
			Lat:         -37.81,
			Lon:         144.96,
			CreatedAt:   time.Now().UTC().Truncate(time.Second),
		}
	}

	melbourne := mk("u1", "Melbourne", "Home")
	sydney := mk("u1", "Sydney", "Vacation Spot")
	other := mk("u2", "Perth", "Home")

	require.NoError(t, s.Cities().CreateCity(ctx, melbourne))
	require.NoError(t, s.Cities().CreateCity(ctx, sydney))
	require.NoError(t, s.Cities().CreateCity(ctx, other))

	// Same user+name+description is rejected.
	dup := mk("u1", "Melbourne", "Home")
	require.ErrorIs(t, s.Cities().CreateCity(ctx, dup), store.ErrAlreadyExists)

	cities, err := s.Cities().ListCities(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, cities, 2)
	require.Equal(t, "Melbourne", cities[0].Name)
	require.Equal(t, "Sydney", cities[1].Name)

	require.NoError(t, s.Cities().UpdateTemperature(ctx, melbourne.ID, 30.0))
	got, err := s.Cities().GetCity(ctx, melbourne.ID)
	require.NoError(t, err)
	require.InDelta(t, 30.0, got.Temperature, 0.001)

	require.NoError(t, s.Cities().DeleteCity(ctx, sydney.ID))
	require.ErrorIs(t, s.Cities().DeleteCity(ctx, sydney.ID), store.ErrNotFound)

	cities, err = s.Cities().ListCities(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, cities, 1)
}

func TestMyLocationSingleRow(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Cities().GetMyLocation(ctx, "u1")
	require.ErrorIs(t, err, store.ErrNotFound)

	first := domain.City{
		ID:        idx.New().String(),
		UserID:    "u1",
		Name:      "Melbourne",
		Lat:       -37.81,
		Lon:       144.96,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.Cities().UpsertMyLocation(ctx, first))

	got, err := s.Cities().GetMyLocation(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "Melbourne", got.Name)
	require.Equal(t, domain.MyLocationDescription, got.Description)

	// Moving replaces the row instead of accumulating.
	second := domain.City{
		ID:        idx.New().String(),
		UserID:    "u1",
		Name:      "Geelong",
		Lat:       -38.15,
		Lon:       144.36,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.Cities().UpsertMyLocation(ctx, second))

	got, err = s.Cities().GetMyLocation(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "Geelong", got.Name)

	cities, err := s.Cities().ListCities(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, cities, 1)
}

func TestSettingsUpsert(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Settings().GetSettings(ctx, "u1")
	require.ErrorIs(t, err, store.ErrNotFound)

	prefs := domain.DefaultSettings("u1")
	require.NoError(t, s.Settings().SaveSettings(ctx, prefs))

	got, err := s.Settings().GetSettings(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, prefs, got)

	prefs.TemperatureUnit = domain.UnitFahrenheit
	prefs.WeatherWarnings = true
	require.NoError(t, s.Settings().SaveSettings(ctx, prefs))

	got, err = s.Settings().GetSettings(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, domain.UnitFahrenheit, got.TemperatureUnit)
	require.True(t, got.WeatherWarnings)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	errBoom := context.Canceled
	err := s.WithTx(ctx, func(tx store.Tx) error {
		p := authdomain.PhoneMFAProfile{UserID: "u1", Enabled: true, PhoneNumber: "+15551234567"}
		if err := tx.MFAProfiles().UpsertProfile(ctx, p); err != nil {
			return err
		}
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	_, err = s.MFAProfiles().GetProfile(ctx, "u1")
	require.ErrorIs(t, err, store.ErrNotFound)

	err = s.WithTx(ctx, func(tx store.Tx) error {
		p := authdomain.PhoneMFAProfile{UserID: "u1", Enabled: true, PhoneNumber: "+15551234567"}
		return tx.MFAProfiles().UpsertProfile(ctx, p)
	})
	require.NoError(t, err)

	got, err := s.MFAProfiles().GetProfile(ctx, "u1")
	require.NoError(t, err)
	require.True(t, got.Enabled)
}
