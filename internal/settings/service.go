// Package settings manages per-user display and notification preferences.
package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/weatherwise/weatherwise/internal/domain"
	"github.com/weatherwise/weatherwise/internal/store"
)

var ErrInvalidUnit = errors.New("settings: unrecognised unit")

type Service struct {
	store  store.Store
	logger *slog.Logger
}

func NewService(st store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: st, logger: logger}
}

// Get returns the user's preferences, falling back to the defaults when
// none have been saved yet.
func (s *Service) Get(ctx context.Context, userID string) (domain.Settings, error) {
	prefs, err := s.store.Settings().GetSettings(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.DefaultSettings(userID), nil
	}
	if err != nil {
		return domain.Settings{}, err
	}
	return prefs, nil
}

// SetTemperatureUnit updates the temperature unit.
func (s *Service) SetTemperatureUnit(ctx context.Context, userID, unit string) (domain.Settings, error) {
	if !domain.ValidTemperatureUnit(unit) {
		return domain.Settings{}, fmt.Errorf("%w: %q", ErrInvalidUnit, unit)
	}
	return s.update(ctx, userID, func(p *domain.Settings) { p.TemperatureUnit = unit })
}

// SetWindSpeedUnit updates the wind speed unit.
func (s *Service) SetWindSpeedUnit(ctx context.Context, userID, unit string) (domain.Settings, error) {
	if !domain.ValidWindSpeedUnit(unit) {
		return domain.Settings{}, fmt.Errorf("%w: %q", ErrInvalidUnit, unit)
	}
	return s.update(ctx, userID, func(p *domain.Settings) { p.WindSpeedUnit = unit })
}

// SetPressureUnit updates the pressure unit.
func (s *Service) SetPressureUnit(ctx context.Context, userID, unit string) (domain.Settings, error) {
	if !domain.ValidPressureUnit(unit) {
		return domain.Settings{}, fmt.Errorf("%w: %q", ErrInvalidUnit, unit)
	}
	return s.update(ctx, userID, func(p *domain.Settings) { p.PressureUnit = unit })
}

// SetWeatherNotifications toggles the notifications flag.
func (s *Service) SetWeatherNotifications(ctx context.Context, userID string, on bool) (domain.Settings, error) {
	return s.update(ctx, userID, func(p *domain.Settings) { p.WeatherNotifications = on })
}

// SetWeatherWarnings toggles the severe weather warnings flag.
func (s *Service) SetWeatherWarnings(ctx context.Context, userID string, on bool) (domain.Settings, error) {
	return s.update(ctx, userID, func(p *domain.Settings) { p.WeatherWarnings = on })
}

// update is a transactional read-modify-write so concurrent setters cannot
// clobber each other's fields.
func (s *Service) update(ctx context.Context, userID string, mutate func(*domain.Settings)) (domain.Settings, error) {
	var prefs domain.Settings
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		prefs, err = tx.Settings().GetSettings(ctx, userID)
		if errors.Is(err, store.ErrNotFound) {
			prefs = domain.DefaultSettings(userID)
		} else if err != nil {
			return err
		}
		mutate(&prefs)
		return tx.Settings().SaveSettings(ctx, prefs)
	})
	if err != nil {
		return domain.Settings{}, err
	}
	return prefs, nil
}
