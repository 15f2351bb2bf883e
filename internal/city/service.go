// Package city manages a user's saved cities: searching by name, saving
// and removing dashboard entries, and keeping the single tracked-location
// row up to date.
package city

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/weatherwise/weatherwise/internal/domain"
	"github.com/weatherwise/weatherwise/internal/store"
	"github.com/weatherwise/weatherwise/internal/weather"
	"github.com/weatherwise/weatherwise/pkg/idx"
)

var (
	ErrCityNotFound = errors.New("city: not found")
	ErrNotOwner     = errors.New("city: not owned by this user")
	ErrNoMatch      = errors.New("city: no matching place")
)

// WeatherSource is the slice of the weather client this service needs.
type WeatherSource interface {
	Current(ctx context.Context, lat, lon float64) (weather.Observation, error)
	Geocode(ctx context.Context, city string, limit int) ([]weather.Place, error)
	ReverseGeocode(ctx context.Context, lat, lon float64) (weather.Place, error)
}

type Service struct {
	store   store.Store
	weather WeatherSource
	logger  *slog.Logger
}

func NewService(st store.Store, src WeatherSource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: st, weather: src, logger: logger}
}

// Search resolves a typed city name to candidate places.
func (s *Service) Search(ctx context.Context, name string, limit int) ([]weather.Place, error) {
	if name == "" {
		return nil, ErrNoMatch
	}
	places, err := s.weather.Geocode(ctx, name, limit)
	if err != nil {
		return nil, fmt.Errorf("geocoding %q: %w", name, err)
	}
	if len(places) == 0 {
		return nil, ErrNoMatch
	}
	return places, nil
}

// Save adds a place to the user's dashboard with the current temperature
// attached. Saving the same place under the same description again is
// reported as store.ErrAlreadyExists.
func (s *Service) Save(ctx context.Context, userID string, place weather.Place, description string) (domain.City, error) {
	obs, err := s.weather.Current(ctx, place.Lat, place.Lon)
	if err != nil {
		return domain.City{}, fmt.Errorf("fetching conditions for %q: %w", place.Name, err)
	}

	c := domain.City{
		ID:          idx.New().String(),
		UserID:      userID,
		Name:        place.Name,
		Description: description,
		Temperature: obs.Temperature,
		Lat:         place.Lat,
		Lon:         place.Lon,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.Cities().CreateCity(ctx, c); err != nil {
		return domain.City{}, err
	}
	s.logger.Info("city saved", "user_id", userID, "city", c.Name)
	return c, nil
}

// List returns the user's saved cities, oldest first.
func (s *Service) List(ctx context.Context, userID string) ([]domain.City, error) {
	return s.store.Cities().ListCities(ctx, userID)
}

// Remove deletes a saved city after checking it belongs to the user.
func (s *Service) Remove(ctx context.Context, userID, cityID string) error {
	c, err := s.store.Cities().GetCity(ctx, cityID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrCityNotFound
	}
	if err != nil {
		return err
	}
	if c.UserID != userID {
		return ErrNotOwner
	}
	return s.store.Cities().DeleteCity(ctx, cityID)
}

// TrackLocation reverse-geocodes the device coordinates and replaces the
// user's "My Location" row. The delete-and-insert pair runs in one
// transaction so a crash cannot leave two tracked rows.
func (s *Service) TrackLocation(ctx context.Context, userID string, lat, lon float64) (domain.City, error) {
	place, err := s.weather.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		return domain.City{}, fmt.Errorf("reverse geocoding: %w", err)
	}

	obs, err := s.weather.Current(ctx, lat, lon)
	if err != nil {
		return domain.City{}, fmt.Errorf("fetching conditions: %w", err)
	}

	c := domain.City{
		ID:          idx.New().String(),
		UserID:      userID,
		Name:        place.Name,
		Description: domain.MyLocationDescription,
		Temperature: obs.Temperature,
		Lat:         lat,
		Lon:         lon,
		CreatedAt:   time.Now().UTC(),
	}

	err = s.store.WithTx(ctx, func(tx store.Tx) error {
		return tx.Cities().UpsertMyLocation(ctx, c)
	})
	if err != nil {
		return domain.City{}, err
	}
	s.logger.Info("tracked location updated", "user_id", userID, "city", c.Name)
	return c, nil
}

// RefreshTemperatures re-fetches current conditions for every saved city
// and stores the new temperatures. Individual fetch failures are logged
// and skipped so one dead coordinate cannot stall the rest.
func (s *Service) RefreshTemperatures(ctx context.Context, userID string) ([]domain.City, error) {
	cities, err := s.store.Cities().ListCities(ctx, userID)
	if err != nil {
		return nil, err
	}

	for i, c := range cities {
		obs, err := s.weather.Current(ctx, c.Lat, c.Lon)
		if err != nil {
			s.logger.Warn("refreshing city temperature failed", "city", c.Name, "error", err)
			continue
		}
		if err := s.store.Cities().UpdateTemperature(ctx, c.ID, obs.Temperature); err != nil {
			return nil, err
		}
		cities[i].Temperature = obs.Temperature
	}
	return cities, nil
}
