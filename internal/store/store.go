// Package store defines the root data access interface. Concrete drivers
// (sqlite today) implement it. Sub-repositories keep concerns tidy and stop
// callers from accidentally nesting transactions.
package store

import (
	"context"
	"errors"

	authdomain "github.com/weatherwise/weatherwise/internal/auth/domain"
	"github.com/weatherwise/weatherwise/internal/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

type Store interface {
	MFAProfiles() MFAProfiles
	Cities() Cities
	Settings() Settings

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction: rolled back when fn errors,
	// committed when it returns nil. Prefer this over Tx directly.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type MFAProfiles interface {
	// GetProfile returns the cached second-factor profile for a user.
	GetProfile(ctx context.Context, userID string) (authdomain.PhoneMFAProfile, error)

	// UpsertProfile writes the profile, replacing any previous row. The
	// profile mirrors provider-side truth so the UI can seed itself before
	// the first network round trip.
	UpsertProfile(ctx context.Context, p authdomain.PhoneMFAProfile) error

	// DeleteProfile removes the cached profile for a user.
	DeleteProfile(ctx context.Context, userID string) error
}

type Cities interface {
	// CreateCity inserts a saved city (id is provided by app via ULID).
	// Duplicate (user, name, description) rows fail with ErrAlreadyExists.
	CreateCity(ctx context.Context, c domain.City) error

	// ListCities returns a user's saved cities, oldest first.
	ListCities(ctx context.Context, userID string) ([]domain.City, error)

	// GetCity returns a saved city by id.
	GetCity(ctx context.Context, id string) (domain.City, error)

	// DeleteCity removes a saved city by id.
	DeleteCity(ctx context.Context, id string) error

	// GetMyLocation returns the user's tracked-location row, if present.
	GetMyLocation(ctx context.Context, userID string) (domain.City, error)

	// UpsertMyLocation replaces the user's tracked-location row.
	UpsertMyLocation(ctx context.Context, c domain.City) error

	// UpdateTemperature refreshes the last observed temperature for a city.
	UpdateTemperature(ctx context.Context, id string, tempC float64) error
}

type Settings interface {
	// GetSettings returns a user's preferences, or ErrNotFound when the
	// user has never saved any.
	GetSettings(ctx context.Context, userID string) (domain.Settings, error)

	// SaveSettings writes the preferences, replacing any previous row.
	SaveSettings(ctx context.Context, s domain.Settings) error
}
