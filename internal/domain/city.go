// Package domain holds the weather-side model types shared between the
// services and the store. Authentication types live in internal/auth/domain.
package domain

import "time"

// MyLocationDescription tags the single city row per user that tracks the
// device's current location. It is upserted rather than appended.
const MyLocationDescription = "My Location"

// City is a location a user has saved to their dashboard.
type City struct {
	ID          string
	UserID      string
	Name        string
	Description string  // e.g. "My Location", "Vacation Spot"
	Temperature float64 // last observed, degrees Celsius
	Lat         float64
	Lon         float64
	CreatedAt   time.Time
}

// IsMyLocation reports whether this row is the user's tracked location.
func (c City) IsMyLocation() bool { return c.Description == MyLocationDescription }
