package domain

// Display unit options. The strings are stored as-is and shown as-is.
const (
	UnitCelsius    = "Celsius"
	UnitFahrenheit = "Fahrenheit"

	WindKMH = "KM/h"
	WindMPH = "MPH"
	WindMS  = "M/s"

	PressureMbar = "mbar"
	PressureHPa  = "hPa"
	PressureInHg = "inHg"
)

// Settings is a user's display and notification preferences. One row per
// user; absent rows read back as DefaultSettings.
type Settings struct {
	UserID               string
	TemperatureUnit      string
	WindSpeedUnit        string
	PressureUnit         string
	WeatherNotifications bool
	WeatherWarnings      bool
}

// DefaultSettings returns the preferences a fresh account starts with.
func DefaultSettings(userID string) Settings {
	return Settings{
		UserID:               userID,
		TemperatureUnit:      UnitCelsius,
		WindSpeedUnit:        WindKMH,
		PressureUnit:         PressureMbar,
		WeatherNotifications: true,
		WeatherWarnings:      false,
	}
}

// ValidTemperatureUnit reports whether u is a recognised temperature unit.
func ValidTemperatureUnit(u string) bool {
	return u == UnitCelsius || u == UnitFahrenheit
}

// ValidWindSpeedUnit reports whether u is a recognised wind speed unit.
func ValidWindSpeedUnit(u string) bool {
	return u == WindKMH || u == WindMPH || u == WindMS
}

// ValidPressureUnit reports whether u is a recognised pressure unit.
func ValidPressureUnit(u string) bool {
	return u == PressureMbar || u == PressureHPa || u == PressureInHg
}
