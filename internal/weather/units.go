package weather

import (
	"fmt"

	"github.com/weatherwise/weatherwise/internal/domain"
)

// The API always reports metric: Celsius, m/s wind, hPa pressure. These
// helpers convert to whatever the user picked in settings.

func CelsiusTo(c float64, unit string) float64 {
	if unit == domain.UnitFahrenheit {
		return c*9/5 + 32
	}
	return c
}

func WindSpeedTo(metersPerSecond float64, unit string) float64 {
	switch unit {
	case domain.WindKMH:
		return metersPerSecond * 3.6
	case domain.WindMPH:
		return metersPerSecond * 2.236936
	default:
		return metersPerSecond
	}
}

func PressureTo(hPa float64, unit string) float64 {
	if unit == domain.PressureInHg {
		return hPa * 0.029530
	}
	// mbar and hPa are the same quantity.
	return hPa
}

func FormatTemperature(c float64, settings domain.Settings) string {
	suffix := "°C"
	if settings.TemperatureUnit == domain.UnitFahrenheit {
		suffix = "°F"
	}
	return fmt.Sprintf("%.0f%s", CelsiusTo(c, settings.TemperatureUnit), suffix)
}

func FormatWindSpeed(metersPerSecond float64, settings domain.Settings) string {
	return fmt.Sprintf("%.1f %s", WindSpeedTo(metersPerSecond, settings.WindSpeedUnit), settings.WindSpeedUnit)
}

func FormatPressure(hPa float64, settings domain.Settings) string {
	return fmt.Sprintf("%.1f %s", PressureTo(hPa, settings.PressureUnit), settings.PressureUnit)
}
