package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/weatherwise/weatherwise/internal/domain"
	"github.com/weatherwise/weatherwise/internal/weather"
)

var (
	forecastLat float64
	forecastLon float64
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "current conditions and forecasts",
}

var forecastCurrentCmd = &cobra.Command{
	Use:   "current [city]",
	Short: "current conditions for a city or coordinates",
	RunE:  forecastCurrentRun,
}

var forecastHourlyCmd = &cobra.Command{
	Use:   "hourly [city]",
	Short: "next 24 hours in 3-hour slots",
	RunE:  forecastHourlyRun,
}

var forecastDailyCmd = &cobra.Command{
	Use:   "daily [city]",
	Short: "5-day summary",
	RunE:  forecastDailyRun,
}

func init() {
	RootCmd.AddCommand(forecastCmd)
	forecastCmd.AddCommand(forecastCurrentCmd)
	forecastCmd.AddCommand(forecastHourlyCmd)
	forecastCmd.AddCommand(forecastDailyCmd)

	forecastCmd.PersistentFlags().Float64Var(&forecastLat, "lat", 0, "Latitude (alternative to a city name)")
	forecastCmd.PersistentFlags().Float64Var(&forecastLon, "lon", 0, "Longitude (alternative to a city name)")
}

// resolveCoordinates turns the optional city argument or the --lat/--lon
// flags into coordinates.
func resolveCoordinates(cmd *cobra.Command, args []string) (lat, lon float64, err error) {
	if len(args) > 1 {
		return 0, 0, ErrTooManyArguments
	}
	if len(args) == 1 {
		places, err := application.Weather.Geocode(cmd.Context(), args[0], 1)
		if err != nil {
			return 0, 0, err
		}
		if len(places) == 0 {
			return 0, 0, fmt.Errorf("no place found for %q", args[0])
		}
		return places[0].Lat, places[0].Lon, nil
	}
	if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lon") {
		return forecastLat, forecastLon, nil
	}
	return 0, 0, ErrTooFewArguments
}

// displaySettings returns the signed-in user's preferences, or the defaults
// when browsing signed out.
func displaySettings(ctx context.Context) domain.Settings {
	user, ok := application.Session.CurrentUser()
	if !ok {
		return domain.DefaultSettings("")
	}
	prefs, err := application.Settings.Get(ctx, user.ID)
	if err != nil {
		return domain.DefaultSettings(user.ID)
	}
	return prefs
}

func forecastCurrentRun(cmd *cobra.Command, args []string) error {
	lat, lon, err := resolveCoordinates(cmd, args)
	if err != nil {
		return err
	}

	obs, err := application.Weather.Current(cmd.Context(), lat, lon)
	if err != nil {
		return err
	}

	prefs := displaySettings(cmd.Context())
	fmt.Printf("%s: %s, %s (feels like %s)\n",
		obs.City, obs.Description,
		weather.FormatTemperature(obs.Temperature, prefs),
		weather.FormatTemperature(obs.FeelsLike, prefs))
	fmt.Printf("humidity %d%%  wind %s  pressure %s\n",
		obs.Humidity,
		weather.FormatWindSpeed(obs.WindSpeed, prefs),
		weather.FormatPressure(obs.Pressure, prefs))
	return nil
}

func forecastHourlyRun(cmd *cobra.Command, args []string) error {
	lat, lon, err := resolveCoordinates(cmd, args)
	if err != nil {
		return err
	}

	entries, err := application.Weather.Forecast(cmd.Context(), lat, lon)
	if err != nil {
		return err
	}

	prefs := displaySettings(cmd.Context())
	for _, h := range weather.Hourly(entries) {
		fmt.Printf("%s  %s  %s\n", h.Label, weather.FormatTemperature(h.Temperature, prefs), h.Description)
	}
	return nil
}

func forecastDailyRun(cmd *cobra.Command, args []string) error {
	lat, lon, err := resolveCoordinates(cmd, args)
	if err != nil {
		return err
	}

	entries, err := application.Weather.Forecast(cmd.Context(), lat, lon)
	if err != nil {
		return err
	}

	prefs := displaySettings(cmd.Context())
	for _, d := range weather.Daily(entries, time.Now()) {
		fmt.Printf("%-5s %s / %s  %s\n",
			d.Label,
			weather.FormatTemperature(d.MinTemp, prefs),
			weather.FormatTemperature(d.MaxTemp, prefs),
			d.Description)
	}
	return nil
}
