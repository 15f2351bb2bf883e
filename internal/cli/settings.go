package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/weatherwise/weatherwise/internal/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "show or change your display preferences",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "show your current preferences",
	RunE:  settingsShowRun,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "change one preference",
	Long: `Change one preference. Keys and values:

  temperature    Celsius | Fahrenheit
  wind           KM/h | MPH | M/s
  pressure       mbar | hPa | inHg
  notifications  true | false
  warnings       true | false`,
	RunE: settingsSetRun,
}

func init() {
	RootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
}

func settingsShowRun(cmd *cobra.Command, args []string) error {
	user, err := requireUser()
	if err != nil {
		return err
	}

	prefs, err := application.Settings.Get(cmd.Context(), user.ID)
	if err != nil {
		return err
	}

	printSettings(prefs)
	return nil
}

func settingsSetRun(cmd *cobra.Command, args []string) error {
	user, err := requireUser()
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return ErrTooFewArguments
	}
	if len(args) > 2 {
		return ErrTooManyArguments
	}

	key, value := args[0], args[1]
	ctx := cmd.Context()

	var prefs domain.Settings
	switch key {
	case "temperature":
		prefs, err = application.Settings.SetTemperatureUnit(ctx, user.ID, value)
	case "wind":
		prefs, err = application.Settings.SetWindSpeedUnit(ctx, user.ID, value)
	case "pressure":
		prefs, err = application.Settings.SetPressureUnit(ctx, user.ID, value)
	case "notifications", "warnings":
		on, parseErr := strconv.ParseBool(value)
		if parseErr != nil {
			return fmt.Errorf("invalid boolean %q", value)
		}
		if key == "notifications" {
			prefs, err = application.Settings.SetWeatherNotifications(ctx, user.ID, on)
		} else {
			prefs, err = application.Settings.SetWeatherWarnings(ctx, user.ID, on)
		}
	default:
		return fmt.Errorf("unknown settings key %q", key)
	}
	if err != nil {
		return err
	}

	printSettings(prefs)
	return nil
}

func printSettings(prefs domain.Settings) {
	fmt.Printf("temperature    %s\n", prefs.TemperatureUnit)
	fmt.Printf("wind           %s\n", prefs.WindSpeedUnit)
	fmt.Printf("pressure       %s\n", prefs.PressureUnit)
	fmt.Printf("notifications  %t\n", prefs.WeatherNotifications)
	fmt.Printf("warnings       %t\n", prefs.WeatherWarnings)
}
