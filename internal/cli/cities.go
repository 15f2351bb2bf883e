package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/weatherwise/weatherwise/internal/weather"
)

var (
	citySearchLimit  int
	cityDescription  string
	cityPickIndex    int
	citiesRefreshNow bool
)

var citiesCmd = &cobra.Command{
	Use:   "cities",
	Short: "manage the cities on your dashboard",
}

var citiesSearchCmd = &cobra.Command{
	Use:   "search <name>",
	Short: "look up candidate places for a city name",
	RunE:  citiesSearchRun,
}

var citiesAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "save a city to your dashboard",
	RunE:  citiesAddRun,
}

var citiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "list your saved cities",
	RunE:  citiesListRun,
}

var citiesRemoveCmd = &cobra.Command{
	Use:   "remove <city-id>",
	Short: "remove a saved city",
	RunE:  citiesRemoveRun,
}

var citiesTrackCmd = &cobra.Command{
	Use:   "track <lat> <lon>",
	Short: "set the given coordinates as your tracked location",
	RunE:  citiesTrackRun,
}

func init() {
	RootCmd.AddCommand(citiesCmd)
	citiesCmd.AddCommand(citiesSearchCmd)
	citiesCmd.AddCommand(citiesAddCmd)
	citiesCmd.AddCommand(citiesListCmd)
	citiesCmd.AddCommand(citiesRemoveCmd)
	citiesCmd.AddCommand(citiesTrackCmd)

	citiesSearchCmd.Flags().IntVarP(&citySearchLimit, "limit", "n", 5, "Maximum number of candidates")
	citiesAddCmd.Flags().StringVarP(&cityDescription, "description", "d", "", "Description shown on the dashboard")
	citiesAddCmd.Flags().IntVarP(&cityPickIndex, "index", "i", 0, "Which search candidate to save")
	citiesListCmd.Flags().BoolVarP(&citiesRefreshNow, "refresh", "r", false, "Re-fetch current temperatures before listing")
}

func placeLabel(p weather.Place) string {
	label := p.Name
	if p.State != "" {
		label += ", " + p.State
	}
	if p.Country != "" {
		label += ", " + p.Country
	}
	return label
}

func citiesSearchRun(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return ErrTooFewArguments
	}
	if len(args) > 1 {
		return ErrTooManyArguments
	}

	places, err := application.Cities.Search(cmd.Context(), args[0], citySearchLimit)
	if err != nil {
		return err
	}

	for i, p := range places {
		fmt.Printf("%d: %s (%.4f, %.4f)\n", i, placeLabel(p), p.Lat, p.Lon)
	}
	return nil
}

func citiesAddRun(cmd *cobra.Command, args []string) error {
	user, err := requireUser()
	if err != nil {
		return err
	}
	if len(args) < 1 {
		return ErrTooFewArguments
	}
	if len(args) > 1 {
		return ErrTooManyArguments
	}

	places, err := application.Cities.Search(cmd.Context(), args[0], cityPickIndex+1)
	if err != nil {
		return err
	}
	if cityPickIndex >= len(places) {
		return fmt.Errorf("search returned %d candidates, index %d is out of range", len(places), cityPickIndex)
	}

	city, err := application.Cities.Save(cmd.Context(), user.ID, places[cityPickIndex], cityDescription)
	if err != nil {
		return err
	}

	fmt.Printf("Saved %s (%s)\n", city.Name, city.ID)
	return nil
}

func citiesListRun(cmd *cobra.Command, args []string) error {
	user, err := requireUser()
	if err != nil {
		return err
	}

	prefs, err := application.Settings.Get(cmd.Context(), user.ID)
	if err != nil {
		return err
	}

	list, err := application.Cities.List(cmd.Context(), user.ID)
	if citiesRefreshNow {
		list, err = application.Cities.RefreshTemperatures(cmd.Context(), user.ID)
	}
	if err != nil {
		return err
	}

	if len(list) == 0 {
		fmt.Println("No saved cities")
		return nil
	}

	for _, c := range list {
		desc := c.Description
		if desc != "" {
			desc = " — " + desc
		}
		fmt.Printf("%s  %s%s  %s\n", c.ID, c.Name, desc, weather.FormatTemperature(c.Temperature, prefs))
	}
	return nil
}

func citiesRemoveRun(cmd *cobra.Command, args []string) error {
	user, err := requireUser()
	if err != nil {
		return err
	}
	if len(args) < 1 {
		return ErrTooFewArguments
	}
	if len(args) > 1 {
		return ErrTooManyArguments
	}

	if err := application.Cities.Remove(cmd.Context(), user.ID, args[0]); err != nil {
		return err
	}
	fmt.Println("Removed")
	return nil
}

func citiesTrackRun(cmd *cobra.Command, args []string) error {
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

	lat, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid latitude %q", args[0])
	}
	lon, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid longitude %q", args[1])
	}

	city, err := application.Cities.TrackLocation(cmd.Context(), user.ID, lat, lon)
	if err != nil {
		return err
	}

	fmt.Printf("Tracking %s (%.4f, %.4f)\n", city.Name, lat, lon)
	return nil
}
