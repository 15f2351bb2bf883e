// Package weather is the client for an OpenWeather-style HTTP API: current
// conditions, 3-hour interval forecasts, and geocoding, plus the
// aggregation that folds forecast entries into hourly and daily views.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/weatherwise/weatherwise/pkg/slogx"
)

const DefaultBaseURL = "https://api.openweathermap.org"

// APIError is a non-2xx response from the weather API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("weather api: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("weather api: %s (status %d)", e.Message, e.StatusCode)
}

// Client talks to the weather API. Requests are always made with metric
// units; display conversion happens at render time from the user settings.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		BaseURL: DefaultBaseURL,
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Current fetches the current conditions at a coordinate.
func (c *Client) Current(ctx context.Context, lat, lon float64) (Observation, error) {
	var resp currentResponse
	err := c.get(ctx, "/data/2.5/weather", url.Values{
		"lat":   {formatCoord(lat)},
		"lon":   {formatCoord(lon)},
		"units": {"metric"},
	}, &resp)
	if err != nil {
		return Observation{}, err
	}

	obs := Observation{
		City:        resp.Name,
		Temperature: resp.Main.Temp,
		FeelsLike:   resp.Main.FeelsLike,
		TempMin:     resp.Main.TempMin,
		TempMax:     resp.Main.TempMax,
		Humidity:    resp.Main.Humidity,
		Pressure:    resp.Main.Pressure,
		WindSpeed:   resp.Wind.Speed,
	}
	if len(resp.Weather) > 0 {
		obs.Condition = resp.Weather[0].Main
		obs.Description = resp.Weather[0].Description
		obs.Icon = resp.Weather[0].Icon
	}
	return obs, nil
}

// Forecast fetches the 3-hour interval forecast (around 40 entries covering
// five days) at a coordinate.
func (c *Client) Forecast(ctx context.Context, lat, lon float64) ([]ForecastEntry, error) {
	var resp forecastResponse
	err := c.get(ctx, "/data/2.5/forecast", url.Values{
		"lat":   {formatCoord(lat)},
		"lon":   {formatCoord(lon)},
		"units": {"metric"},
	}, &resp)
	if err != nil {
		return nil, err
	}

	entries := make([]ForecastEntry, 0, len(resp.List))
	for _, item := range resp.List {
		ts, err := time.Parse("2006-01-02 15:04:05", item.DtTxt)
		if err != nil {
			return nil, fmt.Errorf("weather api: bad forecast timestamp %q: %w", item.DtTxt, err)
		}
		e := ForecastEntry{
			Time:        ts,
			Temperature: item.Main.Temp,
			Humidity:    item.Main.Humidity,
			WindSpeed:   item.Wind.Speed,
		}
		if len(item.Weather) > 0 {
			e.Condition = item.Weather[0].Main
			e.Description = item.Weather[0].Description
			e.Icon = item.Weather[0].Icon
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Geocode resolves a city name to coordinates, best match first.
func (c *Client) Geocode(ctx context.Context, city string, limit int) ([]Place, error) {
	if limit <= 0 {
		limit = 1
	}
	var resp []geoResponseItem
	err := c.get(ctx, "/geo/1.0/direct", url.Values{
		"q":     {city},
		"limit": {strconv.Itoa(limit)},
	}, &resp)
	if err != nil {
		return nil, err
	}
	return mapPlaces(resp), nil
}

// ReverseGeocode resolves a coordinate to the nearest named place.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (Place, error) {
	var resp []geoResponseItem
	err := c.get(ctx, "/geo/1.0/reverse", url.Values{
		"lat":   {formatCoord(lat)},
		"lon":   {formatCoord(lon)},
		"limit": {"1"},
	}, &resp)
	if err != nil {
		return Place{}, err
	}
	if len(resp) == 0 {
		return Place{Name: "Unknown", Lat: lat, Lon: lon}, nil
	}
	return mapPlaces(resp)[0], nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, target any) error {
	query.Set("appid", c.APIKey)

	u := strings.TrimSuffix(c.BaseURL, "/") + path + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var body struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(bodyBytes, &body) == nil {
			apiErr.Message = body.Message
		}
		slogx.FromContext(ctx).Warn("weather api request failed", "path", path, "status", resp.StatusCode)
		return apiErr
	}

	if err := json.Unmarshal(bodyBytes, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func mapPlaces(items []geoResponseItem) []Place {
	out := make([]Place, 0, len(items))
	for _, it := range items {
		out = append(out, Place{
			Name:    it.Name,
			Lat:     it.Lat,
			Lon:     it.Lon,
			Country: it.Country,
			State:   it.State,
		})
	}
	return out
}
