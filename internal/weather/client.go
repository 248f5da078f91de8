// Package weather wraps the OpenWeatherMap current-conditions endpoint.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"newsdesk/internal/config"
	"newsdesk/internal/types"
)

// Units selects the measurement system for a report.
type Units string

const (
	UnitsMetric   Units = "metric"
	UnitsImperial Units = "imperial"
)

// ParseUnits validates a units string, defaulting empty input to metric.
func ParseUnits(s string) (Units, error) {
	switch Units(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return UnitsMetric, nil
	case UnitsMetric:
		return UnitsMetric, nil
	case UnitsImperial:
		return UnitsImperial, nil
	default:
		return "", fmt.Errorf("%w: units must be either 'metric' or 'imperial', got %q", types.ErrValidation, s)
	}
}

// TempSuffix returns the temperature suffix for the unit system.
func (u Units) TempSuffix() string {
	if u == UnitsImperial {
		return "°F"
	}
	return "°C"
}

// WindSuffix returns the wind-speed suffix for the unit system.
func (u Units) WindSuffix() string {
	if u == UnitsImperial {
		return "mph"
	}
	return "m/s"
}

// Report is a fixed-shape current-weather report. Either every field is
// present or the lookup failed; there are no partial reports.
type Report struct {
	City        string
	Temperature float64
	FeelsLike   float64
	Humidity    int
	Description string
	WindSpeed   float64
	Observed    time.Time
}

// Client talks to OpenWeatherMap.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

// NewClient creates a weather client from config.
func NewClient(cfg config.WeatherConfig, timeoutCfg *config.Config, log *zap.Logger) *Client {
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeoutCfg.WeatherTimeout()},
		log:        log.Named("weather"),
	}
}

// Pointer fields so a missing value is distinguishable from a zero value;
// any absent required field is a schema failure, not a partial report.
type currentResponse struct {
	Name string `json:"name"`
	Main *struct {
		Temp      *float64 `json:"temp"`
		FeelsLike *float64 `json:"feels_like"`
		Humidity  *int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Wind *struct {
		Speed *float64 `json:"speed"`
	} `json:"wind"`
	Dt      *int64 `json:"dt"`
	Message string `json:"message"`
}

// Current fetches the current weather for a city. City and units are
// validated before any network call.
func (c *Client) Current(ctx context.Context, city string, units Units) (*Report, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, fmt.Errorf("%w: city name must be a non-empty string", types.ErrValidation)
	}
	if units != UnitsMetric && units != UnitsImperial {
		return nil, fmt.Errorf("%w: units must be either 'metric' or 'imperial', got %q", types.ErrValidation, string(units))
	}

	params := url.Values{}
	params.Set("q", city)
	params.Set("appid", c.apiKey)
	params.Set("units", string(units))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/weather?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create weather request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: weather request failed: %v", types.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read weather response: %v", types.ErrTransport, err)
	}
	if resp.StatusCode != http.StatusOK {
		c.log.Warn("weather api error", zap.String("city", city), zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: weather api returned status %d for %q", types.ErrTransport, resp.StatusCode, city)
	}

	var decoded currentResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("%w: parse weather response: %v", types.ErrSchema, err)
	}
	return mapReport(&decoded)
}

func mapReport(r *currentResponse) (*Report, error) {
	switch {
	case r.Name == "",
		r.Main == nil, r.Main.Temp == nil, r.Main.FeelsLike == nil, r.Main.Humidity == nil,
		len(r.Weather) == 0,
		r.Wind == nil, r.Wind.Speed == nil,
		r.Dt == nil:
		return nil, fmt.Errorf("%w: missing required fields in weather data", types.ErrSchema)
	}

	return &Report{
		City:        r.Name,
		Temperature: *r.Main.Temp,
		FeelsLike:   *r.Main.FeelsLike,
		Humidity:    *r.Main.Humidity,
		Description: capitalize(r.Weather[0].Description),
		WindSpeed:   *r.Wind.Speed,
		Observed:    time.Unix(*r.Dt, 0),
	}, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
