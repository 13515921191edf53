package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"actubot/core/logger"
)

// WeatherReport is the current conditions for a city, used by the welcome
// intro card.
type WeatherReport struct {
	City        string `json:"city"`
	Temperature string `json:"temperature"`
	Forecast    string `json:"forecast"`
	IconURL     string `json:"icon"`
}

// Weather fetches current conditions from the weather service.
type Weather struct {
	baseURL string
	client  *http.Client
}

// NewWeather wires the weather provider to its endpoint.
func NewWeather(baseURL string, client *http.Client) *Weather {
	return &Weather{baseURL: baseURL, client: client}
}

// Current returns the report for a city.
func (w *Weather) Current(ctx context.Context, city string) (WeatherReport, error) {
	start := time.Now()
	u := fmt.Sprintf("%s?city=%s", w.baseURL, url.QueryEscape(city))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return WeatherReport{}, fmt.Errorf("weather: build request: %w", err)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return WeatherReport{}, fmt.Errorf("%w: weather: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return WeatherReport{}, fmt.Errorf("%w: weather: status %d", ErrUnavailable, resp.StatusCode)
	}

	var report WeatherReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return WeatherReport{}, fmt.Errorf("%w: weather: decode: %v", ErrUnavailable, err)
	}
	if report.City == "" {
		report.City = city
	}

	logger.Debug(ctx, "provider.weather", "weather.current",
		slog.String("status", "ok"),
		slog.String("city", logger.Sanitize(city)),
		slog.Duration("duration", logger.RoundMS(logger.Took(start))),
	)
	return report, nil
}
