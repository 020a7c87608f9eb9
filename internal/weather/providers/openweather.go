package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/i474232898/sunwatch/internal/common"
	"github.com/i474232898/sunwatch/internal/location"
	"github.com/i474232898/sunwatch/internal/weather"
)

const openWeatherBaseURL = "https://api.openweathermap.org/data/3.0/onecall"

// OpenWeatherProvider implements the weather.Provider interface for the
// OpenWeatherMap One Call API, which carries current and hourly UV index.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherProvider(client *http.Client, apiKey, baseURL string) *OpenWeatherProvider {
	if baseURL == "" {
		baseURL = openWeatherBaseURL
	}
	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		circuit: newCircuitBreaker("openweather"),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

func (p *OpenWeatherProvider) FetchUV(ctx context.Context, loc location.Location) (weather.Report, error) {
	if p.apiKey == "" {
		return weather.Report{}, fmt.Errorf("openweather: %w", errMissingKey)
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("appid", p.apiKey)
		values.Set("lat", common.FormatCoordinate(loc.Latitude))
		values.Set("lon", common.FormatCoordinate(loc.Longitude))
		values.Set("exclude", "minutely,daily,alerts")
		values.Set("units", "metric")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := doRequest(ctx, p.client, p.circuit, buildRequest)
	if err != nil {
		return weather.Report{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Current struct {
			Dt  int64   `json:"dt"`
			UVI float64 `json:"uvi"`
		} `json:"current"`
		Hourly []struct {
			Dt  int64   `json:"dt"`
			UVI float64 `json:"uvi"`
		} `json:"hourly"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Report{}, fmt.Errorf("decode openweather response: %w", err)
	}

	hourly := make([]weather.HourlyUV, 0, len(payload.Hourly))
	for _, h := range payload.Hourly {
		hourly = append(hourly, weather.NewHourlyUV(unixUTC(h.Dt), h.UVI))
	}

	return weather.Report{
		Provider: p.name,
		Current: weather.UVSample{
			Value:      payload.Current.UVI,
			ObservedAt: unixUTC(payload.Current.Dt),
		},
		Hourly: hourly,
	}, nil
}
