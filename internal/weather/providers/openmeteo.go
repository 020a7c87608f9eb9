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

const openMeteoBaseURL = "https://api.open-meteo.com/v1/forecast"

// OpenMeteoProvider implements the weather.Provider interface for Open-Meteo.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

// NewOpenMeteoProvider creates the provider. An empty baseURL uses the public API.
func NewOpenMeteoProvider(client *http.Client, baseURL string) *OpenMeteoProvider {
	if baseURL == "" {
		baseURL = openMeteoBaseURL
	}
	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		circuit: newCircuitBreaker("openmeteo"),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

func (p *OpenMeteoProvider) FetchUV(ctx context.Context, loc location.Location) (weather.Report, error) {
	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", common.FormatCoordinate(loc.Latitude))
		values.Set("longitude", common.FormatCoordinate(loc.Longitude))
		values.Set("current", "uv_index")
		values.Set("hourly", "uv_index")
		values.Set("timeformat", "unixtime")
		values.Set("timezone", "GMT")
		values.Set("forecast_days", "2")

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
			Time    int64    `json:"time"`
			UVIndex *float64 `json:"uv_index"`
		} `json:"current"`
		Hourly struct {
			Time    []int64    `json:"time"`
			UVIndex []*float64 `json:"uv_index"`
		} `json:"hourly"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Report{}, fmt.Errorf("decode openmeteo response: %w", err)
	}
	if payload.Current.UVIndex == nil {
		return weather.Report{}, fmt.Errorf("openmeteo response has no current uv_index")
	}

	n := len(payload.Hourly.Time)
	if len(payload.Hourly.UVIndex) < n {
		n = len(payload.Hourly.UVIndex)
	}
	hourly := make([]weather.HourlyUV, 0, n)
	for i := 0; i < n; i++ {
		// Open-Meteo reports null for hours it has no model output for.
		if payload.Hourly.UVIndex[i] == nil {
			continue
		}
		hourly = append(hourly, weather.NewHourlyUV(unixUTC(payload.Hourly.Time[i]), *payload.Hourly.UVIndex[i]))
	}

	return weather.Report{
		Provider: p.name,
		Current: weather.UVSample{
			Value:      *payload.Current.UVIndex,
			ObservedAt: unixUTC(payload.Current.Time),
		},
		Hourly: hourly,
	}, nil
}
