package weather

import (
	"context"

	"github.com/i474232898/sunwatch/internal/location"
)

// Provider abstracts a UV data source (e.g. Open-Meteo, OpenWeatherMap, WeatherAPI).
type Provider interface {
	Name() string
	FetchUV(ctx context.Context, loc location.Location) (Report, error)
}
