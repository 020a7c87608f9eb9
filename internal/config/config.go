package config

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Provider names accepted in WEATHER_PROVIDERS.
const (
	ProviderOpenMeteo   = "openmeteo"
	ProviderOpenWeather = "openweathermap"
	ProviderWeatherAPI  = "weatherapi"
)

type AppConfig struct {
	Port        string        `envconfig:"PORT" default:"8080" validate:"required,numeric"`
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s" validate:"gt=0"`
	LogLevel    string        `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=trace debug info warn error"`

	// LocationSource is "static" (fixed coordinates) or "ip" (IP geolocation).
	LocationSource   string        `envconfig:"LOCATION_SOURCE" default:"static" validate:"oneof=static ip"`
	Latitude         float64       `envconfig:"LOCATION_LAT" default:"52.52" validate:"gte=-90,lte=90"`
	Longitude        float64       `envconfig:"LOCATION_LON" default:"13.405" validate:"gte=-180,lte=180"`
	LocationInterval time.Duration `envconfig:"LOCATION_INTERVAL" default:"5s" validate:"gt=0"`
	LocationTimeout  time.Duration `envconfig:"LOCATION_TIMEOUT" default:"30s" validate:"gt=0"`
	IPLocationURL    string        `envconfig:"IP_LOCATION_URL" validate:"omitempty,url"`
	GeocoderAPIKey   string        `envconfig:"GEOCODER_API_KEY"`

	WeatherProviders  []string `envconfig:"WEATHER_PROVIDERS" default:"openmeteo" validate:"min=1,dive,oneof=openmeteo openweathermap weatherapi"`
	OpenWeatherAPIKey string   `envconfig:"OPENWEATHER_API_KEY"`
	WeatherAPIKey     string   `envconfig:"WEATHERAPI_API_KEY"`

	FetchTimeout        time.Duration `envconfig:"FETCH_TIMEOUT" default:"30s" validate:"gt=0"`
	PlaceholderUV       float64       `envconfig:"PLACEHOLDER_UV" default:"7.0" validate:"gte=0"`
	StrictFetchOrdering bool          `envconfig:"STRICT_FETCH_ORDERING" default:"false"`

	// RefreshInterval re-runs activation periodically; 0 disables it.
	RefreshInterval time.Duration `envconfig:"REFRESH_INTERVAL" default:"15m" validate:"gte=0"`

	// HealthStore is "memory" or "postgres".
	HealthStore string `envconfig:"HEALTH_STORE" default:"memory" validate:"oneof=memory postgres"`
	DatabaseURL string `envconfig:"DATABASE_URL" validate:"required_if=HealthStore postgres"`

	// In-memory store retention.
	StoreMaxSamples int           `envconfig:"STORE_MAX_SAMPLES" default:"1000" validate:"gte=0"` // 0 = unlimited
	StoreMaxAge     time.Duration `envconfig:"STORE_MAX_AGE" default:"720h" validate:"gte=0"`    // 0 = unlimited
}

var validate = validator.New()

// Load reads configuration from the environment, after applying a .env file
// when one exists.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if slices.Contains(c.WeatherProviders, ProviderOpenWeather) && c.OpenWeatherAPIKey == "" {
		return errors.New("invalid config: OPENWEATHER_API_KEY is required for the openweathermap provider")
	}
	if slices.Contains(c.WeatherProviders, ProviderWeatherAPI) && c.WeatherAPIKey == "" {
		return errors.New("invalid config: WEATHERAPI_API_KEY is required for the weatherapi provider")
	}
	return nil
}
