package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "static", cfg.LocationSource)
	assert.Equal(t, []string{ProviderOpenMeteo}, cfg.WeatherProviders)
	assert.Equal(t, 7.0, cfg.PlaceholderUV)
	assert.Equal(t, 15*time.Minute, cfg.RefreshInterval)
	assert.Equal(t, "memory", cfg.HealthStore)
	assert.False(t, cfg.StrictFetchOrdering)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOCATION_SOURCE", "ip")
	t.Setenv("WEATHER_PROVIDERS", "openmeteo,weatherapi")
	t.Setenv("WEATHERAPI_API_KEY", "k")
	t.Setenv("REFRESH_INTERVAL", "0")
	t.Setenv("HEALTH_STORE", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/sunwatch")
	t.Setenv("STRICT_FETCH_ORDERING", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "ip", cfg.LocationSource)
	assert.Equal(t, []string{"openmeteo", "weatherapi"}, cfg.WeatherProviders)
	assert.Zero(t, cfg.RefreshInterval)
	assert.Equal(t, "postgres://localhost/sunwatch", cfg.DatabaseURL)
	assert.True(t, cfg.StrictFetchOrdering)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown location source", map[string]string{"LOCATION_SOURCE": "gps"}},
		{"latitude out of range", map[string]string{"LOCATION_LAT": "91"}},
		{"longitude out of range", map[string]string{"LOCATION_LON": "-180.5"}},
		{"unknown provider", map[string]string{"WEATHER_PROVIDERS": "darksky"}},
		{"openweathermap without key", map[string]string{"WEATHER_PROVIDERS": "openweathermap"}},
		{"weatherapi without key", map[string]string{"WEATHER_PROVIDERS": "weatherapi"}},
		{"postgres without url", map[string]string{"HEALTH_STORE": "postgres"}},
		{"negative refresh", map[string]string{"REFRESH_INTERVAL": "-1m"}},
		{"bad duration", map[string]string{"FETCH_TIMEOUT": "soon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
