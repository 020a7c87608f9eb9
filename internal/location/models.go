package location

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrLocationUnavailable is returned when no fix could be acquired, either
	// because the source failed or because the request timed out.
	ErrLocationUnavailable = errors.New("location unavailable")

	// ErrGeocodeFailure wraps reverse-geocoding failures. It never reaches the
	// caller of Request; it is only reported to the logger.
	ErrGeocodeFailure = errors.New("reverse geocode failed")

	errInvalidCoordinates = errors.New("invalid coordinates")
)

// Location is a single position fix in degrees.
type Location struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy,omitempty"` // meters, 0 when unknown
	Timestamp time.Time `json:"timestamp"`
}

// Validate checks the coordinate ranges.
func (l Location) Validate() error {
	if l.Latitude < -90 || l.Latitude > 90 {
		return fmt.Errorf("%w: latitude %f out of range", errInvalidCoordinates, l.Latitude)
	}
	if l.Longitude < -180 || l.Longitude > 180 {
		return fmt.Errorf("%w: longitude %f out of range", errInvalidCoordinates, l.Longitude)
	}
	return nil
}

// PlaceName is the coarse, display-only result of a reverse lookup.
type PlaceName struct {
	PostalCode string `json:"postalCode,omitempty"`
	City       string `json:"city"`
	Country    string `json:"country"`
}

// String renders "postal, city, country", skipping empty parts.
func (p PlaceName) String() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{p.PostalCode, p.City, p.Country} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

// Complete reports whether the place has both a city and a country.
func (p PlaceName) Complete() bool {
	return strings.TrimSpace(p.City) != "" && strings.TrimSpace(p.Country) != ""
}
