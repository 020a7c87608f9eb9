package location

import (
	"context"
	"errors"
	"sync"

	"github.com/kelvins/geocoder"
)

// Geocoder resolves a coordinate into a coarse place name.
type Geocoder interface {
	Reverse(ctx context.Context, loc Location) (PlaceName, error)
}

var errNoAddress = errors.New("no address for location")

// geocoderMu serializes access to the package-level API key of kelvins/geocoder.
var geocoderMu sync.Mutex

// GoogleGeocoder reverse-geocodes through the Google Geocoding API.
type GoogleGeocoder struct {
	apiKey string
}

func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	return &GoogleGeocoder{apiKey: apiKey}
}

// Reverse performs the lookup. The underlying client is not context aware, so
// ctx only bounds how long the caller waits for it.
func (g *GoogleGeocoder) Reverse(ctx context.Context, loc Location) (PlaceName, error) {
	type result struct {
		place PlaceName
		err   error
	}
	done := make(chan result, 1)

	go func() {
		geocoderMu.Lock()
		geocoder.ApiKey = g.apiKey
		addresses, err := geocoder.GeocodingReverse(geocoder.Location{
			Latitude:  loc.Latitude,
			Longitude: loc.Longitude,
		})
		geocoderMu.Unlock()

		if err != nil {
			done <- result{err: err}
			return
		}
		if len(addresses) == 0 {
			done <- result{err: errNoAddress}
			return
		}
		first := addresses[0]
		done <- result{place: PlaceName{
			PostalCode: first.PostalCode,
			City:       first.City,
			Country:    first.Country,
		}}
	}()

	select {
	case r := <-done:
		return r.place, r.err
	case <-ctx.Done():
		return PlaceName{}, ctx.Err()
	}
}
