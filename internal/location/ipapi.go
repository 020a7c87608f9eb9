package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultIPLocationURL = "http://ip-api.com/json"

var errIPLookup = errors.New("ip geolocation lookup failed")

// IPSource approximates the device position from the public IP address by
// polling an ip-api.com compatible endpoint.
type IPSource struct {
	baseURL  string
	client   *http.Client
	interval time.Duration
}

// NewIPSource creates an IPSource. An empty baseURL uses ip-api.com.
func NewIPSource(client *http.Client, baseURL string, interval time.Duration) *IPSource {
	u := strings.TrimSpace(baseURL)
	if u == "" {
		u = defaultIPLocationURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &IPSource{
		baseURL:  strings.TrimRight(u, "/"),
		client:   client,
		interval: interval,
	}
}

func (s *IPSource) Updates(ctx context.Context) (<-chan Update, error) {
	out := make(chan Update)
	go func() {
		defer close(out)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			loc, err := s.lookup(ctx)
			if ctx.Err() != nil {
				return
			}
			select {
			case out <- Update{Location: loc, Err: err}:
			case <-ctx.Done():
				return
			}

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

type ipAPIResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

func (s *IPSource) lookup(ctx context.Context) (Location, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL, nil)
	if err != nil {
		return Location{}, fmt.Errorf("build ip lookup request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return Location{}, fmt.Errorf("%w: %v", errIPLookup, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return Location{}, fmt.Errorf("%w: status=%d body=%s", errIPLookup, resp.StatusCode, string(body))
	}

	var payload ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Location{}, fmt.Errorf("%w: decode: %v", errIPLookup, err)
	}
	if payload.Status != "" && payload.Status != "success" {
		return Location{}, fmt.Errorf("%w: %s", errIPLookup, payload.Message)
	}

	loc := Location{
		Latitude:  payload.Lat,
		Longitude: payload.Lon,
		Accuracy:  5000,
		Timestamp: time.Now().UTC(),
	}
	if err := loc.Validate(); err != nil {
		return Location{}, fmt.Errorf("%w: %v", errIPLookup, err)
	}
	return loc, nil
}
