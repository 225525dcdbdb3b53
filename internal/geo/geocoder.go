package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/callouthq/dispatch/internal/api/domain"
)

// Coordinates is a geographic point.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Geocoder resolves a site address to coordinates. Implementations
// must be safe for concurrent use.
type Geocoder interface {
	Geocode(ctx context.Context, address, city, country string) (Coordinates, error)
}

// Config holds the external geocoding provider settings.
type Config struct {
	BaseURL        string
	RequestTimeout time.Duration
	BreakerMaxFail uint32
	BreakerOpenFor time.Duration
}

// HTTPGeocoder calls an external places provider behind a circuit
// breaker. Any failure, including an open breaker, surfaces as
// ErrExternalLookupFailed so the caller can fall back to a zero
// remote-site fee.
type HTTPGeocoder struct {
	cfg     Config
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewHTTPGeocoder creates a breaker-wrapped geocoding client.
func NewHTTPGeocoder(cfg Config, logger *slog.Logger) *HTTPGeocoder {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 3 * time.Second
	}
	if cfg.BreakerMaxFail == 0 {
		cfg.BreakerMaxFail = 5
	}
	if cfg.BreakerOpenFor <= 0 {
		cfg.BreakerOpenFor = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "geocoder",
		Timeout: cfg.BreakerOpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerMaxFail
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Geocoder breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})

	return &HTTPGeocoder{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.RequestTimeout},
		breaker: breaker,
		logger:  logger,
	}
}

// Geocode resolves the address through the provider. The breaker keeps
// a flapping provider from slowing down every booking.
func (g *HTTPGeocoder) Geocode(ctx context.Context, address, city, country string) (Coordinates, error) {
	result, err := g.breaker.Execute(func() (interface{}, error) {
		return g.lookup(ctx, address, city, country)
	})
	if err != nil {
		g.logger.Warn("Geocode lookup failed",
			slog.String("city", city),
			slog.String("country", country),
			slog.String("error", err.Error()),
		)
		return Coordinates{}, fmt.Errorf("%w: %v", domain.ErrExternalLookupFailed, err)
	}

	return result.(Coordinates), nil
}

func (g *HTTPGeocoder) lookup(ctx context.Context, address, city, country string) (Coordinates, error) {
	q := url.Values{}
	q.Set("address", address)
	q.Set("city", city)
	q.Set("country", country)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.cfg.BaseURL+"/geocode?"+q.Encode(), nil)
	if err != nil {
		return Coordinates{}, fmt.Errorf("failed to build geocode request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return Coordinates{}, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Coordinates{}, fmt.Errorf("geocode provider returned status %d", resp.StatusCode)
	}

	var coords Coordinates
	if err := json.NewDecoder(resp.Body).Decode(&coords); err != nil {
		return Coordinates{}, fmt.Errorf("failed to decode geocode response: %w", err)
	}

	return coords, nil
}
