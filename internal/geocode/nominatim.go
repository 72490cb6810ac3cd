package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bstardust/htgen/internal/logger"
)

const (
	DefaultBaseURL   = "https://nominatim.openstreetmap.org"
	DefaultUserAgent = "HTGen/1.0"
	DefaultDelay     = 1 * time.Second
	DefaultTimeout   = 10 * time.Second
)

var (
	// ErrUnavailable covers transport failures and non-2xx responses.
	ErrUnavailable = errors.New("geocode: lookup service unavailable")
	// ErrBadResponse means the service answered but the body could not be used.
	ErrBadResponse = errors.New("geocode: bad response")
)

// Coordinates is a position in decimal degrees
type Coordinates struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// Place is the result of a reverse lookup. Either field may be empty.
type Place struct {
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
}

// Known reports whether at least one of city or country was resolved
func (p Place) Known() bool {
	return p.City != "" || p.Country != ""
}

// Geocoder resolves coordinates to a place
type Geocoder interface {
	Reverse(ctx context.Context, c Coordinates) (Place, error)
}

// Config configures a Nominatim client
type Config struct {
	BaseURL   string
	UserAgent string
	Delay     time.Duration
	Timeout   time.Duration
}

// Nominatim is a reverse geocoder for the OpenStreetMap Nominatim API
type Nominatim struct {
	baseURL    string
	userAgent  string
	delay      time.Duration
	httpClient *http.Client
}

var _ Geocoder = (*Nominatim)(nil)

// cityFields are tried in order; the first non-empty one is used as the city
var cityFields = []string{"city", "town", "village", "suburb", "municipality"}

// NewNominatim creates a new Nominatim client, filling unset fields with defaults
func NewNominatim(cfg Config) *Nominatim {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Delay < 0 {
		cfg.Delay = 0
	}

	return &Nominatim{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		delay:      cfg.Delay,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type reverseResponse struct {
	Address map[string]string `json:"address"`
	Error   string            `json:"error"`
}

// Reverse resolves coordinates to a city and country.
// It waits for the courtesy delay before every request, as Nominatim's usage policy asks.
func (n *Nominatim) Reverse(ctx context.Context, c Coordinates) (Place, error) {
	logger.Info("Attempting reverse geocoding for coordinates: %f, %f", c.Latitude, c.Longitude)

	if n.delay > 0 {
		timer := time.NewTimer(n.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Place{}, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
		case <-timer.C:
		}
	}

	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(c.Latitude, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(c.Longitude, 'f', -1, 64))
	q.Set("format", "json")
	q.Set("zoom", "10")
	q.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return Place{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return Place{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Place{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var body reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Place{}, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if body.Error != "" {
		return Place{}, fmt.Errorf("%w: %s", ErrBadResponse, body.Error)
	}

	var place Place
	for _, field := range cityFields {
		if v := strings.TrimSpace(body.Address[field]); v != "" {
			place.City = v
			logger.Debug("Found city name in field '%s': %s", field, v)
			break
		}
	}
	place.Country = strings.TrimSpace(body.Address["country"])
	if place.Country != "" {
		logger.Debug("Found country: %s", place.Country)
	}

	return place, nil
}
