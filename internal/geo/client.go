// Package geo resolves event locations to map coordinates.
package geo

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ereinhol/nycevents/internal/apperror"
	"github.com/ereinhol/nycevents/internal/event"
)

const (
	defaultNominatimURL = "https://nominatim.openstreetmap.org/search"
	userAgent           = "nycevents/1.0"
)

// Coordinates is a latitude/longitude pair.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Client geocodes street addresses through the Nominatim API. Results are
// kept in an owned, capacity-bounded cache since locations repeat heavily
// across events.
type Client struct {
	httpClient   *http.Client
	cache        *Cache
	nominatimURL string
}

// NewClient creates a geocoding client with a cache of the given capacity.
// An empty nominatimURL selects the public Nominatim endpoint.
func NewClient(nominatimURL string, cacheSize int) *Client {
	if nominatimURL == "" {
		nominatimURL = defaultNominatimURL
	}
	return &Client{
		httpClient:   &http.Client{},
		cache:        NewCache(cacheSize),
		nominatimURL: nominatimURL,
	}
}

// EventCoordinates resolves an event's location to coordinates. The lookup
// address is the first comma-separated segment of the location, anchored to
// New York.
func (c *Client) EventCoordinates(e *event.Event) (*Coordinates, error) {
	if strings.TrimSpace(e.Location) == "" {
		return nil, apperror.ValidationFailed("location", "event has no location to geocode")
	}

	segment := strings.TrimSpace(strings.SplitN(e.Location, ",", 2)[0])
	address := segment + ", New York, NY"

	return c.Lookup(address)
}

// nominatimResult is one entry in the Nominatim search response.
type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Lookup geocodes an address, consulting the cache first.
func (c *Client) Lookup(address string) (*Coordinates, error) {
	if cached, ok := c.cache.Get(address); ok {
		return &cached, nil
	}

	params := url.Values{
		"q":      {address},
		"format": {"json"},
		"limit":  {"1"},
	}

	req, err := http.NewRequest("GET", c.nominatimURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			err = fmt.Errorf("%w (also failed to close body: %v)", err, closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if len(results) == 0 {
		return nil, apperror.NotFound("coordinates", address)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing latitude %q: %w", results[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing longitude %q: %w", results[0].Lon, err)
	}

	coords := Coordinates{Latitude: lat, Longitude: lon}
	c.cache.Put(address, coords)

	return &coords, nil
}
