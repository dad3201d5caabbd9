// Package nyc imports permitted events from the NYC Open Data API.
package nyc

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ereinhol/nycevents/internal/event"
)

const (
	defaultAPIURL     = "https://data.cityofnewyork.us/resource/tvpp-9vvx.json"
	defaultFetchLimit = 50000
)

// RawEvent is one record as returned by the permitted-events dataset.
type RawEvent struct {
	EventID           string `json:"event_id"`
	EventName         string `json:"event_name"`
	StartDateTime     string `json:"start_date_time"`
	EndDateTime       string `json:"end_date_time"`
	EventType         string `json:"event_type"`
	EventBorough      string `json:"event_borough"`
	EventLocation     string `json:"event_location"`
	StreetClosureType string `json:"street_closure_type"`
	CommunityBoard    string `json:"community_board"`
}

// Client fetches permitted events from the NYC Open Data API.
type Client struct {
	httpClient *http.Client
	limit      int
	apiURL     string
}

// NewClient creates an Open Data client. An empty URL and a non-positive
// limit fall back to the public dataset defaults.
func NewClient(apiURL string, limit int) *Client {
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	if limit <= 0 {
		limit = defaultFetchLimit
	}
	return &Client{
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		limit:      limit,
		apiURL:     apiURL,
	}
}

// Fetch downloads the raw permitted-event records.
func (c *Client) Fetch() ([]RawEvent, error) {
	params := url.Values{
		"$limit": {strconv.Itoa(c.limit)},
	}

	req, err := http.NewRequest("GET", c.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

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

	var raw []RawEvent
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return raw, nil
}

// timestampLayouts are the formats the dataset has been observed to use.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	event.TimeLayout,
}

// parseTimestamp parses a dataset timestamp, returning nil when the value is
// missing or unreadable.
func parseTimestamp(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// Normalize converts a raw record into an event. Missing names default to
// "Unnamed Event" and unreadable timestamps are dropped rather than failing
// the import.
func Normalize(raw RawEvent) *event.Event {
	name := strings.TrimSpace(raw.EventName)
	if name == "" {
		name = "Unnamed Event"
	}

	return &event.Event{
		Name:           name,
		EventType:      strings.TrimSpace(raw.EventType),
		Borough:        strings.TrimSpace(raw.EventBorough),
		Location:       strings.TrimSpace(raw.EventLocation),
		StartTime:      parseTimestamp(raw.StartDateTime),
		EndTime:        parseTimestamp(raw.EndDateTime),
		Source:         "NYC",
		StreetClosure:  strings.TrimSpace(raw.StreetClosureType),
		CommunityBoard: strings.TrimSpace(raw.CommunityBoard),
		IsPublic:       true,
	}
}
