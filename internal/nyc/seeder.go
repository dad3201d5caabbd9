package nyc

import (
	"fmt"
	"log/slog"

	"github.com/ereinhol/nycevents/internal/event"
)

// Seeder refreshes the stored NYC events from the Open Data API.
type Seeder struct {
	client *Client
	events *event.Repository
}

// NewSeeder creates a seeder.
func NewSeeder(client *Client, events *event.Repository) *Seeder {
	return &Seeder{client: client, events: events}
}

// Seed fetches the current dataset and replaces all NYC-sourced events with
// it. User-created events are untouched. Returns the number of events stored.
func (s *Seeder) Seed() (int, error) {
	raw, err := s.client.Fetch()
	if err != nil {
		return 0, fmt.Errorf("fetching NYC events: %w", err)
	}

	normalized := make([]*event.Event, 0, len(raw))
	for _, r := range raw {
		normalized = append(normalized, Normalize(r))
	}

	n, err := s.events.ReplaceBySource("NYC", normalized)
	if err != nil {
		return 0, fmt.Errorf("replacing NYC events: %w", err)
	}

	slog.Info("refreshed NYC events", "fetched", len(raw), "stored", n)
	return n, nil
}
