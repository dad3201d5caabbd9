package event

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ereinhol/nycevents/internal/apperror"
	"github.com/ereinhol/nycevents/internal/db"
)

func testRepo(t *testing.T) *Repository {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close test db: %v", err)
		}
	})
	return NewRepository(d)
}

func sampleEvent(name string, start time.Time) *Event {
	end := start.Add(2 * time.Hour)
	return &Event{
		Name:      name,
		EventType: "Parade",
		Borough:   "Brooklyn",
		Location:  "Eastern Parkway",
		StartTime: &start,
		EndTime:   &end,
		Source:    "NYC",
		IsPublic:  true,
	}
}

func TestInsertAndGetByID(t *testing.T) {
	repo := testRepo(t)

	start := time.Date(2026, time.July, 4, 10, 0, 0, 0, time.UTC)
	saved, err := repo.Insert(sampleEvent("West Indian Day Parade", start))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if saved.ID == 0 {
		t.Error("expected non-zero ID")
	}

	got, err := repo.GetByID(saved.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "West Indian Day Parade" {
		t.Errorf("name = %q", got.Name)
	}
	if got.EventType != "Parade" || got.Borough != "Brooklyn" {
		t.Errorf("type/borough = %q/%q", got.EventType, got.Borough)
	}
	if got.StartTime == nil || !got.StartTime.Equal(start) {
		t.Errorf("start time = %v, want %v", got.StartTime, start)
	}
	if got.CreatedByID != nil {
		t.Errorf("created_by = %v, want nil for external event", *got.CreatedByID)
	}
}

func TestInsertNullableFields(t *testing.T) {
	repo := testRepo(t)

	saved, err := repo.Insert(&Event{Name: "Bare Event", Source: "NYC", IsPublic: true})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := repo.GetByID(saved.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.StartTime != nil || got.EndTime != nil {
		t.Error("expected nil start/end times")
	}
	if got.EventType != "" || got.Borough != "" {
		t.Errorf("type/borough = %q/%q, want empty", got.EventType, got.Borough)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	repo := testRepo(t)

	_, err := repo.GetByID(9999)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("err = %v, want not-found", err)
	}
}

func TestSearch(t *testing.T) {
	repo := testRepo(t)

	base := time.Date(2026, time.July, 1, 10, 0, 0, 0, time.UTC)
	seed := []*Event{
		{Name: "Brooklyn Parade", EventType: "Parade", Borough: "Brooklyn", StartTime: timePtr(base), Source: "NYC", IsPublic: true},
		{Name: "Queens Market", EventType: "Farmers Market", Borough: "Queens", StartTime: timePtr(base.AddDate(0, 0, 10)), Source: "NYC", IsPublic: true},
		{Name: "Bronx Block Party", EventType: "Block Party", Borough: "Bronx", StartTime: timePtr(base.AddDate(0, 0, 20)), Source: "NYC", IsPublic: true},
		{Name: "Undated Gathering", EventType: "Street Event", Borough: "Queens", Source: "NYC", IsPublic: true},
	}
	for _, e := range seed {
		if _, err := repo.Insert(e); err != nil {
			t.Fatalf("insert %q: %v", e.Name, err)
		}
	}

	tests := []struct {
		name string
		opts SearchOptions
		want []string
	}{
		{
			name: "no filters returns everything",
			opts: SearchOptions{},
			want: []string{"Brooklyn Parade", "Queens Market", "Bronx Block Party", "Undated Gathering"},
		},
		{
			name: "keyword is substring match",
			opts: SearchOptions{Keyword: "parade"},
			want: []string{"Brooklyn Parade"},
		},
		{
			name: "borough filter",
			opts: SearchOptions{Boroughs: []string{"Queens"}},
			want: []string{"Queens Market", "Undated Gathering"},
		},
		{
			name: "borough all skips filter",
			opts: SearchOptions{Boroughs: []string{"all"}},
			want: []string{"Brooklyn Parade", "Queens Market", "Bronx Block Party", "Undated Gathering"},
		},
		{
			name: "event type filter",
			opts: SearchOptions{EventTypes: []string{"Parade", "Block Party"}},
			want: []string{"Brooklyn Parade", "Bronx Block Party"},
		},
		{
			name: "date range drops undated events",
			opts: SearchOptions{StartDate: "2026-07-05", EndDate: "2026-07-15"},
			want: []string{"Queens Market"},
		},
		{
			name: "combined filters",
			opts: SearchOptions{Keyword: "market", Boroughs: []string{"Queens"}},
			want: []string{"Queens Market"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.Search(tt.opts)
			if err != nil {
				t.Fatalf("search: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d events, want %d", len(got), len(tt.want))
			}
			names := make(map[string]bool, len(got))
			for _, e := range got {
				names[e.Name] = true
			}
			for _, want := range tt.want {
				if !names[want] {
					t.Errorf("missing %q in results", want)
				}
			}
		})
	}
}

func TestSearchBadDate(t *testing.T) {
	repo := testRepo(t)

	_, err := repo.Search(SearchOptions{StartDate: "July 4"})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("err = %v, want validation error", err)
	}
}

func TestSearchKeywordWildcardsEscaped(t *testing.T) {
	repo := testRepo(t)

	if _, err := repo.Insert(&Event{Name: "Plain Event", Source: "NYC", IsPublic: true}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := repo.Search(SearchOptions{Keyword: "%"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d events for literal %%, want 0", len(got))
	}
}

func TestDistinct(t *testing.T) {
	repo := testRepo(t)

	seed := []*Event{
		{Name: "One", EventType: "Parade", Borough: "Brooklyn", Source: "NYC", IsPublic: true},
		{Name: "Two", EventType: "Parade", Borough: "Queens", Source: "NYC", IsPublic: true},
		{Name: "Three", EventType: "Clean-Up", Borough: "Queens", Source: "NYC", IsPublic: true},
		{Name: "Four", Source: "NYC", IsPublic: true},
	}
	for _, e := range seed {
		if _, err := repo.Insert(e); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	types, err := repo.DistinctEventTypes()
	if err != nil {
		t.Fatalf("distinct types: %v", err)
	}
	if len(types) != 2 {
		t.Errorf("got %d types %v, want 2", len(types), types)
	}

	boroughs, err := repo.DistinctBoroughs()
	if err != nil {
		t.Fatalf("distinct boroughs: %v", err)
	}
	if len(boroughs) != 2 {
		t.Errorf("got %d boroughs %v, want 2", len(boroughs), boroughs)
	}
}

func TestSavedByUser(t *testing.T) {
	d, err := db.Open(filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close test db: %v", err)
		}
	})
	repo := NewRepository(d)

	res, err := d.Exec(
		`INSERT INTO users (username, lower_username, first_name, last_name, email, password_hash)
		 VALUES ('alice1', 'alice1', 'Alice', 'Smith', 'alice@example.com', 'x')`,
	)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	userID, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("user id: %v", err)
	}

	base := time.Date(2030, time.June, 1, 10, 0, 0, 0, time.UTC)
	first, err := repo.Insert(sampleEvent("First Saved", base))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	second, err := repo.Insert(sampleEvent("Second Saved", base.AddDate(0, 0, 1)))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := repo.Insert(sampleEvent("Never Saved", base.AddDate(0, 0, 2))); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// Save the second event before the first; the read must follow save
	// order, not event order.
	for _, id := range []int64{second.ID, first.ID} {
		if _, err := d.Exec("INSERT INTO saved_events (user_id, event_id) VALUES (?, ?)", userID, id); err != nil {
			t.Fatalf("save event %d: %v", id, err)
		}
	}

	got, err := repo.SavedByUser(userID)
	if err != nil {
		t.Fatalf("saved by user: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	if got[0].Name != "Second Saved" || got[1].Name != "First Saved" {
		t.Errorf("order = [%q, %q], want save order", got[0].Name, got[1].Name)
	}

	none, err := repo.SavedByUser(userID + 1)
	if err != nil {
		t.Fatalf("saved by other user: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("got %d events for user with no saves, want 0", len(none))
	}
}

func TestReplaceBySource(t *testing.T) {
	repo := testRepo(t)

	if _, err := repo.Insert(&Event{Name: "Old NYC Event", Source: "NYC", IsPublic: true}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	userEvent, err := repo.Insert(&Event{Name: "User Event", Source: "user:1", IsPublic: true})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	n, err := repo.ReplaceBySource("NYC", []*Event{
		{Name: "Fresh One", IsPublic: true},
		{Name: "Fresh Two", IsPublic: true},
	})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if n != 2 {
		t.Errorf("inserted %d, want 2", n)
	}

	all, err := repo.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d events, want 3 (user event must survive)", len(all))
	}
	names := make(map[string]bool)
	for _, e := range all {
		names[e.Name] = true
	}
	if names["Old NYC Event"] {
		t.Error("old NYC event should be gone")
	}
	if !names["User Event"] {
		t.Error("user event should survive")
	}

	// The user event keeps its identity across the replace.
	if _, err := repo.GetByID(userEvent.ID); err != nil {
		t.Errorf("user event lookup: %v", err)
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
