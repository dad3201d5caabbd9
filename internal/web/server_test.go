package web

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/ereinhol/nycevents/internal/db"
)

func newTestServer(t *testing.T) (*Server, *sql.DB) {
	t.Helper()
	return newTestServerOpts(t, Options{})
}

func newTestServerOpts(t *testing.T, opts Options) (*Server, *sql.DB) {
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
	return NewServer(d, opts), d
}

// doJSON performs a request with an optional JSON body and session cookie.
func doJSON(t *testing.T, s *Server, method, path string, body interface{}, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	r := httptest.NewRequest(method, path, &buf)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		r.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	s.ServeHTTP(w, r)
	return w
}

// registerUser registers an account and returns its session cookie and ID.
func registerUser(t *testing.T, s *Server, username string) (*http.Cookie, int64) {
	t.Helper()

	w := doJSON(t, s, "POST", "/api/register", map[string]string{
		"username":   username,
		"first_name": "Test",
		"last_name":  "User",
		"email":      username + "@example.com",
		"password":   "Password1!",
	}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d: %s", username, w.Code, w.Body.String())
	}

	var u struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &u); err != nil {
		t.Fatalf("decode register response: %v", err)
	}

	for _, c := range w.Result().Cookies() {
		if c.Name == "nye_session" {
			return c, u.ID
		}
	}
	t.Fatal("register did not set a session cookie")
	return nil, 0
}

// createEvent posts an event through the API and returns its ID.
func createEvent(t *testing.T, s *Server, cookie *http.Cookie, name, eventType, borough, start string) int64 {
	t.Helper()

	w := doJSON(t, s, "POST", "/api/events", map[string]interface{}{
		"name":       name,
		"event_type": eventType,
		"borough":    borough,
		"location":   "Eastern Parkway",
		"start_time": start,
		"end_time":   "2030-12-31 23:00:00",
		"is_public":  true,
	}, cookie)
	if w.Code != http.StatusCreated {
		t.Fatalf("create event %s: status %d: %s", name, w.Code, w.Body.String())
	}

	var e struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	return e.ID
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)

	w := doJSON(t, s, "GET", "/health", nil, nil)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
}

func TestRegisterLoginLogout(t *testing.T) {
	s, _ := newTestServer(t)

	cookie, _ := registerUser(t, s, "alice1")
	if cookie.Value == "" {
		t.Fatal("empty session cookie")
	}

	// Duplicate username is a validation failure.
	w := doJSON(t, s, "POST", "/api/register", map[string]string{
		"username":   "ALICE1",
		"first_name": "Other",
		"last_name":  "User",
		"email":      "other@example.com",
		"password":   "Password1!",
	}, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("duplicate register status = %d", w.Code)
	}

	// Login with the right and wrong password.
	w = doJSON(t, s, "POST", "/api/login", map[string]string{
		"username": "alice1", "password": "Password1!",
	}, nil)
	if w.Code != http.StatusOK {
		t.Errorf("login status = %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, s, "POST", "/api/login", map[string]string{
		"username": "alice1", "password": "WrongPass1!",
	}, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad login status = %d", w.Code)
	}

	// Logout invalidates the session.
	w = doJSON(t, s, "POST", "/api/logout", nil, cookie)
	if w.Code != http.StatusOK {
		t.Errorf("logout status = %d", w.Code)
	}
	w = doJSON(t, s, "POST", "/api/events", map[string]string{"name": "x"}, cookie)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("post-logout create status = %d, want 401", w.Code)
	}
}

func TestRegisterValidation(t *testing.T) {
	s, _ := newTestServer(t)

	w := doJSON(t, s, "POST", "/api/register", map[string]string{
		"username":   "bob",
		"first_name": "Bob",
		"last_name":  "Jones",
		"email":      "bob@example.com",
		"password":   "Password1!",
	}, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("short username status = %d, want 400", w.Code)
	}
}

func TestCreateEventRequiresAuth(t *testing.T) {
	s, _ := newTestServer(t)

	w := doJSON(t, s, "POST", "/api/events", map[string]string{"name": "Parade"}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestCreateEventValidation(t *testing.T) {
	s, _ := newTestServer(t)
	cookie, _ := registerUser(t, s, "alice1")

	w := doJSON(t, s, "POST", "/api/events", map[string]interface{}{
		"name":       "Warehouse Rave",
		"event_type": "Rave",
		"borough":    "Brooklyn",
		"start_time": "2030-06-01 22:00:00",
		"end_time":   "2030-06-02 04:00:00",
	}, cookie)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400: %s", w.Code, w.Body.String())
	}
}

func TestSearchEvents(t *testing.T) {
	s, _ := newTestServer(t)
	cookie, _ := registerUser(t, s, "alice1")

	createEvent(t, s, cookie, "Brooklyn Parade", "Parade", "Brooklyn", "2030-06-01 10:00:00")
	createEvent(t, s, cookie, "Queens Market", "Farmers Market", "Queens", "2030-06-02 08:00:00")

	w := doJSON(t, s, "GET", "/api/events?borough=Brooklyn", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var events []struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &events); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(events) != 1 || events[0].Name != "Brooklyn Parade" {
		t.Errorf("events = %+v", events)
	}

	// Bad date filter is a validation failure.
	w = doJSON(t, s, "GET", "/api/events?start_date=tomorrow", nil, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad date status = %d", w.Code)
	}
}

func TestGetEvent(t *testing.T) {
	s, _ := newTestServer(t)
	cookie, _ := registerUser(t, s, "alice1")
	id := createEvent(t, s, cookie, "SummerStage", "Special Event", "Manhattan", "2030-07-01 18:00:00")

	w := doJSON(t, s, "GET", fmt.Sprintf("/api/events/%d", id), nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp struct {
		Event struct {
			Name string `json:"name"`
		} `json:"event"`
		Comments []interface{} `json:"comments"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Event.Name != "SummerStage" {
		t.Errorf("name = %q", resp.Event.Name)
	}
	if resp.Comments == nil || len(resp.Comments) != 0 {
		t.Errorf("comments = %v, want empty array", resp.Comments)
	}

	w = doJSON(t, s, "GET", "/api/events/99999", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing event status = %d", w.Code)
	}

	w = doJSON(t, s, "GET", "/api/events/abc", nil, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d", w.Code)
	}
}

func TestCommentLifecycle(t *testing.T) {
	s, _ := newTestServer(t)
	alice, _ := registerUser(t, s, "alice1")
	bob, _ := registerUser(t, s, "bobby2")
	id := createEvent(t, s, alice, "Night Market", "Street Event", "Queens", "2030-08-01 17:00:00")

	commentsPath := fmt.Sprintf("/api/events/%d/comments", id)

	// Anonymous posting is rejected.
	w := doJSON(t, s, "POST", commentsPath, map[string]string{"text": "hi"}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous comment status = %d", w.Code)
	}

	// Alice posts a root comment, Bob replies.
	w = doJSON(t, s, "POST", commentsPath, map[string]string{"text": "Anyone going?"}, alice)
	if w.Code != http.StatusCreated {
		t.Fatalf("comment status = %d: %s", w.Code, w.Body.String())
	}
	var root struct {
		ID         string `json:"id"`
		AuthorName string `json:"author_name"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &root); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if root.AuthorName != "alice1" {
		t.Errorf("author = %q", root.AuthorName)
	}

	w = doJSON(t, s, "POST", commentsPath, map[string]interface{}{
		"text": "Yes!", "parent_id": root.ID,
	}, bob)
	if w.Code != http.StatusCreated {
		t.Fatalf("reply status = %d: %s", w.Code, w.Body.String())
	}

	// Reply to an unknown parent fails.
	w = doJSON(t, s, "POST", commentsPath, map[string]interface{}{
		"text": "orphan", "parent_id": "nope",
	}, bob)
	if w.Code != http.StatusNotFound {
		t.Errorf("bad parent status = %d", w.Code)
	}

	// The tree nests the reply under the root.
	w = doJSON(t, s, "GET", commentsPath, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var tree []struct {
		ID       string `json:"id"`
		Children []struct {
			Text string `json:"text"`
		} `json:"children"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &tree); err != nil {
		t.Fatalf("decode tree: %v", err)
	}
	if len(tree) != 1 || len(tree[0].Children) != 1 || tree[0].Children[0].Text != "Yes!" {
		t.Errorf("tree = %+v", tree)
	}

	// Bob cannot delete Alice's comment.
	deletePath := commentsPath + "/" + root.ID
	w = doJSON(t, s, "DELETE", deletePath, nil, bob)
	if w.Code != http.StatusForbidden {
		t.Errorf("non-owner delete status = %d", w.Code)
	}

	// Alice deletes her comment; the reply goes with it.
	w = doJSON(t, s, "DELETE", deletePath, nil, alice)
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, s, "GET", commentsPath, nil, nil)
	var remaining []interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &remaining); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("remaining comments = %v", remaining)
	}

	// Deleting again is a 404.
	w = doJSON(t, s, "DELETE", deletePath, nil, alice)
	if w.Code != http.StatusNotFound {
		t.Errorf("repeat delete status = %d", w.Code)
	}
}

func TestSaveUnsave(t *testing.T) {
	s, _ := newTestServer(t)
	cookie, _ := registerUser(t, s, "alice1")
	id := createEvent(t, s, cookie, "Block Party", "Block Party", "Bronx", "2030-08-15 12:00:00")

	savePath := fmt.Sprintf("/api/events/%d/save", id)

	w := doJSON(t, s, "POST", savePath, nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous save status = %d", w.Code)
	}

	w = doJSON(t, s, "POST", savePath, nil, cookie)
	if w.Code != http.StatusOK {
		t.Errorf("save status = %d: %s", w.Code, w.Body.String())
	}

	// Saving a missing event is a 404.
	w = doJSON(t, s, "POST", "/api/events/99999/save", nil, cookie)
	if w.Code != http.StatusNotFound {
		t.Errorf("save missing event status = %d", w.Code)
	}

	w = doJSON(t, s, "DELETE", savePath, nil, cookie)
	if w.Code != http.StatusOK {
		t.Errorf("unsave status = %d", w.Code)
	}
}

func TestSavedEventsList(t *testing.T) {
	nominatim := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := fmt.Fprint(w, `[{"lat": "40.6694", "lon": "-73.9422"}]`); err != nil {
			t.Errorf("write response: %v", err)
		}
	}))
	defer nominatim.Close()

	s, _ := newTestServerOpts(t, Options{GeocodeURL: nominatim.URL})

	w := doJSON(t, s, "GET", "/api/saved", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want 401", w.Code)
	}

	cookie, _ := registerUser(t, s, "alice1")

	// No saves yet: empty array, not null.
	w = doJSON(t, s, "GET", "/api/saved", nil, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var empty []interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &empty); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("saved = %v, want empty array", empty)
	}

	first := createEvent(t, s, cookie, "Brooklyn Parade", "Parade", "Brooklyn", "2030-06-01 10:00:00")
	second := createEvent(t, s, cookie, "Queens Market", "Farmers Market", "Queens", "2030-06-02 08:00:00")
	createEvent(t, s, cookie, "Never Saved", "Block Party", "Bronx", "2030-06-03 12:00:00")

	// Save the second event first; the list must follow save order.
	for _, id := range []int64{second, first} {
		w = doJSON(t, s, "POST", fmt.Sprintf("/api/events/%d/save", id), nil, cookie)
		if w.Code != http.StatusOK {
			t.Fatalf("save %d: status %d: %s", id, w.Code, w.Body.String())
		}
	}

	w = doJSON(t, s, "GET", "/api/saved", nil, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var saved []struct {
		Event struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		} `json:"event"`
		Coordinates *struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"coordinates"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &saved); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(saved) != 2 {
		t.Fatalf("got %d saved events, want 2", len(saved))
	}
	if saved[0].Event.ID != second || saved[1].Event.ID != first {
		t.Errorf("order = [%q, %q], want save order", saved[0].Event.Name, saved[1].Event.Name)
	}
	for i, se := range saved {
		if se.Coordinates == nil {
			t.Errorf("saved[%d] has no coordinates", i)
			continue
		}
		if se.Coordinates.Latitude != 40.6694 {
			t.Errorf("saved[%d] latitude = %v", i, se.Coordinates.Latitude)
		}
	}
}

func TestRecommendations(t *testing.T) {
	s, _ := newTestServer(t)
	cookie, _ := registerUser(t, s, "alice1")

	for i := 0; i < 8; i++ {
		createEvent(t, s, cookie, fmt.Sprintf("Future Event %d", i), "Parade", "Brooklyn", "2030-09-01 10:00:00")
	}

	w := doJSON(t, s, "GET", "/api/recommendations", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d", w.Code)
	}

	w = doJSON(t, s, "GET", "/api/recommendations?limit=3", nil, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var events []interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &events); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(events) != 3 {
		t.Errorf("got %d recommendations, want 3", len(events))
	}

	w = doJSON(t, s, "GET", "/api/recommendations?limit=zero", nil, cookie)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d", w.Code)
	}
}

func TestFilters(t *testing.T) {
	s, _ := newTestServer(t)
	cookie, _ := registerUser(t, s, "alice1")
	createEvent(t, s, cookie, "Brooklyn Parade", "Parade", "Brooklyn", "2030-06-01 10:00:00")

	w := doJSON(t, s, "GET", "/api/filters", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp struct {
		Boroughs   []string `json:"boroughs"`
		EventTypes []string `json:"event_types"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Boroughs) != 1 || resp.Boroughs[0] != "Brooklyn" {
		t.Errorf("boroughs = %v", resp.Boroughs)
	}
	if len(resp.EventTypes) != 1 || resp.EventTypes[0] != "Parade" {
		t.Errorf("event types = %v", resp.EventTypes)
	}
}

func TestCoordinatesMissingEvent(t *testing.T) {
	s, _ := newTestServer(t)

	w := doJSON(t, s, "GET", "/api/events/99999/coordinates", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s, _ := newTestServer(t)

	w := doJSON(t, s, "DELETE", "/api/register", nil, nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}
