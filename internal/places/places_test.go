package places

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/tablerank/pkg/types"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(types.PlacesConfig{
		HTTPConfig: types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "tablerank-test"},
		APIKey:     "test-key",
		BaseURL:    server.URL,
	})
}

func TestSearchRestaurantsBuildsQuery(t *testing.T) {
	var gotQuery, gotLanguage, gotKey string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/textsearch/") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotQuery = r.URL.Query().Get("query")
		gotLanguage = r.URL.Query().Get("language")
		gotKey = r.URL.Query().Get("key")
		w.Write([]byte(`{"status":"OK","results":[]}`))
	})

	if _, err := c.SearchRestaurants(context.Background(), "Lisbon", "ramen"); err != nil {
		t.Fatalf("search: %v", err)
	}
	if gotQuery != "ramen restaurants in Lisbon" {
		t.Errorf("query = %q", gotQuery)
	}
	if gotLanguage != "en" {
		t.Errorf("language = %q", gotLanguage)
	}
	if gotKey != "test-key" {
		t.Errorf("key = %q", gotKey)
	}
}

func TestSearchRestaurantsCapsResults(t *testing.T) {
	body := `{"status":"OK","results":[
		{"place_id":"p1","name":"One","formatted_address":"1 St"},
		{"place_id":"p2","name":"Two"},
		{"place_id":"p3","name":"Three"},
		{"place_id":"p4","name":"Four"},
		{"place_id":"p5","name":"Five"},
		{"place_id":"p6","name":"Six"},
		{"place_id":"p7","name":"Seven"}
	]}`
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	})

	places, err := c.SearchRestaurants(context.Background(), "Lisbon", "ramen")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(places) != 5 {
		t.Fatalf("expected 5 places, got %d", len(places))
	}
	if places[0].PlaceID != "p1" || places[4].PlaceID != "p5" {
		t.Errorf("provider order not preserved: %s .. %s", places[0].PlaceID, places[4].PlaceID)
	}
	if places[0].Address != "1 St" {
		t.Errorf("address not mapped: %q", places[0].Address)
	}
}

func TestSearchRestaurantsZeroResults(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
	})

	places, err := c.SearchRestaurants(context.Background(), "Atlantis", "ramen")
	if err != nil {
		t.Fatalf("zero results must not be an error: %v", err)
	}
	if len(places) != 0 {
		t.Errorf("expected empty result, got %d places", len(places))
	}
}

func TestSearchRestaurantsProviderError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"REQUEST_DENIED"}`))
	})

	if _, err := c.SearchRestaurants(context.Background(), "Lisbon", "ramen"); err == nil {
		t.Fatal("expected error for REQUEST_DENIED status")
	}
}

func TestSearchRestaurantsRejectsEmptyInput(t *testing.T) {
	c := NewClient(types.PlacesConfig{APIKey: "k"})
	if _, err := c.SearchRestaurants(context.Background(), "", "ramen"); err == nil {
		t.Error("expected error for empty city")
	}
	if _, err := c.SearchRestaurants(context.Background(), "Lisbon", "  "); err == nil {
		t.Error("expected error for blank food")
	}
}

func TestReviewsRequestsReviewsField(t *testing.T) {
	var gotFields, gotPlaceID string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/details/") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotFields = r.URL.Query().Get("fields")
		gotPlaceID = r.URL.Query().Get("place_id")
		w.Write([]byte(`{"status":"OK","result":{"reviews":[
			{"author_name":"Ana","rating":5,"text":"Great broth.","time":1700000000},
			{"author_name":"Tomas","rating":3,"text":"Slow service."}
		]}}`))
	})

	reviews, err := c.Reviews(context.Background(), "place-1")
	if err != nil {
		t.Fatalf("reviews: %v", err)
	}
	if gotFields != "reviews" {
		t.Errorf("fields = %q", gotFields)
	}
	if gotPlaceID != "place-1" {
		t.Errorf("place_id = %q", gotPlaceID)
	}
	if len(reviews) != 2 {
		t.Fatalf("expected 2 reviews, got %d", len(reviews))
	}
	if reviews[0].Author != "Ana" || reviews[0].Rating != 5 {
		t.Errorf("first review mapped wrong: %+v", reviews[0])
	}
}

func TestReviewsEmptyForUnreviewedPlace(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"OK","result":{}}`))
	})

	reviews, err := c.Reviews(context.Background(), "place-1")
	if err != nil {
		t.Fatalf("reviews: %v", err)
	}
	if len(reviews) != 0 {
		t.Errorf("expected no reviews, got %d", len(reviews))
	}
}

func TestPhotoURL(t *testing.T) {
	c := NewClient(types.PlacesConfig{APIKey: "test-key", BaseURL: "https://example.com/place"})

	if got := c.PhotoURL(""); got != "" {
		t.Errorf("empty reference should yield empty URL, got %q", got)
	}

	got := c.PhotoURL("ref-123")
	if !strings.HasPrefix(got, "https://example.com/place/photo?") {
		t.Errorf("unexpected URL %q", got)
	}
	if !strings.Contains(got, "photoreference=ref-123") || !strings.Contains(got, "key=test-key") {
		t.Errorf("URL missing parameters: %q", got)
	}
}
