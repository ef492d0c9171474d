// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pdiddy/tablerank/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(types.StoreConfig{Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func f(v float64) *float64 { return &v }

func str(v string) *string { return &v }

func TestRestaurantIDIsStable(t *testing.T) {
	a := RestaurantID("place-abc")
	b := RestaurantID("place-abc")
	c := RestaurantID("place-xyz")

	if a != b {
		t.Errorf("same place id must derive the same internal id: %s vs %s", a, b)
	}
	if a == c {
		t.Error("different place ids must not collide")
	}
	if len(a) != 12 {
		t.Errorf("internal id should be 12 hex chars, got %q", a)
	}
}

func TestUpsertRestaurantIsIdempotent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	r1 := types.Restaurant{PlaceID: "place-1", Name: "Seastar", Address: "1 Pier Rd", CityID: "city-1"}
	if err := s.UpsertRestaurant(ctx, &r1); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	// Second sighting of the same place refreshes display fields only.
	r2 := types.Restaurant{PlaceID: "place-1", Name: "Seastar Fish & Chips", Address: "1 Pier Rd", CityID: "city-1"}
	if err := s.UpsertRestaurant(ctx, &r2); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	if r1.ID != r2.ID {
		t.Errorf("same place id resolved to different internal ids: %s vs %s", r1.ID, r2.ID)
	}

	var count int
	if err := s.db.QueryRow(`SELECT count(*) FROM restaurants`).Scan(&count); err != nil {
		t.Fatalf("counting rows: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 restaurant row, got %d", count)
	}

	var name string
	if err := s.db.QueryRow(`SELECT name FROM restaurants WHERE place_id = ?`, "place-1").Scan(&name); err != nil {
		t.Fatalf("reading name: %v", err)
	}
	if name != "Seastar Fish & Chips" {
		t.Errorf("display fields should refresh on re-upsert, got %q", name)
	}
}

func TestLinkFoodIsIdempotent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	r := types.Restaurant{PlaceID: "place-1", Name: "Seastar"}
	if err := s.UpsertRestaurant(ctx, &r); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := s.LinkFood(ctx, r.ID, "food-1"); err != nil {
			t.Fatalf("link %d: %v", i, err)
		}
	}

	var count int
	if err := s.db.QueryRow(`SELECT count(*) FROM restaurant_foods`).Scan(&count); err != nil {
		t.Fatalf("counting rows: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 association row, got %d", count)
	}
}

func TestCreateReportIfAbsentNeverOverwrites(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	r := types.Restaurant{PlaceID: "place-1", Name: "Seastar"}
	if err := s.UpsertRestaurant(ctx, &r); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	first := &types.RestaurantReport{
		RestaurantID:     r.ID,
		TasteScore:       f(88),
		AISummary:        str("Crispy fish, generous portions."),
		PositiveKeywords: []string{"crispy fish"},
		Confidence:       f(80),
	}
	stored, err := s.CreateReportIfAbsent(ctx, first)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	if stored.TasteScore == nil || *stored.TasteScore != 88 {
		t.Fatalf("stored report lost taste score: %+v", stored)
	}

	// A later attempt must not replace the original.
	second := &types.RestaurantReport{RestaurantID: r.ID, TasteScore: f(10)}
	stored2, err := s.CreateReportIfAbsent(ctx, second)
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if stored2.TasteScore == nil || *stored2.TasteScore != 88 {
		t.Errorf("report was overwritten: got %+v", stored2.TasteScore)
	}
	if len(stored2.PositiveKeywords) != 1 || stored2.PositiveKeywords[0] != "crispy fish" {
		t.Errorf("keywords lost on re-create: %v", stored2.PositiveKeywords)
	}
}

func TestCreateNeutralPlaceholderReport(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	r := types.Restaurant{PlaceID: "place-1", Name: "Seastar"}
	if err := s.UpsertRestaurant(ctx, &r); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	stored, err := s.CreateReportIfAbsent(ctx, &types.RestaurantReport{RestaurantID: r.ID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if stored.Usable() {
		t.Error("placeholder report must have no usable score")
	}
	if stored.AISummary != nil {
		t.Errorf("placeholder report must have no summary, got %q", *stored.AISummary)
	}
}

func TestRestaurantsByFoodWithUsableReport(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	// scored: usable report. placeholder: report with all scores null.
	// bare: no report at all. other: usable report but different food.
	seed := []struct {
		placeID string
		foodID  string
		taste   *float64
		report  bool
	}{
		{"scored", "food-1", f(90), true},
		{"placeholder", "food-1", nil, true},
		{"bare", "food-1", nil, false},
		{"other", "food-2", f(70), true},
	}

	for _, row := range seed {
		r := types.Restaurant{PlaceID: row.placeID, Name: row.placeID}
		if err := s.UpsertRestaurant(ctx, &r); err != nil {
			t.Fatalf("upsert %s: %v", row.placeID, err)
		}
		if err := s.LinkFood(ctx, r.ID, row.foodID); err != nil {
			t.Fatalf("link %s: %v", row.placeID, err)
		}
		if row.report {
			rep := &types.RestaurantReport{RestaurantID: r.ID, TasteScore: row.taste}
			if _, err := s.CreateReportIfAbsent(ctx, rep); err != nil {
				t.Fatalf("report %s: %v", row.placeID, err)
			}
		}
	}

	restaurants, reports, err := s.RestaurantsByFoodWithUsableReport(ctx, "food-1")
	if err != nil {
		t.Fatalf("query: %v", err)
	}

	if len(restaurants) != 1 || len(reports) != 1 {
		t.Fatalf("expected exactly the scored restaurant, got %d restaurants, %d reports", len(restaurants), len(reports))
	}
	if restaurants[0].PlaceID != "scored" {
		t.Errorf("wrong restaurant returned: %s", restaurants[0].PlaceID)
	}
	if !reports[0].Usable() {
		t.Error("returned report must be usable")
	}
}

func TestGetReports(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	a := types.Restaurant{PlaceID: "a", Name: "A"}
	b := types.Restaurant{PlaceID: "b", Name: "B"}
	for _, r := range []*types.Restaurant{&a, &b} {
		if err := s.UpsertRestaurant(ctx, r); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}
	if _, err := s.CreateReportIfAbsent(ctx, &types.RestaurantReport{RestaurantID: a.ID, TasteScore: f(64)}); err != nil {
		t.Fatalf("report: %v", err)
	}

	reports, err := s.GetReports(ctx, []string{a.ID, b.ID, "missing"})
	if err != nil {
		t.Fatalf("get reports: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("expected 1 report, got %d", len(reports))
	}
	if rep, ok := reports[a.ID]; !ok || rep.TasteScore == nil || *rep.TasteScore != 64 {
		t.Errorf("report for a = %+v ok=%v", rep, ok)
	}
}

func TestRestaurantsByFoodIncludesUnreported(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	a := types.Restaurant{PlaceID: "a", Name: "A"}
	b := types.Restaurant{PlaceID: "b", Name: "B"}
	for _, r := range []*types.Restaurant{&a, &b} {
		if err := s.UpsertRestaurant(ctx, r); err != nil {
			t.Fatalf("upsert: %v", err)
		}
		if err := s.LinkFood(ctx, r.ID, "food-1"); err != nil {
			t.Fatalf("link: %v", err)
		}
	}
	if _, err := s.CreateReportIfAbsent(ctx, &types.RestaurantReport{RestaurantID: a.ID, TasteScore: f(50)}); err != nil {
		t.Fatalf("report: %v", err)
	}

	restaurants, reports, err := s.RestaurantsByFood(ctx, "food-1")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(restaurants) != 2 {
		t.Fatalf("expected both restaurants, got %d", len(restaurants))
	}
	if _, ok := reports[a.ID]; !ok {
		t.Error("expected a report for restaurant A")
	}
	if _, ok := reports[b.ID]; ok {
		t.Error("restaurant B has no report")
	}
}
