// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists restaurants, their food associations, and their
// AI-derived quality reports in SQLite. All writes are idempotent upserts
// keyed on stable natural keys (external place id for restaurants, internal
// restaurant id for reports), so concurrent requests for overlapping
// restaurants converge without locking.
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/tablerank/pkg/types"
)

// Store manages the report database. Construct it once at process start and
// Close it on shutdown; hand it to the pipeline explicitly.
type Store struct {
	db *sql.DB
}

// New opens or creates the SQLite database at cfg.Path, creating parent
// directories and the schema as needed.
func New(cfg types.StoreConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = filepath.Join("data", "tablerank.db")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS restaurants (
			id TEXT PRIMARY KEY,
			place_id TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			address TEXT,
			photo_url TEXT,
			city_id TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS restaurant_foods (
			restaurant_id TEXT NOT NULL REFERENCES restaurants(id),
			food_id TEXT NOT NULL,
			PRIMARY KEY (restaurant_id, food_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_restaurant_foods_food ON restaurant_foods(food_id)`,
		`CREATE TABLE IF NOT EXISTS restaurant_reports (
			restaurant_id TEXT PRIMARY KEY REFERENCES restaurants(id),
			taste_score REAL,
			price_score REAL,
			atmosphere_score REAL,
			service_score REAL,
			quantity_score REAL,
			accessibility_score REAL,
			ai_summary TEXT,
			positive_keywords TEXT,
			negative_keywords TEXT,
			confidence REAL,
			created_at TEXT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RestaurantID derives the stable internal id for a place: the first 12 hex
// characters of SHA-256(placeID). The same place always resolves to the same
// internal id, which is what makes the search upsert idempotent.
func RestaurantID(placeID string) string {
	h := sha256.Sum256([]byte(placeID))
	return fmt.Sprintf("%x", h)[:12]
}

// UpsertRestaurant inserts the restaurant or refreshes its cached display
// fields when the place id is already known. It fills in r.ID.
func (s *Store) UpsertRestaurant(ctx context.Context, r *types.Restaurant) error {
	r.ID = RestaurantID(r.PlaceID)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO restaurants (id, place_id, name, address, photo_url, city_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(place_id) DO UPDATE SET
			name=excluded.name, address=excluded.address, photo_url=excluded.photo_url`,
		r.ID, r.PlaceID, r.Name, r.Address, r.PhotoURL, r.CityID,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting restaurant %s: %w", r.PlaceID, err)
	}
	return nil
}

// LinkFood records the restaurant-food association. Re-linking an existing
// pair is a no-op.
func (s *Store) LinkFood(ctx context.Context, restaurantID, foodID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO restaurant_foods (restaurant_id, food_id) VALUES (?, ?)`,
		restaurantID, foodID,
	)
	if err != nil {
		return fmt.Errorf("linking restaurant %s to food %s: %w", restaurantID, foodID, err)
	}
	return nil
}

// CreateReportIfAbsent persists the report unless one already exists for the
// restaurant, and returns the stored report either way. Reports are never
// overwritten once created.
func (s *Store) CreateReportIfAbsent(ctx context.Context, report *types.RestaurantReport) (*types.RestaurantReport, error) {
	positive, _ := json.Marshal(report.PositiveKeywords)
	negative, _ := json.Marshal(report.NegativeKeywords)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO restaurant_reports (
			restaurant_id, taste_score, price_score, atmosphere_score,
			service_score, quantity_score, accessibility_score,
			ai_summary, positive_keywords, negative_keywords, confidence, created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(restaurant_id) DO NOTHING`,
		report.RestaurantID,
		report.TasteScore, report.PriceScore, report.AtmosphereScore,
		report.ServiceScore, report.QuantityScore, report.AccessibilityScore,
		report.AISummary, string(positive), string(negative), report.Confidence,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting report for %s: %w", report.RestaurantID, err)
	}

	stored, err := s.reportByRestaurant(ctx, report.RestaurantID)
	if err != nil {
		return nil, fmt.Errorf("reading back report for %s: %w", report.RestaurantID, err)
	}
	return stored, nil
}

// RestaurantsByFoodWithUsableReport returns the restaurants associated with
// foodID whose report carries at least one non-null attribute score, together
// with those reports. These restaurants are already fully processed and skip
// review collection.
func (s *Store) RestaurantsByFoodWithUsableReport(ctx context.Context, foodID string) ([]types.Restaurant, []types.RestaurantReport, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.place_id, r.name, r.address, r.photo_url, r.city_id,
			p.restaurant_id, p.taste_score, p.price_score, p.atmosphere_score,
			p.service_score, p.quantity_score, p.accessibility_score,
			p.ai_summary, p.positive_keywords, p.negative_keywords, p.confidence
		 FROM restaurants r
		 JOIN restaurant_foods f ON f.restaurant_id = r.id
		 JOIN restaurant_reports p ON p.restaurant_id = r.id
		 WHERE f.food_id = ?
		   AND (p.taste_score IS NOT NULL OR p.price_score IS NOT NULL
			OR p.atmosphere_score IS NOT NULL OR p.service_score IS NOT NULL
			OR p.quantity_score IS NOT NULL OR p.accessibility_score IS NOT NULL)
		 ORDER BY r.id`,
		foodID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("querying restaurants for food %s: %w", foodID, err)
	}
	defer rows.Close()

	var restaurants []types.Restaurant
	var reports []types.RestaurantReport
	for rows.Next() {
		var r types.Restaurant
		var address, photoURL, cityID sql.NullString
		rep, scan := reportScanTargets()
		targets := append([]any{&r.ID, &r.PlaceID, &r.Name, &address, &photoURL, &cityID}, scan...)
		if err := rows.Scan(targets...); err != nil {
			return nil, nil, fmt.Errorf("scanning restaurant row: %w", err)
		}
		r.Address = address.String
		r.PhotoURL = photoURL.String
		r.CityID = cityID.String
		restaurants = append(restaurants, r)
		reports = append(reports, *rep)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterating restaurant rows: %w", err)
	}

	return restaurants, reports, nil
}

// RestaurantsByFood returns every restaurant associated with foodID and, when
// present, its report. Used by the store inspection CLI.
func (s *Store) RestaurantsByFood(ctx context.Context, foodID string) ([]types.Restaurant, map[string]types.RestaurantReport, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.place_id, r.name, r.address, r.photo_url, r.city_id
		 FROM restaurants r
		 JOIN restaurant_foods f ON f.restaurant_id = r.id
		 WHERE f.food_id = ?
		 ORDER BY r.name`,
		foodID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("querying restaurants for food %s: %w", foodID, err)
	}
	defer rows.Close()

	var restaurants []types.Restaurant
	for rows.Next() {
		var r types.Restaurant
		var address, photoURL, cityID sql.NullString
		if err := rows.Scan(&r.ID, &r.PlaceID, &r.Name, &address, &photoURL, &cityID); err != nil {
			return nil, nil, fmt.Errorf("scanning restaurant row: %w", err)
		}
		r.Address = address.String
		r.PhotoURL = photoURL.String
		r.CityID = cityID.String
		restaurants = append(restaurants, r)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterating restaurant rows: %w", err)
	}

	reports := make(map[string]types.RestaurantReport)
	for _, r := range restaurants {
		rep, err := s.reportByRestaurant(ctx, r.ID)
		if err != nil {
			return nil, nil, err
		}
		if rep != nil {
			reports[r.ID] = *rep
		}
	}

	return restaurants, reports, nil
}

// GetReports returns the stored reports for the given restaurant ids, keyed
// by restaurant id. Restaurants without a report are absent from the result.
func (s *Store) GetReports(ctx context.Context, ids []string) (map[string]types.RestaurantReport, error) {
	reports := make(map[string]types.RestaurantReport, len(ids))
	for _, id := range ids {
		rep, err := s.reportByRestaurant(ctx, id)
		if err != nil {
			return nil, err
		}
		if rep != nil {
			reports[id] = *rep
		}
	}
	return reports, nil
}

// reportByRestaurant reads one report row, or nil if none exists.
func (s *Store) reportByRestaurant(ctx context.Context, restaurantID string) (*types.RestaurantReport, error) {
	rep, scan := reportScanTargets()
	err := s.db.QueryRowContext(ctx,
		`SELECT restaurant_id, taste_score, price_score, atmosphere_score,
			service_score, quantity_score, accessibility_score,
			ai_summary, positive_keywords, negative_keywords, confidence
		 FROM restaurant_reports WHERE restaurant_id = ?`,
		restaurantID,
	).Scan(scan...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading report for %s: %w", restaurantID, err)
	}
	return rep, nil
}

// reportScanTargets returns a fresh report and the scan destinations for its
// row in column order. Keyword columns are decoded from JSON after Scan via
// the jsonSlice wrapper.
func reportScanTargets() (*types.RestaurantReport, []any) {
	rep := &types.RestaurantReport{}
	return rep, []any{
		&rep.RestaurantID,
		&rep.TasteScore, &rep.PriceScore, &rep.AtmosphereScore,
		&rep.ServiceScore, &rep.QuantityScore, &rep.AccessibilityScore,
		&rep.AISummary,
		&jsonSlice{dst: &rep.PositiveKeywords},
		&jsonSlice{dst: &rep.NegativeKeywords},
		&rep.Confidence,
	}
}

// jsonSlice scans a JSON-encoded string column into a string slice. NULL and
// "null" both decode to a nil slice.
type jsonSlice struct {
	dst *[]string
}

func (j *jsonSlice) Scan(src any) error {
	if src == nil {
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("unexpected keyword column type %T", src)
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, j.dst)
}
