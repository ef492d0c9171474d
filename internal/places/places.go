// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package places adapts the Google Places API into the two provider
// boundaries the pipeline depends on: restaurant search and per-place review
// fetch. Both are interfaces per the Strategy pattern so tests can supply
// mocks.
package places

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/tablerank/internal/httputil"
	"github.com/pdiddy/tablerank/pkg/types"
)

// defaultAPIBase is the Google Places API base. Tests point
// PlacesConfig.BaseURL at an httptest server instead.
const defaultAPIBase = "https://maps.googleapis.com/maps/api/place"

const defaultMaxResults = 5

// Place is one search candidate as reported by the provider.
type Place struct {
	PlaceID        string
	Name           string
	Address        string
	PhotoReference string
	Rating         float64
	ReviewCount    int
	PriceLevel     int
	Lat            float64
	Lng            float64
}

// Review is one free-text review for a place.
type Review struct {
	Author string
	Rating int
	Text   string
	Time   int64
}

// SearchProvider resolves search candidates for a (city, food) pair. A
// provider-level failure is an error; zero matching places is a valid empty
// result.
type SearchProvider interface {
	SearchRestaurants(ctx context.Context, cityName, foodName string) ([]Place, error)
}

// ReviewProvider fetches the reviews for one place. A place with no reviews
// yields an empty slice, not an error; only transport or auth failures are
// errors.
type ReviewProvider interface {
	Reviews(ctx context.Context, placeID string) ([]Review, error)
}

// Client implements SearchProvider and ReviewProvider against the Google
// Places text search and details endpoints.
type Client struct {
	cfg    types.PlacesConfig
	client *http.Client
}

// NewClient builds a places client from the configuration.
func NewClient(cfg types.PlacesConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultAPIBase
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = defaultMaxResults
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// SearchRestaurants runs a text search for "{food} restaurants in {city}"
// and returns at most MaxResults candidates in the provider's relevance
// order. ZERO_RESULTS is an empty slice; any other non-OK provider status is
// an error.
func (c *Client) SearchRestaurants(ctx context.Context, cityName, foodName string) ([]Place, error) {
	if strings.TrimSpace(cityName) == "" || strings.TrimSpace(foodName) == "" {
		return nil, fmt.Errorf("city and food names are required")
	}

	query := fmt.Sprintf("%s restaurants in %s", foodName, cityName)
	params := url.Values{
		"query":    {query},
		"key":      {c.cfg.APIKey},
		"language": {"en"},
	}

	var tsr textSearchResponse
	if err := c.get(ctx, "/textsearch/json", params, &tsr); err != nil {
		return nil, err
	}

	switch tsr.Status {
	case "OK", "ZERO_RESULTS":
	default:
		return nil, fmt.Errorf("places API status %s", tsr.Status)
	}

	results := tsr.Results
	if len(results) > c.cfg.MaxResults {
		results = results[:c.cfg.MaxResults]
	}

	places := make([]Place, 0, len(results))
	for _, r := range results {
		p := Place{
			PlaceID:     r.PlaceID,
			Name:        r.Name,
			Address:     r.FormattedAddress,
			Rating:      r.Rating,
			ReviewCount: r.UserRatingsTotal,
			PriceLevel:  r.PriceLevel,
		}
		if len(r.Photos) > 0 {
			p.PhotoReference = r.Photos[0].PhotoReference
		}
		if r.Geometry != nil {
			p.Lat = r.Geometry.Location.Lat
			p.Lng = r.Geometry.Location.Lng
		}
		places = append(places, p)
	}
	return places, nil
}

// Reviews fetches the reviews field of a place's details. A place without
// reviews returns an empty slice.
func (c *Client) Reviews(ctx context.Context, placeID string) ([]Review, error) {
	if strings.TrimSpace(placeID) == "" {
		return nil, fmt.Errorf("place id is required")
	}

	params := url.Values{
		"place_id": {placeID},
		"fields":   {"reviews"},
		"key":      {c.cfg.APIKey},
		"language": {"en"},
	}

	var dr detailsResponse
	if err := c.get(ctx, "/details/json", params, &dr); err != nil {
		return nil, err
	}

	switch dr.Status {
	case "OK", "ZERO_RESULTS":
	default:
		return nil, fmt.Errorf("places API status %s", dr.Status)
	}

	reviews := make([]Review, 0, len(dr.Result.Reviews))
	for _, r := range dr.Result.Reviews {
		reviews = append(reviews, Review{
			Author: r.AuthorName,
			Rating: r.Rating,
			Text:   r.Text,
			Time:   r.Time,
		})
	}
	return reviews, nil
}

// PhotoURL resolves a photo reference into a fetchable URL, or "" when the
// place carried no photo.
func (c *Client) PhotoURL(photoReference string) string {
	if photoReference == "" {
		return ""
	}
	params := url.Values{
		"maxwidth":       {"400"},
		"photoreference": {photoReference},
		"key":            {c.cfg.APIKey},
	}
	return c.cfg.BaseURL + "/photo?" + params.Encode()
}

// get performs one provider call and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	reqURL := c.cfg.BaseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, c.client, req, c.cfg.MaxRetries)
	if err != nil {
		return fmt.Errorf("places API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("places API returned HTTP %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing places response: %w", err)
	}
	return nil
}

// Google Places API JSON structures.
type textSearchResponse struct {
	Status  string             `json:"status"`
	Results []textSearchResult `json:"results"`
}

type textSearchResult struct {
	PlaceID          string         `json:"place_id"`
	Name             string         `json:"name"`
	FormattedAddress string         `json:"formatted_address"`
	Rating           float64        `json:"rating"`
	UserRatingsTotal int            `json:"user_ratings_total"`
	PriceLevel       int            `json:"price_level"`
	Photos           []placePhoto   `json:"photos"`
	Geometry         *placeGeometry `json:"geometry"`
}

type placePhoto struct {
	PhotoReference string `json:"photo_reference"`
}

type placeGeometry struct {
	Location struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"location"`
}

type detailsResponse struct {
	Status string `json:"status"`
	Result struct {
		Reviews []detailsReview `json:"reviews"`
	} `json:"result"`
}

type detailsReview struct {
	AuthorName string `json:"author_name"`
	Rating     int    `json:"rating"`
	Text       string `json:"text"`
	Time       int64  `json:"time"`
}
