// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the domain records and configuration shared across stages.
package types

// Restaurant is a place resolved through the search provider and persisted
// by the pipeline. The internal ID is stable across requests; PlaceID is the
// provider's identifier and the dedup key.
type Restaurant struct {
	// ID is the internal identifier, derived deterministically from PlaceID.
	ID string `json:"id" yaml:"id"`

	// PlaceID is the external place identifier (unique per provider place).
	PlaceID string `json:"placeId" yaml:"place_id"`

	// Name is the display name reported by the provider.
	Name string `json:"name" yaml:"name"`

	// Address is the formatted address reported by the provider.
	Address string `json:"address" yaml:"address"`

	// PhotoURL is a resolved photo URL, empty when the provider returned none.
	PhotoURL string `json:"photoUrl" yaml:"photo_url"`

	// CityID is the identifier of the city the restaurant was searched in.
	CityID string `json:"cityId" yaml:"city_id"`
}

// RestaurantReport is the AI-derived quality report for one restaurant.
// Scores are 0-100 and nil when the report is a neutral placeholder created
// without review evidence. A report with every score nil is not usable for
// ranking.
type RestaurantReport struct {
	RestaurantID string `json:"restaurantId" yaml:"restaurant_id"`

	TasteScore         *float64 `json:"tasteScore" yaml:"taste_score"`
	PriceScore         *float64 `json:"priceScore" yaml:"price_score"`
	AtmosphereScore    *float64 `json:"atmosphereScore" yaml:"atmosphere_score"`
	ServiceScore       *float64 `json:"serviceScore" yaml:"service_score"`
	QuantityScore      *float64 `json:"quantityScore" yaml:"quantity_score"`
	AccessibilityScore *float64 `json:"accessibilityScore" yaml:"accessibility_score"`

	// AISummary is a 2-3 sentence summary grounded in explicit review content.
	AISummary *string `json:"aiSummary" yaml:"ai_summary"`

	// PositiveKeywords and NegativeKeywords are evidence-backed keywords
	// extracted from reviews; nil for placeholder reports.
	PositiveKeywords []string `json:"positiveKeywords,omitempty" yaml:"positive_keywords,omitempty"`
	NegativeKeywords []string `json:"negativeKeywords,omitempty" yaml:"negative_keywords,omitempty"`

	// Confidence is the analyzer's 0-100 confidence in the report. It is
	// recorded but never used for ranking.
	Confidence *float64 `json:"confidence,omitempty" yaml:"confidence,omitempty"`
}

// Usable reports whether the report carries at least one non-nil attribute
// score, the condition for a restaurant to participate in ranking.
func (r *RestaurantReport) Usable() bool {
	for _, s := range r.Scores() {
		if s != nil {
			return true
		}
	}
	return false
}

// Scores returns the six attribute scores in canonical order: taste, price,
// atmosphere, service, quantity, accessibility.
func (r *RestaurantReport) Scores() [6]*float64 {
	return [6]*float64{
		r.TasteScore,
		r.PriceScore,
		r.AtmosphereScore,
		r.ServiceScore,
		r.QuantityScore,
		r.AccessibilityScore,
	}
}

// ReviewData carries the review texts collected for one restaurant. It is
// transient: an empty Reviews slice is the designed input for the neutral
// placeholder report, not an error.
type ReviewData struct {
	RestaurantID string   `json:"restaurant_id" yaml:"restaurant_id"`
	Reviews      []string `json:"reviews" yaml:"reviews"`
}

// PrioritySettings holds the user's priority rank for each scoring attribute.
// Rank 0 means unranked; ranks 1-3 mean first through third priority.
type PrioritySettings struct {
	Taste         int `json:"taste" yaml:"taste"`
	Price         int `json:"price" yaml:"price"`
	Atmosphere    int `json:"atmosphere" yaml:"atmosphere"`
	Accessibility int `json:"accessibility" yaml:"accessibility"`
	Service       int `json:"service" yaml:"service"`
	Quantity      int `json:"quantity" yaml:"quantity"`
}

// Ranks returns the six priority ranks in the canonical attribute order
// matching RestaurantReport.Scores.
func (p PrioritySettings) Ranks() [6]int {
	return [6]int{p.Taste, p.Price, p.Atmosphere, p.Service, p.Quantity, p.Accessibility}
}

// ScoredRestaurant pairs a restaurant and its report with the computed final
// score and 1-based rank. Produced fresh per request, never persisted.
type ScoredRestaurant struct {
	Restaurant Restaurant       `json:"restaurant" yaml:"restaurant"`
	Report     RestaurantReport `json:"report" yaml:"report"`
	FinalScore float64          `json:"finalScore" yaml:"final_score"`
	Rank       int              `json:"rank" yaml:"rank"`
}

// City identifies the city a recommendation request is scoped to.
type City struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Country string `json:"country,omitempty" yaml:"country,omitempty"`
}

// Food identifies the food a recommendation request is scoped to.
type Food struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// RecommendationRequest is the inbound request shape for one pipeline run.
type RecommendationRequest struct {
	City       City             `json:"city" yaml:"city"`
	Food       Food             `json:"food" yaml:"food"`
	Priorities PrioritySettings `json:"priorities" yaml:"priorities"`
}
