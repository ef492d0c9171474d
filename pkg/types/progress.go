// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ProgressStep names one pipeline stage in the progress protocol.
type ProgressStep string

const (
	StepSearchRestaurants ProgressStep = "SEARCH_RESTAURANTS"
	StepCollectReviews    ProgressStep = "COLLECT_REVIEWS"
	StepAnalyzeReports    ProgressStep = "ANALYZE_REPORTS"
	StepCalculateScores   ProgressStep = "CALCULATE_SCORES"
)

// ProgressStatus is the lifecycle state of one step. Each step emits exactly
// one running event followed by exactly one completed or error event.
type ProgressStatus string

const (
	StatusRunning   ProgressStatus = "running"
	StatusCompleted ProgressStatus = "completed"
	StatusError     ProgressStatus = "error"
)

// Event types on the stream.
const (
	EventProgress = "progress"
	EventResult   = "result"
	EventError    = "error"
)

// Event is one frame on the progress stream. Progress events carry step and
// status; the single terminal frame is either a result event carrying the
// payload or an error event carrying a message.
type Event struct {
	Type    string                  `json:"type"`
	Step    ProgressStep            `json:"step,omitempty"`
	Status  ProgressStatus          `json:"status,omitempty"`
	Meta    map[string]any          `json:"meta,omitempty"`
	Message string                  `json:"message,omitempty"`
	Payload *RecommendationResponse `json:"payload,omitempty"`
}

// RecommendationItem is one ranked entry in the final payload.
type RecommendationItem struct {
	Rank       int               `json:"rank" yaml:"rank"`
	FinalScore float64           `json:"finalScore" yaml:"final_score"`
	Restaurant RestaurantResult  `json:"restaurant" yaml:"restaurant"`
	Report     ReportResult      `json:"report" yaml:"report"`
}

// RestaurantResult is the restaurant subset exposed in the final payload.
type RestaurantResult struct {
	ID       string `json:"id" yaml:"id"`
	PlaceID  string `json:"placeId" yaml:"place_id"`
	Name     string `json:"name" yaml:"name"`
	Address  string `json:"address" yaml:"address"`
	PhotoURL string `json:"photoUrl" yaml:"photo_url"`
}

// ReportResult is the report subset exposed in the final payload.
type ReportResult struct {
	TasteScore         *float64 `json:"tasteScore" yaml:"taste_score"`
	PriceScore         *float64 `json:"priceScore" yaml:"price_score"`
	AtmosphereScore    *float64 `json:"atmosphereScore" yaml:"atmosphere_score"`
	ServiceScore       *float64 `json:"serviceScore" yaml:"service_score"`
	QuantityScore      *float64 `json:"quantityScore" yaml:"quantity_score"`
	AccessibilityScore *float64 `json:"accessibilityScore" yaml:"accessibility_score"`
	AISummary          *string  `json:"aiSummary" yaml:"ai_summary"`
}

// RecommendationData wraps the ranked list in the final payload.
type RecommendationData struct {
	Recommendations []RecommendationItem `json:"recommendations" yaml:"recommendations"`
}

// RecommendationResponse is the final payload delivered in the result event.
type RecommendationResponse struct {
	Success bool               `json:"success" yaml:"success"`
	Data    RecommendationData `json:"data" yaml:"data"`
	Message string             `json:"message" yaml:"message"`
}
