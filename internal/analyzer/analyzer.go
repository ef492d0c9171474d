// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analyzer turns collected review texts into a structured restaurant
// report via a Generative AI API. The backend is an interface per the
// Strategy pattern so tests can supply a mock.
package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/pdiddy/tablerank/pkg/types"
)

const (
	defaultTimeout    = 15 * time.Second
	defaultMaxRetries = 3
)

// Backend abstracts the chat-completion API. It returns the model's raw text
// response for one (system, user) prompt pair.
type Backend interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Analyzer runs review analysis with a hard per-restaurant deadline. A slow
// or failing model call never blocks the pipeline past the configured
// timeout.
type Analyzer struct {
	backend Backend
	cfg     types.AnalysisConfig
}

// New builds an analyzer. Zero-valued timeout and retry settings take their
// defaults.
func New(backend Backend, cfg types.AnalysisConfig) *Analyzer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	return &Analyzer{backend: backend, cfg: cfg}
}

// Analyze produces a report for one restaurant from its review texts. It
// requires at least one review; restaurants without reviews get a neutral
// placeholder report elsewhere and must not reach the model.
func (a *Analyzer) Analyze(ctx context.Context, restaurant types.Restaurant, reviews []string) (*types.RestaurantReport, error) {
	if len(reviews) == 0 {
		return nil, fmt.Errorf("no reviews to analyze for %s", restaurant.Name)
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	user, err := renderPrompt(restaurant.Name, reviews)
	if err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}

	raw, err := completeWithRetry(ctx, a.backend, systemPrompt, user, a.cfg.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("analyzing %s: %w", restaurant.Name, err)
	}

	report, err := ParseReport(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing analysis for %s: %w", restaurant.Name, err)
	}
	report.RestaurantID = restaurant.ID
	return report, nil
}

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// completeWithRetry calls the backend with exponential backoff.
func completeWithRetry(ctx context.Context, backend Backend, system, user string, maxRetries int) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		raw, err := backend.Complete(ctx, system, user)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", fmt.Errorf("analysis deadline exceeded: %w", lastErr)
		}
	}
	return "", fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}

// aiReport is the JSON shape the model is instructed to return.
type aiReport struct {
	Scores           aiScores `json:"scores"`
	Summary          *string  `json:"summary"`
	PositiveKeywords []string `json:"positiveKeywords"`
	NegativeKeywords []string `json:"negativeKeywords"`
	Confidence       *float64 `json:"confidence"`
}

type aiScores struct {
	Taste         *float64 `json:"taste"`
	Price         *float64 `json:"price"`
	Atmosphere    *float64 `json:"atmosphere"`
	Service       *float64 `json:"service"`
	Quantity      *float64 `json:"quantity"`
	Accessibility *float64 `json:"accessibility"`
}

// ParseReport validates the model's raw text response and converts it to a
// report. Markdown code fences around the JSON are tolerated; a missing score
// or summary field is a validation error. Keyword arrays and confidence are
// nullable in the stored report, so absent ones pass through as nil.
func ParseReport(raw string) (*types.RestaurantReport, error) {
	cleaned := stripCodeFences(raw)

	var resp aiReport
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return nil, fmt.Errorf("invalid response JSON: %w", err)
	}

	scores := []*float64{
		resp.Scores.Taste, resp.Scores.Price, resp.Scores.Atmosphere,
		resp.Scores.Service, resp.Scores.Quantity, resp.Scores.Accessibility,
	}
	names := []string{"taste", "price", "atmosphere", "service", "quantity", "accessibility"}
	for i, s := range scores {
		if s == nil {
			return nil, fmt.Errorf("response missing %s score", names[i])
		}
		*s = clamp(*s, 0, 100)
	}

	if resp.Summary == nil || strings.TrimSpace(*resp.Summary) == "" {
		return nil, fmt.Errorf("response missing summary")
	}
	if resp.Confidence != nil {
		*resp.Confidence = clamp(*resp.Confidence, 0, 100)
	}

	return &types.RestaurantReport{
		TasteScore:         resp.Scores.Taste,
		PriceScore:         resp.Scores.Price,
		AtmosphereScore:    resp.Scores.Atmosphere,
		ServiceScore:       resp.Scores.Service,
		QuantityScore:      resp.Scores.Quantity,
		AccessibilityScore: resp.Scores.Accessibility,
		AISummary:          resp.Summary,
		PositiveKeywords:   resp.PositiveKeywords,
		NegativeKeywords:   resp.NegativeKeywords,
		Confidence:         resp.Confidence,
	}, nil
}

// stripCodeFences removes a surrounding Markdown code fence, with or without
// a language tag, from the model output.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		// Drop the language tag line (e.g. "json").
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
