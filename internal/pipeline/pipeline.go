// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline orchestrates one recommendation run: search and dedup,
// review collection, report analysis, and scoring. Progress is streamed to a
// Sink as the stages advance, so the transport (SSE, CLI writer, test
// recorder) stays out of the orchestration logic.
package pipeline

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/tablerank/internal/places"
	"github.com/pdiddy/tablerank/internal/rank"
	"github.com/pdiddy/tablerank/pkg/pool"
	"github.com/pdiddy/tablerank/pkg/types"
)

const defaultConcurrency = 5

// Sink receives progress events in emission order. Implementations must be
// safe for use from the orchestrator goroutine only; the orchestrator never
// emits concurrently.
type Sink interface {
	Emit(event types.Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(event types.Event)

// Emit calls f(event).
func (f SinkFunc) Emit(event types.Event) { f(event) }

// Provider is the places dependency: candidate search, review fetch, and
// photo URL resolution.
type Provider interface {
	SearchRestaurants(ctx context.Context, cityName, foodName string) ([]places.Place, error)
	Reviews(ctx context.Context, placeID string) ([]places.Review, error)
	PhotoURL(photoReference string) string
}

// Store is the persistence dependency.
type Store interface {
	UpsertRestaurant(ctx context.Context, r *types.Restaurant) error
	LinkFood(ctx context.Context, restaurantID, foodID string) error
	CreateReportIfAbsent(ctx context.Context, report *types.RestaurantReport) (*types.RestaurantReport, error)
	RestaurantsByFoodWithUsableReport(ctx context.Context, foodID string) ([]types.Restaurant, []types.RestaurantReport, error)
	GetReports(ctx context.Context, ids []string) (map[string]types.RestaurantReport, error)
}

// Analyzer is the report-generation dependency.
type Analyzer interface {
	Analyze(ctx context.Context, restaurant types.Restaurant, reviews []string) (*types.RestaurantReport, error)
}

// Orchestrator runs the recommendation pipeline. Construct it once with its
// dependencies and share it across requests; Run carries all per-request
// state.
type Orchestrator struct {
	provider Provider
	store    Store
	analyzer Analyzer
	cfg      types.PipelineConfig
	log      zerolog.Logger
}

// New builds an orchestrator. Zero-valued concurrency caps take the default.
func New(provider Provider, store Store, analyzer Analyzer, cfg types.PipelineConfig, log zerolog.Logger) *Orchestrator {
	if cfg.SaveConcurrency <= 0 {
		cfg.SaveConcurrency = defaultConcurrency
	}
	if cfg.ReviewConcurrency <= 0 {
		cfg.ReviewConcurrency = defaultConcurrency
	}
	if cfg.AnalyzeConcurrency <= 0 {
		cfg.AnalyzeConcurrency = defaultConcurrency
	}
	return &Orchestrator{
		provider: provider,
		store:    store,
		analyzer: analyzer,
		cfg:      cfg,
		log:      log,
	}
}

// Run executes the four pipeline stages for one request and streams progress
// to sink. A validation failure returns before any event is emitted. A stage
// failure emits an error status for the active step, then a terminal error
// event, and returns the failure. On success the terminal frame is a result
// event carrying the ranked recommendations.
func (o *Orchestrator) Run(ctx context.Context, req types.RecommendationRequest, sink Sink) error {
	if err := ValidateRequest(req); err != nil {
		return err
	}

	log := o.log.With().
		Str("city", req.City.Name).
		Str("food", req.Food.Name).
		Logger()

	// Stage 1: search and dedup.
	sink.Emit(progress(types.StepSearchRestaurants, types.StatusRunning, nil))

	candidates, err := o.provider.SearchRestaurants(ctx, req.City.Name, req.Food.Name)
	if err != nil {
		return o.fail(sink, types.StepSearchRestaurants, fmt.Errorf("searching restaurants: %w", err))
	}

	saved := o.saveCandidates(ctx, log, req, candidates)

	existing, _, err := o.store.RestaurantsByFoodWithUsableReport(ctx, req.Food.ID)
	if err != nil {
		return o.fail(sink, types.StepSearchRestaurants, fmt.Errorf("loading processed restaurants: %w", err))
	}

	processed := make(map[string]bool, len(existing))
	for _, r := range existing {
		processed[r.ID] = true
	}
	var fresh []types.Restaurant
	for _, r := range saved {
		if !processed[r.ID] {
			fresh = append(fresh, r)
		}
	}

	sink.Emit(progress(types.StepSearchRestaurants, types.StatusCompleted, map[string]any{
		"restaurantsFound": len(existing) + len(fresh),
		"newRestaurants":   len(fresh),
	}))

	// Stage 2: review collection, only for restaurants not yet processed.
	sink.Emit(progress(types.StepCollectReviews, types.StatusRunning, nil))

	var reviewData []types.ReviewData
	if len(fresh) == 0 {
		if err := o.skipPause(ctx); err != nil {
			return o.fail(sink, types.StepCollectReviews, err)
		}
		sink.Emit(progress(types.StepCollectReviews, types.StatusCompleted, map[string]any{"skipped": true}))
	} else {
		reviewData = o.collectReviews(ctx, log, fresh)
		total := 0
		for _, rd := range reviewData {
			total += len(rd.Reviews)
		}
		sink.Emit(progress(types.StepCollectReviews, types.StatusCompleted, map[string]any{
			"reviewsCollected": total,
		}))
	}

	// Stage 3: report analysis.
	sink.Emit(progress(types.StepAnalyzeReports, types.StatusRunning, nil))

	if len(fresh) == 0 {
		if err := o.skipPause(ctx); err != nil {
			return o.fail(sink, types.StepAnalyzeReports, err)
		}
		sink.Emit(progress(types.StepAnalyzeReports, types.StatusCompleted, map[string]any{"skipped": true}))
	} else {
		created, failed := o.analyzeReports(ctx, log, fresh, reviewData)
		sink.Emit(progress(types.StepAnalyzeReports, types.StatusCompleted, map[string]any{
			"reportsCreated": created,
			"analysisFailed": failed,
		}))
	}

	// Stage 4: scoring. Reports are read back from the store so scoring sees
	// exactly what was persisted; restaurants whose analysis failed have no
	// report and drop out of the ranking.
	sink.Emit(progress(types.StepCalculateScores, types.StatusRunning, nil))

	scorable := append(existing, fresh...)
	ids := make([]string, len(scorable))
	for i, r := range scorable {
		ids[i] = r.ID
	}
	reports, err := o.store.GetReports(ctx, ids)
	if err != nil {
		return o.fail(sink, types.StepCalculateScores, fmt.Errorf("loading reports: %w", err))
	}

	scored := rank.Score(scorable, reports, req.Priorities)
	sink.Emit(progress(types.StepCalculateScores, types.StatusCompleted, map[string]any{
		"recommendations": len(scored),
	}))

	sink.Emit(types.Event{
		Type:    types.EventResult,
		Payload: buildResponse(scored),
	})

	log.Info().Int("recommendations", len(scored)).Msg("pipeline run completed")
	return nil
}

// saveCandidates persists search candidates with bounded concurrency. A
// candidate whose save fails is logged and dropped; the rest of the run
// continues.
func (o *Orchestrator) saveCandidates(ctx context.Context, log zerolog.Logger, req types.RecommendationRequest, candidates []places.Place) []types.Restaurant {
	outcomes := pool.Map(ctx, o.cfg.SaveConcurrency, len(candidates), func(ctx context.Context, i int) (types.Restaurant, error) {
		p := candidates[i]
		r := types.Restaurant{
			PlaceID:  p.PlaceID,
			Name:     p.Name,
			Address:  p.Address,
			PhotoURL: o.provider.PhotoURL(p.PhotoReference),
			CityID:   req.City.ID,
		}
		if err := o.store.UpsertRestaurant(ctx, &r); err != nil {
			return types.Restaurant{}, err
		}
		if err := o.store.LinkFood(ctx, r.ID, req.Food.ID); err != nil {
			return types.Restaurant{}, err
		}
		return r, nil
	})

	saved := make([]types.Restaurant, 0, len(candidates))
	for i, out := range outcomes {
		if out.Err != nil {
			log.Warn().Err(out.Err).Str("place_id", candidates[i].PlaceID).Msg("dropping candidate: save failed")
			continue
		}
		saved = append(saved, out.Value)
	}
	return saved
}

// collectReviews fetches reviews for each fresh restaurant with bounded
// concurrency. A failed fetch degrades to an empty review list so the
// restaurant still gets a neutral report downstream. Blank review texts are
// filtered out.
func (o *Orchestrator) collectReviews(ctx context.Context, log zerolog.Logger, fresh []types.Restaurant) []types.ReviewData {
	outcomes := pool.Map(ctx, o.cfg.ReviewConcurrency, len(fresh), func(ctx context.Context, i int) ([]places.Review, error) {
		return o.provider.Reviews(ctx, fresh[i].PlaceID)
	})

	data := make([]types.ReviewData, len(fresh))
	for i, out := range outcomes {
		data[i].RestaurantID = fresh[i].ID
		if out.Err != nil {
			log.Warn().Err(out.Err).Str("restaurant", fresh[i].Name).Msg("review fetch failed, continuing without reviews")
			continue
		}
		for _, rev := range out.Value {
			if strings.TrimSpace(rev.Text) != "" {
				data[i].Reviews = append(data[i].Reviews, rev.Text)
			}
		}
	}
	return data
}

// analyzeReports produces and persists a report per fresh restaurant with
// bounded concurrency, returning created and failed counts. Restaurants
// without reviews get a neutral placeholder report and never reach the
// model. A failed analysis is logged and nothing is persisted for it, so a
// later run retries.
func (o *Orchestrator) analyzeReports(ctx context.Context, log zerolog.Logger, fresh []types.Restaurant, reviewData []types.ReviewData) (int, int) {
	outcomes := pool.Map(ctx, o.cfg.AnalyzeConcurrency, len(fresh), func(ctx context.Context, i int) (*types.RestaurantReport, error) {
		restaurant := fresh[i]
		reviews := reviewData[i].Reviews

		if len(reviews) == 0 {
			return o.store.CreateReportIfAbsent(ctx, &types.RestaurantReport{RestaurantID: restaurant.ID})
		}

		report, err := o.analyzer.Analyze(ctx, restaurant, reviews)
		if err != nil {
			return nil, err
		}
		return o.store.CreateReportIfAbsent(ctx, report)
	})

	created, failed := 0, 0
	for i, out := range outcomes {
		if out.Err != nil {
			failed++
			log.Warn().Err(out.Err).Str("restaurant", fresh[i].Name).Msg("analysis failed, excluding restaurant from this run")
			continue
		}
		created++
	}
	return created, failed
}

// skipPause holds a skipped stage open briefly so progress consumers see the
// step exist before it completes. Disabled when SkipDelay is zero.
func (o *Orchestrator) skipPause(ctx context.Context) error {
	if o.cfg.SkipDelay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(o.cfg.SkipDelay):
		return nil
	}
}

// fail emits the error status for the active step, then the terminal error
// event, and returns err.
func (o *Orchestrator) fail(sink Sink, step types.ProgressStep, err error) error {
	sink.Emit(progress(step, types.StatusError, nil))
	sink.Emit(types.Event{
		Type:    types.EventError,
		Message: err.Error(),
	})
	o.log.Error().Err(err).Str("step", string(step)).Msg("pipeline run failed")
	return err
}

func progress(step types.ProgressStep, status types.ProgressStatus, meta map[string]any) types.Event {
	return types.Event{
		Type:   types.EventProgress,
		Step:   step,
		Status: status,
		Meta:   meta,
	}
}

// buildResponse converts scored restaurants to the response payload, rounding
// final scores to one decimal.
func buildResponse(scored []types.ScoredRestaurant) *types.RecommendationResponse {
	items := make([]types.RecommendationItem, 0, len(scored))
	for _, s := range scored {
		items = append(items, types.RecommendationItem{
			Rank:       s.Rank,
			FinalScore: math.Round(s.FinalScore*10) / 10,
			Restaurant: types.RestaurantResult{
				ID:       s.Restaurant.ID,
				PlaceID:  s.Restaurant.PlaceID,
				Name:     s.Restaurant.Name,
				Address:  s.Restaurant.Address,
				PhotoURL: s.Restaurant.PhotoURL,
			},
			Report: types.ReportResult{
				TasteScore:         s.Report.TasteScore,
				PriceScore:         s.Report.PriceScore,
				AtmosphereScore:    s.Report.AtmosphereScore,
				ServiceScore:       s.Report.ServiceScore,
				QuantityScore:      s.Report.QuantityScore,
				AccessibilityScore: s.Report.AccessibilityScore,
				AISummary:          s.Report.AISummary,
			},
		})
	}
	return &types.RecommendationResponse{
		Success: true,
		Data:    types.RecommendationData{Recommendations: items},
		Message: "recommendations generated",
	}
}
