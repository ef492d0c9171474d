// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rank computes final scores and rankings from restaurant reports
// and user priorities. It is pure: no I/O, no clock, no randomness.
package rank

import (
	"sort"

	"github.com/pdiddy/tablerank/pkg/types"
)

// weightFor maps a priority rank to its scoring weight. Unranked attributes
// carry no weight, so an attribute the user never ranked cannot outweigh one
// they did.
func weightFor(rank int) float64 {
	switch rank {
	case 1:
		return 3.0
	case 2:
		return 2.0
	case 3:
		return 1.0
	default:
		return 0.0
	}
}

// Score computes final scores for the given restaurants and returns them
// sorted best-first with dense 1-based ranks. Restaurants without a report,
// or whose report has no non-nil score, are excluded. reports is keyed by
// restaurant ID.
//
// With at least one ranked attribute, the final score is the weighted sum
// over the full total weight, where a nil attribute score contributes zero;
// missing evidence on a prioritized attribute lowers the result. With no
// ranked attributes the final score falls back to the plain mean of the
// non-nil scores.
func Score(restaurants []types.Restaurant, reports map[string]types.RestaurantReport, priorities types.PrioritySettings) []types.ScoredRestaurant {
	ranks := priorities.Ranks()

	var totalWeight float64
	for _, r := range ranks {
		totalWeight += weightFor(r)
	}

	scored := make([]types.ScoredRestaurant, 0, len(restaurants))
	for _, restaurant := range restaurants {
		report, ok := reports[restaurant.ID]
		if !ok || !report.Usable() {
			continue
		}

		scored = append(scored, types.ScoredRestaurant{
			Restaurant: restaurant,
			Report:     report,
			FinalScore: finalScore(report.Scores(), ranks, totalWeight),
		})
	}

	// Stable sort keeps the caller's order for exact ties.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].FinalScore > scored[j].FinalScore
	})
	for i := range scored {
		scored[i].Rank = i + 1
	}
	return scored
}

func finalScore(scores [6]*float64, ranks [6]int, totalWeight float64) float64 {
	if totalWeight == 0 {
		return meanOfPresent(scores)
	}

	var sum float64
	for i, s := range scores {
		if s == nil {
			continue
		}
		sum += *s * weightFor(ranks[i])
	}
	return sum / totalWeight
}

func meanOfPresent(scores [6]*float64) float64 {
	var sum float64
	var n int
	for _, s := range scores {
		if s != nil {
			sum += *s
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
