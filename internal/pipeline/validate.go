package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/tablerank/pkg/types"
)

// ErrValidation marks request validation failures so transports can map them
// to a client error instead of a stream error.
var ErrValidation = errors.New("invalid request")

// ValidateRequest checks a recommendation request before any stage runs.
// City and food need both an id and a name; every priority rank must be 0
// (unranked) through 3.
func ValidateRequest(req types.RecommendationRequest) error {
	var problems []string

	if strings.TrimSpace(req.City.ID) == "" {
		problems = append(problems, "city.id is required")
	}
	if strings.TrimSpace(req.City.Name) == "" {
		problems = append(problems, "city.name is required")
	}
	if strings.TrimSpace(req.Food.ID) == "" {
		problems = append(problems, "food.id is required")
	}
	if strings.TrimSpace(req.Food.Name) == "" {
		problems = append(problems, "food.name is required")
	}

	attrs := []struct {
		name string
		rank int
	}{
		{"taste", req.Priorities.Taste},
		{"price", req.Priorities.Price},
		{"atmosphere", req.Priorities.Atmosphere},
		{"service", req.Priorities.Service},
		{"quantity", req.Priorities.Quantity},
		{"accessibility", req.Priorities.Accessibility},
	}
	for _, a := range attrs {
		if a.rank < 0 || a.rank > 3 {
			problems = append(problems, fmt.Sprintf("priorities.%s must be between 0 and 3", a.name))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(problems, "; "))
	}
	return nil
}
