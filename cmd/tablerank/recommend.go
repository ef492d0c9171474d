// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/tablerank/internal/pipeline"
	"github.com/pdiddy/tablerank/pkg/types"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Run one recommendation from the command line",
	Long: `Recommend runs the full pipeline for one city and food without the HTTP
server. Stage progress prints to stderr; the ranked recommendations print to
stdout as a table, JSON, or YAML.

Priorities are ranks 1-3: 1 is the most important attribute. Unranked
attributes do not influence the score.`,
	RunE: runRecommend,
}

func runRecommend(cmd *cobra.Command, args []string) error {
	req, err := requestFromFlags(cmd)
	if err != nil {
		return err
	}
	output, _ := cmd.Flags().GetString("output")
	switch output {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("unsupported output %q: use table, json, or yaml", output)
	}

	cfg := appConfig()
	log := newLogger()

	orch, st, err := newOrchestrator(cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	var result *types.RecommendationResponse
	sink := pipeline.SinkFunc(func(ev types.Event) {
		switch ev.Type {
		case types.EventProgress:
			fmt.Fprintf(os.Stderr, "%-20s %s\n", ev.Step, ev.Status)
		case types.EventResult:
			result = ev.Payload
		case types.EventError:
			fmt.Fprintf(os.Stderr, "error: %s\n", ev.Message)
		}
	})

	if err := orch.Run(context.Background(), req, sink); err != nil {
		return err
	}
	if result == nil {
		return fmt.Errorf("pipeline produced no result")
	}

	return formatRecommendations(result, output)
}

func requestFromFlags(cmd *cobra.Command) (types.RecommendationRequest, error) {
	cityName, _ := cmd.Flags().GetString("city")
	foodName, _ := cmd.Flags().GetString("food")
	cityID, _ := cmd.Flags().GetString("city-id")
	foodID, _ := cmd.Flags().GetString("food-id")

	// Derive ids from names when not given, so one-off CLI runs do not need
	// a separate catalog.
	if cityID == "" {
		cityID = slug(cityName)
	}
	if foodID == "" {
		foodID = slug(foodName)
	}

	req := types.RecommendationRequest{
		City: types.City{ID: cityID, Name: cityName},
		Food: types.Food{ID: foodID, Name: foodName},
	}
	req.Priorities.Taste, _ = cmd.Flags().GetInt("taste")
	req.Priorities.Price, _ = cmd.Flags().GetInt("price")
	req.Priorities.Atmosphere, _ = cmd.Flags().GetInt("atmosphere")
	req.Priorities.Service, _ = cmd.Flags().GetInt("service")
	req.Priorities.Quantity, _ = cmd.Flags().GetInt("quantity")
	req.Priorities.Accessibility, _ = cmd.Flags().GetInt("accessibility")

	return req, pipeline.ValidateRequest(req)
}

// slug lowercases a name and replaces spaces, for use as a derived id.
func slug(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
}

func formatRecommendations(result *types.RecommendationResponse, output string) error {
	switch output {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "yaml":
		data, err := yaml.Marshal(result)
		if err != nil {
			return fmt.Errorf("marshaling result: %w", err)
		}
		_, err = os.Stdout.Write(data)
		return err
	}

	recs := result.Data.Recommendations
	if len(recs) == 0 {
		fmt.Println("No recommendations found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-6s  %-30s  %s\n", "Rank", "Score", "Restaurant", "Address")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 90))
	for _, rec := range recs {
		name := rec.Restaurant.Name
		if len(name) > 30 {
			name = name[:27] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-6.1f  %-30s  %s\n", rec.Rank, rec.FinalScore, name, rec.Restaurant.Address)
	}
	fmt.Fprintf(os.Stdout, "\n%d recommendations\n", len(recs))
	return nil
}

func init() {
	recommendCmd.Flags().String("city", "", "city name to search in (required)")
	recommendCmd.Flags().String("food", "", "food to search for (required)")
	recommendCmd.Flags().String("city-id", "", "city id (default: derived from the name)")
	recommendCmd.Flags().String("food-id", "", "food id (default: derived from the name)")
	recommendCmd.Flags().Int("taste", 0, "priority rank for taste (1-3, 0 = unranked)")
	recommendCmd.Flags().Int("price", 0, "priority rank for price (1-3, 0 = unranked)")
	recommendCmd.Flags().Int("atmosphere", 0, "priority rank for atmosphere (1-3, 0 = unranked)")
	recommendCmd.Flags().Int("service", 0, "priority rank for service (1-3, 0 = unranked)")
	recommendCmd.Flags().Int("quantity", 0, "priority rank for quantity (1-3, 0 = unranked)")
	recommendCmd.Flags().Int("accessibility", 0, "priority rank for accessibility (1-3, 0 = unranked)")
	recommendCmd.Flags().String("output", "table", "output format: table, json, or yaml")

	rootCmd.AddCommand(recommendCmd)
}
