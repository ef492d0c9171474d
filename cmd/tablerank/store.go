// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/tablerank/internal/store"
	"github.com/pdiddy/tablerank/pkg/types"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Inspect the report database",
	Long: `Store inspects the SQLite database the pipeline builds: which restaurants
are known for a food and what their persisted reports look like.`,
}

var storeRestaurantsCmd = &cobra.Command{
	Use:   "restaurants",
	Short: "List stored restaurants for a food",
	RunE:  runStoreRestaurants,
}

func runStoreRestaurants(cmd *cobra.Command, args []string) error {
	foodID, _ := cmd.Flags().GetString("food-id")
	if foodID == "" {
		return fmt.Errorf("--food-id is required")
	}
	jsonOutput, _ := cmd.Flags().GetBool("json")

	st, err := store.New(appConfig().Store)
	if err != nil {
		return err
	}
	defer st.Close()

	restaurants, reports, err := st.RestaurantsByFood(context.Background(), foodID)
	if err != nil {
		return err
	}

	if jsonOutput {
		type row struct {
			Restaurant types.Restaurant        `json:"restaurant"`
			Report     *types.RestaurantReport `json:"report,omitempty"`
		}
		rows := make([]row, 0, len(restaurants))
		for _, r := range restaurants {
			entry := row{Restaurant: r}
			if rep, ok := reports[r.ID]; ok {
				entry.Report = &rep
			}
			rows = append(rows, entry)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	if len(restaurants) == 0 {
		fmt.Println("No restaurants stored for this food.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-14s  %-30s  %-8s  %s\n", "ID", "Name", "Report", "Taste")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 70))
	for _, r := range restaurants {
		name := r.Name
		if len(name) > 30 {
			name = name[:27] + "..."
		}
		reportState := "none"
		taste := "-"
		if rep, ok := reports[r.ID]; ok {
			reportState = "neutral"
			if rep.Usable() {
				reportState = "scored"
			}
			if rep.TasteScore != nil {
				taste = fmt.Sprintf("%.0f", *rep.TasteScore)
			}
		}
		fmt.Fprintf(os.Stdout, "%-14s  %-30s  %-8s  %s\n", r.ID, name, reportState, taste)
	}
	fmt.Fprintf(os.Stdout, "\n%d restaurants\n", len(restaurants))
	return nil
}

func init() {
	storeRestaurantsCmd.Flags().String("food-id", "", "food id to list restaurants for")
	storeRestaurantsCmd.Flags().Bool("json", false, "output results as JSON")

	storeCmd.AddCommand(storeRestaurantsCmd)
	rootCmd.AddCommand(storeCmd)
}
