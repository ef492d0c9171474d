// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the tablerank CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/tablerank/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback when set, otherwise the secret value for key.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the tablerank CLI.
var rootCmd = &cobra.Command{
	Use:   "tablerank",
	Short: "Restaurant recommendations from live search and AI review analysis",
	Long: `tablerank searches a city for restaurants serving a given food, collects
their reviews, scores them with an AI analysis of the review texts, and ranks
them by the user's priorities.

Run the HTTP server with "serve", or run one recommendation from the command
line with "recommend". "store" inspects the report database.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./tablerank.yaml or ~/.config/tablerank/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("tablerank")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "tablerank"))
		}
	}

	viper.SetDefault("places.timeout", 10*time.Second)
	viper.SetDefault("places.max_results", 5)
	viper.SetDefault("analysis.model", "gpt-4o-mini")
	viper.SetDefault("analysis.timeout", 15*time.Second)
	viper.SetDefault("store.path", filepath.Join("data", "tablerank.db"))
	viper.SetDefault("pipeline.skip_delay", 500*time.Millisecond)
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("server.shutdown_timeout", 10*time.Second)

	viper.SetEnvPrefix("TABLERANK")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
