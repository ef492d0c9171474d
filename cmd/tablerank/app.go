package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/pdiddy/tablerank/internal/analyzer"
	"github.com/pdiddy/tablerank/internal/pipeline"
	"github.com/pdiddy/tablerank/internal/places"
	"github.com/pdiddy/tablerank/internal/secrets"
	"github.com/pdiddy/tablerank/internal/store"
	"github.com/pdiddy/tablerank/pkg/types"
)

// appConfig assembles the full configuration from config file, environment,
// and secrets. Secrets fill in API keys the config does not set.
func appConfig() types.AppConfig {
	return types.AppConfig{
		Places: types.PlacesConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("places.timeout"),
				UserAgent: "tablerank/" + version,
			},
			APIKey:     secretDefault(secrets.PlacesAPIKey, viper.GetString("places.api_key")),
			BaseURL:    viper.GetString("places.base_url"),
			MaxResults: viper.GetInt("places.max_results"),
			MaxRetries: viper.GetInt("places.max_retries"),
		},
		Analysis: types.AnalysisConfig{
			AIConfig: types.AIConfig{
				Model:      viper.GetString("analysis.model"),
				APIKey:     secretDefault(secrets.OpenAIAPIKey, viper.GetString("analysis.api_key")),
				MaxRetries: viper.GetInt("analysis.max_retries"),
			},
			BaseURL: viper.GetString("analysis.base_url"),
			Timeout: viper.GetDuration("analysis.timeout"),
		},
		Store: types.StoreConfig{
			Path: viper.GetString("store.path"),
		},
		Pipeline: types.PipelineConfig{
			SaveConcurrency:    viper.GetInt("pipeline.save_concurrency"),
			ReviewConcurrency:  viper.GetInt("pipeline.review_concurrency"),
			AnalyzeConcurrency: viper.GetInt("pipeline.analyze_concurrency"),
			SkipDelay:          viper.GetDuration("pipeline.skip_delay"),
		},
		Server: types.ServerConfig{
			Addr:            viper.GetString("server.addr"),
			ShutdownTimeout: viper.GetDuration("server.shutdown_timeout"),
		},
	}
}

// newLogger builds the process logger.
func newLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// newOrchestrator wires the pipeline's dependencies from the configuration.
// The caller owns the returned store and must close it.
func newOrchestrator(cfg types.AppConfig, log zerolog.Logger) (*pipeline.Orchestrator, *store.Store, error) {
	st, err := store.New(cfg.Store)
	if err != nil {
		return nil, nil, err
	}

	provider := places.NewClient(cfg.Places)
	backend := &analyzer.OpenAIBackend{
		APIKey:     cfg.Analysis.APIKey,
		Model:      cfg.Analysis.Model,
		BaseURL:    cfg.Analysis.BaseURL,
		MaxRetries: cfg.Analysis.MaxRetries,
	}
	an := analyzer.New(backend, cfg.Analysis)

	return pipeline.New(provider, st, an, cfg.Pipeline, log), st, nil
}
