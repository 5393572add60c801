// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the curation-engine CLI.
// Implements: prd001-analysis, prd003-cache, prd004-retrieval,
//             prd005-screening (CLI surface).
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/curatelab/curation-engine/internal/secrets"
	"github.com/curatelab/curation-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback when set, otherwise the secret value
// for key if one was loaded.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the curation-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "curation-engine",
	Short: "Assess scientific papers for microbial-signature curation readiness",
	Long: `curation-engine evaluates whether scientific papers contain enough
explicit microbial-signature evidence to be curated. It retrieves paper
metadata and full text from PubMed/PMC, screens papers lexically, asks a
model for a structured assessment, validates the extracted curation
fields against the text, and caches everything in SQLite keyed by PMID.

Each pipeline stage is a subcommand: search, fetch, screen, analyze,
and cache.`,
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

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./curation-engine.yaml or ~/.config/curation-engine/config.yaml)")
	rootCmd.PersistentFlags().String("cache-dir", "cache", "directory holding the analysis cache database")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("curation-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "curation-engine"))
		}
	}

	viper.SetEnvPrefix("CURATION_ENGINE")
	viper.AutomaticEnv()

	viper.SetDefault("cache.max_age_hours", 24)
	viper.SetDefault("cache.max_results", 20)
	viper.SetDefault("pubmed.request_delay", "340ms")
	viper.SetDefault("pubmed.max_retries", 5)
	viper.SetDefault("pubmed.timeout", "30s")
	viper.SetDefault("analysis.model", "gemini-1.5-pro-latest")
	viper.SetDefault("analysis.max_retries", 3)
	viper.SetDefault("analysis.min_screen_confidence", 0.4)
	viper.SetDefault("analysis.cache_results", true)

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// pipelineConfig assembles the component configs from flags, the config
// file, environment, and loaded secrets.
func pipelineConfig(cmd *cobra.Command) types.PipelineConfig {
	cacheDir, _ := cmd.Flags().GetString("cache-dir")
	if cacheDir == "" {
		cacheDir = "cache"
	}

	return types.PipelineConfig{
		Cache: types.CacheConfig{
			CacheDir:    cacheDir,
			MaxAgeHours: viper.GetInt("cache.max_age_hours"),
			MaxResults:  viper.GetInt("cache.max_results"),
		},
		PubMed: types.PubMedConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("pubmed.timeout"),
				UserAgent: "curation-engine/" + version,
			},
			APIKey:       secretDefault("ncbi-api-key", viper.GetString("pubmed.api_key")),
			Email:        secretDefault("ncbi-email", viper.GetString("pubmed.email")),
			RequestDelay: viper.GetDuration("pubmed.request_delay"),
			MaxRetries:   viper.GetInt("pubmed.max_retries"),
		},
		Analysis: types.AnalysisConfig{
			AIConfig: types.AIConfig{
				Model:      viper.GetString("analysis.model"),
				APIKey:     secretDefault("gemini-api-key", viper.GetString("analysis.api_key")),
				MaxRetries: viper.GetInt("analysis.max_retries"),
			},
			MinScreenConfidence: viper.GetFloat64("analysis.min_screen_confidence"),
			CacheResults:        viper.GetBool("analysis.cache_results"),
		},
	}
}

// commandTimeout bounds any single CLI invocation.
const commandTimeout = 10 * time.Minute

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
