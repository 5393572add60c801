// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/curatelab/curation-engine/internal/analyze"
	"github.com/curatelab/curation-engine/internal/cache"
	"github.com/curatelab/curation-engine/internal/pubmed"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <pmid>...",
	Short: "Run the full curation-readiness pipeline for papers",
	Long: `Analyze retrieves each paper's metadata and full text, screens it for
relevance, asks the model for a structured curation assessment, validates
the extracted curation fields against the text, and caches the outcome.

A fresh cached result short-circuits the pipeline; use --force to
reanalyze.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig(cmd)
	force, _ := cmd.Flags().GetBool("force")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if cfg.Analysis.APIKey == "" {
		return fmt.Errorf("no Gemini API key: set analysis.api_key or .secrets/gemini-api-key")
	}

	store, err := cache.NewStore(cfg.Cache, os.Stderr)
	if err != nil {
		return err
	}
	defer store.Close()

	p := &analyze.Pipeline{
		Cache:     store,
		Retriever: pubmed.NewClient(cfg.PubMed),
		Backend: &analyze.GeminiBackend{
			APIKey: cfg.Analysis.APIKey,
			Model:  cfg.Analysis.Model,
		},
		Config:   cfg.Analysis,
		CacheCfg: cfg.Cache,
		Log:      os.Stderr,
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	var failed int
	for _, pmid := range args {
		rec, err := p.AnalyzePaper(ctx, pmid, force)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed  %s: %v\n", pmid, err)
			failed++
			continue
		}
		if err := printAnalysis(rec, jsonOutput); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d paper(s) failed analysis", failed)
	}
	return nil
}

func printAnalysis(rec *cache.AnalysisRecord, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	}

	fmt.Printf("PMID %s: %s (confidence %.2f)\n", rec.PMID, rec.Analysis.Readiness, rec.Analysis.Confidence)
	if rec.Analysis.Explanation != "" {
		fmt.Printf("  %s\n", rec.Analysis.Explanation)
	}
	if rec.Fields != nil {
		if rec.Fields.CurationReady {
			fmt.Println("  curation fields: all present")
		} else {
			fmt.Printf("  missing fields: %s\n", strings.Join(rec.Fields.MissingFields, ", "))
		}
		fmt.Printf("  %s\n", rec.Fields.CurationPreparationSummary)
	}
	return nil
}

func init() {
	analyzeCmd.Flags().Bool("force", false, "reanalyze even when a fresh cached result exists")
	analyzeCmd.Flags().Bool("json", false, "output the full analysis record as JSON")

	rootCmd.AddCommand(analyzeCmd)
}
