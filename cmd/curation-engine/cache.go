// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/curatelab/curation-engine/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the analysis cache",
	Long: `Cache manages the SQLite database holding analysis results, paper
metadata, and full texts. Use subcommands to view statistics, search
cached entries, clear stale rows, or export analyses for review.`,
}

// --- stats subcommand ---

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache collection counts and the readiness split",
	RunE:  runCacheStats,
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	store, err := openCache(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	st, err := store.Stats(context.Background())
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}

	fmt.Printf("analyses:        %d (%d in the last 24h)\n", st.AnalysisCount, st.RecentAnalyses)
	fmt.Printf("metadata:        %d\n", st.MetadataCount)
	fmt.Printf("full texts:      %d\n", st.FulltextCount)
	fmt.Printf("curation ready:  %d\n", st.CurationReadyCount)
	fmt.Printf("not ready:       %d\n", st.NotReadyCount)
	fmt.Printf("readiness rate:  %.1f%%\n", st.ReadinessRate*100)
	return nil
}

// --- search subcommand ---

var cacheSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search cached payloads for a substring",
	Args:  cobra.ExactArgs(1),
	RunE:  runCacheSearch,
}

func runCacheSearch(cmd *cobra.Command, args []string) error {
	scope, _ := cmd.Flags().GetString("scope")

	store, err := openCache(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	hits, err := store.Search(context.Background(), args[0], scope)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		fmt.Println("No matches found.")
		return nil
	}
	for _, h := range hits {
		fmt.Printf("%-10s  %s\n", h.Collection, h.PMID)
	}
	fmt.Printf("\n%d matches\n", len(hits))
	return nil
}

// --- clear subcommand ---

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete cached entries older than the freshness window",
	RunE:  runCacheClear,
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	maxAge, _ := cmd.Flags().GetInt("max-age-hours")

	store, err := openCache(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	removed, err := store.ClearOlderThan(context.Background(), maxAge)
	if err != nil {
		return err
	}
	fmt.Printf("removed %d stale entries\n", removed)
	return nil
}

// --- export subcommand ---

var cacheExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all cached analyses to YAML or JSON",
	RunE:  runCacheExport,
}

func runCacheExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	cacheDir, _ := cmd.Flags().GetString("cache-dir")

	store, err := openCache(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	switch format {
	case "yaml", "":
		if err := store.ExportYAML(context.Background()); err != nil {
			return err
		}
		fmt.Println("Exported to", filepath.Join(cacheDir, "export.yaml"))
	case "json":
		if err := store.ExportJSON(context.Background()); err != nil {
			return err
		}
		fmt.Println("Exported to", filepath.Join(cacheDir, "export.json"))
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	return nil
}

// --- shared helpers ---

func openCache(cmd *cobra.Command) (*cache.Store, error) {
	cfg := pipelineConfig(cmd)
	return cache.NewStore(cfg.Cache, os.Stderr)
}

func init() {
	cacheStatsCmd.Flags().Bool("json", false, "output statistics as JSON")
	cacheSearchCmd.Flags().String("scope", "all", "collections to search: analysis, metadata, fulltext, or all")
	cacheClearCmd.Flags().Int("max-age-hours", 24, "delete entries older than this many hours")
	cacheExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheSearchCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheExportCmd)

	rootCmd.AddCommand(cacheCmd)
}
