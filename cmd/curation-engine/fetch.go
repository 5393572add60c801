// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/curatelab/curation-engine/internal/cache"
	"github.com/curatelab/curation-engine/internal/pubmed"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <pmid>...",
	Short: "Retrieve paper metadata and PMC full text into the cache",
	Long: `Fetch downloads each paper's bibliographic record and, when a PMC
deposit exists, its full text, and stores both in the cache. Full text
is optional: papers without one are still fetched.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFetch,
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig(cmd)

	store, err := cache.NewStore(cfg.Cache, os.Stderr)
	if err != nil {
		return err
	}
	defer store.Close()

	client := pubmed.NewClient(cfg.PubMed)

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	var failed int
	for _, pmid := range args {
		meta, err := client.Metadata(ctx, pmid)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed  %s: %v\n", pmid, err)
			failed++
			continue
		}
		store.StoreMetadata(ctx, meta)

		text, source, err := client.Fulltext(ctx, pmid)
		if err != nil {
			fmt.Printf("fetched %s: %s (no full text)\n", pmid, meta.Title)
			continue
		}
		store.StoreFulltext(ctx, pmid, text, source)
		fmt.Printf("fetched %s: %s (%d chars of full text)\n", pmid, meta.Title, len(text))
	}

	if failed > 0 {
		return fmt.Errorf("%d paper(s) failed fetching", failed)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}
