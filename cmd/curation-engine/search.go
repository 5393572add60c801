// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/curatelab/curation-engine/internal/pubmed"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>...",
	Short: "Search PubMed for candidate papers",
	Long: `Search runs a PubMed query and prints matching PMIDs, newest first.
Feed the results to screen or analyze to build a curation shortlist.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig(cmd)
	max, _ := cmd.Flags().GetInt("max-results")

	client := pubmed.NewClient(cfg.PubMed)

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	ids, err := client.Search(ctx, strings.Join(args, " "), max)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	for _, id := range ids {
		fmt.Println(id)
	}
	return nil
}

func init() {
	searchCmd.Flags().Int("max-results", 20, "maximum number of PMIDs to return")

	rootCmd.AddCommand(searchCmd)
}
