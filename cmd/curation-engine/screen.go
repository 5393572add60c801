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
	"github.com/curatelab/curation-engine/internal/pubmed"
)

var screenCmd = &cobra.Command{
	Use:   "screen <pmid>...",
	Short: "Lexically screen papers for microbial-signature relevance",
	Long: `Screen fetches each paper's title and abstract and scores them with
the keyword screener, without spending a model call. Use it to shortlist
papers worth a full analyze run.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScreen,
}

func runScreen(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig(cmd)
	jsonOutput, _ := cmd.Flags().GetBool("json")

	client := pubmed.NewClient(cfg.PubMed)

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	type screenRow struct {
		PMID   string               `json:"pmid"`
		Title  string               `json:"title"`
		Screen analyze.ScreenResult `json:"screen"`
	}

	var rows []screenRow
	var failed int
	for _, pmid := range args {
		meta, err := client.Metadata(ctx, pmid)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed  %s: %v\n", pmid, err)
			failed++
			continue
		}
		rows = append(rows, screenRow{
			PMID:   pmid,
			Title:  meta.Title,
			Screen: analyze.Screen(meta.Text()),
		})
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rows); err != nil {
			return err
		}
	} else {
		for _, row := range rows {
			marker := " "
			if row.Screen.HasSignatures {
				marker = "*"
			}
			fmt.Printf("%s %s  %.2f  %s\n", marker, row.PMID, row.Screen.Confidence, row.Title)
			if len(row.Screen.SequencingTypes) > 0 {
				fmt.Printf("    sequencing: %s\n", strings.Join(row.Screen.SequencingTypes, ", "))
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d paper(s) failed screening", failed)
	}
	return nil
}

func init() {
	screenCmd.Flags().Bool("json", false, "output screen results as JSON")

	rootCmd.AddCommand(screenCmd)
}
