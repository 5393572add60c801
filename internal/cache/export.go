// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"
)

// ExportEntry holds one analysis for a curator review dump, with the
// bibliographic record joined in when the metadata cache has it.
type ExportEntry struct {
	PMID          string       `json:"pmid" yaml:"pmid"`
	Readiness     string       `json:"readiness" yaml:"readiness"`
	Confidence    float64      `json:"confidence" yaml:"confidence"`
	CurationReady bool         `json:"curation_ready" yaml:"curation_ready"`
	MissingFields []string     `json:"missing_fields" yaml:"missing_fields"`
	Timestamp     string       `json:"timestamp" yaml:"timestamp"`
	Paper         *ExportPaper `json:"paper,omitempty" yaml:"paper,omitempty"`
}

// ExportPaper holds the paper-level fields included in each export entry.
type ExportPaper struct {
	Title   string   `json:"title" yaml:"title"`
	Journal string   `json:"journal,omitempty" yaml:"journal,omitempty"`
	Year    string   `json:"year,omitempty" yaml:"year,omitempty"`
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`
}

// ExportYAML writes every cached analysis to cacheDir/export.yaml.
func (s *Store) ExportYAML(ctx context.Context) error {
	entries, err := s.exportEntries(ctx)
	if err != nil {
		return err
	}

	path := filepath.Join(s.cacheDir, "export.yaml")
	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ExportJSON writes every cached analysis to cacheDir/export.json.
func (s *Store) ExportJSON(ctx context.Context) error {
	entries, err := s.exportEntries(ctx)
	if err != nil {
		return err
	}

	path := filepath.Join(s.cacheDir, "export.json")
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *Store) exportEntries(ctx context.Context) ([]ExportEntry, error) {
	records, err := s.AllAnalyses(ctx)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	entries := make([]ExportEntry, len(records))
	for i, r := range records {
		entries[i] = ExportEntry{
			PMID:      r.PMID,
			Timestamp: r.Timestamp.Format(time.RFC3339),
		}
		if r.Analysis != nil {
			entries[i].Readiness = string(r.Analysis.Readiness)
			entries[i].Confidence = r.Analysis.Confidence
		}
		if r.Fields != nil {
			entries[i].CurationReady = r.Fields.CurationReady
			entries[i].MissingFields = r.Fields.MissingFields
		}
		if meta, ok := s.GetMetadata(ctx, r.PMID); ok {
			entries[i].Paper = &ExportPaper{
				Title:   meta.Metadata.Title,
				Journal: meta.Metadata.Journal,
				Year:    meta.Metadata.Year,
				Authors: meta.Metadata.Authors,
			}
		}
	}

	return entries, nil
}
