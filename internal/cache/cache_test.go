package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/curatelab/curation-engine/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(types.CacheConfig{CacheDir: t.TempDir()}, nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func readyFields() *types.CurationFields {
	fields := make(map[types.FieldName]types.FieldAssessment)
	for _, name := range types.CurationFieldNames {
		fields[name] = types.FieldAssessment{
			Value:      "Human",
			Confidence: 0.9,
			Status:     types.FieldPresent,
		}
	}
	return &types.CurationFields{
		Fields:                     fields,
		CurationReady:              true,
		MissingFields:              []string{},
		CurationPreparationSummary: "All required fields are present. Paper is ready for curation.",
	}
}

func TestAnalysisRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	analysis := &types.CurationAnalysis{
		Readiness:  types.ReadinessReady,
		Confidence: 0.85,
	}
	if !s.StoreAnalysis(ctx, "12345", analysis, readyFields()) {
		t.Fatal("StoreAnalysis reported failure")
	}

	rec, ok := s.GetAnalysis(ctx, "12345")
	if !ok {
		t.Fatal("GetAnalysis missed a just-stored entry")
	}
	if rec.PMID != "12345" {
		t.Errorf("PMID = %q", rec.PMID)
	}
	if rec.Analysis.Readiness != types.ReadinessReady {
		t.Errorf("Readiness = %q", rec.Analysis.Readiness)
	}
	if rec.Analysis.Confidence != 0.85 {
		t.Errorf("Confidence = %f", rec.Analysis.Confidence)
	}
	if !rec.Fields.CurationReady {
		t.Error("Fields.CurationReady lost in round trip")
	}
	if got := rec.Fields.Fields[types.FieldHostSpecies].Value; got != "Human" {
		t.Errorf("host species value = %q, want Human", got)
	}
	if rec.Timestamp.IsZero() {
		t.Error("Timestamp not set")
	}
}

func TestGetAnalysisMiss(t *testing.T) {
	s := newTestStore(t)
	if _, ok := s.GetAnalysis(context.Background(), "99999"); ok {
		t.Error("GetAnalysis reported a hit on an empty cache")
	}
}

func TestStoreAnalysisReplaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.StoreAnalysis(ctx, "12345", &types.CurationAnalysis{Readiness: types.ReadinessNotReady, Confidence: 0.2}, nil)
	s.StoreAnalysis(ctx, "12345", &types.CurationAnalysis{Readiness: types.ReadinessReady, Confidence: 0.9}, nil)

	rec, ok := s.GetAnalysis(ctx, "12345")
	if !ok {
		t.Fatal("GetAnalysis missed")
	}
	if rec.Analysis.Readiness != types.ReadinessReady {
		t.Errorf("Readiness = %q, want the replacement", rec.Analysis.Readiness)
	}

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.AnalysisCount != 1 {
		t.Errorf("AnalysisCount = %d, want 1 after upsert", st.AnalysisCount)
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	meta := types.PaperMetadata{
		PMID:     "22222",
		Title:    "Gut microbiome in IBD",
		Abstract: "We profiled the fecal microbiota.",
		Authors:  []string{"A Author", "B Author"},
		Journal:  "Gut Microbes",
		Year:     "2024",
	}
	if !s.StoreMetadata(ctx, meta) {
		t.Fatal("StoreMetadata reported failure")
	}

	rec, ok := s.GetMetadata(ctx, "22222")
	if !ok {
		t.Fatal("GetMetadata missed")
	}
	if rec.Metadata.Title != meta.Title {
		t.Errorf("Title = %q", rec.Metadata.Title)
	}
	if len(rec.Metadata.Authors) != 2 {
		t.Errorf("Authors = %v", rec.Metadata.Authors)
	}
}

func TestFulltextRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if !s.StoreFulltext(ctx, "33333", "full body text", "pmc") {
		t.Fatal("StoreFulltext reported failure")
	}
	rec, ok := s.GetFulltext(ctx, "33333")
	if !ok {
		t.Fatal("GetFulltext missed")
	}
	if rec.Text != "full body text" || rec.Source != "pmc" {
		t.Errorf("record = %+v", rec)
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name     string
		storedAt time.Time
		maxAge   int
		want     bool
	}{
		{"fresh entry", time.Now(), 24, true},
		{"stale entry", time.Now().Add(-25 * time.Hour), 24, false},
		{"zero max age uses default", time.Now().Add(-1 * time.Hour), 0, true},
		{"short window", time.Now().Add(-2 * time.Hour), 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValid(tt.storedAt, tt.maxAge); got != tt.want {
				t.Errorf("IsValid = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.StoreAnalysis(ctx, "1", &types.CurationAnalysis{Readiness: types.ReadinessReady, Confidence: 0.9}, readyFields())
	s.StoreAnalysis(ctx, "2", &types.CurationAnalysis{Readiness: types.ReadinessNotReady, Confidence: 0.3}, nil)
	s.StoreMetadata(ctx, types.PaperMetadata{PMID: "1", Title: "t"})

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.AnalysisCount != 2 {
		t.Errorf("AnalysisCount = %d", st.AnalysisCount)
	}
	if st.MetadataCount != 1 {
		t.Errorf("MetadataCount = %d", st.MetadataCount)
	}
	if st.CurationReadyCount != 1 || st.NotReadyCount != 1 {
		t.Errorf("ready/not ready = %d/%d", st.CurationReadyCount, st.NotReadyCount)
	}
	if st.RecentAnalyses != 2 {
		t.Errorf("RecentAnalyses = %d", st.RecentAnalyses)
	}
	if st.ReadinessRate != 0.5 {
		t.Errorf("ReadinessRate = %f", st.ReadinessRate)
	}
}

func TestStatsEmptyCache(t *testing.T) {
	s := newTestStore(t)

	st, err := s.Stats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if st.AnalysisCount != 0 || st.ReadinessRate != 0.0 {
		t.Errorf("stats on empty cache = %+v", st)
	}
}

func TestClearOlderThan(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(types.CacheConfig{CacheDir: dir}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	ctx := context.Background()

	s.StoreAnalysis(ctx, "old", &types.CurationAnalysis{Readiness: types.ReadinessReady}, nil)
	s.StoreAnalysis(ctx, "new", &types.CurationAnalysis{Readiness: types.ReadinessReady}, nil)
	backdate(t, dir, "old", time.Now().Add(-48*time.Hour))

	removed, err := s.ClearOlderThan(ctx, 24)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if _, ok := s.GetAnalysis(ctx, "old"); ok {
		t.Error("backdated entry survived ClearOlderThan")
	}
	if _, ok := s.GetAnalysis(ctx, "new"); !ok {
		t.Error("fresh entry removed by ClearOlderThan")
	}
}

// backdate rewrites an analysis row's timestamp through a second
// connection so age-based behavior can be tested without sleeping.
func backdate(t *testing.T, dir, pmid string, to time.Time) {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(dir, dbFile))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	_, err = db.Exec(`UPDATE analysis_cache SET timestamp = ? WHERE pmid = ?`,
		to.UTC().Format(time.RFC3339Nano), pmid)
	if err != nil {
		t.Fatal(err)
	}
}

func TestSearch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.StoreMetadata(ctx, types.PaperMetadata{PMID: "1", Title: "Gut microbiome in IBD"})
	s.StoreMetadata(ctx, types.PaperMetadata{PMID: "2", Title: "Soil chemistry survey"})
	s.StoreAnalysis(ctx, "1", &types.CurationAnalysis{Readiness: types.ReadinessReady, Explanation: "microbiome signatures reported"}, nil)
	s.StoreFulltext(ctx, "2", "methods mention the microbiome briefly", "pmc")

	hits, err := s.Search(ctx, "microbiome", "all")
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 3 {
		t.Fatalf("hits = %d, want 3 (analysis, metadata, fulltext): %+v", len(hits), hits)
	}

	hits, err = s.Search(ctx, "microbiome", "metadata")
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].PMID != "1" || hits[0].Collection != "metadata" {
		t.Errorf("metadata hits = %+v", hits)
	}

	hits, err = s.Search(ctx, "microbiome", "fulltext")
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].PMID != "2" || hits[0].Collection != "fulltext" {
		t.Errorf("fulltext hits = %+v", hits)
	}

	// LIKE compares ASCII letters without regard to case.
	hits, err = s.Search(ctx, "MICROBIOME", "metadata")
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 {
		t.Errorf("uppercase query hits = %+v", hits)
	}

	if _, err := s.Search(ctx, "x", "papers"); err == nil {
		t.Error("expected an error for an unsupported scope")
	}
}

func TestAllAnalysesNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.StoreAnalysis(ctx, "first", &types.CurationAnalysis{Readiness: types.ReadinessReady}, nil)
	time.Sleep(2 * time.Millisecond)
	s.StoreAnalysis(ctx, "second", &types.CurationAnalysis{Readiness: types.ReadinessNotReady}, nil)

	records, err := s.AllAnalyses(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[0].PMID != "second" || records[1].PMID != "first" {
		t.Errorf("order = %s, %s; want newest first", records[0].PMID, records[1].PMID)
	}
}

func TestAllAnalysesSkipsCorruptRows(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(types.CacheConfig{CacheDir: dir}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	ctx := context.Background()

	s.StoreAnalysis(ctx, "good", &types.CurationAnalysis{Readiness: types.ReadinessReady}, nil)

	db, err := sql.Open("sqlite3", filepath.Join(dir, dbFile))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if _, err := db.Exec(
		`INSERT INTO analysis_cache (pmid, payload, confidence, curation_ready, timestamp) VALUES (?, ?, 0, 0, ?)`,
		"bad", "{not json", time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		t.Fatal(err)
	}

	records, err := s.AllAnalyses(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].PMID != "good" {
		t.Errorf("records = %+v, want only the intact row", records)
	}
}

func TestExportJSON(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(types.CacheConfig{CacheDir: dir}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	ctx := context.Background()

	s.StoreAnalysis(ctx, "12345", &types.CurationAnalysis{Readiness: types.ReadinessReady, Confidence: 0.9}, readyFields())
	s.StoreMetadata(ctx, types.PaperMetadata{PMID: "12345", Title: "Gut microbiome in IBD", Journal: "Gut Microbes"})

	if err := s.ExportJSON(ctx); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "export.json"))
	if err != nil {
		t.Fatal(err)
	}
	var entries []ExportEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.PMID != "12345" || e.Readiness != "READY" || !e.CurationReady {
		t.Errorf("entry = %+v", e)
	}
	if e.Paper == nil || e.Paper.Title != "Gut microbiome in IBD" {
		t.Errorf("paper join missing: %+v", e.Paper)
	}
}

func TestExportYAML(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(types.CacheConfig{CacheDir: dir}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	ctx := context.Background()

	s.StoreAnalysis(ctx, "54321", &types.CurationAnalysis{Readiness: types.ReadinessNotReady, Confidence: 0.4}, nil)

	if err := s.ExportYAML(ctx); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "export.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "54321") || !strings.Contains(string(data), "NOT_READY") {
		t.Errorf("export.yaml missing expected content:\n%s", data)
	}
}
