// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache persists analysis outcomes, paper metadata, and full
// texts in a SQLite database keyed by PMID.
// Implements: prd003-cache (R1-R5).
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/curatelab/curation-engine/pkg/types"
)

const dbFile = "analysis.db"

// AnalysisRecord is one cached pipeline outcome: the parsed analysis,
// the enhanced field extraction, and when it was stored.
type AnalysisRecord struct {
	PMID      string                  `json:"pmid" yaml:"pmid"`
	Analysis  *types.CurationAnalysis `json:"analysis" yaml:"analysis"`
	Fields    *types.CurationFields   `json:"curation_fields,omitempty" yaml:"curation_fields,omitempty"`
	Timestamp time.Time               `json:"timestamp" yaml:"timestamp"`
}

// MetadataRecord is one cached bibliographic record with its store time.
type MetadataRecord struct {
	Metadata  types.PaperMetadata `json:"metadata" yaml:"metadata"`
	Timestamp time.Time           `json:"timestamp" yaml:"timestamp"`
}

// FulltextRecord is one cached full text with its provenance.
type FulltextRecord struct {
	PMID      string    `json:"pmid" yaml:"pmid"`
	Text      string    `json:"text" yaml:"text"`
	Source    string    `json:"source" yaml:"source"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// Store manages the analysis cache SQLite database.
type Store struct {
	db         *sql.DB
	cacheDir   string
	maxResults int
	logw       io.Writer
}

// NewStore opens or creates the cache database at cacheDir/analysis.db.
// It creates the schema if it does not exist (R1.2, R1.3). Write faults
// on the store methods are reported to logw; pass nil to discard them.
func NewStore(cfg types.CacheConfig, logw io.Writer) (*Store, error) {
	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	dbPath := filepath.Join(cfg.CacheDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}
	if logw == nil {
		logw = io.Discard
	}

	s := &Store{
		db:         db,
		cacheDir:   cfg.CacheDir,
		maxResults: maxResults,
		logw:       logw,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS analysis_cache (
			pmid TEXT PRIMARY KEY,
			payload TEXT NOT NULL,
			confidence REAL,
			curation_ready BOOLEAN,
			timestamp TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analysis_timestamp ON analysis_cache(timestamp)`,
		`CREATE TABLE IF NOT EXISTS metadata_cache (
			pmid TEXT PRIMARY KEY,
			payload TEXT NOT NULL,
			timestamp TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_metadata_timestamp ON metadata_cache(timestamp)`,
		`CREATE TABLE IF NOT EXISTS fulltext_cache (
			pmid TEXT PRIMARY KEY,
			fulltext TEXT NOT NULL,
			source TEXT,
			timestamp TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_fulltext_timestamp ON fulltext_cache(timestamp)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	return nil
}

// IsValid reports whether a cached entry stored at storedAt is still
// within the freshness window. Freshness is advisory: stale entries
// remain readable, callers decide whether to refresh (R4.1).
func IsValid(storedAt time.Time, maxAgeHours int) bool {
	if maxAgeHours <= 0 {
		maxAgeHours = 24
	}
	return time.Since(storedAt) < time.Duration(maxAgeHours)*time.Hour
}

// StoreAnalysis upserts the analysis record for pmid, replacing any
// previous entry (R2.1). It reports success; faults are logged, never
// returned, so a broken cache degrades to a cache that misses.
func (s *Store) StoreAnalysis(ctx context.Context, pmid string, analysis *types.CurationAnalysis, fields *types.CurationFields) bool {
	rec := AnalysisRecord{
		PMID:      pmid,
		Analysis:  analysis,
		Fields:    fields,
		Timestamp: time.Now().UTC(),
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		fmt.Fprintf(s.logw, "cache: serializing analysis %s: %v\n", pmid, err)
		return false
	}

	ready := fields != nil && fields.CurationReady
	confidence := 0.0
	if analysis != nil {
		confidence = analysis.Confidence
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO analysis_cache (pmid, payload, confidence, curation_ready, timestamp)
		 VALUES (?, ?, ?, ?, ?)`,
		pmid, string(payload), confidence, ready, rec.Timestamp.Format(time.RFC3339Nano),
	)
	if err != nil {
		fmt.Fprintf(s.logw, "cache: storing analysis %s: %v\n", pmid, err)
		return false
	}
	return true
}

// GetAnalysis returns the cached analysis for pmid. A missing row, a
// corrupt payload, and a read fault all report a miss (R2.2).
func (s *Store) GetAnalysis(ctx context.Context, pmid string) (*AnalysisRecord, bool) {
	var payload, ts string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, timestamp FROM analysis_cache WHERE pmid = ?`, pmid,
	).Scan(&payload, &ts)
	if err != nil {
		return nil, false
	}

	var rec AnalysisRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		fmt.Fprintf(s.logw, "cache: corrupt analysis payload for %s: %v\n", pmid, err)
		return nil, false
	}
	rec.Timestamp = parseTimestamp(ts)
	return &rec, true
}

// StoreMetadata upserts the bibliographic record keyed by its PMID (R2.3).
func (s *Store) StoreMetadata(ctx context.Context, meta types.PaperMetadata) bool {
	payload, err := json.Marshal(meta)
	if err != nil {
		fmt.Fprintf(s.logw, "cache: serializing metadata %s: %v\n", meta.PMID, err)
		return false
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO metadata_cache (pmid, payload, timestamp) VALUES (?, ?, ?)`,
		meta.PMID, string(payload), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		fmt.Fprintf(s.logw, "cache: storing metadata %s: %v\n", meta.PMID, err)
		return false
	}
	return true
}

// GetMetadata returns the cached bibliographic record for pmid.
func (s *Store) GetMetadata(ctx context.Context, pmid string) (*MetadataRecord, bool) {
	var payload, ts string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, timestamp FROM metadata_cache WHERE pmid = ?`, pmid,
	).Scan(&payload, &ts)
	if err != nil {
		return nil, false
	}

	var rec MetadataRecord
	if err := json.Unmarshal([]byte(payload), &rec.Metadata); err != nil {
		fmt.Fprintf(s.logw, "cache: corrupt metadata payload for %s: %v\n", pmid, err)
		return nil, false
	}
	rec.Timestamp = parseTimestamp(ts)
	return &rec, true
}

// StoreFulltext upserts the full text for pmid with its provenance
// (e.g. "pmc") (R2.4).
func (s *Store) StoreFulltext(ctx context.Context, pmid, text, source string) bool {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO fulltext_cache (pmid, fulltext, source, timestamp) VALUES (?, ?, ?, ?)`,
		pmid, text, source, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		fmt.Fprintf(s.logw, "cache: storing fulltext %s: %v\n", pmid, err)
		return false
	}
	return true
}

// GetFulltext returns the cached full text for pmid.
func (s *Store) GetFulltext(ctx context.Context, pmid string) (*FulltextRecord, bool) {
	rec := FulltextRecord{PMID: pmid}
	var ts string
	err := s.db.QueryRowContext(ctx,
		`SELECT fulltext, source, timestamp FROM fulltext_cache WHERE pmid = ?`, pmid,
	).Scan(&rec.Text, &rec.Source, &ts)
	if err != nil {
		return nil, false
	}
	rec.Timestamp = parseTimestamp(ts)
	return &rec, true
}

// Stats summarizes the cache contents (R5.1).
type Stats struct {
	AnalysisCount      int     `json:"analysis_count" yaml:"analysis_count"`
	MetadataCount      int     `json:"metadata_count" yaml:"metadata_count"`
	FulltextCount      int     `json:"fulltext_count" yaml:"fulltext_count"`
	RecentAnalyses     int     `json:"recent_analyses" yaml:"recent_analyses"`
	CurationReadyCount int     `json:"curation_ready_count" yaml:"curation_ready_count"`
	NotReadyCount      int     `json:"not_ready_count" yaml:"not_ready_count"`
	ReadinessRate      float64 `json:"readiness_rate" yaml:"readiness_rate"`
}

// Stats computes collection counts, the last-24h analysis count, and
// the readiness split. The rate is 0 on an empty cache, not NaN.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats

	counts := []struct {
		query string
		dest  *int
	}{
		{`SELECT count(*) FROM analysis_cache`, &st.AnalysisCount},
		{`SELECT count(*) FROM metadata_cache`, &st.MetadataCount},
		{`SELECT count(*) FROM fulltext_cache`, &st.FulltextCount},
		{`SELECT count(*) FROM analysis_cache WHERE curation_ready`, &st.CurationReadyCount},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return Stats{}, fmt.Errorf("counting cache rows: %w", err)
		}
	}

	cutoff := time.Now().UTC().Add(-24 * time.Hour).Format(time.RFC3339Nano)
	if err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM analysis_cache WHERE timestamp >= ?`, cutoff,
	).Scan(&st.RecentAnalyses); err != nil {
		return Stats{}, fmt.Errorf("counting recent analyses: %w", err)
	}

	st.NotReadyCount = st.AnalysisCount - st.CurationReadyCount
	if st.AnalysisCount > 0 {
		st.ReadinessRate = float64(st.CurationReadyCount) / float64(st.AnalysisCount)
	}
	return st, nil
}

// ClearOlderThan deletes entries older than maxAgeHours from all three
// collections and returns the number of rows removed (R4.2).
func (s *Store) ClearOlderThan(ctx context.Context, maxAgeHours int) (int, error) {
	if maxAgeHours <= 0 {
		maxAgeHours = 24
	}
	cutoff := time.Now().UTC().Add(-time.Duration(maxAgeHours) * time.Hour).Format(time.RFC3339Nano)

	removed := 0
	for _, table := range []string{"analysis_cache", "metadata_cache", "fulltext_cache"} {
		res, err := s.db.ExecContext(ctx,
			`DELETE FROM `+table+` WHERE timestamp < ?`, cutoff)
		if err != nil {
			return removed, fmt.Errorf("clearing %s: %w", table, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			removed += int(n)
		}
	}
	return removed, nil
}

// SearchHit is one match from a cache search.
type SearchHit struct {
	PMID       string `json:"pmid" yaml:"pmid"`
	Collection string `json:"collection" yaml:"collection"`
	Payload    string `json:"payload" yaml:"payload"`
}

// Search scans serialized payloads for a substring of query. Scope is
// "analysis", "metadata", "fulltext", or "all"; results are capped at
// the configured maximum (R5.2). Matching uses SQLite LIKE, which
// compares ASCII letters case-insensitively.
func (s *Store) Search(ctx context.Context, query, scope string) ([]SearchHit, error) {
	type target struct {
		collection string
		stmt       string
	}
	var targets []target
	if scope == "analysis" || scope == "all" || scope == "" {
		targets = append(targets, target{"analysis", `SELECT pmid, payload FROM analysis_cache WHERE payload LIKE ? ORDER BY timestamp DESC`})
	}
	if scope == "metadata" || scope == "all" || scope == "" {
		targets = append(targets, target{"metadata", `SELECT pmid, payload FROM metadata_cache WHERE payload LIKE ? ORDER BY timestamp DESC`})
	}
	if scope == "fulltext" || scope == "all" || scope == "" {
		targets = append(targets, target{"fulltext", `SELECT pmid, fulltext FROM fulltext_cache WHERE fulltext LIKE ? ORDER BY timestamp DESC`})
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("unknown search scope %q", scope)
	}

	pattern := "%" + query + "%"
	var hits []SearchHit
	for _, t := range targets {
		rows, err := s.db.QueryContext(ctx, t.stmt, pattern)
		if err != nil {
			return nil, fmt.Errorf("searching %s cache: %w", t.collection, err)
		}
		for rows.Next() {
			if len(hits) >= s.maxResults {
				break
			}
			var h SearchHit
			h.Collection = t.collection
			if err := rows.Scan(&h.PMID, &h.Payload); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scanning %s hit: %w", t.collection, err)
			}
			hits = append(hits, h)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("iterating %s hits: %w", t.collection, err)
		}
		rows.Close()
	}
	return hits, nil
}

// AllAnalyses returns every cached analysis ordered newest first. Rows
// whose payload no longer parses are skipped, not fatal (R5.3).
func (s *Store) AllAnalyses(ctx context.Context) ([]AnalysisRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT pmid, payload, timestamp FROM analysis_cache ORDER BY timestamp DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying analyses: %w", err)
	}
	defer rows.Close()

	var records []AnalysisRecord
	for rows.Next() {
		var pmid, payload, ts string
		if err := rows.Scan(&pmid, &payload, &ts); err != nil {
			return nil, fmt.Errorf("scanning analysis row: %w", err)
		}
		var rec AnalysisRecord
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			fmt.Fprintf(s.logw, "cache: skipping corrupt analysis payload for %s: %v\n", pmid, err)
			continue
		}
		rec.Timestamp = parseTimestamp(ts)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating analyses: %w", err)
	}
	return records, nil
}

// parseTimestamp tolerates both RFC3339Nano and plain RFC3339 rows.
func parseTimestamp(s string) time.Time {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	t, _ := time.Parse(time.RFC3339, s)
	return t
}
