// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analyze runs the paper assessment pipeline: screen, retrieve,
// call the model, parse, validate, cache.
// Implements: prd001-analysis (R5), prd005-screening (R2).
package analyze

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/curatelab/curation-engine/internal/cache"
	"github.com/curatelab/curation-engine/internal/parse"
	"github.com/curatelab/curation-engine/internal/validate"
	"github.com/curatelab/curation-engine/pkg/types"
)

// Retriever fetches paper metadata and full text by PMID.
type Retriever interface {
	Metadata(ctx context.Context, pmid string) (types.PaperMetadata, error)
	Fulltext(ctx context.Context, pmid string) (text, source string, err error)
}

// Pipeline wires the analysis stages together. All fields must be set
// except Log, which defaults to discard.
type Pipeline struct {
	Cache     *cache.Store
	Retriever Retriever
	Backend   Backend
	Config    types.AnalysisConfig
	CacheCfg  types.CacheConfig
	Log       io.Writer
}

func (p *Pipeline) logw() io.Writer {
	if p.Log == nil {
		return io.Discard
	}
	return p.Log
}

// AnalyzePaper runs the full pipeline for one PMID. With force false a
// fresh cached record short-circuits everything. A paper that fails the
// lexical screen is recorded NOT_READY without a model call. Model
// responses that follow no recognizable structure still produce a
// record; only retrieval and backend transport failures are errors.
func (p *Pipeline) AnalyzePaper(ctx context.Context, pmid string, force bool) (*cache.AnalysisRecord, error) {
	if !force {
		if rec, ok := p.Cache.GetAnalysis(ctx, pmid); ok && cache.IsValid(rec.Timestamp, p.CacheCfg.MaxAgeHours) {
			fmt.Fprintf(p.logw(), "analyze %s: cache hit\n", pmid)
			return rec, nil
		}
	}

	meta, err := p.metadata(ctx, pmid, force)
	if err != nil {
		return nil, fmt.Errorf("retrieving metadata for %s: %w", pmid, err)
	}

	screen := Screen(meta.Text())
	if screen.Confidence < p.Config.MinScreenConfidence {
		fmt.Fprintf(p.logw(), "analyze %s: screened out (confidence %.2f)\n", pmid, screen.Confidence)
		return p.finish(ctx, pmid, screenedOutAnalysis(screen), nil)
	}

	content := meta.Text()
	if text, _, ok := p.fulltext(ctx, pmid, force); ok {
		content = text
	}

	response, err := p.Backend.Assess(ctx, meta.Title, content)
	if err != nil {
		return nil, fmt.Errorf("assessing %s: %w", pmid, err)
	}
	analysis := parse.Parse(response)

	candidates, err := p.Backend.ExtractFields(ctx, meta.Title, content)
	if err != nil {
		// Degrade to synthesized ABSENT fields rather than losing the
		// assessment.
		fmt.Fprintf(p.logw(), "analyze %s: field extraction failed: %v\n", pmid, err)
		candidates = types.CandidateFields{}
	}
	fields := validate.Enhance(candidates, content)

	return p.finish(ctx, pmid, analysis, &fields)
}

// metadata returns the bibliographic record, from cache when fresh.
func (p *Pipeline) metadata(ctx context.Context, pmid string, force bool) (types.PaperMetadata, error) {
	if !force {
		if rec, ok := p.Cache.GetMetadata(ctx, pmid); ok && cache.IsValid(rec.Timestamp, p.CacheCfg.MaxAgeHours) {
			return rec.Metadata, nil
		}
	}

	meta, err := p.Retriever.Metadata(ctx, pmid)
	if err != nil {
		return types.PaperMetadata{}, err
	}
	p.Cache.StoreMetadata(ctx, meta)
	return meta, nil
}

// fulltext returns the full text when available. Full text is optional:
// any retrieval failure falls back to title plus abstract.
func (p *Pipeline) fulltext(ctx context.Context, pmid string, force bool) (string, string, bool) {
	if !force {
		if rec, ok := p.Cache.GetFulltext(ctx, pmid); ok {
			return rec.Text, rec.Source, true
		}
	}

	text, source, err := p.Retriever.Fulltext(ctx, pmid)
	if err != nil || text == "" {
		if err != nil {
			fmt.Fprintf(p.logw(), "analyze %s: no full text: %v\n", pmid, err)
		}
		return "", "", false
	}
	p.Cache.StoreFulltext(ctx, pmid, text, source)
	return text, source, true
}

// finish caches the outcome when configured to and returns the record.
func (p *Pipeline) finish(ctx context.Context, pmid string, analysis *types.CurationAnalysis, fields *types.CurationFields) (*cache.AnalysisRecord, error) {
	if p.Config.CacheResults && p.Cache.StoreAnalysis(ctx, pmid, analysis, fields) {
		if rec, ok := p.Cache.GetAnalysis(ctx, pmid); ok {
			return rec, nil
		}
	}
	// Caching disabled or the write failed; hand back an unsaved record.
	return &cache.AnalysisRecord{
		PMID:      pmid,
		Analysis:  analysis,
		Fields:    fields,
		Timestamp: time.Now().UTC(),
	}, nil
}

// screenedOutAnalysis is the verdict for a paper the lexical screen
// rejected before any model call.
func screenedOutAnalysis(screen ScreenResult) *types.CurationAnalysis {
	a := parse.Parse("")
	a.Readiness = types.ReadinessNotReady
	a.Explanation = fmt.Sprintf(
		"Paper did not pass the lexical relevance screen (confidence %.2f): no model assessment was requested.",
		screen.Confidence)
	a.Confidence = screen.Confidence
	return a
}
