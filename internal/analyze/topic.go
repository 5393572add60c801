// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"sort"
	"strings"

	"github.com/curatelab/curation-engine/internal/patterns"
)

// ScreenResult is the outcome of the coarse lexical topic screen used
// to decide whether a paper is worth a model call.
// Per prd005-screening R1.
type ScreenResult struct {
	// HasSignatures reports whether the text likely describes microbial
	// signatures: confidence above 0.4 with at least one general and one
	// methods keyword present.
	HasSignatures bool `json:"has_signatures" yaml:"has_signatures"`

	// Confidence is the weighted keyword score, capped at 1.0.
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// Keyword hits per group, in catalog order.
	GeneralTerms  []string `json:"general_terms" yaml:"general_terms"`
	MethodTerms   []string `json:"method_terms" yaml:"method_terms"`
	AnalysisTerms []string `json:"analysis_terms" yaml:"analysis_terms"`

	// Detected study descriptors, sorted for stable output.
	SequencingTypes   []string `json:"sequencing_types" yaml:"sequencing_types"`
	BodySites         []string `json:"body_sites" yaml:"body_sites"`
	DiseaseCategories []string `json:"disease_categories" yaml:"disease_categories"`
}

// Screen scores text for microbial-signature relevance without any
// network calls. General keywords weigh 0.4 each, methods and analysis
// keywords 0.3 each. Deterministic given identical input.
func Screen(text string) ScreenResult {
	lower := strings.ToLower(text)

	r := ScreenResult{
		GeneralTerms:  foundTerms(lower, patterns.GeneralKeywords),
		MethodTerms:   foundTerms(lower, patterns.MethodKeywords),
		AnalysisTerms: foundTerms(lower, patterns.AnalysisKeywords),
	}

	score := float64(len(r.GeneralTerms))*0.4 +
		float64(len(r.MethodTerms))*0.3 +
		float64(len(r.AnalysisTerms))*0.3
	if score > 1.0 {
		score = 1.0
	}
	r.Confidence = score

	r.HasSignatures = r.Confidence > 0.4 &&
		len(r.GeneralTerms) >= 1 &&
		len(r.MethodTerms) >= 1

	for label, pattern := range patterns.SequencingDetectors {
		if pattern.MatchString(lower) {
			r.SequencingTypes = append(r.SequencingTypes, label)
		}
	}
	sort.Strings(r.SequencingTypes)

	r.BodySites = detectCategories(lower, patterns.BodySiteTerms)
	r.DiseaseCategories = detectCategories(lower, patterns.DiseaseTerms)

	return r
}

// foundTerms returns the keywords present in text, preserving catalog order.
func foundTerms(text string, keywords []string) []string {
	var found []string
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			found = append(found, kw)
		}
	}
	return found
}

// detectCategories returns the labels whose term lists have at least one
// hit in text, sorted for stable output.
func detectCategories(text string, categories map[string][]string) []string {
	var detected []string
	for label, terms := range categories {
		for _, term := range terms {
			if strings.Contains(text, term) {
				detected = append(detected, label)
				break
			}
		}
	}
	sort.Strings(detected)
	return detected
}
