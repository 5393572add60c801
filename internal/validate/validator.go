// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package validate cross-checks model-extracted curation fields against
// independent lexical evidence in the paper text.
// Implements: prd002-validation (R1-R4).
package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/curatelab/curation-engine/internal/patterns"
	"github.com/curatelab/curation-engine/pkg/types"
)

// sentinelValues are candidate contents treated as no extraction at all.
var sentinelValues = map[string]bool{
	"":              true,
	"unknown":       true,
	"not specified": true,
}

// suggestions holds the per-field curator hint used when a field is not
// PRESENT. Per prd002-validation R2.5.
var suggestions = map[types.FieldName]string{
	types.FieldHostSpecies:    "Look for explicit mentions of study organisms in methods, abstract, and study population descriptions",
	types.FieldBodySite:       "Check sample collection methods, study location descriptions, and abstract for sample source information",
	types.FieldCondition:      "Review study objectives, hypothesis, and experimental design for disease/condition details",
	types.FieldSequencingType: "Examine methods section for molecular techniques, sequencing protocols, and platform information",
	types.FieldTaxaLevel:      "Check results section for microbial community descriptions, diversity analysis, and taxonomic classifications",
	types.FieldSampleSize:     "Look for numbers in methods section, study design descriptions, and sample collection details",
}

// suggestionFor returns the curator hint for a field, with a generic
// fallback for unknown fields.
func suggestionFor(field types.FieldName) string {
	if s, ok := suggestions[field]; ok {
		return s
	}
	return "Review paper for additional information"
}

// ValidateField scores one extracted field value against the source
// text and returns the validation outcome. Deterministic given
// identical inputs. Any internal fault is converted into an ABSENT
// result carrying the fault text; validation never returns an error.
// Per prd002-validation R2.
func ValidateField(field types.FieldName, sourceText string, candidate types.CandidateFields) (result types.FieldValidationResult) {
	defer func() {
		if r := recover(); r != nil {
			result = absentResult(field, fmt.Sprintf("validation error: %v", r))
		}
	}()

	content := candidate.ContentValue(field)
	if sentinelValues[strings.ToLower(content)] {
		return absentResult(field, "No content extracted")
	}

	score := bestCategoryScore(field, content, sourceText)

	switch {
	case score >= 0.8:
		// The reference boosts confirmed fields a further tenth.
		return types.FieldValidationResult{
			Status:                 types.FieldPresent,
			Confidence:             min1(score + 0.1),
			ExtractedValue:         content,
			ReasonIfMissing:        "Field is complete",
			SuggestionsForCuration: "Field is ready for curation",
		}
	case score >= 0.4:
		return types.FieldValidationResult{
			Status:                 types.FieldPartiallyPresent,
			Confidence:             score,
			ExtractedValue:         content,
			ReasonIfMissing:        fmt.Sprintf("Partial information found: %s", content),
			SuggestionsForCuration: suggestionFor(field),
		}
	default:
		// Keeps the unconfirmed value so curators can see what the
		// model guessed.
		return types.FieldValidationResult{
			Status:                 types.FieldAbsent,
			Confidence:             0.0,
			ExtractedValue:         content,
			ReasonIfMissing:        fmt.Sprintf("No clear information found for %s", field),
			SuggestionsForCuration: suggestionFor(field),
		}
	}
}

// bestCategoryScore computes the pattern-match score for the field's
// best evidence category. For each category, patterns are matched
// against the source text; when at least one matches, the candidate
// value anchors the category when it matches any of the matched
// patterns (high band), otherwise the category only makes the value
// plausible in context (low band). Per prd002-validation R2.2-R2.4.
func bestCategoryScore(field types.FieldName, content, sourceText string) float64 {
	best := 0.0
	for _, category := range patterns.ForField(field) {
		var matched []*regexp.Regexp
		for _, p := range category.Patterns {
			if p.MatchString(sourceText) {
				matched = append(matched, p)
			}
		}
		if len(matched) == 0 {
			continue
		}

		valueAnchored := false
		for _, p := range matched {
			if p.MatchString(content) {
				valueAnchored = true
				break
			}
		}

		var confidence float64
		if valueAnchored {
			confidence = min1(float64(len(matched))*0.2 + 0.6)
		} else {
			confidence = min1(float64(len(matched))*0.1 + 0.3)
		}
		if confidence > best {
			best = confidence
		}
	}
	return best
}

// absentResult builds the ABSENT outcome shared by the short-circuit,
// low-score, and fault paths.
func absentResult(field types.FieldName, reason string) types.FieldValidationResult {
	return types.FieldValidationResult{
		Status:                 types.FieldAbsent,
		Confidence:             0.0,
		ExtractedValue:         types.UnknownValue,
		ReasonIfMissing:        reason,
		SuggestionsForCuration: suggestionFor(field),
	}
}

func min1(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	return v
}
