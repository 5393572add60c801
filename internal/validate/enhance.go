// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validate

import (
	"fmt"
	"strings"

	"github.com/curatelab/curation-engine/pkg/types"
)

// Enhance validates every canonical curation field against the full
// text and returns a uniform six-field result. Fields missing from the
// candidate map are synthesized as ABSENT so the output shape is the
// same regardless of what the upstream model emitted.
// Per prd002-validation R3.
func Enhance(candidates types.CandidateFields, fullText string) types.CurationFields {
	fields := make(map[types.FieldName]types.FieldAssessment, len(types.CurationFieldNames))

	for _, name := range types.CurationFieldNames {
		if _, ok := candidates[string(name)]; ok {
			r := ValidateField(name, fullText, candidates)
			fields[name] = types.FieldAssessment{
				Value:                  r.ExtractedValue,
				Confidence:             r.Confidence,
				Status:                 r.Status,
				ReasonIfMissing:        r.ReasonIfMissing,
				SuggestionsForCuration: r.SuggestionsForCuration,
			}
			continue
		}
		fields[name] = defaultAssessment(name)
	}

	var missing []string
	for _, name := range types.CurationFieldNames {
		if fields[name].Status != types.FieldPresent {
			missing = append(missing, string(name))
		}
	}

	return types.CurationFields{
		Fields:                     fields,
		CurationReady:              len(missing) == 0,
		MissingFields:              missing,
		CurationPreparationSummary: Summary(missing),
	}
}

// defaultAssessment is the ABSENT structure for a field the model never
// emitted. Per prd002-validation R3.1.
func defaultAssessment(name types.FieldName) types.FieldAssessment {
	return types.FieldAssessment{
		Value:                  types.UnknownValue,
		Confidence:             0.0,
		Status:                 types.FieldAbsent,
		ReasonIfMissing:        "Field not found in analysis",
		SuggestionsForCuration: fmt.Sprintf("Review paper for %s information", strings.ReplaceAll(string(name), "_", " ")),
	}
}

// Summary selects the human-readable completeness message by the count
// of missing fields. Shared with response validation; keep the wording
// stable, the web layer surfaces it verbatim. Per prd002-validation R4.
func Summary(missing []string) string {
	switch n := len(missing); {
	case n == 0:
		return "All required fields are present. Paper is ready for curation."
	case n == 1:
		return fmt.Sprintf("Missing 1 field: %s. Review paper for this information.", missing[0])
	case n <= 3:
		return fmt.Sprintf("Missing %d fields: %s. Paper needs additional review.", n, strings.Join(missing, ", "))
	default:
		return fmt.Sprintf("Missing %d fields. Paper requires significant review before curation.", n)
	}
}
