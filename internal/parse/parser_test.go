package parse

import (
	"strings"
	"testing"

	"github.com/curatelab/curation-engine/pkg/types"
)

func TestParseReadiness(t *testing.T) {
	tests := []struct {
		name string
		text string
		want types.Readiness
	}{
		{
			name: "ready for curation",
			text: "CURATION READINESS ASSESSMENT:\nREADY FOR CURATION",
			want: types.ReadinessReady,
		},
		{
			name: "not ready for curation",
			text: "CURATION READINESS ASSESSMENT:\nNOT READY FOR CURATION",
			want: types.ReadinessNotReady,
		},
		{
			name: "bare not ready",
			text: "CURATION READINESS ASSESSMENT:\nThe paper is not ready yet.",
			want: types.ReadinessNotReady,
		},
		{
			name: "bare ready",
			text: "CURATION READINESS ASSESSMENT:\nThis paper is ready.",
			want: types.ReadinessReady,
		},
		{
			name: "unclear verdict",
			text: "CURATION READINESS ASSESSMENT:\nThe assessment is unclear.",
			want: types.ReadinessUnknown,
		},
		{
			name: "no recognized headers",
			text: "A plain abstract about gut bacteria with no section markers.",
			want: types.ReadinessUnknown,
		},
		{
			name: "readiness line outside its section is ignored",
			text: "DETAILED EXPLANATION:\nREADY FOR CURATION",
			want: types.ReadinessUnknown,
		},
		{
			name: "first verdict wins",
			text: "CURATION READINESS ASSESSMENT:\nNOT READY FOR CURATION\nREADY FOR CURATION",
			want: types.ReadinessNotReady,
		},
		{
			// Substring guard limitation, preserved on purpose: READY
			// plus an unrelated NOT on the same line never classifies
			// as READY.
			name: "ready with unrelated not stays unknown",
			text: "CURATION READINESS ASSESSMENT:\ndefinitely ready, not merely adequate",
			want: types.ReadinessUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.text)
			if got.Readiness != tt.want {
				t.Errorf("Readiness = %q, want %q", got.Readiness, tt.want)
			}
		})
	}
}

func TestParseUnstructuredTextDefaults(t *testing.T) {
	got := Parse("no section headers anywhere in this text")

	if got.Readiness != types.ReadinessUnknown {
		t.Errorf("Readiness = %q, want UNKNOWN", got.Readiness)
	}
	if got.Confidence != 0.0 {
		t.Errorf("Confidence = %f, want 0.0", got.Confidence)
	}
	for name, list := range map[string][]string{
		"SignatureTypes":            got.SignatureTypes,
		"MissingFields":             got.MissingFields,
		"SpecificReasons":           got.SpecificReasons,
		"Examples":                  got.Examples,
		"GeneralFactorsPresent":     got.GeneralFactorsPresent,
		"HumanAnimalFactorsPresent": got.HumanAnimalFactorsPresent,
		"EnvironmentalFactors":      got.EnvironmentalFactors,
		"MissingCriticalFactors":    got.MissingCriticalFactors,
	} {
		if len(list) != 0 {
			t.Errorf("%s = %v, want empty", name, list)
		}
	}
}

func TestParseConfidence(t *testing.T) {
	tests := []struct {
		name string
		line string
		want float64
	}{
		{"plain decimal", "0.9", 0.9},
		{"decimal with prose", "Confidence score: 0.75 based on clear methods", 0.75},
		{"integer clamps to one", "85", 1.0},
		{"no number", "high confidence", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse("CONFIDENCE LEVEL:\n" + tt.line)
			if got.Confidence != tt.want {
				t.Errorf("Confidence = %f, want %f", got.Confidence, tt.want)
			}
		})
	}
}

func TestParseFactorSections(t *testing.T) {
	text := strings.Join([]string{
		"FACTOR-BASED ANALYSIS:",
		"- General Factors Present: taxa identification, differential abundance, experimental design",
		"- Human/Animal Factors Present: host phenotype, sample type",
		"- Environmental Factors Present: ",
		"- Missing Critical Factors: data availability",
	}, "\n")

	got := Parse(text)

	if len(got.GeneralFactorsPresent) != 3 {
		t.Errorf("GeneralFactorsPresent = %v, want 3 items", got.GeneralFactorsPresent)
	}
	if got.GeneralFactorsPresent[0] != "taxa identification" {
		t.Errorf("first general factor = %q", got.GeneralFactorsPresent[0])
	}
	if len(got.HumanAnimalFactorsPresent) != 2 {
		t.Errorf("HumanAnimalFactorsPresent = %v, want 2 items", got.HumanAnimalFactorsPresent)
	}
	if len(got.EnvironmentalFactors) != 0 {
		t.Errorf("EnvironmentalFactors = %v, want empty", got.EnvironmentalFactors)
	}
	if got.MissingCriticalFactors[0] != "data availability" {
		t.Errorf("MissingCriticalFactors = %v", got.MissingCriticalFactors)
	}

	// 5 of 16 factors present.
	want := 5.0 / 16.0
	if got.FactorBasedScore != want {
		t.Errorf("FactorBasedScore = %f, want %f", got.FactorBasedScore, want)
	}
}

func TestFactorScoreMonotonicAndCapped(t *testing.T) {
	factors := []string{}
	prev := 0.0
	for i := 0; i < 20; i++ {
		factors = append(factors, "factor")
		text := "FACTOR-BASED ANALYSIS:\nGeneral Factors Present: " + strings.Join(factors, ", ")
		got := Parse(text)
		if got.FactorBasedScore < prev {
			t.Fatalf("score decreased from %f to %f at %d factors", prev, got.FactorBasedScore, i+1)
		}
		if got.FactorBasedScore > 1.0 {
			t.Fatalf("score %f exceeds 1.0 at %d factors", got.FactorBasedScore, i+1)
		}
		prev = got.FactorBasedScore
	}
	if prev != 1.0 {
		t.Errorf("score with 20 factors = %f, want 1.0", prev)
	}
}

func TestParseSignatureSection(t *testing.T) {
	text := strings.Join([]string{
		"MICROBIAL SIGNATURE ANALYSIS:",
		"- Presence of microbial signatures: Yes",
		"- Types of signatures found: differential abundance, community composition",
		"- Quality of signature data: High",
		"- Statistical significance: Yes",
	}, "\n")

	got := Parse(text)

	if got.MicrobialSignatures != types.SignaturePresent {
		t.Errorf("MicrobialSignatures = %q, want Present", got.MicrobialSignatures)
	}
	if len(got.SignatureTypes) != 2 || got.SignatureTypes[1] != "community composition" {
		t.Errorf("SignatureTypes = %v", got.SignatureTypes)
	}
	if got.DataQuality != types.QualityHigh {
		t.Errorf("DataQuality = %q, want High", got.DataQuality)
	}
	if got.StatisticalSignificance != types.SignificanceYes {
		t.Errorf("StatisticalSignificance = %q, want Yes", got.StatisticalSignificance)
	}
}

func TestParseContentSection(t *testing.T) {
	text := strings.Join([]string{
		"CURATABLE CONTENT ASSESSMENT:",
		"- Missing required fields: sample size, sequencing type",
		"- Data completeness: Partial",
	}, "\n")

	got := Parse(text)

	if len(got.MissingFields) != 2 || got.MissingFields[0] != "sample size" {
		t.Errorf("MissingFields = %v", got.MissingFields)
	}
	if got.DataCompleteness != types.CompletenessPartial {
		t.Errorf("DataCompleteness = %q, want Partial", got.DataCompleteness)
	}
}

func TestParseBulletedSections(t *testing.T) {
	text := strings.Join([]string{
		"SPECIFIC REASONS FOR READINESS/NON-READINESS:",
		"- Clear 16S methodology",
		"* Quantitative abundance data",
		"prose line without a bullet is skipped",
		"EXAMPLES AND EVIDENCE:",
		"- Bacteroides increased 2.3-fold (p < 0.01)",
	}, "\n")

	got := Parse(text)

	if len(got.SpecificReasons) != 2 {
		t.Fatalf("SpecificReasons = %v, want 2 items", got.SpecificReasons)
	}
	if got.SpecificReasons[1] != "Quantitative abundance data" {
		t.Errorf("second reason = %q", got.SpecificReasons[1])
	}
	if len(got.Examples) != 1 || !strings.Contains(got.Examples[0], "Bacteroides") {
		t.Errorf("Examples = %v", got.Examples)
	}
}

func TestParseExplanationNormalized(t *testing.T) {
	text := "DETAILED EXPLANATION:\nThe paper   reports\nclear    signatures.\n"
	got := Parse(text)
	if got.Explanation != "The paper reports clear signatures." {
		t.Errorf("Explanation = %q", got.Explanation)
	}
}

func TestParseEndToEnd(t *testing.T) {
	got := Parse("CURATION READINESS ASSESSMENT:\nREADY FOR CURATION\nCONFIDENCE LEVEL:\n0.9")

	if got.Readiness != types.ReadinessReady {
		t.Errorf("Readiness = %q, want READY", got.Readiness)
	}
	if got.Confidence != 0.9 {
		t.Errorf("Confidence = %f, want 0.9", got.Confidence)
	}
}
