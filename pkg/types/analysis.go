// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Readiness is the categorical verdict on whether a paper has enough
// explicit, quantitative microbial-signature evidence to be curated.
// Per prd001-analysis R1.1.
type Readiness string

const (
	ReadinessUnknown  Readiness = "UNKNOWN"
	ReadinessReady    Readiness = "READY"
	ReadinessNotReady Readiness = "NOT_READY"
	ReadinessError    Readiness = "ERROR"
)

// SignaturePresence describes whether microbial signatures were reported.
type SignaturePresence string

const (
	SignatureUnknown SignaturePresence = "Unknown"
	SignaturePresent SignaturePresence = "Present"
	SignatureAbsent  SignaturePresence = "Absent"
	SignaturePartial SignaturePresence = "Partial"
)

// DataQuality grades the reported signature data.
type DataQuality string

const (
	QualityUnknown DataQuality = "Unknown"
	QualityHigh    DataQuality = "High"
	QualityMedium  DataQuality = "Medium"
	QualityLow     DataQuality = "Low"
)

// Significance records whether statistical significance was reported.
type Significance string

const (
	SignificanceUnknown      Significance = "Unknown"
	SignificanceYes          Significance = "Yes"
	SignificanceNo           Significance = "No"
	SignificanceInsufficient Significance = "Insufficient"
)

// Completeness grades how much of the curatable content is present.
type Completeness string

const (
	CompletenessUnknown      Completeness = "Unknown"
	CompletenessComplete     Completeness = "Complete"
	CompletenessPartial      Completeness = "Partial"
	CompletenessInsufficient Completeness = "Insufficient"
)

// TotalFactors is the size of the factor catalogue used for the
// factor-based score: 6 general + 5 human/animal + 5 environmental.
// Per prd001-analysis R3.4.
const TotalFactors = 16

// CurationAnalysis is the structured outcome of parsing one model
// response. Created fresh per parse and immutable once returned;
// downstream consumers copy rather than mutate.
// Per prd001-analysis R1-R3.
type CurationAnalysis struct {
	// Readiness is the primary verdict. Set at most once per parse;
	// later section content never downgrades it.
	Readiness Readiness `json:"readiness" yaml:"readiness"`

	// Explanation accumulates the "detailed explanation" section,
	// whitespace-normalized.
	Explanation string `json:"explanation" yaml:"explanation"`

	// MicrobialSignatures reports whether signatures were found.
	MicrobialSignatures SignaturePresence `json:"microbial_signatures" yaml:"microbial_signatures"`

	// SignatureTypes lists the kinds of signatures reported (e.g.
	// "differential abundance"). Insertion order preserved, duplicates kept.
	SignatureTypes []string `json:"signature_types" yaml:"signature_types"`

	// DataQuality grades the signature data.
	DataQuality DataQuality `json:"data_quality" yaml:"data_quality"`

	// StatisticalSignificance records whether significance was reported.
	StatisticalSignificance Significance `json:"statistical_significance" yaml:"statistical_significance"`

	// MissingFields lists curatable fields the model flagged as missing.
	MissingFields []string `json:"missing_fields" yaml:"missing_fields"`

	// DataCompleteness grades the curatable content.
	DataCompleteness Completeness `json:"data_completeness" yaml:"data_completeness"`

	// SpecificReasons collects the bulleted readiness/non-readiness reasons.
	SpecificReasons []string `json:"specific_reasons" yaml:"specific_reasons"`

	// Confidence is the model's self-reported score from the confidence
	// section, clamped to [0, 1]. Zero when absent. Per prd001-analysis R2.4.
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// Examples collects the bulleted evidence examples.
	Examples []string `json:"examples" yaml:"examples"`

	// Factor lists from the factor-based analysis section, comma-split
	// from their respective lines. Per prd001-analysis R3.1-R3.3.
	GeneralFactorsPresent     []string `json:"general_factors_present" yaml:"general_factors_present"`
	HumanAnimalFactorsPresent []string `json:"human_animal_factors_present" yaml:"human_animal_factors_present"`
	EnvironmentalFactors      []string `json:"environmental_factors_present" yaml:"environmental_factors_present"`
	MissingCriticalFactors    []string `json:"missing_critical_factors" yaml:"missing_critical_factors"`

	// FactorBasedScore is min(1, presentFactors/TotalFactors), an
	// auxiliary readiness score independent of the primary verdict.
	FactorBasedScore float64 `json:"factor_based_score" yaml:"factor_based_score"`
}
