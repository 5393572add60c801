// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "encoding/json"

// FieldStatus classifies how clearly a curation field is supported by
// the paper text. Per prd002-validation R1.2.
type FieldStatus string

const (
	FieldPresent          FieldStatus = "PRESENT"
	FieldPartiallyPresent FieldStatus = "PARTIALLY_PRESENT"
	FieldAbsent           FieldStatus = "ABSENT"
)

// StatusForConfidence maps a confidence score to a FieldStatus using the
// fixed thresholds: >=0.8 PRESENT, >=0.4 PARTIALLY_PRESENT, else ABSENT.
func StatusForConfidence(confidence float64) FieldStatus {
	switch {
	case confidence >= 0.8:
		return FieldPresent
	case confidence >= 0.4:
		return FieldPartiallyPresent
	default:
		return FieldAbsent
	}
}

// FieldName identifies one of the six curation-relevant fields.
// Per prd002-validation R1.1.
type FieldName string

const (
	FieldHostSpecies    FieldName = "host_species"
	FieldBodySite       FieldName = "body_site"
	FieldCondition      FieldName = "condition"
	FieldSequencingType FieldName = "sequencing_type"
	FieldTaxaLevel      FieldName = "taxa_level"
	FieldSampleSize     FieldName = "sample_size"
)

// CurationFieldNames lists the six canonical fields in their fixed order.
var CurationFieldNames = []FieldName{
	FieldHostSpecies,
	FieldBodySite,
	FieldCondition,
	FieldSequencingType,
	FieldTaxaLevel,
	FieldSampleSize,
}

// ContentKey returns the model-emitted key that carries the field's
// content value ("primary" for host species, "site" for body site, ...).
func (f FieldName) ContentKey() string {
	switch f {
	case FieldHostSpecies:
		return "primary"
	case FieldBodySite:
		return "site"
	case FieldCondition:
		return "description"
	case FieldSequencingType:
		return "method"
	case FieldTaxaLevel:
		return "level"
	case FieldSampleSize:
		return "size"
	default:
		return "value"
	}
}

// UnknownValue is the sentinel content value for fields the model could
// not extract.
const UnknownValue = "Unknown"

// FieldValidationResult is the per-field outcome of cross-checking an
// extracted value against lexical evidence in the source text.
// Stateless; callers embed it into a FieldAssessment before caching.
// Per prd002-validation R2.
type FieldValidationResult struct {
	// Status is derived from Confidence via StatusForConfidence.
	Status FieldStatus `json:"status" yaml:"status"`

	// Confidence is the validation score in [0, 1].
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// ExtractedValue is the validated content value, or UnknownValue.
	ExtractedValue string `json:"extracted_value" yaml:"extracted_value"`

	// ReasonIfMissing explains an ABSENT or PARTIALLY_PRESENT status.
	ReasonIfMissing string `json:"reason_if_missing" yaml:"reason_if_missing"`

	// SuggestionsForCuration is a curator hint for locating the field.
	SuggestionsForCuration string `json:"suggestions_for_curation" yaml:"suggestions_for_curation"`
}

// FieldAssessment is the uniform per-field object in the enhanced
// extraction map: the content value under the field's content key plus
// the validation outcome. Per prd002-validation R3.2.
type FieldAssessment struct {
	// Value is the content value, stored under the field's content key
	// when serialized.
	Value string `json:"-" yaml:"-"`

	Confidence             float64     `json:"confidence" yaml:"confidence"`
	Status                 FieldStatus `json:"status" yaml:"status"`
	ReasonIfMissing        string      `json:"reason_if_missing" yaml:"reason_if_missing"`
	SuggestionsForCuration string      `json:"suggestions_for_curation" yaml:"suggestions_for_curation"`
}

// CurationFields is the enhanced six-field extraction result with the
// completeness summary. The Fields map always contains exactly the six
// canonical field names. Per prd002-validation R3, R4.
type CurationFields struct {
	Fields map[FieldName]FieldAssessment `json:"fields" yaml:"fields"`

	// CurationReady is true only when every field is PRESENT.
	CurationReady bool `json:"curation_ready" yaml:"curation_ready"`

	// MissingFields lists fields whose status is not PRESENT, in
	// canonical field order.
	MissingFields []string `json:"missing_fields" yaml:"missing_fields"`

	// CurationPreparationSummary is the human-readable completeness
	// summary selected by the missing-field count.
	CurationPreparationSummary string `json:"curation_preparation_summary" yaml:"curation_preparation_summary"`
}

// CandidateFields is the loosely structured extraction emitted by the
// model: field name → object carrying at least the field's content key
// and optionally confidence/status. Per prd002-validation R1.3.
type CandidateFields map[string]map[string]any

// ContentValue returns the candidate's content value for field, or ""
// when the field or its content key is missing.
func (c CandidateFields) ContentValue(field FieldName) string {
	obj, ok := c[string(field)]
	if !ok {
		return ""
	}
	v, ok := obj[field.ContentKey()]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// wireMap flattens the result into the wire shape consumed by the
// service layer: each field keyed by its name with the content value
// under the field's content key, plus the three summary keys and
// nothing else. Per prd002-validation R3.3.
func (c CurationFields) wireMap() map[string]any {
	out := make(map[string]any, len(c.Fields)+3)
	for name, fa := range c.Fields {
		out[string(name)] = map[string]any{
			name.ContentKey():          fa.Value,
			"confidence":               fa.Confidence,
			"status":                   string(fa.Status),
			"reason_if_missing":        fa.ReasonIfMissing,
			"suggestions_for_curation": fa.SuggestionsForCuration,
		}
	}
	missing := c.MissingFields
	if missing == nil {
		missing = []string{}
	}
	out["curation_ready"] = c.CurationReady
	out["missing_fields"] = missing
	out["curation_preparation_summary"] = c.CurationPreparationSummary
	return out
}

// MarshalJSON serializes the flattened wire shape.
func (c CurationFields) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.wireMap())
}

// MarshalYAML serializes the same flattened shape for YAML exports.
func (c CurationFields) MarshalYAML() (any, error) {
	return c.wireMap(), nil
}

// UnmarshalJSON inverts the wire shape so cached records round-trip.
// Unrecognized keys are ignored; a field object missing its content key
// yields an empty Value.
func (c *CurationFields) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	c.Fields = make(map[FieldName]FieldAssessment, len(CurationFieldNames))
	for _, name := range CurationFieldNames {
		msg, ok := raw[string(name)]
		if !ok {
			continue
		}
		var fa FieldAssessment
		if err := json.Unmarshal(msg, &fa); err != nil {
			return err
		}
		var kv map[string]any
		if err := json.Unmarshal(msg, &kv); err != nil {
			return err
		}
		fa.Value, _ = kv[name.ContentKey()].(string)
		c.Fields[name] = fa
	}

	if msg, ok := raw["curation_ready"]; ok {
		if err := json.Unmarshal(msg, &c.CurationReady); err != nil {
			return err
		}
	}
	if msg, ok := raw["missing_fields"]; ok {
		if err := json.Unmarshal(msg, &c.MissingFields); err != nil {
			return err
		}
	}
	if msg, ok := raw["curation_preparation_summary"]; ok {
		if err := json.Unmarshal(msg, &c.CurationPreparationSummary); err != nil {
			return err
		}
	}
	return nil
}
