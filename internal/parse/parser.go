// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package parse converts a model's free-text curation assessment into a
// typed CurationAnalysis. Implements: prd001-analysis (R1-R4).
package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/curatelab/curation-engine/pkg/types"
)

// sectionState identifies which response section the line cursor is in.
// One state per section header; the zero value means no section seen yet.
type sectionState int

const (
	stateNone sectionState = iota
	stateReadiness
	stateExplanation
	stateFactors
	stateSignatures
	stateContent
	stateReasons
	stateConfidence
	stateExamples
)

// headerTransition maps a section-header marker to its state. Markers
// are tested in table order against each line; a match consumes the
// line. Per prd001-analysis R2.1.
type headerTransition struct {
	marker string
	state  sectionState
}

var headerTable = []headerTransition{
	{"CURATION READINESS ASSESSMENT:", stateReadiness},
	{"DETAILED EXPLANATION:", stateExplanation},
	{"FACTOR-BASED ANALYSIS:", stateFactors},
	{"MICROBIAL SIGNATURE ANALYSIS:", stateSignatures},
	{"CURATABLE CONTENT ASSESSMENT:", stateContent},
	{"SPECIFIC REASONS", stateReasons},
	{"CONFIDENCE LEVEL:", stateConfidence},
	{"EXAMPLES AND EVIDENCE:", stateExamples},
}

// decimalPattern matches the first decimal number in a confidence line.
var decimalPattern = regexp.MustCompile(`(\d+\.?\d*)`)

// Parse converts free-text model output into a CurationAnalysis. It
// never fails: text that follows none of the section grammar yields the
// UNKNOWN defaults, and any internal fault is returned as a first-class
// ERROR analysis rather than a panic. Pure function over its input.
func Parse(text string) (analysis *types.CurationAnalysis) {
	defer func() {
		if r := recover(); r != nil {
			analysis = errorAnalysis(fmt.Sprintf("parsing analysis text: %v", r))
		}
	}()

	p := &parser{analysis: newAnalysis()}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if next, ok := matchHeader(line); ok {
			p.state = next
			continue
		}
		p.consume(line)
	}

	return p.finalize()
}

// matchHeader tests a line against the transition table in fixed order.
func matchHeader(line string) (sectionState, bool) {
	for _, t := range headerTable {
		if strings.Contains(line, t.marker) {
			return t.state, true
		}
	}
	return stateNone, false
}

// parser carries the cursor state for one Parse call.
type parser struct {
	state        sectionState
	analysis     *types.CurationAnalysis
	readinessSet bool
	explanation  []string
}

// consume dispatches a content line to its section grammar.
func (p *parser) consume(line string) {
	switch p.state {
	case stateReadiness:
		p.consumeReadiness(line)
	case stateExplanation:
		p.explanation = append(p.explanation, line)
	case stateFactors:
		p.consumeFactors(line)
	case stateSignatures:
		p.consumeSignatures(line)
	case stateContent:
		p.consumeContent(line)
	case stateReasons:
		if item, ok := bulletItem(line); ok {
			p.analysis.SpecificReasons = append(p.analysis.SpecificReasons, item)
		}
	case stateConfidence:
		p.consumeConfidence(line)
	case stateExamples:
		if item, ok := bulletItem(line); ok {
			p.analysis.Examples = append(p.analysis.Examples, item)
		}
	}
}

// consumeReadiness classifies a readiness line. The negated phrases are
// tested before the bare "READY" because "NOT READY" contains "READY"
// as a substring. The final branch keeps the reference behavior's
// substring guard: "READY" only counts when "NOT" appears nowhere on
// the line, so a sentence containing both words without forming the
// phrase "NOT READY" is left unclassified. Known heuristic limitation,
// kept deliberately. Per prd001-analysis R2.2, R2.3.
func (p *parser) consumeReadiness(line string) {
	if p.readinessSet {
		return
	}

	upper := strings.ToUpper(line)
	switch {
	case strings.Contains(upper, "NOT READY FOR CURATION"):
		p.setReadiness(types.ReadinessNotReady)
	case strings.Contains(upper, "READY FOR CURATION"):
		p.setReadiness(types.ReadinessReady)
	case strings.Contains(upper, "NOT READY"):
		p.setReadiness(types.ReadinessNotReady)
	case strings.Contains(upper, "READY") && !strings.Contains(upper, "NOT"):
		p.setReadiness(types.ReadinessReady)
	case strings.Contains(upper, "UNKNOWN"), strings.Contains(upper, "UNCLEAR"):
		p.setReadiness(types.ReadinessUnknown)
	}
}

func (p *parser) setReadiness(r types.Readiness) {
	p.analysis.Readiness = r
	p.readinessSet = true
}

// consumeFactors splits a labeled factor line into its comma-separated
// factor names. The first colon separates label from value.
func (p *parser) consumeFactors(line string) {
	switch {
	case strings.Contains(line, "General Factors Present:"):
		p.analysis.GeneralFactorsPresent = commaList(afterColon(line))
	case strings.Contains(line, "Human/Animal Factors Present:"):
		p.analysis.HumanAnimalFactorsPresent = commaList(afterColon(line))
	case strings.Contains(line, "Environmental Factors Present:"):
		p.analysis.EnvironmentalFactors = commaList(afterColon(line))
	case strings.Contains(line, "Missing Critical Factors:"):
		p.analysis.MissingCriticalFactors = commaList(afterColon(line))
	}
}

func (p *parser) consumeSignatures(line string) {
	lower := strings.ToLower(line)
	switch {
	case strings.Contains(line, "Presence of microbial signatures:"):
		switch {
		case strings.Contains(lower, "yes"):
			p.analysis.MicrobialSignatures = types.SignaturePresent
		case strings.Contains(lower, "no"):
			p.analysis.MicrobialSignatures = types.SignatureAbsent
		case strings.Contains(lower, "partial"):
			p.analysis.MicrobialSignatures = types.SignaturePartial
		}
	case strings.Contains(line, "Types of signatures found:"):
		p.analysis.SignatureTypes = commaList(afterColon(line))
	case strings.Contains(line, "Quality of signature data:"):
		switch {
		case strings.Contains(lower, "high"):
			p.analysis.DataQuality = types.QualityHigh
		case strings.Contains(lower, "medium"):
			p.analysis.DataQuality = types.QualityMedium
		case strings.Contains(lower, "low"):
			p.analysis.DataQuality = types.QualityLow
		}
	case strings.Contains(line, "Statistical significance:"):
		switch {
		case strings.Contains(lower, "yes"):
			p.analysis.StatisticalSignificance = types.SignificanceYes
		case strings.Contains(lower, "insufficient"):
			p.analysis.StatisticalSignificance = types.SignificanceInsufficient
		case strings.Contains(lower, "no"):
			p.analysis.StatisticalSignificance = types.SignificanceNo
		}
	}
}

func (p *parser) consumeContent(line string) {
	lower := strings.ToLower(line)
	switch {
	case strings.Contains(line, "Missing required fields:"):
		p.analysis.MissingFields = commaList(afterColon(line))
	case strings.Contains(line, "Data completeness:"):
		switch {
		case strings.Contains(lower, "insufficient"):
			p.analysis.DataCompleteness = types.CompletenessInsufficient
		case strings.Contains(lower, "complete"):
			p.analysis.DataCompleteness = types.CompletenessComplete
		case strings.Contains(lower, "partial"):
			p.analysis.DataCompleteness = types.CompletenessPartial
		}
	}
}

// consumeConfidence takes the first decimal number on the line verbatim
// and clamps it to [0, 1]. Per prd001-analysis R2.4.
func (p *parser) consumeConfidence(line string) {
	m := decimalPattern.FindString(line)
	if m == "" {
		return
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return
	}
	p.analysis.Confidence = clamp01(v)
}

// finalize normalizes the accumulated explanation and derives the
// factor-based score. Per prd001-analysis R3.4.
func (p *parser) finalize() *types.CurationAnalysis {
	p.analysis.Explanation = strings.Join(strings.Fields(strings.Join(p.explanation, " ")), " ")

	total := len(p.analysis.GeneralFactorsPresent) +
		len(p.analysis.HumanAnimalFactorsPresent) +
		len(p.analysis.EnvironmentalFactors)
	p.analysis.FactorBasedScore = clamp01(float64(total) / float64(types.TotalFactors))

	return p.analysis
}

// bulletItem strips a leading "-" or "*" bullet, reporting whether the
// line was a bullet at all.
func bulletItem(line string) (string, bool) {
	if !strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "*") {
		return "", false
	}
	return strings.TrimSpace(strings.TrimLeft(line, "-* ")), true
}

// afterColon returns the text after the first colon, or "" when the
// line has none.
func afterColon(line string) string {
	_, after, found := strings.Cut(line, ":")
	if !found {
		return ""
	}
	return after
}

// commaList splits a comma-separated value list, trimming items and
// dropping empty tokens. Duplicates are kept; order is preserved.
func commaList(s string) []string {
	items := []string{}
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// newAnalysis returns the UNKNOWN-default analysis every parse starts from.
func newAnalysis() *types.CurationAnalysis {
	return &types.CurationAnalysis{
		Readiness:                 types.ReadinessUnknown,
		MicrobialSignatures:       types.SignatureUnknown,
		SignatureTypes:            []string{},
		DataQuality:               types.QualityUnknown,
		StatisticalSignificance:   types.SignificanceUnknown,
		MissingFields:             []string{},
		DataCompleteness:          types.CompletenessUnknown,
		SpecificReasons:           []string{},
		Examples:                  []string{},
		GeneralFactorsPresent:     []string{},
		HumanAnimalFactorsPresent: []string{},
		EnvironmentalFactors:      []string{},
		MissingCriticalFactors:    []string{},
	}
}

// errorAnalysis builds the ERROR-readiness analysis carrying a
// diagnostic explanation. Callers treat ERROR as a first-class outcome.
func errorAnalysis(msg string) *types.CurationAnalysis {
	a := newAnalysis()
	a.Readiness = types.ReadinessError
	a.Explanation = msg
	return a
}
