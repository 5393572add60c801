// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/template"

	"github.com/curatelab/curation-engine/pkg/types"
)

// Backend produces the model outputs for one paper: the free-text
// curation assessment and the structured candidate-field extraction.
// Implementations must be safe for concurrent use.
type Backend interface {
	Assess(ctx context.Context, title, content string) (string, error)
	ExtractFields(ctx context.Context, title, content string) (types.CandidateFields, error)
}

// assessmentPromptTmpl is the prompt sent to the model for each paper.
// The structured-format section drives the response parser: the section
// headers here and the markers in internal/parse must stay in sync.
// Per prd001-analysis R5.1.
var assessmentPromptTmpl = template.Must(template.New("assessment").Parse(`You are a biocuration assistant evaluating whether a scientific paper is ready for curation into a database of microbial signatures.

A paper is READY FOR CURATION when it reports original research with specific microbial taxa identification, quantitative abundance data, or microbial community analysis, together with enough study context (host, body site or environment, condition, sequencing method, sample size) to fill a curation record.

A paper is NOT READY FOR CURATION only if it is purely a review with no original research, contains no microbial data or sequencing results, mentions the microbiome only in passing, or lacks any quantitative or qualitative microbial findings.

Evaluate the paper against these factors:
- General factors (6): specific taxa named, differential abundance reported, statistical support, taxonomic resolution stated, sequencing methodology described, experimental design described.
- Human/animal factors (5): host health outcome associations, study population characteristics, intervention or exposure details, sample type from host, proposed molecular mechanisms.
- Environmental factors (5): environmental context, sample matrix, geospatial data, study duration or seasonality, associated chemical or physical measurements.

Provide your analysis in exactly this structured format:

CURATION READINESS ASSESSMENT:
[State "READY FOR CURATION" or "NOT READY FOR CURATION"]

DETAILED EXPLANATION:
[Why the paper is or is not ready, focusing on methods and reported signatures]

FACTOR-BASED ANALYSIS:
- General Factors Present: [comma-separated list]
- Human/Animal Factors Present: [comma-separated list, if applicable]
- Environmental Factors Present: [comma-separated list, if applicable]
- Missing Critical Factors: [comma-separated list]

MICROBIAL SIGNATURE ANALYSIS:
- Presence of microbial signatures: [Yes/No/Partial]
- Types of signatures found: [e.g. differential abundance, community composition]
- Quality of signature data: [High/Medium/Low]
- Statistical significance: [Yes/No/Insufficient]

CURATABLE CONTENT ASSESSMENT:
- Missing required fields: [comma-separated list from: host, body site, condition, sequencing type, sample size]
- Data completeness: [Complete/Partial/Insufficient]

SPECIFIC REASONS FOR READINESS/NON-READINESS:
- [one bullet per reason]

CONFIDENCE LEVEL:
[a score between 0.0 and 1.0]

EXAMPLES AND EVIDENCE:
- [one bullet per supporting quote or finding from the text]

Analyze this paper:

Title: {{.Title}}

{{.Content}}
`))

// extractionPromptTmpl asks for the six curation fields as strict JSON.
// Each field object carries its content key plus the model's own
// confidence and status; the validator re-scores both against the text.
// Per prd002-validation R1.3.
var extractionPromptTmpl = template.Must(template.New("extraction").Parse(`You are a biocuration assistant extracting curation fields from a scientific paper about microbial signatures.

Extract exactly these six fields and respond with ONLY a valid JSON object, no text before or after:

{"host_species": {"primary": "...", "confidence": 0.0, "status": "..."},
 "body_site": {"site": "...", "confidence": 0.0, "status": "..."},
 "condition": {"description": "...", "confidence": 0.0, "status": "..."},
 "sequencing_type": {"method": "...", "confidence": 0.0, "status": "..."},
 "taxa_level": {"level": "...", "confidence": 0.0, "status": "..."},
 "sample_size": {"size": "...", "confidence": 0.0, "status": "..."}}

Guidelines:
- host_species: the study organism, e.g. "Human", "Mouse", or the environment for environmental studies. Be specific: "Human" not "mammal".
- body_site: where samples came from, e.g. "Gut", "Oral", "Skin", or the sampled environment. Be precise: "Gut" not "digestive system".
- condition: the disease, intervention, or comparison studied, e.g. "Type 2 Diabetes", "Antibiotic treatment", "Healthy vs diseased".
- sequencing_type: the molecular method, e.g. "16S rRNA", "Shotgun metagenomics". Be precise: "16S rRNA" not "sequencing".
- taxa_level: the taxonomic resolution of the findings, e.g. "Genus", "Species", "Phylum".
- sample_size: the stated count, e.g. "n=50", "100 samples".
- Use "Unknown" for any field the paper does not state.
- status is "PRESENT" (explicitly stated, confidence 0.8-1.0), "PARTIALLY_PRESENT" (implied, 0.4-0.7), or "ABSENT" (missing, 0.0).

Paper:

Title: {{.Title}}

{{.Content}}
`))

// geminiAPIURL is the Generative Language API endpoint prefix.
// Package-level var for test substitution.
var geminiAPIURL = "https://generativelanguage.googleapis.com/v1beta/models"

// GeminiBackend calls the Gemini API to assess one paper.
// Per prd001-analysis R5.2.
type GeminiBackend struct {
	APIKey string
	Model  string
	Client *http.Client
}

// geminiRequest is the request body for the generateContent endpoint.
type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

// geminiContent is one content block in the Gemini API conversation.
type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

// geminiPart is a single part of a content block.
type geminiPart struct {
	Text string `json:"text"`
}

// geminiResponse is the response body from the generateContent endpoint.
type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// Assess calls the Gemini API with the assessment prompt and returns
// the model's raw text response.
func (g *GeminiBackend) Assess(ctx context.Context, title, content string) (string, error) {
	prompt, err := renderTemplate(assessmentPromptTmpl, title, content)
	if err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	return g.generate(ctx, prompt)
}

// ExtractFields calls the Gemini API with the extraction prompt and
// decodes the JSON object from the response. Text surrounding the JSON
// is tolerated; anything without a parseable object is an error.
func (g *GeminiBackend) ExtractFields(ctx context.Context, title, content string) (types.CandidateFields, error) {
	prompt, err := renderTemplate(extractionPromptTmpl, title, content)
	if err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}

	text, err := g.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in extraction response")
	}

	var fields types.CandidateFields
	if err := json.Unmarshal([]byte(text[start:end+1]), &fields); err != nil {
		return nil, fmt.Errorf("parsing extraction JSON: %w", err)
	}
	return fields, nil
}

// generate posts one prompt to the generateContent endpoint and returns
// the first text part of the first candidate.
func (g *GeminiBackend) generate(ctx context.Context, prompt string) (string, error) {
	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", geminiAPIURL, g.Model, g.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling Gemini API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("Gemini API returned %d: %s", resp.StatusCode, string(body))
	}

	var gResp geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&gResp); err != nil {
		return "", fmt.Errorf("decoding Gemini response: %w", err)
	}

	for _, c := range gResp.Candidates {
		for _, p := range c.Content.Parts {
			if p.Text != "" {
				return p.Text, nil
			}
		}
	}

	return "", fmt.Errorf("Gemini API returned empty content")
}

// renderTemplate executes a prompt template for one paper.
func renderTemplate(tmpl *template.Template, title, content string) (string, error) {
	var buf bytes.Buffer
	err := tmpl.Execute(&buf, struct {
		Title   string
		Content string
	}{Title: title, Content: content})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
