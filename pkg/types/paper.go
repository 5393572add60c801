// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// PaperMetadata holds bibliographic metadata for a paper identified by
// its PMID. Per prd004-retrieval R2.2: title, abstract, authors,
// journal, year, DOI, plus indexing terms useful for screening.
type PaperMetadata struct {
	// PMID is the PubMed identifier, the cache key for all collections.
	PMID string `json:"pmid" yaml:"pmid"`

	// Title is the article title.
	Title string `json:"title" yaml:"title"`

	// Abstract is the article abstract, empty when PubMed has none.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Authors lists author display names in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Journal is the full journal name.
	Journal string `json:"journal" yaml:"journal"`

	// Year is the publication year as reported by PubMed (may be empty).
	Year string `json:"year" yaml:"year"`

	// DOI is the digital object identifier, empty when unresolved.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// MeshTerms lists MeSH descriptor names attached to the record.
	MeshTerms []string `json:"mesh_terms,omitempty" yaml:"mesh_terms,omitempty"`

	// PublicationTypes lists PubMed publication types (e.g. "Review").
	PublicationTypes []string `json:"publication_types,omitempty" yaml:"publication_types,omitempty"`
}

// Text returns the title and abstract joined for lexical screening.
func (p PaperMetadata) Text() string {
	if p.Abstract == "" {
		return p.Title
	}
	return p.Title + " " + p.Abstract
}
