// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package patterns is the static lexical-pattern catalog shared by the
// field validator and the topic screener. Implements: prd002-validation
// (R2.2), prd005-screening (R1).
package patterns

import (
	"regexp"

	"github.com/curatelab/curation-engine/pkg/types"
)

// Category is a named group of lexical patterns providing evidence for
// one plausible value class of a curation field (e.g. host_species /
// "mouse"). Patterns match case-insensitively.
type Category struct {
	Name     string
	Patterns []*regexp.Regexp
}

// fieldCategories maps each curation field to its evidence categories.
// The pattern tables are fixed; compile happens once at package init.
var fieldCategories = map[types.FieldName][]Category{
	types.FieldHostSpecies: {
		compile("human", `human`, `patients?`, `participants?`, `subjects?`, `volunteers?`),
		compile("mouse", `mouse`, `mice`, `murine`, `c57bl`, `balb/c`),
		compile("rat", `rat`, `rats`, `rattus`),
		compile("environmental", `environmental?`, `environment`, `indoor`, `outdoor`, `built environment`, `natural environment`),
		compile("mixed", `mixed`, `combination`, `both human and`),
	},
	types.FieldBodySite: {
		compile("gut", `gut`, `intestine`, `intestinal`, `stool`, `feces`, `fecal`, `colon`),
		compile("oral", `oral`, `mouth`, `saliva`, `dental`, `tooth`, `teeth`, `tongue`),
		compile("skin", `skin`, `cutaneous`, `dermal`, `epidermal`),
		compile("vaginal", `vaginal`, `vagina`, `cervical`, `cervix`),
		compile("lung", `lung`, `respiratory`, `airway`, `bronchial`),
		compile("indoor", `indoor`, `building`, `room`, `office`, `home`, `restroom`, `bathroom`, `hospital`, `school`),
		compile("outdoor", `outdoor`, `soil`, `air`, `water`, `surface`),
	},
	types.FieldCondition: {
		compile("disease", `ibd`, `crohn`, `ulcerative colitis`, `obesity`, `diabetes`, `cancer`, `tumor`),
		compile("treatment", `antibiotic`, `treatment`, `intervention`, `therapy`),
		compile("comparative", `men vs women`, `healthy vs`, `before vs after`, `control vs`, `comparison`),
		compile("environmental", `seasonal`, `temporal`, `spatial`, `geographic`, `climatic`),
	},
	types.FieldSequencingType: {
		compile("16s", `16s`, `16s rrna`, `16s ribosomal`, `v4`, `v3-v4`, `amplicon`),
		compile("metagenomics", `metagenomic`, `metagenomics`, `shotgun`, `whole genome`, `wgs`),
		compile("metatranscriptomics", `metatranscriptomic`, `metatranscriptomics`, `rna-seq`, `transcriptome`),
		compile("other", `sequencing`, `next-generation`, `ngs`, `illumina`, `pacbio`),
	},
	types.FieldTaxaLevel: {
		compile("phylum", `phylum`, `phyla`, `proteobacteria`, `actinobacteria`, `bacteroidetes`, `firmicutes`),
		compile("genus", `genus`, `genera`, `bacteroides`, `prevotella`, `lactobacillus`, `bifidobacterium`),
		compile("species", `species`, `e\. coli`, `b\. fragilis`, `l\. acidophilus`, `b\. longum`),
		compile("family", `family`, `families`, `enterobacteriaceae`, `lactobacillaceae`, `bifidobacteriaceae`),
	},
	types.FieldSampleSize: {
		compile("numeric", `n\s*=\s*\d+`, `\d+\s*participants?`, `\d+\s*samples?`, `\d+\s*subjects?`),
		compile("descriptive", `multiple`, `several`, `various`, `different`, `longitudinal`, `time points?`),
	},
}

// compile builds a Category from raw expressions, anchoring nothing and
// forcing case-insensitive matching.
func compile(name string, exprs ...string) Category {
	c := Category{Name: name, Patterns: make([]*regexp.Regexp, 0, len(exprs))}
	for _, e := range exprs {
		c.Patterns = append(c.Patterns, regexp.MustCompile(`(?i)`+e))
	}
	return c
}

// ForField returns the evidence categories for a curation field, or nil
// when the field has no pattern table.
func ForField(field types.FieldName) []Category {
	return fieldCategories[field]
}

// Signature keyword sets for the coarse topic screener. Matched as
// plain lowercase substrings, not regexps. Per prd005-screening R1.1.
var (
	GeneralKeywords = []string{
		"microbiome", "microbial", "bacteria", "abundance",
		"differential abundance", "taxonomic composition",
		"community structure", "dysbiosis", "microbiota",
	}
	MethodKeywords = []string{
		"16s rrna", "metagenomic", "sequencing", "amplicon",
		"shotgun", "transcriptomic", "qpcr", "fish",
	}
	AnalysisKeywords = []string{
		"enriched", "depleted", "increased", "decreased",
		"higher abundance", "lower abundance", "differential",
	}
)

// BodySiteTerms groups body-site vocabulary for coarse detection.
var BodySiteTerms = map[string][]string{
	"gut":         {"intestinal", "gut", "gastrointestinal", "gi tract", "colon", "intestine"},
	"oral":        {"oral", "mouth", "dental", "tongue", "saliva"},
	"skin":        {"skin", "dermal", "epidermis"},
	"respiratory": {"lung", "respiratory", "airway", "bronchial"},
	"vaginal":     {"vaginal", "vagina", "cervical"},
}

// DiseaseTerms groups disease vocabulary for coarse detection.
var DiseaseTerms = map[string][]string{
	"IBD":        {"inflammatory bowel disease", "ibd", "crohn", "ulcerative colitis"},
	"cancer":     {"cancer", "tumor", "carcinoma", "neoplasm"},
	"metabolic":  {"obesity", "diabetes", "metabolic syndrome"},
	"infectious": {"infection", "pathogen", "bacterial infection"},
	"autoimmune": {"autoimmune", "arthritis", "lupus", "multiple sclerosis"},
}

// SequencingDetectors maps a sequencing-type label to the regexp that
// recognizes it in running text. Per prd005-screening R1.3.
var SequencingDetectors = map[string]*regexp.Regexp{
	"16S rRNA":             regexp.MustCompile(`16s\s*r(?:rna|RNA)`),
	"shotgun metagenomics": regexp.MustCompile(`shotgun|whole\s*genome`),
	"amplicon sequencing":  regexp.MustCompile(`amplicon\s*sequenc`),
	"transcriptomics":      regexp.MustCompile(`transcriptom|rna[\-\s]*seq`),
	"qPCR":                 regexp.MustCompile(`q(?:uantitative)?\s*pcr`),
}
