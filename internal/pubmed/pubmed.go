// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pubmed retrieves paper metadata and PMC full text through the
// NCBI E-utilities API. Implements: prd004-retrieval (R1-R4).
package pubmed

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/curatelab/curation-engine/internal/httputil"
	"github.com/curatelab/curation-engine/pkg/types"
)

// eutilsAPIBase is the E-utilities endpoint prefix. Declared as a var so
// tests can point it at a local server.
var eutilsAPIBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// Client talks to the E-utilities API with NCBI's rate budget: requests
// are spaced by the configured delay and rate-limit responses are
// retried with backoff. Safe for concurrent use.
type Client struct {
	cfg  types.PubMedConfig
	http *http.Client

	mu       sync.Mutex
	lastCall time.Time
}

// NewClient builds a Client from config. A zero request delay defaults
// to 340 ms, NCBI's three-requests-per-second budget without an API key.
func NewClient(cfg types.PubMedConfig) *Client {
	if cfg.RequestDelay <= 0 {
		cfg.RequestDelay = 340 * time.Millisecond
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
	}
}

// throttle blocks until the configured delay since the previous call
// has passed.
func (c *Client) throttle(ctx context.Context) error {
	c.mu.Lock()
	now := time.Now()
	wait := c.lastCall.Add(c.cfg.RequestDelay).Sub(now)
	if wait < 0 {
		wait = 0
	}
	c.lastCall = now.Add(wait)
	c.mu.Unlock()

	if wait == 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}

// get performs one throttled E-utilities call and returns the response.
// The caller owns the body.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) (*http.Response, error) {
	if err := c.throttle(ctx); err != nil {
		return nil, err
	}

	if c.cfg.APIKey != "" {
		params.Set("api_key", c.cfg.APIKey)
	}
	if c.cfg.Email != "" {
		params.Set("email", c.cfg.Email)
	}
	params.Set("tool", "curation-engine")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/%s?%s", eutilsAPIBase, endpoint, params.Encode()), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, c.http, req, c.cfg.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", endpoint, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%s returned HTTP %d", endpoint, resp.StatusCode)
	}
	return resp, nil
}

// PubMed efetch XML structures (rettype=medline, retmode=xml).
type pubmedArticleSet struct {
	Articles []struct {
		MedlineCitation struct {
			Article struct {
				ArticleTitle string `xml:"ArticleTitle"`
				Abstract     struct {
					AbstractText []string `xml:"AbstractText"`
				} `xml:"Abstract"`
				AuthorList struct {
					Authors []struct {
						LastName       string `xml:"LastName"`
						ForeName       string `xml:"ForeName"`
						CollectiveName string `xml:"CollectiveName"`
					} `xml:"Author"`
				} `xml:"AuthorList"`
				Journal struct {
					Title        string `xml:"Title"`
					JournalIssue struct {
						PubDate struct {
							Year string `xml:"Year"`
						} `xml:"PubDate"`
					} `xml:"JournalIssue"`
				} `xml:"Journal"`
				PublicationTypeList struct {
					PublicationTypes []string `xml:"PublicationType"`
				} `xml:"PublicationTypeList"`
				ELocationIDs []struct {
					EIdType string `xml:"EIdType,attr"`
					Value   string `xml:",chardata"`
				} `xml:"ELocationID"`
			} `xml:"Article"`
			MeshHeadingList struct {
				MeshHeadings []struct {
					DescriptorName string `xml:"DescriptorName"`
				} `xml:"MeshHeading"`
			} `xml:"MeshHeadingList"`
		} `xml:"MedlineCitation"`
	} `xml:"PubmedArticle"`
}

// Metadata fetches the bibliographic record for one PMID (R2).
func (c *Client) Metadata(ctx context.Context, pmid string) (types.PaperMetadata, error) {
	resp, err := c.get(ctx, "efetch.fcgi", url.Values{
		"db":      {"pubmed"},
		"id":      {pmid},
		"rettype": {"medline"},
		"retmode": {"xml"},
	})
	if err != nil {
		return types.PaperMetadata{}, err
	}
	defer resp.Body.Close()

	var set pubmedArticleSet
	if err := xml.NewDecoder(resp.Body).Decode(&set); err != nil {
		return types.PaperMetadata{}, fmt.Errorf("parsing efetch response: %w", err)
	}
	if len(set.Articles) == 0 {
		return types.PaperMetadata{}, fmt.Errorf("no metadata found for PMID %s", pmid)
	}

	article := set.Articles[0].MedlineCitation.Article
	meta := types.PaperMetadata{
		PMID:             pmid,
		Title:            strings.TrimSpace(article.ArticleTitle),
		Abstract:         strings.TrimSpace(strings.Join(article.Abstract.AbstractText, " ")),
		Journal:          article.Journal.Title,
		Year:             article.Journal.JournalIssue.PubDate.Year,
		PublicationTypes: article.PublicationTypeList.PublicationTypes,
	}
	for _, a := range article.AuthorList.Authors {
		switch {
		case a.CollectiveName != "":
			meta.Authors = append(meta.Authors, a.CollectiveName)
		case a.LastName != "":
			meta.Authors = append(meta.Authors, strings.TrimSpace(a.ForeName+" "+a.LastName))
		}
	}
	for _, e := range article.ELocationIDs {
		if e.EIdType == "doi" {
			meta.DOI = strings.TrimSpace(e.Value)
			break
		}
	}
	for _, m := range set.Articles[0].MedlineCitation.MeshHeadingList.MeshHeadings {
		meta.MeshTerms = append(meta.MeshTerms, m.DescriptorName)
	}
	return meta, nil
}

// elink XML structures (dbfrom=pubmed, db=pmc).
type elinkResult struct {
	LinkSets []struct {
		LinkSetDbs []struct {
			Links []struct {
				ID string `xml:"Id"`
			} `xml:"Link"`
		} `xml:"LinkSetDb"`
	} `xml:"LinkSet"`
}

// Fulltext fetches the PMC full text for a PMID (R3). The second return
// value names the source ("pmc"). A paper without a PMC deposit is an
// error; callers treat full text as optional.
func (c *Client) Fulltext(ctx context.Context, pmid string) (string, string, error) {
	pmcid, err := c.pmcID(ctx, pmid)
	if err != nil {
		return "", "", err
	}

	resp, err := c.get(ctx, "efetch.fcgi", url.Values{
		"db":      {"pmc"},
		"id":      {pmcid},
		"rettype": {"full"},
		"retmode": {"xml"},
	})
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	text, err := extractJATSText(resp.Body)
	if err != nil {
		return "", "", fmt.Errorf("parsing PMC article: %w", err)
	}
	if text == "" {
		return "", "", fmt.Errorf("PMC article %s has no extractable text", pmcid)
	}
	return text, "pmc", nil
}

// pmcID resolves the PMC identifier linked to a PMID.
func (c *Client) pmcID(ctx context.Context, pmid string) (string, error) {
	resp, err := c.get(ctx, "elink.fcgi", url.Values{
		"dbfrom":  {"pubmed"},
		"db":      {"pmc"},
		"id":      {pmid},
		"retmode": {"xml"},
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var result elinkResult
	if err := xml.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("parsing elink response: %w", err)
	}
	for _, ls := range result.LinkSets {
		for _, db := range ls.LinkSetDbs {
			for _, link := range db.Links {
				if link.ID != "" {
					return link.ID, nil
				}
			}
		}
	}
	return "", fmt.Errorf("no PMC full text available for PMID %s", pmid)
}

// esearch XML structures.
type esearchResult struct {
	IDList struct {
		IDs []string `xml:"Id"`
	} `xml:"IdList"`
}

// Search runs an esearch query against PubMed and returns matching
// PMIDs, newest first, capped at max (R1).
func (c *Client) Search(ctx context.Context, query string, max int) ([]string, error) {
	if max <= 0 {
		max = 20
	}
	resp, err := c.get(ctx, "esearch.fcgi", url.Values{
		"db":      {"pubmed"},
		"term":    {query},
		"retmax":  {fmt.Sprintf("%d", max)},
		"sort":    {"pub date"},
		"retmode": {"xml"},
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result esearchResult
	if err := xml.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("parsing esearch response: %w", err)
	}
	return result.IDList.IDs, nil
}

// extractJATSText walks a PMC JATS document and collects the abstract
// and body text, skipping references, tables, and figures.
func extractJATSText(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)

	var (
		b     strings.Builder
		depth int // nesting depth inside abstract or body
		skip  int // nesting depth inside skipped containers
	)

	for {
		tok, err := decoder.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "abstract", "body":
				depth++
			case "ref-list", "table-wrap", "fig", "xref":
				if depth > 0 {
					skip++
				}
			default:
				if depth > 0 && skip == 0 {
					depth++
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "ref-list", "table-wrap", "fig", "xref":
				if skip > 0 {
					skip--
				}
			default:
				if depth > 0 && skip == 0 {
					depth--
					// Paragraph and title boundaries become newlines.
					if t.Name.Local == "p" || t.Name.Local == "title" {
						b.WriteString("\n")
					}
				}
			}
		case xml.CharData:
			if depth > 0 && skip == 0 {
				b.Write(t)
			}
		}
	}

	return strings.TrimSpace(b.String()), nil
}
