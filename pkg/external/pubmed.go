package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/genegpt-qa-server/internal/domain"
)

// PubMedClient searches literature through the E-utilities endpoints.
type PubMedClient struct {
	baseURL    string
	apiKey     string
	maxResults int
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewPubMedClient creates a new PubMed API client
func NewPubMedClient(config domain.PubMedConfig) *PubMedClient {
	maxResults := config.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}
	return &PubMedClient{
		baseURL:    config.BaseURL,
		apiKey:     config.APIKey,
		maxResults: maxResults,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: perSecond(config.RateLimit),
	}
}

type pubmedSummary struct {
	Title           string `json:"title"`
	FullJournalName string `json:"fulljournalname"`
	Source          string `json:"source"`
	PubDate         string `json:"pubdate"`
}

// Search runs a free-text query and returns up to maxResults papers.
// The Link field always points at the PubMed search page for the query
// so the answer can cite it even when no papers came back.
func (c *PubMedClient) Search(ctx context.Context, query string) (domain.PubMedEvidence, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.PubMedEvidence{
			Papers: []domain.PubMedPaper{},
			Reason: "No query provided to PubMed client.",
		}, nil
	}

	searchLink := fmt.Sprintf("https://pubmed.ncbi.nlm.nih.gov/?term=%s", url.QueryEscape(query))

	params := url.Values{
		"db":      {"pubmed"},
		"term":    {query},
		"retmode": {"json"},
		"retmax":  {strconv.Itoa(c.maxResults)},
	}
	fullURL := eutilsURL(c.baseURL, "esearch.fcgi", params, c.apiKey)

	var searchResp esearchResponse
	if err := getJSON(ctx, c.httpClient, c.limiter, fullURL, &searchResp); err != nil {
		return domain.PubMedEvidence{}, fmt.Errorf("pubmed search failed: %w", err)
	}

	pmids := searchResp.ESearchResult.IDList
	if len(pmids) == 0 {
		return domain.PubMedEvidence{
			Papers: []domain.PubMedPaper{},
			Link:   searchLink,
			Reason: "No PubMed results found for this query.",
		}, nil
	}

	summaryParams := url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(pmids, ",")},
		"retmode": {"json"},
	}
	summaryURL := eutilsURL(c.baseURL, "esummary.fcgi", summaryParams, c.apiKey)

	var summaryResp esummaryResponse
	if err := getJSON(ctx, c.httpClient, c.limiter, summaryURL, &summaryResp); err != nil {
		return domain.PubMedEvidence{}, fmt.Errorf("pubmed summary failed: %w", err)
	}

	papers := make([]domain.PubMedPaper, 0, len(pmids))
	for _, pmid := range pmids {
		raw := summaryResp.record(pmid)
		if raw == nil {
			continue
		}

		var summary pubmedSummary
		if err := json.Unmarshal(raw, &summary); err != nil {
			continue
		}

		journal := summary.FullJournalName
		if journal == "" {
			journal = summary.Source
		}

		papers = append(papers, domain.PubMedPaper{
			PMID:    pmid,
			Title:   summary.Title,
			Journal: journal,
			Year:    extractYear(summary.PubDate),
			URL:     fmt.Sprintf("https://pubmed.ncbi.nlm.nih.gov/%s/", pmid),
		})
	}

	return domain.PubMedEvidence{
		Used:   true,
		Papers: papers,
		Link:   searchLink,
	}, nil
}

// extractYear finds the first 4-digit token in a pubdate like
// "2024 Mar 15" or "2019 Nov-Dec".
func extractYear(pubdate string) int {
	for _, part := range strings.Fields(pubdate) {
		if len(part) == 4 {
			if year, err := strconv.Atoi(part); err == nil {
				return year
			}
		}
	}
	return 0
}
