package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/time/rate"

	"github.com/genegpt-qa-server/internal/domain"
)

// NCBIGeneClient queries NCBI Gene through the E-utilities endpoints.
type NCBIGeneClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewNCBIGeneClient creates a new NCBI Gene API client
func NewNCBIGeneClient(config domain.NCBIConfig) *NCBIGeneClient {
	return &NCBIGeneClient{
		baseURL: config.BaseURL,
		apiKey:  config.APIKey,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: perSecond(config.RateLimit),
	}
}

type ncbiGeneSummary struct {
	UID         string `json:"uid"`
	Description string `json:"description"`
	Chromosome  string `json:"chromosome"`
	MapLocation string `json:"maplocation"`
	Summary     string `json:"summary"`
}

// SearchGeneID resolves a human gene symbol to an NCBI Gene ID.
func (c *NCBIGeneClient) SearchGeneID(ctx context.Context, symbol string) (string, error) {
	if symbol == "" {
		return "", nil
	}

	params := url.Values{
		"db":      {"gene"},
		"term":    {fmt.Sprintf("%s[sym] AND Homo sapiens[orgn]", symbol)},
		"retmode": {"json"},
	}
	fullURL := eutilsURL(c.baseURL, "esearch.fcgi", params, c.apiKey)

	var resp esearchResponse
	if err := getJSON(ctx, c.httpClient, c.limiter, fullURL, &resp); err != nil {
		return "", fmt.Errorf("ncbi gene search failed: %w", err)
	}

	if len(resp.ESearchResult.IDList) == 0 {
		return "", nil
	}
	return resp.ESearchResult.IDList[0], nil
}

// FetchGene returns the NCBI Gene evidence box for a resolved gene ID.
func (c *NCBIGeneClient) FetchGene(ctx context.Context, geneSymbol, geneID string) (domain.NCBIEvidence, error) {
	if geneID == "" {
		return domain.NCBIEvidence{
			Reason: fmt.Sprintf("No NCBI Gene ID resolved for gene symbol %s.", geneSymbol),
		}, nil
	}

	params := url.Values{
		"db":      {"gene"},
		"id":      {geneID},
		"retmode": {"json"},
	}
	fullURL := eutilsURL(c.baseURL, "esummary.fcgi", params, c.apiKey)

	var resp esummaryResponse
	if err := getJSON(ctx, c.httpClient, c.limiter, fullURL, &resp); err != nil {
		return domain.NCBIEvidence{}, fmt.Errorf("ncbi gene summary failed: %w", err)
	}

	raw := resp.record(geneID)
	if raw == nil {
		return domain.NCBIEvidence{
			GeneID: geneID,
			Reason: fmt.Sprintf("No NCBI Gene summary available for ID %s.", geneID),
		}, nil
	}

	var summary ncbiGeneSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return domain.NCBIEvidence{}, fmt.Errorf("failed to parse ncbi gene summary: %w", err)
	}

	location := summary.Chromosome
	if summary.MapLocation != "" {
		location = summary.MapLocation
	}

	return domain.NCBIEvidence{
		Used:     true,
		GeneID:   geneID,
		FullName: summary.Description,
		Function: summary.Summary,
		Location: location,
		Link:     fmt.Sprintf("https://www.ncbi.nlm.nih.gov/gene/%s", geneID),
		Reason:   "Fetched from NCBI Gene API.",
	}, nil
}
