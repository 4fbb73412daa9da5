package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/genegpt-qa-server/internal/domain"
)

// ClinVarClient handles interactions with the ClinVar database via NCBI E-utilities
type ClinVarClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClinVarClient creates a new ClinVar API client
func NewClinVarClient(config domain.ClinVarConfig) *ClinVarClient {
	return &ClinVarClient{
		baseURL: config.BaseURL,
		apiKey:  config.APIKey,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: perSecond(config.RateLimit),
	}
}

type clinVarSummary struct {
	Accession            string `json:"accession"`
	ClinicalSignificance struct {
		Description     string          `json:"description"`
		ReviewStatus    string          `json:"review_status"`
		ConflictingData json.RawMessage `json:"conflicting_data"`
	} `json:"clinical_significance"`
	TraitSet []struct {
		Trait json.RawMessage `json:"trait"`
	} `json:"trait_set"`
	SubmissionCount int `json:"submission_count"`
}

// buildSearchTerm constructs a ClinVar query. rsIDs are understood
// directly; HGVS tokens are scoped to the gene when one is known.
func buildSearchTerm(geneSymbol, variantToken string) string {
	geneSymbol = strings.TrimSpace(geneSymbol)
	variantToken = strings.TrimSpace(variantToken)

	lower := strings.ToLower(variantToken)
	if strings.HasPrefix(lower, "rs") && isDigits(lower[2:]) {
		return variantToken
	}

	if strings.Contains(variantToken, "c.") || strings.Contains(variantToken, "p.") {
		if geneSymbol != "" {
			return fmt.Sprintf("%s[gene] AND %s", geneSymbol, variantToken)
		}
		return variantToken
	}

	if geneSymbol != "" {
		return fmt.Sprintf("%s[gene] AND %s", geneSymbol, variantToken)
	}
	return variantToken
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// FetchVariant looks up a variant's clinical significance. A missing
// token or no match yields unused evidence without an error.
func (c *ClinVarClient) FetchVariant(ctx context.Context, geneSymbol, variantToken string) (domain.ClinVarEvidence, error) {
	variantToken = strings.TrimSpace(variantToken)
	if variantToken == "" {
		return domain.ClinVarEvidence{
			Reason: "No variant token provided to ClinVar client.",
		}, nil
	}

	term := buildSearchTerm(geneSymbol, variantToken)

	id, err := c.search(ctx, term)
	if err != nil {
		return domain.ClinVarEvidence{}, err
	}
	if id == "" {
		return domain.ClinVarEvidence{
			Reason: fmt.Sprintf("No ClinVar match found for term '%s'.", term),
		}, nil
	}

	summary, err := c.summary(ctx, id)
	if err != nil {
		return domain.ClinVarEvidence{}, err
	}
	if summary == nil {
		return domain.ClinVarEvidence{
			Reason: fmt.Sprintf("ClinVar summary not available for ID %s.", id),
		}, nil
	}

	evidence := domain.ClinVarEvidence{
		Used:                   true,
		Accession:              summary.Accession,
		ClinicalSignificance:   summary.ClinicalSignificance.Description,
		ReviewStatus:           summary.ClinicalSignificance.ReviewStatus,
		NumSubmissions:         summary.SubmissionCount,
		ConflictingSubmissions: rawTruthy(summary.ClinicalSignificance.ConflictingData),
		Condition:              extractCondition(summary),
		Reason:                 fmt.Sprintf("Fetched from NCBI ClinVar API using term '%s'.", term),
	}
	if summary.Accession != "" {
		evidence.Link = fmt.Sprintf("https://www.ncbi.nlm.nih.gov/clinvar/%s", summary.Accession)
	}
	return evidence, nil
}

// search finds the first ClinVar record ID for a term.
func (c *ClinVarClient) search(ctx context.Context, term string) (string, error) {
	params := url.Values{
		"db":      {"clinvar"},
		"term":    {term},
		"retmode": {"json"},
	}
	fullURL := eutilsURL(c.baseURL, "esearch.fcgi", params, c.apiKey)

	var resp esearchResponse
	if err := getJSON(ctx, c.httpClient, c.limiter, fullURL, &resp); err != nil {
		return "", fmt.Errorf("clinvar search failed: %w", err)
	}

	if len(resp.ESearchResult.IDList) == 0 {
		return "", nil
	}
	return resp.ESearchResult.IDList[0], nil
}

// summary fetches the structured record for a ClinVar ID.
func (c *ClinVarClient) summary(ctx context.Context, id string) (*clinVarSummary, error) {
	params := url.Values{
		"db":      {"clinvar"},
		"id":      {id},
		"retmode": {"json"},
	}
	fullURL := eutilsURL(c.baseURL, "esummary.fcgi", params, c.apiKey)

	var resp esummaryResponse
	if err := getJSON(ctx, c.httpClient, c.limiter, fullURL, &resp); err != nil {
		return nil, fmt.Errorf("clinvar summary failed: %w", err)
	}

	raw := resp.record(id)
	if raw == nil {
		return nil, nil
	}

	var summary clinVarSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil, fmt.Errorf("failed to parse clinvar summary: %w", err)
	}
	return &summary, nil
}

// extractCondition pulls the first trait name; ClinVar serializes the
// name as either a string or a list depending on the record.
func extractCondition(summary *clinVarSummary) string {
	if len(summary.TraitSet) == 0 {
		return ""
	}

	var trait struct {
		Name json.RawMessage `json:"name"`
	}
	if err := json.Unmarshal(summary.TraitSet[0].Trait, &trait); err != nil || trait.Name == nil {
		return ""
	}

	var name string
	if err := json.Unmarshal(trait.Name, &name); err == nil {
		return name
	}

	var names []string
	if err := json.Unmarshal(trait.Name, &names); err == nil && len(names) > 0 {
		return names[0]
	}
	return ""
}

// rawTruthy interprets a JSON value that may be a bool, number or
// string as a truthiness flag.
func rawTruthy(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0:
		return false
	case bytes.Equal(trimmed, []byte("null")),
		bytes.Equal(trimmed, []byte("false")),
		bytes.Equal(trimmed, []byte("0")),
		bytes.Equal(trimmed, []byte(`""`)):
		return false
	}
	return true
}
