package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/genegpt-qa-server/internal/domain"
)

// GeneReviewsClient finds GeneReviews chapters via the NCBI Bookshelf.
type GeneReviewsClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewGeneReviewsClient creates a new GeneReviews (NCBI Books) client
func NewGeneReviewsClient(config domain.GeneReviewsConfig) *GeneReviewsClient {
	return &GeneReviewsClient{
		baseURL: config.BaseURL,
		apiKey:  config.APIKey,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: perSecond(config.RateLimit),
	}
}

type bookshelfSummary struct {
	UID         string `json:"uid"`
	RType       string `json:"rtype"`
	AccessionID string `json:"accessionid"`
	Title       string `json:"title"`
}

// FetchChapter searches the GeneReviews book for a chapter about a gene.
// Books results include tables and figures, so chapter records are
// preferred over the raw first hit.
func (c *GeneReviewsClient) FetchChapter(ctx context.Context, geneSymbol string) (domain.GeneReviewsEvidence, error) {
	geneSymbol = strings.TrimSpace(geneSymbol)
	if geneSymbol == "" {
		return domain.GeneReviewsEvidence{
			Reason: "No gene symbol provided.",
		}, nil
	}

	params := url.Values{
		"db":      {"books"},
		"term":    {fmt.Sprintf("%s[Title] AND gene[book]", geneSymbol)},
		"retmode": {"json"},
		"retmax":  {"10"},
	}
	fullURL := eutilsURL(c.baseURL, "esearch.fcgi", params, c.apiKey)

	var searchResp esearchResponse
	if err := getJSON(ctx, c.httpClient, c.limiter, fullURL, &searchResp); err != nil {
		return domain.GeneReviewsEvidence{}, fmt.Errorf("genereviews search failed: %w", err)
	}

	idList := searchResp.ESearchResult.IDList
	if len(idList) == 0 {
		return domain.GeneReviewsEvidence{
			Reason: fmt.Sprintf("No GeneReviews chapter found for %s.", geneSymbol),
		}, nil
	}

	summaryParams := url.Values{
		"db":      {"books"},
		"id":      {strings.Join(idList, ",")},
		"retmode": {"json"},
	}
	summaryURL := eutilsURL(c.baseURL, "esummary.fcgi", summaryParams, c.apiKey)

	var summaryResp esummaryResponse
	if err := getJSON(ctx, c.httpClient, c.limiter, summaryURL, &summaryResp); err != nil {
		return domain.GeneReviewsEvidence{}, fmt.Errorf("genereviews summary failed: %w", err)
	}

	best := pickChapter(&summaryResp, idList)
	if best == nil {
		return domain.GeneReviewsEvidence{
			Reason: "GeneReviews ID found but summary fetch failed.",
		}, nil
	}
	if best.AccessionID == "" {
		return domain.GeneReviewsEvidence{
			Reason: fmt.Sprintf("GeneReviews entry found (%s) but missing accession.", best.UID),
		}, nil
	}

	return domain.GeneReviewsEvidence{
		Used:   true,
		BookID: best.AccessionID,
		Title:  best.Title,
		Link:   fmt.Sprintf("https://www.ncbi.nlm.nih.gov/books/%s/", best.AccessionID),
		Reason: fmt.Sprintf("Found GeneReviews chapter: %s", best.Title),
	}, nil
}

// pickChapter prefers rtype=="chapter" and falls back to the first hit.
func pickChapter(resp *esummaryResponse, idList []string) *bookshelfSummary {
	var fallback *bookshelfSummary
	for _, uid := range idList {
		raw := resp.record(uid)
		if raw == nil {
			continue
		}
		var summary bookshelfSummary
		if err := json.Unmarshal(raw, &summary); err != nil {
			continue
		}
		if summary.RType == "chapter" {
			return &summary
		}
		if fallback == nil {
			s := summary
			fallback = &s
		}
	}
	return fallback
}
