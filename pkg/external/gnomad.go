package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/genegpt-qa-server/internal/domain"
)

// GnomADClient fetches gene metadata from the gnomAD GraphQL API.
type GnomADClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewGnomADClient creates a new gnomAD API client
func NewGnomADClient(config domain.GnomADConfig) *GnomADClient {
	return &GnomADClient{
		baseURL: config.BaseURL,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: perSecond(config.RateLimit),
	}
}

const gnomadGeneQuery = `
query GeneInfo($gene_symbol: String!) {
  gene(gene_symbol: $gene_symbol, reference_genome: GRCh38) {
    gene_id
    symbol
    reference_genome
    chrom
    start
    stop
    omim_id
  }
}`

type gnomadGeneResponse struct {
	Data struct {
		Gene *struct {
			GeneID string `json:"gene_id"`
			Symbol string `json:"symbol"`
			Chrom  string `json:"chrom"`
			OMIMID string `json:"omim_id"`
		} `json:"gene"`
	} `json:"data"`
}

// FetchGene returns basic gene metadata for the GRCh38 reference.
func (c *GnomADClient) FetchGene(ctx context.Context, geneSymbol string) (domain.GnomADEvidence, error) {
	geneSymbol = strings.TrimSpace(geneSymbol)
	if geneSymbol == "" {
		return domain.GnomADEvidence{
			Reason: "No gene symbol provided.",
		}, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return domain.GnomADEvidence{}, err
	}

	payload, err := json.Marshal(map[string]interface{}{
		"query":     gnomadGeneQuery,
		"variables": map[string]string{"gene_symbol": geneSymbol},
	})
	if err != nil {
		return domain.GnomADEvidence{}, fmt.Errorf("failed to encode gnomad query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return domain.GnomADEvidence{}, fmt.Errorf("failed to create gnomad request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.GnomADEvidence{}, fmt.Errorf("gnomad request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.GnomADEvidence{}, fmt.Errorf("gnomad returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.GnomADEvidence{}, fmt.Errorf("failed to read gnomad response: %w", err)
	}

	var geneResp gnomadGeneResponse
	if err := json.Unmarshal(body, &geneResp); err != nil {
		return domain.GnomADEvidence{}, fmt.Errorf("failed to parse gnomad response: %w", err)
	}

	gene := geneResp.Data.Gene
	if gene == nil || gene.GeneID == "" {
		return domain.GnomADEvidence{
			Reason: fmt.Sprintf("No gnomAD data found for symbol %s (GRCh38).", geneSymbol),
		}, nil
	}

	return domain.GnomADEvidence{
		Used:       true,
		GeneID:     gene.GeneID,
		Chromosome: gene.Chrom,
		OMIMID:     gene.OMIMID,
		Link:       fmt.Sprintf("https://gnomad.broadinstitute.org/gene/%s?dataset=gnomad_r4", gene.GeneID),
		Reason:     "Fetched basic gene metadata from gnomAD.",
	}, nil
}
