package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"golang.org/x/time/rate"

	"github.com/genegpt-qa-server/internal/domain"
)

// OMIMClient queries the OMIM entry API for gene-to-disease mappings.
type OMIMClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewOMIMClient creates a new OMIM API client
func NewOMIMClient(config domain.OMIMConfig) *OMIMClient {
	return &OMIMClient{
		baseURL: config.BaseURL,
		apiKey:  config.APIKey,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: perSecond(config.RateLimit),
	}
}

type omimEntryResponse struct {
	OMIM struct {
		EntryList []struct {
			Entry struct {
				MIMNumber json.Number `json:"mimNumber"`
				GeneMap   struct {
					PhenotypeMapList []struct {
						PhenotypeMap struct {
							Phenotype            string      `json:"phenotype"`
							PhenotypeMimNumber   json.Number `json:"phenotypeMimNumber"`
							PhenotypeInheritance string      `json:"phenotypeInheritance"`
							MappingKey           json.Number `json:"mappingKey"`
						} `json:"phenotypeMap"`
					} `json:"phenotypeMapList"`
				} `json:"geneMap"`
			} `json:"entry"`
		} `json:"entryList"`
	} `json:"omim"`
}

// FetchGene returns the OMIM evidence box for a gene. Missing mappings
// and a missing API key are reported as unused evidence, not errors.
func (c *OMIMClient) FetchGene(ctx context.Context, geneSymbol, omimID string) (domain.OMIMEvidence, error) {
	if geneSymbol == "" && omimID == "" {
		return domain.OMIMEvidence{
			Reason: "No gene symbol or OMIM ID provided.",
		}, nil
	}
	if omimID == "" {
		return domain.OMIMEvidence{
			Reason: fmt.Sprintf("No OMIM entry found for gene symbol %s.", geneSymbol),
		}, nil
	}
	if c.apiKey == "" {
		return domain.OMIMEvidence{
			Reason: "OMIM API key not configured.",
		}, nil
	}

	params := url.Values{
		"mimNumber": {omimID},
		"format":    {"json"},
		"include":   {"geneMap"},
		"apiKey":    {c.apiKey},
	}
	fullURL := fmt.Sprintf("%sentry?%s", c.baseURL, params.Encode())

	var resp omimEntryResponse
	if err := getJSON(ctx, c.httpClient, c.limiter, fullURL, &resp); err != nil {
		return domain.OMIMEvidence{}, fmt.Errorf("omim entry request failed: %w", err)
	}

	if len(resp.OMIM.EntryList) == 0 {
		return domain.OMIMEvidence{
			OMIMID: omimID,
			Reason: fmt.Sprintf("No OMIM entry found for gene symbol %s.", geneSymbol),
		}, nil
	}

	entry := resp.OMIM.EntryList[0].Entry

	var phenotypes []domain.OMIMPhenotype
	inheritanceSet := map[string]bool{}
	for _, item := range entry.GeneMap.PhenotypeMapList {
		pm := item.PhenotypeMap
		if pm.Phenotype == "" && pm.PhenotypeMimNumber == "" && pm.PhenotypeInheritance == "" {
			continue
		}
		if pm.PhenotypeInheritance != "" {
			inheritanceSet[pm.PhenotypeInheritance] = true
		}
		phenotypes = append(phenotypes, domain.OMIMPhenotype{
			Name:        pm.Phenotype,
			MIMNumber:   pm.PhenotypeMimNumber.String(),
			Inheritance: pm.PhenotypeInheritance,
			MappingKey:  pm.MappingKey.String(),
		})
	}

	var labels []string
	for label := range inheritanceSet {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	return domain.OMIMEvidence{
		Used:        true,
		OMIMID:      omimID,
		Inheritance: strings.Join(labels, "; "),
		Phenotypes:  phenotypes,
		KeyPoints:   []string{},
		Link:        fmt.Sprintf("https://www.omim.org/entry/%s", omimID),
		Reason:      "Fetched from OMIM API.",
	}, nil
}
