package evidence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/genegpt-qa-server/internal/domain"
	"github.com/genegpt-qa-server/pkg/external"
)

// Source names, used as breaker keys and in failure reasons.
const (
	sourceOMIM        = "OMIM"
	sourceNCBI        = "NCBI Gene"
	sourcePubMed      = "PubMed"
	sourceClinVar     = "ClinVar"
	sourceGeneReviews = "GeneReviews"
	sourceGnomAD      = "gnomAD"
)

// Sources groups the six upstream clients the aggregator fans out to.
type Sources struct {
	OMIM        external.OMIMSource
	NCBI        external.NCBIGeneSource
	PubMed      external.PubMedSource
	ClinVar     external.ClinVarSource
	GeneReviews external.GeneReviewsSource
	GnomAD      external.GnomADSource
}

// Aggregator fans a question out to the evidence sources concurrently,
// guarding each with its own circuit breaker. Source failures never fail
// the bundle: a failed slot degrades to unused evidence with a reason.
type Aggregator struct {
	sources  Sources
	breakers map[string]*gobreaker.CircuitBreaker
	cache    *external.CacheClient
	timeout  time.Duration
	log      *logrus.Logger
}

// NewAggregator creates an aggregator. cache may be nil.
func NewAggregator(sources Sources, cache *external.CacheClient, timeout time.Duration, log *logrus.Logger) *Aggregator {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	breakers := make(map[string]*gobreaker.CircuitBreaker)
	for _, name := range []string{sourceOMIM, sourceNCBI, sourceClinVar, sourceGeneReviews, sourceGnomAD} {
		breakers[name] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 5,
			Interval:    30 * time.Second,
			Timeout:     60 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 3 && failureRatio >= 0.6
			},
		})
	}
	// PubMed rate limits aggressively, so its breaker trips earlier.
	breakers[sourcePubMed] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        sourcePubMed,
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 2 && failureRatio >= 0.5
		},
	})

	return &Aggregator{
		sources:  sources,
		breakers: breakers,
		cache:    cache,
		timeout:  timeout,
		log:      log,
	}
}

// failureReason describes a source failure for the evidence slot.
func failureReason(source string, err error) string {
	if errors.Is(err, gobreaker.ErrOpenState) {
		return fmt.Sprintf("%s temporarily unavailable (circuit open).", source)
	}
	return fmt.Sprintf("Error calling %s: %v", source, err)
}

func (a *Aggregator) execute(source string, fn func() (interface{}, error)) (interface{}, error) {
	result, err := a.breakers[source].Execute(fn)
	if err != nil {
		a.log.WithError(err).WithField("source", source).Warn("evidence source failed")
	}
	return result, err
}

// GatherForGene builds the evidence bundle for a gene-level question.
// ClinVar is deliberately left unused: it classifies variants, not genes.
func (a *Aggregator) GatherForGene(ctx context.Context, geneSymbol, omimID, ncbiID string) domain.EvidenceBundle {
	if geneSymbol == "" {
		reason := "No gene symbol provided for gene evidence."
		return domain.EvidenceBundle{
			OMIM:        domain.OMIMEvidence{Reason: reason},
			NCBI:        domain.NCBIEvidence{Reason: reason},
			PubMed:      domain.PubMedEvidence{Papers: []domain.PubMedPaper{}, Reason: reason},
			ClinVar:     domain.ClinVarEvidence{Reason: "ClinVar not used for pure gene-level question."},
			GeneReviews: domain.GeneReviewsEvidence{Reason: "No gene symbol provided."},
			GnomAD:      domain.GnomADEvidence{Reason: "No gene symbol provided."},
		}
	}

	if bundle, ok := a.cachedBundle(ctx, "gene", geneSymbol, ""); ok {
		return bundle
	}

	bundle := a.gather(ctx, geneSymbol, omimID, ncbiID, "", false)
	bundle.ClinVar = domain.ClinVarEvidence{Reason: "ClinVar not used for pure gene-level question."}

	a.storeBundle(ctx, "gene", geneSymbol, "", bundle)
	return bundle
}

// GatherForVariant builds the evidence bundle for a variant question.
func (a *Aggregator) GatherForVariant(ctx context.Context, geneSymbol, omimID, ncbiID, variantToken string) domain.EvidenceBundle {
	if geneSymbol == "" || variantToken == "" {
		reason := "Missing gene symbol or variant token for variant question."
		return domain.EvidenceBundle{
			OMIM:        domain.OMIMEvidence{Reason: reason},
			NCBI:        domain.NCBIEvidence{Reason: reason},
			PubMed:      domain.PubMedEvidence{Papers: []domain.PubMedPaper{}, Reason: reason},
			ClinVar:     domain.ClinVarEvidence{Reason: reason},
			GeneReviews: domain.GeneReviewsEvidence{Reason: "Missing gene symbol."},
			GnomAD:      domain.GnomADEvidence{Reason: "Missing gene symbol."},
		}
	}

	if bundle, ok := a.cachedBundle(ctx, "variant", geneSymbol, variantToken); ok {
		return bundle
	}

	bundle := a.gather(ctx, geneSymbol, omimID, ncbiID, variantToken, true)

	a.storeBundle(ctx, "variant", geneSymbol, variantToken, bundle)
	return bundle
}

// SearchLiterature queries PubMed with free text, for broad questions
// that have no single gene to anchor on.
func (a *Aggregator) SearchLiterature(ctx context.Context, query string) domain.PubMedEvidence {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	result, err := a.execute(sourcePubMed, func() (interface{}, error) {
		return a.sources.PubMed.Search(ctx, query)
	})
	if err != nil {
		return domain.PubMedEvidence{
			Papers: []domain.PubMedPaper{},
			Reason: fmt.Sprintf("Error calling PubMed for broad question: %v", err),
		}
	}
	return result.(domain.PubMedEvidence)
}

// gather runs the per-source lookups concurrently, each writing its own
// bundle slot. Partial results are kept when some sources fail.
func (a *Aggregator) gather(ctx context.Context, geneSymbol, omimID, ncbiID, variantToken string, withClinVar bool) domain.EvidenceBundle {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	var bundle domain.EvidenceBundle
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		result, err := a.execute(sourceOMIM, func() (interface{}, error) {
			return a.sources.OMIM.FetchGene(ctx, geneSymbol, omimID)
		})
		if err != nil {
			bundle.OMIM = domain.OMIMEvidence{Reason: failureReason(sourceOMIM, err)}
			return
		}
		bundle.OMIM = result.(domain.OMIMEvidence)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		result, err := a.execute(sourceNCBI, func() (interface{}, error) {
			return a.sources.NCBI.FetchGene(ctx, geneSymbol, ncbiID)
		})
		if err != nil {
			bundle.NCBI = domain.NCBIEvidence{Reason: failureReason(sourceNCBI, err)}
			return
		}
		bundle.NCBI = result.(domain.NCBIEvidence)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		result, err := a.execute(sourcePubMed, func() (interface{}, error) {
			return a.sources.PubMed.Search(ctx, geneSymbol)
		})
		if err != nil {
			bundle.PubMed = domain.PubMedEvidence{
				Papers: []domain.PubMedPaper{},
				Reason: failureReason(sourcePubMed, err),
			}
			return
		}
		bundle.PubMed = result.(domain.PubMedEvidence)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		result, err := a.execute(sourceGeneReviews, func() (interface{}, error) {
			return a.sources.GeneReviews.FetchChapter(ctx, geneSymbol)
		})
		if err != nil {
			bundle.GeneReviews = domain.GeneReviewsEvidence{Reason: failureReason(sourceGeneReviews, err)}
			return
		}
		bundle.GeneReviews = result.(domain.GeneReviewsEvidence)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		result, err := a.execute(sourceGnomAD, func() (interface{}, error) {
			return a.sources.GnomAD.FetchGene(ctx, geneSymbol)
		})
		if err != nil {
			bundle.GnomAD = domain.GnomADEvidence{Reason: failureReason(sourceGnomAD, err)}
			return
		}
		bundle.GnomAD = result.(domain.GnomADEvidence)
	}()

	if withClinVar {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := a.execute(sourceClinVar, func() (interface{}, error) {
				return a.sources.ClinVar.FetchVariant(ctx, geneSymbol, variantToken)
			})
			if err != nil {
				bundle.ClinVar = domain.ClinVarEvidence{Reason: failureReason(sourceClinVar, err)}
				return
			}
			bundle.ClinVar = result.(domain.ClinVarEvidence)
		}()
	}

	wg.Wait()
	return bundle
}

func (a *Aggregator) cachedBundle(ctx context.Context, kind, geneSymbol, token string) (domain.EvidenceBundle, bool) {
	if a.cache == nil {
		return domain.EvidenceBundle{}, false
	}
	bundle, found, err := a.cache.Get(ctx, kind, geneSymbol, token)
	if err != nil {
		a.log.WithError(err).Debug("evidence cache read failed")
		return domain.EvidenceBundle{}, false
	}
	if !found {
		return domain.EvidenceBundle{}, false
	}
	return *bundle, true
}

func (a *Aggregator) storeBundle(ctx context.Context, kind, geneSymbol, token string, bundle domain.EvidenceBundle) {
	if a.cache == nil {
		return
	}
	if err := a.cache.Set(ctx, kind, geneSymbol, token, bundle); err != nil {
		a.log.WithError(err).Debug("evidence cache write failed")
	}
}
