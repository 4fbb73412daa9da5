package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genegpt-qa-server/internal/domain"
	"github.com/genegpt-qa-server/internal/evidence"
	"github.com/genegpt-qa-server/internal/service"
	"github.com/genegpt-qa-server/internal/session"
)

// End-to-end scenarios through the real aggregator with stubbed
// sources, so the breaker and fan-out paths are in the loop.

type stubOMIM struct{}

func (stubOMIM) FetchGene(ctx context.Context, geneSymbol, omimID string) (domain.OMIMEvidence, error) {
	return domain.OMIMEvidence{
		Used:   true,
		OMIMID: omimID,
		Phenotypes: []domain.OMIMPhenotype{
			{Name: "Breast-ovarian cancer, familial, 1", MIMNumber: "604370"},
		},
	}, nil
}

type stubNCBI struct{}

func (stubNCBI) FetchGene(ctx context.Context, geneSymbol, geneID string) (domain.NCBIEvidence, error) {
	return domain.NCBIEvidence{Used: true, GeneID: geneID, Function: "tumor suppressor"}, nil
}

func (stubNCBI) SearchGeneID(ctx context.Context, symbol string) (string, error) {
	return "672", nil
}

type stubPubMed struct{}

func (stubPubMed) Search(ctx context.Context, query string) (domain.PubMedEvidence, error) {
	return domain.PubMedEvidence{
		Used:   true,
		Papers: []domain.PubMedPaper{{PMID: "100", Title: "study", Year: 2021}},
	}, nil
}

type stubClinVar struct{}

func (stubClinVar) FetchVariant(ctx context.Context, geneSymbol, variantToken string) (domain.ClinVarEvidence, error) {
	return domain.ClinVarEvidence{Used: true, ClinicalSignificance: "Pathogenic"}, nil
}

type stubGeneReviews struct{}

func (stubGeneReviews) FetchChapter(ctx context.Context, geneSymbol string) (domain.GeneReviewsEvidence, error) {
	return domain.GeneReviewsEvidence{Used: true, Title: "BRCA1- and BRCA2-Associated Hereditary Breast and Ovarian Cancer"}, nil
}

type stubGnomAD struct{}

func (stubGnomAD) FetchGene(ctx context.Context, geneSymbol string) (domain.GnomADEvidence, error) {
	return domain.GnomADEvidence{Used: true, GeneID: "ENSG00000012048"}, nil
}

func newEndToEndPipeline(t *testing.T) *Pipeline {
	t.Helper()

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	store := session.NewStore(session.NewMemoryBackend(), domain.SessionConfig{
		TTL:       time.Hour,
		MaxScore:  5,
		DecayStep: 1,
	}, log)
	resolver, err := service.NewGeneResolver(stubNCBI{}, "", log)
	require.NoError(t, err)

	aggregator := evidence.NewAggregator(evidence.Sources{
		OMIM:        stubOMIM{},
		NCBI:        stubNCBI{},
		PubMed:      stubPubMed{},
		ClinVar:     stubClinVar{},
		GeneReviews: stubGeneReviews{},
		GnomAD:      stubGnomAD{},
	}, nil, 5*time.Second, log)

	return NewPipeline(store, resolver, aggregator, nil, log)
}

func TestEndToEndGeneQuestion(t *testing.T) {
	p := newEndToEndPipeline(t)

	outcome, err := p.Ask(context.Background(), "What does BRCA1 do?", "e2e-1")
	require.NoError(t, err)
	require.NotNil(t, outcome.Answer)

	answer := outcome.Answer
	assert.Equal(t, "BRCA1", answer.Gene.Symbol)
	assert.Equal(t, domain.QuestionTypeGene, answer.QuestionType)
	assert.True(t, answer.Evidence.OMIM.Used)
	assert.True(t, answer.Evidence.NCBI.Used)
	assert.False(t, answer.Evidence.ClinVar.Used)
	assert.Equal(t, "ClinVar not used for pure gene-level question.", answer.Evidence.ClinVar.Reason)
	assert.Equal(t, "Gene associated with disease phenotypes", answer.OverallAssessment.SeverityLabel)
	assert.True(t, answer.DiseaseFocus.Used)
	assert.Equal(t, 1, answer.DiseaseFocus.TotalPhenotypes)
}

func TestEndToEndVariantFollowUp(t *testing.T) {
	p := newEndToEndPipeline(t)

	first, err := p.Ask(context.Background(), "Is BRCA1 c.68_69del pathogenic?", "e2e-2")
	require.NoError(t, err)
	require.NotNil(t, first.Answer)
	assert.Equal(t, domain.QuestionTypeVariant, first.Answer.QuestionType)
	assert.Equal(t, "Likely serious (pathogenic/likely pathogenic)", first.Answer.OverallAssessment.SeverityLabel)

	second, err := p.Ask(context.Background(), "Should I worry about this for my children?", "e2e-2")
	require.NoError(t, err)
	require.NotNil(t, second.Answer)
	assert.Equal(t, "BRCA1", second.Answer.Gene.Symbol)
	require.NotNil(t, second.Answer.ClinicalState)
	assert.Contains(t, second.Answer.ClinicalState.TopicsDiscussed, "family")
}

func TestEndToEndAmbiguityThenClarified(t *testing.T) {
	p := newEndToEndPipeline(t)

	vague, err := p.Ask(context.Background(), "Is it dangerous?", "e2e-3")
	require.NoError(t, err)
	assert.Nil(t, vague.Answer)
	require.NotNil(t, vague.Clarification)

	clarified, err := p.Ask(context.Background(), "I mean the BRCA1 c.68_69del variant", "e2e-3")
	require.NoError(t, err)
	require.NotNil(t, clarified.Answer)
	assert.Equal(t, "BRCA1", clarified.Answer.Gene.Symbol)
}
