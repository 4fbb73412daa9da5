package external

import (
	"context"

	"github.com/genegpt-qa-server/internal/domain"
)

// OMIMSource fetches gene-to-disease evidence from OMIM.
type OMIMSource interface {
	FetchGene(ctx context.Context, geneSymbol, omimID string) (domain.OMIMEvidence, error)
}

// NCBIGeneSource fetches gene function summaries from NCBI Gene.
type NCBIGeneSource interface {
	FetchGene(ctx context.Context, geneSymbol, geneID string) (domain.NCBIEvidence, error)
	SearchGeneID(ctx context.Context, symbol string) (string, error)
}

// PubMedSource searches the literature.
type PubMedSource interface {
	Search(ctx context.Context, query string) (domain.PubMedEvidence, error)
}

// ClinVarSource fetches variant classifications from ClinVar.
type ClinVarSource interface {
	FetchVariant(ctx context.Context, geneSymbol, variantToken string) (domain.ClinVarEvidence, error)
}

// GeneReviewsSource finds GeneReviews chapters on the NCBI Bookshelf.
type GeneReviewsSource interface {
	FetchChapter(ctx context.Context, geneSymbol string) (domain.GeneReviewsEvidence, error)
}

// GnomADSource fetches gene metadata from the gnomAD GraphQL API.
type GnomADSource interface {
	FetchGene(ctx context.Context, geneSymbol string) (domain.GnomADEvidence, error)
}
