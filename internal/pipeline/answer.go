package pipeline

import (
	"sort"

	"github.com/genegpt-qa-server/internal/domain"
)

// buildEvidenceAnswer assembles the answer for gene and variant
// questions from the parsed question and the gathered evidence.
func buildEvidenceAnswer(questionType domain.QuestionType, parsed domain.ParsedQuestion, bundle domain.EvidenceBundle) *domain.AnswerRecord {
	return &domain.AnswerRecord{
		QuestionType:      questionType,
		Question:          parsed,
		Evidence:          bundle,
		Variant:           parsed.Variant,
		OverallAssessment: buildAssessment(questionType, parsed, bundle),
		SourceSummaries:   buildSourceSummaries(bundle),
		DiseaseFocus:      buildDiseaseFocus(parsed.ResolvedGene.Symbol, bundle.OMIM),
	}
}

// buildBroadScienceAnswer answers educational questions about groups of
// genes. Only PubMed contributes; the gene-scoped sources are marked
// unused with explicit reasons.
func buildBroadScienceAnswer(question string, pubmed domain.PubMedEvidence) *domain.AnswerRecord {
	bundle := domain.EvidenceBundle{
		OMIM: domain.OMIMEvidence{
			Reason: "Broad educational question about multiple genes; no single OMIM entry used.",
		},
		NCBI: domain.NCBIEvidence{
			Reason: "Broad educational question about multiple genes; no single NCBI Gene entry used.",
		},
		PubMed: pubmed,
		ClinVar: domain.ClinVarEvidence{
			Reason: "Broad educational question; ClinVar focuses on specific variants.",
		},
		GeneReviews: domain.GeneReviewsEvidence{
			Reason: "Broad educational question.",
		},
		GnomAD: domain.GnomADEvidence{
			Reason: "Broad educational question.",
		},
	}

	return &domain.AnswerRecord{
		QuestionType: domain.QuestionTypeBroadScience,
		Question: domain.ParsedQuestion{
			Raw:         question,
			RawQuestion: question,
		},
		Evidence: bundle,
		OverallAssessment: domain.OverallAssessment{
			Type:          domain.QuestionTypeBroadScience,
			SeverityLabel: "Broad educational genetics question about multiple genes.",
			Confidence:    "N/A",
			KeyReason:     "Question asks about groups of genes (e.g., heart-related genes), not a single gene or variant.",
			Notes:         []string{},
		},
		SourceSummaries: buildSourceSummaries(bundle),
		DiseaseFocus: domain.DiseaseFocus{
			Reason: "Broad science question – not focused on a single gene.",
		},
	}
}

// buildGeneralAnswer answers ordinary conversation with a fixed shape:
// every evidence source is unused and the assessment says why.
func buildGeneralAnswer(parsed domain.ParsedQuestion) *domain.AnswerRecord {
	bundle := domain.EvidenceBundle{
		OMIM:        domain.OMIMEvidence{Reason: "General chat question – no gene lookup."},
		NCBI:        domain.NCBIEvidence{Reason: "General chat question – no gene lookup."},
		PubMed:      domain.PubMedEvidence{Papers: []domain.PubMedPaper{}, Reason: "General chat question – no gene lookup."},
		ClinVar:     domain.ClinVarEvidence{Reason: "General chat question – no gene/variant lookup."},
		GeneReviews: domain.GeneReviewsEvidence{Reason: "General chat question – no gene lookup."},
		GnomAD:      domain.GnomADEvidence{Reason: "General chat question – no gene lookup."},
	}

	return &domain.AnswerRecord{
		QuestionType: domain.QuestionTypeGeneral,
		Question:     parsed,
		Evidence:     bundle,
		OverallAssessment: domain.OverallAssessment{
			Type:          domain.QuestionTypeGeneral,
			SeverityLabel: "General chat question (no gene or variant).",
			Confidence:    "N/A",
			KeyReason:     "Intent classified as general_question.",
			Notes:         []string{},
		},
		SourceSummaries: buildSourceSummaries(bundle),
		DiseaseFocus: domain.DiseaseFocus{
			Reason: "General chat question – no disease focus.",
		},
	}
}

// buildSourceSummaries compacts the evidence bundle into the sources
// panel of the answer.
func buildSourceSummaries(bundle domain.EvidenceBundle) domain.SourceSummaries {
	return domain.SourceSummaries{
		OMIM: domain.OMIMSummary{
			Used:          bundle.OMIM.Used,
			OMIMID:        bundle.OMIM.OMIMID,
			Inheritance:   bundle.OMIM.Inheritance,
			NumPhenotypes: len(bundle.OMIM.Phenotypes),
			Link:          bundle.OMIM.Link,
		},
		NCBI: domain.NCBISummary{
			Used:            bundle.NCBI.Used,
			GeneID:          bundle.NCBI.GeneID,
			FullName:        bundle.NCBI.FullName,
			Location:        bundle.NCBI.Location,
			HasFunctionText: bundle.NCBI.Function != "",
			Link:            bundle.NCBI.Link,
		},
		PubMed: domain.PubMedSummary{
			Used:      bundle.PubMed.Used,
			NumPapers: len(bundle.PubMed.Papers),
			Years:     publicationYears(bundle.PubMed.Papers),
		},
		ClinVar: domain.ClinVarSummary{
			Used:                   bundle.ClinVar.Used,
			Accession:              bundle.ClinVar.Accession,
			ClinicalSignificance:   bundle.ClinVar.ClinicalSignificance,
			Condition:              bundle.ClinVar.Condition,
			ReviewStatus:           bundle.ClinVar.ReviewStatus,
			NumSubmissions:         bundle.ClinVar.NumSubmissions,
			ConflictingSubmissions: bundle.ClinVar.ConflictingSubmissions,
			Link:                   bundle.ClinVar.Link,
		},
		GeneReviews: domain.GeneReviewsSummary{
			Used:   bundle.GeneReviews.Used,
			BookID: bundle.GeneReviews.BookID,
			Title:  bundle.GeneReviews.Title,
			Link:   bundle.GeneReviews.Link,
		},
		GnomAD: domain.GnomADSummary{
			Used:   bundle.GnomAD.Used,
			GeneID: bundle.GnomAD.GeneID,
			Link:   bundle.GnomAD.Link,
		},
	}
}

// publicationYears returns the distinct publication years, sorted.
func publicationYears(papers []domain.PubMedPaper) []int {
	seen := make(map[int]bool)
	years := []int{}
	for _, paper := range papers {
		if paper.Year == 0 || seen[paper.Year] {
			continue
		}
		seen[paper.Year] = true
		years = append(years, paper.Year)
	}
	sort.Ints(years)
	return years
}
