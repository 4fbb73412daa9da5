package pipeline

import (
	"fmt"
	"strings"

	"github.com/genegpt-qa-server/internal/domain"
)

// buildAssessment derives the severity summary from the gathered
// evidence. Variant questions lean on the ClinVar label; gene questions
// fall back to OMIM phenotype counts and NCBI function text.
func buildAssessment(questionType domain.QuestionType, parsed domain.ParsedQuestion, bundle domain.EvidenceBundle) domain.OverallAssessment {
	notes := []string{}
	if bundle.OMIM.Used {
		notes = append(notes, "OMIM links this gene to disease phenotypes.")
	}
	if bundle.NCBI.Used {
		notes = append(notes, "NCBI provides functional information for this gene.")
	}

	assessment := domain.OverallAssessment{
		Type:       questionType,
		GeneSymbol: parsed.ResolvedGene.Symbol,
		Notes:      notes,
	}
	if parsed.Variant != nil {
		assessment.VariantHGVS = parsed.Variant.HGVS
	}

	if questionType == domain.QuestionTypeVariant {
		applyVariantSeverity(&assessment, bundle.ClinVar)
		return assessment
	}
	applyGeneSeverity(&assessment, bundle)
	return assessment
}

func applyVariantSeverity(assessment *domain.OverallAssessment, clinvar domain.ClinVarEvidence) {
	significance := clinvar.ClinicalSignificance
	display := significance
	if display == "" {
		display = "None"
	}

	assessment.SeverityLabel = "Unclear (not classified)"
	assessment.Confidence = "Low"
	assessment.KeyReason = fmt.Sprintf("ClinVar label is: %s.", display)

	if !clinvar.Used {
		return
	}

	lower := strings.ToLower(significance)
	switch {
	case strings.Contains(lower, "pathogenic") && !strings.Contains(lower, "benign"):
		assessment.SeverityLabel = "Likely serious (pathogenic/likely pathogenic)"
		assessment.Confidence = "High"
		assessment.KeyReason = fmt.Sprintf("ClinVar reports %s.", significance)
	case strings.Contains(lower, "benign") && !strings.Contains(lower, "pathogenic"):
		assessment.SeverityLabel = "Probably not serious (benign/likely benign)"
		assessment.Confidence = "Medium"
		assessment.KeyReason = fmt.Sprintf("ClinVar reports %s.", significance)
	case strings.Contains(lower, "uncertain") || strings.Contains(lower, "vus"):
		assessment.SeverityLabel = "Uncertain significance (VUS)"
		assessment.Confidence = "Low"
		assessment.KeyReason = fmt.Sprintf("ClinVar reports uncertain significance: %s.", significance)
	}
}

func applyGeneSeverity(assessment *domain.OverallAssessment, bundle domain.EvidenceBundle) {
	switch {
	case len(bundle.OMIM.Phenotypes) > 0:
		assessment.SeverityLabel = "Gene associated with disease phenotypes"
		assessment.Confidence = "High"
		assessment.KeyReason = fmt.Sprintf("OMIM lists %d phenotype(s).", len(bundle.OMIM.Phenotypes))
	case bundle.NCBI.Function != "":
		assessment.SeverityLabel = "Gene with known biological function"
		assessment.Confidence = "Medium"
		assessment.KeyReason = "NCBI provides a functional summary."
	default:
		assessment.SeverityLabel = "Limited disease information"
		assessment.Confidence = "Low"
		assessment.KeyReason = "No clear phenotypes from OMIM or NCBI."
	}
}

// buildDiseaseFocus summarizes which diseases the gene is tied to, from
// the OMIM phenotype list. Names are deduplicated and the first five kept.
func buildDiseaseFocus(geneSymbol string, omim domain.OMIMEvidence) domain.DiseaseFocus {
	if geneSymbol == "" || len(omim.Phenotypes) == 0 {
		return domain.DiseaseFocus{
			GeneSymbol: geneSymbol,
			Reason:     "No OMIM phenotypes available for this gene.",
		}
	}

	seen := make(map[string]bool)
	var names []string
	for _, phenotype := range omim.Phenotypes {
		name := strings.TrimSpace(phenotype.Name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	if len(names) == 0 {
		return domain.DiseaseFocus{
			GeneSymbol: geneSymbol,
			Reason:     "No OMIM phenotypes available for this gene.",
		}
	}

	top := names
	if len(top) > 5 {
		top = top[:5]
	}
	return domain.DiseaseFocus{
		Used:            true,
		GeneSymbol:      geneSymbol,
		TopDiseases:     top,
		TotalPhenotypes: len(names),
	}
}
