package service

import (
	"regexp"
	"strings"

	"github.com/genegpt-qa-server/internal/domain"
)

var (
	intentGenePattern    = regexp.MustCompile(`\b([A-Z0-9]{3,10})\b`)
	intentVariantPattern = regexp.MustCompile(`(c\.\S+|p\.\S+)`)
)

var guidancePhrases = []string{
	"what should i do", "what do i do", "should i be worried",
	"am i in danger", "next steps", "who should i see", "advice",
}

var diseaseKeywords = []string{
	"disease", "syndrome", "disorder", "condition", "symptom",
	"treatment", "cure", "cause", "cancer", "tumor", "diabetes",
	"infection", "illness", "pain",
}

var newDiagnosisPhrases = []string{
	"was told", "been told", "just found out", "found out",
	"diagnosed with", "test showed", "test came back",
	"doctor said", "results showed", "report says",
}

var anxietyPhrases = []string{
	"worried", "scared", "afraid", "concerned", "nervous",
	"serious", "dangerous", "bad", "harmful", "risk",
	"should i be worried", "am i in danger", "is this bad",
}

var nextStepsPhrases = []string{
	"what should i do", "what do i do", "what now",
	"next steps", "what happens next", "who should i see",
	"where do i go", "advice", "help me", "guide me",
}

func containsAny(haystack string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(haystack, p) {
			return true
		}
	}
	return false
}

// ClassifyIntent buckets a question into one of the intent categories and
// records any gene/variant tokens spotted along the way. The gene scan is
// case sensitive on purpose: uppercase tokens are the gene-symbol signal.
func ClassifyIntent(question string) domain.IntentRecord {
	lower := strings.ToLower(question)

	var geneSymbol, variant string
	if m := intentGenePattern.FindStringSubmatch(question); m != nil {
		geneSymbol = m[1]
	}
	if m := intentVariantPattern.FindStringSubmatch(question); m != nil {
		variant = m[1]
	}

	var intent domain.Intent
	switch {
	case containsAny(lower, guidancePhrases):
		intent = domain.IntentGuidanceQuestion
	case variant != "":
		intent = domain.IntentVariantQuestion
	case strings.Contains(lower, "mutation") || strings.Contains(lower, "dangerous") || strings.Contains(lower, "pathogenic"):
		intent = domain.IntentRiskQuestion
	case containsAny(lower, diseaseKeywords):
		intent = domain.IntentDiseaseQuestion
	case geneSymbol != "":
		intent = domain.IntentGeneQuestion
	default:
		intent = domain.IntentGeneralQuestion
	}

	return domain.IntentRecord{
		Intent:      intent,
		RawQuestion: question,
		GeneSymbol:  geneSymbol,
		Variant:     variant,
		Context:     detectQuestionContext(lower),
	}
}

// detectQuestionContext flags emotional and situational cues that shape
// how the answer should be framed.
func detectQuestionContext(lower string) domain.QuestionContext {
	return domain.QuestionContext{
		ImpliesNewDiagnosis: containsAny(lower, newDiagnosisPhrases),
		UserLikelyAnxious:   containsAny(lower, anxietyPhrases),
		NeedsNextSteps:      containsAny(lower, nextStepsPhrases),
	}
}
