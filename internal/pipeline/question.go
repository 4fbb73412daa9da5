package pipeline

import (
	"context"
	"regexp"

	"github.com/genegpt-qa-server/internal/domain"
	"github.com/genegpt-qa-server/internal/service"
)

// hgvsQuestionPattern catches the plain cDNA notations that show up in
// questions: substitutions, deletions and insertions.
var hgvsQuestionPattern = regexp.MustCompile(`(c\.[0-9_]+[ACGTacgt]+>[ACGTacgt]+|c\.[0-9_]+del[ACGTacgt]+|c\.[0-9_]+ins[ACGTacgt]+)`)

// buildQuestion parses one question into its structured form: the gene
// token found in the text, the resolved identifiers and a first-pass
// variant notation when one is written inline.
func (p *Pipeline) buildQuestion(ctx context.Context, text string) domain.ParsedQuestion {
	parsed := domain.ParsedQuestion{
		Raw:         text,
		RawQuestion: text,
	}

	if symbol := service.ExtractGeneSymbol(text); symbol != "" {
		resolved := service.NormalizeGeneSymbol(symbol)
		omimID, ncbiID := p.resolver.Resolve(ctx, resolved)
		parsed.Gene = domain.QuestionGene{Symbol: symbol}
		parsed.ResolvedGene = domain.ResolvedGene{
			Symbol: resolved,
			OMIMID: omimID,
			NCBIID: ncbiID,
		}
	}

	if hgvs := hgvsQuestionPattern.FindString(text); hgvs != "" {
		parsed.Variant = &domain.VariantBlock{
			HGVS: hgvs,
			Type: "DNA",
		}
	}

	return parsed
}
