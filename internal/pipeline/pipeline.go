package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/genegpt-qa-server/internal/domain"
	"github.com/genegpt-qa-server/internal/service"
	"github.com/genegpt-qa-server/internal/session"
)

// EvidenceGatherer collects source evidence for a resolved question.
type EvidenceGatherer interface {
	GatherForGene(ctx context.Context, geneSymbol, omimID, ncbiID string) domain.EvidenceBundle
	GatherForVariant(ctx context.Context, geneSymbol, omimID, ncbiID, variantToken string) domain.EvidenceBundle
	SearchLiterature(ctx context.Context, query string) domain.PubMedEvidence
}

// Recorder persists answered questions for the history surface.
type Recorder interface {
	Record(ctx context.Context, entry domain.HistoryEntry) error
}

// Pipeline runs one question through intent classification, conversation
// context, evidence gathering and answer assembly.
type Pipeline struct {
	sessions *session.Store
	resolver *service.GeneResolver
	evidence EvidenceGatherer
	history  Recorder
	log      *logrus.Logger
}

// NewPipeline creates a pipeline. history may be nil when auditing is off.
func NewPipeline(sessions *session.Store, resolver *service.GeneResolver, evidence EvidenceGatherer, history Recorder, log *logrus.Logger) *Pipeline {
	return &Pipeline{
		sessions: sessions,
		resolver: resolver,
		evidence: evidence,
		history:  history,
		log:      log,
	}
}

// followUpIndicators mark pronoun-style references back to an earlier
// question. Matched on word boundaries against the lowercased text.
var followUpIndicators = []string{
	"this", "it", "that", "these", "those",
	"my", "our", "their",
	"children", "family", "relatives",
	"screening", "worry", "concerned",
	"should i", "what about", "how about",
}

var followUpPatterns = compileIndicators(followUpIndicators)

func compileIndicators(indicators []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(indicators))
	for _, indicator := range indicators {
		patterns = append(patterns, regexp.MustCompile(`\b`+regexp.QuoteMeta(indicator)+`\b`))
	}
	return patterns
}

// vaguePhrases signal a question about "it" with no antecedent.
var vaguePhrases = []string{
	"is it dangerous", "is this bad", "should i worry",
	"what does this mean", "is it pathogenic", "is it benign",
	"what should i do", "more concerning",
}

// broadDiseaseWords upgrade a "genes" question to broad science.
var broadDiseaseWords = []string{"heart", "cardiac", "cancer", "tumor", "diabetes"}

const clarificationMessage = "I can help with that, but I'm not sure which gene or variant you are referring to. " +
	"Could you please provide the gene symbol (e.g., BRCA1) or the specific result you are asking about?"

// Ask answers one question in the context of a session. Exactly one of
// the outcome's Answer and Clarification fields is set.
func (p *Pipeline) Ask(ctx context.Context, question, sessionID string) (*domain.AskOutcome, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.NewValidationError("question", "question must not be empty", question)
	}

	state := p.currentState(ctx, sessionID)

	followUp := isFollowUp(question, state)
	working := question
	if followUp && state.CurrentGene != "" && !containsFold(question, state.CurrentGene) {
		working = injectContext(question, state)
	}

	intent := service.ClassifyIntent(working)

	if sessionID != "" && p.shouldResetContext(intent, state, followUp) {
		if err := p.resetContext(ctx, sessionID); err != nil {
			return nil, fmt.Errorf("failed to reset session context: %w", err)
		}
		state = p.sessions.Get(ctx, sessionID)
	}

	lowerWorking := strings.ToLower(working)
	if intent.Intent == domain.IntentGeneralQuestion &&
		strings.Contains(lowerWorking, "genes") &&
		containsAnyPhrase(lowerWorking, broadDiseaseWords) {
		intent.Intent = domain.IntentBroadScienceQuestion
	}

	if intent.Intent == domain.IntentGeneralQuestion {
		if candidate := service.ExtractCandidateSymbol(working); candidate != "" && service.IsValidSymbolFormat(candidate) {
			intent.Intent = domain.IntentGeneQuestion
			intent.GeneSymbol = candidate
		}
	}

	// Guard against classifier picks like "WHAT" or "DNA".
	if intent.GeneSymbol != "" && !service.IsValidSymbolFormat(intent.GeneSymbol) {
		intent.Intent = domain.IntentGeneralQuestion
		intent.GeneSymbol = ""
	}

	if state.CurrentGene == "" && intent.GeneSymbol == "" &&
		containsAnyPhrase(strings.ToLower(question), vaguePhrases) {
		return &domain.AskOutcome{
			Clarification: &domain.ClarificationRequest{
				Type:    "clarification",
				Message: clarificationMessage,
				Intent:  intent,
			},
		}, nil
	}

	if intent.Intent == domain.IntentGeneralQuestion && service.IsGeneralChat(question) {
		intent.GeneSymbol = ""
		intent.Variant = ""
	}

	if intent.Intent == domain.IntentBroadScienceQuestion {
		return p.finishBroadScience(ctx, working, question, sessionID, intent)
	}

	parsed := p.buildQuestion(ctx, working)

	if intent.Intent == domain.IntentGeneralQuestion {
		answer := buildGeneralAnswer(parsed)
		p.attachSession(ctx, answer, sessionID, intent)
		p.record(ctx, question, answer)
		return &domain.AskOutcome{Answer: answer}, nil
	}

	// The classifier sometimes finds the gene the parser missed, or a
	// different one; the classified symbol wins but resolved IDs stay.
	if intent.GeneSymbol != "" && !strings.EqualFold(intent.GeneSymbol, parsed.ResolvedGene.Symbol) {
		symbol := service.NormalizeGeneSymbol(intent.GeneSymbol)
		parsed.Gene.Symbol = intent.GeneSymbol
		parsed.ResolvedGene.Symbol = symbol
		if parsed.ResolvedGene.OMIMID == "" && parsed.ResolvedGene.NCBIID == "" {
			parsed.ResolvedGene.OMIMID, parsed.ResolvedGene.NCBIID = p.resolver.Resolve(ctx, symbol)
		}
	}

	resolvedVariant := service.ParseVariant(working, parsed.ResolvedGene.Symbol)
	token := resolvedVariant.SearchToken()
	if token == "" && parsed.Variant != nil {
		token = parsed.Variant.HGVS
	}
	parsed.Variant = mergeVariantBlock(parsed.Variant, resolvedVariant)

	questionType, broad := decideQuestionType(intent.Intent, parsed.ResolvedGene.Symbol, token)
	if broad {
		return p.finishBroadScience(ctx, working, question, sessionID, intent)
	}

	var bundle domain.EvidenceBundle
	if questionType == domain.QuestionTypeVariant {
		bundle = p.evidence.GatherForVariant(ctx, parsed.ResolvedGene.Symbol, parsed.ResolvedGene.OMIMID, parsed.ResolvedGene.NCBIID, token)
	} else {
		bundle = p.evidence.GatherForGene(ctx, parsed.ResolvedGene.Symbol, parsed.ResolvedGene.OMIMID, parsed.ResolvedGene.NCBIID)
	}

	answer := buildEvidenceAnswer(questionType, parsed, bundle)
	answer.Gene = domain.GeneBlock{
		Symbol: parsed.ResolvedGene.Symbol,
		OMIMID: parsed.ResolvedGene.OMIMID,
		NCBIID: parsed.ResolvedGene.NCBIID,
	}
	answer.Intent = intent
	answer.SessionID = sessionID

	if sessionID != "" {
		update := buildStateUpdate(answer)
		if err := p.sessions.Update(ctx, sessionID, update); err != nil {
			p.log.WithError(err).WithField("session_id", sessionID).Warn("failed to update clinical state")
		}
	}
	answer.ClinicalState = p.currentState(ctx, sessionID)

	p.record(ctx, question, answer)
	return &domain.AskOutcome{Answer: answer}, nil
}

// finishBroadScience produces the broad-science answer, searching the
// literature with the full question text.
func (p *Pipeline) finishBroadScience(ctx context.Context, working, original, sessionID string, intent domain.IntentRecord) (*domain.AskOutcome, error) {
	pubmed := p.evidence.SearchLiterature(ctx, working)
	answer := buildBroadScienceAnswer(working, pubmed)
	p.attachSession(ctx, answer, sessionID, intent)
	p.record(ctx, original, answer)
	return &domain.AskOutcome{Answer: answer}, nil
}

// attachSession stamps session metadata onto answers that carry no
// clinical-state update of their own.
func (p *Pipeline) attachSession(ctx context.Context, answer *domain.AnswerRecord, sessionID string, intent domain.IntentRecord) {
	answer.Intent = intent
	answer.SessionID = sessionID
	answer.ClinicalState = p.currentState(ctx, sessionID)
}

// currentState reads the session's state. An empty session ID means
// conversation memory is disabled for this call, so the caller gets a
// fresh default state and nothing is ever stored under the empty key.
func (p *Pipeline) currentState(ctx context.Context, sessionID string) *domain.ClinicalState {
	if sessionID == "" {
		return domain.NewClinicalState()
	}
	return p.sessions.Get(ctx, sessionID)
}

func (p *Pipeline) record(ctx context.Context, question string, answer *domain.AnswerRecord) {
	if p.history == nil {
		return
	}
	entry := domain.HistoryEntry{
		SessionID:    answer.SessionID,
		Question:     question,
		QuestionType: answer.QuestionType,
		Intent:       answer.Intent.Intent,
		GeneSymbol:   answer.Gene.Symbol,
		CreatedAt:    time.Now().UTC(),
	}
	if answer.Variant != nil {
		entry.VariantToken = answer.Variant.HGVS
	}
	if err := p.history.Record(ctx, entry); err != nil {
		p.log.WithError(err).Warn("failed to record answer history")
	}
}

// isFollowUp detects pronoun-style references back to the session's
// current gene. Without a remembered gene nothing can be followed up on.
func isFollowUp(question string, state *domain.ClinicalState) bool {
	if state == nil || state.CurrentGene == "" {
		return false
	}
	lower := strings.ToLower(question)
	for _, pattern := range followUpPatterns {
		if pattern.MatchString(lower) {
			return true
		}
	}
	return false
}

// injectContext appends the remembered gene (and variant) so the
// downstream parsers see the antecedent the user left implicit.
func injectContext(question string, state *domain.ClinicalState) string {
	if state.CurrentVariant != "" {
		return fmt.Sprintf("%s (regarding %s %s)", question, state.CurrentGene, state.CurrentVariant)
	}
	return fmt.Sprintf("%s (regarding %s)", question, state.CurrentGene)
}

// shouldResetContext decides whether the session has moved on to a new
// subject: a different gene asked about directly, or a generic question
// with no gene and no follow-up reference.
func (p *Pipeline) shouldResetContext(intent domain.IntentRecord, state *domain.ClinicalState, followUp bool) bool {
	if state.CurrentGene == "" {
		return false
	}
	if intent.GeneSymbol != "" && !followUp &&
		!strings.EqualFold(intent.GeneSymbol, state.CurrentGene) {
		return true
	}
	if (intent.Intent == domain.IntentBroadScienceQuestion || intent.Intent == domain.IntentGeneralQuestion) &&
		!followUp && intent.GeneSymbol == "" {
		return true
	}
	return false
}

func (p *Pipeline) resetContext(ctx context.Context, sessionID string) error {
	empty := ""
	unknownClassification := "unknown"
	unknownContext := domain.TestContextUnknown
	return p.sessions.Update(ctx, sessionID, domain.StateUpdate{
		CurrentGene:           &empty,
		CurrentVariant:        &empty,
		VariantClassification: &unknownClassification,
		TestContext:           &unknownContext,
	})
}

// decideQuestionType maps intent plus findings to the evidence shape.
// broad reports that the question should fall back to broad science.
func decideQuestionType(intent domain.Intent, geneSymbol, variantToken string) (questionType domain.QuestionType, broad bool) {
	variantFamily := intent == domain.IntentVariantQuestion ||
		intent == domain.IntentRiskQuestion ||
		intent == domain.IntentGuidanceQuestion

	switch {
	case variantFamily && variantToken != "":
		return domain.QuestionTypeVariant, false
	case intent == domain.IntentGuidanceQuestion && geneSymbol != "":
		return domain.QuestionTypeGene, false
	case intent == domain.IntentGeneQuestion:
		return domain.QuestionTypeGene, false
	case intent == domain.IntentDiseaseQuestion:
		if geneSymbol == "" {
			return "", true
		}
		return domain.QuestionTypeGene, false
	default:
		if geneSymbol == "" && variantToken == "" {
			return "", true
		}
		if variantToken != "" {
			return domain.QuestionTypeVariant, false
		}
		return domain.QuestionTypeGene, false
	}
}

// mergeVariantBlock combines the inline HGVS parse with the richer
// variant-notation parse into the answer's variant block.
func mergeVariantBlock(inline *domain.VariantBlock, resolved *domain.ResolvedVariant) *domain.VariantBlock {
	if resolved == nil {
		return inline
	}

	block := &domain.VariantBlock{
		RSID:        resolved.RSID,
		HGVSCoding:  resolved.HGVSCoding,
		HGVSProtein: resolved.HGVSProtein,
		Raw:         resolved.Raw,
	}
	switch {
	case inline != nil && inline.HGVS != "":
		block.HGVS = inline.HGVS
		block.Type = inline.Type
	case resolved.HGVSCoding != "":
		block.HGVS = resolved.HGVSCoding
	default:
		block.HGVS = resolved.HGVSProtein
	}
	return block
}

// buildStateUpdate derives the clinical-state patch from an answer.
// Generic symbols never become the session's current gene; the other
// signals are recorded regardless.
func buildStateUpdate(answer *domain.AnswerRecord) domain.StateUpdate {
	var update domain.StateUpdate

	symbol := answer.Gene.Symbol
	if symbol != "" && !service.IsGenericStateSymbol(symbol) {
		update.CurrentGene = &symbol
	} else {
		symbol = ""
	}
	if answer.Variant != nil && answer.Variant.HGVSCoding != "" {
		coding := answer.Variant.HGVSCoding
		update.CurrentVariant = &coding
	}

	lower := strings.ToLower(answer.Intent.RawQuestion)
	if strings.Contains(lower, "vus") || strings.Contains(lower, "uncertain significance") {
		vus := "VUS"
		update.VariantClassification = &vus
	}
	if strings.Contains(lower, "somatic") || strings.Contains(lower, "tumor") {
		somatic := domain.TestContextSomatic
		update.TestContext = &somatic
	} else if strings.Contains(lower, "germline") || strings.Contains(lower, "blood test") {
		germline := domain.TestContextGermline
		update.TestContext = &germline
	}

	var topics []string
	if strings.Contains(lower, "screening") {
		topics = append(topics, "screening")
	}
	if strings.Contains(lower, "family") || strings.Contains(lower, "children") || strings.Contains(lower, "inherit") {
		topics = append(topics, "family")
	}
	if strings.Contains(lower, "treatment") {
		topics = append(topics, "treatment")
	}
	if strings.Contains(lower, "vus") {
		topics = append(topics, "VUS")
	}
	update.TopicsDiscussed = topics

	if update.TestContext != nil && *update.TestContext == domain.TestContextUnknown && symbol != "" {
		update.UnresolvedQuestions = []string{"germline_vs_somatic_pending"}
	}

	return update
}

func containsAnyPhrase(haystack string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(haystack, phrase) {
			return true
		}
	}
	return false
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
