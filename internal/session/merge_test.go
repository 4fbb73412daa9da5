package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/genegpt-qa-server/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestMerge_ScalarLastWriteWins(t *testing.T) {
	state := domain.NewClinicalState()
	state.CurrentGene = "BRCA1"
	state.CurrentVariant = "c.68_69delAG"

	Merge(state, domain.StateUpdate{CurrentGene: strPtr("TP53")}, 5, 1)
	assert.Equal(t, "TP53", state.CurrentGene)
	// absent pointer leaves the stored value alone
	assert.Equal(t, "c.68_69delAG", state.CurrentVariant)

	// explicit empty value clears
	Merge(state, domain.StateUpdate{CurrentVariant: strPtr("")}, 5, 1)
	assert.Empty(t, state.CurrentVariant)
	assert.Equal(t, "TP53", state.CurrentGene)
}

func TestMerge_TestContextAndClassification(t *testing.T) {
	state := domain.NewClinicalState()
	ctx := domain.TestContextGermline

	Merge(state, domain.StateUpdate{
		VariantClassification: strPtr("VUS"),
		TestContext:           &ctx,
	}, 5, 1)

	assert.Equal(t, "VUS", state.VariantClassification)
	assert.Equal(t, domain.TestContextGermline, state.TestContext)
}

func TestMerge_TopicsUnion(t *testing.T) {
	state := domain.NewClinicalState()

	Merge(state, domain.StateUpdate{TopicsDiscussed: []string{"screening", "family"}}, 5, 1)
	Merge(state, domain.StateUpdate{TopicsDiscussed: []string{"family", "treatment"}}, 5, 1)

	assert.Equal(t, []string{"screening", "family", "treatment"}, state.TopicsDiscussed)

	Merge(state, domain.StateUpdate{TopicsDiscussed: []string{domain.ClearSentinel}}, 5, 1)
	assert.Empty(t, state.TopicsDiscussed)
}

func TestMerge_UnresolvedDedup(t *testing.T) {
	state := domain.NewClinicalState()

	Merge(state, domain.StateUpdate{UnresolvedQuestions: []string{"germline_vs_somatic_pending"}}, 5, 1)
	Merge(state, domain.StateUpdate{UnresolvedQuestions: []string{"germline_vs_somatic_pending"}}, 5, 1)

	assert.Equal(t, []string{"germline_vs_somatic_pending"}, state.UnresolvedQuestions)
}

func TestMerge_ScoredDecayAndDropOff(t *testing.T) {
	state := domain.NewClinicalState()

	Merge(state, domain.StateUpdate{RecentFacts: []string{"BRCA1 is pathogenic"}}, 5, 1)
	assert.Equal(t, 5, state.RecentFacts[0].Score)

	// four merges without mention decay the score to 1
	for i := 0; i < 4; i++ {
		Merge(state, domain.StateUpdate{}, 5, 1)
	}
	assert.Equal(t, 1, state.RecentFacts[0].Score)

	// one more and it falls off
	Merge(state, domain.StateUpdate{}, 5, 1)
	assert.Empty(t, state.RecentFacts)
}

func TestMerge_ScoredReinforcementIsCaseInsensitive(t *testing.T) {
	state := domain.NewClinicalState()

	Merge(state, domain.StateUpdate{UserConcerns: []string{"cancer risk"}}, 5, 1)
	Merge(state, domain.StateUpdate{}, 5, 1)
	Merge(state, domain.StateUpdate{}, 5, 1)
	assert.Equal(t, 3, state.UserConcerns[0].Score)

	// re-mention restores full relevance without duplicating
	Merge(state, domain.StateUpdate{UserConcerns: []string{"Cancer Risk"}}, 5, 1)
	assert.Len(t, state.UserConcerns, 1)
	assert.Equal(t, 5, state.UserConcerns[0].Score)
	assert.Equal(t, "cancer risk", state.UserConcerns[0].Text)
}

func TestMerge_ScoredClearSentinel(t *testing.T) {
	state := domain.NewClinicalState()

	Merge(state, domain.StateUpdate{RecentFacts: []string{"fact one", "fact two"}}, 5, 1)
	Merge(state, domain.StateUpdate{RecentFacts: []string{domain.ClearSentinel}}, 5, 1)
	assert.Empty(t, state.RecentFacts)
}
