package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/genegpt-qa-server/internal/domain"
)

func TestClassifyIntent_Precedence(t *testing.T) {
	tests := []struct {
		name string
		text string
		want domain.Intent
	}{
		{"guidance beats variant", "I have c.123A>T, what should I do?", domain.IntentGuidanceQuestion},
		{"variant beats risk words", "is c.123A>T a dangerous mutation", domain.IntentVariantQuestion},
		{"risk words beat disease words", "is a BRCA1 mutation linked to disease", domain.IntentRiskQuestion},
		{"disease keywords", "what syndrome is linked to CFTR", domain.IntentDiseaseQuestion},
		{"gene token alone", "tell me about BRCA1", domain.IntentGeneQuestion},
		{"plain chat", "how are you today", domain.IntentGeneralQuestion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ClassifyIntent(tt.text)
			assert.Equal(t, tt.want, rec.Intent)
			assert.Equal(t, tt.text, rec.RawQuestion)
		})
	}
}

func TestClassifyIntent_TokenCapture(t *testing.T) {
	rec := ClassifyIntent("is the TP53 variant c.215C>G bad?")
	assert.Equal(t, domain.IntentVariantQuestion, rec.Intent)
	assert.Equal(t, "TP53", rec.GeneSymbol)
	assert.Equal(t, "c.215C>G", rec.Variant)

	// lowercase gene mentions are not captured at this stage
	rec = ClassifyIntent("tell me about brca1")
	assert.Empty(t, rec.GeneSymbol)
	assert.Equal(t, domain.IntentGeneralQuestion, rec.Intent)
}

func TestClassifyIntent_Context(t *testing.T) {
	rec := ClassifyIntent("I was told I have a BRCA1 mutation and I am scared, what should I do?")
	assert.True(t, rec.Context.ImpliesNewDiagnosis)
	assert.True(t, rec.Context.UserLikelyAnxious)
	assert.True(t, rec.Context.NeedsNextSteps)

	rec = ClassifyIntent("what is the function of CFTR")
	assert.False(t, rec.Context.ImpliesNewDiagnosis)
	assert.False(t, rec.Context.UserLikelyAnxious)
	assert.False(t, rec.Context.NeedsNextSteps)
}
