package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractGeneSymbol(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"uppercase", "tell me about BRCA1", "BRCA1"},
		{"lowercase", "tell me about brca1", "BRCA1"},
		{"mixed case", "what does Cftr do", "CFTR"},
		{"skips stop words", "WHAT disease does TP53 cause", "TP53"},
		{"skips organ words", "HEART problems and MYH7", "MYH7"},
		{"nothing gene-like", "how are you", ""},
		{"synonym alias", "Is p53 mutation dangerous?", "P53"},
		{"lowercase disease words", "is cystic fibrosis dangerous for adults", ""},
		{"digits alone", "my result number is 80357914", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractGeneSymbol(tt.text))
		})
	}
}

func TestExtractCandidateSymbol(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"symbol late in sentence", "tell me about the CHRNA1 gene", "CHRNA1"},
		{"last candidate wins", "compare BRCA1 and BRCA2", "BRCA2"},
		{"lowercase rejected", "tell me about chrna1", ""},
		{"stop word rejected", "WHAT IS THIS", ""},
		{"digits only rejected", "result 12345 came back", ""},
		{"too short", "is AB ok", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractCandidateSymbol(tt.text))
		})
	}
}

func TestIsValidSymbolFormat(t *testing.T) {
	assert.True(t, IsValidSymbolFormat("BRCA1"))
	assert.True(t, IsValidSymbolFormat("TP53"))
	assert.False(t, IsValidSymbolFormat(""))
	assert.False(t, IsValidSymbolFormat("brca1"))
	assert.False(t, IsValidSymbolFormat("DNA"))
	assert.False(t, IsValidSymbolFormat("PATHOGENIC"))
	assert.False(t, IsValidSymbolFormat("VERYLONGTOKEN"))
}

func TestLooksLikeGeneOrVariant(t *testing.T) {
	assert.True(t, LooksLikeGeneOrVariant("I heard about brca1 today"))
	assert.True(t, LooksLikeGeneOrVariant("report shows c.123A>T"))
	assert.True(t, LooksLikeGeneOrVariant("variant p.Glu6Val"))
	assert.False(t, LooksLikeGeneOrVariant("I feel sad today"))
	assert.False(t, LooksLikeGeneOrVariant("help with my homework"))
}

func TestIsGeneralChat(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"greeting", "hi", true},
		{"greeting with punctuation", "hello!", true},
		{"emotional", "I am feeling sad and overwhelmed", true},
		{"study", "can you help with my calculus homework", true},
		{"short and vague", "ok then what", true},
		{"emotional but genetics", "I am anxious about my BRCA1 result", false},
		{"variant text", "c.123A>T means?", false},
		{"long non-genetics", "please summarize everything we talked about over the last several days", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsGeneralChat(tt.text))
		})
	}
}

func TestNormalizeGeneSymbol(t *testing.T) {
	assert.Equal(t, "TP53", NormalizeGeneSymbol("p53"))
	assert.Equal(t, "TP53", NormalizeGeneSymbol("T53"))
	assert.Equal(t, "ERBB2", NormalizeGeneSymbol("her2"))
	assert.Equal(t, "BRCA1", NormalizeGeneSymbol(" brca1 "))
}
