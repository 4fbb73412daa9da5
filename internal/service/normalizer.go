package service

import "strings"

// geneSynonyms maps common aliases and frequent typos to canonical HGNC symbols.
var geneSynonyms = map[string]string{
	"T53":  "TP53",
	"P53":  "TP53",
	"HER2": "ERBB2",
}

// NormalizeGeneSymbol canonicalizes a raw gene mention. Input is trimmed,
// uppercased and mapped through the synonym table.
func NormalizeGeneSymbol(raw string) string {
	symbol := strings.ToUpper(strings.TrimSpace(raw))
	if canonical, ok := geneSynonyms[symbol]; ok {
		return canonical
	}
	return symbol
}
