package service

import (
	"regexp"
	"strings"

	"github.com/genegpt-qa-server/internal/domain"
)

var (
	rsIDPattern        = regexp.MustCompile(`(?i)\brs(\d+)\b`)
	hgvsCodingPattern  = regexp.MustCompile(`\bc\.\s*[\d_]+[ACGTacgt]*\s*(?:del|dup|ins|delins|>)[ACGTacgt]*\b`)
	hgvsProteinPattern = regexp.MustCompile(`\bp\.\s*(?:[A-Z][a-z]{2}|\w)\d+(?:[A-Z][a-z]{2}|\w)\b`)

	// Bare protein shorthand like E6V. Too ambiguous to accept unless the
	// question already carries a known gene.
	simpleProteinPattern = regexp.MustCompile(`\b[A-Z]\d+[A-Z]\b`)
)

// ParseVariant scans free text for variant mentions in rsID, cDNA HGVS and
// protein HGVS notations. Returns nil when no notation is recognized.
// geneSymbol enables the bare protein shorthand (e.g. "E6V" with HBB known).
func ParseVariant(text, geneSymbol string) *domain.ResolvedVariant {
	v := &domain.ResolvedVariant{GeneSymbol: geneSymbol}

	if m := rsIDPattern.FindStringSubmatch(text); m != nil {
		v.RSID = "rs" + m[1]
		v.Raw = m[0]
	}

	if m := hgvsCodingPattern.FindString(text); m != "" {
		cleaned := strings.ReplaceAll(m, " ", "")
		v.HGVSCoding = strings.TrimRight(cleaned, ".,;!?")
		if v.Raw == "" {
			v.Raw = m
		}
	}

	if m := hgvsProteinPattern.FindString(text); m != "" {
		v.HGVSProtein = strings.ReplaceAll(m, " ", "")
		if v.Raw == "" {
			v.Raw = m
		}
	} else if geneSymbol != "" {
		if m := simpleProteinPattern.FindString(text); m != "" {
			v.HGVSProtein = "p." + m
			if v.Raw == "" {
				v.Raw = m
			}
		}
	}

	if v.RSID == "" && v.HGVSCoding == "" && v.HGVSProtein == "" {
		return nil
	}
	return v
}
