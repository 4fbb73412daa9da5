package service

import (
	"regexp"
	"strings"
)

var (
	geneTokenPattern      = regexp.MustCompile(`\b[A-Z0-9]{3,10}\b`)
	wordTokenPattern      = regexp.MustCompile(`\b[A-Za-z0-9]+\b`)
	strictSymbolPattern   = regexp.MustCompile(`^[A-Z0-9]{2,10}$`)
	punctuationPattern    = regexp.MustCompile(`[^\w\s]`)
	codingMentionPattern  = regexp.MustCompile(`\bc\.\d+`)
	proteinMentionPattern = regexp.MustCompile(`\bp\.[A-Z][a-z]{2}\d+`)
	hasLetterPattern      = regexp.MustCompile(`[A-Za-z]`)
	hasDigitPattern       = regexp.MustCompile(`[0-9]`)
)

// stopWords are all-caps tokens that look like gene symbols but are
// ordinary English, programming or biology vocabulary.
var stopWords = buildSet(
	"GENE", "DNA", "RNA", "AND", "OR", "THE", "BUT", "FOR", "WITH", "THAT", "THIS",
	"WHAT", "WHO", "WHY", "HOW", "WHEN", "WHERE", "TELL", "ASK", "SAY", "GIVE",
	"TOLD", "SAID", "ASKED", "GIVEN",
	"SHOW", "LIST", "FIND", "SEARCH", "GET", "KNOW", "HAVE", "HAS", "HAD", "WAS",
	"IS", "ARE", "WERE", "BE", "BEEN", "CAN", "COULD", "SHOULD", "WOULD", "MAY",
	"MIGHT", "MUST", "DO", "DOES", "DID", "DONE", "USE", "USED", "USING", "ABOUT",
	"LIKE", "NEED", "WANT", "HELP", "PLEASE", "THANKS", "THANK", "HELLO", "HEY",
	"HI", "GOOD", "BAD", "NOT", "YES", "NO", "ANY", "ALL", "SOME", "MANY", "MOST",
	"MORE", "LESS", "ONE", "TWO", "THREE", "ZERO", "FIRST", "LAST", "NEXT", "PREV",
	"BACK", "FRONT", "TOP", "BOTTOM", "LEFT", "RIGHT", "SIDE", "END", "START",
	"STOP", "GO", "COME", "SEE", "LOOK", "WATCH", "WAIT", "TIME", "DAY", "YEAR",
	"MUTATION", "VARIANT", "DISEASE", "SYNDROME", "DISORDER", "CONDITION", "PROBLEM",
	"ISSUE", "RISK", "FACTOR", "CAUSE", "EFFECT", "RESULT", "TEST", "CHECK", "CASE",
	"REPORT", "STUDY", "PAPER", "ARTICLE", "JOURNAL", "BOOK", "PAGE", "WEB", "SITE",
	"LINK", "URL", "HTTP", "HTTPS", "COM", "ORG", "NET", "EDU", "GOV", "INFO", "BIZ",
	"NAME", "TERM", "WORD", "TEXT", "STRING", "LINE", "FILE", "DATA", "CODE", "APP",
	"TOOL", "USER", "CHAT", "BOT", "AI", "LLM", "GPT", "OPENAI", "API", "KEY", "ID",
	"SRC", "DST", "OBJ", "MSG", "REQ", "RES", "ERR", "LOG", "DEBUG", "WARN", "FAIL",
	"PASS", "TRUE", "FALSE", "NULL", "NONE", "NAN", "INF", "INT", "FLOAT", "STR",
	"BOOL", "DICT", "SET", "TUPLE", "CLASS", "DEF", "FUNC", "VAR", "VAL",
	"LET", "CONST", "IF", "ELSE", "ELIF", "WHILE", "TRY", "EXCEPT", "FINALLY",
	"RETURN", "YIELD", "BREAK", "CONTINUE", "IMPORT", "FROM", "AS", "IN",
	"XOR", "NAND", "NOR", "XNOR", "EQUALS", "EQUAL", "SAME",
	"DIFF", "HETERO", "HOMO", "ZYGOUS", "GENOTYPE", "PHENOTYPE", "ALLELE", "LOCUS",
	"CHROMOSOME", "PROTEIN", "ENZYME", "RECEPTOR", "PATHWAY", "CELL", "TISSUE", "ORGAN",
	"SYSTEM", "BODY", "BLOOD", "URINE", "SALIVA", "SAMPLE", "PATIENT", "DOCTOR",
	"NURSE", "CLINIC", "HOSPITAL", "LAB", "CENTER", "GROUP", "TEAM", "FAMILY", "PARENT",
	"CHILD", "SON", "DAUGHTER", "BROTHER", "SISTER", "WIFE", "HUSBAND", "MOTHER", "FATHER",
	"AUNT", "UNCLE", "COUSIN", "NEPHEW", "NIECE", "GRAND", "GREAT", "STEP", "HALF", "INLAW",
	"FRIEND", "GUY", "GIRL", "MAN", "WOMAN", "BOY", "KID", "BABY", "ADULT", "SENIOR",
	"HUMAN", "PERSON", "PEOPLE", "SOMEONE", "ANYONE", "NOONE", "EVERYONE", "EVERYBODY",
	"NOBODY", "SOMEBODY", "ANYBODY", "THING", "SOMETHING", "ANYTHING", "NOTHING", "EVERYTHING",
	"IT", "HE", "SHE", "THEY", "THEM", "HIM", "HER", "US", "WE", "ME", "MY", "YOUR", "OUR",
	"THEIR", "HIS", "HERS", "ITS", "MINE", "YOURS", "THEIRS", "OURS", "MYSELF", "YOURSELF",
	"HIMSELF", "HERSELF", "ITSELF", "THEMSELVES", "OURSELVES", "YOURSELVES", "WHOSE", "WHOM",
	"WHICH", "THESE", "THOSE", "SUCH", "OTHER", "ANOTHER", "EACH",
	"EVERY", "BOTH", "EITHER", "NEITHER", "OWN", "SELF", "VERY", "TOO", "ALSO", "EVEN",
	"JUST", "ONLY", "QUITE", "RATHER", "ALMOST", "NEARLY", "ALWAYS", "NEVER", "OFTEN",
	"SOMETIMES", "SELDOM", "RARELY", "HARDLY", "SCARCELY", "BARELY", "EVER",
	"NOW", "THEN", "HERE", "THERE", "AWAY", "OUT", "UP", "DOWN", "OFF", "OVER",
	"UNDER", "AGAIN", "ONCE", "TWICE", "THRICE", "FIRSTLY", "SECONDLY", "THIRDLY",
)

// anatomyWords extend the stop list for the first-match scan, where a
// disease or organ name in all caps is the most common false positive.
var anatomyWords = buildSet(
	"DIABETES", "HEART", "CANCER", "TUMOR", "BRAIN", "LIVER", "KIDNEY", "LUNG",
	"BONE", "SKIN", "EYE", "EAR", "NOSE", "MOUTH", "TOOTH", "TEETH",
	"HEAD", "NECK", "ARM", "LEG", "FOOT", "HAND", "FINGER", "TOE",
)

// genericSymbols are tokens that pass the strict format check but never
// name a real gene. Used to gate both intent validation and state writes.
var genericSymbols = buildSet(
	"DNA", "RNA", "GENE", "VARIANT", "MUTATION", "CHROMOSOME", "PROTEIN", "GENOME", "CELL",
	"RISK", "BAD", "GOOD", "HELP", "YES", "NO", "SURE", "OKAY", "TEST", "RESULT",
	"DANGEROUS", "SCARY", "WORRIED", "UNKNOWN", "VUS", "PATHOGENIC", "BENIGN",
	"POSITIVE", "NEGATIVE", "WHAT", "WHY", "HOW", "WHEN",
)

// genericStateSymbols gate clinical-state writes only.
var genericStateSymbols = buildSet(
	"DNA", "RNA", "GENE", "VARIANT", "MUTATION", "CHROMOSOME", "PROTEIN", "GENOME", "CELL",
)

// wellKnownGenes short-circuit the "is the user talking genetics" check.
var wellKnownGenes = []string{"BRCA1", "BRCA2", "TP53", "CFTR", "ERBB2", "MYH7", "MLH1"}

func buildSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// knownGeneLookup accepts gene mentions regardless of case: the
// well-known symbols plus the synonym-table aliases.
var knownGeneLookup = func() map[string]bool {
	set := make(map[string]bool, len(wellKnownGenes)+len(geneSynonyms))
	for _, gene := range wellKnownGenes {
		set[gene] = true
	}
	for alias := range geneSynonyms {
		set[alias] = true
	}
	return set
}()

// ExtractGeneSymbol finds the first gene-like token in a question.
// Tokens the user typed in uppercase are taken at face value after the
// stop lists; lowercase mentions like "brca1" or "p53" only resolve
// through the known-gene table, so ordinary words never become symbols.
func ExtractGeneSymbol(question string) string {
	for _, token := range geneTokenPattern.FindAllString(question, -1) {
		if !hasLetterPattern.MatchString(token) {
			continue
		}
		if !stopWords[token] && !anatomyWords[token] {
			return token
		}
	}
	for _, token := range wordTokenPattern.FindAllString(question, -1) {
		upper := strings.ToUpper(token)
		if knownGeneLookup[upper] {
			return upper
		}
	}
	return ""
}

// ExtractCandidateSymbol scans for an all-caps gene-like token as typed,
// 3 to 10 chars with at least one letter. The last candidate wins since
// sentences like "tell me about the CHRNA1 gene" put the symbol late.
func ExtractCandidateSymbol(text string) string {
	var candidate string
	for _, token := range wordTokenPattern.FindAllString(text, -1) {
		if len(token) < 3 || len(token) > 10 {
			continue
		}
		if !hasLetterPattern.MatchString(token) {
			continue
		}
		if token != strings.ToUpper(token) {
			continue
		}
		if stopWords[token] {
			continue
		}
		candidate = token
	}
	return candidate
}

// IsValidSymbolFormat reports whether a token is plausibly a real gene
// symbol: strict uppercase alphanumeric format and not a generic word.
func IsValidSymbolFormat(symbol string) bool {
	if symbol == "" {
		return false
	}
	if !strictSymbolPattern.MatchString(symbol) {
		return false
	}
	return !genericSymbols[strings.ToUpper(symbol)]
}

// IsGenericStateSymbol reports whether a symbol is too generic to be
// remembered as the session's current gene.
func IsGenericStateSymbol(symbol string) bool {
	return genericStateSymbols[strings.ToUpper(symbol)]
}

// LooksLikeGeneOrVariant reports whether the text plausibly mentions a
// gene or a variant notation at all.
func LooksLikeGeneOrVariant(text string) bool {
	upper := strings.ToUpper(text)
	for _, gene := range wellKnownGenes {
		if strings.Contains(upper, gene) {
			return true
		}
	}
	if codingMentionPattern.MatchString(text) {
		return true
	}
	return proteinMentionPattern.MatchString(text)
}

var smalltalkPhrases = buildSet(
	"hi", "hii", "hiii", "hello", "hey", "hey there", "hi there",
	"how are you", "who are you", "can you help me", "i need help",
	"help", "good morning", "good evening",
)

var emotionalWords = []string{
	"sad", "not good", "depressed", "anxious", "lonely",
	"confused", "tired", "burned out", "overwhelmed",
}

var studyWords = []string{
	"math", "calculus", "homework", "assignment", "exam", "project",
	"programming", "code", "python", "ml", "machine learning", "statistics",
}

// IsGeneralChat decides whether a question is ordinary conversation
// rather than anything genetics related.
func IsGeneralChat(question string) bool {
	lower := strings.ToLower(strings.TrimSpace(question))
	clean := punctuationPattern.ReplaceAllString(lower, "")

	if smalltalkPhrases[clean] {
		return true
	}

	if containsAny(lower, emotionalWords) && !LooksLikeGeneOrVariant(question) {
		return true
	}

	if containsAny(lower, studyWords) && !LooksLikeGeneOrVariant(question) {
		return true
	}

	words := strings.Fields(clean)
	if len(words) <= 4 && !hasDigitPattern.MatchString(clean) && !LooksLikeGeneOrVariant(question) {
		return true
	}

	return false
}
