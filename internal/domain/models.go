package domain

import (
	"time"
)

// Core Enums and Types

// Intent represents the classified intent of a user question
type Intent string

const (
	IntentGeneQuestion         Intent = "gene_question"
	IntentVariantQuestion      Intent = "variant_question"
	IntentRiskQuestion         Intent = "risk_question"
	IntentDiseaseQuestion      Intent = "disease_question"
	IntentGuidanceQuestion     Intent = "guidance_question"
	IntentGeneralQuestion      Intent = "general_question"
	IntentBroadScienceQuestion Intent = "broad_science_question"
)

// QuestionType is the final evidence-shape decision for a question
type QuestionType string

const (
	QuestionTypeGene         QuestionType = "gene"
	QuestionTypeVariant      QuestionType = "variant"
	QuestionTypeGeneral      QuestionType = "general"
	QuestionTypeBroadScience QuestionType = "broad_science"
)

// TestContext distinguishes how a variant was observed
type TestContext string

const (
	TestContextUnknown  TestContext = "unknown"
	TestContextSomatic  TestContext = "somatic"
	TestContextGermline TestContext = "germline"
)

// Intent Models

// QuestionContext carries emotional/situational flags detected alongside the intent
type QuestionContext struct {
	ImpliesNewDiagnosis bool `json:"implies_new_diagnosis"`
	UserLikelyAnxious   bool `json:"user_likely_anxious"`
	NeedsNextSteps      bool `json:"needs_next_steps"`
}

// IntentRecord is the result of classifying one question
type IntentRecord struct {
	Intent      Intent          `json:"intent"`
	RawQuestion string          `json:"raw_question"`
	GeneSymbol  string          `json:"gene_symbol,omitempty"`
	Variant     string          `json:"variant,omitempty"`
	Context     QuestionContext `json:"context"`
}

// Variant Models

// ResolvedVariant is a parsed variant mention from free text.
// At least one of RSID/HGVSCoding/HGVSProtein is set when constructed.
type ResolvedVariant struct {
	GeneSymbol  string `json:"gene_symbol,omitempty"`
	RSID        string `json:"rs_id,omitempty"`
	HGVSCoding  string `json:"hgvs_c,omitempty"`
	HGVSProtein string `json:"hgvs_p,omitempty"`
	Raw         string `json:"raw,omitempty"`
}

// SearchToken returns the token used for external variant queries,
// in priority order rsID > cDNA HGVS > protein HGVS.
func (v *ResolvedVariant) SearchToken() string {
	if v == nil {
		return ""
	}
	if v.RSID != "" {
		return v.RSID
	}
	if v.HGVSCoding != "" {
		return v.HGVSCoding
	}
	return v.HGVSProtein
}

// Clinical State Models

// ScoredItem is an entry in a decaying relevance list
type ScoredItem struct {
	Text  string `json:"text"`
	Score int    `json:"score"`
}

// ClinicalState is the per-session conversation memory
type ClinicalState struct {
	CurrentGene           string       `json:"current_gene,omitempty"`
	CurrentVariant        string       `json:"current_variant,omitempty"`
	VariantClassification string       `json:"variant_classification"`
	TestContext           TestContext  `json:"test_context"`
	TopicsDiscussed       []string     `json:"topics_discussed"`
	UserEmotion           string       `json:"user_emotion,omitempty"`
	UnresolvedQuestions   []string     `json:"unresolved_questions"`
	RecentFacts           []ScoredItem `json:"recent_facts"`
	UserConcerns          []ScoredItem `json:"user_concerns"`
}

// NewClinicalState returns the default state for a fresh session
func NewClinicalState() *ClinicalState {
	return &ClinicalState{
		VariantClassification: "unknown",
		TestContext:           TestContextUnknown,
		TopicsDiscussed:       []string{},
		UnresolvedQuestions:   []string{},
		RecentFacts:           []ScoredItem{},
		UserConcerns:          []ScoredItem{},
	}
}

// ClearSentinel empties a topics or relevance list when present in an update.
const ClearSentinel = "__CLEAR__"

// StateUpdate is a partial clinical-state patch. Nil scalar pointers mean
// "field not present"; a pointer to the zero value is an explicit clear.
type StateUpdate struct {
	CurrentGene           *string      `json:"current_gene,omitempty"`
	CurrentVariant        *string      `json:"current_variant,omitempty"`
	VariantClassification *string      `json:"variant_classification,omitempty"`
	TestContext           *TestContext `json:"test_context,omitempty"`
	UserEmotion           *string      `json:"user_emotion,omitempty"`
	TopicsDiscussed       []string     `json:"topics_discussed,omitempty"`
	RecentFacts           []string     `json:"recent_facts,omitempty"`
	UserConcerns          []string     `json:"user_concerns,omitempty"`
	UnresolvedQuestions   []string     `json:"unresolved_questions,omitempty"`
}

// Evidence Models

// OMIMPhenotype is one phenotype association from an OMIM gene map
type OMIMPhenotype struct {
	Name        string `json:"name,omitempty"`
	MIMNumber   string `json:"mim_number,omitempty"`
	Inheritance string `json:"inheritance,omitempty"`
	MappingKey  string `json:"mapping_key,omitempty"`
}

// OMIMEvidence is the OMIM slot of an evidence bundle
type OMIMEvidence struct {
	Used        bool            `json:"used"`
	OMIMID      string          `json:"omim_id,omitempty"`
	Inheritance string          `json:"inheritance,omitempty"`
	Phenotypes  []OMIMPhenotype `json:"phenotypes,omitempty"`
	KeyPoints   []string        `json:"key_points,omitempty"`
	Link        string          `json:"link,omitempty"`
	Reason      string          `json:"reason,omitempty"`
}

// NCBIEvidence is the NCBI Gene slot of an evidence bundle
type NCBIEvidence struct {
	Used     bool   `json:"used"`
	GeneID   string `json:"gene_id,omitempty"`
	FullName string `json:"full_name,omitempty"`
	Function string `json:"function,omitempty"`
	Location string `json:"location,omitempty"`
	Link     string `json:"link,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// PubMedPaper is one literature hit
type PubMedPaper struct {
	PMID    string `json:"pmid"`
	Title   string `json:"title,omitempty"`
	Journal string `json:"journal,omitempty"`
	Year    int    `json:"year,omitempty"`
	URL     string `json:"url,omitempty"`
}

// PubMedEvidence is the PubMed slot of an evidence bundle
type PubMedEvidence struct {
	Used   bool          `json:"used"`
	Papers []PubMedPaper `json:"papers,omitempty"`
	Link   string        `json:"link,omitempty"`
	Reason string        `json:"reason,omitempty"`
}

// ClinVarEvidence is the ClinVar slot of an evidence bundle
type ClinVarEvidence struct {
	Used                   bool   `json:"used"`
	Accession              string `json:"accession,omitempty"`
	ClinicalSignificance   string `json:"clinical_significance,omitempty"`
	Condition              string `json:"condition,omitempty"`
	ReviewStatus           string `json:"review_status,omitempty"`
	NumSubmissions         int    `json:"num_submissions,omitempty"`
	ConflictingSubmissions bool   `json:"conflicting_submissions,omitempty"`
	Link                   string `json:"link,omitempty"`
	Reason                 string `json:"reason,omitempty"`
}

// GeneReviewsEvidence is the GeneReviews slot of an evidence bundle
type GeneReviewsEvidence struct {
	Used   bool   `json:"used"`
	BookID string `json:"book_id,omitempty"`
	Title  string `json:"title,omitempty"`
	Link   string `json:"link,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// GnomADEvidence is the gnomAD slot of an evidence bundle
type GnomADEvidence struct {
	Used       bool   `json:"used"`
	GeneID     string `json:"gene_id,omitempty"`
	Chromosome string `json:"chrom,omitempty"`
	OMIMID     string `json:"omim_id,omitempty"`
	Link       string `json:"link,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// EvidenceBundle is the fixed-shape aggregate of all six source lookups.
// Every slot is always present; failed or skipped sources carry Used=false
// plus a reason and no populated data fields.
type EvidenceBundle struct {
	OMIM        OMIMEvidence        `json:"omim"`
	NCBI        NCBIEvidence        `json:"ncbi"`
	PubMed      PubMedEvidence      `json:"pubmed"`
	ClinVar     ClinVarEvidence     `json:"clinvar"`
	GeneReviews GeneReviewsEvidence `json:"genereviews"`
	GnomAD      GnomADEvidence      `json:"gnomad"`
}

// Question Models

// ResolvedGene is a normalized gene symbol enriched with external IDs
type ResolvedGene struct {
	Symbol string `json:"symbol,omitempty"`
	OMIMID string `json:"omim_id,omitempty"`
	NCBIID string `json:"ncbi_id,omitempty"`
}

// QuestionGene is the gene token literally found in the question text
type QuestionGene struct {
	Symbol string `json:"symbol,omitempty"`
}

// VariantBlock is the variant portion of a parsed question
type VariantBlock struct {
	HGVS        string `json:"hgvs,omitempty"`
	RSID        string `json:"rs_id,omitempty"`
	HGVSCoding  string `json:"hgvs_c,omitempty"`
	HGVSProtein string `json:"hgvs_p,omitempty"`
	Raw         string `json:"raw,omitempty"`
	Type        string `json:"type,omitempty"`
}

// ParsedQuestion is the structured parse of one question
type ParsedQuestion struct {
	Raw          string        `json:"raw"`
	RawQuestion  string        `json:"raw_question"`
	Gene         QuestionGene  `json:"gene"`
	ResolvedGene ResolvedGene  `json:"resolved_gene"`
	Variant      *VariantBlock `json:"variant,omitempty"`
}

// Answer Models

// OverallAssessment is the rule-derived severity summary
type OverallAssessment struct {
	Type          QuestionType `json:"type"`
	GeneSymbol    string       `json:"gene_symbol,omitempty"`
	VariantHGVS   string       `json:"variant_hgvs,omitempty"`
	SeverityLabel string       `json:"severity_label"`
	Confidence    string       `json:"confidence"`
	KeyReason     string       `json:"key_reason"`
	Notes         []string     `json:"notes"`
}

// OMIMSummary is the compact OMIM block for the sources panel
type OMIMSummary struct {
	Used          bool   `json:"used"`
	OMIMID        string `json:"omim_id,omitempty"`
	Inheritance   string `json:"inheritance,omitempty"`
	NumPhenotypes int    `json:"num_phenotypes"`
	Link          string `json:"link,omitempty"`
}

// NCBISummary is the compact NCBI block for the sources panel
type NCBISummary struct {
	Used            bool   `json:"used"`
	GeneID          string `json:"gene_id,omitempty"`
	FullName        string `json:"full_name,omitempty"`
	Location        string `json:"location,omitempty"`
	HasFunctionText bool   `json:"has_function_text"`
	Link            string `json:"link,omitempty"`
}

// PubMedSummary is the compact PubMed block for the sources panel
type PubMedSummary struct {
	Used      bool  `json:"used"`
	NumPapers int   `json:"num_papers"`
	Years     []int `json:"years"`
}

// ClinVarSummary is the compact ClinVar block for the sources panel
type ClinVarSummary struct {
	Used                   bool   `json:"used"`
	Accession              string `json:"accession,omitempty"`
	ClinicalSignificance   string `json:"clinical_significance,omitempty"`
	Condition              string `json:"condition,omitempty"`
	ReviewStatus           string `json:"review_status,omitempty"`
	NumSubmissions         int    `json:"num_submissions,omitempty"`
	ConflictingSubmissions bool   `json:"conflicting_submissions"`
	Link                   string `json:"link,omitempty"`
}

// GeneReviewsSummary is the compact GeneReviews block for the sources panel
type GeneReviewsSummary struct {
	Used   bool   `json:"used"`
	BookID string `json:"book_id,omitempty"`
	Title  string `json:"title,omitempty"`
	Link   string `json:"link,omitempty"`
}

// GnomADSummary is the compact gnomAD block for the sources panel
type GnomADSummary struct {
	Used   bool   `json:"used"`
	GeneID string `json:"gene_id,omitempty"`
	Link   string `json:"link,omitempty"`
}

// SourceSummaries groups the per-source compact summaries
type SourceSummaries struct {
	OMIM        OMIMSummary        `json:"omim"`
	NCBI        NCBISummary        `json:"ncbi"`
	PubMed      PubMedSummary      `json:"pubmed"`
	ClinVar     ClinVarSummary     `json:"clinvar"`
	GeneReviews GeneReviewsSummary `json:"genereviews"`
	GnomAD      GnomADSummary      `json:"gnomad"`
}

// DiseaseFocus summarizes the diseases a gene is associated with
type DiseaseFocus struct {
	Used            bool     `json:"used"`
	GeneSymbol      string   `json:"gene_symbol,omitempty"`
	TopDiseases     []string `json:"top_diseases,omitempty"`
	TotalPhenotypes int      `json:"total_phenotypes,omitempty"`
	Reason          string   `json:"reason,omitempty"`
}

// GeneBlock is the top-level gene convenience block of an answer
type GeneBlock struct {
	Symbol string `json:"symbol,omitempty"`
	OMIMID string `json:"omim_id,omitempty"`
	NCBIID string `json:"ncbi_id,omitempty"`
}

// MemoryHit reports whether a long-term memory record served this answer.
// Long-term memory is disabled, so Used is always false; the field is kept
// for downstream schema stability.
type MemoryHit struct {
	Used bool `json:"used"`
}

// AnswerRecord is the terminal output of one pipeline invocation
type AnswerRecord struct {
	QuestionType      QuestionType      `json:"question_type"`
	Question          ParsedQuestion    `json:"question"`
	Evidence          EvidenceBundle    `json:"evidence"`
	Gene              GeneBlock         `json:"gene"`
	Variant           *VariantBlock     `json:"variant,omitempty"`
	OverallAssessment OverallAssessment `json:"overall_assessment"`
	MemoryHit         MemoryHit         `json:"memory_hit"`
	SourceSummaries   SourceSummaries   `json:"source_summaries"`
	Intent            IntentRecord      `json:"intent"`
	DiseaseFocus      DiseaseFocus      `json:"disease_focus"`
	SessionID         string            `json:"session_id,omitempty"`
	ClinicalState     *ClinicalState    `json:"clinical_state,omitempty"`
}

// ClarificationRequest is the short-circuit response produced when a
// vague question has no resolvable gene or variant antecedent.
type ClarificationRequest struct {
	Type    string       `json:"type"`
	Message string       `json:"message"`
	Intent  IntentRecord `json:"intent"`
}

// AskOutcome is the result of one ask operation: exactly one of Answer
// and Clarification is set.
type AskOutcome struct {
	Answer        *AnswerRecord         `json:"answer,omitempty"`
	Clarification *ClarificationRequest `json:"clarification,omitempty"`
}

// History Models

// HistoryEntry is one stored question/answer record
type HistoryEntry struct {
	ID           int64        `json:"id"`
	SessionID    string       `json:"session_id"`
	Question     string       `json:"question"`
	QuestionType QuestionType `json:"question_type"`
	Intent       Intent       `json:"intent"`
	GeneSymbol   string       `json:"gene_symbol,omitempty"`
	VariantToken string       `json:"variant_token,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

// Configuration Models

// Config represents the main application configuration
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Session     SessionConfig     `mapstructure:"session"`
	ExternalAPI ExternalAPIConfig `mapstructure:"external_api"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatabaseConfig represents PostgreSQL connection configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// SessionConfig represents clinical-state store configuration
type SessionConfig struct {
	Driver     string        `mapstructure:"driver"`
	SQLitePath string        `mapstructure:"sqlite_path"`
	TTL        time.Duration `mapstructure:"ttl"`
	MaxScore   int           `mapstructure:"max_score"`
	DecayStep  int           `mapstructure:"decay_step"`
}

// ExternalAPIConfig groups the evidence-source client configurations
type ExternalAPIConfig struct {
	OMIM        OMIMConfig        `mapstructure:"omim"`
	NCBI        NCBIConfig        `mapstructure:"ncbi"`
	ClinVar     ClinVarConfig     `mapstructure:"clinvar"`
	PubMed      PubMedConfig      `mapstructure:"pubmed"`
	GeneReviews GeneReviewsConfig `mapstructure:"genereviews"`
	GnomAD      GnomADConfig      `mapstructure:"gnomad"`
	Mim2Gene    string            `mapstructure:"mim2gene_path"`
}

// OMIMConfig represents OMIM API configuration
type OMIMConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	APIKey    string        `mapstructure:"api_key"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit int           `mapstructure:"rate_limit"`
}

// NCBIConfig represents NCBI Gene E-utilities configuration
type NCBIConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	APIKey    string        `mapstructure:"api_key"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit int           `mapstructure:"rate_limit"`
}

// ClinVarConfig represents ClinVar E-utilities configuration
type ClinVarConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	APIKey    string        `mapstructure:"api_key"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit int           `mapstructure:"rate_limit"`
}

// PubMedConfig represents PubMed E-utilities configuration
type PubMedConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	APIKey     string        `mapstructure:"api_key"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RateLimit  int           `mapstructure:"rate_limit"`
	MaxResults int           `mapstructure:"max_results"`
}

// GeneReviewsConfig represents NCBI Bookshelf configuration
type GeneReviewsConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	APIKey    string        `mapstructure:"api_key"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit int           `mapstructure:"rate_limit"`
}

// GnomADConfig represents gnomAD GraphQL configuration
type GnomADConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit int           `mapstructure:"rate_limit"`
}

// CacheConfig represents the Redis evidence-cache configuration
type CacheConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	RedisURL    string        `mapstructure:"redis_url"`
	DefaultTTL  time.Duration `mapstructure:"default_ttl"`
	MaxRetries  int           `mapstructure:"max_retries"`
	PoolSize    int           `mapstructure:"pool_size"`
	PoolTimeout time.Duration `mapstructure:"pool_timeout"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
