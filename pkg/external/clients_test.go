package external

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genegpt-qa-server/internal/domain"
)

func TestBuildSearchTerm(t *testing.T) {
	tests := []struct {
		name  string
		gene  string
		token string
		want  string
	}{
		{"rsID used directly", "BRCA1", "rs80357906", "rs80357906"},
		{"hgvs scoped to gene", "BRCA1", "c.68_69delAG", "BRCA1[gene] AND c.68_69delAG"},
		{"hgvs without gene", "", "c.68_69delAG", "c.68_69delAG"},
		{"protein hgvs", "HBB", "p.Glu6Val", "HBB[gene] AND p.Glu6Val"},
		{"fallback with gene", "TP53", "weird-token", "TP53[gene] AND weird-token"},
		{"fallback without gene", "", "weird-token", "weird-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildSearchTerm(tt.gene, tt.token))
		})
	}
}

func TestClinVarClient_FetchVariant(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/esearch.fcgi":
			assert.Equal(t, "clinvar", r.URL.Query().Get("db"))
			assert.Equal(t, "BRCA1[gene] AND c.68_69delAG", r.URL.Query().Get("term"))
			fmt.Fprint(w, `{"esearchresult":{"idlist":["12345"]}}`)
		case "/esummary.fcgi":
			assert.Equal(t, "12345", r.URL.Query().Get("id"))
			fmt.Fprint(w, `{"result":{"uids":["12345"],"12345":{
				"accession":"VCV000017662",
				"clinical_significance":{"description":"Pathogenic","review_status":"reviewed by expert panel","conflicting_data":false},
				"trait_set":[{"trait":{"name":["Breast-ovarian cancer, familial 1"]}}],
				"submission_count":42}}}`)
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewClinVarClient(domain.ClinVarConfig{
		BaseURL:   server.URL + "/",
		Timeout:   5 * time.Second,
		RateLimit: 100,
	})

	ev, err := client.FetchVariant(context.Background(), "BRCA1", "c.68_69delAG")
	require.NoError(t, err)
	assert.True(t, ev.Used)
	assert.Equal(t, "VCV000017662", ev.Accession)
	assert.Equal(t, "Pathogenic", ev.ClinicalSignificance)
	assert.Equal(t, "Breast-ovarian cancer, familial 1", ev.Condition)
	assert.Equal(t, "reviewed by expert panel", ev.ReviewStatus)
	assert.Equal(t, 42, ev.NumSubmissions)
	assert.False(t, ev.ConflictingSubmissions)
	assert.Equal(t, "https://www.ncbi.nlm.nih.gov/clinvar/VCV000017662", ev.Link)
	assert.Contains(t, ev.Reason, "BRCA1[gene] AND c.68_69delAG")
}

func TestClinVarClient_NoMatchIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"esearchresult":{"idlist":[]}}`)
	}))
	defer server.Close()

	client := NewClinVarClient(domain.ClinVarConfig{
		BaseURL:   server.URL + "/",
		Timeout:   5 * time.Second,
		RateLimit: 100,
	})

	ev, err := client.FetchVariant(context.Background(), "BRCA1", "c.9999X>Y")
	require.NoError(t, err)
	assert.False(t, ev.Used)
	assert.Contains(t, ev.Reason, "No ClinVar match found")
}

func TestClinVarClient_EmptyToken(t *testing.T) {
	client := NewClinVarClient(domain.ClinVarConfig{BaseURL: "http://unused/", Timeout: time.Second, RateLimit: 100})

	ev, err := client.FetchVariant(context.Background(), "BRCA1", "")
	require.NoError(t, err)
	assert.False(t, ev.Used)
	assert.Equal(t, "No variant token provided to ClinVar client.", ev.Reason)
}

func TestClinVarClient_UpstreamErrorSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClinVarClient(domain.ClinVarConfig{
		BaseURL:   server.URL + "/",
		Timeout:   5 * time.Second,
		RateLimit: 100,
	})

	_, err := client.FetchVariant(context.Background(), "BRCA1", "c.68_69delAG")
	assert.Error(t, err)
}

func TestNCBIGeneClient_SearchAndFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/esearch.fcgi":
			assert.Equal(t, "BRCA1[sym] AND Homo sapiens[orgn]", r.URL.Query().Get("term"))
			fmt.Fprint(w, `{"esearchresult":{"idlist":["672"]}}`)
		case "/esummary.fcgi":
			fmt.Fprint(w, `{"result":{"uids":["672"],"672":{
				"uid":"672",
				"description":"BRCA1 DNA repair associated",
				"chromosome":"17",
				"maplocation":"17q21.31",
				"summary":"This gene encodes a 190 kD nuclear phosphoprotein."}}}`)
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewNCBIGeneClient(domain.NCBIConfig{
		BaseURL:   server.URL + "/",
		Timeout:   5 * time.Second,
		RateLimit: 100,
	})

	id, err := client.SearchGeneID(context.Background(), "BRCA1")
	require.NoError(t, err)
	assert.Equal(t, "672", id)

	ev, err := client.FetchGene(context.Background(), "BRCA1", id)
	require.NoError(t, err)
	assert.True(t, ev.Used)
	assert.Equal(t, "BRCA1 DNA repair associated", ev.FullName)
	assert.Equal(t, "17q21.31", ev.Location)
	assert.Contains(t, ev.Function, "nuclear phosphoprotein")
	assert.Equal(t, "https://www.ncbi.nlm.nih.gov/gene/672", ev.Link)
}

func TestNCBIGeneClient_MissingID(t *testing.T) {
	client := NewNCBIGeneClient(domain.NCBIConfig{BaseURL: "http://unused/", Timeout: time.Second, RateLimit: 100})

	ev, err := client.FetchGene(context.Background(), "NOPE1", "")
	require.NoError(t, err)
	assert.False(t, ev.Used)
	assert.Contains(t, ev.Reason, "No NCBI Gene ID resolved")
}

func TestPubMedClient_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/esearch.fcgi":
			assert.Equal(t, "5", r.URL.Query().Get("retmax"))
			fmt.Fprint(w, `{"esearchresult":{"idlist":["111","222"]}}`)
		case "/esummary.fcgi":
			fmt.Fprint(w, `{"result":{"uids":["111","222"],
				"111":{"title":"BRCA1 in hereditary breast cancer","fulljournalname":"Nature Genetics","pubdate":"2023 Mar 15"},
				"222":{"title":"Variant interpretation pitfalls","source":"J Med Genet","pubdate":"2019 Nov-Dec"}}}`)
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewPubMedClient(domain.PubMedConfig{
		BaseURL:    server.URL + "/",
		Timeout:    5 * time.Second,
		RateLimit:  100,
		MaxResults: 5,
	})

	ev, err := client.Search(context.Background(), "BRCA1 pathogenic variants")
	require.NoError(t, err)
	assert.True(t, ev.Used)
	require.Len(t, ev.Papers, 2)
	assert.Equal(t, "111", ev.Papers[0].PMID)
	assert.Equal(t, "Nature Genetics", ev.Papers[0].Journal)
	assert.Equal(t, 2023, ev.Papers[0].Year)
	assert.Equal(t, "J Med Genet", ev.Papers[1].Journal)
	assert.Equal(t, 2019, ev.Papers[1].Year)
	assert.Equal(t, "https://pubmed.ncbi.nlm.nih.gov/111/", ev.Papers[0].URL)
	assert.Contains(t, ev.Link, "pubmed.ncbi.nlm.nih.gov/?term=")
}

func TestPubMedClient_NoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"esearchresult":{"idlist":[]}}`)
	}))
	defer server.Close()

	client := NewPubMedClient(domain.PubMedConfig{
		BaseURL:   server.URL + "/",
		Timeout:   5 * time.Second,
		RateLimit: 100,
	})

	ev, err := client.Search(context.Background(), "zzz no such thing")
	require.NoError(t, err)
	assert.False(t, ev.Used)
	assert.Equal(t, "No PubMed results found for this query.", ev.Reason)
	assert.NotEmpty(t, ev.Link)
}

func TestGeneReviewsClient_PrefersChapter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/esearch.fcgi":
			assert.Equal(t, "CFTR[Title] AND gene[book]", r.URL.Query().Get("term"))
			fmt.Fprint(w, `{"esearchresult":{"idlist":["1","2"]}}`)
		case "/esummary.fcgi":
			fmt.Fprint(w, `{"result":{"uids":["1","2"],
				"1":{"uid":"1","rtype":"table","accessionid":"NBK0001","title":"Table 1"},
				"2":{"uid":"2","rtype":"chapter","accessionid":"NBK1250","title":"CFTR-Related Disorders"}}}`)
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewGeneReviewsClient(domain.GeneReviewsConfig{
		BaseURL:   server.URL + "/",
		Timeout:   5 * time.Second,
		RateLimit: 100,
	})

	ev, err := client.FetchChapter(context.Background(), "CFTR")
	require.NoError(t, err)
	assert.True(t, ev.Used)
	assert.Equal(t, "NBK1250", ev.BookID)
	assert.Equal(t, "CFTR-Related Disorders", ev.Title)
	assert.Equal(t, "https://www.ncbi.nlm.nih.gov/books/NBK1250/", ev.Link)
}

func TestGnomADClient_FetchGene(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		fmt.Fprint(w, `{"data":{"gene":{"gene_id":"ENSG00000012048","symbol":"BRCA1","chrom":"17","omim_id":"113705"}}}`)
	}))
	defer server.Close()

	client := NewGnomADClient(domain.GnomADConfig{
		BaseURL:   server.URL,
		Timeout:   5 * time.Second,
		RateLimit: 100,
	})

	ev, err := client.FetchGene(context.Background(), "BRCA1")
	require.NoError(t, err)
	assert.True(t, ev.Used)
	assert.Equal(t, "ENSG00000012048", ev.GeneID)
	assert.Equal(t, "17", ev.Chromosome)
	assert.Equal(t, "113705", ev.OMIMID)
	assert.Equal(t, "https://gnomad.broadinstitute.org/gene/ENSG00000012048?dataset=gnomad_r4", ev.Link)
}

func TestGnomADClient_UnknownGene(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"gene":null}}`)
	}))
	defer server.Close()

	client := NewGnomADClient(domain.GnomADConfig{
		BaseURL:   server.URL,
		Timeout:   5 * time.Second,
		RateLimit: 100,
	})

	ev, err := client.FetchGene(context.Background(), "NOPE1")
	require.NoError(t, err)
	assert.False(t, ev.Used)
	assert.Contains(t, ev.Reason, "No gnomAD data found")
}

func TestOMIMClient_NoKeyIsUnused(t *testing.T) {
	client := NewOMIMClient(domain.OMIMConfig{BaseURL: "http://unused/", Timeout: time.Second, RateLimit: 100})

	ev, err := client.FetchGene(context.Background(), "BRCA1", "113705")
	require.NoError(t, err)
	assert.False(t, ev.Used)
	assert.Equal(t, "OMIM API key not configured.", ev.Reason)
}

func TestOMIMClient_FetchGene(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/entry", r.URL.Path)
		assert.Equal(t, "113705", r.URL.Query().Get("mimNumber"))
		assert.Equal(t, "geneMap", r.URL.Query().Get("include"))
		assert.Equal(t, "test-key", r.URL.Query().Get("apiKey"))
		fmt.Fprint(w, `{"omim":{"entryList":[{"entry":{
			"mimNumber":113705,
			"geneMap":{"phenotypeMapList":[
				{"phenotypeMap":{"phenotype":"Breast-ovarian cancer, familial, 1","phenotypeMimNumber":604370,"phenotypeInheritance":"Autosomal dominant","mappingKey":3}},
				{"phenotypeMap":{"phenotype":"Pancreatic cancer, susceptibility to, 4","phenotypeMimNumber":614320,"phenotypeInheritance":"Autosomal dominant","mappingKey":3}}
			]}}}]}}`)
	}))
	defer server.Close()

	client := NewOMIMClient(domain.OMIMConfig{
		BaseURL:   server.URL + "/",
		APIKey:    "test-key",
		Timeout:   5 * time.Second,
		RateLimit: 100,
	})

	ev, err := client.FetchGene(context.Background(), "BRCA1", "113705")
	require.NoError(t, err)
	assert.True(t, ev.Used)
	assert.Equal(t, "113705", ev.OMIMID)
	assert.Equal(t, "Autosomal dominant", ev.Inheritance)
	require.Len(t, ev.Phenotypes, 2)
	assert.Equal(t, "Breast-ovarian cancer, familial, 1", ev.Phenotypes[0].Name)
	assert.Equal(t, "604370", ev.Phenotypes[0].MIMNumber)
	assert.Equal(t, "https://www.omim.org/entry/113705", ev.Link)
}

func TestOMIMClient_NoMapping(t *testing.T) {
	client := NewOMIMClient(domain.OMIMConfig{BaseURL: "http://unused/", APIKey: "k", Timeout: time.Second, RateLimit: 100})

	ev, err := client.FetchGene(context.Background(), "NOPE1", "")
	require.NoError(t, err)
	assert.False(t, ev.Used)
	assert.Contains(t, ev.Reason, "No OMIM entry found for gene symbol NOPE1")
}
