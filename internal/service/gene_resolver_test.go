package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	ids   map[string]string
	err   error
	calls int
}

func (f *fakeSearcher) SearchGeneID(_ context.Context, symbol string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.ids[symbol], nil
}

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.ErrorLevel)
	return log
}

func TestGeneResolver_StaticTables(t *testing.T) {
	r, err := NewGeneResolver(nil, "", newTestLogger())
	require.NoError(t, err)

	omimID, ncbiID := r.Resolve(context.Background(), "TP53")
	assert.Equal(t, "191170", omimID)
	assert.Equal(t, "7157", ncbiID)

	// synonyms resolve before lookup
	omimID, _ = r.Resolve(context.Background(), "her2")
	assert.Equal(t, "164870", omimID)
}

func TestGeneResolver_SearcherPreferred(t *testing.T) {
	searcher := &fakeSearcher{ids: map[string]string{"CHRNA1": "1134"}}
	r, err := NewGeneResolver(searcher, "", newTestLogger())
	require.NoError(t, err)

	_, ncbiID := r.Resolve(context.Background(), "CHRNA1")
	assert.Equal(t, "1134", ncbiID)
	assert.Equal(t, 1, searcher.calls)

	// second lookup is served from the cache
	_, ncbiID = r.Resolve(context.Background(), "CHRNA1")
	assert.Equal(t, "1134", ncbiID)
	assert.Equal(t, 1, searcher.calls)

	hits, misses := r.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
}

func TestGeneResolver_SearcherFailureFallsBack(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("upstream down")}
	r, err := NewGeneResolver(searcher, "", newTestLogger())
	require.NoError(t, err)

	_, ncbiID := r.Resolve(context.Background(), "BRCA1")
	assert.Equal(t, "672", ncbiID)
}

func TestGeneResolver_Mim2GeneFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mim2gene.txt")
	content := "# Comment line\n" +
		"100690\tgene\t1134\tCHRNA1\tENSG00000138435\n" +
		"100100\tphenotype\t\t\t\n" +
		"999999\tgene\t1134\tCHRNA1\tENSG00000138435\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	r, err := NewGeneResolver(nil, path, newTestLogger())
	require.NoError(t, err)

	// first MIM number per symbol wins
	assert.Equal(t, "100690", r.OMIMID("CHRNA1"))
	// static table still answers for the common genes
	assert.Equal(t, "113705", r.OMIMID("BRCA1"))
	assert.Empty(t, r.OMIMID("NOPE1"))
}

func TestGeneResolver_EmptySymbol(t *testing.T) {
	r, err := NewGeneResolver(nil, "", newTestLogger())
	require.NoError(t, err)

	omimID, ncbiID := r.Resolve(context.Background(), "")
	assert.Empty(t, omimID)
	assert.Empty(t, ncbiID)
}
