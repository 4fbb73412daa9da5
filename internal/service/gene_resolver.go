package service

import (
	"bufio"
	"context"
	"os"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
)

// GeneIDSearcher looks up an NCBI Gene ID for a human gene symbol.
type GeneIDSearcher interface {
	SearchGeneID(ctx context.Context, symbol string) (string, error)
}

// staticOMIMIDs covers the genes the system is asked about most, so a
// missing mim2gene file or a cold cache still resolves them.
var staticOMIMIDs = map[string]string{
	"TP53":  "191170",
	"BRCA1": "113705",
	"BRCA2": "600185",
	"CFTR":  "602421",
	"MLH1":  "120436",
	"ERBB2": "164870",
	"MYH7":  "160760",
}

// staticNCBIIDs is the offline fallback when the E-utilities lookup fails.
var staticNCBIIDs = map[string]string{
	"BRCA1": "672",
	"BRCA2": "675",
	"TP53":  "7157",
	"CFTR":  "1080",
	"MLH1":  "4292",
}

type resolvedIDs struct {
	OMIMID string
	NCBIID string
}

// GeneResolver maps gene symbols to OMIM and NCBI Gene identifiers,
// combining a static table, an optional mim2gene dump and live NCBI
// search behind an LRU cache.
type GeneResolver struct {
	searcher GeneIDSearcher
	cache    *lru.Cache[string, resolvedIDs]
	mimTable map[string]string
	log      *logrus.Logger

	mu     sync.Mutex
	hits   uint64
	misses uint64
}

// NewGeneResolver creates a resolver. mim2genePath may be empty; searcher
// may be nil in offline setups.
func NewGeneResolver(searcher GeneIDSearcher, mim2genePath string, log *logrus.Logger) (*GeneResolver, error) {
	cache, err := lru.New[string, resolvedIDs](512)
	if err != nil {
		return nil, err
	}

	r := &GeneResolver{
		searcher: searcher,
		cache:    cache,
		mimTable: map[string]string{},
		log:      log,
	}

	if mim2genePath != "" {
		if err := r.loadMim2Gene(mim2genePath); err != nil {
			// The static table still covers the common genes.
			log.WithError(err).WithField("path", mim2genePath).Warn("failed to load mim2gene table")
		} else {
			log.WithField("entries", len(r.mimTable)).Info("loaded mim2gene table")
		}
	}

	return r, nil
}

// loadMim2Gene reads the OMIM mim2gene.txt dump: tab separated rows of
// MIM number, entry type, Entrez ID, approved symbol. Only gene rows are
// kept and the first MIM number per symbol wins.
func (r *GeneResolver) loadMim2Gene(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 4 {
			continue
		}
		entryType := strings.ToLower(fields[1])
		symbol := strings.ToUpper(strings.TrimSpace(fields[3]))
		if !strings.Contains(entryType, "gene") || symbol == "" {
			continue
		}
		if _, exists := r.mimTable[symbol]; !exists {
			r.mimTable[symbol] = strings.TrimSpace(fields[0])
		}
	}
	return scanner.Err()
}

// OMIMID returns the OMIM entry number for a symbol, or "" when unknown.
func (r *GeneResolver) OMIMID(symbol string) string {
	symbol = NormalizeGeneSymbol(symbol)
	if id, ok := staticOMIMIDs[symbol]; ok {
		return id
	}
	return r.mimTable[symbol]
}

// NCBIID returns the NCBI Gene ID for a symbol, consulting the live
// search first and falling back to the static table.
func (r *GeneResolver) NCBIID(ctx context.Context, symbol string) string {
	symbol = NormalizeGeneSymbol(symbol)

	if r.searcher != nil {
		id, err := r.searcher.SearchGeneID(ctx, symbol)
		if err != nil {
			r.log.WithError(err).WithField("symbol", symbol).Debug("ncbi gene id lookup failed")
		} else if id != "" {
			return id
		}
	}
	return staticNCBIIDs[symbol]
}

// Resolve returns both identifiers for a symbol, cached per symbol.
func (r *GeneResolver) Resolve(ctx context.Context, symbol string) (omimID, ncbiID string) {
	symbol = NormalizeGeneSymbol(symbol)
	if symbol == "" {
		return "", ""
	}

	if ids, ok := r.cache.Get(symbol); ok {
		r.mu.Lock()
		r.hits++
		r.mu.Unlock()
		return ids.OMIMID, ids.NCBIID
	}

	r.mu.Lock()
	r.misses++
	r.mu.Unlock()

	ids := resolvedIDs{
		OMIMID: r.OMIMID(symbol),
		NCBIID: r.NCBIID(ctx, symbol),
	}
	// Don't cache total misses; the next question may come after the
	// upstream recovers.
	if ids.OMIMID != "" || ids.NCBIID != "" {
		r.cache.Add(symbol, ids)
	}
	return ids.OMIMID, ids.NCBIID
}

// Stats returns cache hit/miss counters.
func (r *GeneResolver) Stats() (hits, misses uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hits, r.misses
}
