package store

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/regexp"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	serrors "github.com/Aman-CERP/titlesearch/internal/errors"
)

const (
	// TitleAnalyzerName is the analyzer applied to the title field:
	// runs of letters and digits lowercased, no stemming.
	TitleAnalyzerName = "title_analyzer"

	// TitleTokenizerName splits on every character that is not a letter,
	// a combining mark or a digit, so "queen's" indexes as "queen" and "s".
	TitleTokenizerName = "title_tokenizer"
	titleTokenPattern  = `[\p{L}\p{M}\p{N}]+`

	titleField = "title"
	idField    = "id"
)

// titleDocument is the document structure for bleve indexing. The id is
// stored in decimal since a numeric field would round ids above 2^53.
type titleDocument struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// TitleIndex is an in-memory bleve index over the titles of one
// (collection, language) pair.
//
// A TitleIndex is shared by a registry slot and any in-flight searches.
// It starts with one reference held by its creator; the bleve index is
// closed when the last reference is released.
type TitleIndex struct {
	mu     sync.RWMutex
	index  bleve.Index
	closed bool

	refs atomic.Int64
}

// NewTitleIndex creates an empty in-memory title index.
func NewTitleIndex() (*TitleIndex, error) {
	indexMapping, err := createTitleMapping()
	if err != nil {
		return nil, fmt.Errorf("failed to create index mapping: %w", err)
	}

	idx, err := bleve.NewMemOnly(indexMapping)
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	t := &TitleIndex{index: idx}
	t.refs.Store(1)
	return t, nil
}

// createTitleMapping indexes title with the title analyzer and stores id
// without indexing it.
func createTitleMapping() (*mapping.IndexMappingImpl, error) {
	indexMapping := bleve.NewIndexMapping()

	err := indexMapping.AddCustomTokenizer(TitleTokenizerName, map[string]interface{}{
		"type":   regexp.Name,
		"regexp": titleTokenPattern,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add custom tokenizer: %w", err)
	}

	err = indexMapping.AddCustomAnalyzer(TitleAnalyzerName, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     TitleTokenizerName,
		"token_filters": []string{lowercase.Name},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add custom analyzer: %w", err)
	}

	title := bleve.NewTextFieldMapping()
	title.Analyzer = TitleAnalyzerName
	title.Store = false
	title.IncludeTermVectors = false

	id := bleve.NewTextFieldMapping()
	id.Index = false
	id.IncludeTermVectors = false
	id.Store = true
	id.IncludeInAll = false

	doc := bleve.NewDocumentStaticMapping()
	doc.AddFieldMappingsAt(titleField, title)
	doc.AddFieldMappingsAt(idField, id)

	indexMapping.DefaultMapping = doc
	indexMapping.DefaultAnalyzer = TitleAnalyzerName

	return indexMapping, nil
}

// Write adds docs to the index in one batch. The batch is the commit:
// once Write returns nil, searches observe every document. Writing an id
// that already exists replaces the previous title.
func (t *TitleIndex) Write(ctx context.Context, docs []Document) error {
	if err := ctx.Err(); err != nil {
		return serrors.IndexBuildFailure("index write cancelled", err)
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		return serrors.IndexBuildFailure("index is closed", nil)
	}
	if len(docs) == 0 {
		return nil
	}

	batch := t.index.NewBatch()
	for _, doc := range docs {
		id := strconv.FormatUint(doc.ID, 10)
		if err := batch.Index(id, titleDocument{ID: id, Title: doc.Title}); err != nil {
			return serrors.IndexBuildFailure(fmt.Sprintf("failed to index document %s", id), err)
		}
	}

	if err := t.index.Batch(batch); err != nil {
		return serrors.IndexBuildFailure("failed to commit batch", err)
	}
	return nil
}

// Search returns the ids of documents whose title contains every token:
// all but the last exactly, the last as a prefix. Results are ordered by
// descending score and capped at MaxResults.
func (t *TitleIndex) Search(ctx context.Context, tokens []string) ([]uint64, error) {
	if len(tokens) == 0 {
		return nil, serrors.EmptyQuery()
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		return nil, serrors.IndexQueryFailure("index is closed", nil)
	}

	req := bleve.NewSearchRequestOptions(buildTitleQuery(tokens), MaxResults, 0, false)
	req.SortBy([]string{"-_score", "_id"})

	result, err := t.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, serrors.IndexQueryFailure("search failed", err)
	}

	ids := make([]uint64, 0, len(result.Hits))
	for _, hit := range result.Hits {
		id, err := strconv.ParseUint(hit.ID, 10, 64)
		if err != nil {
			return nil, serrors.IndexQueryFailure(fmt.Sprintf("invalid document id %q", hit.ID), err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// buildTitleQuery turns normalized tokens into a conjunction of exact
// term matches followed by one prefix match.
func buildTitleQuery(tokens []string) *query.ConjunctionQuery {
	conj := bleve.NewConjunctionQuery()
	last := len(tokens) - 1
	for _, tok := range tokens[:last] {
		q := bleve.NewTermQuery(tok)
		q.SetField(titleField)
		conj.AddQuery(q)
	}
	prefix := bleve.NewPrefixQuery(tokens[last])
	prefix.SetField(titleField)
	conj.AddQuery(prefix)
	return conj
}

// DocCount returns the number of documents in the index.
func (t *TitleIndex) DocCount() (uint64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		return 0, fmt.Errorf("index is closed")
	}
	return t.index.DocCount()
}

// Close closes the underlying bleve index. It is safe to call more than once.
func (t *TitleIndex) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	return t.index.Close()
}

// acquire takes a reference for a reader. It fails once the index has been
// fully released, in which case the caller must reload the slot.
func (t *TitleIndex) acquire() bool {
	for {
		n := t.refs.Load()
		if n <= 0 {
			return false
		}
		if t.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// release drops a reference and closes the index when it was the last one.
func (t *TitleIndex) release() error {
	if t.refs.Add(-1) != 0 {
		return nil
	}
	return t.Close()
}
