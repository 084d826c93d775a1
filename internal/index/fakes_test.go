package index

import (
	"context"
	"fmt"
	"sync"

	serrors "github.com/Aman-CERP/titlesearch/internal/errors"
	"github.com/Aman-CERP/titlesearch/internal/store"
)

// fetchCall records one Fetch invocation.
type fetchCall struct {
	lang   store.Language
	limit  int
	offset int
}

// fakeRetriever serves fixed pages per language.
type fakeRetriever struct {
	mu      sync.Mutex
	pages   map[store.Language][][]store.Document
	failFor map[store.Language]bool
	calls   []fetchCall
}

func (f *fakeRetriever) Fetch(_ context.Context, lang store.Language, limit, offset int) ([]store.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, fetchCall{lang: lang, limit: limit, offset: offset})
	if f.failFor[lang] {
		return nil, serrors.RetrieverFailure("catalog unavailable", nil)
	}
	pages := f.pages[lang]
	i := offset / limit
	if i >= len(pages) {
		return []store.Document{}, nil
	}
	return pages[i], nil
}

func (f *fakeRetriever) callCount(lang store.Language) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.lang == lang {
			n++
		}
	}
	return n
}

// fakeRebuilder records the corpus handed to each language and can fail
// some of them; when next is set, successful rebuilds are forwarded.
type fakeRebuilder struct {
	mu      sync.Mutex
	name    string
	log     *[]string
	docs    map[store.Language][]store.Document
	failFor map[store.Language]bool
	next    Rebuilder
}

func (f *fakeRebuilder) Rebuild(ctx context.Context, lang store.Language, docs []store.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.log != nil {
		*f.log = append(*f.log, fmt.Sprintf("%s/%s", f.name, lang))
	}
	if f.failFor[lang] {
		return serrors.IndexBuildFailure("commit failed", nil)
	}
	if f.docs == nil {
		f.docs = make(map[store.Language][]store.Document)
	}
	f.docs[lang] = docs
	if f.next != nil {
		return f.next.Rebuild(ctx, lang, docs)
	}
	return nil
}

func docs(ids ...uint64) []store.Document {
	out := make([]store.Document, 0, len(ids))
	for _, id := range ids {
		out = append(out, store.NewDocument(id, fmt.Sprintf("title %d", id)))
	}
	return out
}
