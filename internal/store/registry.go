package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"

	serrors "github.com/Aman-CERP/titlesearch/internal/errors"
)

// slot holds the live index of one language. Readers load current without
// locking; mu serializes appends and index swaps of this language only.
type slot struct {
	mu         sync.Mutex
	current    atomic.Pointer[TitleIndex]
	generation atomic.Uint64
}

// acquire returns the current index with a reader reference held, or nil
// once the slot has been closed.
func (s *slot) acquire() *TitleIndex {
	for {
		idx := s.current.Load()
		if idx == nil {
			return nil
		}
		if idx.acquire() {
			return idx
		}
		// Released between Load and acquire: a swap happened, reload.
	}
}

// Registry maps each language of one collection to its live TitleIndex.
// Searches run concurrently with rebuilds; a rebuild replaces a language's
// index atomically so readers see either the old or the new corpus.
type Registry struct {
	collection Collection
	slots      [numLanguages]*slot
	closed     atomic.Bool

	// built runs after a rebuild has indexed its corpus, before the swap.
	built func(Language)
}

// NewRegistry creates a registry with an empty index for every language.
func NewRegistry(collection Collection) (*Registry, error) {
	r := &Registry{collection: collection}
	for i := range r.slots {
		idx, err := NewTitleIndex()
		if err != nil {
			_ = r.Close()
			return nil, fmt.Errorf("failed to create %s index for %s: %w",
				Language(i), collection, err)
		}
		s := &slot{}
		s.current.Store(idx)
		r.slots[i] = s
	}
	return r, nil
}

// Collection returns the collection this registry serves.
func (r *Registry) Collection() Collection {
	return r.collection
}

func (r *Registry) slot(lang Language) (*slot, error) {
	if lang < 0 || int(lang) >= len(r.slots) || r.slots[lang] == nil {
		return nil, serrors.LanguageNotIndexed(lang.String())
	}
	return r.slots[lang], nil
}

// Search queries the current index of lang. See TitleIndex.Search for
// the matching rules.
func (r *Registry) Search(ctx context.Context, lang Language, tokens []string) ([]uint64, error) {
	s, err := r.slot(lang)
	if err != nil {
		return nil, err
	}

	idx := s.acquire()
	if idx == nil {
		return nil, serrors.IndexQueryFailure("registry is closed", nil)
	}
	defer releaseIndex(idx)

	return idx.Search(ctx, tokens)
}

// Append writes docs into the current index of lang in place.
// Concurrent searches may observe the batch only once it is committed.
func (r *Registry) Append(ctx context.Context, lang Language, docs []Document) error {
	s, err := r.slot(lang)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.current.Load()
	if idx == nil {
		return serrors.IndexBuildFailure("registry is closed", nil)
	}
	// A failed write may be partially visible, so cached results are
	// invalidated either way.
	defer s.generation.Add(1)

	return idx.Write(ctx, docs)
}

// Rebuild replaces the index of lang with a fresh one containing exactly
// docs. The new index is fully committed before it becomes visible. On
// failure it is discarded and the previous index keeps serving.
//
// Indexing happens outside the slot lock, so appends are only held up by
// the swap. An append that lands in the old index while the new one is
// being built is dropped with it.
func (r *Registry) Rebuild(ctx context.Context, lang Language, docs []Document) error {
	s, err := r.slot(lang)
	if err != nil {
		return err
	}
	if r.closed.Load() {
		return serrors.IndexBuildFailure("registry is closed", nil)
	}

	fresh, err := NewTitleIndex()
	if err != nil {
		return serrors.IndexBuildFailure("failed to create index", err)
	}
	if err := fresh.Write(ctx, docs); err != nil {
		_ = fresh.Close()
		return err
	}
	if r.built != nil {
		r.built(lang)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if r.closed.Load() {
		_ = fresh.Close()
		return serrors.IndexBuildFailure("registry is closed", nil)
	}

	old := s.current.Swap(fresh)
	s.generation.Add(1)
	if old != nil {
		releaseIndex(old)
	}
	return nil
}

// releaseIndex drops a reference where no caller can act on a close error.
func releaseIndex(idx *TitleIndex) {
	if err := idx.release(); err != nil {
		slog.Warn("title_index_close_failed", slog.String("error", err.Error()))
	}
}

// Generation returns a counter that changes whenever the content of lang
// may have changed. Unknown languages report 0.
func (r *Registry) Generation(lang Language) uint64 {
	s, err := r.slot(lang)
	if err != nil {
		return 0
	}
	return s.generation.Load()
}

// Stats reports document count and generation for every language.
func (r *Registry) Stats() []LanguageStats {
	stats := make([]LanguageStats, 0, len(r.slots))
	for _, lang := range AllLanguages() {
		s, err := r.slot(lang)
		if err != nil {
			continue
		}
		st := LanguageStats{
			Language:   lang,
			Name:       lang.String(),
			Generation: s.generation.Load(),
		}
		if idx := s.acquire(); idx != nil {
			st.Documents, _ = idx.DocCount()
			releaseIndex(idx)
		}
		stats = append(stats, st)
	}
	return stats
}

// Close retires every index. Searches already in flight finish against the
// index they acquired.
func (r *Registry) Close() error {
	r.closed.Store(true)

	var result *multierror.Error
	for i, s := range r.slots {
		if s == nil {
			continue
		}
		s.mu.Lock()
		if idx := s.current.Swap(nil); idx != nil {
			if err := idx.release(); err != nil {
				result = multierror.Append(result, fmt.Errorf("failed to close %s index: %w", Language(i), err))
			}
		}
		s.mu.Unlock()
	}
	return result.ErrorOrNil()
}
