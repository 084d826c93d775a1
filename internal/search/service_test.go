package search

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serrors "github.com/Aman-CERP/titlesearch/internal/errors"
	"github.com/Aman-CERP/titlesearch/internal/store"
	"github.com/Aman-CERP/titlesearch/internal/telemetry"
)

// countingSearcher records the tokens it receives.
type countingSearcher struct {
	mu         sync.Mutex
	calls      [][]string
	ids        []uint64
	err        error
	generation uint64
}

func (c *countingSearcher) Search(_ context.Context, _ store.Language, tokens []string) ([]uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, tokens)
	return c.ids, c.err
}

func (c *countingSearcher) Generation(store.Language) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"The Queen", []string{"the", "queen"}},
		{"  spaced\tout \n words ", []string{"spaced", "out", "words"}},
		{"ÁRBOL", []string{"árbol"}},
		{"", nil},
		{"   ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Tokenize(tt.in)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestService_Search_EndToEnd(t *testing.T) {
	// Given: a movie registry with one EN title
	ctx := context.Background()
	reg, err := store.NewRegistry(store.CollectionMovie)
	require.NoError(t, err)
	defer func() { _ = reg.Close() }()
	require.NoError(t, reg.Rebuild(ctx, store.LanguageEN, []store.Document{store.NewDocument(1, "The Queen")}))

	svc := NewService(map[store.Collection]Searcher{store.CollectionMovie: reg})

	// When: searching with mixed case and a partial last word
	got, err := svc.Search(ctx, store.CollectionMovie, store.LanguageEN, "THE Qu")

	// Then: the title is found
	require.NoError(t, err)
	assert.Equal(t, []uint64{1}, got)
}

func TestService_Search_EmptyQuery(t *testing.T) {
	s := &countingSearcher{}
	svc := NewService(map[store.Collection]Searcher{store.CollectionTV: s})

	_, err := svc.Search(context.Background(), store.CollectionTV, store.LanguageEN, "  \t ")

	require.Error(t, err)
	assert.True(t, errors.Is(err, serrors.ErrEmptyQuery))
	assert.Empty(t, s.calls, "empty queries never reach the index")
}

func TestService_Search_UnknownCollection(t *testing.T) {
	svc := NewService(map[store.Collection]Searcher{store.CollectionTV: &countingSearcher{}})

	_, err := svc.Search(context.Background(), store.CollectionGame, store.LanguageEN, "zelda")

	assert.True(t, errors.Is(err, serrors.ErrUnknownCollection))
}

func TestService_Search_PropagatesQueryFailure(t *testing.T) {
	s := &countingSearcher{err: serrors.IndexQueryFailure("boom", nil)}
	svc := NewService(map[store.Collection]Searcher{store.CollectionRecipe: s})

	_, err := svc.Search(context.Background(), store.CollectionRecipe, store.LanguageES, "tortilla")

	assert.True(t, errors.Is(err, serrors.ErrIndexQueryFailure))
}

func TestService_SearchNamed(t *testing.T) {
	s := &countingSearcher{ids: []uint64{4}}
	svc := NewService(map[store.Collection]Searcher{store.CollectionGame: s})
	ctx := context.Background()

	got, err := svc.SearchNamed(ctx, "game", "es", "Mario Kart")
	require.NoError(t, err)
	assert.Equal(t, []uint64{4}, got)
	assert.Equal(t, [][]string{{"mario", "kart"}}, s.calls)

	_, err = svc.SearchNamed(ctx, "BOOK", "EN", "x")
	assert.True(t, errors.Is(err, serrors.ErrUnknownCollection))

	_, err = svc.SearchNamed(ctx, "GAME", "FR", "x")
	assert.True(t, errors.Is(err, serrors.ErrUnknownLanguage))
}

func TestService_Cache_HitsWithinGeneration(t *testing.T) {
	// Given: a cached service
	s := &countingSearcher{ids: []uint64{1, 2}}
	svc := NewService(map[store.Collection]Searcher{store.CollectionMovie: s}, WithCacheSize(8))
	ctx := context.Background()

	// When: the same normalized query runs twice
	_, err := svc.Search(ctx, store.CollectionMovie, store.LanguageEN, "Star Wars")
	require.NoError(t, err)
	got, err := svc.Search(ctx, store.CollectionMovie, store.LanguageEN, "star   wars")
	require.NoError(t, err)

	// Then: the index is queried once
	assert.Equal(t, []uint64{1, 2}, got)
	assert.Len(t, s.calls, 1)
	stats := svc.CacheStats()
	assert.True(t, stats.Enabled)
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestService_Cache_MissesAfterRebuild(t *testing.T) {
	s := &countingSearcher{ids: []uint64{1}}
	svc := NewService(map[store.Collection]Searcher{store.CollectionMovie: s}, WithCacheSize(8))
	ctx := context.Background()

	_, err := svc.Search(ctx, store.CollectionMovie, store.LanguageEN, "alien")
	require.NoError(t, err)

	// A new generation makes the cached entry unreachable.
	s.mu.Lock()
	s.generation++
	s.ids = []uint64{2}
	s.mu.Unlock()

	got, err := svc.Search(ctx, store.CollectionMovie, store.LanguageEN, "alien")
	require.NoError(t, err)
	assert.Equal(t, []uint64{2}, got)
	assert.Len(t, s.calls, 2)
}

func TestService_Cache_SeparatesLanguages(t *testing.T) {
	s := &countingSearcher{ids: []uint64{1}}
	svc := NewService(map[store.Collection]Searcher{store.CollectionMovie: s}, WithCacheSize(8))
	ctx := context.Background()

	_, err := svc.Search(ctx, store.CollectionMovie, store.LanguageEN, "casa")
	require.NoError(t, err)
	_, err = svc.Search(ctx, store.CollectionMovie, store.LanguageES, "casa")
	require.NoError(t, err)

	assert.Len(t, s.calls, 2)
}

func TestService_Cache_ReturnsCopies(t *testing.T) {
	s := &countingSearcher{ids: []uint64{1, 2}}
	svc := NewService(map[store.Collection]Searcher{store.CollectionMovie: s}, WithCacheSize(8))
	ctx := context.Background()

	first, err := svc.Search(ctx, store.CollectionMovie, store.LanguageEN, "x")
	require.NoError(t, err)
	first[0] = 99

	second, err := svc.Search(ctx, store.CollectionMovie, store.LanguageEN, "x")
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, second)
}

func TestService_Cache_DisabledByDefault(t *testing.T) {
	s := &countingSearcher{}
	svc := NewService(map[store.Collection]Searcher{store.CollectionMovie: s})

	for i := 0; i < 2; i++ {
		_, err := svc.Search(context.Background(), store.CollectionMovie, store.LanguageEN, "x")
		require.NoError(t, err)
	}
	assert.Len(t, s.calls, 2)
	assert.False(t, svc.CacheStats().Enabled)
}

func TestService_Collections(t *testing.T) {
	svc := NewService(map[store.Collection]Searcher{
		store.CollectionGame:  &countingSearcher{},
		store.CollectionMovie: &countingSearcher{},
	})
	assert.Equal(t, []store.Collection{store.CollectionMovie, store.CollectionGame}, svc.Collections())
}

func TestService_Metrics(t *testing.T) {
	// Given: a cached service recording metrics
	s := &countingSearcher{ids: []uint64{1}}
	m := telemetry.NewQueryMetrics(telemetry.DefaultConfig())
	svc := NewService(map[store.Collection]Searcher{store.CollectionMovie: s}, WithCacheSize(8), WithMetrics(m))
	ctx := context.Background()

	// When: the same query runs twice and a failing one once
	for i := 0; i < 2; i++ {
		_, err := svc.Search(ctx, store.CollectionMovie, store.LanguageEN, "Alien")
		require.NoError(t, err)
	}
	_, err := svc.Search(ctx, store.CollectionMovie, store.LanguageEN, "  ")
	require.Error(t, err)

	// Then: only answered queries are counted, and the second was a cache hit
	snap := svc.QueryStats()
	require.NotNil(t, snap)
	assert.Equal(t, int64(2), snap.TotalQueries)
	assert.Equal(t, int64(1), snap.CacheHits)
	assert.Equal(t, map[string]int64{"MOVIE/EN": 2}, snap.ByCollection)
	assert.Equal(t, []telemetry.TermCount{{Term: "alien", Count: 2}}, snap.TopTerms)
}

func TestService_QueryStatsDisabled(t *testing.T) {
	svc := NewService(nil)
	assert.Nil(t, svc.QueryStats())
}
