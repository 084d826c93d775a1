// Package search turns free-text keywords into type-ahead lookups against
// the registry of the requested collection.
package search

import (
	"context"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"time"

	serrors "github.com/Aman-CERP/titlesearch/internal/errors"
	"github.com/Aman-CERP/titlesearch/internal/store"
	"github.com/Aman-CERP/titlesearch/internal/telemetry"
)

// Searcher answers queries for one collection. store.Registry implements it.
type Searcher interface {
	Search(ctx context.Context, lang store.Language, tokens []string) ([]uint64, error)
	Generation(lang store.Language) uint64
}

var _ Searcher = (*store.Registry)(nil)

// Tokenize normalizes raw keywords: lowercase, then split on whitespace.
func Tokenize(raw string) []string {
	return strings.Fields(strings.ToLower(raw))
}

// Service dispatches searches to a fixed set of collections.
type Service struct {
	searchers map[store.Collection]Searcher
	cache     *resultCache
	metrics   *telemetry.QueryMetrics
	logger    *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithCacheSize enables a result cache holding up to n queries.
// Zero or negative disables caching.
func WithCacheSize(n int) ServiceOption {
	return func(s *Service) {
		s.cache = newResultCache(n)
	}
}

// WithMetrics records every answered query into m.
func WithMetrics(m *telemetry.QueryMetrics) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLogger sets the logger for query logging.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a service over searchers. The table is copied and
// never changes afterwards.
func NewService(searchers map[store.Collection]Searcher, opts ...ServiceOption) *Service {
	table := make(map[store.Collection]Searcher, len(searchers))
	for c, s := range searchers {
		table[c] = s
	}
	s := &Service{
		searchers: table,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search tokenizes raw and returns the ids matching it in the given
// collection and language, at most store.MaxResults of them.
func (s *Service) Search(ctx context.Context, c store.Collection, lang store.Language, raw string) ([]uint64, error) {
	tokens := Tokenize(raw)
	if len(tokens) == 0 {
		return nil, serrors.EmptyQuery()
	}

	searcher, ok := s.searchers[c]
	if !ok {
		return nil, serrors.UnknownCollection(c.String())
	}

	// Read before querying so a concurrent rebuild can only make the
	// cached entry unreachable, never stale.
	start := time.Now()
	gen := searcher.Generation(lang)
	key := cacheKey{collection: c, language: lang, generation: gen, tokens: strings.Join(tokens, " ")}
	if ids, ok := s.cache.get(key); ok {
		s.record(c, lang, tokens, len(ids), time.Since(start), true)
		return slices.Clone(ids), nil
	}

	ids, err := searcher.Search(ctx, lang, tokens)
	if err != nil {
		s.logger.Warn("search_failed",
			slog.String("collection", c.String()),
			slog.String("language", lang.String()),
			slog.String("error", err.Error()))
		return nil, err
	}

	s.logger.Debug("search_complete",
		slog.String("collection", c.String()),
		slog.String("language", lang.String()),
		slog.Int("tokens", len(tokens)),
		slog.Int("results", len(ids)),
		slog.Duration("duration", time.Since(start)))

	s.cache.add(key, slices.Clone(ids))
	s.record(c, lang, tokens, len(ids), time.Since(start), false)
	return ids, nil
}

func (s *Service) record(c store.Collection, lang store.Language, tokens []string, results int, took time.Duration, cacheHit bool) {
	if s.metrics == nil {
		return
	}
	s.metrics.Record(telemetry.QueryEvent{
		Collection:  c.String(),
		Language:    lang.String(),
		Tokens:      tokens,
		ResultCount: results,
		Latency:     took,
		CacheHit:    cacheHit,
	})
}

// SearchNamed parses wire names before searching.
func (s *Service) SearchNamed(ctx context.Context, collection, language, raw string) ([]uint64, error) {
	c, err := store.ParseCollection(collection)
	if err != nil {
		return nil, err
	}
	lang, err := store.ParseLanguage(language)
	if err != nil {
		return nil, err
	}
	return s.Search(ctx, c, lang, raw)
}

// Collections returns the collections this service can search, in order.
func (s *Service) Collections() []store.Collection {
	out := make([]store.Collection, 0, len(s.searchers))
	for c := range s.searchers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// QueryStats reports collected query metrics, or nil when none are kept.
func (s *Service) QueryStats() *telemetry.Snapshot {
	if s.metrics == nil {
		return nil
	}
	snap := s.metrics.Snapshot()
	return &snap
}

// CacheStats reports result cache usage.
func (s *Service) CacheStats() CacheStats {
	return s.cache.stats()
}
