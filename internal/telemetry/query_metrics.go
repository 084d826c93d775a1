// Package telemetry keeps in-process query statistics for the search
// service. Nothing is persisted or reported externally.
package telemetry

import (
	"slices"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LatencyBucket represents a latency histogram bucket.
type LatencyBucket string

// Type-ahead queries are expected well under a millisecond, so the buckets
// are finer than a general search service would use.
const (
	BucketUnder1ms   LatencyBucket = "lt_1ms"
	BucketUnder5ms   LatencyBucket = "lt_5ms"
	BucketUnder25ms  LatencyBucket = "lt_25ms"
	BucketUnder100ms LatencyBucket = "lt_100ms"
	BucketSlow       LatencyBucket = "ge_100ms"
)

// LatencyToBucket converts a duration to its histogram bucket.
func LatencyToBucket(d time.Duration) LatencyBucket {
	switch {
	case d < time.Millisecond:
		return BucketUnder1ms
	case d < 5*time.Millisecond:
		return BucketUnder5ms
	case d < 25*time.Millisecond:
		return BucketUnder25ms
	case d < 100*time.Millisecond:
		return BucketUnder100ms
	default:
		return BucketSlow
	}
}

// QueryEvent is one answered search.
type QueryEvent struct {
	Collection  string
	Language    string
	Tokens      []string
	ResultCount int
	Latency     time.Duration
	CacheHit    bool
}

// CircularBuffer is a fixed-capacity FIFO buffer.
type CircularBuffer[T any] struct {
	mu       sync.RWMutex
	items    []T
	head     int // next write position
	size     int
	capacity int
}

// NewCircularBuffer creates a buffer holding at most capacity items.
func NewCircularBuffer[T any](capacity int) *CircularBuffer[T] {
	if capacity <= 0 {
		capacity = 100
	}
	return &CircularBuffer[T]{
		items:    make([]T, capacity),
		capacity: capacity,
	}
}

// Add appends an item, evicting the oldest when full.
func (b *CircularBuffer[T]) Add(item T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items[b.head] = item
	b.head = (b.head + 1) % b.capacity
	if b.size < b.capacity {
		b.size++
	}
}

// Items returns the buffered items, oldest first.
func (b *CircularBuffer[T]) Items() []T {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := make([]T, b.size)
	if b.size < b.capacity {
		copy(result, b.items[:b.size])
	} else {
		n := copy(result, b.items[b.head:])
		copy(result[n:], b.items[:b.head])
	}
	return result
}

// Size returns the number of buffered items.
func (b *CircularBuffer[T]) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// TermCount is a query term and how often it was searched.
type TermCount struct {
	Term  string `json:"term"`
	Count int64  `json:"count"`
}

// Snapshot is an immutable copy of the collected metrics.
type Snapshot struct {
	TotalQueries        int64                   `json:"total_queries"`
	CacheHits           int64                   `json:"cache_hits"`
	ZeroResultCount     int64                   `json:"zero_result_count"`
	ByCollection        map[string]int64        `json:"by_collection"`
	LatencyDistribution map[LatencyBucket]int64 `json:"latency_distribution"`
	TopTerms            []TermCount             `json:"top_terms"`
	ZeroResultQueries   []string                `json:"zero_result_queries"`
	Since               time.Time               `json:"since"`
}

// ZeroResultPercentage returns the share of queries that matched nothing.
func (s Snapshot) ZeroResultPercentage() float64 {
	if s.TotalQueries == 0 {
		return 0
	}
	return float64(s.ZeroResultCount) / float64(s.TotalQueries) * 100
}

// Config sizes the bounded structures of QueryMetrics.
type Config struct {
	TopTermsCapacity    int // distinct terms tracked (default: 100)
	ZeroResultsCapacity int // recent zero-result queries kept (default: 100)
}

// DefaultConfig returns the default capacities.
func DefaultConfig() Config {
	return Config{TopTermsCapacity: 100, ZeroResultsCapacity: 100}
}

// QueryMetrics aggregates QueryEvents. Safe for concurrent use.
type QueryMetrics struct {
	mu sync.Mutex

	total        int64
	cacheHits    int64
	zeroResults  int64
	byCollection map[string]int64
	latencies    map[LatencyBucket]int64
	topTerms     *lru.Cache[string, int64]
	recentZero   *CircularBuffer[string]
	startTime    time.Time
}

// NewQueryMetrics creates a collector. Non-positive capacities take defaults.
func NewQueryMetrics(cfg Config) *QueryMetrics {
	def := DefaultConfig()
	if cfg.TopTermsCapacity <= 0 {
		cfg.TopTermsCapacity = def.TopTermsCapacity
	}
	if cfg.ZeroResultsCapacity <= 0 {
		cfg.ZeroResultsCapacity = def.ZeroResultsCapacity
	}

	// lru.New only fails for a non-positive size.
	topTerms, _ := lru.New[string, int64](cfg.TopTermsCapacity)

	return &QueryMetrics{
		byCollection: make(map[string]int64),
		latencies:    make(map[LatencyBucket]int64),
		topTerms:     topTerms,
		recentZero:   NewCircularBuffer[string](cfg.ZeroResultsCapacity),
		startTime:    time.Now(),
	}
}

// Record folds one event into the aggregates.
func (m *QueryMetrics) Record(e QueryEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.total++
	m.byCollection[e.Collection+"/"+e.Language]++
	m.latencies[LatencyToBucket(e.Latency)]++
	if e.CacheHit {
		m.cacheHits++
	}
	for _, term := range e.Tokens {
		count, _ := m.topTerms.Get(term)
		m.topTerms.Add(term, count+1)
	}
	if e.ResultCount == 0 {
		m.zeroResults++
		m.recentZero.Add(e.Collection + "/" + e.Language + ": " + strings.Join(e.Tokens, " "))
	}
}

// Snapshot returns a copy of the current aggregates. Top terms are ordered
// by count, then alphabetically.
func (m *QueryMetrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	byCollection := make(map[string]int64, len(m.byCollection))
	for k, v := range m.byCollection {
		byCollection[k] = v
	}
	latencies := make(map[LatencyBucket]int64, len(m.latencies))
	for k, v := range m.latencies {
		latencies[k] = v
	}

	terms := make([]TermCount, 0, m.topTerms.Len())
	for _, key := range m.topTerms.Keys() {
		if count, ok := m.topTerms.Peek(key); ok {
			terms = append(terms, TermCount{Term: key, Count: count})
		}
	}
	slices.SortFunc(terms, func(a, b TermCount) int {
		if a.Count != b.Count {
			if a.Count > b.Count {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Term, b.Term)
	})

	return Snapshot{
		TotalQueries:        m.total,
		CacheHits:           m.cacheHits,
		ZeroResultCount:     m.zeroResults,
		ByCollection:        byCollection,
		LatencyDistribution: latencies,
		TopTerms:            terms,
		ZeroResultQueries:   m.recentZero.Items(),
		Since:               m.startTime,
	}
}
