// Package async tracks the progress of background index rebuilds so that
// transports can report it.
package async

import (
	"sort"
	"sync"
	"time"
)

// RebuildStatus represents the overall state of the rebuild loop.
type RebuildStatus string

const (
	// StatusPending indicates no rebuild pass has completed yet.
	StatusPending RebuildStatus = "pending"
	// StatusIndexing indicates a pass is in progress.
	StatusIndexing RebuildStatus = "indexing"
	// StatusReady indicates the last pass rebuilt every language.
	StatusReady RebuildStatus = "ready"
	// StatusDegraded indicates the last pass had failures; affected
	// languages keep serving their previous index.
	StatusDegraded RebuildStatus = "degraded"
)

// LanguageOutcome is the result of the latest rebuild of one
// (collection, language) pair.
type LanguageOutcome struct {
	Collection   string    `json:"collection"`
	Language     string    `json:"language"`
	Documents    int       `json:"documents"`
	DurationMS   int64     `json:"duration_ms"`
	UpdatedAt    time.Time `json:"updated_at"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// ProgressSnapshot is an immutable snapshot of rebuild progress.
type ProgressSnapshot struct {
	Status         string            `json:"status"`
	Passes         int               `json:"passes"`
	Current        string            `json:"current,omitempty"`
	LastPassStart  time.Time         `json:"last_pass_start,omitempty"`
	LastPassEnd    time.Time         `json:"last_pass_end,omitempty"`
	ElapsedSeconds int               `json:"elapsed_seconds"`
	Failures       int               `json:"failures"`
	Outcomes       []LanguageOutcome `json:"outcomes"`
}

// Progress provides thread-safe tracking of rebuild passes.
type Progress struct {
	mu sync.RWMutex

	status    RebuildStatus
	passes    int
	current   string
	passStart time.Time
	passEnd   time.Time
	failures  int
	startTime time.Time
	outcomes  map[string]LanguageOutcome
}

// NewProgress creates a tracker in the pending state.
func NewProgress() *Progress {
	return &Progress{
		status:    StatusPending,
		startTime: time.Now(),
		outcomes:  make(map[string]LanguageOutcome),
	}
}

// BeginPass marks the start of a rebuild pass.
func (p *Progress) BeginPass() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status = StatusIndexing
	p.passStart = time.Now()
	p.failures = 0
}

// BeginLanguage records which pair is being rebuilt.
func (p *Progress) BeginLanguage(collection, language string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = collection + "/" + language
}

// RecordSuccess stores a successful rebuild of one pair.
func (p *Progress) RecordSuccess(collection, language string, docs int, took time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.outcomes[collection+"/"+language] = LanguageOutcome{
		Collection: collection,
		Language:   language,
		Documents:  docs,
		DurationMS: took.Milliseconds(),
		UpdatedAt:  time.Now(),
	}
}

// RecordFailure stores a failed rebuild of one pair. The document count of
// the previous success is kept since that index is still serving.
func (p *Progress) RecordFailure(collection, language string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := collection + "/" + language
	o := p.outcomes[key]
	o.Collection = collection
	o.Language = language
	o.UpdatedAt = time.Now()
	o.ErrorMessage = err.Error()
	p.outcomes[key] = o
	p.failures++
}

// EndPass marks the end of a rebuild pass.
func (p *Progress) EndPass() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.passes++
	p.passEnd = time.Now()
	p.current = ""
	if p.failures > 0 {
		p.status = StatusDegraded
	} else {
		p.status = StatusReady
	}
}

// IsReady returns true once at least one pass has completed.
func (p *Progress) IsReady() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.passes > 0
}

// Snapshot returns an immutable copy of the current progress state.
func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	outcomes := make([]LanguageOutcome, 0, len(p.outcomes))
	for _, o := range p.outcomes {
		outcomes = append(outcomes, o)
	}
	sort.Slice(outcomes, func(i, j int) bool {
		if outcomes[i].Collection != outcomes[j].Collection {
			return outcomes[i].Collection < outcomes[j].Collection
		}
		return outcomes[i].Language < outcomes[j].Language
	})

	return ProgressSnapshot{
		Status:         string(p.status),
		Passes:         p.passes,
		Current:        p.current,
		LastPassStart:  p.passStart,
		LastPassEnd:    p.passEnd,
		ElapsedSeconds: int(time.Since(p.startTime).Seconds()),
		Failures:       p.failures,
		Outcomes:       outcomes,
	}
}
