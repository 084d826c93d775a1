package mcp

import (
	"time"

	"github.com/Aman-CERP/titlesearch/internal/async"
	"github.com/Aman-CERP/titlesearch/internal/store"
)

// SearchTitlesInput defines the input schema for the search_titles tool.
type SearchTitlesInput struct {
	Collection string `json:"collection,omitempty" jsonschema:"collection to search: MOVIE, TV, RECIPE or GAME"`
	Language   string `json:"language,omitempty" jsonschema:"title language: EN or ES, default EN"`
	Keywords   string `json:"keywords,omitempty" jsonschema:"space separated keywords; the last one matches as a prefix"`
}

// SearchTitlesOutput defines the output schema for the search_titles tool.
type SearchTitlesOutput struct {
	Collection string   `json:"collection"`
	Language   string   `json:"language"`
	IDs        []uint64 `json:"ids" jsonschema:"ids of matching titles, best match first, at most 75"`
}

// IndexStatusInput defines the input schema for the index_status tool (no parameters).
type IndexStatusInput struct{}

// IndexStatusOutput defines the output schema for the index_status tool.
type IndexStatusOutput struct {
	Ready       bool             `json:"ready"`
	Indexer     IndexerInfo      `json:"indexer"`
	Collections []CollectionInfo `json:"collections"`
}

// IndexerInfo summarizes the rebuild loop. Times are RFC3339, empty until set.
type IndexerInfo struct {
	Status        string        `json:"status" jsonschema:"pending, indexing, ready or degraded"`
	Passes        int           `json:"passes"`
	Current       string        `json:"current,omitempty"`
	LastPassStart string        `json:"last_pass_start,omitempty"`
	LastPassEnd   string        `json:"last_pass_end,omitempty"`
	Failures      int           `json:"failures"`
	Outcomes      []OutcomeInfo `json:"outcomes"`
}

// OutcomeInfo is the latest rebuild result of one collection and language.
type OutcomeInfo struct {
	Collection string `json:"collection"`
	Language   string `json:"language"`
	Documents  int    `json:"documents"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

func toIndexerInfo(snap async.ProgressSnapshot) IndexerInfo {
	info := IndexerInfo{
		Status:        snap.Status,
		Passes:        snap.Passes,
		Current:       snap.Current,
		LastPassStart: formatTime(snap.LastPassStart),
		LastPassEnd:   formatTime(snap.LastPassEnd),
		Failures:      snap.Failures,
		Outcomes:      make([]OutcomeInfo, 0, len(snap.Outcomes)),
	}
	for _, o := range snap.Outcomes {
		info.Outcomes = append(info.Outcomes, OutcomeInfo{
			Collection: o.Collection,
			Language:   o.Language,
			Documents:  o.Documents,
			DurationMS: o.DurationMS,
			Error:      o.ErrorMessage,
		})
	}
	return info
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

// CollectionInfo reports the per-language state of one collection.
type CollectionInfo struct {
	Name      string                `json:"name"`
	Languages []store.LanguageStats `json:"languages"`
}
