package server

import (
	"time"

	"github.com/Aman-CERP/titlesearch/internal/async"
	serrors "github.com/Aman-CERP/titlesearch/internal/errors"
	"github.com/Aman-CERP/titlesearch/internal/search"
	"github.com/Aman-CERP/titlesearch/internal/store"
	"github.com/Aman-CERP/titlesearch/internal/telemetry"
)

// LanguageHeader carries the requested language on POST /run.
const LanguageHeader = "Language"

// DefaultLanguage is used when the Language header is absent.
const DefaultLanguage = "EN"

// RequestIDHeader is echoed on every response.
const RequestIDHeader = "X-Request-ID"

// SearchRequest is the body of POST /run.
type SearchRequest struct {
	Keyword string `json:"keyword"`
	// Type is the collection wire name (MOVIE, TV, RECIPE, GAME).
	Type string `json:"type"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error     serrors.Body `json:"error"`
	RequestID string       `json:"request_id,omitempty"`
}

// CollectionStatus reports the registry of one collection.
type CollectionStatus struct {
	Name      string                `json:"name"`
	Languages []store.LanguageStats `json:"languages"`
}

// Status is the body of GET /status.
type Status struct {
	Version     string                 `json:"version"`
	StartedAt   time.Time              `json:"started_at"`
	Indexer     async.ProgressSnapshot `json:"indexer"`
	Collections []CollectionStatus     `json:"collections"`
	Cache       search.CacheStats      `json:"cache"`
	Queries     *telemetry.Snapshot    `json:"queries,omitempty"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
	Ready  bool   `json:"ready"`
}
