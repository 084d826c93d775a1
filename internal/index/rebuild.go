// Package index keeps the title registries fresh: a RebuildTask reloads
// one collection from its retriever, and the Scheduler runs every task on
// a fixed interval for the lifetime of the process.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/Aman-CERP/titlesearch/internal/async"
	"github.com/Aman-CERP/titlesearch/internal/store"
)

// DefaultPageSize is the number of documents requested per fetch.
const DefaultPageSize = 1000

// Rebuilder replaces the index of one language with exactly docs.
type Rebuilder interface {
	Rebuild(ctx context.Context, lang store.Language, docs []store.Document) error
}

var _ Rebuilder = (*store.Registry)(nil)

// RebuildTask performs a full-corpus reload of one collection.
type RebuildTask struct {
	collection store.Collection
	retriever  store.Retriever
	target     Rebuilder
	pageSize   int

	progress *async.Progress
	logger   *slog.Logger
}

// NewRebuildTask creates a task that pages through retriever and rebuilds
// target one language at a time. A non-positive pageSize uses
// DefaultPageSize.
func NewRebuildTask(collection store.Collection, retriever store.Retriever, target Rebuilder, pageSize int) *RebuildTask {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &RebuildTask{
		collection: collection,
		retriever:  retriever,
		target:     target,
		pageSize:   pageSize,
		logger:     slog.Default(),
	}
}

// Collection returns the collection this task rebuilds.
func (t *RebuildTask) Collection() store.Collection {
	return t.collection
}

// Run rebuilds every language in order. A failure aborts only the
// language it occurred in; the returned error aggregates all of them.
func (t *RebuildTask) Run(ctx context.Context) error {
	var result *multierror.Error

	for _, lang := range store.AllLanguages() {
		if err := ctx.Err(); err != nil {
			result = multierror.Append(result, err)
			break
		}

		if err := t.runLanguage(ctx, lang); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s/%s: %w", t.collection, lang, err))
		}
	}

	return result.ErrorOrNil()
}

func (t *RebuildTask) runLanguage(ctx context.Context, lang store.Language) error {
	start := time.Now()
	if t.progress != nil {
		t.progress.BeginLanguage(t.collection.String(), lang.String())
	}

	docs, fetches, err := t.fetchAll(ctx, lang)
	if err == nil {
		err = t.target.Rebuild(ctx, lang, docs)
	}

	if err != nil {
		t.logger.Warn("index_rebuild_failed",
			slog.String("collection", t.collection.String()),
			slog.String("language", lang.String()),
			slog.Int("fetches", fetches),
			slog.String("error", err.Error()))
		if t.progress != nil {
			t.progress.RecordFailure(t.collection.String(), lang.String(), err)
		}
		return err
	}

	took := time.Since(start)
	t.logger.Info("index_rebuilt",
		slog.String("collection", t.collection.String()),
		slog.String("language", lang.String()),
		slog.Int("docs", len(docs)),
		slog.Int("fetches", fetches),
		slog.Duration("duration", took))
	if t.progress != nil {
		t.progress.RecordSuccess(t.collection.String(), lang.String(), len(docs), took)
	}
	return nil
}

// fetchAll pages through the retriever until it returns an empty page.
// It reports the number of fetch calls made.
func (t *RebuildTask) fetchAll(ctx context.Context, lang store.Language) ([]store.Document, int, error) {
	var (
		all     []store.Document
		offset  int
		fetches int
	)
	for {
		page, err := t.retriever.Fetch(ctx, lang, t.pageSize, offset)
		fetches++
		if err != nil {
			return nil, fetches, err
		}
		if len(page) == 0 {
			return all, fetches, nil
		}
		all = append(all, page...)
		offset += t.pageSize
	}
}
