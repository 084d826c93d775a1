package index

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/titlesearch/internal/async"
	serrors "github.com/Aman-CERP/titlesearch/internal/errors"
	"github.com/Aman-CERP/titlesearch/internal/store"
)

func TestRebuildTask_PagesUntilEmpty(t *testing.T) {
	// Given: EN pages of sizes 2, 2, 1 then empty, with a page size of 2
	r := &fakeRetriever{pages: map[store.Language][][]store.Document{
		store.LanguageEN: {docs(1, 2), docs(3, 4), docs(5)},
	}}
	target := &fakeRebuilder{}
	task := NewRebuildTask(store.CollectionMovie, r, target, 2)

	// When: running the task
	err := task.Run(context.Background())

	// Then: exactly four fetches with advancing offsets, five documents rebuilt
	require.NoError(t, err)
	assert.Equal(t, 4, r.callCount(store.LanguageEN))
	var offsets []int
	for _, c := range r.calls {
		if c.lang == store.LanguageEN {
			assert.Equal(t, 2, c.limit)
			offsets = append(offsets, c.offset)
		}
	}
	assert.Equal(t, []int{0, 2, 4, 6}, offsets)
	assert.Len(t, target.docs[store.LanguageEN], 5)
}

func TestRebuildTask_EmptyCorpusRebuildsEmpty(t *testing.T) {
	r := &fakeRetriever{}
	target := &fakeRebuilder{}
	task := NewRebuildTask(store.CollectionGame, r, target, 10)

	require.NoError(t, task.Run(context.Background()))

	assert.Equal(t, 1, r.callCount(store.LanguageES))
	assert.Contains(t, target.docs, store.LanguageES)
	assert.Empty(t, target.docs[store.LanguageES])
}

func TestRebuildTask_LanguagesInOrder(t *testing.T) {
	r := &fakeRetriever{}
	task := NewRebuildTask(store.CollectionTV, r, &fakeRebuilder{}, 5)

	require.NoError(t, task.Run(context.Background()))

	require.Len(t, r.calls, 2)
	assert.Equal(t, store.LanguageES, r.calls[0].lang)
	assert.Equal(t, store.LanguageEN, r.calls[1].lang)
}

func TestRebuildTask_RetrieverFailureIsContained(t *testing.T) {
	// Given: ES fetches fail, EN succeeds
	r := &fakeRetriever{
		pages:   map[store.Language][][]store.Document{store.LanguageEN: {docs(1)}},
		failFor: map[store.Language]bool{store.LanguageES: true},
	}
	target := &fakeRebuilder{}
	progress := async.NewProgress()
	task := NewRebuildTask(store.CollectionRecipe, r, target, 10)
	task.progress = progress

	// When: running the task
	err := task.Run(context.Background())

	// Then: the ES failure is reported, ES is not rebuilt, EN is
	require.Error(t, err)
	assert.True(t, errors.Is(err, serrors.ErrRetrieverFailure))
	assert.Contains(t, err.Error(), "RECIPE/ES")
	assert.NotContains(t, target.docs, store.LanguageES)
	assert.Len(t, target.docs[store.LanguageEN], 1)

	snap := progress.Snapshot()
	require.Len(t, snap.Outcomes, 2)
	assert.Equal(t, "EN", snap.Outcomes[0].Language)
	assert.Empty(t, snap.Outcomes[0].ErrorMessage)
	assert.NotEmpty(t, snap.Outcomes[1].ErrorMessage)
}

func TestRebuildTask_BuildFailureIsContained(t *testing.T) {
	r := &fakeRetriever{pages: map[store.Language][][]store.Document{
		store.LanguageES: {docs(1)},
		store.LanguageEN: {docs(2)},
	}}
	target := &fakeRebuilder{failFor: map[store.Language]bool{store.LanguageES: true}}
	task := NewRebuildTask(store.CollectionMovie, r, target, 10)

	err := task.Run(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, serrors.ErrIndexBuildFailure))
	assert.Equal(t, []store.Document{store.NewDocument(2, "title 2")}, target.docs[store.LanguageEN])
}

func TestRebuildTask_CancelledContextStops(t *testing.T) {
	r := &fakeRetriever{}
	target := &fakeRebuilder{}
	task := NewRebuildTask(store.CollectionMovie, r, target, 10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := task.Run(ctx)

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, r.calls)
}

func TestNewRebuildTask_DefaultPageSize(t *testing.T) {
	task := NewRebuildTask(store.CollectionMovie, &fakeRetriever{}, &fakeRebuilder{}, 0)
	assert.Equal(t, DefaultPageSize, task.pageSize)
	assert.Equal(t, store.CollectionMovie, task.Collection())
}
