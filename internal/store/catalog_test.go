package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serrors "github.com/Aman-CERP/titlesearch/internal/errors"
)

func newTestCatalog(t *testing.T, driver string) *sql.DB {
	t.Helper()
	ctx := context.Background()
	db, err := OpenCatalog(ctx, CatalogConfig{
		Driver: driver,
		Path:   filepath.Join(t.TempDir(), "catalog.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, InitCatalogSchema(ctx, db))
	return db
}

func TestOpenCatalog_UnknownDriver(t *testing.T) {
	_, err := OpenCatalog(context.Background(), CatalogConfig{Driver: "postgres"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown database driver")
}

func TestInitCatalogSchema_Idempotent(t *testing.T) {
	db := newTestCatalog(t, DriverSQLite)
	require.NoError(t, InitCatalogSchema(context.Background(), db))
}

func TestSQLRetriever_PagesByLanguage(t *testing.T) {
	for _, driver := range []string{DriverSQLite, DriverSQLite3} {
		t.Run(driver, func(t *testing.T) {
			// Given: five EN movies and one ES movie
			db := newTestCatalog(t, driver)
			ctx := context.Background()
			for id := uint64(1); id <= 5; id++ {
				require.NoError(t, InsertTitle(ctx, db, CollectionMovie, LanguageEN, id, "Movie Title"))
			}
			require.NoError(t, InsertTitle(ctx, db, CollectionMovie, LanguageES, 9, "Película"))

			r, err := NewSQLRetriever(db, CollectionMovie)
			require.NoError(t, err)

			// When: paging EN with a page size of 2
			var sizes []int
			var all []Document
			for offset := 0; ; offset += 2 {
				page, err := r.Fetch(ctx, LanguageEN, 2, offset)
				require.NoError(t, err)
				sizes = append(sizes, len(page))
				if len(page) == 0 {
					break
				}
				all = append(all, page...)
			}

			// Then: pages are disjoint, ordered, and lowercased
			assert.Equal(t, []int{2, 2, 1, 0}, sizes)
			require.Len(t, all, 5)
			for i, doc := range all {
				assert.Equal(t, uint64(i+1), doc.ID)
				assert.Equal(t, "movie title", doc.Title)
			}
		})
	}
}

func TestSQLRetriever_GameIgnoresLanguage(t *testing.T) {
	db := newTestCatalog(t, DriverSQLite)
	ctx := context.Background()
	require.NoError(t, InsertTitle(ctx, db, CollectionGame, LanguageES, 1, "Zelda"))

	r, err := NewSQLRetriever(db, CollectionGame)
	require.NoError(t, err)

	for _, lang := range AllLanguages() {
		docs, err := r.Fetch(ctx, lang, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, []Document{{ID: 1, Title: "zelda"}}, docs)
	}
}

func TestInsertTitle_Upserts(t *testing.T) {
	db := newTestCatalog(t, DriverSQLite)
	ctx := context.Background()
	require.NoError(t, InsertTitle(ctx, db, CollectionTV, LanguageEN, 4, "Old"))
	require.NoError(t, InsertTitle(ctx, db, CollectionTV, LanguageEN, 4, "New"))

	r, err := NewSQLRetriever(db, CollectionTV)
	require.NoError(t, err)
	docs, err := r.Fetch(ctx, LanguageEN, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, []Document{{ID: 4, Title: "new"}}, docs)
}

func TestSQLRetriever_FailureIsTyped(t *testing.T) {
	// Given: a catalog without tables
	db, err := OpenCatalog(context.Background(), CatalogConfig{})
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	r, err := NewSQLRetriever(db, CollectionRecipe)
	require.NoError(t, err)

	// When: fetching
	_, err = r.Fetch(context.Background(), LanguageEN, 10, 0)

	// Then: the error is a retriever failure
	require.Error(t, err)
	assert.True(t, errors.Is(err, serrors.ErrRetrieverFailure))
}

func TestNewSQLRetriever_UnknownCollection(t *testing.T) {
	_, err := NewSQLRetriever(nil, Collection(42))
	assert.True(t, errors.Is(err, serrors.ErrUnknownCollection))
}

func TestNewCatalogRetrievers_OnePerCollection(t *testing.T) {
	db := newTestCatalog(t, DriverSQLite)
	rs := NewCatalogRetrievers(db)
	assert.Len(t, rs, len(AllCollections()))
}

func TestCountTitles(t *testing.T) {
	ctx := context.Background()
	db := newTestCatalog(t, DriverSQLite)
	require.NoError(t, InsertTitle(ctx, db, CollectionMovie, LanguageEN, 1, "Alien"))
	require.NoError(t, InsertTitle(ctx, db, CollectionMovie, LanguageES, 1, "Alien"))

	n, err := CountTitles(ctx, db, CollectionMovie)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = CountTitles(ctx, db, CollectionTV)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCountTitles_MissingTable(t *testing.T) {
	// Given: a catalog without schema
	db, err := OpenCatalog(context.Background(), CatalogConfig{Path: filepath.Join(t.TempDir(), "empty.db")})
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	// When/Then: counting reports a retriever failure
	_, err = CountTitles(context.Background(), db, CollectionGame)
	require.Error(t, err)
	assert.Equal(t, serrors.ErrCodeRetrieverFailed, serrors.GetCode(err))
}

func TestLookupTitles(t *testing.T) {
	ctx := context.Background()
	db := newTestCatalog(t, DriverSQLite)
	require.NoError(t, InsertTitle(ctx, db, CollectionTV, LanguageEN, 7, "The Wire"))
	require.NoError(t, InsertTitle(ctx, db, CollectionTV, LanguageES, 7, "Bajo escucha"))
	require.NoError(t, InsertTitle(ctx, db, CollectionTV, LanguageEN, 8, "Lost"))
	require.NoError(t, InsertTitle(ctx, db, CollectionGame, LanguageEN, 3, "Tetris"))

	// Language-scoped collections resolve in the requested language.
	titles, err := LookupTitles(ctx, db, CollectionTV, LanguageES, []uint64{7, 8, 99})
	require.NoError(t, err)
	assert.Equal(t, map[uint64]string{7: "Bajo escucha"}, titles)

	// Games ignore the language.
	titles, err = LookupTitles(ctx, db, CollectionGame, LanguageES, []uint64{3})
	require.NoError(t, err)
	assert.Equal(t, "Tetris", titles[3])

	titles, err = LookupTitles(ctx, db, CollectionTV, LanguageEN, nil)
	require.NoError(t, err)
	assert.Empty(t, titles)
}
