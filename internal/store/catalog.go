package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3" // cgo SQLite driver, registered as "sqlite3"
	_ "modernc.org/sqlite"          // Pure Go SQLite driver (no CGO), registered as "sqlite"

	serrors "github.com/Aman-CERP/titlesearch/internal/errors"
)

// Supported database/sql driver names for the catalog.
const (
	DriverSQLite  = "sqlite"
	DriverSQLite3 = "sqlite3"
)

// CatalogConfig describes how to open the relational title catalog.
type CatalogConfig struct {
	Driver        string
	Path          string
	MaxOpenConns  int
	BusyTimeoutMS int
}

// catalogTable describes where one collection's titles live.
type catalogTable struct {
	table          string
	idColumn       string
	titleColumn    string
	languageScoped bool
}

// Games carry no language; every language index receives the same corpus.
var catalogTables = map[Collection]catalogTable{
	CollectionMovie:  {table: "movie_details", idColumn: "movie_id", titleColumn: "title", languageScoped: true},
	CollectionTV:     {table: "tv_details", idColumn: "tv_id", titleColumn: "title", languageScoped: true},
	CollectionRecipe: {table: "recipe_details", idColumn: "recipe_id", titleColumn: "title", languageScoped: true},
	CollectionGame:   {table: "game", idColumn: "game_id", titleColumn: "name", languageScoped: false},
}

// OpenCatalog opens the SQLite catalog and applies connection pragmas.
// An empty path opens a private in-memory database.
func OpenCatalog(ctx context.Context, cfg CatalogConfig) (*sql.DB, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverSQLite
	}
	if driver != DriverSQLite && driver != DriverSQLite3 {
		return nil, fmt.Errorf("unknown database driver: %s (valid options: %s, %s)", driver, DriverSQLite, DriverSQLite3)
	}

	dsn := ":memory:"
	if cfg.Path != "" {
		dir := filepath.Dir(cfg.Path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		dsn = cfg.Path
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 || cfg.Path == "" {
		// An in-memory database exists per connection.
		maxOpen = 1
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen)
	db.SetConnMaxLifetime(0)

	busy := cfg.BusyTimeoutMS
	if busy <= 0 {
		busy = 5000
	}
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", busy),
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	return db, nil
}

// InitCatalogSchema creates the catalog tables if they do not exist.
func InitCatalogSchema(ctx context.Context, db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS movie_details (
		movie_id INTEGER NOT NULL,
		language TEXT NOT NULL,
		title    TEXT NOT NULL,
		PRIMARY KEY (movie_id, language)
	);

	CREATE TABLE IF NOT EXISTS tv_details (
		tv_id    INTEGER NOT NULL,
		language TEXT NOT NULL,
		title    TEXT NOT NULL,
		PRIMARY KEY (tv_id, language)
	);

	CREATE TABLE IF NOT EXISTS recipe_details (
		recipe_id INTEGER NOT NULL,
		language  TEXT NOT NULL,
		title     TEXT NOT NULL,
		PRIMARY KEY (recipe_id, language)
	);

	CREATE TABLE IF NOT EXISTS game (
		game_id INTEGER PRIMARY KEY,
		name    TEXT NOT NULL
	);
	`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// InsertTitle upserts one title into the catalog. lang is ignored for
// collections that are not language scoped.
func InsertTitle(ctx context.Context, db *sql.DB, c Collection, lang Language, id uint64, title string) error {
	t, ok := catalogTables[c]
	if !ok {
		return serrors.UnknownCollection(c.String())
	}

	var err error
	if t.languageScoped {
		_, err = db.ExecContext(ctx,
			fmt.Sprintf("INSERT OR REPLACE INTO %s (%s, language, %s) VALUES (?, ?, ?)", t.table, t.idColumn, t.titleColumn),
			int64(id), lang.String(), title)
	} else {
		_, err = db.ExecContext(ctx,
			fmt.Sprintf("INSERT OR REPLACE INTO %s (%s, %s) VALUES (?, ?)", t.table, t.idColumn, t.titleColumn),
			int64(id), title)
	}
	if err != nil {
		return fmt.Errorf("failed to insert %s title %d: %w", c, id, err)
	}
	return nil
}

// SQLRetriever pages titles of one collection out of the catalog.
type SQLRetriever struct {
	db         *sql.DB
	collection Collection
	table      catalogTable
	query      string
}

var _ Retriever = (*SQLRetriever)(nil)

// NewSQLRetriever creates a retriever for collection c.
func NewSQLRetriever(db *sql.DB, c Collection) (*SQLRetriever, error) {
	t, ok := catalogTables[c]
	if !ok {
		return nil, serrors.UnknownCollection(c.String())
	}

	// ORDER BY keeps LIMIT/OFFSET pages disjoint across calls.
	q := fmt.Sprintf("SELECT %s, %s FROM %s", t.idColumn, t.titleColumn, t.table)
	if t.languageScoped {
		q += " WHERE language = ?"
	}
	q += fmt.Sprintf(" ORDER BY %s LIMIT ? OFFSET ?", t.idColumn)

	return &SQLRetriever{db: db, collection: c, table: t, query: q}, nil
}

// Fetch returns up to limit documents starting at offset.
func (r *SQLRetriever) Fetch(ctx context.Context, lang Language, limit, offset int) ([]Document, error) {
	args := make([]any, 0, 3)
	if r.table.languageScoped {
		args = append(args, lang.String())
	}
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, r.query, args...)
	if err != nil {
		return nil, serrors.RetrieverFailure(fmt.Sprintf("failed to query %s", r.table.table), err)
	}
	defer func() { _ = rows.Close() }()

	docs := make([]Document, 0, max(limit, 0))
	for rows.Next() {
		var (
			id    int64
			title string
		)
		if err := rows.Scan(&id, &title); err != nil {
			return nil, serrors.RetrieverFailure(fmt.Sprintf("failed to scan %s row", r.table.table), err)
		}
		if id < 0 {
			return nil, serrors.RetrieverFailure(fmt.Sprintf("negative id %d in %s", id, r.table.table), nil)
		}
		docs = append(docs, NewDocument(uint64(id), title))
	}
	if err := rows.Err(); err != nil {
		return nil, serrors.RetrieverFailure(fmt.Sprintf("failed to read %s rows", r.table.table), err)
	}
	return docs, nil
}

// NewCatalogRetrievers creates one retriever per collection.
func NewCatalogRetrievers(db *sql.DB) map[Collection]*SQLRetriever {
	out := make(map[Collection]*SQLRetriever, len(catalogTables))
	for _, c := range AllCollections() {
		r, err := NewSQLRetriever(db, c)
		if err != nil {
			continue
		}
		out[c] = r
	}
	return out
}

// CountTitles returns the number of catalog rows for collection c across
// all languages. It fails when the collection's table is missing.
func CountTitles(ctx context.Context, db *sql.DB, c Collection) (int64, error) {
	t, ok := catalogTables[c]
	if !ok {
		return 0, serrors.UnknownCollection(c.String())
	}
	var n int64
	if err := db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", t.table)).Scan(&n); err != nil {
		return 0, serrors.RetrieverFailure(fmt.Sprintf("failed to count %s", t.table), err)
	}
	return n, nil
}

// LookupTitles returns the catalog titles for ids in collection c and
// language lang. Ids without a row are absent from the map.
func LookupTitles(ctx context.Context, db *sql.DB, c Collection, lang Language, ids []uint64) (map[uint64]string, error) {
	t, ok := catalogTables[c]
	if !ok {
		return nil, serrors.UnknownCollection(c.String())
	}
	out := make(map[uint64]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	args := make([]any, 0, len(ids)+1)
	for _, id := range ids {
		args = append(args, int64(id))
	}
	q := fmt.Sprintf("SELECT %s, %s FROM %s WHERE %s IN (?%s)",
		t.idColumn, t.titleColumn, t.table, t.idColumn, strings.Repeat(", ?", len(ids)-1))
	if t.languageScoped {
		q += " AND language = ?"
		args = append(args, lang.String())
	}

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, serrors.RetrieverFailure(fmt.Sprintf("failed to look up %s titles", t.table), err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			id    int64
			title string
		)
		if err := rows.Scan(&id, &title); err != nil {
			return nil, serrors.RetrieverFailure(fmt.Sprintf("failed to scan %s row", t.table), err)
		}
		out[uint64(id)] = title
	}
	if err := rows.Err(); err != nil {
		return nil, serrors.RetrieverFailure(fmt.Sprintf("failed to read %s rows", t.table), err)
	}
	return out, nil
}
