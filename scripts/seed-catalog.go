//go:build ignore

// Seed-catalog fills a SQLite catalog with synthetic titles for load tests.
// Usage: go run scripts/seed-catalog.go -db titlesearch.db -titles 50000
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/Aman-CERP/titlesearch/internal/store"
)

var (
	dbPath    = flag.String("db", "titlesearch.db", "Catalog path")
	driver    = flag.String("driver", store.DriverSQLite, "Database driver: sqlite or sqlite3")
	numTitles = flag.Int("titles", 10000, "Titles per collection and language")
	seed      = flag.Int64("seed", 42, "Random seed for reproducibility")
)

var words = map[store.Language][]string{
	store.LanguageEN: {
		"the", "queen", "king", "last", "night", "dark", "river", "house", "game", "of",
		"shadows", "city", "lost", "summer", "winter", "road", "star", "wars", "love", "story",
		"blue", "red", "chicken", "soup", "pie", "apple", "space", "quest", "island", "legend",
	},
	store.LanguageES: {
		"el", "la", "reina", "rey", "noche", "oscura", "río", "casa", "juego", "de",
		"sombras", "ciudad", "perdida", "verano", "invierno", "camino", "estrella", "amor", "historia", "azul",
		"rojo", "pollo", "sopa", "tarta", "manzana", "espacio", "búsqueda", "isla", "leyenda", "corazón",
	},
}

func main() {
	flag.Parse()

	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	db, err := store.OpenCatalog(ctx, store.CatalogConfig{Driver: *driver, Path: *dbPath, MaxOpenConns: 1})
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := store.InitCatalogSchema(ctx, db); err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(*seed))
	start := time.Now()
	total := 0

	for _, c := range store.AllCollections() {
		for _, lang := range store.AllLanguages() {
			for i := 1; i <= *numTitles; i++ {
				id := uint64(i)
				if err := store.InsertTitle(ctx, db, c, lang, id, title(rng, lang)); err != nil {
					return fmt.Errorf("insert %s/%s %d: %w", c, lang, id, err)
				}
				total++
			}
			fmt.Printf("Seeded %s/%s\n", c, lang)
		}
	}

	fmt.Printf("Wrote %d titles to %s in %v\n", total, *dbPath, time.Since(start).Round(time.Millisecond))
	return nil
}

func title(rng *rand.Rand, lang store.Language) string {
	vocab := words[lang]
	n := 1 + rng.Intn(5)
	parts := make([]string, n)
	for i := range parts {
		parts[i] = vocab[rng.Intn(len(vocab))]
	}
	if rng.Intn(10) == 0 {
		parts[0] = strings.ToUpper(parts[0][:1]) + parts[0][1:]
	}
	return strings.Join(parts, " ")
}
