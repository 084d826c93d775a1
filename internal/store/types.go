// Package store holds the title documents, the per-language bleve indexes
// that make them searchable, and the SQL catalog they are loaded from.
package store

import (
	"context"
	"strings"

	serrors "github.com/Aman-CERP/titlesearch/internal/errors"
)

// MaxResults caps the number of ids a single search returns.
const MaxResults = 75

// Document is one searchable title. Titles are lowercased on construction
// so that indexed data and query tokens agree on case.
type Document struct {
	ID    uint64
	Title string
}

// NewDocument creates a Document, lowercasing the title.
func NewDocument(id uint64, title string) Document {
	return Document{ID: id, Title: strings.ToLower(title)}
}

// Collection identifies one of the independently indexed corpora.
type Collection int

const (
	CollectionMovie Collection = iota
	CollectionTV
	CollectionRecipe
	CollectionGame
)

var collectionNames = [...]string{
	CollectionMovie:  "MOVIE",
	CollectionTV:     "TV",
	CollectionRecipe: "RECIPE",
	CollectionGame:   "GAME",
}

// AllCollections returns every collection in a stable order.
func AllCollections() []Collection {
	return []Collection{CollectionMovie, CollectionTV, CollectionRecipe, CollectionGame}
}

// String returns the wire name.
func (c Collection) String() string {
	if c < 0 || int(c) >= len(collectionNames) {
		return "UNKNOWN"
	}
	return collectionNames[c]
}

// ParseCollection maps a wire name (case-insensitive) to a Collection.
func ParseCollection(s string) (Collection, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for i, n := range collectionNames {
		if n == name {
			return Collection(i), nil
		}
	}
	return 0, serrors.UnknownCollection(s)
}

// Language identifies one per-language replica of a collection.
type Language int

const (
	LanguageES Language = iota
	LanguageEN

	numLanguages = int(LanguageEN) + 1
)

var languageNames = [...]string{
	LanguageES: "ES",
	LanguageEN: "EN",
}

// AllLanguages returns every supported language in a stable order.
func AllLanguages() []Language {
	return []Language{LanguageES, LanguageEN}
}

// String returns the wire name.
func (l Language) String() string {
	if l < 0 || int(l) >= len(languageNames) {
		return "UNKNOWN"
	}
	return languageNames[l]
}

// ParseLanguage maps a wire name (case-insensitive) to a Language.
func ParseLanguage(s string) (Language, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for i, n := range languageNames {
		if n == name {
			return Language(i), nil
		}
	}
	return 0, serrors.UnknownLanguage(s)
}

// Retriever pages through the source documents of one collection.
// Fetch returns an empty slice exactly when no documents exist at or
// beyond offset.
type Retriever interface {
	Fetch(ctx context.Context, lang Language, limit, offset int) ([]Document, error)
}

// LanguageStats summarizes one registry slot.
type LanguageStats struct {
	Language   Language `json:"-"`
	Name       string   `json:"language"`
	Documents  uint64   `json:"documents"`
	Generation uint64   `json:"generation"`
}
