package ui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serrors "github.com/Aman-CERP/titlesearch/internal/errors"
	"github.com/Aman-CERP/titlesearch/internal/store"
)

type query struct {
	collection store.Collection
	language   store.Language
	raw        string
}

type fakeSearcher struct {
	mu      sync.Mutex
	queries []query
	results map[string][]uint64
	err     error
}

func (f *fakeSearcher) Search(_ context.Context, c store.Collection, lang store.Language, raw string) ([]uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query{c, lang, raw})
	if f.err != nil {
		return nil, f.err
	}
	return f.results[raw], nil
}

func (f *fakeSearcher) last() query {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[len(f.queries)-1]
}

type fakeTitles map[uint64]string

func (f fakeTitles) Titles(_ context.Context, _ store.Collection, _ store.Language, ids []uint64) (map[uint64]string, error) {
	out := make(map[uint64]string, len(ids))
	for _, id := range ids {
		if t, ok := f[id]; ok {
			out[id] = t
		}
	}
	return out, nil
}

// drain runs cmd and feeds any resultsMsg back into b. Commands that would
// block on timers are never produced for key input.
func drain(t *testing.T, b *Browser, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			drain(t, b, c)
		}
	case resultsMsg:
		_, _ = b.Update(msg)
	}
}

func typeText(t *testing.T, b *Browser, s string) {
	t.Helper()
	for _, r := range s {
		_, cmd := b.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		drain(t, b, cmd)
	}
}

func press(t *testing.T, b *Browser, k tea.KeyType) tea.Cmd {
	t.Helper()
	_, cmd := b.Update(tea.KeyMsg{Type: k})
	return cmd
}

func newTestBrowser(s Searcher) *Browser {
	return NewBrowser(context.Background(), BrowserConfig{
		Searcher:   s,
		Titles:     fakeTitles{1: "The Queen", 2: "The Queen's Gambit"},
		Collection: store.CollectionMovie,
		Language:   store.LanguageEN,
		NoColor:    true,
	})
}

func TestBrowser_TypingSearches(t *testing.T) {
	// Given: a browser over a searcher that knows "queen"
	s := &fakeSearcher{results: map[string][]uint64{"queen": {1, 2}}}
	b := newTestBrowser(s)

	// When: typing the keyword
	typeText(t, b, "queen")

	// Then: every keystroke searched and the last results are shown with titles
	assert.Len(t, s.queries, 5)
	assert.Equal(t, query{store.CollectionMovie, store.LanguageEN, "queen"}, s.last())
	assert.Equal(t, []uint64{1, 2}, b.Results())
	view := b.View()
	assert.Contains(t, view, "The Queen's Gambit")
	assert.Contains(t, view, "2 results")
	assert.Contains(t, view, "[MOVIE]")
}

func TestBrowser_StaleResultsDropped(t *testing.T) {
	s := &fakeSearcher{results: map[string][]uint64{"q": {9}, "qu": {1}}}
	b := newTestBrowser(s)

	// Given: two queries in flight
	_, first := b.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	typeText(t, b, "u")
	require.Equal(t, []uint64{1}, b.Results())

	// When: the older one answers last
	drain(t, b, first)

	// Then: it is ignored
	assert.Equal(t, []uint64{1}, b.Results())
}

func TestBrowser_SwitchCollectionAndLanguage(t *testing.T) {
	s := &fakeSearcher{results: map[string][]uint64{"tetris": {3}}}
	b := newTestBrowser(s)
	typeText(t, b, "tetris")

	drain(t, b, press(t, b, tea.KeyTab))
	assert.Equal(t, store.CollectionTV, b.Collection())
	assert.Equal(t, store.CollectionTV, s.last().collection)

	drain(t, b, press(t, b, tea.KeyShiftTab))
	drain(t, b, press(t, b, tea.KeyShiftTab))
	assert.Equal(t, store.CollectionGame, b.Collection())

	drain(t, b, press(t, b, tea.KeyCtrlL))
	assert.Equal(t, store.LanguageES, b.Language())
	assert.Equal(t, query{store.CollectionGame, store.LanguageES, "tetris"}, s.last())
}

func TestBrowser_ClearingInputClearsResults(t *testing.T) {
	s := &fakeSearcher{results: map[string][]uint64{"a": {1}}}
	b := newTestBrowser(s)
	typeText(t, b, "a")
	require.NotEmpty(t, b.Results())

	drain(t, b, press(t, b, tea.KeyBackspace))

	assert.Empty(t, b.Results())
	assert.Len(t, s.queries, 1, "blank input must not reach the searcher")
	assert.Contains(t, b.View(), "last matches as a prefix")
}

func TestBrowser_SelectWithArrowsAndEnter(t *testing.T) {
	s := &fakeSearcher{results: map[string][]uint64{"queen": {1, 2}}}
	b := newTestBrowser(s)
	typeText(t, b, "queen")

	press(t, b, tea.KeyDown)
	press(t, b, tea.KeyDown)
	cmd := press(t, b, tea.KeyEnter)

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	require.NotNil(t, b.Selected())
	assert.Equal(t, Selection{
		Collection: store.CollectionMovie,
		Language:   store.LanguageEN,
		ID:         2,
		Title:      "The Queen's Gambit",
	}, *b.Selected())
}

func TestBrowser_EscQuitsWithoutSelection(t *testing.T) {
	b := newTestBrowser(&fakeSearcher{})
	cmd := press(t, b, tea.KeyEsc)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Nil(t, b.Selected())
}

func TestBrowser_SearchErrorShown(t *testing.T) {
	s := &fakeSearcher{err: serrors.IndexQueryFailure("engine exploded", errors.New("boom"))}
	b := newTestBrowser(s)

	typeText(t, b, "x")

	assert.Empty(t, b.Results())
	assert.Contains(t, b.View(), "engine exploded")
}

func TestBrowser_NoMatches(t *testing.T) {
	b := newTestBrowser(&fakeSearcher{})
	typeText(t, b, "zzz")
	assert.Contains(t, b.View(), "No matching titles")
}

func TestBrowser_WaitsForIndex(t *testing.T) {
	// Given: indexes that are still building
	ready := false
	s := &fakeSearcher{results: map[string][]uint64{"queen": {1}}}
	b := NewBrowser(context.Background(), BrowserConfig{
		Searcher: s,
		Ready:    func() bool { return ready },
		NoColor:  true,
	})
	require.NotNil(t, b.Init())

	// When: typing before the first pass finished
	typeText(t, b, "queen")

	// Then: nothing is searched yet
	assert.Empty(t, s.queries)
	assert.Contains(t, b.View(), "Building indexes")

	// When: the index becomes ready
	ready = true
	_, cmd := b.Update(readyTickMsg{})
	drain(t, b, cmd)

	// Then: the pending input is searched
	assert.Equal(t, []uint64{1}, b.Results())
}

func TestBrowser_WindowResizeLimitsRows(t *testing.T) {
	ids := make([]uint64, 40)
	for i := range ids {
		ids[i] = uint64(i + 1)
	}
	b := newTestBrowser(&fakeSearcher{results: map[string][]uint64{"a": ids}})
	_, _ = b.Update(tea.WindowSizeMsg{Width: 60, Height: 12})
	typeText(t, b, "a")

	view := b.View()
	assert.Contains(t, view, "40 results")
	assert.False(t, strings.Contains(view, "        40  "), "rows beyond the window are hidden")
}

func TestRunBrowser_RequiresTerminal(t *testing.T) {
	_, err := RunBrowser(context.Background(), BrowserConfig{
		Searcher: &fakeSearcher{},
		Output:   &bytes.Buffer{},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interactive terminal")
}

func TestGetStyles(t *testing.T) {
	plain := GetStyles(true)
	assert.Equal(t, "x", plain.Title.Render("x"))
	assert.NotPanics(t, func() { _ = GetStyles(false).Header.Render("x") })
}
