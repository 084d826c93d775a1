// Package ui implements the interactive terminal title browser.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	serrors "github.com/Aman-CERP/titlesearch/internal/errors"
	"github.com/Aman-CERP/titlesearch/internal/store"
)

// Searcher runs a type-ahead query. search.Service implements it.
type Searcher interface {
	Search(ctx context.Context, c store.Collection, lang store.Language, raw string) ([]uint64, error)
}

// TitleResolver maps result ids back to display titles.
type TitleResolver interface {
	Titles(ctx context.Context, c store.Collection, lang store.Language, ids []uint64) (map[uint64]string, error)
}

// BrowserConfig configures a Browser.
type BrowserConfig struct {
	Searcher   Searcher
	Titles     TitleResolver // optional
	Ready      func() bool   // optional; nil means always ready
	Collection store.Collection
	Language   store.Language
	NoColor    bool
	Input      io.Reader
	Output     io.Writer
}

// Selection is the title picked with enter.
type Selection struct {
	Collection store.Collection
	Language   store.Language
	ID         uint64
	Title      string
}

type resultsMsg struct {
	seq    int
	ids    []uint64
	titles map[uint64]string
	err    error
	took   time.Duration
}

type readyTickMsg struct{}

const readyPollInterval = 200 * time.Millisecond

// Browser is the bubbletea model behind `titlesearch browse`.
type Browser struct {
	ctx      context.Context
	searcher Searcher
	titles   TitleResolver
	ready    func() bool

	collections []store.Collection
	colIdx      int
	language    store.Language

	input   textinput.Model
	spinner spinner.Model
	styles  Styles

	seq      int
	waiting  bool
	indexed  bool
	ids      []uint64
	names    map[uint64]string
	err      error
	took     time.Duration
	cursor   int
	selected *Selection

	width  int
	height int
}

// NewBrowser creates the model. Searches run with ctx.
func NewBrowser(ctx context.Context, cfg BrowserConfig) *Browser {
	ti := textinput.New()
	ti.Placeholder = "start typing a title"
	ti.Prompt = "> "
	ti.CharLimit = 200
	ti.Cursor.SetMode(cursor.CursorStatic)
	ti.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLime))

	styles := GetStyles(cfg.NoColor)
	ti.PromptStyle = styles.Prompt

	b := &Browser{
		ctx:         ctx,
		searcher:    cfg.Searcher,
		titles:      cfg.Titles,
		ready:       cfg.Ready,
		collections: store.AllCollections(),
		language:    cfg.Language,
		input:       ti,
		spinner:     s,
		styles:      styles,
		width:       80,
		height:      24,
	}
	for i, c := range b.collections {
		if c == cfg.Collection {
			b.colIdx = i
		}
	}
	b.indexed = b.ready == nil || b.ready()
	return b
}

// Collection returns the collection being searched.
func (b *Browser) Collection() store.Collection {
	return b.collections[b.colIdx]
}

// Language returns the language being searched.
func (b *Browser) Language() store.Language {
	return b.language
}

// Results returns the ids currently displayed.
func (b *Browser) Results() []uint64 {
	return b.ids
}

// Selected returns the title picked with enter, or nil.
func (b *Browser) Selected() *Selection {
	return b.selected
}

// Init implements tea.Model.
func (b *Browser) Init() tea.Cmd {
	if b.indexed {
		return nil
	}
	return tea.Batch(b.spinner.Tick, readyTick())
}

func readyTick() tea.Cmd {
	return tea.Tick(readyPollInterval, func(time.Time) tea.Msg {
		return readyTickMsg{}
	})
}

// Update implements tea.Model.
func (b *Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return b.handleKey(msg)

	case tea.WindowSizeMsg:
		b.width = msg.Width
		b.height = msg.Height
		b.input.Width = max(msg.Width-8, 10)
		return b, nil

	case resultsMsg:
		if msg.seq != b.seq {
			return b, nil
		}
		b.waiting = false
		b.err = msg.err
		b.took = msg.took
		if msg.err != nil {
			b.ids, b.names = nil, nil
		} else {
			b.ids, b.names = msg.ids, msg.titles
		}
		b.cursor = 0
		return b, nil

	case readyTickMsg:
		if b.ready == nil || b.ready() {
			b.indexed = true
			return b, b.search()
		}
		return b, readyTick()

	case spinner.TickMsg:
		if b.indexed && !b.waiting {
			return b, nil
		}
		var cmd tea.Cmd
		b.spinner, cmd = b.spinner.Update(msg)
		return b, cmd
	}

	var cmd tea.Cmd
	b.input, cmd = b.input.Update(msg)
	return b, cmd
}

func (b *Browser) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return b, tea.Quit
	case "enter":
		if len(b.ids) > 0 {
			id := b.ids[b.cursor]
			b.selected = &Selection{
				Collection: b.Collection(),
				Language:   b.language,
				ID:         id,
				Title:      b.names[id],
			}
		}
		return b, tea.Quit
	case "up", "ctrl+p":
		if b.cursor > 0 {
			b.cursor--
		}
		return b, nil
	case "down", "ctrl+n":
		if b.cursor < len(b.ids)-1 {
			b.cursor++
		}
		return b, nil
	case "tab":
		b.colIdx = (b.colIdx + 1) % len(b.collections)
		return b, b.search()
	case "shift+tab":
		b.colIdx = (b.colIdx + len(b.collections) - 1) % len(b.collections)
		return b, b.search()
	case "ctrl+l":
		langs := store.AllLanguages()
		for i, l := range langs {
			if l == b.language {
				b.language = langs[(i+1)%len(langs)]
				break
			}
		}
		return b, b.search()
	}

	before := b.input.Value()
	var cmd tea.Cmd
	b.input, cmd = b.input.Update(msg)
	if b.input.Value() == before {
		return b, cmd
	}
	return b, tea.Batch(cmd, b.search())
}

// search starts a query for the current input. Results of older queries
// are dropped when they arrive after a newer one was started.
func (b *Browser) search() tea.Cmd {
	b.seq++
	query := b.input.Value()
	if strings.TrimSpace(query) == "" || !b.indexed {
		b.waiting = false
		b.ids, b.names, b.err = nil, nil, nil
		b.cursor = 0
		return nil
	}

	var (
		ctx      = b.ctx
		seq      = b.seq
		c        = b.Collection()
		lang     = b.language
		searcher = b.searcher
		titles   = b.titles
	)
	b.waiting = true

	return func() tea.Msg {
		start := time.Now()
		ids, err := searcher.Search(ctx, c, lang, query)
		msg := resultsMsg{seq: seq, ids: ids, err: err}
		if err == nil && titles != nil && len(ids) > 0 {
			// A failed lookup still shows the ids.
			msg.titles, _ = titles.Titles(ctx, c, lang, ids)
		}
		msg.took = time.Since(start)
		return msg
	}
}

// View implements tea.Model.
func (b *Browser) View() string {
	contentWidth := max(b.width-4, 40)

	sections := []string{
		b.renderTabs(),
		b.input.View(),
		b.styles.Dim.Render(strings.Repeat("─", contentWidth-2)),
		b.renderResults(),
	}
	panel := b.styles.Panel.Width(contentWidth).Render(strings.Join(sections, "\n"))

	return lipgloss.JoinVertical(lipgloss.Left,
		b.styles.Header.Render("titlesearch"),
		panel,
		b.renderStatusBar(),
	)
}

func (b *Browser) renderTabs() string {
	parts := make([]string, 0, len(b.collections)+1)
	for i, c := range b.collections {
		if i == b.colIdx {
			parts = append(parts, b.styles.TabOn.Render("["+c.String()+"]"))
		} else {
			parts = append(parts, b.styles.Tab.Render(" "+c.String()+" "))
		}
	}
	parts = append(parts, b.styles.Dim.Render("│ "+b.language.String()))
	return strings.Join(parts, " ")
}

func (b *Browser) renderResults() string {
	switch {
	case !b.indexed:
		return b.spinner.View() + " Building indexes..."
	case b.err != nil:
		return b.styles.Error.Render("✗ " + describeError(b.err))
	case strings.TrimSpace(b.input.Value()) == "":
		return b.styles.Dim.Render("Every word but the last must match whole; the last matches as a prefix.")
	case b.waiting && len(b.ids) == 0:
		return b.spinner.View() + " Searching..."
	case len(b.ids) == 0:
		return b.styles.Warning.Render("No matching titles")
	}

	// Leave room for the header, tabs, input, divider and status bar.
	rows := min(len(b.ids), max(b.height-8, 3))
	start := 0
	if b.cursor >= rows {
		start = b.cursor - rows + 1
	}

	lines := make([]string, 0, rows)
	for i := start; i < start+rows && i < len(b.ids); i++ {
		id := b.ids[i]
		line := fmt.Sprintf("%10d  %s", id, b.names[id])
		if i == b.cursor {
			lines = append(lines, b.styles.Selected.Render("▸"+line))
			continue
		}
		lines = append(lines, " "+b.styles.ID.Render(fmt.Sprintf("%10d", id))+"  "+b.styles.Title.Render(b.names[id]))
	}
	return strings.Join(lines, "\n")
}

func (b *Browser) renderStatusBar() string {
	var parts []string
	if b.indexed && len(b.ids) > 0 {
		parts = append(parts, fmt.Sprintf("%d results in %s", len(b.ids), b.took.Round(10*time.Microsecond)))
	}
	parts = append(parts, "tab collection", "ctrl+l language", "enter select", "esc quit")
	return b.styles.Dim.Render(strings.Join(parts, "  •  "))
}

func describeError(err error) string {
	var se *serrors.ServiceError
	if errors.As(err, &se) {
		return se.Message
	}
	return err.Error()
}

// RunBrowser runs the browser until the user quits and returns the
// selected title, if any.
func RunBrowser(ctx context.Context, cfg BrowserConfig) (*Selection, error) {
	if !IsTTY(cfg.Output) {
		return nil, errors.New("browse needs an interactive terminal")
	}
	if cfg.Searcher == nil {
		return nil, errors.New("searcher is required")
	}
	if DetectNoColor() {
		cfg.NoColor = true
	}

	model := NewBrowser(ctx, cfg)
	opts := []tea.ProgramOption{
		tea.WithContext(ctx),
		tea.WithOutput(cfg.Output),
		tea.WithAltScreen(),
	}
	if cfg.Input != nil {
		opts = append(opts, tea.WithInput(cfg.Input))
	}

	final, err := tea.NewProgram(model, opts...).Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil, nil
		}
		return nil, fmt.Errorf("browser failed: %w", err)
	}
	if b, ok := final.(*Browser); ok {
		return b.Selected(), nil
	}
	return nil, nil
}
