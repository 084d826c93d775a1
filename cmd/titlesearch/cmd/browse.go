package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/titlesearch/internal/logging"
	"github.com/Aman-CERP/titlesearch/internal/store"
	"github.com/Aman-CERP/titlesearch/internal/ui"
)

// catalogTitles resolves result ids to titles for display.
type catalogTitles struct {
	db *sql.DB
}

func (t catalogTitles) Titles(ctx context.Context, c store.Collection, lang store.Language, ids []uint64) (map[uint64]string, error) {
	return store.LookupTitles(ctx, t.db, c, lang, ids)
}

func newBrowseCmd(opts *rootOptions) *cobra.Command {
	var (
		collection string
		language   string
	)

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Search titles interactively as you type",
		Long: `Open a full-screen type-ahead search over the catalog. Indexes are
built in the background; results update on every keystroke.

Keys: tab/shift+tab switch collection, ctrl+l switches language,
up/down move, enter prints the selected title, esc quits.`,
		Annotations: map[string]string{annotationFileLogging: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := store.ParseCollection(collection)
			if err != nil {
				return err
			}
			lang, err := store.ParseLanguage(language)
			if err != nil {
				return err
			}
			return runBrowse(commandContext(cmd), cmd, opts, c, lang)
		},
	}

	cmd.Flags().StringVarP(&collection, "collection", "c", "MOVIE", "Initial collection: MOVIE, TV, RECIPE or GAME")
	cmd.Flags().StringVarP(&language, "language", "l", "EN", "Initial language: ES or EN")
	return cmd
}

func runBrowse(ctx context.Context, cmd *cobra.Command, opts *rootOptions, c store.Collection, lang store.Language) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cleanup, err := logging.SetupFileOnly(loggingConfig(opts.cfg, false))
	if err != nil {
		return err
	}
	opts.loggingCleanup = cleanup

	a, err := newApp(ctx, opts.cfg, slog.Default())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	a.scheduler.Start(ctx)

	sel, err := ui.RunBrowser(ctx, ui.BrowserConfig{
		Searcher:   a.service,
		Titles:     catalogTitles{db: a.db},
		Ready:      a.progress.IsReady,
		Collection: c,
		Language:   lang,
		Input:      os.Stdin,
		Output:     os.Stdout,
	})
	if err != nil {
		return err
	}
	if sel != nil {
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s/%s %d\t%s\n", sel.Collection, sel.Language, sel.ID, sel.Title)
	}
	return err
}
