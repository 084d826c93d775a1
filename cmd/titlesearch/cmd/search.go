package cmd

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/titlesearch/internal/config"
	"github.com/Aman-CERP/titlesearch/internal/output"
	"github.com/Aman-CERP/titlesearch/internal/server"
)

// searchResult is the --json output of the search command.
type searchResult struct {
	Collection string   `json:"collection"`
	Language   string   `json:"language"`
	Keywords   string   `json:"keywords"`
	IDs        []uint64 `json:"ids"`
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var (
		collection string
		language   string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "search <keywords...>",
		Short: "Build the indexes once and run a single search",
		Long: `Run one rebuild pass from the catalog, then search it. Every keyword but
the last must match a whole word; the last keyword matches as a prefix.`,
		Example: `  titlesearch search --collection MOVIE queen gam
  titlesearch search -c RECIPE -l ES --json tarta de`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, opts.cfg, collection, language, strings.Join(args, " "), jsonOutput)
		},
	}

	cmd.Flags().StringVarP(&collection, "collection", "c", "MOVIE", "Collection: MOVIE, TV, RECIPE or GAME")
	cmd.Flags().StringVarP(&language, "language", "l", server.DefaultLanguage, "Language: EN or ES")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runSearch(cmd *cobra.Command, cfg *config.Config, collection, language, keywords string, jsonOutput bool) error {
	ctx := commandContext(cmd)
	logger := slog.Default()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	// Failed languages are reported by the scheduler and simply return no
	// results below.
	if err := a.scheduler.RunOnce(ctx); err != nil {
		logger.Warn("rebuild pass incomplete", slog.String("error", err.Error()))
	}

	ids, err := a.service.SearchNamed(ctx, collection, language, keywords)
	if err != nil {
		return err
	}

	if jsonOutput {
		if ids == nil {
			ids = []uint64{}
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(searchResult{
			Collection: strings.ToUpper(collection),
			Language:   strings.ToUpper(language),
			Keywords:   keywords,
			IDs:        ids,
		})
	}

	output.New(cmd.OutOrStdout()).IDs(ids)
	return nil
}
