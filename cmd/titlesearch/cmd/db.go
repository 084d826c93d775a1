package cmd

import (
	"context"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/titlesearch/internal/config"
	serrors "github.com/Aman-CERP/titlesearch/internal/errors"
	"github.com/Aman-CERP/titlesearch/internal/output"
	"github.com/Aman-CERP/titlesearch/internal/store"
)

func newDBCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Manage the title catalog",
	}
	cmd.AddCommand(newDBInitCmd(opts))
	cmd.AddCommand(newDBAddCmd(opts))
	return cmd
}

func newDBInitCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the catalog tables",
		Long:  `Create one table per collection in the configured SQLite catalog. Existing tables are kept.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := commandContext(cmd)
			db, err := store.OpenCatalog(ctx, catalogConfig(opts.cfg))
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			if err := store.InitCatalogSchema(ctx, db); err != nil {
				return err
			}
			output.New(cmd.OutOrStdout()).Successf("Catalog ready at %s", opts.cfg.Database.Path)
			return nil
		},
	}
}

func newDBAddCmd(opts *rootOptions) *cobra.Command {
	var (
		collection string
		language   string
	)

	cmd := &cobra.Command{
		Use:   "add <id> <title...>",
		Short: "Insert or replace one catalog title",
		Long: `Insert a title into the catalog, replacing any row with the same id and
language. GAME titles are not language scoped and ignore --language.
Changes reach the indexes on the next rebuild pass.`,
		Example: `  titlesearch db add -c MOVIE -l EN 42 The Queen
  titlesearch db add -c GAME 7 Space Invaders`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return serrors.ValidationError("id must be a non-negative integer", err)
			}
			return runDBAdd(commandContext(cmd), cmd, opts.cfg, collection, language, id, strings.Join(args[1:], " "))
		},
	}

	cmd.Flags().StringVarP(&collection, "collection", "c", "MOVIE", "Collection: MOVIE, TV, RECIPE or GAME")
	cmd.Flags().StringVarP(&language, "language", "l", "EN", "Language: EN or ES")
	return cmd
}

func runDBAdd(ctx context.Context, cmd *cobra.Command, cfg *config.Config, collection, language string, id uint64, title string) error {
	c, err := store.ParseCollection(collection)
	if err != nil {
		return err
	}
	lang, err := store.ParseLanguage(language)
	if err != nil {
		return err
	}

	db, err := store.OpenCatalog(ctx, catalogConfig(cfg))
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := store.InitCatalogSchema(ctx, db); err != nil {
		return err
	}
	if err := store.InsertTitle(ctx, db, c, lang, id, title); err != nil {
		return err
	}
	output.New(cmd.OutOrStdout()).Successf("Added %s %d (%s): %s", c, id, lang, title)
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
