package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/titlesearch/internal/config"
	"github.com/Aman-CERP/titlesearch/internal/logging"
	"github.com/Aman-CERP/titlesearch/internal/mcp"
)

func newMCPCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve title search to AI clients over MCP (stdio)",
		Long: `Start a Model Context Protocol server on stdin/stdout with the tools
search_titles and index_status. Indexes are built in the background; logs
go to a file because stdout carries JSON-RPC.`,
		Annotations: map[string]string{annotationFileLogging: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMCP(commandContext(cmd), opts)
		},
	}
}

func runMCP(ctx context.Context, opts *rootOptions) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cleanup, err := logging.SetupFileOnly(loggingConfig(opts.cfg, false))
	if err != nil {
		return err
	}
	opts.loggingCleanup = cleanup

	return serveMCP(ctx, opts.cfg, slog.Default())
}

func serveMCP(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	srv, err := mcp.NewServer(a.service, a.statsProviders(), a.progress, logger)
	if err != nil {
		return err
	}

	// Searches before the first pass completes return no results;
	// index_status reports readiness.
	a.scheduler.Start(ctx)
	return srv.Serve(ctx)
}
