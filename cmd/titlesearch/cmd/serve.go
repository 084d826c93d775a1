package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/titlesearch/internal/config"
	"github.com/Aman-CERP/titlesearch/internal/server"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve type-ahead search over HTTP",
		Long: `Open the catalog, build every collection's indexes, keep them fresh on
the configured interval and serve POST /run, GET /status and GET /healthz.

With indexer.wait_until_indexed (the default) the listener opens only after
the first rebuild pass completes.`,
		Example: `  titlesearch serve
  titlesearch serve --config titlesearch.yaml --addr :9090`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(commandContext(cmd), opts.cfg, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address, overrides server.host and server.port")
	return cmd
}

// runServe blocks until SIGINT/SIGTERM or a fatal server error.
func runServe(ctx context.Context, cfg *config.Config, addr string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := slog.Default()

	if cfg.Server.PIDFile != "" {
		pid := server.NewPIDFile(cfg.Server.PIDFile)
		if err := pid.Acquire(); err != nil {
			return err
		}
		defer func() {
			if err := pid.Release(); err != nil {
				logger.Warn("pid_file_release_failed", slog.String("error", err.Error()))
			}
		}()
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if addr == "" {
		addr = cfg.Server.Addr()
	}
	read, write, shutdown := cfg.Server.Timeouts()
	srv := server.NewServer(a.service, a.status, a.progress.IsReady, server.Options{
		Addr:            addr,
		ReadTimeout:     read,
		WriteTimeout:    write,
		ShutdownTimeout: shutdown,
		RateLimit:       cfg.Server.RateLimit,
		RateBurst:       cfg.Server.RateBurst,
	}, logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.scheduler.Start(gctx)
		a.scheduler.Wait()
		return nil
	})

	g.Go(func() error {
		if cfg.Indexer.WaitUntilIndexed {
			logger.Info("waiting for first rebuild pass")
			select {
			case <-a.scheduler.Done():
			case <-gctx.Done():
				return nil
			}
		}
		return srv.ListenAndServe(gctx)
	})

	return g.Wait()
}
