// Package cmd provides the CLI commands for titlesearch.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/titlesearch/internal/config"
	serrors "github.com/Aman-CERP/titlesearch/internal/errors"
	"github.com/Aman-CERP/titlesearch/internal/logging"
	"github.com/Aman-CERP/titlesearch/internal/profiling"
	"github.com/Aman-CERP/titlesearch/pkg/version"
)

// annotationFileLogging marks commands that own the terminal (JSON-RPC or a
// full-screen UI) and set up their own file-only logging.
const annotationFileLogging = "file-logging"

// rootOptions holds the global flags and the state built from them.
type rootOptions struct {
	configPath string
	debug      bool
	profile    profiling.Options

	cfg            *config.Config
	loggingCleanup func()
	profiler       *profiling.Session
}

// NewRootCmd creates the root command for the titlesearch CLI.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "titlesearch",
		Short: "Type-ahead title search over movies, TV, recipes and games",
		Long: `titlesearch keeps an in-memory keyword index of catalog titles per
collection and language, rebuilds it on a schedule from a SQLite catalog,
and answers type-ahead searches over HTTP or MCP.`,
		Version:           version.Version,
		SilenceUsage:      true,
		PersistentPreRunE: opts.preRun,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return opts.postRun()
		},
	}

	cmd.SetVersionTemplate("titlesearch version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (.yaml or .toml); defaults to $"+config.ConfigPathEnv)
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&opts.profile.CPUPath, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&opts.profile.HeapPath, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&opts.profile.TracePath, "profile-trace", "", "Write execution trace to file")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newSearchCmd(opts))
	cmd.AddCommand(newBrowseCmd(opts))
	cmd.AddCommand(newMCPCmd(opts))
	cmd.AddCommand(newStatusCmd(opts))
	cmd.AddCommand(newDBCmd(opts))
	cmd.AddCommand(newConfigCmd(opts))
	cmd.AddCommand(newDoctorCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// preRun loads the configuration, installs the default logger and starts
// any requested profiles.
func (o *rootOptions) preRun(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		_, _ = fmt.Fprint(cmd.ErrOrStderr(), serrors.FormatForCLI(err))
		return err
	}
	if o.debug {
		cfg.Logging.Level = "debug"
	}
	o.cfg = cfg

	if _, ok := cmd.Annotations[annotationFileLogging]; !ok {
		logger, cleanup, err := logging.Setup(loggingConfig(cfg, true))
		if err != nil {
			return fmt.Errorf("failed to setup logging: %w", err)
		}
		o.loggingCleanup = cleanup
		slog.SetDefault(logger)
	}

	if o.profile.Enabled() {
		o.profiler, err = profiling.Start(o.profile)
		if err != nil {
			return err
		}
	}
	return nil
}

func (o *rootOptions) postRun() error {
	var err error
	if o.profiler != nil {
		err = o.profiler.Stop()
		o.profiler = nil
	}
	if o.loggingCleanup != nil {
		o.loggingCleanup()
		o.loggingCleanup = nil
	}
	return err
}

// loggingConfig maps the file configuration onto the logging package.
func loggingConfig(cfg *config.Config, toStderr bool) logging.Config {
	return logging.Config{
		Enabled:       cfg.Logging.Enabled,
		Level:         cfg.Logging.Level,
		Format:        cfg.Logging.Format,
		FilePath:      cfg.Logging.FilePath,
		MaxSizeMB:     cfg.Logging.MaxSizeMB,
		MaxFiles:      cfg.Logging.MaxFiles,
		WriteToStderr: toStderr,
	}
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
