package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/titlesearch/configs"
	"github.com/Aman-CERP/titlesearch/internal/config"
	"github.com/Aman-CERP/titlesearch/internal/output"
)

// defaultConfigFile is where config init writes when no path is given.
const defaultConfigFile = "titlesearch.yaml"

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Show or create the titlesearch configuration.

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. Config file (--config, or $CONFIG_PATH)
  3. Environment variables (TITLESEARCH_*)`,
	}

	cmd.AddCommand(newConfigShowCmd(opts))
	cmd.AddCommand(newConfigInitCmd())
	return cmd
}

func newConfigShowCmd(opts *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Example: `  titlesearch config show
  titlesearch config show --format json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd, opts.cfg, format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "yaml", "Output format: yaml, toml or json")
	return cmd
}

func runConfigShow(cmd *cobra.Command, cfg *config.Config, format string) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case "yaml":
		data, err = yaml.Marshal(cfg)
	case "toml":
		data, err = toml.Marshal(cfg)
	case "json":
		data, err = json.MarshalIndent(cfg, "", "  ")
		data = append(data, '\n')
	default:
		return fmt.Errorf("unknown format %q (use yaml, toml or json)", format)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a configuration file with default values",
		Long: `Write the default configuration to path (default titlesearch.yaml).
The format follows the extension: .yaml/.yml or .toml. YAML files get a
commented template describing each setting.

An existing file is left alone unless --force is given, in which case it is
backed up next to itself before being overwritten.`,
		Example: `  titlesearch config init
  titlesearch config init /etc/titlesearch/config.toml --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultConfigFile
			if len(args) == 1 {
				path = args[0]
			}
			return runConfigInit(cmd, path, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file after backing it up")
	return cmd
}

func runConfigInit(cmd *cobra.Command, path string, force bool) error {
	out := output.New(cmd.OutOrStdout())

	if _, err := os.Stat(path); err == nil {
		if !force {
			out.Warning("Configuration already exists")
			out.Statusf("", "Location: %s", path)
			out.Status("", "Use --force to overwrite it (a backup is kept)")
			return nil
		}
		backup, err := config.BackupFile(path)
		if err != nil {
			return fmt.Errorf("failed to back up config: %w", err)
		}
		out.Statusf("", "Backup: %s", backup)
	}

	if err := writeDefaultConfig(path); err != nil {
		return err
	}

	out.Successf("Created configuration at %s", path)
	return nil
}

func writeDefaultConfig(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
	default:
		return config.NewConfig().Write(path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configs.ExampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
