package cmd

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/titlesearch/internal/preflight"
)

type doctorReport struct {
	Status string                  `json:"status"`
	Checks []preflight.CheckResult `json:"checks"`
}

func newDoctorCmd(opts *rootOptions) *cobra.Command {
	var (
		jsonOutput bool
		verbose    bool
		skipPort   bool
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that the environment can run the server",
		Long: `Run preflight checks against the configured deployment: catalog
reachability and tables, free disk space, the open file limit, the PID file
and the listen address.

Exits non-zero when a required check fails.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := opts.cfg
			target := preflight.Target{
				Catalog: catalogConfig(cfg),
				PIDFile: cfg.Server.PIDFile,
			}
			if !skipPort {
				target.ListenAddr = cfg.Server.Addr()
			}

			checker := preflight.New(
				preflight.WithOutput(cmd.OutOrStdout()),
				preflight.WithVerbose(verbose),
			)
			results := checker.RunAll(commandContext(cmd), target)

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(doctorReport{Status: checker.SummaryStatus(results), Checks: results}); err != nil {
					return err
				}
			} else {
				checker.PrintResults(results)
			}

			if checker.HasCriticalFailures(results) {
				return errors.New("preflight checks failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show details for each check")
	cmd.Flags().BoolVar(&skipPort, "skip-port", false, "Skip the listen address check")
	return cmd
}
