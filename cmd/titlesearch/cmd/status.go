package cmd

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/titlesearch/internal/config"
	"github.com/Aman-CERP/titlesearch/internal/output"
	"github.com/Aman-CERP/titlesearch/internal/server"
)

func newStatusCmd(opts *rootOptions) *cobra.Command {
	var (
		url        string
		jsonOutput bool
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the status of a running server",
		Long:  `Query GET /status on a running titlesearch server and summarize rebuild progress and index sizes.`,
		Example: `  titlesearch status
  titlesearch status --url http://search.internal:8080 --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if url == "" {
				url = localURL(opts.cfg)
			}
			return runStatus(cmd, url, timeout, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "Server base URL (default from server.host and server.port)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the raw status as JSON")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Request timeout")
	return cmd
}

// localURL turns the listen address into a URL a local client can reach.
func localURL(cfg *config.Config) string {
	host := cfg.Server.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(cfg.Server.Port))
}

func runStatus(cmd *cobra.Command, baseURL string, timeout time.Duration, jsonOutput bool) error {
	client := &http.Client{Timeout: timeout}
	req, err := http.NewRequestWithContext(commandContext(cmd), http.MethodGet, strings.TrimRight(baseURL, "/")+"/status", nil)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("server not reachable at %s: %w", baseURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %s", resp.Status)
	}

	var st server.Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return fmt.Errorf("failed to decode status: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}

	printStatus(output.New(cmd.OutOrStdout()), st)
	return nil
}

func printStatus(out *output.Writer, st server.Status) {
	out.Heading("titlesearch " + st.Version)
	out.Statusf("", "Started:  %s", st.StartedAt.Format(time.RFC3339))
	out.Statusf("", "Indexer:  %s (%d passes, %d failures in last pass)", st.Indexer.Status, st.Indexer.Passes, st.Indexer.Failures)
	if st.Cache.Enabled {
		out.Statusf("", "Cache:    %d entries, %d hits, %d misses", st.Cache.Size, st.Cache.Hits, st.Cache.Misses)
	}
	if q := st.Queries; q != nil {
		out.Statusf("", "Queries:  %d total, %.1f%% without results", q.TotalQueries, q.ZeroResultPercentage())
	}
	out.Newline()

	rows := make([][]string, 0, len(st.Collections)*2)
	for _, c := range st.Collections {
		for _, l := range c.Languages {
			rows = append(rows, []string{
				c.Name,
				l.Name,
				strconv.FormatUint(l.Documents, 10),
				strconv.FormatUint(l.Generation, 10),
			})
		}
	}
	out.Table([]string{"COLLECTION", "LANGUAGE", "DOCUMENTS", "GENERATION"}, rows)

	for _, o := range st.Indexer.Outcomes {
		if o.ErrorMessage != "" {
			out.Warningf("%s/%s: %s", o.Collection, o.Language, o.ErrorMessage)
		}
	}
}
