package preflight

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Aman-CERP/titlesearch/internal/output"
	"github.com/Aman-CERP/titlesearch/internal/store"
)

// CheckStatus represents the result of a preflight check.
type CheckStatus int

const (
	// StatusPass indicates the check passed.
	StatusPass CheckStatus = iota
	// StatusWarn indicates a non-critical problem.
	StatusWarn
	// StatusFail indicates the check failed.
	StatusFail
)

// String returns the string representation of a CheckStatus.
func (s CheckStatus) String() string {
	switch s {
	case StatusPass:
		return "PASS"
	case StatusWarn:
		return "WARN"
	case StatusFail:
		return "FAIL"
	default:
		return "UNKNOWN"
	}
}

// MarshalText renders the status by name in JSON output.
func (s CheckStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// CheckResult holds the result of a single check.
type CheckResult struct {
	Name     string      `json:"name"`
	Status   CheckStatus `json:"status"`
	Message  string      `json:"message"`
	Details  string      `json:"details,omitempty"`
	Required bool        `json:"required"`
}

// IsCritical returns true if this is a required check that failed.
func (r CheckResult) IsCritical() bool {
	return r.Required && r.Status == StatusFail
}

// Target describes the deployment being checked.
type Target struct {
	Catalog    store.CatalogConfig
	ListenAddr string // empty skips the port check
	PIDFile    string // empty skips the PID file check
}

// Checker performs preflight checks.
type Checker struct {
	verbose bool
	output  io.Writer
}

// Option configures a Checker.
type Option func(*Checker)

// WithVerbose prints result details.
func WithVerbose(verbose bool) Option {
	return func(c *Checker) {
		c.verbose = verbose
	}
}

// WithOutput sets the output writer.
func WithOutput(w io.Writer) Option {
	return func(c *Checker) {
		c.output = w
	}
}

// New creates a new Checker with the given options.
func New(opts ...Option) *Checker {
	c := &Checker{
		output: os.Stdout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RunAll runs every check against target.
func (c *Checker) RunAll(ctx context.Context, target Target) []CheckResult {
	var results []CheckResult

	results = append(results, c.CheckCatalog(ctx, target.Catalog)...)
	if target.Catalog.Path != "" {
		results = append(results, c.CheckDiskSpace(target.Catalog.Path))
	}
	results = append(results, c.CheckFileDescriptors(target.Catalog.MaxOpenConns))
	if target.PIDFile != "" {
		results = append(results, c.CheckWritePermissions(filepath.Dir(target.PIDFile)))
		results = append(results, c.CheckPIDFile(target.PIDFile))
	}
	if target.ListenAddr != "" {
		results = append(results, c.CheckListenAddr(target.ListenAddr))
	}

	return results
}

// HasCriticalFailures returns true if any required check failed.
func (c *Checker) HasCriticalFailures(results []CheckResult) bool {
	for _, r := range results {
		if r.IsCritical() {
			return true
		}
	}
	return false
}

// SummaryStatus returns "ready", "ready_with_warnings" or "failed".
func (c *Checker) SummaryStatus(results []CheckResult) string {
	hasWarnings := false
	hasCriticalFailure := false

	for _, r := range results {
		if r.IsCritical() {
			hasCriticalFailure = true
		}
		if r.Status == StatusWarn || (r.Status == StatusFail && !r.Required) {
			hasWarnings = true
		}
	}

	if hasCriticalFailure {
		return "failed"
	}
	if hasWarnings {
		return "ready_with_warnings"
	}
	return "ready"
}

// PrintResults prints check results to the configured output.
func (c *Checker) PrintResults(results []CheckResult) {
	out := output.New(c.output)
	out.Heading("titlesearch doctor")
	out.Newline()

	for _, r := range results {
		out.Statusf("", "[%s] %s: %s", r.Status, r.Name, r.Message)
		if c.verbose && r.Details != "" {
			out.Status("", "      "+r.Details)
		}
	}

	out.Newline()
	status := c.SummaryStatus(results)
	switch status {
	case "failed":
		out.Error("Status: " + strings.ToUpper(status))
	case "ready_with_warnings":
		out.Warning("Status: " + strings.ToUpper(status))
	default:
		out.Success("Status: " + strings.ToUpper(status))
	}
}

// CheckWritePermissions checks that dir accepts new files.
func (c *Checker) CheckWritePermissions(dir string) CheckResult {
	result := CheckResult{
		Name:     "write_permissions",
		Required: true,
	}

	f, err := os.CreateTemp(dir, ".titlesearch-preflight-*")
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("cannot write to %s: %v", dir, err)
		return result
	}
	_ = f.Close()
	_ = os.Remove(f.Name())

	result.Status = StatusPass
	result.Message = dir
	return result
}
