package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/Aman-CERP/titlesearch/internal/server"
	"github.com/Aman-CERP/titlesearch/internal/store"
)

// CheckCatalog opens the catalog and counts each collection's titles. The
// first result covers the connection; one result per collection follows
// when it succeeds.
func (c *Checker) CheckCatalog(ctx context.Context, cfg store.CatalogConfig) []CheckResult {
	conn := CheckResult{
		Name:     "catalog",
		Required: true,
	}

	// OpenCatalog would create a missing file; a doctor must not.
	if cfg.Path != "" {
		if _, err := os.Stat(cfg.Path); err != nil {
			conn.Status = StatusFail
			conn.Message = fmt.Sprintf("catalog not found at %s", cfg.Path)
			conn.Details = "Run 'titlesearch db init' to create it"
			return []CheckResult{conn}
		}
	}

	db, err := store.OpenCatalog(ctx, cfg)
	if err != nil {
		conn.Status = StatusFail
		conn.Message = err.Error()
		return []CheckResult{conn}
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		conn.Status = StatusFail
		conn.Message = fmt.Sprintf("catalog unreachable: %v", err)
		return []CheckResult{conn}
	}
	conn.Status = StatusPass
	conn.Message = fmt.Sprintf("%s (%s)", displayPath(cfg.Path), driverName(cfg.Driver))

	results := []CheckResult{conn}
	for _, col := range store.AllCollections() {
		r := CheckResult{Name: "catalog_" + strings.ToLower(col.String())}
		n, err := store.CountTitles(ctx, db, col)
		switch {
		case err != nil:
			r.Status = StatusFail
			r.Message = "table missing or unreadable"
			r.Details = err.Error()
		case n == 0:
			r.Status = StatusWarn
			r.Message = "no titles; searches will return nothing"
		default:
			r.Status = StatusPass
			r.Message = fmt.Sprintf("%d titles", n)
		}
		results = append(results, r)
	}
	return results
}

// CheckPIDFile warns when a live server already holds path.
func (c *Checker) CheckPIDFile(path string) CheckResult {
	result := CheckResult{Name: "pid_file"}

	pf := server.NewPIDFile(path)
	pid, err := pf.Read()
	switch {
	case errors.Is(err, server.ErrPIDFileNotFound):
		result.Status = StatusPass
		result.Message = "not held"
	case err != nil:
		result.Status = StatusWarn
		result.Message = err.Error()
	case pf.IsRunning():
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("server already running (pid %d)", pid)
	default:
		result.Status = StatusPass
		result.Message = fmt.Sprintf("stale (pid %d), will be replaced", pid)
	}
	return result
}

// CheckListenAddr reports whether addr can be bound.
func (c *Checker) CheckListenAddr(addr string) CheckResult {
	result := CheckResult{Name: "listen_addr"}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("%s unavailable", addr)
		result.Details = err.Error()
		return result
	}
	_ = ln.Close()

	result.Status = StatusPass
	result.Message = addr
	return result
}

func displayPath(path string) string {
	if path == "" {
		return "in-memory"
	}
	return path
}

func driverName(driver string) string {
	if driver == "" {
		return store.DriverSQLite
	}
	return driver
}
