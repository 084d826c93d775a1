package preflight

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/titlesearch/internal/store"
)

func TestCheckStatus_String(t *testing.T) {
	tests := []struct {
		status CheckStatus
		want   string
	}{
		{StatusPass, "PASS"},
		{StatusWarn, "WARN"},
		{StatusFail, "FAIL"},
		{CheckStatus(9), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.String())
		})
	}
}

func TestCheckResult_JSONUsesStatusName(t *testing.T) {
	data, err := json.Marshal(CheckResult{Name: "catalog", Status: StatusWarn})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"status":"WARN"`)
}

func TestCheckResult_IsCritical(t *testing.T) {
	tests := []struct {
		name     string
		result   CheckResult
		expected bool
	}{
		{"required pass is not critical", CheckResult{Status: StatusPass, Required: true}, false},
		{"required fail is critical", CheckResult{Status: StatusFail, Required: true}, true},
		{"optional fail is not critical", CheckResult{Status: StatusFail}, false},
		{"required warn is not critical", CheckResult{Status: StatusWarn, Required: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.result.IsCritical())
		})
	}
}

func TestChecker_SummaryStatus(t *testing.T) {
	checker := New()

	tests := []struct {
		name     string
		results  []CheckResult
		expected string
	}{
		{"all pass", []CheckResult{{Status: StatusPass}, {Status: StatusPass}}, "ready"},
		{"with warnings", []CheckResult{{Status: StatusPass}, {Status: StatusWarn}}, "ready_with_warnings"},
		{"with critical failure", []CheckResult{{Status: StatusPass}, {Status: StatusFail, Required: true}}, "failed"},
		{"with optional failure", []CheckResult{{Status: StatusPass}, {Status: StatusFail}}, "ready_with_warnings"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, checker.SummaryStatus(tt.results))
			assert.Equal(t, tt.expected == "failed", checker.HasCriticalFailures(tt.results))
		})
	}
}

func TestChecker_CheckWritePermissions(t *testing.T) {
	checker := New()

	result := checker.CheckWritePermissions(t.TempDir())
	assert.Equal(t, StatusPass, result.Status)

	result = checker.CheckWritePermissions(filepath.Join(t.TempDir(), "missing"))
	assert.Equal(t, StatusFail, result.Status)
	assert.True(t, result.IsCritical())
}

func TestChecker_RunAll_HealthyCatalog(t *testing.T) {
	// Given: an initialized catalog with titles in every collection
	ctx := context.Background()
	dir := t.TempDir()
	cfg := store.CatalogConfig{Path: filepath.Join(dir, "catalog.db")}
	db, err := store.OpenCatalog(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, store.InitCatalogSchema(ctx, db))
	for i, c := range store.AllCollections() {
		require.NoError(t, store.InsertTitle(ctx, db, c, store.LanguageEN, uint64(i+1), "Title"))
	}
	require.NoError(t, db.Close())

	// When: running all checks
	checker := New()
	results := checker.RunAll(ctx, Target{
		Catalog:    cfg,
		ListenAddr: "127.0.0.1:0",
		PIDFile:    filepath.Join(dir, "titlesearch.pid"),
	})

	// Then: every check ran and none failed critically
	byName := map[string]CheckResult{}
	for _, r := range results {
		byName[r.Name] = r
	}
	for _, name := range []string{
		"catalog", "catalog_movie", "catalog_tv", "catalog_recipe", "catalog_game",
		"disk_space", "file_descriptors", "write_permissions", "pid_file", "listen_addr",
	} {
		assert.Contains(t, byName, name)
	}
	assert.Equal(t, StatusPass, byName["catalog"].Status)
	assert.Equal(t, "1 titles", byName["catalog_movie"].Message)
	assert.Equal(t, StatusPass, byName["listen_addr"].Status)
	assert.Equal(t, "not held", byName["pid_file"].Message)
	assert.False(t, checker.HasCriticalFailures(results))
}

func TestChecker_CheckCatalog_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.db")

	results := New().CheckCatalog(context.Background(), store.CatalogConfig{Path: path})

	require.Len(t, results, 1)
	assert.True(t, results[0].IsCritical())
	assert.Contains(t, results[0].Message, "not found")
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "doctor must not create the catalog")
}

func TestChecker_CheckCatalog_NoSchema(t *testing.T) {
	// Given: an empty SQLite file without tables
	ctx := context.Background()
	cfg := store.CatalogConfig{Path: filepath.Join(t.TempDir(), "empty.db")}
	db, err := store.OpenCatalog(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, db.PingContext(ctx))
	require.NoError(t, db.Close())

	// When: checking the catalog
	results := New().CheckCatalog(ctx, cfg)

	// Then: the connection passes and each collection fails without being critical
	require.Len(t, results, 1+len(store.AllCollections()))
	assert.Equal(t, StatusPass, results[0].Status)
	for _, r := range results[1:] {
		assert.Equal(t, StatusFail, r.Status, r.Name)
		assert.False(t, r.IsCritical())
	}
}

func TestChecker_CheckCatalog_UnknownDriver(t *testing.T) {
	results := New().CheckCatalog(context.Background(), store.CatalogConfig{Driver: "postgres"})
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Message, "unknown database driver")
}

func TestChecker_CheckPIDFile(t *testing.T) {
	checker := New()
	dir := t.TempDir()

	// Our own PID is alive.
	self := filepath.Join(dir, "self.pid")
	require.NoError(t, os.WriteFile(self, []byte(strconv.Itoa(os.Getpid())), 0644))
	result := checker.CheckPIDFile(self)
	assert.Equal(t, StatusWarn, result.Status)
	assert.Contains(t, result.Message, "already running")

	garbage := filepath.Join(dir, "garbage.pid")
	require.NoError(t, os.WriteFile(garbage, []byte("not-a-pid"), 0644))
	assert.Equal(t, StatusWarn, checker.CheckPIDFile(garbage).Status)

	assert.Equal(t, StatusPass, checker.CheckPIDFile(filepath.Join(dir, "absent.pid")).Status)
}

func TestChecker_CheckListenAddr_InUse(t *testing.T) {
	// Given: a port already bound
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()

	// When: checking the same address
	result := New().CheckListenAddr(ln.Addr().String())

	// Then: it warns without failing the run
	assert.Equal(t, StatusWarn, result.Status)
	assert.Contains(t, result.Message, "unavailable")
	assert.False(t, result.IsCritical())
}

func TestChecker_PrintResults(t *testing.T) {
	results := []CheckResult{
		{Name: "disk_space", Status: StatusPass, Message: "50 GB free"},
		{Name: "catalog_tv", Status: StatusWarn, Message: "no titles", Details: "seed it"},
		{Name: "catalog", Status: StatusFail, Message: "unreachable", Required: true},
	}

	buf := &bytes.Buffer{}
	New(WithOutput(buf), WithVerbose(true)).PrintResults(results)

	out := buf.String()
	assert.Contains(t, out, "[PASS] disk_space: 50 GB free")
	assert.Contains(t, out, "[WARN] catalog_tv")
	assert.Contains(t, out, "seed it")
	assert.Contains(t, out, "[FAIL] catalog")
	assert.Contains(t, out, "Status: FAILED")
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 bytes", formatBytes(512))
	assert.Equal(t, "1.5 KB", formatBytes(1536))
	assert.Equal(t, "100.0 MB", formatBytes(MinDiskSpaceBytes))
	assert.Equal(t, "2.0 GB", formatBytes(2<<30))
}

func TestRequiredDiskSpace(t *testing.T) {
	assert.Equal(t, uint64(MinDiskSpaceBytes), requiredDiskSpace(0))
	assert.Equal(t, uint64(MinDiskSpaceBytes), requiredDiskSpace(10<<20))
	assert.Equal(t, uint64(400<<20), requiredDiskSpace(200<<20))
}

func TestCheckDiskSpace_MissingCatalogCountsAsEmpty(t *testing.T) {
	// Given: a catalog path that does not exist yet
	path := filepath.Join(t.TempDir(), "titlesearch.db")

	// When: checking the volume that will hold it
	result := New().CheckDiskSpace(path)

	// Then: the catalog is reported as empty
	assert.Equal(t, "disk_space", result.Name)
	assert.Contains(t, result.Message, "beside a 0 bytes catalog")
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestCheckDiskSpace_UnreadableDirectory(t *testing.T) {
	result := New().CheckDiskSpace(filepath.Join(t.TempDir(), "missing", "titlesearch.db"))

	assert.Equal(t, StatusFail, result.Status)
	assert.Contains(t, result.Message, "cannot stat catalog directory")
}

func TestRequiredFileDescriptors(t *testing.T) {
	assert.Equal(t, uint64(MinFileDescriptors+3), requiredFileDescriptors(0))
	assert.Equal(t, uint64(MinFileDescriptors+12), requiredFileDescriptors(4))
}

func TestCheckFileDescriptors_ReportsNeed(t *testing.T) {
	result := New().CheckFileDescriptors(4)

	assert.Equal(t, "file_descriptors", result.Name)
	assert.False(t, result.Required)
	assert.Contains(t, result.Message, "serve needs 1036")
	assert.NotEqual(t, StatusFail, result.Status)
}
