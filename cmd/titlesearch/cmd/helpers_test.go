package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeTestConfig writes a YAML config whose catalog lives in a temp dir
// and whose logging is off.
func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "titlesearch.yaml")
	content := fmt.Sprintf(`database:
  path: %s
indexer:
  batch_size: 2
logging:
  enabled: false
`, filepath.Join(dir, "catalog.db"))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// runCLI executes the root command with args and returns its stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

// seedCatalog adds a few movie, recipe and game titles through the CLI.
func seedCatalog(t *testing.T, configPath string) {
	t.Helper()
	rows := [][]string{
		{"-c", "MOVIE", "-l", "EN", "1", "The", "Queen"},
		{"-c", "MOVIE", "-l", "EN", "2", "The", "Queen's", "Gambit"},
		{"-c", "MOVIE", "-l", "EN", "3", "King", "Kong"},
		{"-c", "MOVIE", "-l", "ES", "4", "La", "Reina", "del", "Sur"},
		{"-c", "RECIPE", "-l", "ES", "10", "Tarta", "de", "queso"},
		{"-c", "GAME", "20", "Space", "Invaders"},
	}
	for _, row := range rows {
		args := append([]string{"--config", configPath, "db", "add"}, row...)
		_, err := runCLI(t, args...)
		require.NoError(t, err, row)
	}
}
