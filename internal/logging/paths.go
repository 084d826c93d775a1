package logging

import (
	"os"
	"path/filepath"
)

// DefaultLogDir returns the default log directory (~/.titlesearch/logs/).
// Falls back to the temp directory if the home directory is unavailable.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".titlesearch", "logs")
	}
	return filepath.Join(home, ".titlesearch", "logs")
}

// DefaultLogPath returns the default server log path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "server.log")
}
