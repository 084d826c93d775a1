package logging

import (
	"log/slog"
)

// SetupFileOnly initializes logging for commands that own the terminal and
// installs it as the default logger.
//
// The MCP server uses stdout for JSON-RPC and the browser draws over the
// whole screen, so logs go only to the file (DefaultLogPath when cfg has
// none), never to stdout or stderr.
func SetupFileOnly(cfg Config) (func(), error) {
	cfg.WriteToStderr = false
	if cfg.FilePath == "" {
		cfg.FilePath = DefaultLogPath()
	}

	logger, cleanup, err := Setup(cfg)
	if err != nil {
		return nil, err
	}

	slog.SetDefault(logger)
	slog.Info("file-only logging initialized",
		slog.String("log_file", cfg.FilePath),
		slog.String("level", cfg.Level))

	return cleanup, nil
}
