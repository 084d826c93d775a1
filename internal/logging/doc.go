// Package logging configures log/slog for titlesearch.
//
// Logs go to stderr, to a size-rotated file, or both. With format "auto"
// stderr gets human-readable text when attached to a terminal and JSON
// otherwise; the file is always JSON. Commands that own the terminal
// (mcp, browse) log to the file only.
package logging
