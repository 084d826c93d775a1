package mcp

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/titlesearch/internal/async"
	"github.com/Aman-CERP/titlesearch/internal/server"
	"github.com/Aman-CERP/titlesearch/internal/store"
	"github.com/Aman-CERP/titlesearch/pkg/version"
)

// Searcher resolves wire names and runs a search. search.Service implements it.
type Searcher interface {
	SearchNamed(ctx context.Context, collection, language, raw string) ([]uint64, error)
}

// StatsProvider reports per-language index statistics. store.Registry implements it.
type StatsProvider interface {
	Collection() store.Collection
	Stats() []store.LanguageStats
}

// Server is the MCP server for titlesearch.
type Server struct {
	mcp      *mcp.Server
	searcher Searcher
	stats    []StatsProvider
	progress *async.Progress
	logger   *slog.Logger
}

// NewServer creates a new MCP server. progress may be nil, in which case
// the index is reported ready.
func NewServer(searcher Searcher, stats []StatsProvider, progress *async.Progress, logger *slog.Logger) (*Server, error) {
	if searcher == nil {
		return nil, errors.New("searcher is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		searcher: searcher,
		stats:    stats,
		progress: progress,
		logger:   logger,
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "titlesearch",
			Version: version.Version,
		},
		nil, // capabilities are inferred from registered tools
	)
	s.registerTools()

	return s, nil
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "search_titles",
		Description: "Type-ahead title search. Every keyword but the last must match a whole word of the title; " +
			"the last keyword matches as a prefix. Returns up to 75 ids, best match first.",
	}, s.mcpSearchTitlesHandler)
	s.logger.Debug("Registered tool", slog.String("name", "search_titles"))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "index_status",
		Description: "Report whether the title indexes have been built and how many titles each collection and language holds.",
	}, s.mcpIndexStatusHandler)
	s.logger.Debug("Registered tool", slog.String("name", "index_status"))
}

func (s *Server) mcpSearchTitlesHandler(ctx context.Context, _ *mcp.CallToolRequest, input SearchTitlesInput) (
	*mcp.CallToolResult,
	SearchTitlesOutput,
	error,
) {
	if input.Collection == "" {
		return nil, SearchTitlesOutput{}, NewInvalidParamsError("collection parameter is required")
	}
	language := input.Language
	if language == "" {
		language = server.DefaultLanguage
	}

	start := time.Now()
	requestID := uuid.NewString()

	ids, err := s.searcher.SearchNamed(ctx, input.Collection, language, input.Keywords)
	if err != nil {
		s.logger.Warn("search_titles failed",
			slog.String("request_id", requestID),
			slog.Duration("duration", time.Since(start)),
			slog.String("error", err.Error()))
		return nil, SearchTitlesOutput{}, MapError(err)
	}
	if ids == nil {
		ids = []uint64{}
	}

	s.logger.Info("search_titles completed",
		slog.String("request_id", requestID),
		slog.Duration("duration", time.Since(start)),
		slog.Int("result_count", len(ids)))

	return nil, SearchTitlesOutput{
		Collection: input.Collection,
		Language:   language,
		IDs:        ids,
	}, nil
}

func (s *Server) mcpIndexStatusHandler(_ context.Context, _ *mcp.CallToolRequest, _ IndexStatusInput) (
	*mcp.CallToolResult,
	IndexStatusOutput,
	error,
) {
	return nil, s.indexStatus(), nil
}

func (s *Server) indexStatus() IndexStatusOutput {
	out := IndexStatusOutput{
		Ready:       true,
		Indexer:     IndexerInfo{Status: string(async.StatusReady), Outcomes: []OutcomeInfo{}},
		Collections: make([]CollectionInfo, 0, len(s.stats)),
	}
	if s.progress != nil {
		out.Ready = s.progress.IsReady()
		out.Indexer = toIndexerInfo(s.progress.Snapshot())
	}
	for _, p := range s.stats {
		out.Collections = append(out.Collections, CollectionInfo{
			Name:      p.Collection().String(),
			Languages: p.Stats(),
		})
	}
	return out
}

// Serve runs the server on stdio until ctx is cancelled or the client disconnects.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("Starting MCP server", slog.String("transport", "stdio"))

	err := s.mcp.Run(ctx, &mcp.StdioTransport{})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("MCP server stopped with error", slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("MCP server stopped gracefully")
	return nil
}
