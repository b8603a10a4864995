// Package server exposes amalgamation over MCP so editor agents can
// request ordered declaration listings and query the symbol index.
package server

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"amalgam/internal/config"
	"amalgam/internal/store"
)

const systemPrompt = `# Amalgam MCP Server

Amalgam scans C/C++ sources, deduplicates top-level declarations by
identity, and orders them so every declaration follows the named types it
depends on.

Tools:
- amalgamate: scan paths and return the dependency-ordered header text
- get_symbols_in_file: list indexed declarations of one file
- find_dependents: list declarations that depend on a named symbol

Run amalgamate before querying symbols; queries read the sqlite index the
last amalgamate call produced.`

// Server is the MCP server wiring around one workspace.
type Server struct {
	mcpServer *mcp.Server
	store     *store.Store
	workspace string
	cfg       *config.Config
}

// New creates a server rooted at workspace. The store may be nil, in which
// case index-backed tools report that no index exists.
func New(workspace string, st *store.Store, cfg *config.Config) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Server{
		store:     st,
		workspace: workspace,
		cfg:       cfg,
	}
	s.mcpServer = mcp.NewServer(&mcp.Implementation{
		Name:    "amalgam",
		Version: "0.1.0",
	}, nil)
	s.registerTools()
	s.registerResources()
	return s
}

// Run serves MCP over stdio until the context is canceled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}
