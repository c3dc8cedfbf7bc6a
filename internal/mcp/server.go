package mcp

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/dshills/garmentfinder-mcp/internal/app"
)

const (
	// ServerName is the MCP server name
	ServerName = "garmentfinder-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp    *server.MCPServer
	app    *app.App
	logger zerolog.Logger
}

// NewServer creates a new MCP server over an assembled application.
// The caller keeps ownership of a and closes it after Serve returns.
func NewServer(a *app.App, logger zerolog.Logger) (*Server, error) {
	if a == nil {
		return nil, errors.New("application is required")
	}

	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
	)

	s := &Server{
		mcp:    mcpServer,
		app:    a,
		logger: logger.With().Str("component", "mcp").Logger(),
	}

	s.registerTools()

	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info().Str("server", ServerName).Str("version", ServerVersion).Msg("listening on stdio")
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(findGarmentsTool(), s.handleFindGarments)
	s.mcp.AddTool(analyzeQueryTool(), s.handleAnalyzeQuery)
	s.mcp.AddTool(browseGarmentsTool(), s.handleBrowseGarments)
	s.mcp.AddTool(listCategoriesTool(), s.handleListCategories)
	s.mcp.AddTool(updateGarmentTool(), s.handleUpdateGarment)
	s.mcp.AddTool(importCatalogTool(), s.handleImportCatalog)
	s.mcp.AddTool(chatHistoryTool(), s.handleChatHistory)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}
