// Package mcp exposes the local workspace read-only over the Model Context
// Protocol so AI tooling can browse analyzed notes.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"insight-cli/internal/state"
	"insight-cli/internal/version"
)

// Server wraps the MCP stdio server around a workspace.
type Server struct {
	ws        *state.Workspace
	mcpServer *server.MCPServer
}

// NewServer creates an MCP server instance over the workspace.
func NewServer(ws *state.Workspace) *Server {
	s := &Server{ws: ws}

	s.mcpServer = server.NewMCPServer(
		"insight",
		version.GetMCPVersion(),
	)

	s.registerTools()
	return s
}

// Start serves MCP over stdio until the client disconnects.
func (s *Server) Start() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "search_notes",
		Description: "Search analyzed notes by keyword across title, content and analysis tags, optionally restricted to one folder.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Keyword to match against note title, content and tags. Empty returns the latest notes.",
				},
				"folder": map[string]interface{}{
					"type":        "string",
					"description": "Folder id to restrict the search to. Omit or use 'all' for every note.",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (default: 20)",
				},
			},
		},
	}, s.handleSearchNotes)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_note",
		Description: "Get a single analyzed note by result id, including the full AI analysis.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "string",
					"description": "Result id",
				},
			},
			Required: []string{"id"},
		},
	}, s.handleGetNote)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "list_folders",
		Description: "Get all folders with note counts.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, s.handleListFolders)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "workspace_stats",
		Description: "Get workspace statistics: note totals, average engagement, credential health and top tags.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, s.handleStats)
}
