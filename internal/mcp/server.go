package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/joescharf/asana-dump/internal/export"
	"github.com/joescharf/asana-dump/internal/models"
	"github.com/joescharf/asana-dump/internal/store"
)

// Server exposes exports and their history as MCP tools.
type Server struct {
	api     export.API
	store   store.Store
	logger  *slog.Logger
	version string
}

// NewServer creates the MCP server wrapper. The store may be nil when
// run history is disabled; the logger may be nil.
func NewServer(api export.API, s store.Store, logger *slog.Logger, version string) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{api: api, store: s, logger: logger, version: version}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("asana-dump", s.version, server.WithToolCapabilities(true))

	srv.AddTool(s.exportTool())
	srv.AddTool(s.listRunsTool())
	srv.AddTool(s.whoamiTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	stdioServer := server.NewStdioServer(s.MCPServer())
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// asana_export
func (s *Server) exportTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("asana_export",
		mcp.WithDescription("Export every unarchived Asana project visible to the configured token as a CSV file. Returns the run id, outcome and row count."),
		mcp.WithString("output", mcp.Required(), mcp.Description("Path of the CSV file to write")),
		mcp.WithBoolean("raw", mcp.Description("Write cells without escaping embedded quotes")),
		mcp.WithBoolean("remarks", mcp.Description("Append an empty Remarks cell to every row")),
	)
	return tool, s.handleExport
}

type runOut struct {
	ID         string `json:"id,omitempty"`
	Output     string `json:"output"`
	User       string `json:"user,omitempty"`
	Outcome    string `json:"outcome"`
	Rows       int    `json:"rows"`
	Error      string `json:"error,omitempty"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at,omitempty"`
}

func toRunOut(r *models.ExportRun) runOut {
	out := runOut{
		ID:        r.ID,
		Output:    r.OutputPath,
		User:      r.UserName,
		Outcome:   string(r.Outcome),
		Rows:      r.Rows,
		Error:     r.Error,
		StartedAt: r.StartedAt.Format(time.RFC3339),
	}
	if r.FinishedAt != nil {
		out.FinishedAt = r.FinishedAt.Format(time.RFC3339)
	}
	return out
}

func (s *Server) handleExport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	output, err := request.RequireString("output")
	if err != nil || output == "" {
		return mcp.NewToolResultError("missing required parameter: output"), nil
	}

	e := export.New(export.Config{
		API:     s.api,
		Logger:  s.logger,
		Raw:     request.GetBool("raw", false),
		Remarks: request.GetBool("remarks", false),
	})

	var rec export.Recorder
	if s.store != nil {
		rec = s.store
	}
	run, res := e.RunRecorded(ctx, output, rec)

	data, err := json.Marshal(toRunOut(run))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal run: %v", err)), nil
	}
	result := mcp.NewToolResultText(string(data))
	result.IsError = !res.OK()
	return result, nil
}

// asana_list_runs
func (s *Server) listRunsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("asana_list_runs",
		mcp.WithDescription("List recent export runs, newest first."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of runs to return (default 20)")),
	)
	return tool, s.handleListRuns
}

func (s *Server) handleListRuns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.store == nil {
		return mcp.NewToolResultError("run history is disabled"), nil
	}

	runs, err := s.store.ListExportRuns(ctx, request.GetInt("limit", 20))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list runs: %v", err)), nil
	}

	out := make([]runOut, len(runs))
	for i, r := range runs {
		out[i] = toRunOut(r)
	}

	data, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal runs: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// asana_whoami
func (s *Server) whoamiTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("asana_whoami",
		mcp.WithDescription("Show the Asana user the configured token authenticates as."),
	)
	return tool, s.handleWhoami
}

func (s *Server) handleWhoami(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	me, err := s.api.Me(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to fetch current user: %v", err)), nil
	}

	data, err := json.Marshal(me)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal user: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
