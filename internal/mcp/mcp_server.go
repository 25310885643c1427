// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/sonarissues/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the export MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, source contract.IssueSource, mgr contract.HistoryManager) *server.MCPServer {
	s := server.NewMCPServer(
		"SonarCloud Issues Export Server",
		baseCfg.Version,
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		source:  source,
		mgr:     mgr,
	}

	// --- 1. Tool: export_issues ---
	s.AddTool(mcp.NewTool("export_issues",
		mcp.WithDescription("Fetch SonarCloud issues for the configured project. Without formats the normalized issues are returned as JSON; with formats they are written to files."),
		mcp.WithString("scope", mcp.Description("Which part of the project to export. Defaults to the configured default branch."),
			mcp.Enum("default-branch", "branch", "pull-request", "all-branches")),
		mcp.WithString("value", mcp.Description("Branch name for 'branch' or pull request id for 'pull-request'.")),
		mcp.WithString("severities", mcp.Description("Comma-separated severities (BLOCKER, CRITICAL, MAJOR, MINOR, INFO). Empty means all.")),
		mcp.WithString("statuses", mcp.Description("Comma-separated extra statuses (CONFIRMED, REOPENED, RESOLVED, CLOSED, REVIEWED). OPEN is always included.")),
		mcp.WithString("formats", mcp.Description("Comma-separated output formats (parquet, csv, json) to write to disk.")),
		mcp.WithString("output_dir", mcp.Description("Directory for written files (defaults to the current directory).")),
	), h.handleExportIssues)

	// --- 2. Tool: list_export_runs ---
	s.AddTool(mcp.NewTool("list_export_runs",
		mcp.WithDescription("List recorded export runs, most recent first. Requires export history to be enabled."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of runs to return (default 20).")),
	), h.handleListExportRuns)

	return s
}

// StartMCPServer starts the export MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, source contract.IssueSource, mgr contract.HistoryManager) error {
	s := NewMCPServer(baseCfg, source, mgr)
	return server.ServeStdio(s)
}
