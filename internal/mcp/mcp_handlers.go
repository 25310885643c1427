package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/huangsam/sonarissues/core"
	"github.com/huangsam/sonarissues/internal/contract"
	"github.com/huangsam/sonarissues/internal/outwriter"
	"github.com/mark3labs/mcp-go/mcp"
)

const defaultRunLimit = 20

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	source  contract.IssueSource
	mgr     contract.HistoryManager
}

// exportSummary is returned when an export writes files.
type exportSummary struct {
	RunID  string   `json:"run_id"`
	Issues int      `json:"issues"`
	Files  []string `json:"files"`
	Errors []string `json:"errors,omitempty"`
}

func (h *toolHandler) handleExportIssues(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.baseCfg.WithRequest(contract.ExportRequest{
		Scope:      request.GetString("scope", ""),
		Value:      request.GetString("value", ""),
		Severities: request.GetString("severities", ""),
		Statuses:   request.GetString("statuses", ""),
		Formats:    request.GetString("formats", ""),
		OutputDir:  request.GetString("output_dir", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid export parameters: %v", err)), nil
	}
	if err := cfg.RequireCredentials(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	ctx = core.WithSuppressHeader(ctx)

	if len(cfg.Formats) == 0 {
		canonical, err := core.FetchCanonical(ctx, cfg, h.source)
		if err != nil && !errors.Is(err, core.ErrNoIssues) {
			return mcp.NewToolResultError(fmt.Sprintf("export failed: %v", err)), nil
		}
		jsonData, _ := json.MarshalIndent(outwriter.NewExportDocument(canonical.Issues, canonical.Metadata), "", "  ")
		return mcp.NewToolResultText(string(jsonData)), nil
	}

	ow := outwriter.NewOutWriter()
	outcome, err := core.ExecuteExport(ctx, cfg, h.source, h.mgr, ow)
	if errors.Is(err, core.ErrNoIssues) {
		return mcp.NewToolResultText(outwriter.TroubleshootingMarkdown(cfg.BaseURL, cfg.SonarContext())), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("export failed: %v", err)), nil
	}

	summary := exportSummary{
		RunID:  outcome.RunID,
		Issues: len(outcome.Issues),
		Files:  outcome.Report.Paths(),
	}
	for _, e := range outcome.Report.Errors {
		summary.Errors = append(summary.Errors, e.Error())
	}
	jsonData, _ := json.MarshalIndent(summary, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleListExportRuns(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var store contract.HistoryStore
	if h.mgr != nil {
		store = h.mgr.GetHistoryStore()
	}
	if store == nil {
		return mcp.NewToolResultError("export history is disabled. Start the server with --history-backend"), nil
	}

	limit := request.GetInt("limit", defaultRunLimit)
	if limit < 0 {
		return mcp.NewToolResultError("limit cannot be negative"), nil
	}

	runs, err := store.ListRuns(limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing export runs failed: %v", err)), nil
	}
	jsonData, _ := json.MarshalIndent(runs, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
