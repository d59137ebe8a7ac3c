package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/buildtrace/buildtrace/internal/domain"
	"github.com/google/uuid"
	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// registerTools registers all BuildTrace MCP tools on the given server.
func registerTools(s *server.MCPServer, deps Deps) {
	// 1. buildtrace_diff
	s.AddTool(
		mcplib.NewTool("buildtrace_diff",
			mcplib.WithDescription("Compare two drawing snapshots given inline as JSON and return added, removed and moved objects with a summary"),
			mcplib.WithString("version_a",
				mcplib.Required(),
				mcplib.Description("Earlier snapshot: a JSON array of objects or {\"objects\": [...]}"),
			),
			mcplib.WithString("version_b",
				mcplib.Required(),
				mcplib.Description("Later snapshot, same format as version_a"),
			),
		),
		handleDiff(deps),
	)

	// 2. buildtrace_compare
	s.AddTool(
		mcplib.NewTool("buildtrace_compare",
			mcplib.WithDescription("Run a comparison job on two stored snapshots (file path, gs:// or git:// URI), persist the result and record it in the job metrics"),
			mcplib.WithString("a", mcplib.Required(), mcplib.Description("URI of the earlier snapshot")),
			mcplib.WithString("b", mcplib.Required(), mcplib.Description("URI of the later snapshot")),
			mcplib.WithString("drawing_id", mcplib.Description("Drawing identifier (defaults to the job id)")),
		),
		handleCompare(deps),
	)

	// 3. buildtrace_metrics
	s.AddTool(
		mcplib.NewTool("buildtrace_metrics",
			mcplib.WithDescription("Returns job latency percentiles, success rate, failure counts and hourly change buckets"),
		),
		handleMetrics(deps),
	)

	// 4. buildtrace_health
	s.AddTool(
		mcplib.NewTool("buildtrace_health",
			mcplib.WithDescription("Returns the anomaly warnings currently triggered by the job metrics"),
		),
		handleHealth(deps),
	)
}

type diffResult struct {
	domain.ChangeSet
	Summary string             `json:"summary"`
	Stats   domain.ChangeStats `json:"stats"`
}

func handleDiff(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		rawA, err := request.RequireString("version_a")
		if err != nil {
			return errorResult(err.Error()), nil
		}
		rawB, err := request.RequireString("version_b")
		if err != nil {
			return errorResult(err.Error()), nil
		}

		a, err := domain.DecodeSnapshot([]byte(rawA))
		if err != nil {
			return errorResult(fmt.Sprintf("version_a: %v", err)), nil
		}
		b, err := domain.DecodeSnapshot([]byte(rawB))
		if err != nil {
			return errorResult(fmt.Sprintf("version_b: %v", err)), nil
		}

		cs, text := deps.Compare.Compare(ctx, a, b)
		return jsonResult(diffResult{ChangeSet: cs, Summary: text, Stats: cs.Stats()})
	}
}

func handleCompare(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		a, err := request.RequireString("a")
		if err != nil {
			return errorResult(err.Error()), nil
		}
		b, err := request.RequireString("b")
		if err != nil {
			return errorResult(err.Error()), nil
		}

		job := domain.Job{JobID: uuid.NewString(), A: a, B: b}
		job.DrawingID = request.GetString("drawing_id", job.JobID)

		doc, err := deps.Compare.Process(ctx, job)
		if err != nil {
			if kind := domain.KindOf(err); kind != domain.ErrorNone {
				return errorResult(fmt.Sprintf("job %s failed (%s): %v", job.JobID, kind, err)), nil
			}
			return errorResult(fmt.Sprintf("job %s failed: %v", job.JobID, err)), nil
		}
		return jsonResult(doc)
	}
}

func handleMetrics(deps Deps) server.ToolHandlerFunc {
	return func(_ context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		return jsonResult(deps.Metrics.Snapshot())
	}
}

func handleHealth(deps Deps) server.ToolHandlerFunc {
	return func(_ context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		return jsonResult(deps.Metrics.Health())
	}
}

// jsonResult marshals v to JSON and returns it as a text content result.
func jsonResult(v any) (*mcplib.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(string(data))},
	}, nil
}

// errorResult returns a tool result that indicates an error occurred.
func errorResult(msg string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(msg)},
		IsError: true,
	}
}
