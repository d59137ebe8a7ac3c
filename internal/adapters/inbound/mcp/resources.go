package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const resultsURIPrefix = "buildtrace://results/"

// registerResources registers all BuildTrace MCP resources on the given server.
func registerResources(s *server.MCPServer, deps Deps) {
	// 1. buildtrace://metrics - current metrics snapshot
	s.AddResource(
		mcplib.NewResource(
			"buildtrace://metrics",
			"Job Metrics",
			mcplib.WithResourceDescription("Current job metrics snapshot"),
			mcplib.WithMIMEType("application/json"),
		),
		handleJSONResource("buildtrace://metrics", func() any { return deps.Metrics.Snapshot() }),
	)

	// 2. buildtrace://health - anomaly warnings
	s.AddResource(
		mcplib.NewResource(
			"buildtrace://health",
			"Health",
			mcplib.WithResourceDescription("Anomaly warnings derived from the job metrics"),
			mcplib.WithMIMEType("application/json"),
		),
		handleJSONResource("buildtrace://health", func() any { return deps.Metrics.Health() }),
	)

	// 3. buildtrace://results/{job_id} - persisted result document (resource template)
	s.AddResourceTemplate(
		mcplib.NewResourceTemplate(
			resultsURIPrefix+"{job_id}",
			"Job Result",
			mcplib.WithTemplateDescription("Result document persisted by a completed comparison job"),
			mcplib.WithTemplateMIMEType("application/json"),
		),
		handleResultResource(deps),
	)
}

func handleJSONResource(uri string, value func() any) server.ResourceHandlerFunc {
	return func(_ context.Context, _ mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
		data, err := json.MarshalIndent(value(), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling %s: %w", uri, err)
		}

		return []mcplib.ResourceContents{
			mcplib.TextResourceContents{
				URI:      uri,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	}
}

func handleResultResource(deps Deps) server.ResourceTemplateHandlerFunc {
	return func(ctx context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
		jobID := templateArg(request.Params.Arguments["job_id"])
		if jobID == "" {
			jobID = strings.TrimPrefix(request.Params.URI, resultsURIPrefix)
		}
		if jobID == "" {
			return nil, fmt.Errorf("job id is required")
		}

		data, err := deps.Results.Read(ctx, deps.Compare.ResultURI(jobID))
		if err != nil {
			return nil, fmt.Errorf("reading result of job %s: %w", jobID, err)
		}

		return []mcplib.ResourceContents{
			mcplib.TextResourceContents{
				URI:      request.Params.URI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	}
}

// templateArg unwraps a URI template variable, which arrives as a string or
// a list of strings depending on the matcher.
func templateArg(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []string:
		if len(t) > 0 {
			return t[0]
		}
	}
	return ""
}
