package mcp

import (
	"github.com/buildtrace/buildtrace/internal/application"
	"github.com/buildtrace/buildtrace/internal/domain"
	"github.com/mark3labs/mcp-go/server"
)

// Deps are the services the MCP tools and resources call into.
type Deps struct {
	Compare *application.CompareService
	Metrics domain.MetricsReader
	Results domain.SnapshotReader
}

// NewBuildTraceMCPServer creates an MCP server with all BuildTrace tools and
// resources registered.
func NewBuildTraceMCPServer(deps Deps, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"buildtrace",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	registerTools(s, deps)
	registerResources(s, deps)

	return s
}
