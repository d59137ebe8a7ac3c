package cli

import (
	mcpadapter "github.com/buildtrace/buildtrace/internal/adapters/inbound/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

func newMCPCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "MCP server commands",
		Long:  "Commands for running the BuildTrace MCP (Model Context Protocol) server.",
	}
	cmd.AddCommand(newMCPServeCmd(opts))
	return cmd
}

func newMCPServeCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start BuildTrace MCP server (stdio)",
		Long:  "Start the BuildTrace MCP server using stdio transport. This lets AI assistants diff snapshots, run comparison jobs and read job metrics and health.",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.runtime(cmd)
			if err != nil {
				return err
			}
			s := mcpadapter.NewBuildTraceMCPServer(mcpadapter.Deps{
				Compare: rt.compare,
				Metrics: rt.tracker,
				Results: rt.store,
			}, version)
			return server.ServeStdio(s)
		},
	}
}
