package cli

import "github.com/spf13/cobra"

var (
	version = "dev"
	commit  = "none"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	logLevel  string
	configDir string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	cmd := &cobra.Command{
		Use:           "buildtrace",
		Short:         "Track what changed between drawing revisions",
		Long:          "BuildTrace compares construction-drawing snapshots, summarizes added, removed and moved objects, and tracks job metrics and anomalies.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	cmd.PersistentFlags().StringVar(&opts.configDir, "config", ".", "Directory containing .buildtrace.yaml")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newDiffCmd(opts))
	cmd.AddCommand(newBatchCmd(opts))
	cmd.AddCommand(newHistoryCmd(opts))
	cmd.AddCommand(newEnqueueCmd(opts))
	cmd.AddCommand(newWorkerCmd(opts))
	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newSimulateCmd(opts))
	cmd.AddCommand(newMCPCmd(opts))
	return cmd
}

// NewRootCmdForTest returns the root command for testing.
func NewRootCmdForTest() *cobra.Command {
	return newRootCmd()
}

func Execute() error {
	return newRootCmd().Execute()
}
