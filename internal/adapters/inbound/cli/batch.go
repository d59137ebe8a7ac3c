package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/buildtrace/buildtrace/internal/adapters/outbound/gitsource"
	"github.com/buildtrace/buildtrace/internal/adapters/outbound/history"
	"github.com/buildtrace/buildtrace/internal/adapters/outbound/queue"
	"github.com/buildtrace/buildtrace/internal/adapters/outbound/tui"
	"github.com/buildtrace/buildtrace/internal/application"
	"github.com/buildtrace/buildtrace/internal/domain"
	"github.com/spf13/cobra"
)

type batchOutput struct {
	Report  *domain.BatchReport    `json:"report"`
	Metrics domain.MetricsSnapshot `json:"metrics"`
	Health  domain.Health          `json:"health"`
}

func newBatchCmd(opts *globalOptions) *cobra.Command {
	var (
		concurrency int
		jsonOutput  bool
		strict      bool
		noHistory   bool
	)

	cmd := &cobra.Command{
		Use:   "batch MANIFEST",
		Short: "Process every pair of a manifest locally",
		Long:  "Run the comparison job for every manifest pair in-process, persist the results and print the batch report with job metrics and health.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.runtime(cmd)
			if err != nil {
				return err
			}
			m, err := loadManifest(cmd.Context(), rt.store, args[0])
			if err != nil {
				return err
			}
			if concurrency <= 0 {
				concurrency = rt.cfg.Worker.Concurrency
			}

			dispatch := application.NewDispatchService(nil, rt.compare, rt.logger)
			report, err := dispatch.RunLocal(cmd.Context(), m, concurrency)
			if err != nil {
				return err
			}

			snap, health := rt.tracker.Snapshot(), rt.tracker.Health()
			if !noHistory {
				entry := history.Entry(args[0], report, snap, health)
				entry.Timestamp = time.Now().UTC().Format(time.RFC3339)
				if hash, err := gitsource.New(".").CommitHash("HEAD"); err == nil {
					entry.CommitHash = hash
				}
				if err := history.New().Save(opts.configDir, entry); err != nil {
					rt.logger.Warn("saving run history", slog.String("error", err.Error()))
				}
			}

			if jsonOutput {
				if err := renderJSON(cmd, batchOutput{Report: report, Metrics: snap, Health: health}); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				fmt.Fprint(out, tui.RenderBatch(report))
				fmt.Fprint(out, tui.RenderMetrics(snap))
				fmt.Fprint(out, tui.RenderHealth(health))
			}

			if strict && len(report.Failed) > 0 {
				return fmt.Errorf("%d of %d jobs failed", len(report.Failed), len(report.Jobs))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Jobs in flight (defaults to worker.concurrency)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output report, metrics and health as JSON")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit with an error if any job failed")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not append this run to the run history")

	return cmd
}

func newEnqueueCmd(opts *globalOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "enqueue MANIFEST",
		Short: "Publish one job per manifest pair to Kafka",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.runtime(cmd)
			if err != nil {
				return err
			}
			m, err := loadManifest(cmd.Context(), rt.store, args[0])
			if err != nil {
				return err
			}

			q := queue.NewKafkaQueue(rt.cfg.Queue, rt.logger)
			defer q.Close()

			jobs, err := application.NewDispatchService(q, nil, rt.logger).Enqueue(cmd.Context(), m)
			if err != nil {
				return err
			}

			if jsonOutput {
				return renderJSON(cmd, jobs)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "enqueued %d jobs to %s\n", len(jobs), rt.cfg.Queue.Topic)
			for _, j := range jobs {
				fmt.Fprintf(out, "  %s  %s\n", j.JobID, j.DrawingID)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the enqueued jobs as JSON")

	return cmd
}

func newHistoryCmd(opts *globalOptions) *cobra.Command {
	var (
		jsonOutput bool
		last       int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past batch runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := history.New().Recent(opts.configDir, last)
			if err != nil {
				return fmt.Errorf("loading history: %w", err)
			}
			if jsonOutput {
				return renderJSON(cmd, entries)
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderHistory(entries))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output history as JSON")
	cmd.Flags().IntVar(&last, "last", 0, "Show only the newest N runs (0 for all)")

	return cmd
}
