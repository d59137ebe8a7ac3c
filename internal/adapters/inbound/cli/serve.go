package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/buildtrace/buildtrace/internal/adapters/inbound/httpapi"
	"github.com/buildtrace/buildtrace/internal/adapters/outbound/queue"
	"github.com/buildtrace/buildtrace/internal/application"
	"github.com/buildtrace/buildtrace/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(opts *globalOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long:  "Serve POST /process, POST /worker, POST /diff, GET /metrics, GET /health and GET /metrics/prometheus.",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.runtime(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			q := queue.NewKafkaQueue(rt.cfg.Queue, rt.logger)
			defer q.Close()

			return httpapi.Serve(ctx, listenAddr(addr, rt.cfg), rt.router(q), rt.logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to server.addr)")

	return cmd
}

func newWorkerCmd(opts *globalOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Consume jobs from Kafka and serve metrics over HTTP",
		Long:  "Join the configured consumer group, process each queued job and expose the HTTP API for metrics and health while running.",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.runtime(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			q := queue.NewKafkaQueue(rt.cfg.Queue, rt.logger)
			defer q.Close()
			consumer := queue.NewConsumer(rt.cfg.Queue, rt.logger).WithReject(func(jobID string, cause error) {
				_ = rt.compare.Reject(jobID, cause)
			})
			defer consumer.Close()

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return consumer.Run(gctx, func(ctx context.Context, job domain.Job) error {
					_, err := rt.compare.Process(ctx, job)
					return err
				})
			})
			g.Go(func() error {
				return httpapi.Serve(gctx, listenAddr(addr, rt.cfg), rt.router(q), rt.logger)
			})
			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address for metrics and health (defaults to server.addr)")

	return cmd
}

func (rt *runtime) router(q domain.JobQueue) *gin.Engine {
	if !rt.logger.Enabled(context.Background(), slog.LevelDebug) {
		gin.SetMode(gin.ReleaseMode)
	}
	dispatch := application.NewDispatchService(q, rt.compare, rt.logger)
	h := httpapi.NewHandlers(dispatch, rt.compare, rt.tracker, rt.logger).
		WithTopic(rt.cfg.Queue.Topic).
		WithPrometheus(rt.exporter.Handler())
	return httpapi.NewRouter(h)
}

func listenAddr(flag string, cfg domain.Config) string {
	if flag != "" {
		return flag
	}
	return cfg.Server.Addr
}
