package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the job service routes:
//
//	POST /process             enqueue a manifest
//	POST /worker              push endpoint for one queued job
//	POST /diff                compare two inline snapshots
//	GET  /metrics             metrics snapshot as JSON
//	GET  /health              anomaly warnings
//	GET  /metrics/prometheus  Prometheus exposition, when configured
func RegisterRoutes(r gin.IRouter, h *Handlers) {
	r.POST("/process", h.HandleProcess)
	r.POST("/worker", h.HandleWorker)
	r.POST("/diff", h.HandleDiff)
	r.GET("/metrics", h.HandleMetrics)
	r.GET("/health", h.HandleHealth)
	if h.prom != nil {
		r.GET("/metrics/prometheus", gin.WrapH(h.prom))
	}
}

// NewRouter builds a gin engine with recovery, request logging and all routes.
func NewRouter(h *Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.logger))
	RegisterRoutes(r, h)
	return r
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)))
	}
}

// Serve runs handler on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
