// Package httpapi serves the job service over HTTP.
package httpapi

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/buildtrace/buildtrace/internal/application"
	"github.com/buildtrace/buildtrace/internal/domain"
	"github.com/gin-gonic/gin"
)

// Handlers holds the services behind the HTTP routes.
type Handlers struct {
	dispatch *application.DispatchService
	compare  *application.CompareService
	metrics  domain.MetricsReader
	prom     http.Handler
	topic    string
	logger   *slog.Logger
}

func NewHandlers(
	dispatch *application.DispatchService,
	compare *application.CompareService,
	metrics domain.MetricsReader,
	logger *slog.Logger,
) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{dispatch: dispatch, compare: compare, metrics: metrics, logger: logger}
}

// WithPrometheus serves h at GET /metrics/prometheus.
func (h *Handlers) WithPrometheus(handler http.Handler) *Handlers {
	h.prom = handler
	return h
}

// WithTopic sets the queue topic reported by POST /process.
func (h *Handlers) WithTopic(topic string) *Handlers {
	h.topic = topic
	return h
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// EnqueueResponse is returned by POST /process.
type EnqueueResponse struct {
	Enqueued int      `json:"enqueued"`
	Topic    string   `json:"topic,omitempty"`
	JobIDs   []string `json:"job_ids"`
}

// HandleProcess enqueues one job per manifest pair.
func (h *Handlers) HandleProcess(c *gin.Context) {
	var m domain.Manifest
	if err := c.ShouldBindJSON(&m); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("invalid manifest: %v", err)})
		return
	}
	if err := domain.ValidateManifest(m); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	jobs, err := h.dispatch.Enqueue(c.Request.Context(), m)
	if err != nil {
		h.logger.Error("enqueue failed", slog.String("error", err.Error()))
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
		return
	}

	ids := make([]string, 0, len(jobs))
	for _, j := range jobs {
		ids = append(ids, j.JobID)
	}
	c.JSON(http.StatusAccepted, EnqueueResponse{Enqueued: len(jobs), Topic: h.topic, JobIDs: ids})
}

// PushEnvelope is a Pub/Sub-style push delivery. Data is a base64 job document.
type PushEnvelope struct {
	Message struct {
		Data      string `json:"data"`
		MessageID string `json:"messageId,omitempty"`
	} `json:"message"`
	Subscription string `json:"subscription,omitempty"`
}

// WorkerResponse is returned by POST /worker.
type WorkerResponse struct {
	Status    string           `json:"status"`
	JobID     string           `json:"job_id"`
	ErrorKind domain.ErrorKind `json:"error_kind,omitempty"`
	Detail    string           `json:"detail,omitempty"`
	ResultURI string           `json:"result_uri,omitempty"`
}

// HandleWorker processes one pushed job. It always answers 200 so the
// push subscription does not redeliver failed jobs.
func (h *Handlers) HandleWorker(c *gin.Context) {
	job, err := h.decodePush(c)
	if err != nil {
		jobID := job.JobID
		if jobID == "" {
			jobID = domain.UnknownJobID
		}
		err = h.compare.Reject(jobID, err)
		c.JSON(http.StatusOK, WorkerResponse{
			Status:    "error",
			JobID:     jobID,
			ErrorKind: domain.ErrorMalformedInput,
			Detail:    err.Error(),
		})
		return
	}

	if _, err := h.compare.Process(c.Request.Context(), job); err != nil {
		c.JSON(http.StatusOK, WorkerResponse{
			Status:    "error",
			JobID:     job.JobID,
			ErrorKind: domain.KindOf(err),
			Detail:    err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, WorkerResponse{Status: "ok", JobID: job.JobID, ResultURI: h.compare.ResultURI(job.JobID)})
}

// decodePush extracts the job from a push envelope. On failure the returned
// job carries whatever job id could be recovered.
func (h *Handlers) decodePush(c *gin.Context) (domain.Job, error) {
	var env PushEnvelope
	if err := c.ShouldBindJSON(&env); err != nil {
		return domain.Job{}, fmt.Errorf("parsing push envelope: %w", err)
	}
	if env.Message.Data == "" {
		return domain.Job{}, errors.New("push envelope has no message data")
	}
	data, err := base64.StdEncoding.DecodeString(env.Message.Data)
	if err != nil {
		return domain.Job{}, fmt.Errorf("decoding message data: %w", err)
	}
	job, err := domain.DecodeJob(data)
	if err != nil {
		return domain.Job{JobID: domain.JobIDHint(data)}, err
	}
	return job, nil
}

// DiffRequest carries two inline snapshots.
type DiffRequest struct {
	VersionA json.RawMessage `json:"version_a"`
	VersionB json.RawMessage `json:"version_b"`
}

// DiffResponse is the change set of a DiffRequest with its summary.
type DiffResponse struct {
	Added   []domain.DrawingObject `json:"added"`
	Removed []domain.DrawingObject `json:"removed"`
	Moved   []domain.MovedObject   `json:"moved"`
	Summary string                 `json:"summary"`
	Stats   domain.ChangeStats     `json:"stats"`
}

// HandleDiff compares two snapshots posted inline. Nothing is recorded.
func (h *Handlers) HandleDiff(c *gin.Context) {
	var req DiffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("invalid request: %v", err)})
		return
	}
	a, err := domain.DecodeSnapshot(req.VersionA)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("version_a: %v", err)})
		return
	}
	b, err := domain.DecodeSnapshot(req.VersionB)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("version_b: %v", err)})
		return
	}

	cs, text := h.compare.Compare(c.Request.Context(), a, b)
	c.JSON(http.StatusOK, DiffResponse{
		Added:   cs.Added,
		Removed: cs.Removed,
		Moved:   cs.Moved,
		Summary: text,
		Stats:   cs.Stats(),
	})
}

// HandleMetrics returns the current metrics snapshot.
func (h *Handlers) HandleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.metrics.Snapshot())
}

// HandleHealth returns the anomaly rule results. A degraded status still
// answers 200: the service itself is up.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, h.metrics.Health())
}
