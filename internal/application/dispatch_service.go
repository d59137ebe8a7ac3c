package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/buildtrace/buildtrace/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// JobProcessor runs a single comparison job.
type JobProcessor interface {
	Process(ctx context.Context, job domain.Job) (*domain.ResultDocument, error)
}

// DispatchService turns manifests into jobs and either publishes them to
// the queue or runs them in-process.
type DispatchService struct {
	queue     domain.JobQueue
	processor JobProcessor
	logger    *slog.Logger
	newID     func() string
}

func NewDispatchService(queue domain.JobQueue, processor JobProcessor, logger *slog.Logger) *DispatchService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &DispatchService{
		queue:     queue,
		processor: processor,
		logger:    logger,
		newID:     uuid.NewString,
	}
}

// WithIDGenerator replaces the job id source.
func (s *DispatchService) WithIDGenerator(newID func() string) *DispatchService {
	s.newID = newID
	return s
}

// Jobs validates m and assigns a fresh job id to every pair. A pair
// without an id uses its job id as drawing id.
func (s *DispatchService) Jobs(m domain.Manifest) ([]domain.Job, error) {
	if err := domain.ValidateManifest(m); err != nil {
		return nil, err
	}
	jobs := make([]domain.Job, 0, len(m.Pairs))
	for _, p := range m.Pairs {
		id := s.newID()
		drawing := p.ID
		if drawing == "" {
			drawing = id
		}
		jobs = append(jobs, domain.Job{JobID: id, DrawingID: drawing, A: p.A, B: p.B})
	}
	return jobs, nil
}

// Enqueue publishes one job per manifest pair and returns the jobs.
func (s *DispatchService) Enqueue(ctx context.Context, m domain.Manifest) ([]domain.Job, error) {
	if s.queue == nil {
		return nil, fmt.Errorf("enqueue: no job queue configured")
	}
	jobs, err := s.Jobs(m)
	if err != nil {
		return nil, err
	}
	if err := s.queue.Publish(ctx, jobs...); err != nil {
		return nil, fmt.Errorf("publishing %d jobs: %w", len(jobs), err)
	}
	s.logger.Info("jobs enqueued", slog.Int("count", len(jobs)))
	return jobs, nil
}

// RunLocal processes every pair in-process with at most concurrency jobs in
// flight. Job failures are collected in the report; only an invalid
// manifest or a cancelled context is returned as an error.
func (s *DispatchService) RunLocal(ctx context.Context, m domain.Manifest, concurrency int) (*domain.BatchReport, error) {
	if s.processor == nil {
		return nil, fmt.Errorf("run: no job processor configured")
	}
	jobs, err := s.Jobs(m)
	if err != nil {
		return nil, err
	}
	if concurrency < 1 {
		concurrency = 1
	}

	report := &domain.BatchReport{Jobs: jobs, Failed: []domain.JobFailure{}}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_, err := s.processor.Process(gctx, job)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed = append(report.Failed, domain.JobFailure{
					JobID:     job.JobID,
					DrawingID: job.DrawingID,
					ErrorKind: domain.KindOf(err),
					Error:     err.Error(),
				})
				return nil
			}
			report.Succeeded++
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, fmt.Errorf("batch interrupted: %w", err)
	}

	s.logger.Info("batch finished",
		slog.Int("jobs", len(jobs)),
		slog.Int("succeeded", report.Succeeded),
		slog.Int("failed", len(report.Failed)))
	return report, nil
}
