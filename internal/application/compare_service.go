package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/buildtrace/buildtrace/internal/domain"
	"github.com/buildtrace/buildtrace/internal/domain/changes"
	"github.com/buildtrace/buildtrace/internal/domain/summary"
	"golang.org/x/sync/errgroup"
)

// CompareService runs comparison jobs:
// fetch both snapshots → decode → diff → summarize → persist → record outcome.
type CompareService struct {
	reader        domain.SnapshotReader
	writer        domain.ResultWriter
	summarizer    domain.Summarizer
	recorder      domain.OutcomeRecorder
	resultsPrefix string
	logger        *slog.Logger
	now           func() time.Time
}

func NewCompareService(
	reader domain.SnapshotReader,
	writer domain.ResultWriter,
	summarizer domain.Summarizer,
	recorder domain.OutcomeRecorder,
	resultsPrefix string,
	logger *slog.Logger,
) *CompareService {
	if summarizer == nil {
		summarizer = summary.Template{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CompareService{
		reader:        reader,
		writer:        writer,
		summarizer:    summarizer,
		recorder:      recorder,
		resultsPrefix: resultsPrefix,
		logger:        logger,
		now:           time.Now,
	}
}

// WithClock replaces the clock used for job timestamps.
func (s *CompareService) WithClock(now func() time.Time) *CompareService {
	s.now = now
	return s
}

// ResultURI is where the result document of jobID is persisted.
func (s *CompareService) ResultURI(jobID string) string {
	prefix := strings.TrimSuffix(s.resultsPrefix, "/")
	if prefix == "" {
		return jobID + ".json"
	}
	return prefix + "/" + jobID + ".json"
}

// Process executes one job end to end. Exactly one outcome is recorded,
// whatever happens. On failure the returned error carries the error kind
// (see domain.KindOf); a failed result write has no kind.
func (s *CompareService) Process(ctx context.Context, job domain.Job) (*domain.ResultDocument, error) {
	startedAt := s.now()
	log := s.logger.With(slog.String("job_id", job.JobID), slog.String("drawing_id", job.DrawingID))

	doc, err := s.process(ctx, job)
	completedAt := s.now()

	outcome := domain.JobOutcome{
		JobID:       job.JobID,
		DrawingID:   job.DrawingID,
		StartedAt:   startedAt,
		CompletedAt: completedAt,
	}
	if err != nil {
		outcome.Status = domain.JobError
		outcome.ErrorKind = domain.KindOf(err)
		s.record(outcome)
		log.Error("job failed", slog.String("error_kind", string(outcome.ErrorKind)), slog.String("error", err.Error()))
		return nil, err
	}

	outcome.Status = domain.JobSuccess
	outcome.AddedCount = doc.Stats.AddedCount
	outcome.RemovedCount = doc.Stats.RemovedCount
	outcome.MovedCount = doc.Stats.MovedCount
	s.record(outcome)
	log.Info("job completed",
		slog.Int("added", outcome.AddedCount),
		slog.Int("removed", outcome.RemovedCount),
		slog.Int("moved", outcome.MovedCount),
		slog.Duration("latency", outcome.Latency()))
	return doc, nil
}

func (s *CompareService) process(ctx context.Context, job domain.Job) (*domain.ResultDocument, error) {
	// 1. Load and validate both snapshots
	a, b, err := s.LoadPair(ctx, job.A, job.B)
	if err != nil {
		return nil, err
	}

	// 2. Diff and summarize
	cs, text := s.Compare(ctx, a, b)

	// 3. Persist
	doc := domain.NewResultDocument(job, cs, text, s.now())
	if err := s.writer.Write(ctx, s.ResultURI(job.JobID), doc); err != nil {
		return nil, fmt.Errorf("writing result for job %s: %w", job.JobID, err)
	}
	return &doc, nil
}

// Compare diffs two decoded snapshots and summarizes the result. The
// summary never fails: a summarizer error falls back to the template text.
func (s *CompareService) Compare(ctx context.Context, a, b []domain.DrawingObject) (domain.ChangeSet, string) {
	cs := changes.Diff(a, b)
	text, err := s.summarizer.Summarize(ctx, cs)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			s.logger.Warn("summarizer failed, using template", slog.String("error", err.Error()))
		}
		text = summary.Text(cs)
	}
	return cs, text
}

// LoadPair fetches both snapshots concurrently and decodes them.
// Both reads failing is missing_input, exactly one is partial_input and an
// undecodable document is malformed_input. Cancellation of ctx has no kind.
func (s *CompareService) LoadPair(ctx context.Context, uriA, uriB string) (a, b []domain.DrawingObject, err error) {
	var rawA, rawB []byte
	var errA, errB error

	// Both reads always run to completion so the pair can be classified.
	var g errgroup.Group
	g.Go(func() error {
		rawA, errA = s.reader.Read(ctx, uriA)
		return nil
	})
	g.Go(func() error {
		rawB, errB = s.reader.Read(ctx, uriB)
		return nil
	})
	_ = g.Wait()

	// A cancelled job is not an input problem, so it carries no kind.
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("loading snapshots: %w", err)
	}

	switch {
	case errA != nil && errB != nil:
		return nil, nil, domain.NewInputError(domain.ErrorMissingInput, "", errors.Join(
			fmt.Errorf("version a %s: %w", uriA, errA),
			fmt.Errorf("version b %s: %w", uriB, errB),
		))
	case errA != nil:
		return nil, nil, domain.NewInputError(domain.ErrorPartialInput, "a", fmt.Errorf("reading %s: %w", uriA, errA))
	case errB != nil:
		return nil, nil, domain.NewInputError(domain.ErrorPartialInput, "b", fmt.Errorf("reading %s: %w", uriB, errB))
	}

	if a, err = decodeSide("a", rawA); err != nil {
		return nil, nil, err
	}
	if b, err = decodeSide("b", rawB); err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

func decodeSide(side string, data []byte) ([]domain.DrawingObject, error) {
	objs, err := domain.DecodeSnapshot(data)
	if err != nil {
		var ie *domain.InputError
		if errors.As(err, &ie) {
			return nil, domain.NewInputError(ie.Kind, side, ie.Err)
		}
		return nil, domain.NewInputError(domain.ErrorMalformedInput, side, err)
	}
	return objs, nil
}

// Reject records a message that could not be decoded into a job as a
// malformed_input failure and returns the corresponding error.
func (s *CompareService) Reject(jobID string, cause error) error {
	now := s.now()
	s.record(domain.JobOutcome{
		JobID:       jobID,
		DrawingID:   jobID,
		Status:      domain.JobError,
		ErrorKind:   domain.ErrorMalformedInput,
		StartedAt:   now,
		CompletedAt: now,
	})
	s.logger.Warn("job rejected", slog.String("job_id", jobID), slog.String("error", cause.Error()))
	return domain.NewInputError(domain.ErrorMalformedInput, "", cause)
}

func (s *CompareService) record(o domain.JobOutcome) {
	if s.recorder != nil {
		s.recorder.Record(o)
	}
}
