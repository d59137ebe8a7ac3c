package domain

import "context"

// SnapshotReader fetches a raw snapshot document by URI.
// Implementations return an error wrapping ErrSnapshotNotFound when the object does not exist.
type SnapshotReader interface {
	Read(ctx context.Context, uri string) ([]byte, error)
}

// ResultWriter persists a JSON-encodable document at a URI.
type ResultWriter interface {
	Write(ctx context.Context, uri string, v any) error
}

// Summarizer produces a human-readable description of a change set.
type Summarizer interface {
	Summarize(ctx context.Context, cs ChangeSet) (string, error)
}

// JobQueue delivers comparison jobs to workers.
type JobQueue interface {
	Publish(ctx context.Context, jobs ...Job) error
}

// OutcomeRecorder consumes one JobOutcome per completed job.
type OutcomeRecorder interface {
	Record(outcome JobOutcome)
}

// MetricsReader exposes aggregated job metrics.
type MetricsReader interface {
	Snapshot() MetricsSnapshot
	Health() Health
}

// RunHistory persists batch run entries per working directory.
type RunHistory interface {
	Save(dir string, entry RunEntry) error
	Load(dir string) ([]RunEntry, error)
}

// ConfigLoader loads service configuration from a directory.
type ConfigLoader interface {
	Load(dir string) (Config, error)
}
