package domain

import "time"

// ObjectType names the kind of drawing element. The set is open; the
// constants below are the types produced by the simulator.
type ObjectType string

const (
	ObjectWall   ObjectType = "wall"
	ObjectDoor   ObjectType = "door"
	ObjectWindow ObjectType = "window"
	ObjectColumn ObjectType = "column"
	ObjectBeam   ObjectType = "beam"
)

// KnownObjectTypes enumerates the built-in object types.
var KnownObjectTypes = []ObjectType{
	ObjectWall, ObjectDoor, ObjectWindow, ObjectColumn, ObjectBeam,
}

// DrawingObject is one identified geometric element of a drawing snapshot.
// Identity is ID; type and geometry are attributes.
type DrawingObject struct {
	ID     string     `json:"id"`
	Type   ObjectType `json:"type"`
	X      float64    `json:"x"`
	Y      float64    `json:"y"`
	Width  float64    `json:"width"`
	Height float64    `json:"height"`
}

// Position returns the object's anchor point.
func (o DrawingObject) Position() Point { return Point{X: o.X, Y: o.Y} }

// Point is a 2D coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// MovedObject describes an object present in both snapshots whose position changed.
type MovedObject struct {
	ID        string     `json:"id"`
	Type      ObjectType `json:"type"`
	From      Point      `json:"from"`
	To        Point      `json:"to"`
	DX        float64    `json:"dx"`
	DY        float64    `json:"dy"`
	Distance  float64    `json:"distance"`
	Direction string     `json:"direction"`
}

// ChangeSet is the classified result of comparing two snapshots.
type ChangeSet struct {
	Added   []DrawingObject `json:"added"`
	Removed []DrawingObject `json:"removed"`
	Moved   []MovedObject   `json:"moved"`
}

// ChangeStats holds bucket sizes of a ChangeSet.
type ChangeStats struct {
	AddedCount   int `json:"added_count"`
	RemovedCount int `json:"removed_count"`
	MovedCount   int `json:"moved_count"`
	TotalChanges int `json:"total_changes"`
}

func (c ChangeSet) Stats() ChangeStats {
	return ChangeStats{
		AddedCount:   len(c.Added),
		RemovedCount: len(c.Removed),
		MovedCount:   len(c.Moved),
		TotalChanges: len(c.Added) + len(c.Removed) + len(c.Moved),
	}
}

// IsEmpty reports whether the change set contains no changes at all.
func (c ChangeSet) IsEmpty() bool { return c.Stats().TotalChanges == 0 }

// JobStatus is the terminal status of a comparison job.
type JobStatus string

const (
	JobSuccess JobStatus = "success"
	JobError   JobStatus = "error"
)

// JobOutcome is reported exactly once per job to the metrics tracker.
type JobOutcome struct {
	JobID        string    `json:"job_id"`
	DrawingID    string    `json:"drawing_id"`
	Status       JobStatus `json:"status"`
	ErrorKind    ErrorKind `json:"error_kind,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	CompletedAt  time.Time `json:"completed_at"`
	AddedCount   int       `json:"added_count"`
	RemovedCount int       `json:"removed_count"`
	MovedCount   int       `json:"moved_count"`
}

// TotalChanges is the sum of the three change counts.
func (o JobOutcome) TotalChanges() int {
	return o.AddedCount + o.RemovedCount + o.MovedCount
}

// Latency is CompletedAt - StartedAt, possibly negative for skewed clocks.
func (o JobOutcome) Latency() time.Duration {
	return o.CompletedAt.Sub(o.StartedAt)
}

// Job is one drawing pair to compare. A and B are snapshot URIs.
type Job struct {
	JobID     string `json:"job_id"     validate:"required"`
	DrawingID string `json:"drawing_id"`
	A         string `json:"a"          validate:"required"`
	B         string `json:"b"          validate:"required"`
}

// ManifestPair is one entry of a processing manifest.
// An empty ID lets the dispatcher use the generated job id.
type ManifestPair struct {
	ID string `json:"id,omitempty" yaml:"id"`
	A  string `json:"a"            yaml:"a"  validate:"required"`
	B  string `json:"b"            yaml:"b"  validate:"required"`
}

// Manifest lists the drawing pairs to process.
type Manifest struct {
	Pairs []ManifestPair `json:"pairs" yaml:"pairs" validate:"required,min=1,dive"`
}

// JobFailure describes one failed job of a local batch.
type JobFailure struct {
	JobID     string    `json:"job_id"`
	DrawingID string    `json:"drawing_id"`
	ErrorKind ErrorKind `json:"error_kind,omitempty"`
	Error     string    `json:"error"`
}

// BatchReport summarizes a local batch run.
type BatchReport struct {
	Jobs      []Job        `json:"jobs"`
	Succeeded int          `json:"succeeded"`
	Failed    []JobFailure `json:"failed"`
}

// RunEntry is one local batch run kept in the run history.
type RunEntry struct {
	Timestamp   string       `json:"timestamp"`
	CommitHash  string       `json:"commit_hash,omitempty"`
	Manifest    string       `json:"manifest"`
	Jobs        int          `json:"jobs"`
	Succeeded   int          `json:"succeeded"`
	Failed      int          `json:"failed"`
	SuccessRate float64      `json:"success_rate"`
	P95         float64      `json:"p95"`
	Health      HealthStatus `json:"health"`
}

// ResultDocument is what the job handler persists for a successful comparison.
type ResultDocument struct {
	JobID       string          `json:"job_id"`
	DrawingID   string          `json:"drawing_id"`
	Added       []DrawingObject `json:"added"`
	Removed     []DrawingObject `json:"removed"`
	Moved       []MovedObject   `json:"moved"`
	Summary     string          `json:"summary"`
	Stats       ChangeStats     `json:"stats"`
	CompletedAt time.Time       `json:"completed_at"`
}

// NewResultDocument assembles a result document from a change set.
func NewResultDocument(job Job, cs ChangeSet, summary string, completedAt time.Time) ResultDocument {
	return ResultDocument{
		JobID:       job.JobID,
		DrawingID:   job.DrawingID,
		Added:       cs.Added,
		Removed:     cs.Removed,
		Moved:       cs.Moved,
		Summary:     summary,
		Stats:       cs.Stats(),
		CompletedAt: completedAt,
	}
}

// MetricsSnapshot is a point-in-time view of the aggregated job metrics.
// Latency percentiles are in seconds.
type MetricsSnapshot struct {
	P50                  float64      `json:"p50"`
	P95                  float64      `json:"p95"`
	P99                  float64      `json:"p99"`
	SuccessRate          float64      `json:"success_rate"`
	TotalJobs            int          `json:"total_jobs"`
	SuccessfulJobs       int          `json:"successful_jobs"`
	FailedJobs           int          `json:"failed_jobs"`
	MissingInputFailures int          `json:"missing_input_failures"`
	DataQualityEvents    int          `json:"data_quality_events"`
	HourBuckets          []HourBucket `json:"hour_buckets,omitempty"`
}

// HourBucket aggregates change counts of successful jobs completed within one hour.
type HourBucket struct {
	Hour    time.Time `json:"hour"`
	Added   int       `json:"added"`
	Removed int       `json:"removed"`
	Moved   int       `json:"moved"`
}

// Total is the number of changes in the bucket.
func (b HourBucket) Total() int { return b.Added + b.Removed + b.Moved }

// HealthStatus is the composite result of the anomaly rules.
type HealthStatus string

const (
	HealthHealthy  HealthStatus = "healthy"
	HealthDegraded HealthStatus = "degraded"
)

// Health lists the anomaly warnings currently triggered.
type Health struct {
	Status   HealthStatus `json:"status"`
	Warnings []string     `json:"warnings"`
}
