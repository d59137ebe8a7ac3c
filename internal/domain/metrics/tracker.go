// Package metrics aggregates comparison job outcomes into latency,
// throughput and data-quality signals and evaluates anomaly rules over them.
//
// A Tracker is an explicitly owned value: create one per process with New and
// hand it to whichever surfaces report on it. All methods are safe for
// concurrent use; a single RWMutex guards the whole state, so Snapshot and
// Health always observe a consistent view.
package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/buildtrace/buildtrace/internal/domain"
)

// Option customizes a Tracker.
type Option func(*Tracker)

// WithClock sets the clock used by Health for the idle rule.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// Tracker is the in-memory metrics state. It is never persisted.
type Tracker struct {
	cfg domain.MetricsConfig
	now func() time.Time

	mu            sync.RWMutex
	latencies     []time.Duration // ring buffer once len == cfg.LatencyWindow
	next          int             // next ring slot to overwrite
	successes     int
	failures      int
	missingInput  int
	dataQuality   int
	buckets       map[time.Time]*domain.HourBucket
	lastSuccessAt time.Time
}

// New creates an empty tracker. Zero or negative config fields fall back to
// domain.DefaultMetricsConfig.
func New(cfg domain.MetricsConfig, opts ...Option) *Tracker {
	t := &Tracker{
		cfg:     withDefaults(cfg),
		now:     time.Now,
		buckets: make(map[time.Time]*domain.HourBucket),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func withDefaults(cfg domain.MetricsConfig) domain.MetricsConfig {
	def := domain.DefaultMetricsConfig()
	if cfg.LatencyWindow <= 0 {
		cfg.LatencyWindow = def.LatencyWindow
	}
	if cfg.MaxHourBuckets <= 0 {
		cfg.MaxHourBuckets = def.MaxHourBuckets
	}
	if cfg.FailureRateThreshold <= 0 {
		cfg.FailureRateThreshold = def.FailureRateThreshold
	}
	if cfg.MissingInputRateThreshold <= 0 {
		cfg.MissingInputRateThreshold = def.MissingInputRateThreshold
	}
	if cfg.SpikeMultiplier <= 0 {
		cfg.SpikeMultiplier = def.SpikeMultiplier
	}
	if cfg.SpikeFloor <= 0 {
		cfg.SpikeFloor = def.SpikeFloor
	}
	if cfg.NearZeroMedian <= 0 {
		cfg.NearZeroMedian = def.NearZeroMedian
	}
	if cfg.IdleWindow <= 0 {
		cfg.IdleWindow = def.IdleWindow
	}
	return cfg
}

// Record folds one job outcome into the aggregates. It never fails: a
// negative latency is clamped to zero and an unknown status is counted as a
// failure, both as data-quality events.
func (t *Tracker) Record(o domain.JobOutcome) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch o.Status {
	case domain.JobSuccess:
		t.recordSuccess(o)
	case domain.JobError:
		t.recordFailure(o)
	default:
		t.dataQuality++
		t.recordFailure(o)
	}
}

func (t *Tracker) recordSuccess(o domain.JobOutcome) {
	t.successes++

	latency := o.Latency()
	if latency < 0 {
		latency = 0
		t.dataQuality++
	}
	t.appendLatency(latency)

	hour := o.CompletedAt.UTC().Truncate(time.Hour)
	b, ok := t.buckets[hour]
	if !ok {
		b = &domain.HourBucket{Hour: hour}
		t.buckets[hour] = b
		t.evictBuckets()
	}
	b.Added += o.AddedCount
	b.Removed += o.RemovedCount
	b.Moved += o.MovedCount

	if o.CompletedAt.After(t.lastSuccessAt) {
		t.lastSuccessAt = o.CompletedAt
	}
}

func (t *Tracker) recordFailure(o domain.JobOutcome) {
	t.failures++
	if o.ErrorKind == domain.ErrorMissingInput {
		t.missingInput++
	}
}

func (t *Tracker) appendLatency(d time.Duration) {
	if len(t.latencies) < t.cfg.LatencyWindow {
		t.latencies = append(t.latencies, d)
		return
	}
	t.latencies[t.next] = d
	t.next = (t.next + 1) % t.cfg.LatencyWindow
}

// evictBuckets drops the oldest hour buckets beyond MaxHourBuckets.
func (t *Tracker) evictBuckets() {
	for len(t.buckets) > t.cfg.MaxHourBuckets {
		var oldest time.Time
		first := true
		for h := range t.buckets {
			if first || h.Before(oldest) {
				oldest, first = h, false
			}
		}
		delete(t.buckets, oldest)
	}
}

// Reset discards all aggregates.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.latencies = nil
	t.next = 0
	t.successes = 0
	t.failures = 0
	t.missingInput = 0
	t.dataQuality = 0
	t.buckets = make(map[time.Time]*domain.HourBucket)
	t.lastSuccessAt = time.Time{}
}

// Snapshot computes percentiles and rates from the current state.
// With no jobs recorded every percentile and the success rate are 0.
func (t *Tracker) Snapshot() domain.MetricsSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snapshotLocked()
}

func (t *Tracker) snapshotLocked() domain.MetricsSnapshot {
	sorted := make([]time.Duration, len(t.latencies))
	copy(sorted, t.latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	total := t.successes + t.failures
	return domain.MetricsSnapshot{
		P50:                  Percentile(sorted, 50).Seconds(),
		P95:                  Percentile(sorted, 95).Seconds(),
		P99:                  Percentile(sorted, 99).Seconds(),
		SuccessRate:          SuccessRate(t.successes, total),
		TotalJobs:            total,
		SuccessfulJobs:       t.successes,
		FailedJobs:           t.failures,
		MissingInputFailures: t.missingInput,
		DataQualityEvents:    t.dataQuality,
		HourBuckets:          t.bucketsLocked(),
	}
}

// bucketsLocked returns the hour buckets in chronological order.
func (t *Tracker) bucketsLocked() []domain.HourBucket {
	out := make([]domain.HourBucket, 0, len(t.buckets))
	for _, b := range t.buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hour.Before(out[j].Hour) })
	return out
}

// SuccessRate returns successful/total as a percentage. A total of zero
// yields 0; callers that must tell "no data" from "all failing" check total.
func SuccessRate(successful, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(successful) * 100 / float64(total)
}
