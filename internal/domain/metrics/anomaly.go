package metrics

import (
	"fmt"
	"time"

	"github.com/buildtrace/buildtrace/internal/domain"
)

// Health evaluates every anomaly rule against the current aggregates and
// returns all triggered warnings. With no jobs recorded it reports healthy.
func (t *Tracker) Health() domain.Health {
	now := t.now()

	t.mu.RLock()
	defer t.mu.RUnlock()

	total := t.successes + t.failures
	var warnings []string
	if w, ok := t.failureRateRule(total); ok {
		warnings = append(warnings, w)
	}
	if w, ok := t.missingInputRule(total); ok {
		warnings = append(warnings, w)
	}
	if w, ok := t.changeSpikeRule(); ok {
		warnings = append(warnings, w)
	}
	if w, ok := t.idleRule(total, now); ok {
		warnings = append(warnings, w)
	}

	if len(warnings) == 0 {
		return domain.Health{Status: domain.HealthHealthy, Warnings: []string{}}
	}
	return domain.Health{Status: domain.HealthDegraded, Warnings: warnings}
}

func (t *Tracker) failureRateRule(total int) (string, bool) {
	if total == 0 {
		return "", false
	}
	rate := float64(t.failures) / float64(total)
	if rate <= t.cfg.FailureRateThreshold {
		return "", false
	}
	return fmt.Sprintf("high failure rate: %.1f%% of %d jobs failed (threshold %.1f%%)",
		rate*100, total, t.cfg.FailureRateThreshold*100), true
}

func (t *Tracker) missingInputRule(total int) (string, bool) {
	if total == 0 {
		return "", false
	}
	rate := float64(t.missingInput) / float64(total)
	if rate <= t.cfg.MissingInputRateThreshold {
		return "", false
	}
	return fmt.Sprintf("missing input rate: %.1f%% of %d jobs had unavailable snapshots (threshold %.1f%%)",
		rate*100, total, t.cfg.MissingInputRateThreshold*100), true
}

// changeSpikeRule compares the most recent hour bucket with the median of
// all earlier buckets. A near-zero median switches to the absolute floor.
func (t *Tracker) changeSpikeRule() (string, bool) {
	buckets := t.bucketsLocked()
	if len(buckets) < 2 {
		return "", false
	}
	current := buckets[len(buckets)-1]
	history := make([]int, 0, len(buckets)-1)
	for _, b := range buckets[:len(buckets)-1] {
		history = append(history, b.Total())
	}
	return SpikeWarning(current, Median(history), t.cfg)
}

// SpikeWarning applies the change-spike thresholds to one bucket given the
// historical median of hourly totals.
func SpikeWarning(current domain.HourBucket, median float64, cfg domain.MetricsConfig) (string, bool) {
	total := current.Total()
	hour := current.Hour.UTC().Format("2006-01-02 15:04 MST")

	if median <= cfg.NearZeroMedian {
		if total > cfg.SpikeFloor {
			return fmt.Sprintf("change spike: %d changes in hour %s exceeds absolute floor of %d (historical median %.1f)",
				total, hour, cfg.SpikeFloor, median), true
		}
		return "", false
	}

	limit := cfg.SpikeMultiplier * median
	if float64(total) > limit {
		return fmt.Sprintf("change spike: %d changes in hour %s exceeds %.0fx historical median %.1f",
			total, hour, cfg.SpikeMultiplier, median), true
	}
	return "", false
}

func (t *Tracker) idleRule(total int, now time.Time) (string, bool) {
	if total == 0 {
		return "", false
	}
	if !t.lastSuccessAt.IsZero() && now.Sub(t.lastSuccessAt) <= t.cfg.IdleWindow {
		return "", false
	}
	if t.lastSuccessAt.IsZero() {
		return fmt.Sprintf("idle: no successful jobs completed in the last %s", t.cfg.IdleWindow), true
	}
	return fmt.Sprintf("idle: no successful jobs completed in the last %s (last success %s)",
		t.cfg.IdleWindow, t.lastSuccessAt.UTC().Format(time.RFC3339)), true
}
