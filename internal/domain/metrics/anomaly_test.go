package metrics_test

import (
	"testing"
	"time"

	"github.com/buildtrace/buildtrace/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordMix records successes with latencies spread over 1.0–2.0s followed by
// failures, of which the first missing ones are missing_input.
func recordMix(tr interface{ Record(domain.JobOutcome) }, successes, failures, missing int) {
	for i := 0; i < successes; i++ {
		latency := time.Second + time.Duration(i)*time.Second/time.Duration(successes)
		tr.Record(success(base.Add(-10*time.Minute), latency, 0, 0, 0))
	}
	for i := 0; i < failures; i++ {
		kind := domain.ErrorMalformedInput
		if i < missing {
			kind = domain.ErrorMissingInput
		}
		tr.Record(failure(base.Add(-10*time.Minute), kind))
	}
}

func hasWarning(h domain.Health, prefix string) bool {
	for _, w := range h.Warnings {
		if len(w) >= len(prefix) && w[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

func TestHealth_RatesExactlyAtThresholdDoNotWarn(t *testing.T) {
	tr := newTracker(base, domain.MetricsConfig{})
	recordMix(tr, 90, 10, 5)

	snap := tr.Snapshot()
	require.Equal(t, 100, snap.TotalJobs)
	assert.Equal(t, 90.0, snap.SuccessRate)
	assert.GreaterOrEqual(t, snap.P50, 1.0)
	assert.LessOrEqual(t, snap.P99, 2.0)

	h := tr.Health()
	assert.False(t, hasWarning(h, "high failure rate"), "10%% failures is not above a 10%% threshold")
	assert.False(t, hasWarning(h, "missing input rate"), "5%% missing is not above a 5%% threshold")
	assert.Equal(t, domain.HealthHealthy, h.Status)
}

func TestHealth_RatesAboveThresholdWarn(t *testing.T) {
	tr := newTracker(base, domain.MetricsConfig{})
	recordMix(tr, 89, 11, 6)

	h := tr.Health()
	assert.Equal(t, domain.HealthDegraded, h.Status)
	assert.True(t, hasWarning(h, "high failure rate"))
	assert.True(t, hasWarning(h, "missing input rate"))
	assert.Contains(t, h.Warnings[0], "11.0%")
}

func TestHealth_OnlyMissingInputWarns(t *testing.T) {
	tr := newTracker(base, domain.MetricsConfig{})
	recordMix(tr, 92, 8, 8)

	h := tr.Health()
	assert.False(t, hasWarning(h, "high failure rate"))
	assert.True(t, hasWarning(h, "missing input rate"))
}

func TestHealth_ChangeSpikeRatioRule(t *testing.T) {
	tr := newTracker(base, domain.MetricsConfig{})
	tr.Record(success(base.Add(-4*time.Hour), time.Second, 4, 0, 0))
	tr.Record(success(base.Add(-3*time.Hour), time.Second, 2, 2, 1))
	tr.Record(success(base.Add(-2*time.Hour), time.Second, 6, 0, 0))
	tr.Record(success(base.Add(-10*time.Minute), time.Second, 30, 20, 10))

	h := tr.Health()
	require.True(t, hasWarning(h, "change spike"), "60 > 10 x median 5")
	assert.Contains(t, h.Warnings[0], "60 changes")
	assert.Contains(t, h.Warnings[0], "historical median 5.0")
}

func TestHealth_ChangeSpikeBelowRatioDoesNotWarn(t *testing.T) {
	tr := newTracker(base, domain.MetricsConfig{})
	tr.Record(success(base.Add(-4*time.Hour), time.Second, 4, 0, 0))
	tr.Record(success(base.Add(-3*time.Hour), time.Second, 5, 0, 0))
	tr.Record(success(base.Add(-2*time.Hour), time.Second, 6, 0, 0))
	tr.Record(success(base.Add(-10*time.Minute), time.Second, 45, 0, 0))

	h := tr.Health()
	assert.False(t, hasWarning(h, "change spike"), "45 <= 10 x median 5 and the floor does not apply")
}

func TestHealth_ChangeSpikeFloorRuleOnZeroMedian(t *testing.T) {
	tr := newTracker(base, domain.MetricsConfig{})
	tr.Record(success(base.Add(-3*time.Hour), time.Second, 0, 0, 0))
	tr.Record(success(base.Add(-2*time.Hour), time.Second, 0, 0, 0))
	tr.Record(success(base.Add(-10*time.Minute), time.Second, 45, 0, 0))

	h := tr.Health()
	require.True(t, hasWarning(h, "change spike"))
	assert.Contains(t, h.Warnings[0], "absolute floor of 40")
}

func TestHealth_ChangeSpikeFloorNotExceeded(t *testing.T) {
	tr := newTracker(base, domain.MetricsConfig{})
	tr.Record(success(base.Add(-3*time.Hour), time.Second, 0, 0, 0))
	tr.Record(success(base.Add(-2*time.Hour), time.Second, 0, 0, 0))
	tr.Record(success(base.Add(-10*time.Minute), time.Second, 40, 0, 0))

	assert.False(t, hasWarning(tr.Health(), "change spike"), "40 is not above the floor")
}

func TestHealth_ChangeSpikeNeedsHistory(t *testing.T) {
	tr := newTracker(base, domain.MetricsConfig{})
	tr.Record(success(base.Add(-10*time.Minute), time.Second, 500, 0, 0))

	assert.False(t, hasWarning(tr.Health(), "change spike"), "a single bucket has no baseline")
}

func TestHealth_Idle(t *testing.T) {
	tr := newTracker(base, domain.MetricsConfig{})
	tr.Record(success(base.Add(-2*time.Hour), time.Second, 1, 0, 0))

	h := tr.Health()
	assert.Equal(t, domain.HealthDegraded, h.Status)
	assert.True(t, hasWarning(h, "idle"))
}

func TestHealth_IdleWhenOnlyFailures(t *testing.T) {
	tr := newTracker(base, domain.MetricsConfig{})
	tr.Record(failure(base.Add(-time.Minute), domain.ErrorMalformedInput))

	assert.True(t, hasWarning(tr.Health(), "idle"))
}

func TestHealth_RecentSuccessIsNotIdle(t *testing.T) {
	tr := newTracker(base, domain.MetricsConfig{})
	tr.Record(success(base.Add(-59*time.Minute), time.Second, 1, 0, 0))

	assert.False(t, hasWarning(tr.Health(), "idle"))
}

func TestHealth_MultipleWarningsReturnedTogether(t *testing.T) {
	tr := newTracker(base.Add(3*time.Hour), domain.MetricsConfig{})
	recordMix(tr, 50, 50, 50)

	h := tr.Health()
	assert.Equal(t, domain.HealthDegraded, h.Status)
	assert.True(t, hasWarning(h, "high failure rate"))
	assert.True(t, hasWarning(h, "missing input rate"))
	assert.True(t, hasWarning(h, "idle"))
	assert.Len(t, h.Warnings, 3)
}
