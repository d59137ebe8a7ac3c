package tui_test

import (
	"testing"
	"time"

	"github.com/buildtrace/buildtrace/internal/adapters/outbound/tui"
	"github.com/buildtrace/buildtrace/internal/domain"
	"github.com/stretchr/testify/assert"
)

func sampleChanges() domain.ChangeSet {
	return domain.ChangeSet{
		Added:   []domain.DrawingObject{{ID: "W1", Type: domain.ObjectWindow, X: 3, Y: 1}},
		Removed: []domain.DrawingObject{{ID: "D1", Type: domain.ObjectDoor}},
		Moved: []domain.MovedObject{{
			ID: "A1", Type: domain.ObjectWall,
			From: domain.Point{X: 0, Y: 0}, To: domain.Point{X: 2, Y: 0},
			DX: 2, Distance: 2, Direction: "east",
		}},
	}
}

func TestRenderChangeSet_ContainsCountsAndObjects(t *testing.T) {
	output := tui.RenderChangeSet(sampleChanges(), "Door D1 removed; Window W1 added at (3,1); Wall A1 moved 2 units east.")
	assert.Contains(t, output, "+1 added")
	assert.Contains(t, output, "-1 removed")
	assert.Contains(t, output, "~1 moved")
	assert.Contains(t, output, "D1")
	assert.Contains(t, output, "at (3,1)")
	assert.Contains(t, output, "2.00 units east")
	assert.Contains(t, output, "Door D1 removed")
}

func TestRenderChangeSet_Empty(t *testing.T) {
	output := tui.RenderChangeSet(domain.ChangeSet{}, "No changes detected.")
	assert.Contains(t, output, "No changes detected.")
	assert.Contains(t, output, "+0 added")
}

func TestRenderMetrics(t *testing.T) {
	hour := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	output := tui.RenderMetrics(domain.MetricsSnapshot{
		P50: 1.2, P95: 1.9, P99: 2.0,
		SuccessRate: 90, TotalJobs: 100, SuccessfulJobs: 90, FailedJobs: 10, MissingInputFailures: 5,
		DataQualityEvents: 2,
		HourBuckets: []domain.HourBucket{
			{Hour: hour, Added: 3, Removed: 1, Moved: 1},
			{Hour: hour.Add(time.Hour), Added: 40, Removed: 10, Moved: 10},
		},
	})
	assert.Contains(t, output, "90.0%")
	assert.Contains(t, output, "100 total")
	assert.Contains(t, output, "5 missing input")
	assert.Contains(t, output, "p95 1.900s")
	assert.Contains(t, output, "2 events")
	assert.Contains(t, output, "10-15 10:00")
	assert.Contains(t, output, "60 (+40 −10 ~10)")
}

func TestRenderMetrics_Empty(t *testing.T) {
	output := tui.RenderMetrics(domain.MetricsSnapshot{})
	assert.Contains(t, output, "0 total")
	assert.NotContains(t, output, "Changes per hour")
	assert.NotContains(t, output, "data quality")
}

func TestRenderHealth(t *testing.T) {
	assert.Contains(t, tui.RenderHealth(domain.Health{Status: domain.HealthHealthy}), "healthy")

	output := tui.RenderHealth(domain.Health{Status: domain.HealthDegraded, Warnings: []string{"idle: no successful jobs"}})
	assert.Contains(t, output, "degraded")
	assert.Contains(t, output, "1 warnings")
	assert.Contains(t, output, "idle: no successful jobs")
}

func TestRenderBatch(t *testing.T) {
	output := tui.RenderBatch(&domain.BatchReport{
		Jobs:      make([]domain.Job, 3),
		Succeeded: 2,
		Failed:    []domain.JobFailure{{JobID: "j3", DrawingID: "DRAWING-0003", ErrorKind: domain.ErrorPartialInput, Error: "partial_input (version b): not found"}},
	})
	assert.Contains(t, output, "3 jobs")
	assert.Contains(t, output, "2 succeeded")
	assert.Contains(t, output, "1 failed")
	assert.Contains(t, output, "partial_input")
	assert.Contains(t, output, "DRAWING-0003")
}

func TestRenderHistory(t *testing.T) {
	assert.Contains(t, tui.RenderHistory(nil), "No run history found.")

	output := tui.RenderHistory([]domain.RunEntry{
		{Timestamp: "2026-10-14T09:00:00Z", CommitHash: "abcdef123456", Jobs: 10, Succeeded: 8, SuccessRate: 80, Health: domain.HealthDegraded},
		{Timestamp: "2026-10-15T09:00:00Z", Jobs: 10, Succeeded: 10, SuccessRate: 100, Health: domain.HealthHealthy},
	})
	assert.Contains(t, output, "2026-10-14")
	assert.Contains(t, output, "abcdef1")
	assert.NotContains(t, output, "abcdef12")
	assert.Contains(t, output, "8/10 jobs")
	assert.Contains(t, output, "degraded")
	assert.Contains(t, output, "↑20.0")
}
