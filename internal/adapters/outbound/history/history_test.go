package history_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/buildtrace/buildtrace/internal/adapters/outbound/history"
	"github.com/buildtrace/buildtrace/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_SaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	h := history.New()

	entry := domain.RunEntry{
		Timestamp:   "2026-10-15T10:00:00Z",
		CommitHash:  "abc1234",
		Manifest:    "manifest.json",
		Jobs:        10,
		Succeeded:   9,
		Failed:      1,
		SuccessRate: 90,
		Health:      domain.HealthHealthy,
	}

	err := h.Save(dir, entry)
	require.NoError(t, err)

	entries, err := h.Load(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entry, entries[0])
}

func TestHistory_AppendMultiple(t *testing.T) {
	dir := t.TempDir()
	h := history.New()

	require.NoError(t, h.Save(dir, domain.RunEntry{Timestamp: "t1", Jobs: 4, Succeeded: 4}))
	require.NoError(t, h.Save(dir, domain.RunEntry{Timestamp: "t2", Jobs: 4, Succeeded: 3, Failed: 1}))
	require.NoError(t, h.Save(dir, domain.RunEntry{Timestamp: "t3", Jobs: 8, Succeeded: 8}))

	entries, err := h.Load(dir)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "t1", entries[0].Timestamp)
	assert.Equal(t, 8, entries[2].Jobs)
}

func TestHistory_SaveKeepsNewestWithinLimit(t *testing.T) {
	dir := t.TempDir()
	h := history.New(history.WithLimit(2))

	for _, ts := range []string{"t1", "t2", "t3"} {
		require.NoError(t, h.Save(dir, domain.RunEntry{Timestamp: ts}))
	}

	entries, err := h.Load(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "t2", entries[0].Timestamp)
	assert.Equal(t, "t3", entries[1].Timestamp)

	leftovers, err := filepath.Glob(filepath.Join(dir, ".buildtrace", "history", "runs-*.json"))
	require.NoError(t, err)
	assert.Empty(t, leftovers, "temporary files are renamed into place")
}

func TestHistory_NonPositiveLimitKeepsDefault(t *testing.T) {
	dir := t.TempDir()
	h := history.New(history.WithLimit(-1))

	require.NoError(t, h.Save(dir, domain.RunEntry{Timestamp: "t1"}))
	require.NoError(t, h.Save(dir, domain.RunEntry{Timestamp: "t2"}))

	entries, err := h.Load(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestHistory_Recent(t *testing.T) {
	dir := t.TempDir()
	h := history.New()
	for _, ts := range []string{"t1", "t2", "t3"} {
		require.NoError(t, h.Save(dir, domain.RunEntry{Timestamp: ts}))
	}

	recent, err := h.Recent(dir, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "t2", recent[0].Timestamp)

	all, err := h.Recent(dir, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestHistory_LoadEmpty(t *testing.T) {
	entries, err := history.New().Load(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestHistory_LoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	fp := filepath.Join(dir, ".buildtrace", "history", "runs.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(fp), 0o755))
	require.NoError(t, os.WriteFile(fp, []byte("{not json"), 0o644))

	_, err := history.New().Load(dir)
	assert.Error(t, err)
}

func TestEntry(t *testing.T) {
	report := &domain.BatchReport{
		Jobs:      make([]domain.Job, 4),
		Succeeded: 3,
		Failed:    []domain.JobFailure{{JobID: "j4"}},
	}
	e := history.Entry("m.yaml", report,
		domain.MetricsSnapshot{SuccessRate: 75, P95: 1.5},
		domain.Health{Status: domain.HealthDegraded})

	assert.Equal(t, "m.yaml", e.Manifest)
	assert.Equal(t, 4, e.Jobs)
	assert.Equal(t, 3, e.Succeeded)
	assert.Equal(t, 1, e.Failed)
	assert.Equal(t, 75.0, e.SuccessRate)
	assert.Equal(t, 1.5, e.P95)
	assert.Equal(t, domain.HealthDegraded, e.Health)
}
