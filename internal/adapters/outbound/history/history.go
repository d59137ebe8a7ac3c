// Package history keeps a bounded log of batch runs next to the config.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/buildtrace/buildtrace/internal/domain"
)

const historyFile = ".buildtrace/history/runs.json"

// DefaultLimit is how many runs are kept when no limit is set.
const DefaultLimit = 200

// FileHistory implements domain.RunHistory using JSON file storage. Only the
// newest Limit runs are kept.
type FileHistory struct {
	limit int
}

// Option configures a FileHistory.
type Option func(*FileHistory)

// WithLimit caps the number of stored runs. Non-positive values keep
// DefaultLimit.
func WithLimit(n int) Option {
	return func(h *FileHistory) {
		if n > 0 {
			h.limit = n
		}
	}
}

func New(opts ...Option) *FileHistory {
	h := &FileHistory{limit: DefaultLimit}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Save appends entry and drops the oldest runs beyond the limit. The file is
// replaced atomically so a concurrent Load never sees a partial write.
func (h *FileHistory) Save(dir string, entry domain.RunEntry) error {
	entries, err := h.Load(dir)
	if err != nil {
		return err
	}

	entries = append(entries, entry)
	if len(entries) > h.limit {
		entries = entries[len(entries)-h.limit:]
	}

	fp := filepath.Join(dir, historyFile)
	if err := os.MkdirAll(filepath.Dir(fp), 0755); err != nil {
		return fmt.Errorf("creating history directory: %w", err)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fp), "runs-*.json")
	if err != nil {
		return fmt.Errorf("writing history: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing history: %w", err)
	}
	if err := os.Rename(tmp.Name(), fp); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing history: %w", err)
	}
	return nil
}

// Load returns all stored runs, oldest first.
func (h *FileHistory) Load(dir string) ([]domain.RunEntry, error) {
	fp := filepath.Join(dir, historyFile)

	data, err := os.ReadFile(fp)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var entries []domain.RunEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", fp, err)
	}

	return entries, nil
}

// Recent returns the newest n runs, oldest first. n <= 0 returns all.
func (h *FileHistory) Recent(dir string, n int) ([]domain.RunEntry, error) {
	entries, err := h.Load(dir)
	if err != nil {
		return nil, err
	}
	if n > 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries, nil
}

// Entry builds the history entry of a finished batch.
func Entry(manifest string, report *domain.BatchReport, snap domain.MetricsSnapshot, health domain.Health) domain.RunEntry {
	return domain.RunEntry{
		Manifest:    manifest,
		Jobs:        len(report.Jobs),
		Succeeded:   report.Succeeded,
		Failed:      len(report.Failed),
		SuccessRate: snap.SuccessRate,
		P95:         snap.P95,
		Health:      health.Status,
	}
}
