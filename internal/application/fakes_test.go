package application_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/buildtrace/buildtrace/internal/domain"
)

// memStore is an in-memory SnapshotReader and ResultWriter.
type memStore struct {
	mu       sync.Mutex
	objects  map[string][]byte
	writeErr error
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}}
}

func (m *memStore) put(uri, data string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[uri] = []byte(data)
}

func (m *memStore) Read(_ context.Context, uri string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[uri]
	if !ok {
		return nil, fmt.Errorf("%s: %w", uri, domain.ErrSnapshotNotFound)
	}
	return data, nil
}

func (m *memStore) Write(_ context.Context, uri string, v any) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[uri] = data
	return nil
}

func (m *memStore) has(uri string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[uri]
	return ok
}

type recorder struct {
	mu       sync.Mutex
	outcomes []domain.JobOutcome
}

func (r *recorder) Record(o domain.JobOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

func (r *recorder) all() []domain.JobOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.JobOutcome(nil), r.outcomes...)
}

type fakeQueue struct {
	published []domain.Job
	err       error
}

func (q *fakeQueue) Publish(_ context.Context, jobs ...domain.Job) error {
	if q.err != nil {
		return q.err
	}
	q.published = append(q.published, jobs...)
	return nil
}

type failingSummarizer struct{}

func (failingSummarizer) Summarize(context.Context, domain.ChangeSet) (string, error) {
	return "", fmt.Errorf("model unavailable")
}
