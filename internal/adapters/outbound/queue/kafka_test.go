package queue_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/buildtrace/buildtrace/internal/adapters/outbound/queue"
	"github.com/buildtrace/buildtrace/internal/application"
	"github.com/buildtrace/buildtrace/internal/domain"
	"github.com/buildtrace/buildtrace/internal/domain/metrics"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaQueue_Publish(t *testing.T) {
	w := &fakeWriter{}
	q := queue.NewKafkaQueueWithWriter(w, nil)

	jobs := []domain.Job{
		{JobID: "j1", DrawingID: "plan-1", A: "a1.json", B: "b1.json"},
		{JobID: "j2", DrawingID: "plan-2", A: "a2.json", B: "b2.json"},
	}
	require.NoError(t, q.Publish(context.Background(), jobs...))
	require.Len(t, w.msgs, 2)

	assert.Equal(t, "plan-1", string(w.msgs[0].Key))
	var decoded domain.Job
	require.NoError(t, json.Unmarshal(w.msgs[1].Value, &decoded))
	assert.Equal(t, jobs[1], decoded)
	assert.Equal(t, "content-type", w.msgs[0].Headers[0].Key)

	require.NoError(t, q.Close())
	assert.True(t, w.closed)
}

func TestKafkaQueue_PublishNothing(t *testing.T) {
	w := &fakeWriter{err: errors.New("must not be called")}
	assert.NoError(t, queue.NewKafkaQueueWithWriter(w, nil).Publish(context.Background()))
}

func TestKafkaQueue_PublishError(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	err := queue.NewKafkaQueueWithWriter(w, nil).Publish(context.Background(), domain.Job{JobID: "j1", A: "a", B: "b"})
	assert.ErrorContains(t, err, "leader not available")
}

// fakeReader serves queued messages, then blocks until the context ends.
type fakeReader struct {
	msgs      []kafka.Message
	committed []int64
	fetchErr  error
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if r.fetchErr != nil {
		return kafka.Message{}, r.fetchErr
	}
	if len(r.msgs) == 0 {
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func TestConsumer_HandlesAndCommitsEveryMessage(t *testing.T) {
	r := &fakeReader{msgs: []kafka.Message{
		{Offset: 1, Value: []byte(`{"job_id":"j1","a":"a.json","b":"b.json"}`)},
		{Offset: 2, Value: []byte(`garbage`)},
		{Offset: 3, Value: []byte(`{"job_id":"j3","a":"a.json","b":"b.json"}`)},
	}}
	c := queue.NewConsumerWithReader(r, nil)

	ctx, cancel := context.WithCancel(context.Background())
	var handled []string
	err := c.Run(ctx, func(_ context.Context, job domain.Job) error {
		handled = append(handled, job.JobID)
		if job.JobID == "j3" {
			defer cancel()
			return errors.New("partial_input")
		}
		return nil
	})

	require.NoError(t, err, "cancellation is a clean shutdown")
	assert.Equal(t, []string{"j1", "j3"}, handled)
	assert.Equal(t, []int64{1, 2, 3}, r.committed, "malformed and failed messages are committed too")
}

func TestConsumer_FetchError(t *testing.T) {
	r := &fakeReader{fetchErr: errors.New("group coordinator unavailable")}
	err := queue.NewConsumerWithReader(r, nil).Run(context.Background(), func(context.Context, domain.Job) error { return nil })
	assert.ErrorContains(t, err, "group coordinator unavailable")
}

func TestConsumer_RejectsUndecodableMessages(t *testing.T) {
	r := &fakeReader{msgs: []kafka.Message{
		{Offset: 1, Value: []byte(`{"job_id":"J1"}`)},
		{Offset: 2, Value: []byte(`not json`)},
		{Offset: 3, Value: []byte(`{"job_id":"J3","a":"a.json","b":"b.json"}`)},
	}}
	var rejected []string
	c := queue.NewConsumerWithReader(r, nil).WithReject(func(jobID string, cause error) {
		assert.Error(t, cause)
		rejected = append(rejected, jobID)
	})

	ctx, cancel := context.WithCancel(context.Background())
	err := c.Run(ctx, func(context.Context, domain.Job) error {
		cancel()
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"J1", domain.UnknownJobID}, rejected)
	assert.Equal(t, []int64{1, 2, 3}, r.committed)
}

func TestConsumer_RejectedMessageIsRecordedAsFailure(t *testing.T) {
	tracker := metrics.New(domain.MetricsConfig{})
	compare := application.NewCompareService(nil, nil, nil, tracker, "", nil)
	r := &fakeReader{msgs: []kafka.Message{{Offset: 7, Value: []byte(`not json`)}}}
	ctx, cancel := context.WithCancel(context.Background())
	c := queue.NewConsumerWithReader(r, nil).WithReject(func(jobID string, cause error) {
		defer cancel()
		_ = compare.Reject(jobID, cause)
	})

	require.NoError(t, c.Run(ctx, func(context.Context, domain.Job) error { return nil }))

	snap := tracker.Snapshot()
	assert.Equal(t, 1, snap.TotalJobs)
	assert.Equal(t, 1, snap.FailedJobs)
	assert.Equal(t, []int64{7}, r.committed)
}
