// Package queue carries comparison jobs over Kafka.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/buildtrace/buildtrace/internal/domain"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer the producer needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// MessageReader is the subset of *kafka.Reader the consumer needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaQueue implements domain.JobQueue. Messages are keyed by drawing id
// so all versions of one drawing land on the same partition.
type KafkaQueue struct {
	w   MessageWriter
	log *slog.Logger
}

// NewKafkaQueue creates a synchronous producer for cfg.Topic.
func NewKafkaQueue(cfg domain.QueueConfig, log *slog.Logger) *KafkaQueue {
	return NewKafkaQueueWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}, log)
}

// NewKafkaQueueWithWriter wraps an existing writer.
func NewKafkaQueueWithWriter(w MessageWriter, log *slog.Logger) *KafkaQueue {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &KafkaQueue{w: w, log: log.With(slog.String("component", "kafka-producer"))}
}

// Publish writes one message per job in a single batch.
func (q *KafkaQueue) Publish(ctx context.Context, jobs ...domain.Job) error {
	if len(jobs) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(jobs))
	for _, job := range jobs {
		value, err := json.Marshal(job)
		if err != nil {
			return fmt.Errorf("encoding job %s: %w", job.JobID, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(job.DrawingID),
			Value: value,
			Time:  time.Now(),
			Headers: []kafka.Header{
				{Key: "content-type", Value: []byte("application/json")},
			},
		})
	}
	if err := q.w.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("writing %d messages: %w", len(msgs), err)
	}
	q.log.Debug("published jobs", slog.Int("count", len(msgs)))
	return nil
}

// Close flushes and closes the writer.
func (q *KafkaQueue) Close() error { return q.w.Close() }

// Handler processes one job. Its error is logged; the message is committed
// either way because the outcome has already been recorded.
type Handler func(ctx context.Context, job domain.Job) error

// RejectFunc is told about a message that could not be decoded into a job.
// jobID is domain.UnknownJobID when the message carries none.
type RejectFunc func(jobID string, cause error)

// Consumer reads jobs from a consumer group.
type Consumer struct {
	r      MessageReader
	log    *slog.Logger
	reject RejectFunc
}

// NewConsumer joins cfg.GroupID on cfg.Topic.
func NewConsumer(cfg domain.QueueConfig, log *slog.Logger) *Consumer {
	return NewConsumerWithReader(kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  500 * time.Millisecond,
	}), log)
}

// NewConsumerWithReader wraps an existing reader.
func NewConsumerWithReader(r MessageReader, log *slog.Logger) *Consumer {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Consumer{r: r, log: log.With(slog.String("component", "kafka-consumer"))}
}

// WithReject sets the hook called for undecodable messages.
func (c *Consumer) WithReject(fn RejectFunc) *Consumer {
	c.reject = fn
	return c
}

// Run fetches, handles and commits messages one at a time until ctx is
// cancelled. Malformed messages are passed to the reject hook and committed
// so they never block the partition.
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	for {
		msg, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("fetching message: %w", err)
		}

		log := c.log.With(slog.Int("partition", msg.Partition), slog.Int64("offset", msg.Offset))
		job, err := domain.DecodeJob(msg.Value)
		if err != nil {
			jobID := domain.JobIDHint(msg.Value)
			log.Warn("skipping malformed job message", slog.String("job_id", jobID), slog.String("error", err.Error()))
			if c.reject != nil {
				c.reject(jobID, err)
			}
		} else if err := handle(ctx, job); err != nil {
			log.Warn("job failed", slog.String("job_id", job.JobID), slog.String("error", err.Error()))
		}

		if err := c.r.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("committing offset %d: %w", msg.Offset, err)
		}
	}
}

// Close leaves the consumer group.
func (c *Consumer) Close() error { return c.r.Close() }
