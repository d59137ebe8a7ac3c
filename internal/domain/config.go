package domain

import (
	"fmt"
	"time"
)

// SummarizerProvider selects the summary generator used by the job handler.
type SummarizerProvider string

const (
	SummarizerTemplate SummarizerProvider = "template"
	SummarizerOpenAI   SummarizerProvider = "openai"
)

// ValidSummarizerProviders enumerates all recognized providers.
var ValidSummarizerProviders = []SummarizerProvider{SummarizerTemplate, SummarizerOpenAI}

// Config holds service configuration loaded from .buildtrace.yaml.
type Config struct {
	Storage    StorageConfig    `yaml:"storage"    json:"storage"`
	Queue      QueueConfig      `yaml:"queue"      json:"queue"`
	Summarizer SummarizerConfig `yaml:"summarizer" json:"summarizer"`
	Metrics    MetricsConfig    `yaml:"metrics"    json:"metrics"`
	Server     ServerConfig     `yaml:"server"     json:"server"`
	Worker     WorkerConfig     `yaml:"worker"     json:"worker"`
}

// StorageConfig locates result documents and optional GCS credentials.
type StorageConfig struct {
	ResultsPrefix   string `yaml:"results_prefix"    json:"results_prefix,omitempty"`
	CredentialsFile string `yaml:"credentials_file"  json:"credentials_file,omitempty"`
}

// QueueConfig configures the Kafka job queue.
type QueueConfig struct {
	Brokers []string `yaml:"brokers"  json:"brokers,omitempty"`
	Topic   string   `yaml:"topic"    json:"topic,omitempty"`
	GroupID string   `yaml:"group_id" json:"group_id,omitempty"`
}

// SummarizerConfig configures the change summary generator.
type SummarizerConfig struct {
	Provider SummarizerProvider `yaml:"provider" json:"provider,omitempty"`
	Model    string             `yaml:"model"    json:"model,omitempty"`
	Timeout  time.Duration      `yaml:"timeout"  json:"timeout,omitempty"`
	APIKey   string             `yaml:"-"        json:"-"`
}

// MetricsConfig holds the tracker's window sizes and anomaly thresholds.
type MetricsConfig struct {
	LatencyWindow             int           `yaml:"latency_window"               json:"latency_window"`
	MaxHourBuckets            int           `yaml:"max_hour_buckets"             json:"max_hour_buckets"`
	FailureRateThreshold      float64       `yaml:"failure_rate_threshold"       json:"failure_rate_threshold"`
	MissingInputRateThreshold float64       `yaml:"missing_input_rate_threshold" json:"missing_input_rate_threshold"`
	SpikeMultiplier           float64       `yaml:"spike_multiplier"             json:"spike_multiplier"`
	SpikeFloor                int           `yaml:"spike_floor"                  json:"spike_floor"`
	NearZeroMedian            float64       `yaml:"near_zero_median"             json:"near_zero_median"`
	IdleWindow                time.Duration `yaml:"idle_window"                  json:"idle_window"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr string `yaml:"addr" json:"addr,omitempty"`
}

// WorkerConfig bounds in-process job concurrency.
type WorkerConfig struct {
	Concurrency int `yaml:"concurrency" json:"concurrency,omitempty"`
}

// DefaultMetricsConfig returns the tracker defaults.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		LatencyWindow:             10000,
		MaxHourBuckets:            7 * 24,
		FailureRateThreshold:      0.10,
		MissingInputRateThreshold: 0.05,
		SpikeMultiplier:           10,
		SpikeFloor:                40,
		NearZeroMedian:            0.5,
		IdleWindow:                time.Hour,
	}
}

// DefaultConfig returns a config that runs fully locally.
func DefaultConfig() Config {
	return Config{
		Storage: StorageConfig{ResultsPrefix: "results"},
		Queue: QueueConfig{
			Brokers: []string{"localhost:9092"},
			Topic:   "bt-jobs",
			GroupID: "bt-workers",
		},
		Summarizer: SummarizerConfig{
			Provider: SummarizerTemplate,
			Model:    "gpt-4o-mini",
			Timeout:  10 * time.Second,
		},
		Metrics: DefaultMetricsConfig(),
		Server:  ServerConfig{Addr: ":8080"},
		Worker:  WorkerConfig{Concurrency: 4},
	}
}

// Validate checks the config for invalid values and returns a descriptive error.
func (c Config) Validate() error {
	// 1. summarizer provider must be known or empty
	if c.Summarizer.Provider != "" {
		valid := false
		for _, p := range ValidSummarizerProviders {
			if c.Summarizer.Provider == p {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("unknown summarizer.provider %q (valid: template, openai)", c.Summarizer.Provider)
		}
	}
	if c.Summarizer.Timeout < 0 {
		return fmt.Errorf("summarizer.timeout must not be negative (got %s)", c.Summarizer.Timeout)
	}

	// 2. worker concurrency must be positive if set
	if c.Worker.Concurrency < 0 {
		return fmt.Errorf("worker.concurrency must be > 0 (got %d)", c.Worker.Concurrency)
	}

	// 3. metrics thresholds
	return c.Metrics.validate()
}

func (m MetricsConfig) validate() error {
	rates := map[string]float64{
		"failure_rate_threshold":       m.FailureRateThreshold,
		"missing_input_rate_threshold": m.MissingInputRateThreshold,
	}
	for name, v := range rates {
		if v < 0 || v > 1 {
			return fmt.Errorf("metrics.%s must be between 0.0 and 1.0 (got %.2f)", name, v)
		}
	}

	ints := map[string]int{
		"latency_window":   m.LatencyWindow,
		"max_hour_buckets": m.MaxHourBuckets,
		"spike_floor":      m.SpikeFloor,
	}
	for name, v := range ints {
		if v < 0 {
			return fmt.Errorf("metrics.%s must not be negative (got %d)", name, v)
		}
	}

	if m.SpikeMultiplier < 0 {
		return fmt.Errorf("metrics.spike_multiplier must not be negative (got %.2f)", m.SpikeMultiplier)
	}
	if m.NearZeroMedian < 0 {
		return fmt.Errorf("metrics.near_zero_median must not be negative (got %.2f)", m.NearZeroMedian)
	}
	if m.IdleWindow < 0 {
		return fmt.Errorf("metrics.idle_window must not be negative (got %s)", m.IdleWindow)
	}
	return nil
}
