package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/buildtrace/buildtrace/internal/domain"
	"gopkg.in/yaml.v3"
)

const fileName = ".buildtrace.yaml"

// Environment variables that override file values.
const (
	EnvResultsPrefix = "BUILDTRACE_RESULTS_PREFIX"
	EnvKafkaBrokers  = "BUILDTRACE_KAFKA_BROKERS"
	EnvKafkaTopic    = "BUILDTRACE_KAFKA_TOPIC"
	EnvSummarizer    = "BUILDTRACE_SUMMARIZER"
	EnvOpenAIKey     = "OPENAI_API_KEY"
	EnvOpenAIModel   = "OPENAI_MODEL"
)

// YAMLLoader implements domain.ConfigLoader by reading .buildtrace.yaml.
type YAMLLoader struct {
	getenv func(string) string
}

// New creates a YAMLLoader that reads overrides from the process environment.
func New() *YAMLLoader { return &YAMLLoader{getenv: os.Getenv} }

// NewWithEnv creates a YAMLLoader with a custom environment lookup.
func NewWithEnv(getenv func(string) string) *YAMLLoader { return &YAMLLoader{getenv: getenv} }

// Load reads .buildtrace.yaml from dir, merges it over the defaults and
// applies environment overrides. A missing file yields the defaults.
func (l *YAMLLoader) Load(dir string) (domain.Config, error) {
	cfg, err := l.loadFile(dir)
	if err != nil {
		return domain.Config{}, err
	}
	cfg = l.applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return domain.Config{}, fmt.Errorf("invalid environment override: %w", err)
	}
	return cfg, nil
}

func (l *YAMLLoader) loadFile(dir string) (domain.Config, error) {
	data, err := os.ReadFile(filepath.Join(dir, fileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.DefaultConfig(), nil
		}
		return domain.Config{}, err
	}

	var cfg domain.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.Config{}, fmt.Errorf("parsing %s: %w", fileName, err)
	}

	// Validate before merging so typos in the raw file are reported.
	if err := cfg.Validate(); err != nil {
		return domain.Config{}, fmt.Errorf("invalid %s: %w", fileName, err)
	}

	return mergeConfig(domain.DefaultConfig(), cfg), nil
}

func (l *YAMLLoader) applyEnv(cfg domain.Config) domain.Config {
	if v := l.getenv(EnvResultsPrefix); v != "" {
		cfg.Storage.ResultsPrefix = v
	}
	if v := l.getenv(EnvKafkaBrokers); v != "" {
		var brokers []string
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
		if len(brokers) > 0 {
			cfg.Queue.Brokers = brokers
		}
	}
	if v := l.getenv(EnvKafkaTopic); v != "" {
		cfg.Queue.Topic = v
	}
	if v := l.getenv(EnvSummarizer); v != "" {
		cfg.Summarizer.Provider = domain.SummarizerProvider(v)
	}
	if v := l.getenv(EnvOpenAIKey); v != "" {
		cfg.Summarizer.APIKey = v
	}
	if v := l.getenv(EnvOpenAIModel); v != "" {
		cfg.Summarizer.Model = v
	}
	return cfg
}

// mergeConfig overlays explicit file values on top of the defaults.
// Explicit (non-zero) values always win.
func mergeConfig(base, override domain.Config) domain.Config {
	result := base

	if override.Storage.ResultsPrefix != "" {
		result.Storage.ResultsPrefix = override.Storage.ResultsPrefix
	}
	if override.Storage.CredentialsFile != "" {
		result.Storage.CredentialsFile = override.Storage.CredentialsFile
	}

	// Explicit brokers replace the default list entirely.
	if len(override.Queue.Brokers) > 0 {
		result.Queue.Brokers = override.Queue.Brokers
	}
	if override.Queue.Topic != "" {
		result.Queue.Topic = override.Queue.Topic
	}
	if override.Queue.GroupID != "" {
		result.Queue.GroupID = override.Queue.GroupID
	}

	if override.Summarizer.Provider != "" {
		result.Summarizer.Provider = override.Summarizer.Provider
	}
	if override.Summarizer.Model != "" {
		result.Summarizer.Model = override.Summarizer.Model
	}
	if override.Summarizer.Timeout != 0 {
		result.Summarizer.Timeout = override.Summarizer.Timeout
	}

	result.Metrics = mergeMetrics(base.Metrics, override.Metrics)

	if override.Server.Addr != "" {
		result.Server.Addr = override.Server.Addr
	}
	if override.Worker.Concurrency != 0 {
		result.Worker.Concurrency = override.Worker.Concurrency
	}

	return result
}

func mergeMetrics(base, override domain.MetricsConfig) domain.MetricsConfig {
	result := base
	if override.LatencyWindow != 0 {
		result.LatencyWindow = override.LatencyWindow
	}
	if override.MaxHourBuckets != 0 {
		result.MaxHourBuckets = override.MaxHourBuckets
	}
	if override.FailureRateThreshold != 0 {
		result.FailureRateThreshold = override.FailureRateThreshold
	}
	if override.MissingInputRateThreshold != 0 {
		result.MissingInputRateThreshold = override.MissingInputRateThreshold
	}
	if override.SpikeMultiplier != 0 {
		result.SpikeMultiplier = override.SpikeMultiplier
	}
	if override.SpikeFloor != 0 {
		result.SpikeFloor = override.SpikeFloor
	}
	if override.NearZeroMedian != 0 {
		result.NearZeroMedian = override.NearZeroMedian
	}
	if override.IdleWindow != 0 {
		result.IdleWindow = override.IdleWindow
	}
	return result
}
