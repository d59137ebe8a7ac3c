package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/buildtrace/buildtrace/internal/adapters/outbound/config"
	"github.com/buildtrace/buildtrace/internal/adapters/outbound/gitsource"
	"github.com/buildtrace/buildtrace/internal/adapters/outbound/llm"
	"github.com/buildtrace/buildtrace/internal/adapters/outbound/storage"
	"github.com/buildtrace/buildtrace/internal/adapters/outbound/telemetry"
	"github.com/buildtrace/buildtrace/internal/application"
	"github.com/buildtrace/buildtrace/internal/domain"
	"github.com/buildtrace/buildtrace/internal/domain/metrics"
	"github.com/buildtrace/buildtrace/internal/domain/summary"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// runtime is the object graph shared by the commands of one invocation.
type runtime struct {
	cfg      domain.Config
	logger   *slog.Logger
	store    *storage.Router
	tracker  *metrics.Tracker
	exporter *telemetry.Exporter
	compare  *application.CompareService
}

func (o *globalOptions) runtime(cmd *cobra.Command) (*runtime, error) {
	logger, err := newLogger(cmd.ErrOrStderr(), o.logLevel)
	if err != nil {
		return nil, err
	}

	cfg, err := config.New().Load(o.configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	store := storage.NewRouter(
		storage.NewFileStore(""),
		storage.WithGit(gitsource.New(".")),
		storage.WithGCSOpener(func(ctx context.Context) (storage.Backend, error) {
			gcs, err := storage.NewGCSStore(ctx, cfg.Storage.CredentialsFile)
			if err != nil {
				return nil, err
			}
			return gcs, nil
		}),
	)

	tracker := metrics.New(cfg.Metrics)
	exporter := telemetry.NewExporter(tracker)
	compare := application.NewCompareService(
		store,
		store,
		newSummarizer(cfg.Summarizer, logger),
		exporter.Recorder(tracker),
		cfg.Storage.ResultsPrefix,
		logger,
	)

	return &runtime{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		tracker:  tracker,
		exporter: exporter,
		compare:  compare,
	}, nil
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l})), nil
}

// newSummarizer picks the configured summary generator. The OpenAI
// summarizer is always wrapped so its failures degrade to the template.
func newSummarizer(cfg domain.SummarizerConfig, logger *slog.Logger) domain.Summarizer {
	if cfg.Provider != domain.SummarizerOpenAI {
		return summary.Template{}
	}
	primary, err := llm.NewOpenAISummarizer(cfg.APIKey, cfg.Model, logger)
	if err != nil {
		logger.Warn("openai summarizer unavailable, using template", slog.String("error", err.Error()))
		return summary.Template{}
	}
	return summary.NewFallback(primary, cfg.Timeout, logger)
}

// loadManifest reads a manifest through the storage router. JSON and YAML
// documents are both accepted.
func loadManifest(ctx context.Context, r domain.SnapshotReader, uri string) (domain.Manifest, error) {
	data, err := r.Read(ctx, uri)
	if err != nil {
		return domain.Manifest{}, fmt.Errorf("reading manifest: %w", err)
	}

	var m domain.Manifest
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		err = json.Unmarshal(trimmed, &m)
	} else {
		err = yaml.Unmarshal(data, &m)
	}
	if err != nil {
		return domain.Manifest{}, fmt.Errorf("parsing manifest %s: %w", uri, err)
	}
	if err := domain.ValidateManifest(m); err != nil {
		return domain.Manifest{}, err
	}
	return m, nil
}

func renderJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
