package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/buildtrace/buildtrace/internal/domain"
	"github.com/buildtrace/buildtrace/internal/domain/simulate"
)

// SimulateOptions configures a synthetic data run.
type SimulateOptions struct {
	Pairs         int
	Profile       simulate.Profile
	MixedProfiles bool
	BaseSize      int
	Output        string // directory or gs://bucket/prefix
	ManifestURI   string // empty skips writing a manifest
	Seed          int64
}

// SimulateService writes synthetic snapshot pairs and their manifest.
type SimulateService struct {
	writer domain.ResultWriter
	logger *slog.Logger
}

func NewSimulateService(writer domain.ResultWriter, logger *slog.Logger) *SimulateService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SimulateService{writer: writer, logger: logger}
}

// Generate writes opts.Pairs snapshot pairs under opts.Output and returns the
// manifest that references them.
func (s *SimulateService) Generate(ctx context.Context, opts SimulateOptions) (domain.Manifest, error) {
	if opts.Pairs < 1 {
		return domain.Manifest{}, fmt.Errorf("pairs must be > 0 (got %d)", opts.Pairs)
	}
	if opts.BaseSize < 0 {
		return domain.Manifest{}, fmt.Errorf("base size must not be negative (got %d)", opts.BaseSize)
	}
	if opts.Profile == "" {
		opts.Profile = simulate.ProfileMedium
	}
	if _, err := simulate.ParseProfile(string(opts.Profile)); err != nil {
		return domain.Manifest{}, err
	}
	out := strings.TrimSuffix(opts.Output, "/")
	if out == "" {
		out = "generated_data"
	}

	gen := simulate.New(opts.Seed)
	manifest := domain.Manifest{Pairs: make([]domain.ManifestPair, 0, opts.Pairs)}

	for i := 0; i < opts.Pairs; i++ {
		id := simulate.DrawingID(i)
		profile := opts.Profile
		if opts.MixedProfiles {
			profile = gen.RandomProfile()
		}

		a, b, err := gen.Pair(profile, opts.BaseSize)
		if err != nil {
			return domain.Manifest{}, err
		}
		if err := errors.Join(domain.ValidateObjects(a), domain.ValidateObjects(b)); err != nil {
			return domain.Manifest{}, fmt.Errorf("generated pair %s: %w", id, err)
		}

		pair := domain.ManifestPair{
			ID: id,
			A:  fmt.Sprintf("%s/%s_vA.json", out, id),
			B:  fmt.Sprintf("%s/%s_vB.json", out, id),
		}
		if err := s.writer.Write(ctx, pair.A, a); err != nil {
			return domain.Manifest{}, fmt.Errorf("writing %s: %w", pair.A, err)
		}
		if err := s.writer.Write(ctx, pair.B, b); err != nil {
			return domain.Manifest{}, fmt.Errorf("writing %s: %w", pair.B, err)
		}
		manifest.Pairs = append(manifest.Pairs, pair)
		s.logger.Debug("pair generated", slog.String("drawing_id", id), slog.String("profile", string(profile)))
	}

	if opts.ManifestURI != "" {
		if err := s.writer.Write(ctx, opts.ManifestURI, manifest); err != nil {
			return domain.Manifest{}, fmt.Errorf("writing manifest: %w", err)
		}
	}
	s.logger.Info("simulation finished", slog.Int("pairs", opts.Pairs), slog.String("output", out))
	return manifest, nil
}
