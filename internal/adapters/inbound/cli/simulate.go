package cli

import (
	"fmt"
	"time"

	"github.com/buildtrace/buildtrace/internal/application"
	"github.com/buildtrace/buildtrace/internal/domain/simulate"
	"github.com/spf13/cobra"
)

func newSimulateCmd(opts *globalOptions) *cobra.Command {
	var (
		pairs         int
		profile       string
		output        string
		manifest      string
		baseSize      int
		mixedProfiles bool
		seed          int64
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Generate synthetic drawing pairs and a manifest",
		Long:  "Write snapshot pairs with a chosen change profile (none, small, medium, large, spike) to a directory or gs:// prefix, plus a manifest that batch, enqueue and POST /process accept.",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := simulate.ParseProfile(profile)
			if err != nil {
				return err
			}
			rt, err := opts.runtime(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("seed") {
				seed = time.Now().UnixNano()
			}

			m, err := application.NewSimulateService(rt.store, rt.logger).Generate(cmd.Context(), application.SimulateOptions{
				Pairs:         pairs,
				Profile:       p,
				MixedProfiles: mixedProfiles,
				BaseSize:      baseSize,
				Output:        output,
				ManifestURI:   manifest,
				Seed:          seed,
			})
			if err != nil {
				return fmt.Errorf("simulation failed: %w", err)
			}

			label := string(p)
			if mixedProfiles {
				label = "mixed"
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "generated %d drawing pairs (profile %s, base size %d, seed %d)\n", len(m.Pairs), label, baseSize, seed)
			fmt.Fprintf(out, "manifest: %s\n", manifest)
			return nil
		},
	}

	cmd.Flags().IntVar(&pairs, "pairs", 10, "Number of drawing pairs to generate")
	cmd.Flags().StringVar(&profile, "profile", string(simulate.ProfileMedium), "Change profile: none, small, medium, large or spike")
	cmd.Flags().StringVar(&output, "output", "generated_data", "Output directory or gs://bucket/prefix")
	cmd.Flags().StringVar(&manifest, "manifest", "manifest.json", "Where to write the manifest")
	cmd.Flags().IntVar(&baseSize, "base-size", 20, "Number of objects in each base drawing")
	cmd.Flags().BoolVar(&mixedProfiles, "mixed-profiles", false, "Pick a random profile for each pair")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (defaults to the current time)")

	return cmd
}
