package cli

import (
	"errors"
	"fmt"

	"github.com/buildtrace/buildtrace/internal/adapters/outbound/gitsource"
	"github.com/buildtrace/buildtrace/internal/adapters/outbound/tui"
	"github.com/buildtrace/buildtrace/internal/domain"
	"github.com/spf13/cobra"
)

type diffOutput struct {
	domain.ChangeSet
	Summary string             `json:"summary"`
	Stats   domain.ChangeStats `json:"stats"`
}

func newDiffCmd(opts *globalOptions) *cobra.Command {
	var (
		jsonOutput bool
		revA       string
		revB       string
	)

	cmd := &cobra.Command{
		Use:   "diff A [B]",
		Short: "Compare two drawing snapshots",
		Long: "Compare two drawing snapshots and report added, removed and moved objects.\n" +
			"A and B are file paths, gs:// URIs or git://<rev>:<path> URIs. With --rev-a or\n" +
			"--rev-b a single path is read at those git revisions (the working tree otherwise).",
		Example: "  buildtrace diff plans/L3_A.json plans/L3_B.json\n" +
			"  buildtrace diff plans/L3.json --rev-a HEAD~1",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			uriA, uriB := args[0], args[0]
			if len(args) == 2 {
				uriB = args[1]
			} else if revA == "" && revB == "" {
				return errors.New("diff needs two snapshots, or one path with --rev-a/--rev-b")
			}
			if revA != "" {
				uriA = gitsource.URI(revA, uriA)
			}
			if revB != "" {
				uriB = gitsource.URI(revB, uriB)
			}

			rt, err := opts.runtime(cmd)
			if err != nil {
				return err
			}

			a, b, err := rt.compare.LoadPair(cmd.Context(), uriA, uriB)
			if err != nil {
				return fmt.Errorf("diff failed: %w", err)
			}
			cs, text := rt.compare.Compare(cmd.Context(), a, b)

			if jsonOutput {
				return renderJSON(cmd, diffOutput{ChangeSet: cs, Summary: text, Stats: cs.Stats()})
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderChangeSet(cs, text))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the change set as JSON")
	cmd.Flags().StringVar(&revA, "rev-a", "", "Git revision to read A from")
	cmd.Flags().StringVar(&revB, "rev-b", "", "Git revision to read B from")

	return cmd
}
