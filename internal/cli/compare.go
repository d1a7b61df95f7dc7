/*
PURPOSE:
  Defines the 'compare' subcommand.
  Compares two result files (typically from two runtimes) scenario by scenario.

REQUIREMENTS:
  User-specified:
  - Per-scenario speedups, an averaged summary with a win tally, and a
    page-fault breakdown per size.
  - Machine-readable output (--json).

  Implementation-discovered:
  - Pairing is positional; differing ids are warned about, not rejected.
  - Runs of different length fail unless --truncate is given.

ARCHITECTURE INTEGRATION:
  - Calls: internal/output.LoadResults(), internal/compare.Compare()
  - Renders: internal/output.RenderComparison()

ERROR HANDLING:
  - Either artifact failing to load is fatal (*output.ArtifactLoadError names the path).

IMPLEMENTATION RULES:
  - Both artifacts are loaded in full before comparing.

USAGE:
  memory-runner compare reports/memory/go.json reports/memory/node.json

SELF-HEALING INSTRUCTIONS:
  - None.

RELATED FILES:
  - internal/compare/compare.go
  - internal/output/report.go

MAINTENANCE:
  - None.
*/

package cli

import (
	"encoding/json"

	"github.com/daryltucker/memory-runner/internal/compare"
	"github.com/daryltucker/memory-runner/internal/config"
	"github.com/daryltucker/memory-runner/internal/model"
	"github.com/daryltucker/memory-runner/internal/output"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	labelA      string
	labelB      string
	truncate    bool
	compareJSON bool
)

var compareCmd = &cobra.Command{
	Use:   "compare <results-a> <results-b>",
	Short: "Compare two result files",
	Long: `Pairs the results of two runs by position and reports, per scenario and
on average, which side was faster for every probe. A speedup is the ratio of
the two timings; a zero timing on either side is reported as n/d.`,
	Example: `  memory-runner compare reports/memory/go.json reports/memory/node.json
  memory-runner compare a.json b.json --label-a go-1.25 --label-b go-1.26
  memory-runner compare a.json b.json --truncate --json`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		setupLogger(config.DefaultConfig())

		var a, b []model.Result
		var g errgroup.Group
		g.Go(func() (err error) {
			a, err = output.LoadResults(args[0])
			return err
		})
		g.Go(func() (err error) {
			b, err = output.LoadResults(args[1])
			return err
		})
		if err := g.Wait(); err != nil {
			return err
		}

		policy := compare.PolicyStrict
		if truncate {
			policy = compare.PolicyTruncate
		}
		cmp, err := compare.Compare(a, b, compare.Options{
			Policy: policy,
			LabelA: labelA,
			LabelB: labelB,
		})
		if err != nil {
			return err
		}

		if cmp.Truncated {
			output.Logger.Warn("Runs differ in length, comparing common prefix",
				"len_a", cmp.LenA,
				"len_b", cmp.LenB,
				"compared", len(cmp.Rows),
			)
		}
		for i, row := range cmp.Rows {
			if row.IDMismatch {
				output.Logger.Warn("Scenario ids differ, pairing by position",
					"position", i,
					"scenario_a", row.ScenarioID,
					"scenario_b", row.ScenarioIDB,
				)
			}
		}

		if compareJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(cmp)
		}
		return output.RenderComparison(cmd.OutOrStdout(), cmp)
	},
}

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().StringVar(&labelA, "label-a", "", "Label for the first run (default: its runtime label)")
	compareCmd.Flags().StringVar(&labelB, "label-b", "", "Label for the second run (default: its runtime label)")
	compareCmd.Flags().BoolVar(&truncate, "truncate", false, "Compare the common prefix when runs differ in length")
	compareCmd.Flags().BoolVar(&compareJSON, "json", false, "Print the comparison as JSON")
}
