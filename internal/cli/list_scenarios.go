/*
PURPOSE:
  Defines the 'list-scenarios' subcommand.
  Helps check which scenarios a run would execute.

REQUIREMENTS:
  User-specified:
  - List configured scenarios.

  Implementation-discovered:
  - Useful validation step before a full run; accepts the same selection
    flags as run and resolves them the same way.

ARCHITECTURE INTEGRATION:
  - Calls: internal/scenario.Resolve()

ERROR HANDLING:
  - Same resolution errors as run (no scenarios, unknown ids).

IMPLEMENTATION RULES:
  - Simple output to stdout.

USAGE:
  memory-runner list-scenarios --scenarios small,large

SELF-HEALING INSTRUCTIONS:
  - None.

RELATED FILES:
  - internal/scenario/resolver.go

MAINTENANCE:
  - None.
*/

package cli

import (
	"fmt"
	"strconv"

	"github.com/daryltucker/memory-runner/internal/output"
	"github.com/daryltucker/memory-runner/internal/scenario"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	listSizes      string
	listIterations int
	listScenarios  string
)

var listScenariosCmd = &cobra.Command{
	Use:   "list-scenarios",
	Short: "List the scenarios a run would execute",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		iterations := listIterations
		if iterations == 0 {
			iterations = cfg.DefaultIterations
		}
		scenarios, err := scenario.Resolve(cfg.Scenarios, scenario.Overrides{
			Sizes:      listSizes,
			Iterations: iterations,
			Scenarios:  listScenarios,
		})
		if err != nil {
			return err
		}

		rows := make([][]string, 0, len(scenarios))
		for _, s := range scenarios {
			rows = append(rows, []string{
				s.ID,
				strconv.FormatFloat(s.SizeMB, 'f', -1, 64),
				humanize.IBytes(uint64(s.SizeBytes())),
				strconv.Itoa(s.Iterations),
			})
		}

		source := cfg.Source
		if source == "" || listSizes != "" {
			source = "ad-hoc"
		}
		return output.RenderTable(cmd.OutOrStdout(),
			fmt.Sprintf("Scenarios (%s)", source),
			[]string{"ID", "Size (MB)", "Bytes", "Iterations"},
			rows,
		)
	},
}

func init() {
	rootCmd.AddCommand(listScenariosCmd)

	listScenariosCmd.Flags().StringVar(&listSizes, "sizes", "", "Comma-separated buffer sizes in MB (ad-hoc mode)")
	listScenariosCmd.Flags().IntVar(&listIterations, "iterations", 0, "Iterations per ad-hoc scenario")
	listScenariosCmd.Flags().StringVar(&listScenarios, "scenarios", "", "Comma-separated list of configured scenario ids")
}
