/*
PURPOSE:
  Defines the 'run' subcommand.
  Executes the memory probe battery and persists the results.

REQUIREMENTS:
  User-specified:
  - Run configured scenarios, a subset of them, or ad-hoc sizes.
  - Write one JSON artifact per run.
  - Optional CSV, Prometheus textfile and SQLite history sinks.

  Implementation-discovered:
  - Need to load config first.
  - Apply flag overrides to config.
  - Scenario resolution happens before any probe runs.

ARCHITECTURE INTEGRATION:
  - Calls: internal/scenario.Resolve(), internal/engine.Runner.Run()
  - Uses: internal/config, internal/output, internal/store

ERROR HANDLING:
  - Returns error if config load, resolution or artifact write fails.
  - Sink write failures during the run are logged by the engine.

IMPLEMENTATION RULES:
  - Setup flags in init().
  - Logic: Load Config -> Override -> Resolve -> Engine.Run -> Persist.

USAGE:
  memory-runner run --sizes 1,16,256 --iterations 20

SELF-HEALING INSTRUCTIONS:
  - Check flag names match Config struct fields generally.

RELATED FILES:
  - internal/cli/root.go
  - internal/scenario/resolver.go

MAINTENANCE:
  - Update when adding new CLI overrides or sinks.
*/

package cli

import (
	"fmt"
	"time"

	"github.com/daryltucker/memory-runner/internal/engine"
	"github.com/daryltucker/memory-runner/internal/output"
	"github.com/daryltucker/memory-runner/internal/scenario"
	"github.com/daryltucker/memory-runner/internal/store"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	sizesOverride        string
	iterationsOverride   int
	scenariosOverride    string
	outputOverride       string
	reportDirOverride    string
	runtimeLabelOverride string
	csvPath              string
	metricsFile          string
	historyOverride      string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the memory benchmark suite",
	Long: `Executes the memory probe battery for every selected scenario.
Each scenario runs four timed probes in a fixed order:
1. Allocation: allocate a fresh buffer per iteration.
2. Allocate + free: allocate, read one byte, release.
3. Writes: fill one pre-allocated buffer per iteration.
4. Reads: read one byte per page of a pre-filled buffer.

Page faults are sampled before and after the four probes. Results are saved as a
JSON array under the report directory, ready for 'memory-runner compare'.`,
	Example: `  # Run every configured scenario
  memory-runner run

  # Run only some configured scenarios (configuration order is kept)
  memory-runner run --scenarios small,large

  # Ad-hoc sizes in MB, ignoring the configuration
  memory-runner run --sizes 1,16,256 --iterations 20

  # Named artifact plus CSV and Prometheus exports
  memory-runner run -o go-baseline.json --csv results.csv --metrics-file memory.prom`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. Load Config
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		// 2. Overrides
		if reportDirOverride != "" {
			cfg.ReportDir = reportDirOverride
		}
		if runtimeLabelOverride != "" {
			cfg.RuntimeLabel = runtimeLabelOverride
		}
		if historyOverride != "" {
			cfg.HistoryDB = historyOverride
		}
		iterations := iterationsOverride
		if iterations == 0 {
			iterations = cfg.DefaultIterations
		}

		// 3. Resolution
		scenarios, err := scenario.Resolve(cfg.Scenarios, scenario.Overrides{
			Sizes:      sizesOverride,
			Iterations: iterations,
			Scenarios:  scenariosOverride,
		})
		if err != nil {
			return err
		}

		// 4. Sinks
		started := time.Now()
		artifact := output.ResolveOutputPath(cfg.ReportDir, outputOverride, started)
		jw := output.NewJSONWriter(artifact)
		sinks := []engine.Sink{jw, output.ScenarioReporter{W: cmd.OutOrStdout()}}

		var csvWriter *output.CSVWriter
		if csvPath != "" {
			csvWriter, err = output.NewCSVWriter(csvPath)
			if err != nil {
				return fmt.Errorf("failed to create CSV file %s: %w", csvPath, err)
			}
			defer csvWriter.Close()
			sinks = append(sinks, csvWriter)
		}

		var metrics *output.MetricsCollector
		if metricsFile != "" {
			metrics = output.NewMetricsCollector()
			sinks = append(sinks, metrics)
		}

		// 5. Execution
		output.Logger.Info("Starting run",
			"scenarios", len(scenarios),
			"runtime", cfg.RuntimeLabel,
			"artifact", artifact,
		)
		results := engine.New(cfg).Run(scenarios, sinks...)

		// 6. Persist
		if err := jw.Close(); err != nil {
			return fmt.Errorf("failed to write results to %s: %w", artifact, err)
		}
		output.Logger.Info("Results saved", "path", artifact, "duration", time.Since(started).Round(time.Millisecond))

		if metrics != nil {
			if err := metrics.WriteTextfile(metricsFile); err != nil {
				return fmt.Errorf("failed to write metrics file %s: %w", metricsFile, err)
			}
			output.Logger.Info("Metrics saved", "path", metricsFile)
		}

		if cfg.HistoryDB != "" {
			h, err := store.Open(cmd.Context(), cfg.HistoryDB)
			if err != nil {
				return err
			}
			defer h.Close()

			runID := uuid.NewString()
			if err := h.Record(cmd.Context(), runID, artifact, started, results); err != nil {
				return err
			}
			output.Logger.Info("Run recorded", "run_id", runID, "history", cfg.HistoryDB)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "\nResults saved to %s\n", artifact)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&sizesOverride, "sizes", "", "Comma-separated buffer sizes in MB (ad-hoc mode, ignores configured scenarios)")
	runCmd.Flags().IntVar(&iterationsOverride, "iterations", 0, "Iterations per ad-hoc scenario (default from config, 50)")
	runCmd.Flags().StringVar(&scenariosOverride, "scenarios", "", "Comma-separated list of configured scenario ids to run")
	runCmd.Flags().StringVarP(&outputOverride, "output", "o", "", "Result file name or path (default <report-dir>/<timestamp>-memory-test.json)")
	runCmd.Flags().StringVar(&reportDirOverride, "report-dir", "", "Directory for result files (overrides config)")
	runCmd.Flags().StringVar(&runtimeLabelOverride, "runtime-label", "", "Label recorded with every result (overrides config)")
	runCmd.Flags().StringVar(&csvPath, "csv", "", "Also export results to this CSV file")
	runCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Also export results as a Prometheus textfile")
	runCmd.Flags().StringVar(&historyOverride, "history", "", "Record the run in this SQLite history database")
}
