/*
PURPOSE:
  Defines the 'history' subcommands.
  Browses runs recorded with --history and re-exports them as result files.

REQUIREMENTS:
  User-specified:
  - List recorded runs.
  - Export a recorded run so 'compare' can read it.

  Implementation-discovered:
  - The database path comes from --db, then history_db in config.

ARCHITECTURE INTEGRATION:
  - Calls: internal/store.History
  - Writes: internal/output.WriteResults()

ERROR HANDLING:
  - Missing database path is an error, not an empty listing.
  - Unknown run ids surface store.ErrRunNotFound.

IMPLEMENTATION RULES:
  - Read-only except for the exported file.

USAGE:
  memory-runner history list --db reports/history.db
  memory-runner history export <run-id> -o go.json

SELF-HEALING INSTRUCTIONS:
  - None.

RELATED FILES:
  - internal/store/history.go

MAINTENANCE:
  - None.
*/

package cli

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/daryltucker/memory-runner/internal/output"
	"github.com/daryltucker/memory-runner/internal/store"
	"github.com/spf13/cobra"
)

var (
	historyDB  string
	exportPath string
)

var errNoHistoryDB = errors.New("no history database configured (use --db or history_db)")

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse and export recorded runs",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer h.Close()

		runs, err := h.Runs(cmd.Context())
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
			return nil
		}

		rows := make([][]string, 0, len(runs))
		for _, r := range runs {
			rows = append(rows, []string{
				r.ID,
				r.CreatedAt.Local().Format(time.DateTime),
				r.RuntimeLabel,
				r.RuntimeVersion,
				strconv.Itoa(r.Scenarios),
				r.Artifact,
			})
		}
		return output.RenderTable(cmd.OutOrStdout(), "Recorded runs",
			[]string{"Run", "Started", "Runtime", "Version", "Scenarios", "Artifact"},
			rows,
		)
	},
}

var historyExportCmd = &cobra.Command{
	Use:   "export <run-id>",
	Short: "Export a recorded run as a result file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer h.Close()

		results, err := h.Results(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := output.WriteResults(exportPath, results); err != nil {
			return fmt.Errorf("failed to write %s: %w", exportPath, err)
		}

		output.Logger.Info("Run exported", "run_id", args[0], "path", exportPath, "scenarios", len(results))
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d results to %s\n", len(results), exportPath)
		return nil
	},
}

func openHistory(cmd *cobra.Command) (*store.History, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	path := historyDB
	if path == "" {
		path = cfg.HistoryDB
	}
	if path == "" {
		return nil, errNoHistoryDB
	}
	return store.Open(cmd.Context(), path)
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyExportCmd)

	historyCmd.PersistentFlags().StringVar(&historyDB, "db", "", "History database (default history_db from config)")
	historyExportCmd.Flags().StringVarP(&exportPath, "output", "o", "", "Destination result file")
	historyExportCmd.MarkFlagRequired("output")
}
