/*
PURPOSE:
  Defines the root Cobra command for the Memory Runner CLI.
  Handles global flags, config loading and logger setup.

REQUIREMENTS:
  User-specified:
  - Provide a CLI interface.
  - Support global flags like --config, --log-level and --log-format.

  Implementation-discovered:
  - Needs to expose an Execute() function for main.go.
  - Flags win over config values, config wins over defaults.

ARCHITECTURE INTEGRATION:
  - Called by: cmd/memory-runner/main.go
  - Calls: Child commands (run, compare, list-scenarios, history, version)
  - Modifies: output.Logger (replaced once config is known).

ERROR HANDLING:
  - Returns error to main.go for exit code handling.
  - Cobra's own error printing is silenced; main prints "Error: ...".

IMPLEMENTATION RULES:
  - Use `PersistentFlags()` for flags available to all subcommands.
  - Commands that need config call loadConfig() first; compare only calls
    setupLogger() so a broken config file cannot block it.

USAGE:
  Called by main.go.

SELF-HEALING INSTRUCTIONS:
  - If adding new global flags, add them to init().

RELATED FILES:
  - cmd/memory-runner/main.go
  - internal/config/config.go

MAINTENANCE:
  - Update when adding global configuration options.
*/

package cli

import (
	"os"

	"github.com/daryltucker/memory-runner/internal/config"
	"github.com/daryltucker/memory-runner/internal/output"
	"github.com/spf13/cobra"
)

var (
	// cfgFile stores the path to the config file (if specified via flag)
	cfgFile   string
	logLevel  string
	logFormat string

	rootCmd = &cobra.Command{
		Use:   "memory-runner",
		Short: "Memory benchmark harness with cross-runtime comparison",
		Long: `Runs a fixed battery of memory probes (allocation, allocate+free, bulk writes,
strided reads) over configurable buffer sizes, records timings and page faults,
and compares result files produced by different runtimes.

Use 'run --help' for benchmark options and 'compare --help' for comparisons.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig loads the configuration and installs the logger it asks for.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	setupLogger(cfg)

	if cfg.Source != "" {
		output.Logger.Debug("Loaded config", "path", cfg.Source, "scenarios", len(cfg.Scenarios))
	}
	return cfg, nil
}

// setupLogger installs the logger from cfg, with --log-level/--log-format on top.
// Commands that read no configuration pass config.DefaultConfig().
func setupLogger(cfg *config.Config) {
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	output.SetLogger(output.NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr))
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./memory_runner.yaml, then ./config/memory-scenarios.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: auto, text, json")
}
