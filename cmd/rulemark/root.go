package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"rulemark/internal/bridge"
	"rulemark/internal/pkg/logger"
)

// Persistent flag variables.
var (
	flagEngine   string
	flagRuntime  string
	flagTimeout  time.Duration
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "rulemark",
	Short: "rulemark — render game-rule JSON into Markdown via the node engine",
	Long: `rulemark drives the node rendering engine over stdin/stdout and writes
Markdown documents with YAML frontmatter, plus cross-reference metadata,
for retrieval and embedding pipelines.

Examples:
  rulemark summary
  rulemark render spell --limit 5
  rulemark render-all --out ./dist
  rulemark render-curated ./curated --out ./dist`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagEngine, "engine", os.Getenv("ENGINE_SCRIPT"), "Path to the engine script (default: $ENGINE_SCRIPT)")
	rootCmd.PersistentFlags().StringVar(&flagRuntime, "runtime", os.Getenv("NODE_RUNTIME"), "Path to the node executable (default: discovered)")
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", 0, "Per-call engine timeout (default: 60s)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "Log level: debug, info, warn, error")
}

// newBridge builds the engine bridge from the persistent flags.
func newBridge() (*bridge.Client, *logger.Logger, error) {
	if flagEngine == "" {
		return nil, nil, fmt.Errorf("--engine is required (or set ENGINE_SCRIPT)")
	}

	log := logger.New(logger.Config{
		Level:       flagLogLevel,
		Format:      "text",
		ServiceName: "rulemark",
	})

	client, err := bridge.New(bridge.Config{
		ScriptPath: flagEngine,
		Runtime:    flagRuntime,
		Timeout:    flagTimeout,
		Log:        log,
	})
	if err != nil {
		return nil, nil, err
	}
	return client, log, nil
}
