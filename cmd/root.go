// Package cmd implements the flexray-analyzer command-line tool: the
// cobra command tree wiring config, adapter, sampler, frame, sink,
// and export together, the way the teacher's own cmd package wires
// its adapter registry and config package behind a handful of
// subcommands.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/flexray-tools/analyzer/config"
	"github.com/flexray-tools/analyzer/export" // also registers csv, yaml sink factories
	"github.com/flexray-tools/analyzer/internal/logging"
)

var cfgPath string
var logFilePath string
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "flexray-analyzer",
	Short: "FlexRay (ISO 17458) link-layer capture, decode, and test-frame generator",
	Long: `flexray-analyzer captures or replays a FlexRay bus channel, decodes
frames into structured field records, and can also build and transmit
synthetic test frames for exercising a device under test.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (default: per-OS default path)")
	rootCmd.PersistentFlags().StringVar(&logFilePath, "log-file", "", "rotate diagnostic logs to this file instead of stderr")
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called by main.main.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

// newLogger builds the diagnostic logger a subcommand uses for the
// lifetime of one run: stderr by default, or a size- and age-rotated
// file when --log-file is set, the way ausocean-av's cmd/rv hands a
// lumberjack.Logger to its structured logger instead of a bare file.
func newLogger(cmd *cobra.Command) (*zap.Logger, error) {
	if logFilePath == "" {
		return logging.New(cmd.ErrOrStderr(), "info")
	}
	return logging.New(export.RotatingFile(logFilePath, 100, 5, 28), "info")
}
