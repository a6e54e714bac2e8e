package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/flexray-tools/analyzer/adapter"
	"github.com/flexray-tools/analyzer/internal/metrics"
	"github.com/flexray-tools/analyzer/signal"
	"github.com/flexray-tools/analyzer/sink"
)

var (
	decodeInPath    string
	decodeOutFormat string
	decodeOutPath   string
)

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Capture or replay a FlexRay channel and decode frames into records",
	RunE:  runDecode,
}

func init() {
	decodeCmd.Flags().StringVar(&decodeInPath, "in", "", "capture file to decode instead of a live adapter")
	decodeCmd.Flags().StringVar(&decodeOutFormat, "format", "", "output sink (memory, csv, yaml); default from config")
	decodeCmd.Flags().StringVar(&decodeOutPath, "out", "", "output destination; default from config")
	rootCmd.AddCommand(decodeCmd)
}

func runDecode(cmd *cobra.Command, args []string) error {
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	samplesPerBit, err := cfg.SamplesPerBit()
	if err != nil {
		return err
	}

	var src signal.EdgeSource
	var closer io.Closer
	if decodeInPath != "" {
		fc, err := adapter.OpenFileCapture(decodeInPath)
		if err != nil {
			return err
		}
		src, closer = fc, fc
	} else {
		cap, err := adapter.Find(samplesPerBit)
		if err != nil {
			return fmt.Errorf("decode: %w", err)
		}
		src, closer = cap, cap
	}
	defer closer.Close()
	src = signal.Invert(src, signal.Polarity{Inverted: cfg.Channel.Inverted})

	format := decodeOutFormat
	if format == "" {
		format = cfg.Export.Format
	}
	destination := decodeOutPath
	if destination == "" {
		destination = cfg.Export.Path
	}
	out, err := sink.Open(format, destination)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if c, ok := out.(io.Closer); ok {
		defer c.Close()
	}

	reg := metrics.New()
	stopMetrics := maybeServeMetrics(cfg, reg, log)
	defer stopMetrics()

	if err := decodeLoop(src, samplesPerBit, out, cfg, log, reg); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
