package cmd

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/flexray-tools/analyzer/adapter"
	"github.com/flexray-tools/analyzer/signal"
)

var (
	captureOutPath string
	captureBinary  bool
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Record a live channel's edges to a capture file without decoding",
	RunE:  runCapture,
}

func init() {
	captureCmd.Flags().StringVar(&captureOutPath, "out", "", "capture file to write (required)")
	captureCmd.Flags().BoolVar(&captureBinary, "binary", false, "write the varint-delta binary capture format instead of text")
	rootCmd.AddCommand(captureCmd)
}

// edgeWriter is the common surface FileWriter and BinaryFileWriter
// both satisfy, letting runCapture pick the format without a branch
// in the copy loop itself.
type edgeWriter interface {
	WriteEdge(signal.Edge) error
	Close() error
}

func runCapture(cmd *cobra.Command, args []string) error {
	if captureOutPath == "" {
		return fmt.Errorf("capture: --out is required")
	}

	samplesPerBit, err := cfg.SamplesPerBit()
	if err != nil {
		return err
	}

	src, err := adapter.Find(samplesPerBit)
	if err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	defer src.Close()

	var out edgeWriter
	if captureBinary {
		out, err = adapter.CreateBinaryFileWriter(captureOutPath)
	} else {
		out, err = adapter.CreateFileWriter(captureOutPath)
	}
	if err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	defer out.Close()

	idleTimeout := time.Duration(cfg.Capture.IdleTimeoutMs) * time.Millisecond
	for {
		e, err := src.Next()
		switch {
		case err == nil:
			if err := out.WriteEdge(e); err != nil {
				return fmt.Errorf("capture: %w", err)
			}
		case errors.Is(err, signal.ErrNeedMore):
			time.Sleep(idleTimeout / 50)
		case errors.Is(err, io.EOF):
			return nil
		default:
			return fmt.Errorf("capture: %w", err)
		}
	}
}
