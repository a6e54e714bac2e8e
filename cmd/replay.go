package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/flexray-tools/analyzer/adapter"
	"github.com/flexray-tools/analyzer/signal"
)

var replayPort string

var replayCmd = &cobra.Command{
	Use:   "replay CAPTURE.txt",
	Short: "Re-drive a captured or encode-generated bitstream out a serial line driver",
	Args:  cobra.ExactArgs(1),
	RunE:  runReplay,
}

func init() {
	replayCmd.Flags().StringVar(&replayPort, "port", "", "serial port to replay out; default from config")
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	port := replayPort
	if port == "" {
		port = cfg.Capture.Port
	}
	if port == "" {
		return fmt.Errorf("replay: no serial port configured (set capture.port or pass --port)")
	}

	samplesPerBit, err := cfg.SamplesPerBit()
	if err != nil {
		return err
	}

	in, err := adapter.OpenFileCapture(args[0])
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}
	defer in.Close()

	var edges []signal.Edge
	for {
		e, err := in.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("replay: %w", err)
		}
		edges = append(edges, e)
	}

	out, err := adapter.OpenSerialReplay(port)
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}
	defer out.Close()

	wire := signal.BitsFromEdges(edges, samplesPerBit)
	return out.Send(wire, samplesPerBit)
}
