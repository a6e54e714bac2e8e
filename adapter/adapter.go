// Package adapter implements signal.EdgeSource capture backends and
// the line-driver side of the encode path, adapted from the teacher's
// adapter package: the same VID/PID registry idiom, now keyed to
// capture hardware instead of floppy controllers.
package adapter

import "github.com/flexray-tools/analyzer/signal"

// Capture is a hardware or file-backed source of bus edges, closable
// once a decode run is done. Every backend (serial, USB, file) wraps
// its raw reads in a signal.EdgeSource-compatible Next.
type Capture interface {
	signal.EdgeSource
	Close() error
}

// Replay drives a bit sequence out a physical or virtual line,
// implemented by backends that can also transmit (spec.md treats
// this as "driving GPIO is external"; SPEC_FULL.md's replay
// subcommand is the host-side half of that boundary).
type Replay interface {
	Send(wire []bool, samplesPerBit uint64) error
	Close() error
}
