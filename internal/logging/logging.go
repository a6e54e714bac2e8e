// Package logging sets up the structured logger the cmd package uses
// for host-side diagnostics: sample gaps, sync errors, CRC mismatches.
// The core packages (bit, signal, sampler, frame, crc) stay logging
// free, the way the teacher keeps its mfm and pll decoders silent and
// reserves fmt.Printf for its cmd layer; this package is simply that
// same cmd-layer reporting done with a structured logger instead of
// bare Printf calls.
package logging

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap.Logger writing JSON lines to w at the requested
// level ("debug", "info", "warn", "error"; anything else falls back
// to "info").
func New(w io.Writer, level string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(w),
		lvl,
	)
	return zap.New(core), nil
}

// Nop returns a logger that discards everything, for tests and for
// any path that hasn't been wired to a real destination yet.
func Nop() *zap.Logger { return zap.NewNop() }
