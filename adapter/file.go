package adapter

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/flexray-tools/analyzer/signal"
)

// FileCapture replays a previously captured "sample_index,level" text
// edge log as a signal.EdgeSource, for running decode against
// recorded data instead of live hardware.
type FileCapture struct {
	f      *os.File
	reader *bufio.Reader
}

// OpenFileCapture opens path for reading.
func OpenFileCapture(path string) (*FileCapture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("adapter: opening capture file %s: %w", path, err)
	}
	return &FileCapture{f: f, reader: bufio.NewReader(f)}, nil
}

// Next implements signal.EdgeSource. Unlike the live backends, a file
// source never reports signal.ErrNeedMore: everything it will ever
// have is already on disk.
func (c *FileCapture) Next() (signal.Edge, error) {
	line, err := c.reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return signal.Edge{}, fmt.Errorf("adapter: reading capture file: %w", err)
	}
	if line == "" {
		return signal.Edge{}, io.EOF
	}
	return parseCaptureLine(line)
}

// Close implements Capture.
func (c *FileCapture) Close() error { return c.f.Close() }

func parseCaptureLine(line string) (signal.Edge, error) {
	line = strings.TrimSpace(line)
	fields := strings.Split(line, ",")
	if len(fields) != 2 {
		return signal.Edge{}, fmt.Errorf("adapter: malformed capture line %q", line)
	}
	sample, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return signal.Edge{}, fmt.Errorf("adapter: malformed sample index %q: %w", fields[0], err)
	}
	levelBit, err := strconv.ParseUint(fields[1], 10, 8)
	if err != nil || levelBit > 1 {
		return signal.Edge{}, fmt.Errorf("adapter: malformed level %q", fields[1])
	}
	return signal.Edge{Sample: sample, NewLevel: signal.Level(levelBit == 1)}, nil
}

// FileWriter appends edges to a text capture file in the same format
// FileCapture reads, used by the capture and encode commands and by
// tests wanting a human-readable fixture.
type FileWriter struct {
	f *os.File
	w *bufio.Writer
}

// CreateFileWriter truncates or creates path for writing.
func CreateFileWriter(path string) (*FileWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("adapter: creating capture file %s: %w", path, err)
	}
	return &FileWriter{f: f, w: bufio.NewWriter(f)}, nil
}

// WriteEdge appends one edge record.
func (w *FileWriter) WriteEdge(e signal.Edge) error {
	level := byte('0')
	if e.NewLevel == signal.Dominant {
		level = '1'
	}
	if _, err := fmt.Fprintf(w.w, "%d,%c\n", e.Sample, level); err != nil {
		return fmt.Errorf("adapter: writing capture record: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (w *FileWriter) Close() error {
	if err := w.w.Flush(); err != nil {
		w.f.Close()
		return fmt.Errorf("adapter: flushing capture file: %w", err)
	}
	return w.f.Close()
}
