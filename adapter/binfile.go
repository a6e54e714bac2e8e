package adapter

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/flexray-tools/analyzer/signal"
)

// BinaryFileCapture reads the varint-delta variant of the text
// capture format: each record is the sample delta since the previous
// edge (uvarint) followed by a single level byte, far more compact
// than the text format for long idle runs.
type BinaryFileCapture struct {
	f          *os.File
	reader     *bufio.Reader
	lastSample uint64
}

// OpenBinaryFileCapture opens path for reading.
func OpenBinaryFileCapture(path string) (*BinaryFileCapture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("adapter: opening binary capture file %s: %w", path, err)
	}
	return &BinaryFileCapture{f: f, reader: bufio.NewReader(f)}, nil
}

// Next implements signal.EdgeSource.
func (c *BinaryFileCapture) Next() (signal.Edge, error) {
	delta, err := binary.ReadUvarint(c.reader)
	if err != nil {
		if err == io.EOF {
			return signal.Edge{}, io.EOF
		}
		return signal.Edge{}, fmt.Errorf("adapter: reading binary capture delta: %w", err)
	}
	levelByte, err := c.reader.ReadByte()
	if err != nil {
		return signal.Edge{}, fmt.Errorf("adapter: reading binary capture level: %w", err)
	}
	if levelByte > 1 {
		return signal.Edge{}, fmt.Errorf("adapter: malformed binary capture level %d", levelByte)
	}
	c.lastSample += delta
	return signal.Edge{Sample: c.lastSample, NewLevel: signal.Level(levelByte == 1)}, nil
}

// Close implements Capture.
func (c *BinaryFileCapture) Close() error { return c.f.Close() }

// BinaryFileWriter writes the same varint-delta format BinaryFileCapture reads.
type BinaryFileWriter struct {
	f          *os.File
	w          *bufio.Writer
	lastSample uint64
	varintBuf  [binary.MaxVarintLen64]byte
}

// CreateBinaryFileWriter truncates or creates path for writing.
func CreateBinaryFileWriter(path string) (*BinaryFileWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("adapter: creating binary capture file %s: %w", path, err)
	}
	return &BinaryFileWriter{f: f, w: bufio.NewWriter(f)}, nil
}

// WriteEdge appends one edge record. Edges must arrive in
// non-decreasing Sample order, the same contract signal.EdgeSource
// promises to its readers.
func (w *BinaryFileWriter) WriteEdge(e signal.Edge) error {
	delta := e.Sample - w.lastSample
	w.lastSample = e.Sample
	n := binary.PutUvarint(w.varintBuf[:], delta)
	if _, err := w.w.Write(w.varintBuf[:n]); err != nil {
		return fmt.Errorf("adapter: writing binary capture delta: %w", err)
	}
	level := byte(0)
	if e.NewLevel == signal.Dominant {
		level = 1
	}
	if err := w.w.WriteByte(level); err != nil {
		return fmt.Errorf("adapter: writing binary capture level: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (w *BinaryFileWriter) Close() error {
	if err := w.w.Flush(); err != nil {
		w.f.Close()
		return fmt.Errorf("adapter: flushing binary capture file: %w", err)
	}
	return w.f.Close()
}
