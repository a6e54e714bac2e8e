package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/flexray-tools/analyzer/frame"
	"github.com/flexray-tools/analyzer/sink"
)

// CSV writes committed FieldRecords as rows, one record per line, the
// flattest export format for spreadsheet or grep-based inspection.
// There is no third-party CSV library in the dependency corpus this
// module draws from, so this sink is the one component that reaches
// for encoding/csv rather than an imported dependency.
type CSV struct {
	f      *os.File
	w      *csv.Writer
	packet uint64
	open   bool
}

var csvHeader = []string{"packet", "kind", "data1", "data2", "flags", "start_sample", "end_sample"}

// NewCSV creates destination, truncating any existing file, and
// writes the header row. A destination of "-" writes to standard
// output instead.
func NewCSV(destination string) (*CSV, error) {
	f := os.Stdout
	if destination != "-" {
		var err error
		f, err = os.Create(destination)
		if err != nil {
			return nil, fmt.Errorf("export: creating CSV file %s: %w", destination, err)
		}
	}
	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("export: writing CSV header: %w", err)
	}
	return &CSV{f: f, w: w}, nil
}

// OpenPacket implements frame.Sink.
func (c *CSV) OpenPacket() {
	c.open = true
}

// Commit implements frame.Sink.
func (c *CSV) Commit(record frame.FieldRecord) {
	if !c.open {
		return
	}
	row := []string{
		strconv.FormatUint(c.packet, 10),
		record.Kind.String(),
		strconv.FormatUint(uint64(record.Data1), 10),
		strconv.FormatUint(uint64(record.Data2), 10),
		strconv.FormatUint(uint64(record.Flags), 10),
		strconv.FormatUint(record.StartSample, 10),
		strconv.FormatUint(record.EndSample, 10),
	}
	c.w.Write(row)
}

// CommitPacket implements frame.Sink.
func (c *CSV) CommitPacket() uint64 {
	id := c.packet
	c.packet++
	c.open = false
	c.w.Flush()
	return id
}

// CancelPacket implements frame.Sink.
func (c *CSV) CancelPacket() {
	c.open = false
}

// Close flushes and closes the underlying file.
func (c *CSV) Close() error {
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		c.f.Close()
		return fmt.Errorf("export: flushing CSV file: %w", err)
	}
	return c.f.Close()
}

func init() {
	sink.Register("csv", func(destination string) (frame.Sink, error) {
		return NewCSV(destination)
	})
}
