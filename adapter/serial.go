package adapter

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"

	"github.com/flexray-tools/analyzer/signal"
)

// SerialVendorID and SerialProductID identify the reference USB-serial
// logic probe this backend targets. Like the teacher's Greaseweazle
// constants, these pin one concrete device to its registration; a
// different probe registers its own VID/PID pair alongside this one.
const (
	SerialVendorID  = 0x1209 // Open source hardware projects
	SerialProductID = 0x0001
)

func init() {
	RegisterCapture(SerialVendorID, SerialProductID, func(port *enumerator.PortDetails, spb uint64) (Capture, error) {
		return OpenSerialCapture(port.Name)
	})
}

// SerialCapture reads "<sample> <0|1>\n" edge records from a
// USB-serial logic probe. This space-separated wire format differs
// from the comma-separated "sample_index,level" text format that
// FileCapture reads. A read
// timeout with no complete line yet is reported as
// signal.ErrNeedMore rather than blocking, per spec.md §5.
type SerialCapture struct {
	port   serial.Port
	reader *bufio.Reader
}

// OpenSerialCapture opens portName at the probe's fixed baud rate,
// the way greaseweazle.NewClient opens its port before speaking its
// own protocol.
func OpenSerialCapture(portName string) (*SerialCapture, error) {
	mode := &serial.Mode{BaudRate: 3000000}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("adapter: opening serial port %s: %w", portName, err)
	}
	if err := port.SetReadTimeout(50 * time.Millisecond); err != nil {
		port.Close()
		return nil, fmt.Errorf("adapter: setting read timeout on %s: %w", portName, err)
	}
	return &SerialCapture{port: port, reader: bufio.NewReader(port)}, nil
}

// Next implements signal.EdgeSource.
func (s *SerialCapture) Next() (signal.Edge, error) {
	line, err := s.reader.ReadString('\n')
	if err != nil {
		if line == "" {
			if err == io.EOF {
				return signal.Edge{}, io.EOF
			}
			// go.bug.st/serial returns no error on a read timeout, it
			// simply returns fewer bytes than requested; bufio surfaces
			// that as an io.EOF-less short read only at true EOF, so
			// any other error here is the timeout/no-data case.
			return signal.Edge{}, signal.ErrNeedMore
		}
	}
	return parseEdgeLine(line)
}

// Close implements Capture.
func (s *SerialCapture) Close() error { return s.port.Close() }

func parseEdgeLine(line string) (signal.Edge, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return signal.Edge{}, fmt.Errorf("adapter: malformed edge line %q", line)
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

// SerialReplay drives FrameBuilder output out the same probe,
// transmitting one ASCII '1'/'0' character per sample so the far end
// (another probe, or a loopback test fixture) reconstructs the
// identical edge timeline without any shared clock beyond the byte
// stream itself.
type SerialReplay struct {
	port serial.Port
}

// OpenSerialReplay opens portName for transmission.
func OpenSerialReplay(portName string) (*SerialReplay, error) {
	mode := &serial.Mode{BaudRate: 3000000}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("adapter: opening serial port %s: %w", portName, err)
	}
	return &SerialReplay{port: port}, nil
}

// Send implements Replay.
func (s *SerialReplay) Send(wire []bool, samplesPerBit uint64) error {
	buf := make([]byte, 0, uint64(len(wire))*samplesPerBit)
	for _, bitValue := range wire {
		ch := byte('0')
		if bitValue {
			ch = '1'
		}
		for i := uint64(0); i < samplesPerBit; i++ {
			buf = append(buf, ch)
		}
	}
	if _, err := s.port.Write(buf); err != nil {
		return fmt.Errorf("adapter: writing replay stream: %w", err)
	}
	return nil
}

// Close implements Replay.
func (s *SerialReplay) Close() error { return s.port.Close() }
