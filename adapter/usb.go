package adapter

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/google/gousb"
	"go.bug.st/serial/enumerator"

	"github.com/flexray-tools/analyzer/signal"
)

// defaultBulkEndpoint is the bulk-in endpoint number (gousb addresses
// endpoints by number, not by the USB descriptor's direction-tagged
// address) the reference logic analyzer streams edge records on.
const defaultBulkEndpoint = 1

// USBVendorID and USBProductID identify a bulk-USB logic analyzer
// captured directly through libusb, bypassing the serial-port
// enumeration SerialCapture relies on. The teacher's go.mod already
// requires gousb; no kept teacher source file used it, so this
// backend is new, built the way the rest of the adapter package talks
// to a fixed device: open by VID/PID, read a framed binary stream.
const (
	USBVendorID  = 0x1d50
	USBProductID = 0x6018
)

func init() {
	RegisterUSBCapture(func(_ *enumerator.PortDetails, _ uint64) (Capture, error) {
		return OpenUSBCapture(defaultBulkEndpoint)
	})
}

// USBCapture reads fixed 12-byte edge records (8-byte little-endian
// sample index, 1-byte level, 3 bytes padding) from a bulk endpoint,
// the binary counterpart to SerialCapture's text line format.
type USBCapture struct {
	ctx    *gousb.Context
	dev    *gousb.Device
	cfg    *gousb.Config
	iface  *gousb.Interface
	in     *gousb.InEndpoint
	stream io.Reader
}

// OpenUSBCapture opens the first device matching USBVendorID/USBProductID
// and claims its bulk-in endpoint.
func OpenUSBCapture(epNum int) (*USBCapture, error) {
	ctx := gousb.NewContext()
	dev, err := ctx.OpenDeviceWithVIDPID(gousb.ID(USBVendorID), gousb.ID(USBProductID))
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("adapter: opening USB device %04x:%04x: %w", USBVendorID, USBProductID, err)
	}
	if dev == nil {
		ctx.Close()
		return nil, fmt.Errorf("adapter: no USB device %04x:%04x found", USBVendorID, USBProductID)
	}

	cfg, err := dev.Config(1)
	if err != nil {
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("adapter: selecting USB config: %w", err)
	}
	iface, err := cfg.Interface(0, 0)
	if err != nil {
		cfg.Close()
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("adapter: claiming USB interface: %w", err)
	}
	in, err := iface.InEndpoint(epNum)
	if err != nil {
		iface.Close()
		cfg.Close()
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("adapter: opening bulk endpoint %d: %w", epNum, err)
	}

	stream, err := in.NewStream(4096, 4)
	if err != nil {
		iface.Close()
		cfg.Close()
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("adapter: starting USB read stream: %w", err)
	}

	return &USBCapture{ctx: ctx, dev: dev, cfg: cfg, iface: iface, in: in, stream: stream}, nil
}

// Next implements signal.EdgeSource. A partial record (fewer than 12
// bytes available) is reported as signal.ErrNeedMore.
func (u *USBCapture) Next() (signal.Edge, error) {
	var rec [12]byte
	if _, err := io.ReadFull(u.stream, rec[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return signal.Edge{}, signal.ErrNeedMore
		}
		return signal.Edge{}, fmt.Errorf("adapter: reading USB capture stream: %w", err)
	}
	sample := binary.LittleEndian.Uint64(rec[0:8])
	level := rec[8] != 0
	return signal.Edge{Sample: sample, NewLevel: signal.Level(level)}, nil
}

// Close implements Capture.
func (u *USBCapture) Close() error {
	u.iface.Close()
	u.cfg.Close()
	u.dev.Close()
	u.ctx.Close()
	return nil
}
