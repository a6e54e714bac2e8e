package adapter

import "go.bug.st/serial/enumerator"

// CaptureFactory opens a Capture from a detected serial port. portDetails
// is nil for USB-only backends that enumerate through libusb instead
// of a serial port (SerialCapture vs. USBCapture below).
type CaptureFactory func(portDetails *enumerator.PortDetails, samplesPerBit uint64) (Capture, error)

// CaptureInfo is one registered capture backend, matched by VID/PID
// the way the teacher's adapter registry picks a floppy controller.
type CaptureInfo struct {
	VendorID  uint16
	ProductID uint16
	Factory   CaptureFactory
}

var registeredCaptures []CaptureInfo

// RegisterCapture registers a serial-enumerated capture backend.
func RegisterCapture(vendorID, productID uint16, factory CaptureFactory) {
	registeredCaptures = append(registeredCaptures, CaptureInfo{
		VendorID:  vendorID,
		ProductID: productID,
		Factory:   factory,
	})
}

// RegisterUSBCapture registers a backend that enumerates over libusb
// directly instead of through a serial port (VendorID/ProductID are
// matched internally by the factory itself).
func RegisterUSBCapture(factory CaptureFactory) {
	registeredCaptures = append(registeredCaptures, CaptureInfo{Factory: factory})
}

// Registered returns a copy of the backends registered so far, in
// registration order.
func Registered() []CaptureInfo {
	out := make([]CaptureInfo, len(registeredCaptures))
	copy(out, registeredCaptures)
	return out
}
