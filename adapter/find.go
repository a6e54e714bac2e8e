package adapter

import (
	"fmt"
	"strconv"

	"go.bug.st/serial/enumerator"
)

// Find scans serial ports for a registered VID/PID match, then falls
// back to USB-only backends, the way the teacher's cmd/root.go
// findAdapter walks Greaseweazle, SuperCard Pro, and KryoFlux in
// turn.
func Find(samplesPerBit uint64) (Capture, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("adapter: listing serial ports: %w", err)
	}

	for _, info := range registeredCaptures {
		if info.VendorID == 0 && info.ProductID == 0 {
			continue // USB-only backend, tried below
		}
		for _, port := range ports {
			vid, err := strconv.ParseUint(port.VID, 16, 16)
			if err != nil {
				continue
			}
			pid, err := strconv.ParseUint(port.PID, 16, 16)
			if err != nil {
				continue
			}
			if uint16(vid) != info.VendorID || uint16(pid) != info.ProductID {
				continue
			}
			cap, err := info.Factory(port, samplesPerBit)
			if err != nil {
				continue
			}
			return cap, nil
		}
	}

	for _, info := range registeredCaptures {
		if info.VendorID != 0 || info.ProductID != 0 {
			continue
		}
		cap, err := info.Factory(nil, samplesPerBit)
		if err == nil && cap != nil {
			return cap, nil
		}
	}

	return nil, fmt.Errorf("adapter: no supported capture device found")
}
