// Package clock converts between sample indices and wall-clock time
// for a fixed-rate capture, the way mfm.GenerateFluxTransitions turns
// bitcells into nanosecond transition times and pll.Decoder tracks
// elapsed time in nanoseconds while walking them.
package clock

import "fmt"

// Rate is a fixed sampling rate, expressed the way config.Config
// stores it: an integer sample rate in Hz and the integer number of
// samples per bit it implies.
type Rate struct {
	SampleRate    uint64
	SamplesPerBit uint64
}

// NewRate validates that sampleRate and bitRate are both positive and
// sampleRate divides evenly by bitRate, then returns the derived Rate.
func NewRate(sampleRate, bitRate uint64) (Rate, error) {
	if sampleRate == 0 {
		return Rate{}, fmt.Errorf("clock: sample rate must be positive")
	}
	if bitRate == 0 {
		return Rate{}, fmt.Errorf("clock: bit rate must be positive")
	}
	if sampleRate%bitRate != 0 {
		return Rate{}, fmt.Errorf("clock: sample rate %d is not a multiple of bit rate %d", sampleRate, bitRate)
	}
	return Rate{SampleRate: sampleRate, SamplesPerBit: sampleRate / bitRate}, nil
}

// Nanoseconds converts a sample index into elapsed nanoseconds since
// sample 0, with the same nanosecond-domain arithmetic
// GenerateFluxTransitions uses for bitcell periods.
func (r Rate) Nanoseconds(sample uint64) uint64 {
	return sample * 1_000_000_000 / r.SampleRate
}

// SampleAt converts an elapsed-nanoseconds offset back into a sample
// index at this rate, rounding down.
func (r Rate) SampleAt(ns uint64) uint64 {
	return ns * r.SampleRate / 1_000_000_000
}

// BitDuration returns the nanosecond period of one bit cell, the
// analyzer's counterpart to mfm's bitcellPeriodNs.
func (r Rate) BitDuration() uint64 {
	return r.SamplesPerBit * 1_000_000_000 / r.SampleRate
}

// Since returns the elapsed nanoseconds between two sample indices.
// end is expected to be the later (larger) sample; a caller comparing
// out-of-order samples gets a wrapped, meaningless result, same as a
// raw unsigned subtraction would.
func (r Rate) Since(start, end uint64) uint64 {
	return r.Nanoseconds(end) - r.Nanoseconds(start)
}
