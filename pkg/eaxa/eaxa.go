/*
Package eaxa provides functionality for decoding EA-XA ADPCM audio into 16 bit PCM.

# Data Format

EA-XA is the 4 bit ADPCM variant found in Electronic Arts game audio. It stores
each sample as a small residual relative to a prediction made from the two
previously decoded samples.

A stream is a plain concatenation of 15 byte frames. Each frame holds a one
byte header and 14 bytes of residuals, two per byte, high nibble first:

	.- EA-XA FRAME -- 15 bytes, 28 samples ----------------------/  /-----------.
	|        Byte[0]         |        Byte[1]         |  Byte[2]  \  \  Byte[14] |
	| 7  6  5  4  3  2  1  0 | 7  6  5  4  3  2  1  0 | 7  6  5   /  /   2  1  0 |
	|------------+-----------+------------+-----------+-----------\  \-----------|
	|  predictor |  shift-8  |    r00     |    r01    |    r02    /  /    r27    |
	`------------------------------------------------------------\  \-----------`

The predictor index selects a pair of coefficients from a fixed four entry
table. Only indices 0..3 are defined. The shift is 8 plus the low nibble of the
header, so it lies in 8..23.

Each residual is reconstructed as

	sample = int16(((int32(r << 28) >> shift) + c1*h1 + c2*h2) >> 8)

where h1 and h2 are the last and second-to-last decoded samples. All arithmetic
is signed 32 bit and the final narrowing truncates; there is no clamping. The
history carries across frame boundaries.

The decoder never does I/O by itself. Adapters that read files or write
containers live outside this package, except for the small streaming helpers in
Transcode and Reader.
*/
package eaxa

import (
	"errors"
)

const (
	// FrameSize is the size in bytes of one EA-XA frame.
	FrameSize = 15
	// ResidualBytes is the number of residual bytes following the frame header.
	ResidualBytes = FrameSize - 1
	// SamplesPerFrame is the number of samples decoded from one frame.
	SamplesPerFrame = ResidualBytes * 2
	// PredictorCount is the number of defined predictor table entries.
	PredictorCount = 4
	// MinShift and MaxShift bound the per-frame residual shift.
	MinShift = 8
	MaxShift = MinShift + 0x0F
)

var (
	// ErrTruncatedInput is returned when the input does not end on a frame boundary.
	ErrTruncatedInput = errors.New("eaxa: truncated input")
	// ErrInvalidPredictorIndex is returned for a frame header whose predictor index is not 0..3.
	ErrInvalidPredictorIndex = errors.New("eaxa: invalid predictor index")
)

// predictorTable holds the Q8 coefficient pairs indexed by the high nibble of
// the frame header. It is never written.
var predictorTable = [PredictorCount][2]int32{
	{0, 0},
	{240, 0},
	{460, -208},
	{392, -220},
}

// State is the decoder history for one logical stream. The zero value is the
// initial state. A State must not be shared between concurrent decode calls.
type State struct {
	History1 int16 // most recent sample
	History2 int16 // sample before History1
}

// Reset returns the state to silence.
func (s *State) Reset() {
	s.History1 = 0
	s.History2 = 0
}

// push advances the history by one emitted sample.
func (s *State) push(sample int16) {
	s.History2 = s.History1
	s.History1 = sample
}

// FrameHeader is the parsed form of a frame's first byte.
type FrameHeader struct {
	Predictor    uint8
	Coefficient1 int32
	Coefficient2 int32
	Shift        uint8
}

// ParseFrameHeader splits a header byte into predictor coefficients and shift.
func ParseFrameHeader(b byte) (FrameHeader, error) {
	index := b >> 4
	if index >= PredictorCount {
		return FrameHeader{}, ErrInvalidPredictorIndex
	}
	return FrameHeader{
		Predictor:    index,
		Coefficient1: predictorTable[index][0],
		Coefficient2: predictorTable[index][1],
		Shift:        b&0x0F + MinShift,
	}, nil
}

/*
decodeSample reconstructs one sample from a 4 bit residual.

Shifting the nibble into the top of a 32 bit word and shifting back with an
arithmetic right shift sign-extends it and applies the frame scale in one step.
The prediction is summed in Q8 and the result is narrowed by truncation, so
out-of-range sums wrap exactly like the reference decoder.
*/
func decodeSample(history1, history2 int16, nibble uint8, h FrameHeader) int16 {
	residual := int32(uint32(nibble)<<28) >> h.Shift
	sum := residual +
		h.Coefficient1*int32(history1) +
		h.Coefficient2*int32(history2)
	return int16(sum >> 8)
}

// DecodedLen returns the number of samples a stream of n bytes decodes to.
// Trailing bytes that do not form a whole frame are not counted.
func DecodedLen(n int) int {
	return n / FrameSize * SamplesPerFrame
}
