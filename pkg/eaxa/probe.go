package eaxa

import (
	"fmt"
	"os"
)

// Info describes a stream without decoding its samples.
type Info struct {
	Frames     int
	Samples    int
	Predictors [PredictorCount]int // frames using each predictor index
	MinShift   uint8
	MaxShift   uint8
}

// Probe validates every frame header in src and collects stream statistics.
// It fails with the same errors Decode would.
func Probe(src []byte) (Info, error) {
	info := Info{}
	frames := len(src) / FrameSize

	for i := 0; i < frames; i++ {
		b := src[i*FrameSize]
		header, err := ParseFrameHeader(b)
		if err != nil {
			return info, fmt.Errorf("frame %d: %w %d", i, err, b>>4)
		}

		info.Predictors[header.Predictor]++
		if info.Frames == 0 || header.Shift < info.MinShift {
			info.MinShift = header.Shift
		}
		if header.Shift > info.MaxShift {
			info.MaxShift = header.Shift
		}
		info.Frames++
	}
	info.Samples = info.Frames * SamplesPerFrame

	if rem := len(src) % FrameSize; rem != 0 {
		return info, fmt.Errorf("%w: %d trailing bytes at offset %d", ErrTruncatedInput, rem, frames*FrameSize)
	}
	return info, nil
}

// ProbeFile reads the file at path and probes it.
func ProbeFile(path string) (Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Info{}, err
	}
	return Probe(data)
}

// IsValidStream reports whether the file at path is a decodable EA-XA stream.
// Empty files are not considered streams.
func IsValidStream(path string) (bool, error) {
	info, err := ProbeFile(path)
	if err != nil {
		return false, err
	}
	if info.Frames == 0 {
		return false, fmt.Errorf("no frames found in %s", path)
	}
	return true, nil
}
