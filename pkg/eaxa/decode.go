package eaxa

import (
	"errors"
	"fmt"
	"io"
)

// DecodeFrame decodes one 15 byte frame, appending its 28 samples to dst.
// Bytes past the first FrameSize are ignored. On error no sample of the frame
// is appended and the state is unchanged.
func (s *State) DecodeFrame(dst []int16, frame []byte) ([]int16, error) {
	if len(frame) < FrameSize {
		return dst, fmt.Errorf("%w: frame is %d bytes", ErrTruncatedInput, len(frame))
	}

	header, err := ParseFrameHeader(frame[0])
	if err != nil {
		return dst, fmt.Errorf("%w %d", err, frame[0]>>4)
	}

	for _, b := range frame[1:FrameSize] {
		sample := decodeSample(s.History1, s.History2, b>>4, header)
		s.push(sample)
		dst = append(dst, sample)

		sample = decodeSample(s.History1, s.History2, b&0x0F, header)
		s.push(sample)
		dst = append(dst, sample)
	}
	return dst, nil
}

// Decode decodes a stream of whole frames, appending samples to dst and
// carrying the history across frames. Samples of frames decoded before an
// error are kept in the returned slice. A trailing partial frame is reported
// as ErrTruncatedInput and never decoded.
func (s *State) Decode(dst []int16, src []byte) ([]int16, error) {
	frames := len(src) / FrameSize
	if cap(dst)-len(dst) < frames*SamplesPerFrame {
		grown := make([]int16, len(dst), len(dst)+frames*SamplesPerFrame)
		copy(grown, dst)
		dst = grown
	}

	var err error
	for i := 0; i < frames; i++ {
		dst, err = s.DecodeFrame(dst, src[i*FrameSize:(i+1)*FrameSize])
		if err != nil {
			return dst, fmt.Errorf("frame %d: %w", i, err)
		}
	}

	if rem := len(src) % FrameSize; rem != 0 {
		return dst, fmt.Errorf("%w: %d trailing bytes at offset %d", ErrTruncatedInput, rem, frames*FrameSize)
	}
	return dst, nil
}

// Decode decodes a complete stream starting from silence.
func Decode(src []byte) ([]int16, error) {
	var s State
	return s.Decode(make([]int16, 0, DecodedLen(len(src))), src)
}

// Transcode reads frames from src until EOF and writes each frame's samples to
// dst as little-endian PCM. It returns the number of PCM bytes written. A
// stream ending inside a frame is reported as ErrTruncatedInput after all
// whole frames have been written.
func (s *State) Transcode(dst io.Writer, src io.Reader) (int64, error) {
	var (
		frame   [FrameSize]byte
		samples = make([]int16, 0, SamplesPerFrame)
		pcm     = make([]byte, 0, SamplesPerFrame*2)
		written int64
	)

	for i := 0; ; i++ {
		n, err := io.ReadFull(src, frame[:])
		if err == io.EOF {
			return written, nil
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return written, fmt.Errorf("%w: %d trailing bytes at offset %d", ErrTruncatedInput, n, i*FrameSize)
		}
		if err != nil {
			return written, err
		}

		samples, err = s.DecodeFrame(samples[:0], frame[:])
		if err != nil {
			return written, fmt.Errorf("frame %d: %w", i, err)
		}

		pcm = AppendPCM(pcm[:0], samples)
		m, err := dst.Write(pcm)
		written += int64(m)
		if err != nil {
			return written, err
		}
	}
}
