package eaxa

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

// frameOf builds a frame from a header byte and a residual byte repeated 14 times.
func frameOf(header, residual byte) []byte {
	frame := make([]byte, FrameSize)
	frame[0] = header
	for i := 1; i < FrameSize; i++ {
		frame[i] = residual
	}
	return frame
}

func mustHex(t testing.TB, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

// referenceDecode decodes with 64 bit arithmetic and explicit nibble sign
// extension, independently of decodeSample.
func referenceDecode(src []byte) []int16 {
	var h1, h2 int64
	var out []int16
	for f := 0; f+FrameSize <= len(src); f += FrameSize {
		c := predictorTable[src[f]>>4]
		shift := int64(src[f]&0x0F) + MinShift
		for _, b := range src[f+1 : f+FrameSize] {
			for _, n := range []int64{int64(b >> 4), int64(b & 0x0F)} {
				if n >= 8 {
					n -= 16
				}
				sum := n<<(28-shift) + int64(c[0])*h1 + int64(c[1])*h2
				sample := int16(sum >> 8)
				h2, h1 = h1, int64(sample)
				out = append(out, sample)
			}
		}
	}
	return out
}

func TestParseFrameHeader(t *testing.T) {
	testCases := []struct {
		b        byte
		expected FrameHeader
		hasError bool
	}{
		{0x00, FrameHeader{Predictor: 0, Coefficient1: 0, Coefficient2: 0, Shift: 8}, false},
		{0x1F, FrameHeader{Predictor: 1, Coefficient1: 240, Coefficient2: 0, Shift: 23}, false},
		{0x25, FrameHeader{Predictor: 2, Coefficient1: 460, Coefficient2: -208, Shift: 13}, false},
		{0x3A, FrameHeader{Predictor: 3, Coefficient1: 392, Coefficient2: -220, Shift: 18}, false},
		{0x40, FrameHeader{}, true},
		{0xF0, FrameHeader{}, true},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("0x%02X", tc.b), func(t *testing.T) {
			h, err := ParseFrameHeader(tc.b)
			if tc.hasError {
				assert.ErrorIs(t, err, ErrInvalidPredictorIndex)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, h)
		})
	}
}

func TestDecodeSample(t *testing.T) {
	testCases := []struct {
		name     string
		header   byte
		nibble   uint8
		h1, h2   int16
		expected int16
	}{
		{"Zero", 0x00, 0, 0, 0, 0},
		{"Most negative residual", 0x00, 8, 0, 0, -32768},
		{"Sign extension", 0x00, 15, 0, 0, -4096},
		{"Most positive residual", 0x00, 7, 0, 0, 28672},
		{"Max shift positive", 0x0F, 1, 0, 0, 0},
		{"Max shift negative", 0x0F, 8, 0, 0, -1},
		{"Max shift minus one", 0x0F, 15, 0, 0, -1},
		{"Two tap prediction", 0x20, 0, 1000, 500, 1390},
		{"Prediction floors toward negative", 0x10, 0, -1000, 0, -938},
		{"Overflow wraps", 0x20, 7, 32767, -32768, -16898},
		{"Predictor three", 0x34, 3, -5000, 2500, -9037},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h, err := ParseFrameHeader(tc.header)
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, decodeSample(tc.h1, tc.h2, tc.nibble, h))
		})
	}
}

func TestDecodeScenarios(t *testing.T) {
	testCases := []struct {
		desc     string
		input    string
		expected string
		err      error
	}{
		{
			desc:     "All zero frame",
			input:    "000000000000000000000000000000",
			expected: string(bytes.Repeat([]byte{0x00}, 56)),
		},
		{
			desc:     "Alternating most negative residual",
			input:    "00" + "8080808080808080808080808080",
			expected: string(bytes.Repeat([]byte{0x00, 0x80, 0x00, 0x00}, 14)),
		},
		{
			desc:  "Invalid predictor index",
			input: "400000000000000000000000000000",
			err:   ErrInvalidPredictorIndex,
		},
		{
			desc:  "Truncated input",
			input: "0000000000000000000000000000",
			err:   ErrTruncatedInput,
		},
		{
			desc:     "Sign extension",
			input:    "00f0f0f0f0f0f0f0f0f0f0f0f0f0f0",
			expected: string(bytes.Repeat([]byte{0x00, 0xF0, 0x00, 0x00}, 14)),
		},
		{
			desc:     "Empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			samples, err := Decode(mustHex(t, tc.input))
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				assert.Empty(t, samples, "Expected no samples")
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, string(AppendPCM(nil, samples)))
		})
	}
}

func TestDecodeGolden(t *testing.T) {
	src := mustHex(t, "2c1f7a8003e945b60cd2718f5e24a3"+
		"3a00ff1122aa55c3c3699607e1b4f8"+
		"1f0123456789abcdeffedcba987654")
	expected := []int16{
		1, 0, 6, 4, -6, -15, -23, -27, -32, -43, -48, -47, -51, -48,
		-45, -46, -50, -51, -45, -39, -42, -45, -42, -41, -38, -31, -31, -28,
		-17, -2, 7, 8, 10, 12, 17, 23, -4, -50, -54, -20, -1, 27,
		26, 28, 44, 15, -43, -55, -48, 1, 34, 55, 35, 22, -1, -53,
		-50, -47, -44, -41, -38, -35, -33, -31, -31, -30, -29, -28, -27, -26,
		-25, -24, -23, -22, -21, -21, -21, -21, -21, -21, -19, -18, -17, -16,
	}

	samples, err := Decode(src)
	assert.NoError(t, err)
	assert.Equal(t, expected, samples)
	assert.Equal(t, referenceDecode(src), samples)
}

func TestZeroResidualsAllHeaders(t *testing.T) {
	for index := byte(0); index < PredictorCount; index++ {
		for shift := byte(0); shift <= 0x0F; shift++ {
			samples, err := Decode(frameOf(index<<4|shift, 0x00))
			assert.NoError(t, err)
			assert.Equal(t, make([]int16, SamplesPerFrame), samples, "header 0x%X%X", index, shift)
		}
	}
}

func TestInvalidPredictorIndices(t *testing.T) {
	for index := byte(PredictorCount); index <= 0x0F; index++ {
		var s State
		samples, err := s.DecodeFrame(nil, frameOf(index<<4, 0x11))
		assert.ErrorIs(t, err, ErrInvalidPredictorIndex)
		assert.Empty(t, samples)
		assert.Equal(t, State{}, s, "State must not change on a rejected frame")
	}
}

func TestDecodeFrameShort(t *testing.T) {
	var s State
	_, err := s.DecodeFrame(nil, make([]byte, FrameSize-1))
	assert.ErrorIs(t, err, ErrTruncatedInput)
}

func TestDecodeFrameHistory(t *testing.T) {
	s := State{}
	samples, err := s.DecodeFrame(nil, frameOf(0x2C, 0x7A))
	assert.NoError(t, err)
	assert.Len(t, samples, SamplesPerFrame)
	assert.Equal(t, samples[SamplesPerFrame-1], s.History1)
	assert.Equal(t, samples[SamplesPerFrame-2], s.History2)
}

func TestStateCarriesAcrossFrames(t *testing.T) {
	frame := frameOf(0x10, 0x10)
	src := append(append([]byte{}, frame...), frame...)

	var s State
	first, err := s.DecodeFrame(nil, frame)
	assert.NoError(t, err)
	last := first[SamplesPerFrame-1]
	assert.NotZero(t, last)

	samples, err := Decode(src)
	assert.NoError(t, err)
	assert.Len(t, samples, 2*SamplesPerFrame)
	assert.Equal(t, first, samples[:SamplesPerFrame])

	// The first nibble of the second frame is 1 with predictor 1 and shift 8.
	expected := int16((int32(1)<<28>>8 + 240*int32(last)) >> 8)
	assert.Equal(t, expected, samples[SamplesPerFrame])

	// A fresh state would not produce the same sample.
	fresh, err := Decode(frame)
	assert.NoError(t, err)
	assert.NotEqual(t, fresh[0], samples[SamplesPerFrame])
}

func TestDecodeKeepsPartialOutput(t *testing.T) {
	good := frameOf(0x12, 0x34)
	bad := frameOf(0x52, 0x34)

	samples, err := Decode(append(append([]byte{}, good...), bad...))
	assert.ErrorIs(t, err, ErrInvalidPredictorIndex)
	assert.Contains(t, err.Error(), "frame 1")
	assert.Len(t, samples, SamplesPerFrame)

	samples, err = Decode(append(append([]byte{}, good...), 0x00, 0x00, 0x00))
	assert.ErrorIs(t, err, ErrTruncatedInput)
	assert.Contains(t, err.Error(), "3 trailing bytes")
	assert.Len(t, samples, SamplesPerFrame)
}

func TestDecodeAppendsToCallerBuffer(t *testing.T) {
	var s State
	dst := make([]int16, 1, 1+SamplesPerFrame)
	dst[0] = 42

	out, err := s.Decode(dst, frameOf(0x00, 0x80))
	assert.NoError(t, err)
	assert.Equal(t, int16(42), out[0])
	assert.Len(t, out, 1+SamplesPerFrame)
	assert.Same(t, &dst[0], &out[0], "Expected decoding into the caller's buffer")
}

func TestSlicing(t *testing.T) {
	a := mustHex(t, "2c1f7a8003e945b60cd2718f5e24a3")
	b := mustHex(t, "3a00ff1122aa55c3c3699607e1b4f8")

	whole, err := Decode(append(append([]byte{}, a...), b...))
	assert.NoError(t, err)

	var s State
	split, err := s.Decode(nil, a)
	assert.NoError(t, err)
	split, err = s.Decode(split, b)
	assert.NoError(t, err)

	assert.Equal(t, whole, split)
}

func TestStateReset(t *testing.T) {
	s := State{History1: 5, History2: -5}
	s.Reset()
	assert.Equal(t, State{}, s)
}

func TestTranscode(t *testing.T) {
	src := mustHex(t, "2c1f7a8003e945b60cd2718f5e24a3"+
		"3a00ff1122aa55c3c3699607e1b4f8")
	samples, err := Decode(src)
	assert.NoError(t, err)

	var s State
	out := &bytes.Buffer{}
	n, err := s.Transcode(out, bytes.NewReader(src))
	assert.NoError(t, err)
	assert.Equal(t, int64(len(samples)*2), n)
	assert.Equal(t, AppendPCM(nil, samples), out.Bytes())
	assert.Equal(t, samples[len(samples)-1], s.History1)
}

func TestTranscodeTruncated(t *testing.T) {
	src := append(frameOf(0x00, 0x80), 0x00, 0x80)

	var s State
	out := &bytes.Buffer{}
	n, err := s.Transcode(out, bytes.NewReader(src))
	assert.ErrorIs(t, err, ErrTruncatedInput)
	assert.Equal(t, int64(SamplesPerFrame*2), n)
	assert.Equal(t, SamplesPerFrame*2, out.Len())
}

func TestTranscodeInvalidPredictor(t *testing.T) {
	var s State
	n, err := s.Transcode(io.Discard, bytes.NewReader(frameOf(0x70, 0x00)))
	assert.ErrorIs(t, err, ErrInvalidPredictorIndex)
	assert.Zero(t, n)
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, errors.New("disk full") }

func TestTranscodeWriteError(t *testing.T) {
	var s State
	_, err := s.Transcode(failingWriter{}, bytes.NewReader(frameOf(0x00, 0x00)))
	assert.EqualError(t, err, "disk full")
}

func TestReader(t *testing.T) {
	samples := []int16{-32768, 1, 0x1234}
	r := NewReader(samples)

	all, err := io.ReadAll(r)
	assert.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x80, 0x01, 0x00, 0x34, 0x12}, all)
	assert.Equal(t, 3, r.SamplesPlayed())

	n, err := r.Read(make([]byte, 4))
	assert.Zero(t, n)
	assert.Equal(t, io.EOF, err)
}

func TestReaderOddBuffer(t *testing.T) {
	r := NewReader([]int16{0x0102, 0x0304})

	p := make([]byte, 3)
	n, err := r.Read(p)
	assert.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []byte{0x02, 0x01, 0x04}, p)
	assert.Equal(t, 1, r.SamplesPlayed())

	n, err = r.Read(p)
	assert.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, byte(0x03), p[0])
}

func TestReaderSeek(t *testing.T) {
	r := NewReader([]int16{1, 2, 3})

	pos, err := r.Seek(4, io.SeekStart)
	assert.NoError(t, err)
	assert.Equal(t, int64(4), pos)
	all, err := io.ReadAll(r)
	assert.NoError(t, err)
	assert.Equal(t, []byte{0x03, 0x00}, all)
	assert.Equal(t, 3, r.SamplesPlayed())

	pos, err = r.Seek(-3, io.SeekEnd)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), pos)
	assert.Equal(t, 1, r.SamplesPlayed())

	pos, err = r.Seek(-1, io.SeekCurrent)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), pos)

	_, err = r.Seek(-10, io.SeekCurrent)
	assert.ErrorIs(t, err, ErrInvalidSeek)

	_, err = r.Seek(100, io.SeekStart)
	assert.NoError(t, err)
	assert.Equal(t, r.Len(), r.SamplesPlayed())
	n, err := r.Read(make([]byte, 2))
	assert.Zero(t, n)
	assert.Equal(t, io.EOF, err)
}

func TestProbe(t *testing.T) {
	src := mustHex(t, "2c1f7a8003e945b60cd2718f5e24a3"+
		"3a00ff1122aa55c3c3699607e1b4f8"+
		"1f0123456789abcdeffedcba987654")

	info, err := Probe(src)
	assert.NoError(t, err)
	assert.Equal(t, Info{
		Frames:     3,
		Samples:    84,
		Predictors: [PredictorCount]int{0, 1, 1, 1},
		MinShift:   18,
		MaxShift:   23,
	}, info)

	_, err = Probe(append(src, 0x00))
	assert.ErrorIs(t, err, ErrTruncatedInput)

	_, err = Probe(frameOf(0x90, 0x00))
	assert.ErrorIs(t, err, ErrInvalidPredictorIndex)
}

func TestIsValidStream(t *testing.T) {
	dir := t.TempDir()

	valid := filepath.Join(dir, "valid.xa")
	assert.NoError(t, os.WriteFile(valid, frameOf(0x10, 0x10), 0o644))
	ok, err := IsValidStream(valid)
	assert.NoError(t, err)
	assert.True(t, ok)

	empty := filepath.Join(dir, "empty.xa")
	assert.NoError(t, os.WriteFile(empty, nil, 0o644))
	ok, err = IsValidStream(empty)
	assert.Error(t, err)
	assert.False(t, ok)

	ok, err = IsValidStream(filepath.Join(dir, "missing.xa"))
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestDecodedLen(t *testing.T) {
	assert.Equal(t, 0, DecodedLen(0))
	assert.Equal(t, 0, DecodedLen(14))
	assert.Equal(t, 28, DecodedLen(15))
	assert.Equal(t, 56, DecodedLen(44))
}

func FuzzDecode(f *testing.F) {
	f.Add(frameOf(0x00, 0x00))
	f.Add(frameOf(0x2C, 0x7A))
	f.Add(append(frameOf(0x3F, 0x88), frameOf(0x10, 0x77)...))
	f.Add(frameOf(0x40, 0x00))
	f.Add([]byte{0x00, 0x01})

	f.Fuzz(func(t *testing.T, data []byte) {
		samples, err := Decode(data)
		if err != nil {
			if !errors.Is(err, ErrTruncatedInput) && !errors.Is(err, ErrInvalidPredictorIndex) {
				t.Fatalf("unexpected error kind: %v", err)
			}
			return
		}

		assert.Len(t, samples, len(data)/FrameSize*SamplesPerFrame)
		assert.Equal(t, referenceDecode(data), samples)

		again, _ := Decode(data)
		assert.Equal(t, samples, again, "Decoding must be deterministic")

		mid := len(data) / FrameSize / 2 * FrameSize
		var s State
		split, _ := s.Decode(nil, data[:mid])
		split, _ = s.Decode(split, data[mid:])
		assert.Equal(t, samples, split, "Split decoding must match")
	})
}
