package eaxa

import (
	"encoding/binary"
	"errors"
	"io"
	"sync"
)

// AppendPCM appends samples to dst as 16 bit little-endian PCM.
func AppendPCM(dst []byte, samples []int16) []byte {
	for _, sample := range samples {
		dst = binary.LittleEndian.AppendUint16(dst, uint16(sample))
	}
	return dst
}

// ErrInvalidSeek is returned by Reader.Seek for an unknown whence or a negative offset.
var ErrInvalidSeek = errors.New("eaxa: invalid seek")

// Reader is an io.ReadSeeker that serves decoded samples as little-endian PCM.
// Offsets are in bytes. Seeking while another goroutine reads is allowed, which
// is what an audio player does.
type Reader struct {
	mu   sync.Mutex
	data []int16
	pos  int64
}

// NewReader creates a new Reader over decoded samples.
func NewReader(data []int16) *Reader {
	return &Reader{
		data: data,
		pos:  0,
	}
}

func (r *Reader) size() int64 {
	return int64(len(r.data)) * 2
}

// Read implements the io.Reader interface. A sample split across two calls
// resumes at its high byte.
func (r *Reader) Read(p []byte) (n int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pos >= r.size() {
		// Return EOF when there is no more data to read
		return 0, io.EOF
	}

	for n < len(p) && r.pos < r.size() {
		sample := uint16(r.data[r.pos/2])
		if r.pos%2 == 0 {
			p[n] = byte(sample)
		} else {
			p[n] = byte(sample >> 8)
		}
		r.pos++
		n++
	}
	return n, nil
}

// Seek implements the io.Seeker interface. Seeking past the end is allowed
// and reads return io.EOF.
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = r.pos + offset
	case io.SeekEnd:
		abs = r.size() + offset
	default:
		return r.pos, ErrInvalidSeek
	}
	if abs < 0 {
		return r.pos, ErrInvalidSeek
	}
	r.pos = abs
	return abs, nil
}

// SamplesPlayed returns the number of whole samples that have been read
func (r *Reader) SamplesPlayed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int(min(r.pos, r.size()) / 2)
}

// Len returns the total number of samples behind the reader.
func (r *Reader) Len() int {
	return len(r.data)
}
