package a2s

import (
	"encoding/binary"
	"math"
)

// reader is a little-endian cursor over a response buffer. The first
// failed read latches an error; every later read returns a zero value, so
// decode sequences can run to completion and check Err once.
type reader struct {
	data      []byte
	off       int
	maxString int
	err       error
}

func newReader(data []byte, maxString int) *reader {
	if maxString <= 0 {
		maxString = DefaultMaxStringLen
	}
	return &reader{data: data, maxString: maxString}
}

func (r *reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *reader) Err() error {
	return r.err
}

// need reports whether n more bytes are available, latching
// ErrShortResponse when they are not.
func (r *reader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if r.off+n > len(r.data) {
		r.fail(ErrShortResponse)
		return false
	}
	return true
}

func (r *reader) skip(n int) {
	if r.need(n) {
		r.off += n
	}
}

func (r *reader) readByte() byte {
	if !r.need(1) {
		return 0
	}
	b := r.data[r.off]
	r.off++
	return b
}

func (r *reader) readUint16() uint16 {
	if !r.need(2) {
		return 0
	}
	v := binary.LittleEndian.Uint16(r.data[r.off:])
	r.off += 2
	return v
}

func (r *reader) readUint32() uint32 {
	if !r.need(4) {
		return 0
	}
	v := binary.LittleEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v
}

func (r *reader) readUint64() uint64 {
	if !r.need(8) {
		return 0
	}
	v := binary.LittleEndian.Uint64(r.data[r.off:])
	r.off += 8
	return v
}

func (r *reader) readFloat32() float32 {
	return math.Float32frombits(r.readUint32())
}

// readString consumes a null-terminated UTF-8 string. At most maxString
// content bytes are scanned before the string is declared malformed; a
// buffer that ends before the terminator is a short response.
func (r *reader) readString() string {
	if r.err != nil {
		return ""
	}

	start := r.off
	for r.off < len(r.data) && r.data[r.off] != 0 {
		if r.off-start >= r.maxString {
			r.fail(ErrStringTooLong)
			return ""
		}
		r.off++
	}
	if r.off >= len(r.data) {
		r.fail(ErrShortResponse)
		return ""
	}
	if r.off-start >= r.maxString {
		r.fail(ErrStringTooLong)
		return ""
	}

	s := string(r.data[start:r.off])
	r.off++ // terminator
	return s
}
