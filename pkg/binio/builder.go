package binio

import (
	"encoding/binary"
	"math"

	"github.com/summit-editor/summit/pkg/errs"
)

// Builder accumulates little-endian primitives. The first error sticks and
// every later call becomes a no-op, so encoders check once at the end.
type Builder struct {
	buf []byte
	err error
}

// AddUint8 appends one byte.
func (b *Builder) AddUint8(v uint8) {
	if b.err != nil {
		return
	}

	b.buf = append(b.buf, v)
}

// AddBool appends 1 for true and 0 for false.
func (b *Builder) AddBool(v bool) {
	if v {
		b.AddUint8(1)
		return
	}

	b.AddUint8(0)
}

// AddUint16 appends a 16-bit value.
func (b *Builder) AddUint16(v uint16) {
	if b.err != nil {
		return
	}

	b.buf = binary.LittleEndian.AppendUint16(b.buf, v)
}

// AddInt16 appends a signed 16-bit value.
func (b *Builder) AddInt16(v int16) {
	b.AddUint16(uint16(v))
}

// AddUint32 appends a 32-bit value.
func (b *Builder) AddUint32(v uint32) {
	if b.err != nil {
		return
	}

	b.buf = binary.LittleEndian.AppendUint32(b.buf, v)
}

// AddInt32 appends a signed 32-bit value.
func (b *Builder) AddInt32(v int32) {
	b.AddUint32(uint32(v))
}

// AddFloat32 appends an IEEE-754 single precision float.
func (b *Builder) AddFloat32(v float32) {
	b.AddUint32(math.Float32bits(v))
}

// AddBytes appends raw bytes.
func (b *Builder) AddBytes(v []byte) {
	if b.err != nil {
		return
	}

	b.buf = append(b.buf, v...)
}

// AddString appends a string with a single length byte in front.
func (b *Builder) AddString(s string) {
	if len(s) > math.MaxUint8 {
		b.setErr(errs.Malformed("string of %d bytes does not fit a one byte length", len(s)))
		return
	}

	b.AddUint8(uint8(len(s)))
	b.AddBytes([]byte(s))
}

// AddVarInt appends v in groups of 7 bits, low group first.
func (b *Builder) AddVarInt(v uint32) {
	for v >= 0x80 {
		b.AddUint8(uint8(v) | 0x80)
		v >>= 7
	}

	b.AddUint8(uint8(v))
}

// AddVarString appends a string with a 7-bit encoded length in front.
func (b *Builder) AddVarString(s string) {
	b.AddVarInt(uint32(len(s)))
	b.AddBytes([]byte(s))
}

// AddUint16LengthPrefixed appends a 16-bit byte count followed by whatever fn writes.
func (b *Builder) AddUint16LengthPrefixed(fn func(child *Builder)) {
	if b.err != nil {
		return
	}

	child := &Builder{}
	fn(child)

	if child.err != nil {
		b.setErr(child.err)
		return
	}

	if len(child.buf) > math.MaxInt16 {
		b.setErr(errs.Malformed("length prefixed block of %d bytes exceeds 16 bits", len(child.buf)))
		return
	}

	b.AddUint16(uint16(len(child.buf)))
	b.AddBytes(child.buf)
}

// Fail records err as the builder's error.
func (b *Builder) Fail(err error) {
	b.setErr(err)
}

// Len returns the number of bytes written so far.
func (b *Builder) Len() int {
	return len(b.buf)
}

// Bytes returns the encoded bytes or the first error encountered.
func (b *Builder) Bytes() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}

	return b.buf, nil
}

func (b *Builder) setErr(err error) {
	if b.err == nil {
		b.err = err
	}
}
