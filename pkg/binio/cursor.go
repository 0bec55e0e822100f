// Package binio provides the little-endian cursor every binary decoder in the
// module reads through, and the matching builder the encoders write with.
package binio

import (
	"fmt"
	"io"
	"math"
	"unicode/utf8"

	"github.com/gravestench/bitstream"

	"github.com/summit-editor/summit/pkg/errs"
)

const (
	byteBytes  = 1
	shortBytes = 2
	longBytes  = 4

	// a 32-bit value never needs more than 5 groups of 7 bits
	maxVarIntBytes = 5
)

// Cursor reads little-endian primitives from an in-memory byte stream.
//
// Every read is bounds-checked before it reaches the stream, so a short read
// always surfaces as errs.ErrMalformed wrapping io.ErrUnexpectedEOF.
type Cursor struct {
	stream *bitstream.Reader
	size   int
	pos    int
}

// New creates a cursor positioned at the start of data.
func New(data []byte) *Cursor {
	return &Cursor{
		stream: bitstream.ReaderFromBytes(data...),
		size:   len(data),
	}
}

// FromReader drains r and creates a cursor over its contents.
func FromReader(r io.Reader) (*Cursor, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	return New(data), nil
}

// Len returns the total size of the underlying stream.
func (c *Cursor) Len() int {
	return c.size
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return c.size - c.pos
}

// Position returns the absolute read offset.
func (c *Cursor) Position() int {
	return c.pos
}

// SetPosition moves the cursor to an absolute offset.
func (c *Cursor) SetPosition(pos int) error {
	if pos < 0 || pos > c.size {
		return errs.Malformed("seek to %d outside stream of %d bytes", pos, c.size)
	}

	c.stream.SetPosition(pos)
	c.pos = pos

	return nil
}

// Skip advances the cursor by n bytes.
func (c *Cursor) Skip(n int) error {
	if n == 0 {
		return nil
	}

	if err := c.need(n, "skipped bytes"); err != nil {
		return err
	}

	if err := c.stream.Next(n).Bytes().Error; err != nil { // skip
		return c.fail("skipped bytes", err)
	}

	c.pos += n

	return nil
}

// ReadUint8 reads one unsigned byte.
func (c *Cursor) ReadUint8() (uint8, error) {
	if err := c.need(byteBytes, "u8"); err != nil {
		return 0, err
	}

	v, err := c.stream.Next(byteBytes).Bytes().AsByte()
	if err != nil {
		return 0, c.fail("u8", err)
	}

	c.pos += byteBytes

	return v, nil
}

// ReadInt8 reads one signed byte.
func (c *Cursor) ReadInt8() (int8, error) {
	v, err := c.ReadUint8()
	return int8(v), err
}

// ReadBool reads one byte; any nonzero value is true.
func (c *Cursor) ReadBool() (bool, error) {
	v, err := c.ReadUint8()
	return v != 0, err
}

// ReadInt16 reads a signed 16-bit integer.
func (c *Cursor) ReadInt16() (int16, error) {
	if err := c.need(shortBytes, "i16"); err != nil {
		return 0, err
	}

	v, err := c.stream.Next(shortBytes).Bytes().AsInt16()
	if err != nil {
		return 0, c.fail("i16", err)
	}

	c.pos += shortBytes

	return v, nil
}

// ReadUint16 reads an unsigned 16-bit integer.
func (c *Cursor) ReadUint16() (uint16, error) {
	if err := c.need(shortBytes, "u16"); err != nil {
		return 0, err
	}

	v, err := c.stream.Next(shortBytes).Bytes().AsUInt16()
	if err != nil {
		return 0, c.fail("u16", err)
	}

	c.pos += shortBytes

	return v, nil
}

// ReadInt32 reads a signed 32-bit integer.
func (c *Cursor) ReadInt32() (int32, error) {
	if err := c.need(longBytes, "i32"); err != nil {
		return 0, err
	}

	v, err := c.stream.Next(longBytes).Bytes().AsInt32()
	if err != nil {
		return 0, c.fail("i32", err)
	}

	c.pos += longBytes

	return v, nil
}

// ReadUint32 reads an unsigned 32-bit integer.
func (c *Cursor) ReadUint32() (uint32, error) {
	v, err := c.ReadInt32()
	return uint32(v), err
}

// ReadFloat32 reads an IEEE-754 single precision float.
func (c *Cursor) ReadFloat32() (float32, error) {
	v, err := c.ReadInt32()
	return math.Float32frombits(uint32(v)), err
}

// ReadBytes reads exactly n raw bytes.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, errs.Malformed("negative byte count %d at offset %d", n, c.pos)
	}

	if n == 0 {
		return []byte{}, nil
	}

	if err := c.need(n, "bytes"); err != nil {
		return nil, err
	}

	data, err := c.stream.Next(n).Bytes().AsBytes()
	if err != nil {
		return nil, c.fail("bytes", err)
	}

	c.pos += n

	return data, nil
}

// ReadString reads a string prefixed by a single unsigned length byte.
func (c *Cursor) ReadString() (string, error) {
	length, err := c.ReadUint8()
	if err != nil {
		return "", err
	}

	return c.readUTF8(int(length))
}

// ReadVarInt reads an unsigned integer stored in groups of 7 bits, low group
// first, with the high bit of each byte flagging a continuation.
func (c *Cursor) ReadVarInt() (int, error) {
	var value, shift int

	for i := 0; ; i++ {
		if i == maxVarIntBytes {
			return 0, errs.Malformed("7-bit integer too long at offset %d", c.pos)
		}

		b, err := c.ReadUint8()
		if err != nil {
			return 0, err
		}

		value |= int(b&0x7f) << shift
		shift += 7

		if b&0x80 == 0 {
			return value, nil
		}
	}
}

// ReadVarString reads a string prefixed by a 7-bit encoded length, the layout
// written by .NET's BinaryWriter.
func (c *Cursor) ReadVarString() (string, error) {
	length, err := c.ReadVarInt()
	if err != nil {
		return "", err
	}

	return c.readUTF8(length)
}

func (c *Cursor) readUTF8(length int) (string, error) {
	start := c.pos

	data, err := c.ReadBytes(length)
	if err != nil {
		return "", err
	}

	if !utf8.Valid(data) {
		return "", errs.Malformed("invalid UTF-8 in string at offset %d", start)
	}

	return string(data), nil
}

func (c *Cursor) need(n int, what string) error {
	if c.pos+n > c.size {
		return fmt.Errorf("%w: reading %s at offset %d: %w", errs.ErrMalformed, what, c.pos, io.ErrUnexpectedEOF)
	}

	return nil
}

func (c *Cursor) fail(what string, err error) error {
	return fmt.Errorf("%w: reading %s at offset %d: %w", errs.ErrMalformed, what, c.pos, err)
}
