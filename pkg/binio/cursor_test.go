package binio

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/summit-editor/summit/pkg/errs"
)

func TestCursorPrimitives(t *testing.T) {
	b := &Builder{}
	b.AddUint8(0xfe)
	b.AddInt16(-2)
	b.AddUint16(0xbeef)
	b.AddInt32(-70000)
	b.AddUint32(0xdeadbeef)
	b.AddFloat32(1.5)
	b.AddBool(true)
	b.AddString("tiles")
	b.AddVarString("CELESTE MAP")

	data, err := b.Bytes()
	require.NoError(t, err)

	c := New(data)

	u8, err := c.ReadUint8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0xfe), u8)

	i16, err := c.ReadInt16()
	require.NoError(t, err)
	assert.Equal(t, int16(-2), i16)

	u16, err := c.ReadUint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0xbeef), u16)

	i32, err := c.ReadInt32()
	require.NoError(t, err)
	assert.Equal(t, int32(-70000), i32)

	u32, err := c.ReadUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xdeadbeef), u32)

	f32, err := c.ReadFloat32()
	require.NoError(t, err)
	assert.Equal(t, float32(1.5), f32)

	flag, err := c.ReadBool()
	require.NoError(t, err)
	assert.True(t, flag)

	s, err := c.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "tiles", s)

	vs, err := c.ReadVarString()
	require.NoError(t, err)
	assert.Equal(t, "CELESTE MAP", vs)

	assert.Equal(t, 0, c.Remaining())
}

func TestCursorSeek(t *testing.T) {
	c := New([]byte{1, 2, 3, 4, 5})

	require.NoError(t, c.Skip(3))
	assert.Equal(t, 3, c.Position())

	v, err := c.ReadUint8()
	require.NoError(t, err)
	assert.Equal(t, uint8(4), v)

	require.NoError(t, c.SetPosition(0))
	v, err = c.ReadUint8()
	require.NoError(t, err)
	assert.Equal(t, uint8(1), v)

	assert.ErrorIs(t, c.SetPosition(6), errs.ErrMalformed)
}

func TestCursorShortReads(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		read func(c *Cursor) error
	}{
		{"i16 from one byte", []byte{1}, func(c *Cursor) error { _, err := c.ReadInt16(); return err }},
		{"i32 from three bytes", []byte{1, 2, 3}, func(c *Cursor) error { _, err := c.ReadInt32(); return err }},
		{"string body missing", []byte{4, 'a'}, func(c *Cursor) error { _, err := c.ReadString(); return err }},
		{"skip past end", []byte{1}, func(c *Cursor) error { return c.Skip(2) }},
		{"empty stream", nil, func(c *Cursor) error { _, err := c.ReadUint8(); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.read(New(tt.data))
			require.Error(t, err)
			assert.ErrorIs(t, err, errs.ErrMalformed)
			assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
		})
	}
}

func TestCursorInvalidUTF8(t *testing.T) {
	c := New([]byte{2, 0xc3, 0x28})

	_, err := c.ReadString()
	assert.ErrorIs(t, err, errs.ErrMalformed)
}

func TestVarStringLongLength(t *testing.T) {
	long := strings.Repeat("x", 300)

	b := &Builder{}
	b.AddVarString(long)
	data, err := b.Bytes()
	require.NoError(t, err)

	// 300 needs two length bytes
	assert.Equal(t, []byte{0xac, 0x02}, data[:2])

	s, err := New(data).ReadVarString()
	require.NoError(t, err)
	assert.Equal(t, long, s)
}

func TestBuilderStickyError(t *testing.T) {
	b := &Builder{}
	b.AddString(strings.Repeat("x", 256))
	b.AddUint8(1)

	_, err := b.Bytes()
	assert.ErrorIs(t, err, errs.ErrMalformed)
}
