// Package mapbin converts Celeste map files between their binary form, a
// generic element tree and JSON.
package mapbin

import (
	"fmt"
	"io"
	"math"

	"github.com/summit-editor/summit/pkg/binio"
	"github.com/summit-editor/summit/pkg/errs"
)

const (
	magic = "CELESTE MAP"

	innerTextKey = "innerText"
)

// value type tags
const (
	tagBool byte = iota
	tagUint8
	tagInt16
	tagInt32
	tagFloat32
	tagLookup
	tagString
	tagRunLength
)

/*
a map file is

	varstring "CELESTE MAP"
	varstring package name
	i16       lookup table size, then that many varstrings
	element   the root

an element is

	i16 lookup index of its name
	u8  attribute count, then per attribute
	    i16 lookup index of the key
	    u8  type tag
	    ... value
	u16 child count, then the children

varstrings carry a 7-bit encoded length.
*/

// Decode parses a binary map.
func Decode(data []byte) (*Map, error) {
	d := &decoder{stream: binio.New(data)}

	m, err := d.decode()
	if err != nil {
		return nil, fmt.Errorf("decoding map: %w", err)
	}

	return m, nil
}

// DecodeReader parses a binary map from r.
func DecodeReader(r io.Reader) (*Map, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading map: %w", err)
	}

	return Decode(data)
}

type decoder struct {
	stream *binio.Cursor
	lookup []string
}

func (d *decoder) decode() (*Map, error) {
	sig, err := d.stream.ReadVarString()
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}

	if sig != magic {
		return nil, errs.Malformed("header %q is not %q", sig, magic)
	}

	m := &Map{}
	if m.Package, err = d.stream.ReadVarString(); err != nil {
		return nil, fmt.Errorf("package name: %w", err)
	}

	if err = d.decodeLookup(); err != nil {
		return nil, fmt.Errorf("lookup table: %w", err)
	}

	if m.Root, err = d.decodeElement(); err != nil {
		return nil, err
	}

	return m, nil
}

func (d *decoder) decodeLookup() error {
	count, err := d.stream.ReadInt16()
	if err != nil {
		return err
	}

	if count < 0 {
		return errs.Malformed("negative lookup table size %d", count)
	}

	d.lookup = make([]string, count)

	for i := range d.lookup {
		if d.lookup[i], err = d.stream.ReadVarString(); err != nil {
			return err
		}
	}

	return nil
}

func (d *decoder) lookupString() (string, error) {
	idx, err := d.stream.ReadInt16()
	if err != nil {
		return "", err
	}

	if idx < 0 || int(idx) >= len(d.lookup) {
		return "", errs.Malformed("lookup index %d out of %d entries", idx, len(d.lookup))
	}

	return d.lookup[idx], nil
}

func (d *decoder) decodeElement() (*Node, error) {
	name, err := d.lookupString()
	if err != nil {
		return nil, fmt.Errorf("element name: %w", err)
	}

	n := NewNode(name)

	attrCount, err := d.stream.ReadUint8()
	if err != nil {
		return nil, fmt.Errorf("element %s: %w", name, err)
	}

	for i := 0; i < int(attrCount); i++ {
		key, err := d.lookupString()
		if err != nil {
			return nil, fmt.Errorf("element %s attribute %d: %w", name, i, err)
		}

		v, err := d.decodeValue()
		if err != nil {
			return nil, fmt.Errorf("element %s attribute %s: %w", name, key, err)
		}

		if s, ok := v.AsString(); ok && key == innerTextKey {
			n.SetText(s)
			continue
		}

		n.Attrs = append(n.Attrs, Attr{Key: key, Value: v})
	}

	childCount, err := d.stream.ReadUint16()
	if err != nil {
		return nil, fmt.Errorf("element %s: %w", name, err)
	}

	// the smallest element is 5 bytes
	if int(childCount)*5 > d.stream.Remaining() {
		return nil, errs.Malformed("element %s claims %d children in %d bytes", name, childCount, d.stream.Remaining())
	}

	if childCount > 0 {
		n.Children = make([]*Node, 0, childCount)
	}

	for i := 0; i < int(childCount); i++ {
		c, err := d.decodeElement()
		if err != nil {
			return nil, fmt.Errorf("%s/%w", name, err)
		}

		n.Children = append(n.Children, c)
	}

	return n, nil
}

func (d *decoder) decodeValue() (Value, error) {
	tag, err := d.stream.ReadUint8()
	if err != nil {
		return Value{}, err
	}

	switch tag {
	case tagBool:
		b, err := d.stream.ReadBool()
		return Bool(b), err
	case tagUint8:
		v, err := d.stream.ReadUint8()
		return Int(int64(v)), err
	case tagInt16:
		v, err := d.stream.ReadInt16()
		return Int(int64(v)), err
	case tagInt32:
		v, err := d.stream.ReadInt32()
		return Int(int64(v)), err
	case tagFloat32:
		v, err := d.stream.ReadFloat32()
		return Float(float64(v)), err
	case tagLookup:
		s, err := d.lookupString()
		return String(s), err
	case tagString:
		s, err := d.stream.ReadVarString()
		return String(s), err
	case tagRunLength:
		s, err := d.decodeRunLength()
		return String(s), err
	}

	return Value{}, errs.Malformed("unknown value type tag %d", tag)
}

func (d *decoder) decodeRunLength() (string, error) {
	length, err := d.stream.ReadInt16()
	if err != nil {
		return "", err
	}

	if length < 0 || length%2 != 0 {
		return "", errs.Malformed("run length string of %d bytes", length)
	}

	pairs, err := d.stream.ReadBytes(int(length))
	if err != nil {
		return "", err
	}

	return string(decodeRuns(pairs)), nil
}

// decodeRuns expands (count, byte) pairs.
func decodeRuns(pairs []byte) []byte {
	var out []byte

	for i := 0; i+1 < len(pairs); i += 2 {
		for n := pairs[i]; n > 0; n-- {
			out = append(out, pairs[i+1])
		}
	}

	return out
}

// encodeRuns packs s into (count, byte) pairs of at most 255 repeats.
func encodeRuns(s string) []byte {
	var out []byte

	for i := 0; i < len(s); {
		ch := s[i]
		n := 1

		for i+n < len(s) && s[i+n] == ch && n < math.MaxUint8 {
			n++
		}

		out = append(out, byte(n), ch)
		i += n
	}

	return out
}

// Encode writes m in the binary map format.
func Encode(m *Map) ([]byte, error) {
	if m == nil || m.Root == nil {
		return nil, errs.Malformed("map has no root element")
	}

	e := &encoder{index: make(map[string]int)}
	e.collect(m.Root)

	if len(e.lookup) > math.MaxInt16 {
		return nil, errs.Malformed("%d distinct strings exceed the lookup table", len(e.lookup))
	}

	out := &binio.Builder{}
	out.AddVarString(magic)
	out.AddVarString(m.Package)
	out.AddInt16(int16(len(e.lookup)))

	for _, s := range e.lookup {
		out.AddVarString(s)
	}

	e.encodeElement(out, m.Root)

	data, err := out.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encoding map: %w", err)
	}

	return data, nil
}

type encoder struct {
	index  map[string]int
	lookup []string
}

func (e *encoder) add(s string) {
	if _, ok := e.index[s]; ok {
		return
	}

	e.index[s] = len(e.lookup)
	e.lookup = append(e.lookup, s)
}

// collect fills the lookup table in first-seen order.
func (e *encoder) collect(n *Node) {
	e.add(n.Name)

	for _, a := range n.Attrs {
		e.add(a.Key)

		if s, ok := a.Value.AsString(); ok {
			e.add(s)
		}
	}

	if n.Text != nil {
		e.add(innerTextKey)
	}

	for _, c := range n.Children {
		e.collect(c)
	}
}

func (e *encoder) encodeElement(out *binio.Builder, n *Node) {
	attrCount := len(n.Attrs)
	if n.Text != nil {
		attrCount++
	}

	if attrCount > math.MaxUint8 {
		out.Fail(errs.Malformed("element %s has %d attributes", n.Name, attrCount))
		return
	}

	if len(n.Children) > math.MaxUint16 {
		out.Fail(errs.Malformed("element %s has %d children", n.Name, len(n.Children)))
		return
	}

	out.AddInt16(int16(e.index[n.Name]))
	out.AddUint8(uint8(attrCount))

	for _, a := range n.Attrs {
		out.AddInt16(int16(e.index[a.Key]))
		e.encodeValue(out, n.Name, a)
	}

	if n.Text != nil {
		out.AddInt16(int16(e.index[innerTextKey]))
		encodeText(out, *n.Text)
	}

	out.AddUint16(uint16(len(n.Children)))

	for _, c := range n.Children {
		e.encodeElement(out, c)
	}
}

func (e *encoder) encodeValue(out *binio.Builder, element string, a Attr) {
	v := a.Value

	switch v.Kind() {
	case KindBool:
		b, _ := v.AsBool()
		out.AddUint8(tagBool)
		out.AddBool(b)
	case KindInt:
		i, _ := v.AsInt()

		switch {
		case i >= 0 && i <= math.MaxUint8:
			out.AddUint8(tagUint8)
			out.AddUint8(uint8(i))
		case i >= math.MinInt16 && i <= math.MaxInt16:
			out.AddUint8(tagInt16)
			out.AddInt16(int16(i))
		case i >= math.MinInt32 && i <= math.MaxInt32:
			out.AddUint8(tagInt32)
			out.AddInt32(int32(i))
		default:
			out.Fail(errs.Malformed("element %s attribute %s: %d does not fit 32 bits", element, a.Key, i))
		}
	case KindFloat:
		f, _ := v.AsFloat()
		out.AddUint8(tagFloat32)
		out.AddFloat32(float32(f))
	case KindString:
		s, _ := v.AsString()
		out.AddUint8(tagLookup)
		out.AddInt16(int16(e.index[s]))
	}
}

// encodeText uses the run-length form when it is shorter.
func encodeText(out *binio.Builder, s string) {
	runs := encodeRuns(s)

	if len(runs) < len(s) && len(runs) <= math.MaxInt16 {
		out.AddUint8(tagRunLength)
		out.AddInt16(int16(len(runs)))
		out.AddBytes(runs)

		return
	}

	out.AddUint8(tagString)
	out.AddVarString(s)
}
