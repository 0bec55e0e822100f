package mapbin

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/summit-editor/summit/pkg/binio"
	"github.com/summit-editor/summit/pkg/errs"
)

func sampleMap() *Map {
	solids := NewNode("solids")
	solids.SetAttr("offsetX", Int(0))
	solids.SetAttr("offsetY", Int(0))
	solids.SetText(strings.Repeat("0", 40) + "\n" + strings.Repeat("1", 40))

	bg := NewNode("bg")
	bg.SetText("ab")

	level := NewNode("level")
	level.SetAttr("name", String("a-00"))
	level.SetAttr("x", Int(0))
	level.SetAttr("y", Int(-368))
	level.SetAttr("width", Int(320))
	level.SetAttr("height", Int(184))
	level.SetAttr("windPattern", String("None"))
	level.SetAttr("dark", Bool(true))
	level.SetAttr("cameraOffsetX", Float(1.5))
	level.SetAttr("musicProgress", Int(100000))
	level.AddChild(solids)
	level.AddChild(bg)

	levels := NewNode("levels")
	levels.AddChild(level)

	root := NewNode("Map")
	root.AddChild(levels)
	root.AddChild(NewNode("Filler"))

	return &Map{Package: "1-ForsakenCity", Root: root}
}

func TestEncodeDecode(t *testing.T) {
	m := sampleMap()

	data, err := Encode(m)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, m, got)

	again, err := Encode(got)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestEncodeGolden(t *testing.T) {
	root := NewNode("Map")
	root.SetAttr("a", Int(300))

	data, err := Encode(&Map{Package: "p", Root: root})
	require.NoError(t, err)

	want := append([]byte{11}, "CELESTE MAP"...)
	want = append(want, 1, 'p')
	want = append(want, 2, 0, 3, 'M', 'a', 'p', 1, 'a')
	want = append(want,
		0, 0, // name "Map"
		1,    // one attribute
		1, 0, // key "a"
		tagInt16, 0x2c, 0x01,
		0, 0, // no children
	)

	assert.Equal(t, want, data)
}

func TestEncodeIntegerWidths(t *testing.T) {
	tests := []struct {
		v   int64
		tag byte
	}{
		{0, tagUint8},
		{255, tagUint8},
		{256, tagInt16},
		{-1, tagInt16},
		{-32768, tagInt16},
		{40000, tagInt32},
		{-70000, tagInt32},
	}

	for _, tt := range tests {
		root := NewNode("Map")
		root.SetAttr("v", Int(tt.v))

		data, err := Encode(&Map{Root: root})
		require.NoError(t, err)

		// header(12) package(1) lookup(2 + 4 + 2) name(2) count(1) key(2)
		assert.Equal(t, tt.tag, data[26], "value %d", tt.v)

		got, err := Decode(data)
		require.NoError(t, err)

		v, ok := got.Root.IntAttr("v")
		assert.True(t, ok)
		assert.Equal(t, tt.v, v)
	}

	root := NewNode("Map")
	root.SetAttr("v", Int(1<<40))

	_, err := Encode(&Map{Root: root})
	assert.ErrorIs(t, err, errs.ErrMalformed)
}

func TestInnerTextForms(t *testing.T) {
	tests := []struct {
		name string
		text string
		tag  byte
	}{
		{"run length when shorter", strings.Repeat("0", 600), tagRunLength},
		{"plain when not shorter", "0a1b", tagString},
		{"empty", "", tagString},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := NewNode("solids")
			root.SetText(tt.text)

			data, err := Encode(&Map{Root: root})
			require.NoError(t, err)

			// header(12) package(1) lookup(2 + 7 + 10) name(2) count(1) key(2)
			assert.Equal(t, tt.tag, data[37])

			got, err := Decode(data)
			require.NoError(t, err)

			text, ok := got.Root.TextValue()
			assert.True(t, ok)
			assert.Equal(t, tt.text, text)
			assert.Empty(t, got.Root.Attrs)
		})
	}
}

func TestRuns(t *testing.T) {
	s := strings.Repeat("x", 300) + "yz"
	assert.Equal(t, []byte{255, 'x', 45, 'x', 1, 'y', 1, 'z'}, encodeRuns(s))
	assert.Equal(t, s, string(decodeRuns(encodeRuns(s))))
}

func TestDecodeFailures(t *testing.T) {
	valid, err := Encode(sampleMap())
	require.NoError(t, err)

	badHeader := &binio.Builder{}
	badHeader.AddVarString("CELESTE MAB")
	badHeaderBytes, _ := badHeader.Bytes()

	badIndex := &binio.Builder{}
	badIndex.AddVarString(magic)
	badIndex.AddVarString("")
	badIndex.AddInt16(1)
	badIndex.AddVarString("Map")
	badIndex.AddInt16(4)
	badIndexBytes, _ := badIndex.Bytes()

	badTag := &binio.Builder{}
	badTag.AddVarString(magic)
	badTag.AddVarString("")
	badTag.AddInt16(1)
	badTag.AddVarString("Map")
	badTag.AddInt16(0)
	badTag.AddUint8(1)
	badTag.AddInt16(0)
	badTag.AddUint8(9)
	badTagBytes, _ := badTag.Bytes()

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad header", badHeaderBytes},
		{"truncated", valid[:len(valid)/2]},
		{"lookup index out of range", badIndexBytes},
		{"unknown tag", badTagBytes},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Decode(tt.data)
			assert.Nil(t, m)
			assert.ErrorIs(t, err, errs.ErrMalformed)
		})
	}
}

func TestJSON(t *testing.T) {
	m := sampleMap()

	raw, err := m.MarshalJSON()
	require.NoError(t, err)

	s := string(raw)
	assert.True(t, strings.HasPrefix(s, `{"__name":"Map","_package":"1-ForsakenCity","__children":[`))
	assert.Contains(t, s, `"name":"a-00","x":0,"y":-368,"width":320,"height":184,"windPattern":"None","dark":true,"cameraOffsetX":1.5`)
	assert.Contains(t, s, `"innerText":"ab","__children":[]`)

	back := &Map{}
	require.NoError(t, back.UnmarshalJSON(raw))
	assert.Equal(t, m, back)
}

func TestJSONFloatsKeepDecimalPoint(t *testing.T) {
	root := NewNode("Map")
	root.SetAttr("f", Float(2))
	root.SetAttr("i", Int(2))
	root.SetAttr("tiny", Float(0.1))

	raw, err := (&Map{Root: root}).MarshalJSON()
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"f":2.0,"i":2,"tiny":0.1`)

	back := &Map{}
	require.NoError(t, back.UnmarshalJSON(raw))

	f, ok := back.Root.FloatAttr("f")
	assert.True(t, ok)
	assert.Equal(t, 2.0, f)

	_, ok = back.Root.FloatAttr("i")
	assert.False(t, ok)
}

func TestJSONFailures(t *testing.T) {
	tests := []string{
		`[]`,
		`{"x":1,"__children":[]}`,
		`{"__name":"Map","x":{"nested":true}}`,
		`{"__name":"Map","x":null}`,
		`{"__name":"Map","__children":[{"__name":1}]}`,
		`{"__name":"Map"`,
	}

	for _, in := range tests {
		err := (&Map{}).UnmarshalJSON([]byte(in))
		assert.ErrorIs(t, err, errs.ErrMalformed, in)
	}
}

func TestFileConversions(t *testing.T) {
	dir := t.TempDir()

	data, err := Encode(sampleMap())
	require.NoError(t, err)

	binPath := filepath.Join(dir, "1-ForsakenCity.bin")
	jsonPath := filepath.Join(dir, "1-ForsakenCity.json")
	outPath := filepath.Join(dir, "out.bin")

	require.NoError(t, os.WriteFile(binPath, data, 0o644))
	require.NoError(t, BinToJSON(binPath, jsonPath))
	require.NoError(t, JSONToBin(jsonPath, outPath))

	out, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, data, out)

	assert.ErrorIs(t, BinToJSON(filepath.Join(dir, "missing.bin"), jsonPath), errs.ErrNotFound)
	assert.ErrorIs(t, JSONToBin(filepath.Join(dir, "missing.json"), outPath), errs.ErrNotFound)
}

func TestWriteJSONIsIndented(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleMap()))

	assert.True(t, strings.HasPrefix(buf.String(), "{\n  \"__name\": \"Map\""))

	m, err := ReadJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, sampleMap(), m)
}

func TestNodeAccessors(t *testing.T) {
	n := NewNode("decal")
	n.SetAttr("texture", String("flowers"))
	n.SetAttr("x", Int(12))
	n.SetAttr("scaleX", Float(-1))
	n.SetAttr("flag", Bool(true))

	s, ok := n.StringAttr("texture")
	assert.True(t, ok)
	assert.Equal(t, "flowers", s)

	_, ok = n.StringAttr("x")
	assert.False(t, ok, "wrong type")

	_, ok = n.IntAttr("missing")
	assert.False(t, ok)

	x, ok := n.Number("x")
	assert.True(t, ok)
	assert.Equal(t, 12.0, x)

	sx, ok := n.Number("scaleX")
	assert.True(t, ok)
	assert.Equal(t, -1.0, sx)

	_, ok = n.Number("texture")
	assert.False(t, ok)

	b, ok := n.BoolAttr("flag")
	assert.True(t, ok)
	assert.True(t, b)

	n.SetAttr("x", Int(16))
	n.RemoveAttr("flag")
	assert.Len(t, n.Attrs, 3)
	assert.Equal(t, "x", n.Attrs[1].Key)

	_, ok = n.TextValue()
	assert.False(t, ok)

	root := sampleMap().Root
	levels, ok := root.Child("levels")
	require.True(t, ok)
	assert.Len(t, levels.ChildrenNamed("level"), 1)

	_, ok = root.Child("nope")
	assert.False(t, ok)

	var names []string
	root.Walk(func(n *Node) bool {
		names = append(names, n.Name)
		return n.Name != "level"
	})
	assert.Equal(t, []string{"Map", "levels", "level", "Filler"}, names)
}
