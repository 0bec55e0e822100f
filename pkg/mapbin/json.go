package mapbin

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/summit-editor/summit/pkg/errs"
)

// keys with a meaning of their own in the JSON form
const (
	jsonNameKey     = "__name"
	jsonChildrenKey = "__children"
	jsonPackageKey  = "_package"
)

// MarshalJSON writes the map as nested objects. Attribute order is kept and
// floats always carry a decimal point so they read back as floats.
func (m *Map) MarshalJSON() ([]byte, error) {
	if m.Root == nil {
		return nil, errs.Malformed("map has no root element")
	}

	var buf bytes.Buffer
	if err := writeNode(&buf, m.Root, &m.Package); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func writeNode(buf *bytes.Buffer, n *Node, pkg *string) error {
	buf.WriteByte('{')
	writeKey(buf, jsonNameKey)
	writeString(buf, n.Name)

	if pkg != nil {
		buf.WriteByte(',')
		writeKey(buf, jsonPackageKey)
		writeString(buf, *pkg)
	}

	for _, a := range n.Attrs {
		buf.WriteByte(',')
		writeKey(buf, a.Key)

		if err := writeValue(buf, a.Value); err != nil {
			return fmt.Errorf("element %s attribute %s: %w", n.Name, a.Key, err)
		}
	}

	if n.Text != nil {
		buf.WriteByte(',')
		writeKey(buf, innerTextKey)
		writeString(buf, *n.Text)
	}

	buf.WriteByte(',')
	writeKey(buf, jsonChildrenKey)
	buf.WriteByte('[')

	for i, c := range n.Children {
		if i > 0 {
			buf.WriteByte(',')
		}

		if err := writeNode(buf, c, nil); err != nil {
			return err
		}
	}

	buf.WriteString("]}")

	return nil
}

func writeKey(buf *bytes.Buffer, key string) {
	writeString(buf, key)
	buf.WriteByte(':')
}

func writeString(buf *bytes.Buffer, s string) {
	// marshalling a string cannot fail
	raw, _ := json.Marshal(s)
	buf.Write(raw)
}

func writeValue(buf *bytes.Buffer, v Value) error {
	switch v.Kind() {
	case KindBool:
		b, _ := v.AsBool()
		buf.WriteString(strconv.FormatBool(b))
	case KindInt:
		i, _ := v.AsInt()
		buf.WriteString(strconv.FormatInt(i, 10))
	case KindFloat:
		f, _ := v.AsFloat()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return errs.Unsupported("float %v has no JSON form", f)
		}

		buf.WriteString(formatFloat(f))
	case KindString:
		s, _ := v.AsString()
		writeString(buf, s)
	}

	return nil
}

// formatFloat prints the shortest form that reads back as the same float32
// when the value came from one, always with a decimal point.
func formatFloat(f float64) string {
	bits := 64
	if float64(float32(f)) == f {
		bits = 32
	}

	s := strconv.FormatFloat(f, 'f', -1, bits)
	if !strings.ContainsAny(s, ".eEIN") {
		s += ".0"
	}

	return s
}

// UnmarshalJSON reads the object form written by MarshalJSON.
func (m *Map) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	root, pkg, err := readNode(dec, true)
	if err != nil {
		return fmt.Errorf("%w: map json: %w", errs.ErrMalformed, err)
	}

	m.Root = root
	m.Package = pkg

	return nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}

	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %v, got %v", want, tok)
	}

	return nil
}

func readNode(dec *json.Decoder, root bool) (n *Node, pkg string, err error) {
	if err = expectDelim(dec, '{'); err != nil {
		return nil, "", err
	}

	n = &Node{}
	named := false

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, "", err
		}

		key, _ := tok.(string)

		switch {
		case key == jsonNameKey:
			if n.Name, err = readString(dec); err != nil {
				return nil, "", fmt.Errorf("%s: %w", jsonNameKey, err)
			}

			named = true
		case key == jsonChildrenKey:
			if n.Children, err = readChildren(dec); err != nil {
				return nil, "", err
			}
		case key == jsonPackageKey && root:
			if pkg, err = readString(dec); err != nil {
				return nil, "", fmt.Errorf("%s: %w", jsonPackageKey, err)
			}
		default:
			v, err := readValue(dec)
			if err != nil {
				return nil, "", fmt.Errorf("attribute %s: %w", key, err)
			}

			if s, ok := v.AsString(); ok && key == innerTextKey {
				n.SetText(s)
				continue
			}

			n.Attrs = append(n.Attrs, Attr{Key: key, Value: v})
		}
	}

	if err = expectDelim(dec, '}'); err != nil {
		return nil, "", err
	}

	if !named {
		return nil, "", errors.New("element without " + jsonNameKey)
	}

	return n, pkg, nil
}

func readChildren(dec *json.Decoder) ([]*Node, error) {
	if err := expectDelim(dec, '['); err != nil {
		return nil, err
	}

	var children []*Node

	for dec.More() {
		c, _, err := readNode(dec, false)
		if err != nil {
			return nil, err
		}

		children = append(children, c)
	}

	return children, expectDelim(dec, ']')
}

func readString(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}

	s, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected a string, got %v", tok)
	}

	return s, nil
}

func readValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}

	switch t := tok.(type) {
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		if strings.ContainsAny(t.String(), ".eE") {
			f, err := t.Float64()
			return Float(f), err
		}

		i, err := t.Int64()

		return Int(i), err
	}

	return Value{}, fmt.Errorf("unsupported value %v", tok)
}

// ReadJSON decodes the JSON form from r.
func ReadJSON(r io.Reader) (*Map, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading map json: %w", err)
	}

	m := &Map{}
	if err = m.UnmarshalJSON(data); err != nil {
		return nil, err
	}

	return m, nil
}

// WriteJSON writes the indented JSON form to w.
func WriteJSON(w io.Writer, m *Map) error {
	raw, err := m.MarshalJSON()
	if err != nil {
		return err
	}

	var out bytes.Buffer
	if err = json.Indent(&out, raw, "", "  "); err != nil {
		return fmt.Errorf("indenting map json: %w", err)
	}

	out.WriteByte('\n')

	_, err = w.Write(out.Bytes())

	return err
}

// BinToJSON converts the binary map at binPath into JSON at jsonPath.
func BinToJSON(binPath, jsonPath string) error {
	m, err := ReadFile(binPath)
	if err != nil {
		return err
	}

	f, err := os.Create(jsonPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", jsonPath, err)
	}

	if err = WriteJSON(f, m); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing %s: %w", jsonPath, err)
	}

	return f.Close()
}

// JSONToBin converts the JSON map at jsonPath into a binary map at binPath.
func JSONToBin(jsonPath, binPath string) error {
	f, err := os.Open(jsonPath)
	if err != nil {
		return openErr(jsonPath, err)
	}

	defer f.Close()

	m, err := ReadJSON(f)
	if err != nil {
		return fmt.Errorf("%s: %w", jsonPath, err)
	}

	return WriteFile(binPath, m)
}

// ReadFile decodes the binary map at path.
func ReadFile(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, openErr(path, err)
	}

	m, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return m, nil
}

// WriteFile encodes m into a binary map at path.
func WriteFile(path string, m *Map) error {
	data, err := Encode(m)
	if err != nil {
		return err
	}

	if err = os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	return nil
}

func openErr(path string, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return errs.NotFound("map %s", path)
	}

	return fmt.Errorf("opening %s: %w", path, err)
}
