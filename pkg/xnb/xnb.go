// Package xnb reads single textures shipped outside an atlas: XNA content
// (.xnb) holding one uncompressed Texture2D, or a plain image file.
package xnb

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/png" // plain texture fallback
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"

	"github.com/summit-editor/summit/pkg/binio"
	"github.com/summit-editor/summit/pkg/errs"
)

const (
	magic = "XNB"

	flagCompressed = 0x80

	texture2DReader = "Texture2DReader"

	maxEdge       = 16384
	bytesPerPixel = 4
)

// SurfaceFormat is the pixel format of a Texture2D.
type SurfaceFormat int32

// Surface formats as numbered by XNA. Only FormatColor is decoded.
const (
	FormatColor SurfaceFormat = iota
	FormatBgr565
	FormatBgra5551
	FormatBgra4444
	FormatDxt1
	FormatDxt3
	FormatDxt5
)

func (f SurfaceFormat) String() string {
	names := [...]string{"Color", "Bgr565", "Bgra5551", "Bgra4444", "Dxt1", "Dxt3", "Dxt5"}
	if f >= 0 && int(f) < len(names) {
		return names[f]
	}

	return fmt.Sprintf("SurfaceFormat(%d)", int32(f))
}

// Header is the fixed part at the start of every .xnb file.
type Header struct {
	Platform byte
	Version  byte
	Flags    byte
	FileSize uint32
}

// Compressed reports whether the content after the header is compressed.
func (h Header) Compressed() bool {
	return h.Flags&flagCompressed != 0
}

// TypeReader is one entry of the content type reader table.
type TypeReader struct {
	Name    string
	Version int32
}

// Texture is a decoded Texture2D.
type Texture struct {
	Header      Header
	Readers     []TypeReader
	Format      SurfaceFormat
	MipMapCount uint32
	Image       *image.RGBA
}

// ReadTexture decodes an .xnb stream holding one Texture2D.
func ReadTexture(r io.Reader) (*Texture, error) {
	stream, err := binio.FromReader(r)
	if err != nil {
		return nil, fmt.Errorf("reading xnb stream: %w", err)
	}

	tex := &Texture{}

	if tex.Header, err = decodeHeader(stream); err != nil {
		return nil, fmt.Errorf("decoding xnb header: %w", err)
	}

	if err = tex.decodeReaders(stream); err != nil {
		return nil, fmt.Errorf("decoding type readers: %w", err)
	}

	if err = tex.decodeTexture(stream); err != nil {
		return nil, fmt.Errorf("decoding texture: %w", err)
	}

	return tex, nil
}

func decodeHeader(stream *binio.Cursor) (h Header, err error) {
	sig, err := stream.ReadBytes(len(magic))
	if err != nil {
		return h, err
	}

	if string(sig) != magic {
		return h, errs.Malformed("bad magic %q", sig)
	}

	fields := []*byte{&h.Platform, &h.Version, &h.Flags}
	for _, field := range fields {
		if *field, err = stream.ReadUint8(); err != nil {
			return h, err
		}
	}

	if h.FileSize, err = stream.ReadUint32(); err != nil {
		return h, err
	}

	if h.Compressed() {
		return h, errs.Unsupported("compressed xnb content")
	}

	return h, nil
}

func (t *Texture) decodeReaders(stream *binio.Cursor) error {
	count, err := stream.ReadVarInt()
	if err != nil {
		return err
	}

	if count > stream.Remaining() {
		return errs.Malformed("type reader count %d exceeds remaining %d bytes", count, stream.Remaining())
	}

	t.Readers = make([]TypeReader, count)

	for idx := range t.Readers {
		if t.Readers[idx].Name, err = stream.ReadVarString(); err != nil {
			return err
		}

		if t.Readers[idx].Version, err = stream.ReadInt32(); err != nil {
			return err
		}
	}

	shared, err := stream.ReadVarInt()
	if err != nil {
		return err
	}

	if shared != 0 {
		return errs.Unsupported("%d shared resources", shared)
	}

	return nil
}

func (t *Texture) decodeTexture(stream *binio.Cursor) error {
	// the primary object starts with its 1-based type reader index
	typeID, err := stream.ReadVarInt()
	if err != nil {
		return err
	}

	if typeID < 1 || typeID > len(t.Readers) {
		return errs.Malformed("object type reader %d of %d", typeID, len(t.Readers))
	}

	if reader := t.Readers[typeID-1].Name; !strings.Contains(reader, texture2DReader) {
		return errs.Unsupported("content type %q", reader)
	}

	format, err := stream.ReadInt32()
	if err != nil {
		return err
	}

	t.Format = SurfaceFormat(format)
	if t.Format != FormatColor {
		return errs.Unsupported("surface format %v", t.Format)
	}

	width, err := stream.ReadUint32()
	if err != nil {
		return err
	}

	height, err := stream.ReadUint32()
	if err != nil {
		return err
	}

	if width == 0 || height == 0 || width > maxEdge || height > maxEdge {
		return errs.Malformed("invalid texture dimensions %dx%d", width, height)
	}

	if t.MipMapCount, err = stream.ReadUint32(); err != nil {
		return err
	}

	size, err := stream.ReadUint32()
	if err != nil {
		return err
	}

	expected := int(width) * int(height) * bytesPerPixel
	if int(size) != expected {
		return errs.Malformed("texture data is %d bytes, want %d for %dx%d", size, expected, width, height)
	}

	data, err := stream.ReadBytes(expected)
	if err != nil {
		return err
	}

	t.Image = image.NewRGBA(image.Rect(0, 0, int(width), int(height)))

	// stored a, b, g, r
	for offset := 0; offset < expected; offset += bytesPerPixel {
		t.Image.Pix[offset+0] = data[offset+3]
		t.Image.Pix[offset+1] = data[offset+2]
		t.Image.Pix[offset+2] = data[offset+1]
		t.Image.Pix[offset+3] = data[offset+0]
	}

	return nil
}

// LoadTexture reads a texture from disk. Files ending in .xnb go through
// ReadTexture; anything else is decoded as a plain image.
func LoadTexture(path string) (*image.RGBA, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errs.NotFound("texture %s", path)
		}

		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".xnb") {
		tex, err := ReadTexture(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}

		return tex.Image, nil
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errs.ErrMalformed, filepath.Base(path), err)
	}

	return toRGBA(img), nil
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}

	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)

	return rgba
}
