package atlas

import (
	"fmt"
	"strings"

	"github.com/summit-editor/summit/pkg/binio"
	"github.com/summit-editor/summit/pkg/errs"
)

// Meta is the parsed content of an atlas index (.meta) file.
type Meta struct {
	DataFiles []MetaDataFile
}

// MetaDataFile lists the sprites packed into one .data file.
type MetaDataFile struct {
	Name    string
	Sprites []MetaSprite
}

// MetaSprite is one sprite record of a .meta file.
type MetaSprite struct {
	Path     string
	Metadata Metadata
}

// SpriteCount returns the number of sprite records over all data files.
func (m *Meta) SpriteCount() (n int) {
	for _, df := range m.DataFiles {
		n += len(df.Sprites)
	}

	return n
}

// ParseMeta parses the bytes of a .meta file.
func ParseMeta(data []byte) (*Meta, error) {
	stream := binio.New(data)

	if err := decodeMetaHeader(stream); err != nil {
		return nil, fmt.Errorf("decoding meta header: %w", err)
	}

	meta := &Meta{}
	if err := meta.decodeBody(stream); err != nil {
		return nil, fmt.Errorf("decoding meta body: %w", err)
	}

	return meta, nil
}

// the header carries a signature, a name and a value that no reader uses
func decodeMetaHeader(stream *binio.Cursor) error {
	const (
		signatureBytes = 4
		unknownBytes   = 4
	)

	if err := stream.Skip(signatureBytes); err != nil {
		return err
	}

	if _, err := stream.ReadString(); err != nil {
		return err
	}

	return stream.Skip(unknownBytes)
}

func (m *Meta) decodeBody(stream *binio.Cursor) error {
	count, err := stream.ReadInt16()
	if err != nil {
		return fmt.Errorf("decoding data file count: %w", err)
	}

	if count < 0 {
		return errs.Malformed("negative data file count %d", count)
	}

	m.DataFiles = make([]MetaDataFile, count)

	for idx := range m.DataFiles {
		if err = m.DataFiles[idx].decode(stream); err != nil {
			return fmt.Errorf("decoding data file %d: %w", idx, err)
		}
	}

	return nil
}

func (df *MetaDataFile) decode(stream *binio.Cursor) (err error) {
	if df.Name, err = stream.ReadString(); err != nil {
		return err
	}

	count, err := stream.ReadInt16()
	if err != nil {
		return err
	}

	if count < 0 {
		return errs.Malformed("negative sprite count %d in %q", count, df.Name)
	}

	df.Sprites = make([]MetaSprite, count)

	for idx := range df.Sprites {
		if err = df.Sprites[idx].decode(stream); err != nil {
			return fmt.Errorf("decoding sprite %d of %q: %w", idx, df.Name, err)
		}
	}

	return nil
}

func (s *MetaSprite) decode(stream *binio.Cursor) error {
	path, err := stream.ReadString()
	if err != nil {
		return err
	}

	s.Path = NormalizePath(path)

	fields := []*int16{
		&s.Metadata.X, &s.Metadata.Y,
		&s.Metadata.Width, &s.Metadata.Height,
		&s.Metadata.OffsetX, &s.Metadata.OffsetY,
		&s.Metadata.RealWidth, &s.Metadata.RealHeight,
	}

	for _, field := range fields {
		if *field, err = stream.ReadInt16(); err != nil {
			return err
		}
	}

	return nil
}

// Encode writes the meta file back out. The header fields no reader uses are
// written as zero values.
func (m *Meta) Encode() ([]byte, error) {
	out := &binio.Builder{}
	out.AddInt32(0)
	out.AddString("")
	out.AddInt32(0)
	out.AddInt16(int16(len(m.DataFiles)))

	for _, df := range m.DataFiles {
		out.AddString(df.Name)
		out.AddInt16(int16(len(df.Sprites)))

		for _, s := range df.Sprites {
			md := s.Metadata
			out.AddString(s.Path)

			for _, v := range []int16{md.X, md.Y, md.Width, md.Height, md.OffsetX, md.OffsetY, md.RealWidth, md.RealHeight} {
				out.AddInt16(v)
			}
		}
	}

	return out.Bytes()
}

// NormalizePath turns a stored sprite path into its lookup key.
func NormalizePath(path string) string {
	return strings.ReplaceAll(path, `\`, "/")
}
