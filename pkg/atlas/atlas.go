// Package atlas decodes packed texture atlases (.meta index plus .data images)
// and addresses the sprites inside them.
package atlas

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/summit-editor/summit/pkg/errs"
)

const (
	metaExt = ".meta"
	dataExt = ".data"
)

// Metadata is the pixel placement of a sprite as stored in the .meta file.
type Metadata struct {
	X, Y          int16 // top-left corner inside the data file image
	Width, Height int16 // packed size, after trimming
	OffsetX       int16 // trim offset from the untrimmed origin
	OffsetY       int16
	RealWidth     int16 // untrimmed size as authored
	RealHeight    int16
}

// Rect returns the sprite's pixel rectangle inside its data file image.
func (md Metadata) Rect() image.Rectangle {
	x, y := int(md.X), int(md.Y)
	return image.Rect(x, y, x+int(md.Width), y+int(md.Height))
}

// UVRect is a texture sampling rectangle in fractions of the image size.
type UVRect struct {
	U0, V0 float64
	U1, V1 float64
}

// ComputeUV derives the UV rectangle of r inside an image of the given size.
func ComputeUV(r image.Rectangle, imageWidth, imageHeight int) UVRect {
	w, h := float64(imageWidth), float64(imageHeight)

	return UVRect{
		U0: float64(r.Min.X) / w,
		V0: float64(r.Min.Y) / h,
		U1: float64(r.Max.X) / w,
		V1: float64(r.Max.Y) / h,
	}
}

// Pixels maps the UV rectangle back onto an image of the given size.
func (uv UVRect) Pixels(imageWidth, imageHeight int) image.Rectangle {
	w, h := float64(imageWidth), float64(imageHeight)

	return image.Rect(
		roundInt(uv.U0*w), roundInt(uv.V0*h),
		roundInt(uv.U1*w), roundInt(uv.V1*h),
	)
}

// Sprite is one named region of an atlas.
type Sprite struct {
	Path     string
	Metadata Metadata
	DataFile string

	// UV is cached at load time; nil means it is computed per draw.
	UV *UVRect

	image *image.RGBA
}

// Backing returns the data file image the sprite is packed into.
func (s *Sprite) Backing() *image.RGBA {
	return s.image
}

// Image returns just the sprite's pixels.
func (s *Sprite) Image() image.Image {
	if s.image == nil {
		return image.NewRGBA(image.Rectangle{})
	}

	return s.image.SubImage(s.Metadata.Rect())
}

func (s *Sprite) bind(img *image.RGBA) {
	s.image = img
	uv := ComputeUV(s.Metadata.Rect(), img.Bounds().Dx(), img.Bounds().Dy())
	s.UV = &uv
}

// DataFile is one decoded backing image of an atlas.
type DataFile struct {
	Name  string
	Image *image.RGBA
}

// Atlas is a named set of data files and the sprites packed in them.
type Atlas struct {
	Name      string
	DataFiles []*DataFile
	sprites   map[string]*Sprite
}

// New creates an empty atlas.
func New(name string) *Atlas {
	return &Atlas{
		Name:    name,
		sprites: make(map[string]*Sprite),
	}
}

// Sprite looks up a sprite by its normalized path.
func (a *Atlas) Sprite(path string) (*Sprite, bool) {
	s, ok := a.sprites[path]
	return s, ok
}

// Paths returns every sprite path, sorted.
func (a *Atlas) Paths() []string {
	paths := make([]string, 0, len(a.sprites))
	for path := range a.sprites {
		paths = append(paths, path)
	}

	sort.Strings(paths)

	return paths
}

// Len returns the number of sprites.
func (a *Atlas) Len() int {
	return len(a.sprites)
}

// DataFile returns the data file with the given name.
func (a *Atlas) DataFile(name string) (*DataFile, bool) {
	for _, df := range a.DataFiles {
		if df.Name == name {
			return df, true
		}
	}

	return nil, false
}

// AddDataFile registers a decoded image together with the sprites packed in it.
// Every sprite rectangle must lie within the image.
func (a *Atlas) AddDataFile(name string, img *image.RGBA, sprites []MetaSprite) error {
	bounds := img.Bounds()

	for _, ms := range sprites {
		r := ms.Metadata.Rect()
		if ms.Metadata.Width < 0 || ms.Metadata.Height < 0 || !r.In(bounds) {
			return errs.Malformed("sprite %q rectangle %v outside %q bounds %v", ms.Path, r, name, bounds)
		}
	}

	a.DataFiles = append(a.DataFiles, &DataFile{Name: name, Image: img})

	for _, ms := range sprites {
		s := &Sprite{
			Path:     ms.Path,
			Metadata: ms.Metadata,
			DataFile: name,
		}
		s.bind(img)
		a.sprites[ms.Path] = s
	}

	return nil
}

// ReplaceImage swaps the image of a data file and recomputes the UV rectangles
// of the sprites packed in it.
func (a *Atlas) ReplaceImage(dataFile string, img *image.RGBA) error {
	df, ok := a.DataFile(dataFile)
	if !ok {
		return errs.NotFound("data file %q in atlas %q", dataFile, a.Name)
	}

	for _, s := range a.sprites {
		if s.DataFile == dataFile && !s.Metadata.Rect().In(img.Bounds()) {
			return errs.Malformed("sprite %q does not fit replacement image %v", s.Path, img.Bounds())
		}
	}

	df.Image = img

	for _, s := range a.sprites {
		if s.DataFile == dataFile {
			s.bind(img)
		}
	}

	return nil
}

// Load reads <dir>/<name>.meta and every data file it lists. Nothing is
// returned unless the whole atlas decodes.
func Load(name, dir string) (*Atlas, error) {
	metaPath := filepath.Join(dir, name+metaExt)

	raw, err := os.ReadFile(metaPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errs.NotFound("meta file %s", metaPath)
		}

		return nil, fmt.Errorf("reading %s: %w", metaPath, err)
	}

	meta, err := ParseMeta(raw)
	if err != nil {
		return nil, fmt.Errorf("atlas %q: %w", name, err)
	}

	a := New(name)

	for _, df := range meta.DataFiles {
		img, err := loadDataFile(filepath.Join(dir, df.Name+dataExt))
		if err != nil {
			return nil, fmt.Errorf("atlas %q: %w", name, err)
		}

		if err = a.AddDataFile(df.Name, img, df.Sprites); err != nil {
			return nil, fmt.Errorf("atlas %q: %w", name, err)
		}
	}

	log.Debug().
		Str("atlas", name).
		Int("data_files", len(a.DataFiles)).
		Int("sprites", a.Len()).
		Msg("atlas decoded")

	return a, nil
}

func loadDataFile(path string) (*image.RGBA, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errs.NotFound("data file %s", path)
		}

		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	img, err := DecodeDataBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	return img, nil
}

func roundInt(v float64) int {
	if v < 0 {
		return -int(-v + 0.5)
	}

	return int(v + 0.5)
}
