package atlas

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// DrawSprite scales the whole sprite into target on dst, multiplied by tint.
// A nil tint draws the sprite unchanged.
func DrawSprite(dst draw.Image, s *Sprite, target image.Rectangle, tint color.Color) {
	if s == nil || s.image == nil {
		return
	}

	drawSource(dst, target, s.image, sourceRect(s), tint)
}

// DrawSpriteRegion draws only region of the sprite, given in pixels relative to
// the sprite's own top-left corner. Parts of region outside the sprite are
// clipped away.
func DrawSpriteRegion(dst draw.Image, s *Sprite, target, region image.Rectangle, tint color.Color) {
	if s == nil || s.image == nil {
		return
	}

	src := sourceRect(s)
	sr := region.Add(src.Min).Intersect(src)

	if sr.Empty() {
		return
	}

	drawSource(dst, target, s.image, sr, tint)
}

// FillPlaceholder paints target with a flat colour, used where a sprite or
// tileset is missing.
func FillPlaceholder(dst draw.Image, target image.Rectangle, c color.Color) {
	draw.Draw(dst, target, image.NewUniform(c), image.Point{}, draw.Over)
}

// sourceRect uses the cached UV rectangle when the sprite has one, otherwise
// computes it from the backing image as it is now.
func sourceRect(s *Sprite) image.Rectangle {
	b := s.image.Bounds()

	uv := s.UV
	if uv == nil {
		computed := ComputeUV(s.Metadata.Rect(), b.Dx(), b.Dy())
		uv = &computed
	}

	return uv.Pixels(b.Dx(), b.Dy()).Add(b.Min)
}

func drawSource(dst draw.Image, target image.Rectangle, src image.Image, sr image.Rectangle, tint color.Color) {
	if tint != nil && !isWhite(tint) {
		src = &tinted{Image: src, tint: color.RGBA64Model.Convert(tint).(color.RGBA64)}
	}

	if target.Dx() == sr.Dx() && target.Dy() == sr.Dy() {
		draw.Draw(dst, target, src, sr.Min, draw.Over)
		return
	}

	draw.NearestNeighbor.Scale(dst, target, src, sr, draw.Over, nil)
}

func isWhite(c color.Color) bool {
	r, g, b, a := c.RGBA()
	return r == 0xffff && g == 0xffff && b == 0xffff && a == 0xffff
}

// tinted multiplies every channel of the wrapped image by a colour.
type tinted struct {
	image.Image
	tint color.RGBA64
}

func (t *tinted) ColorModel() color.Model {
	return color.RGBA64Model
}

func (t *tinted) At(x, y int) color.Color {
	r, g, b, a := t.Image.At(x, y).RGBA()

	return color.RGBA64{
		R: mul16(r, t.tint.R),
		G: mul16(g, t.tint.G),
		B: mul16(b, t.tint.B),
		A: mul16(a, t.tint.A),
	}
}

func mul16(v uint32, f uint16) uint16 {
	return uint16(v * uint32(f) / 0xffff)
}
