// Package preview renders rooms of a map into images without a window.
package preview

import (
	"image"
	"image/color"
	"math"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"

	"github.com/summit-editor/summit/pkg/atlas"
	"github.com/summit-editor/summit/pkg/autotile"
	"github.com/summit-editor/summit/pkg/errs"
	"github.com/summit-editor/summit/pkg/level"
	"github.com/summit-editor/summit/pkg/tileset"
)

// Background is the colour behind every room.
var Background = color.RGBA{R: 30, G: 30, B: 30, A: 255}

var flatColors = map[rune]color.RGBA{
	'1': {R: 156, G: 102, B: 31, A: 255},
	'2': {R: 70, G: 120, B: 200, A: 255},
	'3': {R: 130, G: 130, B: 130, A: 255},
	'4': {R: 100, G: 130, B: 100, A: 255},
}

var defaultFlat = color.RGBA{R: 200, G: 200, B: 200, A: 255}

// FlatColor is the placeholder drawn for a tile type without a usable tileset.
func FlatColor(ch rune) color.RGBA {
	if c, ok := flatColors[ch]; ok {
		return c
	}

	return defaultFlat
}

// Renderer draws rooms using the sprites of a sprite table.
type Renderer struct {
	Sprites    *atlas.SpriteTable
	Foreground tileset.Rules
	Background tileset.Rules

	// Scale is the output pixels per map pixel; values below 1 mean 1.
	Scale int
	// Decals enables drawing the foreground decals.
	Decals bool
}

// New creates a renderer over the global sprite table.
func New(fg, bg tileset.Rules) *Renderer {
	return &Renderer{
		Sprites:    atlas.GlobalSprites(),
		Foreground: fg,
		Background: bg,
		Scale:      1,
		Decals:     true,
	}
}

func (r *Renderer) scale() int {
	if r.Scale < 1 {
		return 1
	}

	return r.Scale
}

// Render draws one room: background tiles, foreground tiles, then decals.
func (r *Renderer) Render(s *level.Store, id int) (*image.RGBA, error) {
	rec, ok := s.Record(id)
	if !ok {
		return nil, errs.NotFound("level %d", id)
	}

	k := r.scale()
	dst := image.NewRGBA(image.Rect(0, 0, rec.Width*k, rec.Height*k))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(Background), image.Point{}, draw.Src)

	if err := r.drawTiles(dst, s, rec, level.Background, r.Background); err != nil {
		return nil, err
	}

	if err := r.drawTiles(dst, s, rec, level.Foreground, r.Foreground); err != nil {
		return nil, err
	}

	if r.Decals {
		r.drawDecals(dst, rec.Decals(level.Foreground))
	}

	return dst, nil
}

func (r *Renderer) drawTiles(dst *image.RGBA, s *level.Store, rec *level.Record, l level.Layer, rules tileset.Rules) error {
	layer, err := s.Autotiled(rec.ID, l, rules, tileset.SolidIn(rules))
	if err != nil {
		return err
	}

	tl := rec.Layer(l)
	size := level.TileSize * r.scale()

	for y, row := range layer.Cells {
		for x, cell := range row {
			if !cell.Resolved {
				if cell.ID != autotile.Air && cell.ID != ' ' {
					atlas.FillPlaceholder(dst, r.cellRect(tl, x, y, size), FlatColor(cell.ID))
				}

				continue
			}

			target := r.cellRect(tl, x, y, size)

			sprite, ok := r.tileSprite(rules, cell.ID)
			if !ok {
				atlas.FillPlaceholder(dst, target, FlatColor(cell.ID))
				continue
			}

			region := image.Rect(0, 0, level.TileSize, level.TileSize).
				Add(cell.Tile.Mul(level.TileSize))
			atlas.DrawSpriteRegion(dst, sprite, target, region, nil)
		}
	}

	return nil
}

func (r *Renderer) cellRect(tl *level.TileLayer, x, y, size int) image.Rectangle {
	return image.Rect(0, 0, size, size).Add(image.Pt((tl.OffsetX+x)*size, (tl.OffsetY+y)*size))
}

func (r *Renderer) tileSprite(rules tileset.Rules, id rune) (*atlas.Sprite, bool) {
	ts, ok := rules.Lookup(id)
	if !ok || ts.Path == "" {
		return nil, false
	}

	e, ok := r.Sprites.Lookup("tilesets/" + ts.Path)
	if !ok {
		return nil, false
	}

	return &e.Sprite, true
}

func (r *Renderer) drawDecals(dst *image.RGBA, decals []level.Decal) {
	k := float64(r.scale())

	for _, d := range decals {
		e, ok := r.Sprites.Lookup(d.Texture)
		if !ok {
			log.Debug().Msgf("decal %s has no sprite", d.Texture)
			continue
		}

		w := math.Abs(float64(e.Sprite.Metadata.Width) * d.ScaleX * k)
		h := math.Abs(float64(e.Sprite.Metadata.Height) * d.ScaleY * k)
		at := image.Pt(int(math.Round(d.X*k)), int(math.Round(d.Y*k)))
		target := image.Rectangle{Min: at, Max: at.Add(image.Pt(int(math.Round(w)), int(math.Round(h))))}

		if target.Empty() {
			continue
		}

		atlas.DrawSprite(dst, &e.Sprite, target, nil)
	}
}
