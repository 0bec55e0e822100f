// Package level extracts rooms from a map tree into flat records addressed by
// a stable id, and writes tile edits back through that id.
package level

import (
	"image"
	"math"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/summit-editor/summit/pkg/autotile"
	"github.com/summit-editor/summit/pkg/mapbin"
)

// Room size used when a level does not declare one, in pixels.
const (
	DefaultWidth  = 320
	DefaultHeight = 184
)

// TileSize is the edge of one tile cell in pixels.
const TileSize = 8

// Layer selects one of a room's tile grids.
type Layer int

// Tile layers of a room.
const (
	Foreground Layer = iota
	Background
)

func (l Layer) String() string {
	if l == Background {
		return "bg"
	}

	return "fg"
}

func (l Layer) node() string {
	if l == Background {
		return "bg"
	}

	return "solids"
}

func (l Layer) decalsNode() string {
	if l == Background {
		return "bgdecals"
	}

	return "fgdecals"
}

// TileLayer is one tile grid with its offset in tiles.
type TileLayer struct {
	OffsetX, OffsetY int
	Grid             autotile.Grid
}

// Decal is a free-placed texture.
type Decal struct {
	Texture        string // normalized, see NormalizeDecalPath
	X, Y           float64
	ScaleX, ScaleY float64
}

// Record is a read-only view of one room. Records are rebuilt on every edit,
// so a Record held by a caller is a snapshot.
type Record struct {
	ID     int
	Name   string
	X, Y   int // map position in pixels
	Width  int
	Height int

	Foreground TileLayer
	Background TileLayer

	ForegroundDecals []Decal
	BackgroundDecals []Decal
}

// Layer returns the requested tile grid.
func (r *Record) Layer(l Layer) *TileLayer {
	if l == Background {
		return &r.Background
	}

	return &r.Foreground
}

// Decals returns the decals drawn with the given layer.
func (r *Record) Decals(l Layer) []Decal {
	if l == Background {
		return r.BackgroundDecals
	}

	return r.ForegroundDecals
}

// Bounds returns the room rectangle in map pixels.
func (r *Record) Bounds() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// TileBounds returns the room size in tiles.
func (r *Record) TileBounds() image.Rectangle {
	return image.Rect(0, 0, r.Width/TileSize, r.Height/TileSize)
}

func extractRecord(id int, n *mapbin.Node) *Record {
	r := &Record{
		ID:     id,
		X:      intAttr(n, "x", 0),
		Y:      intAttr(n, "y", 0),
		Width:  intAttr(n, "width", DefaultWidth),
		Height: intAttr(n, "height", DefaultHeight),
	}

	r.Name, _ = n.StringAttr("name")

	for _, l := range []Layer{Foreground, Background} {
		if child, ok := n.Child(l.node()); ok {
			*r.Layer(l) = extractTiles(child)
		}
	}

	r.ForegroundDecals = extractDecals(n, Foreground)
	r.BackgroundDecals = extractDecals(n, Background)

	return r
}

func extractTiles(n *mapbin.Node) TileLayer {
	text, _ := n.TextValue()

	return TileLayer{
		OffsetX: intAttr(n, "offsetX", 0),
		OffsetY: intAttr(n, "offsetY", 0),
		Grid:    autotile.ParseGrid(text),
	}
}

func extractDecals(level *mapbin.Node, l Layer) []Decal {
	list, ok := level.Child(l.decalsNode())
	if !ok {
		return nil
	}

	var decals []Decal

	for _, n := range list.ChildrenNamed("decal") {
		texture, ok := n.StringAttr("texture")
		if !ok {
			log.Debug().Msgf("skipping decal without texture in %s", l.decalsNode())
			continue
		}

		decals = append(decals, Decal{
			Texture: NormalizeDecalPath(texture),
			X:       numberAttr(n, "x", 0),
			Y:       numberAttr(n, "y", 0),
			ScaleX:  numberAttr(n, "scaleX", 1),
			ScaleY:  numberAttr(n, "scaleY", 1),
		})
	}

	return decals
}

// NormalizeDecalPath turns a decal texture attribute into its sprite path:
// forward slashes, no .png suffix and a decals/ prefix.
func NormalizeDecalPath(texture string) string {
	p := strings.ReplaceAll(texture, `\`, "/")
	p = strings.TrimSuffix(p, ".png")

	if !strings.HasPrefix(p, "decals/") {
		p = "decals/" + p
	}

	return p
}

func numberAttr(n *mapbin.Node, key string, def float64) float64 {
	if v, ok := n.Number(key); ok {
		return v
	}

	return def
}

func intAttr(n *mapbin.Node, key string, def int) int {
	return int(math.Round(numberAttr(n, key, float64(def))))
}
