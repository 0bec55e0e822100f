package preview

import (
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/summit-editor/summit/pkg/atlas"
	"github.com/summit-editor/summit/pkg/errs"
	"github.com/summit-editor/summit/pkg/level"
	"github.com/summit-editor/summit/pkg/mapbin"
	"github.com/summit-editor/summit/pkg/tileset"
)

var (
	red   = color.RGBA{R: 255, A: 255}
	green = color.RGBA{G: 255, A: 255}
)

// sprites publishes a 2x1 tile "dirt" tileset, green on its second tile, and a
// 2x2 red flower decal.
func sprites(t *testing.T) *atlas.SpriteTable {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 16, 10))
	for y := 0; y < 8; y++ {
		for x := 8; x < 16; x++ {
			img.SetRGBA(x, y, green)
		}
	}

	for y := 8; y < 10; y++ {
		for x := 0; x < 2; x++ {
			img.SetRGBA(x, y, red)
		}
	}

	a := atlas.New("Gameplay")
	require.NoError(t, a.AddDataFile("Gameplay0", img, []atlas.MetaSprite{
		{Path: "tilesets/dirt", Metadata: atlas.Metadata{Width: 16, Height: 8, RealWidth: 16, RealHeight: 8}},
		{Path: "decals/flower", Metadata: atlas.Metadata{Y: 8, Width: 2, Height: 2, RealWidth: 2, RealHeight: 2}},
	}))

	table := atlas.NewSpriteTable()
	table.Publish(a)

	return table
}

func room(t *testing.T) *level.Store {
	t.Helper()

	n := mapbin.NewNode("level")
	n.SetAttr("name", mapbin.String("a-00"))
	n.SetAttr("x", mapbin.Int(0))
	n.SetAttr("y", mapbin.Int(0))
	n.SetAttr("width", mapbin.Int(16))
	n.SetAttr("height", mapbin.Int(16))

	solids := n.AddChild(mapbin.NewNode("solids"))
	solids.SetText("12")

	decals := n.AddChild(mapbin.NewNode("fgdecals"))
	d := decals.AddChild(mapbin.NewNode("decal"))
	d.SetAttr("texture", mapbin.String("flower.png"))
	d.SetAttr("x", mapbin.Int(10))
	d.SetAttr("y", mapbin.Int(2))

	missing := decals.AddChild(mapbin.NewNode("decal"))
	missing.SetAttr("texture", mapbin.String("nothing"))

	levels := mapbin.NewNode("levels")
	levels.AddChild(n)

	root := mapbin.NewNode("Map")
	root.AddChild(levels)

	s, err := level.Extract(&mapbin.Map{Package: "test", Root: root})
	require.NoError(t, err)

	return s
}

func dirtRules(t *testing.T) tileset.Rules {
	t.Helper()

	rules, err := tileset.Parse(strings.NewReader(`<Data>
  <Tileset id="1" path="dirt"><set mask="xxx-x1x-xxx" tiles="1,0"/></Tileset>
</Data>`))
	require.NoError(t, err)

	return rules
}

func TestRender(t *testing.T) {
	r := New(dirtRules(t), nil)
	r.Sprites = sprites(t)

	img, err := r.Render(room(t), 0)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 16, 16), img.Bounds())

	assert.Equal(t, green, img.RGBAAt(0, 0))
	assert.Equal(t, green, img.RGBAAt(7, 7))
	assert.Equal(t, FlatColor('2'), img.RGBAAt(8, 0))
	assert.Equal(t, red, img.RGBAAt(10, 2))
	assert.Equal(t, red, img.RGBAAt(11, 3))
	assert.Equal(t, FlatColor('2'), img.RGBAAt(12, 2))
	assert.Equal(t, Background, img.RGBAAt(0, 12))
}

func TestRenderScaled(t *testing.T) {
	r := New(dirtRules(t), nil)
	r.Sprites = sprites(t)
	r.Scale = 2
	r.Decals = false

	img, err := r.Render(room(t), 0)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 32, 32), img.Bounds())

	assert.Equal(t, green, img.RGBAAt(15, 15))
	assert.Equal(t, FlatColor('2'), img.RGBAAt(16, 0))
	assert.Equal(t, FlatColor('2'), img.RGBAAt(20, 4))
}

func TestRenderFallbacks(t *testing.T) {
	r := New(dirtRules(t), nil)
	r.Sprites = atlas.NewSpriteTable()

	img, err := r.Render(room(t), 0)
	require.NoError(t, err)

	assert.Equal(t, FlatColor('1'), img.RGBAAt(0, 0))
	assert.Equal(t, FlatColor('2'), img.RGBAAt(10, 2))

	_, err = r.Render(room(t), 3)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestFlatColor(t *testing.T) {
	assert.Equal(t, color.RGBA{R: 156, G: 102, B: 31, A: 255}, FlatColor('1'))
	assert.Equal(t, color.RGBA{R: 200, G: 200, B: 200, A: 255}, FlatColor('z'))
}
