package summit

import (
	"image"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/summit-editor/summit/pkg/autotile"
	"github.com/summit-editor/summit/pkg/mapbin"
)

func TestMapToResolvedTile(t *testing.T) {
	lvl := mapbin.NewNode("level")
	lvl.SetAttr("name", mapbin.String("a-00"))
	lvl.AddChild(mapbin.NewNode("solids")).SetText("1")

	levels := mapbin.NewNode("levels")
	levels.AddChild(lvl)

	root := mapbin.NewNode("Map")
	root.AddChild(levels)

	data, err := EncodeMap(&Map{Package: "test", Root: root})
	require.NoError(t, err)

	m, err := DecodeMap(data)
	require.NoError(t, err)

	store, err := ExtractLevels(m)
	require.NoError(t, err)

	rec, ok := store.ByName("a-00")
	require.True(t, ok)

	rules, err := ParseTileRules(strings.NewReader(`<Data>
  <Tileset id="1" path="dirt"><set mask="xxx-x1x-xxx" tiles="5,2"/></Tileset>
</Data>`))
	require.NoError(t, err)

	tile, ok := Resolve('1', rec.Foreground.Grid, 0, 0, rules)
	require.True(t, ok)
	assert.Equal(t, image.Pt(5, 2), tile)

	_, ok = Resolve('9', autotile.ParseGrid("9"), 0, 0, rules)
	assert.False(t, ok)
}
