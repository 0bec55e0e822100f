package autotile

import (
	"image"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/summit-editor/summit/pkg/tileset"
)

func parseRules(t *testing.T, xml string) tileset.Rules {
	t.Helper()

	rules, err := tileset.Parse(strings.NewReader(xml))
	require.NoError(t, err)

	return rules
}

const priorityXML = `<Data>
  <Tileset id="1" path="dirt">
    <set mask="center" tiles="9,9"/>
    <set mask="padding" tiles="8,8"/>
    <set mask="111-111-111" tiles="1,1"/>
  </Tileset>
</Data>`

func TestGrid(t *testing.T) {
	g := ParseGrid("10\r\n1\n\n111")

	assert.Equal(t, 4, g.Height())
	assert.Equal(t, 3, g.Width())

	ch, ok := g.At(1, 0)
	assert.True(t, ok)
	assert.Equal(t, '0', ch)

	_, ok = g.At(1, 1)
	assert.False(t, ok, "short row")
	_, ok = g.At(0, 2)
	assert.False(t, ok, "empty row")
	_, ok = g.At(-1, 0)
	assert.False(t, ok)

	assert.True(t, g.Set(2, 1, '3'))
	assert.Equal(t, "10\n103\n\n111", g.String())
	assert.False(t, g.Set(-1, 0, '3'))

	assert.Equal(t, Grid{}, ParseGrid(""))
}

func TestNeighborhoodOutOfBounds(t *testing.T) {
	g := ParseGrid("12\n3")

	n := NeighborhoodAt(g, 0, 0)
	assert.Equal(t, Neighborhood{
		{OutOfBounds, OutOfBounds, OutOfBounds},
		{OutOfBounds, '1', '2'},
		{OutOfBounds, '3', OutOfBounds},
	}, n)
}

func TestResolvePriority(t *testing.T) {
	rules := parseRules(t, priorityXML)
	isSolid := tileset.SolidIn(rules)

	// centre of a 5x5 block with air two below: explicit, padding and center
	// all match
	g := ParseGrid("11111\n11111\n11111\n11111\n11011")
	require.True(t, airTwoAway(g, 2, 2, isSolid))

	tile, ok := Resolve('1', g, 2, 2, rules, isSolid)
	require.True(t, ok)
	assert.Equal(t, image.Pt(1, 1), tile)

	withoutExplicit := parseRules(t, `<Data>
  <Tileset id="1" path="dirt">
    <set mask="center" tiles="9,9"/>
    <set mask="padding" tiles="8,8"/>
  </Tileset>
</Data>`)

	tile, ok = Resolve('1', g, 2, 2, withoutExplicit, tileset.SolidIn(withoutExplicit))
	require.True(t, ok)
	assert.Equal(t, image.Pt(8, 8), tile)
}

func TestResolveFallbacks(t *testing.T) {
	rules := parseRules(t, `<Data>
  <Tileset id="1" path="dirt">
    <set mask="center" tiles="9,9"/>
    <set mask="padding" tiles="8,8"/>
    <set mask="x0x-x1x-xxx" tiles="2,0"/>
  </Tileset>
</Data>`)
	isSolid := tileset.SolidIn(rules)

	tests := []struct {
		name string
		grid string
		x, y int
		want image.Point
	}{
		{"explicit", "000\n010\n111", 1, 1, image.Pt(2, 0)},
		{"padding near air", "11111\n11111\n11111\n11111\n11011", 2, 2, image.Pt(8, 8)},
		{"center without air two away", "11111\n11111\n11111\n11111\n11111", 2, 2, image.Pt(9, 9)},
		{"default", "010\n000\n000", 1, 0, image.Pt(0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tile, ok := Resolve('1', ParseGrid(tt.grid), tt.x, tt.y, rules, isSolid)
			require.True(t, ok)
			assert.Equal(t, tt.want, tile)
		})
	}
}

func TestResolveFirstSpecialRuleOnly(t *testing.T) {
	rules := parseRules(t, `<Data>
  <Tileset id="1" path="dirt">
    <set mask="padding" tiles=""/>
    <set mask="padding" tiles="8,8"/>
    <set mask="center" tiles="9,9"/>
    <set mask="center" tiles="7,7"/>
  </Tileset>
</Data>`)

	g := ParseGrid("11111\n11111\n11111\n11111\n11011")

	tile, ok := Resolve('1', g, 2, 2, rules, tileset.SolidIn(rules))
	require.True(t, ok)
	assert.Equal(t, image.Pt(9, 9), tile, "empty first padding rule falls through to center")
}

func TestResolveOutOfBoundsIsSolid(t *testing.T) {
	rules := parseRules(t, `<Data>
  <Tileset id="1" path="dirt">
    <set mask="111-111-111" tiles="4,4"/>
  </Tileset>
</Data>`)
	isSolid := tileset.SolidIn(rules)

	g := ParseGrid("11\n11")

	tile, ok := Resolve('1', g, 0, 0, rules, isSolid)
	require.True(t, ok)
	assert.Equal(t, image.Pt(4, 4), tile)

	// an explicit '0' never matches out of bounds
	rules = parseRules(t, `<Data>
  <Tileset id="1" path="dirt">
    <set mask="0xx-x1x-xxx" tiles="4,4"/>
  </Tileset>
</Data>`)

	tile, ok = Resolve('1', g, 0, 0, rules, isSolid)
	require.True(t, ok)
	assert.Equal(t, image.Pt(0, 0), tile)
}

func TestResolveIgnores(t *testing.T) {
	rules := parseRules(t, `<Data>
  <Tileset id="1" path="dirt" ignores="3">
    <set mask="x0x-x1x-xxx" tiles="7,0"/>
  </Tileset>
  <Tileset id="3" path="snow"/>
</Data>`)
	isSolid := tileset.SolidIn(rules)

	g := ParseGrid("030\n010")

	tile, ok := Resolve('1', g, 1, 1, rules, isSolid)
	require.True(t, ok)
	assert.Equal(t, image.Pt(7, 0), tile)
}

func TestResolveInheritance(t *testing.T) {
	rules := parseRules(t, `<Data>
  <Tileset id="a" path="dirt">
    <set mask="x0x-x1x-xxx" tiles="0,0;1,0;2,0"/>
    <set mask="xxx-x1x-x0x" tiles="0,3"/>
    <set mask="padding" tiles="5,5;6,6"/>
    <set mask="center" tiles="1,1;2,2;3,3"/>
  </Tileset>
  <Tileset id="b" path="dirt" copy="a"/>
</Data>`)
	isSolid := tileset.SolidIn(rules)

	ga := ParseGrid("000000\n0aaaa0\n0aaaa0\naaaaaa\naaaaaa\naaaaaa")
	gb := ParseGrid(strings.ReplaceAll(ga.String(), "a", "b"))

	for y, row := range ga {
		for x := range row {
			ta, oka := Resolve('a', ga, x, y, rules, isSolid)
			tb, okb := Resolve('b', gb, x, y, rules, isSolid)

			assert.Equal(t, oka, okb)
			assert.Equal(t, ta, tb, "cell %d,%d", x, y)
		}
	}
}

func TestResolveUnknownTileType(t *testing.T) {
	rules := parseRules(t, priorityXML)
	isSolid := tileset.SolidIn(rules)

	g := ParseGrid("ZZ\nZZ")

	_, ok := Resolve('Z', g, 0, 0, rules, isSolid)
	assert.False(t, ok)

	// a known type falling through everything still resolves
	tile, ok := Resolve('1', ParseGrid("010"), 1, 0, rules, isSolid)
	assert.True(t, ok)
	assert.Equal(t, image.Pt(0, 0), tile)
}

func TestResolveDeterministicTieBreak(t *testing.T) {
	rules := parseRules(t, `<Data>
  <Tileset id="1" path="dirt">
    <set mask="xxx-x1x-xxx" tiles="0,0;1,0;2,0;3,0;4,0"/>
  </Tileset>
</Data>`)
	isSolid := tileset.SolidIn(rules)

	g := ParseGrid("1111111\n1111111")

	for y := 0; y < g.Height(); y++ {
		for x := 0; x < 7; x++ {
			want := image.Pt((x*31+y*17)%5, 0)

			for i := 0; i < 3; i++ {
				tile, ok := Resolve('1', g, x, y, rules, isSolid)
				require.True(t, ok)
				assert.Equal(t, want, tile)
			}
		}
	}

	assert.Equal(t, 3, Pick(3, 2, 4)) // (93 + 34) % 4
}

func TestResolveSkipsRulesWithoutTiles(t *testing.T) {
	rules := parseRules(t, `<Data>
  <Tileset id="1" path="dirt">
    <set mask="xxx-x1x-xxx" tiles=""/>
    <set mask="xxx-xxx-xxx" tiles="6,6"/>
  </Tileset>
</Data>`)

	tile, ok := Resolve('1', ParseGrid("1"), 0, 0, rules, tileset.SolidIn(rules))
	require.True(t, ok)
	assert.Equal(t, image.Pt(6, 6), tile)
}

func TestMaskMatchesRejectsBadMasks(t *testing.T) {
	n := NeighborhoodAt(ParseGrid("111\n111\n111"), 1, 1)
	solid := func(r rune) bool { return r == '1' }

	assert.True(t, MaskMatches(n, "111-111-111", solid, nil))
	assert.True(t, MaskMatches(n, "xXx-x1x-xxx", solid, nil))
	assert.False(t, MaskMatches(n, "111-111", solid, nil))
	assert.False(t, MaskMatches(n, "1111-111-111", solid, nil))
	assert.False(t, MaskMatches(n, "111-101-111", solid, nil))
}

func TestCompute(t *testing.T) {
	rules := parseRules(t, priorityXML)
	isSolid := tileset.SolidIn(rules)

	g := ParseGrid("111\n1Z1\n11")
	l := Compute(g, rules, isSolid)

	require.Len(t, l.Cells, 3)
	assert.Len(t, l.Cells[2], 2)

	c, ok := l.At(0, 0)
	require.True(t, ok)
	assert.True(t, c.Resolved)
	assert.Equal(t, '1', c.ID)

	c, _ = l.At(1, 1)
	assert.Equal(t, 'Z', c.ID)
	assert.False(t, c.Resolved)

	_, ok = l.At(2, 2)
	assert.False(t, ok)

	// pure function of the grid
	assert.Equal(t, l, Compute(g, rules, isSolid))
}
