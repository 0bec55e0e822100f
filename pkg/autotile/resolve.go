package autotile

import (
	"image"
	"strings"

	"github.com/summit-editor/summit/pkg/tileset"
)

// OutOfBounds marks a neighbourhood cell outside the grid.
const OutOfBounds rune = 0

// Neighborhood is the 3x3 window around a cell, indexed [row][column].
type Neighborhood [3][3]rune

// NeighborhoodAt extracts the window centred on (x, y).
func NeighborhoodAt(g Grid, x, y int) (n Neighborhood) {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			ch, ok := g.At(x+dx, y+dy)
			if !ok {
				ch = OutOfBounds
			}

			n[dy+1][dx+1] = ch
		}
	}

	return n
}

// filled reports whether every cell, centre included, is solid or outside the grid.
func (n Neighborhood) filled(isSolid func(rune) bool) bool {
	for _, row := range n {
		for _, ch := range row {
			if ch != OutOfBounds && !isSolid(ch) {
				return false
			}
		}
	}

	return true
}

// MaskMatches tests an explicit "abc-def-ghi" mask. '0' needs air, '1' needs
// a solid or out of bounds cell and 'x' matches anything. Tile types the
// tileset ignores count as air.
func MaskMatches(n Neighborhood, mask string, isSolid func(rune) bool, ts *tileset.Tileset) bool {
	rows := strings.Split(mask, "-")
	if len(rows) != 3 {
		return false
	}

	for y, row := range rows {
		if len(row) != 3 {
			return false
		}

		for x := 0; x < 3; x++ {
			ch := n[y][x]
			oob := ch == OutOfBounds
			solid := !oob && isSolid(ch) && (ts == nil || !ts.Ignored(ch))

			switch row[x] {
			case '0':
				if solid || oob {
					return false
				}
			case '1':
				if !solid && !oob {
					return false
				}
			}
		}
	}

	return true
}

// airTwoAway reports whether any in-bounds cell two tiles away orthogonally is air.
func airTwoAway(g Grid, x, y int, isSolid func(rune) bool) bool {
	for _, d := range [...]image.Point{{-2, 0}, {2, 0}, {0, -2}, {0, 2}} {
		if ch, ok := g.At(x+d.X, y+d.Y); ok && !isSolid(ch) {
			return true
		}
	}

	return false
}

// Pick chooses one of n candidates for the cell at (x, y). The choice is a
// fixed function of position so a grid always renders the same way.
func Pick(x, y, n int) int {
	idx := (x*31 + y*17) % n
	if idx < 0 {
		idx += n
	}

	return idx
}

// Resolve returns the tile coordinate, in tile units, to draw for the cell at
// (x, y) of tile type id. It reports false only when rules has no tileset for
// id. Explicit masks are tried in order, then padding, then center, then (0, 0).
func Resolve(id rune, g Grid, x, y int, rules tileset.Rules, isSolid func(rune) bool) (image.Point, bool) {
	ts, ok := rules.Lookup(id)
	if !ok {
		return image.Point{}, false
	}

	n := NeighborhoodAt(g, x, y)

	for _, rule := range ts.Rules {
		if rule.Special() || len(rule.Tiles) == 0 {
			continue
		}

		if MaskMatches(n, rule.Mask, isSolid, ts) {
			return rule.Tiles[Pick(x, y, len(rule.Tiles))], true
		}
	}

	if !n.filled(isSolid) {
		return image.Point{}, true
	}

	if airTwoAway(g, x, y, isSolid) {
		if tile, ok := firstSpecial(ts, tileset.MaskPadding, x, y); ok {
			return tile, true
		}
	}

	if tile, ok := firstSpecial(ts, tileset.MaskCenter, x, y); ok {
		return tile, true
	}

	return image.Point{}, true
}

// firstSpecial uses only the first rule with the given mask. When that rule
// lists no tiles it does not match, even if a later one would.
func firstSpecial(ts *tileset.Tileset, mask string, x, y int) (image.Point, bool) {
	for _, rule := range ts.Rules {
		if rule.Mask != mask {
			continue
		}

		if len(rule.Tiles) == 0 {
			return image.Point{}, false
		}

		return rule.Tiles[Pick(x, y, len(rule.Tiles))], true
	}

	return image.Point{}, false
}
