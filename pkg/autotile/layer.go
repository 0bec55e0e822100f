package autotile

import (
	"image"

	"github.com/summit-editor/summit/pkg/tileset"
)

// Cell is the resolved drawing of one grid cell.
type Cell struct {
	ID   rune
	Tile image.Point // tile units inside the tileset image
	// Resolved is false for air and for tile types without a tileset.
	Resolved bool
}

// Layer holds the resolved cells of a whole grid, shaped like the grid.
type Layer struct {
	Cells [][]Cell
}

// Compute resolves every non-air cell of g once.
func Compute(g Grid, rules tileset.Rules, isSolid func(rune) bool) *Layer {
	l := &Layer{Cells: make([][]Cell, len(g))}

	for y, row := range g {
		cells := make([]Cell, len(row))

		for x, ch := range row {
			cells[x].ID = ch

			if ch == Air || ch == ' ' {
				continue
			}

			cells[x].Tile, cells[x].Resolved = Resolve(ch, g, x, y, rules, isSolid)
		}

		l.Cells[y] = cells
	}

	return l
}

// At returns the cell at (x, y).
func (l *Layer) At(x, y int) (Cell, bool) {
	if y < 0 || y >= len(l.Cells) || x < 0 || x >= len(l.Cells[y]) {
		return Cell{}, false
	}

	return l.Cells[y][x], true
}
