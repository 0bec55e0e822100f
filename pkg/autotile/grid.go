// Package autotile picks the sub-tile drawn for each cell of a tile grid by
// matching its 3x3 neighbourhood against a tileset's rules.
package autotile

import "strings"

// Air is the conventional empty tile type.
const Air = '0'

// Grid is a ragged character matrix, one rune per tile cell. Rows may have
// different lengths.
type Grid [][]rune

// ParseGrid splits tile text into rows. Carriage returns are dropped.
func ParseGrid(text string) Grid {
	text = strings.ReplaceAll(text, "\r", "")
	if text == "" {
		return Grid{}
	}

	lines := strings.Split(text, "\n")
	g := make(Grid, len(lines))

	for y, line := range lines {
		g[y] = []rune(line)
	}

	return g
}

// At returns the cell at (x, y) and whether it exists.
func (g Grid) At(x, y int) (rune, bool) {
	if y < 0 || y >= len(g) || x < 0 || x >= len(g[y]) {
		return 0, false
	}

	return g[y][x], true
}

// Height returns the number of rows.
func (g Grid) Height() int {
	return len(g)
}

// Width returns the length of the longest row.
func (g Grid) Width() (w int) {
	for _, row := range g {
		if len(row) > w {
			w = len(row)
		}
	}

	return w
}

// Set writes ch at (x, y), growing the grid with air as needed. Negative
// coordinates are ignored and reported as false.
func (g *Grid) Set(x, y int, ch rune) bool {
	if x < 0 || y < 0 {
		return false
	}

	for len(*g) <= y {
		*g = append(*g, nil)
	}

	row := (*g)[y]
	for len(row) <= x {
		row = append(row, Air)
	}

	row[x] = ch
	(*g)[y] = row

	return true
}

// Clone returns a deep copy.
func (g Grid) Clone() Grid {
	c := make(Grid, len(g))
	for y, row := range g {
		c[y] = append([]rune(nil), row...)
	}

	return c
}

// String joins the rows with newlines.
func (g Grid) String() string {
	var sb strings.Builder

	for y, row := range g {
		if y > 0 {
			sb.WriteByte('\n')
		}

		sb.WriteString(string(row))
	}

	return sb.String()
}
