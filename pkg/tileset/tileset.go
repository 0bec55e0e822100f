// Package tileset reads the tile rule files (ForegroundTiles.xml and
// BackgroundTiles.xml) that tell the autotiler which sub-tile to draw for a
// neighbourhood.
package tileset

import (
	"image"
	"sort"
	"strings"
)

// Special mask tokens. Every other mask is an explicit 3x3 pattern.
const (
	MaskCenter  = "center"
	MaskPadding = "padding"
)

// TileSize is the edge of one sub-tile in pixels.
const TileSize = 8

// ignoreAll in an ignores attribute ignores every tile type but the tileset's own.
const ignoreAll = "*"

// Rule is one <set> element: a mask and the candidate tile coordinates, in
// tile units, used when the mask matches.
type Rule struct {
	Mask  string
	Tiles []image.Point
}

// Special reports whether the rule uses the center or padding token.
func (r Rule) Special() bool {
	return r.Mask == MaskCenter || r.Mask == MaskPadding
}

// Tileset is the rule set of one tile type.
type Tileset struct {
	ID      rune
	Path    string
	Copy    rune // zero when the tileset inherits nothing
	Ignores string

	// Rules holds the declared rules followed by the inherited ones.
	Rules []Rule

	declared int
}

// Declared returns only the rules written on the tileset itself.
func (t *Tileset) Declared() []Rule {
	return t.Rules[:t.declared]
}

// Ignored reports whether neighbours of type ch count as air for explicit masks.
func (t *Tileset) Ignored(ch rune) bool {
	if t.Ignores == ignoreAll {
		return ch != t.ID
	}

	return strings.ContainsRune(t.Ignores, ch)
}

// Rules maps tile type characters to their tileset.
type Rules map[rune]*Tileset

// Lookup returns the tileset for a tile type.
func (rs Rules) Lookup(id rune) (*Tileset, bool) {
	t, ok := rs[id]
	return t, ok
}

// IDs returns the tile type characters, sorted.
func (rs Rules) IDs() []rune {
	ids := make([]rune, 0, len(rs))
	for id := range rs {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids
}

// PathMap maps each tile type to its tileset source image path.
func (rs Rules) PathMap() map[rune]string {
	paths := make(map[rune]string, len(rs))

	for id, t := range rs {
		if t.Path != "" {
			paths[id] = t.Path
		}
	}

	return paths
}

// SolidIn returns the default solidity predicate for a rule set: anything but
// air that has a tileset is solid.
func SolidIn(rs Rules) func(rune) bool {
	return func(ch rune) bool {
		if ch == '0' || ch == ' ' {
			return false
		}

		_, ok := rs[ch]

		return ok
	}
}
