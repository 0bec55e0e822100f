package tileset

import (
	"encoding/xml"
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/summit-editor/summit/pkg/errs"
)

type xmlTileset struct {
	ID      string    `xml:"id,attr"`
	Path    string    `xml:"path,attr"`
	Copy    string    `xml:"copy,attr"`
	Ignores string    `xml:"ignores,attr"`
	Sets    []xmlRule `xml:"set"`
}

type xmlRule struct {
	Mask  *string `xml:"mask,attr"`
	Tiles string  `xml:"tiles,attr"`
}

// Parse reads every <Tileset> element, wherever it sits in the document, and
// resolves copy references one level deep.
func Parse(r io.Reader) (Rules, error) {
	dec := xml.NewDecoder(r)
	rules := make(Rules)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("%w: tile rules: %w", errs.ErrMalformed, err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "Tileset" {
			continue
		}

		var raw xmlTileset
		if err = dec.DecodeElement(&raw, &start); err != nil {
			return nil, fmt.Errorf("%w: tile rules: %w", errs.ErrMalformed, err)
		}

		if t := raw.convert(); t != nil {
			rules[t.ID] = t
		}
	}

	rules.inherit()

	return rules, nil
}

func (raw xmlTileset) convert() *Tileset {
	id := firstRune(raw.ID)
	if id == 0 {
		log.Debug().Msgf("skipping tileset without id (path %q)", raw.Path)
		return nil
	}

	t := &Tileset{
		ID:      id,
		Path:    raw.Path,
		Copy:    firstRune(raw.Copy),
		Ignores: raw.Ignores,
	}

	for _, set := range raw.Sets {
		if set.Mask == nil {
			continue
		}

		t.Rules = append(t.Rules, Rule{
			Mask:  *set.Mask,
			Tiles: ParseTiles(set.Tiles),
		})
	}

	t.declared = len(t.Rules)

	return t
}

// inherit appends the declared rules of each copy target. Copies of copies are
// not followed.
func (rs Rules) inherit() {
	declaredPaths := make(map[rune]string, len(rs))
	for id, t := range rs {
		declaredPaths[id] = t.Path
	}

	for _, t := range rs {
		if t.Copy == 0 || t.Copy == t.ID {
			continue
		}

		base, ok := rs[t.Copy]
		if !ok {
			log.Debug().Msgf("tileset %q copies unknown tileset %q", t.ID, t.Copy)
			continue
		}

		t.Rules = append(t.Rules[:t.declared:t.declared], base.Declared()...)

		if t.Path == "" {
			t.Path = declaredPaths[base.ID]
		}
	}
}

// ParseTiles reads a "x,y;x,y" list. Pairs that are not two non-negative
// integers are dropped.
func ParseTiles(s string) []image.Point {
	var tiles []image.Point

	for _, pair := range strings.Split(s, ";") {
		coords := strings.Split(pair, ",")
		if len(coords) != 2 {
			continue
		}

		x, errX := strconv.ParseUint(strings.TrimSpace(coords[0]), 10, 31)
		y, errY := strconv.ParseUint(strings.TrimSpace(coords[1]), 10, 31)

		if errX != nil || errY != nil {
			continue
		}

		tiles = append(tiles, image.Pt(int(x), int(y)))
	}

	return tiles
}

// ReadFile parses the rule file at path.
func ReadFile(path string) (Rules, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errs.NotFound("tile rules %s", path)
		}

		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	defer f.Close()

	return Parse(f)
}

// LoadFile parses the rule file at path. A missing or malformed file yields an
// empty rule set so callers fall back to flat colour rendering.
func LoadFile(path string) Rules {
	rules, err := ReadFile(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("tile rules unavailable, using none")
		return Rules{}
	}

	log.Debug().Str("path", path).Int("tilesets", len(rules)).Msg("tile rules loaded")

	return rules
}

func firstRune(s string) rune {
	if s == "" {
		return 0
	}

	r, _ := utf8.DecodeRuneInString(s)

	return r
}
