package summit

import (
	"image"
	"io"

	"github.com/summit-editor/summit/pkg/atlas"
	"github.com/summit-editor/summit/pkg/autotile"
	"github.com/summit-editor/summit/pkg/level"
	"github.com/summit-editor/summit/pkg/mapbin"
	"github.com/summit-editor/summit/pkg/tileset"
)

type (
	Map          = mapbin.Map
	Node         = mapbin.Node
	Atlas        = atlas.Atlas
	Sprite       = atlas.Sprite
	AtlasManager = atlas.Manager
	TileRules    = tileset.Rules
	Grid         = autotile.Grid
	LevelStore   = level.Store
	LevelRecord  = level.Record
)

func DecodeMap(fileData []byte) (*Map, error) {
	return mapbin.Decode(fileData)
}

func EncodeMap(m *Map) ([]byte, error) {
	return mapbin.Encode(m)
}

func DecodeAtlasImage(fileData []byte) (*image.RGBA, error) {
	return atlas.DecodeDataBytes(fileData)
}

func ParseAtlasMeta(fileData []byte) (*atlas.Meta, error) {
	return atlas.ParseMeta(fileData)
}

func ParseTileRules(r io.Reader) (TileRules, error) {
	return tileset.Parse(r)
}

func ExtractLevels(m *Map) (*LevelStore, error) {
	return level.Extract(m)
}

func Resolve(id rune, g Grid, x, y int, rules TileRules) (image.Point, bool) {
	return autotile.Resolve(id, g, x, y, rules, tileset.SolidIn(rules))
}
