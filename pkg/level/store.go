package level

import (
	"errors"
	"fmt"
	"image"
	"reflect"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/summit-editor/summit/pkg/autotile"
	"github.com/summit-editor/summit/pkg/errs"
	"github.com/summit-editor/summit/pkg/mapbin"
	"github.com/summit-editor/summit/pkg/tileset"
)

// ErrOutsideRoom is returned for edits that fall outside a room or its grid.
var ErrOutsideRoom = errors.New("position outside the room")

type cacheKey struct {
	id    int
	layer Layer
}

type cached struct {
	layer *autotile.Layer
	rules uintptr
}

// rulesIdentity distinguishes rule maps by their backing storage.
func rulesIdentity(rules tileset.Rules) uintptr {
	return reflect.ValueOf(rules).Pointer()
}

// Store is the working set of a loaded map. Rooms are addressed by id, their
// index in the map's level list; the tree is only written to on edits.
type Store struct {
	mu        sync.RWMutex
	m         *mapbin.Map
	nodes     []*mapbin.Node
	records   []*Record
	autotiled map[cacheKey]cached
}

// Extract builds a store over the levels of m. It fails with errs.ErrNotFound
// when the map has no levels element.
func Extract(m *mapbin.Map) (*Store, error) {
	if m == nil || m.Root == nil {
		return nil, errs.NotFound("map root")
	}

	levels, ok := m.Root.Child("levels")
	if !ok {
		return nil, errs.NotFound("levels element in map %q", m.Package)
	}

	s := &Store{
		m:         m,
		autotiled: make(map[cacheKey]cached),
	}

	for _, n := range levels.Children {
		if n.Name != "level" {
			log.Debug().Msgf("skipping %q element in levels", n.Name)
			continue
		}

		s.records = append(s.records, extractRecord(len(s.nodes), n))
		s.nodes = append(s.nodes, n)
	}

	log.Debug().Str("package", m.Package).Int("levels", len(s.records)).Msg("levels extracted")

	return s, nil
}

// Map returns the tree the store writes edits to.
func (s *Store) Map() *mapbin.Map {
	return s.m
}

// Len returns the number of rooms.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}

// Record returns the room with the given id.
func (s *Store) Record(id int) (*Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id < 0 || id >= len(s.records) {
		return nil, false
	}

	return s.records[id], true
}

// Records returns every room in map order.
func (s *Store) Records() []*Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]*Record(nil), s.records...)
}

// ByName finds a room by name.
func (s *Store) ByName(name string) (*Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.records {
		if r.Name == name {
			return r, true
		}
	}

	return nil, false
}

// LevelAt returns the room containing the map pixel (px, py).
func (s *Store) LevelAt(px, py int) (*Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.records {
		b := r.Bounds()
		if px >= b.Min.X && px < b.Max.X && py >= b.Min.Y && py < b.Max.Y {
			return r, true
		}
	}

	return nil, false
}

// SetTile writes ch at grid cell (x, y) of a room's layer. Missing rows and
// short rows are padded with air.
func (s *Store) SetTile(id int, l Layer, x, y int, ch rune) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.recordLocked(id)
	if err != nil {
		return err
	}

	if x < 0 || y < 0 {
		return fmt.Errorf("%w: cell %d,%d in %s", ErrOutsideRoom, x, y, r.Name)
	}

	grid := r.Layer(l).Grid.Clone()
	grid.Set(x, y, ch)
	s.writeLocked(id, l, grid)

	return nil
}

// PlaceBlock writes ch at tile (tx, ty) relative to the room's top-left
// corner, accounting for the layer offset.
func (s *Store) PlaceBlock(id int, l Layer, tx, ty int, ch rune) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	x, y, err := s.cellLocked(id, l, tx, ty)
	if err != nil {
		return err
	}

	grid := s.records[id].Layer(l).Grid.Clone()
	grid.Set(x, y, ch)
	s.writeLocked(id, l, grid)

	return nil
}

// RemoveBlock clears tile (tx, ty) relative to the room. Cells beyond the
// stored grid are already air and are left alone.
func (s *Store) RemoveBlock(id int, l Layer, tx, ty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	x, y, err := s.cellLocked(id, l, tx, ty)
	if err != nil {
		return err
	}

	grid := s.records[id].Layer(l).Grid
	if _, ok := grid.At(x, y); !ok {
		return nil
	}

	grid = grid.Clone()
	grid.Set(x, y, autotile.Air)
	s.writeLocked(id, l, grid)

	return nil
}

// Autotiled returns the resolved layer of a room, computing it on first use
// after a load or edit. Passing a different rules map recomputes the layer;
// isSolid is not compared, so callers changing it without changing rules must
// call InvalidateAutotiles.
func (s *Store) Autotiled(id int, l Layer, rules tileset.Rules, isSolid func(rune) bool) (*autotile.Layer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.recordLocked(id)
	if err != nil {
		return nil, err
	}

	key := cacheKey{id: id, layer: l}
	identity := rulesIdentity(rules)

	if c, ok := s.autotiled[key]; ok && c.rules == identity {
		return c.layer, nil
	}

	computed := autotile.Compute(r.Layer(l).Grid, rules, isSolid)
	s.autotiled[key] = cached{layer: computed, rules: identity}

	return computed, nil
}

// InvalidateAutotiles drops every cached layer, for when the rules change.
func (s *Store) InvalidateAutotiles() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.autotiled = make(map[cacheKey]cached)
}

func (s *Store) recordLocked(id int) (*Record, error) {
	if id < 0 || id >= len(s.records) {
		return nil, errs.NotFound("level %d", id)
	}

	return s.records[id], nil
}

func (s *Store) cellLocked(id int, l Layer, tx, ty int) (x, y int, err error) {
	r, err := s.recordLocked(id)
	if err != nil {
		return 0, 0, err
	}

	if !image.Pt(tx, ty).In(r.TileBounds()) {
		return 0, 0, fmt.Errorf("%w: tile %d,%d in %s", ErrOutsideRoom, tx, ty, r.Name)
	}

	layer := r.Layer(l)
	x, y = tx-layer.OffsetX, ty-layer.OffsetY

	if x < 0 || y < 0 {
		return 0, 0, fmt.Errorf("%w: tile %d,%d is before the %s offset", ErrOutsideRoom, tx, ty, l)
	}

	return x, y, nil
}

// writeLocked stores grid as the layer's text in the tree and rebuilds the record.
func (s *Store) writeLocked(id int, l Layer, grid autotile.Grid) {
	level := s.nodes[id]

	child, ok := level.Child(l.node())
	if !ok {
		child = level.AddChild(mapbin.NewNode(l.node()))
		child.SetAttr("offsetX", mapbin.Int(0))
		child.SetAttr("offsetY", mapbin.Int(0))
	}

	child.SetText(grid.String())

	s.records[id] = extractRecord(id, level)
	delete(s.autotiled, cacheKey{id: id, layer: l})
}
