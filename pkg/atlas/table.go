package atlas

import "sync"

// Entry is a global lookup result: the owning atlas name and a copy of the
// sprite's metadata.
type Entry struct {
	Atlas  string
	Sprite Sprite
}

// SpriteTable maps sprite paths to sprites across every loaded atlas. When two
// atlases publish the same path, the last one published wins.
type SpriteTable struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewSpriteTable creates an empty table.
func NewSpriteTable() *SpriteTable {
	return &SpriteTable{entries: make(map[string]Entry)}
}

var globalSprites = NewSpriteTable()

// GlobalSprites returns the process-wide table the default Manager publishes to.
func GlobalSprites() *SpriteTable {
	return globalSprites
}

// Publish puts a's current sprites on top of the table, first dropping the
// entries a owned before. Paths a shadowed are not restored; see Rebuild.
func (t *SpriteTable) Publish(a *Atlas) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.dropLocked(a.Name)

	for path, s := range a.sprites {
		t.entries[path] = Entry{Atlas: a.Name, Sprite: *s}
	}
}

// Rebuild replaces the whole table with the sprites of atlases, published in
// order so later atlases shadow earlier ones.
func (t *SpriteTable) Rebuild(atlases []*Atlas) {
	entries := make(map[string]Entry)

	for _, a := range atlases {
		for path, s := range a.sprites {
			entries[path] = Entry{Atlas: a.Name, Sprite: *s}
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries = entries
}

func (t *SpriteTable) dropLocked(atlasName string) {
	for path, e := range t.entries {
		if e.Atlas == atlasName {
			delete(t.entries, path)
		}
	}
}

// Lookup finds a sprite by path regardless of the atlas it lives in.
func (t *SpriteTable) Lookup(path string) (Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, ok := t.entries[path]

	return e, ok
}

// Len returns the number of published paths.
func (t *SpriteTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.entries)
}

// Reset empties the table.
func (t *SpriteTable) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries = make(map[string]Entry)
}
