package atlas

import (
	"image"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/summit-editor/summit/pkg/errs"
)

// Manager owns the loaded atlases and keeps a SpriteTable in step with them.
// The table is rebuilt from every registered atlas on each change, so a
// manager should be the only writer of its table.
type Manager struct {
	mu      sync.RWMutex
	atlases map[string]*Atlas
	order   []string // registration order, most recent last
	table   *SpriteTable
}

// NewManager creates a manager publishing to table. A nil table means the
// process-wide GlobalSprites table.
func NewManager(table *SpriteTable) *Manager {
	if table == nil {
		table = GlobalSprites()
	}

	return &Manager{
		atlases: make(map[string]*Atlas),
		table:   table,
	}
}

// Table returns the sprite table the manager publishes to.
func (m *Manager) Table() *SpriteTable {
	return m.table
}

// LoadAtlas decodes <dir>/<name>.meta with its data files and registers the
// result under name. Loading a name again replaces the atlas wholesale and
// makes it the most recent writer of its paths. On failure the previously
// loaded atlas, if any, stays in place.
func (m *Manager) LoadAtlas(name, dir string) (*Atlas, error) {
	a, err := Load(name, dir)
	if err != nil {
		return nil, err
	}

	m.Add(a)

	return a, nil
}

// Add registers an already decoded atlas and publishes its sprites.
func (m *Manager) Add(a *Atlas) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, reloaded := m.atlases[a.Name]
	m.atlases[a.Name] = a
	m.order = append(removeName(m.order, a.Name), a.Name)
	m.rebuildLocked()

	log.Debug().Msgf("registered atlas %s with %d sprites (reload: %v)", a.Name, a.Len(), reloaded)
}

// Atlas returns the atlas registered under name.
func (m *Manager) Atlas(name string) (*Atlas, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.atlases[name]

	return a, ok
}

// Names returns the registered atlas names, sorted.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.atlases))
	for name := range m.atlases {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// GetSprite looks up path inside one atlas.
func (m *Manager) GetSprite(atlasName, path string) (*Sprite, bool) {
	a, ok := m.Atlas(atlasName)
	if !ok {
		return nil, false
	}

	return a.Sprite(path)
}

// GetSpriteGlobal looks up path in the manager's sprite table, whichever atlas
// published it.
func (m *Manager) GetSpriteGlobal(path string) (string, *Sprite, bool) {
	e, ok := m.table.Lookup(path)
	if !ok {
		return "", nil, false
	}

	s := e.Sprite

	return e.Atlas, &s, true
}

// ReplaceImage swaps one data file image of a registered atlas and republishes
// the atlas so table entries carry the new UVs.
func (m *Manager) ReplaceImage(atlasName, dataFile string, img *image.RGBA) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.atlases[atlasName]
	if !ok {
		return errs.NotFound("atlas %q", atlasName)
	}

	if err := a.ReplaceImage(dataFile, img); err != nil {
		return err
	}

	m.rebuildLocked()

	return nil
}

// Unload removes an atlas. Paths it shadowed fall back to the atlases still
// registered.
func (m *Manager) Unload(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.atlases, name)
	m.order = removeName(m.order, name)
	m.rebuildLocked()
}

func (m *Manager) rebuildLocked() {
	atlases := make([]*Atlas, 0, len(m.order))
	for _, name := range m.order {
		atlases = append(atlases, m.atlases[name])
	}

	m.table.Rebuild(atlases)
}

func removeName(names []string, name string) []string {
	out := names[:0]

	for _, n := range names {
		if n != name {
			out = append(out, n)
		}
	}

	return out
}
