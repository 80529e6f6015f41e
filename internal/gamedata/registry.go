package gamedata

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/samdwyer/spellforge/internal/formula"
)

// EnemyRegistry holds loaded enemy definitions and provides spawning utilities.
type EnemyRegistry struct {
	enemies     []EnemyDef
	totalWeight int
}

// NewEnemyRegistry creates a registry from loaded enemy definitions.
func NewEnemyRegistry(enemies []EnemyDef) *EnemyRegistry {
	totalWeight := 0
	for _, e := range enemies {
		totalWeight += e.SpawnWeight
	}
	return &EnemyRegistry{
		enemies:     enemies,
		totalWeight: totalWeight,
	}
}

// LoadEnemyRegistry loads and creates a registry from the embedded enemies.json.
func LoadEnemyRegistry() (*EnemyRegistry, error) {
	enemies, err := LoadEnemies()
	if err != nil {
		return nil, err
	}
	if len(enemies) == 0 {
		return nil, errors.New("no enemies loaded from enemies.json")
	}
	return NewEnemyRegistry(enemies), nil
}

// MustLoadEnemyRegistry loads a registry, panicking on error.
func MustLoadEnemyRegistry() *EnemyRegistry {
	registry, err := LoadEnemyRegistry()
	if err != nil {
		panic(err)
	}
	return registry
}

// SpawnRandom selects a random enemy definition using weighted probability.
// Enemies with higher spawnWeight are more likely to be selected.
func (r *EnemyRegistry) SpawnRandom(rng *rand.Rand) *EnemyDef {
	if r.totalWeight <= 0 || len(r.enemies) == 0 {
		return nil
	}

	roll := rng.Intn(r.totalWeight)

	cumulative := 0
	for i := range r.enemies {
		cumulative += r.enemies[i].SpawnWeight
		if roll < cumulative {
			return &r.enemies[i]
		}
	}

	return &r.enemies[0]
}

// GetByID returns the enemy definition with the given ID, or nil if not found.
func (r *EnemyRegistry) GetByID(id string) *EnemyDef {
	for i := range r.enemies {
		if r.enemies[i].ID == id {
			return &r.enemies[i]
		}
	}
	return nil
}

// All returns all enemy definitions.
func (r *EnemyRegistry) All() []EnemyDef {
	return r.enemies
}

// Count returns the number of enemy types in the registry.
func (r *EnemyRegistry) Count() int {
	return len(r.enemies)
}

// =============================================================================
// SpellCatalog
// =============================================================================

// DefaultBaseSpell is the catalog's fallback when a requested key is unknown.
const DefaultBaseSpell = "arcane_bolt"

// SpellCatalog holds the immutable spell templates loaded at startup.
type SpellCatalog struct {
	templates    map[string]*SpellTemplate
	baseKeys     []string
	modifierKeys []string
	defaultKey   string
}

// SpellsFile represents the structure of spells.json.
type SpellsFile map[string]SpellTemplate

// NewSpellCatalog creates a catalog from decoded templates. Keys are sorted
// so random draws over the catalog are reproducible for a given seed.
func NewSpellCatalog(file SpellsFile) (*SpellCatalog, error) {
	if len(file) == 0 {
		return nil, errors.New("spell catalog is empty")
	}

	c := &SpellCatalog{templates: make(map[string]*SpellTemplate, len(file))}
	for key, tmpl := range file {
		tmpl.normalize(key)
		c.templates[key] = &tmpl

		switch tmpl.Type {
		case SpellTypeBase:
			c.baseKeys = append(c.baseKeys, key)
		case SpellTypeModifier:
			c.modifierKeys = append(c.modifierKeys, key)
		default:
			return nil, fmt.Errorf("spell %s: unknown type %q", key, tmpl.Type)
		}
	}
	sort.Strings(c.baseKeys)
	sort.Strings(c.modifierKeys)

	if len(c.baseKeys) == 0 {
		return nil, errors.New("spell catalog has no base spells")
	}
	c.defaultKey = DefaultBaseSpell
	if t := c.templates[c.defaultKey]; t == nil || !t.IsBase() {
		c.defaultKey = c.baseKeys[0]
	}
	return c, nil
}

// LoadSpellCatalog loads the catalog from the embedded spells.json.
func LoadSpellCatalog() (*SpellCatalog, error) {
	file, err := Load[SpellsFile]("spells.json")
	if err != nil {
		return nil, err
	}
	return NewSpellCatalog(file)
}

// MustLoadSpellCatalog loads the catalog, panicking on error.
func MustLoadSpellCatalog() *SpellCatalog {
	catalog, err := LoadSpellCatalog()
	if err != nil {
		panic(err)
	}
	return catalog
}

// Get returns the template with the given key, or nil if not found.
func (c *SpellCatalog) Get(key string) *SpellTemplate {
	return c.templates[key]
}

// BaseKeys returns the keys of all base spells in sorted order.
func (c *SpellCatalog) BaseKeys() []string {
	return c.baseKeys
}

// ModifierKeys returns the keys of all modifiers in sorted order.
func (c *SpellCatalog) ModifierKeys() []string {
	return c.modifierKeys
}

// DefaultKey returns the base spell used as a fallback.
func (c *SpellCatalog) DefaultKey() string {
	return c.defaultKey
}

// SetDefaultKey changes the fallback base spell. Unknown keys and
// modifiers are rejected.
func (c *SpellCatalog) SetDefaultKey(key string) error {
	t := c.templates[key]
	if t == nil || !t.IsBase() {
		return fmt.Errorf("default spell %q is not a base spell", key)
	}
	c.defaultKey = key
	return nil
}

// Count returns the number of templates in the catalog.
func (c *SpellCatalog) Count() int {
	return len(c.templates)
}

// Validate evaluates every template's expressions against vars.
func (c *SpellCatalog) Validate(vars formula.Vars) error {
	var errs []error
	for _, key := range append(append([]string{}, c.baseKeys...), c.modifierKeys...) {
		if err := c.templates[key].Validate(vars); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
