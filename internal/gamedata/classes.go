package gamedata

import (
	"fmt"

	"github.com/samdwyer/spellforge/internal/formula"
)

// ClassDef defines a playable class loaded from JSON. Stats are RPN
// expressions over "wave", re-evaluated at the start of every wave.
type ClassDef struct {
	ID               string `json:"id"`                // Unique identifier (e.g., "mage")
	Name             string `json:"name"`              // Display name (e.g., "Mage")
	Symbol           string `json:"symbol"`            // Single character for rendering (e.g., "M")
	Color            string `json:"color"`             // Hex color code (e.g., "#7F5FFF")
	Sprite           int    `json:"sprite"`            // Sprite index for graphical frontends
	Health           string `json:"health"`            // Max health expression
	Mana             string `json:"mana"`              // Max mana expression
	ManaRegeneration string `json:"mana_regeneration"` // Mana per regeneration tick
	Spellpower       string `json:"spellpower"`        // Spell power expression
	Speed            string `json:"speed"`             // Movement speed expression
	StartingSpell    string `json:"starting_spell"`    // Spell key equipped on spawn
}

// ClassStats are a class's stats evaluated for one wave.
type ClassStats struct {
	Health           int
	Mana             int
	ManaRegeneration int
	Spellpower       int
	Speed            int
}

// SymbolRune returns the symbol as a rune for rendering.
func (c *ClassDef) SymbolRune() rune {
	if len(c.Symbol) == 0 {
		return '?'
	}
	return rune(c.Symbol[0])
}

// StatsForWave evaluates the class's stat expressions for the given wave.
func (c *ClassDef) StatsForWave(wave int) (ClassStats, error) {
	vars := formula.Vars{formula.VarWave: float64(wave)}

	var stats ClassStats
	fields := []struct {
		name string
		expr string
		dst  *int
	}{
		{"health", c.Health, &stats.Health},
		{"mana", c.Mana, &stats.Mana},
		{"mana_regeneration", c.ManaRegeneration, &stats.ManaRegeneration},
		{"spellpower", c.Spellpower, &stats.Spellpower},
		{"speed", c.Speed, &stats.Speed},
	}
	for _, f := range fields {
		v, err := formula.EvaluateInt(f.expr, vars)
		if err != nil {
			return ClassStats{}, fmt.Errorf("class %s stat %s: %w", c.ID, f.name, err)
		}
		*f.dst = v
	}
	return stats, nil
}

// ClassesFile represents the structure of classes.json.
type ClassesFile struct {
	Classes []ClassDef `json:"classes"`
}

// LoadClasses loads class definitions from the embedded classes.json file.
func LoadClasses() ([]ClassDef, error) {
	file, err := Load[ClassesFile]("classes.json")
	if err != nil {
		return nil, err
	}
	return file.Classes, nil
}

// MustLoadClasses loads class definitions, panicking on error.
func MustLoadClasses() []ClassDef {
	classes, err := LoadClasses()
	if err != nil {
		panic(err)
	}
	return classes
}

// FindClass returns the class with the given ID from classes, or nil.
func FindClass(classes []ClassDef, id string) *ClassDef {
	for i := range classes {
		if classes[i].ID == id {
			return &classes[i]
		}
	}
	return nil
}
