package gamedata

import (
	"github.com/gdamore/tcell/v2"

	"github.com/samdwyer/spellforge/internal/formula"
)

// EnemyDef defines a target type loaded from JSON.
type EnemyDef struct {
	ID          string  `json:"id"`          // Unique identifier (e.g., "zombie")
	Name        string  `json:"name"`        // Display name (e.g., "Zombie")
	Glyph       string  `json:"glyph"`       // Single character for rendering (e.g., "z")
	Color       string  `json:"color"`       // Hex color code (e.g., "#00FF00")
	HP          string  `json:"hp"`          // Hit points expression over "wave"
	Speed       float64 `json:"speed"`       // Movement speed in world units per second
	SpawnWeight int     `json:"spawnWeight"` // Relative spawn frequency (higher = more common)
}

// GlyphRune returns the glyph as a rune for rendering.
func (e *EnemyDef) GlyphRune() rune {
	if len(e.Glyph) == 0 {
		return '?'
	}
	return rune(e.Glyph[0])
}

// TCellColor returns the color as a tcell.Color.
func (e *EnemyDef) TCellColor() tcell.Color {
	color, err := ParseHexColor(e.Color)
	if err != nil {
		return tcell.ColorWhite // fallback
	}
	return color
}

// HPForWave evaluates the enemy's hit points for the given wave.
func (e *EnemyDef) HPForWave(wave int) (int, error) {
	return formula.EvaluateInt(e.HP, formula.Vars{formula.VarWave: float64(wave)})
}

// EnemiesFile represents the structure of enemies.json.
type EnemiesFile struct {
	Enemies []EnemyDef `json:"enemies"`
}

// LoadEnemies loads enemy definitions from the embedded enemies.json file.
func LoadEnemies() ([]EnemyDef, error) {
	file, err := Load[EnemiesFile]("enemies.json")
	if err != nil {
		return nil, err
	}
	return file.Enemies, nil
}

// MustLoadEnemies loads enemy definitions, panicking on error.
func MustLoadEnemies() []EnemyDef {
	enemies, err := LoadEnemies()
	if err != nil {
		panic(err)
	}
	return enemies
}
