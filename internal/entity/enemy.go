// Package entity provides the actors of a run: the player and the targets
// spells are cast at.
package entity

import (
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"

	"github.com/samdwyer/spellforge/internal/combat"
	"github.com/samdwyer/spellforge/internal/gamedata"
	"github.com/samdwyer/spellforge/internal/geom"
)

// Enemy is a hostile target in the arena. It is safe for concurrent use:
// projectiles, area spells and slow restorations all touch it from their own
// goroutines.
type Enemy struct {
	ID     uuid.UUID
	Def    *gamedata.EnemyDef // nil for ad-hoc dummies
	Name   string
	Symbol rune

	mu    sync.Mutex
	pos   geom.Vec2
	hp    int
	maxHP int
	speed float64
}

// NewEnemy creates an ad-hoc enemy with the given hit points.
func NewEnemy(name string, pos geom.Vec2, hp int, speed float64) *Enemy {
	return &Enemy{
		ID:     uuid.New(),
		Name:   name,
		Symbol: '?',
		pos:    pos,
		hp:     hp,
		maxHP:  hp,
		speed:  speed,
	}
}

// NewEnemyFromDef creates an enemy from a data-driven definition, with hit
// points evaluated for wave.
func NewEnemyFromDef(def *gamedata.EnemyDef, pos geom.Vec2, wave int) (*Enemy, error) {
	hp, err := def.HPForWave(wave)
	if err != nil {
		return nil, err
	}
	e := NewEnemy(def.Name, pos, hp, def.Speed)
	e.Def = def
	e.Symbol = def.GlyphRune()
	return e, nil
}

// Color returns the tcell color for this enemy.
func (e *Enemy) Color() tcell.Color {
	if e.Def != nil {
		return e.Def.TCellColor()
	}
	return tcell.ColorPurple
}

func (e *Enemy) GetName() string { return e.Name }

func (e *Enemy) GetTeam() combat.Team { return combat.TeamEnemy }

// IsAlive returns true if the enemy has HP remaining.
func (e *Enemy) IsAlive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hp > 0
}

// HP returns current and maximum hit points.
func (e *Enemy) HP() (int, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hp, e.maxHP
}

// Damage reduces HP and returns the damage actually taken.
func (e *Enemy) Damage(d combat.Damage) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if d.Amount <= 0 || e.hp <= 0 {
		return 0
	}
	actual := min(d.Amount, e.hp)
	e.hp -= actual
	return actual
}

// Position returns the enemy's current location.
func (e *Enemy) Position() geom.Vec2 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pos
}

// MoveToward steps the enemy toward target at its current speed for dt
// seconds, stopping on arrival.
func (e *Enemy) MoveToward(target geom.Vec2, dt float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.hp <= 0 {
		return
	}
	delta := target.Sub(e.pos)
	step := e.speed * dt
	if delta.Len() <= step {
		e.pos = target
		return
	}
	e.pos = e.pos.Add(delta.Normalized().Scale(step))
}

func (e *Enemy) GetSpeed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed
}

func (e *Enemy) SetSpeed(speed float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.speed = speed
}

var (
	_ combat.Slowable   = (*Enemy)(nil)
	_ combat.Positioned = (*Enemy)(nil)
)
