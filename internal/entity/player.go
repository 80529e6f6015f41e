package entity

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/samdwyer/spellforge/internal/caster"
	"github.com/samdwyer/spellforge/internal/combat"
	"github.com/samdwyer/spellforge/internal/gamedata"
	"github.com/samdwyer/spellforge/internal/geom"
	"github.com/samdwyer/spellforge/internal/lifecycle"
)

// ErrNoClass is returned when a player is created without a class.
var ErrNoClass = errors.New("player has no class")

// Player is the spell-casting hero. Its mana and active spell live in the
// embedded caster; its stats come from its class, re-evaluated every wave.
type Player struct {
	*caster.Caster
	Class   *gamedata.ClassDef
	Symbol  rune
	Loadout *caster.Loadout

	mu    sync.Mutex
	pos   geom.Vec2
	hp    int
	maxHP int
	speed int
	wave  int
}

// NewPlayer creates a player of class at pos with stats for wave. The
// player's tasks run on handle.
func NewPlayer(name string, class *gamedata.ClassDef, handle *lifecycle.Handle, pos geom.Vec2, wave int, opts ...caster.Option) (*Player, error) {
	if class == nil {
		return nil, ErrNoClass
	}
	stats, err := class.StatsForWave(wave)
	if err != nil {
		return nil, err
	}

	p := &Player{
		Caster: caster.New(name, combat.TeamPlayer, handle, caster.Stats{
			MaxMana:    stats.Mana,
			Regen:      stats.ManaRegeneration,
			SpellPower: stats.Spellpower,
		}, opts...),
		Class:  class,
		Symbol: class.SymbolRune(),
		pos:    pos,
		hp:     stats.Health,
		maxHP:  stats.Health,
		speed:  stats.Speed,
		wave:   wave,
	}
	p.Loadout = caster.NewLoadout(p.Caster)
	return p, nil
}

// ApplyWave re-evaluates the class stats for wave and pushes them into the
// caster. Health and mana are capped to the new maximums, not refilled.
func (p *Player) ApplyWave(wave int) error {
	stats, err := p.Class.StatsForWave(wave)
	if err != nil {
		return fmt.Errorf("apply wave %d: %w", wave, err)
	}

	p.mu.Lock()
	p.wave = wave
	p.maxHP = stats.Health
	p.hp = min(p.hp, p.maxHP)
	p.speed = stats.Speed
	p.mu.Unlock()

	p.SetStats(caster.Stats{
		MaxMana:    stats.Mana,
		Regen:      stats.ManaRegeneration,
		SpellPower: stats.Spellpower,
	})
	slog.Debug("player stats updated", "player", p.GetName(), "wave", wave, "mana", stats.Mana, "power", stats.Spellpower)
	return nil
}

// Color returns the tcell color for the player's class.
func (p *Player) Color() tcell.Color {
	color, err := gamedata.ParseHexColor(p.Class.Color)
	if err != nil {
		return tcell.ColorWhite
	}
	return color
}

func (p *Player) GetTeam() combat.Team { return combat.TeamPlayer }

// IsAlive returns true if the player has HP remaining.
func (p *Player) IsAlive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hp > 0
}

// HP returns current and maximum hit points.
func (p *Player) HP() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hp, p.maxHP
}

// Damage reduces HP and returns the damage actually taken.
func (p *Player) Damage(d combat.Damage) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if d.Amount <= 0 || p.hp <= 0 {
		return 0
	}
	actual := min(d.Amount, p.hp)
	p.hp -= actual
	return actual
}

func (p *Player) Position() geom.Vec2 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pos
}

// Speed returns the movement speed for the current wave.
func (p *Player) Speed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.speed
}

// Wave returns the wave the player's stats were last evaluated for.
func (p *Player) Wave() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.wave
}

var (
	_ combat.Hittable   = (*Player)(nil)
	_ combat.Positioned = (*Player)(nil)
)
