// Package caster holds the mana pool of a spell-casting entity and gates its
// casts on mana and cooldown.
package caster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samdwyer/spellforge/internal/combat"
	"github.com/samdwyer/spellforge/internal/event"
	"github.com/samdwyer/spellforge/internal/geom"
	"github.com/samdwyer/spellforge/internal/lifecycle"
	"github.com/samdwyer/spellforge/internal/spell"
	"github.com/samdwyer/spellforge/internal/telemetry"
)

// DefaultRegenPeriod is how often StartRegeneration restores mana.
const DefaultRegenPeriod = time.Second

// ErrNegativeCost marks a spell whose mana cost evaluated below zero.
var ErrNegativeCost = errors.New("negative mana cost")

// DenyReason says why TryCast refused a cast.
type DenyReason string

const (
	DenyNone             DenyReason = ""
	DenyNoSpell          DenyReason = "no_spell"
	DenyInsufficientMana DenyReason = "insufficient_mana"
	DenyCooldown         DenyReason = "cooldown"
	DenyOwnerInactive    DenyReason = "owner_inactive"
	DenyInvalidSpell     DenyReason = "invalid_spell"
)

// CastResult is the outcome of TryCast. A denied cast changes nothing.
type CastResult struct {
	OK        bool
	Reason    DenyReason
	ManaSpent int
	Spell     string
}

// Stats are the caster's resource numbers.
type Stats struct {
	MaxMana    int
	Regen      int
	SpellPower int
}

// Option configures a Caster.
type Option func(*Caster)

// WithRegenPeriod overrides DefaultRegenPeriod.
func WithRegenPeriod(d time.Duration) Option {
	return func(c *Caster) {
		if d > 0 {
			c.regenPeriod = d
		}
	}
}

// WithEvents publishes a SpellCast event for every successful cast.
func WithEvents(d *event.Dispatcher) Option {
	return func(c *Caster) { c.events = d }
}

// Caster is the mana pool and active spell of one entity. It implements
// spell.Owner, so spells built for it read its spell power and run their
// timed work on its lifetime handle.
type Caster struct {
	name        string
	team        combat.Team
	handle      *lifecycle.Handle
	events      *event.Dispatcher
	regenPeriod time.Duration

	castMu sync.Mutex

	mu      sync.Mutex
	mana    int
	maxMana int
	regen   int
	power   int
	current spell.Spell

	// bonus is spell power granted on top of the class value, e.g. by relics.
	bonus int
	// discount is taken off the next successful cast.
	discount int
}

// New creates a caster with a full mana pool.
func New(name string, team combat.Team, handle *lifecycle.Handle, stats Stats, opts ...Option) *Caster {
	c := &Caster{
		name:        name,
		team:        team,
		handle:      handle,
		regenPeriod: DefaultRegenPeriod,
		mana:        max(stats.MaxMana, 0),
		maxMana:     max(stats.MaxMana, 0),
		regen:       stats.Regen,
		power:       stats.SpellPower,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Caster) GetName() string { return c.name }

func (c *Caster) Team() combat.Team { return c.team }

func (c *Caster) Lifetime() *lifecycle.Handle { return c.handle }

// SpellPower returns the power variable used in spell formulas.
func (c *Caster) SpellPower() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.power + c.bonus
}

// AddSpellPower changes the bonus spell power kept on top of the caster's
// stats. SetStats leaves the bonus alone; remove it with a negative delta.
func (c *Caster) AddSpellPower(delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bonus += delta
}

// GainMana adds n mana, capped at the maximum, and returns the new amount.
// Negative n is ignored.
func (c *Caster) GainMana(n int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mana = min(c.mana+max(n, 0), c.maxMana)
	return c.mana
}

// ReduceNextCost makes the next successful cast n mana cheaper. Reductions
// add up until a cast consumes them.
func (c *Caster) ReduceNextCost(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.discount += max(n, 0)
}

// Mana returns the current and maximum mana.
func (c *Caster) Mana() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mana, c.maxMana
}

// Stats returns the caster's current resource numbers.
func (c *Caster) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{MaxMana: c.maxMana, Regen: c.regen, SpellPower: c.power}
}

// SetStats replaces the caster's numbers. Current mana is capped to the new
// maximum but never refilled.
func (c *Caster) SetStats(s Stats) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maxMana = max(s.MaxMana, 0)
	c.regen = s.Regen
	c.power = s.SpellPower
	c.mana = min(c.mana, c.maxMana)
}

// CurrentSpell returns the active spell, or nil.
func (c *Caster) CurrentSpell() spell.Spell {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// SetCurrentSpell swaps the active spell. The cooldown state of both spells
// is left as it is.
func (c *Caster) SetCurrentSpell(s spell.Spell) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = s
}

// RegenerateTick restores one tick of mana, capped at the maximum.
func (c *Caster) RegenerateTick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mana = max(min(c.mana+c.regen, c.maxMana), 0)
}

// StartRegeneration runs RegenerateTick once per regen period until the
// owner's handle closes. It returns false if the handle is already closed.
func (c *Caster) StartRegeneration() bool {
	return c.handle.Go(func(ctx context.Context) {
		c.handle.Every(ctx, c.regenPeriod, c.RegenerateTick)
	})
}

// TryCast casts the active spell from origin toward target if the caster is
// alive, can pay the mana cost and the spell is off cooldown. On success the
// cost is deducted and the cooldown committed before the cast sequence starts
// on the owner's handle; a denial leaves every piece of state untouched.
func (c *Caster) TryCast(ctx context.Context, origin, target geom.Vec2) CastResult {
	_, span := telemetry.Tracer("caster").Start(ctx, "caster.try_cast")
	defer span.End()

	result := c.tryCast(origin, target)
	span.SetAttributes(
		attribute.String("caster.name", c.name),
		attribute.String("spell.name", result.Spell),
		attribute.Int("spell.cost", result.ManaSpent),
		attribute.Bool("cast.ok", result.OK),
		attribute.String("cast.outcome", string(result.Reason)),
	)
	if !result.OK {
		slog.Debug("cast denied", "caster", c.name, "spell", result.Spell, "reason", result.Reason)
	}
	return result
}

func (c *Caster) tryCast(origin, target geom.Vec2) CastResult {
	// castMu serializes the check-and-commit; mu only guards the numbers, since
	// the spell's formulas read SpellPower.
	c.castMu.Lock()
	defer c.castMu.Unlock()

	s := c.CurrentSpell()
	if s == nil {
		return CastResult{Reason: DenyNoSpell}
	}
	name := s.GetName()
	if c.handle == nil || !c.handle.Alive() {
		return CastResult{Reason: DenyOwnerInactive, Spell: name}
	}

	cost, err := s.GetManaCost()
	if err == nil && cost < 0 {
		err = fmt.Errorf("%w: %d", ErrNegativeCost, cost)
	}
	if err == nil {
		_, err = s.GetCooldown()
	}
	if err != nil {
		slog.Error("spell cannot be cast", "caster", c.name, "spell", name, "error", err)
		return CastResult{Reason: DenyInvalidSpell, Spell: name}
	}

	ready := s.IsReady()

	c.mu.Lock()
	cost = max(cost-c.discount, 0)
	if c.mana < cost {
		c.mu.Unlock()
		return CastResult{Reason: DenyInsufficientMana, Spell: name}
	}
	if !ready {
		c.mu.Unlock()
		return CastResult{Reason: DenyCooldown, Spell: name}
	}
	c.mana -= cost
	c.discount = 0
	remaining := c.mana
	c.mu.Unlock()
	s.MarkCast(c.handle.Clock().Now())

	if !c.handle.Go(func(ctx context.Context) {
		if err := spell.Cast(ctx, s, origin, target, c.team); err != nil {
			slog.Warn("cast failed", "caster", c.name, "spell", name, "error", err)
		}
	}) {
		// The owner closed after the liveness check. The mana stays spent like
		// any other cast that fizzles.
		slog.Debug("cast dropped, owner closed", "caster", c.name, "spell", name)
	}

	c.events.Dispatch(event.Event{Type: event.TypeSpellCast, Data: event.SpellCast{
		Spell:  name,
		Caster: c.name,
		Team:   c.team,
		Origin: origin,
		Target: target,
		Mana:   remaining,
	}})
	slog.Debug("spell cast", "caster", c.name, "spell", name, "cost", cost, "mana", remaining)
	return CastResult{OK: true, ManaSpent: cost, Spell: name}
}

var _ spell.Owner = (*Caster)(nil)
