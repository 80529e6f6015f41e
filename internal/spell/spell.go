// Package spell implements runtime spells: base spells built from catalog
// templates, modifiers that wrap another spell and change its numbers or its
// cast sequence, and the composer that assembles random chains of both.
//
// Every numeric property is an RPN expression evaluated on demand against the
// owner's spell power and the current wave, so a chain's values track the
// game state without being rebuilt.
package spell

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/samdwyer/spellforge/internal/combat"
	"github.com/samdwyer/spellforge/internal/event"
	"github.com/samdwyer/spellforge/internal/formula"
	"github.com/samdwyer/spellforge/internal/gamedata"
	"github.com/samdwyer/spellforge/internal/geom"
	"github.com/samdwyer/spellforge/internal/lifecycle"
)

// Spell is one equipped ability, either a base spell or a modifier chain
// whose root is a base spell.
type Spell interface {
	Key() string
	GetName() string
	GetDescription() string
	GetIcon() int

	GetManaCost() (int, error)
	GetDamage() (int, error)
	GetDamageType() combat.DamageType
	GetCooldown() (time.Duration, error)

	GetProjectileTrajectory() string
	GetProjectileSpeed() (float64, error)
	GetProjectileSprite() int
	GetProjectileLifetime() (time.Duration, error)

	// Compound spell properties. Spells without the matching template
	// section return the primary projectile's values or zero.
	GetProjectileCount() (int, error)
	GetSprayAngle() (float64, error)
	GetSecondaryDamage() (int, error)
	GetSecondaryProjectile() (Projectile, error)
	GetAOERadius() (float64, error)
	GetAOEDamage() (int, error)
	GetAOEDamageType() combat.DamageType

	// IsReady reports whether the cooldown has elapsed since LastCast.
	IsReady() bool
	LastCast() time.Time
	// MarkCast records a cast of this layer at now without casting. Casters
	// use it to commit the cooldown before the cast sequence starts.
	MarkCast(now time.Time)

	IsBase() bool
	// AppliedModifiers lists the display names of every modifier in the
	// chain, innermost first.
	AppliedModifiers() []string
	Template() *gamedata.SpellTemplate
	Owner() Owner

	// Cast runs the spell's cast sequence. It may block for modifiers with
	// delays, so callers run it on the owner's lifetime handle.
	Cast(ctx context.Context, req CastRequest) error
	// OnHit handles a projectile of this spell striking target.
	OnHit(hit Hit)
}

// Owner is the caster a spell belongs to.
type Owner interface {
	GetName() string
	SpellPower() int
	Team() combat.Team
	Lifetime() *lifecycle.Handle
}

// Env holds the world collaborators spells act through. Any field may be nil:
// a nil Projectiles makes casts no-ops, a nil World evaluates at wave 0 and a
// nil Slows disables frost slows.
type Env struct {
	Projectiles combat.ProjectileSpawner
	Space       combat.SpatialQuery
	World       combat.WorldContext
	Slows       combat.SlowTracker
	Events      *event.Dispatcher
}

// Projectile is a resolved set of projectile parameters.
type Projectile struct {
	Trajectory string
	Speed      float64
	Sprite     int
	Lifetime   time.Duration
}

// CastRequest is one invocation of a cast sequence.
type CastRequest struct {
	Origin geom.Vec2
	Target geom.Vec2
	Team   combat.Team
	// Via is the outermost spell of the chain being cast. Property reads and
	// hit handling go through it so every layer's overrides apply. Layers
	// fill it in with themselves when it is nil.
	Via Spell
}

// Hit describes a projectile impact delivered to Spell.OnHit.
type Hit struct {
	Target combat.Hittable
	Impact geom.Vec2
	Team   combat.Team
	Via    Spell
}

// Cast casts s from origin toward target for team, with s as the outermost
// layer.
func Cast(ctx context.Context, s Spell, origin, target geom.Vec2, team combat.Team) error {
	return s.Cast(ctx, CastRequest{Origin: origin, Target: target, Team: team, Via: s})
}

// Chain returns the spell and everything it wraps, outermost first.
func Chain(s Spell) []Spell {
	var chain []Spell
	for s != nil {
		chain = append(chain, s)
		w, ok := s.(interface{ Inner() Spell })
		if !ok {
			break
		}
		s = w.Inner()
	}
	return chain
}

// scope is the evaluation context shared by base spells and modifiers.
type scope struct {
	key   string
	owner Owner
	env   *Env
}

func (s *scope) vars() formula.Vars {
	vars := formula.Vars{formula.VarWave: 0, formula.VarPower: 0}
	if s.env != nil && s.env.World != nil {
		vars[formula.VarWave] = float64(s.env.World.Wave())
	}
	if s.owner != nil {
		vars[formula.VarPower] = float64(s.owner.SpellPower())
	}
	return vars
}

func (s *scope) evalInt(field, expr string) (int, error) {
	v, err := formula.EvaluateInt(expr, s.vars())
	if err != nil {
		return 0, fmt.Errorf("spell %s %s: %w", s.key, field, err)
	}
	return v, nil
}

func (s *scope) evalFloat(field, expr string) (float64, error) {
	v, err := formula.EvaluateFloat(expr, s.vars())
	if err != nil {
		return 0, fmt.Errorf("spell %s %s: %w", s.key, field, err)
	}
	return v, nil
}

func (s *scope) evalSeconds(field, expr string) (time.Duration, error) {
	sec, err := s.evalFloat(field, expr)
	if err != nil {
		return 0, err
	}
	return seconds(sec), nil
}

func (s *scope) clock() clockNow {
	if s.owner != nil {
		if h := s.owner.Lifetime(); h != nil {
			return h.Clock()
		}
	}
	return realClock{}
}

// sleep waits on the owner's lifetime handle.
func (s *scope) sleep(ctx context.Context, d time.Duration) error {
	if s.owner == nil || s.owner.Lifetime() == nil {
		return lifecycle.ErrClosed
	}
	return s.owner.Lifetime().Sleep(ctx, d)
}

// deal resolves one damage packet and publishes the resulting events.
func (s *scope) deal(spellName string, team combat.Team, target combat.Hittable, impact geom.Vec2, dmg combat.Damage) combat.HitResult {
	result := combat.Resolve(team, target, dmg)
	if !result.Applied {
		return result
	}

	slog.Debug("spell hit", "spell", spellName, "target", target.GetName(), "damage", result.Dealt, "type", dmg.Type)
	if s.env == nil {
		return result
	}
	var caster string
	if s.owner != nil {
		caster = s.owner.GetName()
	}
	s.env.Events.Dispatch(event.Event{Type: event.TypeDamageDealt, Data: event.DamageDealt{
		Spell:  spellName,
		Caster: caster,
		Team:   team,
		Target: target.GetName(),
		Amount: result.Dealt,
		Type:   dmg.Type,
		Impact: impact,
	}})
	if result.Killed {
		s.env.Events.Dispatch(event.Event{Type: event.TypeEnemyKilled, Data: event.EnemyKilled{
			Spell:  spellName,
			Caster: caster,
			Target: target.GetName(),
			Impact: impact,
		}})
	}
	return result
}

type clockNow interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// castClock records the last cast time of one layer. Stamps never move it
// backwards.
type castClock struct {
	last atomic.Int64 // UnixNano, 0 when never cast
}

func (c *castClock) stamp(now time.Time) {
	n := now.UnixNano()
	for {
		cur := c.last.Load()
		if n <= cur || c.last.CompareAndSwap(cur, n) {
			return
		}
	}
}

func (c *castClock) lastCast() time.Time {
	n := c.last.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

// ready reports whether cooldown has elapsed at now. A spell that has never
// been cast is always ready.
func (c *castClock) ready(now time.Time, cooldown time.Duration) bool {
	n := c.last.Load()
	if n == 0 {
		return true
	}
	return !now.Before(time.Unix(0, n).Add(cooldown))
}

func seconds(sec float64) time.Duration {
	return time.Duration(sec * float64(time.Second))
}

func round(v float64) int {
	return int(math.Round(v))
}
