package spell

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samdwyer/spellforge/internal/combat"
	"github.com/samdwyer/spellforge/internal/formula"
	"github.com/samdwyer/spellforge/internal/gamedata"
	"github.com/samdwyer/spellforge/internal/geom"
)

// Base is a plain projectile spell. Compound spells embed it and override
// Cast or OnHit.
type Base struct {
	scope
	tmpl *gamedata.SpellTemplate
	cast castClock

	// self is the outermost concrete type wrapping this Base, used when a
	// request arrives without Via.
	self Spell
}

// NewBase creates a plain projectile spell from tmpl.
func NewBase(tmpl *gamedata.SpellTemplate, owner Owner, env *Env) Spell {
	return newBase(tmpl, owner, env)
}

func newBase(tmpl *gamedata.SpellTemplate, owner Owner, env *Env) *Base {
	b := &Base{
		scope: scope{key: tmpl.Key, owner: owner, env: env},
		tmpl:  tmpl,
	}
	b.self = b
	return b
}

func (b *Base) Key() string { return b.tmpl.Key }
func (b *Base) GetName() string { return b.tmpl.Name }
func (b *Base) GetDescription() string { return b.tmpl.Description }
func (b *Base) GetIcon() int { return b.tmpl.Icon }
func (b *Base) GetProjectileTrajectory() string { return b.tmpl.Projectile.Trajectory }
func (b *Base) GetProjectileSprite() int { return b.tmpl.Projectile.Sprite }
func (b *Base) IsBase() bool { return true }
func (b *Base) AppliedModifiers() []string { return nil }
func (b *Base) Template() *gamedata.SpellTemplate { return b.tmpl }
func (b *Base) Owner() Owner { return b.owner }
func (b *Base) LastCast() time.Time { return b.cast.lastCast() }

func (b *Base) MarkCast(now time.Time) { b.cast.stamp(now) }
func (b *Base) GetDamageType() combat.DamageType { return combat.ParseDamageType(b.tmpl.Damage.Type) }

func (b *Base) GetManaCost() (int, error) {
	return b.evalInt("mana_cost", b.tmpl.ManaCost)
}

func (b *Base) GetDamage() (int, error) {
	return b.evalInt("damage", b.tmpl.Damage.Amount)
}

func (b *Base) GetCooldown() (time.Duration, error) {
	return b.evalSeconds("cooldown", b.tmpl.Cooldown)
}

func (b *Base) GetProjectileSpeed() (float64, error) {
	return b.evalFloat("projectile.speed", b.tmpl.Projectile.Speed)
}

func (b *Base) GetProjectileLifetime() (time.Duration, error) {
	if b.tmpl.Projectile.Lifetime == "" {
		return 0, nil
	}
	return b.evalSeconds("projectile.lifetime", b.tmpl.Projectile.Lifetime)
}

func (b *Base) GetProjectileCount() (int, error) {
	return b.evalInt("N", b.tmpl.Count)
}

func (b *Base) GetSprayAngle() (float64, error) {
	return b.evalFloat("spray", b.tmpl.Spray)
}

// GetSecondaryDamage evaluates secondary_damage against this spell's own
// damage. An omitted expression falls back to that damage. Blast bursts use
// the whole chain's damage instead, see secondaryDamage.
func (b *Base) GetSecondaryDamage() (int, error) {
	primary, err := b.self.GetDamage()
	if err != nil {
		return 0, err
	}
	return b.secondaryDamage(primary)
}

// secondaryDamage evaluates secondary_damage with primary bound to "base".
func (b *Base) secondaryDamage(primary int) (int, error) {
	vars := b.vars()
	vars[formula.VarBase] = float64(primary)
	v, err := formula.EvaluateInt(b.tmpl.SecondaryDamage, vars)
	if err != nil {
		return 0, fmt.Errorf("spell %s secondary_damage: %w", b.tmpl.Key, err)
	}
	return v, nil
}

func (b *Base) GetSecondaryProjectile() (Projectile, error) {
	def := b.tmpl.SecondaryProjectile
	if def == nil {
		def = &b.tmpl.Projectile
	}
	p := Projectile{Trajectory: def.Trajectory, Sprite: def.Sprite}
	var err error
	if p.Speed, err = b.evalFloat("secondary_projectile.speed", def.Speed); err != nil {
		return Projectile{}, err
	}
	if def.Lifetime != "" {
		if p.Lifetime, err = b.evalSeconds("secondary_projectile.lifetime", def.Lifetime); err != nil {
			return Projectile{}, err
		}
	}
	return p, nil
}

func (b *Base) GetAOERadius() (float64, error) {
	if b.tmpl.AOE == nil {
		return 0, nil
	}
	return b.evalFloat("aoe_damage.radius", b.tmpl.AOE.Radius)
}

func (b *Base) GetAOEDamage() (int, error) {
	if b.tmpl.AOE == nil {
		return 0, nil
	}
	return b.evalInt("aoe_damage.amount", b.tmpl.AOE.Amount)
}

func (b *Base) GetAOEDamageType() combat.DamageType {
	if b.tmpl.AOE == nil {
		return b.GetDamageType()
	}
	return combat.ParseDamageType(b.tmpl.AOE.Type)
}

func (b *Base) IsReady() bool {
	cd, err := b.self.GetCooldown()
	if err != nil {
		slog.Error("spell cooldown unavailable", "spell", b.tmpl.Key, "error", err)
		return false
	}
	return b.cast.ready(b.clock().Now(), cd)
}

// Cast stamps the cast time and fires one projectile toward req.Target.
func (b *Base) Cast(ctx context.Context, req CastRequest) error {
	b.stamp()
	via := b.via(req.Via)
	return b.launch(via, req, req.Target.Sub(req.Origin))
}

// OnHit deals the chain's damage to the struck target.
func (b *Base) OnHit(hit Hit) {
	via := b.via(hit.Via)
	dmg, err := via.GetDamage()
	if err != nil {
		slog.Error("spell damage unavailable", "spell", via.GetName(), "error", err)
		return
	}
	b.deal(via.GetName(), hit.Team, hit.Target, hit.Impact, combat.Damage{Amount: dmg, Type: via.GetDamageType()})
}

func (b *Base) stamp() {
	b.cast.stamp(b.clock().Now())
}

func (b *Base) via(v Spell) Spell {
	if v == nil {
		return b.self
	}
	return v
}

// launch requests one primary projectile from the projectile system.
func (b *Base) launch(via Spell, req CastRequest, dir geom.Vec2) error {
	if b.env == nil || b.env.Projectiles == nil {
		slog.Debug("no projectile system, cast has no effect", "spell", via.GetName())
		return nil
	}
	speed, err := via.GetProjectileSpeed()
	if err != nil {
		return err
	}
	lifetime, err := via.GetProjectileLifetime()
	if err != nil {
		return err
	}

	team := req.Team
	b.env.Projectiles.CreateProjectile(combat.ProjectileSpec{
		Sprite:     via.GetProjectileSprite(),
		Trajectory: via.GetProjectileTrajectory(),
		Origin:     req.Origin,
		Direction:  dir,
		Speed:      speed,
		Lifetime:   lifetime,
		Team:       team,
		OnHit: func(target combat.Hittable, impact geom.Vec2) {
			via.OnHit(Hit{Target: target, Impact: impact, Team: team, Via: via})
		},
	})
	return nil
}
