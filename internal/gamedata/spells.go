package gamedata

import (
	"errors"
	"fmt"

	"github.com/samdwyer/spellforge/internal/formula"
)

// =============================================================================
// SPELL TEMPLATES
// =============================================================================
//
// spells.json is a keyed object. Each entry is either a base spell (fires a
// projectile) or a modifier (wraps another spell and changes some of its
// properties). Every numeric field is an RPN expression evaluated at cast time
// against {wave, power}, so "25 power 5 / +" scales with spell power.
//
//   "arcane_bolt": {
//     "name": "Arcane Bolt",
//     "type": "base",
//     "mana_cost": "10",
//     "damage": { "amount": "25 power 5 / +", "type": "arcane" },
//     "cooldown": "0.75",
//     "projectile": { "trajectory": "straight", "speed": "8", "sprite": 0 }
//   }
//
// "behavior" selects the constructor used to build the spell; it defaults to
// the entry's key, so custom entries can reuse an existing behavior
// ("behavior": "arcane_blast") with different numbers.

// SpellType discriminates base spells from modifiers.
type SpellType string

const (
	SpellTypeBase     SpellType = "base"
	SpellTypeModifier SpellType = "modifier"
)

// DamageDef is the damage a projectile deals on hit.
type DamageDef struct {
	Amount string `json:"amount"`
	Type   string `json:"type"`
}

// ProjectileDef describes the projectile a spell fires.
type ProjectileDef struct {
	Trajectory string `json:"trajectory"`
	Speed      string `json:"speed"`
	Sprite     int    `json:"sprite"`
	Lifetime   string `json:"lifetime,omitempty"` // Seconds; empty means no limit
}

// AOEDef is area damage applied around a projectile's impact point.
type AOEDef struct {
	Amount        string `json:"amount"`
	Type          string `json:"type"`
	Radius        string `json:"radius"`
	IncludeTarget bool   `json:"include_target"`
}

// SpellTemplate is one entry of spells.json.
type SpellTemplate struct {
	Key         string    `json:"-"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        int       `json:"icon"`
	Color       string    `json:"color,omitempty"` // Hex color for the HUD
	Type        SpellType `json:"type"`
	Behavior    string    `json:"behavior,omitempty"`

	// Base spell fields
	ManaCost            string         `json:"mana_cost,omitempty"`
	Cooldown            string         `json:"cooldown,omitempty"` // Seconds
	Damage              DamageDef      `json:"damage"`
	Projectile          ProjectileDef  `json:"projectile"`
	SecondaryDamage     string         `json:"secondary_damage,omitempty"`
	SecondaryProjectile *ProjectileDef `json:"secondary_projectile,omitempty"`
	Count               string         `json:"N,omitempty"`
	Spray               string         `json:"spray,omitempty"` // Degrees
	AOE                 *AOEDef        `json:"aoe_damage,omitempty"`

	// Modifier fields
	DamageMultiplier     string `json:"damage_multiplier,omitempty"`
	ManaMultiplier       string `json:"mana_multiplier,omitempty"`
	ManaAdder            string `json:"mana_adder,omitempty"`
	SpeedMultiplier      string `json:"speed_multiplier,omitempty"`
	CooldownMultiplier   string `json:"cooldown_multiplier,omitempty"`
	Delay                string `json:"delay,omitempty"` // Seconds
	Angle                string `json:"angle,omitempty"` // Degrees
	ProjectileTrajectory string `json:"projectile_trajectory,omitempty"`
	SlowFactor           string `json:"slow_factor,omitempty"`
	SlowDuration         string `json:"slow_duration,omitempty"` // Seconds

	// Until names the trigger that ends a timed modifier. It is carried for
	// the trigger subsystem and not interpreted here.
	Until string `json:"until,omitempty"`
}

// Base spell defaults applied when a field is omitted.
const (
	DefaultManaCost   = "10"
	DefaultDamage     = "10"
	DefaultDamageType = "arcane"
	DefaultCooldown   = "1"
	DefaultSpeed      = "10"
	DefaultTrajectory = "straight"
	DefaultCount      = "1"
	DefaultSpray      = "0"
	DefaultAOERadius  = "1"
	DefaultAOEDamage  = "0"
)

// Modifier defaults applied when a field is omitted.
const (
	DefaultMultiplier   = "1"
	DefaultAdder        = "0"
	DefaultDelay        = "0.5"
	DefaultSplitAngle   = "10"
	DefaultSlowFactor   = "0.3"
	DefaultSlowDuration = "3"
)

// IsBase reports whether the template is a base spell.
func (t *SpellTemplate) IsBase() bool { return t.Type == SpellTypeBase }

// IsModifier reports whether the template wraps another spell.
func (t *SpellTemplate) IsModifier() bool { return t.Type == SpellTypeModifier }

// normalize fills the key, discriminator, behavior and omitted defaults.
func (t *SpellTemplate) normalize(key string) {
	t.Key = key
	if t.Name == "" {
		t.Name = key
	}
	if t.Behavior == "" {
		t.Behavior = key
	}
	if t.Type == "" {
		// Untyped entries are bases when they describe a projectile.
		if t.Projectile.Speed != "" || t.Projectile.Trajectory != "" {
			t.Type = SpellTypeBase
		} else {
			t.Type = SpellTypeModifier
		}
	}

	if t.IsBase() {
		t.ManaCost = or(t.ManaCost, DefaultManaCost)
		t.Cooldown = or(t.Cooldown, DefaultCooldown)
		t.Damage.Amount = or(t.Damage.Amount, DefaultDamage)
		t.Damage.Type = or(t.Damage.Type, DefaultDamageType)
		t.Projectile.Trajectory = or(t.Projectile.Trajectory, DefaultTrajectory)
		t.Projectile.Speed = or(t.Projectile.Speed, DefaultSpeed)
		t.Count = or(t.Count, DefaultCount)
		t.Spray = or(t.Spray, DefaultSpray)
		if t.SecondaryProjectile != nil {
			t.SecondaryProjectile.Trajectory = or(t.SecondaryProjectile.Trajectory, DefaultTrajectory)
			t.SecondaryProjectile.Speed = or(t.SecondaryProjectile.Speed, DefaultSpeed)
		}
		if t.AOE != nil {
			t.AOE.Amount = or(t.AOE.Amount, DefaultAOEDamage)
			t.AOE.Radius = or(t.AOE.Radius, DefaultAOERadius)
			t.AOE.Type = or(t.AOE.Type, t.Damage.Type)
		}
		return
	}

	t.DamageMultiplier = or(t.DamageMultiplier, DefaultMultiplier)
	t.ManaMultiplier = or(t.ManaMultiplier, DefaultMultiplier)
	t.SpeedMultiplier = or(t.SpeedMultiplier, DefaultMultiplier)
	t.CooldownMultiplier = or(t.CooldownMultiplier, DefaultMultiplier)
	t.ManaAdder = or(t.ManaAdder, DefaultAdder)
	t.Delay = or(t.Delay, DefaultDelay)
	t.Angle = or(t.Angle, DefaultSplitAngle)
	t.SlowFactor = or(t.SlowFactor, DefaultSlowFactor)
	t.SlowDuration = or(t.SlowDuration, DefaultSlowDuration)
}

// Expressions returns every RPN field of the template keyed by field name.
// Empty fields are left out.
func (t *SpellTemplate) Expressions() map[string]string {
	fields := map[string]string{
		"mana_cost":           t.ManaCost,
		"cooldown":            t.Cooldown,
		"damage.amount":       t.Damage.Amount,
		"projectile.speed":    t.Projectile.Speed,
		"projectile.lifetime": t.Projectile.Lifetime,
		"secondary_damage":    t.SecondaryDamage,
		"N":                   t.Count,
		"spray":               t.Spray,
		"damage_multiplier":   t.DamageMultiplier,
		"mana_multiplier":     t.ManaMultiplier,
		"mana_adder":          t.ManaAdder,
		"speed_multiplier":    t.SpeedMultiplier,
		"cooldown_multiplier": t.CooldownMultiplier,
		"delay":               t.Delay,
		"angle":               t.Angle,
		"slow_factor":         t.SlowFactor,
		"slow_duration":       t.SlowDuration,
	}
	if p := t.SecondaryProjectile; p != nil {
		fields["secondary_projectile.speed"] = p.Speed
		fields["secondary_projectile.lifetime"] = p.Lifetime
	}
	if a := t.AOE; a != nil {
		fields["aoe_damage.amount"] = a.Amount
		fields["aoe_damage.radius"] = a.Radius
	}
	for k, v := range fields {
		if v == "" {
			delete(fields, k)
		}
	}
	return fields
}

// Validate evaluates every expression of the template against vars and
// returns all formula errors joined together.
func (t *SpellTemplate) Validate(vars formula.Vars) error {
	var errs []error
	for field, expr := range t.Expressions() {
		if _, err := formula.EvaluateFloat(expr, vars); err != nil {
			errs = append(errs, fmt.Errorf("spell %s field %s: %w", t.Key, field, err))
		}
	}
	return errors.Join(errs...)
}

func or(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
