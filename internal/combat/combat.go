// Package combat defines the collaborators the spell engine talks to: things
// that can be hit, the projectile system, spatial queries and the wave
// context.
package combat

import (
	"log/slog"
	"strings"
	"time"

	"github.com/samdwyer/spellforge/internal/geom"
)

// Team identifies which side an entity fights for. Spells never damage
// their own team.
type Team int

const (
	TeamNeutral Team = iota
	TeamPlayer
	TeamEnemy
)

// String returns a human-readable team name.
func (t Team) String() string {
	switch t {
	case TeamPlayer:
		return "player"
	case TeamEnemy:
		return "enemy"
	default:
		return "neutral"
	}
}

// DamageType is the element a hit deals.
type DamageType string

const (
	DamageArcane   DamageType = "arcane"
	DamagePhysical DamageType = "physical"
	DamageFire     DamageType = "fire"
	DamageIce      DamageType = "ice"
	DamageDark     DamageType = "dark"
	DamageLight    DamageType = "light"
)

// DefaultDamageType is used when a template names an unknown element.
const DefaultDamageType = DamageArcane

// ParseDamageType maps a template string to a DamageType. Unknown or empty
// names fall back to DefaultDamageType.
func ParseDamageType(s string) DamageType {
	switch dt := DamageType(strings.ToLower(strings.TrimSpace(s))); dt {
	case DamageArcane, DamagePhysical, DamageFire, DamageIce, DamageDark, DamageLight:
		return dt
	case "":
		return DefaultDamageType
	default:
		slog.Warn("unknown damage type, using default", "type", s, "default", DefaultDamageType)
		return DefaultDamageType
	}
}

// Damage is one packet of damage delivered to a Hittable.
type Damage struct {
	Amount int
	Type   DamageType
}

// Hittable is anything a spell can damage.
type Hittable interface {
	GetName() string
	GetTeam() Team
	IsAlive() bool
	// Damage applies the packet and returns the health actually removed.
	Damage(d Damage) int
}

// Slowable is a Hittable whose movement speed can be changed by effects.
type Slowable interface {
	Hittable
	GetSpeed() float64
	SetSpeed(speed float64)
}

// Positioned is implemented by hittables that occupy a point in the world.
type Positioned interface {
	Position() geom.Vec2
}

// HitFunc is called by the projectile system when a projectile collides with
// a hittable that is not on the caster's team.
type HitFunc func(target Hittable, impact geom.Vec2)

// ProjectileSpec describes one projectile spawn request.
type ProjectileSpec struct {
	Sprite     int
	Trajectory string
	Origin     geom.Vec2
	Direction  geom.Vec2
	Speed      float64
	// Lifetime of zero means the projectile lives until it hits something
	// or leaves the world.
	Lifetime time.Duration
	Team     Team
	OnHit    HitFunc
}

// ProjectileHandle identifies a spawned projectile.
type ProjectileHandle string

// ProjectileSpawner is the projectile system.
type ProjectileSpawner interface {
	CreateProjectile(spec ProjectileSpec) ProjectileHandle
}

// SpatialQuery finds hittables near a point.
type SpatialQuery interface {
	HittablesWithin(center geom.Vec2, radius float64) []Hittable
}

// WorldContext is the read-only game state formulas depend on.
type WorldContext interface {
	Wave() int
}

// FixedWave is a WorldContext pinned to a single wave number.
type FixedWave int

// Wave returns the pinned wave number.
func (w FixedWave) Wave() int { return int(w) }
