// Package world provides the arena spells are cast into: a bounded plane
// holding targets and in-flight projectiles.
package world

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samdwyer/spellforge/internal/combat"
	"github.com/samdwyer/spellforge/internal/geom"
	"github.com/samdwyer/spellforge/internal/telemetry"
)

// Default arena dimensions in world units.
const (
	DefaultWidth     = 80
	DefaultHeight    = 24
	DefaultHitRadius = 0.75
)

// Trajectory kinds understood by the arena. Anything else flies straight.
const (
	TrajectoryStraight  = "straight"
	TrajectoryHoming    = "homing"
	TrajectorySpiraling = "spiraling"
)

// spiralRate is how fast a spiraling projectile turns, in degrees per second.
const spiralRate = 270.0

// Body is a hittable that occupies a point in the arena.
type Body interface {
	combat.Hittable
	combat.Positioned
}

// Projectile is a read-only view of one projectile in flight.
type Projectile struct {
	Handle     combat.ProjectileHandle
	Position   geom.Vec2
	Direction  geom.Vec2
	Sprite     int
	Trajectory string
	Team       combat.Team
}

type projectile struct {
	handle combat.ProjectileHandle
	spec   combat.ProjectileSpec
	pos    geom.Vec2
	dir    geom.Vec2 // unit vector
	age    time.Duration
}

// StepStats summarizes one Step.
type StepStats struct {
	Moved   int
	Hits    int
	Expired int
}

type pendingHit struct {
	onHit  combat.HitFunc
	target combat.Hittable
	impact geom.Vec2
}

// Arena is the projectile system and spatial index spells act through. It is
// safe for concurrent use; hit callbacks run outside its lock.
type Arena struct {
	Width, Height float64
	HitRadius     float64

	mu          sync.Mutex
	bodies      []Body
	projectiles map[combat.ProjectileHandle]*projectile
	order       []combat.ProjectileHandle

	slows *combat.SlowTable
}

// NewArena creates an empty arena of the given size.
func NewArena(width, height, hitRadius float64) *Arena {
	if hitRadius <= 0 {
		hitRadius = DefaultHitRadius
	}
	return &Arena{
		Width:       width,
		Height:      height,
		HitRadius:   hitRadius,
		projectiles: make(map[combat.ProjectileHandle]*projectile),
		slows:       combat.NewSlowTable(),
	}
}

// Slow applies a movement slow to target. See combat.SlowTracker.
func (a *Arena) Slow(target combat.Slowable, factor float64) func() {
	return a.slows.Slow(target, factor)
}

// AddBody places b in the arena.
func (a *Arena) AddBody(b Body) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.bodies = append(a.bodies, b)
}

// Bodies returns the bodies in the arena, dead ones included until pruned.
func (a *Arena) Bodies() []Body {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Body, len(a.bodies))
	copy(out, a.bodies)
	return out
}

// PruneDead removes dead bodies and returns how many were removed.
func (a *Arena) PruneDead() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	alive := a.bodies[:0]
	for _, b := range a.bodies {
		if b.IsAlive() {
			alive = append(alive, b)
		}
	}
	removed := len(a.bodies) - len(alive)
	clear(a.bodies[len(alive):])
	a.bodies = alive
	return removed
}

// CreateProjectile registers a projectile and returns its handle. A zero
// direction fires along +X.
func (a *Arena) CreateProjectile(spec combat.ProjectileSpec) combat.ProjectileHandle {
	dir := spec.Direction.Normalized()
	if dir.IsZero() {
		dir = geom.V(1, 0)
	}
	p := &projectile{
		handle: combat.ProjectileHandle(uuid.NewString()),
		spec:   spec,
		pos:    spec.Origin,
		dir:    dir,
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.projectiles[p.handle] = p
	a.order = append(a.order, p.handle)
	return p.handle
}

// Projectiles returns a snapshot of every projectile in flight, oldest first.
func (a *Arena) Projectiles() []Projectile {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Projectile, 0, len(a.order))
	for _, h := range a.order {
		p := a.projectiles[h]
		out = append(out, Projectile{
			Handle:     p.handle,
			Position:   p.pos,
			Direction:  p.dir,
			Sprite:     p.spec.Sprite,
			Trajectory: p.spec.Trajectory,
			Team:       p.spec.Team,
		})
	}
	return out
}

// HittablesWithin returns the living bodies within radius of center.
func (a *Arena) HittablesWithin(center geom.Vec2, radius float64) []combat.Hittable {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []combat.Hittable
	for _, b := range a.bodies {
		if b.IsAlive() && b.Position().Dist(center) <= radius {
			out = append(out, b)
		}
	}
	return out
}

// Step advances every projectile by dt, resolving collisions and expiry.
// Projectiles spawned by hit callbacks during the step move from the next
// step on.
func (a *Arena) Step(ctx context.Context, dt time.Duration) StepStats {
	_, span := telemetry.Tracer("world").Start(ctx, "arena.step")
	defer span.End()

	var stats StepStats
	var hits []pendingHit

	a.mu.Lock()
	order := a.order[:0]
	for _, h := range a.order {
		p := a.projectiles[h]
		a.advance(p, dt)
		stats.Moved++

		if target := a.collide(p); target != nil {
			hits = append(hits, pendingHit{onHit: p.spec.OnHit, target: target, impact: p.pos})
			delete(a.projectiles, h)
			continue
		}
		if a.expired(p) {
			stats.Expired++
			delete(a.projectiles, h)
			continue
		}
		order = append(order, h)
	}
	clear(a.order[len(order):])
	a.order = order
	a.mu.Unlock()

	for _, hit := range hits {
		if hit.onHit != nil {
			hit.onHit(hit.target, hit.impact)
		}
	}
	stats.Hits = len(hits)

	span.SetAttributes(
		attribute.Int("arena.moved", stats.Moved),
		attribute.Int("arena.hits", stats.Hits),
		attribute.Int("arena.expired", stats.Expired),
	)
	return stats
}

func (a *Arena) advance(p *projectile, dt time.Duration) {
	sec := dt.Seconds()
	p.age += dt

	switch p.spec.Trajectory {
	case TrajectoryHoming:
		if target := a.nearestHostile(p); target != nil {
			if dir := target.Position().Sub(p.pos).Normalized(); !dir.IsZero() {
				p.dir = dir
			}
		}
	case TrajectorySpiraling:
		p.dir = p.dir.Rotate(spiralRate * sec).Normalized()
	}
	p.pos = p.pos.Add(p.dir.Scale(p.spec.Speed * sec))
}

// collide returns the closest hostile body within the hit radius of p.
func (a *Arena) collide(p *projectile) Body {
	var hit Body
	best := a.HitRadius
	for _, b := range a.bodies {
		if !combat.IsHostile(p.spec.Team, b) {
			continue
		}
		if d := b.Position().Dist(p.pos); d <= best {
			hit, best = b, d
		}
	}
	return hit
}

func (a *Arena) nearestHostile(p *projectile) Body {
	var nearest Body
	best := -1.0
	for _, b := range a.bodies {
		if !combat.IsHostile(p.spec.Team, b) {
			continue
		}
		if d := b.Position().Dist(p.pos); best < 0 || d < best {
			nearest, best = b, d
		}
	}
	return nearest
}

func (a *Arena) expired(p *projectile) bool {
	if p.spec.Lifetime > 0 && p.age >= p.spec.Lifetime {
		return true
	}
	return p.pos.X < 0 || p.pos.Y < 0 || p.pos.X > a.Width || p.pos.Y > a.Height
}

var (
	_ combat.ProjectileSpawner = (*Arena)(nil)
	_ combat.SpatialQuery      = (*Arena)(nil)
)
