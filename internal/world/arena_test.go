package world

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samdwyer/spellforge/internal/combat"
	"github.com/samdwyer/spellforge/internal/entity"
	"github.com/samdwyer/spellforge/internal/geom"
)

type hitRecord struct {
	target combat.Hittable
	impact geom.Vec2
}

func recordHits(hits *[]hitRecord) combat.HitFunc {
	return func(target combat.Hittable, impact geom.Vec2) {
		*hits = append(*hits, hitRecord{target, impact})
	}
}

func TestStraightProjectileHitsTarget(t *testing.T) {
	a := NewArena(DefaultWidth, DefaultHeight, 0.5)
	dummy := entity.NewEnemy("Dummy", geom.V(5, 2), 10, 0)
	a.AddBody(dummy)

	var hits []hitRecord
	a.CreateProjectile(combat.ProjectileSpec{
		Trajectory: TrajectoryStraight,
		Origin:     geom.V(0, 2),
		Direction:  geom.V(10, 0),
		Speed:      5,
		Team:       combat.TeamPlayer,
		OnHit:      recordHits(&hits),
	})

	stats := a.Step(context.Background(), 500*time.Millisecond)
	assert.Equal(t, StepStats{Moved: 1}, stats)
	require.Len(t, a.Projectiles(), 1)
	assert.True(t, a.Projectiles()[0].Position.ApproxEqual(geom.V(2.5, 2), 1e-9))

	stats = a.Step(context.Background(), 500*time.Millisecond)
	assert.Equal(t, 1, stats.Hits)
	require.Len(t, hits, 1)
	assert.Same(t, dummy, hits[0].target)
	assert.True(t, hits[0].impact.ApproxEqual(geom.V(5, 2), 1e-9))
	assert.Empty(t, a.Projectiles())
}

func TestProjectileIgnoresAllies(t *testing.T) {
	a := NewArena(DefaultWidth, DefaultHeight, 1)
	ally := entity.NewEnemy("Dummy", geom.V(1, 0), 10, 0)
	a.AddBody(ally)

	var hits []hitRecord
	a.CreateProjectile(combat.ProjectileSpec{
		Origin:    geom.V(0, 0),
		Direction: geom.V(1, 0),
		Speed:     1,
		Team:      combat.TeamEnemy,
		OnHit:     recordHits(&hits),
	})
	a.Step(context.Background(), time.Second)
	assert.Empty(t, hits)
	assert.Len(t, a.Projectiles(), 1)
}

func TestProjectileExpiry(t *testing.T) {
	a := NewArena(10, 10, 0.5)

	a.CreateProjectile(combat.ProjectileSpec{Origin: geom.V(5, 5), Direction: geom.V(0, 1), Speed: 0.1, Lifetime: time.Second})
	a.CreateProjectile(combat.ProjectileSpec{Origin: geom.V(9, 5), Direction: geom.V(1, 0), Speed: 4})

	stats := a.Step(context.Background(), 500*time.Millisecond)
	assert.Equal(t, 1, stats.Expired, "left the arena")
	assert.Len(t, a.Projectiles(), 1)

	stats = a.Step(context.Background(), 500*time.Millisecond)
	assert.Equal(t, 1, stats.Expired, "lifetime elapsed")
	assert.Empty(t, a.Projectiles())
}

func TestHomingProjectileTurnsTowardTarget(t *testing.T) {
	a := NewArena(DefaultWidth, DefaultHeight, 0.5)
	a.AddBody(entity.NewEnemy("Dummy", geom.V(10, 10), 10, 0))

	a.CreateProjectile(combat.ProjectileSpec{
		Trajectory: TrajectoryHoming,
		Origin:     geom.V(10, 0),
		Direction:  geom.V(1, 0),
		Speed:      1,
		Team:       combat.TeamPlayer,
	})
	a.Step(context.Background(), time.Second)

	p := a.Projectiles()[0]
	assert.True(t, p.Direction.ApproxEqual(geom.V(0, 1), 1e-9), "direction %v", p.Direction)
	assert.True(t, p.Position.ApproxEqual(geom.V(10, 1), 1e-9))
}

func TestSpiralingProjectileTurns(t *testing.T) {
	a := NewArena(DefaultWidth, DefaultHeight, 0.5)
	a.CreateProjectile(combat.ProjectileSpec{
		Trajectory: TrajectorySpiraling,
		Origin:     geom.V(40, 12),
		Direction:  geom.V(1, 0),
		Speed:      1,
	})
	a.Step(context.Background(), 100*time.Millisecond)

	p := a.Projectiles()[0]
	assert.True(t, p.Direction.ApproxEqual(geom.FromAngle(27), 1e-9), "direction %v", p.Direction)
}

func TestHittablesWithin(t *testing.T) {
	a := NewArena(DefaultWidth, DefaultHeight, 0.5)
	near := entity.NewEnemy("Near", geom.V(1, 1), 10, 0)
	far := entity.NewEnemy("Far", geom.V(8, 8), 10, 0)
	dead := entity.NewEnemy("Dead", geom.V(0, 1), 1, 0)
	dead.Damage(combat.Damage{Amount: 1})
	a.AddBody(near)
	a.AddBody(far)
	a.AddBody(dead)

	found := a.HittablesWithin(geom.V(0, 0), 2)
	require.Len(t, found, 1)
	assert.Same(t, near, found[0])

	assert.Equal(t, 1, a.PruneDead())
	assert.Len(t, a.Bodies(), 2)
}

func TestHitCallbackCanSpawnProjectiles(t *testing.T) {
	a := NewArena(DefaultWidth, DefaultHeight, 0.5)
	a.AddBody(entity.NewEnemy("Dummy", geom.V(1, 0), 10, 0))

	a.CreateProjectile(combat.ProjectileSpec{
		Origin:    geom.V(0, 0),
		Direction: geom.V(1, 0),
		Speed:     1,
		Team:      combat.TeamPlayer,
		OnHit: func(_ combat.Hittable, impact geom.Vec2) {
			a.CreateProjectile(combat.ProjectileSpec{Origin: impact, Direction: geom.V(0, 1), Speed: 1})
			a.HittablesWithin(impact, 3)
		},
	})

	stats := a.Step(context.Background(), time.Second)
	assert.Equal(t, 1, stats.Hits)
	assert.Len(t, a.Projectiles(), 1)
}

func TestProjectileHandlesAreUnique(t *testing.T) {
	a := NewArena(DefaultWidth, DefaultHeight, 0.5)
	seen := make(map[combat.ProjectileHandle]bool)
	for i := 0; i < 100; i++ {
		h := a.CreateProjectile(combat.ProjectileSpec{Origin: geom.V(1, 1)})
		if seen[h] {
			t.Fatalf("Duplicate projectile handle %q", h)
		}
		seen[h] = true
	}
}

func TestArenaTracksItsOwnSlows(t *testing.T) {
	a, b := NewArena(DefaultWidth, DefaultHeight, 1), NewArena(DefaultWidth, DefaultHeight, 1)
	zombie := entity.NewEnemy("Zombie", geom.V(3, 3), 10, 4)

	release := a.Slow(zombie, 0.5)
	assert.Equal(t, 2.0, zombie.GetSpeed())

	b.Slow(zombie, 0.5)()
	assert.Equal(t, 2.0, zombie.GetSpeed(), "another arena's slow sees the slowed speed as its own start")

	release()
	assert.Equal(t, 4.0, zombie.GetSpeed())
}
