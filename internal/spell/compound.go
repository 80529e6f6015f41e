package spell

import (
	"context"
	"log/slog"

	"github.com/samdwyer/spellforge/internal/combat"
	"github.com/samdwyer/spellforge/internal/gamedata"
	"github.com/samdwyer/spellforge/internal/geom"
)

// Blast is a projectile that bursts into N secondary projectiles, spread
// evenly around a full circle, when it strikes a hostile target.
type Blast struct {
	*Base
}

// NewBlast creates a Blast from tmpl.
func NewBlast(tmpl *gamedata.SpellTemplate, owner Owner, env *Env) Spell {
	b := &Blast{Base: newBase(tmpl, owner, env)}
	b.self = b
	return b
}

func (b *Blast) OnHit(hit Hit) {
	if !combat.IsHostile(hit.Team, hit.Target) {
		return
	}
	b.Base.OnHit(hit)

	via := b.via(hit.Via)
	if err := b.burst(via, hit); err != nil {
		slog.Error("blast secondaries failed", "spell", via.GetName(), "error", err)
	}
}

func (b *Blast) burst(via Spell, hit Hit) error {
	if b.env == nil || b.env.Projectiles == nil {
		return nil
	}
	n, err := via.GetProjectileCount()
	if err != nil {
		return err
	}
	if n <= 0 {
		return nil
	}
	secondary, err := via.GetSecondaryProjectile()
	if err != nil {
		return err
	}
	primary, err := via.GetDamage()
	if err != nil {
		return err
	}
	amount, err := b.secondaryDamage(primary)
	if err != nil {
		return err
	}

	name := via.GetName()
	dmg := combat.Damage{Amount: amount, Type: via.GetDamageType()}
	team := hit.Team
	for i := 0; i < n; i++ {
		b.env.Projectiles.CreateProjectile(combat.ProjectileSpec{
			Sprite:     secondary.Sprite,
			Trajectory: secondary.Trajectory,
			Origin:     hit.Impact,
			Direction:  geom.FromAngle(float64(i) * 360 / float64(n)),
			Speed:      secondary.Speed,
			Lifetime:   secondary.Lifetime,
			Team:       team,
			OnHit: func(target combat.Hittable, impact geom.Vec2) {
				b.deal(name, team, target, impact, dmg)
			},
		})
	}
	return nil
}

// Spray fires N projectiles spread evenly across the spray angle, centered
// on the aim direction.
type Spray struct {
	*Base
}

// NewSpray creates a Spray from tmpl.
func NewSpray(tmpl *gamedata.SpellTemplate, owner Owner, env *Env) Spell {
	s := &Spray{Base: newBase(tmpl, owner, env)}
	s.self = s
	return s
}

func (s *Spray) Cast(ctx context.Context, req CastRequest) error {
	s.stamp()
	via := s.via(req.Via)

	n, err := via.GetProjectileCount()
	if err != nil {
		return err
	}
	spread, err := via.GetSprayAngle()
	if err != nil {
		return err
	}

	dir := req.Target.Sub(req.Origin)
	for _, offset := range sprayOffsets(n, spread) {
		if err := s.launch(via, req, dir.Rotate(offset)); err != nil {
			return err
		}
	}
	return nil
}

// sprayOffsets returns the angle offsets of n projectiles spread across
// spread degrees. A single projectile flies straight and a count below one
// fires nothing.
func sprayOffsets(n int, spread float64) []float64 {
	if n < 1 {
		return nil
	}
	if n == 1 {
		return []float64{0}
	}
	offsets := make([]float64, n)
	for i := range offsets {
		offsets[i] = -spread/2 + float64(i)*spread/float64(n-1)
	}
	return offsets
}

// Nova is a projectile that also damages every hostile hittable within its
// AOE radius of the impact point.
type Nova struct {
	*Base
}

// NewNova creates a Nova from tmpl.
func NewNova(tmpl *gamedata.SpellTemplate, owner Owner, env *Env) Spell {
	n := &Nova{Base: newBase(tmpl, owner, env)}
	n.self = n
	return n
}

func (n *Nova) OnHit(hit Hit) {
	if !combat.IsHostile(hit.Team, hit.Target) {
		return
	}
	n.Base.OnHit(hit)

	via := n.via(hit.Via)
	if err := n.explode(via, hit); err != nil {
		slog.Error("nova explosion failed", "spell", via.GetName(), "error", err)
	}
}

func (n *Nova) explode(via Spell, hit Hit) error {
	if n.env == nil || n.env.Space == nil {
		return nil
	}
	radius, err := via.GetAOERadius()
	if err != nil {
		return err
	}
	amount, err := via.GetAOEDamage()
	if err != nil {
		return err
	}

	includeTarget := n.tmpl.AOE != nil && n.tmpl.AOE.IncludeTarget
	dmg := combat.Damage{Amount: amount, Type: via.GetAOEDamageType()}
	name := via.GetName()
	for _, h := range n.env.Space.HittablesWithin(hit.Impact, radius) {
		if h == hit.Target && !includeTarget {
			continue
		}
		n.deal(name, hit.Team, h, hit.Impact, dmg)
	}
	return nil
}
