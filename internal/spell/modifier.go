package spell

import (
	"context"
	"log/slog"
	"time"

	"github.com/samdwyer/spellforge/internal/combat"
	"github.com/samdwyer/spellforge/internal/gamedata"
)

// modifier wraps an inner spell and delegates every property to it. Concrete
// modifiers embed it and override what they change.
type modifier struct {
	scope
	tmpl  *gamedata.SpellTemplate
	inner Spell
	cast  castClock

	// self is the concrete modifier embedding this struct.
	self Spell
}

func newModifier(inner Spell, tmpl *gamedata.SpellTemplate, owner Owner, env *Env) *modifier {
	return &modifier{
		scope: scope{key: tmpl.Key, owner: owner, env: env},
		tmpl:  tmpl,
		inner: inner,
	}
}

// Inner returns the wrapped spell.
func (m *modifier) Inner() Spell { return m.inner }

func (m *modifier) Key() string { return m.tmpl.Key }

func (m *modifier) Template() *gamedata.SpellTemplate { return m.tmpl }

func (m *modifier) Owner() Owner { return m.owner }

func (m *modifier) IsBase() bool { return false }

func (m *modifier) LastCast() time.Time { return m.cast.lastCast() }

func (m *modifier) MarkCast(now time.Time) { m.cast.stamp(now) }

// GetName decorates the inner name, e.g. "Arcane Bolt (damage-amplified)".
func (m *modifier) GetName() string {
	return m.inner.GetName() + " (" + m.tmpl.Name + ")"
}

func (m *modifier) GetDescription() string {
	inner := m.inner.GetDescription()
	switch {
	case m.tmpl.Description == "":
		return inner
	case inner == "":
		return m.tmpl.Description
	}
	return inner + " " + m.tmpl.Description
}

func (m *modifier) AppliedModifiers() []string {
	inner := m.inner.AppliedModifiers()
	names := make([]string, 0, len(inner)+1)
	names = append(names, inner...)
	return append(names, m.tmpl.Name)
}

func (m *modifier) GetIcon() int { return m.inner.GetIcon() }

func (m *modifier) GetManaCost() (int, error) { return m.inner.GetManaCost() }

func (m *modifier) GetDamage() (int, error) { return m.inner.GetDamage() }

func (m *modifier) GetDamageType() combat.DamageType { return m.inner.GetDamageType() }

func (m *modifier) GetCooldown() (time.Duration, error) { return m.inner.GetCooldown() }

func (m *modifier) GetProjectileTrajectory() string { return m.inner.GetProjectileTrajectory() }

func (m *modifier) GetProjectileSpeed() (float64, error) { return m.inner.GetProjectileSpeed() }

func (m *modifier) GetProjectileSprite() int { return m.inner.GetProjectileSprite() }

func (m *modifier) GetProjectileLifetime() (time.Duration, error) {
	return m.inner.GetProjectileLifetime()
}

func (m *modifier) GetProjectileCount() (int, error) { return m.inner.GetProjectileCount() }

func (m *modifier) GetSprayAngle() (float64, error) { return m.inner.GetSprayAngle() }

func (m *modifier) GetSecondaryDamage() (int, error) { return m.inner.GetSecondaryDamage() }

func (m *modifier) GetSecondaryProjectile() (Projectile, error) {
	return m.inner.GetSecondaryProjectile()
}

func (m *modifier) GetAOERadius() (float64, error) { return m.inner.GetAOERadius() }

func (m *modifier) GetAOEDamage() (int, error) { return m.inner.GetAOEDamage() }

func (m *modifier) GetAOEDamageType() combat.DamageType { return m.inner.GetAOEDamageType() }

// IsReady checks this layer's own cast time against the fully resolved
// cooldown of this layer.
func (m *modifier) IsReady() bool {
	cd, err := m.self.GetCooldown()
	if err != nil {
		slog.Error("spell cooldown unavailable", "spell", m.tmpl.Key, "error", err)
		return false
	}
	return m.cast.ready(m.clock().Now(), cd)
}

// Cast stamps this layer and casts the inner spell.
func (m *modifier) Cast(ctx context.Context, req CastRequest) error {
	req = m.begin(req)
	return m.inner.Cast(ctx, req)
}

func (m *modifier) OnHit(hit Hit) {
	m.inner.OnHit(hit)
}

// begin stamps this layer's cast time and fills in Via.
func (m *modifier) begin(req CastRequest) CastRequest {
	m.cast.stamp(m.clock().Now())
	if req.Via == nil {
		req.Via = m.self
	}
	return req
}
