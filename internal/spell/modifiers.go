package spell

import (
	"context"
	"log/slog"
	"time"

	"github.com/samdwyer/spellforge/internal/combat"
	"github.com/samdwyer/spellforge/internal/gamedata"
)

// DefaultHomingTrajectory is forced by Homing when its template names none.
const DefaultHomingTrajectory = "homing"

// scaleInt multiplies an inner integer property by an expression and rounds.
func (m *modifier) scaleInt(inner func() (int, error), field, expr string) (int, error) {
	v, err := inner()
	if err != nil {
		return 0, err
	}
	mult, err := m.evalFloat(field, expr)
	if err != nil {
		return 0, err
	}
	return round(float64(v) * mult), nil
}

func (m *modifier) scaleDuration(inner func() (time.Duration, error), field, expr string) (time.Duration, error) {
	v, err := inner()
	if err != nil {
		return 0, err
	}
	mult, err := m.evalFloat(field, expr)
	if err != nil {
		return 0, err
	}
	return time.Duration(float64(v) * mult), nil
}

// DamageAmp multiplies damage and mana cost.
type DamageAmp struct{ *modifier }

// NewDamageAmp wraps inner with a DamageAmp.
func NewDamageAmp(inner Spell, tmpl *gamedata.SpellTemplate, owner Owner, env *Env) Spell {
	s := &DamageAmp{newModifier(inner, tmpl, owner, env)}
	s.self = s
	return s
}

func (s *DamageAmp) GetDamage() (int, error) {
	return s.scaleInt(s.inner.GetDamage, "damage_multiplier", s.tmpl.DamageMultiplier)
}

func (s *DamageAmp) GetManaCost() (int, error) {
	return s.scaleInt(s.inner.GetManaCost, "mana_multiplier", s.tmpl.ManaMultiplier)
}

// SpeedAmp multiplies projectile speed.
type SpeedAmp struct{ *modifier }

// NewSpeedAmp wraps inner with a SpeedAmp.
func NewSpeedAmp(inner Spell, tmpl *gamedata.SpellTemplate, owner Owner, env *Env) Spell {
	s := &SpeedAmp{newModifier(inner, tmpl, owner, env)}
	s.self = s
	return s
}

func (s *SpeedAmp) GetProjectileSpeed() (float64, error) {
	speed, err := s.inner.GetProjectileSpeed()
	if err != nil {
		return 0, err
	}
	mult, err := s.evalFloat("speed_multiplier", s.tmpl.SpeedMultiplier)
	if err != nil {
		return 0, err
	}
	return speed * mult, nil
}

// Doubler casts the inner spell twice, the second time after a delay.
type Doubler struct{ *modifier }

// NewDoubler wraps inner with a Doubler.
func NewDoubler(inner Spell, tmpl *gamedata.SpellTemplate, owner Owner, env *Env) Spell {
	s := &Doubler{newModifier(inner, tmpl, owner, env)}
	s.self = s
	return s
}

func (s *Doubler) GetManaCost() (int, error) {
	return s.scaleInt(s.inner.GetManaCost, "mana_multiplier", s.tmpl.ManaMultiplier)
}

func (s *Doubler) GetCooldown() (time.Duration, error) {
	return s.scaleDuration(s.inner.GetCooldown, "cooldown_multiplier", s.tmpl.CooldownMultiplier)
}

// GetDelay returns the pause between the two inner casts.
func (s *Doubler) GetDelay() (time.Duration, error) {
	return s.evalSeconds("delay", s.tmpl.Delay)
}

// Cast casts the inner spell, waits for the delay on the owner's lifetime
// and casts it again. If the owner goes away during the wait the second
// cast is dropped.
func (s *Doubler) Cast(ctx context.Context, req CastRequest) error {
	req = s.begin(req)
	if err := s.inner.Cast(ctx, req); err != nil {
		return err
	}

	delay, err := s.GetDelay()
	if err != nil {
		return err
	}
	if err := s.sleep(ctx, delay); err != nil {
		slog.Debug("doubler second cast dropped", "spell", s.GetName(), "reason", err)
		return nil
	}
	return s.inner.Cast(ctx, req)
}

// Splitter casts the inner spell twice, angled left and right of the aim.
type Splitter struct{ *modifier }

// NewSplitter wraps inner with a Splitter.
func NewSplitter(inner Spell, tmpl *gamedata.SpellTemplate, owner Owner, env *Env) Spell {
	s := &Splitter{newModifier(inner, tmpl, owner, env)}
	s.self = s
	return s
}

func (s *Splitter) GetManaCost() (int, error) {
	return s.scaleInt(s.inner.GetManaCost, "mana_multiplier", s.tmpl.ManaMultiplier)
}

// GetAngle returns the total angle between the two casts in degrees.
func (s *Splitter) GetAngle() (float64, error) {
	return s.evalFloat("angle", s.tmpl.Angle)
}

// Cast issues the left cast (+angle/2) then the right cast (-angle/2), both
// from the same origin.
func (s *Splitter) Cast(ctx context.Context, req CastRequest) error {
	req = s.begin(req)
	angle, err := s.GetAngle()
	if err != nil {
		return err
	}

	dir := req.Target.Sub(req.Origin)
	for _, offset := range []float64{angle / 2, -angle / 2} {
		split := req
		split.Target = req.Origin.Add(dir.Rotate(offset))
		if err := s.inner.Cast(ctx, split); err != nil {
			return err
		}
	}
	return nil
}

// Chaos multiplies damage by its own expression and may force a trajectory.
type Chaos struct{ *modifier }

// NewChaos wraps inner with a Chaos modifier.
func NewChaos(inner Spell, tmpl *gamedata.SpellTemplate, owner Owner, env *Env) Spell {
	s := &Chaos{newModifier(inner, tmpl, owner, env)}
	s.self = s
	return s
}

func (s *Chaos) GetDamage() (int, error) {
	return s.scaleInt(s.inner.GetDamage, "damage_multiplier", s.tmpl.DamageMultiplier)
}

func (s *Chaos) GetProjectileTrajectory() string {
	if s.tmpl.ProjectileTrajectory != "" {
		return s.tmpl.ProjectileTrajectory
	}
	return s.inner.GetProjectileTrajectory()
}

// Homing trades damage and extra mana for a seeking projectile.
type Homing struct{ *modifier }

// NewHoming wraps inner with a Homing modifier.
func NewHoming(inner Spell, tmpl *gamedata.SpellTemplate, owner Owner, env *Env) Spell {
	s := &Homing{newModifier(inner, tmpl, owner, env)}
	s.self = s
	return s
}

func (s *Homing) GetDamage() (int, error) {
	return s.scaleInt(s.inner.GetDamage, "damage_multiplier", s.tmpl.DamageMultiplier)
}

func (s *Homing) GetManaCost() (int, error) {
	cost, err := s.inner.GetManaCost()
	if err != nil {
		return 0, err
	}
	adder, err := s.evalInt("mana_adder", s.tmpl.ManaAdder)
	if err != nil {
		return 0, err
	}
	return cost + adder, nil
}

func (s *Homing) GetProjectileTrajectory() string {
	if s.tmpl.ProjectileTrajectory != "" {
		return s.tmpl.ProjectileTrajectory
	}
	return DefaultHomingTrajectory
}

// Haste shortens the cooldown for extra mana.
type Haste struct{ *modifier }

// NewHaste wraps inner with a Haste modifier.
func NewHaste(inner Spell, tmpl *gamedata.SpellTemplate, owner Owner, env *Env) Spell {
	s := &Haste{newModifier(inner, tmpl, owner, env)}
	s.self = s
	return s
}

func (s *Haste) GetCooldown() (time.Duration, error) {
	return s.scaleDuration(s.inner.GetCooldown, "cooldown_multiplier", s.tmpl.CooldownMultiplier)
}

func (s *Haste) GetManaCost() (int, error) {
	return s.scaleInt(s.inner.GetManaCost, "mana_multiplier", s.tmpl.ManaMultiplier)
}

// Frost slows struck targets for a while.
//
// Slows go through the world's combat.SlowTracker, so they do not stack and
// the target recovers when the last slow on it ends.
type Frost struct{ *modifier }

// NewFrost wraps inner with a Frost modifier.
func NewFrost(inner Spell, tmpl *gamedata.SpellTemplate, owner Owner, env *Env) Spell {
	s := &Frost{newModifier(inner, tmpl, owner, env)}
	s.self = s
	return s
}

// GetSlowFactor returns the fraction of speed removed, clamped to [0, 1].
func (s *Frost) GetSlowFactor() (float64, error) {
	f, err := s.evalFloat("slow_factor", s.tmpl.SlowFactor)
	if err != nil {
		return 0, err
	}
	return min(max(f, 0), 1), nil
}

// GetSlowDuration returns how long a slow lasts.
func (s *Frost) GetSlowDuration() (time.Duration, error) {
	return s.evalSeconds("slow_duration", s.tmpl.SlowDuration)
}

func (s *Frost) OnHit(hit Hit) {
	hostile := combat.IsHostile(hit.Team, hit.Target)
	s.inner.OnHit(hit)
	if !hostile {
		return
	}

	target, ok := hit.Target.(combat.Slowable)
	if !ok || !target.IsAlive() {
		return
	}
	if err := s.slow(target); err != nil {
		slog.Error("frost slow failed", "spell", s.GetName(), "error", err)
	}
}

func (s *Frost) slow(target combat.Slowable) error {
	factor, err := s.GetSlowFactor()
	if err != nil {
		return err
	}
	duration, err := s.GetSlowDuration()
	if err != nil {
		return err
	}
	if s.env == nil || s.env.Slows == nil {
		return nil
	}
	if s.owner == nil || s.owner.Lifetime() == nil || !s.owner.Lifetime().Alive() {
		return nil
	}

	release := s.env.Slows.Slow(target, factor)
	lifetime := s.owner.Lifetime()
	started := lifetime.Go(func(ctx context.Context) {
		if err := lifetime.Sleep(ctx, duration); err != nil {
			slog.Debug("frost ended early", "target", target.GetName(), "reason", err)
		}
		release()
	})
	if !started {
		release()
	}
	slog.Debug("target slowed", "target", target.GetName(), "factor", factor, "duration", duration)
	return nil
}
