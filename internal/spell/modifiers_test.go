package spell

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samdwyer/spellforge/internal/combat"
	"github.com/samdwyer/spellforge/internal/geom"
	"github.com/samdwyer/spellforge/internal/lifecycle"
)

func mustInt(t *testing.T, f func() (int, error)) int {
	t.Helper()
	v, err := f()
	require.NoError(t, err)
	return v
}

func mustDuration(t *testing.T, f func() (time.Duration, error)) time.Duration {
	t.Helper()
	v, err := f()
	require.NoError(t, err)
	return v
}

func TestDamageAmp(t *testing.T) {
	h := newHarness(t)
	s := h.build("arcane_bolt", "damage_amp")

	assert.Equal(t, 20, mustInt(t, s.GetDamage))
	assert.Equal(t, 15, mustInt(t, s.GetManaCost))
	assert.Equal(t, 2*time.Second, mustDuration(t, s.GetCooldown), "cooldown delegates")
	assert.Equal(t, "Arcane Bolt (damage-amplified)", s.GetName())
	assert.Equal(t, "More damage.", s.GetDescription())
	assert.Equal(t, 7, s.GetIcon())
	assert.False(t, s.IsBase())
	assert.Equal(t, []string{"damage-amplified"}, s.AppliedModifiers())
}

func TestStackedDamageAmp(t *testing.T) {
	h := newHarness(t)
	s := h.build("arcane_bolt", "damage_amp_small", "damage_amp")

	assert.Equal(t, 30, mustInt(t, s.GetDamage))
	assert.Equal(t, "Arcane Bolt (lightly-amplified) (damage-amplified)", s.GetName())
	assert.Equal(t, []string{"lightly-amplified", "damage-amplified"}, s.AppliedModifiers())
}

func TestModifiedProjectileIsFired(t *testing.T) {
	h := newHarness(t)
	s := h.build("arcane_bolt", "damage_amp", "speed_amp")
	h.cast(s)

	spec := h.spawner.spec(0)
	assert.Equal(t, 16.0, spec.Speed)

	enemy := newTarget("Zombie", combat.TeamEnemy, 100)
	spec.OnHit(enemy, geom.V(10, 0))
	assert.Equal(t, 80, enemy.health())
	assert.Equal(t, "Arcane Bolt (damage-amplified) (speed-amplified)", h.dealt[0].Spell)
}

func TestSpeedAmp(t *testing.T) {
	h := newHarness(t)
	s := h.build("arcane_bolt", "speed_amp")

	speed, err := s.GetProjectileSpeed()
	require.NoError(t, err)
	assert.Equal(t, 16.0, speed)
	assert.Equal(t, 10, mustInt(t, s.GetDamage))
	assert.Equal(t, 10, mustInt(t, s.GetManaCost))
}

func TestDoublerCastsTwiceAfterDelay(t *testing.T) {
	h := newHarness(t)
	s := h.build("arcane_bolt", "doubler")

	assert.Equal(t, 15, mustInt(t, s.GetManaCost))
	assert.Equal(t, 3*time.Second, mustDuration(t, s.GetCooldown))

	errc := make(chan error, 1)
	go func() {
		errc <- Cast(context.Background(), s, geom.V(0, 0), geom.V(10, 0), combat.TeamPlayer)
	}()

	h.waitForTimers(1)
	assert.Equal(t, 1, h.spawner.count(), "first cast is issued before the delay")

	h.clock.Advance(499 * time.Millisecond)
	assert.Equal(t, 1, h.spawner.count(), "second cast waits for the full delay")

	h.clock.Advance(time.Millisecond)
	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("doubler cast did not finish")
	}
	assert.Equal(t, 2, h.spawner.count())
	assert.Equal(t, h.spawner.spec(0).Direction, h.spawner.spec(1).Direction)
}

func TestDoublerDropsSecondCastWhenOwnerCloses(t *testing.T) {
	h := newHarness(t)
	s := h.build("arcane_bolt", "doubler")

	errc := make(chan error, 1)
	go func() {
		errc <- Cast(context.Background(), s, geom.V(0, 0), geom.V(10, 0), combat.TeamPlayer)
	}()

	h.waitForTimers(1)
	h.owner.handle.Close()

	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("doubler cast did not finish")
	}
	assert.Equal(t, 1, h.spawner.count())
}

func TestSplitterCastsLeftThenRight(t *testing.T) {
	h := newHarness(t)
	s := h.build("arcane_bolt", "splitter")

	assert.Equal(t, 15, mustInt(t, s.GetManaCost))

	h.cast(s)
	require.Equal(t, 2, h.spawner.count())

	left, right := h.spawner.spec(0), h.spawner.spec(1)
	assert.Equal(t, geom.V(0, 0), left.Origin)
	assert.Equal(t, geom.V(0, 0), right.Origin)
	assert.True(t, left.Direction.ApproxEqual(geom.V(10, 0).Rotate(10), 1e-9), "left %v", left.Direction)
	assert.True(t, right.Direction.ApproxEqual(geom.V(10, 0).Rotate(-10), 1e-9), "right %v", right.Direction)
}

func TestChaos(t *testing.T) {
	h := newHarness(t)
	s := h.build("arcane_bolt", "chaos")

	assert.Equal(t, 40, mustInt(t, s.GetDamage), "multiplier is 1 + wave")
	assert.Equal(t, "spiraling", s.GetProjectileTrajectory())

	h.catalog.Get("chaos").ProjectileTrajectory = ""
	assert.Equal(t, "straight", s.GetProjectileTrajectory())
}

func TestHoming(t *testing.T) {
	h := newHarness(t)
	s := h.build("arcane_bolt", "homing")

	assert.Equal(t, 5, mustInt(t, s.GetDamage))
	assert.Equal(t, 13, mustInt(t, s.GetManaCost), "adds the wave number")
	assert.Equal(t, DefaultHomingTrajectory, s.GetProjectileTrajectory())

	h.cast(s)
	assert.Equal(t, DefaultHomingTrajectory, h.spawner.spec(0).Trajectory)
}

func TestHaste(t *testing.T) {
	h := newHarness(t)
	s := h.build("arcane_bolt", "haste")

	assert.Equal(t, time.Second, mustDuration(t, s.GetCooldown))
	assert.Equal(t, 20, mustInt(t, s.GetManaCost))
}

func TestOutermostLayerGovernsReadiness(t *testing.T) {
	h := newHarness(t)
	s := h.build("arcane_bolt", "haste")
	inner := Chain(s)[1]

	h.cast(s)
	assert.False(t, s.IsReady())
	assert.True(t, s.LastCast().Equal(h.clock.Now()))
	assert.True(t, inner.LastCast().Equal(h.clock.Now()), "every layer stamps its own cast time")

	h.clock.Advance(time.Second)
	assert.True(t, s.IsReady(), "hasted cooldown has elapsed")
	assert.False(t, inner.IsReady(), "the base layer still uses its own cooldown")
}

func TestFrostSlowsAndRestores(t *testing.T) {
	h := newHarness(t)
	s := h.build("arcane_bolt", "frost")

	assert.Equal(t, 10, mustInt(t, s.GetDamage))

	h.cast(s)
	enemy := newTarget("Zombie", combat.TeamEnemy, 100)
	h.spawner.spec(0).OnHit(enemy, geom.V(10, 0))

	assert.Equal(t, 90, enemy.health())
	assert.Equal(t, 3.0, enemy.GetSpeed())

	h.waitForTimers(1)
	h.clock.Advance(2999 * time.Millisecond)
	assert.Equal(t, 3.0, enemy.GetSpeed())

	h.clock.Advance(time.Millisecond)
	assert.Eventually(t, func() bool { return enemy.GetSpeed() == 4.0 }, 2*time.Second, time.Millisecond)
}

func TestFrostDoesNotOverwriteNewerSpeed(t *testing.T) {
	h := newHarness(t)
	s := h.build("arcane_bolt", "frost")
	h.cast(s)

	enemy := newTarget("Zombie", combat.TeamEnemy, 100)
	h.spawner.spec(0).OnHit(enemy, geom.V(10, 0))
	h.waitForTimers(1)

	enemy.SetSpeed(1.5)
	h.clock.Advance(3 * time.Second)
	h.owner.handle.Close()

	assert.Equal(t, 1.5, enemy.GetSpeed())
}

func TestFrostRehitRefreshesWithoutStacking(t *testing.T) {
	h := newHarness(t)
	s := h.build("arcane_bolt", "frost")
	h.cast(s)
	enemy := newTarget("Zombie", combat.TeamEnemy, 100)

	h.spawner.spec(0).OnHit(enemy, geom.V(10, 0))
	h.waitForTimers(1)
	h.clock.Advance(time.Second)

	h.spawner.spec(0).OnHit(enemy, geom.V(10, 0))
	assert.Equal(t, 3.0, enemy.GetSpeed())
	h.waitForTimers(2)

	// The first slow's window ends; the second still holds.
	h.clock.Advance(2 * time.Second)
	h.waitForTimers(1)
	assert.Equal(t, 3.0, enemy.GetSpeed())

	h.clock.Advance(time.Second)
	assert.Eventually(t, func() bool { return enemy.GetSpeed() == 4.0 }, 2*time.Second, time.Millisecond)
}

func TestFrostSurvivesOtherCasterClosing(t *testing.T) {
	h := newHarness(t)
	mine := h.build("arcane_bolt", "frost")

	otherHandle := lifecycle.New(context.Background(), "other", h.clock)
	t.Cleanup(otherHandle.Close)
	other := &fakeOwner{name: "Warlock", team: combat.TeamPlayer, handle: otherHandle}
	var theirs Spell
	for _, key := range []string{"arcane_bolt", "frost"} {
		theirs = h.composer.BuildSpecific(key, other, theirs)
	}

	h.cast(mine)
	h.cast(theirs)
	enemy := newTarget("Zombie", combat.TeamEnemy, 100)
	h.spawner.spec(0).OnHit(enemy, geom.V(10, 0))
	h.spawner.spec(1).OnHit(enemy, geom.V(10, 0))
	assert.Equal(t, 3.0, enemy.GetSpeed())
	h.waitForTimers(2)

	otherHandle.Close()
	assert.Equal(t, 3.0, enemy.GetSpeed(), "my slow still holds")
	assert.Equal(t, 1, h.slows.Active())

	h.clock.Advance(3 * time.Second)
	assert.Eventually(t, func() bool { return enemy.GetSpeed() == 4.0 }, 2*time.Second, time.Millisecond)
	assert.Eventually(t, func() bool { return h.slows.Active() == 0 }, 2*time.Second, time.Millisecond)
}

func TestFrostWithoutSlowTrackerStillDamages(t *testing.T) {
	h := newHarness(t)
	h.env.Slows = nil
	s := h.build("arcane_bolt", "frost")
	h.cast(s)

	enemy := newTarget("Zombie", combat.TeamEnemy, 100)
	h.spawner.spec(0).OnHit(enemy, geom.V(10, 0))
	assert.Equal(t, 90, enemy.health())
	assert.Equal(t, 4.0, enemy.GetSpeed())
}

func TestFrostIgnoresAllies(t *testing.T) {
	h := newHarness(t)
	s := h.build("arcane_bolt", "frost")
	h.cast(s)

	ally := newTarget("Friend", combat.TeamPlayer, 100)
	h.spawner.spec(0).OnHit(ally, geom.V(10, 0))

	assert.Equal(t, 4.0, ally.GetSpeed())
	assert.Equal(t, 100, ally.health())
}

func TestFrostClampsSlowFactor(t *testing.T) {
	h := newHarness(t)
	h.catalog.Get("frost").SlowFactor = "2"
	s := h.build("arcane_bolt", "frost").(*Frost)

	f, err := s.GetSlowFactor()
	require.NoError(t, err)
	assert.Equal(t, 1.0, f)
}
