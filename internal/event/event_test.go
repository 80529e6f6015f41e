package event

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/samdwyer/spellforge/internal/combat"
)

func TestDispatchReachesSubscribers(t *testing.T) {
	d := NewDispatcher()

	var got []DamageDealt
	d.Subscribe(TypeDamageDealt, ListenerFunc(func(e Event) {
		got = append(got, e.Data.(DamageDealt))
	}))
	d.Subscribe(TypeEnemyKilled, ListenerFunc(func(e Event) {
		t.Error("kill listener should not see damage events")
	}))

	d.Dispatch(Event{Type: TypeDamageDealt, Data: DamageDealt{Target: "Dummy", Amount: 10, Type: combat.DamageArcane}})

	assert.Len(t, got, 1)
	assert.Equal(t, 10, got[0].Amount)
}

func TestUnsubscribe(t *testing.T) {
	d := NewDispatcher()

	calls := 0
	sub := d.Subscribe(TypeSpellCast, ListenerFunc(func(Event) { calls++ }))
	other := 0
	d.Subscribe(TypeSpellCast, ListenerFunc(func(Event) { other++ }))

	d.Dispatch(Event{Type: TypeSpellCast})
	d.Unsubscribe(sub)
	d.Dispatch(Event{Type: TypeSpellCast})

	assert.Equal(t, 1, calls)
	assert.Equal(t, 2, other)
}

func TestNilDispatcherDrops(t *testing.T) {
	var d *Dispatcher
	assert.NotPanics(t, func() { d.Dispatch(Event{Type: TypeSpellCast}) })
}
