// Package event is a small synchronous publish/subscribe bus for gameplay
// notifications such as damage dealt and spells cast.
package event

import (
	"sync"

	"github.com/samdwyer/spellforge/internal/combat"
	"github.com/samdwyer/spellforge/internal/geom"
)

// Type names an event kind.
type Type string

const (
	TypeSpellCast   Type = "spell_cast"
	TypeDamageDealt Type = "damage_dealt"
	TypeEnemyKilled Type = "enemy_killed"
	TypeWaveStarted Type = "wave_started"
)

// Event is one notification. Data holds the typed payload for Type.
type Event struct {
	Type Type
	Data any
}

// SpellCast is published when a spell's cast sequence starts.
type SpellCast struct {
	Spell  string
	Caster string
	Team   combat.Team
	Origin geom.Vec2
	Target geom.Vec2
	Mana   int
}

// DamageDealt is published whenever a spell damages a hittable.
type DamageDealt struct {
	Spell  string
	Caster string
	Team   combat.Team
	Target string
	Amount int
	Type   combat.DamageType
	Impact geom.Vec2
}

// EnemyKilled is published when a spell's hit kills its target.
type EnemyKilled struct {
	Spell  string
	Caster string
	Target string
	Impact geom.Vec2
}

// WaveStarted is published when a new wave begins.
type WaveStarted struct {
	Wave int
}

// Listener receives dispatched events.
type Listener interface {
	OnEvent(e Event)
}

// ListenerFunc adapts a function to a Listener.
type ListenerFunc func(e Event)

func (f ListenerFunc) OnEvent(e Event) { f(e) }

// Subscription identifies a registered listener for Unsubscribe.
type Subscription struct {
	typ Type
	id  uint64
}

type entry struct {
	id       uint64
	listener Listener
}

// Dispatcher fans events out to subscribers. It is safe for concurrent use;
// listeners run on the publishing goroutine.
type Dispatcher struct {
	mu        sync.RWMutex
	nextID    uint64
	listeners map[Type][]entry
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		listeners: make(map[Type][]entry),
	}
}

// Subscribe registers l for events of type t.
func (d *Dispatcher) Subscribe(t Type, l Listener) Subscription {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	d.listeners[t] = append(d.listeners[t], entry{id: d.nextID, listener: l})
	return Subscription{typ: t, id: d.nextID}
}

// Unsubscribe removes a listener registered with Subscribe.
func (d *Dispatcher) Unsubscribe(s Subscription) {
	d.mu.Lock()
	defer d.mu.Unlock()
	entries := d.listeners[s.typ]
	for i, e := range entries {
		if e.id == s.id {
			d.listeners[s.typ] = append(entries[:i:i], entries[i+1:]...)
			return
		}
	}
}

// Dispatch sends e to every listener subscribed to e.Type. A nil dispatcher
// drops the event.
func (d *Dispatcher) Dispatch(e Event) {
	if d == nil {
		return
	}
	d.mu.RLock()
	entries := d.listeners[e.Type]
	d.mu.RUnlock()

	for _, entry := range entries {
		entry.listener.OnEvent(e)
	}
}
