// Package relic applies passive items to a caster. Each equipped relic
// listens on the event bus for its trigger and applies its effect to the
// owner, undoing temporary effects when their lifetime ends.
package relic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/samdwyer/spellforge/internal/combat"
	"github.com/samdwyer/spellforge/internal/event"
	"github.com/samdwyer/spellforge/internal/formula"
	"github.com/samdwyer/spellforge/internal/gamedata"
	"github.com/samdwyer/spellforge/internal/lifecycle"
)

var ErrAlreadyEquipped = errors.New("relic already equipped")

// Owner is the caster a relic acts on.
type Owner interface {
	GetName() string
	SpellPower() int
	Lifetime() *lifecycle.Handle
	GainMana(n int) int
	AddSpellPower(delta int)
	ReduceNextCost(n int)
}

type equipped struct {
	def   gamedata.RelicDef
	until gamedata.Lifetime
	sub   event.Subscription
}

// bonus is a temporary spell power grant waiting for its lifetime to end.
type bonus struct {
	relic  string
	amount int
	kind   string
	once   sync.Once
}

// Manager holds the relics equipped by one owner.
type Manager struct {
	owner  Owner
	events *event.Dispatcher
	world  combat.WorldContext

	mu       sync.Mutex
	equipped []*equipped
	bonuses  map[*bonus]struct{}
	expiry   []event.Subscription
}

// New creates a manager for owner. Trigger amounts read the wave from world.
func New(owner Owner, events *event.Dispatcher, world combat.WorldContext) *Manager {
	m := &Manager{
		owner:   owner,
		events:  events,
		world:   world,
		bonuses: make(map[*bonus]struct{}),
	}
	// Expiry listeners go first so a wave-start relic never removes the
	// bonus it just granted.
	m.expiry = []event.Subscription{
		events.Subscribe(event.TypeSpellCast, event.ListenerFunc(func(e event.Event) {
			if e.Data.(event.SpellCast).Caster == owner.GetName() {
				m.expire(gamedata.UntilNextSpell)
			}
		})),
		events.Subscribe(event.TypeWaveStarted, event.ListenerFunc(func(event.Event) {
			m.expire(gamedata.UntilWaveStart)
		})),
	}
	return m
}

// Equip validates def and starts listening for its trigger.
func (m *Manager) Equip(def gamedata.RelicDef) error {
	if err := def.Validate(m.vars()); err != nil {
		return err
	}
	until, err := def.Effect.ParseUntil()
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, eq := range m.equipped {
		if eq.def.ID == def.ID {
			return fmt.Errorf("%w: %s", ErrAlreadyEquipped, def.ID)
		}
	}
	eq := &equipped{def: def, until: until}
	eq.sub = m.events.Subscribe(triggerEvent(def.Trigger.Type), event.ListenerFunc(func(e event.Event) {
		if m.matches(def.Trigger.Type, e) {
			m.fire(eq)
		}
	}))
	m.equipped = append(m.equipped, eq)
	slog.Debug("relic equipped", "relic", def.ID, "owner", m.owner.Lifetime().Name())
	return nil
}

// Equipped returns the ids of the equipped relics in equip order.
func (m *Manager) Equipped() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, len(m.equipped))
	for i, eq := range m.equipped {
		ids[i] = eq.def.ID
	}
	return ids
}

// Close stops every relic and takes back the bonuses still in effect.
func (m *Manager) Close() {
	m.mu.Lock()
	subs := append([]event.Subscription(nil), m.expiry...)
	for _, eq := range m.equipped {
		subs = append(subs, eq.sub)
	}
	m.equipped = nil
	m.expiry = nil
	m.mu.Unlock()

	for _, sub := range subs {
		m.events.Unsubscribe(sub)
	}
	m.expire("")
}

func triggerEvent(trigger string) event.Type {
	switch trigger {
	case gamedata.TriggerOnKill:
		return event.TypeEnemyKilled
	case gamedata.TriggerDealDamage:
		return event.TypeDamageDealt
	default:
		return event.TypeWaveStarted
	}
}

// matches reports whether e is the owner's own kill or hit. Wave starts
// fire for everyone.
func (m *Manager) matches(trigger string, e event.Event) bool {
	switch trigger {
	case gamedata.TriggerOnKill:
		return e.Data.(event.EnemyKilled).Caster == m.owner.GetName()
	case gamedata.TriggerDealDamage:
		dealt := e.Data.(event.DamageDealt)
		return dealt.Caster == m.owner.GetName() && dealt.Amount > 0
	default:
		return true
	}
}

func (m *Manager) vars() formula.Vars {
	wave := 1
	if m.world != nil {
		wave = m.world.Wave()
	}
	return formula.Vars{
		formula.VarWave:  float64(wave),
		formula.VarPower: float64(m.owner.SpellPower()),
	}
}

func (m *Manager) fire(eq *equipped) {
	amount, err := formula.EvaluateInt(eq.def.Effect.Amount, m.vars())
	if err != nil {
		slog.Warn("relic amount failed", "relic", eq.def.ID, "error", err)
		return
	}
	if amount <= 0 {
		return
	}

	switch eq.def.Effect.Type {
	case gamedata.EffectGainMana:
		mana := m.owner.GainMana(amount)
		slog.Debug("relic restored mana", "relic", eq.def.ID, "amount", amount, "mana", mana)
	case gamedata.EffectReduceNextCost:
		m.owner.ReduceNextCost(amount)
		slog.Debug("relic reduced next cost", "relic", eq.def.ID, "amount", amount)
	case gamedata.EffectGainSpellpower:
		m.grant(eq, amount)
	}
}

// grant adds spell power for the relic's lifetime.
func (m *Manager) grant(eq *equipped, amount int) {
	m.owner.AddSpellPower(amount)
	slog.Debug("relic granted spell power", "relic", eq.def.ID, "amount", amount, "until", eq.until.Kind)
	if eq.until.Kind == gamedata.UntilForever {
		return
	}

	b := &bonus{relic: eq.def.ID, amount: amount, kind: eq.until.Kind}
	m.mu.Lock()
	m.bonuses[b] = struct{}{}
	m.mu.Unlock()

	if eq.until.Kind != gamedata.UntilDuration {
		return
	}
	lifetime := m.owner.Lifetime()
	started := lifetime.Go(func(ctx context.Context) {
		if err := lifetime.Sleep(ctx, eq.until.Duration); err != nil {
			slog.Debug("relic bonus ended early", "relic", b.relic, "reason", err)
		}
		m.revoke(b)
	})
	if !started {
		m.revoke(b)
	}
}

// expire revokes the bonuses that end on kind. An empty kind revokes all of
// them.
func (m *Manager) expire(kind string) {
	m.mu.Lock()
	var due []*bonus
	for b := range m.bonuses {
		if kind == "" || b.kind == kind {
			due = append(due, b)
		}
	}
	m.mu.Unlock()

	for _, b := range due {
		m.revoke(b)
	}
}

func (m *Manager) revoke(b *bonus) {
	b.once.Do(func() {
		m.mu.Lock()
		delete(m.bonuses, b)
		m.mu.Unlock()
		m.owner.AddSpellPower(-b.amount)
		slog.Debug("relic bonus ended", "relic", b.relic, "amount", b.amount)
	})
}
