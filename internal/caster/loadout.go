package caster

import (
	"errors"
	"fmt"
	"sync"

	"github.com/samdwyer/spellforge/internal/spell"
)

// LoadoutSize is the number of spell slots a caster carries.
const LoadoutSize = 4

// ErrSlotOutOfRange is returned for a slot index outside the loadout.
var ErrSlotOutOfRange = errors.New("loadout slot out of range")

// Loadout is a caster's fixed row of spell slots. The selected slot is the
// caster's current spell.
type Loadout struct {
	caster *Caster

	mu       sync.Mutex
	slots    []spell.Spell
	selected int
}

// NewLoadout creates an empty loadout that drives c's current spell.
func NewLoadout(c *Caster) *Loadout {
	return &Loadout{caster: c}
}

// Add puts s in the next free slot. When the loadout is full s replaces the
// selected slot. The first spell added becomes the current spell. It returns
// the slot s landed in.
func (l *Loadout) Add(s spell.Spell) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.slots) < LoadoutSize {
		l.slots = append(l.slots, s)
		idx := len(l.slots) - 1
		if idx == l.selected {
			l.caster.SetCurrentSpell(s)
		}
		return idx
	}
	l.slots[l.selected] = s
	l.caster.SetCurrentSpell(s)
	return l.selected
}

// Replace swaps the spell in slot i, keeping the caster in sync if that slot
// is selected.
func (l *Loadout) Replace(i int, s spell.Spell) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if i < 0 || i >= len(l.slots) {
		return fmt.Errorf("replace slot %d: %w", i, ErrSlotOutOfRange)
	}
	l.slots[i] = s
	if i == l.selected {
		l.caster.SetCurrentSpell(s)
	}
	return nil
}

// Select makes slot i the caster's current spell.
func (l *Loadout) Select(i int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if i < 0 || i >= len(l.slots) {
		return fmt.Errorf("select slot %d: %w", i, ErrSlotOutOfRange)
	}
	l.selected = i
	l.caster.SetCurrentSpell(l.slots[i])
	return nil
}

// Selected returns the index of the selected slot.
func (l *Loadout) Selected() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.selected
}

// Slots returns a copy of the filled slots.
func (l *Loadout) Slots() []spell.Spell {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]spell.Spell, len(l.slots))
	copy(out, l.slots)
	return out
}
