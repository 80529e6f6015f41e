package spell

import (
	"errors"
	"fmt"
	"sync"

	"github.com/samdwyer/spellforge/internal/gamedata"
)

// BaseConstructor builds a base spell from its template.
type BaseConstructor func(tmpl *gamedata.SpellTemplate, owner Owner, env *Env) Spell

// ModifierConstructor wraps inner with a modifier built from its template.
type ModifierConstructor func(inner Spell, tmpl *gamedata.SpellTemplate, owner Owner, env *Env) Spell

var (
	ErrUnknownTemplate = errors.New("unknown spell template")
	ErrMissingInner    = errors.New("modifier has no spell to wrap")
)

// constructors maps a template behavior name to its constructor.
// Populated by init() below; RegisterBase/RegisterModifier add more.
var constructors = struct {
	sync.RWMutex
	bases     map[string]BaseConstructor
	modifiers map[string]ModifierConstructor
}{
	bases:     map[string]BaseConstructor{},
	modifiers: map[string]ModifierConstructor{},
}

// RegisterBase registers a base spell constructor for a behavior name.
func RegisterBase(behavior string, c BaseConstructor) {
	constructors.Lock()
	defer constructors.Unlock()
	constructors.bases[behavior] = c
}

// RegisterModifier registers a modifier constructor for a behavior name.
func RegisterModifier(behavior string, c ModifierConstructor) {
	constructors.Lock()
	defer constructors.Unlock()
	constructors.modifiers[behavior] = c
}

func baseConstructor(behavior string) (BaseConstructor, bool) {
	constructors.RLock()
	defer constructors.RUnlock()
	c, ok := constructors.bases[behavior]
	return c, ok
}

func modifierConstructor(behavior string) (ModifierConstructor, bool) {
	constructors.RLock()
	defer constructors.RUnlock()
	c, ok := constructors.modifiers[behavior]
	return c, ok
}

// New builds the spell described by tmpl. Base templates ignore inner.
// Modifier templates need a non-nil inner.
func New(tmpl *gamedata.SpellTemplate, owner Owner, env *Env, inner Spell) (Spell, error) {
	if tmpl == nil {
		return nil, ErrUnknownTemplate
	}
	if tmpl.IsBase() {
		c, ok := baseConstructor(tmpl.Behavior)
		if !ok {
			return nil, fmt.Errorf("%w: base behavior %q", ErrUnknownTemplate, tmpl.Behavior)
		}
		return c(tmpl, owner, env), nil
	}

	c, ok := modifierConstructor(tmpl.Behavior)
	if !ok {
		return nil, fmt.Errorf("%w: modifier behavior %q", ErrUnknownTemplate, tmpl.Behavior)
	}
	if inner == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingInner, tmpl.Key)
	}
	return c(inner, tmpl, owner, env), nil
}

func init() {
	RegisterBase("arcane_bolt", NewBase)
	RegisterBase("magic_missile", NewBase)
	RegisterBase("arcane_blast", NewBlast)
	RegisterBase("arcane_spray", NewSpray)
	RegisterBase("arcane_nova", NewNova)

	RegisterModifier("damage_amp", NewDamageAmp)
	RegisterModifier("speed_amp", NewSpeedAmp)
	RegisterModifier("doubler", NewDoubler)
	RegisterModifier("splitter", NewSplitter)
	RegisterModifier("chaos", NewChaos)
	RegisterModifier("homing", NewHoming)
	RegisterModifier("haste", NewHaste)
	RegisterModifier("frost", NewFrost)
}
