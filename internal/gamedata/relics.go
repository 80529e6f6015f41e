package gamedata

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samdwyer/spellforge/internal/formula"
)

// Relic trigger types.
const (
	TriggerOnKill     = "on-kill"
	TriggerDealDamage = "player-deal-damage"
	TriggerWaveStart  = "wave-start"
)

// Relic effect types.
const (
	EffectGainMana       = "gain-mana"
	EffectGainSpellpower = "gain-spellpower"
	EffectReduceNextCost = "reduce-next-spell-cost"
)

// Relic effect lifetimes, the "until" field of an effect.
const (
	UntilForever   = ""
	UntilNextSpell = "next-spell"
	UntilWaveStart = "wave-start"
	UntilDuration  = "duration"
)

var (
	ErrUnknownTrigger = errors.New("unknown relic trigger")
	ErrUnknownEffect  = errors.New("unknown relic effect")
	ErrBadUntil       = errors.New("invalid relic effect lifetime")
)

// RelicDef defines a passive item: when its trigger fires, its effect is
// applied to the owner.
type RelicDef struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Tier        string          `json:"tier"`
	Icon        int             `json:"icon_id"`
	Trigger     RelicTriggerDef `json:"trigger"`
	Effect      RelicEffectDef  `json:"effect"`
}

// RelicTriggerDef says which game event fires a relic.
type RelicTriggerDef struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// RelicEffectDef says what a relic does when it fires. Amount is an RPN
// expression over wave and power.
type RelicEffectDef struct {
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Until       string `json:"until,omitempty"`
	Description string `json:"description,omitempty"`
}

// Lifetime is a parsed "until" field.
type Lifetime struct {
	Kind     string
	Duration time.Duration
}

// ParseUntil parses the effect's lifetime: empty, "next-spell",
// "wave-start" or "duration <seconds>".
func (e RelicEffectDef) ParseUntil() (Lifetime, error) {
	until := strings.ToLower(strings.TrimSpace(e.Until))
	switch until {
	case UntilForever, UntilNextSpell, UntilWaveStart:
		return Lifetime{Kind: until}, nil
	}
	secs, ok := strings.CutPrefix(until, UntilDuration+" ")
	if !ok {
		return Lifetime{}, fmt.Errorf("%w: %q", ErrBadUntil, e.Until)
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(secs), 64)
	if err != nil || n <= 0 {
		return Lifetime{}, fmt.Errorf("%w: %q", ErrBadUntil, e.Until)
	}
	return Lifetime{Kind: UntilDuration, Duration: time.Duration(n * float64(time.Second))}, nil
}

// Validate checks the trigger and effect types, the lifetime and the amount
// expression.
func (r *RelicDef) Validate(vars formula.Vars) error {
	var errs []error
	switch r.Trigger.Type {
	case TriggerOnKill, TriggerDealDamage, TriggerWaveStart:
	default:
		errs = append(errs, fmt.Errorf("relic %s: %w %q", r.ID, ErrUnknownTrigger, r.Trigger.Type))
	}
	switch r.Effect.Type {
	case EffectGainMana, EffectGainSpellpower, EffectReduceNextCost:
	default:
		errs = append(errs, fmt.Errorf("relic %s: %w %q", r.ID, ErrUnknownEffect, r.Effect.Type))
	}
	if _, err := r.Effect.ParseUntil(); err != nil {
		errs = append(errs, fmt.Errorf("relic %s: %w", r.ID, err))
	}
	if _, err := formula.EvaluateInt(r.Effect.Amount, vars); err != nil {
		errs = append(errs, fmt.Errorf("relic %s amount: %w", r.ID, err))
	}
	return errors.Join(errs...)
}

// RelicsFile represents the structure of relics.json.
type RelicsFile struct {
	Relics []RelicDef `json:"relics"`
}

// LoadRelics loads and validates the embedded relics.json.
func LoadRelics() ([]RelicDef, error) {
	file, err := Load[RelicsFile]("relics.json")
	if err != nil {
		return nil, err
	}
	vars := formula.Vars{formula.VarWave: 1, formula.VarPower: 1}
	var errs []error
	for i := range file.Relics {
		errs = append(errs, file.Relics[i].Validate(vars))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return file.Relics, nil
}

// FindRelic returns the relic with the given id, or nil.
func FindRelic(relics []RelicDef, id string) *RelicDef {
	for i := range relics {
		if relics[i].ID == id {
			return &relics[i]
		}
	}
	return nil
}
