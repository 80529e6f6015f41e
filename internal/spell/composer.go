package spell

import (
	"context"
	"log/slog"
	"math/rand"
	"slices"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samdwyer/spellforge/internal/gamedata"
	"github.com/samdwyer/spellforge/internal/telemetry"
)

const (
	// DefaultMaxAttempts bounds the modifier draws of one Build. The actual
	// budget is drawn uniformly from [0, DefaultMaxAttempts].
	DefaultMaxAttempts = 2
	// DefaultMaxModifiers caps how many modifiers Build attaches.
	DefaultMaxModifiers = 2
)

// Composer builds spells from the catalog, either by name or at random.
type Composer struct {
	catalog      *gamedata.SpellCatalog
	env          *Env
	maxAttempts  int
	maxModifiers int

	mu  sync.Mutex
	rng *rand.Rand
}

// ComposerOption configures a Composer.
type ComposerOption func(*Composer)

// WithMaxAttempts sets the upper bound of the modifier draw budget.
func WithMaxAttempts(n int) ComposerOption {
	return func(c *Composer) { c.maxAttempts = max(n, 0) }
}

// WithMaxModifiers sets how many modifiers a random spell may carry.
func WithMaxModifiers(n int) ComposerOption {
	return func(c *Composer) { c.maxModifiers = max(n, 0) }
}

// NewComposer creates a composer over catalog. Spells it builds act through
// env. rng drives Build; a nil rng uses a fixed seed.
func NewComposer(catalog *gamedata.SpellCatalog, env *Env, rng *rand.Rand, opts ...ComposerOption) *Composer {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	c := &Composer{
		catalog:      catalog,
		env:          env,
		maxAttempts:  DefaultMaxAttempts,
		maxModifiers: DefaultMaxModifiers,
		rng:          rng,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Catalog returns the catalog the composer builds from.
func (c *Composer) Catalog() *gamedata.SpellCatalog { return c.catalog }

// Build assembles a random spell: a uniformly drawn base plus up to
// maxModifiers modifiers. A modifier whose display name or key is already in
// the chain is skipped and still spends its draw.
func (c *Composer) Build(ctx context.Context, owner Owner) Spell {
	_, span := telemetry.Tracer("spell").Start(ctx, "spell.compose")
	defer span.End()

	bases := c.catalog.BaseKeys()
	mods := c.catalog.ModifierKeys()

	c.mu.Lock()
	baseKey := bases[c.rng.Intn(len(bases))]
	attempts := c.rng.Intn(c.maxAttempts + 1)
	draws := make([]string, 0, attempts)
	if len(mods) > 0 {
		for i := 0; i < attempts; i++ {
			draws = append(draws, mods[c.rng.Intn(len(mods))])
		}
	}
	c.mu.Unlock()

	current := c.BuildSpecific(baseKey, owner, nil)
	applied := 0
	var usedKeys []string
	for _, key := range draws {
		if applied >= c.maxModifiers {
			break
		}
		tmpl := c.catalog.Get(key)
		if slices.Contains(current.AppliedModifiers(), tmpl.Name) || slices.Contains(usedKeys, key) {
			continue
		}
		next := c.BuildSpecific(key, owner, current)
		if next == nil || next == current {
			continue
		}
		current = next
		usedKeys = append(usedKeys, key)
		applied++
	}

	span.SetAttributes(
		attribute.String("spell.base", baseKey),
		attribute.String("spell.name", current.GetName()),
		attribute.Int("spell.modifier_attempts", attempts),
		attribute.Int("spell.modifiers", applied),
	)
	slog.Debug("spell composed", "spell", current.GetName(), "base", baseKey, "modifiers", usedKeys)
	return current
}

// BuildSpecific builds the template named key. For a modifier, inner is the
// spell to wrap. It never fails: an unknown key falls back to inner, or to
// the catalog's default base spell when inner is nil, and a modifier with no
// inner spell returns inner unchanged.
func (c *Composer) BuildSpecific(key string, owner Owner, inner Spell) Spell {
	tmpl := c.catalog.Get(key)
	if tmpl == nil {
		slog.Warn("unknown spell key", "key", key, "error", ErrUnknownTemplate)
		if inner != nil {
			return inner
		}
		return c.buildDefault(owner)
	}
	if tmpl.IsModifier() && inner == nil {
		slog.Warn("modifier requested without a spell to wrap", "key", key, "error", ErrMissingInner)
		return inner
	}

	s, err := New(tmpl, owner, c.env, inner)
	if err == nil {
		return s
	}
	slog.Warn("spell construction failed", "key", key, "error", err)
	if tmpl.IsBase() {
		return NewBase(tmpl, owner, c.env)
	}
	return inner
}

func (c *Composer) buildDefault(owner Owner) Spell {
	tmpl := c.catalog.Get(c.catalog.DefaultKey())
	s, err := New(tmpl, owner, c.env, nil)
	if err != nil {
		slog.Warn("default spell has no registered behavior, using a plain projectile", "key", tmpl.Key, "error", err)
		return NewBase(tmpl, owner, c.env)
	}
	return s
}
