// Package sim runs the arena: a player auto-casting its loadout at waves of
// enemies, on a fixed tick.
package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samdwyer/spellforge/internal/caster"
	"github.com/samdwyer/spellforge/internal/combat"
	"github.com/samdwyer/spellforge/internal/config"
	"github.com/samdwyer/spellforge/internal/entity"
	"github.com/samdwyer/spellforge/internal/event"
	"github.com/samdwyer/spellforge/internal/formula"
	"github.com/samdwyer/spellforge/internal/gamedata"
	"github.com/samdwyer/spellforge/internal/geom"
	"github.com/samdwyer/spellforge/internal/lifecycle"
	"github.com/samdwyer/spellforge/internal/relic"
	"github.com/samdwyer/spellforge/internal/spell"
	"github.com/samdwyer/spellforge/internal/telemetry"
	"github.com/samdwyer/spellforge/internal/world"
)

// maxLog is how many recent combat messages the game keeps.
const maxLog = 8

// keepDistance is how close enemies walk up to the player.
const keepDistance = 2.0

// Stats are the running totals of a game.
type Stats struct {
	Casts  int
	Denied int
	Damage int
	Kills  int
}

// Game holds the entire state of one run.
type Game struct {
	cfg      config.Spellforge
	clock    clockwork.Clock
	rng      *rand.Rand
	arena    *world.Arena
	events   *event.Dispatcher
	catalog  *gamedata.SpellCatalog
	composer *spell.Composer
	enemies  *gamedata.EnemyRegistry
	player   *entity.Player
	relics   *relic.Manager
	handle   *lifecycle.Handle

	wave atomic.Int64

	mu    sync.Mutex
	stats Stats
	log   []string
}

// New creates a game from cfg. Time, including every spell delay and regen
// tick, comes from clock.
func New(ctx context.Context, cfg config.Spellforge, clock clockwork.Clock) (*Game, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	catalog, err := gamedata.LoadSpellCatalog()
	if err != nil {
		return nil, fmt.Errorf("loading spells: %w", err)
	}
	if cfg.Composer.DefaultBase != "" {
		if err := catalog.SetDefaultKey(cfg.Composer.DefaultBase); err != nil {
			return nil, err
		}
	}
	if err := catalog.Validate(formula.Vars{formula.VarWave: 1, formula.VarPower: 1}); err != nil {
		return nil, fmt.Errorf("validating spells: %w", err)
	}
	classes, err := gamedata.LoadClasses()
	if err != nil {
		return nil, fmt.Errorf("loading classes: %w", err)
	}
	class := gamedata.FindClass(classes, cfg.Caster.Class)
	if class == nil {
		return nil, fmt.Errorf("unknown class %q", cfg.Caster.Class)
	}
	enemies, err := gamedata.LoadEnemyRegistry()
	if err != nil {
		return nil, fmt.Errorf("loading enemies: %w", err)
	}

	g := &Game{
		cfg:     cfg,
		clock:   clock,
		rng:     rand.New(rand.NewSource(cfg.Seed)),
		arena:   world.NewArena(cfg.Arena.Width, cfg.Arena.Height, cfg.Arena.HitRadius),
		events:  event.NewDispatcher(),
		catalog: catalog,
		enemies: enemies,
	}
	g.wave.Store(1)

	env := &spell.Env{Projectiles: g.arena, Space: g.arena, World: g, Slows: g.arena, Events: g.events}
	g.composer = spell.NewComposer(catalog, env, rand.New(rand.NewSource(cfg.Seed+1)),
		spell.WithMaxAttempts(cfg.Composer.MaxAttempts),
		spell.WithMaxModifiers(cfg.Composer.MaxModifiers),
	)

	g.handle = lifecycle.New(ctx, cfg.Caster.Name, clock)
	g.player, err = entity.NewPlayer(cfg.Caster.Name, class, g.handle, geom.V(2, cfg.Arena.Height/2), g.Wave(),
		caster.WithEvents(g.events),
		caster.WithRegenPeriod(cfg.Caster.RegenPeriod),
	)
	if err != nil {
		g.handle.Close()
		return nil, err
	}

	if err := g.equipRelics(cfg.Caster.Relics); err != nil {
		g.Close()
		return nil, err
	}

	g.player.Loadout.Add(g.composer.BuildSpecific(class.StartingSpell, g.player, nil))
	for i := 1; i < caster.LoadoutSize; i++ {
		g.player.Loadout.Add(g.composer.Build(ctx, g.player))
	}
	g.subscribe()
	g.spawnEnemies()
	return g, nil
}

// equipRelics equips the named relics on the player.
func (g *Game) equipRelics(ids []string) error {
	g.relics = relic.New(g.player, g.events, g)
	if len(ids) == 0 {
		return nil
	}
	defs, err := gamedata.LoadRelics()
	if err != nil {
		return fmt.Errorf("loading relics: %w", err)
	}
	for _, id := range ids {
		def := gamedata.FindRelic(defs, id)
		if def == nil {
			return fmt.Errorf("unknown relic %q", id)
		}
		if err := g.relics.Equip(*def); err != nil {
			return err
		}
	}
	slog.Info("relics equipped", "relics", g.relics.Equipped())
	return nil
}

// Wave returns the current wave number.
func (g *Game) Wave() int { return int(g.wave.Load()) }

// Relics returns the player's relics.
func (g *Game) Relics() *relic.Manager { return g.relics }

// Player returns the player.
func (g *Game) Player() *entity.Player { return g.player }

// Arena returns the arena.
func (g *Game) Arena() *world.Arena { return g.arena }

// Events returns the game's event bus.
func (g *Game) Events() *event.Dispatcher { return g.events }

// Stats returns the running totals.
func (g *Game) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stats
}

// Log returns the most recent combat messages, oldest first.
func (g *Game) Log() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.log))
	copy(out, g.log)
	return out
}

func (g *Game) subscribe() {
	g.events.Subscribe(event.TypeSpellCast, event.ListenerFunc(func(e event.Event) {
		cast := e.Data.(event.SpellCast)
		g.mu.Lock()
		defer g.mu.Unlock()
		g.stats.Casts++
		g.addLog(fmt.Sprintf("%s casts %s", cast.Caster, cast.Spell))
	}))
	g.events.Subscribe(event.TypeDamageDealt, event.ListenerFunc(func(e event.Event) {
		dealt := e.Data.(event.DamageDealt)
		g.mu.Lock()
		defer g.mu.Unlock()
		g.stats.Damage += dealt.Amount
		g.addLog(fmt.Sprintf("%s hits %s for %d %s", dealt.Spell, dealt.Target, dealt.Amount, dealt.Type))
	}))
	g.events.Subscribe(event.TypeEnemyKilled, event.ListenerFunc(func(e event.Event) {
		killed := e.Data.(event.EnemyKilled)
		g.mu.Lock()
		defer g.mu.Unlock()
		g.stats.Kills++
		g.addLog(fmt.Sprintf("%s dies", killed.Target))
	}))
}

// addLog appends msg to the message log. Callers hold g.mu.
func (g *Game) addLog(msg string) {
	g.log = append(g.log, msg)
	if len(g.log) > maxLog {
		g.log = g.log[len(g.log)-maxLog:]
	}
}

// spawnEnemies tops the arena up to the configured number of enemies.
func (g *Game) spawnEnemies() {
	alive := len(g.arena.Bodies())
	for i := alive; i < g.cfg.Arena.Dummies; i++ {
		def := g.enemies.SpawnRandom(g.rng)
		if def == nil {
			return
		}
		pos := geom.V(
			g.cfg.Arena.Width*(0.6+0.35*g.rng.Float64()),
			g.cfg.Arena.Height*g.rng.Float64(),
		)
		enemy, err := entity.NewEnemyFromDef(def, pos, g.Wave())
		if err != nil {
			slog.Error("enemy spawn failed", "enemy", def.ID, "error", err)
			continue
		}
		g.arena.AddBody(enemy)
	}
}

// nearestEnemy returns the closest living enemy to the player, or nil.
func (g *Game) nearestEnemy() world.Body {
	from := g.player.Position()
	var nearest world.Body
	best := -1.0
	for _, b := range g.arena.Bodies() {
		if !combat.IsHostile(combat.TeamPlayer, b) {
			continue
		}
		if d := b.Position().Dist(from); best < 0 || d < best {
			nearest, best = b, d
		}
	}
	return nearest
}

// Tick advances the game by dt: the player casts at the nearest enemy,
// enemies walk, projectiles fly and the dead are replaced.
func (g *Game) Tick(ctx context.Context, dt time.Duration) {
	ctx, span := telemetry.Tracer("sim").Start(ctx, "sim.tick")
	defer span.End()

	if target := g.nearestEnemy(); target != nil {
		result := g.player.TryCast(ctx, g.player.Position(), target.Position())
		if !result.OK {
			g.mu.Lock()
			g.stats.Denied++
			g.mu.Unlock()
			if result.Reason == caster.DenyCooldown || result.Reason == caster.DenyInsufficientMana {
				g.cycleSpell()
			}
		}
	}

	playerPos := g.player.Position()
	for _, b := range g.arena.Bodies() {
		e, ok := b.(*entity.Enemy)
		if !ok || e.Position().Dist(playerPos) <= keepDistance {
			continue
		}
		e.MoveToward(playerPos, dt.Seconds())
	}

	stats := g.arena.Step(ctx, dt)
	if removed := g.arena.PruneDead(); removed > 0 {
		g.spawnEnemies()
	}
	span.SetAttributes(
		attribute.Int("sim.wave", g.Wave()),
		attribute.Int("sim.hits", stats.Hits),
	)
}

// cycleSpell selects the next loadout slot.
func (g *Game) cycleSpell() {
	slots := len(g.player.Loadout.Slots())
	if slots < 2 {
		return
	}
	next := (g.player.Loadout.Selected() + 1) % slots
	if err := g.player.Loadout.Select(next); err != nil {
		slog.Warn("select spell failed", "slot", next, "error", err)
	}
}

// AdvanceWave moves to the next wave, re-evaluates the player's stats and
// rerolls the last loadout slot.
func (g *Game) AdvanceWave(ctx context.Context) error {
	wave := int(g.wave.Add(1))
	if err := g.player.ApplyWave(wave); err != nil {
		return err
	}
	if err := g.Reroll(ctx, len(g.player.Loadout.Slots())-1); err != nil {
		return err
	}
	g.mu.Lock()
	g.addLog(fmt.Sprintf("wave %d begins", wave))
	g.mu.Unlock()
	g.events.Dispatch(event.Event{Type: event.TypeWaveStarted, Data: event.WaveStarted{Wave: wave}})
	slog.Info("wave started", "wave", wave)
	return nil
}

// Reroll replaces the spell in slot with a freshly composed one.
func (g *Game) Reroll(ctx context.Context, slot int) error {
	return g.player.Loadout.Replace(slot, g.composer.Build(ctx, g.player))
}

// Run drives the game on the configured tick until ctx ends or the
// configured duration elapses. It closes the player's lifetime on return.
func (g *Game) Run(ctx context.Context) error {
	defer g.Close()

	if !g.player.StartRegeneration() {
		return lifecycle.ErrClosed
	}

	tick := g.clock.NewTicker(g.cfg.Tick)
	defer tick.Stop()

	var waves <-chan time.Time
	if g.cfg.Arena.WaveEvery > 0 {
		waveTicker := g.clock.NewTicker(g.cfg.Arena.WaveEvery)
		defer waveTicker.Stop()
		waves = waveTicker.Chan()
	}

	var deadline <-chan time.Time
	if g.cfg.Duration > 0 {
		deadline = g.clock.After(g.cfg.Duration)
	}

	slog.Info("simulation started", "class", g.player.Class.ID, "seed", g.cfg.Seed, "tick", g.cfg.Tick)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-deadline:
			slog.Info("simulation finished", "stats", g.Stats())
			return nil
		case <-waves:
			if err := g.AdvanceWave(ctx); err != nil {
				return err
			}
		case <-tick.Chan():
			g.Tick(ctx, g.cfg.Tick)
		}
	}
}

// Close ends the player's lifetime, stopping regeneration, pending casts and
// relics.
func (g *Game) Close() {
	if g.relics != nil {
		g.relics.Close()
	}
	g.handle.Close()
}
