package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/samdwyer/spellforge/internal/combat"
	"github.com/samdwyer/spellforge/internal/entity"
	"github.com/samdwyer/spellforge/internal/sim"
	"github.com/samdwyer/spellforge/internal/spell"
)

// Renderer handles drawing the game to the screen.
type Renderer struct {
	screen *Screen
}

// NewRenderer creates a new renderer for the given screen.
func NewRenderer(screen *Screen) *Renderer {
	return &Renderer{screen: screen}
}

// Render draws the arena with the HUD below it.
func (r *Renderer) Render(g *sim.Game) {
	r.screen.Clear()

	arena := g.Arena()
	border := tcell.StyleDefault.Foreground(tcell.ColorDarkGray)
	width, height := int(arena.Width), int(arena.Height)
	for x := 0; x <= width+1; x++ {
		r.screen.SetContent(x, 0, '-', border)
		r.screen.SetContent(x, height+1, '-', border)
	}

	for _, b := range arena.Bodies() {
		e, ok := b.(*entity.Enemy)
		if !ok || !e.IsAlive() {
			continue
		}
		pos := e.Position()
		r.screen.SetContent(int(pos.X)+1, int(pos.Y)+1, e.Symbol, tcell.StyleDefault.Foreground(e.Color()))
	}

	for _, p := range arena.Projectiles() {
		style := tcell.StyleDefault.Foreground(tcell.ColorYellow)
		if p.Team == combat.TeamEnemy {
			style = style.Foreground(tcell.ColorRed)
		}
		r.screen.SetContent(int(p.Position.X)+1, int(p.Position.Y)+1, '*', style)
	}

	player := g.Player()
	pos := player.Position()
	r.screen.SetContent(int(pos.X)+1, int(pos.Y)+1, player.Symbol,
		tcell.StyleDefault.Foreground(player.Color()).Bold(true))

	r.renderHUD(g, height+2)
	r.screen.Show()
}

func (r *Renderer) renderHUD(g *sim.Game, y int) {
	player := g.Player()
	white := tcell.StyleDefault.Foreground(tcell.ColorWhite)

	hp, maxHP := player.HP()
	mana, maxMana := player.Mana()
	stats := g.Stats()
	r.screen.DrawText(0, y, fmt.Sprintf("Wave %d  %s the %s  HP %d/%d  Mana %d/%d  Power %d",
		g.Wave(), player.GetName(), player.Class.Name, hp, maxHP, mana, maxMana, player.SpellPower()), white)
	r.screen.DrawText(0, y+1, fmt.Sprintf("Casts %d  Denied %d  Damage %d  Kills %d",
		stats.Casts, stats.Denied, stats.Damage, stats.Kills), white)

	selected := player.Loadout.Selected()
	for i, s := range player.Loadout.Slots() {
		style := tcell.StyleDefault.Foreground(spellColor(s))
		marker := "  "
		if i == selected {
			marker = "> "
			style = style.Bold(true)
		}
		ready := ""
		if !s.IsReady() {
			ready = " (cooling)"
		}
		r.screen.DrawText(0, y+3+i, fmt.Sprintf("%s%d %s%s", marker, i+1, s.GetName(), ready), style)
	}

	logY := y + 4 + len(player.Loadout.Slots())
	for i, msg := range g.Log() {
		r.RenderMessage(msg, logY+i)
	}
}

// spellColor is the display color of a spell's base template.
func spellColor(s spell.Spell) tcell.Color {
	chain := spell.Chain(s)
	return chain[len(chain)-1].Template().TemplateColor()
}

// RenderMessage displays a message at the given row.
func (r *Renderer) RenderMessage(msg string, y int) {
	style := tcell.StyleDefault.Foreground(tcell.ColorGray)
	r.screen.DrawText(0, y, msg, style)
}
