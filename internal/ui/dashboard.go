package ui

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/jonboulle/clockwork"

	"github.com/samdwyer/spellforge/internal/sim"
)

// ErrQuit is returned by Dashboard.Run when the user quits.
var ErrQuit = errors.New("quit requested")

// DefaultRefresh is the dashboard's redraw period.
const DefaultRefresh = 100 * time.Millisecond

// Dashboard draws a running game and maps keys to loadout actions:
// 1-4 select a slot, r rerolls the selected slot, q or Esc quits.
type Dashboard struct {
	screen   *Screen
	renderer *Renderer
	game     *sim.Game
	clock    clockwork.Clock
	refresh  time.Duration
}

// NewDashboard creates a dashboard for g on screen.
func NewDashboard(screen *Screen, g *sim.Game, clock clockwork.Clock) *Dashboard {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Dashboard{
		screen:   screen,
		renderer: NewRenderer(screen),
		game:     g,
		clock:    clock,
		refresh:  DefaultRefresh,
	}
}

// Run redraws the game until ctx ends or the user quits. It closes the
// screen on return.
func (d *Dashboard) Run(ctx context.Context) error {
	defer d.screen.Close()

	events := make(chan tcell.Event)
	go func() {
		defer close(events)
		for {
			ev := d.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := d.clock.NewTicker(d.refresh)
	defer ticker.Stop()

	d.renderer.Render(d.game)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if d.handleEvent(ctx, ev) {
				return ErrQuit
			}
		case <-ticker.Chan():
			d.renderer.Render(d.game)
		}
	}
}

// handleEvent processes one terminal event and reports whether to quit.
func (d *Dashboard) handleEvent(ctx context.Context, ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		d.screen.Sync()
	case *tcell.EventKey:
		return d.handleKey(ctx, ev)
	}
	return false
}

func (d *Dashboard) handleKey(ctx context.Context, ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		loadout := d.game.Player().Loadout
		switch r := ev.Rune(); {
		case r == 'q' || r == 'Q':
			return true
		case r >= '1' && r <= '9':
			if err := loadout.Select(int(r - '1')); err != nil {
				slog.Debug("slot select ignored", "slot", r, "error", err)
			}
		case r == 'r' || r == 'R':
			if err := d.game.Reroll(ctx, loadout.Selected()); err != nil {
				slog.Warn("reroll failed", "error", err)
			}
		}
	}
	d.renderer.Render(d.game)
	return false
}
