package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gdamore/tcell/v3"
	"github.com/gdamore/tcell/v3/color"

	"github.com/zircuit-labs/zkr-go-taskbridge/task/polling"
	"github.com/zircuit-labs/zkr-go-taskbridge/xerrors/stacktrace"
)

// terminal draws an App with tcell. It implements polling.Action: every tick drains the
// pending input events, runs one frame and shows it.
type terminal struct {
	screen tcell.Screen
	app    *App
	logger *slog.Logger
	frames uint64
}

func newTerminal(app *App, logger *slog.Logger) (*terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, stacktrace.Wrap(err)
	}
	if err := screen.Init(); err != nil {
		return nil, stacktrace.Wrap(err)
	}
	screen.SetStyle(tcell.StyleDefault.Background(color.Reset).Foreground(color.Reset))
	screen.Clear()

	return &terminal{screen: screen, app: app, logger: logger}, nil
}

// Run implements polling.Action.
func (t *terminal) Run(context.Context) error {
drain:
	for {
		select {
		case ev := <-t.screen.EventQ():
			if t.handle(ev) {
				return polling.ErrStop
			}
		default:
			break drain
		}
	}

	t.frames++
	t.draw(t.app.Frame())
	return nil
}

// Cleanup implements polling.Action.
func (t *terminal) Cleanup() {
	t.screen.Fini()
	t.logger.Info("terminal closed", slog.Uint64("frames", t.frames))
}

func (t *terminal) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		t.screen.Sync()
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyCtrlC {
			return true
		}
		return t.app.Handle(convertKey(ev))
	}
	return false
}

func convertKey(ev *tcell.EventKey) Input {
	switch ev.Key() {
	case tcell.KeyEnter:
		return Input{Key: KeyEnter}
	case tcell.KeyEscape:
		return Input{Key: KeyBack}
	case tcell.KeyUp:
		return Input{Key: KeyUp}
	case tcell.KeyDown:
		return Input{Key: KeyDown}
	case tcell.KeyBackspace:
		return Input{Key: KeyBackspace}
	}
	if s := ev.Str(); s != "" {
		return Input{Key: KeyText, Text: s}
	}
	return Input{Key: KeyNone}
}

func (t *terminal) draw(v View) {
	t.screen.Clear()

	t.drawText(0, 0, tcell.StyleDefault.Foreground(color.Yellow).Bold(true), v.Title)
	for i, line := range v.Lines {
		style := tcell.StyleDefault.Foreground(color.White)
		prefix := "  "
		if i == v.Cursor {
			style = tcell.StyleDefault.Foreground(color.Green).Bold(true)
			prefix = "> "
		}
		t.drawText(0, 2+i, style, prefix+line)
	}

	_, height := t.screen.Size()
	if v.Status != "" {
		t.drawText(0, height-1, tcell.StyleDefault.Foreground(color.Red), v.Status)
	} else {
		stats := t.app.rt.Stats()
		t.drawText(0, height-1, tcell.StyleDefault.Foreground(color.Blue),
			fmt.Sprintf("jobs in flight: %d  delivered: %d  stale: %d", stats.InFlight, stats.Delivered, stats.Stale))
	}
	t.screen.Show()
}

func (t *terminal) drawText(x, y int, style tcell.Style, text string) {
	for i, r := range []rune(text) {
		t.screen.SetContent(x+i, y, r, nil, style)
	}
}
