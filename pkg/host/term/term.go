// Package term is a host adapter that draws the host tree on a terminal
// through tcell and turns terminal input into events.
//
// Nodes are kept in an in-memory tree (see package memory); Draw lays the
// tree out as lines of text. Block tags start on a new line, everything
// else flows inline. Buttons are drawn in brackets. The attributes fg and
// bg take tcell color names or #rrggbb values; bold, underline and reverse
// take booleans.
package term

import (
	"context"

	"github.com/gdamore/tcell/v2"

	"github.com/go-drift/fiber/pkg/host"
	"github.com/go-drift/fiber/pkg/host/memory"
)

// Key is the data passed to "key" listeners.
type Key struct {
	// Name is the tcell key name for special keys ("Enter", "Esc",
	// "Up"...); empty for printable runes.
	Name string
	Rune rune
	Mod  tcell.ModMask
}

// Click is the data passed to "click" listeners.
type Click struct {
	X, Y int
}

// Host draws an in-memory node tree on a tcell screen. Like every host it
// must only be used from the scheduler's goroutine; Listen hands events to
// that goroutine.
type Host struct {
	*memory.Host
	screen    tcell.Screen
	container *memory.Node
	boxes     []box
	draws     int
}

var _ host.Adapter = (*Host)(nil)

// New creates a host drawing on screen, which must already be initialized.
func New(screen tcell.Screen) *Host {
	mem := memory.New()
	return &Host{
		Host:      mem,
		screen:    screen,
		container: mem.NewContainer("screen"),
	}
}

// Container returns the node to render into.
func (h *Host) Container() *memory.Node {
	return h.container
}

// Screen returns the underlying screen.
func (h *Host) Screen() tcell.Screen {
	return h.screen
}

// Draws returns how many times the tree has been drawn.
func (h *Host) Draws() int {
	return h.draws
}

// HandleEvent routes a terminal event into the tree and reports whether
// any listener ran. Keys are broadcast to every "key" listener, a primary
// button press is dispatched as "click" to the innermost node under the
// pointer, and a resize redraws the screen.
func (h *Host) HandleEvent(ev tcell.Event) bool {
	switch e := ev.(type) {
	case *tcell.EventKey:
		return h.Broadcast(h.container, "key", keyOf(e)) > 0
	case *tcell.EventMouse:
		if e.Buttons()&tcell.Button1 == 0 {
			return false
		}
		x, y := e.Position()
		target := h.NodeAt(x, y)
		if target == nil {
			return false
		}
		return h.Dispatch(target, "click", Click{X: x, Y: y}) > 0
	case *tcell.EventResize:
		h.screen.Sync()
		h.Draw()
	}
	return false
}

// Listen polls the screen for events until ctx is done or the screen is
// finalized, handing each to post. post must run the callback on the
// scheduler's goroutine, such as idle.Loop.Post.
func (h *Host) Listen(ctx context.Context, post func(func())) {
	events := make(chan tcell.Event)
	go func() {
		defer close(events)
		for {
			ev := h.screen.PollEvent()
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
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			post(func() { h.HandleEvent(ev) })
		}
	}
}

func keyOf(e *tcell.EventKey) Key {
	k := Key{Mod: e.Modifiers()}
	if e.Key() == tcell.KeyRune {
		k.Rune = e.Rune()
		return k
	}
	k.Name = tcell.KeyNames[e.Key()]
	return k
}
