// Package demo holds the sample component tree used by the fiber CLI.
package demo

import (
	"github.com/go-drift/fiber/pkg/core"
	"github.com/go-drift/fiber/pkg/host/term"
)

// Palette is the list of colors the swatch cycles through.
var Palette = []string{"red", "green", "blue", "yellow", "fuchsia", "aqua"}

// App is the root of the demo. An optional "quit" prop of type func() is
// called when q or Esc is pressed.
var App = core.NewComponent("App", func(ctx *core.HookContext, props core.Props) *core.Element {
	quit, _ := props["quit"].(func())
	onKey := func(data any) {
		k, ok := data.(term.Key)
		if ok && quit != nil && (k.Rune == 'q' || k.Name == "Esc") {
			quit()
		}
	}
	return core.H("main", core.Props{"onKey": onKey},
		core.H("h1", core.Props{"bold": true}, "fiber demo"),
		core.C(Counter, core.Props{"label": "clicks"}),
		core.C(Swatch, nil),
		core.H("p", core.Props{"fg": "gray"}, "+/- count, c color, q quit"),
	)
})

// Counter shows a number with buttons to change it. A reset button appears
// while the number is not zero.
var Counter = core.NewComponent("Counter", func(ctx *core.HookContext, props core.Props) *core.Element {
	n, set := core.UseState(ctx, 0)
	label, _ := props["label"].(string)
	step, ok := props["step"].(int)
	if !ok {
		step = 1
	}

	inc := func() { set.Update(func(n int) int { return n + step }) }
	dec := func() { set.Update(func(n int) int { return n - step }) }
	onKey := func(data any) {
		switch k, _ := data.(term.Key); k.Rune {
		case '+', '=':
			inc()
		case '-':
			dec()
		}
	}

	var reset *core.Element
	if n != 0 {
		reset = core.H("button", core.Props{"id": "reset", "onClick": func() { set.Set(0) }}, "reset")
	}
	return core.H("div", core.Props{"onKey": onKey},
		core.H("span", nil, label, ": "),
		core.H("span", core.Props{"fg": "yellow", "id": "count"}, n),
		" ",
		core.H("button", core.Props{"id": "inc", "onClick": inc}, "+"),
		" ",
		core.H("button", core.Props{"id": "dec", "onClick": dec}, "-"),
		reset,
	)
})

// Swatch shows the current palette color.
var Swatch = core.NewComponent("Swatch", func(ctx *core.HookContext, props core.Props) *core.Element {
	i, set := core.UseState(ctx, 0)
	next := func() { set.Update(func(i int) int { return (i + 1) % len(Palette) }) }
	onKey := func(data any) {
		if k, _ := data.(term.Key); k.Rune == 'c' {
			next()
		}
	}
	color := Palette[i]
	return core.H("div", core.Props{"onKey": onKey},
		core.H("span", core.Props{"bg": color, "fg": "black", "id": "swatch"}, " ", color, " "),
		" ",
		core.H("button", core.Props{"id": "color", "onClick": next}, "next color"),
	)
})

// Element returns the demo tree, wiring quit to the App.
func Element(quit func()) *core.Element {
	props := core.Props{}
	if quit != nil {
		props["quit"] = quit
	}
	return core.C(App, props)
}
