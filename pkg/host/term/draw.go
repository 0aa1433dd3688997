package term

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/rivo/uniseg"

	"github.com/go-drift/fiber/pkg/host/memory"
)

var blockTags = map[string]bool{
	"div": true, "p": true, "section": true, "main": true, "header": true,
	"footer": true, "nav": true, "ul": true, "ol": true, "li": true,
	"h1": true, "h2": true, "h3": true, "hr": true, "br": true,
}

// box is the screen area a node was drawn into, from (x0, y0) up to but
// not including (x1, y1) in reading order.
type box struct {
	node   *memory.Node
	x0, y0 int
	x1, y1 int
}

func (b box) contains(x, y int) bool {
	switch {
	case y < b.y0 || y > b.y1:
		return false
	case b.y0 == b.y1:
		return x >= b.x0 && x < b.x1
	case y == b.y0:
		return x >= b.x0
	case y == b.y1:
		return x < b.x1
	}
	return true
}

// Draw clears the screen, lays out the tree and shows the result.
func (h *Host) Draw() {
	h.screen.Clear()
	w, ht := h.screen.Size()
	l := &layout{screen: h.screen, width: w, height: ht}
	for _, child := range h.container.Children {
		l.node(child, tcell.StyleDefault)
	}
	h.boxes = l.boxes
	h.screen.Show()
	h.draws++
}

// NodeAt returns the innermost element drawn at (x, y) by the last Draw.
func (h *Host) NodeAt(x, y int) *memory.Node {
	// Boxes are recorded children first.
	for _, b := range h.boxes {
		if b.contains(x, y) {
			return b.node
		}
	}
	return nil
}

type layout struct {
	screen        tcell.Screen
	width, height int
	x, y          int
	boxes         []box
}

func (l *layout) node(n *memory.Node, style tcell.Style) {
	if n.IsText() {
		l.text(n.Text, style)
		return
	}
	style = styleFor(n, style)
	block := blockTags[n.Tag]
	if block && l.x > 0 {
		l.newline()
	}
	x0, y0 := l.x, l.y

	switch n.Tag {
	case "hr":
		l.text(strings.Repeat("─", max(l.width, 1)), style)
	case "button":
		l.text("[", style)
		l.children(n, style)
		l.text("]", style)
	default:
		l.children(n, style)
	}

	l.boxes = append(l.boxes, box{node: n, x0: x0, y0: y0, x1: l.x, y1: l.y})
	if block && (l.x > 0 || n.Tag == "br") {
		l.newline()
	}
}

func (l *layout) children(n *memory.Node, style tcell.Style) {
	for _, child := range n.Children {
		l.node(child, style)
	}
}

func (l *layout) text(s string, style tcell.Style) {
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		runes := g.Runes()
		if runes[0] == '\n' {
			l.newline()
			continue
		}
		w := g.Width()
		if l.x > 0 && l.x+w > l.width {
			l.newline()
		}
		if l.y < l.height {
			l.screen.SetContent(l.x, l.y, runes[0], runes[1:], style)
		}
		l.x += w
	}
}

func (l *layout) newline() {
	l.x = 0
	l.y++
}

// TextWidth returns the number of terminal cells s occupies.
func TextWidth(s string) int {
	return uniseg.StringWidth(s)
}

func styleFor(n *memory.Node, style tcell.Style) tcell.Style {
	if v, ok := n.Attr("fg"); ok {
		if c, ok := parseColor(v); ok {
			style = style.Foreground(c)
		}
	}
	if v, ok := n.Attr("bg"); ok {
		if c, ok := parseColor(v); ok {
			style = style.Background(c)
		}
	}
	if flag(n, "bold") {
		style = style.Bold(true)
	}
	if flag(n, "underline") {
		style = style.Underline(true)
	}
	if flag(n, "reverse") {
		style = style.Reverse(true)
	}
	return style
}

func flag(n *memory.Node, key string) bool {
	v, ok := n.Attr(key)
	if !ok {
		return false
	}
	switch v := v.(type) {
	case bool:
		return v
	case string:
		return v == "true"
	}
	return false
}

// parseColor accepts #rrggbb values and tcell color names.
func parseColor(v any) (tcell.Color, bool) {
	s := strings.TrimSpace(fmt.Sprint(v))
	if strings.HasPrefix(s, "#") {
		c, err := colorful.Hex(s)
		if err != nil {
			return tcell.ColorDefault, false
		}
		r, g, b := c.RGB255()
		return tcell.NewRGBColor(int32(r), int32(g), int32(b)), true
	}
	c := tcell.GetColor(strings.ToLower(s))
	return c, c != tcell.ColorDefault
}
