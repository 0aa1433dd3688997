package memory

import (
	"fmt"
	"slices"
	"strings"
)

// TextTag is the tag reported by text nodes.
const TextTag = "#text"

// Node is one node of the in-memory host tree.
type Node struct {
	ID       int
	Tag      string
	Text     string
	Attrs    map[string]any
	Parent   *Node
	Children []*Node

	listeners map[string][]any
}

// IsText reports whether n is a text node.
func (n *Node) IsText() bool {
	return n.Tag == TextTag
}

// Attr returns an attribute value.
func (n *Node) Attr(key string) (any, bool) {
	v, ok := n.Attrs[key]
	return v, ok
}

// ListenerCount returns the number of listeners registered for event.
func (n *Node) ListenerCount(event string) int {
	return len(n.listeners[event])
}

// Events returns the sorted names of events with at least one listener.
func (n *Node) Events() []string {
	var names []string
	for name, hs := range n.listeners {
		if len(hs) > 0 {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// TextContent concatenates the text of n and all its descendants.
func (n *Node) TextContent() string {
	var sb strings.Builder
	n.Walk(func(node *Node) bool {
		if node.IsText() {
			sb.WriteString(node.Text)
		}
		return true
	})
	return sb.String()
}

// Walk visits n and its descendants in pre-order. Returning false from
// visit skips the node's children.
func (n *Node) Walk(visit func(*Node) bool) {
	if !visit(n) {
		return
	}
	for _, child := range n.Children {
		child.Walk(visit)
	}
}

// String renders n as compact markup, e.g. <div class="a">hi<b>x</b></div>.
// Attributes are sorted; listeners are listed as on:event.
func (n *Node) String() string {
	var sb strings.Builder
	n.write(&sb)
	return sb.String()
}

func (n *Node) write(sb *strings.Builder) {
	if n.IsText() {
		sb.WriteString(n.Text)
		return
	}
	sb.WriteByte('<')
	sb.WriteString(n.Tag)
	for _, key := range n.attrKeys() {
		fmt.Fprintf(sb, " %s=%q", key, fmt.Sprint(n.Attrs[key]))
	}
	for _, event := range n.Events() {
		fmt.Fprintf(sb, " on:%s", event)
	}
	sb.WriteByte('>')
	for _, child := range n.Children {
		child.write(sb)
	}
	sb.WriteString("</")
	sb.WriteString(n.Tag)
	sb.WriteByte('>')
}

func (n *Node) attrKeys() []string {
	keys := make([]string, 0, len(n.Attrs))
	for key := range n.Attrs {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

func (n *Node) indexOf(child *Node) int {
	return slices.Index(n.Children, child)
}
