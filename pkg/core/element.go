package core

import (
	"fmt"
)

// Kind distinguishes the variants of Type.
type Kind int

const (
	// KindRoot is the type of the fiber that owns the host container.
	KindRoot Kind = iota
	// KindHost is a host node created from a tag.
	KindHost
	// KindText is a host text node.
	KindText
	// KindComponent is a function component that owns no host node.
	KindComponent
)

func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindHost:
		return "host"
	case KindText:
		return "text"
	case KindComponent:
		return "component"
	default:
		return "unknown"
	}
}

// Type identifies what an element renders. Types are comparable: two host
// types are equal when their tags are, two component types when they refer
// to the same *Component.
type Type struct {
	Kind      Kind
	Tag       string
	Component *Component
}

// HostType returns the type of a host node with the given tag.
func HostType(tag string) Type {
	return Type{Kind: KindHost, Tag: tag}
}

// TextType is the type of text elements.
var TextType = Type{Kind: KindText}

var rootType = Type{Kind: KindRoot}

func (t Type) String() string {
	switch t.Kind {
	case KindHost:
		return t.Tag
	case KindText:
		return "#text"
	case KindComponent:
		if t.Component != nil {
			return t.Component.Name
		}
		return "component"
	default:
		return "root"
	}
}

// Props holds an element's attributes and event handlers.
type Props map[string]any

// NodeValueKey is the prop holding a text element's value.
const NodeValueKey = "nodeValue"

// childrenKey is never treated as an attribute or event.
const childrenKey = "children"

// Element is an immutable description of one node to render. Elements are
// built fresh on every render and are never modified after construction.
type Element struct {
	Type     Type
	Props    Props
	Children []*Element
}

// RenderFunc renders a component's props to at most one element. Returning
// nil renders nothing.
type RenderFunc func(ctx *HookContext, props Props) *Element

// Component is a function component. The pointer is the component's
// identity for reconciliation.
type Component struct {
	Name   string
	Render RenderFunc
}

// NewComponent declares a function component.
func NewComponent(name string, render RenderFunc) *Component {
	return &Component{Name: name, Render: render}
}

// Type returns the element type for c.
func (c *Component) Type() Type {
	return Type{Kind: KindComponent, Component: c}
}

// H builds a host element. Children may be *Element, []*Element, nil or
// scalar values, which become text elements.
func H(tag string, props Props, children ...any) *Element {
	return &Element{Type: HostType(tag), Props: props, Children: normalizeChildren(children)}
}

// C builds a component element. The children are available to the
// component through HookContext.Children.
func C(c *Component, props Props, children ...any) *Element {
	return &Element{Type: c.Type(), Props: props, Children: normalizeChildren(children)}
}

// Text builds a text element holding fmt.Sprint(value).
func Text(value any) *Element {
	return &Element{Type: TextType, Props: Props{NodeValueKey: fmt.Sprint(value)}}
}

func normalizeChildren(children []any) []*Element {
	if len(children) == 0 {
		return nil
	}
	out := make([]*Element, 0, len(children))
	for _, child := range children {
		switch c := child.(type) {
		case nil:
		case *Element:
			if c != nil {
				out = append(out, c)
			}
		case []*Element:
			for _, el := range c {
				if el != nil {
					out = append(out, el)
				}
			}
		default:
			out = append(out, Text(c))
		}
	}
	return out
}
