// Package memory implements an in-memory host tree. Every mutation the
// reconciler performs is applied to plain Go nodes and appended to a log,
// which makes the package the reference adapter for tests and tracing.
package memory

import (
	"errors"
	"fmt"
	"reflect"
	"slices"

	"github.com/go-drift/fiber/pkg/host"
)

// Errors returned by Host methods.
var (
	ErrForeignNode = errors.New("memory: node was not created by this host")
	ErrNotChild    = errors.New("memory: node is not a child of parent")
)

// Op identifies a host mutation.
type Op int

const (
	OpCreate Op = iota
	OpCreateText
	OpSetAttr
	OpRemoveAttr
	OpAddListener
	OpRemoveListener
	OpAppend
	OpRemove
)

func (o Op) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpCreateText:
		return "create-text"
	case OpSetAttr:
		return "set"
	case OpRemoveAttr:
		return "unset"
	case OpAddListener:
		return "listen"
	case OpRemoveListener:
		return "unlisten"
	case OpAppend:
		return "append"
	case OpRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Mutation is one entry of the mutation log.
type Mutation struct {
	Op     Op
	Node   int
	Parent int
	Key    string
	Value  string
}

func (m Mutation) String() string {
	switch m.Op {
	case OpCreate, OpCreateText:
		return fmt.Sprintf("%s #%d %s", m.Op, m.Node, m.Key)
	case OpSetAttr:
		return fmt.Sprintf("%s #%d %s=%q", m.Op, m.Node, m.Key, m.Value)
	case OpRemoveAttr, OpAddListener, OpRemoveListener:
		return fmt.Sprintf("%s #%d %s", m.Op, m.Node, m.Key)
	case OpAppend, OpRemove:
		return fmt.Sprintf("%s #%d -> #%d", m.Op, m.Node, m.Parent)
	default:
		return m.Op.String()
	}
}

// Host is an in-memory host.Adapter. It is not safe for concurrent use.
type Host struct {
	nextID int
	log    []Mutation

	// Fail, when set, is consulted before every mutation; a non-nil
	// result aborts the mutation and is returned to the caller.
	Fail func(Mutation) error
}

var _ host.Adapter = (*Host)(nil)

// New creates an empty host.
func New() *Host {
	return &Host{}
}

// NewContainer creates a detached node to mount a tree into. Containers are
// not recorded in the mutation log.
func (h *Host) NewContainer(tag string) *Node {
	return h.newNode(tag)
}

func (h *Host) newNode(tag string) *Node {
	h.nextID++
	return &Node{ID: h.nextID, Tag: tag}
}

func (h *Host) record(m Mutation) error {
	if h.Fail != nil {
		if err := h.Fail(m); err != nil {
			return err
		}
	}
	h.log = append(h.log, m)
	return nil
}

// Log returns a copy of the mutation log.
func (h *Host) Log() []Mutation {
	out := make([]Mutation, len(h.log))
	copy(out, h.log)
	return out
}

// ResetLog clears the mutation log.
func (h *Host) ResetLog() {
	h.log = nil
}

// Count returns how many logged mutations have the given op.
func (h *Host) Count(op Op) int {
	n := 0
	for _, m := range h.log {
		if m.Op == op {
			n++
		}
	}
	return n
}

// CreateNode creates an element node.
func (h *Host) CreateNode(tag string) (host.Node, error) {
	if tag == "" {
		return nil, fmt.Errorf("memory: empty tag")
	}
	if err := h.record(Mutation{Op: OpCreate, Node: h.nextID + 1, Key: tag}); err != nil {
		return nil, err
	}
	return h.newNode(tag), nil
}

// CreateTextNode creates an empty text node.
func (h *Host) CreateTextNode() (host.Node, error) {
	if err := h.record(Mutation{Op: OpCreateText, Node: h.nextID + 1, Key: TextTag}); err != nil {
		return nil, err
	}
	return h.newNode(TextTag), nil
}

// SetAttribute assigns an attribute. On text nodes the nodeValue key sets
// the node's text.
func (h *Host) SetAttribute(n host.Node, key string, value any) error {
	node, err := asNode(n)
	if err != nil {
		return err
	}
	if err := h.record(Mutation{Op: OpSetAttr, Node: node.ID, Key: key, Value: fmt.Sprint(value)}); err != nil {
		return err
	}
	if node.IsText() && key == "nodeValue" {
		node.Text = fmt.Sprint(value)
		return nil
	}
	if node.Attrs == nil {
		node.Attrs = make(map[string]any)
	}
	node.Attrs[key] = value
	return nil
}

// RemoveAttribute clears an attribute.
func (h *Host) RemoveAttribute(n host.Node, key string) error {
	node, err := asNode(n)
	if err != nil {
		return err
	}
	if err := h.record(Mutation{Op: OpRemoveAttr, Node: node.ID, Key: key}); err != nil {
		return err
	}
	if node.IsText() && key == "nodeValue" {
		node.Text = ""
		return nil
	}
	delete(node.Attrs, key)
	return nil
}

// AddEventListener registers handler for event on n.
func (h *Host) AddEventListener(n host.Node, event string, handler any) error {
	node, err := asNode(n)
	if err != nil {
		return err
	}
	if err := h.record(Mutation{Op: OpAddListener, Node: node.ID, Key: event}); err != nil {
		return err
	}
	if node.listeners == nil {
		node.listeners = make(map[string][]any)
	}
	node.listeners[event] = append(node.listeners[event], handler)
	return nil
}

// RemoveEventListener unregisters the first listener for event that
// matches handler. Function handlers match by code pointer.
func (h *Host) RemoveEventListener(n host.Node, event string, handler any) error {
	node, err := asNode(n)
	if err != nil {
		return err
	}
	if err := h.record(Mutation{Op: OpRemoveListener, Node: node.ID, Key: event}); err != nil {
		return err
	}
	handlers := node.listeners[event]
	for i, existing := range handlers {
		if sameHandler(existing, handler) {
			node.listeners[event] = append(handlers[:i:i], handlers[i+1:]...)
			break
		}
	}
	return nil
}

// AppendChild moves child to the end of parent's children.
func (h *Host) AppendChild(parent, child host.Node) error {
	p, err := asNode(parent)
	if err != nil {
		return err
	}
	c, err := asNode(child)
	if err != nil {
		return err
	}
	if err := h.record(Mutation{Op: OpAppend, Node: c.ID, Parent: p.ID}); err != nil {
		return err
	}
	if c.Parent != nil {
		c.Parent.detach(c)
	}
	c.Parent = p
	p.Children = append(p.Children, c)
	return nil
}

// RemoveChild detaches child from parent.
func (h *Host) RemoveChild(parent, child host.Node) error {
	p, err := asNode(parent)
	if err != nil {
		return err
	}
	c, err := asNode(child)
	if err != nil {
		return err
	}
	if p.indexOf(c) < 0 {
		return fmt.Errorf("%w: #%d in #%d", ErrNotChild, c.ID, p.ID)
	}
	if err := h.record(Mutation{Op: OpRemove, Node: c.ID, Parent: p.ID}); err != nil {
		return err
	}
	p.detach(c)
	return nil
}

func (n *Node) detach(child *Node) {
	if i := n.indexOf(child); i >= 0 {
		n.Children = append(n.Children[:i:i], n.Children[i+1:]...)
	}
	child.Parent = nil
}

// Dispatch delivers an event to target and then to each ancestor, calling
// every listener registered for the event name. It returns the number of
// listeners invoked.
func (h *Host) Dispatch(target *Node, event string, data any) int {
	calls := 0
	ev := host.Event{Type: event, Target: target, Data: data}
	for n := target; n != nil; n = n.Parent {
		for _, handler := range slices.Clone(n.listeners[event]) {
			if host.Invoke(handler, ev) {
				calls++
			}
		}
	}
	return calls
}

// Broadcast delivers an event to every node under root, in pre-order,
// that has a listener for it. It returns the number of listeners invoked.
func (h *Host) Broadcast(root *Node, event string, data any) int {
	var targets []*Node
	root.Walk(func(n *Node) bool {
		if n.ListenerCount(event) > 0 {
			targets = append(targets, n)
		}
		return true
	})
	calls := 0
	for _, n := range targets {
		ev := host.Event{Type: event, Target: n, Data: data}
		for _, handler := range slices.Clone(n.listeners[event]) {
			if host.Invoke(handler, ev) {
				calls++
			}
		}
	}
	return calls
}

func asNode(n host.Node) (*Node, error) {
	node, ok := n.(*Node)
	if !ok || node == nil {
		return nil, fmt.Errorf("%w: %T", ErrForeignNode, n)
	}
	return node, nil
}

func sameHandler(a, b any) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !va.IsValid() || !vb.IsValid() {
		return !va.IsValid() && !vb.IsValid()
	}
	if va.Type() != vb.Type() {
		return false
	}
	if va.Kind() == reflect.Func {
		return va.Pointer() == vb.Pointer()
	}
	if va.Type().Comparable() {
		return a == b
	}
	return false
}
