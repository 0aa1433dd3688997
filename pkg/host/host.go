// Package host defines the contract between the reconciler and the tree it
// keeps in sync. Adapters live in subpackages: memory for tests and tools,
// term for terminals.
package host

// Node is an opaque handle to one node of the host tree. Only the adapter
// that created a node knows its concrete type.
type Node any

// Adapter creates and mutates host nodes. The reconciler calls it only from
// its own thread: during node creation in a unit of work, and during
// commit.
type Adapter interface {
	CreateNode(tag string) (Node, error)
	CreateTextNode() (Node, error)
	SetAttribute(n Node, key string, value any) error
	RemoveAttribute(n Node, key string) error
	AddEventListener(n Node, event string, handler any) error
	RemoveEventListener(n Node, event string, handler any) error
	AppendChild(parent, child Node) error
	RemoveChild(parent, child Node) error
}

// Event is the payload adapters pass to listeners. Data is adapter
// specific (a key press for term, whatever the caller supplied for memory).
type Event struct {
	Type   string
	Target Node
	Data   any
}

// Invoke calls handler with ev when handler has one of the supported
// listener shapes: func(Event), func(any) or func(). It reports whether the
// handler was called.
func Invoke(handler any, ev Event) bool {
	switch h := handler.(type) {
	case func(Event):
		h(ev)
	case func(any):
		h(ev.Data)
	case func():
		h()
	default:
		return false
	}
	return true
}
