package core

import (
	"strconv"
	"strings"

	"github.com/go-drift/fiber/pkg/host"
)

// EffectTag classifies the host mutation a fiber needs at commit.
type EffectTag int

const (
	EffectNone EffectTag = iota
	Placement
	Update
	Deletion
)

func (e EffectTag) String() string {
	switch e {
	case Placement:
		return "PLACEMENT"
	case Update:
		return "UPDATE"
	case Deletion:
		return "DELETION"
	default:
		return "NONE"
	}
}

// fiberID indexes a fiber in its tree's arena.
type fiberID int32

const noFiber fiberID = -1

// fiber is one unit of work. Links are arena indexes: parent, child and
// sibling point into the same tree, alternate into the tree's base.
type fiber struct {
	typ      Type
	props    Props
	children []*Element
	node     host.Node

	parent    fiberID
	child     fiberID
	sibling   fiberID
	alternate fiberID

	effect EffectTag
	hooks  []*hookCell
}

// tree is the arena for one work cycle. base is the committed tree the
// cycle diffs against; it is dropped once this tree is committed, and a
// committed tree is never relinked. deletions holds ids of base fibers
// with no counterpart in this tree.
type tree struct {
	fibers    []fiber
	base      *tree
	deletions []fiberID
}

func newTree(base *tree) *tree {
	return &tree{base: base}
}

func (t *tree) add(f fiber) fiberID {
	f.parent, f.child, f.sibling = noFiber, noFiber, noFiber
	t.fibers = append(t.fibers, f)
	return fiberID(len(t.fibers) - 1)
}

// at returns a pointer into the arena. It must not be held across add.
func (t *tree) at(id fiberID) *fiber {
	return &t.fibers[id]
}

func (t *tree) root() fiberID {
	if len(t.fibers) == 0 {
		return noFiber
	}
	return 0
}

// alternate returns the fiber's counterpart in the base tree, or nil.
func (t *tree) alternate(id fiberID) *fiber {
	alt := t.fibers[id].alternate
	if alt == noFiber || t.base == nil {
		return nil
	}
	return t.base.at(alt)
}

// hostParent returns the node of the nearest ancestor that owns one.
func (t *tree) hostParent(id fiberID) host.Node {
	for p := t.fibers[id].parent; p != noFiber; p = t.fibers[p].parent {
		if n := t.fibers[p].node; n != nil {
			return n
		}
	}
	return nil
}

// path describes a fiber's position, e.g. root/div[0]/Counter[1].
func (t *tree) path(id fiberID) string {
	var parts []string
	for cur := id; cur != noFiber; cur = t.fibers[cur].parent {
		f := &t.fibers[cur]
		if f.parent == noFiber {
			parts = append(parts, f.typ.String())
			break
		}
		parts = append(parts, f.typ.String()+"["+strconv.Itoa(t.indexOf(cur))+"]")
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}

func (t *tree) indexOf(id fiberID) int {
	parent := t.fibers[id].parent
	if parent == noFiber {
		return 0
	}
	i := 0
	for c := t.fibers[parent].child; c != noFiber && c != id; c = t.fibers[c].sibling {
		i++
	}
	return i
}

// walk visits the subtree under id in pre-order, children before siblings.
func (t *tree) walk(id fiberID, visit func(fiberID)) {
	for cur := id; cur != noFiber; cur = t.fibers[cur].sibling {
		visit(cur)
		t.walk(t.fibers[cur].child, visit)
	}
}

// FiberInfo describes a fiber for inspection and commit records.
type FiberInfo struct {
	Path   string
	Type   Type
	Effect EffectTag
	Node   host.Node
}

func (t *tree) info(id fiberID, effect EffectTag) FiberInfo {
	f := t.at(id)
	return FiberInfo{Path: t.path(id), Type: f.typ, Effect: effect, Node: f.node}
}
