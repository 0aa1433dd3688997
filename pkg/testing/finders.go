package testing

import (
	"fmt"
	"slices"
	"strings"

	"github.com/go-drift/fiber/pkg/host/memory"
)

// Finder locates nodes in the host tree.
type Finder interface {
	// Evaluate returns all matching nodes under root (depth-first pre-order).
	Evaluate(root *memory.Node) []*memory.Node
	// Description returns a human-readable description for error messages.
	Description() string
}

// FinderResult wraps finder results with convenient accessors.
type FinderResult struct {
	nodes  []*memory.Node
	finder Finder
}

// First returns the first match. Panics if no matches.
func (r FinderResult) First() *memory.Node {
	if len(r.nodes) == 0 {
		panic(fmt.Sprintf("Finder found no nodes: %s", r.describe()))
	}
	return r.nodes[0]
}

// FirstOrNil returns the first match, or nil if none.
func (r FinderResult) FirstOrNil() *memory.Node {
	if len(r.nodes) == 0 {
		return nil
	}
	return r.nodes[0]
}

// At returns the match at index. Panics if out of range.
func (r FinderResult) At(index int) *memory.Node {
	if index < 0 || index >= len(r.nodes) {
		panic(fmt.Sprintf("Finder index %d out of range (found %d): %s", index, len(r.nodes), r.describe()))
	}
	return r.nodes[index]
}

// All returns all matches in traversal order.
func (r FinderResult) All() []*memory.Node {
	return r.nodes
}

// Count returns the number of matches.
func (r FinderResult) Count() int {
	return len(r.nodes)
}

// Exists returns true if at least one match was found.
func (r FinderResult) Exists() bool {
	return len(r.nodes) > 0
}

// Text returns the text content of the first match. Panics if no matches.
func (r FinderResult) Text() string {
	return r.First().TextContent()
}

func (r FinderResult) describe() string {
	if r.finder == nil {
		return "unknown"
	}
	return r.finder.Description()
}

type predicateFinder struct {
	fn   func(*memory.Node) bool
	desc string
}

func (f *predicateFinder) Evaluate(root *memory.Node) []*memory.Node {
	return collectMatches(root, f.fn)
}

func (f *predicateFinder) Description() string {
	return f.desc
}

// ByTag returns a finder that matches element nodes with the given tag.
func ByTag(tag string) Finder {
	return &predicateFinder{
		fn:   func(n *memory.Node) bool { return !n.IsText() && n.Tag == tag },
		desc: fmt.Sprintf("ByTag(%q)", tag),
	}
}

// ByText returns a finder that matches element nodes whose own text
// children concatenate to exactly text. Events dispatched to the match
// start at the element that holds the text.
func ByText(text string) Finder {
	return &predicateFinder{
		fn:   func(n *memory.Node) bool { return !n.IsText() && ownText(n) == text && hasTextChild(n) },
		desc: fmt.Sprintf("ByText(%q)", text),
	}
}

// ByTextContaining returns a finder that matches element nodes whose own
// text contains substring.
func ByTextContaining(substring string) Finder {
	return &predicateFinder{
		fn: func(n *memory.Node) bool {
			return !n.IsText() && hasTextChild(n) && strings.Contains(ownText(n), substring)
		},
		desc: fmt.Sprintf("ByTextContaining(%q)", substring),
	}
}

// ByAttr returns a finder that matches nodes whose attribute key formats
// to value.
func ByAttr(key string, value any) Finder {
	want := fmt.Sprint(value)
	return &predicateFinder{
		fn: func(n *memory.Node) bool {
			v, ok := n.Attr(key)
			return ok && fmt.Sprint(v) == want
		},
		desc: fmt.Sprintf("ByAttr(%s=%q)", key, want),
	}
}

// ByListener returns a finder that matches nodes listening for event.
func ByListener(event string) Finder {
	return &predicateFinder{
		fn:   func(n *memory.Node) bool { return n.ListenerCount(event) > 0 },
		desc: fmt.Sprintf("ByListener(%q)", event),
	}
}

// ByPredicate returns a finder that matches nodes satisfying fn.
func ByPredicate(fn func(*memory.Node) bool) Finder {
	return &predicateFinder{fn: fn, desc: "ByPredicate(...)"}
}

// descendantFinder finds nodes matching 'matching' that are descendants
// of nodes matching 'of'.
type descendantFinder struct {
	of       Finder
	matching Finder
}

func (f *descendantFinder) Evaluate(root *memory.Node) []*memory.Node {
	var results []*memory.Node
	for _, ancestor := range f.of.Evaluate(root) {
		for _, child := range ancestor.Children {
			for _, match := range f.matching.Evaluate(child) {
				if !slices.Contains(results, match) {
					results = append(results, match)
				}
			}
		}
	}
	return results
}

func (f *descendantFinder) Description() string {
	return fmt.Sprintf("Descendant(of: %s, matching: %s)", f.of.Description(), f.matching.Description())
}

// Descendant returns a finder that matches nodes satisfying 'matching'
// that are descendants of nodes matching 'of'.
func Descendant(of, matching Finder) Finder {
	return &descendantFinder{of: of, matching: matching}
}

// ancestorFinder finds nodes matching 'matching' that are ancestors of
// nodes matching 'of'.
type ancestorFinder struct {
	of       Finder
	matching Finder
}

func (f *ancestorFinder) Evaluate(root *memory.Node) []*memory.Node {
	var results []*memory.Node
	for _, candidate := range f.matching.Evaluate(root) {
		for _, desc := range f.of.Evaluate(root) {
			if desc != candidate && isAncestorOf(candidate, desc) {
				results = append(results, candidate)
				break
			}
		}
	}
	return results
}

func (f *ancestorFinder) Description() string {
	return fmt.Sprintf("Ancestor(of: %s, matching: %s)", f.of.Description(), f.matching.Description())
}

// Ancestor returns a finder that matches nodes satisfying 'matching' that
// are ancestors of nodes matching 'of'.
func Ancestor(of, matching Finder) Finder {
	return &ancestorFinder{of: of, matching: matching}
}

func isAncestorOf(ancestor, node *memory.Node) bool {
	for p := node.Parent; p != nil; p = p.Parent {
		if p == ancestor {
			return true
		}
	}
	return false
}

func collectMatches(root *memory.Node, predicate func(*memory.Node) bool) []*memory.Node {
	var results []*memory.Node
	root.Walk(func(n *memory.Node) bool {
		if predicate(n) {
			results = append(results, n)
		}
		return true
	})
	return results
}

func ownText(n *memory.Node) string {
	var sb strings.Builder
	for _, c := range n.Children {
		if c.IsText() {
			sb.WriteString(c.Text)
		}
	}
	return sb.String()
}

func hasTextChild(n *memory.Node) bool {
	return slices.ContainsFunc(n.Children, (*memory.Node).IsText)
}
