// Package core implements an incremental reconciler for declarative element
// trees.
//
// An Element describes what a part of the host tree should look like: a
// host tag with attributes, a text value, or a function Component that
// renders to another element. A Root owns one mounted tree. Render asks for
// a new tree; the Root then builds a work-in-progress fiber tree in small
// units of work, each run during an idle slice supplied by an
// idle.Scheduler, and diffs it position by position against the last
// committed tree. Once the whole tree is built, every host mutation is
// applied in one commit and the new tree becomes the baseline for the next
// render.
//
// # Elements
//
//	el := core.H("div", core.Props{"class": "card"},
//	    core.H("h1", nil, "Count: ", count),
//	    core.C(Button, core.Props{"onClick": inc}),
//	)
//
// Scalar children are converted to text elements. Props whose key starts
// with the event prefix ("on" by default) followed by an upper-case letter
// are registered as listeners under the lower-cased remainder ("onClick"
// listens for "click"); every other prop is a host attribute.
//
// # Components and state
//
// A Component is a named render function. Its identity is the *Component
// pointer, so declare components once at package level:
//
//	var Counter = core.NewComponent("Counter", func(ctx *core.HookContext, props core.Props) *core.Element {
//	    count, set := core.UseState(ctx, 0)
//	    return core.H("button", core.Props{
//	        "onClick": func() { set.Update(func(n int) int { return n + 1 }) },
//	    }, "Count: ", count)
//	})
//
// Hook state is matched to hook calls by position. A component must call
// the same hooks in the same order on every render; conditional hooks
// silently pair state with the wrong call.
//
// # Matching
//
// Children are matched by index only. An element whose type equals the
// previous fiber's type at the same index updates that fiber in place;
// otherwise the old fiber is deleted and a new one placed. Reordering a
// list therefore replaces the moved subtrees.
package core
