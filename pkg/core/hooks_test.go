package core

import (
	"testing"

	"github.com/go-drift/fiber/pkg/host/memory"
)

func newCounter(renders *[]int) *Component {
	return NewComponent("Counter", func(ctx *HookContext, props Props) *Element {
		n, set := UseState(ctx, 0)
		*renders = append(*renders, n)
		return H("button", Props{
			"onClick": func() { set.Update(func(n int) int { return n + 1 }) },
		}, "count ", n)
	})
}

func TestUseState_PersistsAcrossUpdates(t *testing.T) {
	var renders []int
	tr := newTestRoot(t, Options{})
	tr.mount(t, C(newCounter(&renders), nil))

	button := tr.container.Children[0]
	created := tr.host.Count(memory.OpCreate) + tr.host.Count(memory.OpCreateText)
	tr.host.ResetLog()

	for i := 0; i < 3; i++ {
		if calls := tr.host.Dispatch(button, "click", nil); calls != 1 {
			t.Fatalf("click %d: expected 1 listener call, got %d", i, calls)
		}
		if err := tr.Flush(); err != nil {
			t.Fatal(err)
		}
	}

	if len(renders) != 4 || renders[3] != 3 {
		t.Fatalf("renders = %v, want [0 1 2 3]", renders)
	}
	if got := button.TextContent(); got != "count 3" {
		t.Errorf("TextContent() = %q", got)
	}
	if n := tr.host.Count(memory.OpCreate) + tr.host.Count(memory.OpCreateText); n != 0 {
		t.Errorf("state changes created %d nodes (initial render created %d)", n, created)
	}
	if tr.container.Children[0] != button {
		t.Error("button node should be reused")
	}
	var textSets int
	for _, m := range tr.host.Log() {
		if m.Op == memory.OpSetAttr && m.Key == NodeValueKey {
			textSets++
		}
	}
	if textSets != 3 {
		t.Errorf("expected 3 text updates, got %d in %v", textSets, tr.host.Log())
	}
}

func TestUseState_QueuedActionsApplyInOrder(t *testing.T) {
	var (
		renders []string
		setter  *Setter[string]
	)
	comp := NewComponent("Log", func(ctx *HookContext, props Props) *Element {
		s, set := UseState(ctx, "a")
		setter = set
		renders = append(renders, s)
		return Text(s)
	})

	tr := newTestRoot(t, Options{})
	tr.mount(t, C(comp, nil))

	setter.Update(func(s string) string { return s + "b" })
	setter.Set("x")
	setter.Update(func(s string) string { return s + "c" })
	if setter.Pending() != 3 {
		t.Fatalf("Pending() = %d, want 3", setter.Pending())
	}
	if err := tr.Flush(); err != nil {
		t.Fatal(err)
	}

	if got := tr.container.TextContent(); got != "xc" {
		t.Errorf("TextContent() = %q, want %q", got, "xc")
	}
	if tr.Commits() != 2 {
		t.Errorf("batched updates should commit once, got %d commits", tr.Commits())
	}
}

func TestUseState_UpdateDuringCycleRestarts(t *testing.T) {
	var (
		renders []int
		setter  *Setter[int]
	)
	comp := NewComponent("Counter", func(ctx *HookContext, props Props) *Element {
		n, set := UseState(ctx, 0)
		setter = set
		renders = append(renders, n)
		return H("span", nil, n)
	})

	tr := newTestRoot(t, Options{MaxUnitsPerSlice: 1})
	tr.mount(t, H("div", nil, C(comp, nil), H("p", nil, "tail")))

	committed := setter
	committed.Update(func(n int) int { return n + 1 })
	if err := tr.Tick(nil); err != nil {
		t.Fatal(err)
	}
	if tr.Idle() {
		t.Fatal("expected a cycle in progress")
	}

	committed.Update(func(n int) int { return n + 10 })
	if tr.wip.base != tr.current {
		t.Fatal("restart must diff against the committed tree")
	}
	if err := tr.Flush(); err != nil {
		t.Fatal(err)
	}

	if got := tr.container.TextContent(); got != "11tail" {
		t.Errorf("TextContent() = %q, want %q", got, "11tail")
	}
	if tr.Commits() != 2 {
		t.Errorf("commits = %d, want 2", tr.Commits())
	}
}

func TestUseState_ResetOnTypeChange(t *testing.T) {
	var renders []int
	counter := newCounter(&renders)
	tr := newTestRoot(t, Options{})
	tr.mount(t, H("div", nil, C(counter, nil)))

	tr.host.Dispatch(tr.container.Children[0].Children[0], "click", nil)
	if err := tr.Flush(); err != nil {
		t.Fatal(err)
	}
	tr.mount(t, H("div", nil, H("hr", nil)))
	tr.mount(t, H("div", nil, C(counter, nil)))

	if got := renders[len(renders)-1]; got != 0 {
		t.Errorf("remounted counter should start from 0, got %d", got)
	}
}

func TestUseRef(t *testing.T) {
	var refs []*Ref[int]
	comp := NewComponent("Renders", func(ctx *HookContext, props Props) *Element {
		ref := UseRef(ctx, 0)
		ref.Current++
		refs = append(refs, ref)
		return Text(ref.Current)
	})

	tr := newTestRoot(t, Options{})
	tr.mount(t, C(comp, nil))
	tr.mount(t, C(comp, nil))
	tr.mount(t, C(comp, nil))

	if len(refs) != 3 || refs[0] != refs[2] {
		t.Fatal("ref should be the same box on every render")
	}
	if refs[0].Current != 3 {
		t.Errorf("Current = %d, want 3", refs[0].Current)
	}
	if tr.Commits() != 3 {
		t.Errorf("mutating a ref must not schedule work, commits=%d", tr.Commits())
	}
}

func TestHookOutsideRender(t *testing.T) {
	var saved *HookContext
	comp := NewComponent("Leak", func(ctx *HookContext, props Props) *Element {
		saved = ctx
		return nil
	})
	tr := newTestRoot(t, Options{})
	tr.mount(t, C(comp, nil))

	for name, call := range map[string]func(){
		"after render": func() { UseState(saved, 0) },
		"nil context":  func() { UseRef[int](nil, 0) },
	} {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if r := recover(); r != ErrHookOutsideRender {
					t.Errorf("expected ErrHookOutsideRender panic, got %v", r)
				}
			}()
			call()
		})
	}
}

func TestHookContext_Path(t *testing.T) {
	var got string
	comp := NewComponent("Where", func(ctx *HookContext, props Props) *Element {
		got = ctx.Path()
		return nil
	})
	tr := newTestRoot(t, Options{})
	tr.mount(t, H("div", nil, H("p", nil), C(comp, nil)))

	if got != "root/div[0]/Where[1]" {
		t.Errorf("Path() = %q", got)
	}
}
