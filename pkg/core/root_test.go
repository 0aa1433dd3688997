package core

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/go-drift/fiber/pkg/errors"
	"github.com/go-drift/fiber/pkg/host/memory"
	"github.com/go-drift/fiber/pkg/idle"
)

type testRoot struct {
	*Root
	host      *memory.Host
	container *memory.Node
	sched     *idle.Manual
	commits   []CommitRecord
	errs      []error
}

func newTestRoot(t *testing.T, opts Options) *testRoot {
	t.Helper()
	tr := &testRoot{host: memory.New(), sched: idle.NewManual()}
	tr.container = tr.host.NewContainer("root")
	userCommit := opts.OnCommit
	opts.OnCommit = func(rec CommitRecord) {
		tr.commits = append(tr.commits, rec)
		if userCommit != nil {
			userCommit(rec)
		}
	}
	opts.OnError = func(err error) { tr.errs = append(tr.errs, err) }
	root, err := NewRoot(tr.host, tr.container, tr.sched, opts)
	if err != nil {
		t.Fatalf("NewRoot: %v", err)
	}
	tr.Root = root
	return tr
}

func (tr *testRoot) mount(t *testing.T, el *Element) {
	t.Helper()
	tr.Render(el)
	if err := tr.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}

func (tr *testRoot) lastCommit(t *testing.T) CommitRecord {
	t.Helper()
	if len(tr.commits) == 0 {
		t.Fatal("no commits recorded")
	}
	return tr.commits[len(tr.commits)-1]
}

func paths(infos []FiberInfo) []string {
	out := make([]string, len(infos))
	for i, info := range infos {
		out[i] = info.Path
	}
	return out
}

func containsPath(infos []FiberInfo, path string) bool {
	for _, info := range infos {
		if info.Path == path {
			return true
		}
	}
	return false
}

// silenceErrors swaps the global error handler for one that records.
func silenceErrors(t *testing.T) *recordingHandler {
	t.Helper()
	h := &recordingHandler{}
	prev := errors.SetHandler(h)
	t.Cleanup(func() { errors.SetHandler(prev) })
	return h
}

type recordingHandler struct {
	errors []*errors.FiberError
	builds []*errors.BuildError
	panics []*errors.PanicError
}

func (h *recordingHandler) HandleError(err *errors.FiberError)      { h.errors = append(h.errors, err) }
func (h *recordingHandler) HandlePanic(err *errors.PanicError)      { h.panics = append(h.panics, err) }
func (h *recordingHandler) HandleBuildError(err *errors.BuildError) { h.builds = append(h.builds, err) }

func TestNewRoot_Validation(t *testing.T) {
	h := memory.New()
	c := h.NewContainer("root")
	s := idle.NewManual()

	if _, err := NewRoot(nil, c, s, Options{}); err != ErrNoHost {
		t.Errorf("expected ErrNoHost, got %v", err)
	}
	if _, err := NewRoot(h, nil, s, Options{}); err != ErrNoContainer {
		t.Errorf("expected ErrNoContainer, got %v", err)
	}
	if _, err := NewRoot(h, c, nil, Options{}); err != ErrNoScheduler {
		t.Errorf("expected ErrNoScheduler, got %v", err)
	}
}

func TestRoot_WorkLoopReregisters(t *testing.T) {
	tr := newTestRoot(t, Options{})
	if tr.sched.Pending() != 1 {
		t.Fatalf("NewRoot should register the work loop, pending=%d", tr.sched.Pending())
	}
	for i := 0; i < 3; i++ {
		tr.sched.Step(idle.Unlimited)
		if tr.sched.Pending() != 1 {
			t.Fatalf("step %d: work loop should re-register, pending=%d", i, tr.sched.Pending())
		}
	}
}

func TestRoot_RenderThroughScheduler(t *testing.T) {
	tr := newTestRoot(t, Options{})
	tr.Render(H("div", Props{"id": "app"}, "hello"))

	if len(tr.container.Children) != 0 {
		t.Fatal("Render must not touch the host before the scheduler runs")
	}
	tr.sched.Step(idle.Unlimited)

	if got, want := tr.container.String(), `<root><div id="app">hello</div></root>`; got != want {
		t.Errorf("host = %s, want %s", got, want)
	}
	if !tr.Idle() || tr.Commits() != 1 {
		t.Errorf("expected one commit and idle root, commits=%d", tr.Commits())
	}
}

func TestRoot_HostUntouchedUntilCommit(t *testing.T) {
	tr := newTestRoot(t, Options{MaxUnitsPerSlice: 1})
	tr.Render(H("ul", nil, H("li", nil, "a"), H("li", nil, "b")))

	for !tr.Idle() {
		if len(tr.container.Children) != 0 {
			t.Fatal("container changed before commit")
		}
		tr.sched.Step(idle.Unlimited)
	}
	if got := tr.container.TextContent(); got != "ab" {
		t.Errorf("TextContent() = %q, want %q", got, "ab")
	}
	if rec := tr.lastCommit(t); rec.Slices < 2 {
		t.Errorf("expected the cycle to span several slices, got %d", rec.Slices)
	}
}

func TestRoot_IdempotentRerender(t *testing.T) {
	tr := newTestRoot(t, Options{})
	build := func() *Element {
		return H("div", Props{"class": "a", "data": []int{1, 2}}, H("span", nil, "hi"), "tail")
	}
	tr.mount(t, build())
	tr.host.ResetLog()

	tr.mount(t, build())

	rec := tr.lastCommit(t)
	if len(rec.Placements) != 0 || len(rec.Deletions) != 0 {
		t.Errorf("expected no placements or deletions, got %v / %v", paths(rec.Placements), paths(rec.Deletions))
	}
	if len(rec.Updates) != 4 {
		t.Errorf("expected 4 updates, got %v", paths(rec.Updates))
	}
	if log := tr.host.Log(); len(log) != 0 {
		t.Errorf("unchanged props should not reach the host, got %v", log)
	}
}

func TestRoot_PositionalTypeChange(t *testing.T) {
	tr := newTestRoot(t, Options{})
	tr.mount(t, H("div", nil, H("a", nil), H("b", nil)))

	var oldB any
	for _, info := range tr.Committed() {
		if info.Path == "root/div[0]/b[1]" {
			oldB = info.Node
		}
	}
	if oldB == nil {
		t.Fatal("b not found in committed tree")
	}

	tr.mount(t, H("div", nil, H("c", nil), H("b", nil)))

	rec := tr.lastCommit(t)
	if got := paths(rec.Placements); len(got) != 1 || got[0] != "root/div[0]/c[0]" {
		t.Errorf("placements = %v, want [root/div[0]/c[0]]", got)
	}
	if got := paths(rec.Deletions); len(got) != 1 || got[0] != "root/div[0]/a[0]" {
		t.Errorf("deletions = %v, want [root/div[0]/a[0]]", got)
	}
	if rec.Deletions[0].Effect != Deletion {
		t.Errorf("deleted fiber effect = %v", rec.Deletions[0].Effect)
	}
	if !containsPath(rec.Updates, "root/div[0]/b[1]") {
		t.Errorf("updates = %v, want b updated", paths(rec.Updates))
	}

	var newB any
	for _, info := range tr.Committed() {
		if info.Path == "root/div[0]/b[1]" {
			newB = info.Node
		}
	}
	if newB != oldB {
		t.Error("b should keep its host node")
	}

	div := tr.container.Children[0]
	if len(div.Children) != 2 {
		t.Fatalf("expected 2 host children, got %s", div)
	}
	for _, child := range div.Children {
		if child.Tag == "a" {
			t.Error("a should be removed from the host")
		}
	}
}

func TestRoot_ShrinkAndGrow(t *testing.T) {
	tr := newTestRoot(t, Options{})
	tr.mount(t, H("ul", nil, H("li", nil, "1"), H("li", nil, "2"), H("li", nil, "3")))
	tr.mount(t, H("ul", nil, H("li", nil, "1")))

	rec := tr.lastCommit(t)
	if len(rec.Deletions) != 2 {
		t.Errorf("expected 2 deletions, got %v", paths(rec.Deletions))
	}
	if got := tr.container.TextContent(); got != "1" {
		t.Errorf("TextContent() = %q", got)
	}

	tr.mount(t, H("ul", nil, H("li", nil, "1"), H("li", nil, "2")))
	if got := tr.container.TextContent(); got != "12" {
		t.Errorf("TextContent() = %q", got)
	}
	if rec := tr.lastCommit(t); len(rec.Placements) != 2 {
		t.Errorf("expected li and its text placed, got %v", paths(rec.Placements))
	}
}

func TestRoot_RenderNilUnmounts(t *testing.T) {
	tr := newTestRoot(t, Options{})
	tr.mount(t, H("div", nil, "x"))
	tr.mount(t, nil)

	if len(tr.container.Children) != 0 {
		t.Errorf("expected empty container, got %s", tr.container)
	}
	if len(tr.Committed()) != 0 {
		t.Errorf("expected empty committed tree, got %v", paths(tr.Committed()))
	}
}

func TestRoot_PreOrderTraversal(t *testing.T) {
	var order []string
	visit := NewComponent("Visit", func(ctx *HookContext, props Props) *Element {
		order = append(order, props["name"].(string))
		return H("div", nil, ctx.Children())
	})

	tr := newTestRoot(t, Options{})
	tr.mount(t, C(visit, Props{"name": "a"},
		C(visit, Props{"name": "b"}, C(visit, Props{"name": "d"})),
		C(visit, Props{"name": "c"}),
	))

	if got := fmt.Sprint(order); got != "[a b d c]" {
		t.Errorf("render order = %s, want [a b d c]", got)
	}
}

func TestRoot_RestartDiffsAgainstCommittedTree(t *testing.T) {
	tr := newTestRoot(t, Options{})
	tr.mount(t, H("div", nil, H("p", nil, "committed")))

	// Start a cycle for a different tree and leave it half built.
	tr.Render(H("div", nil, H("section", nil, H("h1", nil, "draft"))))
	if err := tr.Tick(idle.AfterPolls(2)); err != nil {
		t.Fatal(err)
	}
	if tr.Idle() {
		t.Fatal("expected the draft cycle to be in progress")
	}

	tr.Render(H("div", nil, H("p", nil, "committed")))
	if tr.wip.base != tr.current {
		t.Fatal("restarted cycle must diff against the committed tree")
	}
	if alt := tr.wip.at(tr.wip.root()).alternate; alt != tr.current.root() {
		t.Fatalf("restarted root alternate = %d, want committed root", alt)
	}
	if err := tr.Flush(); err != nil {
		t.Fatal(err)
	}

	rec := tr.lastCommit(t)
	if len(rec.Placements) != 0 || len(rec.Deletions) != 0 {
		t.Errorf("expected a no-op diff, got placements=%v deletions=%v", paths(rec.Placements), paths(rec.Deletions))
	}
	if got := tr.container.String(); got != "<root><div><p>committed</p></div></root>" {
		t.Errorf("host = %s", got)
	}
	if tr.Commits() != 2 {
		t.Errorf("abandoned cycle must not commit, commits=%d", tr.Commits())
	}
}

// listItem is declared once so every tree built from it shares the
// component's identity.
var listItem = NewComponent("Item", func(ctx *HookContext, props Props) *Element {
	n, _ := UseState(ctx, props["n"].(int))
	return H("li", Props{"data-n": n}, "item ", n)
})

func buildLargeTree() *Element {
	var items []*Element
	for i := 0; i < 25; i++ {
		items = append(items, C(listItem, Props{"n": i}))
	}
	return H("main", nil, H("h1", nil, "list"), H("ul", nil, items), H("footer", nil, "end"))
}

func TestRoot_YieldResumeMatchesUninterrupted(t *testing.T) {
	straight := newTestRoot(t, Options{})
	straight.mount(t, buildLargeTree())

	sliced := newTestRoot(t, Options{})
	sliced.Render(buildLargeTree())
	for steps := 0; !sliced.Idle(); steps++ {
		if steps > 1000 {
			t.Fatal("sliced render did not finish")
		}
		sliced.sched.Step(idle.AfterPolls(2))
	}

	if rec := sliced.lastCommit(t); rec.Slices < 10 {
		t.Errorf("expected many slices, got %d", rec.Slices)
	}
	if a, b := straight.container.String(), sliced.container.String(); a != b {
		t.Errorf("host trees differ:\n%s\n%s", a, b)
	}

	la, lb := straight.host.Log(), sliced.host.Log()
	if len(la) != len(lb) {
		t.Fatalf("mutation counts differ: %d vs %d", len(la), len(lb))
	}
	for i := range la {
		if la[i] != lb[i] {
			t.Errorf("mutation %d differs: %v vs %v", i, la[i], lb[i])
		}
	}

	ca, cb := straight.Committed(), sliced.Committed()
	if len(ca) != len(cb) {
		t.Fatalf("committed trees differ in size: %d vs %d", len(ca), len(cb))
	}
	for i := range ca {
		if ca[i].Path != cb[i].Path || ca[i].Type != cb[i].Type || ca[i].Effect != cb[i].Effect {
			t.Errorf("fiber %d differs: %+v vs %+v", i, ca[i], cb[i])
		}
	}
}

func TestRoot_HostFailureAbortsCycle(t *testing.T) {
	handler := silenceErrors(t)
	tr := newTestRoot(t, Options{})
	boom := stderrors.New("unsupported tag")
	tr.host.Fail = func(m memory.Mutation) error {
		if m.Op == memory.OpCreate && m.Key == "blink" {
			return boom
		}
		return nil
	}

	tr.Render(H("div", nil, H("blink", nil)))
	tr.sched.Step(idle.Unlimited)

	if !tr.Idle() {
		t.Error("a failed cycle should be discarded")
	}
	if len(tr.errs) != 1 || !stderrors.Is(tr.errs[0], boom) {
		t.Fatalf("expected OnError with the host failure, got %v", tr.errs)
	}
	var fe *errors.FiberError
	if !stderrors.As(tr.errs[0], &fe) || fe.Kind != errors.KindHost || fe.Path != "root/div[0]/blink[0]" {
		t.Errorf("unexpected error %#v", tr.errs[0])
	}
	if len(handler.errors) != 1 {
		t.Errorf("expected the error to be reported, got %d", len(handler.errors))
	}
	if len(tr.container.Children) != 0 || tr.Committed() != nil {
		t.Error("nothing should be committed")
	}
	if tr.sched.Pending() != 1 {
		t.Error("work loop should keep running after an error")
	}

	tr.mount(t, H("div", nil, "ok"))
	if tr.container.TextContent() != "ok" {
		t.Error("root should recover on the next render")
	}
}

func TestRoot_CommitFailureKeepsCurrent(t *testing.T) {
	silenceErrors(t)
	tr := newTestRoot(t, Options{})
	tr.mount(t, H("div", nil, H("p", nil)))
	before := paths(tr.Committed())

	tr.host.Fail = func(m memory.Mutation) error {
		if m.Op == memory.OpAppend {
			return stderrors.New("append refused")
		}
		return nil
	}
	tr.Render(H("div", nil, H("p", nil), H("p", nil)))
	err := tr.Flush()

	var fe *errors.FiberError
	if !stderrors.As(err, &fe) || fe.Kind != errors.KindCommit {
		t.Fatalf("expected a commit error, got %v", err)
	}
	if after := paths(tr.Committed()); fmt.Sprint(after) != fmt.Sprint(before) {
		t.Errorf("committed tree changed: %v -> %v", before, after)
	}
	if tr.Commits() != 1 {
		t.Errorf("commits = %d, want 1", tr.Commits())
	}
}

func TestRoot_CommitFailureAfterDeletionsLeavesRootStuck(t *testing.T) {
	silenceErrors(t)
	tr := newTestRoot(t, Options{})
	tr.mount(t, H("div", nil, H("p", nil), H("p", nil)))

	tr.host.Fail = func(m memory.Mutation) error {
		if m.Op == memory.OpAppend {
			return stderrors.New("append refused")
		}
		return nil
	}
	tr.Render(H("div", nil, H("span", nil)))
	if err := tr.Flush(); err == nil {
		t.Fatal("expected the placement to fail")
	}
	if got := tr.container.String(); strings.Contains(got, "<p") {
		t.Fatalf("deletions should have reached the host before the failure: %s", got)
	}

	tr.host.Fail = nil
	tr.Render(H("div", nil, H("span", nil)))
	err := tr.Flush()
	var fe *errors.FiberError
	if !stderrors.As(err, &fe) || fe.Op != "core.commitDeletion" {
		t.Fatalf("expected the retried deletion to fail, got %v", err)
	}
	if !stderrors.Is(err, memory.ErrNotChild) {
		t.Errorf("expected memory.ErrNotChild, got %v", err)
	}
	if tr.Commits() != 1 {
		t.Errorf("commits = %d, want 1", tr.Commits())
	}
}

func TestRoot_ComponentPanicReported(t *testing.T) {
	handler := silenceErrors(t)
	bad := NewComponent("Bad", func(*HookContext, Props) *Element {
		panic("render exploded")
	})
	tr := newTestRoot(t, Options{})
	tr.Render(H("div", nil, C(bad, nil)))
	tr.sched.Step(idle.Unlimited)

	if len(handler.builds) != 1 {
		t.Fatalf("expected a build error, got %d", len(handler.builds))
	}
	be := handler.builds[0]
	if be.Component != "Bad" || be.Recovered != "render exploded" || be.Path != "root/div[0]/Bad[0]" {
		t.Errorf("unexpected build error %+v", be)
	}
	if be.StackTrace == "" {
		t.Error("expected a stack trace")
	}
	if !tr.Idle() || tr.Commits() != 0 {
		t.Error("the cycle should be aborted")
	}
}

func TestRoot_NilRenderFunc(t *testing.T) {
	tr := newTestRoot(t, Options{})
	tr.Render(C(NewComponent("Empty", nil), nil))
	err := tr.Flush()
	var be *errors.BuildError
	if !stderrors.As(err, &be) || !stderrors.Is(err, errNilRender) {
		t.Errorf("expected nil render error, got %v", err)
	}
}

func TestRoot_Trace(t *testing.T) {
	var lines []string
	tr := newTestRoot(t, Options{Trace: func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}})
	tr.mount(t, H("div", nil))

	if len(lines) < 2 {
		t.Fatalf("expected start and commit trace lines, got %v", lines)
	}
	if lines[0] != "cycle 1: start restart=false" {
		t.Errorf("first line = %q", lines[0])
	}
}
