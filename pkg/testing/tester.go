package testing

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-drift/fiber/pkg/core"
	fibererrors "github.com/go-drift/fiber/pkg/errors"
	"github.com/go-drift/fiber/pkg/host/memory"
	"github.com/go-drift/fiber/pkg/idle"
)

const (
	// DefaultUnitCost is how far the fake clock advances each time the
	// work loop polls its deadline during Pump.
	DefaultUnitCost = 250 * time.Microsecond
	// DefaultMaxSlices bounds PumpAll.
	DefaultMaxSlices = 10000
)

// ErrNotSettled is returned when PumpAll exceeds its slice limit.
var ErrNotSettled = errors.New("PumpAll: root did not become idle")

// Tester mounts elements on an in-memory host and drives the work loop by
// hand. Idle slices are measured on a fake clock so time slicing is
// deterministic.
type Tester struct {
	host      *memory.Host
	container *memory.Node
	sched     *idle.Manual
	clock     *FakeClock
	root      *core.Root
	unitCost  time.Duration

	commits []core.CommitRecord
	errs    []error
	reports *reportRecorder
	prev    fibererrors.ErrorHandler
}

// NewTester creates a tester rendering into a "root" container. The
// process-wide error handler is replaced by one that records reports; call
// Cleanup to restore it, or use NewTesterWithT.
func NewTester(opts core.Options) *Tester {
	t := &Tester{
		host:     memory.New(),
		sched:    idle.NewManual(),
		clock:    NewFakeClock(),
		unitCost: DefaultUnitCost,
		reports:  &reportRecorder{},
	}
	t.container = t.host.NewContainer("root")

	onCommit, onError := opts.OnCommit, opts.OnError
	opts.OnCommit = func(rec core.CommitRecord) {
		t.commits = append(t.commits, rec)
		if onCommit != nil {
			onCommit(rec)
		}
	}
	opts.OnError = func(err error) {
		t.errs = append(t.errs, err)
		if onError != nil {
			onError(err)
		}
	}

	root, err := core.NewRoot(t.host, t.container, t.sched, opts)
	if err != nil {
		// Only reachable with nil host, container or scheduler.
		panic(err)
	}
	t.root = root
	t.prev = fibererrors.SetHandler(t.reports)
	return t
}

// NewTesterWithT creates a tester that cleans up via t.Cleanup().
func NewTesterWithT(t *testing.T, opts core.Options) *Tester {
	tester := NewTester(opts)
	t.Cleanup(tester.Cleanup)
	return tester
}

// Cleanup restores the error handler replaced by NewTester.
func (t *Tester) Cleanup() {
	if t.prev != nil {
		fibererrors.SetHandler(t.prev)
		t.prev = nil
	}
}

// SetUnitCost sets how much fake time each deadline poll consumes.
func (t *Tester) SetUnitCost(d time.Duration) {
	t.unitCost = d
}

// Host returns the in-memory host.
func (t *Tester) Host() *memory.Host { return t.host }

// Container returns the node the tree is mounted under.
func (t *Tester) Container() *memory.Node { return t.container }

// Root returns the root under test.
func (t *Tester) Root() *core.Root { return t.root }

// Clock returns the fake clock measuring idle slices.
func (t *Tester) Clock() *FakeClock { return t.clock }

// Commits returns every commit record so far.
func (t *Tester) Commits() []core.CommitRecord { return t.commits }

// LastCommit returns the most recent commit record, or false if nothing
// has been committed.
func (t *Tester) LastCommit() (core.CommitRecord, bool) {
	if len(t.commits) == 0 {
		return core.CommitRecord{}, false
	}
	return t.commits[len(t.commits)-1], true
}

// Errors returns the errors that aborted work cycles.
func (t *Tester) Errors() []error { return t.errs }

// BuildErrors returns the component failures reported so far.
func (t *Tester) BuildErrors() []*fibererrors.BuildError { return t.reports.builds }

// Render requests el and pumps until the root is idle.
func (t *Tester) Render(el *core.Element) error {
	t.root.Render(el)
	return t.PumpAll()
}

// Pump runs one idle slice with the given budget on the fake clock and
// returns the error that aborted the cycle, if any.
func (t *Tester) Pump(budget time.Duration) error {
	before := len(t.errs)
	t.sched.Step(t.clock.Metered(budget, t.unitCost))
	if len(t.errs) > before {
		return t.errs[before]
	}
	return nil
}

// PumpAll runs unlimited slices until the root is idle. Returns
// ErrNotSettled if it does not settle within DefaultMaxSlices, which
// usually means a component sets state on every render.
func (t *Tester) PumpAll() error {
	for i := 0; i < DefaultMaxSlices; i++ {
		if t.root.Idle() {
			return nil
		}
		before := len(t.errs)
		t.sched.Step(idle.Unlimited)
		if len(t.errs) > before {
			return t.errs[before]
		}
	}
	if t.root.Idle() {
		return nil
	}
	return ErrNotSettled
}

// Find evaluates a finder against the host tree.
func (t *Tester) Find(finder Finder) FinderResult {
	return FinderResult{nodes: finder.Evaluate(t.container), finder: finder}
}

// Dispatch delivers event to the first node matched by finder, bubbling to
// its ancestors, then pumps until idle.
func (t *Tester) Dispatch(finder Finder, event string, data any) error {
	node := t.Find(finder).FirstOrNil()
	if node == nil {
		return fmt.Errorf("dispatch %s: %s matched nothing", event, finder.Description())
	}
	if t.host.Dispatch(node, event, data) == 0 {
		return fmt.Errorf("dispatch %s: no listener on %s or its ancestors", event, finder.Description())
	}
	return t.PumpAll()
}

// Click dispatches a click to the first node matched by finder.
func (t *Tester) Click(finder Finder) error {
	return t.Dispatch(finder, "click", nil)
}

// reportRecorder collects reports instead of logging them.
type reportRecorder struct {
	errors []*fibererrors.FiberError
	panics []*fibererrors.PanicError
	builds []*fibererrors.BuildError
}

func (r *reportRecorder) HandleError(err *fibererrors.FiberError) {
	r.errors = append(r.errors, err)
}

func (r *reportRecorder) HandlePanic(err *fibererrors.PanicError) {
	r.panics = append(r.panics, err)
}

func (r *reportRecorder) HandleBuildError(err *fibererrors.BuildError) {
	r.builds = append(r.builds, err)
}
