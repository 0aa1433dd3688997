package core

import (
	"errors"
	"time"

	fibererrors "github.com/go-drift/fiber/pkg/errors"
	"github.com/go-drift/fiber/pkg/host"
	"github.com/go-drift/fiber/pkg/idle"
)

// DefaultYieldThreshold is the remaining slice time below which the work
// loop yields back to the host.
const DefaultYieldThreshold = time.Millisecond

var (
	// ErrNoContainer is returned by NewRoot when no container node is given.
	ErrNoContainer = errors.New("core: root requires a container node")
	// ErrNoHost is returned by NewRoot when no host adapter is given.
	ErrNoHost = errors.New("core: root requires a host adapter")
	// ErrNoScheduler is returned by NewRoot when no idle scheduler is given.
	ErrNoScheduler = errors.New("core: root requires an idle scheduler")

	errNoHostParent = errors.New("no ancestor owns a host node")
)

// Options configures a Root.
type Options struct {
	// YieldThreshold ends a slice once the deadline reports less time than
	// this. Zero means DefaultYieldThreshold.
	YieldThreshold time.Duration
	// MaxUnitsPerSlice caps units of work per slice. Zero means no cap.
	MaxUnitsPerSlice int
	// EventPrefix marks event props. Empty means DefaultEventPrefix.
	EventPrefix string
	// OnCommit is called after each successful commit.
	OnCommit func(CommitRecord)
	// OnError is called with every error that aborts a cycle when the
	// root is driven by its scheduler.
	OnError func(error)
	// Trace, when set, receives engine trace lines.
	Trace func(format string, args ...any)
}

func (o Options) withDefaults() Options {
	if o.YieldThreshold <= 0 {
		o.YieldThreshold = DefaultYieldThreshold
	}
	if o.EventPrefix == "" {
		o.EventPrefix = DefaultEventPrefix
	}
	if o.MaxUnitsPerSlice < 0 {
		o.MaxUnitsPerSlice = 0
	}
	return o
}

// Root owns one mounted tree: the committed tree, the tree under
// construction and the cursor into it. A Root is not safe for concurrent
// use; every method, setter and host callback must run on the scheduler's
// thread.
type Root struct {
	host      host.Adapter
	container host.Node
	sched     idle.Scheduler
	opts      Options

	element *Element
	current *tree
	wip     *tree
	next    fiberID

	cycles  int
	commits int
	units   int
	slices  int
}

// NewRoot creates a root that renders into container and registers its
// work loop with sched. The loop re-registers itself after every slice for
// as long as the scheduler keeps calling it.
func NewRoot(adapter host.Adapter, container host.Node, sched idle.Scheduler, opts Options) (*Root, error) {
	switch {
	case adapter == nil:
		return nil, ErrNoHost
	case container == nil:
		return nil, ErrNoContainer
	case sched == nil:
		return nil, ErrNoScheduler
	}
	r := &Root{
		host:      adapter,
		container: container,
		sched:     sched,
		opts:      opts.withDefaults(),
		next:      noFiber,
	}
	sched.RequestIdleCallback(r.workLoop)
	return r, nil
}

// Container returns the host node the tree is mounted under.
func (r *Root) Container() host.Node {
	return r.container
}

// Render requests that element be mounted under the container, replacing
// whatever was rendered before. Passing nil unmounts everything. The work
// happens during subsequent idle slices.
func (r *Root) Render(element *Element) {
	r.element = element
	r.startCycle()
}

// ScheduleUpdate starts a new work cycle for the current element. Any
// cycle in progress is discarded; the new one diffs against the last
// committed tree.
func (r *Root) ScheduleUpdate() {
	if r.element == nil && r.current == nil {
		return
	}
	r.startCycle()
}

func (r *Root) startCycle() {
	restart := r.wip != nil
	t := newTree(r.current)
	alt := noFiber
	if r.current != nil {
		alt = r.current.root()
	}
	var children []*Element
	if r.element != nil {
		children = []*Element{r.element}
	}
	t.add(fiber{
		typ:       rootType,
		node:      r.container,
		children:  children,
		alternate: alt,
	})
	r.wip = t
	r.next = t.root()
	r.cycles++
	r.units = 0
	r.slices = 0
	r.tracef("cycle %d: start restart=%v", r.cycles, restart)
}

// Idle reports whether no work cycle is pending.
func (r *Root) Idle() bool {
	return r.wip == nil
}

// Cycles returns the number of work cycles started.
func (r *Root) Cycles() int {
	return r.cycles
}

// Commits returns the number of work cycles committed.
func (r *Root) Commits() int {
	return r.commits
}

// Tick runs one slice: units of work until the cycle is done or the
// deadline drops below the yield threshold, then the commit if the cycle
// finished. At least one unit runs per call. An error aborts the cycle and
// leaves the committed tree untouched.
func (r *Root) Tick(d idle.Deadline) error {
	if r.wip == nil {
		return nil
	}
	if d == nil {
		d = idle.Unlimited
	}
	r.slices++
	steps := 0
	for r.wip != nil && r.next != noFiber {
		wip := r.wip
		next, err := r.performUnitOfWork(wip, r.next)
		if err != nil {
			r.abort()
			return err
		}
		steps++
		// A setter that fired during the unit has already restarted the
		// cycle; its cursor wins and the slice ends so a component that
		// sets state on every render cannot starve the host.
		if r.wip != wip {
			break
		}
		r.units++
		r.next = next
		if d.TimeRemaining() < r.opts.YieldThreshold {
			break
		}
		if r.opts.MaxUnitsPerSlice > 0 && steps >= r.opts.MaxUnitsPerSlice {
			break
		}
	}
	if r.wip != nil && r.next == noFiber {
		return r.commitRoot()
	}
	r.tracef("cycle %d: yield after %d units", r.cycles, steps)
	return nil
}

// Flush runs slices with an unlimited deadline until no work is pending.
// It does not return while a component keeps setting state during render.
func (r *Root) Flush() error {
	for r.wip != nil {
		if err := r.Tick(idle.Unlimited); err != nil {
			return err
		}
	}
	return nil
}

func (r *Root) workLoop(d idle.Deadline) {
	defer r.sched.RequestIdleCallback(r.workLoop)
	if err := r.Tick(d); err != nil {
		r.tracef("cycle %d: aborted: %v", r.cycles, err)
		fibererrors.ReportAny("core.Root.Tick", err)
		if r.opts.OnError != nil {
			r.opts.OnError(err)
		}
	}
}

func (r *Root) abort() {
	r.wip = nil
	r.next = noFiber
}

// Committed describes the committed tree in pre-order, excluding the root
// fiber. Effects are the tags assigned in the cycle that produced it.
func (r *Root) Committed() []FiberInfo {
	if r.current == nil {
		return nil
	}
	t := r.current
	var out []FiberInfo
	t.walk(t.at(t.root()).child, func(id fiberID) {
		out = append(out, t.info(id, t.at(id).effect))
	})
	return out
}
