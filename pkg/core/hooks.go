package core

import "errors"

// ErrHookOutsideRender is the panic value raised when a hook is called
// without an active component render.
var ErrHookOutsideRender = errors.New("core: hook called outside component render")

// hookCell is one positional slot of component state. queue holds actions
// enqueued by setters since the cell was rendered; the next render replays
// them onto state.
type hookCell struct {
	state any
	queue []func(any) any
}

// HookContext is handed to a component's render function. It tracks which
// fiber is rendering and the index of the next hook call.
type HookContext struct {
	root     *Root
	tree     *tree
	fiber    fiberID
	index    int
	children []*Element
	done     bool
}

// Children returns the children passed to the component element.
func (c *HookContext) Children() []*Element {
	return c.children
}

// Path returns the positional path of the rendering component.
func (c *HookContext) Path() string {
	return c.tree.path(c.fiber)
}

// use advances the hook index and returns the matching cell from the
// previous render, if any.
func (c *HookContext) use() *hookCell {
	if c == nil || c.done {
		panic(ErrHookOutsideRender)
	}
	var old *hookCell
	if alt := c.tree.alternate(c.fiber); alt != nil && c.index < len(alt.hooks) {
		old = alt.hooks[c.index]
	}
	c.index++
	return old
}

func (c *HookContext) push(cell *hookCell) {
	f := c.tree.at(c.fiber)
	f.hooks = append(f.hooks, cell)
}

func cellValue[T any](v any) T {
	if v == nil {
		var zero T
		return zero
	}
	return v.(T)
}

// UseState returns the component's state for this hook position and a
// setter for it. On the first render the state is initial; afterwards it is
// the previous state with every action enqueued since then applied in
// order.
func UseState[T any](ctx *HookContext, initial T) (T, *Setter[T]) {
	old := ctx.use()
	state := any(initial)
	if old != nil {
		state = old.state
		for _, action := range old.queue {
			state = action(state)
		}
	}
	cell := &hookCell{state: state}
	ctx.push(cell)
	return cellValue[T](state), &Setter[T]{root: ctx.root, cell: cell}
}

// Setter enqueues state changes for one hook cell. Each call starts a new
// work cycle; the change becomes visible on the next render.
type Setter[T any] struct {
	root *Root
	cell *hookCell
}

// Set replaces the state.
func (s *Setter[T]) Set(value T) {
	s.enqueue(func(any) any { return value })
}

// Update replaces the state with fn applied to the previous state.
func (s *Setter[T]) Update(fn func(T) T) {
	s.enqueue(func(prev any) any { return fn(cellValue[T](prev)) })
}

// Pending returns the number of actions waiting for the next render.
func (s *Setter[T]) Pending() int {
	return len(s.cell.queue)
}

func (s *Setter[T]) enqueue(action func(any) any) {
	s.cell.queue = append(s.cell.queue, action)
	s.root.ScheduleUpdate()
}

// Ref is a mutable box that survives renders without triggering them.
type Ref[T any] struct {
	Current T
}

// UseRef returns the component's ref for this hook position, creating it
// with initial on the first render.
func UseRef[T any](ctx *HookContext, initial T) *Ref[T] {
	old := ctx.use()
	var ref *Ref[T]
	if old != nil {
		ref = old.state.(*Ref[T])
	}
	if ref == nil {
		ref = &Ref[T]{Current: initial}
	}
	ctx.push(&hookCell{state: ref})
	return ref
}
