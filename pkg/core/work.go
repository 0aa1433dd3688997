package core

import (
	"errors"
	"time"

	fibererrors "github.com/go-drift/fiber/pkg/errors"
	"github.com/go-drift/fiber/pkg/host"
)

var errNilRender = errors.New("component has no render function")

// performUnitOfWork expands one fiber's children and returns the next
// fiber in pre-order, or noFiber when the traversal is complete.
func (r *Root) performUnitOfWork(t *tree, id fiberID) (fiberID, error) {
	var err error
	if t.at(id).typ.Kind == KindComponent {
		err = r.updateComponent(t, id)
	} else {
		err = r.updateHost(t, id)
	}
	if err != nil {
		return noFiber, err
	}
	return nextUnit(t, id), nil
}

func nextUnit(t *tree, id fiberID) fiberID {
	if child := t.at(id).child; child != noFiber {
		return child
	}
	for cur := id; cur != noFiber; cur = t.at(cur).parent {
		if sibling := t.at(cur).sibling; sibling != noFiber {
			return sibling
		}
	}
	return noFiber
}

func (r *Root) updateComponent(t *tree, id fiberID) error {
	f := t.at(id)
	f.hooks = nil
	ctx := &HookContext{root: r, tree: t, fiber: id, children: f.children}
	el, err := r.renderComponent(ctx, f.typ.Component, f.props)
	ctx.done = true
	if err != nil {
		return err
	}
	if r.wip != t {
		return nil
	}
	var elements []*Element
	if el != nil {
		elements = []*Element{el}
	}
	reconcileChildren(t, id, elements)
	return nil
}

// renderComponent calls the component's render function, converting a
// panic into a BuildError.
func (r *Root) renderComponent(ctx *HookContext, c *Component, props Props) (el *Element, err error) {
	name := "component"
	if c != nil {
		name = c.Name
	}
	if c == nil || c.Render == nil {
		return nil, &fibererrors.BuildError{Component: name, Path: ctx.Path(), Err: errNilRender}
	}
	defer func() {
		if rec := recover(); rec != nil {
			el = nil
			err = &fibererrors.BuildError{
				Component:  name,
				Path:       ctx.Path(),
				Recovered:  rec,
				StackTrace: fibererrors.CaptureStack(),
				Timestamp:  time.Now(),
			}
		}
	}()
	return c.Render(ctx, props), nil
}

func (r *Root) updateHost(t *tree, id fiberID) error {
	f := t.at(id)
	if f.node == nil && f.typ.Kind != KindRoot {
		node, err := r.createNode(f)
		if err != nil {
			return &fibererrors.FiberError{
				Op:   "core.createNode",
				Kind: fibererrors.KindHost,
				Path: t.path(id),
				Err:  err,
			}
		}
		t.at(id).node = node
	}
	reconcileChildren(t, id, t.at(id).children)
	return nil
}

// createNode creates the host node for a host or text fiber and applies its
// initial props.
func (r *Root) createNode(f *fiber) (host.Node, error) {
	var (
		node host.Node
		err  error
	)
	if f.typ.Kind == KindText {
		node, err = r.host.CreateTextNode()
	} else {
		node, err = r.host.CreateNode(f.typ.Tag)
	}
	if err != nil {
		return nil, err
	}
	if err := r.applyProps(node, nil, f.props); err != nil {
		return nil, err
	}
	return node, nil
}
