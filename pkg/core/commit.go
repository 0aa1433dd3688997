package core

import (
	fibererrors "github.com/go-drift/fiber/pkg/errors"
)

// CommitRecord summarizes one committed work cycle.
type CommitRecord struct {
	Cycle      int
	Placements []FiberInfo
	Updates    []FiberInfo
	Deletions  []FiberInfo
	// Units is the number of units of work performed in the cycle.
	Units int
	// Slices is the number of scheduler slices the cycle spanned.
	Slices int
}

// commitRoot applies the finished work tree to the host and makes it the
// committed tree. Deletions go first, then placements and updates in
// pre-order.
func (r *Root) commitRoot() error {
	t := r.wip
	rec := CommitRecord{Cycle: r.cycles, Units: r.units, Slices: r.slices}

	for _, id := range t.deletions {
		rec.Deletions = append(rec.Deletions, t.base.info(id, Deletion))
		if err := r.commitDeletion(t.base, id); err != nil {
			r.abort()
			return commitError("core.commitDeletion", t.base.path(id), err)
		}
	}
	if err := r.commitWork(t, t.at(t.root()).child, &rec); err != nil {
		r.abort()
		return err
	}

	t.base = nil
	t.deletions = nil
	r.current = t
	r.wip = nil
	r.next = noFiber
	r.commits++
	r.tracef("cycle %d: commit placements=%d updates=%d deletions=%d units=%d slices=%d",
		rec.Cycle, len(rec.Placements), len(rec.Updates), len(rec.Deletions), rec.Units, rec.Slices)
	if r.opts.OnCommit != nil {
		r.opts.OnCommit(rec)
	}
	return nil
}

// commitWork walks the chain starting at id, children before siblings.
func (r *Root) commitWork(t *tree, id fiberID, rec *CommitRecord) error {
	for cur := id; cur != noFiber; cur = t.at(cur).sibling {
		f := t.at(cur)
		switch f.effect {
		case Placement:
			rec.Placements = append(rec.Placements, t.info(cur, Placement))
			if f.node != nil {
				parent := t.hostParent(cur)
				if parent == nil {
					return commitError("core.commitWork", t.path(cur), errNoHostParent)
				}
				if err := r.host.AppendChild(parent, f.node); err != nil {
					return commitError("core.commitWork", t.path(cur), err)
				}
			}
		case Update:
			rec.Updates = append(rec.Updates, t.info(cur, Update))
			if alt := t.alternate(cur); f.node != nil && alt != nil {
				if err := r.applyProps(f.node, alt.props, f.props); err != nil {
					return commitError("core.commitWork", t.path(cur), err)
				}
			}
		}
		if err := r.commitWork(t, f.child, rec); err != nil {
			return err
		}
	}
	return nil
}

// commitDeletion removes the host node owned by the deleted fiber, or by
// its first node-owning descendant when the fiber is a component.
func (r *Root) commitDeletion(old *tree, id fiberID) error {
	parent := old.hostParent(id)
	for cur := id; cur != noFiber; cur = old.at(cur).child {
		if n := old.at(cur).node; n != nil {
			if parent == nil {
				return errNoHostParent
			}
			return r.host.RemoveChild(parent, n)
		}
	}
	return nil
}

func commitError(op, path string, err error) error {
	return &fibererrors.FiberError{
		Op:         op,
		Kind:       fibererrors.KindCommit,
		Path:       path,
		Err:        err,
		StackTrace: fibererrors.CaptureStack(),
	}
}
