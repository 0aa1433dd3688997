package core

// reconcileChildren builds the new child chain of parent from elements,
// matching each element with the alternate's child at the same index.
// Old children that are not reused are queued on t's deletion list.
func reconcileChildren(t *tree, parent fiberID, elements []*Element) {
	oldID := noFiber
	if alt := t.alternate(parent); alt != nil {
		oldID = alt.child
	}
	prev := noFiber

	for index := 0; index < len(elements) || oldID != noFiber; index++ {
		var el *Element
		if index < len(elements) {
			el = elements[index]
		}
		var old *fiber
		if oldID != noFiber {
			old = t.base.at(oldID)
		}
		sameType := old != nil && el != nil && old.typ == el.Type

		newID := noFiber
		switch {
		case sameType:
			newID = t.add(fiber{
				typ:       old.typ,
				props:     el.Props,
				children:  el.Children,
				node:      old.node,
				alternate: oldID,
				effect:    Update,
			})
		case el != nil:
			newID = t.add(fiber{
				typ:       el.Type,
				props:     el.Props,
				children:  el.Children,
				alternate: noFiber,
				effect:    Placement,
			})
		}
		if old != nil && !sameType {
			t.deletions = append(t.deletions, oldID)
		}
		if old != nil {
			oldID = old.sibling
		}

		if newID == noFiber {
			continue
		}
		t.at(newID).parent = parent
		if prev == noFiber {
			t.at(parent).child = newID
		} else {
			t.at(prev).sibling = newID
		}
		prev = newID
	}
}
