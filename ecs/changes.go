package ecs

import "github.com/milk9111/shipgrapple/ecs/component"

// Change records that a component on an entity was mutated and needs to be
// sent to observers by whatever replication layer sits downstream.
type Change struct {
	Entity    Entity
	Component string
	Frame     int64
}

// ChangeLog collects changes in the order they were marked. Repeated marks
// of the same entity/component within one drain are collapsed.
type ChangeLog struct {
	items []Change
	seen  map[changeKey]struct{}
}

type changeKey struct {
	e  Entity
	id component.ComponentID
}

// MarkChanged records a change to kind on e.
func (w *World) MarkChanged(e Entity, kind component.Kind) {
	if w == nil || kind == nil || !e.Valid() {
		return
	}
	key := changeKey{e: e, id: kind.ID()}
	if w.changes.seen == nil {
		w.changes.seen = make(map[changeKey]struct{})
	}
	if _, ok := w.changes.seen[key]; ok {
		return
	}
	w.changes.seen[key] = struct{}{}
	w.changes.items = append(w.changes.items, Change{Entity: e, Component: kind.Name(), Frame: w.tick.Frame})
}

// DrainChanges returns and clears all pending changes.
func (w *World) DrainChanges() []Change {
	if w == nil || len(w.changes.items) == 0 {
		return nil
	}
	out := w.changes.items
	w.changes.items = nil
	w.changes.seen = nil
	return out
}
