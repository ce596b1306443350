package ecs

import (
	"fmt"
	"sort"

	"github.com/milk9111/shipgrapple/ecs/component"
)

// System updates a world each tick.
type System interface {
	Update(w *World)
}

// Tick describes the simulation step being run. FirstTimePredicted is false
// while a client re-simulates already predicted ticks; mutating systems and
// handlers registered as authoritative are skipped on those passes.
type Tick struct {
	Frame              int64
	Dt                 float64
	FirstTimePredicted bool
}

// RemoveHook runs when a component is removed from an entity, either
// directly or because the entity is destroyed. value is the removed component.
type RemoveHook func(w *World, e Entity, value any)

// World owns entities, components, events and system order.
type World struct {
	entities entityStore
	stores   []*SparseSet // indexed by component id

	removeHooks map[component.ComponentID][]RemoveHook
	destroying  map[Entity]bool

	scheduler  Scheduler
	events     EventQueue
	dispatcher dispatcher
	changes    ChangeLog
	tick       Tick

	physicsWorld  *PhysicsWorld
	physicsHooked bool
}

// NewWorld creates an empty ECS world.
func NewWorld() *World {
	return &World{
		removeHooks: make(map[component.ComponentID][]RemoveHook),
		destroying:  make(map[Entity]bool),
		tick:        Tick{FirstTimePredicted: true},
	}
}

// CreateEntity allocates a new entity.
func (w *World) CreateEntity() Entity {
	return w.entities.create()
}

// DestroyEntity runs remove hooks for every component the entity carries,
// drops the components and invalidates the handle. Returns false for dead
// handles.
func (w *World) DestroyEntity(e Entity) bool {
	if w == nil || !w.entities.isAlive(e) || w.destroying[e] {
		return false
	}
	if w.destroying == nil {
		w.destroying = make(map[Entity]bool)
	}
	w.destroying[e] = true
	defer delete(w.destroying, e)

	for cid, store := range w.stores {
		if !store.Has(e.id()) {
			continue
		}
		value := store.Get(e.id())
		for _, hook := range w.removeHooks[component.ComponentID(cid)] {
			hook(w, e, value)
		}
	}
	for _, store := range w.stores {
		store.Remove(e.id())
	}
	return w.entities.destroy(e)
}

// IsAlive reports whether an entity handle is valid.
func (w *World) IsAlive(e Entity) bool {
	if w == nil {
		return false
	}
	return w.entities.isAlive(e)
}

// EntityCount returns the number of live entities.
func (w *World) EntityCount() int {
	if w == nil {
		return 0
	}
	return w.entities.count
}

func (w *World) store(kind component.Kind, create bool) *SparseSet {
	id := int(kind.ID())
	if id >= len(w.stores) {
		if !create {
			return nil
		}
		grown := make([]*SparseSet, id+1)
		copy(grown, w.stores)
		w.stores = grown
	}
	if w.stores[id] == nil && create {
		w.stores[id] = &SparseSet{}
	}
	return w.stores[id]
}

// AddComponent sets a component value on a live entity, replacing any
// previous value of the same kind.
func (w *World) AddComponent(e Entity, kind component.Kind, value any) error {
	if w == nil || !w.entities.isAlive(e) {
		return component.ErrEntityNotAlive
	}
	if kind == nil || kind.ID() == 0 {
		return component.ErrInvalidComponentKind
	}
	if value == nil {
		return component.ErrNilComponent
	}
	w.store(kind, true).Set(e.id(), value)
	return nil
}

// GetComponent returns the stored component value.
func (w *World) GetComponent(e Entity, kind component.Kind) (any, bool) {
	if w == nil || kind == nil || !w.entities.isAlive(e) {
		return nil, false
	}
	s := w.store(kind, false)
	if s == nil || !s.Has(e.id()) {
		return nil, false
	}
	return s.Get(e.id()), true
}

// HasComponent reports whether the entity carries a component of kind.
func (w *World) HasComponent(e Entity, kind component.Kind) bool {
	_, ok := w.GetComponent(e, kind)
	return ok
}

// RemoveComponent removes a component and fires its remove hooks.
func (w *World) RemoveComponent(e Entity, kind component.Kind) bool {
	if w == nil || kind == nil || !w.entities.isAlive(e) {
		return false
	}
	s := w.store(kind, false)
	if s == nil || !s.Has(e.id()) {
		return false
	}
	value := s.Get(e.id())
	s.Remove(e.id())
	if w.destroying[e] {
		return true
	}
	for _, hook := range w.removeHooks[kind.ID()] {
		hook(w, e, value)
	}
	return true
}

// OnRemove registers a hook fired whenever a component of kind is removed.
func (w *World) OnRemove(kind component.Kind, hook RemoveHook) {
	if w == nil || kind == nil || hook == nil {
		return
	}
	if w.removeHooks == nil {
		w.removeHooks = make(map[component.ComponentID][]RemoveHook)
	}
	w.removeHooks[kind.ID()] = append(w.removeHooks[kind.ID()], hook)
}

// Query returns live entities carrying every listed kind, in slot order.
func (w *World) Query(kinds ...component.Kind) []Entity {
	if w == nil || len(kinds) == 0 {
		return nil
	}
	stores := make([]*SparseSet, 0, len(kinds))
	for _, k := range kinds {
		s := w.store(k, false)
		if s == nil || s.Len() == 0 {
			return nil
		}
		stores = append(stores, s)
	}
	// iterate the smallest store
	sort.Slice(stores, func(i, j int) bool { return stores[i].Len() < stores[j].Len() })

	ids := stores[0].ids()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]Entity, 0, len(ids))
next:
	for _, id := range ids {
		for _, s := range stores[1:] {
			if !s.Has(id) {
				continue next
			}
		}
		if e, ok := w.entities.handle(id); ok {
			out = append(out, e)
		}
	}
	return out
}

// First returns the first live entity carrying kind.
func (w *World) First(kind component.Kind) (Entity, bool) {
	ents := w.Query(kind)
	if len(ents) == 0 {
		return 0, false
	}
	return ents[0], true
}

// AddSystem appends a system that runs on every tick, predicted or not.
func (w *World) AddSystem(s System) {
	if w == nil {
		return
	}
	w.scheduler.Add(s)
}

// AddAuthoritativeSystem appends a system that only runs on the first
// authoritative pass of a tick.
func (w *World) AddAuthoritativeSystem(s System) {
	if w == nil {
		return
	}
	w.scheduler.AddAuthoritative(s)
}

// Update runs one tick: pending events are dispatched, then every system in
// order, dispatching events raised by each system before the next one runs.
func (w *World) Update(tick Tick) {
	if w == nil {
		return
	}
	w.tick = tick
	w.dispatch()
	w.scheduler.Update(w, tick)
}

// Tick returns the tick currently being run.
func (w *World) Tick() Tick {
	if w == nil {
		return Tick{}
	}
	return w.tick
}

// SetPhysicsWorld attaches a physics world and hooks body/joint teardown to
// component removal.
func (w *World) SetPhysicsWorld(pw *PhysicsWorld) {
	if w == nil {
		return
	}
	w.physicsWorld = pw
	if pw == nil || w.physicsHooked {
		return
	}
	w.physicsHooked = true
	w.OnRemove(component.PhysicsBodyComponent.Kind(), func(w *World, e Entity, value any) {
		if w.physicsWorld != nil {
			pb, _ := value.(*component.PhysicsBody)
			w.physicsWorld.RemoveBody(w, e, pb)
		}
	})
	w.OnRemove(component.JointSetComponent.Kind(), func(w *World, _ Entity, value any) {
		set, ok := value.(*component.JointSet)
		if !ok || w.physicsWorld == nil {
			return
		}
		for id, j := range set.Joints {
			w.physicsWorld.removeConstraints(j)
			delete(set.Joints, id)
		}
	})
}

// PhysicsWorld returns the attached physics world, if any.
func (w *World) PhysicsWorld() *PhysicsWorld {
	if w == nil {
		return nil
	}
	return w.physicsWorld
}

func (w *World) String() string {
	return fmt.Sprintf("World{entities=%d frame=%d}", w.EntityCount(), w.tick.Frame)
}
