package system

import (
	"log"

	"github.com/milk9111/shipgrapple/ecs"
	"github.com/milk9111/shipgrapple/ecs/component"
)

// PhysicsSystem keeps the Chipmunk space in sync with grid entities: it
// creates missing bodies, steps the space and copies body poses back into
// grid transforms.
type PhysicsSystem struct{}

func NewPhysicsSystem() *PhysicsSystem { return &PhysicsSystem{} }

func (ps *PhysicsSystem) Update(w *ecs.World) {
	if ps == nil || w == nil {
		return
	}
	pw := w.PhysicsWorld()
	if pw == nil {
		return
	}

	ps.syncBodies(w)
	pw.Step(w.Tick().Dt)
	ps.syncTransforms(w)
}

func (ps *PhysicsSystem) syncBodies(w *ecs.World) {
	pw := w.PhysicsWorld()
	for _, e := range w.Query(component.PhysicsBodyComponent.Kind(), component.TransformComponent.Kind()) {
		pb, _ := ecs.Get(w, e, component.PhysicsBodyComponent)
		if pb.Body != nil {
			continue
		}
		t, _ := ecs.Get(w, e, component.TransformComponent)
		if _, err := pw.EnsureBody(e, t, pb); err != nil {
			log.Printf("physics system: entity %s: %v", e, err)
		}
	}
}

func (ps *PhysicsSystem) syncTransforms(w *ecs.World) {
	for _, e := range w.Query(component.PhysicsBodyComponent.Kind(), component.TransformComponent.Kind()) {
		pb, _ := ecs.Get(w, e, component.PhysicsBodyComponent)
		if pb.Body == nil || pb.Static {
			continue
		}
		t, _ := ecs.Get(w, e, component.TransformComponent)
		pos := pb.Body.Position()
		if t.X == pos.X && t.Y == pos.Y && t.Rotation == pb.Body.Angle() {
			continue
		}
		t.X, t.Y, t.Rotation = pos.X, pos.Y, pb.Body.Angle()
		w.MarkChanged(e, component.TransformComponent.Kind())
	}
}
