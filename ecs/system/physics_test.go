package system

import (
	"testing"

	"github.com/milk9111/shipgrapple/ecs"
	"github.com/milk9111/shipgrapple/ecs/component"
)

func TestPhysicsSystemCreatesBodiesAndSyncsTransforms(t *testing.T) {
	w := ecs.NewWorld()
	pw := ecs.NewPhysicsWorld()
	w.SetPhysicsWorld(pw)
	w.AddSystem(NewPhysicsSystem())

	e := w.CreateEntity()
	tr := &component.Transform{X: 1, Y: 2}
	mustAdd(t, ecs.Add(w, e, component.TransformComponent, tr))
	mustAdd(t, ecs.Add(w, e, component.PhysicsBodyComponent, &component.PhysicsBody{Width: 1, Height: 1, Mass: 1}))

	w.Update(ecs.Tick{Dt: 1.0 / 30, FirstTimePredicted: true})
	body, ok := pw.Body(e)
	if !ok {
		t.Fatalf("body not created")
	}

	body.SetVelocity(3, 0)
	w.DrainChanges()
	w.Update(ecs.Tick{Dt: 1, FirstTimePredicted: true})

	if tr.X <= 1 {
		t.Fatalf("transform not synced from body: %+v", tr)
	}
	found := false
	for _, c := range w.DrainChanges() {
		if c.Entity == e && c.Component == component.TransformComponent.Kind().Name() {
			found = true
		}
	}
	if !found {
		t.Fatalf("moved grid transform was not marked changed")
	}
}
