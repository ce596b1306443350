package entity

import (
	"fmt"

	"github.com/milk9111/shipgrapple/ecs"
	"github.com/milk9111/shipgrapple/ecs/component"
	"github.com/milk9111/shipgrapple/prefabs"
)

// NewGrid creates a grid entity with a physics body at the configured pose. The
// body is created immediately when the world has a physics world attached.
func NewGrid(w *ecs.World, spec prefabs.GridSpec) (ecs.Entity, error) {
	if w == nil {
		return 0, fmt.Errorf("grid: world is nil")
	}

	e := w.CreateEntity()
	t := &component.Transform{X: spec.Transform.X, Y: spec.Transform.Y, Rotation: spec.Transform.Rotation}
	if err := ecs.Add(w, e, component.TransformComponent, t); err != nil {
		w.DestroyEntity(e)
		return 0, fmt.Errorf("grid %q: add transform: %w", spec.Name, err)
	}
	if err := ecs.Add(w, e, component.GridComponent, &component.Grid{Name: spec.Name}); err != nil {
		w.DestroyEntity(e)
		return 0, fmt.Errorf("grid %q: add grid: %w", spec.Name, err)
	}

	mass := spec.Mass
	if !spec.Static && mass == 0 {
		mass = 1
	}
	pb := &component.PhysicsBody{
		Width:  spec.Width,
		Height: spec.Height,
		Mass:   mass,
		Static: spec.Static,
	}
	if err := ecs.Add(w, e, component.PhysicsBodyComponent, pb); err != nil {
		w.DestroyEntity(e)
		return 0, fmt.Errorf("grid %q: add physics body: %w", spec.Name, err)
	}
	if pw := w.PhysicsWorld(); pw != nil {
		if _, err := pw.EnsureBody(e, t, pb); err != nil {
			w.DestroyEntity(e)
			return 0, fmt.Errorf("grid %q: %w", spec.Name, err)
		}
	}

	if spec.BlockGrapple {
		if err := ecs.Add(w, e, component.BlockGrappleComponent, &component.BlockGrapple{}); err != nil {
			w.DestroyEntity(e)
			return 0, fmt.Errorf("grid %q: add block grapple: %w", spec.Name, err)
		}
	}
	return e, nil
}

// SetGridRelay makes relay's body wake whenever grid's joints are touched.
// Both must be grids.
func SetGridRelay(w *ecs.World, grid, relay ecs.Entity) error {
	if !ecs.Has(w, grid, component.GridComponent) {
		return fmt.Errorf("relay: %s is not a grid", grid)
	}
	if !ecs.Has(w, relay, component.GridComponent) || grid == relay {
		return fmt.Errorf("relay: %s cannot relay for %s", relay, grid)
	}
	set, err := ecs.Ensure(w, grid, component.JointSetComponent)
	if err != nil {
		return fmt.Errorf("relay: grid %s: %w", grid, err)
	}
	set.Relay = uint64(relay)
	w.MarkChanged(grid, component.JointSetComponent.Kind())
	return nil
}

// SetEntityTransform overwrites e's local pose, keeping its parent.
func SetEntityTransform(w *ecs.World, e ecs.Entity, x, y, rotation float64) error {
	t, err := ecs.Ensure(w, e, component.TransformComponent)
	if err != nil {
		return err
	}
	t.X = x
	t.Y = y
	t.Rotation = rotation
	w.MarkChanged(e, component.TransformComponent.Kind())
	return nil
}
