package entity

import (
	"fmt"

	"github.com/milk9111/shipgrapple/ecs"
	"github.com/milk9111/shipgrapple/ecs/component"
	"github.com/milk9111/shipgrapple/prefabs"
)

const DefaultGrappleGunPrefab = "grapple_gun.yaml"

// NewGrappleGun mounts a gun loaded from prefabPath on grid at the given
// grid-local pose.
func NewGrappleGun(w *ecs.World, grid ecs.Entity, prefabPath string, pose prefabs.TransformSpec) (ecs.Entity, error) {
	if w == nil {
		return 0, fmt.Errorf("grapple gun: world is nil")
	}
	if !ecs.Has(w, grid, component.GridComponent) {
		return 0, fmt.Errorf("grapple gun: parent %s is not a grid", grid)
	}
	if prefabPath == "" {
		prefabPath = DefaultGrappleGunPrefab
	}
	spec, err := prefabs.LoadGrappleGunSpec(prefabPath)
	if err != nil {
		return 0, fmt.Errorf("grapple gun: %w", err)
	}

	e := w.CreateEntity()
	t := &component.Transform{X: pose.X, Y: pose.Y, Rotation: pose.Rotation, Parent: uint64(grid)}
	if err := ecs.Add(w, e, component.TransformComponent, t); err != nil {
		w.DestroyEntity(e)
		return 0, fmt.Errorf("grapple gun: add transform: %w", err)
	}
	gun := component.NewGrappleGun()
	ApplyGrappleGunSpec(gun, spec)
	if err := ecs.Add(w, e, component.GrappleGunComponent, gun); err != nil {
		w.DestroyEntity(e)
		return 0, fmt.Errorf("grapple gun: add gun: %w", err)
	}
	return e, nil
}

// ApplyGrappleGunSpec copies tuning onto gun. The tether record is left
// alone so reloading tuning never drops an active tether.
func ApplyGrappleGunSpec(gun *component.GrappleGun, spec *prefabs.GrappleGunSpec) {
	if gun == nil || spec == nil {
		return
	}
	set := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	set(&gun.ReelRate, spec.ReelRate)
	set(&gun.MinLength, spec.MinLength)
	set(&gun.Slack, spec.Slack)
	set(&gun.Stiffness, spec.Stiffness)
	set(&gun.GridSeparationPadding, spec.GridSeparationPadding)
	set(&gun.CutDelay, spec.CutDelay)
	if spec.CutQuality != "" {
		gun.CutQuality = spec.CutQuality
	}
}

// NewGrappleProjectile spawns a projectile fired by gun at the world point
// (x, y).
func NewGrappleProjectile(w *ecs.World, gun ecs.Entity, x, y float64) (ecs.Entity, error) {
	if !ecs.Has(w, gun, component.GrappleGunComponent) {
		return 0, fmt.Errorf("grapple projectile: %s is not a grapple gun", gun)
	}
	e := w.CreateEntity()
	if err := ecs.Add(w, e, component.TransformComponent, &component.Transform{X: x, Y: y}); err != nil {
		w.DestroyEntity(e)
		return 0, fmt.Errorf("grapple projectile: add transform: %w", err)
	}
	if err := ecs.Add(w, e, component.GrappleProjectileComponent, &component.GrappleProjectile{Weapon: uint64(gun)}); err != nil {
		w.DestroyEntity(e)
		return 0, fmt.Errorf("grapple projectile: add projectile: %w", err)
	}
	return e, nil
}
