package system

import (
	"math"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/shipgrapple/ecs"
	"github.com/milk9111/shipgrapple/ecs/component"
)

// grappleAnchors holds the anchor points of a new tether, each in its grid's
// local frame, and the lower length bound implied by the gun tuning.
type grappleAnchors struct {
	Gun       cp.Vector
	Target    cp.Vector
	MinLength float64
}

// aimDirection returns the unit forward vector of an entity rotated by rot.
// Rotation zero aims along +Y.
func aimDirection(rot float64) cp.Vector {
	dir := cp.Vector{X: -math.Sin(rot), Y: math.Cos(rot)}
	if !finite(dir) || dir.Length() < 1e-9 {
		return cp.Vector{X: 0, Y: 1}
	}
	return dir.Normalize()
}

func finite(v cp.Vector) bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

func degenerate(v cp.Vector) bool {
	return !finite(v) || (v.X == 0 && v.Y == 0)
}

// impactPosition picks the world point the projectile struck, falling back
// to the projectile, the struck entity and finally the struck grid.
func impactPosition(w *ecs.World, hit *ecs.ProjectileHitEvent, targetGrid ecs.Entity) cp.Vector {
	candidates := []func() cp.Vector{
		func() cp.Vector { return hit.Impact },
		func() cp.Vector { return ecs.WorldPosition(w, hit.Projectile) },
		func() cp.Vector { return ecs.WorldPosition(w, hit.Target) },
		func() cp.Vector { return ecs.WorldPosition(w, targetGrid) },
	}
	for _, c := range candidates {
		if p := c(); !degenerate(p) {
			return p
		}
	}
	return cp.Vector{}
}

// computeGrappleAnchors projects the impact onto the gun's aim line so the
// rope leaves along the barrel, then moves both points into grid-local
// frames.
func computeGrappleAnchors(w *ecs.World, hit *ecs.ProjectileHitEvent, gunEnt ecs.Entity, gun *component.GrappleGun, gunGrid, targetGrid ecs.Entity) grappleAnchors {
	gunPos, gunRot, _ := ecs.WorldPositionRotation(w, gunEnt)
	gunGridPos, gunGridRot, _ := ecs.WorldPositionRotation(w, gunGrid)
	targetGridPos, targetGridRot, _ := ecs.WorldPositionRotation(w, targetGrid)

	dir := aimDirection(gunRot)
	impact := impactPosition(w, hit, targetGrid)
	gunAnchorWorld := gunPos.Add(dir.Mult(impact.Sub(gunPos).Dot(dir)))

	return grappleAnchors{
		Gun:       ecs.WorldToLocal(gunAnchorWorld, gunGridPos, gunGridRot),
		Target:    ecs.WorldToLocal(impact, targetGridPos, targetGridRot),
		MinLength: math.Max(0, gun.MinLength+gun.GridSeparationPadding),
	}
}
