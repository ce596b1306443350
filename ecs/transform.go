package ecs

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/shipgrapple/ecs/component"
)

// maxHierarchyDepth guards against parent cycles.
const maxHierarchyDepth = 64

// WorldPositionRotation resolves an entity's world pose. Entities with a
// physics body report the body's pose; others compose their local transform
// with their parent chain. A dead parent is treated as the world root.
func WorldPositionRotation(w *World, e Entity) (cp.Vector, float64, bool) {
	return worldPose(w, e, 0)
}

func worldPose(w *World, e Entity, depth int) (cp.Vector, float64, bool) {
	if w == nil || !w.IsAlive(e) || depth > maxHierarchyDepth {
		return cp.Vector{}, 0, false
	}
	if pb, ok := Get(w, e, component.PhysicsBodyComponent); ok && pb.Body != nil {
		return pb.Body.Position(), pb.Body.Angle(), true
	}
	t, ok := Get(w, e, component.TransformComponent)
	if !ok {
		return cp.Vector{}, 0, false
	}
	local := cp.Vector{X: t.X, Y: t.Y}
	parent := Entity(t.Parent)
	if !parent.Valid() {
		return local, t.Rotation, true
	}
	ppos, prot, ok := worldPose(w, parent, depth+1)
	if !ok {
		return local, t.Rotation, true
	}
	return ppos.Add(local.Rotate(cp.ForAngle(prot))), prot + t.Rotation, true
}

// WorldPosition is WorldPositionRotation without the rotation.
func WorldPosition(w *World, e Entity) cp.Vector {
	pos, _, _ := WorldPositionRotation(w, e)
	return pos
}

// GridOf returns the nearest entity in e's parent chain, e included, that is
// a grid. Returns false when the chain reaches a root or a dead parent first.
func GridOf(w *World, e Entity) (Entity, bool) {
	cur := e
	for depth := 0; depth <= maxHierarchyDepth; depth++ {
		if !w.IsAlive(cur) {
			return 0, false
		}
		if Has(w, cur, component.GridComponent) {
			return cur, true
		}
		t, ok := Get(w, cur, component.TransformComponent)
		if !ok || t.Parent == 0 {
			return 0, false
		}
		cur = Entity(t.Parent)
	}
	return 0, false
}

// WorldToLocal expresses a world point in the frame at origin rotated by rot.
func WorldToLocal(world, origin cp.Vector, rot float64) cp.Vector {
	return world.Sub(origin).Unrotate(cp.ForAngle(rot))
}

// LocalToWorld is the inverse of WorldToLocal.
func LocalToWorld(local, origin cp.Vector, rot float64) cp.Vector {
	return origin.Add(local.Rotate(cp.ForAngle(rot)))
}

// SetParent moves e under parent, keeping its world pose, and raises a
// ParentChangedEvent. A zero parent detaches e to the world root.
func SetParent(w *World, e, parent Entity) error {
	t, ok := Get(w, e, component.TransformComponent)
	if !ok {
		return component.ErrEntityNotAlive
	}
	old := Entity(t.Parent)
	if old == parent {
		return nil
	}

	pos, rot, _ := WorldPositionRotation(w, e)
	t.Parent = uint64(parent)
	local, localRot := pos, rot
	if parent.Valid() {
		ppos, prot, ok := WorldPositionRotation(w, parent)
		if ok {
			local = WorldToLocal(pos, ppos, prot)
			localRot = rot - prot
		}
	}
	t.X, t.Y, t.Rotation = local.X, local.Y, localRot

	w.MarkChanged(e, component.TransformComponent.Kind())
	w.Emit(EventParentChanged, &ParentChangedEvent{Entity: e, OldParent: old, NewParent: parent})
	return nil
}
