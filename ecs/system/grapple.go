package system

import (
	"log"
	"math"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/shipgrapple/ecs"
	"github.com/milk9111/shipgrapple/ecs/component"
	"github.com/milk9111/shipgrapple/metrics"
)

const (
	grappleJointPrefix = "ship-grapple-"

	// GrappleCutCompletion is the completion token of a grapple cut tool use.
	GrappleCutCompletion = "grapple-cut"
)

// DetachReason says why a tether was torn down.
type DetachReason string

const (
	DetachRefire        DetachReason = "refire"
	DetachShutdown      DetachReason = "shutdown"
	DetachParentChanged DetachReason = "parent_changed"
	DetachCut           DetachReason = "cut"
	DetachStale         DetachReason = "stale"
)

// GrappleSystem tethers a gun's grid to the grid its projectile hits, reels
// the tether in every authoritative tick and tears it down when the gun,
// its grid or the joint go away.
type GrappleSystem struct {
	tools *ToolUseSystem
}

func NewGrappleSystem(tools *ToolUseSystem) *GrappleSystem {
	return &GrappleSystem{tools: tools}
}

// GrappleJointID is the joint id used by gun e. Entity handles carry their
// generation, so ids never collide between guns.
func GrappleJointID(e ecs.Entity) string {
	return grappleJointPrefix + e.String()
}

// Register subscribes the system's handlers and adds it to w's schedule.
func (s *GrappleSystem) Register(w *ecs.World) {
	if s == nil || w == nil {
		return
	}
	w.SubscribeAuthoritative(ecs.EventProjectileHit, s.onProjectileHit)
	w.SubscribeAuthoritative(ecs.EventInteractUsing, s.onInteractUsing)
	w.SubscribeAuthoritative(ecs.EventToolUseCompleted, s.onToolUseCompleted)
	w.SubscribeAuthoritative(ecs.EventParentChanged, s.onParentChanged)
	w.OnRemove(component.GrappleGunComponent.Kind(), func(w *ecs.World, e ecs.Entity, value any) {
		if gun, ok := value.(*component.GrappleGun); ok {
			s.ClearGrapple(w, e, gun, DetachShutdown)
		}
	})
	w.AddAuthoritativeSystem(s)
}

// Update reels in every active tether.
func (s *GrappleSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}
	pw := w.PhysicsWorld()
	dt := w.Tick().Dt
	active := 0

	ecs.ForEach(w, component.GrappleGunComponent, func(e ecs.Entity, gun *component.GrappleGun) {
		if gun.JointID == "" || gun.TargetGrid == 0 {
			return
		}

		gunGrid, ok := ecs.GridOf(w, e)
		if !ok {
			s.ClearGrapple(w, e, gun, DetachStale)
			return
		}

		joint, ok := pw.TryGetJoint(w, gunGrid, gun.JointID)
		if !ok || joint.Distance() == nil ||
			!w.IsAlive(ecs.Entity(joint.BodyA)) || !w.IsAlive(ecs.Entity(joint.BodyB)) {
			s.ClearGrapple(w, e, gun, DetachStale)
			return
		}

		// Never grow: a tether attached shorter than MinLength stays put.
		current := joint.MaxLength()
		newMax := math.Min(current, math.Max(gun.MinLength, current-gun.ReelRate*dt))
		joint.SetMaxLength(newMax)
		joint.SetMinLength(math.Min(joint.MinLength(), newMax))
		joint.SetLength(math.Min(joint.Length(), newMax))

		pw.WakeBody(ecs.Entity(joint.BodyA))
		pw.WakeBody(ecs.Entity(joint.BodyB))
		if set, ok := ecs.Get(w, gunGrid, component.JointSetComponent); ok && set.Relay != 0 {
			pw.WakeBody(ecs.Entity(set.Relay))
		}

		w.MarkChanged(gunGrid, component.JointSetComponent.Kind())
		metrics.ReelTick()
		active++
	})

	metrics.SetActiveTethers(active)
}

func (s *GrappleSystem) onProjectileHit(w *ecs.World, evt ecs.Event) {
	hit, ok := evt.Data.(*ecs.ProjectileHitEvent)
	if !ok || hit == nil {
		return
	}
	projectile, ok := ecs.Get(w, hit.Projectile, component.GrappleProjectileComponent)
	if !ok || projectile.Weapon == 0 {
		return
	}
	gunEnt := ecs.Entity(projectile.Weapon)
	gun, ok := ecs.Get(w, gunEnt, component.GrappleGunComponent)
	if !ok {
		return
	}
	pw := w.PhysicsWorld()
	if pw == nil {
		return
	}

	gunGrid, ok := ecs.GridOf(w, gunEnt)
	if !ok {
		return
	}
	targetGrid, ok := ecs.GridOf(w, hit.Target)
	if !ok || gunGrid == targetGrid {
		return
	}
	if ecs.Has(w, targetGrid, component.BlockGrappleComponent) {
		return
	}

	if _, err := ecs.Ensure(w, gunGrid, component.JointSetComponent); err != nil {
		log.Printf("grapple: gun %s: ensure joint set on grid %s: %v", gunEnt, gunGrid, err)
		return
	}
	if gun.JointID != "" || gun.TargetGrid != 0 {
		s.ClearGrapple(w, gunEnt, gun, DetachRefire)
	}

	id := GrappleJointID(gunEnt)
	anchors := computeGrappleAnchors(w, hit, gunEnt, gun, gunGrid, targetGrid)
	joint, err := pw.CreateDistanceJoint(w, gunGrid, gunGrid, targetGrid, anchors.Gun, anchors.Target, id)
	if err != nil {
		log.Printf("grapple: gun %s: %v", gunEnt, err)
		return
	}
	joint.SetMaxLength(joint.Length() + gun.Slack)
	joint.SetMinLength(math.Min(math.Max(gun.MinLength, anchors.MinLength), joint.MaxLength()))
	joint.SetStiffness(gun.Stiffness)

	gun.JointID = id
	gun.TargetGrid = uint64(targetGrid)
	w.MarkChanged(gunEnt, component.GrappleGunComponent.Kind())
	w.MarkChanged(gunGrid, component.JointSetComponent.Kind())

	visuals, err := ecs.Ensure(w, gunEnt, component.JointVisualsComponent)
	if err == nil {
		visuals.Sprite = component.SpriteSpecifier{RSI: component.GrappleRopeRSI, State: component.GrappleRopeState}
		visuals.Target = uint64(targetGrid)
		visuals.OffsetA = cp.Vector{}
		visuals.OffsetB = anchors.Target
		w.MarkChanged(gunEnt, component.JointVisualsComponent.Kind())
	}

	metrics.GrappleAttached()
	w.DestroyEntity(hit.Projectile)
}

func (s *GrappleSystem) onParentChanged(w *ecs.World, evt ecs.Event) {
	changed, ok := evt.Data.(*ecs.ParentChangedEvent)
	if !ok || changed == nil {
		return
	}
	gun, ok := ecs.Get(w, changed.Entity, component.GrappleGunComponent)
	if !ok || gun.TargetGrid == 0 {
		return
	}
	// Anchors are grid-local, so leaving a grid always invalidates the tether.
	if !changed.OldParent.Valid() || ecs.Has(w, changed.OldParent, component.GridComponent) {
		s.clearGrapple(w, changed.Entity, gun, changed.OldParent, DetachParentChanged)
	}
}

func (s *GrappleSystem) onInteractUsing(w *ecs.World, evt ecs.Event) {
	interact, ok := evt.Data.(*ecs.InteractUsingEvent)
	if !ok || interact == nil || interact.Handled {
		return
	}
	gun, ok := ecs.Get(w, interact.Target, component.GrappleGunComponent)
	if !ok || gun.JointID == "" || gun.TargetGrid == 0 || s.tools == nil {
		return
	}
	interact.Handled = s.tools.UseTool(w, ToolUseRequest{
		Tool:       interact.Used,
		User:       interact.User,
		Target:     interact.Target,
		Delay:      gun.CutDelay,
		Quality:    gun.CutQuality,
		Completion: GrappleCutCompletion,
	})
}

func (s *GrappleSystem) onToolUseCompleted(w *ecs.World, evt ecs.Event) {
	done, ok := evt.Data.(*ecs.ToolUseCompletedEvent)
	if !ok || done == nil || done.Completion != GrappleCutCompletion || done.Cancelled {
		return
	}
	gun, ok := ecs.Get(w, done.Target, component.GrappleGunComponent)
	if !ok {
		return
	}
	s.ClearGrapple(w, done.Target, gun, DetachCut)
}

// ClearGrapple removes gun e's joint, if any, clears its tether record and
// drops the rope visuals. Safe to call on a gun without a tether.
func (s *GrappleSystem) ClearGrapple(w *ecs.World, e ecs.Entity, gun *component.GrappleGun, reason DetachReason) {
	s.clearGrapple(w, e, gun, 0, reason)
}

// clearGrapple is ClearGrapple with a hint for where the joint lives, used
// when the gun has already left the grid that owns it.
func (s *GrappleSystem) clearGrapple(w *ecs.World, e ecs.Entity, gun *component.GrappleGun, ownerHint ecs.Entity, reason DetachReason) {
	if w == nil || gun == nil {
		return
	}
	hadTether := gun.JointID != "" || gun.TargetGrid != 0

	if gun.JointID != "" {
		if owner, ok := findJointOwner(w, e, gun.JointID, ownerHint); ok {
			w.PhysicsWorld().RemoveJoint(w, owner, gun.JointID)
			w.MarkChanged(owner, component.JointSetComponent.Kind())
		}
	}
	gun.Detach()

	if ecs.Has(w, e, component.JointVisualsComponent) {
		ecs.Remove(w, e, component.JointVisualsComponent)
		w.MarkChanged(e, component.JointVisualsComponent.Kind())
	}
	if !hadTether {
		return
	}
	w.MarkChanged(e, component.GrappleGunComponent.Kind())
	metrics.GrappleDetached(string(reason))
	if reason == DetachStale {
		log.Printf("grapple: gun %s: tether lost its joint or grid, cleared", e)
	}
}

// findJointOwner locates the grid whose JointSet holds id: the hinted grid,
// then the gun's current grid, then any grid.
func findJointOwner(w *ecs.World, gunEnt ecs.Entity, id string, hint ecs.Entity) (ecs.Entity, bool) {
	holds := func(g ecs.Entity) bool {
		set, ok := ecs.Get(w, g, component.JointSetComponent)
		if !ok {
			return false
		}
		_, ok = set.Get(id)
		return ok
	}
	if hint.Valid() {
		if g, ok := ecs.GridOf(w, hint); ok && holds(g) {
			return g, true
		}
	}
	if g, ok := ecs.GridOf(w, gunEnt); ok && holds(g) {
		return g, true
	}
	for _, g := range w.Query(component.JointSetComponent.Kind()) {
		if holds(g) {
			return g, true
		}
	}
	return 0, false
}
