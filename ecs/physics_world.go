package ecs

import (
	"errors"
	"fmt"
	"math"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/shipgrapple/ecs/component"
)

var (
	ErrNoPhysicsWorld = errors.New("physics: no physics world attached")
	ErrNoBody         = errors.New("physics: entity has no body")
	ErrJointExists    = errors.New("physics: joint id already in use")
)

const (
	spaceIterations = 20
	springDamping   = 1.0
)

// PhysicsWorld owns the Chipmunk space and the body of every grid. Joints
// live in the owning grid's JointSet component; the physics world only
// creates them and keeps the space in sync.
type PhysicsWorld struct {
	space  *cp.Space
	bodies map[Entity]*cp.Body
}

// NewPhysicsWorld creates an empty, gravity-free physics world.
func NewPhysicsWorld() *PhysicsWorld {
	space := cp.NewSpace()
	space.Iterations = spaceIterations
	space.SetGravity(cp.Vector{})
	return &PhysicsWorld{
		space:  space,
		bodies: make(map[Entity]*cp.Body),
	}
}

// Space returns the underlying Chipmunk space.
func (pw *PhysicsWorld) Space() *cp.Space {
	if pw == nil {
		return nil
	}
	return pw.space
}

// Body returns the body registered for e.
func (pw *PhysicsWorld) Body(e Entity) (*cp.Body, bool) {
	if pw == nil {
		return nil, false
	}
	b, ok := pw.bodies[e]
	return b, ok && b != nil
}

// EnsureBody creates the body (and box shape) for a grid if needed and
// stores it on the PhysicsBody component.
func (pw *PhysicsWorld) EnsureBody(e Entity, t *component.Transform, pb *component.PhysicsBody) (*cp.Body, error) {
	if pw == nil || pw.space == nil {
		return nil, ErrNoPhysicsWorld
	}
	if t == nil || pb == nil {
		return nil, component.ErrNilComponent
	}
	if pb.Body != nil {
		pw.bodies[e] = pb.Body
		return pb.Body, nil
	}

	var body *cp.Body
	if pb.Static {
		body = cp.NewStaticBody()
	} else {
		mass := pb.Mass
		if mass <= 0 {
			mass = 1
		}
		moment := pb.Moment
		if moment <= 0 {
			if pb.Width > 0 && pb.Height > 0 {
				moment = cp.MomentForBox(mass, pb.Width, pb.Height)
			} else {
				moment = math.Inf(1)
			}
		}
		body = cp.NewBody(mass, moment)
	}
	body.SetPosition(cp.Vector{X: t.X, Y: t.Y})
	body.SetAngle(t.Rotation)
	pw.space.AddBody(body)

	if pb.Width > 0 && pb.Height > 0 {
		shape := cp.NewBox(body, pb.Width, pb.Height, 0)
		shape.SetFriction(pb.Friction)
		shape.SetElasticity(pb.Elasticity)
		pw.space.AddShape(shape)
		pb.Shape = shape
	}

	pb.Body = body
	pw.bodies[e] = body
	return body, nil
}

// RemoveBody removes e's body, its shape and every joint touching it. pb is
// the body component being torn down; it may already be gone from the world.
func (pw *PhysicsWorld) RemoveBody(w *World, e Entity, pb *component.PhysicsBody) {
	if pw == nil {
		return
	}
	body, ok := pw.bodies[e]
	if !ok {
		return
	}
	if w != nil {
		ForEach(w, component.JointSetComponent, func(owner Entity, set *component.JointSet) {
			for id, j := range set.Joints {
				if Entity(j.BodyA) != e && Entity(j.BodyB) != e {
					continue
				}
				pw.removeConstraints(j)
				delete(set.Joints, id)
				w.MarkChanged(owner, component.JointSetComponent.Kind())
			}
		})
		if pb == nil {
			pb, _ = Get(w, e, component.PhysicsBodyComponent)
		}
	}
	if pb != nil {
		if pb.Shape != nil && pw.space.ContainsShape(pb.Shape) {
			pw.space.RemoveShape(pb.Shape)
		}
		pb.Shape = nil
		pb.Body = nil
	}
	if pw.space.ContainsBody(body) {
		pw.space.RemoveBody(body)
	}
	delete(pw.bodies, e)
}

// CreateDistanceJoint links a and b with a slide joint and spring, stored in
// owner's JointSet under id. Anchors are in each body's local frame. The
// joint starts with length and max length equal to the current anchor
// distance and a min length of zero.
func (pw *PhysicsWorld) CreateDistanceJoint(w *World, owner, a, b Entity, anchorA, anchorB cp.Vector, id string) (*component.Joint, error) {
	if pw == nil || pw.space == nil {
		return nil, ErrNoPhysicsWorld
	}
	bodyA, ok := pw.Body(a)
	if !ok {
		return nil, fmt.Errorf("physics: create joint %q: body a %s: %w", id, a, ErrNoBody)
	}
	bodyB, ok := pw.Body(b)
	if !ok {
		return nil, fmt.Errorf("physics: create joint %q: body b %s: %w", id, b, ErrNoBody)
	}
	set, err := Ensure(w, owner, component.JointSetComponent)
	if err != nil {
		return nil, fmt.Errorf("physics: create joint %q: %w", id, err)
	}
	if set.Joints == nil {
		set.Joints = make(map[string]*component.Joint)
	}
	if _, exists := set.Joints[id]; exists {
		return nil, fmt.Errorf("physics: create joint %q: %w", id, ErrJointExists)
	}

	worldA := LocalToWorld(anchorA, bodyA.Position(), bodyA.Angle())
	worldB := LocalToWorld(anchorB, bodyB.Position(), bodyB.Angle())
	length := worldA.Distance(worldB)

	joint := &component.Joint{
		ID:         id,
		BodyA:      uint64(a),
		BodyB:      uint64(b),
		Constraint: pw.space.AddConstraint(cp.NewSlideJoint(bodyA, bodyB, anchorA, anchorB, 0, length)),
		Spring:     pw.space.AddConstraint(cp.NewDampedSpring(bodyA, bodyB, anchorA, anchorB, length, 0, springDamping)),
	}
	set.Joints[id] = joint
	return joint, nil
}

// TryGetJoint looks up a joint by id in owner's JointSet.
func (pw *PhysicsWorld) TryGetJoint(w *World, owner Entity, id string) (*component.Joint, bool) {
	set, ok := Get(w, owner, component.JointSetComponent)
	if !ok {
		return nil, false
	}
	return set.Get(id)
}

// RemoveJoint removes a joint from owner's JointSet and from the space.
func (pw *PhysicsWorld) RemoveJoint(w *World, owner Entity, id string) bool {
	set, ok := Get(w, owner, component.JointSetComponent)
	if !ok {
		return false
	}
	j, ok := set.Joints[id]
	if !ok {
		return false
	}
	pw.removeConstraints(j)
	delete(set.Joints, id)
	return true
}

func (pw *PhysicsWorld) removeConstraints(j *component.Joint) {
	if pw == nil || pw.space == nil || j == nil {
		return
	}
	for _, c := range []*cp.Constraint{j.Constraint, j.Spring} {
		if c != nil && pw.space.ContainsConstraint(c) {
			pw.space.RemoveConstraint(c)
		}
	}
}

// WakeBody wakes e's body so the solver processes it this step.
func (pw *PhysicsWorld) WakeBody(e Entity) {
	if body, ok := pw.Body(e); ok {
		body.Activate()
	}
}

// Step advances the physics simulation.
func (pw *PhysicsWorld) Step(dt float64) {
	if pw == nil || pw.space == nil || dt <= 0 {
		return
	}
	pw.space.Step(dt)
}
