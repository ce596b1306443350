package component

import "github.com/jakecoffman/cp"

// Joint is a distance link between two grids. Constraint is a slide joint
// holding the anchors and the min/max bounds; Spring pulls the bodies toward
// the current length with the configured stiffness.
type Joint struct {
	ID         string
	BodyA      uint64 // ecs.Entity owning the joint
	BodyB      uint64 // ecs.Entity at the far end
	Constraint *cp.Constraint
	Spring     *cp.Constraint
}

// Distance returns the slide joint backing j, or nil if the constraint is of
// another type.
func (j *Joint) Distance() *cp.SlideJoint {
	if j == nil || j.Constraint == nil {
		return nil
	}
	slide, ok := j.Constraint.Class.(*cp.SlideJoint)
	if !ok {
		return nil
	}
	return slide
}

func (j *Joint) spring() *cp.DampedSpring {
	if j == nil || j.Spring == nil {
		return nil
	}
	spring, ok := j.Spring.Class.(*cp.DampedSpring)
	if !ok {
		return nil
	}
	return spring
}

func (j *Joint) AnchorA() cp.Vector {
	if d := j.Distance(); d != nil {
		return d.AnchorA
	}
	return cp.Vector{}
}

func (j *Joint) AnchorB() cp.Vector {
	if d := j.Distance(); d != nil {
		return d.AnchorB
	}
	return cp.Vector{}
}

func (j *Joint) MaxLength() float64 {
	if d := j.Distance(); d != nil {
		return d.Max
	}
	return 0
}

func (j *Joint) SetMaxLength(v float64) {
	if d := j.Distance(); d != nil {
		d.Max = v
	}
}

func (j *Joint) MinLength() float64 {
	if d := j.Distance(); d != nil {
		return d.Min
	}
	return 0
}

func (j *Joint) SetMinLength(v float64) {
	if d := j.Distance(); d != nil {
		d.Min = v
	}
}

// Length is the rest length the spring pulls toward. Without a spring the
// joint is rigid at its max length.
func (j *Joint) Length() float64 {
	if s := j.spring(); s != nil {
		return s.RestLength
	}
	return j.MaxLength()
}

func (j *Joint) SetLength(v float64) {
	if s := j.spring(); s != nil {
		s.RestLength = v
	}
}

func (j *Joint) Stiffness() float64 {
	if s := j.spring(); s != nil {
		return s.Stiffness
	}
	return 0
}

func (j *Joint) SetStiffness(v float64) {
	if s := j.spring(); s != nil {
		s.Stiffness = v
	}
}

// JointSet holds the joints owned by a grid, keyed by joint id. Relay is an
// optional body that mirrors the grid and is woken along with its joints.
type JointSet struct {
	Joints map[string]*Joint
	Relay  uint64 // ecs.Entity
}

var JointSetComponent = NewComponent[JointSet]()

// Get returns the joint with id.
func (s *JointSet) Get(id string) (*Joint, bool) {
	if s == nil || s.Joints == nil {
		return nil, false
	}
	j, ok := s.Joints[id]
	return j, ok && j != nil
}
