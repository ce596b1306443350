package component

const (
	DefaultGrappleReelRate              = 8.0
	DefaultGrappleMinLength             = 5.0
	DefaultGrappleSlack                 = 2.0
	DefaultGrappleStiffness             = 1.0
	DefaultGrappleGridSeparationPadding = 0.5
	DefaultGrappleCutDelay              = 1.0
	DefaultGrappleCutQuality            = "Slicing"
)

// GrappleGun is a weapon that tethers its own grid to the grid its projectile
// hits, then reels the tether in.
//
// JointID and TargetGrid are set and cleared together.
type GrappleGun struct {
	ReelRate              float64 // length per second
	MinLength             float64
	Slack                 float64
	Stiffness             float64
	GridSeparationPadding float64
	CutDelay              float64 // seconds
	CutQuality            string

	JointID    string
	TargetGrid uint64 // ecs.Entity
}

var GrappleGunComponent = NewComponent[GrappleGun]()

// NewGrappleGun returns a gun with the stock tuning.
func NewGrappleGun() *GrappleGun {
	return &GrappleGun{
		ReelRate:              DefaultGrappleReelRate,
		MinLength:             DefaultGrappleMinLength,
		Slack:                 DefaultGrappleSlack,
		Stiffness:             DefaultGrappleStiffness,
		GridSeparationPadding: DefaultGrappleGridSeparationPadding,
		CutDelay:              DefaultGrappleCutDelay,
		CutQuality:            DefaultGrappleCutQuality,
	}
}

// Attached reports whether the gun currently holds a tether.
func (g *GrappleGun) Attached() bool {
	return g != nil && g.JointID != "" && g.TargetGrid != 0
}

// Detach clears the tether record.
func (g *GrappleGun) Detach() {
	if g == nil {
		return
	}
	g.JointID = ""
	g.TargetGrid = 0
}

// GrappleProjectile marks a projectile fired by a grapple gun.
type GrappleProjectile struct {
	Weapon uint64 // ecs.Entity of the firing gun
}

var GrappleProjectileComponent = NewComponent[GrappleProjectile]()
