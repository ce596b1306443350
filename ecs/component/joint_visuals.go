package component

import "github.com/jakecoffman/cp"

const (
	GrappleRopeRSI   = "Objects/Weapons/Guns/Launchers/grappling_gun.rsi"
	GrappleRopeState = "rope"
)

// SpriteSpecifier points at a state inside an RSI sprite bundle.
type SpriteSpecifier struct {
	RSI   string
	State string
}

// JointVisuals describes the rope drawn from an entity to a tether target.
// OffsetA is relative to the owning entity, OffsetB is in Target's local frame.
type JointVisuals struct {
	Sprite  SpriteSpecifier
	Target  uint64 // ecs.Entity
	OffsetA cp.Vector
	OffsetB cp.Vector
}

var JointVisualsComponent = NewComponent[JointVisuals]()
