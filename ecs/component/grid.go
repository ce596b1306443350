package component

// Grid marks a container rigid body that owns a local frame and can host
// tether anchors.
type Grid struct {
	Name string
}

var GridComponent = NewComponent[Grid]()

// BlockGrapple marks a grid that grapple projectiles cannot attach to.
type BlockGrapple struct{}

var BlockGrappleComponent = NewComponent[BlockGrapple]()
