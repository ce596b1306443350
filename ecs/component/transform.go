package component

// Transform is an entity's pose relative to its parent. Root entities (grids)
// have no parent and their pose is in world space.
type Transform struct {
	X        float64
	Y        float64
	Rotation float64
	Parent   uint64 // ecs.Entity; zero for roots
}

var TransformComponent = NewComponent[Transform]()
