// Package components defines ECS components for the simulation.
package components

// Position represents an entity's world position.
type Position struct {
	X, Y float32
}

// Velocity represents an entity's velocity.
type Velocity struct {
	X, Y float32
}

// Focus tags the entity the cloud tile window stays centered on.
type Focus struct{}

// CloudSprite ties a cloud tile to its presentation resource. Tile is
// the grid's tile handle; Texture is the process-unique id naming the
// tile's texture, allocated from the game's monotonic counter.
type CloudSprite struct {
	Tile    int32
	Texture int32
}
