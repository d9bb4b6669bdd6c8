package systems

import (
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/broth/config"
)

// VelocitySampler provides the 2D velocity field clouds advect along.
// Implementations must be defined everywhere the tile window can reach.
type VelocitySampler interface {
	Velocity(x, y float32) (vx, vy float32)
}

// FluidSystem generates a divergence-free velocity field as the curl of
// a time-evolving simplex noise potential. Because the field is the
// curl of a scalar, the flow is turbulent but never piles density onto
// sources or sinks.
type FluidSystem struct {
	noise opensimplex.Noise

	scale     float64
	strength  float64
	timeSpeed float64

	time float64
}

// NewFluidSystem creates a seeded fluid field with parameters from config.
func NewFluidSystem(seed int64, cfg *config.Config) *FluidSystem {
	return &FluidSystem{
		noise:     opensimplex.New(seed),
		scale:     cfg.Fluid.NoiseScale,
		strength:  cfg.Fluid.Strength,
		timeSpeed: cfg.Fluid.TimeSpeed,
	}
}

// Update advances the noise animation by dt seconds.
func (f *FluidSystem) Update(dt float32) {
	f.time += float64(dt) * f.timeSpeed
}

// potential evaluates the scalar noise potential at a world position.
func (f *FluidSystem) potential(x, y float64) float64 {
	return f.noise.Eval3(x*f.scale, y*f.scale, f.time)
}

// Velocity samples the field at a world position. The curl is taken
// with central differences over half a cloud cell.
func (f *FluidSystem) Velocity(x, y float32) (float32, float32) {
	const h = CloudResolution / 2.0

	fx := float64(x)
	fy := float64(y)

	dpdx := (f.potential(fx+h, fy) - f.potential(fx-h, fy)) / (2 * h)
	dpdy := (f.potential(fx, fy+h) - f.potential(fx, fy-h)) / (2 * h)

	// curl of the potential: v = (dp/dy, -dp/dx)
	return float32(dpdy * f.strength), float32(-dpdx * f.strength)
}
