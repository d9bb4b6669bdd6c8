// Package game wires the compound cloud simulation together: the ECS
// world, the tile grid, the fluid field, telemetry and rendering.
package game

import (
	"math/rand"
	"time"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/broth/camera"
	"github.com/pthm-cable/broth/components"
	"github.com/pthm-cable/broth/config"
	"github.com/pthm-cable/broth/renderer"
	"github.com/pthm-cable/broth/systems"
	"github.com/pthm-cable/broth/telemetry"
)

// Options configures game initialization.
type Options struct {
	Seed           int64
	Headless       bool
	LogStats       bool
	StatsWindowSec float64
	OutputDir      string
	StepsPerUpdate int

	// Authoritative marks this process as the simulation owner.
	// Non-authoritative processes keep rendering but never step the
	// clouds.
	Authoritative bool
}

// Game holds the complete simulation state.
type Game struct {
	world *ecs.World
	rng   *rand.Rand

	registry *systems.CompoundRegistry
	grid     *systems.CloudGrid
	fluid    *systems.FluidSystem

	// Entity mappers
	cloudMapper *ecs.Map2[components.Position, components.CloudSprite]
	cloudFilter *ecs.Filter2[components.Position, components.CloudSprite]
	focusMapper *ecs.Map3[components.Position, components.Velocity, components.Focus]
	posMap      *ecs.Map1[components.Position]
	velMap      *ecs.Map1[components.Velocity]

	focus ecs.Entity

	// Telemetry
	collector *telemetry.Collector
	perf      *telemetry.PerfTracker
	output    *telemetry.OutputManager

	// Rendering (nil in headless mode)
	clouds *renderer.CloudRenderer
	cam    *camera.Camera

	// Compounds the ambient spawner can emit
	spawnCompounds []systems.CompoundID

	nextTexture    int32
	tick           int32
	windowTicks    int32
	paused         bool
	stepsPerFrame  int
	stepsPerUpdate int
	headless       bool
	logStats       bool
	authoritative  bool
}

// NewGame creates a game with default options.
func NewGame() (*Game, error) {
	return NewGameWithOptions(Options{Seed: 42, StepsPerUpdate: 1, Authoritative: true})
}

// NewGameWithOptions creates a new game instance.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := config.Cfg()
	world := ecs.NewWorld()

	registry, err := systems.RegistryFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	stepsPerUpdate := opts.StepsPerUpdate
	if stepsPerUpdate < 1 {
		stepsPerUpdate = 1
	}

	windowTicks := int32(0)
	if opts.StatsWindowSec > 0 && cfg.Physics.DT > 0 {
		windowTicks = int32(opts.StatsWindowSec / cfg.Physics.DT)
		if windowTicks < 1 {
			windowTicks = 1
		}
	}

	g := &Game{
		world:          world,
		rng:            rand.New(rand.NewSource(opts.Seed)),
		registry:       registry,
		cloudMapper:    ecs.NewMap2[components.Position, components.CloudSprite](world),
		cloudFilter:    ecs.NewFilter2[components.Position, components.CloudSprite](world),
		focusMapper:    ecs.NewMap3[components.Position, components.Velocity, components.Focus](world),
		posMap:         ecs.NewMap1[components.Position](world),
		velMap:         ecs.NewMap1[components.Velocity](world),
		collector:      telemetry.NewCollector(),
		perf:           telemetry.NewPerfTracker(cfg.Telemetry.PerfWindow),
		windowTicks:    windowTicks,
		stepsPerFrame:  1,
		stepsPerUpdate: stepsPerUpdate,
		headless:       opts.Headless,
		logStats:       opts.LogStats,
		authoritative:  opts.Authoritative,
	}

	for _, c := range registry.CloudCompounds() {
		g.spawnCompounds = append(g.spawnCompounds, c.ID)
	}

	g.fluid = systems.NewFluidSystem(opts.Seed, cfg)

	// The grid calls back into TileSpawned for every tile it creates,
	// so it must be assigned before compound registration spawns the
	// initial window.
	g.grid = systems.NewCloudGrid(g, float32(cfg.Clouds.DiffuseRate))
	g.grid.RegisterCloudTypes(registry.CloudCompounds())

	// Focus entity the tile window follows
	pos := components.Position{X: 0, Y: 0}
	vel := components.Velocity{}
	g.focus = g.focusMapper.NewEntity(&pos, &vel, &components.Focus{})

	if !opts.Headless {
		g.clouds = renderer.NewCloudRenderer(registry)
		g.cam = camera.New(cfg.Derived.ScreenW32, cfg.Derived.ScreenH32, float32(cfg.Camera.MaxZoom))
	}

	g.output, err = telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := g.output.WriteConfig(cfg); err != nil {
		return nil, err
	}

	return g, nil
}

// TileSpawned attaches an entity with presentation state to a freshly
// created cloud tile.
func (g *Game) TileSpawned(id systems.TileID) {
	t := g.grid.Tile(id)
	if t == nil {
		return
	}
	pos := components.Position{X: t.X, Y: t.Y}
	sprite := components.CloudSprite{Tile: int32(id), Texture: g.nextTexture}
	g.nextTexture++
	g.cloudMapper.NewEntity(&pos, &sprite)
}

// Update advances the simulation for one graphical frame.
func (g *Game) Update() {
	g.handleInput()

	if !g.paused && g.authoritative {
		for i := 0; i < g.stepsPerFrame; i++ {
			g.simulationStep()
		}
	}

	cfg := config.Cfg()
	if pos := g.posMap.Get(g.focus); pos != nil {
		g.cam.Follow(pos.X, pos.Y, float32(cfg.Camera.FollowLerp))
	}

	g.uploadCloudTextures()
}

// UpdateHeadless advances the simulation without any rendering work.
func (g *Game) UpdateHeadless() {
	if !g.authoritative {
		return
	}
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.simulationStep()
	}
}

// simulationStep runs a single tick of the simulation.
func (g *Game) simulationStep() {
	cfg := config.Cfg()
	dt := cfg.Derived.DT32

	start := time.Now()
	g.fluid.Update(dt)
	g.perf.Record("fluid", time.Since(start))

	g.moveFocus(dt)

	start = time.Now()
	pos := g.posMap.Get(g.focus)
	recycled := g.grid.Update(pos.X, pos.Y)
	if recycled > 0 {
		g.collector.RecordRecycled(recycled)
		g.syncTilePositions()
	}
	g.perf.Record("recenter", time.Since(start))

	g.runSpawner(cfg)

	start = time.Now()
	g.grid.Step(cfg.Derived.StepTime32, g.fluid)
	g.perf.Record("clouds", time.Since(start))

	g.tick++
	g.flushTelemetry()
}

// moveFocus integrates the focus entity. In headless mode the focus
// drifts along the fluid field so long runs exercise recycling without
// input.
func (g *Game) moveFocus(dt float32) {
	pos := g.posMap.Get(g.focus)
	vel := g.velMap.Get(g.focus)
	if pos == nil || vel == nil {
		return
	}

	if g.headless {
		// raw field velocities are fractions of a cell per tick
		vx, vy := g.fluid.Velocity(pos.X, pos.Y)
		vel.X = vx * driftGain
		vel.Y = vy * driftGain
	}

	pos.X += vel.X * dt
	pos.Y += vel.Y * dt
}

// driftGain scales fluid velocity into headless focus drift.
const driftGain = 400

// syncTilePositions refreshes sprite entity positions after a recenter
// pass moved recycled tiles to new lattice slots.
func (g *Game) syncTilePositions() {
	query := g.cloudFilter.Query()
	for query.Next() {
		pos, sprite := query.Get()
		t := g.grid.Tile(systems.TileID(sprite.Tile))
		if t == nil {
			continue
		}
		pos.X = t.X
		pos.Y = t.Y
	}
}

// runSpawner deposits periodic compound bursts around the focus.
func (g *Game) runSpawner(cfg *config.Config) {
	interval := int32(cfg.Spawner.IntervalTicks)
	if interval <= 0 || len(g.spawnCompounds) == 0 || g.tick%interval != 0 {
		return
	}

	pos := g.posMap.Get(g.focus)
	compound := g.spawnCompounds[g.rng.Intn(len(g.spawnCompounds))]
	radius := float32(cfg.Spawner.Radius)
	x := pos.X + (g.rng.Float32()*2-1)*radius
	y := pos.Y + (g.rng.Float32()*2-1)*radius

	placed := g.grid.Deposit(compound, float32(cfg.Spawner.Amount), x, y)
	g.collector.RecordDeposit(placed)
}

// uploadCloudTextures re-composites and uploads every tile texture.
func (g *Game) uploadCloudTextures() {
	query := g.cloudFilter.Query()
	for query.Next() {
		_, sprite := query.Get()
		t := g.grid.Tile(systems.TileID(sprite.Tile))
		if t == nil {
			continue
		}
		g.clouds.UpdateTile(sprite.Texture, t)
	}
}

// Deposit adds compound density at a world position.
func (g *Game) Deposit(compound systems.CompoundID, amount float32, x, y float32) bool {
	placed := g.grid.Deposit(compound, amount, x, y)
	g.collector.RecordDeposit(placed)
	return placed
}

// Take removes compound density at a world position and returns the
// amount removed.
func (g *Game) Take(compound systems.CompoundID, x, y float32, rate float32) float32 {
	amount := g.grid.Take(compound, x, y, rate)
	if amount > 0 {
		g.collector.RecordTake(float64(amount))
	}
	return amount
}

// Tick returns the current simulation tick.
func (g *Game) Tick() int32 {
	return g.tick
}

// Grid exposes the cloud grid for direct world-space queries.
func (g *Game) Grid() *systems.CloudGrid {
	return g.grid
}

// Registry exposes the compound catalog.
func (g *Game) Registry() *systems.CompoundRegistry {
	return g.registry
}

// Unload tears down tiles, textures and output files.
func (g *Game) Unload() {
	// Collect sprites first; entity removal must happen outside the query.
	type spriteInfo struct {
		entity  ecs.Entity
		tile    int32
		texture int32
	}
	var sprites []spriteInfo

	query := g.cloudFilter.Query()
	for query.Next() {
		_, sprite := query.Get()
		sprites = append(sprites, spriteInfo{query.Entity(), sprite.Tile, sprite.Texture})
	}

	for _, s := range sprites {
		g.grid.ReportDestroyed(systems.TileID(s.tile))
		if g.clouds != nil {
			g.clouds.ReleaseTexture(s.texture)
		}
		g.cloudMapper.Remove(s.entity)
	}

	if g.clouds != nil {
		g.clouds.Unload()
	}
	if err := g.output.Close(); err != nil {
		logCloseError(err)
	}
}
