package systems

import (
	"fmt"
	"log/slog"
	"math"
)

// posEpsilon is the tolerance for matching a tile to a required lattice
// position, as a summed absolute coordinate difference. Required
// positions are a full tile extent apart, so ties cannot occur.
const posEpsilon = 1e-3

// TileContainer owns the entity-side state of cloud tiles. The grid
// calls TileSpawned whenever it creates a tile so the container can
// attach presentation resources; the container must call
// ReportDestroyed on teardown before dropping a tile.
type TileContainer interface {
	TileSpawned(id TileID)
}

// CloudGrid owns the pool of cloud tiles and keeps a 3x3 window of
// tiles per compound group centered on the focus. Tiles that fall out
// of the window are recycled into newly required positions instead of
// being destroyed, so the pool size stays constant while the window
// follows the focus across an unbounded plane.
type CloudGrid struct {
	tiles []*CloudTile // arena; TileID indexes into this slice

	centerX, centerY float32

	types     []Compound // cloud compounds in registration order
	container TileContainer

	diffuseRate float32

	// far is scratch for tiles displaced during a recenter pass,
	// reused between calls.
	far []TileID

	liveCount int
	spawned   bool
}

// NewCloudGrid creates an empty grid. RegisterCloudTypes must be called
// before the grid is stepped.
func NewCloudGrid(container TileContainer, diffuseRate float32) *CloudGrid {
	return &CloudGrid{
		container:   container,
		diffuseRate: diffuseRate,
	}
}

// gridOffsets enumerates the 3x3 window, row by row.
var gridOffsets = [9][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {0, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// requiredPosition returns the world center of the window slot (ix, iy)
// relative to the given grid center.
func requiredPosition(centerX, centerY float32, ix, iy int) (float32, float32) {
	return centerX + float32(ix)*CloudXExtent, centerY + float32(iy)*CloudYExtent
}

// snapToLattice rounds a world position to the nearest tile center.
// Rounding (not flooring) makes the window move in whole tile steps so
// small focus jitter never churns tiles.
func snapToLattice(x, y float32) (float32, float32) {
	return float32(math.Round(float64(x)/CloudXExtent)) * CloudXExtent,
		float32(math.Round(float64(y)/CloudYExtent)) * CloudYExtent
}

// RegisterCloudTypes stores the cloud compound catalog and spawns the
// initial tile window around the origin, so clouds can be placed before
// the first simulation tick.
func (g *CloudGrid) RegisterCloudTypes(types []Compound) {
	g.types = types
	g.Update(0, 0)
}

// TileCount returns the number of live tiles.
func (g *CloudGrid) TileCount() int {
	return g.liveCount
}

// Tile returns the tile for a handle, or nil if it was destroyed.
func (g *CloudGrid) Tile(id TileID) *CloudTile {
	if id < 0 || int(id) >= len(g.tiles) {
		return nil
	}
	t := g.tiles[id]
	if t == nil || t.destroyed {
		return nil
	}
	return t
}

// ForEachTile calls fn for every live tile.
func (g *CloudGrid) ForEachTile(fn func(id TileID, t *CloudTile)) {
	for i, t := range g.tiles {
		if t == nil || t.destroyed {
			continue
		}
		fn(TileID(i), t)
	}
}

// ReportDestroyed removes an externally destroyed tile from the live
// set so its handle and any neighbor links to it are never used again.
// Outside of full teardown this breaks the tile count invariant, so it
// is only expected from the owning container's shutdown path.
func (g *CloudGrid) ReportDestroyed(id TileID) {
	t := g.Tile(id)
	if t == nil {
		slog.Warn("cloud grid: unknown tile reported destroyed", "tile", int32(id))
		return
	}
	t.destroyed = true
	g.liveCount--
}

// Update recenters the tile window on the focus position. It returns
// the number of tiles recycled, which is zero whenever the focus stays
// within the current center tile.
func (g *CloudGrid) Update(focusX, focusY float32) int {
	if len(g.types) == 0 {
		return 0
	}

	if !g.spawned {
		g.spawned = true
		g.centerX, g.centerY = 0, 0
		for start := 0; start < len(g.types); start += CloudsInOne {
			end := start + CloudsInOne
			if end > len(g.types) {
				end = len(g.types)
			}
			for _, off := range gridOffsets {
				x, y := requiredPosition(g.centerX, g.centerY, off[0], off[1])
				g.spawnTile(g.types[start:end], x, y)
			}
		}
		g.applyPositioning()
		return 0
	}

	// Tiles can only disappear through container teardown; anything
	// else is a bookkeeping bug.
	groups := (len(g.types) + CloudsInOne - 1) / CloudsInOne
	if g.liveCount != groups*9 {
		panic(fmt.Sprintf("cloud grid: %d live tiles, want %d", g.liveCount, groups*9))
	}

	targetX, targetY := snapToLattice(focusX, focusY)
	if targetX == g.centerX && targetY == g.centerY {
		return 0
	}

	g.centerX, g.centerY = targetX, targetY
	return g.applyPositioning()
}

// spawnTile creates a tile at a lattice position and hands it to the
// container.
func (g *CloudGrid) spawnTile(batch []Compound, x, y float32) TileID {
	t := newCloudTile(batch)
	t.X = x
	t.Y = y
	id := TileID(len(g.tiles))
	g.tiles = append(g.tiles, t)
	g.liveCount++
	if g.container != nil {
		g.container.TileSpawned(id)
	}
	return id
}

// linkKey addresses one window slot of one compound group.
type linkKey struct {
	ix, iy int
	group  CompoundID
}

// applyPositioning matches live tiles against the required window
// positions, recycles displaced tiles into unfilled slots and rebuilds
// all neighbor links. Supply always equals demand here; a shortfall or
// surplus in the far pool means the recentering bookkeeping is broken
// and continuing would leave tiles with stale neighbor links.
func (g *CloudGrid) applyPositioning() int {
	window := make(map[linkKey]TileID, g.liveCount)
	g.far = g.far[:0]

	for i, t := range g.tiles {
		if t == nil || t.destroyed {
			continue
		}
		matched := false
		for _, off := range gridOffsets {
			rx, ry := requiredPosition(g.centerX, g.centerY, off[0], off[1])
			if absDiff(t.X, rx)+absDiff(t.Y, ry) < posEpsilon {
				window[linkKey{off[0], off[1], t.Group}] = TileID(i)
				matched = true
				break
			}
		}
		if !matched {
			g.far = append(g.far, TileID(i))
		}
	}

	recycled := 0
	for start := 0; start < len(g.types); start += CloudsInOne {
		group := g.types[start].ID

		for _, off := range gridOffsets {
			key := linkKey{off[0], off[1], group}
			if _, ok := window[key]; ok {
				continue
			}

			filled := false
			for i, fid := range g.far {
				if fid == NoTile || g.tiles[fid].Group != group {
					continue
				}
				rx, ry := requiredPosition(g.centerX, g.centerY, off[0], off[1])
				g.tiles[fid].recycleTo(rx, ry)
				window[key] = fid
				g.far[i] = NoTile
				recycled++
				filled = true
				break
			}
			if !filled {
				panic(fmt.Sprintf("cloud grid: no displaced tile of group %d left for window slot (%d,%d)",
					group, off[0], off[1]))
			}
		}
	}

	for _, fid := range g.far {
		if fid != NoTile {
			panic(fmt.Sprintf("cloud grid: displaced tile %d was not recycled", int32(fid)))
		}
	}

	g.linkNeighbors(window)
	return recycled
}

// linkNeighbors rewrites the four neighbor links of every windowed tile
// from the slot table. Window-edge sides that face outward stay NoTile:
// the window does not wrap, and density crossing an unlinked edge is
// dropped.
func (g *CloudGrid) linkNeighbors(window map[linkKey]TileID) {
	at := func(ix, iy int, group CompoundID) TileID {
		if id, ok := window[linkKey{ix, iy, group}]; ok {
			return id
		}
		return NoTile
	}

	for key, id := range window {
		t := g.tiles[id]
		t.Up = at(key.ix, key.iy-1, key.group)
		t.Down = at(key.ix, key.iy+1, key.group)
		t.Left = at(key.ix-1, key.iy, key.group)
		t.Right = at(key.ix+1, key.iy, key.group)
	}
}

// Step advances every live tile by one diffusion-advection tick. dt is
// in integrator time units; velocities come from the fluid sampler.
func (g *CloudGrid) Step(dt float32, fluid VelocitySampler) {
	for i, t := range g.tiles {
		if t == nil || t.destroyed {
			continue
		}
		if !t.initialized {
			panic(fmt.Sprintf("cloud grid: stepping uninitialized tile %d", i))
		}
		for slot := range t.Slots {
			if t.Slots[slot].ID == NullCompound {
				continue
			}
			g.diffuse(t, slot, dt)
			g.advect(t, slot, dt, fluid)
		}
	}
}

// diffuse writes the post-diffusion field into the slot's oldDensity
// buffer: each cell keeps (1-a) of its current density and gains the
// average of its four neighbors' previous-tick densities scaled by a.
// Edge cells read through the linked neighbor tile's boundary
// row/column, or zero where no neighbor is linked. Reading only
// previous-tick snapshots keeps cross-tile gradients consistent without
// a mid-tick synchronization barrier.
func (g *CloudGrid) diffuse(t *CloudTile, slot int, dt float32) {
	a := dt * g.diffuseRate

	data := &t.Slots[slot]
	up := g.neighborSlot(t.Up, slot)
	down := g.neighborSlot(t.Down, slot)
	left := g.neighborSlot(t.Left, slot)
	right := g.neighborSlot(t.Right, slot)

	for x := 0; x < SimWidth; x++ {
		for y := 0; y < SimHeight; y++ {
			var upper float32
			if y > 0 {
				upper = data.oldDensity[cellIndex(x, y-1)]
			} else if up != nil {
				upper = up.oldDensity[cellIndex(x, SimHeight-1)]
			}

			var lower float32
			if y < SimHeight-1 {
				lower = data.oldDensity[cellIndex(x, y+1)]
			} else if down != nil {
				lower = down.oldDensity[cellIndex(x, 0)]
			}

			var lefter float32
			if x > 0 {
				lefter = data.oldDensity[cellIndex(x-1, y)]
			} else if left != nil {
				lefter = left.oldDensity[cellIndex(SimWidth-1, y)]
			}

			var righter float32
			if x < SimWidth-1 {
				righter = data.oldDensity[cellIndex(x+1, y)]
			} else if right != nil {
				righter = right.oldDensity[cellIndex(0, y)]
			}

			i := cellIndex(x, y)
			data.oldDensity[i] = data.density[i]*(1-a) +
				(upper+lower+lefter+righter)*a/4
		}
	}
}

// advect clears the working density grid and rebuilds it by
// transporting the post-diffusion snapshot along the sampled velocity
// field with bilinear mass splitting. Cells at or below the noise floor
// are culled rather than transported.
func (g *CloudGrid) advect(t *CloudTile, slot int, dt float32, fluid VelocitySampler) {
	data := &t.Slots[slot]
	clear(data.density)

	originX := t.X - CloudHalfWidth
	originY := t.Y - CloudHalfHeight

	for x := 0; x < SimWidth; x++ {
		for y := 0; y < SimHeight; y++ {
			old := data.oldDensity[cellIndex(x, y)]
			if old <= 1 {
				continue
			}

			wx := originX + (float32(x)+0.5)*CloudResolution
			wy := originY + (float32(y)+0.5)*CloudResolution
			vx, vy := fluid.Velocity(wx, wy)
			vx /= data.Viscosity
			vy /= data.Viscosity

			// Clamp the destination into the interior so the bilinear
			// stencil never needs a half-cell beyond the grid.
			dx := clampf(float32(x)+dt*vx, 0.5, SimWidth-1.5)
			dy := clampf(float32(y)+dt*vy, 0.5, SimHeight-1.5)

			x0 := int(dx)
			x1 := x0 + 1
			y0 := int(dy)
			y1 := y0 + 1

			s1 := dx - float32(x0)
			s0 := 1 - s1
			t1 := dy - float32(y0)
			t0 := 1 - t1

			g.addDensity(t, slot, x0, y0, old*s0*t0)
			g.addDensity(t, slot, x0, y1, old*s0*t1)
			g.addDensity(t, slot, x1, y0, old*s1*t0)
			g.addDensity(t, slot, x1, y1, old*s1*t1)
		}
	}
}

// addDensity adds transported mass to a destination cell, redirecting
// out-of-range indices into the linked neighbor tile on each axis with
// the index wrapped to the opposite edge. Where the needed link is
// NoTile the contribution is dropped: mass leaving the simulated window
// is intentionally lost.
func (g *CloudGrid) addDensity(t *CloudTile, slot, x, y int, amount float32) {
	xTile := t
	if x < 0 {
		x = SimWidth - 1
		xTile = g.Tile(t.Left)
	} else if x >= SimWidth {
		x = 0
		xTile = g.Tile(t.Right)
	}
	if xTile == nil {
		return
	}

	yTile := xTile
	if y < 0 {
		y = SimHeight - 1
		yTile = g.Tile(xTile.Up)
	} else if y >= SimHeight {
		y = 0
		yTile = g.Tile(xTile.Down)
	}
	if yTile == nil {
		return
	}

	yTile.Slots[slot].density[cellIndex(x, y)] += amount
}

// neighborSlot resolves a neighbor link to its compound slot data, or
// nil when the link is absent.
func (g *CloudGrid) neighborSlot(id TileID, slot int) *CompoundSlot {
	t := g.Tile(id)
	if t == nil {
		return nil
	}
	return &t.Slots[slot]
}

func absDiff(a, b float32) float32 {
	if a > b {
		return a - b
	}
	return b - a
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
