package systems

import (
	"testing"
)

// testCompounds builds n cloud compounds with unit viscosity.
func testCompounds(n int) []Compound {
	out := make([]Compound, n)
	for i := range out {
		out[i] = Compound{ID: CompoundID(i), Viscosity: 1, Cloud: true}
	}
	return out
}

// stillWater is a zero-velocity sampler.
type stillWater struct{}

func (stillWater) Velocity(x, y float32) (float32, float32) { return 0, 0 }

// constantFlow samples to a fixed velocity everywhere, in cells per
// integrator time unit.
type constantFlow struct{ vx, vy float32 }

func (f constantFlow) Velocity(x, y float32) (float32, float32) { return f.vx, f.vy }

// tileAt finds the live tile of a group centered at (x, y).
func tileAt(g *CloudGrid, group CompoundID, x, y float32) *CloudTile {
	var found *CloudTile
	g.ForEachTile(func(_ TileID, t *CloudTile) {
		if t.Group == group && absDiff(t.X, x)+absDiff(t.Y, y) < posEpsilon {
			found = t
		}
	})
	return found
}

func TestInitialWindow(t *testing.T) {
	g := NewCloudGrid(nil, 0.007)
	g.RegisterCloudTypes(testCompounds(4))

	if g.TileCount() != 9 {
		t.Fatalf("expected 9 tiles for one group, got %d", g.TileCount())
	}

	// One tile per window slot around the origin
	for _, off := range gridOffsets {
		x, y := requiredPosition(0, 0, off[0], off[1])
		if tileAt(g, 0, x, y) == nil {
			t.Errorf("no tile at window slot (%d,%d)", off[0], off[1])
		}
	}
}

func TestTileCountScalesWithGroups(t *testing.T) {
	// 5 compounds need two groups of tiles: 4+1
	g := NewCloudGrid(nil, 0.007)
	g.RegisterCloudTypes(testCompounds(5))

	if g.TileCount() != 18 {
		t.Fatalf("expected 18 tiles for 5 compounds, got %d", g.TileCount())
	}

	full := tileAt(g, 0, 0, 0)
	if full == nil {
		t.Fatal("missing group 0 center tile")
	}
	for slot := 0; slot < 4; slot++ {
		if full.Slots[slot].ID == NullCompound {
			t.Errorf("group 0 slot %d should be set", slot)
		}
	}

	partial := tileAt(g, 4, 0, 0)
	if partial == nil {
		t.Fatal("missing group 1 center tile")
	}
	if partial.Slots[0].ID != 4 {
		t.Errorf("group 1 first slot = %d, want 4", partial.Slots[0].ID)
	}
	for slot := 1; slot < 4; slot++ {
		if partial.Slots[slot].ID != NullCompound {
			t.Errorf("group 1 slot %d should be unset", slot)
		}
	}
}

func TestNeighborLinks(t *testing.T) {
	g := NewCloudGrid(nil, 0.007)
	g.RegisterCloudTypes(testCompounds(4))

	center := tileAt(g, 0, 0, 0)
	if center == nil {
		t.Fatal("missing center tile")
	}

	for name, id := range map[string]TileID{
		"up": center.Up, "down": center.Down,
		"left": center.Left, "right": center.Right,
	} {
		if g.Tile(id) == nil {
			t.Errorf("center tile should have a %s neighbor", name)
		}
	}

	// Left neighbor of center is the (-1, 0) tile
	left := g.Tile(center.Left)
	if absDiff(left.X, -CloudXExtent) > posEpsilon || absDiff(left.Y, 0) > posEpsilon {
		t.Errorf("left neighbor at (%f, %f), want (-%d, 0)", left.X, left.Y, CloudXExtent)
	}

	// Links are symmetric, outward edges are unlinked
	g.ForEachTile(func(id TileID, tile *CloudTile) {
		if r := g.Tile(tile.Right); r != nil && r.Left != id {
			t.Errorf("tile %d: right neighbor does not link back", id)
		}
		if d := g.Tile(tile.Down); d != nil && d.Up != id {
			t.Errorf("tile %d: down neighbor does not link back", id)
		}
	})

	corner := tileAt(g, 0, -CloudXExtent, -CloudYExtent)
	if corner.Up != NoTile || corner.Left != NoTile {
		t.Error("corner tile should have no outward links")
	}
	if corner.Down == NoTile || corner.Right == NoTile {
		t.Error("corner tile should link inward")
	}
}

func TestUpdateIgnoresJitterWithinTile(t *testing.T) {
	g := NewCloudGrid(nil, 0.007)
	g.RegisterCloudTypes(testCompounds(4))

	// Anywhere that snaps back to the origin keeps the window in place
	for _, p := range [][2]float32{{0, 0}, {99, -99}, {-50, 80}} {
		if recycled := g.Update(p[0], p[1]); recycled != 0 {
			t.Errorf("focus at (%f,%f) recycled %d tiles, want 0", p[0], p[1], recycled)
		}
	}
}

func TestUpdateRecyclesTrailingColumn(t *testing.T) {
	g := NewCloudGrid(nil, 0.007)
	g.RegisterCloudTypes(testCompounds(4))

	// Mark a surviving tile and a doomed one
	if !g.Deposit(0, 5000, 10, 10) {
		t.Fatal("deposit into center tile failed")
	}
	if !g.Deposit(0, 5000, -CloudXExtent+10, 10) {
		t.Fatal("deposit into trailing tile failed")
	}

	recycled := g.Update(CloudXExtent, 0)
	if recycled != 3 {
		t.Fatalf("recycled %d tiles, want 3", recycled)
	}
	if g.TileCount() != 9 {
		t.Errorf("tile count changed to %d", g.TileCount())
	}

	// Every new window slot is filled
	for _, off := range gridOffsets {
		x, y := requiredPosition(CloudXExtent, 0, off[0], off[1])
		if tileAt(g, 0, x, y) == nil {
			t.Errorf("no tile at new window slot (%d,%d)", off[0], off[1])
		}
	}

	// Surviving tile keeps its contents
	if got := g.AmountAvailable(0, 10, 10, 1); got != 5000 {
		t.Errorf("surviving tile density = %f, want 5000", got)
	}

	// Recycled tiles come back empty on the leading column
	leading := tileAt(g, 0, 2*CloudXExtent, 0)
	if leading == nil {
		t.Fatal("missing leading column tile")
	}
	if total := leading.TotalDensity(); total != 0 {
		t.Errorf("recycled tile density = %f, want 0", total)
	}

	// Recentering again with the same focus is a no-op
	if again := g.Update(CloudXExtent, 0); again != 0 {
		t.Errorf("repeat update recycled %d tiles", again)
	}
}

func TestUpdateDiagonalMove(t *testing.T) {
	g := NewCloudGrid(nil, 0.007)
	g.RegisterCloudTypes(testCompounds(8))

	// Two groups; a diagonal step displaces an L of 5 tiles per group
	recycled := g.Update(CloudXExtent, CloudYExtent)
	if recycled != 10 {
		t.Fatalf("recycled %d tiles, want 10", recycled)
	}
	if g.TileCount() != 18 {
		t.Errorf("tile count changed to %d", g.TileCount())
	}
}

type countingContainer struct {
	spawned []TileID
}

func (c *countingContainer) TileSpawned(id TileID) {
	c.spawned = append(c.spawned, id)
}

func TestContainerNotifiedOnSpawn(t *testing.T) {
	container := &countingContainer{}
	g := NewCloudGrid(container, 0.007)
	g.RegisterCloudTypes(testCompounds(4))

	if len(container.spawned) != 9 {
		t.Fatalf("container saw %d spawns, want 9", len(container.spawned))
	}
	for _, id := range container.spawned {
		if g.Tile(id) == nil {
			t.Errorf("spawned tile %d not resolvable", id)
		}
	}

	// Recentering recycles, it never spawns
	g.Update(CloudXExtent, 0)
	if len(container.spawned) != 9 {
		t.Errorf("recenter spawned %d extra tiles", len(container.spawned)-9)
	}
}

func TestReportDestroyedRemovesTile(t *testing.T) {
	g := NewCloudGrid(nil, 0.007)
	g.RegisterCloudTypes(testCompounds(4))

	center := tileAt(g, 0, 0, 0)
	var centerID TileID
	g.ForEachTile(func(id TileID, tile *CloudTile) {
		if tile == center {
			centerID = id
		}
	})

	g.ReportDestroyed(centerID)

	if g.TileCount() != 8 {
		t.Errorf("tile count = %d after destroy, want 8", g.TileCount())
	}
	if g.Tile(centerID) != nil {
		t.Error("destroyed tile still resolvable")
	}
}

func TestStepIdentityForInteriorCells(t *testing.T) {
	// No diffusion, still water: interior mass must not move
	g := NewCloudGrid(nil, 0)
	g.RegisterCloudTypes(testCompounds(1))

	if !g.Deposit(0, 1000, 10, 10) {
		t.Fatal("deposit failed")
	}

	g.Step(6, stillWater{})

	if got := g.AmountAvailable(0, 10, 10, 1); got != 1000 {
		t.Errorf("density after identity step = %f, want 1000", got)
	}
}

func TestStepDiffusionSpreads(t *testing.T) {
	g := NewCloudGrid(nil, 0.007)
	g.RegisterCloudTypes(testCompounds(1))

	g.Deposit(0, 10000, 10, 10)

	// Neighbor gradients propagate from the previous-tick snapshot, so
	// spreading takes two steps to reach adjacent cells.
	g.Step(6, stillWater{})
	g.Step(6, stillWater{})

	source := g.AmountAvailable(0, 10, 10, 1)
	if source >= 10000 {
		t.Errorf("source density did not decay: %f", source)
	}
	// One cell to the right in world units
	neighbor := g.AmountAvailable(0, 10+CloudResolution, 10, 1)
	if neighbor <= 0 {
		t.Errorf("neighbor cell gained no density: %f", neighbor)
	}
}

func TestStepAdvectionTransportsMass(t *testing.T) {
	g := NewCloudGrid(nil, 0)
	g.RegisterCloudTypes(testCompounds(1))

	g.Deposit(0, 1000, 10, 10)

	// 0.5 cells per time unit for 6 units moves mass 3 cells along +x
	g.Step(6, constantFlow{vx: 0.5})

	if left := g.AmountAvailable(0, 10, 10, 1); left != 0 {
		t.Errorf("source cell still holds %f", left)
	}
	moved := g.AmountAvailable(0, 10+3*CloudResolution, 10, 1)
	if moved != 1000 {
		t.Errorf("transported density = %f, want 1000", moved)
	}
}

func TestStepViscositySlowsTransport(t *testing.T) {
	types := testCompounds(2)
	types[1].Viscosity = 3

	g := NewCloudGrid(nil, 0)
	g.RegisterCloudTypes(types)

	g.Deposit(0, 1000, 10, 10)
	g.Deposit(1, 1000, 10, 10)

	g.Step(6, constantFlow{vx: 0.5})

	// Viscosity 3 divides the velocity: 1 cell instead of 3
	thin := g.AmountAvailable(0, 10+3*CloudResolution, 10, 1)
	thick := g.AmountAvailable(1, 10+1*CloudResolution, 10, 1)
	if thin != 1000 {
		t.Errorf("low-viscosity compound moved %f at 3 cells, want 1000", thin)
	}
	// Float rounding can shave a unit off through the bilinear split
	if thick < 999 {
		t.Errorf("high-viscosity compound moved %f at 1 cell, want ~1000", thick)
	}
}

func TestStepCullsNoiseFloor(t *testing.T) {
	g := NewCloudGrid(nil, 0)
	g.RegisterCloudTypes(testCompounds(1))

	tile := tileAt(g, 0, 0, 0)
	tile.addAt(0, 50, 50, 0.9) // at the floor, not above it

	g.Step(6, stillWater{})

	if got := tile.DensityAt(0, 50, 50); got != 0 {
		t.Errorf("sub-floor density survived the step: %f", got)
	}
}

func BenchmarkGridStep(b *testing.B) {
	g := NewCloudGrid(nil, 0.007)
	g.RegisterCloudTypes(testCompounds(4))
	g.Deposit(0, 100000, 0, 0)
	g.Deposit(1, 100000, 50, -30)
	flow := constantFlow{vx: 0.2, vy: -0.1}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		g.Step(6, flow)
	}
}

func TestAddDensityRedirectsAcrossLinks(t *testing.T) {
	g := NewCloudGrid(nil, 0)
	g.RegisterCloudTypes(testCompounds(1))

	center := tileAt(g, 0, 0, 0)
	left := tileAt(g, 0, -CloudXExtent, 0)

	// One past the left edge lands on the neighbor's right edge column
	g.addDensity(center, 0, -1, 10, 5)
	if got := left.DensityAt(0, SimWidth-1, 10); got != 5 {
		t.Errorf("redirected density = %f, want 5", got)
	}

	// Corner redirect crosses both axes
	upLeft := tileAt(g, 0, -CloudXExtent, -CloudYExtent)
	g.addDensity(center, 0, -1, -1, 7)
	if got := upLeft.DensityAt(0, SimWidth-1, SimHeight-1); got != 7 {
		t.Errorf("corner-redirected density = %f, want 7", got)
	}

	// Past the window edge there is no link; the mass is dropped
	before := left.TotalDensity()
	g.addDensity(left, 0, -1, 10, 5)
	if after := left.TotalDensity(); after != before {
		t.Errorf("edge tile absorbed mass that should be dropped")
	}
}
