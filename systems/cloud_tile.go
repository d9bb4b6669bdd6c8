package systems

import "math"

// Tile geometry. Each tile covers twice its half-extent in world units
// and is simulated on a fixed-size cell grid.
const (
	// CloudHalfWidth / CloudHalfHeight are the tile half-extents in
	// world units; a world position is inside a tile when it is within
	// the half-extent of the tile center (half-open on the upper side).
	CloudHalfWidth  = 100
	CloudHalfHeight = 100

	// CloudXExtent / CloudYExtent are the lattice spacing of tile
	// centers, i.e. the full tile span.
	CloudXExtent = CloudHalfWidth * 2
	CloudYExtent = CloudHalfHeight * 2

	// CloudResolution is the world size of one simulation cell.
	CloudResolution = 2

	// SimWidth / SimHeight are the simulation grid dimensions in cells.
	SimWidth  = CloudXExtent / CloudResolution
	SimHeight = CloudYExtent / CloudResolution
)

// TileID is a stable index into the grid's tile arena. Neighbor links
// are stored as TileIDs rather than pointers so that recycling a tile
// never invalidates them.
type TileID int32

// NoTile marks an absent tile or neighbor link.
const NoTile TileID = -1

// CompoundSlot holds the density state for one compound inside a tile.
// Density buffers are SimWidth*SimHeight cells, x-major. oldDensity is
// the previous-tick snapshot read during diffusion so results do not
// depend on cell iteration order.
type CompoundSlot struct {
	ID        CompoundID
	Viscosity float32

	density    []float32
	oldDensity []float32
}

// cellIndex maps local cell coordinates to a buffer offset.
func cellIndex(x, y int) int {
	return x*SimHeight + y
}

// CloudTile simulates up to four compounds of one group at one lattice
// position. Neighbor links reference tiles of the same group only and
// are NoTile at the edge of the simulated window.
type CloudTile struct {
	Slots [CloudsInOne]CompoundSlot

	// X, Y is the tile center on the world lattice.
	X, Y float32

	Up, Down, Left, Right TileID

	// Group identifies the compound group; it equals the first slot's
	// compound ID.
	Group CompoundID

	initialized bool
	destroyed   bool
}

// newCloudTile creates a tile for the given batch of compounds. The
// batch may be shorter than CloudsInOne; remaining slots stay unset.
func newCloudTile(batch []Compound) *CloudTile {
	if len(batch) == 0 {
		panic("cloud tile: needs at least one compound type")
	}
	t := &CloudTile{
		Group: batch[0].ID,
		Up:    NoTile, Down: NoTile, Left: NoTile, Right: NoTile,
	}
	for i := range t.Slots {
		t.Slots[i].ID = NullCompound
	}
	for i, c := range batch {
		t.Slots[i].ID = c.ID
		t.Slots[i].Viscosity = c.Viscosity
		t.Slots[i].density = make([]float32, SimWidth*SimHeight)
		t.Slots[i].oldDensity = make([]float32, SimWidth*SimHeight)
	}
	t.initialized = true
	return t
}

// slotFor returns the slot index handling the compound, or -1.
func (t *CloudTile) slotFor(compound CompoundID) int {
	for i := range t.Slots {
		if t.Slots[i].ID == compound {
			return i
		}
	}
	return -1
}

// Handles reports whether this tile simulates the given compound.
func (t *CloudTile) Handles(compound CompoundID) bool {
	return t.slotFor(compound) >= 0
}

// Contains reports whether the world position falls inside this tile's
// bounding box. The upper bound is half-open so lattice-adjacent tiles
// never both claim a position.
func (t *CloudTile) Contains(x, y float32) bool {
	return x >= t.X-CloudHalfWidth && x < t.X+CloudHalfWidth &&
		y >= t.Y-CloudHalfHeight && y < t.Y+CloudHalfHeight
}

// DensityAt returns the density of a slot at a local cell.
func (t *CloudTile) DensityAt(slot, x, y int) float32 {
	return t.Slots[slot].density[cellIndex(x, y)]
}

// addAt adds density to a slot at a local cell.
func (t *CloudTile) addAt(slot, x, y int, amount float32) {
	t.Slots[slot].density[cellIndex(x, y)] += amount
}

// takeAt removes up to density*rate from a cell and returns the amount,
// floored to a whole unit. A remainder below 1 is clamped to exactly
// zero to remove numerical dust.
func (t *CloudTile) takeAt(slot, x, y int, rate float32) float32 {
	i := cellIndex(x, y)
	amount := float32(int(t.Slots[slot].density[i] * rate))
	t.Slots[slot].density[i] -= amount
	if t.Slots[slot].density[i] < 1 {
		t.Slots[slot].density[i] = 0
	}
	return amount
}

// availableAt is the read-only probe matching takeAt.
func (t *CloudTile) availableAt(slot, x, y int, rate float32) float32 {
	return float32(int(t.Slots[slot].density[cellIndex(x, y)] * rate))
}

// recycleTo reuses this tile's storage for a new lattice position,
// zeroing all density state. This is the O(1)-memory trick that lets a
// fixed tile pool cover an unbounded plane.
func (t *CloudTile) recycleTo(x, y float32) {
	t.X = x
	t.Y = y
	for s := range t.Slots {
		if t.Slots[s].ID == NullCompound {
			continue
		}
		clear(t.Slots[s].density)
		clear(t.Slots[s].oldDensity)
	}
}

// TotalDensity sums the current density of every slot.
func (t *CloudTile) TotalDensity() float64 {
	var total float64
	for s := range t.Slots {
		if t.Slots[s].ID == NullCompound {
			continue
		}
		for _, d := range t.Slots[s].density {
			total += float64(d)
		}
	}
	return total
}

// FillIntensity writes the byte-clamped presentation intensity of one
// slot into dst (SimWidth*SimHeight, x-major). The arctangent transfer
// grades dense cloud cores into soft transparent edges.
func (t *CloudTile) FillIntensity(slot int, dst []uint8) {
	src := t.Slots[slot].density
	for i, d := range src {
		v := int(255 * 2 * math.Atan(0.003*float64(d)))
		if v < 0 {
			v = 0
		} else if v > 255 {
			v = 255
		}
		dst[i] = uint8(v)
	}
}
