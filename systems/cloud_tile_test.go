package systems

import (
	"testing"
)

func TestNewCloudTilePartialBatch(t *testing.T) {
	tile := newCloudTile(testCompounds(2))

	if tile.Group != 0 {
		t.Errorf("group = %d, want first compound ID", tile.Group)
	}
	if !tile.Handles(0) || !tile.Handles(1) {
		t.Error("tile should handle both batch compounds")
	}
	if tile.Handles(2) {
		t.Error("tile should not handle compounds outside its batch")
	}
	if tile.Up != NoTile || tile.Down != NoTile || tile.Left != NoTile || tile.Right != NoTile {
		t.Error("fresh tile should be unlinked")
	}
}

func TestRecycleClearsDensity(t *testing.T) {
	tile := newCloudTile(testCompounds(1))
	tile.addAt(0, 10, 10, 500)
	// oldDensity gets content during stepping; simulate that
	tile.Slots[0].oldDensity[cellIndex(3, 3)] = 123

	tile.recycleTo(400, -200)

	if tile.X != 400 || tile.Y != -200 {
		t.Errorf("recycled tile at (%f,%f), want (400,-200)", tile.X, tile.Y)
	}
	if tile.TotalDensity() != 0 {
		t.Errorf("recycled tile holds density %f", tile.TotalDensity())
	}
	if tile.Slots[0].oldDensity[cellIndex(3, 3)] != 0 {
		t.Error("recycled tile kept an old-density snapshot")
	}
}

func TestFillIntensityTransfer(t *testing.T) {
	tile := newCloudTile(testCompounds(1))
	tile.addAt(0, 0, 0, 0)      // empty
	tile.addAt(0, 1, 0, 100)    // soft edge
	tile.addAt(0, 2, 0, 100000) // saturated core

	dst := make([]uint8, SimWidth*SimHeight)
	tile.FillIntensity(0, dst)

	if got := dst[cellIndex(0, 0)]; got != 0 {
		t.Errorf("empty cell intensity = %d, want 0", got)
	}
	// 255 * 2 * atan(0.3) = 148.6, truncated
	if got := dst[cellIndex(1, 0)]; got != 148 {
		t.Errorf("soft cell intensity = %d, want 148", got)
	}
	if got := dst[cellIndex(2, 0)]; got != 255 {
		t.Errorf("saturated cell intensity = %d, want 255", got)
	}
}

func TestTotalDensitySkipsUnsetSlots(t *testing.T) {
	tile := newCloudTile(testCompounds(2))
	tile.addAt(0, 5, 5, 100)
	tile.addAt(1, 6, 6, 50)

	if got := tile.TotalDensity(); got != 150 {
		t.Errorf("total density = %f, want 150", got)
	}
}
