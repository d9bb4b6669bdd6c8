package systems

import (
	"log/slog"
	"math"
)

// CompoundAmount is one compound's density at a queried position.
type CompoundAmount struct {
	Compound CompoundID
	Amount   float32
}

// worldToLocal converts a world position inside a tile to local cell
// indices. Returns false when the conversion lands outside the grid,
// which for a contained position indicates inconsistent tile math; the
// caller treats it as a recoverable placement failure.
func worldToLocal(t *CloudTile, x, y float32) (int, int, bool) {
	relX := x - (t.X - CloudHalfWidth)
	relY := y - (t.Y - CloudHalfHeight)

	// Floor, not truncation: positions just inside the lower edge must
	// map to cell zero, not wrap through negative truncation.
	localX := int(math.Floor(float64(relX) / CloudResolution))
	localY := int(math.Floor(float64(relY) / CloudResolution))

	if localX < 0 || localX >= SimWidth || localY < 0 || localY >= SimHeight {
		return 0, 0, false
	}
	return localX, localY, true
}

// Deposit adds density of a compound at a world position. It returns
// false when no tile both contains the position and handles the
// compound, or when the local coordinate conversion fails.
func (g *CloudGrid) Deposit(compound CompoundID, amount float32, x, y float32) bool {
	for _, t := range g.tiles {
		if t == nil || t.destroyed || !t.Contains(x, y) {
			continue
		}
		slot := t.slotFor(compound)
		if slot < 0 {
			continue
		}

		lx, ly, ok := worldToLocal(t, x, y)
		if !ok {
			slog.Error("cloud grid: deposit position converts outside tile grid",
				"compound", uint16(compound), "x", x, "y", y)
			return false
		}
		t.addAt(slot, lx, ly, amount)
		return true
	}
	return false
}

// Take removes density of a compound at a world position at the given
// rate and returns the amount removed, zero when nothing matched.
func (g *CloudGrid) Take(compound CompoundID, x, y float32, rate float32) float32 {
	for _, t := range g.tiles {
		if t == nil || t.destroyed || !t.Contains(x, y) {
			continue
		}
		slot := t.slotFor(compound)
		if slot < 0 {
			continue
		}

		lx, ly, ok := worldToLocal(t, x, y)
		if !ok {
			slog.Error("cloud grid: take position converts outside tile grid",
				"compound", uint16(compound), "x", x, "y", y)
			return 0
		}
		return t.takeAt(slot, lx, ly, rate)
	}
	return 0
}

// AmountAvailable is the read-only probe matching Take: how much a Take
// at the same position and rate would return, without mutating the cell.
func (g *CloudGrid) AmountAvailable(compound CompoundID, x, y float32, rate float32) float32 {
	for _, t := range g.tiles {
		if t == nil || t.destroyed || !t.Contains(x, y) {
			continue
		}
		slot := t.slotFor(compound)
		if slot < 0 {
			continue
		}

		lx, ly, ok := worldToLocal(t, x, y)
		if !ok {
			slog.Error("cloud grid: probe position converts outside tile grid",
				"compound", uint16(compound), "x", x, "y", y)
			return 0
		}
		return t.availableAt(slot, lx, ly, rate)
	}
	return 0
}

// AllAvailableAt lists every compound with positive density at the
// world position, across all tiles containing it. Order follows tile
// iteration then slot order and is not guaranteed stable across calls.
func (g *CloudGrid) AllAvailableAt(x, y float32) []CompoundAmount {
	var result []CompoundAmount
	for _, t := range g.tiles {
		if t == nil || t.destroyed || !t.Contains(x, y) {
			continue
		}
		lx, ly, ok := worldToLocal(t, x, y)
		if !ok {
			slog.Error("cloud grid: enumerate position converts outside tile grid",
				"x", x, "y", y)
			continue
		}
		for s := range t.Slots {
			if t.Slots[s].ID == NullCompound {
				continue
			}
			if amount := t.DensityAt(s, lx, ly); amount > 0 {
				result = append(result, CompoundAmount{Compound: t.Slots[s].ID, Amount: amount})
			}
		}
	}
	return result
}
