// Package systems implements the compound cloud simulation: the tiled
// density grids, the recycling grid manager, the world-space accessors
// and the fluid velocity field the clouds advect along.
package systems

import (
	"fmt"
	"math"

	"github.com/pthm-cable/broth/config"
)

// CompoundID identifies a registered compound type.
type CompoundID uint16

// NullCompound marks an unused cloud slot.
const NullCompound CompoundID = math.MaxUint16

// CloudsInOne is the number of compound types simulated together in one
// tile set. Sequential batches of this size form the cloud groups.
const CloudsInOne = 4

// Compound describes one registered compound type.
type Compound struct {
	ID        CompoundID
	Name      string
	Color     [3]float32
	Viscosity float32
	Cloud     bool // whether this compound diffuses as a cloud
}

// CompoundRegistry holds the ordered compound catalog. IDs are assigned
// sequentially at registration and batch membership of cloud compounds
// is fixed for the lifetime of the grid.
type CompoundRegistry struct {
	compounds []Compound
	byName    map[string]CompoundID
}

// NewCompoundRegistry creates an empty registry.
func NewCompoundRegistry() *CompoundRegistry {
	return &CompoundRegistry{byName: make(map[string]CompoundID)}
}

// RegistryFromConfig builds a registry from the configured compound catalog.
func RegistryFromConfig(cfg *config.Config) (*CompoundRegistry, error) {
	reg := NewCompoundRegistry()
	for _, cc := range cfg.Compounds {
		color := [3]float32{float32(cc.Color[0]), float32(cc.Color[1]), float32(cc.Color[2])}
		if _, err := reg.Register(cc.Name, color, float32(cc.Viscosity), cc.Cloud); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Register adds a compound and returns its assigned ID.
func (r *CompoundRegistry) Register(name string, color [3]float32, viscosity float32, cloud bool) (CompoundID, error) {
	if name == "" {
		return NullCompound, fmt.Errorf("compound registry: empty name")
	}
	if _, exists := r.byName[name]; exists {
		return NullCompound, fmt.Errorf("compound registry: duplicate compound %q", name)
	}
	if viscosity <= 0 {
		return NullCompound, fmt.Errorf("compound registry: compound %q has non-positive viscosity", name)
	}
	id := CompoundID(len(r.compounds))
	r.compounds = append(r.compounds, Compound{
		ID:        id,
		Name:      name,
		Color:     color,
		Viscosity: viscosity,
		Cloud:     cloud,
	})
	r.byName[name] = id
	return id, nil
}

// Get returns the compound with the given ID.
func (r *CompoundRegistry) Get(id CompoundID) (Compound, bool) {
	if int(id) >= len(r.compounds) {
		return Compound{}, false
	}
	return r.compounds[id], true
}

// ByName returns the compound with the given name.
func (r *CompoundRegistry) ByName(name string) (Compound, bool) {
	id, ok := r.byName[name]
	if !ok {
		return Compound{}, false
	}
	return r.compounds[id], true
}

// All returns every registered compound in registration order.
func (r *CompoundRegistry) All() []Compound {
	return r.compounds
}

// CloudCompounds returns the compounds simulated as clouds, in
// registration order. This order defines the cloud groups.
func (r *CompoundRegistry) CloudCompounds() []Compound {
	var out []Compound
	for _, c := range r.compounds {
		if c.Cloud {
			out = append(out, c)
		}
	}
	return out
}
