// Package catalog holds the static item data (SDE) the matchers depend
// on: the per-type reference volume table, the blueprint bill-of-materials
// table, the tradeable type set, and the trade hub registry. A Catalog is
// immutable after construction and injected into services as read-only
// lookup tables.
package catalog

import (
	"math"
	"sort"

	"github.com/eveexchange/backend/internal/domain"
)

// Catalog is the loaded static data set.
type Catalog struct {
	volumes    map[int64]float64
	blueprints map[int64]domain.Blueprint
	tradeable  map[int64]bool
	typeIDs    []int64
	hubs       map[int64]int64
}

// DefaultHubs maps each supported region to its designated trade hub
// station: The Forge/Jita, Domain/Amarr, Sinq Laison/Dodixie,
// Metropolis/Hek, Heimatar/Rens.
func DefaultHubs() map[int64]int64 {
	return map[int64]int64{
		10000002: 60003760,
		10000043: 60008494,
		10000032: 60011866,
		10000042: 60005686,
		10000030: 60004588,
	}
}

// UnitVolume returns the physical m3 volume of one unit of the type.
func (c *Catalog) UnitVolume(typeID int64) (float64, bool) {
	v, ok := c.volumes[typeID]
	return v, ok
}

// Blueprint returns the blueprint for a manufacturable type.
func (c *Catalog) Blueprint(typeID int64) (domain.Blueprint, bool) {
	bp, ok := c.blueprints[typeID]
	return bp, ok
}

// Materials expands a blueprint's bill of materials for the given number
// of runs at the given material efficiency percentage. Each requirement
// rounds up: partial units still consume a whole unit of input.
func (c *Catalog) Materials(typeID int64, runs int64, efficiency int64) ([]domain.Material, bool) {
	bp, ok := c.blueprints[typeID]
	if !ok {
		return nil, false
	}
	scale := (100.0 - float64(efficiency)) / 100.0
	materials := make([]domain.Material, 0, len(bp.Materials))
	for _, m := range bp.Materials {
		materials = append(materials, domain.Material{
			TypeID:   m.TypeID,
			Quantity: math.Ceil(m.Quantity * float64(runs) * scale),
		})
	}
	return materials, true
}

// Tradeable reports whether the type appears in any market group.
func (c *Catalog) Tradeable(typeID int64) bool {
	return c.tradeable[typeID]
}

// TypeIDs returns every tradeable type id in ascending order. The slice
// is shared; callers must not modify it.
func (c *Catalog) TypeIDs() []int64 {
	return c.typeIDs
}

// Supported reports whether a region has a designated trade hub.
func (c *Catalog) Supported(regionID int64) bool {
	_, ok := c.hubs[regionID]
	return ok
}

// StationHub returns the hub station for a supported region.
func (c *Catalog) StationHub(regionID int64) (int64, bool) {
	hub, ok := c.hubs[regionID]
	return hub, ok
}

// Regions returns every supported region id in ascending order.
func (c *Catalog) Regions() []int64 {
	regions := make([]int64, 0, len(c.hubs))
	for regionID := range c.hubs {
		regions = append(regions, regionID)
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i] < regions[j] })
	return regions
}

// Compile-time interface checks.
var (
	_ domain.VolumeTable    = (*Catalog)(nil)
	_ domain.BlueprintTable = (*Catalog)(nil)
	_ domain.HubRegistry    = (*Catalog)(nil)
	_ domain.MarketTypes    = (*Catalog)(nil)
)
