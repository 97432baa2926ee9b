package domain

// VolumeTable resolves the physical unit volume (m3) of an item type.
// A type absent from the table is untradeable for arbitrage purposes.
type VolumeTable interface {
	UnitVolume(typeID int64) (float64, bool)
}

// Material is one input line of a blueprint's bill of materials.
type Material struct {
	TypeID   int64   `json:"typeID"`
	Quantity float64 `json:"quantity"`
}

// Blueprint describes a manufacturable item: the quantity produced per run
// and the per-run material requirements before efficiency scaling.
type Blueprint struct {
	TypeID    int64      `json:"typeID"`
	Quantity  float64    `json:"quantity"`
	Materials []Material `json:"materials"`
}

// BlueprintTable resolves blueprints and expands their bills of materials.
type BlueprintTable interface {
	Blueprint(typeID int64) (Blueprint, bool)
	// Materials scales the blueprint's per-run requirements by the number
	// of runs and the material efficiency percentage (0-100).
	Materials(typeID int64, runs int64, efficiency int64) ([]Material, bool)
}

// HubRegistry maps supported regions to their designated trade hub
// stations and answers region-support queries.
type HubRegistry interface {
	Supported(regionID int64) bool
	StationHub(regionID int64) (int64, bool)
	// Regions returns every supported region id in ascending order.
	Regions() []int64
}

// MarketTypes enumerates the tradeable market items.
type MarketTypes interface {
	Tradeable(typeID int64) bool
	// TypeIDs returns every tradeable type id in ascending order.
	TypeIDs() []int64
}
