package domain

// Order is a single market order observed at snapshot time. Orders are
// immutable once read from the cache; the engine consumes copies.
type Order struct {
	OrderID    int64
	TypeID     int64
	RegionID   int64
	LocationID int64
	Price      float64
	Volume     float64
	Buy        bool
}

// OrderBook groups one region's orders of a single side by item type.
type OrderBook map[int64][]Order

// StructureIDThreshold is the smallest location id that denotes a
// player-owned structure rather than an NPC station. Orders placed in
// structures at or above this id are hub-eligible regardless of station.
const StructureIDThreshold int64 = 1_000_000_000_000

// EligibleLocation reports whether an order location belongs to the given
// trade hub: either the hub station itself or any large structure.
func EligibleLocation(locationID, hubID int64) bool {
	return locationID == hubID || locationID >= StructureIDThreshold
}
