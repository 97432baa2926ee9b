package engine

import (
	"math"
	"sort"

	"github.com/eveexchange/backend/internal/domain"
)

// Params bounds a single arbitrage scan. All three values must be
// positive; the caller validates the request before matching begins.
type Params struct {
	MaxVolume float64 // per-trip cargo budget in m3
	MaxPrice  float64 // per-trade currency budget
	MinProfit float64 // minimum acceptable per-unit spread
}

// MatchArbitrage pairs the cheapest source-region sell orders against the
// highest destination-region buy orders for every item type present on
// both sides, and returns the discrete trade lots that fit the cargo and
// currency budgets. Types are processed in ascending type id so that an
// identical snapshot always yields identical output. A type that cannot
// trade (no profitable spread, missing volume entry, exhausted supply)
// contributes no lots and never fails the scan.
func MatchArbitrage(asks, bids domain.OrderBook, vols domain.VolumeTable, p Params) []domain.TradeLot {
	shared := make([]int64, 0, len(asks))
	for typeID := range asks {
		if _, ok := bids[typeID]; ok {
			shared = append(shared, typeID)
		}
	}
	sort.Slice(shared, func(i, j int) bool { return shared[i] < shared[j] })

	var lots []domain.TradeLot
	for _, typeID := range shared {
		unitVolume, ok := vols.UnitVolume(typeID)
		if !ok || unitVolume <= 0 {
			continue
		}
		lots = append(lots, matchType(typeID, asks[typeID], bids[typeID], unitVolume, p)...)
	}
	return lots
}

// matchType runs the greedy two-pointer sweep for one item type.
func matchType(typeID int64, asks, bids []domain.Order, unitVolume float64, p Params) []domain.TradeLot {
	askQ := NewAskQueue(asks)
	bidQ := NewBidQueue(bids)
	if askQ.Exhausted() || bidQ.Exhausted() {
		return nil
	}

	// Type-level gates: cheapest ask within budget, best spread worth
	// taking, and at least one unit fitting the cargo hold.
	if askQ.HeadPrice() > p.MaxPrice {
		return nil
	}
	if bidQ.HeadPrice()-askQ.HeadPrice() < p.MinProfit {
		return nil
	}
	if unitVolume > p.MaxVolume {
		return nil
	}

	// Cargo cap is fixed for the whole trip, not re-derived per lot.
	maxPerTrade := math.Floor(p.MaxVolume / unitVolume)

	var lots []domain.TradeLot
	for !askQ.Exhausted() && !bidQ.Exhausted() {
		askPrice := askQ.HeadPrice()
		bidPrice := bidQ.HeadPrice()
		spread := bidPrice - askPrice
		if spread < p.MinProfit {
			break
		}

		askRemaining := askQ.HeadRemaining()
		bidRemaining := bidQ.HeadRemaining()

		count := askRemaining
		if bidRemaining < count {
			count = bidRemaining
		}
		if count > maxPerTrade {
			count = maxPerTrade
		}
		// Quantities truncate toward zero at every budget conversion so
		// no emitted trade can exceed its stated budget.
		if count*askPrice > p.MaxPrice {
			count = math.Floor(p.MaxPrice / askPrice)
		}
		if count <= 0 {
			break
		}

		lots = append(lots, domain.TradeLot{
			TypeID:          typeID,
			Quantity:        count,
			BuyPrice:        askPrice,
			SellPrice:       bidPrice,
			TotalProfit:     spread * count,
			PerUnitProfit:   spread,
			PerVolumeProfit: spread / unitVolume,
			Volume:          count * unitVolume,
		})

		// The side with less remaining volume bound this iteration; it is
		// consumed in full (its clamped remainder is untradeable within
		// this trip's budget) while the counterparty is debited by count.
		if askRemaining >= bidRemaining {
			bidQ.DropHead()
			askQ.Take(count)
		} else {
			askQ.DropHead()
			bidQ.Take(count)
		}
	}
	return lots
}
