package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eveexchange/backend/internal/domain"
)

// volumeTable is a test double for domain.VolumeTable.
type volumeTable map[int64]float64

func (v volumeTable) UnitVolume(typeID int64) (float64, bool) {
	uv, ok := v[typeID]
	return uv, ok
}

func asks(typeID int64, orders ...domain.Order) domain.OrderBook {
	return domain.OrderBook{typeID: orders}
}

func TestMatchRejectsSpreadBelowMinProfit(t *testing.T) {
	lots := MatchArbitrage(
		asks(34, domain.Order{OrderID: 1, Price: 100, Volume: 10}),
		asks(34, domain.Order{OrderID: 2, Price: 250, Volume: 10, Buy: true}),
		volumeTable{34: 1},
		Params{MaxVolume: 10000, MaxPrice: 100000, MinProfit: 100000},
	)
	assert.Empty(t, lots, "spread of 150 is below the 100000 profit floor")
}

func TestMatchSingleProfitablePair(t *testing.T) {
	lots := MatchArbitrage(
		asks(34, domain.Order{OrderID: 1, Price: 100, Volume: 10}),
		asks(34, domain.Order{OrderID: 2, Price: 250, Volume: 10, Buy: true}),
		volumeTable{34: 1},
		Params{MaxVolume: 10000, MaxPrice: 100000, MinProfit: 50},
	)

	require.Len(t, lots, 1)
	lot := lots[0]
	assert.Equal(t, int64(34), lot.TypeID)
	assert.Equal(t, 10.0, lot.Quantity)
	assert.Equal(t, 100.0, lot.BuyPrice)
	assert.Equal(t, 250.0, lot.SellPrice)
	assert.Equal(t, 1500.0, lot.TotalProfit)
	assert.Equal(t, 150.0, lot.PerUnitProfit)
	assert.Equal(t, 150.0, lot.PerVolumeProfit)
	assert.Equal(t, 10.0, lot.Volume)
}

func TestMatchCargoCapBindsBeforeVolume(t *testing.T) {
	// Unit volume 100 against a 250 m3 hold caps each trade at 2 units
	// even though both sides hold far more.
	lots := MatchArbitrage(
		asks(620, domain.Order{OrderID: 1, Price: 100, Volume: 10}),
		asks(620, domain.Order{OrderID: 2, Price: 300, Volume: 8, Buy: true}),
		volumeTable{620: 100},
		Params{MaxVolume: 250, MaxPrice: 100000, MinProfit: 50},
	)

	require.Len(t, lots, 1)
	assert.Equal(t, 2.0, lots[0].Quantity)
	assert.Equal(t, 200.0, lots[0].Volume)
	assert.LessOrEqual(t, lots[0].Volume, 250.0)
}

func TestMatchPriceBudgetClamp(t *testing.T) {
	lots := MatchArbitrage(
		asks(44, domain.Order{OrderID: 1, Price: 1000, Volume: 10}),
		asks(44, domain.Order{OrderID: 2, Price: 1200, Volume: 10, Buy: true}),
		volumeTable{44: 1},
		Params{MaxVolume: 10000, MaxPrice: 2500, MinProfit: 100},
	)

	require.Len(t, lots, 1)
	assert.Equal(t, 2.0, lots[0].Quantity)
	assert.LessOrEqual(t, lots[0].Quantity*lots[0].BuyPrice, 2500.0)
}

func TestMatchStopsWhenBudgetExhausted(t *testing.T) {
	// The second ask lot is priced beyond the entire currency budget, so
	// the clamp floors count to zero and the sweep stops after one lot.
	askBook := asks(50,
		domain.Order{OrderID: 1, Price: 100, Volume: 1},
		domain.Order{OrderID: 2, Price: 200000, Volume: 10},
	)
	bidBook := asks(50, domain.Order{OrderID: 3, Price: 250000, Volume: 20, Buy: true})

	lots := MatchArbitrage(askBook, bidBook, volumeTable{50: 1},
		Params{MaxVolume: 10000, MaxPrice: 100000, MinProfit: 100})

	require.Len(t, lots, 1)
	assert.Equal(t, 1.0, lots[0].Quantity)
	assert.Equal(t, 100.0, lots[0].BuyPrice)
}

func TestMatchSkipsTypeMissingFromVolumeTable(t *testing.T) {
	askBook := domain.OrderBook{
		34: {{OrderID: 1, Price: 100, Volume: 10}},
		35: {{OrderID: 2, Price: 100, Volume: 10}},
	}
	bidBook := domain.OrderBook{
		34: {{OrderID: 3, Price: 500, Volume: 10, Buy: true}},
		35: {{OrderID: 4, Price: 500, Volume: 10, Buy: true}},
	}

	lots := MatchArbitrage(askBook, bidBook, volumeTable{35: 1},
		Params{MaxVolume: 10000, MaxPrice: 100000, MinProfit: 50})

	require.Len(t, lots, 1)
	assert.Equal(t, int64(35), lots[0].TypeID)
}

func TestMatchRejectsUnitTooLargeForHold(t *testing.T) {
	lots := MatchArbitrage(
		asks(70, domain.Order{OrderID: 1, Price: 100, Volume: 10}),
		asks(70, domain.Order{OrderID: 2, Price: 500, Volume: 10, Buy: true}),
		volumeTable{70: 50000},
		Params{MaxVolume: 10000, MaxPrice: 100000, MinProfit: 50},
	)
	assert.Empty(t, lots, "no single unit fits the cargo budget")
}

func TestMatchSweepConservesVolume(t *testing.T) {
	askBook := asks(34,
		domain.Order{OrderID: 1, Price: 10, Volume: 5},
		domain.Order{OrderID: 2, Price: 11, Volume: 5},
		domain.Order{OrderID: 3, Price: 12, Volume: 5},
	)
	bidBook := asks(34,
		domain.Order{OrderID: 4, Price: 20, Volume: 4, Buy: true},
		domain.Order{OrderID: 5, Price: 19, Volume: 4, Buy: true},
		domain.Order{OrderID: 6, Price: 18, Volume: 4, Buy: true},
	)
	p := Params{MaxVolume: 10000, MaxPrice: 100000, MinProfit: 1}

	lots := MatchArbitrage(askBook, bidBook, volumeTable{34: 1}, p)
	require.NotEmpty(t, lots)

	var consumed float64
	for _, lot := range lots {
		consumed += lot.Quantity
		assert.GreaterOrEqual(t, lot.SellPrice-lot.BuyPrice, p.MinProfit)
		assert.LessOrEqual(t, lot.Quantity*lot.BuyPrice, p.MaxPrice)
		assert.LessOrEqual(t, lot.Volume, p.MaxVolume)
		assert.Equal(t, lot.Quantity*lot.PerUnitProfit, lot.TotalProfit)
	}
	assert.LessOrEqual(t, consumed, 15.0, "cannot consume more than total ask volume")
	assert.LessOrEqual(t, consumed, 12.0, "cannot consume more than total bid volume")
	assert.Equal(t, 12.0, consumed, "full bid-side liquidity is profitable here")
}

func TestMatchDeterministicAcrossRuns(t *testing.T) {
	askBook := domain.OrderBook{}
	bidBook := domain.OrderBook{}
	vols := volumeTable{}
	for typeID := int64(100); typeID < 120; typeID++ {
		askBook[typeID] = []domain.Order{{OrderID: typeID, Price: 50, Volume: 10}}
		bidBook[typeID] = []domain.Order{{OrderID: typeID + 1000, Price: 500, Volume: 10, Buy: true}}
		vols[typeID] = 1
	}
	p := Params{MaxVolume: 10000, MaxPrice: 100000, MinProfit: 10}

	first := MatchArbitrage(askBook, bidBook, vols, p)
	for range 10 {
		assert.Equal(t, first, MatchArbitrage(askBook, bidBook, vols, p))
	}
	require.Len(t, first, 20)
	for i := 1; i < len(first); i++ {
		assert.Less(t, first[i-1].TypeID, first[i].TypeID, "types emitted in ascending id order")
	}
}

func TestMatchProfitMonotonicInBudget(t *testing.T) {
	askBook := asks(34,
		domain.Order{OrderID: 1, Price: 100, Volume: 50},
		domain.Order{OrderID: 2, Price: 150, Volume: 50},
	)
	bidBook := asks(34,
		domain.Order{OrderID: 3, Price: 400, Volume: 60, Buy: true},
		domain.Order{OrderID: 4, Price: 350, Volume: 60, Buy: true},
	)
	vols := volumeTable{34: 2}

	total := func(maxPrice, maxVolume float64) float64 {
		var sum float64
		for _, lot := range MatchArbitrage(askBook, bidBook, vols,
			Params{MaxVolume: maxVolume, MaxPrice: maxPrice, MinProfit: 10}) {
			sum += lot.TotalProfit
		}
		return sum
	}

	assert.LessOrEqual(t, total(1000, 100), total(10000, 100))
	assert.LessOrEqual(t, total(10000, 100), total(100000, 100))
	assert.LessOrEqual(t, total(100000, 20), total(100000, 200))
}
