package domain

import "time"

// TradeLot is one discrete buy-here-sell-there allocation emitted by the
// arbitrage matcher. Never mutated after emission.
type TradeLot struct {
	TypeID          int64   `json:"type"`
	Quantity        float64 `json:"quantity"`
	BuyPrice        float64 `json:"buyPrice"`
	SellPrice       float64 `json:"sellPrice"`
	TotalProfit     float64 `json:"totalProfit"`
	PerUnitProfit   float64 `json:"perProfit"`
	PerVolumeProfit float64 `json:"perVolumeProfit"`
	Volume          float64 `json:"volume"` // hauled m3: Quantity x unit reference volume
}

// ArbitrageRequest carries the validated parameters of a regional scan.
type ArbitrageRequest struct {
	StartRegion int64
	EndRegion   int64
	MaxVolume   float64 // per-trip cargo budget in m3
	MaxPrice    float64 // per-trade currency budget
	MinProfit   float64 // minimum per-unit spread
}

// ArbitrageScan is a completed regional scan: the request, the emitted
// lots, and bookkeeping for audit/broadcast.
type ArbitrageScan struct {
	ID          string     `json:"id"`
	UserID      int64      `json:"-"`
	StartRegion int64      `json:"startRegion"`
	EndRegion   int64      `json:"endRegion"`
	Trades      []TradeLot `json:"trades"`
	ScannedAt   time.Time  `json:"scannedAt"`
}

// ItemStats is the daily aggregate row backing the station-trading
// forecast, keyed per type and region in the stats cache.
type ItemStats struct {
	TypeID         int64   `json:"type"`
	Spread         float64 `json:"spread"`
	SpreadSMA      float64 `json:"spread_sma"`
	TradeVolume    float64 `json:"tradeVolume"`
	VolumeSMA      float64 `json:"volume_sma"`
	BuyPercentile  float64 `json:"buyPercentile"`
	SellPercentile float64 `json:"sellPercentile"`
	Velocity       float64 `json:"velocity"`
}

// ForecastFilter bounds the stats scan. Zero-valued maxima are filled with
// defaults by the handler before the scan runs.
type ForecastFilter struct {
	MinSpread float64
	MaxSpread float64
	MinVolume float64
	MaxVolume float64
	MinPrice  float64
	MaxPrice  float64
}
