package handler

import (
	"log/slog"
	"math"
	"net/http"

	"github.com/eveexchange/backend/internal/domain"
	"github.com/eveexchange/backend/internal/service"
)

// MarketHandler serves the forecast and regional scan endpoints.
type MarketHandler struct {
	market   *service.MarketService
	settings *service.SettingsService
	logger   *slog.Logger
}

// NewMarketHandler creates a MarketHandler.
func NewMarketHandler(market *service.MarketService, settings *service.SettingsService, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{market: market, settings: settings, logger: logger}
}

// Forecast runs the premium station-trading stats scan. The region
// defaults to the user's home region; unset bounds are left open.
// GET /api/market/forecast
func (h *MarketHandler) Forecast(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUser(w, r)
	if !ok {
		return
	}
	user, err := h.settings.Get(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	region, err := queryInt64(r, "region", user.HomeRegion)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid region")
		return
	}

	filter := domain.ForecastFilter{MaxSpread: math.MaxFloat64, MaxVolume: math.MaxFloat64, MaxPrice: math.MaxFloat64}
	bounds := []struct {
		name string
		dst  *float64
	}{
		{"minspread", &filter.MinSpread},
		{"maxspread", &filter.MaxSpread},
		{"minvolume", &filter.MinVolume},
		{"maxvolume", &filter.MaxVolume},
		{"minprice", &filter.MinPrice},
		{"maxprice", &filter.MaxPrice},
	}
	for _, b := range bounds {
		v, err := queryFloat(r, b.name, *b.dst)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid "+b.name)
			return
		}
		*b.dst = v
	}

	stats, err := h.market.Forecast(r.Context(), user, region, filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"region": region,
		"items":  stats,
	})
}

// ForecastRegional runs the cross-region arbitrage scan.
// GET /api/market/forecast/regional
func (h *MarketHandler) ForecastRegional(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUser(w, r)
	if !ok {
		return
	}

	start, err := queryInt64(r, "start", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start")
		return
	}
	end, err := queryInt64(r, "end", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end")
		return
	}
	maxVolume, err := queryFloat(r, "maxvolume", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid maxvolume")
		return
	}
	maxPrice, err := queryFloat(r, "maxprice", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid maxprice")
		return
	}
	minProfit, err := queryFloat(r, "minprofit", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid minprofit")
		return
	}

	scan, err := h.market.RegionalScan(r.Context(), userID, domain.ArbitrageRequest{
		StartRegion: start,
		EndRegion:   end,
		MaxVolume:   maxVolume,
		MaxPrice:    maxPrice,
		MinProfit:   minProfit,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scan)
}
