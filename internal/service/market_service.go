// Package service orchestrates the market scans and portfolio operations:
// snapshot assembly from the caches, engine invocation, persistence and
// broadcast. Services hold no per-request state; every engine call is
// request-scoped.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/eveexchange/backend/internal/domain"
	"github.com/eveexchange/backend/internal/engine"
)

// ScanChannel is the signal bus channel carrying completed scans.
const ScanChannel = "scans"

// ScanArchiver uploads completed scans to blob storage. Optional.
type ScanArchiver interface {
	ArchiveScan(ctx context.Context, scan domain.ArbitrageScan) error
}

// BookArchiver snapshots a region's full order book to blob storage.
// Archivers that also implement it get one book per region per sweep.
type BookArchiver interface {
	ArchiveOrderBook(ctx context.Context, regionID int64, book domain.OrderBook, at time.Time) error
}

// Notifier announces completed scans to operator channels. Optional.
type Notifier interface {
	ScanCompleted(ctx context.Context, scan domain.ArbitrageScan) error
}

// MarketLimits bounds scan requests. Zero-valued fields fall back to the
// config defaults at wire time.
type MarketLimits struct {
	// DefaultMinProfit applies when a scan omits the profit floor.
	DefaultMinProfit float64
	// MinScanVolume is the smallest accepted cargo budget (m3).
	MinScanVolume float64
	// MinScanPrice is the smallest accepted currency budget.
	MinScanPrice float64
	// ScanRateLimit and ScanRateWindow bound scans per user.
	ScanRateLimit  int
	ScanRateWindow time.Duration
	// SweepVolume and SweepPrice are the budgets applied to background
	// sweeps, which have no requesting user to supply them.
	SweepVolume float64
	SweepPrice  float64
}

// MarketService runs the station-trading forecast and the regional
// arbitrage scan.
type MarketService struct {
	orders        domain.OrderCache
	stats         domain.StatsCache
	audit         domain.AuditStore
	notifications domain.NotificationStore
	bus           domain.SignalBus
	limiter       domain.RateLimiter
	hubs          domain.HubRegistry
	vols          domain.VolumeTable
	types         domain.MarketTypes
	archiver      ScanArchiver
	notifier      Notifier
	limits        MarketLimits
	logger        *slog.Logger
}

// NewMarketService creates a MarketService. archiver and notifier may be
// nil; the corresponding steps are skipped.
func NewMarketService(
	orders domain.OrderCache,
	stats domain.StatsCache,
	audit domain.AuditStore,
	notifications domain.NotificationStore,
	bus domain.SignalBus,
	limiter domain.RateLimiter,
	hubs domain.HubRegistry,
	vols domain.VolumeTable,
	types domain.MarketTypes,
	archiver ScanArchiver,
	notifier Notifier,
	limits MarketLimits,
	logger *slog.Logger,
) *MarketService {
	return &MarketService{
		orders:        orders,
		stats:         stats,
		audit:         audit,
		notifications: notifications,
		bus:           bus,
		limiter:       limiter,
		hubs:          hubs,
		vols:          vols,
		types:         types,
		archiver:      archiver,
		notifier:      notifier,
		limits:        limits,
		logger:        logger.With(slog.String("component", "market_service")),
	}
}

// Forecast scans the daily aggregates of a region and returns the types
// whose simple moving averages fall inside the filter bounds. Premium
// accounts only.
func (s *MarketService) Forecast(ctx context.Context, user domain.UserSettings, regionID int64, filter domain.ForecastFilter) ([]domain.ItemStats, error) {
	if !user.Premium {
		return nil, domain.ErrPremiumRequired
	}
	if !s.hubs.Supported(regionID) {
		return nil, fmt.Errorf("market_service: region %d: %w", regionID, domain.ErrUnsupportedRegion)
	}

	stats, err := s.stats.DailyStatsBatch(ctx, s.types.TypeIDs(), regionID)
	if err != nil {
		return nil, fmt.Errorf("market_service: forecast region %d: %w", regionID, err)
	}

	out := make([]domain.ItemStats, 0, len(stats))
	for _, st := range stats {
		if st.SpreadSMA < filter.MinSpread || st.SpreadSMA > filter.MaxSpread {
			continue
		}
		if st.VolumeSMA < filter.MinVolume || st.VolumeSMA > filter.MaxVolume {
			continue
		}
		if st.SellPercentile < filter.MinPrice || st.SellPercentile > filter.MaxPrice {
			continue
		}
		out = append(out, st)
	}

	s.logger.InfoContext(ctx, "forecast scan",
		slog.Int64("region", regionID),
		slog.Int("scanned", len(stats)),
		slog.Int("matched", len(out)),
	)
	return out, nil
}

// RegionalScan validates a cross-region request, assembles hub-eligible
// snapshots of both books, runs the arbitrage matcher, and persists and
// broadcasts the result. The input contract rejects before any order is
// fetched.
func (s *MarketService) RegionalScan(ctx context.Context, userID int64, req domain.ArbitrageRequest) (domain.ArbitrageScan, error) {
	if err := s.validateScan(req); err != nil {
		return domain.ArbitrageScan{}, err
	}
	if req.MinProfit <= 0 {
		req.MinProfit = s.limits.DefaultMinProfit
	}

	allowed, err := s.limiter.Allow(ctx, fmt.Sprintf("scan:%d", userID), s.limits.ScanRateLimit, s.limits.ScanRateWindow)
	if err != nil {
		return domain.ArbitrageScan{}, fmt.Errorf("market_service: scan rate check: %w", err)
	}
	if !allowed {
		return domain.ArbitrageScan{}, domain.ErrRateLimited
	}

	trades, err := s.matchRegions(ctx, req)
	if err != nil {
		return domain.ArbitrageScan{}, err
	}

	scan := domain.ArbitrageScan{
		ID:          uuid.NewString(),
		UserID:      userID,
		StartRegion: req.StartRegion,
		EndRegion:   req.EndRegion,
		Trades:      trades,
		ScannedAt:   time.Now().UTC(),
	}

	s.finishScan(ctx, scan)
	return scan, nil
}

// Sweep runs an unattended scan over every ordered pair of supported
// regions using the configured sweep budgets. Results are published and
// archived like user scans but attributed to no user. Pair failures are
// logged and do not abort the remaining pairs.
func (s *MarketService) Sweep(ctx context.Context) ([]domain.ArbitrageScan, error) {
	regions := s.hubs.Regions()

	scans := make([]domain.ArbitrageScan, 0, len(regions)*(len(regions)-1))
	for _, start := range regions {
		for _, end := range regions {
			if start == end {
				continue
			}
			if err := ctx.Err(); err != nil {
				return scans, err
			}

			trades, err := s.matchRegions(ctx, domain.ArbitrageRequest{
				StartRegion: start,
				EndRegion:   end,
				MaxVolume:   s.limits.SweepVolume,
				MaxPrice:    s.limits.SweepPrice,
				MinProfit:   s.limits.DefaultMinProfit,
			})
			if err != nil {
				s.logger.WarnContext(ctx, "sweep pair failed",
					slog.Int64("start", start),
					slog.Int64("end", end),
					slog.String("error", err.Error()),
				)
				continue
			}

			scan := domain.ArbitrageScan{
				ID:          uuid.NewString(),
				StartRegion: start,
				EndRegion:   end,
				Trades:      trades,
				ScannedAt:   time.Now().UTC(),
			}
			s.finishScan(ctx, scan)
			scans = append(scans, scan)
		}
	}

	s.archiveBooks(ctx, regions)
	return scans, nil
}

// archiveBooks uploads a full order-book snapshot per region when the
// configured archiver supports it. Failures are logged, not returned;
// archival is bookkeeping, not part of the sweep contract.
func (s *MarketService) archiveBooks(ctx context.Context, regions []int64) {
	archiver, ok := s.archiver.(BookArchiver)
	if !ok {
		return
	}

	now := time.Now().UTC()
	typeIDs := s.types.TypeIDs()
	for _, region := range regions {
		book := make(domain.OrderBook)
		for _, buy := range []bool{false, true} {
			side, err := s.orders.SideOrders(ctx, region, buy, typeIDs)
			if err != nil {
				s.logger.WarnContext(ctx, "book snapshot fetch failed",
					slog.Int64("region", region),
					slog.String("error", err.Error()),
				)
				return
			}
			for typeID, orders := range side {
				book[typeID] = append(book[typeID], orders...)
			}
		}
		if len(book) == 0 {
			continue
		}
		if err := archiver.ArchiveOrderBook(ctx, region, book, now); err != nil {
			s.logger.WarnContext(ctx, "book archive failed",
				slog.Int64("region", region),
				slog.String("error", err.Error()),
			)
		}
	}
}

// matchRegions assembles hub-eligible snapshots of both books and runs
// the matcher. Asks come from the start region (buy there), bids from
// the end region (sell there); the two fetches are independent.
func (s *MarketService) matchRegions(ctx context.Context, req domain.ArbitrageRequest) ([]domain.TradeLot, error) {
	startHub, _ := s.hubs.StationHub(req.StartRegion)
	endHub, _ := s.hubs.StationHub(req.EndRegion)
	typeIDs := s.types.TypeIDs()

	var asks, bids domain.OrderBook
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		book, err := s.orders.SideOrders(gctx, req.StartRegion, false, typeIDs)
		if err != nil {
			return fmt.Errorf("fetch asks region %d: %w", req.StartRegion, err)
		}
		asks = filterEligible(book, startHub)
		return nil
	})
	g.Go(func() error {
		book, err := s.orders.SideOrders(gctx, req.EndRegion, true, typeIDs)
		if err != nil {
			return fmt.Errorf("fetch bids region %d: %w", req.EndRegion, err)
		}
		bids = filterEligible(book, endHub)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("market_service: %w", err)
	}

	return engine.MatchArbitrage(asks, bids, s.vols, engine.Params{
		MaxVolume: req.MaxVolume,
		MaxPrice:  req.MaxPrice,
		MinProfit: req.MinProfit,
	}), nil
}

// validateScan enforces the request contract: distinct supported regions
// and sane budget floors.
func (s *MarketService) validateScan(req domain.ArbitrageRequest) error {
	if !s.hubs.Supported(req.StartRegion) {
		return fmt.Errorf("market_service: start region %d: %w", req.StartRegion, domain.ErrUnsupportedRegion)
	}
	if !s.hubs.Supported(req.EndRegion) {
		return fmt.Errorf("market_service: end region %d: %w", req.EndRegion, domain.ErrUnsupportedRegion)
	}
	if req.StartRegion == req.EndRegion {
		return fmt.Errorf("market_service: start and end regions must differ: %w", domain.ErrInvalidRequest)
	}
	if req.MaxVolume < s.limits.MinScanVolume {
		return fmt.Errorf("market_service: maxvolume %.0f below minimum %.0f: %w",
			req.MaxVolume, s.limits.MinScanVolume, domain.ErrInvalidRequest)
	}
	if req.MaxPrice < s.limits.MinScanPrice {
		return fmt.Errorf("market_service: maxprice %.0f below minimum %.0f: %w",
			req.MaxPrice, s.limits.MinScanPrice, domain.ErrInvalidRequest)
	}
	return nil
}

// finishScan records, broadcasts, archives and notifies. Failures here
// never fail the scan itself; the caller already has the result.
func (s *MarketService) finishScan(ctx context.Context, scan domain.ArbitrageScan) {
	if err := s.audit.Log(ctx, scan.UserID, "scan.regional", map[string]any{
		"scanID": scan.ID,
		"start":  scan.StartRegion,
		"end":    scan.EndRegion,
		"trades": len(scan.Trades),
	}); err != nil {
		s.logger.WarnContext(ctx, "audit log failed", slog.String("error", err.Error()))
	}

	payload, err := json.Marshal(scan)
	if err == nil {
		if err := s.bus.Publish(ctx, ScanChannel, payload); err != nil {
			s.logger.WarnContext(ctx, "scan publish failed", slog.String("error", err.Error()))
		}
	}

	// Unattended sweeps have no user to notify.
	if scan.UserID != 0 {
		if err := s.notifications.Create(ctx, domain.Notification{
			ID:      uuid.NewString(),
			UserID:  scan.UserID,
			Kind:    "scan_completed",
			Message: fmt.Sprintf("Regional scan %d -> %d found %d trades", scan.StartRegion, scan.EndRegion, len(scan.Trades)),
		}); err != nil {
			s.logger.WarnContext(ctx, "scan notification failed", slog.String("error", err.Error()))
		}
	}

	if s.archiver != nil {
		if err := s.archiver.ArchiveScan(ctx, scan); err != nil {
			s.logger.WarnContext(ctx, "scan archive failed", slog.String("error", err.Error()))
		}
	}
	if s.notifier != nil {
		if err := s.notifier.ScanCompleted(ctx, scan); err != nil {
			s.logger.WarnContext(ctx, "notifier failed", slog.String("error", err.Error()))
		}
	}

	s.logger.InfoContext(ctx, "regional scan",
		slog.String("scan_id", scan.ID),
		slog.Int64("start", scan.StartRegion),
		slog.Int64("end", scan.EndRegion),
		slog.Int("trades", len(scan.Trades)),
	)
}

// filterEligible keeps only orders placed at the hub station or in a
// large structure. Types left with no orders drop out of the book.
func filterEligible(book domain.OrderBook, hubID int64) domain.OrderBook {
	out := make(domain.OrderBook, len(book))
	for typeID, orders := range book {
		kept := orders[:0]
		for _, o := range orders {
			if domain.EligibleLocation(o.LocationID, hubID) {
				kept = append(kept, o)
			}
		}
		if len(kept) > 0 {
			out[typeID] = kept
		}
	}
	return out
}
