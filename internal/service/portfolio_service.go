package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/eveexchange/backend/internal/domain"
	"github.com/eveexchange/backend/internal/engine"
)

// PortfolioLimits bounds portfolio creation.
type PortfolioLimits struct {
	MaxPortfolios int64
	MaxComponents int
}

// PortfolioService handles portfolio CRUD and the multibuy estimate.
type PortfolioService struct {
	portfolios domain.PortfolioStore
	audit      domain.AuditStore
	orders     domain.OrderCache
	hubs       domain.HubRegistry
	types      domain.MarketTypes
	blueprints domain.BlueprintTable
	limits     PortfolioLimits
	logger     *slog.Logger
}

// NewPortfolioService creates a PortfolioService.
func NewPortfolioService(
	portfolios domain.PortfolioStore,
	audit domain.AuditStore,
	orders domain.OrderCache,
	hubs domain.HubRegistry,
	types domain.MarketTypes,
	blueprints domain.BlueprintTable,
	limits PortfolioLimits,
	logger *slog.Logger,
) *PortfolioService {
	return &PortfolioService{
		portfolios: portfolios,
		audit:      audit,
		orders:     orders,
		hubs:       hubs,
		types:      types,
		blueprints: blueprints,
		limits:     limits,
		logger:     logger.With(slog.String("component", "portfolio_service")),
	}
}

// Create validates and stores a portfolio. Industry portfolios get their
// component list replaced by the blueprint's efficiency-scaled bill of
// materials and the manufactured quantity derived from the output per run.
func (s *PortfolioService) Create(ctx context.Context, p domain.Portfolio) (domain.Portfolio, error) {
	count, err := s.portfolios.CountByUser(ctx, p.UserID)
	if err != nil {
		return domain.Portfolio{}, fmt.Errorf("portfolio_service: count: %w", err)
	}
	if count >= s.limits.MaxPortfolios {
		return domain.Portfolio{}, domain.ErrPortfolioLimit
	}

	if err := s.validate(&p); err != nil {
		return domain.Portfolio{}, err
	}

	id, err := s.portfolios.Create(ctx, p)
	if err != nil {
		return domain.Portfolio{}, fmt.Errorf("portfolio_service: create: %w", err)
	}
	p.PortfolioID = id

	if err := s.audit.Log(ctx, p.UserID, "portfolio.created", map[string]any{
		"portfolioID": id,
		"name":        p.Name,
		"kind":        int(p.Kind),
	}); err != nil {
		s.logger.WarnContext(ctx, "audit log failed", slog.String("error", err.Error()))
	}

	s.logger.InfoContext(ctx, "portfolio created",
		slog.Int64("portfolio_id", id),
		slog.Int64("user_id", p.UserID),
	)
	return p, nil
}

// validate enforces the portfolio rules and, for industry portfolios,
// performs the blueprint expansion in place.
func (s *PortfolioService) validate(p *domain.Portfolio) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("portfolio_service: name must not be empty: %w", domain.ErrInvalidRequest)
	}

	switch p.Kind {
	case domain.PortfolioTrading:
		if len(p.Components) == 0 {
			return fmt.Errorf("portfolio_service: components must not be empty: %w", domain.ErrInvalidRequest)
		}
		if len(p.Components) > s.limits.MaxComponents {
			return fmt.Errorf("portfolio_service: too many components (max %d): %w",
				s.limits.MaxComponents, domain.ErrInvalidRequest)
		}
		for _, c := range p.Components {
			if c.Quantity <= 0 {
				return fmt.Errorf("portfolio_service: component %d quantity must be positive: %w",
					c.TypeID, domain.ErrInvalidRequest)
			}
			if !s.types.Tradeable(c.TypeID) {
				return fmt.Errorf("portfolio_service: type %d is not tradeable: %w",
					c.TypeID, domain.ErrInvalidRequest)
			}
		}

	case domain.PortfolioIndustry:
		if p.Efficiency < 0 || p.Efficiency > 100 {
			return fmt.Errorf("portfolio_service: efficiency must be 0-100: %w", domain.ErrInvalidRequest)
		}
		if p.IndustryQuantity < 1 {
			return fmt.Errorf("portfolio_service: industry quantity must be >= 1: %w", domain.ErrInvalidRequest)
		}
		bp, ok := s.blueprints.Blueprint(p.IndustryTypeID)
		if !ok {
			return fmt.Errorf("portfolio_service: type %d has no blueprint: %w",
				p.IndustryTypeID, domain.ErrInvalidRequest)
		}
		materials, _ := s.blueprints.Materials(p.IndustryTypeID, p.IndustryQuantity, p.Efficiency)
		components := make([]domain.Component, 0, len(materials))
		for _, m := range materials {
			components = append(components, domain.Component{
				TypeID:   m.TypeID,
				Quantity: m.Quantity,
			})
		}
		p.Components = components
		p.ManufacturedQuantity = bp.Quantity * float64(p.IndustryQuantity)

	default:
		return fmt.Errorf("portfolio_service: unknown portfolio kind %d: %w", p.Kind, domain.ErrInvalidRequest)
	}
	return nil
}

// Delete removes a user's portfolio.
func (s *PortfolioService) Delete(ctx context.Context, userID, portfolioID int64) error {
	if err := s.portfolios.Delete(ctx, userID, portfolioID); err != nil {
		return fmt.Errorf("portfolio_service: delete %d: %w", portfolioID, err)
	}
	if err := s.audit.Log(ctx, userID, "portfolio.deleted", map[string]any{
		"portfolioID": portfolioID,
	}); err != nil {
		s.logger.WarnContext(ctx, "audit log failed", slog.String("error", err.Error()))
	}
	return nil
}

// Get returns one of a user's portfolios.
func (s *PortfolioService) Get(ctx context.Context, userID, portfolioID int64) (domain.Portfolio, error) {
	p, err := s.portfolios.Get(ctx, userID, portfolioID)
	if err != nil {
		return domain.Portfolio{}, fmt.Errorf("portfolio_service: get %d: %w", portfolioID, err)
	}
	return p, nil
}

// List returns all of a user's portfolios.
func (s *PortfolioService) List(ctx context.Context, userID int64) ([]domain.Portfolio, error) {
	portfolios, err := s.portfolios.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("portfolio_service: list: %w", err)
	}
	return portfolios, nil
}

// Multibuy estimates the cheapest-first acquisition cost of a portfolio's
// components at a region's hub. The multiplier is the whole number of
// basket repetitions and must be at least 1.
func (s *PortfolioService) Multibuy(ctx context.Context, userID, portfolioID, regionID, multiplier int64) (domain.AcquisitionReport, error) {
	if multiplier < 1 {
		return domain.AcquisitionReport{}, fmt.Errorf("portfolio_service: multiplier must be >= 1: %w", domain.ErrInvalidRequest)
	}
	hub, ok := s.hubs.StationHub(regionID)
	if !ok {
		return domain.AcquisitionReport{}, fmt.Errorf("portfolio_service: region %d: %w", regionID, domain.ErrUnsupportedRegion)
	}

	p, err := s.portfolios.Get(ctx, userID, portfolioID)
	if err != nil {
		return domain.AcquisitionReport{}, fmt.Errorf("portfolio_service: get %d: %w", portfolioID, err)
	}

	reqs := make([]domain.Requirement, 0, len(p.Components))
	for _, c := range p.Components {
		reqs = append(reqs, domain.Requirement{
			TypeID:   c.TypeID,
			Quantity: c.Quantity * float64(multiplier),
		})
	}

	asks, err := s.fetchAsks(ctx, regionID, hub, reqs)
	if err != nil {
		return domain.AcquisitionReport{}, err
	}

	report := engine.EstimateAcquisition(asks, reqs)
	s.logger.InfoContext(ctx, "multibuy estimate",
		slog.Int64("portfolio_id", portfolioID),
		slog.Int64("region", regionID),
		slog.Float64("total_cost", report.TotalCost),
	)
	return report, nil
}

// fetchAsks pulls the sell orders for every required type concurrently
// and keeps only hub-eligible ones.
func (s *PortfolioService) fetchAsks(ctx context.Context, regionID, hub int64, reqs []domain.Requirement) (domain.OrderBook, error) {
	var mu sync.Mutex
	asks := make(domain.OrderBook, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, req := range reqs {
		typeID := req.TypeID
		g.Go(func() error {
			orders, err := s.orders.TypeOrders(gctx, typeID, regionID)
			if err != nil {
				return fmt.Errorf("fetch type %d: %w", typeID, err)
			}
			var kept []domain.Order
			for _, o := range orders {
				if !o.Buy && domain.EligibleLocation(o.LocationID, hub) {
					kept = append(kept, o)
				}
			}
			mu.Lock()
			asks[typeID] = kept
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("portfolio_service: %w", err)
	}
	return asks, nil
}
