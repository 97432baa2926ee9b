package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eveexchange/backend/internal/domain"
)

type portfolioFixture struct {
	svc     *PortfolioService
	store   *fakePortfolioStore
	audit   *fakeAuditStore
	orders  *fakeOrderCache
	catalog *fakeCatalog
}

func newPortfolioFixture() *portfolioFixture {
	f := &portfolioFixture{
		store:   newFakePortfolioStore(),
		audit:   &fakeAuditStore{},
		orders:  newFakeOrderCache(),
		catalog: newFakeCatalog(),
	}
	f.svc = NewPortfolioService(
		f.store, f.audit, f.orders,
		f.catalog, f.catalog, f.catalog,
		PortfolioLimits{MaxPortfolios: 3, MaxComponents: 5},
		testLogger(),
	)
	return f
}

func tradingPortfolio(userID int64) domain.Portfolio {
	return domain.Portfolio{
		UserID: userID,
		Name:   "minerals",
		Kind:   domain.PortfolioTrading,
		Components: []domain.Component{
			{TypeID: 34, Quantity: 1000},
			{TypeID: 35, Quantity: 500},
		},
	}
}

func TestCreateTradingPortfolio(t *testing.T) {
	f := newPortfolioFixture()

	p, err := f.svc.Create(context.Background(), tradingPortfolio(1))
	require.NoError(t, err)
	assert.NotZero(t, p.PortfolioID)
	assert.Contains(t, f.audit.events, "portfolio.created")
}

func TestCreateRejectsEmptyName(t *testing.T) {
	f := newPortfolioFixture()
	p := tradingPortfolio(1)
	p.Name = "  "

	_, err := f.svc.Create(context.Background(), p)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestCreateRejectsEmptyComponents(t *testing.T) {
	f := newPortfolioFixture()
	p := tradingPortfolio(1)
	p.Components = nil

	_, err := f.svc.Create(context.Background(), p)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestCreateRejectsNonPositiveQuantity(t *testing.T) {
	f := newPortfolioFixture()
	p := tradingPortfolio(1)
	p.Components[0].Quantity = 0

	_, err := f.svc.Create(context.Background(), p)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestCreateRejectsUntradeableType(t *testing.T) {
	f := newPortfolioFixture()
	p := tradingPortfolio(1)
	p.Components[0].TypeID = 99999

	_, err := f.svc.Create(context.Background(), p)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestCreateRejectsTooManyComponents(t *testing.T) {
	f := newPortfolioFixture()
	p := tradingPortfolio(1)
	for i := 0; i < 6; i++ {
		p.Components = append(p.Components, domain.Component{TypeID: 34, Quantity: 1})
	}

	_, err := f.svc.Create(context.Background(), p)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestCreateEnforcesPortfolioLimit(t *testing.T) {
	f := newPortfolioFixture()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := f.svc.Create(ctx, tradingPortfolio(1))
		require.NoError(t, err)
	}

	_, err := f.svc.Create(ctx, tradingPortfolio(1))
	assert.ErrorIs(t, err, domain.ErrPortfolioLimit)

	// Other users are unaffected.
	_, err = f.svc.Create(ctx, tradingPortfolio(2))
	assert.NoError(t, err)
}

func TestCreateIndustryPortfolioExpandsBlueprint(t *testing.T) {
	f := newPortfolioFixture()
	f.catalog.blueprints[603] = domain.Blueprint{
		TypeID:   603,
		Quantity: 1,
		Materials: []domain.Material{
			{TypeID: 34, Quantity: 1000},
			{TypeID: 35, Quantity: 400},
		},
	}

	p, err := f.svc.Create(context.Background(), domain.Portfolio{
		UserID:           1,
		Name:             "frigate line",
		Kind:             domain.PortfolioIndustry,
		IndustryTypeID:   603,
		IndustryQuantity: 10,
		Efficiency:       10,
	})
	require.NoError(t, err)

	// Components replaced by the efficiency-scaled bill of materials.
	require.Len(t, p.Components, 2)
	assert.Equal(t, 9000.0, p.Components[0].Quantity)
	assert.Equal(t, 3600.0, p.Components[1].Quantity)
	assert.Equal(t, 10.0, p.ManufacturedQuantity)
}

func TestCreateIndustryRejectsBadEfficiency(t *testing.T) {
	f := newPortfolioFixture()

	_, err := f.svc.Create(context.Background(), domain.Portfolio{
		UserID:           1,
		Name:             "bad",
		Kind:             domain.PortfolioIndustry,
		IndustryTypeID:   603,
		IndustryQuantity: 1,
		Efficiency:       101,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestCreateIndustryRejectsMissingBlueprint(t *testing.T) {
	f := newPortfolioFixture()

	_, err := f.svc.Create(context.Background(), domain.Portfolio{
		UserID:           1,
		Name:             "no blueprint",
		Kind:             domain.PortfolioIndustry,
		IndustryTypeID:   12345,
		IndustryQuantity: 1,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestDeleteOtherUsersPortfolio(t *testing.T) {
	f := newPortfolioFixture()
	p, err := f.svc.Create(context.Background(), tradingPortfolio(1))
	require.NoError(t, err)

	err = f.svc.Delete(context.Background(), 2, p.PortfolioID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMultibuyRejectsBadMultiplier(t *testing.T) {
	f := newPortfolioFixture()

	for _, multiplier := range []int64{0, -1} {
		_, err := f.svc.Multibuy(context.Background(), 1, 1, jitaRegion, multiplier)
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	}
}

func TestMultibuyRejectsUnsupportedRegion(t *testing.T) {
	f := newPortfolioFixture()

	_, err := f.svc.Multibuy(context.Background(), 1, 1, 42, 1)
	assert.ErrorIs(t, err, domain.ErrUnsupportedRegion)
}

func TestMultibuyEstimatesCheapestFirst(t *testing.T) {
	f := newPortfolioFixture()
	p, err := f.svc.Create(context.Background(), domain.Portfolio{
		UserID: 1,
		Name:   "tritanium only",
		Kind:   domain.PortfolioTrading,
		Components: []domain.Component{
			{TypeID: 34, Quantity: 50},
		},
	})
	require.NoError(t, err)

	f.orders.put(34, jitaRegion,
		domain.Order{OrderID: 1, TypeID: 34, RegionID: jitaRegion, LocationID: jitaHub, Price: 5, Volume: 60},
		domain.Order{OrderID: 2, TypeID: 34, RegionID: jitaRegion, LocationID: jitaHub, Price: 4, Volume: 80},
		// Buy order on the same type must be ignored.
		domain.Order{OrderID: 3, TypeID: 34, RegionID: jitaRegion, LocationID: jitaHub, Price: 10, Volume: 50, Buy: true},
		// Off-hub ask must be ignored.
		domain.Order{OrderID: 4, TypeID: 34, RegionID: jitaRegion, LocationID: 60000001, Price: 1, Volume: 500},
	)

	report, err := f.svc.Multibuy(context.Background(), 1, p.PortfolioID, jitaRegion, 2)
	require.NoError(t, err)

	res, ok := report.Components[34]
	require.True(t, ok)
	// 100 wanted after the x2 multiplier: 80 at 4, then 20 at 5.
	assert.Equal(t, 100.0, res.Wanted)
	assert.Equal(t, 0.0, res.Deficit)
	assert.Equal(t, 140.0, res.Available)
	assert.Equal(t, 80*4.0+20*5.0, report.TotalCost)
}

func TestMultibuyReportsDeficit(t *testing.T) {
	f := newPortfolioFixture()
	p, err := f.svc.Create(context.Background(), domain.Portfolio{
		UserID: 1,
		Name:   "scarce",
		Kind:   domain.PortfolioTrading,
		Components: []domain.Component{
			{TypeID: 35, Quantity: 50},
		},
	})
	require.NoError(t, err)

	f.orders.put(35, jitaRegion,
		domain.Order{OrderID: 1, TypeID: 35, RegionID: jitaRegion, LocationID: jitaHub, Price: 8, Volume: 20},
	)

	report, err := f.svc.Multibuy(context.Background(), 1, p.PortfolioID, jitaRegion, 1)
	require.NoError(t, err)

	res := report.Components[35]
	assert.Equal(t, 50.0, res.Wanted)
	assert.Equal(t, 30.0, res.Deficit)
	assert.Equal(t, 20.0, res.Available)
}
