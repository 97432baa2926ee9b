package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/eveexchange/backend/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ---------------------------------------------------------------------------
// In-memory fakes for the cache and store interfaces.
// ---------------------------------------------------------------------------

type bookKey struct {
	typeID, regionID int64
}

type fakeOrderCache struct {
	mu     sync.Mutex
	orders map[bookKey][]domain.Order
	err    error
}

func newFakeOrderCache() *fakeOrderCache {
	return &fakeOrderCache{orders: make(map[bookKey][]domain.Order)}
}

func (f *fakeOrderCache) put(typeID, regionID int64, orders ...domain.Order) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders[bookKey{typeID, regionID}] = orders
}

func (f *fakeOrderCache) TypeOrders(_ context.Context, typeID, regionID int64) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.orders[bookKey{typeID, regionID}], nil
}

func (f *fakeOrderCache) SideOrders(_ context.Context, regionID int64, buy bool, typeIDs []int64) (domain.OrderBook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	book := make(domain.OrderBook)
	for key, orders := range f.orders {
		if key.regionID != regionID {
			continue
		}
		for _, o := range orders {
			if o.Buy == buy {
				book[key.typeID] = append(book[key.typeID], o)
			}
		}
	}
	return book, nil
}

func (f *fakeOrderCache) SetTypeOrders(_ context.Context, typeID, regionID int64, orders []domain.Order) error {
	f.put(typeID, regionID, orders...)
	return nil
}

type fakeStatsCache struct {
	stats map[int64]domain.ItemStats
	err   error
}

func (f *fakeStatsCache) DailyStats(_ context.Context, typeID, _ int64) (domain.ItemStats, bool, error) {
	st, ok := f.stats[typeID]
	return st, ok, f.err
}

func (f *fakeStatsCache) DailyStatsBatch(_ context.Context, typeIDs []int64, _ int64) ([]domain.ItemStats, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.ItemStats, 0, len(typeIDs))
	for _, id := range typeIDs {
		if st, ok := f.stats[id]; ok {
			out = append(out, st)
		}
	}
	return out, nil
}

type fakeAuditStore struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeAuditStore) Log(_ context.Context, _ int64, event string, _ map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeAuditStore) List(context.Context, int64, domain.ListOpts) ([]domain.AuditEntry, error) {
	return nil, nil
}

type fakeNotificationStore struct {
	mu      sync.Mutex
	created []domain.Notification
}

func (f *fakeNotificationStore) Create(_ context.Context, n domain.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, n)
	return nil
}

func (f *fakeNotificationStore) SetRead(context.Context, int64, string, bool) error { return nil }
func (f *fakeNotificationStore) SetAllRead(context.Context, int64) error            { return nil }
func (f *fakeNotificationStore) ListByUser(context.Context, int64, domain.ListOpts) ([]domain.Notification, error) {
	return nil, nil
}

type fakeSignalBus struct {
	mu        sync.Mutex
	published map[string][][]byte
}

func newFakeSignalBus() *fakeSignalBus {
	return &fakeSignalBus{published: make(map[string][][]byte)}
}

func (f *fakeSignalBus) Publish(_ context.Context, channel string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published[channel] = append(f.published[channel], payload)
	return nil
}

func (f *fakeSignalBus) Subscribe(context.Context, string) (<-chan []byte, error) {
	ch := make(chan []byte)
	close(ch)
	return ch, nil
}

type fakeLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (f *fakeLimiter) Allow(_ context.Context, key string, _ int, _ time.Duration) (bool, error) {
	f.keys = append(f.keys, key)
	return f.allow, f.err
}

// fakeCatalog implements the static data interfaces over plain maps.
type fakeCatalog struct {
	hubs       map[int64]int64
	volumes    map[int64]float64
	tradeable  map[int64]bool
	blueprints map[int64]domain.Blueprint
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		hubs:       map[int64]int64{10000002: 60003760, 10000043: 60008494},
		volumes:    map[int64]float64{34: 0.01, 35: 0.01, 603: 2500},
		tradeable:  map[int64]bool{34: true, 35: true, 603: true},
		blueprints: make(map[int64]domain.Blueprint),
	}
}

func (f *fakeCatalog) Supported(regionID int64) bool {
	_, ok := f.hubs[regionID]
	return ok
}

func (f *fakeCatalog) StationHub(regionID int64) (int64, bool) {
	hub, ok := f.hubs[regionID]
	return hub, ok
}

func (f *fakeCatalog) Regions() []int64 {
	regions := make([]int64, 0, len(f.hubs))
	for id := range f.hubs {
		regions = append(regions, id)
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i] < regions[j] })
	return regions
}

func (f *fakeCatalog) UnitVolume(typeID int64) (float64, bool) {
	v, ok := f.volumes[typeID]
	return v, ok
}

func (f *fakeCatalog) Tradeable(typeID int64) bool {
	return f.tradeable[typeID]
}

func (f *fakeCatalog) TypeIDs() []int64 {
	ids := make([]int64, 0, len(f.tradeable))
	for id := range f.tradeable {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (f *fakeCatalog) Blueprint(typeID int64) (domain.Blueprint, bool) {
	bp, ok := f.blueprints[typeID]
	return bp, ok
}

func (f *fakeCatalog) Materials(typeID int64, runs int64, efficiency int64) ([]domain.Material, bool) {
	bp, ok := f.blueprints[typeID]
	if !ok {
		return nil, false
	}
	scale := (100.0 - float64(efficiency)) / 100.0
	out := make([]domain.Material, 0, len(bp.Materials))
	for _, m := range bp.Materials {
		out = append(out, domain.Material{TypeID: m.TypeID, Quantity: m.Quantity * float64(runs) * scale})
	}
	return out, true
}

type fakePortfolioStore struct {
	mu      sync.Mutex
	nextID  int64
	rows    map[int64]domain.Portfolio
	byUser  map[int64]int64
	loadErr error
}

func newFakePortfolioStore() *fakePortfolioStore {
	return &fakePortfolioStore{
		nextID: 1,
		rows:   make(map[int64]domain.Portfolio),
		byUser: make(map[int64]int64),
	}
}

func (f *fakePortfolioStore) Create(_ context.Context, p domain.Portfolio) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	p.PortfolioID = id
	f.rows[id] = p
	f.byUser[p.UserID]++
	return id, nil
}

func (f *fakePortfolioStore) Delete(_ context.Context, userID, portfolioID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.rows[portfolioID]
	if !ok || p.UserID != userID {
		return domain.ErrNotFound
	}
	delete(f.rows, portfolioID)
	f.byUser[userID]--
	return nil
}

func (f *fakePortfolioStore) Get(_ context.Context, userID, portfolioID int64) (domain.Portfolio, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return domain.Portfolio{}, f.loadErr
	}
	p, ok := f.rows[portfolioID]
	if !ok || p.UserID != userID {
		return domain.Portfolio{}, domain.ErrNotFound
	}
	return p, nil
}

func (f *fakePortfolioStore) ListByUser(_ context.Context, userID int64) ([]domain.Portfolio, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Portfolio
	for _, p := range f.rows {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePortfolioStore) CountByUser(_ context.Context, userID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byUser[userID], nil
}
