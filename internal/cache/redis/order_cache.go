package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/eveexchange/backend/internal/domain"
)

// orderFields is the hash field layout of an ord:<id> record, written by
// the ingest pipeline.
var orderFields = []string{"type", "price", "volume", "buy", "stationID"}

// OrderCache implements domain.OrderCache over the ingest pipeline's key
// schema:
//
//	ord_cnt:{typeID}-{regionID} - list of order ids for one type+region
//	ord:{orderID}               - hash with type, price, volume, buy, stationID
type OrderCache struct {
	rdb *redis.Client
}

// NewOrderCache creates an OrderCache backed by the given Client.
func NewOrderCache(c *Client) *OrderCache {
	return &OrderCache{rdb: c.Underlying()}
}

func orderListKey(typeID, regionID int64) string {
	return fmt.Sprintf("ord_cnt:%d-%d", typeID, regionID)
}

func orderKey(orderID int64) string {
	return "ord:" + strconv.FormatInt(orderID, 10)
}

// TypeOrders returns every cached order for one item type in a region,
// both sides included. Records with non-positive price or volume are
// dropped so the engine never sees them.
func (oc *OrderCache) TypeOrders(ctx context.Context, typeID, regionID int64) ([]domain.Order, error) {
	ids, err := oc.rdb.LRange(ctx, orderListKey(typeID, regionID), 0, -1).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("redis: order list %d-%d: %w", typeID, regionID, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return oc.fetchOrders(ctx, regionID, ids)
}

// SideOrders returns a region's orders of one side grouped by item type.
// The scan is restricted to typeIDs; lookups for each type's id list and
// the order hashes are pipelined.
func (oc *OrderCache) SideOrders(ctx context.Context, regionID int64, buy bool, typeIDs []int64) (domain.OrderBook, error) {
	if len(typeIDs) == 0 {
		return domain.OrderBook{}, nil
	}

	pipe := oc.rdb.Pipeline()
	listCmds := make([]*redis.StringSliceCmd, len(typeIDs))
	for i, typeID := range typeIDs {
		listCmds[i] = pipe.LRange(ctx, orderListKey(typeID, regionID), 0, -1)
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("redis: order lists region %d: %w", regionID, err)
	}

	var ids []string
	for _, cmd := range listCmds {
		ids = append(ids, cmd.Val()...)
	}

	book := domain.OrderBook{}
	if len(ids) == 0 {
		return book, nil
	}

	orders, err := oc.fetchOrders(ctx, regionID, ids)
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		if o.Buy != buy {
			continue
		}
		book[o.TypeID] = append(book[o.TypeID], o)
	}
	return book, nil
}

// fetchOrders pipelines HMGET over the ord:<id> hashes and parses the
// results, skipping incomplete or degenerate records.
func (oc *OrderCache) fetchOrders(ctx context.Context, regionID int64, ids []string) ([]domain.Order, error) {
	pipe := oc.rdb.Pipeline()
	cmds := make([]*redis.SliceCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HMGet(ctx, "ord:"+id, orderFields...)
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("redis: order hashes: %w", err)
	}

	orders := make([]domain.Order, 0, len(ids))
	for i, cmd := range cmds {
		order, ok := parseOrder(ids[i], cmd.Val())
		if !ok {
			continue
		}
		order.RegionID = regionID
		orders = append(orders, order)
	}
	return orders, nil
}

// parseOrder converts one HMGET result row into an Order. Rows with
// missing fields or non-positive price/volume report ok=false.
func parseOrder(id string, vals []any) (domain.Order, bool) {
	if len(vals) != len(orderFields) {
		return domain.Order{}, false
	}
	fields := make([]string, len(vals))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			return domain.Order{}, false
		}
		fields[i] = s
	}

	orderID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return domain.Order{}, false
	}
	typeID, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return domain.Order{}, false
	}
	price, err := strconv.ParseFloat(fields[1], 64)
	if err != nil || price <= 0 {
		return domain.Order{}, false
	}
	volume, err := strconv.ParseFloat(fields[2], 64)
	if err != nil || volume <= 0 {
		return domain.Order{}, false
	}
	stationID, err := strconv.ParseInt(fields[4], 10, 64)
	if err != nil {
		return domain.Order{}, false
	}

	return domain.Order{
		OrderID:    orderID,
		TypeID:     typeID,
		LocationID: stationID,
		Price:      price,
		Volume:     volume,
		Buy:        parseSide(fields[3]),
	}, true
}

// parseSide accepts both the ingest pipeline's "True"/"False" strings and
// plain "1"/"0"/"true" encodings.
func parseSide(s string) bool {
	switch strings.ToLower(s) {
	case "true", "1":
		return true
	default:
		return false
	}
}

// SetTypeOrders atomically replaces the cached order list for one
// type+region. Used by the ingest collaborator and by tests.
func (oc *OrderCache) SetTypeOrders(ctx context.Context, typeID, regionID int64, orders []domain.Order) error {
	listKey := orderListKey(typeID, regionID)

	pipe := oc.rdb.TxPipeline()
	pipe.Del(ctx, listKey)
	for _, o := range orders {
		pipe.RPush(ctx, listKey, strconv.FormatInt(o.OrderID, 10))
		pipe.HSet(ctx, orderKey(o.OrderID), map[string]any{
			"type":      strconv.FormatInt(o.TypeID, 10),
			"price":     strconv.FormatFloat(o.Price, 'f', -1, 64),
			"volume":    strconv.FormatFloat(o.Volume, 'f', -1, 64),
			"buy":       formatSide(o.Buy),
			"stationID": strconv.FormatInt(o.LocationID, 10),
		})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set orders %d-%d: %w", typeID, regionID, err)
	}
	return nil
}

func formatSide(buy bool) string {
	if buy {
		return "True"
	}
	return "False"
}

// Compile-time interface check.
var _ domain.OrderCache = (*OrderCache)(nil)
