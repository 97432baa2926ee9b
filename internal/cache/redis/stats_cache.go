package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/eveexchange/backend/internal/domain"
)

// statsFields is the hash field layout of a dly:<type>-<region> record.
var statsFields = []string{
	"spread", "spread_sma", "tradeVolume", "volume_sma",
	"buyPercentile", "sellPercentile", "velocity",
}

// StatsCache implements domain.StatsCache over the dly:{typeID}-{regionID}
// hashes written by the daily aggregation job.
type StatsCache struct {
	rdb *redis.Client
}

// NewStatsCache creates a StatsCache backed by the given Client.
func NewStatsCache(c *Client) *StatsCache {
	return &StatsCache{rdb: c.Underlying()}
}

func statsKey(typeID, regionID int64) string {
	return fmt.Sprintf("dly:%d-%d", typeID, regionID)
}

// DailyStats returns the daily aggregate row for one type, or ok=false
// when the aggregation job has not produced one.
func (sc *StatsCache) DailyStats(ctx context.Context, typeID, regionID int64) (domain.ItemStats, bool, error) {
	vals, err := sc.rdb.HMGet(ctx, statsKey(typeID, regionID), statsFields...).Result()
	if err != nil && err != redis.Nil {
		return domain.ItemStats{}, false, fmt.Errorf("redis: daily stats %d-%d: %w", typeID, regionID, err)
	}
	stats, ok := parseStats(typeID, vals)
	return stats, ok, nil
}

// DailyStatsBatch pipelines the hash lookups for many types. Types with
// no aggregate row are absent from the result.
func (sc *StatsCache) DailyStatsBatch(ctx context.Context, typeIDs []int64, regionID int64) ([]domain.ItemStats, error) {
	if len(typeIDs) == 0 {
		return nil, nil
	}

	pipe := sc.rdb.Pipeline()
	cmds := make([]*redis.SliceCmd, len(typeIDs))
	for i, typeID := range typeIDs {
		cmds[i] = pipe.HMGet(ctx, statsKey(typeID, regionID), statsFields...)
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("redis: daily stats region %d: %w", regionID, err)
	}

	out := make([]domain.ItemStats, 0, len(typeIDs))
	for i, cmd := range cmds {
		stats, ok := parseStats(typeIDs[i], cmd.Val())
		if !ok {
			continue
		}
		out = append(out, stats)
	}
	return out, nil
}

// parseStats converts one HMGET result row. A row where every field is
// nil means no aggregate exists for the type.
func parseStats(typeID int64, vals []any) (domain.ItemStats, bool) {
	if len(vals) != len(statsFields) {
		return domain.ItemStats{}, false
	}

	nums := make([]float64, len(vals))
	present := false
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			continue
		}
		nums[i] = f
		present = true
	}
	if !present {
		return domain.ItemStats{}, false
	}

	return domain.ItemStats{
		TypeID:         typeID,
		Spread:         nums[0],
		SpreadSMA:      nums[1],
		TradeVolume:    nums[2],
		VolumeSMA:      nums[3],
		BuyPercentile:  nums[4],
		SellPercentile: nums[5],
		Velocity:       nums[6],
	}, true
}

// SetDailyStats writes one aggregate row. Used by the aggregation
// collaborator and tests.
func (sc *StatsCache) SetDailyStats(ctx context.Context, regionID int64, stats domain.ItemStats) error {
	err := sc.rdb.HSet(ctx, statsKey(stats.TypeID, regionID), map[string]any{
		"spread":         stats.Spread,
		"spread_sma":     stats.SpreadSMA,
		"tradeVolume":    stats.TradeVolume,
		"volume_sma":     stats.VolumeSMA,
		"buyPercentile":  stats.BuyPercentile,
		"sellPercentile": stats.SellPercentile,
		"velocity":       stats.Velocity,
	}).Err()
	if err != nil {
		return fmt.Errorf("redis: set daily stats %d-%d: %w", stats.TypeID, regionID, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.StatsCache = (*StatsCache)(nil)
