package engine

import (
	"github.com/eveexchange/backend/internal/domain"
)

// EstimateAcquisition prices out a basket of requirements against one
// region's sell orders, consuming the cheapest supply first. Every
// requested type gets exactly one result, even when no orders exist for
// it; unmet demand is reported as a deficit rather than an error.
func EstimateAcquisition(asks domain.OrderBook, reqs []domain.Requirement) domain.AcquisitionReport {
	report := domain.AcquisitionReport{
		Components: make(map[int64]domain.AcquisitionResult, len(reqs)),
	}

	for _, req := range reqs {
		q := NewAskQueue(asks[req.TypeID])

		result := domain.AcquisitionResult{
			Wanted: req.Quantity,
			// Total visible liquidity, whether or not it gets consumed.
			Available: q.TotalVolume(),
		}

		required := req.Quantity
		for required > 0 && !q.Exhausted() {
			take := q.HeadRemaining()
			if take > required {
				take = required
			}
			result.Price += take * q.HeadPrice()
			q.Take(take)
			required -= take
		}
		result.Deficit = required

		report.Components[req.TypeID] = result
		report.TotalCost += result.Price
	}

	return report
}
