package domain

import "time"

// PortfolioKind distinguishes hand-picked trading baskets from
// blueprint-derived industry portfolios.
type PortfolioKind int

const (
	PortfolioTrading  PortfolioKind = 0
	PortfolioIndustry PortfolioKind = 1
)

// Component is one tracked item line inside a portfolio.
type Component struct {
	TypeID   int64   `json:"typeID"`
	Quantity float64 `json:"quantity"`
}

// Portfolio is a user-defined basket of item types. Industry portfolios
// store the blueprint-expanded component list (material efficiency already
// applied) alongside the manufactured item metadata.
type Portfolio struct {
	PortfolioID          int64         `json:"portfolioID"`
	UserID               int64         `json:"-"`
	Name                 string        `json:"name"`
	Description          string        `json:"description"`
	Kind                 PortfolioKind `json:"type"`
	Efficiency           int64         `json:"efficiency"`
	Components           []Component   `json:"components"`
	IndustryTypeID       int64         `json:"industryTypeID"`
	IndustryQuantity     int64         `json:"industryQuantity"`
	ManufacturedQuantity float64       `json:"manufacturedQuantity"`
	CreatedAt            time.Time     `json:"time"`
}
