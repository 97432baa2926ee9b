package domain

// Requirement is one line of a multibuy basket: how many units of a type
// the caller needs. Requirements keep caller order so the report can be
// assembled deterministically.
type Requirement struct {
	TypeID   int64
	Quantity float64
}

// AcquisitionResult prices one requested item type against available
// supply. Available totals every visible unit, consumed or not.
type AcquisitionResult struct {
	Price     float64 `json:"price"`
	Wanted    float64 `json:"wanted"`
	Available float64 `json:"available"`
	Deficit   float64 `json:"deficit"`
}

// AcquisitionReport is the full multibuy outcome: exactly one result per
// requested type plus the grand total cost.
type AcquisitionReport struct {
	Components map[int64]AcquisitionResult `json:"components"`
	TotalCost  float64                     `json:"totalCost"`
}
