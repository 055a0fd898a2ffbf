package pricing

import "errors"

var ErrNegativeInput = errors.New("pricing: negative count or price")

// Quote is the priced breakdown of a party before any discount.
type Quote struct {
	Base  float64 `json:"base"`
	Tax   float64 `json:"tax"`
	Total float64 `json:"total"`
}

// Calculate prices a party from per-category unit prices plus an optional
// flat tax rate (0 means no tax). Deterministic, no rounding beyond the
// currency's natural float precision; display formatting is not our problem.
func Calculate(adults, children, infants int, priceAdult, priceChild, priceInfant, taxRate float64) (Quote, error) {
	if adults < 0 || children < 0 || infants < 0 {
		return Quote{}, ErrNegativeInput
	}
	if priceAdult < 0 || priceChild < 0 || priceInfant < 0 || taxRate < 0 {
		return Quote{}, ErrNegativeInput
	}

	base := float64(adults)*priceAdult + float64(children)*priceChild + float64(infants)*priceInfant
	tax := base * taxRate

	return Quote{
		Base:  base,
		Tax:   tax,
		Total: base + tax,
	}, nil
}
