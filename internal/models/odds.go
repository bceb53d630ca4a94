package models

import (
	"github.com/shopspring/decimal"
)

// Probabilities are clamped to this range before converting to odds.
const (
	minOddsProbability = 0.01
	maxOddsProbability = 0.99
)

// FairMoneyline converts a win probability into vig-free American odds,
// rounded to the nearest whole number. Favourites are negative.
func FairMoneyline(p float64) decimal.Decimal {
	p = min(max(p, minOddsProbability), maxOddsProbability)
	prob := decimal.NewFromFloat(p)
	one := decimal.NewFromInt(1)
	hundred := decimal.NewFromInt(100)

	if p >= 0.5 {
		// -100 * p / (1 - p)
		return hundred.Mul(prob).Div(one.Sub(prob)).Neg().Round(0)
	}
	// 100 * (1 - p) / p
	return hundred.Mul(one.Sub(prob)).Div(prob).Round(0)
}
