package domain

import (
	"math/big"
	"time"
)

// UnitDecimals is the fixed fractional precision of the unit of account all
// asset values are normalized into for limit comparison.
const UnitDecimals = 6

// Quote is a single oracle price observation: an integer price scaled by
// Decimals, and the timestamp the oracle last updated it. Freshness is judged
// by the caller on every use, never cached alongside the quote.
type Quote struct {
	Price    *big.Int  `json:"price"`
	Decimals int32     `json:"decimals"`
	AsOf     time.Time `json:"as_of"`
}

// Age returns how old the quote is relative to now.
func (q *Quote) Age(now time.Time) time.Duration {
	return now.Sub(q.AsOf)
}
