package oracle

import (
	"context"
	"fmt"
	"time"

	"custody-vault-ledger/internal/core/domain"

	"github.com/shopspring/decimal"
)

const staticDecimals = 8

// StaticOracle implements ports.PriceOracle from a fixed binding-to-price
// table. Meant for development and tests; quotes are always current.
type StaticOracle struct {
	prices map[string]*domain.Quote
}

// NewStaticOracle builds a static oracle from decimal price strings keyed by
// binding, e.g. {"ETHUSDT": "3000.50"}.
func NewStaticOracle(prices map[string]string) (*StaticOracle, error) {
	quotes := make(map[string]*domain.Quote, len(prices))
	for binding, price := range prices {
		d, err := decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("static price %s=%q: %w", binding, price, err)
		}
		quotes[binding] = &domain.Quote{
			Price:    d.Shift(staticDecimals).Truncate(0).BigInt(),
			Decimals: staticDecimals,
		}
	}
	return &StaticOracle{prices: quotes}, nil
}

// Quote returns the configured price with AsOf set to now.
func (o *StaticOracle) Quote(_ context.Context, binding string) (*domain.Quote, error) {
	quote, ok := o.prices[binding]
	if !ok {
		return nil, fmt.Errorf("no static price for binding %s", binding)
	}
	return &domain.Quote{
		Price:    quote.Price,
		Decimals: quote.Decimals,
		AsOf:     time.Now().UTC(),
	}, nil
}
