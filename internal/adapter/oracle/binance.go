// Package oracle provides ports.PriceOracle implementations: a live Binance
// market-data source, a static config-driven source for development, and a
// caching decorator.
package oracle

import (
	"context"
	"fmt"
	"time"

	"custody-vault-ledger/internal/core/domain"

	"github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"
)

// Prices are normalized to 8 fractional digits regardless of how many the
// exchange reports for a given symbol.
const binanceDecimals = 8

// BinanceOracle implements ports.PriceOracle against Binance spot market
// data. An oracle binding is a Binance ticker symbol, e.g. "ETHUSDT".
type BinanceOracle struct {
	client *binance.Client
}

// NewBinanceOracle creates a Binance-backed price oracle. Market data
// endpoints work with empty credentials.
func NewBinanceOracle(apiKey, secretKey string) *BinanceOracle {
	return &BinanceOracle{client: binance.NewClient(apiKey, secretKey)}
}

// Quote fetches the 24h ticker for the binding and returns its last trade
// price. AsOf is the exchange's own close time, not the local clock, so the
// staleness gate measures real market-data age.
func (o *BinanceOracle) Quote(ctx context.Context, binding string) (*domain.Quote, error) {
	stats, err := o.client.NewListPriceChangeStatsService().Symbol(binding).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance ticker %s: %w", binding, err)
	}
	if len(stats) == 0 {
		return nil, fmt.Errorf("binance ticker %s: no data", binding)
	}

	last, err := decimal.NewFromString(stats[0].LastPrice)
	if err != nil {
		return nil, fmt.Errorf("binance ticker %s: parse price %q: %w", binding, stats[0].LastPrice, err)
	}

	return &domain.Quote{
		Price:    last.Shift(binanceDecimals).Truncate(0).BigInt(),
		Decimals: binanceDecimals,
		AsOf:     time.UnixMilli(stats[0].CloseTime).UTC(),
	}, nil
}
