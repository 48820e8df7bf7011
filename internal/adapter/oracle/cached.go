package oracle

import (
	"context"

	"custody-vault-ledger/internal/core/domain"
	"custody-vault-ledger/internal/core/ports"

	"github.com/rs/zerolog"
)

// CachedOracle decorates a PriceOracle with a short-lived quote cache. The
// cache bounds upstream request volume; it never extends a quote's life past
// the staleness window because the cached AsOf is the original one.
type CachedOracle struct {
	upstream ports.PriceOracle
	cache    ports.QuoteCache
	log      zerolog.Logger
}

// NewCachedOracle wraps upstream with cache.
func NewCachedOracle(upstream ports.PriceOracle, cache ports.QuoteCache, log zerolog.Logger) *CachedOracle {
	return &CachedOracle{upstream: upstream, cache: cache, log: log}
}

// Quote serves from cache when possible. Cache errors degrade to an upstream
// fetch rather than failing the valuation.
func (o *CachedOracle) Quote(ctx context.Context, binding string) (*domain.Quote, error) {
	cached, err := o.cache.Get(ctx, binding)
	if err != nil {
		o.log.Warn().Err(err).Str("binding", binding).Msg("quote cache read failed")
	} else if cached != nil {
		return cached, nil
	}

	quote, err := o.upstream.Quote(ctx, binding)
	if err != nil {
		return nil, err
	}

	if err := o.cache.Set(ctx, binding, quote); err != nil {
		o.log.Warn().Err(err).Str("binding", binding).Msg("quote cache write failed")
	}
	return quote, nil
}
