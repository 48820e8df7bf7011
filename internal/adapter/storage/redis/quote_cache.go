package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"custody-vault-ledger/internal/core/domain"

	goredis "github.com/redis/go-redis/v9"
)

// QuoteCache implements ports.QuoteCache using Redis. Cached entries keep
// their original AsOf timestamp, so a hit is never mistaken for a fresh
// observation: the staleness gate still runs against the real quote age.
type QuoteCache struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
}

// NewQuoteCache creates a new Redis-backed quote cache.
func NewQuoteCache(client *goredis.Client, ttl time.Duration) *QuoteCache {
	return &QuoteCache{
		client: client,
		prefix: "quote:",
		ttl:    ttl,
	}
}

type cachedQuote struct {
	Price    string `json:"price"`
	Decimals int32  `json:"decimals"`
	AsOf     int64  `json:"as_of"` // Unix milliseconds
}

// Get retrieves a cached quote by oracle binding.
// Returns nil, nil if the entry does not exist.
func (c *QuoteCache) Get(ctx context.Context, binding string) (*domain.Quote, error) {
	val, err := c.client.Get(ctx, c.prefix+binding).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis quote get: %w", err)
	}

	var entry cachedQuote
	if err := json.Unmarshal(val, &entry); err != nil {
		return nil, fmt.Errorf("decode cached quote: %w", err)
	}
	price, ok := new(big.Int).SetString(entry.Price, 10)
	if !ok {
		return nil, fmt.Errorf("decode cached quote: bad price %q", entry.Price)
	}

	return &domain.Quote{
		Price:    price,
		Decimals: entry.Decimals,
		AsOf:     time.UnixMilli(entry.AsOf).UTC(),
	}, nil
}

// Set stores a quote with the configured TTL.
func (c *QuoteCache) Set(ctx context.Context, binding string, quote *domain.Quote) error {
	payload, err := json.Marshal(cachedQuote{
		Price:    quote.Price.String(),
		Decimals: quote.Decimals,
		AsOf:     quote.AsOf.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("encode quote: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+binding, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis quote set: %w", err)
	}
	return nil
}
