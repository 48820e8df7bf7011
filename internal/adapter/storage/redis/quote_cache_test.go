package redis

import (
	"context"
	"math/big"
	"testing"
	"time"

	"custody-vault-ledger/internal/core/domain"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteCache_SetAndGet(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewQuoteCache(client, 5*time.Second)
	ctx := context.Background()

	// Get before set => nil
	result, err := cache.Get(ctx, "ETHUSDT")
	assert.NoError(t, err)
	assert.Nil(t, result)

	asOf := time.Now().UTC().Truncate(time.Millisecond)
	quote := &domain.Quote{Price: big.NewInt(3000_00000000), Decimals: 8, AsOf: asOf}
	require.NoError(t, cache.Set(ctx, "ETHUSDT", quote))

	result, err = cache.Get(ctx, "ETHUSDT")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 0, result.Price.Cmp(quote.Price))
	assert.Equal(t, int32(8), result.Decimals)
	assert.True(t, result.AsOf.Equal(asOf), "AsOf must survive the round trip")
}

func TestQuoteCache_TTLExpiry(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewQuoteCache(client, time.Second)
	ctx := context.Background()

	quote := &domain.Quote{Price: big.NewInt(1), Decimals: 8, AsOf: time.Now().UTC()}
	require.NoError(t, cache.Set(ctx, "BTCUSDT", quote))

	// Fast-forward time in miniredis
	s.FastForward(2 * time.Second)

	result, err := cache.Get(ctx, "BTCUSDT")
	assert.NoError(t, err)
	assert.Nil(t, result, "expired entry should return nil")
}

func TestQuoteCache_BindingsAreIndependent(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewQuoteCache(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "ETHUSDT", &domain.Quote{Price: big.NewInt(3000), Decimals: 8, AsOf: time.Now()}))
	require.NoError(t, cache.Set(ctx, "BTCUSDT", &domain.Quote{Price: big.NewInt(60000), Decimals: 8, AsOf: time.Now()}))

	eth, err := cache.Get(ctx, "ETHUSDT")
	require.NoError(t, err)
	btc, err := cache.Get(ctx, "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 0, eth.Price.Cmp(big.NewInt(3000)))
	assert.Equal(t, 0, btc.Price.Cmp(big.NewInt(60000)))
}
