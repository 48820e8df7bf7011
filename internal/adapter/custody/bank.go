// Package custody provides an in-process custodian backed by in-memory
// account books. It stands in for a real settlement network in development
// and in integration tests.
package custody

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"custody-vault-ledger/internal/core/domain"

	"github.com/google/uuid"
)

type accountKey struct {
	account uuid.UUID
	asset   domain.AssetID
}

// Bank tracks external per-account holdings alongside the vault's own
// custody balance per asset. Pull moves funds from an account's external
// book into custody; Push pays custody back out.
type Bank struct {
	mu       sync.Mutex
	external map[accountKey]*big.Int
	custody  map[domain.AssetID]*big.Int
	decimals map[domain.AssetID]int32
	pullHook func(ctx context.Context) error
	pushHook func(ctx context.Context) error
}

func NewBank() *Bank {
	return &Bank{
		external: make(map[accountKey]*big.Int),
		custody:  make(map[domain.AssetID]*big.Int),
		decimals: make(map[domain.AssetID]int32),
	}
}

// RegisterAsset records the asset's native precision. Must be called before
// the asset can be pulled or pushed.
func (b *Bank) RegisterAsset(asset domain.AssetID, decimals int32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.decimals[asset] = decimals
}

// Seed credits an account's external book, making funds available to Pull.
func (b *Bank) Seed(accountID uuid.UUID, asset domain.AssetID, amount *big.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := accountKey{account: accountID, asset: asset}
	cur, ok := b.external[key]
	if !ok {
		cur = new(big.Int)
		b.external[key] = cur
	}
	cur.Add(cur, amount)
}

// SetPullHook installs a callback invoked during Pull before funds move.
// Used in tests to simulate a counterparty running code mid-transfer.
func (b *Bank) SetPullHook(hook func(ctx context.Context) error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pullHook = hook
}

// SetPushHook installs a callback invoked during Push before funds move.
func (b *Bank) SetPushHook(hook func(ctx context.Context) error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pushHook = hook
}

func (b *Bank) Pull(ctx context.Context, accountID uuid.UUID, asset domain.AssetID, amount *big.Int) error {
	b.mu.Lock()
	hook := b.pullHook
	b.mu.Unlock()
	if hook != nil {
		if err := hook(ctx); err != nil {
			return err
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	key := accountKey{account: accountID, asset: asset}
	held, ok := b.external[key]
	if !ok || held.Cmp(amount) < 0 {
		return fmt.Errorf("account %s holds insufficient external %s", accountID, asset)
	}
	held.Sub(held, amount)
	b.creditCustody(asset, amount)
	return nil
}

func (b *Bank) Push(ctx context.Context, accountID uuid.UUID, asset domain.AssetID, amount *big.Int) error {
	b.mu.Lock()
	hook := b.pushHook
	b.mu.Unlock()
	if hook != nil {
		if err := hook(ctx); err != nil {
			return err
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	held, ok := b.custody[asset]
	if !ok || held.Cmp(amount) < 0 {
		return fmt.Errorf("vault custody holds insufficient %s", asset)
	}
	held.Sub(held, amount)

	key := accountKey{account: accountID, asset: asset}
	ext, ok := b.external[key]
	if !ok {
		ext = new(big.Int)
		b.external[key] = ext
	}
	ext.Add(ext, amount)
	return nil
}

func (b *Bank) Holdings(ctx context.Context, asset domain.AssetID) (*big.Int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	held, ok := b.custody[asset]
	if !ok {
		return new(big.Int), nil
	}
	return new(big.Int).Set(held), nil
}

func (b *Bank) AssetDecimals(ctx context.Context, asset domain.AssetID) (int32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	decimals, ok := b.decimals[asset]
	if !ok {
		return 0, fmt.Errorf("asset %s not registered with custodian", asset)
	}
	return decimals, nil
}

// ExternalBalance reads an account's external book. Test helper.
func (b *Bank) ExternalBalance(accountID uuid.UUID, asset domain.AssetID) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	held, ok := b.external[accountKey{account: accountID, asset: asset}]
	if !ok {
		return new(big.Int)
	}
	return new(big.Int).Set(held)
}

func (b *Bank) creditCustody(asset domain.AssetID, amount *big.Int) {
	cur, ok := b.custody[asset]
	if !ok {
		cur = new(big.Int)
		b.custody[asset] = cur
	}
	cur.Add(cur, amount)
}
