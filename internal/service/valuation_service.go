package service

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"custody-vault-ledger/internal/core/domain"
	"custody-vault-ledger/internal/core/ports"
	"custody-vault-ledger/pkg/apperror"

	"github.com/shopspring/decimal"
)

// ValuationServiceImpl implements ports.Valuator. It is the only component
// that touches oracle output, and it re-runs the positivity and staleness
// gates on every call: a quote that passed a moment ago may be rejected now.
type ValuationServiceImpl struct {
	oracle ports.PriceOracle
	state  ports.VaultStateRepository
}

// NewValuationService creates a new ValuationServiceImpl.
func NewValuationService(oracle ports.PriceOracle, state ports.VaultStateRepository) *ValuationServiceImpl {
	return &ValuationServiceImpl{oracle: oracle, state: state}
}

// FreshQuote fetches the current quote for a binding and applies the
// positivity and staleness checks against the current staleness window.
func (s *ValuationServiceImpl) FreshQuote(ctx context.Context, binding string) (*domain.Quote, error) {
	quote, err := s.oracle.Quote(ctx, binding)
	if err != nil {
		return nil, apperror.ErrOracleInvalid(fmt.Errorf("quote %s: %w", binding, err))
	}
	if quote.Price == nil || quote.Price.Sign() <= 0 {
		return nil, apperror.ErrOracleInvalid(fmt.Errorf("quote %s: non-positive price", binding))
	}

	state, err := s.state.Get(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load vault state: %w", err))
	}

	if age := quote.Age(time.Now().UTC()); age > state.StalenessWindow {
		return nil, apperror.ErrOracleStale(age, state.StalenessWindow)
	}

	return quote, nil
}

// Value converts an asset amount into the unit of account at the current
// price. Truncation is deliberate: the result always rounds in the vault's
// favor.
func (s *ValuationServiceImpl) Value(ctx context.Context, record *domain.AssetRecord, amount *big.Int) (*big.Int, error) {
	quote, err := s.FreshQuote(ctx, record.OracleBinding)
	if err != nil {
		return nil, err
	}
	return UnitValue(amount, quote.Price, record.AssetDecimals, quote.Decimals), nil
}

// UnitValue computes floor(amount * price * 10^UnitDecimals / 10^assetDecimals
// / 10^priceDecimals) with exact big-number arithmetic, so the intermediate
// product cannot overflow and multiplication happens before division.
func UnitValue(amount, price *big.Int, assetDecimals, priceDecimals int32) *big.Int {
	v := decimal.NewFromBigInt(amount, -assetDecimals).
		Mul(decimal.NewFromBigInt(price, -priceDecimals)).
		Shift(domain.UnitDecimals).
		Floor()
	return v.BigInt()
}
