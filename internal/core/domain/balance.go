package domain

import (
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

// Balance is one (account, asset) ledger entry. The amount is a non-negative
// integer in the asset's native smallest unit, stored AES-256 encrypted like
// every other monetary field. A zero balance is a valid steady state, not a
// deletion.
type Balance struct {
	AccountID       uuid.UUID `json:"account_id"`
	Asset           AssetID   `json:"asset"`
	EncryptedAmount string    `json:"-"` // never expose raw
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ParseAmount parses a decimal integer string into a non-negative big.Int.
// Rejects signs, fractions and any non-digit input.
func ParseAmount(s string) (*big.Int, error) {
	if s == "" {
		return nil, fmt.Errorf("empty amount")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return nil, fmt.Errorf("amount %q is not a non-negative integer", s)
		}
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("amount %q is not a valid integer", s)
	}
	return n, nil
}
