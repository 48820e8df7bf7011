package domain

import (
	"math/big"
	"time"

	"github.com/google/uuid"
)

// MovementType represents the direction of a fund movement.
type MovementType string

const (
	MovementDeposit    MovementType = "DEPOSIT"
	MovementWithdrawal MovementType = "WITHDRAWAL"
)

// Movement is the immutable record emitted for every successful deposit or
// withdrawal. Amount is in asset-native units; Value is the unit-of-account
// valuation (6 decimals) computed at execution time. The record stream is
// sufficient for an external auditor to reconstruct every balance.
type Movement struct {
	ID        uuid.UUID    `json:"id"`
	AccountID uuid.UUID    `json:"account_id"`
	Asset     AssetID      `json:"asset"`
	Type      MovementType `json:"type"`
	Amount    *big.Int     `json:"amount"`
	Value     *big.Int     `json:"value"`
	CreatedAt time.Time    `json:"created_at"`
}
