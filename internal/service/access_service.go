package service

import (
	"context"
	"fmt"

	"custody-vault-ledger/internal/core/domain"
	"custody-vault-ledger/internal/core/ports"

	"github.com/google/uuid"
)

// CapabilityGate implements ports.AccessGate against the account store.
// Suspended accounts hold no capabilities regardless of their grants.
type CapabilityGate struct {
	accountRepo ports.AccountRepository
}

// NewCapabilityGate creates a new CapabilityGate.
func NewCapabilityGate(accountRepo ports.AccountRepository) *CapabilityGate {
	return &CapabilityGate{accountRepo: accountRepo}
}

// HasCapability reports whether the account exists, is active, and holds the
// given capability.
func (g *CapabilityGate) HasCapability(ctx context.Context, accountID uuid.UUID, capability domain.Capability) (bool, error) {
	account, err := g.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return false, fmt.Errorf("load account: %w", err)
	}
	if account == nil || !account.IsActive() {
		return false, nil
	}
	return account.HasCapability(capability), nil
}
