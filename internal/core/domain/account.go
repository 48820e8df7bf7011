package domain

import (
	"time"

	"github.com/google/uuid"
)

// Capability names an administrative permission an account may hold. The
// access gate only ever asks "does this account hold capability X"; there is
// no inheritance between capabilities.
type Capability string

const (
	// CapAssetAdmin gates asset registry mutations (add, remove, rebind oracle).
	CapAssetAdmin Capability = "asset_admin"
	// CapVaultAdmin gates pause/unpause and the staleness window.
	CapVaultAdmin Capability = "vault_admin"
)

// AccountStatus represents the state of an account.
type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "ACTIVE"
	AccountStatusSuspended AccountStatus = "SUSPENDED"
)

// Account is an authenticated caller of the vault.
type Account struct {
	ID           uuid.UUID     `json:"id"`
	Username     string        `json:"username"`
	PasswordHash string        `json:"-"` // Never expose
	Capabilities []Capability  `json:"capabilities"`
	Status       AccountStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// IsActive returns true if the account may authenticate and transact.
func (a *Account) IsActive() bool {
	return a.Status == AccountStatusActive
}

// HasCapability reports whether the account holds the given capability.
func (a *Account) HasCapability(c Capability) bool {
	for _, held := range a.Capabilities {
		if held == c {
			return true
		}
	}
	return false
}
