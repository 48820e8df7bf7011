package domain

import "time"

// VaultState is the single row of global mutable ledger state: the pause
// flag, the oracle staleness window, and the audit counters. The withdraw
// limit does not live here; it is fixed at initialization and comes from
// configuration.
type VaultState struct {
	Paused          bool          `json:"paused"`
	StalenessWindow time.Duration `json:"staleness_window"`
	DepositCount    int64         `json:"deposit_count"`
	WithdrawCount   int64         `json:"withdraw_count"`
	UpdatedAt       time.Time     `json:"updated_at"`
}
