package postgres

import (
	"context"
	"fmt"
	"time"

	"custody-vault-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// VaultStateRepo implements ports.VaultStateRepository over the single-row
// vault_state table. The fixed id=1 predicate keeps it single-row; the
// staleness window is stored in whole seconds.
type VaultStateRepo struct {
	pool Pool
}

// NewVaultStateRepo creates a new VaultStateRepo.
func NewVaultStateRepo(pool Pool) *VaultStateRepo {
	return &VaultStateRepo{pool: pool}
}

// EnsureInitialized creates the state row on first startup. Later startups
// leave the existing row, and the window it carries, untouched.
func (r *VaultStateRepo) EnsureInitialized(ctx context.Context, window time.Duration) error {
	query := `INSERT INTO vault_state (id, paused, staleness_window_seconds, deposit_count, withdraw_count, updated_at)
		VALUES (1, FALSE, $1, 0, 0, NOW())
		ON CONFLICT (id) DO NOTHING`

	_, err := r.pool.Exec(ctx, query, int64(window.Seconds()))
	if err != nil {
		return fmt.Errorf("initialize vault state: %w", err)
	}
	return nil
}

// Get fetches the global vault state.
func (r *VaultStateRepo) Get(ctx context.Context) (*domain.VaultState, error) {
	query := `SELECT paused, staleness_window_seconds, deposit_count, withdraw_count, updated_at
		FROM vault_state WHERE id = 1`

	state := &domain.VaultState{}
	var windowSeconds int64
	err := r.pool.QueryRow(ctx, query).Scan(
		&state.Paused, &windowSeconds, &state.DepositCount, &state.WithdrawCount, &state.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("get vault state: %w", err)
	}
	state.StalenessWindow = time.Duration(windowSeconds) * time.Second
	return state, nil
}

// SetPaused flips the pause flag.
func (r *VaultStateRepo) SetPaused(ctx context.Context, paused bool) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE vault_state SET paused = $1, updated_at = NOW() WHERE id = 1`, paused)
	if err != nil {
		return fmt.Errorf("set paused: %w", err)
	}
	return nil
}

// SetStalenessWindow updates the maximum tolerated quote age.
func (r *VaultStateRepo) SetStalenessWindow(ctx context.Context, window time.Duration) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE vault_state SET staleness_window_seconds = $1, updated_at = NOW() WHERE id = 1`,
		int64(window.Seconds()))
	if err != nil {
		return fmt.Errorf("set staleness window: %w", err)
	}
	return nil
}

// IncrementDeposits bumps the deposit counter inside the movement transaction.
func (r *VaultStateRepo) IncrementDeposits(ctx context.Context, tx pgx.Tx) error {
	_, err := tx.Exec(ctx,
		`UPDATE vault_state SET deposit_count = deposit_count + 1, updated_at = NOW() WHERE id = 1`)
	if err != nil {
		return fmt.Errorf("increment deposits: %w", err)
	}
	return nil
}

// IncrementWithdrawals bumps the withdrawal counter inside the movement transaction.
func (r *VaultStateRepo) IncrementWithdrawals(ctx context.Context, tx pgx.Tx) error {
	_, err := tx.Exec(ctx,
		`UPDATE vault_state SET withdraw_count = withdraw_count + 1, updated_at = NOW() WHERE id = 1`)
	if err != nil {
		return fmt.Errorf("increment withdrawals: %w", err)
	}
	return nil
}
