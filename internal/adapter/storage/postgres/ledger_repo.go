package postgres

import (
	"context"
	"errors"
	"fmt"

	"custody-vault-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// LedgerRepo implements ports.LedgerRepository. A balance row exists only
// after the first deposit; absence reads as zero at the service layer.
type LedgerRepo struct {
	pool Pool
}

// NewLedgerRepo creates a new LedgerRepo.
func NewLedgerRepo(pool Pool) *LedgerRepo {
	return &LedgerRepo{pool: pool}
}

// Get fetches a balance without locking. Returns nil, nil when absent.
func (r *LedgerRepo) Get(ctx context.Context, accountID uuid.UUID, asset domain.AssetID) (*domain.Balance, error) {
	query := `SELECT account_id, asset, encrypted_amount, created_at, updated_at
		FROM balances WHERE account_id = $1 AND asset = $2`

	b := &domain.Balance{}
	err := r.pool.QueryRow(ctx, query, accountID, asset).Scan(
		&b.AccountID, &b.Asset, &b.EncryptedAmount, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get balance: %w", err)
	}
	return b, nil
}

// GetForUpdate fetches a balance with pessimistic locking.
// This MUST be called within a transaction.
func (r *LedgerRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, asset domain.AssetID) (*domain.Balance, error) {
	query := `SELECT account_id, asset, encrypted_amount, created_at, updated_at
		FROM balances WHERE account_id = $1 AND asset = $2 FOR UPDATE`

	b := &domain.Balance{}
	err := tx.QueryRow(ctx, query, accountID, asset).Scan(
		&b.AccountID, &b.Asset, &b.EncryptedAmount, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get balance for update: %w", err)
	}
	return b, nil
}

// ListByAccount fetches every balance row an account holds.
func (r *LedgerRepo) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Balance, error) {
	query := `SELECT account_id, asset, encrypted_amount, created_at, updated_at
		FROM balances WHERE account_id = $1 ORDER BY asset`

	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("list balances: %w", err)
	}
	defer rows.Close()

	var balances []domain.Balance
	for rows.Next() {
		var b domain.Balance
		if err := rows.Scan(&b.AccountID, &b.Asset, &b.EncryptedAmount, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		balances = append(balances, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate balances: %w", err)
	}
	return balances, nil
}

// Upsert writes a balance within a transaction, inserting on first deposit.
func (r *LedgerRepo) Upsert(ctx context.Context, tx pgx.Tx, balance *domain.Balance) error {
	query := `INSERT INTO balances (account_id, asset, encrypted_amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (account_id, asset)
		DO UPDATE SET encrypted_amount = EXCLUDED.encrypted_amount, updated_at = EXCLUDED.updated_at`

	_, err := tx.Exec(ctx, query,
		balance.AccountID, balance.Asset, balance.EncryptedAmount,
		balance.CreatedAt, balance.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert balance: %w", err)
	}
	return nil
}
