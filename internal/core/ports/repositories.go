package ports

import (
	"context"
	"time"

	"custody-vault-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// LedgerRepository defines persistence operations for balances.
// Methods accepting pgx.Tx are used inside transaction blocks for pessimistic locking.
type LedgerRepository interface {
	// Get returns nil, nil when no entry exists (absent means zero).
	Get(ctx context.Context, accountID uuid.UUID, asset domain.AssetID) (*domain.Balance, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, asset domain.AssetID) (*domain.Balance, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Balance, error)
	Upsert(ctx context.Context, tx pgx.Tx, balance *domain.Balance) error
}

// RegistryRepository defines persistence operations for asset records.
// List is ordered by registration time; the enumerable registry variant is
// what enables the aggregate portfolio-value query.
type RegistryRepository interface {
	Get(ctx context.Context, asset domain.AssetID) (*domain.AssetRecord, error)
	List(ctx context.Context) ([]domain.AssetRecord, error)
	Create(ctx context.Context, record *domain.AssetRecord) error
	UpdateOracle(ctx context.Context, asset domain.AssetID, binding string, oracleDecimals int32) error
	Delete(ctx context.Context, asset domain.AssetID) error
}

// MovementRepository persists the auditable movement record stream.
type MovementRepository interface {
	Create(ctx context.Context, tx pgx.Tx, movement *domain.Movement) error
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.Movement, error)
}

// VaultStateRepository owns the single-row global vault state.
type VaultStateRepository interface {
	// EnsureInitialized creates the state row with the given staleness window
	// if it does not exist yet. Safe to call on every startup.
	EnsureInitialized(ctx context.Context, window time.Duration) error
	Get(ctx context.Context) (*domain.VaultState, error)
	SetPaused(ctx context.Context, paused bool) error
	SetStalenessWindow(ctx context.Context, window time.Duration) error
	IncrementDeposits(ctx context.Context, tx pgx.Tx) error
	IncrementWithdrawals(ctx context.Context, tx pgx.Tx) error
}

// AccountRepository defines persistence operations for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)
	Count(ctx context.Context) (int64, error)
}

// AuditRepository persists audit log entries.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
