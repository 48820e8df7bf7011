package postgres

import (
	"context"
	"errors"
	"fmt"

	"custody-vault-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AccountRepo implements ports.AccountRepository. Capabilities are stored as
// a TEXT[] column.
type AccountRepo struct {
	pool Pool
}

// NewAccountRepo creates a new AccountRepo.
func NewAccountRepo(pool Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

// Create inserts a new account.
func (r *AccountRepo) Create(ctx context.Context, account *domain.Account) error {
	query := `INSERT INTO accounts (id, username, password_hash, capabilities, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		account.ID, account.Username, account.PasswordHash,
		capabilitiesToStrings(account.Capabilities), string(account.Status),
		account.CreatedAt, account.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetByID fetches an account by its UUID. Returns nil, nil when absent.
func (r *AccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `SELECT id, username, password_hash, capabilities, status, created_at, updated_at
		FROM accounts WHERE id = $1`
	return r.scanAccount(r.pool.QueryRow(ctx, query, id))
}

// GetByUsername fetches an account by username. Returns nil, nil when absent.
func (r *AccountRepo) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	query := `SELECT id, username, password_hash, capabilities, status, created_at, updated_at
		FROM accounts WHERE username = $1`
	return r.scanAccount(r.pool.QueryRow(ctx, query, username))
}

// Count returns the number of registered accounts.
func (r *AccountRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}
	return count, nil
}

func (r *AccountRepo) scanAccount(row pgx.Row) (*domain.Account, error) {
	a := &domain.Account{}
	var capabilities []string
	var status string
	err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &capabilities, &status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	a.Capabilities = stringsToCapabilities(capabilities)
	a.Status = domain.AccountStatus(status)
	return a, nil
}

func capabilitiesToStrings(caps []domain.Capability) []string {
	out := make([]string, len(caps))
	for i, c := range caps {
		out[i] = string(c)
	}
	return out
}

func stringsToCapabilities(values []string) []domain.Capability {
	if len(values) == 0 {
		return nil
	}
	out := make([]domain.Capability, len(values))
	for i, v := range values {
		out[i] = domain.Capability(v)
	}
	return out
}
