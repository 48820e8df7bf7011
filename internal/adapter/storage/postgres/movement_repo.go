package postgres

import (
	"context"
	"fmt"

	"custody-vault-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// MovementRepo implements ports.MovementRepository. Amounts are stored as
// decimal strings: they are auditable records, never arithmetic inputs.
type MovementRepo struct {
	pool Pool
}

// NewMovementRepo creates a new MovementRepo.
func NewMovementRepo(pool Pool) *MovementRepo {
	return &MovementRepo{pool: pool}
}

// Create inserts a movement record within a transaction.
func (r *MovementRepo) Create(ctx context.Context, tx pgx.Tx, movement *domain.Movement) error {
	query := `INSERT INTO movements (id, account_id, asset, type, amount, value, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := tx.Exec(ctx, query,
		movement.ID, movement.AccountID, movement.Asset, string(movement.Type),
		movement.Amount.String(), movement.Value.String(), movement.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

// ListByAccount fetches an account's movements, newest first.
func (r *MovementRepo) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.Movement, error) {
	query := `SELECT id, account_id, asset, type, amount, value, created_at
		FROM movements WHERE account_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	var movements []domain.Movement
	for rows.Next() {
		var m domain.Movement
		var movementType, amount, value string
		if err := rows.Scan(&m.ID, &m.AccountID, &m.Asset, &movementType,
			&amount, &value, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		m.Type = domain.MovementType(movementType)
		if m.Amount, err = domain.ParseAmount(amount); err != nil {
			return nil, fmt.Errorf("parse movement amount: %w", err)
		}
		if m.Value, err = domain.ParseAmount(value); err != nil {
			return nil, fmt.Errorf("parse movement value: %w", err)
		}
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate movements: %w", err)
	}
	return movements, nil
}
