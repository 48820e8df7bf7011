package postgres

import (
	"context"
	"errors"
	"fmt"

	"custody-vault-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// RegistryRepo implements ports.RegistryRepository.
type RegistryRepo struct {
	pool Pool
}

// NewRegistryRepo creates a new RegistryRepo.
func NewRegistryRepo(pool Pool) *RegistryRepo {
	return &RegistryRepo{pool: pool}
}

// Get fetches an asset record. Returns nil, nil when the asset is not supported.
func (r *RegistryRepo) Get(ctx context.Context, asset domain.AssetID) (*domain.AssetRecord, error) {
	query := `SELECT asset, oracle_binding, asset_decimals, oracle_decimals, created_at, updated_at
		FROM asset_registry WHERE asset = $1`

	rec := &domain.AssetRecord{}
	err := r.pool.QueryRow(ctx, query, asset).Scan(
		&rec.Asset, &rec.OracleBinding, &rec.AssetDecimals, &rec.OracleDecimals,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get asset record: %w", err)
	}
	return rec, nil
}

// List returns every supported asset in registration order.
func (r *RegistryRepo) List(ctx context.Context) ([]domain.AssetRecord, error) {
	query := `SELECT asset, oracle_binding, asset_decimals, oracle_decimals, created_at, updated_at
		FROM asset_registry ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list asset records: %w", err)
	}
	defer rows.Close()

	var records []domain.AssetRecord
	for rows.Next() {
		var rec domain.AssetRecord
		if err := rows.Scan(&rec.Asset, &rec.OracleBinding, &rec.AssetDecimals,
			&rec.OracleDecimals, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan asset record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate asset records: %w", err)
	}
	return records, nil
}

// Create inserts a new asset record.
func (r *RegistryRepo) Create(ctx context.Context, record *domain.AssetRecord) error {
	query := `INSERT INTO asset_registry (asset, oracle_binding, asset_decimals, oracle_decimals, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		record.Asset, record.OracleBinding, record.AssetDecimals,
		record.OracleDecimals, record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert asset record: %w", err)
	}
	return nil
}

// UpdateOracle replaces an asset's oracle binding and its decimals together.
func (r *RegistryRepo) UpdateOracle(ctx context.Context, asset domain.AssetID, binding string, oracleDecimals int32) error {
	query := `UPDATE asset_registry SET oracle_binding = $1, oracle_decimals = $2, updated_at = NOW()
		WHERE asset = $3`

	tag, err := r.pool.Exec(ctx, query, binding, oracleDecimals, asset)
	if err != nil {
		return fmt.Errorf("update oracle binding: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("asset not found: %s", asset)
	}
	return nil
}

// Delete removes an asset record.
func (r *RegistryRepo) Delete(ctx context.Context, asset domain.AssetID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM asset_registry WHERE asset = $1`, asset)
	if err != nil {
		return fmt.Errorf("delete asset record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("asset not found: %s", asset)
	}
	return nil
}
