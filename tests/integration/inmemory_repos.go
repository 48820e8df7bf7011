package integration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"custody-vault-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// memTx is an in-memory transaction: writes are staged and applied only on
// Commit, so rollback-on-failure paths behave like the real database.
type memTx struct {
	pgx.Tx
	mu     sync.Mutex
	staged []func()
	done   bool
}

func (t *memTx) stage(apply func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.staged = append(t.staged, apply)
}

func (t *memTx) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return pgx.ErrTxClosed
	}
	for _, apply := range t.staged {
		apply()
	}
	t.done = true
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return pgx.ErrTxClosed
	}
	t.staged = nil
	t.done = true
	return nil
}

type inMemoryTransactor struct{}

func (inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &memTx{}, nil
}

func asMemTx(tx pgx.Tx) *memTx {
	mt, ok := tx.(*memTx)
	if !ok {
		panic("integration repos require memTx transactions")
	}
	return mt
}

// --- Ledger ---

type balanceKey struct {
	account uuid.UUID
	asset   domain.AssetID
}

type inMemoryLedgerRepo struct {
	mu       sync.RWMutex
	balances map[balanceKey]*domain.Balance
}

func newInMemoryLedgerRepo() *inMemoryLedgerRepo {
	return &inMemoryLedgerRepo{balances: make(map[balanceKey]*domain.Balance)}
}

func (r *inMemoryLedgerRepo) Get(ctx context.Context, accountID uuid.UUID, asset domain.AssetID) (*domain.Balance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.balances[balanceKey{account: accountID, asset: asset}]
	if !ok {
		return nil, nil
	}
	copied := *b
	return &copied, nil
}

func (r *inMemoryLedgerRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, asset domain.AssetID) (*domain.Balance, error) {
	return r.Get(ctx, accountID, asset)
}

func (r *inMemoryLedgerRepo) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Balance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Balance
	for key, b := range r.balances {
		if key.account == accountID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *inMemoryLedgerRepo) Upsert(ctx context.Context, tx pgx.Tx, balance *domain.Balance) error {
	copied := *balance
	asMemTx(tx).stage(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.balances[balanceKey{account: copied.AccountID, asset: copied.Asset}] = &copied
	})
	return nil
}

// --- Registry ---

type inMemoryRegistryRepo struct {
	mu      sync.RWMutex
	records map[domain.AssetID]*domain.AssetRecord
	order   []domain.AssetID
}

func newInMemoryRegistryRepo() *inMemoryRegistryRepo {
	return &inMemoryRegistryRepo{records: make(map[domain.AssetID]*domain.AssetRecord)}
}

func (r *inMemoryRegistryRepo) Get(ctx context.Context, asset domain.AssetID) (*domain.AssetRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[asset]
	if !ok {
		return nil, nil
	}
	copied := *rec
	return &copied, nil
}

func (r *inMemoryRegistryRepo) List(ctx context.Context) ([]domain.AssetRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.AssetRecord, 0, len(r.order))
	for _, asset := range r.order {
		out = append(out, *r.records[asset])
	}
	return out, nil
}

func (r *inMemoryRegistryRepo) Create(ctx context.Context, record *domain.AssetRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[record.Asset]; exists {
		return fmt.Errorf("asset %s already registered", record.Asset)
	}
	copied := *record
	r.records[record.Asset] = &copied
	r.order = append(r.order, record.Asset)
	return nil
}

func (r *inMemoryRegistryRepo) UpdateOracle(ctx context.Context, asset domain.AssetID, binding string, oracleDecimals int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[asset]
	if !ok {
		return fmt.Errorf("asset %s not found", asset)
	}
	rec.OracleBinding = binding
	rec.OracleDecimals = oracleDecimals
	rec.UpdatedAt = time.Now()
	return nil
}

func (r *inMemoryRegistryRepo) Delete(ctx context.Context, asset domain.AssetID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[asset]; !ok {
		return fmt.Errorf("asset %s not found", asset)
	}
	delete(r.records, asset)
	for i, a := range r.order {
		if a == asset {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// --- Movements ---

type inMemoryMovementRepo struct {
	mu        sync.RWMutex
	movements []domain.Movement
}

func newInMemoryMovementRepo() *inMemoryMovementRepo {
	return &inMemoryMovementRepo{}
}

func (r *inMemoryMovementRepo) Create(ctx context.Context, tx pgx.Tx, movement *domain.Movement) error {
	copied := *movement
	asMemTx(tx).stage(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.movements = append(r.movements, copied)
	})
	return nil
}

func (r *inMemoryMovementRepo) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.Movement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var mine []domain.Movement
	for i := len(r.movements) - 1; i >= 0; i-- { // newest first
		if r.movements[i].AccountID == accountID {
			mine = append(mine, r.movements[i])
		}
	}
	if offset >= len(mine) {
		return nil, nil
	}
	mine = mine[offset:]
	if limit < len(mine) {
		mine = mine[:limit]
	}
	return mine, nil
}

// --- Vault state ---

type inMemoryStateRepo struct {
	mu    sync.RWMutex
	state domain.VaultState
}

func newInMemoryStateRepo() *inMemoryStateRepo {
	return &inMemoryStateRepo{}
}

func (r *inMemoryStateRepo) EnsureInitialized(ctx context.Context, window time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state.StalenessWindow == 0 {
		r.state = domain.VaultState{StalenessWindow: window, UpdatedAt: time.Now()}
	}
	return nil
}

func (r *inMemoryStateRepo) Get(ctx context.Context) (*domain.VaultState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	copied := r.state
	return &copied, nil
}

func (r *inMemoryStateRepo) SetPaused(ctx context.Context, paused bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.Paused = paused
	r.state.UpdatedAt = time.Now()
	return nil
}

func (r *inMemoryStateRepo) SetStalenessWindow(ctx context.Context, window time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.StalenessWindow = window
	r.state.UpdatedAt = time.Now()
	return nil
}

func (r *inMemoryStateRepo) IncrementDeposits(ctx context.Context, tx pgx.Tx) error {
	asMemTx(tx).stage(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.state.DepositCount++
	})
	return nil
}

func (r *inMemoryStateRepo) IncrementWithdrawals(ctx context.Context, tx pgx.Tx) error {
	asMemTx(tx).stage(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.state.WithdrawCount++
	})
	return nil
}

// --- Accounts ---

type inMemoryAccountRepo struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]*domain.Account
}

func newInMemoryAccountRepo() *inMemoryAccountRepo {
	return &inMemoryAccountRepo{accounts: make(map[uuid.UUID]*domain.Account)}
}

func (r *inMemoryAccountRepo) Create(ctx context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.accounts {
		if existing.Username == account.Username {
			return fmt.Errorf("username already exists")
		}
	}
	copied := *account
	r.accounts[account.ID] = &copied
	return nil
}

func (r *inMemoryAccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	copied := *a
	return &copied, nil
}

func (r *inMemoryAccountRepo) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.accounts {
		if a.Username == username {
			copied := *a
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *inMemoryAccountRepo) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.accounts)), nil
}

// --- Audit ---

type inMemoryAuditRepo struct {
	mu      sync.RWMutex
	entries []domain.AuditLog
}

func newInMemoryAuditRepo() *inMemoryAuditRepo {
	return &inMemoryAuditRepo{}
}

func (r *inMemoryAuditRepo) Create(ctx context.Context, entry *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}
