package service

import (
	"context"
	"fmt"
	"math/big"
	"sync/atomic"
	"time"

	"custody-vault-ledger/internal/core/domain"
	"custody-vault-ledger/internal/core/ports"
	"custody-vault-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// entryGuard is the explicit mutual-exclusion flag shared by every guarded
// operation. It does not rely on call-stack inspection: a custodian transfer
// that synchronously re-enters Deposit or Withdraw trips the flag and is
// rejected before it can touch any state.
type entryGuard struct {
	engaged atomic.Bool
}

func (g *entryGuard) acquire() error {
	if !g.engaged.CompareAndSwap(false, true) {
		return apperror.ErrReentrancyRejected()
	}
	return nil
}

func (g *entryGuard) release() {
	g.engaged.Store(false)
}

// VaultServiceImpl implements ports.VaultService: the fund movement protocol
// (checks, effects, interactions) plus the ledger read surface.
type VaultServiceImpl struct {
	ledgerRepo   ports.LedgerRepository
	registryRepo ports.RegistryRepository
	movementRepo ports.MovementRepository
	stateRepo    ports.VaultStateRepository
	custodian    ports.AssetCustodian
	valuator     ports.Valuator
	encSvc       ports.EncryptionService
	transactor   ports.DBTransactor
	// The maximum unit-of-account value a single withdrawal may move.
	// Fixed at initialization, never mutated.
	withdrawLimit *big.Int
	guard         entryGuard
	log           zerolog.Logger
}

// NewVaultService creates a new VaultServiceImpl.
func NewVaultService(
	ledgerRepo ports.LedgerRepository,
	registryRepo ports.RegistryRepository,
	movementRepo ports.MovementRepository,
	stateRepo ports.VaultStateRepository,
	custodian ports.AssetCustodian,
	valuator ports.Valuator,
	encSvc ports.EncryptionService,
	transactor ports.DBTransactor,
	withdrawLimit *big.Int,
	log zerolog.Logger,
) *VaultServiceImpl {
	return &VaultServiceImpl{
		ledgerRepo:    ledgerRepo,
		registryRepo:  registryRepo,
		movementRepo:  movementRepo,
		stateRepo:     stateRepo,
		custodian:     custodian,
		valuator:      valuator,
		encSvc:        encSvc,
		transactor:    transactor,
		withdrawLimit: new(big.Int).Set(withdrawLimit),
		log:           log,
	}
}

// Deposit credits the caller's balance with amount units of asset.
//
// Ordering: checks, then the pull interaction (safe to front-load because it
// draws only from the caller's own external holdings), then valuation, then
// effects. If anything fails after a successful pull, the pulled funds are
// pushed back so the operation leaves no externally visible trace.
func (s *VaultServiceImpl) Deposit(ctx context.Context, req ports.MovementRequest) (*domain.Movement, error) {
	if err := s.guard.acquire(); err != nil {
		return nil, err
	}
	defer s.guard.release()

	// Checks
	if req.Amount == nil || req.Amount.Sign() <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	state, err := s.stateRepo.Get(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load vault state: %w", err))
	}
	if state.Paused {
		return nil, apperror.ErrVaultPaused()
	}

	record, err := s.registryRepo.Get(ctx, req.Asset)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lookup asset: %w", err))
	}
	if record == nil {
		return nil, apperror.ErrAssetNotSupported(req.Asset.String())
	}

	// Interaction-first exception: pull the tokens before valuation. The
	// native asset is presumed already delivered with the call itself.
	pulled := false
	if !req.Asset.IsNative() {
		if err := s.custodian.Pull(ctx, req.AccountID, req.Asset, req.Amount); err != nil {
			return nil, apperror.ErrTransferFailed(fmt.Errorf("pull %s: %w", req.Asset, err))
		}
		pulled = true
	}

	// Valuation
	value, err := s.valuator.Value(ctx, record, req.Amount)
	if err != nil {
		s.returnPulledFunds(ctx, pulled, req)
		return nil, err
	}

	// Effects
	movement, err := s.applyDeposit(ctx, req, value)
	if err != nil {
		s.returnPulledFunds(ctx, pulled, req)
		return nil, err
	}

	s.log.Info().
		Str("account_id", req.AccountID.String()).
		Str("asset", req.Asset.String()).
		Str("amount", req.Amount.String()).
		Str("value", value.String()).
		Msg("deposit recorded")

	return movement, nil
}

// applyDeposit performs the effects phase of a deposit inside one database
// transaction: credit the balance, bump the counter, persist the record.
func (s *VaultServiceImpl) applyDeposit(ctx context.Context, req ports.MovementRequest, value *big.Int) (*domain.Movement, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	current, createdAt, err := s.lockedBalance(ctx, dbTx, req.AccountID, req.Asset)
	if err != nil {
		return nil, err
	}

	newAmount := new(big.Int).Add(current, req.Amount)
	encrypted, err := s.encSvc.Encrypt(newAmount.String())
	if err != nil {
		return nil, apperror.ErrEncryptionFailure(fmt.Errorf("encrypt balance: %w", err))
	}

	now := time.Now().UTC()
	if err := s.ledgerRepo.Upsert(ctx, dbTx, &domain.Balance{
		AccountID:       req.AccountID,
		Asset:           req.Asset,
		EncryptedAmount: encrypted,
		CreatedAt:       createdAt,
		UpdatedAt:       now,
	}); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("upsert balance: %w", err))
	}

	if err := s.stateRepo.IncrementDeposits(ctx, dbTx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("increment deposits: %w", err))
	}

	movement := &domain.Movement{
		ID:        uuid.New(),
		AccountID: req.AccountID,
		Asset:     req.Asset,
		Type:      domain.MovementDeposit,
		Amount:    new(big.Int).Set(req.Amount),
		Value:     value,
		CreatedAt: now,
	}
	if err := s.movementRepo.Create(ctx, dbTx, movement); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create movement: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	return movement, nil
}

// returnPulledFunds compensates an optimistic pull after an aborted deposit.
func (s *VaultServiceImpl) returnPulledFunds(ctx context.Context, pulled bool, req ports.MovementRequest) {
	if !pulled {
		return
	}
	if err := s.custodian.Push(ctx, req.AccountID, req.Asset, req.Amount); err != nil {
		s.log.Error().Err(err).
			Str("account_id", req.AccountID.String()).
			Str("asset", req.Asset.String()).
			Str("amount", req.Amount.String()).
			Msg("failed to return pulled funds after aborted deposit")
	}
}

// Withdraw debits the caller's balance and pays out amount units of asset.
//
// The balance is debited before the outbound transfer; a re-entrant call
// during the payout sees the reduced balance and is rejected by the guard. A
// failed payout rolls the whole transaction back, so no debit survives a
// failed payout.
func (s *VaultServiceImpl) Withdraw(ctx context.Context, req ports.MovementRequest) (*domain.Movement, error) {
	if err := s.guard.acquire(); err != nil {
		return nil, err
	}
	defer s.guard.release()

	// Checks
	if req.Amount == nil || req.Amount.Sign() <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	state, err := s.stateRepo.Get(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load vault state: %w", err))
	}
	if state.Paused {
		return nil, apperror.ErrVaultPaused()
	}

	record, err := s.registryRepo.Get(ctx, req.Asset)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lookup asset: %w", err))
	}
	if record == nil {
		return nil, apperror.ErrAssetNotSupported(req.Asset.String())
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	current, createdAt, err := s.lockedBalance(ctx, dbTx, req.AccountID, req.Asset)
	if err != nil {
		return nil, err
	}
	if current.Cmp(req.Amount) < 0 {
		return nil, apperror.ErrInsufficientBalance(req.Amount, current)
	}

	// Valuation at the current price, never a historical one.
	value, err := s.valuator.Value(ctx, record, req.Amount)
	if err != nil {
		return nil, err
	}
	if value.Cmp(s.withdrawLimit) > 0 {
		return nil, apperror.ErrWithdrawExceedsLimit(value, s.withdrawLimit)
	}

	// Effects: debit before the outbound transfer.
	newAmount := new(big.Int).Sub(current, req.Amount)
	encrypted, err := s.encSvc.Encrypt(newAmount.String())
	if err != nil {
		return nil, apperror.ErrEncryptionFailure(fmt.Errorf("encrypt balance: %w", err))
	}

	now := time.Now().UTC()
	if err := s.ledgerRepo.Upsert(ctx, dbTx, &domain.Balance{
		AccountID:       req.AccountID,
		Asset:           req.Asset,
		EncryptedAmount: encrypted,
		CreatedAt:       createdAt,
		UpdatedAt:       now,
	}); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("upsert balance: %w", err))
	}

	if err := s.stateRepo.IncrementWithdrawals(ctx, dbTx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("increment withdrawals: %w", err))
	}

	movement := &domain.Movement{
		ID:        uuid.New(),
		AccountID: req.AccountID,
		Asset:     req.Asset,
		Type:      domain.MovementWithdrawal,
		Amount:    new(big.Int).Set(req.Amount),
		Value:     value,
		CreatedAt: now,
	}
	if err := s.movementRepo.Create(ctx, dbTx, movement); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create movement: %w", err))
	}

	// Interaction: the payout runs while the debit is still uncommitted, so a
	// failure here rolls everything back via the deferred Rollback.
	if err := s.custodian.Push(ctx, req.AccountID, req.Asset, req.Amount); err != nil {
		return nil, apperror.ErrTransferFailed(fmt.Errorf("push %s: %w", req.Asset, err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("account_id", req.AccountID.String()).
		Str("asset", req.Asset.String()).
		Str("amount", req.Amount.String()).
		Str("value", value.String()).
		Msg("withdrawal recorded")

	return movement, nil
}

// BalanceOf returns the caller's balance for an asset. Absent means zero.
func (s *VaultServiceImpl) BalanceOf(ctx context.Context, accountID uuid.UUID, asset domain.AssetID) (*big.Int, error) {
	balance, err := s.ledgerRepo.Get(ctx, accountID, asset)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get balance: %w", err))
	}
	if balance == nil {
		return big.NewInt(0), nil
	}
	return s.decryptAmount(balance.EncryptedAmount)
}

// PortfolioValue sums the unit-of-account value of every balance the account
// holds, at current prices. Enabled by the enumerable registry.
func (s *VaultServiceImpl) PortfolioValue(ctx context.Context, accountID uuid.UUID) (*big.Int, error) {
	records, err := s.registryRepo.List(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list assets: %w", err))
	}

	total := big.NewInt(0)
	for _, record := range records {
		balance, err := s.ledgerRepo.Get(ctx, accountID, record.Asset)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("get balance %s: %w", record.Asset, err))
		}
		if balance == nil {
			continue
		}
		amount, err := s.decryptAmount(balance.EncryptedAmount)
		if err != nil {
			return nil, err
		}
		if amount.Sign() == 0 {
			continue
		}
		value, err := s.valuator.Value(ctx, &record, amount)
		if err != nil {
			return nil, err
		}
		total.Add(total, value)
	}
	return total, nil
}

// Movements lists the caller's movement history, newest first.
func (s *VaultServiceImpl) Movements(ctx context.Context, accountID uuid.UUID, page, pageSize int) ([]domain.Movement, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	movements, err := s.movementRepo.ListByAccount(ctx, accountID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list movements: %w", err))
	}
	return movements, nil
}

// Status returns the global vault state.
func (s *VaultServiceImpl) Status(ctx context.Context) (*domain.VaultState, error) {
	state, err := s.stateRepo.Get(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load vault state: %w", err))
	}
	return state, nil
}

// lockedBalance fetches and decrypts a balance under FOR UPDATE. A missing
// entry reads as zero with CreatedAt set to now.
func (s *VaultServiceImpl) lockedBalance(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, asset domain.AssetID) (*big.Int, time.Time, error) {
	balance, err := s.ledgerRepo.GetForUpdate(ctx, tx, accountID, asset)
	if err != nil {
		return nil, time.Time{}, apperror.InternalError(fmt.Errorf("lock balance: %w", err))
	}
	if balance == nil {
		return big.NewInt(0), time.Now().UTC(), nil
	}
	amount, err := s.decryptAmount(balance.EncryptedAmount)
	if err != nil {
		return nil, time.Time{}, err
	}
	return amount, balance.CreatedAt, nil
}

// decryptAmount decrypts a stored balance string into a big.Int.
func (s *VaultServiceImpl) decryptAmount(encrypted string) (*big.Int, error) {
	plain, err := s.encSvc.Decrypt(encrypted)
	if err != nil {
		return nil, apperror.ErrEncryptionFailure(fmt.Errorf("decrypt balance: %w", err))
	}
	amount, err := domain.ParseAmount(plain)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("parse balance: %w", err))
	}
	return amount, nil
}
