package service

import (
	"context"
	"fmt"
	"time"

	"custody-vault-ledger/internal/core/domain"
	"custody-vault-ledger/internal/core/ports"
	"custody-vault-ledger/pkg/apperror"

	"github.com/google/uuid"
)

// AuthServiceImpl implements ports.AuthService.
type AuthServiceImpl struct {
	accountRepo ports.AccountRepository
	hashSvc     ports.HashService
	tokenSvc    ports.TokenService
	audit       ports.AuditService
}

// NewAuthService creates a new AuthServiceImpl.
func NewAuthService(
	accountRepo ports.AccountRepository,
	hashSvc ports.HashService,
	tokenSvc ports.TokenService,
	audit ports.AuditService,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		accountRepo: accountRepo,
		hashSvc:     hashSvc,
		tokenSvc:    tokenSvc,
		audit:       audit,
	}
}

// Register creates a new account. The very first account registered is the
// bootstrap administrator and receives both admin capabilities; every later
// account starts with none.
func (s *AuthServiceImpl) Register(ctx context.Context, username, password string) (*domain.Account, error) {
	existing, err := s.accountRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check username: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrUsernameExists()
	}

	passwordHash, err := s.hashSvc.Hash(password)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash password: %w", err))
	}

	count, err := s.accountRepo.Count(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("count accounts: %w", err))
	}

	var capabilities []domain.Capability
	if count == 0 {
		capabilities = []domain.Capability{domain.CapAssetAdmin, domain.CapVaultAdmin}
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: passwordHash,
		Capabilities: capabilities,
		Status:       domain.AccountStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create account: %w", err))
	}

	s.auditAuth(ctx, account.ID, domain.AuditActionRegister)
	return account, nil
}

// Login validates credentials and returns a JWT token.
func (s *AuthServiceImpl) Login(ctx context.Context, username, password string) (string, time.Time, error) {
	account, err := s.accountRepo.GetByUsername(ctx, username)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("find account: %w", err))
	}
	if account == nil {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	valid, err := s.hashSvc.Verify(password, account.PasswordHash)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("verify password: %w", err))
	}
	if !valid {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	if !account.IsActive() {
		return "", time.Time{}, apperror.ErrAccountSuspended()
	}

	token, expiry, err := s.tokenSvc.Generate(account.ID, account.Username)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("generate token: %w", err))
	}

	s.auditAuth(ctx, account.ID, domain.AuditActionLogin)
	return token, expiry, nil
}

func (s *AuthServiceImpl) auditAuth(ctx context.Context, accountID uuid.UUID, action domain.AuditAction) {
	if s.audit == nil {
		return
	}
	id := accountID
	s.audit.Log(ctx, &domain.AuditLog{
		ID:           uuid.New(),
		AccountID:    &id,
		Action:       action,
		ResourceType: "account",
		ResourceID:   accountID.String(),
		CreatedAt:    time.Now().UTC(),
	})
}
