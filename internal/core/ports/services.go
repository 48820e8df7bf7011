package ports

import (
	"context"
	"math/big"
	"time"

	"custody-vault-ledger/internal/core/domain"

	"github.com/google/uuid"
)

// --- External collaborator ports ---

// PriceOracle returns the current quote for an oracle binding. The quote is
// untrusted input: positivity and freshness are enforced by the valuator on
// every call, never by the oracle itself.
type PriceOracle interface {
	Quote(ctx context.Context, binding string) (*domain.Quote, error)
}

// QuoteCache is a short-lived quote store. The cached entry keeps the
// original AsOf timestamp so staleness is still judged per use.
type QuoteCache interface {
	Get(ctx context.Context, binding string) (*domain.Quote, error) // nil, nil on miss
	Set(ctx context.Context, binding string, quote *domain.Quote) error
}

// AssetCustodian is the external system actually holding funds. Pull draws
// from the caller's own external holdings; Push pays out of the vault's
// custody. Both may synchronously run untrusted code, which is why the fund
// movement protocol guards against re-entry around them.
type AssetCustodian interface {
	Pull(ctx context.Context, accountID uuid.UUID, asset domain.AssetID, amount *big.Int) error
	Push(ctx context.Context, accountID uuid.UUID, asset domain.AssetID, amount *big.Int) error
	// Holdings is the custody balance the vault actually holds for an asset,
	// as opposed to the sum of per-account ledger entries.
	Holdings(ctx context.Context, asset domain.AssetID) (*big.Int, error)
	// AssetDecimals is the asset's own decimal precision, read once at registration.
	AssetDecimals(ctx context.Context, asset domain.AssetID) (int32, error)
}

// AccessGate answers capability questions for the registry and admin surface.
type AccessGate interface {
	HasCapability(ctx context.Context, accountID uuid.UUID, capability domain.Capability) (bool, error)
}

// --- Security service ports ---

// EncryptionService handles AES-256-GCM encryption/decryption of monetary fields.
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(accountID uuid.UUID, username string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	AccountID uuid.UUID
	Username  string
}

// --- Service ports (business logic) ---

// Valuator converts asset amounts into the unit of account using a fresh
// oracle quote, enforcing the positivity and staleness gates on every call.
type Valuator interface {
	FreshQuote(ctx context.Context, binding string) (*domain.Quote, error)
	Value(ctx context.Context, record *domain.AssetRecord, amount *big.Int) (*big.Int, error)
}

// MovementRequest holds validated input for a deposit or withdrawal.
type MovementRequest struct {
	AccountID uuid.UUID
	Asset     domain.AssetID
	Amount    *big.Int
}

// VaultService is the fund movement protocol plus the ledger read surface.
type VaultService interface {
	Deposit(ctx context.Context, req MovementRequest) (*domain.Movement, error)
	Withdraw(ctx context.Context, req MovementRequest) (*domain.Movement, error)
	BalanceOf(ctx context.Context, accountID uuid.UUID, asset domain.AssetID) (*big.Int, error)
	PortfolioValue(ctx context.Context, accountID uuid.UUID) (*big.Int, error)
	Movements(ctx context.Context, accountID uuid.UUID, page, pageSize int) ([]domain.Movement, error)
	Status(ctx context.Context) (*domain.VaultState, error)
}

// RegistryService is the asset registry lifecycle plus vault administration.
// Every method takes the acting account and checks the required capability
// through the access gate.
type RegistryService interface {
	AddAsset(ctx context.Context, actor uuid.UUID, asset domain.AssetID, binding string) (*domain.AssetRecord, error)
	RemoveAsset(ctx context.Context, actor uuid.UUID, asset domain.AssetID) error
	UpdateOracle(ctx context.Context, actor uuid.UUID, asset domain.AssetID, binding string) (*domain.AssetRecord, error)
	ListAssets(ctx context.Context) ([]domain.AssetRecord, error)
	SetStalenessWindow(ctx context.Context, actor uuid.UUID, window time.Duration) error
	Pause(ctx context.Context, actor uuid.UUID) error
	Unpause(ctx context.Context, actor uuid.UUID) error
	// EnsureNativeAsset registers the native currency at bootstrap if absent.
	EnsureNativeAsset(ctx context.Context, binding string, decimals int32) error
}

// AuthService defines authentication business logic.
type AuthService interface {
	Register(ctx context.Context, username, password string) (*domain.Account, error)
	Login(ctx context.Context, username, password string) (string, time.Time, error) // token, expiry, error
}

// AuditService defines fire-and-forget audit logging.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}
