package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"custody-vault-ledger/internal/adapter/http/dto"
	"custody-vault-ledger/internal/adapter/http/middleware"
	"custody-vault-ledger/internal/core/domain"
	"custody-vault-ledger/internal/core/ports"
	"custody-vault-ledger/internal/core/ports/mocks"
	"custody-vault-ledger/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newJSONContext(t *testing.T, method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, path, &buf)
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func responseData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, ok := resp["data"].(map[string]interface{})
	require.True(t, ok, "response has no data object: %s", w.Body.String())
	return data
}

// --- Auth Handler Tests ---

func TestRegister_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	id := uuid.New()
	mockAuth.EXPECT().Register(gomock.Any(), "alice", "password123").Return(&domain.Account{
		ID:           id,
		Username:     "alice",
		Capabilities: []domain.Capability{domain.CapAssetAdmin, domain.CapVaultAdmin},
		Status:       domain.AccountStatusActive,
	}, nil)

	c, w := newJSONContext(t, http.MethodPost, "/api/v1/auth/register", dto.RegisterRequest{
		Username: "alice",
		Password: "password123",
	})

	h.Register(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := responseData(t, w)
	assert.Equal(t, id.String(), data["account_id"])
	assert.Equal(t, "alice", data["username"])
	assert.Len(t, data["capabilities"], 2)
}

func TestRegister_ValidationError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewAuthHandler(mocks.NewMockAuthService(ctrl))

	c, w := newJSONContext(t, http.MethodPost, "/api/v1/auth/register", map[string]string{})

	h.Register(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegister_ServiceError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	mockAuth.EXPECT().Register(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, apperror.ErrUsernameExists())

	c, w := newJSONContext(t, http.MethodPost, "/", dto.RegisterRequest{
		Username: "taken",
		Password: "password123",
	})

	h.Register(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLogin_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	expiry := time.Now().Add(24 * time.Hour)
	mockAuth.EXPECT().Login(gomock.Any(), "alice", "password123").Return("token-abc", expiry, nil)

	c, w := newJSONContext(t, http.MethodPost, "/api/v1/auth/login", dto.LoginRequest{
		Username: "alice",
		Password: "password123",
	})

	h.Login(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := responseData(t, w)
	assert.Equal(t, "token-abc", data["token"])
	assert.Equal(t, float64(expiry.Unix()), data["expiry"])
}

func TestLogin_InvalidCredentials(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	mockAuth.EXPECT().Login(gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", time.Time{}, apperror.ErrInvalidCredentials())

	c, w := newJSONContext(t, http.MethodPost, "/", dto.LoginRequest{
		Username: "alice",
		Password: "wrong",
	})

	h.Login(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// --- Vault Handler Tests ---

func TestDeposit_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockVault := mocks.NewMockVaultService(ctrl)
	h := NewVaultHandler(mockVault)

	actor := uuid.New()
	movementID := uuid.New()
	mockVault.EXPECT().Deposit(gomock.Any(), ports.MovementRequest{
		AccountID: actor,
		Asset:     "usdc",
		Amount:    big.NewInt(500_000000),
	}).Return(&domain.Movement{
		ID:        movementID,
		AccountID: actor,
		Asset:     "usdc",
		Type:      domain.MovementDeposit,
		Amount:    big.NewInt(500_000000),
		Value:     big.NewInt(500_000000),
		CreatedAt: time.Now(),
	}, nil)

	c, w := newJSONContext(t, http.MethodPost, "/api/v1/vault/deposit", dto.MovementRequest{
		Asset:  "usdc",
		Amount: "500000000",
	})
	c.Set(middleware.CtxAccountID, actor)

	h.Deposit(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := responseData(t, w)
	assert.Equal(t, movementID.String(), data["id"])
	assert.Equal(t, "DEPOSIT", data["type"])
	assert.Equal(t, "500000000", data["amount"])
}

func TestDeposit_RejectsZeroAmount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewVaultHandler(mocks.NewMockVaultService(ctrl))

	c, w := newJSONContext(t, http.MethodPost, "/api/v1/vault/deposit", dto.MovementRequest{
		Asset:  "usdc",
		Amount: "0",
	})
	c.Set(middleware.CtxAccountID, uuid.New())

	h.Deposit(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeposit_RejectsFractionalAmount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewVaultHandler(mocks.NewMockVaultService(ctrl))

	c, w := newJSONContext(t, http.MethodPost, "/api/v1/vault/deposit", dto.MovementRequest{
		Asset:  "usdc",
		Amount: "1.5",
	})
	c.Set(middleware.CtxAccountID, uuid.New())

	h.Deposit(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWithdraw_ServiceErrorMapped(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockVault := mocks.NewMockVaultService(ctrl)
	h := NewVaultHandler(mockVault)

	mockVault.EXPECT().Withdraw(gomock.Any(), gomock.Any()).
		Return(nil, apperror.ErrInsufficientBalance(big.NewInt(100), big.NewInt(10)))

	c, w := newJSONContext(t, http.MethodPost, "/api/v1/vault/withdraw", dto.MovementRequest{
		Asset:  "usdc",
		Amount: "100",
	})
	c.Set(middleware.CtxAccountID, uuid.New())

	h.Withdraw(c)

	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ECO_001", resp["error_code"])
}

func TestBalance_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockVault := mocks.NewMockVaultService(ctrl)
	h := NewVaultHandler(mockVault)

	actor := uuid.New()
	mockVault.EXPECT().BalanceOf(gomock.Any(), actor, domain.AssetID("usdc")).
		Return(big.NewInt(750), nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/vault/balances/usdc", nil)
	c.Params = gin.Params{{Key: "asset", Value: "usdc"}}
	c.Set(middleware.CtxAccountID, actor)

	h.Balance(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := responseData(t, w)
	assert.Equal(t, "usdc", data["asset"])
	assert.Equal(t, "750", data["amount"])
}

func TestPortfolio_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockVault := mocks.NewMockVaultService(ctrl)
	h := NewVaultHandler(mockVault)

	actor := uuid.New()
	mockVault.EXPECT().PortfolioValue(gomock.Any(), actor).Return(big.NewInt(6100_000000), nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/vault/portfolio", nil)
	c.Set(middleware.CtxAccountID, actor)

	h.Portfolio(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := responseData(t, w)
	assert.Equal(t, "6100000000", data["value"])
}

func TestMovements_DefaultsPaging(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockVault := mocks.NewMockVaultService(ctrl)
	h := NewVaultHandler(mockVault)

	actor := uuid.New()
	mockVault.EXPECT().Movements(gomock.Any(), actor, 1, 20).Return([]domain.Movement{
		{
			ID:        uuid.New(),
			AccountID: actor,
			Asset:     "usdc",
			Type:      domain.MovementDeposit,
			Amount:    big.NewInt(100),
			Value:     big.NewInt(100),
			CreatedAt: time.Now(),
		},
	}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/vault/movements", nil)
	c.Set(middleware.CtxAccountID, actor)

	h.Movements(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := responseData(t, w)
	assert.Equal(t, float64(1), data["page"])
	assert.Len(t, data["items"], 1)
}

func TestStatus_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockVault := mocks.NewMockVaultService(ctrl)
	h := NewVaultHandler(mockVault)

	mockVault.EXPECT().Status(gomock.Any()).Return(&domain.VaultState{
		Paused:          true,
		StalenessWindow: 30 * time.Minute,
		DepositCount:    12,
		WithdrawCount:   7,
	}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/vault/status", nil)

	h.Status(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := responseData(t, w)
	assert.Equal(t, true, data["paused"])
	assert.Equal(t, float64(1800), data["staleness_window_seconds"])
	assert.Equal(t, float64(12), data["deposit_count"])
}

// --- Registry Handler Tests ---

func TestAddAsset_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRegistry := mocks.NewMockRegistryService(ctrl)
	h := NewRegistryHandler(mockRegistry)

	actor := uuid.New()
	mockRegistry.EXPECT().AddAsset(gomock.Any(), actor, domain.AssetID("usdc"), "USDCUSDT").
		Return(&domain.AssetRecord{
			Asset:          "usdc",
			OracleBinding:  "USDCUSDT",
			AssetDecimals:  6,
			OracleDecimals: 8,
			CreatedAt:      time.Now(),
		}, nil)

	c, w := newJSONContext(t, http.MethodPost, "/api/v1/assets", dto.AddAssetRequest{
		Asset:         "usdc",
		OracleBinding: "USDCUSDT",
	})
	c.Set(middleware.CtxAccountID, actor)

	h.AddAsset(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := responseData(t, w)
	assert.Equal(t, "usdc", data["asset"])
	assert.Equal(t, float64(6), data["asset_decimals"])
}

func TestAddAsset_CapabilityDenied(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRegistry := mocks.NewMockRegistryService(ctrl)
	h := NewRegistryHandler(mockRegistry)

	mockRegistry.EXPECT().AddAsset(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, apperror.ErrCapabilityRequired("asset_admin"))

	c, w := newJSONContext(t, http.MethodPost, "/api/v1/assets", dto.AddAssetRequest{
		Asset:         "usdc",
		OracleBinding: "USDCUSDT",
	})
	c.Set(middleware.CtxAccountID, uuid.New())

	h.AddAsset(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRemoveAsset_NativeProtected(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRegistry := mocks.NewMockRegistryService(ctrl)
	h := NewRegistryHandler(mockRegistry)

	actor := uuid.New()
	mockRegistry.EXPECT().RemoveAsset(gomock.Any(), actor, domain.NativeAsset).
		Return(apperror.ErrNativeAssetProtected())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodDelete, "/api/v1/assets/native", nil)
	c.Params = gin.Params{{Key: "asset", Value: "native"}}
	c.Set(middleware.CtxAccountID, actor)

	h.RemoveAsset(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUpdateOracle_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRegistry := mocks.NewMockRegistryService(ctrl)
	h := NewRegistryHandler(mockRegistry)

	actor := uuid.New()
	mockRegistry.EXPECT().UpdateOracle(gomock.Any(), actor, domain.AssetID("usdc"), "USDCBUSD").
		Return(&domain.AssetRecord{
			Asset:          "usdc",
			OracleBinding:  "USDCBUSD",
			AssetDecimals:  6,
			OracleDecimals: 8,
		}, nil)

	c, w := newJSONContext(t, http.MethodPut, "/api/v1/assets/usdc/oracle", dto.UpdateOracleRequest{
		OracleBinding: "USDCBUSD",
	})
	c.Params = gin.Params{{Key: "asset", Value: "usdc"}}
	c.Set(middleware.CtxAccountID, actor)

	h.UpdateOracle(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := responseData(t, w)
	assert.Equal(t, "USDCBUSD", data["oracle_binding"])
}

func TestSetStalenessWindow_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRegistry := mocks.NewMockRegistryService(ctrl)
	h := NewRegistryHandler(mockRegistry)

	actor := uuid.New()
	mockRegistry.EXPECT().SetStalenessWindow(gomock.Any(), actor, 10*time.Minute).Return(nil)

	c, w := newJSONContext(t, http.MethodPut, "/api/v1/admin/staleness-window", dto.StalenessWindowRequest{
		Seconds: 600,
	})
	c.Set(middleware.CtxAccountID, actor)

	h.SetStalenessWindow(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPause_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRegistry := mocks.NewMockRegistryService(ctrl)
	h := NewRegistryHandler(mockRegistry)

	actor := uuid.New()
	mockRegistry.EXPECT().Pause(gomock.Any(), actor).Return(nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/admin/pause", nil)
	c.Set(middleware.CtxAccountID, actor)

	h.Pause(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := responseData(t, w)
	assert.Equal(t, true, data["paused"])
}

// --- Health Check ---

type stubChecker struct {
	name string
	err  error
}

func (s stubChecker) Ping(ctx context.Context) error { return s.err }
func (s stubChecker) Name() string                   { return s.name }

func TestHealthCheck_AllHealthy(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	HealthCheck(stubChecker{name: "postgresql"}, stubChecker{name: "redis"})(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthCheck_Degraded(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	HealthCheck(stubChecker{name: "postgresql"}, stubChecker{name: "redis", err: assert.AnError})(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
