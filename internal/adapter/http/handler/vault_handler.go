package handler

import (
	"context"
	"strconv"
	"time"

	"custody-vault-ledger/internal/adapter/http/dto"
	"custody-vault-ledger/internal/core/domain"
	"custody-vault-ledger/internal/core/ports"
	"custody-vault-ledger/pkg/apperror"
	"custody-vault-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// VaultHandler handles fund movements and ledger queries.
type VaultHandler struct {
	vaultSvc ports.VaultService
}

// NewVaultHandler creates a new VaultHandler.
func NewVaultHandler(vaultSvc ports.VaultService) *VaultHandler {
	return &VaultHandler{vaultSvc: vaultSvc}
}

// Deposit handles POST /api/v1/vault/deposit.
func (h *VaultHandler) Deposit(c *gin.Context) {
	h.move(c, h.vaultSvc.Deposit)
}

// Withdraw handles POST /api/v1/vault/withdraw.
func (h *VaultHandler) Withdraw(c *gin.Context) {
	h.move(c, h.vaultSvc.Withdraw)
}

func (h *VaultHandler) move(c *gin.Context, op func(ctx context.Context, req ports.MovementRequest) (*domain.Movement, error)) {
	var req dto.MovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	actor, ok := accountID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		response.Error(c, apperror.ErrInvalidAmount())
		return
	}

	movement, err := op(c.Request.Context(), ports.MovementRequest{
		AccountID: actor,
		Asset:     domain.AssetID(req.Asset),
		Amount:    amount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toMovementResponse(movement))
}

// Balance handles GET /api/v1/vault/balances/:asset.
func (h *VaultHandler) Balance(c *gin.Context) {
	actor, ok := accountID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	asset := domain.AssetID(c.Param("asset"))
	amount, err := h.vaultSvc.BalanceOf(c.Request.Context(), actor, asset)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.BalanceResponse{
		Asset:  asset.String(),
		Amount: amount.String(),
	})
}

// Portfolio handles GET /api/v1/vault/portfolio.
func (h *VaultHandler) Portfolio(c *gin.Context) {
	actor, ok := accountID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	value, err := h.vaultSvc.PortfolioValue(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.PortfolioResponse{Value: value.String()})
}

// Movements handles GET /api/v1/vault/movements.
func (h *VaultHandler) Movements(c *gin.Context) {
	actor, ok := accountID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	movements, err := h.vaultSvc.Movements(c.Request.Context(), actor, page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.MovementResponse, 0, len(movements))
	for i := range movements {
		items = append(items, toMovementResponse(&movements[i]))
	}

	response.OK(c, dto.MovementListResponse{
		Items:    items,
		Page:     page,
		PageSize: pageSize,
	})
}

// Status handles GET /api/v1/vault/status.
func (h *VaultHandler) Status(c *gin.Context) {
	state, err := h.vaultSvc.Status(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.StatusResponse{
		Paused:                 state.Paused,
		StalenessWindowSeconds: int64(state.StalenessWindow.Seconds()),
		DepositCount:           state.DepositCount,
		WithdrawCount:          state.WithdrawCount,
	})
}

func toMovementResponse(m *domain.Movement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:        m.ID.String(),
		Asset:     m.Asset.String(),
		Type:      string(m.Type),
		Amount:    m.Amount.String(),
		Value:     m.Value.String(),
		CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339),
	}
}
