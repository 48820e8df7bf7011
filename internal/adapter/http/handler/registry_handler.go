package handler

import (
	"time"

	"custody-vault-ledger/internal/adapter/http/dto"
	"custody-vault-ledger/internal/core/domain"
	"custody-vault-ledger/internal/core/ports"
	"custody-vault-ledger/pkg/apperror"
	"custody-vault-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// RegistryHandler handles the asset registry and vault administration.
type RegistryHandler struct {
	registrySvc ports.RegistryService
}

// NewRegistryHandler creates a new RegistryHandler.
func NewRegistryHandler(registrySvc ports.RegistryService) *RegistryHandler {
	return &RegistryHandler{registrySvc: registrySvc}
}

// AddAsset handles POST /api/v1/assets.
func (h *RegistryHandler) AddAsset(c *gin.Context) {
	var req dto.AddAssetRequest
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

	record, err := h.registrySvc.AddAsset(c.Request.Context(), actor, domain.AssetID(req.Asset), req.OracleBinding)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toAssetResponse(record))
}

// RemoveAsset handles DELETE /api/v1/assets/:asset.
func (h *RegistryHandler) RemoveAsset(c *gin.Context) {
	actor, ok := accountID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	asset := domain.AssetID(c.Param("asset"))
	if err := h.registrySvc.RemoveAsset(c.Request.Context(), actor, asset); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"asset": asset.String(), "removed": true})
}

// UpdateOracle handles PUT /api/v1/assets/:asset/oracle.
func (h *RegistryHandler) UpdateOracle(c *gin.Context) {
	var req dto.UpdateOracleRequest
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

	asset := domain.AssetID(c.Param("asset"))
	record, err := h.registrySvc.UpdateOracle(c.Request.Context(), actor, asset, req.OracleBinding)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toAssetResponse(record))
}

// ListAssets handles GET /api/v1/assets.
func (h *RegistryHandler) ListAssets(c *gin.Context) {
	records, err := h.registrySvc.ListAssets(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.AssetResponse, 0, len(records))
	for i := range records {
		items = append(items, toAssetResponse(&records[i]))
	}
	response.OK(c, items)
}

// SetStalenessWindow handles PUT /api/v1/admin/staleness-window.
func (h *RegistryHandler) SetStalenessWindow(c *gin.Context) {
	var req dto.StalenessWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	actor, ok := accountID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	window := time.Duration(req.Seconds) * time.Second
	if err := h.registrySvc.SetStalenessWindow(c.Request.Context(), actor, window); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"staleness_window_seconds": req.Seconds})
}

// Pause handles POST /api/v1/admin/pause.
func (h *RegistryHandler) Pause(c *gin.Context) {
	h.setPaused(c, true)
}

// Unpause handles POST /api/v1/admin/unpause.
func (h *RegistryHandler) Unpause(c *gin.Context) {
	h.setPaused(c, false)
}

func (h *RegistryHandler) setPaused(c *gin.Context, paused bool) {
	actor, ok := accountID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var err error
	if paused {
		err = h.registrySvc.Pause(c.Request.Context(), actor)
	} else {
		err = h.registrySvc.Unpause(c.Request.Context(), actor)
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"paused": paused})
}

func toAssetResponse(r *domain.AssetRecord) dto.AssetResponse {
	return dto.AssetResponse{
		Asset:          r.Asset.String(),
		OracleBinding:  r.OracleBinding,
		AssetDecimals:  r.AssetDecimals,
		OracleDecimals: r.OracleDecimals,
		CreatedAt:      r.CreatedAt.UTC().Format(time.RFC3339),
	}
}
