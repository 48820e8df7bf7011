package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"custody-vault-ledger/internal/core/domain"
	"custody-vault-ledger/internal/core/ports"
	"custody-vault-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RegistryServiceImpl implements ports.RegistryService: the asset registry
// lifecycle and vault administration, every mutation behind a capability
// check.
type RegistryServiceImpl struct {
	registryRepo ports.RegistryRepository
	stateRepo    ports.VaultStateRepository
	custodian    ports.AssetCustodian
	valuator     ports.Valuator
	gate         ports.AccessGate
	audit        ports.AuditService
	log          zerolog.Logger
}

// NewRegistryService creates a new RegistryServiceImpl.
func NewRegistryService(
	registryRepo ports.RegistryRepository,
	stateRepo ports.VaultStateRepository,
	custodian ports.AssetCustodian,
	valuator ports.Valuator,
	gate ports.AccessGate,
	audit ports.AuditService,
	log zerolog.Logger,
) *RegistryServiceImpl {
	return &RegistryServiceImpl{
		registryRepo: registryRepo,
		stateRepo:    stateRepo,
		custodian:    custodian,
		valuator:     valuator,
		gate:         gate,
		audit:        audit,
		log:          log,
	}
}

// AddAsset registers a new asset. The registry never admits an asset it
// cannot currently price: the oracle is probed with the same positivity and
// freshness gates a movement would apply. The asset's own decimals are read
// once here and cached for its lifetime.
func (s *RegistryServiceImpl) AddAsset(ctx context.Context, actor uuid.UUID, asset domain.AssetID, binding string) (*domain.AssetRecord, error) {
	if err := s.requireCapability(ctx, actor, domain.CapAssetAdmin); err != nil {
		return nil, err
	}

	existing, err := s.registryRepo.Get(ctx, asset)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lookup asset: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrAssetAlreadySupported(asset.String())
	}

	quote, err := s.valuator.FreshQuote(ctx, binding)
	if err != nil {
		return nil, err
	}

	decimals, err := s.custodian.AssetDecimals(ctx, asset)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("read asset decimals: %w", err))
	}

	now := time.Now().UTC()
	record := &domain.AssetRecord{
		Asset:          asset,
		OracleBinding:  binding,
		AssetDecimals:  decimals,
		OracleDecimals: quote.Decimals,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.registryRepo.Create(ctx, record); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create asset record: %w", err))
	}

	s.auditAdmin(ctx, actor, domain.AuditActionAssetAdded, asset, map[string]interface{}{
		"oracle_binding": binding,
		"asset_decimals": decimals,
	})
	s.log.Info().
		Str("asset", asset.String()).
		Str("oracle_binding", binding).
		Int32("asset_decimals", decimals).
		Msg("asset registered")

	return record, nil
}

// RemoveAsset deregisters an asset. The native asset is rejected
// unconditionally; any other asset is rejected while the custodian still
// holds funds of it, so depositors can never be stranded.
func (s *RegistryServiceImpl) RemoveAsset(ctx context.Context, actor uuid.UUID, asset domain.AssetID) error {
	if err := s.requireCapability(ctx, actor, domain.CapAssetAdmin); err != nil {
		return err
	}

	if asset.IsNative() {
		return apperror.ErrNativeAssetProtected()
	}

	record, err := s.registryRepo.Get(ctx, asset)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("lookup asset: %w", err))
	}
	if record == nil {
		return apperror.ErrAssetNotSupported(asset.String())
	}

	held, err := s.custodian.Holdings(ctx, asset)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("read custody holdings: %w", err))
	}
	if held.Sign() != 0 {
		return apperror.ErrAssetHasFunds(asset.String(), held)
	}

	if err := s.registryRepo.Delete(ctx, asset); err != nil {
		return apperror.InternalError(fmt.Errorf("delete asset record: %w", err))
	}

	s.auditAdmin(ctx, actor, domain.AuditActionAssetRemoved, asset, nil)
	s.log.Info().Str("asset", asset.String()).Msg("asset deregistered")
	return nil
}

// UpdateOracle rebinds an asset to a new price source, re-validating the new
// oracle exactly like AddAsset. The asset's own decimals are untouched.
func (s *RegistryServiceImpl) UpdateOracle(ctx context.Context, actor uuid.UUID, asset domain.AssetID, binding string) (*domain.AssetRecord, error) {
	if err := s.requireCapability(ctx, actor, domain.CapAssetAdmin); err != nil {
		return nil, err
	}

	record, err := s.registryRepo.Get(ctx, asset)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lookup asset: %w", err))
	}
	if record == nil {
		return nil, apperror.ErrAssetNotSupported(asset.String())
	}

	quote, err := s.valuator.FreshQuote(ctx, binding)
	if err != nil {
		return nil, err
	}

	if err := s.registryRepo.UpdateOracle(ctx, asset, binding, quote.Decimals); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update oracle binding: %w", err))
	}

	record.OracleBinding = binding
	record.OracleDecimals = quote.Decimals
	record.UpdatedAt = time.Now().UTC()

	s.auditAdmin(ctx, actor, domain.AuditActionOracleUpdated, asset, map[string]interface{}{
		"oracle_binding": binding,
	})
	s.log.Info().
		Str("asset", asset.String()).
		Str("oracle_binding", binding).
		Msg("oracle rebound")

	return record, nil
}

// ListAssets returns every supported asset in registration order.
func (s *RegistryServiceImpl) ListAssets(ctx context.Context) ([]domain.AssetRecord, error) {
	records, err := s.registryRepo.List(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list assets: %w", err))
	}
	return records, nil
}

// SetStalenessWindow updates the maximum tolerated oracle quote age.
func (s *RegistryServiceImpl) SetStalenessWindow(ctx context.Context, actor uuid.UUID, window time.Duration) error {
	if err := s.requireCapability(ctx, actor, domain.CapVaultAdmin); err != nil {
		return err
	}
	if window <= 0 {
		return apperror.ErrInvalidAmount()
	}
	if err := s.stateRepo.SetStalenessWindow(ctx, window); err != nil {
		return apperror.InternalError(fmt.Errorf("set staleness window: %w", err))
	}

	s.auditAdmin(ctx, actor, domain.AuditActionWindowUpdated, "", map[string]interface{}{
		"window_seconds": int64(window.Seconds()),
	})
	s.log.Info().Dur("window", window).Msg("staleness window updated")
	return nil
}

// Pause halts every fund movement until Unpause.
func (s *RegistryServiceImpl) Pause(ctx context.Context, actor uuid.UUID) error {
	return s.setPaused(ctx, actor, true)
}

// Unpause resumes fund movements.
func (s *RegistryServiceImpl) Unpause(ctx context.Context, actor uuid.UUID) error {
	return s.setPaused(ctx, actor, false)
}

func (s *RegistryServiceImpl) setPaused(ctx context.Context, actor uuid.UUID, paused bool) error {
	if err := s.requireCapability(ctx, actor, domain.CapVaultAdmin); err != nil {
		return err
	}
	if err := s.stateRepo.SetPaused(ctx, paused); err != nil {
		return apperror.InternalError(fmt.Errorf("set paused: %w", err))
	}

	action := domain.AuditActionPaused
	if !paused {
		action = domain.AuditActionUnpaused
	}
	s.auditAdmin(ctx, actor, action, "", nil)
	s.log.Warn().Bool("paused", paused).Msg("vault pause flag changed")
	return nil
}

// EnsureNativeAsset registers the native currency at bootstrap. Decimals come
// from configuration, not from the custodian: the native asset has no token
// contract to read them from.
func (s *RegistryServiceImpl) EnsureNativeAsset(ctx context.Context, binding string, decimals int32) error {
	existing, err := s.registryRepo.Get(ctx, domain.NativeAsset)
	if err != nil {
		return fmt.Errorf("lookup native asset: %w", err)
	}
	if existing != nil {
		return nil
	}

	quote, err := s.valuator.FreshQuote(ctx, binding)
	if err != nil {
		return fmt.Errorf("probe native oracle: %w", err)
	}

	now := time.Now().UTC()
	if err := s.registryRepo.Create(ctx, &domain.AssetRecord{
		Asset:          domain.NativeAsset,
		OracleBinding:  binding,
		AssetDecimals:  decimals,
		OracleDecimals: quote.Decimals,
		CreatedAt:      now,
		UpdatedAt:      now,
	}); err != nil {
		return fmt.Errorf("create native asset record: %w", err)
	}

	s.log.Info().Str("oracle_binding", binding).Msg("native asset registered")
	return nil
}

func (s *RegistryServiceImpl) requireCapability(ctx context.Context, actor uuid.UUID, capability domain.Capability) error {
	ok, err := s.gate.HasCapability(ctx, actor, capability)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("capability check: %w", err))
	}
	if !ok {
		return apperror.ErrCapabilityRequired(string(capability))
	}
	return nil
}

func (s *RegistryServiceImpl) auditAdmin(ctx context.Context, actor uuid.UUID, action domain.AuditAction, asset domain.AssetID, details map[string]interface{}) {
	if s.audit == nil {
		return
	}
	var detailsJSON string
	if details != nil {
		if b, err := json.Marshal(details); err == nil {
			detailsJSON = string(b)
		}
	}
	s.audit.Log(ctx, &domain.AuditLog{
		ID:           uuid.New(),
		AccountID:    &actor,
		Action:       action,
		ResourceType: "asset_registry",
		ResourceID:   asset.String(),
		Details:      detailsJSON,
		CreatedAt:    time.Now().UTC(),
	})
}
