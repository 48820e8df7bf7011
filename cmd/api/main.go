package main

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"custody-vault-ledger/config"
	"custody-vault-ledger/internal/adapter/custody"
	httpHandler "custody-vault-ledger/internal/adapter/http/handler"
	"custody-vault-ledger/internal/adapter/oracle"
	pgStorage "custody-vault-ledger/internal/adapter/storage/postgres"
	redisStorage "custody-vault-ledger/internal/adapter/storage/redis"
	"custody-vault-ledger/internal/core/domain"
	"custody-vault-ledger/internal/core/ports"
	"custody-vault-ledger/internal/service"
	"custody-vault-ledger/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Custody Vault Ledger")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	ledgerRepo := pgStorage.NewLedgerRepo(pool)
	registryRepo := pgStorage.NewRegistryRepo(pool)
	movementRepo := pgStorage.NewMovementRepo(pool)
	stateRepo := pgStorage.NewVaultStateRepo(pool)
	accountRepo := pgStorage.NewAccountRepo(pool)
	auditRepo := pgStorage.NewAuditRepository(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Vault state row must exist before anything reads it
	if err := stateRepo.EnsureInitialized(ctx, cfg.Vault.StalenessWindow); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize vault state")
	}

	// Initialize core services
	encSvc, err := service.NewAESEncryptionService(cfg.AES.Key)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize encryption service")
	}
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	auditSvc := service.NewAuditService(auditRepo, log)
	gate := service.NewCapabilityGate(accountRepo)

	// Price oracle: configured upstream behind a short-lived cache
	upstream, err := buildOracle(cfg.Oracle)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize price oracle")
	}
	quoteCache := redisStorage.NewQuoteCache(rdb, cfg.Oracle.CacheTTL)
	priceOracle := oracle.NewCachedOracle(upstream, quoteCache, log)
	valuator := service.NewValuationService(priceOracle, stateRepo)

	// Custodian: in-process stand-in for a settlement network
	custodian := custody.NewBank()
	custodian.RegisterAsset(domain.NativeAsset, cfg.Vault.NativeDecimals)

	// Initialize business services
	authSvc := service.NewAuthService(accountRepo, hashSvc, tokenSvc, auditSvc)
	vaultSvc := service.NewVaultService(
		ledgerRepo,
		registryRepo,
		movementRepo,
		stateRepo,
		custodian,
		valuator,
		encSvc,
		transactor,
		big.NewInt(cfg.Vault.WithdrawLimit),
		log,
	)
	registrySvc := service.NewRegistryService(
		registryRepo,
		stateRepo,
		custodian,
		valuator,
		gate,
		auditSvc,
		log,
	)

	// Native asset is registered at bootstrap and can never be removed
	if err := registrySvc.EnsureNativeAsset(ctx, cfg.Vault.NativeBinding, cfg.Vault.NativeDecimals); err != nil {
		log.Fatal().Err(err).Msg("Failed to register native asset")
	}

	// Initialize rate limit store
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		VaultSvc:       vaultSvc,
		RegistrySvc:    registrySvc,
		TokenSvc:       tokenSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		AuditSvc:       auditSvc,
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// buildOracle selects the upstream price source from configuration.
func buildOracle(cfg config.OracleConfig) (ports.PriceOracle, error) {
	switch cfg.Provider {
	case "binance":
		return oracle.NewBinanceOracle(cfg.BinanceKey, cfg.BinanceSecret), nil
	case "static":
		return oracle.NewStaticOracle(cfg.StaticPrices)
	default:
		return nil, fmt.Errorf("unknown oracle provider %q", cfg.Provider)
	}
}
