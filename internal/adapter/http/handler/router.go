package handler

import (
	"custody-vault-ledger/internal/adapter/http/middleware"
	redisStore "custody-vault-ledger/internal/adapter/storage/redis"
	"custody-vault-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	VaultSvc       ports.VaultService
	RegistrySvc    ports.RegistryService
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	AuditSvc       ports.AuditService // nil = movement audit logging disabled
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Audit logging (after response)
	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	// Health check (deep, verifies PostgreSQL and Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", rl("auth_register"), authHandler.Register)
		auth.POST("/login", rl("auth_login"), authHandler.Login)
	}

	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	vaultHandler := NewVaultHandler(deps.VaultSvc)
	registryHandler := NewRegistryHandler(deps.RegistrySvc)

	// --- Vault: fund movements and ledger reads ---
	vault := v1.Group("/vault", jwtAuth)
	{
		vault.POST("/deposit", rl("movements"), vaultHandler.Deposit)
		vault.POST("/withdraw", rl("movements"), vaultHandler.Withdraw)
		vault.GET("/balances/:asset", rl("queries"), vaultHandler.Balance)
		vault.GET("/portfolio", rl("queries"), vaultHandler.Portfolio)
		vault.GET("/movements", rl("queries"), vaultHandler.Movements)
		vault.GET("/status", rl("queries"), vaultHandler.Status)
	}

	// --- Asset registry ---
	assets := v1.Group("/assets", jwtAuth)
	{
		assets.GET("", rl("queries"), registryHandler.ListAssets)
		assets.POST("", rl("admin"), registryHandler.AddAsset)
		assets.DELETE("/:asset", rl("admin"), registryHandler.RemoveAsset)
		assets.PUT("/:asset/oracle", rl("admin"), registryHandler.UpdateOracle)
	}

	// --- Vault administration ---
	admin := v1.Group("/admin", jwtAuth)
	{
		admin.POST("/pause", rl("admin"), registryHandler.Pause)
		admin.POST("/unpause", rl("admin"), registryHandler.Unpause)
		admin.PUT("/staleness-window", rl("admin"), registryHandler.SetStalenessWindow)
	}

	return r
}
