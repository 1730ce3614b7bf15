// Package httpapi wires the HTTP surface: the token-gated external API,
// tenant self-service endpoints, and the JWT-gated admin surface.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"creditgate/internal/audit"
	"creditgate/internal/auth"
	"creditgate/internal/config"
	"creditgate/internal/gateway"
	"creditgate/internal/ledger"
	"creditgate/internal/middleware"
	"creditgate/internal/notifier"
	"creditgate/internal/providers"
	"creditgate/internal/queue"
	"creditgate/internal/storage"
	"creditgate/internal/utils"
)

// Dependencies aggregates all services the HTTP layer needs, plus the
// background components the server must drain on shutdown.
type Dependencies struct {
	DB           *storage.DB
	Redis        *storage.RedisClient
	Vault        *storage.Vault
	Tenants      *storage.TenantRepository
	Tokens       *storage.TokenRepository
	Catalog      *storage.CatalogRepository
	Credentials  *storage.CredentialRepository
	Transactions *storage.TransactionRepository
	AdminUsers   *storage.AdminUserRepository

	Authenticator *auth.Authenticator
	Gateway       *gateway.Service
	Ledger        *ledger.Service
	Notifier      notifier.Notifier

	TouchWorker *storage.TouchWorker
	AuditSink   audit.Sink

	logger *utils.Logger
}

// NewRouter creates an HTTP router with all dependencies wired up
func NewRouter(cfg *config.Config) (*http.ServeMux, *Dependencies, error) {
	db, err := storage.NewDB(storage.DBConfig{
		DSN:              cfg.Database.URL,
		MaxOpenConns:     cfg.Database.MaxOpenConns,
		MaxIdleConns:     cfg.Database.MaxIdleConns,
		ConnMaxLifetime:  cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime:  cfg.Database.ConnMaxIdleTime,
		TokenCacheSize:   cfg.Cache.TokenCacheSize,
		TokenCacheTTL:    cfg.Cache.TokenCacheTTL,
		CatalogCacheSize: cfg.Cache.CatalogCacheSize,
		CatalogCacheTTL:  cfg.Cache.CatalogCacheTTL,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	vault, err := storage.NewVaultFromBase64(cfg.VaultKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize vault: %w", err)
	}

	// Redis is optional. Without it the notifier is a no-op and the
	// touch queue runs in memory.
	var redisClient *storage.RedisClient
	useRedis := cfg.Redis.Address != ""
	if useRedis {
		redisClient, err = storage.NewRedisClient(storage.RedisConfig{
			Address:      cfg.Redis.Address,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize Redis: %w", err)
		}
	}

	tenantRepo := storage.NewTenantRepository(db)
	tokenRepo := storage.NewTokenRepository(db)
	catalogRepo := storage.NewCatalogRepository(db)
	credentialRepo := storage.NewCredentialRepository(db)
	transactionRepo := storage.NewTransactionRepository(db)
	adminUserRepo := storage.NewAdminUserRepository(db)

	// Touch queue: last-used stamps for tokens and credentials.
	touchCfg := queue.DefaultConfig("touch")
	touchCfg.BatchSize = cfg.Touch.BatchSize
	touchCfg.BatchTimeout = cfg.Touch.BatchTimeout
	touchCfg.MaxRetries = cfg.Touch.MaxRetries
	touchCfg.RetryBackoff = cfg.Touch.RetryBackoff

	var touchQueue queue.Queue
	var touchDLQ queue.DeadLetterQueue
	if useRedis {
		touchQueue = queue.NewRedisQueue(redisClient.Client(), touchCfg)
		touchDLQ = queue.NewRedisDeadLetterQueue(redisClient.Client(), touchCfg)
	} else {
		touchQueue = queue.NewMemoryQueue(touchCfg)
		touchDLQ = queue.NewMemoryDeadLetterQueue()
	}
	touchWorker := storage.NewTouchWorker(touchQueue, touchDLQ, tokenRepo, credentialRepo, touchCfg)
	touchWorker.Start(context.Background())

	// Balance notifier: Redis pub/sub when a broker is configured.
	var balanceNotifier notifier.Notifier
	if useRedis {
		balanceNotifier = notifier.NewRedisNotifier(redisClient.Client())
	} else {
		balanceNotifier = notifier.NewNoop()
	}

	// Audit sink: batched JSONL archive of ledger activity in S3.
	var auditSink audit.Sink = audit.NewNoopSink()
	if cfg.Audit.Enabled && cfg.Audit.S3Bucket != "" {
		writer, err := audit.NewS3Writer(context.Background(),
			cfg.Audit.S3Bucket, cfg.Audit.S3Region, cfg.Audit.S3Prefix, cfg.Audit.PodName)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize audit writer: %w", err)
		}
		auditSink = audit.NewBufferedSink(writer,
			cfg.Audit.BufferSize, cfg.Audit.FlushSize, cfg.Audit.FlushInterval)
	}

	ledgerService := ledger.NewService(tenantRepo, balanceNotifier, auditSink)
	authenticator := auth.NewAuthenticator(tokenRepo, tenantRepo, touchWorker)
	gatewayService := gateway.NewService(catalogRepo, credentialRepo, vault,
		providers.DefaultRegistry(), touchWorker)

	deps := &Dependencies{
		DB:            db,
		Redis:         redisClient,
		Vault:         vault,
		Tenants:       tenantRepo,
		Tokens:        tokenRepo,
		Catalog:       catalogRepo,
		Credentials:   credentialRepo,
		Transactions:  transactionRepo,
		AdminUsers:    adminUserRepo,
		Authenticator: authenticator,
		Gateway:       gatewayService,
		Ledger:        ledgerService,
		Notifier:      balanceNotifier,
		TouchWorker:   touchWorker,
		AuditSink:     auditSink,
		logger:        utils.NewLogger("httpapi"),
	}

	mux := http.NewServeMux()
	registerRoutes(mux, deps, cfg)

	return mux, deps, nil
}

func registerRoutes(mux *http.ServeMux, deps *Dependencies, cfg *config.Config) {
	tokenMW := middleware.TokenMiddleware(deps.Authenticator)
	adminMW := middleware.AdminJWTMiddleware(cfg.JWTSecret)

	// External API.
	chatHandler := NewChatHandler(deps.Gateway, deps.Ledger)
	mux.Handle("POST /v1/chat", tokenMW(http.HandlerFunc(chatHandler.Chat)))

	catalogHandler := NewCatalogHandler(deps.Catalog)
	mux.Handle("GET /v1/models", tokenMW(http.HandlerFunc(catalogHandler.ListModels)))

	accountHandler := NewAccountHandler(deps.Transactions)
	mux.Handle("GET /v1/balance", tokenMW(http.HandlerFunc(accountHandler.Balance)))
	mux.Handle("GET /v1/transactions", tokenMW(http.HandlerFunc(accountHandler.Transactions)))

	// Tenant self-service.
	tokensHandler := NewTokensHandler(deps.Tokens)
	mux.Handle("POST /v1/tokens", tokenMW(http.HandlerFunc(tokensHandler.Create)))
	mux.Handle("GET /v1/tokens", tokenMW(http.HandlerFunc(tokensHandler.List)))
	mux.Handle("POST /v1/tokens/{id}/revoke", tokenMW(http.HandlerFunc(tokensHandler.Revoke)))
	mux.Handle("DELETE /v1/tokens/{id}", tokenMW(http.HandlerFunc(tokensHandler.Delete)))

	// Admin authentication is public; everything else under /admin is
	// JWT gated.
	adminAuthHandler := NewAdminAuthHandler(deps.AdminUsers, cfg.JWTSecret)
	mux.HandleFunc("POST /admin/auth/login", adminAuthHandler.Login)

	adminCredsHandler := NewAdminCredentialsHandler(deps.Credentials, deps.Vault, deps.Gateway)
	mux.Handle("GET /admin/credentials", adminMW(http.HandlerFunc(adminCredsHandler.List)))
	mux.Handle("PUT /admin/credentials/{provider}", adminMW(http.HandlerFunc(adminCredsHandler.Upsert)))
	mux.Handle("DELETE /admin/credentials/{provider}", adminMW(http.HandlerFunc(adminCredsHandler.Delete)))
	mux.Handle("POST /admin/credentials/{provider}/test", adminMW(http.HandlerFunc(adminCredsHandler.Test)))

	adminCatalogHandler := NewAdminCatalogHandler(deps.Catalog)
	mux.Handle("GET /admin/models", adminMW(http.HandlerFunc(adminCatalogHandler.List)))
	mux.Handle("POST /admin/models", adminMW(http.HandlerFunc(adminCatalogHandler.Create)))
	mux.Handle("PUT /admin/models/{id}", adminMW(http.HandlerFunc(adminCatalogHandler.Update)))
	mux.Handle("POST /admin/models/{id}/enabled", adminMW(http.HandlerFunc(adminCatalogHandler.SetEnabled)))
	mux.Handle("DELETE /admin/models/{id}", adminMW(http.HandlerFunc(adminCatalogHandler.Delete)))

	adminTenantsHandler := NewAdminTenantsHandler(deps.Tenants, deps.Transactions, deps.Ledger, cfg.Ledger.StartingAllotment)
	mux.Handle("POST /admin/tenants", adminMW(http.HandlerFunc(adminTenantsHandler.Create)))
	mux.Handle("GET /admin/tenants/{id}", adminMW(http.HandlerFunc(adminTenantsHandler.Get)))
	mux.Handle("POST /admin/tenants/{id}/adjust", adminMW(http.HandlerFunc(adminTenantsHandler.Adjust)))
	mux.Handle("POST /admin/tenants/{id}/suspend", adminMW(http.HandlerFunc(adminTenantsHandler.Suspend)))

	mux.HandleFunc("GET /health", deps.handleHealth)
}

// handleHealth reports DB and Redis reachability.
func (d *Dependencies) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{"database": "ok"}
	healthy := true

	if err := d.DB.Ping(ctx); err != nil {
		status["database"] = err.Error()
		healthy = false
	}
	if d.Redis != nil {
		status["redis"] = "ok"
		if err := d.Redis.Health(ctx); err != nil {
			status["redis"] = err.Error()
			healthy = false
		}
	}

	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	utils.RespondWithJSON(w, code, status)
}

// Shutdown drains background components and closes connections.
func (d *Dependencies) Shutdown(ctx context.Context) {
	if err := d.TouchWorker.Stop(); err != nil {
		d.logger.Error("Failed to stop touch worker", "error", err)
	}
	if buffered, ok := d.AuditSink.(*audit.BufferedSink); ok {
		buffered.Shutdown()
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.logger.Error("Failed to close Redis client", "error", err)
		}
	}
	if err := d.DB.Close(); err != nil {
		d.logger.Error("Failed to close database", "error", err)
	}
}
