// Package container - Dependency Injection container for the application.
//
// Container управляет жизненным циклом всех зависимостей:
// - Создание (явная инициализация при старте)
// - Доступ (getters)
// - Закрытие (cleanup)
//
// Pattern: Composition Root
// - Все зависимости собираются в одном месте
// - Легко тестировать
// - Легко заменять реализации
package container

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	apphttp "github.com/gamevault/walletd/internal/adapters/http"
	"github.com/gamevault/walletd/internal/adapters/http/middleware"
	"github.com/gamevault/walletd/internal/application/ports"
	"github.com/gamevault/walletd/internal/application/usecases/query"
	"github.com/gamevault/walletd/internal/application/usecases/transfer"
	"github.com/gamevault/walletd/internal/config"
	"github.com/gamevault/walletd/internal/infrastructure/cache/redis"
	"github.com/gamevault/walletd/internal/infrastructure/outbox"
	"github.com/gamevault/walletd/internal/infrastructure/persistence/postgres"
	"github.com/gamevault/walletd/internal/pkg/logger"
)

// ============================================
// Container
// ============================================

// Container - DI контейнер приложения.
type Container struct {
	config *config.Config
	logger *slog.Logger

	// Infrastructure
	pool        *pgxpool.Pool
	redisClient *goredis.Client

	// Repositories
	userRepo   ports.UserRepository
	assetRepo  ports.AssetRepository
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
	ledgerRepo ports.LedgerRepository
	outboxRepo *postgres.OutboxRepository

	// Unit of Work
	uow ports.UnitOfWork

	// Idempotency cache
	idempotencyStore ports.IdempotencyStore

	// Event Publisher
	eventPublisher ports.EventPublisher

	// Outbox relay
	relay       *outbox.Relay
	relayCancel context.CancelFunc

	// Use Cases
	executeTransferUC *transfer.ExecuteTransferUseCase
	getBalanceUC      *query.GetBalanceUseCase
	getLedgerUC       *query.GetLedgerUseCase
	getHistoryUC      *query.GetHistoryUseCase
	getTransactionUC  *query.GetTransactionUseCase

	// HTTP
	httpServer *apphttp.Server
}

// New создаёт новый контейнер с заданной конфигурацией.
func New(cfg *config.Config) *Container {
	return &Container{
		config: cfg,
	}
}

// ============================================
// Initialization
// ============================================

// Initialize инициализирует все зависимости.
func (c *Container) Initialize(ctx context.Context) error {
	c.logger = logger.New(&logger.Config{
		Level:  c.config.Log.Level,
		Format: c.config.Log.Format,
	})
	slog.SetDefault(c.logger)
	c.logger.Info("Initializing application container...")

	// 1. Database
	if err := c.initDatabase(ctx); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.logger.Info("Database connected")

	// 2. Redis (деградация: при недоступности работаем только на БД)
	c.initRedis(ctx)

	// 3. Repositories
	c.initRepositories()
	c.logger.Info("Repositories initialized")

	// 4. Use Cases (резолвят Treasury, требуют живую БД)
	if err := c.initUseCases(ctx); err != nil {
		return fmt.Errorf("failed to initialize use cases: %w", err)
	}
	c.logger.Info("Use cases initialized")

	// 5. Outbox relay
	c.initRelay()

	// 6. HTTP Server
	c.initHTTPServer()
	c.logger.Info("HTTP server initialized")

	c.logger.Info("Container initialization complete")
	return nil
}

// initDatabase инициализирует подключение к БД.
func (c *Container) initDatabase(ctx context.Context) error {
	dbCfg := postgres.Config{
		URL:             c.config.Database.URL,
		MaxConns:        c.config.Database.MaxConnections,
		MinConns:        c.config.Database.MinConnections,
		MaxConnLifetime: c.config.Database.MaxConnLifetime,
		MaxConnIdleTime: c.config.Database.MaxConnIdleTime,
	}

	pool, err := postgres.NewConnectionPool(ctx, dbCfg)
	if err != nil {
		return err
	}

	c.pool = pool
	return nil
}

// initRedis инициализирует клиент Redis.
//
// Недоступный Redis не блокирует старт: кеш идемпотентности
// опционален, источник истины - уникальный ключ в БД.
func (c *Container) initRedis(ctx context.Context) {
	client, err := redis.NewClient(ctx, c.config.Redis.URL)
	if err != nil {
		c.logger.Warn("Redis unavailable, idempotency cache disabled",
			slog.String("error", err.Error()),
		)
		return
	}

	c.redisClient = client
	c.logger.Info("Redis connected")
}

// initRepositories инициализирует репозитории.
func (c *Container) initRepositories() {
	c.userRepo = postgres.NewUserRepository(c.pool)
	c.assetRepo = postgres.NewAssetRepository(c.pool)
	c.walletRepo = postgres.NewWalletRepository(c.pool)
	c.txRepo = postgres.NewTransactionRepository(c.pool)
	c.ledgerRepo = postgres.NewLedgerRepository(c.pool)
	c.outboxRepo = postgres.NewOutboxRepository(c.pool)

	// Unit of Work
	c.uow = postgres.NewUnitOfWork(c.pool, c.config.Transfer.LockTimeout)

	// Event Publisher (OutboxRepository реализует интерфейс)
	c.eventPublisher = c.outboxRepo

	// Idempotency cache
	c.idempotencyStore = redis.NewIdempotencyStore(
		c.redisClient,
		c.logger,
		c.config.Idempotency.ProcessingTTL,
	)
}

// initUseCases инициализирует use cases.
func (c *Container) initUseCases(ctx context.Context) error {
	// Treasury резолвится один раз при старте; без него сервис не имеет смысла
	treasuryID, err := transfer.ResolveTreasury(ctx, c.userRepo, c.config.Transfer.TreasuryEmail)
	if err != nil {
		return err
	}
	c.logger.Info("Treasury resolved",
		slog.String("treasury_user_id", treasuryID.String()),
		slog.String("email", c.config.Transfer.TreasuryEmail),
	)

	router := transfer.NewCounterpartyRouter(treasuryID)

	c.executeTransferUC = transfer.NewExecuteTransferUseCase(
		c.assetRepo,
		c.walletRepo,
		c.txRepo,
		c.ledgerRepo,
		c.eventPublisher,
		c.uow,
		c.idempotencyStore,
		router,
		c.logger,
		c.config.Idempotency.OutcomeTTL,
	)

	c.getBalanceUC = query.NewGetBalanceUseCase(c.userRepo, c.assetRepo, c.walletRepo, c.logger)
	c.getLedgerUC = query.NewGetLedgerUseCase(c.assetRepo, c.walletRepo, c.ledgerRepo)
	c.getHistoryUC = query.NewGetHistoryUseCase(c.userRepo, c.assetRepo, c.walletRepo, c.txRepo)
	c.getTransactionUC = query.NewGetTransactionUseCase(c.txRepo, c.ledgerRepo)

	return nil
}

// initRelay инициализирует outbox relay.
func (c *Container) initRelay() {
	sink := outbox.NewLogSink(c.logger)
	c.relay = outbox.NewRelay(c.outboxRepo, c.uow, sink, c.logger, outbox.DefaultConfig())
}

// initHTTPServer инициализирует HTTP сервер.
func (c *Container) initHTTPServer() {
	var rateLimit *middleware.RateLimitConfig
	if c.config.RateLimit.Enabled {
		rateLimit = middleware.DefaultRateLimitConfig()
		if c.config.RateLimit.RequestsPerMinute > 0 {
			rateLimit.Limit = c.config.RateLimit.RequestsPerMinute
			rateLimit.Window = time.Minute
		}
	}

	routerConfig := &apphttp.RouterConfig{
		Logger:      c.logger,
		Pool:        c.pool,
		Redis:       c.redisClient,
		Version:     c.config.App.Version,
		Environment: c.config.App.Environment,
		RateLimit:   rateLimit,
	}

	router := apphttp.NewRouterBuilder(routerConfig).
		WithWalletUseCases(&apphttp.WalletUseCases{
			ExecuteTransfer: c.executeTransferUC,
			GetBalance:      c.getBalanceUC,
			GetLedger:       c.getLedgerUC,
			GetHistory:      c.getHistoryUC,
			GetTransaction:  c.getTransactionUC,
		}).
		Build()

	serverConfig := &apphttp.ServerConfig{
		Host:            c.config.Server.Host,
		Port:            strconv.Itoa(c.config.Server.Port),
		ReadTimeout:     c.config.Server.ReadTimeout,
		WriteTimeout:    c.config.Server.WriteTimeout,
		IdleTimeout:     c.config.Server.IdleTimeout,
		ShutdownTimeout: c.config.Server.ShutdownTimeout,
		Logger:          c.logger,
	}

	c.httpServer = apphttp.NewServer(serverConfig, router)
}

// ============================================
// Getters
// ============================================

// Config возвращает конфигурацию.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger возвращает логгер.
func (c *Container) Logger() *slog.Logger {
	return c.logger
}

// Pool возвращает пул соединений к БД.
func (c *Container) Pool() *pgxpool.Pool {
	return c.pool
}

// HTTPServer возвращает HTTP сервер.
func (c *Container) HTTPServer() *apphttp.Server {
	return c.httpServer
}

// UserRepository возвращает репозиторий пользователей.
func (c *Container) UserRepository() ports.UserRepository {
	return c.userRepo
}

// AssetRepository возвращает репозиторий активов.
func (c *Container) AssetRepository() ports.AssetRepository {
	return c.assetRepo
}

// WalletRepository возвращает репозиторий кошельков.
func (c *Container) WalletRepository() ports.WalletRepository {
	return c.walletRepo
}

// TransactionRepository возвращает репозиторий транзакций.
func (c *Container) TransactionRepository() ports.TransactionRepository {
	return c.txRepo
}

// LedgerRepository возвращает репозиторий проводок.
func (c *Container) LedgerRepository() ports.LedgerRepository {
	return c.ledgerRepo
}

// UnitOfWork возвращает Unit of Work.
func (c *Container) UnitOfWork() ports.UnitOfWork {
	return c.uow
}

// ExecuteTransferUseCase возвращает use case перевода.
func (c *Container) ExecuteTransferUseCase() *transfer.ExecuteTransferUseCase {
	return c.executeTransferUC
}

// ============================================
// Run / Shutdown
// ============================================

// Run запускает приложение и ожидает сигнал завершения.
func (c *Container) Run() error {
	c.logger.Info("Starting walletd API server",
		slog.String("version", c.config.App.Version),
		slog.String("environment", c.config.App.Environment),
		slog.String("address", c.config.Server.Address()),
	)

	// Relay живёт, пока живёт процесс
	relayCtx, cancel := context.WithCancel(context.Background())
	c.relayCancel = cancel
	go c.relay.Run(relayCtx)

	return c.httpServer.Run()
}

// Shutdown выполняет graceful shutdown всех компонентов.
func (c *Container) Shutdown(ctx context.Context) error {
	c.logger.Info("Shutting down container...")

	var errs []error

	// 1. Outbox relay
	if c.relayCancel != nil {
		c.relayCancel()
	}

	// 2. HTTP Server
	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("HTTP server shutdown: %w", err))
		}
	}

	// 3. Redis
	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}

	// 4. Database (даём время на завершение транзакций)
	if c.pool != nil {
		done := make(chan struct{})
		go func() {
			c.pool.Close()
			close(done)
		}()

		select {
		case <-done:
			c.logger.Info("Database connection closed")
		case <-ctx.Done():
			c.logger.Warn("Database close timeout")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	c.logger.Info("Container shutdown complete")
	return nil
}
