// Package postgres - интеграционные тесты для PostgreSQL repositories с testcontainers.
//
// Запуск тестов:
//
//	go test ./internal/infrastructure/persistence/postgres/...
//
// Требования:
//   - Docker запущен
//   - testcontainers-go установлен
package postgres

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/gamevault/walletd/internal/application/dtos"
	"github.com/gamevault/walletd/internal/application/ports"
	"github.com/gamevault/walletd/internal/application/usecases/transfer"
	"github.com/gamevault/walletd/internal/domain/entities"
	domerrors "github.com/gamevault/walletd/internal/domain/errors"
	"github.com/gamevault/walletd/internal/domain/events"
	"github.com/gamevault/walletd/internal/domain/valueobjects"
	rediscache "github.com/gamevault/walletd/internal/infrastructure/cache/redis"
)

// ============================================
// Test Helpers
// ============================================

// testContainer хранит контейнер и pool для тестов.
type testContainer struct {
	container *postgres.PostgresContainer
	pool      *pgxpool.Pool
}

// Shared container for all tests (performance optimization)
var sharedTestContainer *testContainer

// setupSharedTestDB создаёт или возвращает переиспользуемый PostgreSQL контейнер.
// Оптимизация: один контейнер для всех тестов вместо создания нового для каждого.
func setupSharedTestDB(t *testing.T) *testContainer {
	if sharedTestContainer != nil {
		// Очищаем данные между тестами
		cleanupTables(t, sharedTestContainer.pool)
		return sharedTestContainer
	}

	ctx := context.Background()

	// Путь к миграциям относительно текущего файла
	migrationsPath := filepath.Join("..", "..", "..", "..", "migrations")

	// Создаём PostgreSQL контейнер
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		postgres.WithInitScripts(
			filepath.Join(migrationsPath, "000001_init.up.sql"),
		),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	// Получаем connection string
	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// Создаём connection pool
	poolConfig, err := pgxpool.ParseConfig(connStr)
	require.NoError(t, err)

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = 1 * time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	require.NoError(t, err)

	// Проверяем подключение
	err = pool.Ping(ctx)
	require.NoError(t, err)

	sharedTestContainer = &testContainer{
		container: container,
		pool:      pool,
	}

	return sharedTestContainer
}

// cleanupTables очищает все таблицы для следующего теста.
func cleanupTables(t *testing.T, pool *pgxpool.Pool) {
	ctx := context.Background()

	// Важно: очищаем в правильном порядке из-за foreign keys
	tables := []string{"outbox", "ledger_entries", "transactions", "wallets", "assets", "users"}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		if err != nil {
			t.Logf("Warning: failed to cleanup %s: %v", table, err)
		}
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// economy - минимальный набор сущностей для переводов:
// Treasury с большим запасом, игрок с заданным балансом, один актив.
type economy struct {
	treasury       *entities.User
	player         *entities.User
	asset          *entities.Asset
	treasuryWallet *entities.Wallet
	playerWallet   *entities.Wallet
}

func seedEconomy(t *testing.T, pool *pgxpool.Pool, playerBalance string) *economy {
	t.Helper()
	ctx := context.Background()

	userRepo := NewUserRepository(pool)
	assetRepo := NewAssetRepository(pool)
	walletRepo := NewWalletRepository(pool)

	treasury, err := entities.NewUser("treasury@system.local", "Treasury")
	require.NoError(t, err)
	require.NoError(t, userRepo.Save(ctx, treasury))

	player, err := entities.NewUser("alice@example.com", "Alice")
	require.NoError(t, err)
	require.NoError(t, userRepo.Save(ctx, player))

	asset, err := entities.NewAsset("GOLD", "Gold Coins")
	require.NoError(t, err)
	require.NoError(t, assetRepo.Save(ctx, asset))

	// Treasury засеян ровно на стартовый supply: каждый SPEND кредитует
	// его сверх этой величины.
	treasuryWallet := entities.NewWallet(treasury.ID(), asset.ID(), valueobjects.MustAmount("1000000000"))
	require.NoError(t, walletRepo.Save(ctx, treasuryWallet))

	playerWallet := entities.NewWallet(player.ID(), asset.ID(), valueobjects.MustAmount(playerBalance))
	require.NoError(t, walletRepo.Save(ctx, playerWallet))

	return &economy{
		treasury:       treasury,
		player:         player,
		asset:          asset,
		treasuryWallet: treasuryWallet,
		playerWallet:   playerWallet,
	}
}

// newTransferUseCase собирает use case на реальных repositories.
// Redis недоступен (nil client), поэтому идемпотентность обеспечивает БД.
func newTransferUseCase(pool *pgxpool.Pool, treasuryID uuid.UUID) *transfer.ExecuteTransferUseCase {
	outbox := NewOutboxRepository(pool)
	return transfer.NewExecuteTransferUseCase(
		NewAssetRepository(pool),
		NewWalletRepository(pool),
		NewTransactionRepository(pool),
		NewLedgerRepository(pool),
		outbox,
		NewUnitOfWork(pool, 5*time.Second),
		rediscache.NewIdempotencyStore(nil, discardLogger(), 10*time.Second),
		transfer.NewCounterpartyRouter(treasuryID),
		discardLogger(),
		24*time.Hour,
	)
}

// totalSupply суммирует балансы всех кошельков актива.
func totalSupply(t *testing.T, pool *pgxpool.Pool, assetID uuid.UUID) decimal.Decimal {
	t.Helper()

	var sumStr string
	err := pool.QueryRow(context.Background(),
		`SELECT COALESCE(SUM(balance), 0)::text FROM wallets WHERE asset_id = $1`, assetID,
	).Scan(&sumStr)
	require.NoError(t, err)

	sum, err := decimal.NewFromString(sumStr)
	require.NoError(t, err)
	return sum
}

// ============================================
// UserRepository Tests
// ============================================

func TestUserRepository_Integration_Save(t *testing.T) {
	tc := setupSharedTestDB(t)

	repo := NewUserRepository(tc.pool)
	ctx := context.Background()

	t.Run("SaveAndFind", func(t *testing.T) {
		user, err := entities.NewUser("test@example.com", "Test User")
		require.NoError(t, err)

		err = repo.Save(ctx, user)
		assert.NoError(t, err)

		loaded, err := repo.FindByID(ctx, user.ID())
		require.NoError(t, err)
		assert.Equal(t, user.Email(), loaded.Email())
		assert.Equal(t, user.Name(), loaded.Name())
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		user1, _ := entities.NewUser("duplicate@example.com", "User 1")
		require.NoError(t, repo.Save(ctx, user1))

		user2, _ := entities.NewUser("duplicate@example.com", "User 2")
		err := repo.Save(ctx, user2)

		assert.Error(t, err)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())

		assert.Error(t, err)
		assert.True(t, domerrors.IsNotFound(err))
	})
}

func TestUserRepository_Integration_FindByEmail(t *testing.T) {
	tc := setupSharedTestDB(t)

	repo := NewUserRepository(tc.pool)
	ctx := context.Background()

	t.Run("CaseInsensitive", func(t *testing.T) {
		user, _ := entities.NewUser("email@example.com", "Email User")
		require.NoError(t, repo.Save(ctx, user))

		found, err := repo.FindByEmail(ctx, "EMAIL@Example.COM")

		assert.NoError(t, err)
		assert.Equal(t, user.ID(), found.ID())
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := repo.FindByEmail(ctx, "nonexistent@example.com")

		assert.Error(t, err)
		assert.True(t, domerrors.IsNotFound(err))
	})
}

// ============================================
// AssetRepository Tests
// ============================================

func TestAssetRepository_Integration(t *testing.T) {
	tc := setupSharedTestDB(t)

	repo := NewAssetRepository(tc.pool)
	ctx := context.Background()

	t.Run("SaveAndFindBySymbol", func(t *testing.T) {
		asset, err := entities.NewAsset("GOLD", "Gold Coins")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, asset))

		// клиент присылает символ в любом регистре
		found, err := repo.FindBySymbol(ctx, "  gold ")
		require.NoError(t, err)
		assert.Equal(t, asset.ID(), found.ID())
		assert.Equal(t, "GOLD", found.Symbol())
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := repo.FindBySymbol(ctx, "SILVER")

		assert.Error(t, err)
		assert.True(t, domerrors.IsNotFound(err))
	})

	t.Run("SymbolUniqueIgnoringCase", func(t *testing.T) {
		asset, err := entities.NewAsset("DIAMOND", "Diamonds")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, asset))

		// схема отбивает дубликат даже в обход нормализации приложения
		_, err = tc.pool.Exec(ctx,
			`INSERT INTO assets (id, symbol, name) VALUES ($1, 'diamond', 'Lowercase Diamonds')`,
			uuid.New(),
		)
		assert.Error(t, err)
	})
}

// ============================================
// WalletRepository Tests
// ============================================

func TestWalletRepository_Integration_SaveAndFind(t *testing.T) {
	tc := setupSharedTestDB(t)
	eco := seedEconomy(t, tc.pool, "500")

	repo := NewWalletRepository(tc.pool)
	ctx := context.Background()

	t.Run("FindByUserAndAsset", func(t *testing.T) {
		found, err := repo.FindByUserAndAsset(ctx, eco.player.ID(), eco.asset.ID())
		require.NoError(t, err)
		assert.Equal(t, eco.playerWallet.ID(), found.ID())
		assert.Equal(t, "500.0000", found.Balance().String())
	})

	t.Run("FindByUserID", func(t *testing.T) {
		wallets, err := repo.FindByUserID(ctx, eco.player.ID())
		require.NoError(t, err)
		require.Len(t, wallets, 1)
		assert.Equal(t, eco.playerWallet.ID(), wallets[0].ID())
	})

	t.Run("MissingWallet", func(t *testing.T) {
		_, err := repo.FindByUserAndAsset(ctx, uuid.New(), eco.asset.ID())

		assert.Error(t, err)
		assert.True(t, domerrors.IsNotFound(err))
	})
}

func TestWalletRepository_Integration_LockPair(t *testing.T) {
	tc := setupSharedTestDB(t)
	eco := seedEconomy(t, tc.pool, "500")

	repo := NewWalletRepository(tc.pool)
	uow := NewUnitOfWork(tc.pool, 5*time.Second)
	ctx := context.Background()

	t.Run("ReturnsBothWallets", func(t *testing.T) {
		err := uow.Execute(ctx, func(txCtx context.Context) error {
			wallets, err := repo.LockPair(txCtx, eco.treasury.ID(), eco.player.ID(), eco.asset.ID())
			require.NoError(t, err)
			require.Len(t, wallets, 2)

			// канонический порядок: сортировка по user_id, не по порядку аргументов
			assert.True(t, wallets[0].UserID().String() < wallets[1].UserID().String())
			return nil
		})
		assert.NoError(t, err)
	})

	t.Run("MissingCounterparty", func(t *testing.T) {
		err := uow.Execute(ctx, func(txCtx context.Context) error {
			_, err := repo.LockPair(txCtx, eco.treasury.ID(), uuid.New(), eco.asset.ID())
			return err
		})

		assert.Error(t, err)
		assert.True(t, domerrors.IsNotFound(err))
	})
}

func TestWalletRepository_Integration_UpdateBalance(t *testing.T) {
	tc := setupSharedTestDB(t)
	eco := seedEconomy(t, tc.pool, "500")

	repo := NewWalletRepository(tc.pool)
	ctx := context.Background()

	t.Run("PersistsNewBalance", func(t *testing.T) {
		wallet, err := repo.FindByID(ctx, eco.playerWallet.ID())
		require.NoError(t, err)
		require.NoError(t, wallet.Credit(valueobjects.MustAmount("100")))

		require.NoError(t, repo.UpdateBalance(ctx, wallet))

		reloaded, err := repo.FindByID(ctx, wallet.ID())
		require.NoError(t, err)
		assert.Equal(t, "600.0000", reloaded.Balance().String())
	})

	t.Run("CheckConstraintRejectsNegative", func(t *testing.T) {
		// Отрицательный баланс в памяти: CHECK (balance >= 0) в схеме
		// должен отбить запись, даже если приложение её допустило.
		negative := valueobjects.RawAmount(decimal.NewFromInt(-10))
		broken := entities.ReconstructWallet(
			eco.playerWallet.ID(), eco.player.ID(), eco.asset.ID(),
			negative, time.Now(), time.Now(),
		)

		err := repo.UpdateBalance(ctx, broken)

		assert.Error(t, err)
		assert.True(t, domerrors.IsCorruption(err))
	})

	t.Run("UnknownWallet", func(t *testing.T) {
		ghost := entities.NewWallet(eco.player.ID(), eco.asset.ID(), valueobjects.MustAmount("1"))
		err := repo.UpdateBalance(ctx, ghost)

		assert.Error(t, err)
		assert.True(t, domerrors.IsNotFound(err))
	})
}

// ============================================
// TransactionRepository Tests
// ============================================

func TestTransactionRepository_Integration_Save(t *testing.T) {
	tc := setupSharedTestDB(t)
	eco := seedEconomy(t, tc.pool, "500")

	repo := NewTransactionRepository(tc.pool)
	ctx := context.Background()

	t.Run("SaveAndFindByKey", func(t *testing.T) {
		tx, err := entities.NewTransaction(
			"tx-key-1", eco.treasuryWallet.ID(), eco.playerWallet.ID(),
			valueobjects.MustAmount("100"), entities.TransactionTypeTopUp,
		)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, tx))

		found, err := repo.FindByIdempotencyKey(ctx, "tx-key-1")
		require.NoError(t, err)
		assert.Equal(t, tx.ID(), found.ID())
		assert.Equal(t, "100.0000", found.Amount().String())
		assert.Equal(t, entities.TransactionTypeTopUp, found.Type())
	})

	t.Run("DuplicateIdempotencyKey", func(t *testing.T) {
		first, _ := entities.NewTransaction(
			"tx-key-dup", eco.treasuryWallet.ID(), eco.playerWallet.ID(),
			valueobjects.MustAmount("100"), entities.TransactionTypeTopUp,
		)
		require.NoError(t, repo.Save(ctx, first))

		second, _ := entities.NewTransaction(
			"tx-key-dup", eco.treasuryWallet.ID(), eco.playerWallet.ID(),
			valueobjects.MustAmount("200"), entities.TransactionTypeBonus,
		)
		err := repo.Save(ctx, second)

		// UNIQUE(idempotency_key) - финальный арбитр
		assert.ErrorIs(t, err, domerrors.ErrDuplicateTransaction)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())

		assert.Error(t, err)
		assert.True(t, domerrors.IsNotFound(err))
	})
}

func TestTransactionRepository_Integration_ListByWallets(t *testing.T) {
	tc := setupSharedTestDB(t)
	eco := seedEconomy(t, tc.pool, "500")

	repo := NewTransactionRepository(tc.pool)
	ctx := context.Background()

	// 3 TOP_UP + 2 SPEND
	for i := 0; i < 3; i++ {
		tx, _ := entities.NewTransaction(
			fmt.Sprintf("list-topup-%d", i), eco.treasuryWallet.ID(), eco.playerWallet.ID(),
			valueobjects.MustAmount("10"), entities.TransactionTypeTopUp,
		)
		require.NoError(t, repo.Save(ctx, tx))
	}
	for i := 0; i < 2; i++ {
		tx, _ := entities.NewTransaction(
			fmt.Sprintf("list-spend-%d", i), eco.playerWallet.ID(), eco.treasuryWallet.ID(),
			valueobjects.MustAmount("5"), entities.TransactionTypeSpend,
		)
		require.NoError(t, repo.Save(ctx, tx))
	}

	walletIDs := []uuid.UUID{eco.playerWallet.ID()}

	t.Run("NoFilter", func(t *testing.T) {
		txs, total, err := repo.ListByWallets(ctx, walletIDs, ports.TransactionFilter{}, 0, 10)
		require.NoError(t, err)
		assert.Equal(t, 5, total)
		assert.Len(t, txs, 5)
	})

	t.Run("TypeFilter", func(t *testing.T) {
		spend := entities.TransactionTypeSpend
		txs, total, err := repo.ListByWallets(ctx, walletIDs, ports.TransactionFilter{Type: &spend}, 0, 10)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		for _, tx := range txs {
			assert.Equal(t, entities.TransactionTypeSpend, tx.Type())
		}
	})

	t.Run("Pagination", func(t *testing.T) {
		txs, total, err := repo.ListByWallets(ctx, walletIDs, ports.TransactionFilter{}, 4, 2)
		require.NoError(t, err)
		assert.Equal(t, 5, total)
		assert.Len(t, txs, 1)
	})

	t.Run("DateFilterExcludesAll", func(t *testing.T) {
		future := time.Now().Add(24 * time.Hour)
		txs, total, err := repo.ListByWallets(ctx, walletIDs, ports.TransactionFilter{DateFrom: &future}, 0, 10)
		require.NoError(t, err)
		assert.Equal(t, 0, total)
		assert.Empty(t, txs)
	})
}

// ============================================
// LedgerRepository Tests
// ============================================

func TestLedgerRepository_Integration(t *testing.T) {
	tc := setupSharedTestDB(t)
	eco := seedEconomy(t, tc.pool, "500")

	txRepo := NewTransactionRepository(tc.pool)
	repo := NewLedgerRepository(tc.pool)
	ctx := context.Background()

	tx, _ := entities.NewTransaction(
		"ledger-tx-1", eco.treasuryWallet.ID(), eco.playerWallet.ID(),
		valueobjects.MustAmount("100"), entities.TransactionTypeTopUp,
	)
	require.NoError(t, txRepo.Save(ctx, tx))

	debit := entities.NewLedgerEntry(
		tx.ID(), eco.treasuryWallet.ID(), entities.EntryTypeDebit,
		valueobjects.MustAmount("100"), valueobjects.MustAmount("999900"),
	)
	credit := entities.NewLedgerEntry(
		tx.ID(), eco.playerWallet.ID(), entities.EntryTypeCredit,
		valueobjects.MustAmount("100"), valueobjects.MustAmount("600"),
	)
	require.NoError(t, repo.SavePair(ctx, debit, credit))

	t.Run("FindByTransactionID", func(t *testing.T) {
		entries, err := repo.FindByTransactionID(ctx, tx.ID())
		require.NoError(t, err)
		require.Len(t, entries, 2)

		// CREDIT первым (сортировка по типу)
		assert.Equal(t, entities.EntryTypeCredit, entries[0].Type())
		assert.Equal(t, "600.0000", entries[0].BalanceAfter().String())
		assert.Equal(t, entities.EntryTypeDebit, entries[1].Type())
		assert.Equal(t, "999900.0000", entries[1].BalanceAfter().String())
	})

	t.Run("ListByWallet", func(t *testing.T) {
		entries, total, err := repo.ListByWallet(ctx, eco.playerWallet.ID(), 0, 20)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, entries, 1)
		assert.Equal(t, eco.playerWallet.ID(), entries[0].WalletID())
	})

	t.Run("ListByWallet_EmptyPage", func(t *testing.T) {
		entries, total, err := repo.ListByWallet(ctx, eco.playerWallet.ID(), 10, 20)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Empty(t, entries)
	})
}

// ============================================
// OutboxRepository Tests
// ============================================

func TestOutboxRepository_Integration(t *testing.T) {
	tc := setupSharedTestDB(t)

	repo := NewOutboxRepository(tc.pool)
	ctx := context.Background()

	event := events.NewTransferCommitted(
		uuid.New(), "outbox-key-1", "TOP_UP", "GOLD",
		uuid.New(), uuid.New(),
		valueobjects.MustAmount("100"),
		valueobjects.MustAmount("999900"),
		valueobjects.MustAmount("600"),
	)
	require.NoError(t, repo.Save(ctx, event))

	t.Run("FindUnpublished", func(t *testing.T) {
		entries, err := repo.FindUnpublished(ctx, 10)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, event.EventID().String(), entries[0].EventID)
		assert.Equal(t, events.EventTypeTransferCommitted, entries[0].EventType)
	})

	t.Run("MarkPublished", func(t *testing.T) {
		require.NoError(t, repo.MarkPublished(ctx, event.EventID().String()))

		entries, err := repo.FindUnpublished(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, entries)

		// повторная публикация того же события - ошибка
		assert.Error(t, repo.MarkPublished(ctx, event.EventID().String()))
	})

	t.Run("CleanupPublished", func(t *testing.T) {
		// только что опубликованное событие ещё не попадает под cutoff
		deleted, err := repo.CleanupPublished(ctx, time.Hour)
		require.NoError(t, err)
		assert.Equal(t, int64(0), deleted)

		deleted, err = repo.CleanupPublished(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(1), deleted)
	})
}

// ============================================
// UnitOfWork Tests
// ============================================

func TestUnitOfWork_Integration(t *testing.T) {
	tc := setupSharedTestDB(t)

	uow := NewUnitOfWork(tc.pool, 5*time.Second)
	userRepo := NewUserRepository(tc.pool)
	ctx := context.Background()

	t.Run("CommitPersists", func(t *testing.T) {
		user, _ := entities.NewUser("commit@example.com", "Commit User")

		err := uow.Execute(ctx, func(txCtx context.Context) error {
			return userRepo.Save(txCtx, user)
		})
		require.NoError(t, err)

		_, err = userRepo.FindByID(ctx, user.ID())
		assert.NoError(t, err)
	})

	t.Run("ErrorRollsBack", func(t *testing.T) {
		user, _ := entities.NewUser("rollback@example.com", "Rollback User")

		err := uow.Execute(ctx, func(txCtx context.Context) error {
			if err := userRepo.Save(txCtx, user); err != nil {
				return err
			}
			return fmt.Errorf("forced failure")
		})
		require.Error(t, err)

		_, err = userRepo.FindByID(ctx, user.ID())
		assert.True(t, domerrors.IsNotFound(err), "rolled back user must not exist")
	})

	t.Run("NestedExecuteReusesTransaction", func(t *testing.T) {
		err := uow.Execute(ctx, func(txCtx context.Context) error {
			require.True(t, hasTx(txCtx))
			return uow.Execute(txCtx, func(innerCtx context.Context) error {
				require.True(t, hasTx(innerCtx))
				return nil
			})
		})
		assert.NoError(t, err)
	})
}

// ============================================
// End-to-end: ExecuteTransfer против реальной БД
// ============================================

func TestExecuteTransfer_Integration(t *testing.T) {
	ctx := context.Background()

	t.Run("TopUpThenSpend", func(t *testing.T) {
		tc := setupSharedTestDB(t)
		eco := seedEconomy(t, tc.pool, "500")
		uc := newTransferUseCase(tc.pool, eco.treasury.ID())

		result, err := uc.Execute(ctx, dtos.ExecuteTransferCommand{
			IdempotencyKey: "e2e-topup-1",
			UserID:         eco.player.ID().String(),
			Asset:          "GOLD",
			Type:           "TOP_UP",
			Amount:         "100",
		})
		require.NoError(t, err)
		assert.Equal(t, "600.0000", result.Balance)
		assert.False(t, result.Cached)

		result, err = uc.Execute(ctx, dtos.ExecuteTransferCommand{
			IdempotencyKey: "e2e-spend-1",
			UserID:         eco.player.ID().String(),
			Asset:          "gold",
			Type:           "SPEND",
			Amount:         "50",
		})
		require.NoError(t, err)
		assert.Equal(t, "550.0000", result.Balance)

		// двойная запись: у каждой транзакции ровно две проводки
		var entryCount int
		require.NoError(t, tc.pool.QueryRow(ctx, `SELECT COUNT(*) FROM ledger_entries`).Scan(&entryCount))
		assert.Equal(t, 4, entryCount)

		// деньги не создаются и не исчезают
		assert.True(t, totalSupply(t, tc.pool, eco.asset.ID()).Equal(decimal.NewFromInt(1000000500)))

		// SPEND увёл Treasury выше стартового supply
		treasuryWallet, err := NewWalletRepository(tc.pool).FindByID(ctx, eco.treasuryWallet.ID())
		require.NoError(t, err)
		assert.Equal(t, "999999950.0000", treasuryWallet.Balance().String())
	})

	t.Run("SpendCreditsTreasuryPastSeedSupply", func(t *testing.T) {
		tc := setupSharedTestDB(t)
		eco := seedEconomy(t, tc.pool, "500")
		uc := newTransferUseCase(tc.pool, eco.treasury.ID())

		result, err := uc.Execute(ctx, dtos.ExecuteTransferCommand{
			IdempotencyKey: "e2e-supply-cap",
			UserID:         eco.player.ID().String(),
			Asset:          "GOLD",
			Type:           "SPEND",
			Amount:         "50",
		})
		require.NoError(t, err)
		assert.Equal(t, "450.0000", result.Balance)

		treasuryWallet, err := NewWalletRepository(tc.pool).FindByID(ctx, eco.treasuryWallet.ID())
		require.NoError(t, err)
		assert.Equal(t, "1000000050.0000", treasuryWallet.Balance().String())
	})

	t.Run("InsufficientFunds", func(t *testing.T) {
		tc := setupSharedTestDB(t)
		eco := seedEconomy(t, tc.pool, "100")
		uc := newTransferUseCase(tc.pool, eco.treasury.ID())

		_, err := uc.Execute(ctx, dtos.ExecuteTransferCommand{
			IdempotencyKey: "e2e-overdraft",
			UserID:         eco.player.ID().String(),
			Asset:          "GOLD",
			Type:           "SPEND",
			Amount:         "10000",
		})
		require.Error(t, err)
		assert.True(t, domerrors.IsInsufficientFunds(err))

		// отказ не оставляет следов
		var txCount int
		require.NoError(t, tc.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&txCount))
		assert.Equal(t, 0, txCount)

		wallet, err := NewWalletRepository(tc.pool).FindByID(ctx, eco.playerWallet.ID())
		require.NoError(t, err)
		assert.Equal(t, "100.0000", wallet.Balance().String())
	})

	t.Run("IdempotentReplay", func(t *testing.T) {
		tc := setupSharedTestDB(t)
		eco := seedEconomy(t, tc.pool, "500")
		uc := newTransferUseCase(tc.pool, eco.treasury.ID())

		cmd := dtos.ExecuteTransferCommand{
			IdempotencyKey: "e2e-replay",
			UserID:         eco.player.ID().String(),
			Asset:          "GOLD",
			Type:           "TOP_UP",
			Amount:         "100",
		}

		first, err := uc.Execute(ctx, cmd)
		require.NoError(t, err)

		second, err := uc.Execute(ctx, cmd)
		require.NoError(t, err)

		// тот же результат, без повторного движения денег
		assert.Equal(t, first.TransactionID, second.TransactionID)
		assert.Equal(t, first.Balance, second.Balance)
		assert.True(t, second.Cached)

		var txCount int
		require.NoError(t, tc.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&txCount))
		assert.Equal(t, 1, txCount)

		wallet, err := NewWalletRepository(tc.pool).FindByID(ctx, eco.playerWallet.ID())
		require.NoError(t, err)
		assert.Equal(t, "600.0000", wallet.Balance().String())
	})

	t.Run("ConcurrentSameKey", func(t *testing.T) {
		tc := setupSharedTestDB(t)
		eco := seedEconomy(t, tc.pool, "500")
		uc := newTransferUseCase(tc.pool, eco.treasury.ID())

		cmd := dtos.ExecuteTransferCommand{
			IdempotencyKey: "e2e-race",
			UserID:         eco.player.ID().String(),
			Asset:          "GOLD",
			Type:           "TOP_UP",
			Amount:         "100",
		}

		const workers = 8
		results := make([]*dtos.TransferResultDTO, workers)
		errs := make([]error, workers)

		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				results[idx], errs[idx] = uc.Execute(ctx, cmd)
			}(i)
		}
		wg.Wait()

		// все видят один и тот же коммит
		var winnerID string
		for i := 0; i < workers; i++ {
			require.NoError(t, errs[i], "worker %d", i)
			if winnerID == "" {
				winnerID = results[i].TransactionID
			}
			assert.Equal(t, winnerID, results[i].TransactionID)
			assert.Equal(t, "600.0000", results[i].Balance)
		}

		// ровно один коммит на ключ
		var txCount int
		require.NoError(t, tc.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE idempotency_key = $1`, cmd.IdempotencyKey).Scan(&txCount))
		assert.Equal(t, 1, txCount)

		wallet, err := NewWalletRepository(tc.pool).FindByID(ctx, eco.playerWallet.ID())
		require.NoError(t, err)
		assert.Equal(t, "600.0000", wallet.Balance().String())
	})

	t.Run("ConcurrentDistinctKeys", func(t *testing.T) {
		tc := setupSharedTestDB(t)
		eco := seedEconomy(t, tc.pool, "500")
		uc := newTransferUseCase(tc.pool, eco.treasury.ID())

		const workers = 10
		errs := make([]error, workers)

		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				_, errs[idx] = uc.Execute(ctx, dtos.ExecuteTransferCommand{
					IdempotencyKey: fmt.Sprintf("e2e-parallel-%d", idx),
					UserID:         eco.player.ID().String(),
					Asset:          "GOLD",
					Type:           "TOP_UP",
					Amount:         "25",
				})
			}(i)
		}
		wg.Wait()

		for i, err := range errs {
			require.NoError(t, err, "worker %d", i)
		}

		// 500 + 10*25 = 750, и общий запас актива не изменился
		wallet, err := NewWalletRepository(tc.pool).FindByID(ctx, eco.playerWallet.ID())
		require.NoError(t, err)
		assert.Equal(t, "750.0000", wallet.Balance().String())

		assert.True(t, totalSupply(t, tc.pool, eco.asset.ID()).Equal(decimal.NewFromInt(1000000500)))
	})

	t.Run("ConcurrentMixedDirections", func(t *testing.T) {
		tc := setupSharedTestDB(t)
		eco := seedEconomy(t, tc.pool, "500")
		uc := newTransferUseCase(tc.pool, eco.treasury.ID())

		// Встречные переводы по одной и той же паре кошельков:
		// TOP_UP дебетует Treasury, SPEND кредитует его. Порядок блокировок
		// канонический (по user_id), поэтому retry-бюджета на contention
		// должно хватать на все запросы.
		const pairs = 5
		errs := make([]error, pairs*2)

		var wg sync.WaitGroup
		for i := 0; i < pairs; i++ {
			wg.Add(2)
			go func(idx int) {
				defer wg.Done()
				_, errs[idx*2] = uc.Execute(ctx, dtos.ExecuteTransferCommand{
					IdempotencyKey: fmt.Sprintf("e2e-mixed-topup-%d", idx),
					UserID:         eco.player.ID().String(),
					Asset:          "GOLD",
					Type:           "TOP_UP",
					Amount:         "40",
				})
			}(i)
			go func(idx int) {
				defer wg.Done()
				_, errs[idx*2+1] = uc.Execute(ctx, dtos.ExecuteTransferCommand{
					IdempotencyKey: fmt.Sprintf("e2e-mixed-spend-%d", idx),
					UserID:         eco.player.ID().String(),
					Asset:          "GOLD",
					Type:           "SPEND",
					Amount:         "40",
				})
			}(i)
		}
		wg.Wait()

		for i, err := range errs {
			require.NoError(t, err, "transfer %d", i)
		}

		// равное число встречных переводов: баланс игрока не изменился
		wallet, err := NewWalletRepository(tc.pool).FindByID(ctx, eco.playerWallet.ID())
		require.NoError(t, err)
		assert.Equal(t, "500.0000", wallet.Balance().String())

		var txCount int
		require.NoError(t, tc.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&txCount))
		assert.Equal(t, pairs*2, txCount)

		assert.True(t, totalSupply(t, tc.pool, eco.asset.ID()).Equal(decimal.NewFromInt(1000000500)))
	})

	t.Run("OutboxRowWrittenWithTransfer", func(t *testing.T) {
		tc := setupSharedTestDB(t)
		eco := seedEconomy(t, tc.pool, "500")
		uc := newTransferUseCase(tc.pool, eco.treasury.ID())

		result, err := uc.Execute(ctx, dtos.ExecuteTransferCommand{
			IdempotencyKey: "e2e-outbox",
			UserID:         eco.player.ID().String(),
			Asset:          "GOLD",
			Type:           "BONUS",
			Amount:         "10",
		})
		require.NoError(t, err)

		entries, err := NewOutboxRepository(tc.pool).FindUnpublished(ctx, 10)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, events.EventTypeTransferCommitted, entries[0].EventType)
		assert.Equal(t, result.TransactionID, entries[0].AggregateID)
	})
}
