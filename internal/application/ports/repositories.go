// Package ports определяет интерфейсы (порты) для внешних зависимостей.
// Эти интерфейсы реализуются в Infrastructure Layer.
//
// SOLID Principles:
// - DIP: Application зависит от абстракций, не от конкретных реализаций
// - ISP: Каждый интерфейс фокусируется на одной сущности
// - SRP: Repository отвечает только за persistence
//
// Pattern: Repository Pattern + Ports & Adapters (Hexagonal Architecture)
package ports

import (
	"context"
	"time"

	"github.com/gamevault/walletd/internal/domain/entities"
	"github.com/google/uuid"
)

// UserRepository определяет контракт для хранения пользователей.
type UserRepository interface {
	// Save сохраняет пользователя (create or update на основе ID).
	Save(ctx context.Context, user *entities.User) error

	// FindByID загружает пользователя по ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entities.User, error)

	// FindByEmail загружает пользователя по email.
	// Email уникален в системе (UNIQUE constraint).
	FindByEmail(ctx context.Context, email string) (*entities.User, error)
}

// AssetRepository определяет контракт для хранения активов.
// Активы создаются при bootstrap и неизменяемы.
type AssetRepository interface {
	// Save сохраняет актив.
	Save(ctx context.Context, asset *entities.Asset) error

	// FindByID загружает актив по ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Asset, error)

	// FindBySymbol находит актив по символу (case-insensitive, символ
	// нормализуется перед запросом).
	FindBySymbol(ctx context.Context, symbol string) (*entities.Asset, error)
}

// WalletRepository определяет контракт для хранения кошельков.
//
// Важно: движок переводов обновляет балансы ТОЛЬКО через LockPair +
// UpdateBalance внутри транзакции UnitOfWork. Чтение без блокировки
// допустимо только для read-проекций.
type WalletRepository interface {
	// Save сохраняет кошелёк (используется bootstrap/seed).
	Save(ctx context.Context, wallet *entities.Wallet) error

	// FindByID загружает кошелёк по ID без блокировки.
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Wallet, error)

	// FindByUserAndAsset находит кошелёк пользователя для конкретного актива.
	// У пользователя ровно один кошелёк на актив (UNIQUE constraint).
	FindByUserAndAsset(ctx context.Context, userID, assetID uuid.UUID) (*entities.Wallet, error)

	// FindByUserID возвращает все кошельки пользователя.
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]*entities.Wallet, error)

	// LockPair загружает оба кошелька пары (userID, counterpartyID) для
	// актива под row-level блокировкой, в каноническом порядке по user_id.
	// Канонический порядок один для всех конкурирующих запросов, что
	// исключает взаимные блокировки между парами.
	// Должен вызываться только внутри транзакции UnitOfWork.
	LockPair(ctx context.Context, userIDA, userIDB, assetID uuid.UUID) ([]*entities.Wallet, error)

	// UpdateBalance записывает новый баланс кошелька.
	// Должен вызываться только внутри транзакции UnitOfWork.
	UpdateBalance(ctx context.Context, wallet *entities.Wallet) error
}

// TransactionRepository определяет контракт для хранения транзакций.
type TransactionRepository interface {
	// Save сохраняет транзакцию. UNIQUE(idempotency_key) в БД является
	// финальным арбитром от дубликатов.
	Save(ctx context.Context, tx *entities.Transaction) error

	// FindByID загружает транзакцию по ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Transaction, error)

	// FindByIdempotencyKey находит транзакцию по ключу идемпотентности.
	// Критично для предотвращения дубликатов!
	FindByIdempotencyKey(ctx context.Context, key string) (*entities.Transaction, error)

	// ListByWallets возвращает транзакции, где любой из кошельков является
	// стороной перевода, с фильтрацией и пагинацией (новые первыми).
	// Возвращает также полное число строк под фильтром для пагинации.
	ListByWallets(ctx context.Context, walletIDs []uuid.UUID, filter TransactionFilter, offset, limit int) ([]*entities.Transaction, int, error)
}

// TransactionFilter определяет критерии фильтрации истории транзакций.
// Все фильтры применяются на стороне SQL, не в памяти.
type TransactionFilter struct {
	Type     *entities.TransactionType // Фильтр по типу операции
	DateFrom *time.Time                // created_at >= DateFrom
	DateTo   *time.Time                // created_at <= DateTo
}

// LedgerRepository определяет контракт для append-only журнала проводок.
type LedgerRepository interface {
	// SavePair атомарно сохраняет обе стороны двойной записи.
	// Должен вызываться только внутри транзакции UnitOfWork.
	SavePair(ctx context.Context, debit, credit *entities.LedgerEntry) error

	// FindByTransactionID возвращает обе проводки транзакции.
	FindByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]*entities.LedgerEntry, error)

	// ListByWallet возвращает проводки кошелька с пагинацией
	// (новые первыми) и полное число строк.
	ListByWallet(ctx context.Context, walletID uuid.UUID, offset, limit int) ([]*entities.LedgerEntry, int, error)
}
