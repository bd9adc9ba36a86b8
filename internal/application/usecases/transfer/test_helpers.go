// Test helpers: function-field моки портов для unit-тестов движка
// переводов. Каждый мок реализует ровно один порт; поведение задаётся
// полями-функциями в конкретном тесте.
package transfer

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gamevault/walletd/internal/application/ports"
	"github.com/gamevault/walletd/internal/domain/entities"
	"github.com/gamevault/walletd/internal/domain/errors"
	"github.com/gamevault/walletd/internal/domain/events"
	"github.com/gamevault/walletd/internal/domain/valueobjects"
)

// testLogger - логгер, пишущий в никуда.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ============================================
// Repository mocks
// ============================================

type mockUserRepo struct {
	saveFunc        func(ctx context.Context, user *entities.User) error
	findByIDFunc    func(ctx context.Context, id uuid.UUID) (*entities.User, error)
	findByEmailFunc func(ctx context.Context, email string) (*entities.User, error)
}

func (m *mockUserRepo) Save(ctx context.Context, user *entities.User) error {
	return m.saveFunc(ctx, user)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	return m.findByIDFunc(ctx, id)
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	return m.findByEmailFunc(ctx, email)
}

type mockAssetRepo struct {
	saveFunc         func(ctx context.Context, asset *entities.Asset) error
	findByIDFunc     func(ctx context.Context, id uuid.UUID) (*entities.Asset, error)
	findBySymbolFunc func(ctx context.Context, symbol string) (*entities.Asset, error)
}

func (m *mockAssetRepo) Save(ctx context.Context, asset *entities.Asset) error {
	return m.saveFunc(ctx, asset)
}

func (m *mockAssetRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.Asset, error) {
	return m.findByIDFunc(ctx, id)
}

func (m *mockAssetRepo) FindBySymbol(ctx context.Context, symbol string) (*entities.Asset, error) {
	return m.findBySymbolFunc(ctx, symbol)
}

type mockWalletRepo struct {
	saveFunc               func(ctx context.Context, wallet *entities.Wallet) error
	findByIDFunc           func(ctx context.Context, id uuid.UUID) (*entities.Wallet, error)
	findByUserAndAssetFunc func(ctx context.Context, userID, assetID uuid.UUID) (*entities.Wallet, error)
	findByUserIDFunc       func(ctx context.Context, userID uuid.UUID) ([]*entities.Wallet, error)
	lockPairFunc           func(ctx context.Context, userIDA, userIDB, assetID uuid.UUID) ([]*entities.Wallet, error)
	updateBalanceFunc      func(ctx context.Context, wallet *entities.Wallet) error
}

func (m *mockWalletRepo) Save(ctx context.Context, wallet *entities.Wallet) error {
	return m.saveFunc(ctx, wallet)
}

func (m *mockWalletRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.Wallet, error) {
	return m.findByIDFunc(ctx, id)
}

func (m *mockWalletRepo) FindByUserAndAsset(ctx context.Context, userID, assetID uuid.UUID) (*entities.Wallet, error) {
	return m.findByUserAndAssetFunc(ctx, userID, assetID)
}

func (m *mockWalletRepo) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*entities.Wallet, error) {
	return m.findByUserIDFunc(ctx, userID)
}

func (m *mockWalletRepo) LockPair(ctx context.Context, userIDA, userIDB, assetID uuid.UUID) ([]*entities.Wallet, error) {
	return m.lockPairFunc(ctx, userIDA, userIDB, assetID)
}

func (m *mockWalletRepo) UpdateBalance(ctx context.Context, wallet *entities.Wallet) error {
	return m.updateBalanceFunc(ctx, wallet)
}

type mockTransactionRepo struct {
	saveFunc                 func(ctx context.Context, tx *entities.Transaction) error
	findByIDFunc             func(ctx context.Context, id uuid.UUID) (*entities.Transaction, error)
	findByIdempotencyKeyFunc func(ctx context.Context, key string) (*entities.Transaction, error)
	listByWalletsFunc        func(ctx context.Context, walletIDs []uuid.UUID, filter ports.TransactionFilter, offset, limit int) ([]*entities.Transaction, int, error)
}

func (m *mockTransactionRepo) Save(ctx context.Context, tx *entities.Transaction) error {
	return m.saveFunc(ctx, tx)
}

func (m *mockTransactionRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.Transaction, error) {
	return m.findByIDFunc(ctx, id)
}

func (m *mockTransactionRepo) FindByIdempotencyKey(ctx context.Context, key string) (*entities.Transaction, error) {
	return m.findByIdempotencyKeyFunc(ctx, key)
}

func (m *mockTransactionRepo) ListByWallets(ctx context.Context, walletIDs []uuid.UUID, filter ports.TransactionFilter, offset, limit int) ([]*entities.Transaction, int, error) {
	return m.listByWalletsFunc(ctx, walletIDs, filter, offset, limit)
}

type mockLedgerRepo struct {
	savePairFunc            func(ctx context.Context, debit, credit *entities.LedgerEntry) error
	findByTransactionIDFunc func(ctx context.Context, transactionID uuid.UUID) ([]*entities.LedgerEntry, error)
	listByWalletFunc        func(ctx context.Context, walletID uuid.UUID, offset, limit int) ([]*entities.LedgerEntry, int, error)
}

func (m *mockLedgerRepo) SavePair(ctx context.Context, debit, credit *entities.LedgerEntry) error {
	return m.savePairFunc(ctx, debit, credit)
}

func (m *mockLedgerRepo) FindByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]*entities.LedgerEntry, error) {
	return m.findByTransactionIDFunc(ctx, transactionID)
}

func (m *mockLedgerRepo) ListByWallet(ctx context.Context, walletID uuid.UUID, offset, limit int) ([]*entities.LedgerEntry, int, error) {
	return m.listByWalletFunc(ctx, walletID, offset, limit)
}

// ============================================
// EventPublisher mock
// ============================================

// mockEventPublisher собирает опубликованные события; потокобезопасен,
// чтобы его можно было использовать и в конкурентных тестах.
type mockEventPublisher struct {
	mu     sync.Mutex
	events []events.DomainEvent
	err    error
}

func (m *mockEventPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

func (m *mockEventPublisher) published() []events.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]events.DomainEvent, len(m.events))
	copy(out, m.events)
	return out
}

// ============================================
// UnitOfWork mock
// ============================================

// mockUnitOfWork прозрачно выполняет fn без реальной транзакции.
// beforeAttempt позволяет тесту подменить состояние между ретраями.
type mockUnitOfWork struct {
	executeErr    bool // вернуть ContentionError вместо выполнения fn
	attempts      int
	beforeAttempt func(attempt int)
}

func (m *mockUnitOfWork) Execute(ctx context.Context, fn func(context.Context) error) error {
	m.attempts++
	if m.beforeAttempt != nil {
		m.beforeAttempt(m.attempts)
	}
	if m.executeErr {
		return errors.NewContentionError(3, context.DeadlineExceeded)
	}
	return fn(ctx)
}

func (m *mockUnitOfWork) ExecuteWithRetry(ctx context.Context, fn func(context.Context) error) error {
	return m.Execute(ctx, fn)
}

// ============================================
// IdempotencyStore fake
// ============================================

// fakeIdempotencyStore - in-memory кеш, фиксирующий вызовы.
type fakeIdempotencyStore struct {
	mu       sync.Mutex
	reserved map[string]bool
	outcomes map[string]ports.CachedOutcome

	unavailable bool // кеш недоступен: каждый Reserve отвечает Unavailable

	finalized []string
	released  []string
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{
		reserved: make(map[string]bool),
		outcomes: make(map[string]ports.CachedOutcome),
	}
}

func (f *fakeIdempotencyStore) ReserveOrFetch(ctx context.Context, key string) (ports.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.unavailable {
		return ports.Reservation{State: ports.ReservationUnavailable}, nil
	}
	if outcome, ok := f.outcomes[key]; ok {
		return ports.Reservation{State: ports.ReservationFinished, Outcome: &outcome}, nil
	}
	if f.reserved[key] {
		return ports.Reservation{State: ports.ReservationInFlight}, nil
	}
	f.reserved[key] = true
	return ports.Reservation{State: ports.ReservationAcquired}, nil
}

func (f *fakeIdempotencyStore) Finalize(ctx context.Context, key string, outcome ports.CachedOutcome, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.reserved, key)
	f.outcomes[key] = outcome
	f.finalized = append(f.finalized, key)
	return nil
}

func (f *fakeIdempotencyStore) Release(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.reserved, key)
	f.released = append(f.released, key)
	return nil
}

func (f *fakeIdempotencyStore) outcome(key string) (ports.CachedOutcome, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	outcome, ok := f.outcomes[key]
	return outcome, ok
}

// ============================================
// Fixture
// ============================================

// transferFixture - собранный use case с моками по умолчанию:
// актив GOLD существует, оба кошелька блокируются, все записи проходят.
type transferFixture struct {
	uc *ExecuteTransferUseCase

	treasuryID uuid.UUID
	userID     uuid.UUID
	asset      *entities.Asset

	treasuryWallet *entities.Wallet
	userWallet     *entities.Wallet

	assetRepo  *mockAssetRepo
	walletRepo *mockWalletRepo
	txRepo     *mockTransactionRepo
	ledgerRepo *mockLedgerRepo
	publisher  *mockEventPublisher
	uow        *mockUnitOfWork
	cache      *fakeIdempotencyStore

	savedTransactions []*entities.Transaction
	savedEntries      [][2]*entities.LedgerEntry
	updatedWallets    []*entities.Wallet
}

// newTransferFixture поднимает fixture: Treasury с балансом 1000000,
// пользователь с userBalance.
func newTransferFixture(userBalance string) *transferFixture {
	f := &transferFixture{
		treasuryID: uuid.New(),
		userID:     uuid.New(),
		publisher:  &mockEventPublisher{},
		uow:        &mockUnitOfWork{},
		cache:      newFakeIdempotencyStore(),
	}

	asset, err := entities.NewAsset("GOLD", "Gold")
	if err != nil {
		panic(err)
	}
	f.asset = asset

	f.treasuryWallet = entities.NewWallet(f.treasuryID, asset.ID(), valueobjects.MustAmount("1000000"))
	f.userWallet = entities.NewWallet(f.userID, asset.ID(), valueobjects.MustAmount(userBalance))

	f.assetRepo = &mockAssetRepo{
		findBySymbolFunc: func(ctx context.Context, symbol string) (*entities.Asset, error) {
			if entities.NormalizeSymbol(symbol) == asset.Symbol() {
				return asset, nil
			}
			return nil, errors.ErrAssetNotFound
		},
	}

	f.walletRepo = &mockWalletRepo{
		lockPairFunc: func(ctx context.Context, userIDA, userIDB, assetID uuid.UUID) ([]*entities.Wallet, error) {
			var wallets []*entities.Wallet
			for _, id := range []uuid.UUID{userIDA, userIDB} {
				switch id {
				case f.treasuryID:
					wallets = append(wallets, f.treasuryWallet)
				case f.userID:
					wallets = append(wallets, f.userWallet)
				}
			}
			return wallets, nil
		},
		updateBalanceFunc: func(ctx context.Context, wallet *entities.Wallet) error {
			f.updatedWallets = append(f.updatedWallets, wallet)
			return nil
		},
	}

	f.txRepo = &mockTransactionRepo{
		saveFunc: func(ctx context.Context, tx *entities.Transaction) error {
			f.savedTransactions = append(f.savedTransactions, tx)
			return nil
		},
		findByIdempotencyKeyFunc: func(ctx context.Context, key string) (*entities.Transaction, error) {
			return nil, errors.ErrEntityNotFound
		},
	}

	f.ledgerRepo = &mockLedgerRepo{
		savePairFunc: func(ctx context.Context, debit, credit *entities.LedgerEntry) error {
			f.savedEntries = append(f.savedEntries, [2]*entities.LedgerEntry{debit, credit})
			return nil
		},
	}

	f.uc = NewExecuteTransferUseCase(
		f.assetRepo,
		f.walletRepo,
		f.txRepo,
		f.ledgerRepo,
		f.publisher,
		f.uow,
		f.cache,
		NewCounterpartyRouter(f.treasuryID),
		testLogger(),
		24*time.Hour,
	)

	return f
}
