// Test helpers: function-field моки портов для read-проекций.
package query

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/gamevault/walletd/internal/application/ports"
	"github.com/gamevault/walletd/internal/domain/entities"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

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
