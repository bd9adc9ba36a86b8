// Package postgres - WalletRepository implementation.
//
// Балансы хранятся как NUMERIC(19,4); CHECK (balance >= 0) в схеме
// является последней линией защиты от отрицательных балансов.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/gamevault/walletd/internal/application/ports"
	"github.com/gamevault/walletd/internal/domain/entities"
	domainErrors "github.com/gamevault/walletd/internal/domain/errors"
	"github.com/gamevault/walletd/internal/domain/valueobjects"
)

// Compile-time check
var _ ports.WalletRepository = (*WalletRepository)(nil)

// WalletRepository реализует ports.WalletRepository.
type WalletRepository struct {
	pool *pgxpool.Pool
}

// NewWalletRepository создаёт новый WalletRepository.
func NewWalletRepository(pool *pgxpool.Pool) *WalletRepository {
	return &WalletRepository{pool: pool}
}

// getQuerier возвращает querier из context или pool.
func (r *WalletRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// Save сохраняет кошелёк (используется bootstrap/seed).
func (r *WalletRepository) Save(ctx context.Context, wallet *entities.Wallet) error {
	q := r.getQuerier(ctx)

	query := `
		INSERT INTO wallets (id, user_id, asset_id, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, asset_id) DO NOTHING
	`

	_, err := q.Exec(ctx, query,
		wallet.ID(),
		wallet.UserID(),
		wallet.AssetID(),
		wallet.Balance().String(),
		wallet.CreatedAt(),
		wallet.UpdatedAt(),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domainErrors.ErrUserNotFound
		}
		return fmt.Errorf("failed to save wallet: %w", err)
	}

	return nil
}

// FindByID загружает кошелёк по ID без блокировки.
func (r *WalletRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Wallet, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT id, user_id, asset_id, balance::text, created_at, updated_at
		FROM wallets
		WHERE id = $1
	`

	return r.scanWallet(q.QueryRow(ctx, query, id))
}

// FindByUserAndAsset находит кошелёк пользователя для актива.
func (r *WalletRepository) FindByUserAndAsset(ctx context.Context, userID, assetID uuid.UUID) (*entities.Wallet, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT id, user_id, asset_id, balance::text, created_at, updated_at
		FROM wallets
		WHERE user_id = $1 AND asset_id = $2
	`

	return r.scanWallet(q.QueryRow(ctx, query, userID, assetID))
}

// FindByUserID возвращает все кошельки пользователя.
func (r *WalletRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*entities.Wallet, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT id, user_id, asset_id, balance::text, created_at, updated_at
		FROM wallets
		WHERE user_id = $1
		ORDER BY created_at ASC
	`

	rows, err := q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find wallets by user: %w", err)
	}
	defer rows.Close()

	var wallets []*entities.Wallet
	for rows.Next() {
		wallet, err := r.scanWalletRow(rows)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, wallet)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wallet rows: %w", err)
	}

	return wallets, nil
}

// LockPair загружает оба кошелька пары под FOR UPDATE.
//
// ORDER BY user_id даёт канонический порядок захвата блокировок: два
// конкурирующих перевода по одной паре кошельков всегда блокируют
// строки в одном и том же порядке, что исключает deadlock между ними.
func (r *WalletRepository) LockPair(ctx context.Context, userIDA, userIDB, assetID uuid.UUID) ([]*entities.Wallet, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT id, user_id, asset_id, balance::text, created_at, updated_at
		FROM wallets
		WHERE user_id = ANY($1) AND asset_id = $2
		ORDER BY user_id
		FOR UPDATE
	`

	rows, err := q.Query(ctx, query, []uuid.UUID{userIDA, userIDB}, assetID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock wallet pair: %w", err)
	}
	defer rows.Close()

	var wallets []*entities.Wallet
	for rows.Next() {
		wallet, err := r.scanWalletRow(rows)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, wallet)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wallet rows: %w", err)
	}

	if len(wallets) != 2 {
		return nil, domainErrors.ErrWalletNotFound
	}

	return wallets, nil
}

// UpdateBalance записывает новый баланс кошелька.
// Вызывается только под блокировкой, поэтому без version-проверок.
func (r *WalletRepository) UpdateBalance(ctx context.Context, wallet *entities.Wallet) error {
	q := r.getQuerier(ctx)

	query := `UPDATE wallets SET balance = $2, updated_at = $3 WHERE id = $1`

	result, err := q.Exec(ctx, query, wallet.ID(), wallet.Balance().String(), wallet.UpdatedAt())
	if err != nil {
		if isCheckViolation(err) {
			return domainErrors.NewCorruptionError("Wallet", wallet.ID().String(),
				"balance update rejected by CHECK constraint")
		}
		return fmt.Errorf("failed to update wallet balance: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domainErrors.ErrWalletNotFound
	}

	return nil
}

// scanWallet сканирует одну строку в Wallet entity.
func (r *WalletRepository) scanWallet(row pgx.Row) (*entities.Wallet, error) {
	wallet, err := scanWalletColumns(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrWalletNotFound
		}
		return nil, err
	}
	return wallet, nil
}

func (r *WalletRepository) scanWalletRow(rows pgx.Rows) (*entities.Wallet, error) {
	return scanWalletColumns(rows.Scan)
}

// scanWalletColumns читает колонки кошелька через переданный Scan.
func scanWalletColumns(scan func(dest ...any) error) (*entities.Wallet, error) {
	var (
		id, userID, assetID  uuid.UUID
		balanceStr           string
		createdAt, updatedAt time.Time
	)

	if err := scan(&id, &userID, &assetID, &balanceStr, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, fmt.Errorf("failed to scan wallet: %w", err)
	}

	balanceDec, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("invalid balance in database: %w", err)
	}

	balance, err := valueobjects.NewAmountFromDecimal(balanceDec)
	if err != nil {
		// Отрицательный баланс в хранилище. Entity сохраняет значение,
		// CheckIntegrity поднимет CorruptionError на следующем переводе.
		balance = valueobjects.RawAmount(balanceDec)
	}

	return entities.ReconstructWallet(id, userID, assetID, balance, createdAt, updatedAt), nil
}
